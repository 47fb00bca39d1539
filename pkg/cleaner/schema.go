// pkg/cleaner/schema.go
package cleaner

// Output column names
const (
	ColCode             = "code"
	ColYearOfData       = "year_of_data"
	ColType             = "type"
	ColZoneName         = "zone_name"
	ColNeighborhoodName = "neighborhood_name"
	ColLengthMeters     = "length_meters"
	ColGeometry         = "geometry"
)

// Source columns combined into ColType
const (
	ColTypePrimary   = "dtipologia2"
	ColTypeSecondary = "tipologia2"

	typeSeparator = " - "
)

// DropColumn is a source column removed during pruning
type DropColumn struct {
	Name   string
	Reason string
}

// RedundantColumns lists the source columns dropped before any other stage
var RedundantColumns = []DropColumn{
	{Name: "geo_point_2d", Reason: "point projection duplicating the geometry"},
	{Name: "duso", Reason: "use code redundant with the type classification"},
	{Name: "length", Reason: "alias of lunghezza"},
}

// RenameColumn maps a source column to its public name
type RenameColumn struct {
	From string
	To   string
}

// ColumnRenames is the source to public schema mapping
var ColumnRenames = []RenameColumn{
	{From: "codice", To: ColCode},
	{From: "anno", To: ColYearOfData},
	{From: "lunghezza", To: ColLengthMeters},
	{From: "tipologia", To: ColType},
	{From: "nomequart", To: ColNeighborhoodName},
	{From: "zona_fiu", To: ColZoneName},
}

// TextColumns are normalized free-text columns
var TextColumns = []string{ColType, ColNeighborhoodName, ColZoneName}

// OutputColumns is the exact, ordered output schema
var OutputColumns = []string{
	ColCode,
	ColYearOfData,
	ColType,
	ColZoneName,
	ColNeighborhoodName,
	ColLengthMeters,
	ColGeometry,
}
