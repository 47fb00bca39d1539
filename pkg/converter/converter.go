// pkg/converter/converter.go
package converter

import (
	"github.com/apache/arrow/go/v14/arrow"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/David-Botos/pathprep/pkg/model"
)

// TypeConverter handles mapping and conversion of data types and values
type TypeConverter struct {
	logger *zap.Logger
	// Configuration options
	config TypeConverterConfig
}

// TypeConverterConfig provides configuration options for type conversion
type TypeConverterConfig struct {
	// Whether to treat empty strings as null
	EmptyStringAsNull bool
	// Whether nested GeoJSON property values (objects, arrays) are kept as JSON text.
	// When false they are dropped to null.
	NestedAsJSON bool
}

// DefaultConfig returns the default configuration
func DefaultConfig() TypeConverterConfig {
	return TypeConverterConfig{
		EmptyStringAsNull: false,
		NestedAsJSON:      true,
	}
}

// NewTypeConverter creates a new TypeConverter with default configuration
func NewTypeConverter(logger *zap.Logger) *TypeConverter {
	return NewTypeConverterWithConfig(logger, DefaultConfig())
}

// NewTypeConverterWithConfig creates a TypeConverter with custom configuration
func NewTypeConverterWithConfig(logger *zap.Logger, config TypeConverterConfig) *TypeConverter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TypeConverter{
		logger: logger,
		config: config,
	}
}

// ArrowType maps a column kind to the arrow type used on disk
func (c *TypeConverter) ArrowType(kind model.Kind) (arrow.DataType, error) {
	switch kind {
	case model.KindString:
		return arrow.BinaryTypes.String, nil
	case model.KindInt64:
		return arrow.PrimitiveTypes.Int64, nil
	case model.KindFloat64:
		return arrow.PrimitiveTypes.Float64, nil
	case model.KindBool:
		return arrow.FixedWidthTypes.Boolean, nil
	case model.KindGeometry:
		return arrow.BinaryTypes.Binary, nil
	default:
		return nil, errors.Errorf("no arrow type for kind %s", kind)
	}
}

// KindFromArrow maps an arrow type read from disk to a column kind.
// Binary columns are only accepted when they are declared geometry columns.
func (c *TypeConverter) KindFromArrow(dt arrow.DataType, isGeometry bool) (model.Kind, error) {
	if dict, ok := dt.(*arrow.DictionaryType); ok {
		dt = dict.ValueType
	}

	switch dt.ID() {
	case arrow.STRING, arrow.LARGE_STRING, arrow.NULL:
		return model.KindString, nil
	case arrow.INT8, arrow.INT16, arrow.INT32, arrow.INT64,
		arrow.UINT8, arrow.UINT16, arrow.UINT32:
		return model.KindInt64, nil
	case arrow.FLOAT32, arrow.FLOAT64:
		return model.KindFloat64, nil
	case arrow.BOOL:
		return model.KindBool, nil
	case arrow.BINARY, arrow.LARGE_BINARY:
		if isGeometry {
			return model.KindGeometry, nil
		}
		return 0, errors.Errorf("binary column is not a declared geometry column")
	default:
		c.logger.Warn("Unsupported arrow type encountered",
			zap.String("arrowType", dt.String()))
		return 0, errors.Errorf("unsupported arrow type: %s", dt)
	}
}

// ArrowSchema builds the arrow schema for a table, in column order
func (c *TypeConverter) ArrowSchema(t *model.Table, metadata *arrow.Metadata) (*arrow.Schema, error) {
	fields := make([]arrow.Field, 0, len(t.Columns))
	for _, col := range t.Columns {
		dt, err := c.ArrowType(col.Kind)
		if err != nil {
			return nil, errors.Wrapf(err, "column %s", col.Name)
		}
		fields = append(fields, arrow.Field{Name: col.Name, Type: dt, Nullable: true})
	}
	return arrow.NewSchema(fields, metadata), nil
}
