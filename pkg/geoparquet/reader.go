// pkg/geoparquet/reader.go
package geoparquet

import (
	"bytes"
	"context"
	"os"
	"strings"

	"github.com/apache/arrow/go/v14/arrow"
	"github.com/apache/arrow/go/v14/arrow/array"
	"github.com/apache/arrow/go/v14/arrow/memory"
	"github.com/apache/arrow/go/v14/parquet"
	"github.com/apache/arrow/go/v14/parquet/file"
	"github.com/apache/arrow/go/v14/parquet/pqarrow"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/David-Botos/pathprep/pkg/converter"
	"github.com/David-Botos/pathprep/pkg/model"
)

// DefaultGeometryColumn is assumed when a file carries no geo metadata
const DefaultGeometryColumn = "geometry"

// Reader decodes GeoParquet files into tables
type Reader struct {
	converter *converter.TypeConverter
	logger    *zap.Logger
	mem       memory.Allocator
}

// NewReader creates a GeoParquet reader
func NewReader(logger *zap.Logger) *Reader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reader{
		converter: converter.NewTypeConverter(logger),
		logger:    logger.Named("geoparquet-reader"),
		mem:       memory.NewGoAllocator(),
	}
}

// ReadFile loads the file at path. A missing file returns an error matching
// fs.ErrNotExist; any other failure means the bytes could not be decoded.
func (r *Reader) ReadFile(ctx context.Context, path string) (*model.Table, *Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	t, md, err := r.Decode(ctx, bytes.NewReader(data))
	if err != nil {
		return nil, nil, errors.Wrapf(err, "decode %s", path)
	}
	r.logger.Debug("Read GeoParquet file",
		zap.String("path", path),
		zap.Int("rows", t.NumRows()),
		zap.Strings("columns", t.ColumnNames()))
	return t, md, nil
}

// Decode reads a whole parquet file into a table. When the file has no geo
// metadata a binary column named "geometry" is taken as the geometry column.
func (r *Reader) Decode(ctx context.Context, src parquet.ReaderAtSeeker) (*model.Table, *Metadata, error) {
	pf, err := file.NewParquetReader(src)
	if err != nil {
		return nil, nil, errors.Wrap(err, "open parquet")
	}
	defer pf.Close()

	var md *Metadata
	if raw := pf.MetaData().KeyValueMetadata().FindValue(MetadataKey); raw != nil {
		md, err = ParseMetadata([]byte(*raw))
		if err != nil {
			return nil, nil, err
		}
	}

	fr, err := pqarrow.NewFileReader(pf, pqarrow.ArrowReadProperties{}, r.mem)
	if err != nil {
		return nil, nil, errors.Wrap(err, "open arrow reader")
	}
	tbl, err := fr.ReadTable(ctx)
	if err != nil {
		return nil, nil, errors.Wrap(err, "read table")
	}
	defer tbl.Release()

	schema := tbl.Schema()
	nrows := int(tbl.NumRows())
	out := &model.Table{
		Columns: make([]model.Column, 0, len(schema.Fields())),
		Rows:    make([]model.Row, nrows),
	}
	for i := range out.Rows {
		out.Rows[i] = make(model.Row, len(schema.Fields()))
	}

	for i, field := range schema.Fields() {
		isGeom := md.IsGeometryColumn(field.Name) || (md == nil && field.Name == DefaultGeometryColumn)
		kind, err := r.converter.KindFromArrow(field.Type, isGeom)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "column %s", field.Name)
		}
		out.Columns = append(out.Columns, model.Column{Name: field.Name, Kind: kind, Nullable: field.Nullable})

		offset := 0
		for _, chunk := range tbl.Column(i).Data().Chunks() {
			for j := 0; j < chunk.Len(); j++ {
				v, err := valueAt(chunk, j)
				if err != nil {
					return nil, nil, errors.Wrapf(err, "column %s row %d", field.Name, offset+j)
				}
				if kind == model.KindGeometry && v != nil {
					v = model.Geometry{WKB: v.([]byte)}
				}
				out.Rows[offset+j][field.Name] = v
			}
			offset += chunk.Len()
		}
	}

	if md == nil && out.GeometryColumn() != nil {
		md, err = BuildMetadata(out)
		if err != nil {
			return nil, nil, err
		}
	}
	return out, md, nil
}

// valueAt returns the Go value at index i. Values are copied out of arrow
// buffers so the table can be released.
func valueAt(arr arrow.Array, i int) (interface{}, error) {
	if arr.IsNull(i) {
		return nil, nil
	}

	switch a := arr.(type) {
	case *array.String:
		return strings.Clone(a.Value(i)), nil
	case *array.LargeString:
		return strings.Clone(a.Value(i)), nil
	case *array.Int8:
		return int64(a.Value(i)), nil
	case *array.Int16:
		return int64(a.Value(i)), nil
	case *array.Int32:
		return int64(a.Value(i)), nil
	case *array.Int64:
		return a.Value(i), nil
	case *array.Uint8:
		return int64(a.Value(i)), nil
	case *array.Uint16:
		return int64(a.Value(i)), nil
	case *array.Uint32:
		return int64(a.Value(i)), nil
	case *array.Float32:
		return float64(a.Value(i)), nil
	case *array.Float64:
		return a.Value(i), nil
	case *array.Boolean:
		return a.Value(i), nil
	case *array.Binary:
		return append([]byte(nil), a.Value(i)...), nil
	case *array.LargeBinary:
		return append([]byte(nil), a.Value(i)...), nil
	case *array.Dictionary:
		return valueAt(a.Dictionary(), a.GetValueIndex(i))
	case *array.Null:
		return nil, nil
	default:
		return nil, errors.Errorf("unsupported arrow array %s", arr.DataType())
	}
}
