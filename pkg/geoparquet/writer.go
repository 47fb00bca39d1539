// pkg/geoparquet/writer.go
package geoparquet

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/apache/arrow/go/v14/arrow/array"
	"github.com/apache/arrow/go/v14/arrow/memory"
	"github.com/apache/arrow/go/v14/parquet"
	"github.com/apache/arrow/go/v14/parquet/compress"
	"github.com/apache/arrow/go/v14/parquet/pqarrow"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/David-Botos/pathprep/pkg/converter"
	"github.com/David-Botos/pathprep/pkg/model"
)

const createdBy = "pathprep"

// Writer encodes tables as GeoParquet
type Writer struct {
	converter *converter.TypeConverter
	logger    *zap.Logger
	mem       memory.Allocator
}

// NewWriter creates a GeoParquet writer
func NewWriter(logger *zap.Logger) *Writer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{
		converter: converter.NewTypeConverter(logger),
		logger:    logger.Named("geoparquet-writer"),
		mem:       memory.NewGoAllocator(),
	}
}

// Encode writes t to out as a single row group GeoParquet file
func (w *Writer) Encode(ctx context.Context, t *model.Table, out io.Writer) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	md, err := BuildMetadata(t)
	if err != nil {
		return err
	}
	mdJSON, err := md.Marshal()
	if err != nil {
		return errors.Wrap(err, "encode geoparquet metadata")
	}

	schema, err := w.converter.ArrowSchema(t, nil)
	if err != nil {
		return err
	}

	b := array.NewRecordBuilder(w.mem, schema)
	defer b.Release()

	for i, col := range t.Columns {
		if err := w.appendColumn(b.Field(i), col, t.Rows); err != nil {
			return err
		}
	}

	rec := b.NewRecord()
	defer rec.Release()

	props := parquet.NewWriterProperties(
		parquet.WithCompression(compress.Codecs.Snappy),
		parquet.WithCreatedBy(createdBy),
	)
	arrProps := pqarrow.NewArrowWriterProperties(pqarrow.WithStoreSchema())

	fw, err := pqarrow.NewFileWriter(schema, out, props, arrProps)
	if err != nil {
		return errors.Wrap(err, "create parquet writer")
	}
	if err := fw.Write(rec); err != nil {
		fw.Close()
		return errors.Wrap(err, "write record batch")
	}
	if err := fw.AppendKeyValueMetadata(MetadataKey, string(mdJSON)); err != nil {
		fw.Close()
		return errors.Wrap(err, "append geoparquet metadata")
	}
	if err := fw.Close(); err != nil {
		return errors.Wrap(err, "close parquet writer")
	}

	w.logger.Debug("Encoded GeoParquet table",
		zap.Int("rows", t.NumRows()),
		zap.Int("columns", t.NumColumns()),
		zap.String("primaryColumn", md.PrimaryColumn))
	return nil
}

func (w *Writer) appendColumn(fb array.Builder, col model.Column, rows []model.Row) error {
	for i, row := range rows {
		v, err := w.converter.ConvertValue(row[col.Name], col.Kind)
		if err != nil {
			return errors.Wrapf(err, "column %s row %d", col.Name, i)
		}
		if v == nil {
			fb.AppendNull()
			continue
		}

		switch bld := fb.(type) {
		case *array.StringBuilder:
			bld.Append(v.(string))
		case *array.Int64Builder:
			bld.Append(v.(int64))
		case *array.Float64Builder:
			bld.Append(v.(float64))
		case *array.BooleanBuilder:
			bld.Append(v.(bool))
		case *array.BinaryBuilder:
			bld.Append(v.(model.Geometry).WKB)
		default:
			return errors.Errorf("column %s: unsupported builder %T", col.Name, fb)
		}
	}
	return nil
}

// WriteFile encodes t and commits it to path atomically: the bytes go to a
// temporary file in the same directory which is synced and then renamed.
// On failure no file is left at path.
func (w *Writer) WriteFile(ctx context.Context, path string, t *model.Table) error {
	var buf bytes.Buffer
	if err := w.Encode(ctx, t, &buf); err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "create directory %s", dir)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return errors.Wrap(err, "create temporary file")
	}
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		return errors.Wrap(err, "write temporary file")
	}
	if err := tmp.Sync(); err != nil {
		return errors.Wrap(err, "sync temporary file")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "close temporary file")
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return errors.Wrap(err, "chmod temporary file")
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return errors.Wrapf(err, "rename into %s", path)
	}
	committed = true

	w.logger.Info("Wrote GeoParquet file",
		zap.String("path", path),
		zap.Int("rows", t.NumRows()),
		zap.Int("bytes", buf.Len()))
	return nil
}
