// pkg/ingest/ingest.go
package ingest

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/David-Botos/pathprep/pkg/converter"
	"github.com/David-Botos/pathprep/pkg/diag"
	"github.com/David-Botos/pathprep/pkg/failure"
	"github.com/David-Botos/pathprep/pkg/geo"
	"github.com/David-Botos/pathprep/pkg/geoparquet"
	"github.com/David-Botos/pathprep/pkg/model"
)

// Stage names used in errors and diagnostics
const (
	StageLoad     = "ingest.load"
	StageValidate = "ingest.validate"
	StageWrite    = "ingest.write"
)

// OutputExtension is the extension of the derived columnar file
const OutputExtension = ".parquet"

var supportedExtensions = map[string]bool{
	".geojson": true,
	".json":    true,
}

// Report summarizes post-load validation
type Report struct {
	Rows       int
	Columns    int
	NullCounts map[string]int
	Warnings   []string
	Geometry   *geo.Summary
}

// Result describes a completed ingest run
type Result struct {
	RunID    string
	Input    string
	Output   string
	Report   *Report
	Duration time.Duration
}

// Ingestor converts GeoJSON files into GeoParquet snapshots
type Ingestor struct {
	logger    *zap.Logger
	sink      diag.Sink
	converter *converter.TypeConverter
	writer    *geoparquet.Writer
}

// NewIngestor creates an ingestor with the default property conversion.
// A nil sink discards diagnostics.
func NewIngestor(logger *zap.Logger, sink diag.Sink) *Ingestor {
	return NewIngestorWithConfig(logger, sink, converter.DefaultConfig())
}

// NewIngestorWithConfig creates an ingestor whose property values are
// converted according to cfg
func NewIngestorWithConfig(logger *zap.Logger, sink diag.Sink, cfg converter.TypeConverterConfig) *Ingestor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if sink == nil {
		sink = diag.Nop
	}
	return &Ingestor{
		logger:    logger.Named("ingestor"),
		sink:      sink,
		converter: converter.NewTypeConverterWithConfig(logger, cfg),
		writer:    geoparquet.NewWriter(logger),
	}
}

// DerivedPath returns the snapshot path for a source file: same directory,
// same base name, .parquet extension.
func DerivedPath(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + OutputExtension
}

// Load reads a GeoJSON FeatureCollection into a table
func (i *Ingestor) Load(ctx context.Context, path string) (*model.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, failure.New(failure.NotFound, StageLoad, path, err)
		}
		return nil, failure.New(failure.Load, StageLoad, path, err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if !supportedExtensions[ext] {
		return nil, failure.Newf(failure.Load, StageLoad, path, "unsupported format %q", ext)
	}

	features, err := decodeFeatureCollection(data)
	if err != nil {
		return nil, failure.New(failure.Load, StageLoad, path, err)
	}

	t, err := i.buildTable(features)
	if err != nil {
		return nil, failure.New(failure.Load, StageLoad, path, err)
	}

	i.logger.Info("Loaded GeoJSON file",
		zap.String("path", path),
		zap.Int("rows", t.NumRows()),
		zap.Int("columns", t.NumColumns()))
	i.sink.Record(diag.Event{
		Stage:   StageLoad,
		Message: "Loaded source table",
		Rows:    t.NumRows(),
		Columns: t.ColumnNames(),
		Preview: t,
	})
	return t, nil
}

// Validate performs the post-load sanity checks. Empty tables and null values
// are warnings; fewer than two columns is fatal.
func (i *Ingestor) Validate(t *model.Table) (*Report, error) {
	report := &Report{
		Rows:       t.NumRows(),
		Columns:    t.NumColumns(),
		NullCounts: t.NullCounts(),
		Geometry:   geo.NewSummary(),
	}

	if report.Rows == 0 {
		report.Warnings = append(report.Warnings, "table has no rows")
		i.sink.Record(diag.Event{Stage: StageValidate, Level: diag.LevelWarn, Message: "Table has no rows"})
	}

	if report.Columns < 2 {
		return report, failure.Newf(failure.Schema, StageValidate, strings.Join(t.ColumnNames(), ","),
			"expected at least 2 columns, got %d", report.Columns)
	}

	if nulls := t.TotalNulls(); nulls > 0 {
		withNulls := make(map[string]int)
		for name, n := range report.NullCounts {
			if n > 0 {
				withNulls[name] = n
			}
		}
		cols := make([]string, 0, len(withNulls))
		for name := range withNulls {
			cols = append(cols, name)
		}
		sort.Strings(cols)
		report.Warnings = append(report.Warnings, "null values in columns: "+strings.Join(cols, ", "))
		i.sink.Record(diag.Event{
			Stage:   StageValidate,
			Level:   diag.LevelWarn,
			Message: "Null values found",
			Rows:    report.Rows,
			Counts:  withNulls,
		})
	}

	if col := t.GeometryColumn(); col != nil {
		for _, row := range t.Rows {
			var b []byte
			if g, ok := row[col.Name].(model.Geometry); ok {
				b = g.WKB
			}
			if err := report.Geometry.AddWKB(b); err != nil {
				// Geometry correctness is advisory here.
				report.Warnings = append(report.Warnings, err.Error())
			}
		}
	}

	i.logger.Info("Validated table",
		zap.Int("rows", report.Rows),
		zap.Int("columns", report.Columns),
		zap.Strings("geometryTypes", report.Geometry.Types),
		zap.Float64s("bbox", report.Geometry.BBox),
		zap.Float64("totalLengthMeters", report.Geometry.TotalLength),
		zap.Int("warnings", len(report.Warnings)))
	return report, nil
}

// Run loads, validates and writes the snapshot next to the source file
func (i *Ingestor) Run(ctx context.Context, path string) (*Result, error) {
	start := time.Now()
	result := &Result{
		RunID:  uuid.New().String(),
		Input:  path,
		Output: DerivedPath(path),
	}
	logger := i.logger.With(zap.String("runID", result.RunID))
	logger.Info("Starting ingest", zap.String("input", result.Input), zap.String("output", result.Output))

	t, err := i.Load(ctx, path)
	if err != nil {
		return nil, err
	}

	result.Report, err = i.Validate(t)
	if err != nil {
		return nil, err
	}

	if err := i.writer.WriteFile(ctx, result.Output, t); err != nil {
		return nil, failure.New(failure.Write, StageWrite, result.Output, err)
	}

	result.Duration = time.Since(start)
	i.sink.Record(diag.Event{
		Stage:   StageWrite,
		Message: "Wrote snapshot",
		Rows:    t.NumRows(),
		Columns: t.ColumnNames(),
	})
	logger.Info("Ingest completed",
		zap.String("output", result.Output),
		zap.Int("rows", t.NumRows()),
		zap.Duration("duration", result.Duration))
	return result, nil
}
