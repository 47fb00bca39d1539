// pkg/cleaner/verifier.go
package cleaner

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/David-Botos/pathprep/pkg/converter"
	"github.com/David-Botos/pathprep/pkg/geoparquet"
	"github.com/David-Botos/pathprep/pkg/model"
)

// RowDiscrepancy represents a difference between an expected and a persisted row
type RowDiscrepancy struct {
	RowIndex      int
	ColumnName    string
	ExpectedValue interface{}
	ActualValue   interface{}
}

// StructureDiscrepancy represents a difference in column layout
type StructureDiscrepancy struct {
	Position       int
	ExpectedColumn string
	ActualColumn   string
	ExpectedKind   string
	ActualKind     string
	IsMissing      bool
}

// VerificationReport contains the results of verifying a persisted file
type VerificationReport struct {
	Path                   string
	VerificationTime       time.Time
	RowCountMatches        bool
	ExpectedRowCount       int
	ActualRowCount         int
	StructureMatches       bool
	StructureDiscrepancies []StructureDiscrepancy
	SampleSize             int
	SampleDiscrepancies    []RowDiscrepancy
	Duration               time.Duration
}

// OK reports whether the file matched in every respect
func (r *VerificationReport) OK() bool {
	return r.RowCountMatches && r.StructureMatches && len(r.SampleDiscrepancies) == 0
}

// Summary describes the first problem found
func (r *VerificationReport) Summary() string {
	switch {
	case !r.RowCountMatches:
		return fmt.Sprintf("row count mismatch: expected %d, found %d", r.ExpectedRowCount, r.ActualRowCount)
	case !r.StructureMatches:
		d := r.StructureDiscrepancies[0]
		return fmt.Sprintf("column %d mismatch: expected %s (%s), found %s (%s)",
			d.Position, d.ExpectedColumn, d.ExpectedKind, d.ActualColumn, d.ActualKind)
	case len(r.SampleDiscrepancies) > 0:
		d := r.SampleDiscrepancies[0]
		return fmt.Sprintf("row %d column %s differs", d.RowIndex, d.ColumnName)
	default:
		return "ok"
	}
}

// Verifier re-reads persisted files and compares them with the table written
type Verifier struct {
	reader *geoparquet.Reader
	logger *zap.Logger
}

// NewVerifier creates a new verifier
func NewVerifier(logger *zap.Logger) *Verifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Verifier{
		reader: geoparquet.NewReader(logger),
		logger: logger.Named("verifier"),
	}
}

// VerifyFile reads path back and checks row count, column layout and a
// sample of rows against expected
func (v *Verifier) VerifyFile(ctx context.Context, path string, expected *model.Table) (*VerificationReport, error) {
	start := time.Now()
	report := &VerificationReport{
		Path:             path,
		VerificationTime: start,
		ExpectedRowCount: expected.NumRows(),
	}

	actual, _, err := v.reader.ReadFile(ctx, path)
	if err != nil {
		return nil, err
	}

	report.ActualRowCount = actual.NumRows()
	report.RowCountMatches = report.ActualRowCount == report.ExpectedRowCount

	report.StructureDiscrepancies = compareStructure(expected, actual)
	report.StructureMatches = len(report.StructureDiscrepancies) == 0

	if report.RowCountMatches && report.StructureMatches {
		report.SampleSize = calculateSampleSize(expected.NumRows())
		report.SampleDiscrepancies = compareRows(expected, actual, report.SampleSize)
	}
	report.Duration = time.Since(start)

	if report.OK() {
		v.logger.Info("Persisted file verified",
			zap.String("path", path),
			zap.Int("rows", report.ActualRowCount),
			zap.Int("sampleSize", report.SampleSize))
	} else {
		v.logger.Warn("Persisted file verification failed",
			zap.String("path", path),
			zap.String("problem", report.Summary()))
	}
	return report, nil
}

func compareStructure(expected, actual *model.Table) []StructureDiscrepancy {
	var out []StructureDiscrepancy
	for i, col := range expected.Columns {
		d := StructureDiscrepancy{
			Position:       i,
			ExpectedColumn: col.Name,
			ExpectedKind:   col.Kind.String(),
		}
		if i >= len(actual.Columns) {
			d.IsMissing = true
			out = append(out, d)
			continue
		}
		got := actual.Columns[i]
		if got.Name != col.Name || got.Kind != col.Kind {
			d.ActualColumn = got.Name
			d.ActualKind = got.Kind.String()
			out = append(out, d)
		}
	}
	for i := len(expected.Columns); i < len(actual.Columns); i++ {
		out = append(out, StructureDiscrepancy{
			Position:     i,
			ActualColumn: actual.Columns[i].Name,
			ActualKind:   actual.Columns[i].Kind.String(),
		})
	}
	return out
}

// calculateSampleSize determines how many leading rows to compare
func calculateSampleSize(rowCount int) int {
	switch {
	case rowCount <= 1000:
		return rowCount
	case rowCount <= 100000:
		return 1000
	default:
		return 5000
	}
}

func compareRows(expected, actual *model.Table, n int) []RowDiscrepancy {
	var out []RowDiscrepancy
	for i := 0; i < n && i < len(expected.Rows) && i < len(actual.Rows); i++ {
		for _, col := range expected.Columns {
			want, got := expected.Rows[i][col.Name], actual.Rows[i][col.Name]
			if !valuesEqual(want, got) {
				out = append(out, RowDiscrepancy{
					RowIndex:      i,
					ColumnName:    col.Name,
					ExpectedValue: want,
					ActualValue:   got,
				})
			}
		}
	}
	return out
}

// valuesEqual compares values after they have been through storage
func valuesEqual(a, b interface{}) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ga, okA := a.(model.Geometry)
	gb, okB := b.(model.Geometry)
	if okA || okB {
		return okA && okB && bytes.Equal(ga.WKB, gb.WKB)
	}
	return converter.ToString(a) == converter.ToString(b)
}
