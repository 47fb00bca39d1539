package cleaner

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/David-Botos/pathprep/pkg/audit"
	"github.com/David-Botos/pathprep/pkg/diag"
	"github.com/David-Botos/pathprep/pkg/failure"
	"github.com/David-Botos/pathprep/pkg/geoparquet"
	"github.com/David-Botos/pathprep/pkg/model"
)

func newTestCleaner(t *testing.T) (*DataCleaner, *diag.Recorder, *audit.MemoryStore) {
	t.Helper()
	rec := diag.NewRecorder()
	store := audit.NewMemoryStore()
	c, err := NewDataCleaner("piste-ciclopedonali", zap.NewNop(), rec, store)
	require.NoError(t, err)
	c.now = func() time.Time { return time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC) }
	return c, rec, store
}

type failingStore struct{}

func (failingStore) Record(context.Context, []model.CleaningOperation) error {
	return errors.New("connection refused")
}

func (failingStore) Close() error { return nil }

func TestNewDataCleaner(t *testing.T) {
	_, err := NewDataCleaner("", zap.NewNop(), nil, nil)
	assert.Error(t, err)

	_, err = NewDataCleaner("paths", nil, nil, nil)
	assert.Error(t, err)

	c, err := NewDataCleaner("paths", zap.NewNop(), nil, nil)
	require.NoError(t, err)
	assert.NotNil(t, c.sink)
	assert.NotNil(t, c.store)
}

func TestRun_EndToEnd(t *testing.T) {
	ctx := context.Background()
	c, rec, store := newTestCleaner(t)
	in := writeRaw(t, rawTable(t))
	out := filepath.Join(t.TempDir(), "processed", "piste-ciclopedonali.parquet")

	metrics, err := c.Run(ctx, in, out)
	require.NoError(t, err)

	assert.Equal(t, 10, metrics.RowsRead)
	assert.Equal(t, 8, metrics.RowsWritten)
	assert.Equal(t, 2, metrics.RowsDiscarded)
	assert.Equal(t, 2, metrics.YearFallbacks)
	assert.Equal(t, 4, metrics.CleaningOps)
	assert.Equal(t, 2, metrics.DiscardReasons[model.ReasonNullType])
	require.NotNil(t, metrics.Verification)
	assert.True(t, metrics.Verification.OK())
	assert.Greater(t, metrics.BytesWritten, int64(0))

	tbl, md, err := geoparquet.NewReader(nil).ReadFile(ctx, out)
	require.NoError(t, err)
	assert.Equal(t, OutputColumns, tbl.ColumnNames())
	assert.Equal(t, 8, tbl.NumRows())
	assert.Equal(t, "geometry", md.PrimaryColumn)

	year, _ := tbl.Column(ColYearOfData)
	assert.Equal(t, model.KindInt64, year.Kind)
	for _, row := range tbl.Rows {
		assert.Equal(t, "pista - ciclabile", row[ColType])
		assert.Equal(t, "navile ", row[ColZoneName])
		assert.Equal(t, "bolognina", row[ColNeighborhoodName])
		assert.NotNil(t, row[ColYearOfData])
	}
	assert.Equal(t, "P0", tbl.Rows[0][ColCode])
	assert.Equal(t, 100.0, tbl.Rows[0][ColLengthMeters])

	ops := store.Operations()
	require.Len(t, ops, 4)
	assert.Equal(t, model.OperationRowDiscarded, ops[0].CleaningOperation)
	assert.Equal(t, "P3", ops[0].RowIdentifier)
	assert.Equal(t, model.ReasonNullType, ops[0].CleaningReason)
	assert.Equal(t, "P7", ops[1].RowIdentifier)
	assert.Equal(t, model.OperationYearSentinel, ops[2].CleaningOperation)
	assert.Equal(t, "19", ops[2].OriginalValue)
	assert.Equal(t, "0", ops[2].NewValue)
	assert.Equal(t, metrics.RunID, ops[3].RunID)
	assert.Equal(t, "piste-ciclopedonali", ops[3].Dataset)

	reconcile := rec.ByStage(StageReconcile)
	require.NotEmpty(t, reconcile)
	var discardEvent *diag.Event
	for i := range reconcile {
		if reconcile[i].Level == diag.LevelWarn {
			discardEvent = &reconcile[i]
		}
	}
	require.NotNil(t, discardEvent)
	assert.Equal(t, 2, discardEvent.Rows)
	assert.Equal(t, 2, discardEvent.Preview.NumRows())

	// raw artifact untouched
	raw, _, err := geoparquet.NewReader(nil).ReadFile(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, 10, raw.NumRows())
}

func TestRun_Idempotent(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newTestCleaner(t)
	in := writeRaw(t, rawTable(t))
	dir := t.TempDir()
	first := filepath.Join(dir, "first.parquet")
	second := filepath.Join(dir, "second.parquet")

	_, err := c.Run(ctx, in, first)
	require.NoError(t, err)
	_, err = c.Run(ctx, in, second)
	require.NoError(t, err)

	a, err := os.ReadFile(first)
	require.NoError(t, err)
	b, err := os.ReadFile(second)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(a, b))
}

func TestRun_NoRowsDiscarded(t *testing.T) {
	raw := rawTable(t)
	raw.Rows[3]["tipologia2"] = "Ciclabile"
	raw.Rows[7]["tipologia2"] = "Ciclabile"

	c, _, store := newTestCleaner(t)
	metrics, err := c.Run(context.Background(), writeRaw(t, raw), filepath.Join(t.TempDir(), "out.parquet"))
	require.NoError(t, err)
	assert.Equal(t, metrics.RowsRead, metrics.RowsWritten)
	assert.Len(t, store.Operations(), 2)
}

func TestRun_Errors(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newTestCleaner(t)
	dir := t.TempDir()
	out := filepath.Join(dir, "out.parquet")

	_, err := c.Run(ctx, filepath.Join(dir, "missing.parquet"), out)
	assert.True(t, failure.Is(err, failure.NotFound))

	corrupt := filepath.Join(dir, "corrupt.parquet")
	require.NoError(t, os.WriteFile(corrupt, []byte("PAR1 but not really"), 0o644))
	_, err = c.Run(ctx, corrupt, out)
	assert.True(t, failure.Is(err, failure.Load))

	in := writeRaw(t, rawTable(t))
	_, err = c.Run(ctx, in, in)
	assert.True(t, failure.Is(err, failure.Write))

	drifted := writeRaw(t, withoutColumns(rawTable(t), "geo_point_2d"))
	_, err = c.Run(ctx, drifted, out)
	require.Error(t, err)
	assert.True(t, failure.Is(err, failure.Schema))
	assert.Contains(t, err.Error(), "geo_point_2d")

	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRun_WriteFailure(t *testing.T) {
	c, _, _ := newTestCleaner(t)
	in := writeRaw(t, rawTable(t))
	out := filepath.Join(t.TempDir(), "out.parquet")
	require.NoError(t, os.MkdirAll(filepath.Join(out, "child"), 0o755))

	_, err := c.Run(context.Background(), in, out)
	require.Error(t, err)
	assert.True(t, failure.Is(err, failure.Write))

	var fe *failure.Error
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, StagePersist, fe.Stage)
	assert.Equal(t, out, fe.Artifact)
}

func TestRun_VerificationFailureRemovesOutput(t *testing.T) {
	c, _, _ := newTestCleaner(t)
	c.verify = func(ctx context.Context, path string, expected *model.Table) (*VerificationReport, error) {
		_, err := os.Stat(path)
		require.NoError(t, err)
		return &VerificationReport{
			Path:             path,
			RowCountMatches:  false,
			ExpectedRowCount: expected.NumRows(),
			ActualRowCount:   expected.NumRows() - 1,
			StructureMatches: true,
		}, nil
	}
	out := filepath.Join(t.TempDir(), "out.parquet")

	_, err := c.Run(context.Background(), writeRaw(t, rawTable(t)), out)
	require.Error(t, err)
	assert.True(t, failure.Is(err, failure.Write))

	var fe *failure.Error
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, StageVerify, fe.Stage)

	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRun_AuditFailure(t *testing.T) {
	c, err := NewDataCleaner("paths", zap.NewNop(), nil, failingStore{})
	require.NoError(t, err)
	out := filepath.Join(t.TempDir(), "out.parquet")

	_, err = c.Run(context.Background(), writeRaw(t, rawTable(t)), out)
	assert.True(t, failure.Is(err, failure.Write))

	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))
}

func TestClean_InMemory(t *testing.T) {
	c, _, _ := newTestCleaner(t)
	metrics := NewRunMetrics(nil, "run", "paths")

	cleaned, ops, err := c.Clean(context.Background(), rawTable(t), "run", metrics)
	require.NoError(t, err)
	assert.Equal(t, OutputColumns, cleaned.ColumnNames())
	assert.Equal(t, 8, cleaned.NumRows())
	assert.Len(t, ops, 4)

	var stages []string
	for _, s := range metrics.Stages {
		stages = append(stages, s.Stage)
	}
	assert.Equal(t, []string{
		StageDropColumns, StageDeriveType, StageRename, StageReconcile,
		StageCanonicalizeYear, StageNormalizeText, StageProject,
	}, stages)
}

func TestClean_RowIdentifiersUseLoadPosition(t *testing.T) {
	c, _, _ := newTestCleaner(t)
	in := rawTable(t)
	in.Rows[3]["codice"] = nil // discarded for null tipologia2
	in.Rows[4]["codice"] = nil // year "19" falls back to the sentinel

	_, ops, err := c.Clean(context.Background(), in, "run", nil)
	require.NoError(t, err)
	require.Len(t, ops, 4)

	assert.Equal(t, model.OperationRowDiscarded, ops[0].CleaningOperation)
	assert.Equal(t, "row:3", ops[0].RowIdentifier)
	assert.Equal(t, "P7", ops[1].RowIdentifier)
	assert.Equal(t, model.OperationYearSentinel, ops[2].CleaningOperation)
	assert.Equal(t, "row:4", ops[2].RowIdentifier)
	assert.Equal(t, "19", ops[2].OriginalValue)
	assert.Equal(t, "P5", ops[3].RowIdentifier)
}

func TestClean_Cancelled(t *testing.T) {
	c, _, _ := newTestCleaner(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := c.Clean(ctx, rawTable(t), "run", nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSamePath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.parquet")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	assert.True(t, samePath(path, filepath.Join(dir, ".", "a.parquet")))
	assert.False(t, samePath(path, filepath.Join(dir, "b.parquet")))
}
