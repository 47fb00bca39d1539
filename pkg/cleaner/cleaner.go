// pkg/cleaner/cleaner.go
package cleaner

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/David-Botos/pathprep/pkg/audit"
	"github.com/David-Botos/pathprep/pkg/diag"
	"github.com/David-Botos/pathprep/pkg/failure"
	"github.com/David-Botos/pathprep/pkg/geoparquet"
	"github.com/David-Botos/pathprep/pkg/model"
)

// StageAudit names the audit recording step
const StageAudit = "audit"

// DataCleaner turns the raw path snapshot into the cleaned public table
type DataCleaner struct {
	dataset  string
	logger   *zap.Logger
	sink     diag.Sink
	store    audit.Store
	reader   *geoparquet.Reader
	writer   *geoparquet.Writer
	verify   func(ctx context.Context, path string, expected *model.Table) (*VerificationReport, error)
	now      func() time.Time
}

// NewDataCleaner creates a new DataCleaner. A nil sink or store discards
// diagnostics or audit records.
func NewDataCleaner(dataset string, logger *zap.Logger, sink diag.Sink, store audit.Store) (*DataCleaner, error) {
	if dataset == "" {
		return nil, errors.New("dataset name cannot be empty")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if sink == nil {
		sink = diag.Nop
	}
	if store == nil {
		store = audit.NopStore{}
	}

	return &DataCleaner{
		dataset: dataset,
		logger:  logger.Named("cleaner"),
		sink:    sink,
		store:   store,
		reader:  geoparquet.NewReader(logger),
		writer:  geoparquet.NewWriter(logger),
		verify:  NewVerifier(logger).VerifyFile,
		now:     time.Now,
	}, nil
}

// Run cleans the snapshot at in and persists the result at out
func (c *DataCleaner) Run(ctx context.Context, in, out string) (*RunMetrics, error) {
	runID := uuid.New().String()
	metrics := NewRunMetrics(c.logger, runID, c.dataset)
	metrics.Input, metrics.Output = in, out
	logger := c.logger.With(zap.String("runID", runID))

	logger.Info("Starting cleaning run",
		zap.String("input", in),
		zap.String("output", out))

	if samePath(in, out) {
		return nil, failure.Newf(failure.Write, StagePersist, out,
			"destination is the input artifact")
	}

	// Stage 1: load
	start := time.Now()
	raw, err := c.load(ctx, in)
	if err != nil {
		return nil, err
	}
	metrics.RowsRead = raw.NumRows()
	metrics.RecordStage(StageLoad, nil, raw, time.Since(start))
	c.sink.Record(diag.Event{
		Stage:   StageLoad,
		Message: "Loaded raw snapshot",
		Rows:    raw.NumRows(),
		Columns: raw.ColumnNames(),
		Preview: raw,
	})

	cleaned, ops, err := c.Clean(ctx, raw, runID, metrics)
	if err != nil {
		return nil, err
	}

	if err := c.store.Record(ctx, ops); err != nil {
		return nil, failure.New(failure.Write, StageAudit, audit.TableName, err)
	}
	metrics.CleaningOps = len(ops)

	// Stage 9: persist
	start = time.Now()
	if err := c.writer.WriteFile(ctx, out, cleaned); err != nil {
		return nil, failure.New(failure.Write, StagePersist, out, err)
	}
	metrics.RecordStage(StagePersist, cleaned, cleaned, time.Since(start))
	metrics.RowsWritten = cleaned.NumRows()
	if info, err := os.Stat(out); err == nil {
		metrics.BytesWritten = info.Size()
	}

	// Stage 10: verify
	start = time.Now()
	report, err := c.verify(ctx, out, cleaned)
	if err != nil {
		c.discardOutput(logger, out)
		return nil, failure.New(failure.Write, StageVerify, out, err)
	}
	metrics.Verification = report
	if !report.OK() {
		c.discardOutput(logger, out)
		return nil, failure.Newf(failure.Write, StageVerify, out, "%s", report.Summary())
	}
	metrics.RecordStage(StageVerify, cleaned, cleaned, time.Since(start))

	c.sink.Record(diag.Event{
		Stage:   StagePersist,
		Message: "Persisted cleaned table",
		Rows:    cleaned.NumRows(),
		Columns: cleaned.ColumnNames(),
		Preview: cleaned,
	})

	metrics.Complete()
	return metrics, nil
}

// discardOutput removes a persisted file that failed verification
func (c *DataCleaner) discardOutput(logger *zap.Logger, path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Error("Failed to remove unverified output",
			zap.String("path", path),
			zap.Error(err))
		return
	}
	logger.Warn("Removed unverified output", zap.String("path", path))
}

func (c *DataCleaner) load(ctx context.Context, path string) (*model.Table, error) {
	t, _, err := c.reader.ReadFile(ctx, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, failure.New(failure.NotFound, StageLoad, path, err)
		}
		return nil, failure.New(failure.Load, StageLoad, path, err)
	}
	return t, nil
}

// Clean runs the in-memory stages, drop through projection, on t and returns
// the cleaned table with the cleaning operations it produced
func (c *DataCleaner) Clean(ctx context.Context, t *model.Table, runID string, metrics *RunMetrics) (*model.Table, []model.CleaningOperation, error) {
	if metrics == nil {
		metrics = NewRunMetrics(nil, runID, c.dataset)
	}
	var ops []model.CleaningOperation

	// Stage 2: drop redundant columns
	start := time.Now()
	pruned, err := DropColumns(t, RedundantColumns)
	if err != nil {
		return nil, nil, err
	}
	c.recordStage(metrics, StageDropColumns, t, pruned, start)

	// Stage 3: derive type
	start = time.Now()
	typed, err := DeriveType(pruned)
	if err != nil {
		return nil, nil, err
	}
	c.recordStage(metrics, StageDeriveType, pruned, typed, start)

	// Stage 4: rename
	start = time.Now()
	renamed, err := Rename(typed, ColumnRenames)
	if err != nil {
		return nil, nil, err
	}
	c.recordStage(metrics, StageRename, typed, renamed, start)

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	// Stage 5: reconcile missing values
	start = time.Now()
	part, err := PartitionRows(renamed)
	if err != nil {
		return nil, nil, err
	}
	retained, discarded := part.Retained, part.Discarded
	for i, row := range discarded.Rows {
		reason := discardReason(row)
		metrics.RecordDiscard(reason)
		ops = append(ops, c.operation(runID, row, part.DiscardedIndex[i], discardColumn(reason), nil, "",
			model.OperationRowDiscarded, reason))
	}
	c.recordStage(metrics, StageReconcile, renamed, retained, start)
	if discarded.NumRows() > 0 {
		c.sink.Record(diag.Event{
			Stage:   StageReconcile,
			Level:   diag.LevelWarn,
			Message: "Discarded rows with missing type or year",
			Rows:    discarded.NumRows(),
			Counts:  discarded.NullCounts(),
			Preview: discarded,
		})
	}

	// Stage 6: canonicalize year
	start = time.Now()
	yeared, fallbacks, err := CanonicalizeYear(retained)
	if err != nil {
		return nil, nil, err
	}
	metrics.YearFallbacks = len(fallbacks)
	for _, fb := range fallbacks {
		ops = append(ops, c.operation(runID, fb.Row, part.RetainedIndex[fb.Index], ColYearOfData, fb.Original,
			strconv.FormatInt(YearSentinel, 10), model.OperationYearSentinel, model.ReasonUnparseableYear))
	}
	c.recordStage(metrics, StageCanonicalizeYear, retained, yeared, start)
	if len(fallbacks) > 0 {
		c.sink.Record(diag.Event{
			Stage:   StageCanonicalizeYear,
			Level:   diag.LevelWarn,
			Message: "Unparseable years replaced with sentinel",
			Rows:    len(fallbacks),
		})
	}

	// Stage 7: normalize text
	start = time.Now()
	normalized, err := NormalizeTextColumns(yeared, TextColumns)
	if err != nil {
		return nil, nil, err
	}
	c.recordStage(metrics, StageNormalizeText, yeared, normalized, start)

	// Stage 8: project
	start = time.Now()
	projected, err := Project(normalized, OutputColumns)
	if err != nil {
		return nil, nil, err
	}
	c.recordStage(metrics, StageProject, normalized, projected, start)

	return projected, ops, nil
}

func (c *DataCleaner) recordStage(metrics *RunMetrics, stage string, in, out *model.Table, start time.Time) {
	metrics.RecordStage(stage, in, out, time.Since(start))
	c.sink.Record(diag.Event{
		Stage:   stage,
		Message: "Stage completed",
		Rows:    out.NumRows(),
		Columns: out.ColumnNames(),
		Counts:  map[string]int{"rows_before": in.NumRows(), "rows_after": out.NumRows()},
	})
}

func (c *DataCleaner) operation(
	runID string,
	row model.Row,
	index int,
	column string,
	original interface{},
	newValue string,
	operation, reason string,
) model.CleaningOperation {
	return model.CleaningOperation{
		RunID:             runID,
		Dataset:           c.dataset,
		ColumnName:        column,
		OriginalValue:     original,
		NewValue:          newValue,
		RowIdentifier:     rowIdentifier(row, index),
		CleaningOperation: operation,
		CleaningReason:    reason,
		CleanedAt:         c.now(),
	}
}

// discardColumn names the column blamed for a discard
func discardColumn(reason string) string {
	switch reason {
	case model.ReasonNullType:
		return ColType
	case model.ReasonNullYear:
		return ColYearOfData
	default:
		return ColType + "," + ColYearOfData
	}
}

// samePath reports whether two paths name the same file
func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	if absA == absB {
		return true
	}
	infoA, errA := os.Stat(absA)
	infoB, errB := os.Stat(absB)
	return errA == nil && errB == nil && os.SameFile(infoA, infoB)
}
