// pkg/cleaner/metrics.go
package cleaner

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/David-Botos/pathprep/pkg/model"
)

// StageMetrics tracks one pipeline stage
type StageMetrics struct {
	Stage      string
	RowsIn     int
	RowsOut    int
	ColumnsIn  int
	ColumnsOut int
	Duration   time.Duration
}

// RunMetrics tracks metrics for a cleaning run
type RunMetrics struct {
	mu             sync.Mutex
	logger         *zap.Logger
	RunID          string
	Dataset        string
	Input          string
	Output         string
	StartTime      time.Time
	EndTime        time.Time
	Stages         []StageMetrics
	RowsRead       int
	RowsWritten    int
	RowsDiscarded  int
	YearFallbacks  int
	CleaningOps    int
	BytesWritten   int64
	Verification   *VerificationReport
	DiscardReasons map[string]int
}

// NewRunMetrics creates a new RunMetrics instance
func NewRunMetrics(logger *zap.Logger, runID, dataset string) *RunMetrics {
	return &RunMetrics{
		logger:         logger,
		RunID:          runID,
		Dataset:        dataset,
		StartTime:      time.Now(),
		Stages:         make([]StageMetrics, 0, 10),
		DiscardReasons: make(map[string]int),
	}
}

// RecordStage records row and column counts around one stage
func (m *RunMetrics) RecordStage(stage string, in, out *model.Table, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sm := StageMetrics{Stage: stage, Duration: duration}
	if in != nil {
		sm.RowsIn, sm.ColumnsIn = in.NumRows(), in.NumColumns()
	}
	if out != nil {
		sm.RowsOut, sm.ColumnsOut = out.NumRows(), out.NumColumns()
	}
	m.Stages = append(m.Stages, sm)

	if m.logger != nil {
		m.logger.Debug("Stage completed",
			zap.String("stage", stage),
			zap.Int("rowsIn", sm.RowsIn),
			zap.Int("rowsOut", sm.RowsOut),
			zap.Int("columnsOut", sm.ColumnsOut),
			zap.Duration("duration", duration))
	}
}

// RecordDiscard counts a discarded row by reason
func (m *RunMetrics) RecordDiscard(reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.RowsDiscarded++
	m.DiscardReasons[reason]++
}

// Complete marks the run as finished
func (m *RunMetrics) Complete() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.EndTime = time.Now()

	if m.logger != nil {
		m.logger.Info("Cleaning run completed",
			zap.String("runID", m.RunID),
			zap.Duration("duration", m.durationLocked()),
			zap.Int("rowsRead", m.RowsRead),
			zap.Int("rowsWritten", m.RowsWritten),
			zap.Int("rowsDiscarded", m.RowsDiscarded),
			zap.Int("yearFallbacks", m.YearFallbacks))
	}
}

// Duration returns the total duration of the run
func (m *RunMetrics) Duration() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.durationLocked()
}

func (m *RunMetrics) durationLocked() time.Duration {
	if m.EndTime.IsZero() {
		return time.Since(m.StartTime)
	}
	return m.EndTime.Sub(m.StartTime)
}

// formatBytes formats bytes to a human-readable string
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// formatDuration formats a duration to a human-readable string
func formatDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	} else if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	return fmt.Sprintf("%.2fs", d.Seconds())
}

// GenerateReport creates a human-readable run report
func (m *RunMetrics) GenerateReport() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	report := fmt.Sprintf(`
Cleaning Run Report
===================
Run ID:                  %s
Dataset:                 %s
Input:                   %s
Output:                  %s
Duration:                %s

Data Summary
------------
Rows Read:               %d
Rows Written:            %d
Rows Discarded:          %d
Year Fallbacks:          %d
Cleaning Ops:            %d
Bytes Written:           %s
`,
		m.RunID,
		m.Dataset,
		m.Input,
		m.Output,
		formatDuration(m.durationLocked()),
		m.RowsRead,
		m.RowsWritten,
		m.RowsDiscarded,
		m.YearFallbacks,
		m.CleaningOps,
		formatBytes(m.BytesWritten),
	)

	report += "\nStages\n------\n"
	for _, s := range m.Stages {
		report += fmt.Sprintf("- %-18s %6d -> %-6d rows, %2d -> %-2d columns\n",
			s.Stage, s.RowsIn, s.RowsOut, s.ColumnsIn, s.ColumnsOut)
	}

	if len(m.DiscardReasons) > 0 {
		report += "\nDiscard Reasons\n---------------\n"
		for _, reason := range []string{model.ReasonNullType, model.ReasonNullYear, model.ReasonNullTypeAndYear} {
			if n := m.DiscardReasons[reason]; n > 0 {
				report += fmt.Sprintf("- %s: %d\n", reason, n)
			}
		}
	}

	return report
}

// ToJSON serializes metrics to JSON
func (m *RunMetrics) ToJSON() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return json.Marshal(struct {
		RunID          string         `json:"runId"`
		Dataset        string         `json:"dataset"`
		Duration       string         `json:"duration"`
		RowsRead       int            `json:"rowsRead"`
		RowsWritten    int            `json:"rowsWritten"`
		RowsDiscarded  int            `json:"rowsDiscarded"`
		YearFallbacks  int            `json:"yearFallbacks"`
		CleaningOps    int            `json:"cleaningOps"`
		BytesWritten   int64          `json:"bytesWritten"`
		DiscardReasons map[string]int `json:"discardReasons"`
	}{
		RunID:          m.RunID,
		Dataset:        m.Dataset,
		Duration:       m.durationLocked().String(),
		RowsRead:       m.RowsRead,
		RowsWritten:    m.RowsWritten,
		RowsDiscarded:  m.RowsDiscarded,
		YearFallbacks:  m.YearFallbacks,
		CleaningOps:    m.CleaningOps,
		BytesWritten:   m.BytesWritten,
		DiscardReasons: m.DiscardReasons,
	})
}
