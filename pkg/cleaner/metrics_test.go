package cleaner

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/David-Botos/pathprep/pkg/model"
)

func TestRunMetrics(t *testing.T) {
	m := NewRunMetrics(zaptest.NewLogger(t), "run-1", "paths")
	in := rawTable(t)
	out := in.Head(8)

	m.RecordStage(StageReconcile, in, out, time.Millisecond)
	m.RecordDiscard(model.ReasonNullType)
	m.RecordDiscard(model.ReasonNullType)
	m.RowsRead, m.RowsWritten, m.BytesWritten = 10, 8, 2048
	m.Complete()

	require.Len(t, m.Stages, 1)
	assert.Equal(t, 10, m.Stages[0].RowsIn)
	assert.Equal(t, 8, m.Stages[0].RowsOut)
	assert.Equal(t, 2, m.RowsDiscarded)
	assert.False(t, m.EndTime.IsZero())

	report := m.GenerateReport()
	assert.Contains(t, report, "run-1")
	assert.Contains(t, report, "Rows Discarded:          2")
	assert.Contains(t, report, "2.00 KB")
	assert.Contains(t, report, "null_type: 2")

	data, err := m.ToJSON()
	require.NoError(t, err)
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "run-1", decoded["runId"])
	assert.Equal(t, float64(8), decoded["rowsWritten"])
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "512 B", formatBytes(512))
	assert.Equal(t, "1.50 MB", formatBytes(1024*1024*3/2))
	assert.Equal(t, "1h 2m 3s", formatDuration(time.Hour+2*time.Minute+3*time.Second))
	assert.Equal(t, "2m 5s", formatDuration(125*time.Second))
	assert.Equal(t, "0.50s", formatDuration(500*time.Millisecond))
}
