// pkg/diag/zap.go
package diag

import (
	"go.uber.org/zap"
)

// ZapSink logs events through zap and renders previews as tables
type ZapSink struct {
	logger      *zap.Logger
	previewRows int
}

// NewZapSink creates a sink logging to logger. previewRows bounds rendered
// previews; 0 disables them.
func NewZapSink(logger *zap.Logger, previewRows int) *ZapSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ZapSink{
		logger:      logger.Named("diag"),
		previewRows: previewRows,
	}
}

// Record logs e
func (s *ZapSink) Record(e Event) {
	fields := []zap.Field{
		zap.String("stage", e.Stage),
		zap.Int("rows", e.Rows),
	}
	if len(e.Columns) > 0 {
		fields = append(fields, zap.Strings("columns", e.Columns))
	}
	if len(e.Counts) > 0 {
		fields = append(fields, zap.Any("counts", e.Counts))
	}
	if e.Preview != nil && s.previewRows > 0 && e.Preview.NumRows() > 0 {
		fields = append(fields, zap.String("preview", "\n"+PreviewString(e.Preview, s.previewRows)))
	}

	switch e.Level {
	case LevelWarn:
		s.logger.Warn(e.Message, fields...)
	default:
		s.logger.Info(e.Message, fields...)
	}
}
