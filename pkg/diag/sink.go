// pkg/diag/sink.go
package diag

import (
	"github.com/David-Botos/pathprep/pkg/model"
)

// Level classifies a diagnostic event
type Level int

const (
	LevelInfo Level = iota
	LevelWarn
)

// String returns a string representation of the level
func (l Level) String() string {
	switch l {
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	default:
		return "unknown"
	}
}

// Event is one diagnostic observation made while a pipeline runs
type Event struct {
	Stage   string
	Level   Level
	Message string
	// Rows is the row count the event refers to
	Rows int
	// Columns lists column names in table order, when relevant
	Columns []string
	// Counts carries per-key figures such as null counts per column
	Counts map[string]int
	// Preview, when set, is rendered as a sample of rows
	Preview *model.Table
}

// Sink receives diagnostic events. Implementations must not retain Preview
// tables beyond the call unless they clone them.
type Sink interface {
	Record(e Event)
}

type nopSink struct{}

func (nopSink) Record(Event) {}

// Nop is a sink that discards everything
var Nop Sink = nopSink{}
