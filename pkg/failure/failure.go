// pkg/failure/failure.go
package failure

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies a fatal pipeline error
type Kind int

const (
	// KindUnknown is reported for errors that carry no Kind
	KindUnknown Kind = iota
	// NotFound indicates a required input artifact is absent
	NotFound
	// Load indicates an input artifact exists but cannot be parsed
	Load
	// Schema indicates expected columns are missing at a stage boundary
	Schema
	// Write indicates the destination could not be written
	Write
)

// String returns a string representation of the kind
func (k Kind) String() string {
	switch k {
	case NotFound:
		return "NotFound"
	case Load:
		return "Load"
	case Schema:
		return "Schema"
	case Write:
		return "Write"
	default:
		return fmt.Sprintf("Unknown(%d)", int(k))
	}
}

// Error is a classified error carrying the stage and artifact that failed
type Error struct {
	Kind     Kind
	Stage    string // Pipeline stage name, e.g. "load" or "drop_columns"
	Artifact string // File path or column set the failure refers to
	Err      error
}

// New creates a classified error. A nil cause is allowed.
func New(kind Kind, stage, artifact string, cause error) *Error {
	return &Error{
		Kind:     kind,
		Stage:    stage,
		Artifact: artifact,
		Err:      cause,
	}
}

// Newf creates a classified error with a formatted cause
func Newf(kind Kind, stage, artifact, format string, args ...interface{}) *Error {
	return New(kind, stage, artifact, errors.Errorf(format, args...))
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s error", e.Stage, e.Kind)
	if e.Artifact != "" {
		msg += " on " + e.Artifact
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error by Kind, so errors.Is(err, &Error{Kind: Schema}) works
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf extracts the Kind from anywhere in err's wrap chain
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindUnknown
}

// Is reports whether err carries the given Kind
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
