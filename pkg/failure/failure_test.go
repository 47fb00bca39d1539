package failure

import (
	"os"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKind_String(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{NotFound, "NotFound"},
		{Load, "Load"},
		{Schema, "Schema"},
		{Write, "Write"},
		{KindUnknown, "Unknown(0)"},
		{Kind(42), "Unknown(42)"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.kind.String())
	}
}

func TestError_Message(t *testing.T) {
	err := New(Load, "load", "data/raw/x.parquet", errors.New("bad footer"))
	assert.Equal(t, "load: Load error on data/raw/x.parquet: bad footer", err.Error())

	noCause := New(Schema, "project", "", nil)
	assert.Equal(t, "project: Schema error", noCause.Error())
}

func TestKindOf_ThroughWrapChain(t *testing.T) {
	base := Newf(Schema, "drop_columns", "duso", "column %q not found", "duso")
	wrapped := errors.Wrap(base, "clean run failed")

	assert.Equal(t, Schema, KindOf(wrapped))
	assert.True(t, Is(wrapped, Schema))
	assert.False(t, Is(wrapped, Write))
	assert.True(t, errors.Is(wrapped, &Error{Kind: Schema}))

	var fe *Error
	require.True(t, errors.As(wrapped, &fe))
	assert.Equal(t, "drop_columns", fe.Stage)
}

func TestKindOf_Unclassified(t *testing.T) {
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
	assert.False(t, Is(nil, NotFound))
}

func TestError_UnwrapKeepsCause(t *testing.T) {
	err := New(NotFound, "load", "missing.parquet", os.ErrNotExist)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}
