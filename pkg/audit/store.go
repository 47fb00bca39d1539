// pkg/audit/store.go
package audit

import (
	"context"
	"sync"

	"github.com/David-Botos/pathprep/pkg/model"
)

// Store persists cleaning operations
type Store interface {
	// Record stores a batch of operations atomically
	Record(ctx context.Context, ops []model.CleaningOperation) error

	// Close releases resources
	Close() error
}

// MemoryStore keeps operations in memory
type MemoryStore struct {
	mu  sync.Mutex
	ops []model.CleaningOperation
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Record appends ops
func (s *MemoryStore) Record(ctx context.Context, ops []model.CleaningOperation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ops = append(s.ops, ops...)
	return nil
}

// Operations returns a copy of everything recorded
func (s *MemoryStore) Operations() []model.CleaningOperation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.CleaningOperation, len(s.ops))
	copy(out, s.ops)
	return out
}

// Close is a no-op
func (s *MemoryStore) Close() error {
	return nil
}

// NopStore discards operations
type NopStore struct{}

func (NopStore) Record(context.Context, []model.CleaningOperation) error { return nil }

func (NopStore) Close() error { return nil }
