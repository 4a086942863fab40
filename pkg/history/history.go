// Package history records completed scans so users can revisit past audits
// without re-spending credits.
package history

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Entry is one recorded scan.
type Entry struct {
	ID        string    `json:"id"`
	Address   string    `json:"address"`
	Mode      string    `json:"mode"`
	Name      string    `json:"name"`
	Verdict   string    `json:"verdict"`
	Score     *int      `json:"score,omitempty"`
	RawReport string    `json:"raw_report,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists scan history.
type Store interface {
	// Save records an entry, assigning an ID and timestamp if unset.
	Save(ctx context.Context, e *Entry) error

	// Recent returns up to limit entries, newest first.
	Recent(ctx context.Context, limit int) ([]Entry, error)

	// ByAddress returns all entries for an address, newest first.
	ByAddress(ctx context.Context, address string) ([]Entry, error)

	// AlreadyScanned reports whether the address has a recorded scan.
	// The server applies the matching no-recharge rule authoritatively;
	// this only drives the "previously scanned" hint in the UI.
	AlreadyScanned(ctx context.Context, address string) (bool, error)

	// Close releases the store's resources.
	Close() error
}

func prepare(e *Entry) {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
}

// MemoryStore is an in-memory Store for tests and ephemeral sessions.
type MemoryStore struct {
	mu      sync.RWMutex
	entries []Entry
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Save(ctx context.Context, e *Entry) error {
	prepare(e)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, *e)
	return nil
}

func (s *MemoryStore) Recent(ctx context.Context, limit int) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) ByAddress(ctx context.Context, address string) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Entry
	for _, e := range s.entries {
		if e.Address == address {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) AlreadyScanned(ctx context.Context, address string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, e := range s.entries {
		if e.Address == address {
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryStore) Close() error {
	return nil
}
