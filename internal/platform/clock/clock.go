// Package clock provides the ledger clock collaborator. All timestamp decisions
// in the core (expiry checks, lead-time validation, audit records) read from a
// Clock so tests can pin time the way the host pins its ledger timestamp.
package clock

import (
	"sync"
	"time"
)

// Clock yields the current ledger time as unix seconds.
type Clock interface {
	Now() uint64
}

// System reads the wall clock.
type System struct{}

func (System) Now() uint64 { return uint64(time.Now().Unix()) }

// Manual is a settable clock for tests.
type Manual struct {
	mu sync.Mutex
	ts uint64
}

// NewManual returns a Manual clock pinned at ts.
func NewManual(ts uint64) *Manual {
	return &Manual{ts: ts}
}

func (m *Manual) Now() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ts
}

// Set pins the clock at ts.
func (m *Manual) Set(ts uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ts = ts
}

// Advance moves the clock forward by d seconds.
func (m *Manual) Advance(d uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ts += d
}
