package exec

import (
	"sync"
	"sync/atomic"

	"github.com/dshills/Vectra/internal/errors"
)

// MemoryGovernor is the process-wide accounting sink for operator memory
// reservations. Each operator gets its own slot, updated with a plain atomic
// store, so reporting stays cheap and safe under concurrent pipelines. The
// governor, not the operators, enforces the ceiling: the driver asks it to
// check between stage calls and aborts the pipeline on a resource fault.
type MemoryGovernor struct {
	ceiling int64 // 0 disables enforcement
	peak    atomic.Int64

	mu    sync.RWMutex
	slots []*reservationSlot
}

type reservationSlot struct {
	bytes atomic.Int64
}

func (s *reservationSlot) set(v int64) {
	s.bytes.Store(v)
}

func (s *reservationSlot) get() int64 {
	return s.bytes.Load()
}

// NewMemoryGovernor creates a governor with the given ceiling in bytes.
// A ceiling of zero disables enforcement; accounting still happens.
func NewMemoryGovernor(ceiling int64) *MemoryGovernor {
	return &MemoryGovernor{ceiling: ceiling}
}

// registerSlot allocates a reservation slot for one operator.
func (g *MemoryGovernor) registerSlot() *reservationSlot {
	g.mu.Lock()
	defer g.mu.Unlock()
	slot := &reservationSlot{}
	g.slots = append(g.slots, slot)
	return slot
}

// Reserved returns the sum of all current reservations.
func (g *MemoryGovernor) Reserved() int64 {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var total int64
	for _, s := range g.slots {
		total += s.get()
	}

	for {
		peak := g.peak.Load()
		if total <= peak || g.peak.CompareAndSwap(peak, total) {
			break
		}
	}
	return total
}

// Peak returns the highest total reservation observed.
func (g *MemoryGovernor) Peak() int64 {
	return g.peak.Load()
}

// Ceiling returns the configured ceiling in bytes (0 means unlimited).
func (g *MemoryGovernor) Ceiling() int64 {
	return g.ceiling
}

// CheckCeiling returns a resource fault when total reservations exceed the
// ceiling. Callers abort the whole pipeline; operator state is not touched.
func (g *MemoryGovernor) CheckCeiling() error {
	reserved := g.Reserved()
	if g.ceiling > 0 && reserved > g.ceiling {
		return errors.MemoryLimitError(reserved, g.ceiling)
	}
	return nil
}
