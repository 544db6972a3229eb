package modmatrix

import (
	"math"
	"sync/atomic"
)

// neutral is the value of a source with nothing behind it.
const neutral = 0.5

// SourceProvider supplies normalized [0,1] values for non-parameter sources.
// SourceValue is called from Process and must not block or allocate.
type SourceProvider interface {
	SourceValue(index int) float64
}

// ValueTable is a fixed-size SourceProvider backed by atomic slots. A control
// or MIDI goroutine writes with Set while Process reads.
type ValueTable struct {
	vals []atomic.Uint64
}

// NewValueTable creates n slots, all holding neutral 0.5.
func NewValueTable(n int) *ValueTable {
	if n < 0 {
		n = 0
	}
	t := &ValueTable{vals: make([]atomic.Uint64, n)}
	for i := range t.vals {
		t.vals[i].Store(math.Float64bits(neutral))
	}

	return t
}

// Len returns the number of slots.
func (t *ValueTable) Len() int { return len(t.vals) }

// Set stores v clamped to [0,1] in slot i. Out-of-range indexes and NaN are
// ignored.
func (t *ValueTable) Set(i int, v float64) {
	if i < 0 || i >= len(t.vals) || math.IsNaN(v) {
		return
	}
	t.vals[i].Store(math.Float64bits(math.Max(0, math.Min(1, v))))
}

// SourceValue returns slot i, or 0.5 when i is out of range.
func (t *ValueTable) SourceValue(i int) float64 {
	if i < 0 || i >= len(t.vals) {
		return neutral
	}

	return math.Float64frombits(t.vals[i].Load())
}
