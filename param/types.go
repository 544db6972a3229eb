package param

import "math"

// ID identifies a parameter within one registry. Zero is never assigned.
type ID uint32

// InvalidID is the "none" sentinel.
const InvalidID ID = 0

// Epsilon is the smallest base-value change that fires observers.
const Epsilon = 1e-7

// Valid reports whether id is not the InvalidID sentinel.
func (id ID) Valid() bool { return id != InvalidID }

// Spec describes a parameter at creation time.
//
// Min, Max and Default share the parameter's unit. A Spec with Min > Max is
// accepted and its bounds are swapped; Default is clamped into range.
type Spec struct {
	// Name is the display name. It need not be unique.
	Name string

	// Min is the lower bound of the base value.
	Min float64

	// Max is the upper bound of the base value.
	Max float64

	// Default is the initial base value.
	Default float64

	// Automatable reports whether automation and modulation may drive the parameter.
	Automatable bool
}

// normalized returns a copy of s with ordered, finite bounds.
func (s Spec) normalized() Spec {
	if math.IsNaN(s.Min) {
		s.Min = 0
	}
	if math.IsNaN(s.Max) {
		s.Max = s.Min
	}
	if s.Min > s.Max {
		s.Min, s.Max = s.Max, s.Min
	}

	return s
}

// Observer receives base-value changes.
//
// Implementations must be comparable (pointer types are the norm) because
// AddObserver deduplicates by equality.
type Observer interface {
	OnParamChanged(id ID, value float64)
}

// FuncObserver adapts a plain function to Observer. Always use it through the
// pointer returned by NewFuncObserver so that it can be removed again.
type FuncObserver struct {
	fn func(id ID, value float64)
}

// NewFuncObserver wraps fn. A nil fn yields an observer that does nothing.
func NewFuncObserver(fn func(id ID, value float64)) *FuncObserver {
	return &FuncObserver{fn: fn}
}

// OnParamChanged implements Observer.
func (f *FuncObserver) OnParamChanged(id ID, value float64) {
	if f.fn != nil {
		f.fn(id, value)
	}
}

// clamp bounds v to [lo, hi]. NaN maps to lo.
func clamp(v, lo, hi float64) float64 {
	switch {
	case math.IsNaN(v):
		return lo
	case v < lo:
		return lo
	case v > hi:
		return hi
	default:
		return v
	}
}
