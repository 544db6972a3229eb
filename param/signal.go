package param

import (
	"math"
	"sync"
	"sync/atomic"
)

// Signal is a single range-bounded control value with an independent
// modulation offset. Create signals through registry.Registry; NewSignal is
// exported for hosts and tests that need a free-standing value.
type Signal struct {
	// immutable after construction
	id          ID
	name        string
	min         float64
	max         float64
	def         float64
	automatable bool

	value atomic.Uint64 // math.Float64bits of the base value
	mod   atomic.Uint64 // math.Float64bits of the modulation offset

	muObs     sync.Mutex                 // serialises observer list writers
	observers atomic.Pointer[[]Observer] // copy-on-write list read by notify

	dispatcher *Dispatcher // nil: SetValueRT does not notify
}

// SignalOption configures a Signal at construction time.
type SignalOption func(*Signal)

// WithDispatcher routes SetValueRT notifications through d.
func WithDispatcher(d *Dispatcher) SignalOption {
	return func(s *Signal) { s.dispatcher = d }
}

// NewSignal builds a Signal whose base value starts at clamp(spec.Default).
func NewSignal(id ID, spec Spec, opts ...SignalOption) *Signal {
	spec = spec.normalized()
	s := &Signal{
		id:          id,
		name:        spec.Name,
		min:         spec.Min,
		max:         spec.Max,
		automatable: spec.Automatable,
	}
	s.def = clamp(spec.Default, spec.Min, spec.Max)
	for _, opt := range opts {
		opt(s)
	}
	s.value.Store(math.Float64bits(s.def))
	s.mod.Store(math.Float64bits(0))
	empty := make([]Observer, 0)
	s.observers.Store(&empty)

	return s
}

// ID returns the identifier assigned by the registry.
func (s *Signal) ID() ID { return s.id }

// Name returns the display name.
func (s *Signal) Name() string { return s.name }

// Min returns the lower bound.
func (s *Signal) Min() float64 { return s.min }

// Max returns the upper bound.
func (s *Signal) Max() float64 { return s.max }

// Default returns the (clamped) default value.
func (s *Signal) Default() float64 { return s.def }

// Automatable reports the Spec flag of the same name.
func (s *Signal) Automatable() bool { return s.automatable }

// Value returns the base value. Real-time safe.
func (s *Signal) Value() float64 {
	return math.Float64frombits(s.value.Load())
}

// SetValue clamps v, stores it and, when the stored value moved by more than
// Epsilon, notifies every observer on the calling goroutine. NaN is ignored.
//
// Observers run inline: call SetValue from the control goroutine and use
// SetValueRT from the audio goroutine.
func (s *Signal) SetValue(v float64) {
	next, changed := s.swap(v)
	if changed {
		s.notify(next)
	}
}

// SetValueRT is the audio-goroutine variant of SetValue. It stores the value
// like SetValue but hands the notification to the Dispatcher instead of
// running observers. It never blocks and never allocates.
func (s *Signal) SetValueRT(v float64) {
	next, changed := s.swap(v)
	if changed && s.dispatcher != nil {
		s.dispatcher.post(s, next)
	}
}

// swap stores clamp(v) and reports whether it differs from the previous value
// by more than Epsilon.
func (s *Signal) swap(v float64) (float64, bool) {
	if math.IsNaN(v) {
		return s.Value(), false
	}
	next := clamp(v, s.min, s.max)
	prev := math.Float64frombits(s.value.Swap(math.Float64bits(next)))

	return next, math.Abs(next-prev) > Epsilon
}

// SetValueNormalized maps n in [0,1] linearly onto [Min, Max] and calls SetValue.
func (s *Signal) SetValueNormalized(n float64) {
	n = clamp(n, 0, 1)
	s.SetValue(s.min + n*(s.max-s.min))
}

// ValueNormalized returns the base value mapped onto [0,1].
// A zero-width range yields 0.
func (s *Signal) ValueNormalized() float64 {
	return s.normalize(s.Value())
}

// ModulatedValue returns clamp(base+offset, Min, Max). Real-time safe.
func (s *Signal) ModulatedValue() float64 {
	base := s.Value()
	sum := base + s.Modulation()
	if math.IsNaN(sum) {
		return base
	}

	return clamp(sum, s.min, s.max)
}

// ModulatedValueNormalized returns ModulatedValue mapped onto [0,1].
func (s *Signal) ModulatedValueNormalized() float64 {
	return s.normalize(s.ModulatedValue())
}

// SetModulation stores the raw modulation offset. No clamping, no
// notification. Real-time safe.
func (s *Signal) SetModulation(offset float64) {
	s.mod.Store(math.Float64bits(offset))
}

// Modulation returns the raw modulation offset. Real-time safe.
func (s *Signal) Modulation() float64 {
	return math.Float64frombits(s.mod.Load())
}

func (s *Signal) normalize(v float64) float64 {
	span := s.max - s.min
	if span <= 0 {
		return 0
	}

	return (v - s.min) / span
}

// AddObserver registers o. Adding the same observer twice has no further
// effect; nil is ignored. Control goroutine only.
func (s *Signal) AddObserver(o Observer) {
	if o == nil {
		return
	}
	s.muObs.Lock()
	defer s.muObs.Unlock()

	cur := *s.observers.Load()
	for _, x := range cur {
		if x == o {
			return
		}
	}
	next := make([]Observer, len(cur), len(cur)+1)
	copy(next, cur)
	next = append(next, o)
	s.observers.Store(&next)
}

// RemoveObserver unregisters o. Removing an unknown observer is a no-op.
func (s *Signal) RemoveObserver(o Observer) {
	if o == nil {
		return
	}
	s.muObs.Lock()
	defer s.muObs.Unlock()

	cur := *s.observers.Load()
	next := make([]Observer, 0, len(cur))
	for _, x := range cur {
		if x != o {
			next = append(next, x)
		}
	}
	if len(next) != len(cur) {
		s.observers.Store(&next)
	}
}

// ObserverCount returns the number of registered observers.
func (s *Signal) ObserverCount() int {
	return len(*s.observers.Load())
}

// notify calls every observer with the new value. The list is a snapshot, so
// observers may add or remove observers without deadlocking.
func (s *Signal) notify(v float64) {
	for _, o := range *s.observers.Load() {
		o.OnParamChanged(s.id, v)
	}
}
