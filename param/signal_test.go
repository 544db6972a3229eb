package param_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/paramgraph/param"
)

const eps = 1e-9

// recorder is a comparable Observer collecting every notification.
type recorder struct {
	ids    []param.ID
	values []float64
}

func (r *recorder) OnParamChanged(id param.ID, v float64) {
	r.ids = append(r.ids, id)
	r.values = append(r.values, v)
}

func unitSpec(def float64) param.Spec {
	return param.Spec{Name: "unit", Min: 0, Max: 1, Default: def, Automatable: true}
}

// TestNewSignal_DefaultClamped covers the registration property:
// the initial value equals clamp(Default, Min, Max).
func TestNewSignal_DefaultClamped(t *testing.T) {
	cases := []struct {
		name string
		spec param.Spec
		want float64
	}{
		{"inside", param.Spec{Min: 20, Max: 20000, Default: 1000}, 1000},
		{"below", param.Spec{Min: -1, Max: 1, Default: -5}, -1},
		{"above", param.Spec{Min: 0, Max: 1, Default: 3}, 1},
		{"swapped bounds", param.Spec{Min: 10, Max: 0, Default: 4}, 4},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := param.NewSignal(1, tc.spec)
			assert.InDelta(t, tc.want, s.Value(), eps)
			assert.InDelta(t, tc.want, s.Default(), eps)
			assert.LessOrEqual(t, s.Min(), s.Max())
		})
	}
}

// TestSignal_Accessors checks the immutable metadata.
func TestSignal_Accessors(t *testing.T) {
	s := param.NewSignal(7, param.Spec{Name: "Cutoff", Min: 20, Max: 20000, Default: 1000, Automatable: true})
	assert.Equal(t, param.ID(7), s.ID())
	assert.Equal(t, "Cutoff", s.Name())
	assert.Equal(t, 20.0, s.Min())
	assert.Equal(t, 20000.0, s.Max())
	assert.True(t, s.Automatable())
	assert.True(t, s.ID().Valid())
	assert.False(t, param.InvalidID.Valid())
}

// TestSignal_SetValueClamps drives a Cutoff parameter past both bounds.
func TestSignal_SetValueClamps(t *testing.T) {
	s := param.NewSignal(1, param.Spec{Name: "Cutoff", Min: 20, Max: 20000, Default: 1000})

	s.SetValue(5000)
	assert.Equal(t, 5000.0, s.Value())

	s.SetValue(50000)
	assert.Equal(t, 20000.0, s.Value())

	s.SetValue(10)
	assert.Equal(t, 20.0, s.Value())

	s.SetValue(math.NaN())
	assert.Equal(t, 20.0, s.Value(), "NaN must be ignored")
}

// TestSignal_ObserversFireOnce verifies notification only on real change and
// that repeating a clamped write does not refire.
func TestSignal_ObserversFireOnce(t *testing.T) {
	s := param.NewSignal(3, unitSpec(0.5))
	r := &recorder{}
	s.AddObserver(r)
	s.AddObserver(r) // idempotent

	s.SetValue(2)   // clamps to 1, fires
	s.SetValue(2)   // still 1, silent
	s.SetValue(1)   // unchanged, silent
	s.SetValue(0.5) // fires

	require.Len(t, r.values, 2)
	assert.Equal(t, []param.ID{3, 3}, r.ids)
	assert.Equal(t, []float64{1, 0.5}, r.values)

	s.RemoveObserver(r)
	s.RemoveObserver(r) // no-op
	s.SetValue(0)
	assert.Len(t, r.values, 2)
	assert.Equal(t, 0, s.ObserverCount())
}

// TestSignal_ObserverNil ensures nil observers are ignored.
func TestSignal_ObserverNil(t *testing.T) {
	s := param.NewSignal(1, unitSpec(0))
	s.AddObserver(nil)
	s.RemoveObserver(nil)
	assert.Equal(t, 0, s.ObserverCount())
	assert.NotPanics(t, func() { s.SetValue(1) })
}

// TestSignal_ObserverSelfRemoval lets an observer unregister itself while
// being notified.
func TestSignal_ObserverSelfRemoval(t *testing.T) {
	s := param.NewSignal(1, unitSpec(0))
	calls := 0
	var self *param.FuncObserver
	self = param.NewFuncObserver(func(param.ID, float64) {
		calls++
		s.RemoveObserver(self)
	})
	s.AddObserver(self)

	s.SetValue(0.3)
	s.SetValue(0.6)
	assert.Equal(t, 1, calls)
}

// TestSignal_Normalized covers the normalized mapping properties.
func TestSignal_Normalized(t *testing.T) {
	s := param.NewSignal(1, param.Spec{Min: -1, Max: 1, Default: 0})

	s.SetValueNormalized(0)
	assert.Equal(t, -1.0, s.Value())

	s.SetValueNormalized(1)
	assert.Equal(t, 1.0, s.Value())

	s.SetValueNormalized(0.75)
	assert.InDelta(t, 0.5, s.Value(), eps)
	before := s.Value()
	s.SetValueNormalized(s.ValueNormalized())
	assert.InDelta(t, before, s.Value(), param.Epsilon)

	s.SetValueNormalized(7) // clamped to 1
	assert.Equal(t, 1.0, s.Value())

	cutoff := param.NewSignal(2, param.Spec{Min: 20, Max: 20000, Default: 1000})
	cutoff.SetValueNormalized(0.5)
	assert.InDelta(t, 20+0.5*(20000-20), cutoff.Value(), 0.1)
}

// TestSignal_NormalizedZeroRange avoids the division by zero.
func TestSignal_NormalizedZeroRange(t *testing.T) {
	s := param.NewSignal(1, param.Spec{Min: 3, Max: 3, Default: 3})
	assert.Equal(t, 0.0, s.ValueNormalized())
	assert.Equal(t, 0.0, s.ModulatedValueNormalized())
	s.SetValueNormalized(0.5)
	assert.Equal(t, 3.0, s.Value())
}

// TestSignal_Modulation checks raw offset storage and the clamped sum.
func TestSignal_Modulation(t *testing.T) {
	s := param.NewSignal(1, unitSpec(0.5))
	r := &recorder{}
	s.AddObserver(r)

	s.SetModulation(1.0)
	assert.Equal(t, 1.0, s.Modulation())
	assert.Equal(t, 1.0, s.ModulatedValue())
	assert.Equal(t, 0.5, s.Value(), "offset must not touch the base value")

	s.SetModulation(-0.25)
	assert.InDelta(t, 0.25, s.ModulatedValue(), eps)
	assert.InDelta(t, 0.25, s.ModulatedValueNormalized(), eps)

	s.SetModulation(-3) // stored raw
	assert.Equal(t, -3.0, s.Modulation())
	assert.Equal(t, 0.0, s.ModulatedValue())

	s.SetModulation(math.NaN())
	assert.Equal(t, 0.5, s.ModulatedValue())

	assert.Empty(t, r.values, "modulation writes never notify")
}
