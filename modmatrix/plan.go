package modmatrix

import (
	"cmp"
	"slices"

	"github.com/cwbudde/algo-vecmath"

	"github.com/katalvlaran/paramgraph/internal/logging"
	"github.com/katalvlaran/paramgraph/param"
)

// run is one target and the half-open range [lo, hi) of its entries.
type run struct {
	target *param.Signal
	lo, hi int
}

// plan is an immutable, flattened view of the enabled slots grouped by target
// in evaluation order. Per-entry data lives in parallel slices so a target's
// contributions can be multiplied as one block. values and products are
// scratch space owned by the render goroutine.
type plan struct {
	gen  uint64
	runs []run

	kinds   []SourceKind
	sources []*param.Signal // SourceParameter entries only
	index   []int
	scale   []float64
	bias    []float64
	amounts []float64

	values   []float64
	products []float64

	providers [numSourceKinds]SourceProvider
	modulated bool
}

// rebuildLocked builds and publishes a new plan. Caller holds m.mu.
func (m *Matrix) rebuildLocked() {
	p := m.buildLocked()
	m.plan.Store(p)
	m.rec.RecordPlanRebuild()
	m.rec.SetSlots(len(m.slots))
	m.log.V(logging.TRACE).Info("Rebuilt render plan", "targets", len(p.runs), "entries", len(p.amounts))
}

func (m *Matrix) buildLocked() *plan {
	p := &plan{
		gen:       m.reg.Generation(),
		providers: m.providers,
		modulated: m.resolution == ResolveModulated,
	}

	// 1) Group enabled slots by target, skipping routings whose parameters
	//    have been unregistered since they were connected.
	byTarget := make(map[param.ID][]*Slot)
	for _, s := range m.slots {
		if !s.Enabled {
			continue
		}
		if s.Source.Kind == SourceParameter && m.reg.Param(s.Source.Param) == nil {
			continue
		}
		byTarget[s.Target] = append(byTarget[s.Target], s)
	}

	// 2) Targets in dependency order. An acyclic registry always yields a
	//    full order; fall back to id order otherwise.
	order := m.reg.TopologicalOrder()
	if len(order) == 0 {
		order = m.reg.IDs()
	}

	// 3) Flatten.
	for _, id := range order {
		slots := byTarget[id]
		if len(slots) == 0 {
			continue
		}
		target := m.reg.Param(id)
		if target == nil {
			continue
		}
		slices.SortFunc(slots, func(a, b *Slot) int { return cmp.Compare(a.ID, b.ID) })

		lo := len(p.amounts)
		for _, s := range slots {
			p.append(s, m.reg.Param(s.Source.Param))
		}
		p.runs = append(p.runs, run{target: target, lo: lo, hi: len(p.amounts)})
	}

	p.values = make([]float64, len(p.amounts))
	p.products = make([]float64, len(p.amounts))

	return p
}

func (p *plan) append(s *Slot, src *param.Signal) {
	scale, bias := 1.0, 0.0
	if s.Mode == Bipolar {
		// (v - 0.5) * 2
		scale, bias = 2, -1
	}
	if s.Source.Kind != SourceParameter {
		src = nil
	}
	p.kinds = append(p.kinds, s.Source.Kind)
	p.sources = append(p.sources, src)
	p.index = append(p.index, s.Source.Index)
	p.scale = append(p.scale, scale)
	p.bias = append(p.bias, bias)
	p.amounts = append(p.amounts, s.Amount)
}

// resolve returns the normalized value of entry i.
func (p *plan) resolve(i int) float64 {
	if p.kinds[i] == SourceParameter {
		src := p.sources[i]
		if p.modulated {
			return src.ModulatedValueNormalized()
		}

		return src.ValueNormalized()
	}
	if prov := p.providers[p.kinds[i]]; prov != nil {
		return prov.SourceValue(p.index[i])
	}

	return neutral
}

// evaluate computes and stores each target's offset in plan order.
func (p *plan) evaluate() {
	for _, r := range p.runs {
		for i := r.lo; i < r.hi; i++ {
			p.values[i] = p.resolve(i)*p.scale[i] + p.bias[i]
		}
		vecmath.MulBlock(p.products[r.lo:r.hi], p.values[r.lo:r.hi], p.amounts[r.lo:r.hi])

		sum := 0.0
		for _, v := range p.products[r.lo:r.hi] {
			sum += v
		}
		r.target.SetModulation(sum)
	}
}
