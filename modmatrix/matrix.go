package modmatrix

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/go-logr/logr"

	"github.com/katalvlaran/paramgraph/internal/logging"
	"github.com/katalvlaran/paramgraph/metrics"
	"github.com/katalvlaran/paramgraph/param"
	"github.com/katalvlaran/paramgraph/registry"
)

// edgeRef counts the slots that share one dependency edge. owned is false
// when the edge was already in the registry before the first slot used it;
// such edges are left in place when the last slot goes away.
type edgeRef struct {
	count int
	owned bool
}

// Matrix is a table of modulation routings over one registry.
//
// mu serialises control-side mutations and plan builds. Process reads only
// the published plan and the registry's lock-free snapshot.
type Matrix struct {
	mu     sync.Mutex
	reg    *registry.Registry
	slots  map[SlotID]*Slot
	edges  map[registry.Dependency]*edgeRef
	nextID SlotID

	plan atomic.Pointer[plan]

	resolution SourceResolution
	providers  [numSourceKinds]SourceProvider
	log        logr.Logger
	rec        *metrics.Recorder
}

// New creates an empty Matrix over reg. reg must outlive the Matrix.
func New(reg *registry.Registry, opts ...Option) (*Matrix, error) {
	if reg == nil {
		return nil, ErrNilRegistry
	}
	o := options{logger: logr.Discard()}
	for _, opt := range opts {
		opt(&o)
	}

	m := &Matrix{
		reg:        reg,
		slots:      make(map[SlotID]*Slot),
		edges:      make(map[registry.Dependency]*edgeRef),
		nextID:     1,
		resolution: o.resolution,
		providers:  o.providers,
		log:        o.logger.WithName("modmatrix"),
		rec:        o.recorder,
	}
	m.mu.Lock()
	m.rebuildLocked()
	m.mu.Unlock()

	return m, nil
}

// Connect routes src onto target and returns the new slot id.
//
// On failure it returns InvalidSlotID with ErrInvalidBlendMode,
// ErrInvalidSourceKind, ErrTargetNotFound, ErrSourceNotFound or ErrCycle,
// and neither the slot table nor the dependency graph changes. A NaN amount
// is stored as 0.
func (m *Matrix) Connect(src Source, target param.ID, amount float64, mode BlendMode) (SlotID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// 1) Validate everything that does not touch the registry.
	if !mode.Valid() {
		return m.reject("blend_mode", fmt.Errorf("%w: %d", ErrInvalidBlendMode, mode))
	}
	if !src.Kind.Valid() {
		return m.reject("source_kind", fmt.Errorf("%w: %d", ErrInvalidSourceKind, src.Kind))
	}
	if m.reg.Param(target) == nil {
		return m.reject("target", fmt.Errorf("%w: %d", ErrTargetNotFound, target))
	}

	// 2) Parameter sources must hold a dependency edge before the slot exists.
	if src.Kind == SourceParameter {
		if m.reg.Param(src.Param) == nil {
			return m.reject("source", fmt.Errorf("%w: %d", ErrSourceNotFound, src.Param))
		}
		if err := m.acquireEdgeLocked(registry.Dependency{Source: src.Param, Target: target}); err != nil {
			if errors.Is(err, registry.ErrCycle) {
				return m.reject("cycle", fmt.Errorf("%w: %d -> %d", ErrCycle, src.Param, target))
			}

			return m.reject("registry", fmt.Errorf("modmatrix: connect: %w", err))
		}
	}

	// 3) Commit.
	id := m.nextID
	m.nextID++
	m.slots[id] = &Slot{
		ID:      id,
		Source:  src,
		Target:  target,
		Amount:  finite(amount),
		Mode:    mode,
		Enabled: true,
	}
	m.rebuildLocked()
	m.log.V(logging.VERBOSE).Info("Connected", "slot", id, "source", src.String(),
		"target", target, "amount", amount, "mode", mode.String())

	return id, nil
}

func (m *Matrix) reject(reason string, err error) (SlotID, error) {
	m.rec.RecordRejectedConnect(reason)
	m.log.V(logging.DEBUG).Info("Rejected connection", "reason", reason, "error", err.Error())

	return InvalidSlotID, err
}

// Disconnect removes slot id and releases its dependency edge.
func (m *Matrix) Disconnect(id SlotID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.slots[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrSlotNotFound, id)
	}
	delete(m.slots, id)
	if s.Source.Kind == SourceParameter {
		m.releaseEdgeLocked(registry.Dependency{Source: s.Source.Param, Target: s.Target})
	}
	m.rebuildLocked()
	m.log.V(logging.VERBOSE).Info("Disconnected", "slot", id)

	return nil
}

// acquireEdgeLocked takes one reference on dep, adding the edge to the
// registry on first use.
func (m *Matrix) acquireEdgeLocked(dep registry.Dependency) error {
	if ref, ok := m.edges[dep]; ok {
		ref.count++
		return nil
	}
	owned := false
	if !m.reg.HasDependency(dep.Source, dep.Target) {
		if err := m.reg.AddDependency(dep.Source, dep.Target); err != nil {
			return err
		}
		owned = true
	}
	m.edges[dep] = &edgeRef{count: 1, owned: owned}

	return nil
}

// releaseEdgeLocked drops one reference on dep and removes the edge with the
// last one, when the matrix added it.
func (m *Matrix) releaseEdgeLocked(dep registry.Dependency) {
	ref, ok := m.edges[dep]
	if !ok {
		return
	}
	ref.count--
	if ref.count > 0 {
		return
	}
	delete(m.edges, dep)
	if !ref.owned {
		return
	}
	if err := m.reg.RemoveDependency(dep.Source, dep.Target); err != nil {
		// The registry already dropped it, typically via Unregister.
		m.log.V(logging.DEBUG).Info("Dependency already gone", "source", dep.Source, "target", dep.Target)
	}
}

// SetAmount changes the amount of slot id. Unknown ids are ignored.
func (m *Matrix) SetAmount(id SlotID, amount float64) {
	m.update(id, func(s *Slot) bool {
		amount = finite(amount)
		if s.Amount == amount {
			return false
		}
		s.Amount = amount

		return true
	})
}

// SetBlendMode changes the blend mode of slot id. Unknown ids and invalid
// modes are ignored.
func (m *Matrix) SetBlendMode(id SlotID, mode BlendMode) {
	if !mode.Valid() {
		return
	}
	m.update(id, func(s *Slot) bool {
		if s.Mode == mode {
			return false
		}
		s.Mode = mode

		return true
	})
}

// SetEnabled turns slot id on or off. Unknown ids are ignored. A disabled
// slot keeps its dependency edge.
func (m *Matrix) SetEnabled(id SlotID, enabled bool) {
	m.update(id, func(s *Slot) bool {
		if s.Enabled == enabled {
			return false
		}
		s.Enabled = enabled

		return true
	})
}

// update applies fn to slot id and rebuilds the plan when fn reports a change.
func (m *Matrix) update(id SlotID, fn func(*Slot) bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.slots[id]
	if !ok {
		m.log.V(logging.DEBUG).Info("Ignoring update of unknown slot", "slot", id)
		return
	}
	if fn(s) {
		m.rebuildLocked()
	}
}

// Slot returns a copy of slot id.
func (m *Matrix) Slot(id SlotID) (Slot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.slots[id]
	if !ok {
		return Slot{}, false
	}

	return *s, true
}

// SlotCount returns the number of slots, enabled or not.
func (m *Matrix) SlotCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.slots)
}

// Slots returns copies of every slot in ascending id order.
func (m *Matrix) Slots() []Slot {
	return m.collect(func(*Slot) bool { return true })
}

// SlotsForTarget returns copies of the slots aimed at target, ascending id.
func (m *Matrix) SlotsForTarget(target param.ID) []Slot {
	return m.collect(func(s *Slot) bool { return s.Target == target })
}

func (m *Matrix) collect(keep func(*Slot) bool) []Slot {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Slot, 0, len(m.slots))
	for _, s := range m.slots {
		if keep(s) {
			out = append(out, *s)
		}
	}
	slices.SortFunc(out, func(a, b Slot) int { return cmp.Compare(a.ID, b.ID) })

	return out
}

// Rebuild recomputes the render plan from the current slots and registry.
// Call it after editing the registry directly.
func (m *Matrix) Rebuild() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rebuildLocked()
}

// Stale reports whether the registry changed since the plan was built.
func (m *Matrix) Stale() bool {
	return m.plan.Load().gen != m.reg.Generation()
}

// EvaluationOrder returns the targets Process evaluates, in order.
func (m *Matrix) EvaluationOrder() []param.ID {
	p := m.plan.Load()
	out := make([]param.ID, len(p.runs))
	for i, r := range p.runs {
		out[i] = r.target.ID()
	}

	return out
}

// Process recomputes every parameter's modulation offset for one block.
// Real-time safe; call from a single goroutine.
func (m *Matrix) Process() {
	m.reg.ForEach(clearOffset)
	m.plan.Load().evaluate()
	m.rec.RecordBlock()
}

// ClearModulations zeroes every parameter's modulation offset. Real-time safe.
func (m *Matrix) ClearModulations() {
	m.reg.ForEach(clearOffset)
}

func clearOffset(s *param.Signal) { s.SetModulation(0) }

func finite(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}

	return v
}
