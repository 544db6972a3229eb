package registry

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/go-logr/logr"

	"github.com/katalvlaran/paramgraph/depgraph"
	"github.com/katalvlaran/paramgraph/internal/logging"
	"github.com/katalvlaran/paramgraph/metrics"
	"github.com/katalvlaran/paramgraph/param"
)

// Registry stores parameters and their dependency DAG.
type Registry struct {
	mu     sync.RWMutex
	params map[param.ID]*param.Signal
	graph  *depgraph.Graph[param.ID]
	nextID param.ID

	live atomic.Pointer[[]*param.Signal] // ascending id, never mutated in place
	gen  atomic.Uint64

	dispatcher *param.Dispatcher
	log        logr.Logger
	rec        *metrics.Recorder
}

// New creates an empty Registry.
func New(opts ...Option) *Registry {
	o := options{logger: logr.Discard()}
	for _, opt := range opts {
		opt(&o)
	}

	r := &Registry{
		params: make(map[param.ID]*param.Signal),
		graph:  depgraph.New[param.ID](),
		nextID: 1,
		log:    o.logger.WithName("registry"),
		rec:    o.recorder,
	}
	r.dispatcher = o.dispatcher
	if r.dispatcher == nil {
		r.dispatcher = param.NewDispatcher(o.queueSize, param.WithDropHook(r.rec.RecordDroppedChange))
	}
	empty := make([]*param.Signal, 0)
	r.live.Store(&empty)

	return r
}

// Register creates a signal for spec and returns its id. It always succeeds.
func (r *Registry) Register(spec param.Spec) param.ID {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.nextID
	r.nextID++

	sig := param.NewSignal(id, spec, param.WithDispatcher(r.dispatcher))
	r.params[id] = sig
	_ = r.graph.AddVertex(id) // never fails for a fresh id
	r.publishLocked()

	r.log.V(logging.VERBOSE).Info("Registered parameter", "id", id, "name", sig.Name(),
		"min", sig.Min(), "max", sig.Max(), "default", sig.Default())

	return id
}

// Unregister removes id and every dependency that mentions it.
func (r *Registry) Unregister(id param.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.params[id]; !ok {
		return fmt.Errorf("%w: %d", ErrParamNotFound, id)
	}
	delete(r.params, id)
	if err := r.graph.RemoveVertex(id); err != nil {
		return fmt.Errorf("registry: remove vertex %d: %w", id, err)
	}
	r.publishLocked()

	r.log.V(logging.VERBOSE).Info("Unregistered parameter", "id", id)

	return nil
}

// publishLocked rebuilds the live snapshot, bumps the generation and updates
// the parameter gauge. Caller holds r.mu for writing.
func (r *Registry) publishLocked() {
	ids := r.graph.Vertices()
	snap := make([]*param.Signal, 0, len(ids))
	for _, id := range ids {
		snap = append(snap, r.params[id])
	}
	r.live.Store(&snap)
	r.gen.Add(1)
	r.rec.SetParameters(len(snap))
}

// Param returns the signal for id, or nil when unknown.
func (r *Registry) Param(id param.ID) *param.Signal {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.params[id]
}

// Lookup returns the lowest id registered under name.
func (r *Registry) Lookup(name string) (param.ID, bool) {
	for _, s := range *r.live.Load() {
		if s.Name() == name {
			return s.ID(), true
		}
	}

	return param.InvalidID, false
}

// Count returns the number of registered parameters.
func (r *Registry) Count() int {
	return len(*r.live.Load())
}

// IDs returns every registered id in ascending order.
func (r *Registry) IDs() []param.ID {
	snap := *r.live.Load()
	out := make([]param.ID, len(snap))
	for i, s := range snap {
		out[i] = s.ID()
	}

	return out
}

// ForEach calls fn for every live signal. It reads a lock-free snapshot, so
// it is safe on the audio goroutine as long as fn is.
func (r *Registry) ForEach(fn func(*param.Signal)) {
	for _, s := range *r.live.Load() {
		fn(s)
	}
}

// Generation returns a counter that changes on every structural edit.
func (r *Registry) Generation() uint64 {
	return r.gen.Load()
}

// Dispatcher returns the notification queue shared by every signal.
func (r *Registry) Dispatcher() *param.Dispatcher {
	return r.dispatcher
}

// AddDependency records that target depends on source.
//
// Both ids must be registered (ErrParamNotFound). An edge that would close a
// cycle, self-dependency included, is refused with ErrCycle and leaves the
// graph untouched. Re-adding an existing edge is a no-op.
func (r *Registry) AddDependency(source, target param.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.params[source]; !ok {
		return fmt.Errorf("%w: source %d", ErrParamNotFound, source)
	}
	if _, ok := r.params[target]; !ok {
		return fmt.Errorf("%w: target %d", ErrParamNotFound, target)
	}
	if r.graph.HasEdge(source, target) {
		return nil
	}

	if err := r.graph.AddEdge(source, target); err != nil {
		if errors.Is(err, depgraph.ErrCycle) || errors.Is(err, depgraph.ErrSelfLoop) {
			r.rec.RecordRejectedDependency()
			r.log.V(logging.DEBUG).Info("Rejected dependency", "source", source, "target", target)

			return fmt.Errorf("%w: %d -> %d", ErrCycle, source, target)
		}

		return fmt.Errorf("registry: add dependency %d -> %d: %w", source, target, err)
	}
	r.gen.Add(1)
	r.log.V(logging.DEBUG).Info("Added dependency", "source", source, "target", target)

	return nil
}

// RemoveDependency deletes source → target, or returns ErrDependencyNotFound.
func (r *Registry) RemoveDependency(source, target param.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.graph.RemoveEdge(source, target); err != nil {
		return fmt.Errorf("%w: %d -> %d", ErrDependencyNotFound, source, target)
	}
	r.gen.Add(1)
	r.log.V(logging.DEBUG).Info("Removed dependency", "source", source, "target", target)

	return nil
}

// HasDependency reports whether source → target is recorded.
func (r *Registry) HasDependency(source, target param.ID) bool {
	return r.graph.HasEdge(source, target)
}

// Dependencies returns every edge ordered by (Source, Target).
func (r *Registry) Dependencies() []Dependency {
	edges := r.graph.Edges()
	out := make([]Dependency, len(edges))
	for i, e := range edges {
		out[i] = Dependency{Source: e.From, Target: e.To}
	}

	return out
}

// WouldCreateCycle reports whether adding source → target would close a
// cycle. Pure query.
func (r *Registry) WouldCreateCycle(source, target param.ID) bool {
	return r.graph.WouldCreateCycle(source, target)
}

// HasCycle reports whether the dependency graph contains a cycle. Always
// false for a graph built through AddDependency.
func (r *Registry) HasCycle() bool {
	return r.graph.HasCycle()
}

// TopologicalOrder returns every id so that sources precede targets, ties
// broken by ascending id. It is empty only when the graph has a cycle.
func (r *Registry) TopologicalOrder() []param.ID {
	return r.graph.TopologicalOrder()
}
