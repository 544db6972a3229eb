package registry

import (
	"errors"

	"github.com/go-logr/logr"

	"github.com/katalvlaran/paramgraph/metrics"
	"github.com/katalvlaran/paramgraph/param"
)

// Sentinel errors returned by Registry methods.
var (
	// ErrParamNotFound indicates an unknown parameter id.
	ErrParamNotFound = errors.New("registry: parameter not found")

	// ErrCycle indicates a dependency that would close a cycle, including a
	// parameter depending on itself.
	ErrCycle = errors.New("registry: dependency would create a cycle")

	// ErrDependencyNotFound indicates RemoveDependency on an absent edge.
	ErrDependencyNotFound = errors.New("registry: dependency not found")
)

// Dependency is one directed edge: Target depends on Source.
type Dependency struct {
	Source param.ID
	Target param.ID
}

// Option configures a Registry.
type Option func(*options)

type options struct {
	logger     logr.Logger
	recorder   *metrics.Recorder
	queueSize  int
	dispatcher *param.Dispatcher
}

// WithLogger sets the logger used for structural events.
func WithLogger(l logr.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMetrics reports parameter counts, rejected edges and dropped
// notifications to r.
func WithMetrics(r *metrics.Recorder) Option {
	return func(o *options) { o.recorder = r }
}

// WithQueueSize sets the capacity of the registry-owned notification queue.
// Ignored when WithDispatcher is given.
func WithQueueSize(n int) Option {
	return func(o *options) { o.queueSize = n }
}

// WithDispatcher shares an existing dispatcher instead of creating one.
func WithDispatcher(d *param.Dispatcher) Option {
	return func(o *options) { o.dispatcher = d }
}
