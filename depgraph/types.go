package depgraph

import (
	"cmp"
	"errors"
	"sync"
)

// Sentinel errors for graph operations.
var (
	// ErrVertexNotFound indicates an operation referenced a non-existent vertex.
	ErrVertexNotFound = errors.New("depgraph: vertex not found")

	// ErrEdgeNotFound indicates RemoveEdge was asked for an edge that is not present.
	ErrEdgeNotFound = errors.New("depgraph: edge not found")

	// ErrSelfLoop indicates an edge from a vertex to itself.
	ErrSelfLoop = errors.New("depgraph: self-loop not allowed")

	// ErrCycle indicates the edge would close a directed cycle.
	ErrCycle = errors.New("depgraph: edge would create a cycle")
)

// Visitation states used by the depth-first walk.
const (
	White = iota // not yet discovered
	Gray         // on the current walk stack
	Black        // fully explored
)

// Edge is a directed dependency From → To.
type Edge[K cmp.Ordered] struct {
	From K
	To   K
}

// Option configures a Graph before first use.
type Option func(*options)

type options struct {
	capacity int
}

// WithCapacity pre-sizes the vertex maps for n vertices.
func WithCapacity(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.capacity = n
		}
	}
}

// Graph is a directed graph that never contains a cycle.
//
// mu guards both adjacency maps and the edge counter. succ[from][to] and
// pred[to][from] always hold the same edge set; every vertex has an entry in
// both maps, possibly empty.
type Graph[K cmp.Ordered] struct {
	mu sync.RWMutex

	succ  map[K]map[K]struct{}
	pred  map[K]map[K]struct{}
	edges int
}

// New creates an empty Graph.
func New[K cmp.Ordered](opts ...Option) *Graph[K] {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	return &Graph[K]{
		succ: make(map[K]map[K]struct{}, o.capacity),
		pred: make(map[K]map[K]struct{}, o.capacity),
	}
}
