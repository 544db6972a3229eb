package depgraph

import (
	"cmp"
	"fmt"
	"slices"
)

// AddVertex inserts k if missing. Adding an existing vertex is a no-op.
// Complexity: O(1).
func (g *Graph[K]) AddVertex(k K) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.succ[k]; ok {
		return nil
	}
	g.succ[k] = make(map[K]struct{})
	g.pred[k] = make(map[K]struct{})

	return nil
}

// HasVertex reports whether k is present.
func (g *Graph[K]) HasVertex(k K) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.succ[k]

	return ok
}

// RemoveVertex deletes k and every edge that mentions it, in either direction.
// Complexity: O(deg(k)).
func (g *Graph[K]) RemoveVertex(k K) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	out, ok := g.succ[k]
	if !ok {
		return ErrVertexNotFound
	}
	// 1) Outgoing edges: drop k from each successor's predecessor set.
	for to := range out {
		delete(g.pred[to], k)
		g.edges--
	}
	// 2) Incoming edges: drop k from each predecessor's successor set.
	for from := range g.pred[k] {
		delete(g.succ[from], k)
		g.edges--
	}
	// 3) Finally forget the vertex itself.
	delete(g.succ, k)
	delete(g.pred, k)

	return nil
}

// VertexCount returns the number of vertices.
func (g *Graph[K]) VertexCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return len(g.succ)
}

// EdgeCount returns the number of edges.
func (g *Graph[K]) EdgeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return g.edges
}

// Vertices returns all vertex keys in ascending order.
func (g *Graph[K]) Vertices() []K {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return g.verticesLocked()
}

// AddEdge records from → to.
//
// Validation happens before any mutation:
//  1. both endpoints must exist (ErrVertexNotFound);
//  2. from != to (ErrSelfLoop);
//  3. to must not already reach from (ErrCycle).
//
// Re-adding an existing edge succeeds without change.
func (g *Graph[K]) AddEdge(from, to K) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.succ[from]; !ok {
		return fmt.Errorf("%w: %v", ErrVertexNotFound, from)
	}
	if _, ok := g.succ[to]; !ok {
		return fmt.Errorf("%w: %v", ErrVertexNotFound, to)
	}
	if from == to {
		return ErrSelfLoop
	}
	if _, ok := g.succ[from][to]; ok {
		return nil
	}
	if g.reachableLocked(to, from) {
		return fmt.Errorf("%w: %v -> %v", ErrCycle, from, to)
	}

	g.succ[from][to] = struct{}{}
	g.pred[to][from] = struct{}{}
	g.edges++

	return nil
}

// RemoveEdge deletes from → to, or returns ErrEdgeNotFound.
func (g *Graph[K]) RemoveEdge(from, to K) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.succ[from][to]; !ok {
		return ErrEdgeNotFound
	}
	delete(g.succ[from], to)
	delete(g.pred[to], from)
	g.edges--

	return nil
}

// HasEdge reports whether from → to is present.
func (g *Graph[K]) HasEdge(from, to K) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.succ[from][to]

	return ok
}

// Successors returns the direct successors of k in ascending order.
func (g *Graph[K]) Successors(k K) ([]K, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if _, ok := g.succ[k]; !ok {
		return nil, ErrVertexNotFound
	}

	return g.successorsLocked(k), nil
}

// Predecessors returns the direct predecessors of k in ascending order.
func (g *Graph[K]) Predecessors(k K) ([]K, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	in, ok := g.pred[k]
	if !ok {
		return nil, ErrVertexNotFound
	}

	return sortedKeys(in), nil
}

// Edges returns every edge ordered by (From, To).
func (g *Graph[K]) Edges() []Edge[K] {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]Edge[K], 0, g.edges)
	for _, from := range g.verticesLocked() {
		for _, to := range g.successorsLocked(from) {
			out = append(out, Edge[K]{From: from, To: to})
		}
	}

	return out
}

func (g *Graph[K]) verticesLocked() []K {
	return sortedKeys(g.succ)
}

func (g *Graph[K]) successorsLocked(k K) []K {
	return sortedKeys(g.succ[k])
}

// sortedKeys returns the keys of m in ascending order.
func sortedKeys[K cmp.Ordered, V any](m map[K]V) []K {
	out := make([]K, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	slices.Sort(out)

	return out
}
