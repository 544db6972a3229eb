package depgraph

// frame is one level of the explicit depth-first stack: the vertex being
// explored, its successors in ascending order and the next one to visit.
type frame[K any] struct {
	v    K
	next []K
	i    int
}

// walk runs an iterative depth-first traversal from root over vertices that
// are still White in state. A vertex turns Gray when discovered and Black
// once all of its successors are done.
//
// discover is called for each newly discovered vertex (root included); back
// is called for every edge that points at a Gray vertex. When either hook
// returns true the walk stops and reports true. Nil hooks are skipped.
//
// Caller must hold g.mu (read or write).
func (g *Graph[K]) walk(root K, state map[K]int, discover func(K) bool, back func(from, to K) bool) bool {
	if state[root] != White {
		return false
	}
	state[root] = Gray
	if discover != nil && discover(root) {
		return true
	}

	stack := []frame[K]{{v: root, next: g.successorsLocked(root)}}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.i == len(top.next) {
			state[top.v] = Black
			stack = stack[:len(stack)-1]
			continue
		}
		w := top.next[top.i]
		top.i++

		switch state[w] {
		case White:
			state[w] = Gray
			if discover != nil && discover(w) {
				return true
			}
			stack = append(stack, frame[K]{v: w, next: g.successorsLocked(w)})
		case Gray:
			if back != nil && back(top.v, w) {
				return true
			}
		}
	}

	return false
}

// reachableLocked reports whether a directed path from → to exists.
// A vertex always reaches itself.
func (g *Graph[K]) reachableLocked(from, to K) bool {
	if from == to {
		return true
	}
	if _, ok := g.succ[from]; !ok {
		return false
	}
	state := make(map[K]int)

	return g.walk(from, state, func(k K) bool { return k == to }, nil)
}

// Reachable reports whether a directed path from → to exists.
// Unknown vertices reach nothing but themselves.
func (g *Graph[K]) Reachable(from, to K) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return g.reachableLocked(from, to)
}

// WouldCreateCycle reports whether adding src → dst would close a cycle,
// i.e. whether dst already reaches src. src == dst counts as a cycle.
// The graph is not modified.
func (g *Graph[K]) WouldCreateCycle(src, dst K) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return g.reachableLocked(dst, src)
}

// HasCycle reports whether any directed cycle exists.
//
// Every White vertex in ascending order roots a walk; the first back edge
// (an edge into a Gray vertex) proves a cycle. AddEdge keeps the graph
// acyclic, so this is a consistency check and normally returns false.
func (g *Graph[K]) HasCycle() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()

	state := make(map[K]int, len(g.succ))
	onBack := func(_, _ K) bool { return true }
	for _, v := range g.verticesLocked() {
		if state[v] == White && g.walk(v, state, nil, onBack) {
			return true
		}
	}

	return false
}
