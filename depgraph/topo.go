package depgraph

// TopologicalOrder returns every vertex such that each edge u → v has u
// before v. Ties are broken by ascending key.
//
// Kahn's algorithm:
//  1. compute in-degrees from the predecessor sets;
//  2. seed the ready queue with zero in-degree vertices in ascending order;
//  3. pop, emit, decrement successors (ascending) and enqueue those that reach 0.
//
// If fewer than VertexCount vertices were emitted the graph has a cycle and
// nil is returned. An empty graph yields an empty, non-nil slice.
func (g *Graph[K]) TopologicalOrder() []K {
	g.mu.RLock()
	defer g.mu.RUnlock()

	// 1) In-degrees.
	indeg := make(map[K]int, len(g.pred))
	for v, in := range g.pred {
		indeg[v] = len(in)
	}

	// 2) Seed.
	queue := make([]K, 0, len(g.succ))
	for _, v := range g.verticesLocked() {
		if indeg[v] == 0 {
			queue = append(queue, v)
		}
	}

	// 3) Drain.
	order := make([]K, 0, len(g.succ))
	for head := 0; head < len(queue); head++ {
		u := queue[head]
		order = append(order, u)
		for _, w := range g.successorsLocked(u) {
			indeg[w]--
			if indeg[w] == 0 {
				queue = append(queue, w)
			}
		}
	}

	if len(order) != len(g.succ) {
		return nil
	}

	return order
}
