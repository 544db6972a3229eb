// Package depgraph implements the dependency graph behind the parameter
// registry: a thread-safe directed graph whose edge set is kept acyclic at
// insertion time.
//
// What:
//
//   - Graph[K]: vertices keyed by any ordered type, edges stored twice
//     (successor and predecessor sets) so vertex removal and in-degree
//     computation are O(deg) instead of O(E).
//   - AddEdge refuses unknown endpoints, self-loops and any edge whose
//     insertion would close a cycle. The check runs before the edge set is
//     touched, so a rejected call leaves the graph unchanged.
//   - WouldCreateCycle / Reachable: reachability from dst to src.
//   - HasCycle: whole-graph back-edge search with White/Gray/Black colouring.
//   - TopologicalOrder: Kahn's algorithm; an incomplete order means a cycle
//     and is reported as an empty slice.
//
// Why one traversal:
//
//	Reachable and HasCycle both run on walk, a single iterative depth-first
//	routine with discover and back-edge hooks. The two checks therefore see
//	the same adjacency in the same order and cannot disagree about what a
//	path is. Iteration is explicit-stack, so deep chains do not grow the
//	goroutine stack.
//
// Determinism:
//
//	Vertices, Successors, Edges and TopologicalOrder return results in
//	ascending key order (Kahn's ready queue is seeded and fed in ascending
//	order), so identical graphs produce identical orders.
//
// Complexity:
//
//   - AddVertex, HasVertex, HasEdge, RemoveEdge: O(1)
//   - RemoveVertex:                              O(deg(v))
//   - AddEdge, WouldCreateCycle, Reachable:      O(V + E·log d)
//   - HasCycle, TopologicalOrder:                O(V·log V + E·log d)
//
// (log d comes from sorting each successor set for deterministic visiting.)
//
// Errors:
//
//   - ErrVertexNotFound  endpoint or vertex does not exist
//   - ErrEdgeNotFound    RemoveEdge on an absent edge
//   - ErrSelfLoop        AddEdge(v, v)
//   - ErrCycle           AddEdge would close a cycle
package depgraph
