// Package registry owns every parameter signal of a session together with the
// dependency graph between them.
//
// A Registry hands out identifiers from a monotonic counter starting at 1
// (0 is param.InvalidID) and never reuses them, even after Unregister.
// Dependencies are directed edges source → target recorded in a
// depgraph.Graph; AddDependency refuses any edge that would close a cycle, so
// TopologicalOrder always covers every registered parameter.
//
// Concurrency:
//
//	Structural calls (Register, Unregister, AddDependency, RemoveDependency)
//	take a write lock and are meant for the control goroutine. Queries take a
//	read lock. ForEach iterates an immutable snapshot of the live signals
//	republished on every register/unregister, so the audio goroutine can walk
//	the parameter set without locking. Generation changes on every structural
//	edit; modulation matrices compare it to decide whether their render plan
//	is stale.
//
// Unregister does not notify modulation matrices. Disconnect routings that
// mention a parameter before removing it.
package registry
