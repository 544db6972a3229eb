// Package modmatrix routes modulation sources onto parameter targets and
// evaluates the routings once per audio block.
//
// A Matrix owns a table of slots. Each slot names a Source (another
// parameter, or an LFO / envelope / external input addressed by index), a
// target parameter, an amount and a BlendMode. Process clears every
// parameter's modulation offset and recomputes it from the enabled slots.
//
// Routing rules:
//
//   - A Parameter source records a dependency edge source → target in the
//     registry. Connect fails with ErrCycle when that edge would close a
//     cycle, and no slot is created. Several slots may share one
//     (source, target) pair; the edge is reference counted and removed with
//     the last such slot.
//   - Contributions are value × amount, except Bipolar, which first remaps
//     the source from [0,1] to [-1,1]. Add, Multiply and Replace currently
//     share the additive rule; the contributions of a target are summed.
//   - Non-parameter sources are read through the SourceProvider registered
//     for their kind. Without one they read the neutral 0.5.
//
// Evaluation order:
//
//	Targets are evaluated in the registry's topological order and each
//	target's offset is stored before the next target runs. With
//	ResolveModulated (the default) a Parameter source contributes its
//	modulated value, so chains such as LFO → A → B compose. ResolveBase reads
//	base values only.
//
// Real time:
//
//	Every control-side mutation rebuilds an immutable render plan and
//	publishes it atomically. Process only loads the current plan and uses
//	its preallocated scratch buffers: no locks, no allocation, no logging.
//	Process must be driven by a single goroutine.
//
// The Matrix borrows its registry, which must outlive it. Registry edits made
// outside the matrix are picked up by Rebuild.
package modmatrix
