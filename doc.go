// Package paramgraph is the parameter-modulation core of an audio engine:
// range-bounded parameters, the dependency graph between them and a
// modulation matrix evaluated once per audio block.
//
// The module is organised as small packages:
//
//	param/         Signal: atomic base value, modulation offset, observers,
//	               and the Dispatcher that moves real-time notifications off
//	               the audio goroutine
//	depgraph/      generic acyclic graph: cycle-rejecting inserts,
//	               reachability, HasCycle and Kahn topological order
//	registry/      Registry: id allocation, parameter storage and the
//	               parameter dependency DAG
//	modmatrix/     Matrix: routings from parameters, LFOs, envelopes and
//	               external inputs onto parameters, compiled into an
//	               allocation-free render plan
//	patch/         sandboxed Lua scripts that declare parameters and routings
//	metrics/       Prometheus collectors for registry and matrix
//	cmd/modgraph/  command-line host that loads a patch and renders blocks
//
// Threading model: structural edits (Register, Connect, ...) happen on a
// control goroutine; Matrix.Process, Signal.SetValueRT and the value getters
// are safe on the audio goroutine and neither block nor allocate.
//
//	reg := registry.New()
//	cutoff := reg.Register(param.Spec{Name: "Cutoff", Min: 20, Max: 20000, Default: 1000})
//	mtx, _ := modmatrix.New(reg)
//	_, _ = mtx.Connect(modmatrix.LFOSource(0), cutoff, 500, modmatrix.Bipolar)
//	mtx.Process()
package paramgraph
