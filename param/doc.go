// Package param provides Signal, the bounded, observable control value at the
// leaves of the modulation graph.
//
// A Signal carries two independent numbers:
//
//   - the base value, always clamped to [Min, Max] on write and observed by
//     UI bindings through Observer callbacks;
//   - the modulation offset, written raw once per audio block by the
//     modulation matrix and never clamped on write.
//
// Consumers on the render path read ModulatedValue(), which is
// clamp(base+offset, Min, Max).
//
// Threading model:
//
//	Control goroutine  – SetValue, SetValueNormalized, AddObserver, RemoveObserver.
//	                     SetValue notifies observers inline on the caller's stack.
//	Audio goroutine    – Value, ModulatedValue, SetModulation, Modulation,
//	                     SetValueRT. None of them lock or allocate.
//
// SetValueRT is the audio-side writer: instead of running observers on the
// render thread it posts the change to a Dispatcher, a bounded queue drained
// on the control goroutine by Dispatcher.Run or Dispatcher.Drain. When the
// queue is full the change is dropped (the stored value is still updated) and
// counted.
//
// Both numbers are stored as IEEE-754 bits in atomic.Uint64, so readers never
// observe a torn write.
//
// Complexity:
//
//   - value reads/writes: O(1)
//   - SetValue with k observers: O(k)
//   - AddObserver/RemoveObserver: O(k) (copy-on-write observer list)
package param
