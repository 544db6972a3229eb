// Package patch loads modulation patches written as Lua scripts into a
// registry and a modulation matrix.
//
// A script runs in a restricted interpreter: only the base, table, string and
// math libraries are opened, and dofile, loadfile, load, loadstring, require
// and module are removed, so a patch can neither touch the filesystem nor
// pull in more code. print is routed to the loader's logger. Execution stops
// when the context passed to Load is done or the configured timeout expires.
//
// The script sees these globals:
//
//	param{name=, min=, max=, default=, automatable=}   -> parameter id
//	connect{source=id | lfo=n | env=n | ext=n,
//	        target=id, amount=, mode="add"|"multiply"|"replace"|"bipolar"}
//	                                                    -> slot id
//	disconnect(slot)
//	set(id, value)                                      -- base value
//	lookup(name)                                        -> id or nil
//
// Loading is all-or-nothing: if the script fails, every slot and parameter it
// created is removed again before Load returns the error.
//
//	gain = param{ name = "Gain", min = 0, max = 1, default = 0.8 }
//	cut  = param{ name = "Cutoff", default = 0.5, automatable = true }
//	connect{ lfo = 0, target = cut, amount = 0.3, mode = "bipolar" }
//	connect{ source = gain, target = cut, amount = 0.1 }
package patch
