package patch

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/go-logr/logr"
	lua "github.com/yuin/gopher-lua"

	"github.com/katalvlaran/paramgraph/internal/logging"
	"github.com/katalvlaran/paramgraph/modmatrix"
	"github.com/katalvlaran/paramgraph/param"
	"github.com/katalvlaran/paramgraph/registry"
)

// DefaultTimeout bounds script execution when no WithTimeout is given.
const DefaultTimeout = time.Second

// Sentinel errors.
var (
	// ErrNilTarget is returned when the registry or matrix is nil.
	ErrNilTarget = errors.New("patch: registry and matrix are required")

	// ErrScript wraps any compile or runtime error raised by the script.
	ErrScript = errors.New("patch: script failed")
)

// removed names are deleted from the global table after the libraries open.
var removed = []string{"dofile", "loadfile", "load", "loadstring", "require", "module", "package"}

// Result lists what a script created, in creation order.
type Result struct {
	Params []param.ID
	Slots  []modmatrix.SlotID
	Names  map[string]param.ID
}

// Option configures Load.
type Option func(*options)

type options struct {
	logger    logr.Logger
	timeout   time.Duration
	chunkName string
}

// WithLogger receives print output and load events.
func WithLogger(l logr.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithTimeout bounds script execution. d <= 0 keeps DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithChunkName names the script in error messages.
func WithChunkName(name string) Option {
	return func(o *options) { o.chunkName = name }
}

// loader carries the state shared by the Lua callbacks of one Load.
type loader struct {
	reg *registry.Registry
	mtx *modmatrix.Matrix
	log logr.Logger
	res *Result
}

// LoadFile reads path and calls Load with the file name as chunk name.
func LoadFile(ctx context.Context, reg *registry.Registry, mtx *modmatrix.Matrix, path string, opts ...Option) (*Result, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("patch: read %s: %w", path, err)
	}

	return Load(ctx, reg, mtx, string(src), append([]Option{WithChunkName(path)}, opts...)...)
}

// Load runs src against reg and mtx and reports what it created. On any
// error the created slots and parameters are removed again.
func Load(ctx context.Context, reg *registry.Registry, mtx *modmatrix.Matrix, src string, opts ...Option) (*Result, error) {
	if reg == nil || mtx == nil {
		return nil, ErrNilTarget
	}
	o := options{logger: logr.Discard(), timeout: DefaultTimeout, chunkName: "patch"}
	for _, opt := range opts {
		opt(&o)
	}

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	ld := &loader{
		reg: reg,
		mtx: mtx,
		log: o.logger.WithName("patch"),
		res: &Result{Names: make(map[string]param.ID)},
	}

	L, err := ld.newState()
	if err != nil {
		return nil, err
	}
	defer L.Close()
	L.SetContext(ctx)

	if err := ld.run(ctx, L, src, o.chunkName); err != nil {
		ld.rollback()
		return nil, err
	}
	ld.log.V(logging.VERBOSE).Info("Loaded patch", "chunk", o.chunkName,
		"params", len(ld.res.Params), "slots", len(ld.res.Slots))

	return ld.res, nil
}

// newState builds the sandboxed interpreter with the patch API installed.
func (ld *loader) newState() (*lua.LState, error) {
	L := lua.NewState(lua.Options{SkipOpenLibs: true, CallStackSize: 64})

	// 1) Selected libraries only.
	for _, lib := range []struct {
		name string
		fn   lua.LGFunction
	}{
		{lua.LoadLibName, lua.OpenPackage},
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	} {
		if err := L.CallByParam(lua.P{Fn: L.NewFunction(lib.fn), NRet: 1, Protect: true}, lua.LString(lib.name)); err != nil {
			L.Close()
			return nil, fmt.Errorf("patch: open %q library: %w", lib.name, err)
		}
		L.Pop(1)
	}

	// 2) Strip code loading.
	for _, name := range removed {
		L.SetGlobal(name, lua.LNil)
	}

	// 3) Patch API.
	L.SetGlobal("print", L.NewFunction(ld.luaPrint))
	L.SetGlobal("param", L.NewFunction(ld.luaParam))
	L.SetGlobal("connect", L.NewFunction(ld.luaConnect))
	L.SetGlobal("disconnect", L.NewFunction(ld.luaDisconnect))
	L.SetGlobal("set", L.NewFunction(ld.luaSet))
	L.SetGlobal("lookup", L.NewFunction(ld.luaLookup))

	return L, nil
}

func (ld *loader) run(ctx context.Context, L *lua.LState, src, chunk string) error {
	fn, err := L.Load(strings.NewReader(src), chunk)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrScript, err)
	}
	L.Push(fn)
	if err := L.PCall(0, lua.MultRet, nil); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%w: %w", ErrScript, ctxErr)
		}

		return fmt.Errorf("%w: %v", ErrScript, err)
	}

	return nil
}

// rollback undoes every slot and parameter created so far, newest first.
func (ld *loader) rollback() {
	for i := len(ld.res.Slots) - 1; i >= 0; i-- {
		_ = ld.mtx.Disconnect(ld.res.Slots[i])
	}
	for i := len(ld.res.Params) - 1; i >= 0; i-- {
		_ = ld.reg.Unregister(ld.res.Params[i])
	}
	ld.log.V(logging.DEBUG).Info("Rolled back patch", "params", len(ld.res.Params), "slots", len(ld.res.Slots))
	ld.res = nil
}

// param{name=, min=, max=, default=, automatable=}
func (ld *loader) luaParam(L *lua.LState) int {
	t := L.CheckTable(1)
	lo := number(L, t, "min", 0)
	hi := number(L, t, "max", 1)
	spec := param.Spec{
		Name:        lua.LVAsString(t.RawGetString("name")),
		Min:         lo,
		Max:         hi,
		Default:     number(L, t, "default", lo),
		Automatable: lua.LVAsBool(t.RawGetString("automatable")),
	}
	id := ld.reg.Register(spec)
	ld.res.Params = append(ld.res.Params, id)
	if _, dup := ld.res.Names[spec.Name]; spec.Name != "" && !dup {
		ld.res.Names[spec.Name] = id
	}
	L.Push(lua.LNumber(id))

	return 1
}

// connect{source= | lfo= | env= | ext=, target=, amount=, mode=}
func (ld *loader) luaConnect(L *lua.LState) int {
	t := L.CheckTable(1)

	var (
		src   modmatrix.Source
		found int
	)
	if v := t.RawGetString("source"); v != lua.LNil {
		src = modmatrix.ParamSource(param.ID(ident(L, "source", v)))
		found++
	}
	for _, gen := range []struct {
		key  string
		kind modmatrix.SourceKind
	}{
		{"lfo", modmatrix.SourceLFO},
		{"env", modmatrix.SourceEnvelope},
		{"ext", modmatrix.SourceExternal},
	} {
		if v := t.RawGetString(gen.key); v != lua.LNil {
			src = modmatrix.Source{Kind: gen.kind, Index: int(ident(L, gen.key, v))}
			found++
		}
	}
	if found != 1 {
		L.ArgError(1, "exactly one of source, lfo, env, ext is required")
		return 0
	}

	target := t.RawGetString("target")
	if target == lua.LNil {
		L.ArgError(1, "target is required")
		return 0
	}
	mode := modmatrix.Add
	if v := t.RawGetString("mode"); v != lua.LNil {
		m, err := modmatrix.ParseBlendMode(lua.LVAsString(v))
		if err != nil {
			L.ArgError(1, err.Error())
			return 0
		}
		mode = m
	}

	slot, err := ld.mtx.Connect(src, param.ID(ident(L, "target", target)), number(L, t, "amount", 1), mode)
	if err != nil {
		L.RaiseError("connect %s: %v", src, err)
		return 0
	}
	ld.res.Slots = append(ld.res.Slots, slot)
	L.Push(lua.LNumber(slot))

	return 1
}

// disconnect(slot)
func (ld *loader) luaDisconnect(L *lua.LState) int {
	slot := modmatrix.SlotID(ident(L, "slot", L.CheckAny(1)))
	if err := ld.mtx.Disconnect(slot); err != nil {
		L.RaiseError("disconnect: %v", err)
		return 0
	}
	for i, s := range ld.res.Slots {
		if s == slot {
			ld.res.Slots = append(ld.res.Slots[:i], ld.res.Slots[i+1:]...)
			break
		}
	}

	return 0
}

// set(id, value)
func (ld *loader) luaSet(L *lua.LState) int {
	id := param.ID(ident(L, "id", L.CheckAny(1)))
	v := float64(L.CheckNumber(2))
	sig := ld.reg.Param(id)
	if sig == nil {
		L.RaiseError("set: %v: %d", registry.ErrParamNotFound, id)
		return 0
	}
	sig.SetValue(v)

	return 0
}

// lookup(name)
func (ld *loader) luaLookup(L *lua.LState) int {
	id, ok := ld.reg.Lookup(L.CheckString(1))
	if !ok {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(lua.LNumber(id))

	return 1
}

func (ld *loader) luaPrint(L *lua.LState) int {
	parts := make([]string, L.GetTop())
	for i := range parts {
		parts[i] = L.ToStringMeta(L.Get(i + 1)).String()
	}
	ld.log.Info(strings.Join(parts, "\t"))

	return 0
}

// number reads an optional numeric field, raising a Lua error on a non-number.
func number(L *lua.LState, t *lua.LTable, key string, def float64) float64 {
	v := t.RawGetString(key)
	if v == lua.LNil {
		return def
	}
	n, ok := v.(lua.LNumber)
	if !ok {
		L.RaiseError("%s must be a number, got %s", key, v.Type())
		return def
	}

	return float64(n)
}

// ident converts a Lua value to a non-negative integer identifier.
func ident(L *lua.LState, key string, v lua.LValue) uint32 {
	n, ok := v.(lua.LNumber)
	f := float64(n)
	if !ok || f < 0 || f != math.Trunc(f) || f > math.MaxUint32 {
		L.RaiseError("%s must be a non-negative integer, got %s", key, v.String())
		return 0
	}

	return uint32(f)
}
