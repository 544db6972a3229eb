package modmatrix

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-logr/logr"

	"github.com/katalvlaran/paramgraph/metrics"
	"github.com/katalvlaran/paramgraph/param"
)

// Sentinel errors returned by Matrix methods.
var (
	// ErrNilRegistry is returned by New without a registry.
	ErrNilRegistry = errors.New("modmatrix: registry is nil")

	// ErrTargetNotFound indicates Connect named an unregistered target.
	ErrTargetNotFound = errors.New("modmatrix: target parameter not found")

	// ErrSourceNotFound indicates a Parameter source that is not registered.
	ErrSourceNotFound = errors.New("modmatrix: source parameter not found")

	// ErrCycle indicates the routing would make a parameter depend on itself.
	ErrCycle = errors.New("modmatrix: routing would create a cycle")

	// ErrInvalidBlendMode indicates a BlendMode outside the defined set.
	ErrInvalidBlendMode = errors.New("modmatrix: invalid blend mode")

	// ErrInvalidSourceKind indicates a SourceKind outside the defined set.
	ErrInvalidSourceKind = errors.New("modmatrix: invalid source kind")

	// ErrSlotNotFound indicates an unknown slot id.
	ErrSlotNotFound = errors.New("modmatrix: slot not found")
)

// SlotID identifies a routing. Ids start at 1 and are never reused.
type SlotID uint32

// InvalidSlotID is returned when Connect fails.
const InvalidSlotID SlotID = 0

// SourceKind selects where a Source reads its value.
type SourceKind uint8

const (
	SourceParameter SourceKind = iota
	SourceLFO
	SourceEnvelope
	SourceExternal

	numSourceKinds
)

var sourceKindNames = [numSourceKinds]string{"parameter", "lfo", "envelope", "external"}

// String returns the lower-case kind name.
func (k SourceKind) String() string {
	if k < numSourceKinds {
		return sourceKindNames[k]
	}

	return fmt.Sprintf("SourceKind(%d)", uint8(k))
}

// Valid reports whether k is a defined kind.
func (k SourceKind) Valid() bool { return k < numSourceKinds }

// Source is a modulation input. Param is used by SourceParameter; Index
// addresses the generator for the other kinds.
type Source struct {
	Kind  SourceKind
	Param param.ID
	Index int
}

// ParamSource reads the normalized value of parameter id.
func ParamSource(id param.ID) Source { return Source{Kind: SourceParameter, Param: id} }

// LFOSource reads LFO number i.
func LFOSource(i int) Source { return Source{Kind: SourceLFO, Index: i} }

// EnvelopeSource reads envelope number i.
func EnvelopeSource(i int) Source { return Source{Kind: SourceEnvelope, Index: i} }

// ExternalSource reads external control input i.
func ExternalSource(i int) Source { return Source{Kind: SourceExternal, Index: i} }

func (s Source) String() string {
	if s.Kind == SourceParameter {
		return fmt.Sprintf("parameter(%d)", s.Param)
	}

	return fmt.Sprintf("%s(%d)", s.Kind, s.Index)
}

// BlendMode is the rule applied to a source value before accumulation.
type BlendMode uint8

const (
	Add BlendMode = iota
	Multiply
	Replace
	Bipolar

	numBlendModes
)

var blendModeNames = [numBlendModes]string{"add", "multiply", "replace", "bipolar"}

// String returns the lower-case mode name.
func (m BlendMode) String() string {
	if m < numBlendModes {
		return blendModeNames[m]
	}

	return fmt.Sprintf("BlendMode(%d)", uint8(m))
}

// Valid reports whether m is a defined mode.
func (m BlendMode) Valid() bool { return m < numBlendModes }

// ParseBlendMode accepts the names returned by String, case-insensitively.
func ParseBlendMode(s string) (BlendMode, error) {
	for i, name := range blendModeNames {
		if strings.EqualFold(s, name) {
			return BlendMode(i), nil
		}
	}

	return Add, fmt.Errorf("%w: %q", ErrInvalidBlendMode, s)
}

// Slot is a snapshot of one routing.
type Slot struct {
	ID      SlotID
	Source  Source
	Target  param.ID
	Amount  float64
	Mode    BlendMode
	Enabled bool
}

// SourceResolution decides which value a Parameter source contributes.
type SourceResolution uint8

const (
	// ResolveModulated reads the source's modulated value, which is final by
	// the time its targets are evaluated.
	ResolveModulated SourceResolution = iota
	// ResolveBase reads the source's base value and ignores its modulation.
	ResolveBase
)

// Option configures a Matrix.
type Option func(*options)

type options struct {
	logger     logr.Logger
	recorder   *metrics.Recorder
	resolution SourceResolution
	providers  [numSourceKinds]SourceProvider
}

// WithLogger sets the logger for routing changes. Process never logs.
func WithLogger(l logr.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMetrics reports slot counts, plan rebuilds and processed blocks to r.
func WithMetrics(r *metrics.Recorder) Option {
	return func(o *options) { o.recorder = r }
}

// WithSourceResolution selects how Parameter sources are read.
func WithSourceResolution(r SourceResolution) Option {
	return func(o *options) { o.resolution = r }
}

// WithProvider installs p as the value source for kind. Providers for
// SourceParameter and unknown kinds are ignored.
func WithProvider(kind SourceKind, p SourceProvider) Option {
	return func(o *options) {
		if kind != SourceParameter && kind.Valid() {
			o.providers[kind] = p
		}
	}
}
