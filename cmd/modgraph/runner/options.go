package runner

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/katalvlaran/paramgraph/internal/logging"
	"github.com/katalvlaran/paramgraph/param"
	"github.com/katalvlaran/paramgraph/patch"
)

const (
	DefaultBlocks         = 16
	DefaultPrintEvery     = 4
	DefaultExternalInputs = 4
	DefaultLFOs           = 2
	DefaultLFOPeriod      = 8
)

// Options contains the command-line configuration for modgraph.
type Options struct {
	//
	// Patch.
	//
	PatchFile     string        // Lua patch to load; empty selects the built-in demo.
	ScriptTimeout time.Duration // Upper bound on patch execution.
	//
	// Rendering.
	//
	Blocks         int  // Number of audio blocks to evaluate.
	PrintEvery     int  // Print parameter values every N blocks; 0 prints only the last block.
	ExternalInputs int  // Size of the external control table.
	LFOs           int  // Number of LFO generators.
	LFOPeriod      int  // LFO period in blocks.
	BaseOnly       bool // Resolve parameter sources from base values only.
	QueueSize      int  // Capacity of the change-notification queue.
	//
	// Diagnostics.
	//
	LogVerbosity int  // Number for the log level verbosity.
	Development  bool // Console encoder instead of JSON.

	// internal
	fs *pflag.FlagSet // FlagSet used in AddFlags() and consulted in Complete()
}

// NewOptions returns a new Options struct initialized with default values.
func NewOptions() *Options {
	return &Options{
		ScriptTimeout:  patch.DefaultTimeout,
		Blocks:         DefaultBlocks,
		PrintEvery:     DefaultPrintEvery,
		ExternalInputs: DefaultExternalInputs,
		LFOs:           DefaultLFOs,
		LFOPeriod:      DefaultLFOPeriod,
		QueueSize:      param.DefaultQueueSize,
		LogVerbosity:   logging.DEFAULT,
		Development:    true,
	}
}

// AddFlags binds the Options fields to command-line flags on the given FlagSet.
func (opts *Options) AddFlags(fs *pflag.FlagSet) {
	if fs == nil {
		fs = pflag.CommandLine
	}
	opts.fs = fs

	fs.StringVar(&opts.PatchFile, "patch", opts.PatchFile,
		"Lua patch file to load. Defaults to the built-in demo patch.")
	fs.DurationVar(&opts.ScriptTimeout, "script-timeout", opts.ScriptTimeout,
		"Maximum time the patch script may run.")
	fs.IntVar(&opts.Blocks, "blocks", opts.Blocks,
		"Number of audio blocks to evaluate.")
	fs.IntVar(&opts.PrintEvery, "print-every", opts.PrintEvery,
		"Print parameter values every N blocks. 0 prints only the last block.")
	fs.IntVar(&opts.ExternalInputs, "external-inputs", opts.ExternalInputs,
		"Number of external control inputs swept by the host.")
	fs.IntVar(&opts.LFOs, "lfos", opts.LFOs,
		"Number of LFO generators.")
	fs.IntVar(&opts.LFOPeriod, "lfo-period", opts.LFOPeriod,
		"LFO period in blocks.")
	fs.BoolVar(&opts.BaseOnly, "base-only", opts.BaseOnly,
		"Resolve parameter sources from their base values and ignore upstream modulation.")
	fs.IntVar(&opts.QueueSize, "queue-size", opts.QueueSize,
		"Capacity of the real-time change notification queue.")
	fs.IntVarP(&opts.LogVerbosity, "v", "v", opts.LogVerbosity,
		"Number for the log level verbosity.")
	fs.BoolVar(&opts.Development, "log-development", opts.Development,
		"Use the human-readable console log encoder.")
}

// Complete performs post-processing of parsed command-line arguments.
func (opts *Options) Complete() error {
	// An explicit --print-every=0 means "last block only".
	if opts.PrintEvery == 0 {
		opts.PrintEvery = opts.Blocks
	}
	if opts.fs != nil {
		if f := opts.fs.Lookup("lfo-period"); f != nil && !f.Changed && opts.Blocks < opts.LFOPeriod {
			opts.LFOPeriod = max(opts.Blocks, 1)
		}
	}

	return nil
}

// Validate checks the Options for invalid or conflicting values.
func (opts *Options) Validate() error {
	for _, pc := range []struct {
		name  string
		value int
	}{
		{"blocks", opts.Blocks},
		{"print-every", opts.PrintEvery},
		{"lfo-period", opts.LFOPeriod},
		{"queue-size", opts.QueueSize},
	} {
		if pc.value < 1 {
			return fmt.Errorf("invalid value %d for flag %q: must be >= 1", pc.value, pc.name)
		}
	}
	for _, pc := range []struct {
		name  string
		value int
	}{
		{"external-inputs", opts.ExternalInputs},
		{"lfos", opts.LFOs},
		{"v", opts.LogVerbosity},
	} {
		if pc.value < 0 {
			return fmt.Errorf("invalid value %d for flag %q: must be >= 0", pc.value, pc.name)
		}
	}
	if opts.ScriptTimeout <= 0 {
		return fmt.Errorf("invalid value %s for flag %q: must be positive", opts.ScriptTimeout, "script-timeout")
	}
	if opts.PatchFile != "" {
		if _, err := os.Stat(opts.PatchFile); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("patch file %q does not exist", opts.PatchFile)
			}
			return fmt.Errorf("patch file %q: %w", opts.PatchFile, err)
		}
	}

	return nil
}
