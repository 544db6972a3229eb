package runner

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"sync/atomic"
	"text/tabwriter"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/katalvlaran/paramgraph/internal/logging"
	"github.com/katalvlaran/paramgraph/metrics"
	"github.com/katalvlaran/paramgraph/modmatrix"
	"github.com/katalvlaran/paramgraph/param"
	"github.com/katalvlaran/paramgraph/patch"
	"github.com/katalvlaran/paramgraph/registry"
)

//go:embed demo.lua
var demoPatch string

// Runner wires a registry, a modulation matrix and a patch together and
// renders a fixed number of blocks.
type Runner struct {
	opts *Options
	out  io.Writer
	log  logr.Logger

	reg     *registry.Registry
	mtx     *modmatrix.Matrix
	gather  prometheus.Gatherer
	ext     *modmatrix.ValueTable
	lfo     *modmatrix.ValueTable
	changes atomic.Int64
}

// NewRunner returns a Runner writing its report to out.
func NewRunner(opts *Options, out io.Writer, log logr.Logger) *Runner {
	return &Runner{opts: opts, out: out, log: log.WithName("modgraph")}
}

// Run loads the patch and renders opts.Blocks blocks. The change dispatcher
// runs alongside the render loop until the last block has been evaluated.
func (r *Runner) Run(ctx context.Context) error {
	if err := r.setup(ctx); err != nil {
		return err
	}
	r.printOrder()

	ctx, cancel := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := r.reg.Dispatcher().Run(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		defer cancel()
		return r.render(gctx)
	})
	if err := g.Wait(); err != nil {
		r.log.Error(err, "Render stopped")
		return err
	}
	// Deliver whatever the last block queued.
	r.reg.Dispatcher().Drain()

	return r.summary()
}

func (r *Runner) setup(ctx context.Context) error {
	promReg := prometheus.NewRegistry()
	rec, err := metrics.NewRecorder(promReg)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}
	r.gather = promReg

	r.reg = registry.New(
		registry.WithLogger(r.log),
		registry.WithMetrics(rec),
		registry.WithQueueSize(r.opts.QueueSize),
	)

	resolution := modmatrix.ResolveModulated
	if r.opts.BaseOnly {
		resolution = modmatrix.ResolveBase
	}
	r.ext = modmatrix.NewValueTable(r.opts.ExternalInputs)
	r.lfo = modmatrix.NewValueTable(r.opts.LFOs)
	r.mtx, err = modmatrix.New(r.reg,
		modmatrix.WithLogger(r.log),
		modmatrix.WithMetrics(rec),
		modmatrix.WithSourceResolution(resolution),
		modmatrix.WithProvider(modmatrix.SourceExternal, r.ext),
		modmatrix.WithProvider(modmatrix.SourceLFO, r.lfo),
	)
	if err != nil {
		return err
	}

	popts := []patch.Option{patch.WithLogger(r.log), patch.WithTimeout(r.opts.ScriptTimeout)}
	var res *patch.Result
	if r.opts.PatchFile != "" {
		res, err = patch.LoadFile(ctx, r.reg, r.mtx, r.opts.PatchFile, popts...)
	} else {
		res, err = patch.Load(ctx, r.reg, r.mtx, demoPatch, append(popts, patch.WithChunkName("demo"))...)
	}
	if err != nil {
		return err
	}
	r.log.V(logging.VERBOSE).Info("Patch ready", "params", len(res.Params), "slots", len(res.Slots))

	r.reg.ForEach(func(s *param.Signal) {
		if s.Automatable() {
			s.AddObserver(param.NewFuncObserver(r.observe))
		}
	})

	return nil
}

func (r *Runner) observe(id param.ID, v float64) {
	r.changes.Add(1)
	r.log.V(logging.DEBUG).Info("Parameter changed", "id", id, "value", v)
}

// render is the audio-thread stand-in. Each block it advances the control
// sweep, mirrors external input 0 onto every automatable parameter through
// the real-time setter and evaluates the matrix.
func (r *Runner) render(ctx context.Context) error {
	var automated []*param.Signal
	r.reg.ForEach(func(s *param.Signal) {
		if s.Automatable() {
			automated = append(automated, s)
		}
	})

	for block := range r.opts.Blocks {
		if err := ctx.Err(); err != nil {
			return err
		}
		r.advance(block)
		for _, s := range automated {
			s.SetValueRT(s.Min() + r.ext.SourceValue(0)*(s.Max()-s.Min()))
		}
		if r.mtx.Stale() {
			r.mtx.Rebuild()
		}
		r.mtx.Process()

		if (block+1)%r.opts.PrintEvery == 0 || block == r.opts.Blocks-1 {
			r.printBlock(block)
		}
	}

	return nil
}

// advance sets the control tables for block. External input 0 ramps from 0
// to 1 across the run, the others wrap with a per-input offset. LFOs are
// unipolar sines.
func (r *Runner) advance(block int) {
	span := float64(max(r.opts.Blocks-1, 1))
	for i := range r.ext.Len() {
		v := float64(block)/span + float64(i)/float64(r.ext.Len())
		if v > 1 {
			v--
		}
		r.ext.Set(i, v)
	}
	period := float64(r.opts.LFOPeriod)
	for i := range r.lfo.Len() {
		phase := 2*math.Pi*float64(block)/period + float64(i)*math.Pi/2
		r.lfo.Set(i, 0.5+0.5*math.Sin(phase))
	}
}

func (r *Runner) printOrder() {
	order := r.mtx.EvaluationOrder()
	names := make([]string, 0, len(order))
	for _, id := range order {
		if s := r.reg.Param(id); s != nil {
			names = append(names, s.Name())
		}
	}
	fmt.Fprintf(r.out, "evaluation order: %s\n", strings.Join(names, " -> "))
}

func (r *Runner) printBlock(block int) {
	fmt.Fprintf(r.out, "block %d\n", block)
	w := tabwriter.NewWriter(r.out, 0, 0, 2, ' ', 0)
	r.reg.ForEach(func(s *param.Signal) {
		fmt.Fprintf(w, "  %s\t%.4f\t%+.4f\t%.4f\n", s.Name(), s.Value(), s.Modulation(), s.ModulatedValue())
	})
	_ = w.Flush()
}

func (r *Runner) summary() error {
	families, err := r.gather.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	fmt.Fprintln(r.out, "summary")
	w := tabwriter.NewWriter(r.out, 0, 0, 2, ' ', 0)
	for _, mf := range families {
		var total float64
		for _, m := range mf.GetMetric() {
			switch {
			case m.GetCounter() != nil:
				total += m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				total += m.GetGauge().GetValue()
			}
		}
		fmt.Fprintf(w, "  %s\t%g\n", mf.GetName(), total)
	}
	fmt.Fprintf(w, "  observed changes\t%d\n", r.changes.Load())

	return w.Flush()
}
