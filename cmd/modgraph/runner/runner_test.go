package runner

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-logr/logr/testr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/paramgraph/patch"
)

func runWith(t *testing.T, mutate func(*Options)) (string, *Runner, error) {
	t.Helper()
	opts := NewOptions()
	mutate(opts)
	require.NoError(t, opts.Complete())
	require.NoError(t, opts.Validate())

	var out bytes.Buffer
	r := NewRunner(opts, &out, testr.New(t))
	err := r.Run(context.Background())

	return out.String(), r, err
}

func TestRun_DemoPatch(t *testing.T) {
	out, r, err := runWith(t, func(o *Options) { o.Blocks = 8; o.PrintEvery = 4 })
	require.NoError(t, err)

	// Resonance depends on Cutoff, which depends on ModWheel.
	order := strings.SplitN(out, "\n", 2)[0]
	require.True(t, strings.HasPrefix(order, "evaluation order: "), order)
	cut := strings.Index(order, "Cutoff")
	res := strings.Index(order, "Resonance")
	assert.True(t, cut >= 0 && res > cut, order)

	assert.Contains(t, out, "block 3\n")
	assert.Contains(t, out, "block 7\n")
	assert.NotContains(t, out, "block 5\n")
	assert.Regexp(t, `paramgraph_matrix_processed_blocks_total\s+8\n`, out)
	assert.Regexp(t, `paramgraph_registry_parameters\s+5\n`, out)
	assert.Regexp(t, `observed changes\s+7\n`, out)

	// Input 0 ends at 1, so the wheel is fully up and the cutoff fully opened.
	id, ok := r.reg.Lookup("Cutoff")
	require.True(t, ok)
	assert.InDelta(t, 8000, r.reg.Param(id).Modulation(), 1e-6)

	// Every block but the first moves the automated wheel.
	assert.Equal(t, int64(7), r.changes.Load())
}

func TestRun_BaseOnlyIgnoresUpstreamModulation(t *testing.T) {
	_, r, err := runWith(t, func(o *Options) { o.Blocks = 4; o.BaseOnly = true })
	require.NoError(t, err)

	cutoff, _ := r.reg.Lookup("Cutoff")
	resonance, _ := r.reg.Lookup("Resonance")
	// Resonance sees Cutoff's base value 2000 on [20, 20000].
	want := 0.3 * (2000.0 - 20) / (20000 - 20)
	assert.InDelta(t, want, r.reg.Param(resonance).Modulation(), 1e-9)
	assert.NotZero(t, r.reg.Param(cutoff).Modulation())
}

func TestRun_PatchFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "one.lua")
	src := `
local a = param{ name = "Depth" }
connect{ ext = 0, target = a, amount = 0.5 }
`
	require.NoError(t, os.WriteFile(path, []byte(src), 0o600))

	out, _, err := runWith(t, func(o *Options) { o.PatchFile = path; o.Blocks = 2; o.PrintEvery = 0 })
	require.NoError(t, err)
	assert.Contains(t, out, "evaluation order: Depth\n")
	assert.Contains(t, out, "block 1\n")
	assert.NotContains(t, out, "block 0\n")
}

func TestRun_BrokenPatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.lua")
	require.NoError(t, os.WriteFile(path, []byte(`connect{ lfo = 0 }`), 0o600))

	out, _, err := runWith(t, func(o *Options) { o.PatchFile = path })
	require.ErrorIs(t, err, patch.ErrScript)
	assert.Empty(t, out)
}

func TestRun_CancelledContext(t *testing.T) {
	opts := NewOptions()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	err := NewRunner(opts, &out, testr.New(t)).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
