package param_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/paramgraph/param"
)

// TestSetValueRT_QueuesInsteadOfNotifying verifies observers do not run on the
// writer's goroutine and are delivered by Drain.
func TestSetValueRT_QueuesInsteadOfNotifying(t *testing.T) {
	d := param.NewDispatcher(8)
	s := param.NewSignal(4, unitSpec(0), param.WithDispatcher(d))
	r := &recorder{}
	s.AddObserver(r)

	s.SetValueRT(0.25)
	s.SetValueRT(0.25) // unchanged, not queued
	s.SetValueRT(0.75)

	assert.Equal(t, 0.75, s.Value())
	assert.Empty(t, r.values)
	assert.Equal(t, 2, d.Pending())

	assert.Equal(t, 2, d.Drain())
	assert.Equal(t, []float64{0.25, 0.75}, r.values)
	assert.Equal(t, 0, d.Drain())
}

// TestSetValueRT_NoDispatcher stores the value and drops the notification.
func TestSetValueRT_NoDispatcher(t *testing.T) {
	s := param.NewSignal(1, unitSpec(0))
	r := &recorder{}
	s.AddObserver(r)
	s.SetValueRT(0.4)
	assert.Equal(t, 0.4, s.Value())
	assert.Empty(t, r.values)
}

// TestDispatcher_DropsWhenFull checks the bounded queue and the drop hook.
func TestDispatcher_DropsWhenFull(t *testing.T) {
	hooked := 0
	d := param.NewDispatcher(2, param.WithDropHook(func() { hooked++ }))
	s := param.NewSignal(1, unitSpec(0), param.WithDispatcher(d))

	s.SetValueRT(0.1)
	s.SetValueRT(0.2)
	s.SetValueRT(0.3) // dropped

	assert.Equal(t, uint64(1), d.Dropped())
	assert.Equal(t, 1, hooked)
	assert.Equal(t, 0.3, s.Value(), "value is stored even when the notification is dropped")
}

// TestDispatcher_DefaultSize covers the capacity fallback.
func TestDispatcher_DefaultSize(t *testing.T) {
	d := param.NewDispatcher(0)
	s := param.NewSignal(1, param.Spec{Min: 0, Max: 1e6}, param.WithDispatcher(d))
	for i := 1; i <= param.DefaultQueueSize; i++ {
		s.SetValueRT(float64(i))
	}
	assert.Equal(t, param.DefaultQueueSize, d.Pending())
	assert.Zero(t, d.Dropped())
}

// TestDispatcher_Run delivers changes posted from another goroutine and stops
// on cancellation.
func TestDispatcher_Run(t *testing.T) {
	d := param.NewDispatcher(16)
	s := param.NewSignal(9, unitSpec(0), param.WithDispatcher(d))

	var mu sync.Mutex
	got := make([]float64, 0, 1)
	done := make(chan struct{})
	s.AddObserver(param.NewFuncObserver(func(id param.ID, v float64) {
		mu.Lock()
		got = append(got, v)
		mu.Unlock()
		close(done)
	}))

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- d.Run(ctx) }()

	go s.SetValueRT(0.5)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("change was not delivered")
	}
	cancel()
	require.True(t, errors.Is(<-errc, context.Canceled))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []float64{0.5}, got)
}
