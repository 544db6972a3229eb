// Package metrics exposes Prometheus collectors for the parameter registry
// and the modulation matrix.
//
// A Recorder owns its collectors and registers them on the Registerer it is
// given, so several engines can coexist in one process as long as each uses
// its own registry (or a prometheus.WrapRegistererWith prefix). Every method is
// safe on a nil *Recorder, which is how instrumentation is switched off.
//
// Only plain (non-vector) counters are touched from Process, keeping the audio
// path to atomic adds.
package metrics

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "paramgraph"

// ErrNilRegisterer is returned by NewRecorder when reg is nil.
var ErrNilRegisterer = errors.New("metrics: registerer is nil")

// Recorder groups the collectors of one registry/matrix pair.
type Recorder struct {
	params          prometheus.Gauge
	slots           prometheus.Gauge
	rejectedEdges   prometheus.Counter
	planRebuilds    prometheus.Counter
	blocks          prometheus.Counter
	droppedChanges  prometheus.Counter
	rejectedConnect *prometheus.CounterVec
}

// NewRecorder creates the collectors and registers them on reg.
func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	if reg == nil {
		return nil, ErrNilRegisterer
	}

	r := &Recorder{
		params: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "registry",
			Name:      "parameters",
			Help:      "Number of live parameters in the registry.",
		}),
		slots: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "matrix",
			Name:      "slots",
			Help:      "Number of modulation slots in the matrix.",
		}),
		rejectedEdges: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "registry",
			Name:      "rejected_dependencies_total",
			Help:      "Count of dependency edges refused because they would close a cycle.",
		}),
		planRebuilds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "matrix",
			Name:      "plan_rebuilds_total",
			Help:      "Count of render plan rebuilds triggered by routing changes.",
		}),
		blocks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "matrix",
			Name:      "processed_blocks_total",
			Help:      "Count of audio blocks for which modulation was evaluated.",
		}),
		droppedChanges: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "registry",
			Name:      "dropped_notifications_total",
			Help:      "Count of real-time value changes dropped because the notification queue was full.",
		}),
		rejectedConnect: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "matrix",
			Name:      "rejected_connections_total",
			Help:      "Count of Connect calls refused, by reason.",
		}, []string{"reason"}),
	}

	for _, c := range []prometheus.Collector{
		r.params, r.slots, r.rejectedEdges, r.planRebuilds,
		r.blocks, r.droppedChanges, r.rejectedConnect,
	} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("metrics: register collector: %w", err)
		}
	}

	return r, nil
}

// SetParameters records the current number of live parameters.
func (r *Recorder) SetParameters(n int) {
	if r == nil {
		return
	}
	r.params.Set(float64(n))
}

// SetSlots records the current number of modulation slots.
func (r *Recorder) SetSlots(n int) {
	if r == nil {
		return
	}
	r.slots.Set(float64(n))
}

// RecordRejectedDependency counts a dependency edge refused for closing a cycle.
func (r *Recorder) RecordRejectedDependency() {
	if r == nil {
		return
	}
	r.rejectedEdges.Inc()
}

// RecordPlanRebuild counts a render plan rebuild.
func (r *Recorder) RecordPlanRebuild() {
	if r == nil {
		return
	}
	r.planRebuilds.Inc()
}

// RecordBlock counts one processed audio block. Real-time safe.
func (r *Recorder) RecordBlock() {
	if r == nil {
		return
	}
	r.blocks.Inc()
}

// RecordDroppedChange counts a value change the notification queue could not
// accept. Real-time safe.
func (r *Recorder) RecordDroppedChange() {
	if r == nil {
		return
	}
	r.droppedChanges.Inc()
}

// RecordRejectedConnect counts a refused Connect call under the given reason.
func (r *Recorder) RecordRejectedConnect(reason string) {
	if r == nil {
		return
	}
	r.rejectedConnect.WithLabelValues(reason).Inc()
}
