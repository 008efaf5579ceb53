// Package timing owns the BUILD/GENERATE phase timers spec §6 requires
// every Build to expose through GetTimings, and optionally mirrors them
// onto Prometheus histograms when a host process wants to scrape a
// long-running bundler instance rather than read the one-shot map.
package timing

import (
	"github.com/bundleforge/bundleforge/internal/helpers"
	"github.com/prometheus/client_golang/prometheus"
)

var phaseDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "bundleforge",
	Name:      "phase_duration_milliseconds",
	Help:      "Duration of a Build or Generate Coordinator phase.",
	Buckets:   prometheus.ExponentialBuckets(1, 2, 16),
}, []string{"phase"})

func init() {
	prometheus.MustRegister(phaseDuration)
}

// Recorder wraps a helpers.Timer and, when enabled, also reports every
// completed span to the package's Prometheus vector. A Recorder built
// with perf=false behaves exactly like a nil *helpers.Timer: every
// call is free.
type Recorder struct {
	timer    *helpers.Timer
	exported bool
}

// New constructs a Recorder. perf mirrors InputOptions.Perf (spec §3);
// exportMetrics additionally pushes every span onto the Prometheus
// histogram registered above, for a process embedding this module as a
// long-running service rather than a one-shot CLI invocation.
func New(perf bool, exportMetrics bool) *Recorder {
	if !perf {
		return &Recorder{}
	}
	return &Recorder{timer: &helpers.Timer{}, exported: exportMetrics}
}

func (r *Recorder) Begin(name string) {
	if r == nil {
		return
	}
	r.timer.Begin(name)
}

func (r *Recorder) End(name string) {
	if r == nil {
		return
	}
	r.timer.End(name)
}

func (r *Recorder) Fork() *Recorder {
	if r == nil || r.timer == nil {
		return &Recorder{}
	}
	return &Recorder{timer: r.timer.Fork(), exported: r.exported}
}

func (r *Recorder) Join(other *Recorder) {
	if r == nil || other == nil {
		return
	}
	r.timer.Join(other.timer)
}

// Milliseconds returns the label -> duration map Build.GetTimings
// exposes (spec §6), and, when the Recorder was built with
// exportMetrics, records each span on the Prometheus histogram.
func (r *Recorder) Milliseconds() map[string]float64 {
	if r == nil || r.timer == nil {
		return nil
	}
	result := r.timer.Milliseconds()
	if r.exported {
		for phase, ms := range result {
			phaseDuration.WithLabelValues(phase).Observe(ms)
		}
	}
	return result
}
