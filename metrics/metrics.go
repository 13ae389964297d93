// Package metrics exposes the controller status as prometheus collectors and exports them to a
// node exporter textfile
package metrics

import (
	"github.com/SSSOC-CAN/trafficd/data"
	"github.com/prometheus/client_golang/prometheus"
)

// Names for our metrics
const (
	Namespace           = "trafficd"
	PhaseGauge          = "phase"
	PreemptedGauge      = "preempted"
	LastSampleGauge     = "last_sample"
	PhaseEntriesCounter = "phase_entries_total"
	SamplesCounter      = "samples_total"
	TripsCounter        = "trips_total"
	RestartsCounter     = "restarts_total"
	PhaseLabel          = "phase"
)

// Measures holds every collector updated from the status store
type Measures struct {
	Phase        prometheus.Gauge
	Preempted    prometheus.Gauge
	LastSample   prometheus.Gauge
	PhaseEntries *prometheus.CounterVec
	Samples      prometheus.Counter
	Trips        prometheus.Counter
	Restarts     prometheus.Counter
}

// NewMeasures creates the collectors and registers them with r
func NewMeasures(r prometheus.Registerer) (*Measures, error) {
	m := &Measures{
		Phase: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      PhaseGauge,
			Help:      "Phase currently driven (0 RED, 1 YELLOW_TO_GREEN, 2 GREEN, 3 YELLOW_TO_RED)",
		}),
		Preempted: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      PreemptedGauge,
			Help:      "1 while a preemption is waiting for the controller",
		}),
		LastSample: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      LastSampleGauge,
			Help:      "High-order byte of the last proximity sample",
		}),
		PhaseEntries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      PhaseEntriesCounter,
			Help:      "Number of times each phase was entered",
		}, []string{PhaseLabel}),
		Samples: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      SamplesCounter,
			Help:      "Proximity samples read",
		}),
		Trips: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      TripsCounter,
			Help:      "Samples above the threshold which ran the emergency sequence",
		}),
		Restarts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      RestartsCounter,
			Help:      "Cycle restarts at RED caused by a preemption",
		}),
	}
	for _, c := range []prometheus.Collector{m.Phase, m.Preempted, m.LastSample, m.PhaseEntries, m.Samples, m.Trips, m.Restarts} {
		if err := r.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Observe updates the collectors from the event which produced s
func (m *Measures) Observe(s data.Status) {
	m.Phase.Set(float64(s.Phase))
	if s.Preempted {
		m.Preempted.Set(1)
	} else {
		m.Preempted.Set(0)
	}
	switch s.LastEvent.Kind {
	case data.PhaseEntered:
		m.PhaseEntries.WithLabelValues(s.LastEvent.Phase.String()).Inc()
	case data.SensorSampled:
		m.Samples.Inc()
		m.LastSample.Set(float64(s.LastSample[0]))
	case data.PreemptTripped:
		m.Trips.Inc()
		m.LastSample.Set(float64(s.LastSample[0]))
	case data.CycleRestarted:
		m.Restarts.Inc()
	}
}
