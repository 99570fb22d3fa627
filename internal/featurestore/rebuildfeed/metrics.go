package rebuildfeed

import "github.com/prometheus/client_golang/prometheus"

type metricSet struct {
	events *prometheus.CounterVec
}

func newMetricSet(r prometheus.Registerer) *metricSet {
	m := &metricSet{
		events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rebuildfeed_events_total",
				Help: "Rebuild notifications received, by outcome.",
			},
			[]string{"result"},
		),
	}
	if r != nil {
		r.MustRegister(m.events)
	}
	return m
}
