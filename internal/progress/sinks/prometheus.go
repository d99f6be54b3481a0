package sinks

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/geoharvest/stac-harvester/internal/progress"
)

// PrometheusSink exports harvest progress metrics. It owns the collectors
// for runs and per-endpoint completions.
type PrometheusSink struct {
	runsStarted        prometheus.Counter
	endpointsCompleted *prometheus.CounterVec
	endpointDuration   *prometheus.HistogramVec
	endpointRecords    prometheus.Counter
}

// NewPrometheusSink registers the collectors against the provided registry.
func NewPrometheusSink(reg prometheus.Registerer) (*PrometheusSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PrometheusSink{
		runsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "harvester_runs_started_total",
			Help: "Total harvest runs that have started.",
		}),
		endpointsCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "harvester_endpoints_completed_total",
			Help: "Endpoint harvests completed partitioned by result.",
		}, []string{"result"}),
		endpointDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "harvester_endpoint_duration_seconds",
			Help:    "Wall time per completed endpoint harvest.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}, []string{"result"}),
		endpointRecords: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "harvester_endpoint_records_total",
			Help: "Collection records reported by endpoint completions.",
		}),
	}
	for _, collector := range []prometheus.Collector{
		s.runsStarted,
		s.endpointsCompleted,
		s.endpointDuration,
		s.endpointRecords,
	} {
		if err := reg.Register(collector); err != nil {
			return nil, fmt.Errorf("register progress collector: %w", err)
		}
	}
	return s, nil
}

// Consume updates the collectors using the provided batch.
func (s *PrometheusSink) Consume(_ context.Context, batch []progress.Event) error {
	for _, evt := range batch {
		s.consumeEvent(evt)
	}
	return nil
}

func (s *PrometheusSink) consumeEvent(evt progress.Event) {
	switch evt.Stage {
	case progress.StageRunStart:
		s.runsStarted.Inc()
	case progress.StageEndpointDone:
		s.observe(evt, "success")
		if evt.Records > 0 {
			s.endpointRecords.Add(float64(evt.Records))
		}
	case progress.StageEndpointSkip:
		s.observe(evt, "skipped")
	case progress.StageEndpointError:
		s.observe(evt, "error")
	}
}

func (s *PrometheusSink) observe(evt progress.Event, label string) {
	s.endpointsCompleted.WithLabelValues(label).Inc()
	if evt.Dur > 0 {
		s.endpointDuration.WithLabelValues(label).Observe(evt.Dur.Seconds())
	}
}

// Close implements the Sink interface; it performs no action.
func (s *PrometheusSink) Close(context.Context) error {
	return nil
}
