// Package prompush is a Prometheus Pushgateway backend for the metrics
// package. A deduplication run is a short-lived batch job, so metrics are
// collected in a private registry and pushed once at exit instead of being
// scraped.
package prompush

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"csvdedupe/internal/metrics"
)

// Backend is a Prometheus Pushgateway metrics backend.
type Backend struct {
	gatewayURL string
	jobName    string
	grouping   map[string]string
	reg        *prometheus.Registry

	stageCounter  *prometheus.CounterVec
	stageDuration *prometheus.SummaryVec
	rowCounter    *prometheus.CounterVec
	byteCounter   *prometheus.CounterVec
	chunkCounter  prometheus.Counter
}

// NewBackend builds a backend that pushes to gatewayURL under jobName.
func NewBackend(jobName, gatewayURL string) (*Backend, error) {
	if gatewayURL == "" {
		return nil, fmt.Errorf("prompush: gateway URL is required")
	}
	if jobName == "" {
		jobName = "csvdedupe"
	}

	b := &Backend{
		gatewayURL: gatewayURL,
		jobName:    jobName,
		grouping:   map[string]string{},
		reg:        prometheus.NewRegistry(),
		stageCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metrics.StageTotal,
			Help: "Pipeline stage executions by stage and status.",
		}, []string{"step", "status"}),
		stageDuration: prometheus.NewSummaryVec(prometheus.SummaryOpts{
			Name:       metrics.StageDuration,
			Help:       "Pipeline stage duration in seconds by stage and status.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		}, []string{"step", "status"}),
		rowCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metrics.RowsTotal,
			Help: "Rows by kind (read, retained, dropped, exported).",
		}, []string{"kind"}),
		byteCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metrics.BytesTotal,
			Help: "Bytes read from the input and written to the output.",
		}, []string{"direction"}),
		chunkCounter: prometheus.NewCounter(prometheus.CounterOpts{
			Name: metrics.ChunksTotal,
			Help: "Chunks deduplicated.",
		}),
	}

	for _, c := range []prometheus.Collector{b.stageCounter, b.stageDuration, b.rowCounter, b.byteCounter, b.chunkCounter} {
		if err := b.reg.Register(c); err != nil {
			return nil, fmt.Errorf("prompush: register collector: %w", err)
		}
	}
	return b, nil
}

// Grouping adds a Pushgateway grouping label, e.g. the run ID as "instance".
func (b *Backend) Grouping(name, value string) *Backend {
	b.grouping[name] = value
	return b
}

// IncCounter routes known metric names to their collectors; unknown names
// are ignored.
func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	switch name {
	case metrics.StageTotal:
		if b.stageCounter != nil {
			b.stageCounter.WithLabelValues(labels["step"], labels["status"]).Add(delta)
		}
	case metrics.RowsTotal:
		if b.rowCounter != nil {
			b.rowCounter.WithLabelValues(labels["kind"]).Add(delta)
		}
	case metrics.BytesTotal:
		if b.byteCounter != nil {
			b.byteCounter.WithLabelValues(labels["direction"]).Add(delta)
		}
	case metrics.ChunksTotal:
		if b.chunkCounter != nil {
			b.chunkCounter.Add(delta)
		}
	}
}

// ObserveHistogram records stage durations; other names are ignored.
func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if name != metrics.StageDuration || b.stageDuration == nil {
		return
	}
	b.stageDuration.WithLabelValues(labels["step"], labels["status"]).Observe(value)
}

// Flush pushes the registry to the Pushgateway, replacing the group.
func (b *Backend) Flush() error {
	p := push.New(b.gatewayURL, b.jobName).Gatherer(b.reg)
	for k, v := range b.grouping {
		p = p.Grouping(k, v)
	}
	return p.Push()
}
