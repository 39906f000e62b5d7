package main

import (
	"fmt"
	"io"
	"log"
	"path/filepath"

	"csvdedupe/internal/config"
	"csvdedupe/internal/metrics"
	"csvdedupe/internal/metrics/datadog"
	"csvdedupe/internal/metrics/prompush"
)

// setupMetrics installs the configured backend and returns the function that
// flushes it at exit. A backend that cannot be created leaves metrics
// disabled; the run itself continues.
func setupMetrics(m config.Metrics, input string, stderr io.Writer) (flush func()) {
	flush = func() {
		if err := metrics.Flush(); err != nil {
			fmt.Fprintf(stderr, "warning: metrics flush: %v\n", err)
		}
	}
	switch m.Backend {
	case "pushgateway":
		b, err := prompush.NewBackend("csvdedupe", m.PushgatewayURL)
		if err != nil {
			fmt.Fprintf(stderr, "warning: metrics: %v; using nop\n", err)
			return func() {}
		}
		b.Grouping("instance", filepath.Base(input))
		metrics.SetBackend(b)
		log.Printf("metrics: backend=pushgateway url=%s", m.PushgatewayURL)

	case "datadog":
		b, err := datadog.NewBackend(datadog.Config{Addr: m.DatadogAddr, Namespace: m.Namespace, Tags: m.Tags})
		if err != nil {
			fmt.Fprintf(stderr, "warning: metrics: %v; using nop\n", err)
			return func() {}
		}
		metrics.SetBackend(b)
		log.Printf("metrics: backend=datadog addr=%s", m.DatadogAddr)

	default:
		log.Printf("metrics: disabled (backend=%q)", m.Backend)
		return func() {}
	}
	return flush
}
