package runner

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics exposes run counters for watch mode, where precheck stays
// resident and can be scraped.
type Metrics struct {
	registry *prometheus.Registry

	runsTotal       prometheus.Counter
	failedRunsTotal prometheus.Counter
	violationsTotal *prometheus.CounterVec
	lastRunSuccess  prometheus.Gauge
	lastRunTime     prometheus.Gauge
}

// NewMetrics creates a Metrics with its own registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		runsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "precheck_runs_total",
			Help: "Total validation runs.",
		}),
		failedRunsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "precheck_failed_runs_total",
			Help: "Validation runs that found at least one violation.",
		}),
		violationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "precheck_violations_total",
			Help: "Violations found, by check.",
		}, []string{"check"}),
		lastRunSuccess: factory.NewGauge(prometheus.GaugeOpts{
			Name: "precheck_last_run_success",
			Help: "1 if the most recent run passed, 0 otherwise.",
		}),
		lastRunTime: factory.NewGauge(prometheus.GaugeOpts{
			Name: "precheck_last_run_timestamp_seconds",
			Help: "Unix time of the most recent run.",
		}),
	}
}

// ObserveRun records one completed run.
func (m *Metrics) ObserveRun(report *Report) {
	m.runsTotal.Inc()
	if !report.Passed {
		m.failedRunsTotal.Inc()
	}

	for _, result := range report.Results {
		if n := len(result.Violations); n > 0 {
			m.violationsTotal.WithLabelValues(result.Name).Add(float64(n))
		}
	}

	if report.Passed {
		m.lastRunSuccess.Set(1)
	} else {
		m.lastRunSuccess.Set(0)
	}
	m.lastRunTime.Set(float64(time.Now().Unix()))
}

// Handler returns the scrape handler for the metrics registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve runs an HTTP server exposing /metrics until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, addr string, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	server := &http.Server{Addr: addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	logger.Info("Metrics server started", "addr", addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		return err
	}
}
