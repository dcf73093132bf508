package observability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/IshaanNene/TopicPulse/internal/engine"
)

const namespace = "topicpulse"

// Metrics exports scrape metrics in Prometheus format. It implements
// engine.Recorder.
type Metrics struct {
	registry *prometheus.Registry

	topicsTotal     *prometheus.CounterVec
	taskDuration    *prometheus.HistogramVec
	tasksInFlight   prometheus.Gauge
	bytesDownloaded prometheus.Counter
	recordsStored   *prometheus.CounterVec

	logger *slog.Logger
}

// NewMetrics creates a Metrics instance on its own registry, so several
// instances (tests, repeated runs) never collide on registration.
func NewMetrics(logger *slog.Logger) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		topicsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "topics_total",
			Help:      "Topics processed, by outcome.",
		}, []string{"outcome"}),
		taskDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "task_duration_seconds",
			Help:      "Time spent on one topic, including browser start-up.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
		}, []string{"outcome"}),
		tasksInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tasks_in_flight",
			Help:      "Topic tasks currently running.",
		}),
		bytesDownloaded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bytes_downloaded_total",
			Help:      "Page bytes downloaded.",
		}),
		recordsStored: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_stored_total",
			Help:      "Records written, by storage backend.",
		}, []string{"backend"}),
		logger: logger.With("component", "metrics"),
	}
}

// TaskStarted implements engine.Recorder.
func (m *Metrics) TaskStarted() {
	m.tasksInFlight.Inc()
}

// TaskFinished implements engine.Recorder.
func (m *Metrics) TaskFinished(outcome engine.Outcome, duration time.Duration, bytes int) {
	m.tasksInFlight.Dec()
	m.topicsTotal.WithLabelValues(string(outcome)).Inc()
	m.taskDuration.WithLabelValues(string(outcome)).Observe(duration.Seconds())
	if bytes > 0 {
		m.bytesDownloaded.Add(float64(bytes))
	}
}

// RecordStored counts records written to a backend.
func (m *Metrics) RecordStored(backend string, n int) {
	m.recordsStored.WithLabelValues(backend).Add(float64(n))
}

// Handler returns the HTTP handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// StartServer serves metrics on port until ctx is done. It returns once
// the listener is bound, so a busy port is reported to the caller.
func (m *Metrics) StartServer(ctx context.Context, port int, path string) error {
	mux := http.NewServeMux()
	mux.Handle(path, m.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "ok")
	})

	addr := fmt.Sprintf(":%d", port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("metrics listen: %w", err)
	}

	server := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	go func() {
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.logger.Error("metrics server error", "error", err)
		}
	}()

	m.logger.Info("metrics server started", "addr", ln.Addr().String(), "path", path)
	return nil
}
