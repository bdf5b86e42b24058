// Package metrics exposes pipeline, provider and chat counters in the
// Prometheus text format.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/joseph-ayodele/inventory-scanner/constants"
)

const namespace = "inventory_scanner"

// Metrics owns a private registry so tests and multiple instances never
// collide on the global one.
type Metrics struct {
	registry *prometheus.Registry

	pipelineRuns     *prometheus.CounterVec
	pipelineDuration *prometheus.HistogramVec
	providerAttempts *prometheus.CounterVec
	providerDuration *prometheus.HistogramVec
	chatQuestions    *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		pipelineRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_runs_total",
			Help:      "Finished extraction runs by document type, terminal state and source.",
		}, []string{"doc_type", "state", "source"}),
		pipelineDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_duration_seconds",
			Help:      "Wall time of extraction runs.",
			Buckets:   []float64{0.01, 0.05, 0.25, 1, 2.5, 5, 10, 30, 60},
		}, []string{"doc_type"}),
		providerAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_attempts_total",
			Help:      "Remote provider calls by provider, operation and outcome.",
		}, []string{"provider", "op", "outcome"}),
		providerDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_duration_seconds",
			Help:      "Latency of remote provider calls.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"provider", "op"}),
		chatQuestions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_questions_total",
			Help:      "Answered questions by route and outcome.",
		}, []string{"route", "outcome"}),
	}
	m.registry.MustRegister(
		m.pipelineRuns,
		m.pipelineDuration,
		m.providerAttempts,
		m.providerDuration,
		m.chatQuestions,
		collectors.NewGoCollector(),
	)
	return m
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// ObservePipelineRun implements core.Recorder.
func (m *Metrics) ObservePipelineRun(docType constants.DocumentType, state constants.PipelineState, source constants.AnalysisSource, elapsed time.Duration) {
	m.pipelineRuns.WithLabelValues(string(docType), string(state), string(source)).Inc()
	m.pipelineDuration.WithLabelValues(string(docType)).Observe(elapsed.Seconds())
}

// ObserveProviderAttempt implements llm.Observer.
func (m *Metrics) ObserveProviderAttempt(provider, op string, elapsed time.Duration, err error) {
	m.providerAttempts.WithLabelValues(provider, op, outcome(err)).Inc()
	m.providerDuration.WithLabelValues(provider, op).Observe(elapsed.Seconds())
}

// ObserveChat implements core.ChatRecorder.
func (m *Metrics) ObserveChat(route string, _ time.Duration, err error) {
	m.chatQuestions.WithLabelValues(route, outcome(err)).Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done.
func (m *Metrics) Serve(ctx context.Context, addr string, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info("metrics.listen", "addr", addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("metrics.serve.failed", "error", err)
		return err
	}
	return nil
}
