// Package metrics defines the Prometheus metrics for voicepipe.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics contains all Prometheus metrics for the voice pipeline.
type Metrics struct {
	registry *prometheus.Registry

	// Session lifecycle
	SessionsStarted prometheus.Counter
	SessionsClosed  prometheus.Counter
	ActiveSessions  prometheus.Gauge

	// Audio ingest
	AudioFramesForwarded prometheus.Counter
	TranscriptEvents     prometheus.Counter

	// Response cycles
	ResponseCycles    prometheus.Counter
	DroppedFinals     prometheus.Counter
	GenerationRecoveries prometheus.Counter

	// Synthesis
	SentencesSynthesized prometheus.Counter
	SynthesisFailures    prometheus.Counter
	SynthesisDuration    prometheus.Histogram
}

// New creates and registers all pipeline metrics on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		SessionsStarted: factory.NewCounter(prometheus.CounterOpts{
			Name: "voicepipe_sessions_started_total",
			Help: "Total number of sessions started",
		}),
		SessionsClosed: factory.NewCounter(prometheus.CounterOpts{
			Name: "voicepipe_sessions_closed_total",
			Help: "Total number of sessions closed",
		}),
		ActiveSessions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "voicepipe_active_sessions",
			Help: "Current number of active sessions",
		}),

		AudioFramesForwarded: factory.NewCounter(prometheus.CounterOpts{
			Name: "voicepipe_audio_frames_forwarded_total",
			Help: "Total number of audio frames forwarded to transcription",
		}),
		TranscriptEvents: factory.NewCounter(prometheus.CounterOpts{
			Name: "voicepipe_transcript_events_total",
			Help: "Total number of transcript events received",
		}),

		ResponseCycles: factory.NewCounter(prometheus.CounterOpts{
			Name: "voicepipe_response_cycles_total",
			Help: "Total number of response cycles started",
		}),
		DroppedFinals: factory.NewCounter(prometheus.CounterOpts{
			Name: "voicepipe_dropped_finals_total",
			Help: "Final transcripts dropped because a cycle was already active",
		}),
		GenerationRecoveries: factory.NewCounter(prometheus.CounterOpts{
			Name: "voicepipe_generation_recoveries_total",
			Help: "Generation failures recovered with the fallback message",
		}),

		SentencesSynthesized: factory.NewCounter(prometheus.CounterOpts{
			Name: "voicepipe_sentences_synthesized_total",
			Help: "Total number of sentences synthesized",
		}),
		SynthesisFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "voicepipe_synthesis_failures_total",
			Help: "Sentences whose audio was skipped due to synthesis failure",
		}),
		SynthesisDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "voicepipe_synthesis_duration_seconds",
			Help:    "Time spent in synthesis requests",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms to ~25s
		}),
	}
}

// Handler returns the HTTP handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
