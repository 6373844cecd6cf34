package provider

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusMetrics wraps a ProviderMetrics and mirrors every recorded
// outcome into Prometheus collectors, so the same numbers drive both
// fallback routing and the /metrics endpoint.
type PrometheusMetrics struct {
	inner ProviderMetrics

	requests     *prometheus.CounterVec
	latency      *prometheus.HistogramVec
	audioSeconds *prometheus.CounterVec
}

// NewPrometheusMetrics registers transcription collectors on reg and
// returns a metrics sink delegating to inner. Passing
// prometheus.DefaultRegisterer wires the process-wide registry.
func NewPrometheusMetrics(reg prometheus.Registerer, inner ProviderMetrics) *PrometheusMetrics {
	factory := promauto.With(reg)
	return &PrometheusMetrics{
		inner: inner,
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "m3p",
			Subsystem: "transcription",
			Name:      "requests_total",
			Help:      "Transcription requests by provider and outcome.",
		}, []string{"provider", "status"}),
		latency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "m3p",
			Subsystem: "transcription",
			Name:      "latency_seconds",
			Help:      "Transcription latency by provider.",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 12),
		}, []string{"provider"}),
		audioSeconds: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "m3p",
			Subsystem: "transcription",
			Name:      "audio_seconds_total",
			Help:      "Seconds of audio successfully transcribed by provider.",
		}, []string{"provider"}),
	}
}

func (p *PrometheusMetrics) RecordSuccess(provider string, latencyMs int64, audioSeconds float64) {
	p.requests.WithLabelValues(provider, "success").Inc()
	p.latency.WithLabelValues(provider).Observe(float64(latencyMs) / 1000)
	if audioSeconds > 0 {
		p.audioSeconds.WithLabelValues(provider).Add(audioSeconds)
	}
	p.inner.RecordSuccess(provider, latencyMs, audioSeconds)
}

func (p *PrometheusMetrics) RecordFailure(provider string, errorCode string) {
	p.requests.WithLabelValues(provider, "failure").Inc()
	p.inner.RecordFailure(provider, errorCode)
}

func (p *PrometheusMetrics) GetProviderMetrics(provider string) ProviderStats {
	return p.inner.GetProviderMetrics(provider)
}

func (p *PrometheusMetrics) GetOverallMetrics() OverallStats {
	return p.inner.GetOverallMetrics()
}

func (p *PrometheusMetrics) IsProviderHealthy(provider string) bool {
	return p.inner.IsProviderHealthy(provider)
}
