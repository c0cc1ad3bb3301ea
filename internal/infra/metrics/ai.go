package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		imageGenLatencyMs,
		guideComposeLatencyMs,
		promptTokensTotal,
	)
}

var (
	imageGenLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "image_gen_latency_ms",
			Help:    "Image generation call latency distribution in milliseconds.",
			Buckets: []float64{100, 250, 500, 1000, 2000, 4000, 8000, 16000, 30000, 60000},
		},
		[]string{"provider", "success"},
	)

	guideComposeLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "guide_compose_latency_ms",
			Help:    "Guide composition (text model) latency distribution in milliseconds.",
			Buckets: []float64{100, 250, 500, 1000, 2000, 4000, 8000, 16000, 30000},
		},
		[]string{"success"},
	)

	promptTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prompt_tokens_total",
			Help: "Sum of image prompt tokens after budget trimming, per provider.",
		},
		[]string{"provider"},
	)
)

func ObserveImageGen(provider string, latencyMs int, success bool) {
	imageGenLatencyMs.WithLabelValues(norm(provider), strconv.FormatBool(success)).
		Observe(float64(latencyMs))
}

func ObserveGuideCompose(latencyMs int, success bool) {
	guideComposeLatencyMs.WithLabelValues(strconv.FormatBool(success)).
		Observe(float64(latencyMs))
}

func AddPromptTokens(provider string, n int) {
	promptTokensTotal.WithLabelValues(norm(provider)).Add(float64(n))
}
