package metrics

import (
	"github.com/livepeer/catalyst-api/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ClientMetrics is reused unchanged per outbound HTTP dependency (LLM,
// image, TTS, object store) so MonitorRequest has the same shape to
// report into regardless of which provider it's wrapping.
type ClientMetrics struct {
	RetryCount      *prometheus.GaugeVec
	FailureCount    *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// VideoGenMetrics is the process-wide metrics registry for the job
// orchestrator: HTTP surface, per-stage pipeline timings, provider
// clients and the retry/fallback counters the providers and retrykernel
// packages report into.
type VideoGenMetrics struct {
	Version *prometheus.CounterVec

	HTTPRequestsInFlight prometheus.Gauge
	JobsInFlight         prometheus.Gauge

	// StageDurationSec buckets how long each pipeline stage takes,
	// labeled by stage name (script, storyboard, assets, render).
	StageDurationSec *prometheus.HistogramVec
	StageFailureCount *prometheus.CounterVec

	// ImageConcurrencyInUse tracks the bounded-parallel image generation
	// pool's current occupancy against its configured ceiling.
	ImageConcurrencyInUse prometheus.Gauge
	ImagePlaceholderFallbackCount prometheus.Counter

	RetryAttemptCount *prometheus.CounterVec

	ScriptLLMClient     ClientMetrics
	ImageProviderClient ClientMetrics
	TTSClient           ClientMetrics
	ObjectStoreClient   ClientMetrics
}

var stageLabels = []string{"stage"}

func NewMetrics() *VideoGenMetrics {
	m := &VideoGenMetrics{
		Version: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "version",
			Help: "Current Git SHA / Tag that's running. Incremented once on app startup.",
		}, []string{"app", "version"}),

		HTTPRequestsInFlight: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "A count of the http requests in flight",
		}),
		JobsInFlight: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "jobs_in_flight",
			Help: "A count of video jobs currently running a pipeline stage",
		}),

		StageDurationSec: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pipeline_stage_duration_seconds",
			Help:    "Time taken to complete a pipeline stage (script, storyboard, assets, render)",
			Buckets: []float64{.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600},
		}, stageLabels),
		StageFailureCount: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "pipeline_stage_failure_count",
			Help: "Number of pipeline stage runs that ended in a failed status",
		}, stageLabels),

		ImageConcurrencyInUse: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "image_generation_concurrency_in_use",
			Help: "Number of scene image generations currently in flight",
		}),
		ImagePlaceholderFallbackCount: promauto.NewCounter(prometheus.CounterOpts{
			Name: "image_placeholder_fallback_count",
			Help: "Number of scenes that fell back to the placeholder image after exhausting retries",
		}),

		RetryAttemptCount: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "provider_retry_attempt_count",
			Help: "Number of retried provider calls, labeled by provider",
		}, []string{"provider"}),

		ScriptLLMClient: ClientMetrics{
			RetryCount: promauto.NewGaugeVec(prometheus.GaugeOpts{
				Name: "script_llm_client_retry_count",
				Help: "The number of retried script LLM requests",
			}, []string{"host"}),
			FailureCount: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "script_llm_client_failure_count",
				Help: "The total number of failed script LLM requests",
			}, []string{"host", "status_code"}),
			RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
				Name:    "script_llm_client_request_duration",
				Help:    "Time taken to send script LLM requests",
				Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30},
			}, []string{"host"}),
		},

		ImageProviderClient: ClientMetrics{
			RetryCount: promauto.NewGaugeVec(prometheus.GaugeOpts{
				Name: "image_provider_client_retry_count",
				Help: "The number of retried image provider requests",
			}, []string{"host"}),
			FailureCount: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "image_provider_client_failure_count",
				Help: "The total number of failed image provider requests",
			}, []string{"host", "status_code"}),
			RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
				Name:    "image_provider_client_request_duration",
				Help:    "Time taken to send image provider requests",
				Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30},
			}, []string{"host"}),
		},

		TTSClient: ClientMetrics{
			RetryCount: promauto.NewGaugeVec(prometheus.GaugeOpts{
				Name: "tts_client_retry_count",
				Help: "The number of retried TTS requests",
			}, []string{"host"}),
			FailureCount: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "tts_client_failure_count",
				Help: "The total number of failed TTS requests",
			}, []string{"host", "status_code"}),
			RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
				Name:    "tts_client_request_duration",
				Help:    "Time taken to send TTS requests",
				Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30},
			}, []string{"host"}),
		},

		ObjectStoreClient: ClientMetrics{
			RetryCount: promauto.NewGaugeVec(prometheus.GaugeOpts{
				Name: "object_store_retry_count",
				Help: "The number of retried object store requests",
			}, []string{"host", "operation", "bucket"}),
			FailureCount: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "object_store_failure_count",
				Help: "The total number of failed object store requests",
			}, []string{"host", "operation", "bucket"}),
			RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
				Name:    "object_store_request_duration",
				Help:    "Time taken to send object store requests",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			}, []string{"host", "operation", "bucket"}),
		},
	}

	m.Version.WithLabelValues("video-job-orchestrator", config.Version).Inc()

	return m
}

// Metrics is the process-wide registry, fired up once at import time so
// every package can report into it without threading a reference through
// every constructor.
var Metrics = NewMetrics()

// ObserveStage records a completed pipeline stage's duration and, on
// failure, increments its failure counter.
func ObserveStage(stage string, seconds float64, failed bool) {
	Metrics.StageDurationSec.WithLabelValues(stage).Observe(seconds)
	if failed {
		Metrics.StageFailureCount.WithLabelValues(stage).Inc()
	}
}
