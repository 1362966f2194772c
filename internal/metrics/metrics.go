// Package metrics holds the Prometheus collectors of the analyzer. A nil
// *Metrics is valid and records nothing.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "interview_analyzer"

// Fallback kinds recorded when an LLM reply is repaired instead of used as is.
const (
	FallbackExtraction   = "extraction_unparseable"
	FallbackScoreDefault = "score_default"
	FallbackScoreClamped = "score_clamped"
)

const (
	resultOK    = "ok"
	resultError = "error"
)

// Metrics bundles every collector exported by the process.
type Metrics struct {
	LLMRequests      *prometheus.CounterVec
	LLMDuration      *prometheus.HistogramVec
	Fallbacks        *prometheus.CounterVec
	PipelineRuns     *prometheus.CounterVec
	PipelineDuration prometheus.Histogram
	PairsAnalyzed    prometheus.Counter
	OverallScore     prometheus.Histogram
	EventsPublished  *prometheus.CounterVec
	HTTPRequests     *prometheus.CounterVec
	HTTPDuration     *prometheus.HistogramVec
}

// New registers all collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		LLMRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_requests_total",
			Help:      "Completion requests sent through the gateway.",
		}, []string{"provider", "json", "result"}),
		LLMDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "llm_request_duration_seconds",
			Help:      "Round trip time of completion requests.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		}, []string{"provider"}),
		Fallbacks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_output_fallbacks_total",
			Help:      "LLM replies replaced by a default or clamped value.",
		}, []string{"kind"}),
		PipelineRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analysis_runs_total",
			Help:      "Finished analysis runs by result.",
		}, []string{"result"}),
		PipelineDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_duration_seconds",
			Help:      "Wall time of one analysis run.",
			Buckets:   []float64{5, 15, 30, 60, 120, 300, 600},
		}),
		PairsAnalyzed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "qa_pairs_analyzed_total",
			Help:      "Question/answer pairs scored.",
		}),
		OverallScore: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "overall_score",
			Help:      "Distribution of overall interview scores.",
			Buckets:   prometheus.LinearBuckets(10, 10, 10),
		}),
		EventsPublished: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "report_events_published_total",
			Help:      "Report events handed to the broker.",
		}, []string{"result"}),
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "code"}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   []float64{0.01, 0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
		}, []string{"route"}),
	}
}

func (m *Metrics) ObserveLLMCall(provider string, expectJSON bool, err error, d time.Duration) {
	if m == nil {
		return
	}
	m.LLMRequests.WithLabelValues(provider, strconv.FormatBool(expectJSON), result(err)).Inc()
	m.LLMDuration.WithLabelValues(provider).Observe(d.Seconds())
}

func (m *Metrics) RecordFallback(kind string) {
	if m == nil {
		return
	}
	m.Fallbacks.WithLabelValues(kind).Inc()
}

func (m *Metrics) ObserveRun(err error, d time.Duration, pairs int, overall float64) {
	if m == nil {
		return
	}
	m.PipelineRuns.WithLabelValues(result(err)).Inc()
	m.PipelineDuration.Observe(d.Seconds())
	if err != nil {
		return
	}
	m.PairsAnalyzed.Add(float64(pairs))
	m.OverallScore.Observe(overall)
}

func (m *Metrics) RecordPublish(err error) {
	if m == nil {
		return
	}
	m.EventsPublished.WithLabelValues(result(err)).Inc()
}

func (m *Metrics) ObserveHTTP(route, method string, code int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
	m.HTTPDuration.WithLabelValues(route).Observe(d.Seconds())
}

func result(err error) string {
	if err != nil {
		return resultError
	}
	return resultOK
}
