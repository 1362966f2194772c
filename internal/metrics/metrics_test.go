package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveLLMCall(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveLLMCall("openai", true, nil, time.Second)
	m.ObserveLLMCall("openai", true, errors.New("boom"), time.Second)
	m.ObserveLLMCall("openai", false, nil, time.Second)

	if got := testutil.ToFloat64(m.LLMRequests.WithLabelValues("openai", "true", resultOK)); got != 1 {
		t.Fatalf("expected 1 ok json call, got %v", got)
	}
	if got := testutil.ToFloat64(m.LLMRequests.WithLabelValues("openai", "true", resultError)); got != 1 {
		t.Fatalf("expected 1 failed json call, got %v", got)
	}
	if got := testutil.ToFloat64(m.LLMRequests.WithLabelValues("openai", "false", resultOK)); got != 1 {
		t.Fatalf("expected 1 prose call, got %v", got)
	}
}

func TestObserveRunSkipsScoresOnError(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveRun(nil, time.Second, 3, 80)
	m.ObserveRun(errors.New("upstream"), time.Second, 2, 0)

	if got := testutil.ToFloat64(m.PairsAnalyzed); got != 3 {
		t.Fatalf("expected 3 pairs, got %v", got)
	}
	if got := testutil.ToFloat64(m.PipelineRuns.WithLabelValues(resultError)); got != 1 {
		t.Fatalf("expected 1 failed run, got %v", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveLLMCall("gemini", false, nil, time.Millisecond)
	m.RecordFallback(FallbackScoreDefault)
	m.ObserveRun(nil, time.Millisecond, 1, 50)
	m.RecordPublish(nil)
	m.ObserveHTTP("/api/health", "GET", 200, time.Millisecond)
}

func TestObserveHTTP(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.ObserveHTTP("/api/analyze", "POST", 502, time.Second)

	if got := testutil.ToFloat64(m.HTTPRequests.WithLabelValues("/api/analyze", "POST", "502")); got != 1 {
		t.Fatalf("expected 1 request, got %v", got)
	}
}

func TestRecordFallback(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.RecordFallback(FallbackScoreClamped)
	m.RecordFallback(FallbackScoreClamped)

	if got := testutil.ToFloat64(m.Fallbacks.WithLabelValues(FallbackScoreClamped)); got != 2 {
		t.Fatalf("expected 2 clamp fallbacks, got %v", got)
	}
}
