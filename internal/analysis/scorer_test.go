package analysis

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/interview-analyzer/internal/llm"
	"github.com/spigell/interview-analyzer/internal/metrics"
)

func TestScorerScore(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     Score
	}{
		{name: "in range", response: `{"score": 7, "justification": "Solid"}`, want: Score{Value: 7, Justification: "Solid"}},
		{name: "negative clamped", response: `{"score": -5, "justification": "x"}`, want: Score{Value: 0, Justification: "x"}},
		{name: "above range clamped", response: `{"score": 15, "justification": "x"}`, want: Score{Value: 10, Justification: "x"}},
		{name: "fraction truncated", response: `{"score": 8.9, "justification": "x"}`, want: Score{Value: 8, Justification: "x"}},
		{name: "numeric string", response: `{"score": "8", "justification": "x"}`, want: Score{Value: 8, Justification: "x"}},
		{name: "missing justification", response: `{"score": 6}`, want: Score{Value: 6, Justification: missingJustification}},
		{name: "surrounding prose", response: "Here is my rating:\n```json\n{\"score\": 9, \"justification\": \"Great\"}\n```", want: Score{Value: 9, Justification: "Great"}},
		{name: "missing score", response: `{"justification": "x"}`, want: DefaultScore},
		{name: "score not numeric", response: `{"score": "great", "justification": "x"}`, want: DefaultScore},
		{name: "score null", response: `{"score": null}`, want: DefaultScore},
		{name: "malformed", response: `not json at all`, want: DefaultScore},
		{name: "array instead of object", response: `[7]`, want: DefaultScore},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := &fakeGateway{score: func(string) string { return tt.response }}
			scorer := NewScorer(Deps{Gateway: gw})

			got, err := scorer.Score(context.Background(), "Q", "A", "Ideal", "JD")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %+v, got %+v", tt.want, got)
			}
			if got.Value < MinScore || got.Value > MaxScore {
				t.Fatalf("score %d out of range", got.Value)
			}
			if !gw.json[0] {
				t.Fatalf("score request must ask for json")
			}
		})
	}
}

func TestScorerRecordsFallbacks(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	core, logs := observer.New(zapcore.WarnLevel)

	responses := []string{`{"score": 15}`, `garbage`}
	for _, resp := range responses {
		gw := &fakeGateway{score: func(string) string { return resp }}
		scorer := NewScorer(Deps{Gateway: gw, Metrics: m, Logger: zap.New(core)})
		if _, err := scorer.Score(context.Background(), "Q", "A", "I", "JD"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if got := testutil.ToFloat64(m.Fallbacks.WithLabelValues(metrics.FallbackScoreClamped)); got != 1 {
		t.Fatalf("expected 1 clamped fallback, got %v", got)
	}
	if got := testutil.ToFloat64(m.Fallbacks.WithLabelValues(metrics.FallbackScoreDefault)); got != 1 {
		t.Fatalf("expected 1 default fallback, got %v", got)
	}
	if logs.Len() != 2 {
		t.Fatalf("expected 2 warnings, got %d", logs.Len())
	}
}

func TestScorerPropagatesGatewayError(t *testing.T) {
	gw := &fakeGateway{failOn: "score"}
	scorer := NewScorer(Deps{Gateway: gw})

	_, err := scorer.Score(context.Background(), "Q", "A", "I", "JD")
	if !errors.Is(err, llm.ErrCall) {
		t.Fatalf("expected llm.ErrCall, got %v", err)
	}
}

func TestBuildScorePrompt(t *testing.T) {
	jd := strings.Repeat("j", scoreJobDescriptionLimit+50)
	prompt := buildScorePrompt("What is Go?", "A language", "A compiled language", jd)

	for _, want := range []string{"Question: What is Go?", "Candidate Answer:\nA language", "Ideal Answer:\nA compiled language"} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt is missing %q", want)
		}
	}
	if strings.Contains(prompt, strings.Repeat("j", scoreJobDescriptionLimit+1)) {
		t.Fatalf("job description was not truncated")
	}
	if !strings.Contains(prompt, strings.Repeat("j", scoreJobDescriptionLimit)) {
		t.Fatalf("job description prefix missing")
	}
}
