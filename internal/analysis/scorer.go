package analysis

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/interview-analyzer/internal/metrics"
	"github.com/spigell/interview-analyzer/internal/utils"
)

const (
	MinScore = 0
	MaxScore = 10

	scoreJobDescriptionLimit = 1000
	defaultScoreValue        = 5
	defaultJustification     = "Error parsing score - default score assigned"
	missingJustification     = "No justification provided"
)

// DefaultScore is assigned when the scoring reply cannot be used.
var DefaultScore = Score{Value: defaultScoreValue, Justification: defaultJustification}

// Scorer rates a candidate answer against the ideal answer.
type Scorer struct {
	deps Deps
}

func NewScorer(deps Deps) *Scorer {
	return &Scorer{deps: deps.normalized()}
}

// Score returns a value in [MinScore, MaxScore]. Malformed replies give
// DefaultScore; out of range values are clamped. Only gateway failures are returned.
func (s *Scorer) Score(ctx context.Context, question, candidateAnswer, idealAnswer, jobDescription string) (Score, error) {
	prompt := buildScorePrompt(question, candidateAnswer, idealAnswer, jobDescription)

	raw, err := s.deps.Gateway.Complete(ctx, prompt, true)
	if err != nil {
		return Score{}, err
	}

	parsed, err := parseOr(raw, objectSpan, rawScore{}, toRawScore)
	if err != nil {
		s.deps.Metrics.RecordFallback(metrics.FallbackScoreDefault)
		s.deps.Logger.Warn("unparseable score response, default score assigned",
			zap.Error(err),
			zap.String("response_preview", utils.TruncateForLog(raw, s.deps.MaxLogLength)),
		)
		return DefaultScore, nil
	}

	score, clamped := parsed.clamp()
	if clamped {
		s.deps.Metrics.RecordFallback(metrics.FallbackScoreClamped)
		s.deps.Logger.Warn("score out of range, clamped",
			zap.Float64("raw_score", parsed.value),
			zap.Int("score", score.Value),
		)
	}

	return score, nil
}

func buildScorePrompt(question, candidateAnswer, idealAnswer, jobDescription string) string {
	return render(scorePromptTemplate, map[string]string{
		"QUESTION":         question,
		"CANDIDATE_ANSWER": candidateAnswer,
		"IDEAL_ANSWER":     idealAnswer,
		"JOB_DESCRIPTION":  utils.Head(jobDescription, scoreJobDescriptionLimit),
	})
}

type rawScore struct {
	value         float64
	justification string
}

func toRawScore(value any) (rawScore, error) {
	data, ok := value.(map[string]any)
	if !ok {
		return rawScore{}, errors.New("response is not an object")
	}

	v, ok := data["score"]
	if !ok {
		return rawScore{}, errors.New("score is missing")
	}

	f, err := coerceFloat(v)
	if err != nil {
		return rawScore{}, err
	}

	justification := coerceString(data["justification"])
	if justification == "" {
		justification = missingJustification
	}

	return rawScore{value: f, justification: justification}, nil
}

// clamp truncates toward zero and bounds the value to the score range.
func (r rawScore) clamp() (Score, bool) {
	v := math.Trunc(r.value)
	clamped := false
	switch {
	case v < MinScore:
		v, clamped = MinScore, true
	case v > MaxScore:
		v, clamped = MaxScore, true
	}
	return Score{Value: int(v), Justification: r.justification}, clamped
}

func coerceFloat(v any) (float64, error) {
	var f float64
	switch val := v.(type) {
	case float64:
		f = val
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0, fmt.Errorf("score %q is not numeric", val)
		}
		f = parsed
	default:
		return 0, fmt.Errorf("score has non-numeric type %T", v)
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("score %v is not a finite number", f)
	}
	return f, nil
}

func coerceString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	default:
		return strings.TrimSpace(fmt.Sprint(val))
	}
}
