package analysis

import (
	"context"
	"errors"
	"strings"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"github.com/spigell/interview-analyzer/internal/metrics"
	"github.com/spigell/interview-analyzer/internal/utils"
)

// Extractor asks the model to pair HR questions with candidate answers.
type Extractor struct {
	deps Deps
}

func NewExtractor(deps Deps) *Extractor {
	return &Extractor{deps: deps.normalized()}
}

// Extract returns the pairs in conversation order. An unusable model reply
// yields no pairs rather than an error; only gateway failures are returned.
func (e *Extractor) Extract(ctx context.Context, hrText, candidateText string) ([]QAPair, error) {
	prompt := buildExtractPrompt(hrText, candidateText)

	raw, err := e.deps.Gateway.Complete(ctx, prompt, true)
	if err != nil {
		return nil, err
	}

	pairs, err := parseOr(raw, arraySpan, []QAPair{}, toPairs)
	if err != nil {
		e.deps.Metrics.RecordFallback(metrics.FallbackExtraction)
		e.deps.Logger.Warn("unparseable q&a extraction response, continuing without pairs",
			zap.Error(err),
			zap.String("response_preview", utils.TruncateForLog(raw, e.deps.MaxLogLength)),
		)
	}

	return pairs, nil
}

func buildExtractPrompt(hrText, candidateText string) string {
	return render(extractPromptTemplate, map[string]string{
		"HR_TRANSCRIPT":        hrText,
		"CANDIDATE_TRANSCRIPT": candidateText,
	})
}

// toPairs accepts a JSON array of objects. Elements that are not objects or
// carry no question are skipped; values are coerced to strings.
func toPairs(value any) ([]QAPair, error) {
	items, ok := value.([]any)
	if !ok {
		return nil, errors.New("response is not a list")
	}

	pairs := make([]QAPair, 0, len(items))
	for _, item := range items {
		if _, ok := item.(map[string]any); !ok {
			continue
		}

		var pair QAPair
		if err := mapstructure.WeakDecode(item, &pair); err != nil {
			continue
		}

		pair.Question = strings.TrimSpace(pair.Question)
		pair.Answer = strings.TrimSpace(pair.Answer)
		if pair.Question == "" {
			continue
		}

		pairs = append(pairs, pair)
	}

	return pairs, nil
}
