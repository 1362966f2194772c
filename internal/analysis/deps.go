// Package analysis turns an interview's speaker streams and a job
// description into a scored evaluation report.
package analysis

import (
	_ "embed"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/interview-analyzer/internal/llm"
	"github.com/spigell/interview-analyzer/internal/metrics"
)

const defaultMaxLogLength = 200

//go:embed prompts/extract.md
var extractPromptTemplate string

//go:embed prompts/ideal.md
var idealPromptTemplate string

//go:embed prompts/score.md
var scorePromptTemplate string

//go:embed prompts/summary_hr.md
var hrSummaryPromptTemplate string

//go:embed prompts/summary_candidate.md
var candidateSummaryPromptTemplate string

// Deps are shared by every stage of the pipeline.
type Deps struct {
	Gateway      llm.Gateway
	Logger       *zap.Logger
	Metrics      *metrics.Metrics
	MaxLogLength int
}

func (d Deps) normalized() Deps {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.MaxLogLength <= 0 {
		d.MaxLogLength = defaultMaxLogLength
	}
	return d
}

// render fills {{KEY}} placeholders in a single pass so that user text
// containing placeholder syntax is never expanded.
func render(template string, values map[string]string) string {
	pairs := make([]string, 0, len(values)*2)
	for key, value := range values {
		pairs = append(pairs, "{{"+key+"}}", value)
	}
	return strings.TrimSpace(strings.NewReplacer(pairs...).Replace(template))
}
