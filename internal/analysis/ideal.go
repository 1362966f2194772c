package analysis

import (
	"context"
	"strings"

	"github.com/spigell/interview-analyzer/internal/utils"
)

const idealJobDescriptionLimit = 2000

// IdealAnswerGenerator writes the reference answer a strong candidate would give.
type IdealAnswerGenerator struct {
	deps Deps
}

func NewIdealAnswerGenerator(deps Deps) *IdealAnswerGenerator {
	return &IdealAnswerGenerator{deps: deps.normalized()}
}

// Generate returns the trimmed model answer. The output is prose and is not validated.
func (g *IdealAnswerGenerator) Generate(ctx context.Context, question, jobDescription string) (string, error) {
	raw, err := g.deps.Gateway.Complete(ctx, buildIdealPrompt(question, jobDescription), false)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(raw), nil
}

func buildIdealPrompt(question, jobDescription string) string {
	return render(idealPromptTemplate, map[string]string{
		"JOB_DESCRIPTION": utils.Head(jobDescription, idealJobDescriptionLimit),
		"QUESTION":        question,
	})
}
