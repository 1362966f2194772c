package analysis

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/spigell/interview-analyzer/internal/llm"
)

// fakeGateway answers by the opening line of the prompt so that stages can
// run in any order.
type fakeGateway struct {
	mu sync.Mutex

	extract          string
	ideal            string
	score            func(prompt string) string
	hrSummary        string
	candidateSummary string
	failOn           string

	prompts []string
	json    []bool
}

func (f *fakeGateway) Complete(_ context.Context, prompt string, expectJSON bool) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.json = append(f.json, expectJSON)
	f.mu.Unlock()

	stage := stageOf(prompt)
	if f.failOn != "" && stage == f.failOn {
		return "", errors.Join(llm.ErrCall, errors.New("provider unavailable"))
	}

	switch stage {
	case "extract":
		return f.extract, nil
	case "ideal":
		return f.ideal, nil
	case "score":
		if f.score == nil {
			return `{"score": 5, "justification": "ok"}`, nil
		}
		return f.score(prompt), nil
	case "hr":
		return f.hrSummary, nil
	case "candidate":
		return f.candidateSummary, nil
	}
	return "", nil
}

func (f *fakeGateway) calls(stage string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []string
	for _, p := range f.prompts {
		if stageOf(p) == stage {
			out = append(out, p)
		}
	}
	return out
}

func stageOf(prompt string) string {
	switch {
	case strings.HasPrefix(prompt, "You are an expert at analyzing interview transcripts"):
		return "extract"
	case strings.HasPrefix(prompt, "Based on the following job description"):
		return "ideal"
	case strings.HasPrefix(prompt, "Score the candidate's answer"):
		return "score"
	case strings.HasPrefix(prompt, "Generate a concise, professional summary for HR"):
		return "hr"
	case strings.HasPrefix(prompt, "Generate a friendly, constructive performance summary"):
		return "candidate"
	}
	return "unknown"
}
