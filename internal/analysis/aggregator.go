package analysis

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/spigell/interview-analyzer/internal/utils"
)

const (
	summaryPairLimit            = 5
	hrSummaryAnswerLimit        = 200
	candidateSummaryAnswerLimit = 150
	summaryJobDescriptionLimit  = 1000
)

// Aggregator computes the overall score and asks for both summaries.
type Aggregator struct {
	deps Deps
	now  func() time.Time
}

func NewAggregator(deps Deps) *Aggregator {
	return &Aggregator{deps: deps.normalized(), now: time.Now}
}

// AggregateInput carries the scored breakdown and the run's identity.
type AggregateInput struct {
	Breakdown      []ScoredQA
	JobDescription string
	HRText         string
	CandidateText  string
	InterviewID    string
	CandidateID    string
	HRID           string
}

// Aggregate assembles the report. It does not persist it.
func (a *Aggregator) Aggregate(ctx context.Context, in AggregateInput) (*Report, error) {
	overall := OverallScore(in.Breakdown)

	hrSummary, err := a.deps.Gateway.Complete(ctx, buildHRSummaryPrompt(in.Breakdown, in.JobDescription, overall), false)
	if err != nil {
		return nil, fmt.Errorf("hr summary: %w", err)
	}

	candidateSummary, err := a.deps.Gateway.Complete(ctx, buildCandidateSummaryPrompt(in.Breakdown, overall), false)
	if err != nil {
		return nil, fmt.Errorf("candidate summary: %w", err)
	}

	breakdown := make([]ScoredQA, len(in.Breakdown))
	copy(breakdown, in.Breakdown)

	return &Report{
		InterviewID:        in.InterviewID,
		CandidateID:        in.CandidateID,
		HRID:               in.HRID,
		OverallScore:       overall,
		AISummaryHR:        strings.TrimSpace(hrSummary),
		AISummaryCandidate: strings.TrimSpace(candidateSummary),
		QABreakdown:        breakdown,
		FullTranscript:     FullTranscript(in.HRText, in.CandidateText),
		JobDescription:     in.JobDescription,
		GeneratedAt:        a.now().UTC(),
	}, nil
}

// OverallScore rescales the mean pair score to 0-100, rounded to two
// decimals. No pairs score 0.
func OverallScore(breakdown []ScoredQA) float64 {
	if len(breakdown) == 0 {
		return 0
	}

	total := 0
	for _, qa := range breakdown {
		total += qa.Score
	}

	overall := float64(total) / float64(len(breakdown)) * 10
	return math.Round(overall*100) / 100
}

// FullTranscript renders both streams the way reports store them.
func FullTranscript(hrText, candidateText string) string {
	return "HR: " + hrText + "\n\nCandidate: " + candidateText
}

func buildHRSummaryPrompt(breakdown []ScoredQA, jobDescription string, overall float64) string {
	return render(hrSummaryPromptTemplate, map[string]string{
		"OVERALL_SCORE":   formatScore(overall),
		"QA_SUMMARY":      summarizePairs(breakdown, "A", hrSummaryAnswerLimit),
		"JOB_DESCRIPTION": utils.Head(jobDescription, summaryJobDescriptionLimit),
	})
}

func buildCandidateSummaryPrompt(breakdown []ScoredQA, overall float64) string {
	return render(candidateSummaryPromptTemplate, map[string]string{
		"OVERALL_SCORE": formatScore(overall),
		"QA_SUMMARY":    summarizePairs(breakdown, "Your Answer", candidateSummaryAnswerLimit),
	})
}

// summarizePairs lists at most summaryPairLimit pairs with shortened answers.
func summarizePairs(breakdown []ScoredQA, answerLabel string, answerLimit int) string {
	if len(breakdown) > summaryPairLimit {
		breakdown = breakdown[:summaryPairLimit]
	}

	lines := make([]string, 0, len(breakdown))
	for _, qa := range breakdown {
		lines = append(lines, fmt.Sprintf("Q: %s\n%s: %s... (Score: %d/10)",
			qa.Question, answerLabel, utils.Head(qa.CandidateAnswer, answerLimit), qa.Score))
	}
	return strings.Join(lines, "\n")
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
