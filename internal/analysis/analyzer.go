package analysis

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/interview-analyzer/internal/logger"
	"github.com/spigell/interview-analyzer/internal/metrics"
)

// Analyzer runs Extract → (Generate, Score) per pair → Aggregate. Any
// gateway failure aborts the run.
type Analyzer struct {
	extractor   *Extractor
	ideal       *IdealAnswerGenerator
	scorer      *Scorer
	aggregator  *Aggregator
	concurrency int
	logger      *zap.Logger
	metrics     *metrics.Metrics
}

type Option func(*Analyzer)

// WithConcurrency lets up to n pairs be processed at once. The breakdown
// keeps source order regardless. Values below 1 mean sequential.
func WithConcurrency(n int) Option {
	return func(a *Analyzer) {
		if n > 0 {
			a.concurrency = n
		}
	}
}

func NewAnalyzer(deps Deps, opts ...Option) *Analyzer {
	deps = deps.normalized()

	a := &Analyzer{
		extractor:   NewExtractor(deps),
		ideal:       NewIdealAnswerGenerator(deps),
		scorer:      NewScorer(deps),
		aggregator:  NewAggregator(deps),
		concurrency: 1,
		logger:      deps.Logger,
		metrics:     deps.Metrics,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze validates the input and produces the report.
func (a *Analyzer) Analyze(ctx context.Context, in Input) (*Report, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	in = in.withDefaults()

	log := logger.WithInterview(a.logger, in.InterviewID, in.CandidateID)
	start := time.Now()

	report, err := a.run(ctx, log, in)

	var (
		pairs   int
		overall float64
	)
	if report != nil {
		pairs, overall = len(report.QABreakdown), report.OverallScore
	}
	a.metrics.ObserveRun(err, time.Since(start), pairs, overall)

	if err != nil {
		log.Error("analysis aborted", zap.Error(err))
		return nil, err
	}

	log.Info("analysis complete",
		zap.Int("pairs", pairs),
		zap.Float64("overall_score", overall),
		zap.Duration("took", time.Since(start)),
	)
	return report, nil
}

func (a *Analyzer) run(ctx context.Context, log *zap.Logger, in Input) (*Report, error) {
	log.Info("pairing questions and answers")
	pairs, err := a.extractor.Extract(ctx, in.HRTranscript, in.CandidateTranscript)
	if err != nil {
		return nil, fmt.Errorf("extract q&a pairs: %w", err)
	}
	log.Info("found q&a pairs", zap.Int("count", len(pairs)))

	breakdown, err := a.scorePairs(ctx, log, pairs, in.JobDescription)
	if err != nil {
		return nil, err
	}

	log.Info("generating summaries")
	return a.aggregator.Aggregate(ctx, AggregateInput{
		Breakdown:      breakdown,
		JobDescription: in.JobDescription,
		HRText:         in.HRTranscript,
		CandidateText:  in.CandidateTranscript,
		InterviewID:    in.InterviewID,
		CandidateID:    in.CandidateID,
		HRID:           in.HRID,
	})
}

// scorePairs fills one slot per pair so the breakdown matches pair order.
func (a *Analyzer) scorePairs(ctx context.Context, log *zap.Logger, pairs []QAPair, jobDescription string) ([]ScoredQA, error) {
	breakdown := make([]ScoredQA, len(pairs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)

	for i, pair := range pairs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			scored, err := a.ScorePair(gctx, pair, jobDescription)
			if err != nil {
				return fmt.Errorf("q&a %d/%d: %w", i+1, len(pairs), err)
			}

			log.Info("scored answer",
				zap.Int("index", i+1),
				zap.Int("total", len(pairs)),
				zap.Int("score", scored.Score),
			)
			breakdown[i] = scored
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return breakdown, nil
}

// ScorePair generates the ideal answer for one pair and scores the candidate against it.
func (a *Analyzer) ScorePair(ctx context.Context, pair QAPair, jobDescription string) (ScoredQA, error) {
	ideal, err := a.ideal.Generate(ctx, pair.Question, jobDescription)
	if err != nil {
		return ScoredQA{}, fmt.Errorf("ideal answer: %w", err)
	}

	score, err := a.scorer.Score(ctx, pair.Question, pair.Answer, ideal, jobDescription)
	if err != nil {
		return ScoredQA{}, fmt.Errorf("score answer: %w", err)
	}

	return ScoredQA{
		Question:        pair.Question,
		CandidateAnswer: pair.Answer,
		IdealAnswer:     ideal,
		Score:           score.Value,
		Justification:   score.Justification,
	}, nil
}

// IdealAnswer exposes the generator for callers that need a single answer.
func (a *Analyzer) IdealAnswer(ctx context.Context, question, jobDescription string) (string, error) {
	return a.ideal.Generate(ctx, question, jobDescription)
}

// ScoreAnswer exposes the scorer for callers that score a single answer.
func (a *Analyzer) ScoreAnswer(ctx context.Context, question, candidateAnswer, idealAnswer, jobDescription string) (Score, error) {
	return a.scorer.Score(ctx, question, candidateAnswer, idealAnswer, jobDescription)
}
