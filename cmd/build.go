package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/spigell/interview-analyzer/internal/analysis"
	"github.com/spigell/interview-analyzer/internal/events"
	"github.com/spigell/interview-analyzer/internal/llm"
	"github.com/spigell/interview-analyzer/internal/llm/anthropic"
	"github.com/spigell/interview-analyzer/internal/llm/gemini"
	"github.com/spigell/interview-analyzer/internal/llm/openai"
	"github.com/spigell/interview-analyzer/internal/metrics"
	"github.com/spigell/interview-analyzer/internal/secrets"
	"github.com/spigell/interview-analyzer/internal/store"
)

// runtime is everything a command needs to analyze, persist and announce reports.
type runtime struct {
	registry  *prometheus.Registry
	metrics   *metrics.Metrics
	analyzer  *analysis.Analyzer
	store     store.Store
	storeName string
	publisher *events.Publisher
	closers   []func() error
}

func newRuntime(ctx context.Context, config *Config, logger *zap.Logger) (*runtime, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	llmConfig, err := gatewayConfig(config.AI)
	if err != nil {
		return nil, err
	}

	gateway, err := llm.New(ctx, llmConfig, m, logger)
	if err != nil {
		return nil, fmt.Errorf("building llm gateway: %w", err)
	}

	logger.Info("llm gateway ready",
		zap.String("provider", string(gateway.Provider())),
		zap.String("model", gateway.Model()),
	)

	rt := &runtime{registry: reg, metrics: m}

	rt.analyzer = analysis.NewAnalyzer(analysis.Deps{
		Gateway:      gateway,
		Logger:       logger,
		Metrics:      m,
		MaxLogLength: config.AI.MaxLogLength,
	}, analysis.WithConcurrency(config.Analysis.Concurrency))

	rt.store, rt.storeName, err = openStore(ctx, config.Store, rt)
	if err != nil {
		return nil, err
	}

	rt.publisher = events.New(config.Events, m, logger)
	rt.closers = append(rt.closers, rt.publisher.Close)

	return rt, nil
}

func (rt *runtime) Close() error {
	var errs []error
	for _, closeFn := range rt.closers {
		if err := closeFn(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// persist saves the report and announces it. A failed announcement is only logged.
func (rt *runtime) persist(ctx context.Context, report *analysis.Report, logger *zap.Logger) error {
	if err := rt.store.Save(ctx, report); err != nil {
		return fmt.Errorf("saving report: %w", err)
	}
	logger.Info("report saved", zap.String("store", rt.storeName), zap.String("interview_id", report.InterviewID))

	if err := rt.publisher.PublishReport(ctx, report); err != nil {
		logger.Warn("publishing report event", zap.Error(err))
	}
	return nil
}

func openStore(ctx context.Context, cfg StoreConfig, rt *runtime) (store.Store, string, error) {
	driver := store.Driver(strings.ToLower(strings.TrimSpace(cfg.Driver)))

	switch driver {
	case store.DriverNone, "":
		return store.Nop{}, string(store.DriverNone), nil
	case store.DriverFile:
		s, err := store.NewFileStore(cfg.Dir)
		if err != nil {
			return nil, "", err
		}
		return s, string(driver), nil
	case store.DriverPostgres:
		s, err := store.OpenPostgres(ctx, cfg.DSN)
		if err != nil {
			return nil, "", err
		}
		rt.closers = append(rt.closers, s.Close)
		return s, string(driver), nil
	default:
		return nil, "", fmt.Errorf("unsupported store driver: %s", cfg.Driver)
	}
}

// gatewayConfig resolves the API key of the selected provider only.
func gatewayConfig(cfg AIConfig) (llm.Config, error) {
	provider, err := llm.ParseProvider(cfg.Provider)
	if err != nil {
		return llm.Config{}, err
	}

	out := llm.Config{Provider: provider, MaxLogLength: cfg.MaxLogLength}

	switch provider {
	case llm.ProviderOpenAI:
		key, err := secrets.Load(secrets.Source{
			Name:  "openai api key",
			Value: cfg.OpenAI.APIKey,
			File:  cfg.OpenAI.APIKeyFile,
			Env:   "OPENAI_API_KEY",
		})
		if err != nil {
			return llm.Config{}, fmt.Errorf("%w (set ai.openai.api-key-file or OPENAI_API_KEY)", err)
		}
		out.OpenAI = openai.Config{
			APIKey:      key,
			Model:       cfg.OpenAI.Model,
			Endpoint:    cfg.OpenAI.Endpoint,
			Temperature: cfg.OpenAI.Temperature,
			Timeout:     cfg.Timeout,
		}
	case llm.ProviderAnthropic:
		key, err := secrets.Load(secrets.Source{
			Name:  "anthropic api key",
			Value: cfg.Anthropic.APIKey,
			File:  cfg.Anthropic.APIKeyFile,
			Env:   "ANTHROPIC_API_KEY",
		})
		if err != nil {
			return llm.Config{}, fmt.Errorf("%w (set ai.anthropic.api-key-file or ANTHROPIC_API_KEY)", err)
		}
		out.Anthropic = anthropic.Config{
			APIKey:    key,
			Model:     cfg.Anthropic.Model,
			Endpoint:  cfg.Anthropic.Endpoint,
			MaxTokens: cfg.Anthropic.MaxTokens,
			Timeout:   cfg.Timeout,
		}
	case llm.ProviderGemini:
		key, err := secrets.Load(secrets.Source{
			Name:  "gemini api key",
			Value: cfg.Gemini.APIKey,
			File:  cfg.Gemini.APIKeyFile,
			Env:   "GEMINI_API_KEY",
		})
		if err != nil {
			return llm.Config{}, fmt.Errorf("%w (set ai.gemini.api-key-file or GEMINI_API_KEY)", err)
		}
		out.Gemini = gemini.Config{APIKey: key, Model: cfg.Gemini.Model}
	}

	return out, nil
}
