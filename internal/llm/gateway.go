// Package llm is the single entry point for text completions. One provider
// is chosen from configuration when the gateway is built and serves every
// call of the process.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/spigell/interview-analyzer/internal/llm/anthropic"
	"github.com/spigell/interview-analyzer/internal/llm/gemini"
	"github.com/spigell/interview-analyzer/internal/llm/openai"
	"github.com/spigell/interview-analyzer/internal/logger"
	"github.com/spigell/interview-analyzer/internal/metrics"
	"github.com/spigell/interview-analyzer/internal/utils"

	"go.uber.org/zap"
)

// ErrCall marks every failure of the underlying provider. Callers are not
// expected to recover from it.
var ErrCall = errors.New("llm call failed")

// Provider names a supported completion backend.
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderGemini    Provider = "gemini"
)

const defaultMaxLogLength = 200

// Gateway completes prompts. expectJSON asks providers that support it for
// JSON output; others ignore the hint.
type Gateway interface {
	Complete(ctx context.Context, prompt string, expectJSON bool) (string, error)
}

// Completer is the contract every provider client satisfies.
type Completer interface {
	Complete(ctx context.Context, prompt string, expectJSON bool) (string, error)
	Model() string
}

// Config selects and configures the provider.
type Config struct {
	Provider     Provider
	OpenAI       openai.Config
	Anthropic    anthropic.Config
	Gemini       gemini.Config
	MaxLogLength int
}

// ParseProvider normalises a configured provider name. Empty means openai.
func ParseProvider(name string) (Provider, error) {
	switch p := Provider(strings.ToLower(strings.TrimSpace(name))); p {
	case "":
		return ProviderOpenAI, nil
	case ProviderOpenAI, ProviderAnthropic, ProviderGemini:
		return p, nil
	default:
		return "", fmt.Errorf("unsupported ai provider: %s", name)
	}
}

// New builds the provider client named in cfg and wraps it with logging and metrics.
func New(ctx context.Context, cfg Config, m *metrics.Metrics, log *zap.Logger) (*Client, error) {
	var (
		completer Completer
		err       error
	)

	switch cfg.Provider {
	case ProviderOpenAI, "":
		cfg.Provider = ProviderOpenAI
		completer, err = openai.New(cfg.OpenAI)
	case ProviderAnthropic:
		completer, err = anthropic.New(cfg.Anthropic)
	case ProviderGemini:
		completer, err = gemini.NewGenerator(ctx, cfg.Gemini)
	default:
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("building %s client: %w", cfg.Provider, err)
	}

	return Wrap(cfg.Provider, completer, cfg.MaxLogLength, m, log), nil
}

// Client is the instrumented Gateway around one provider.
type Client struct {
	provider  Provider
	completer Completer
	maxLogLen int
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

// Wrap instruments an existing completer. It is what New uses and what
// tests use to put a fake provider behind the real gateway.
func Wrap(provider Provider, completer Completer, maxLogLength int, m *metrics.Metrics, log *zap.Logger) *Client {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	return &Client{
		provider:  provider,
		completer: completer,
		maxLogLen: maxLogLength,
		metrics:   m,
		logger:    logger.WithProvider(log, string(provider), completer.Model()),
	}
}

// Complete performs exactly one provider call. Any failure is wrapped in ErrCall.
func (c *Client) Complete(ctx context.Context, prompt string, expectJSON bool) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", fmt.Errorf("%w: prompt must not be empty", ErrCall)
	}

	c.logger.Debug("llm completion request",
		zap.Bool("expect_json", expectJSON),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, c.maxLogLen)),
	)

	start := time.Now()
	raw, err := c.completer.Complete(ctx, prompt, expectJSON)
	c.metrics.ObserveLLMCall(string(c.provider), expectJSON, err, time.Since(start))

	if err != nil {
		c.logger.Error("llm completion failed", zap.Error(err))
		return "", fmt.Errorf("%w: %s: %w", ErrCall, c.provider, err)
	}

	c.logger.Debug("llm completion response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, c.maxLogLen)),
		zap.Duration("took", time.Since(start)),
	)

	return raw, nil
}

func (c *Client) Provider() Provider { return c.provider }

func (c *Client) Model() string { return c.completer.Model() }
