package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/interview-analyzer/internal/events"
	"github.com/spigell/interview-analyzer/internal/server"
)

const (
	app       = "interview-analyzer"
	envPrefix = "INTERVIEW_ANALYZER"
)

type Config struct {
	AI       AIConfig       `mapstructure:"ai"`
	Analysis AnalysisConfig `mapstructure:"analysis"`
	Store    StoreConfig    `mapstructure:"store"`
	Events   events.Config  `mapstructure:"events"`
	Server   server.Config  `mapstructure:"server"`
}

type AIConfig struct {
	Provider     string          `mapstructure:"provider"`
	MaxLogLength int             `mapstructure:"max-log-length"`
	Timeout      time.Duration   `mapstructure:"timeout"`
	OpenAI       OpenAIConfig    `mapstructure:"openai"`
	Anthropic    AnthropicConfig `mapstructure:"anthropic"`
	Gemini       GeminiConfig    `mapstructure:"gemini"`
}

type OpenAIConfig struct {
	APIKey      string  `mapstructure:"api-key"`
	APIKeyFile  string  `mapstructure:"api-key-file"`
	Model       string  `mapstructure:"model"`
	Endpoint    string  `mapstructure:"endpoint"`
	Temperature float64 `mapstructure:"temperature"`
}

type AnthropicConfig struct {
	APIKey     string `mapstructure:"api-key"`
	APIKeyFile string `mapstructure:"api-key-file"`
	Model      string `mapstructure:"model"`
	Endpoint   string `mapstructure:"endpoint"`
	MaxTokens  int    `mapstructure:"max-tokens"`
}

type GeminiConfig struct {
	APIKey     string `mapstructure:"api-key"`
	APIKeyFile string `mapstructure:"api-key-file"`
	Model      string `mapstructure:"model"`
}

type AnalysisConfig struct {
	// Concurrency is the number of Q&A pairs scored at once. 1 keeps the run sequential.
	Concurrency int `mapstructure:"concurrency"`
}

type StoreConfig struct {
	Driver string `mapstructure:"driver"`
	Dir    string `mapstructure:"dir"`
	DSN    string `mapstructure:"dsn"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "interview-analyzer scores interview transcripts against a job description with an LLM",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is interview-analyzer.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))

	setDefaults(viper.GetViper())
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ai.provider", "openai")
	v.SetDefault("ai.max-log-length", 200)
	v.SetDefault("ai.timeout", 120*time.Second)
	v.SetDefault("ai.openai.api-key", "")
	v.SetDefault("ai.openai.api-key-file", "")
	v.SetDefault("ai.openai.model", "gpt-4")
	v.SetDefault("ai.openai.endpoint", "https://api.openai.com/v1")
	v.SetDefault("ai.openai.temperature", 0.7)
	v.SetDefault("ai.anthropic.api-key", "")
	v.SetDefault("ai.anthropic.api-key-file", "")
	v.SetDefault("ai.anthropic.model", "claude-3-opus-20240229")
	v.SetDefault("ai.anthropic.endpoint", "https://api.anthropic.com/v1")
	v.SetDefault("ai.anthropic.max-tokens", 2000)
	v.SetDefault("ai.gemini.api-key", "")
	v.SetDefault("ai.gemini.api-key-file", "")
	v.SetDefault("ai.gemini.model", "gemini-2.5-pro")
	v.SetDefault("analysis.concurrency", 1)
	v.SetDefault("store.driver", "file")
	v.SetDefault("store.dir", "reports")
	v.SetDefault("store.dsn", "")
	v.SetDefault("events.enabled", false)
	v.SetDefault("events.brokers", []string{})
	v.SetDefault("events.topic", "interview-reports")
	v.SetDefault("server.listen", ":8000")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
}

func initConfig() {
	// A missing .env is fine; the file is a convenience for local runs.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("loading .env: %v", err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// The config file is optional, but a broken one is fatal.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	return decodeConfig(viper.GetViper())
}

func decodeConfig(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	return &config, nil
}
