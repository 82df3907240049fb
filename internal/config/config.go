package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"reviewsentiment/internal/schedule"
)

const defaultExternalHTTPTimeout = 90 * time.Second
const defaultExternalHTTPTimeoutSeconds = int(defaultExternalHTTPTimeout / time.Second)

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"

	DefaultOpenAIModel    = "gpt-4"
	DefaultAnthropicModel = "claude-sonnet-4-5-20250929"

	defaultOutputPath   = "analysis_results.json"
	defaultDelaySeconds = 1.0
	defaultMaxRetries   = 2
)

var (
	ErrMissingCredential = errors.New("missing LLM credential")
	ErrMissingInput      = errors.New("missing input file")
)

type Config struct {
	LLMProvider     string  `yaml:"llm_provider"`
	LLMModel        string  `yaml:"llm_model"`
	LLMBaseURL      string  `yaml:"llm_base_url"`
	LLMMaxRetries   int     `yaml:"llm_max_retries"`
	LLMRateLimitRPS float64 `yaml:"llm_rate_limit_rps"`
	OpenAIAPIKey    string  `yaml:"openai_api_key"`
	AnthropicAPIKey string  `yaml:"anthropic_api_key"`

	InputPath                  string  `yaml:"input_path"`
	OutputPath                 string  `yaml:"output_path"`
	DelaySeconds               float64 `yaml:"delay_seconds"`
	ExternalHTTPTimeoutSeconds int     `yaml:"external_http_timeout_seconds"`

	LogEnv      string `yaml:"log_env"`
	MetricsAddr string `yaml:"metrics_addr"`
	Schedule    string `yaml:"schedule"`

	SlackBotToken   string `yaml:"slack_bot_token"`
	ReportChannelID string `yaml:"report_channel_id"`
}

// Load resolves configuration from config.yaml (or CONFIG_PATH), then env vars,
// then defaults, then command-line args. args excludes the program name.
func Load(args []string) (Config, error) {
	var cfg Config

	configPath := "config.yaml"
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		configPath = envPath
	}
	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing %s: %w", configPath, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	applyDefaults(&cfg)

	if err := applyFlags(&cfg, args); err != nil {
		return Config{}, err
	}
	if cfg.LLMModel == "" {
		cfg.LLMModel = defaultModel(cfg.LLMProvider)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	envOverride(&cfg.LLMProvider, "LLM_PROVIDER")
	envOverride(&cfg.LLMModel, "LLM_MODEL")
	envOverride(&cfg.LLMBaseURL, "LLM_BASE_URL")
	envOverride(&cfg.OpenAIAPIKey, "OPENAI_API_KEY")
	envOverride(&cfg.AnthropicAPIKey, "ANTHROPIC_API_KEY")
	envOverride(&cfg.InputPath, "INPUT_PATH")
	envOverride(&cfg.OutputPath, "OUTPUT_PATH")
	envOverride(&cfg.LogEnv, "APP_ENV")
	envOverride(&cfg.MetricsAddr, "METRICS_ADDR")
	envOverride(&cfg.Schedule, "SCHEDULE")
	envOverride(&cfg.SlackBotToken, "SLACK_BOT_TOKEN")
	envOverride(&cfg.ReportChannelID, "REPORT_CHANNEL_ID")

	if err := envOverrideInt(&cfg.LLMMaxRetries, "LLM_MAX_RETRIES"); err != nil {
		return err
	}
	if err := envOverrideInt(&cfg.ExternalHTTPTimeoutSeconds, "EXTERNAL_HTTP_TIMEOUT_SECONDS"); err != nil {
		return err
	}
	if err := envOverrideFloat(&cfg.LLMRateLimitRPS, "LLM_RATE_LIMIT_RPS"); err != nil {
		return err
	}
	return envOverrideFloat(&cfg.DelaySeconds, "DELAY_SECONDS")
}

func applyDefaults(cfg *Config) {
	cfg.LLMProvider = strings.ToLower(strings.TrimSpace(cfg.LLMProvider))
	if cfg.LLMProvider == "" {
		cfg.LLMProvider = ProviderOpenAI
	}
	if cfg.LLMMaxRetries == 0 {
		cfg.LLMMaxRetries = defaultMaxRetries
	}
	if cfg.OutputPath == "" {
		cfg.OutputPath = defaultOutputPath
	}
	if cfg.DelaySeconds == 0 {
		cfg.DelaySeconds = defaultDelaySeconds
	}
	if cfg.ExternalHTTPTimeoutSeconds == 0 {
		cfg.ExternalHTTPTimeoutSeconds = defaultExternalHTTPTimeoutSeconds
	}
}

// applyFlags takes a positional input file plus -o/--output, -k/--api-key,
// -d/--delay, -provider, -model and -schedule. Flags may follow the input file.
func applyFlags(cfg *Config, args []string) error {
	fs := flag.NewFlagSet("reviewsentiment", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		output, apiKey, provider, model, cronSpec string
		delay                                     float64
	)
	fs.StringVar(&output, "o", "", "output file path")
	fs.StringVar(&output, "output", "", "output file path")
	fs.StringVar(&apiKey, "k", "", "API key for the selected provider")
	fs.StringVar(&apiKey, "api-key", "", "API key for the selected provider")
	fs.Float64Var(&delay, "d", 0, "delay between API calls in seconds")
	fs.Float64Var(&delay, "delay", 0, "delay between API calls in seconds")
	fs.StringVar(&provider, "provider", "", "LLM provider (openai or anthropic)")
	fs.StringVar(&model, "model", "", "LLM model name")
	fs.StringVar(&cronSpec, "schedule", "", "cron spec for repeated runs")

	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return fmt.Errorf("parsing flags: %w", err)
		}
		rest := fs.Args()
		if len(rest) == 0 {
			break
		}
		positional = append(positional, rest[0])
		args = rest[1:]
	}
	if len(positional) > 1 {
		return fmt.Errorf("expected one input file, got %d", len(positional))
	}
	if len(positional) == 1 {
		cfg.InputPath = positional[0]
	}

	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if set["o"] || set["output"] {
		cfg.OutputPath = output
	}
	if set["d"] || set["delay"] {
		cfg.DelaySeconds = delay
	}
	if set["provider"] {
		cfg.LLMProvider = strings.ToLower(strings.TrimSpace(provider))
	}
	if set["model"] {
		cfg.LLMModel = model
	}
	if set["schedule"] {
		cfg.Schedule = cronSpec
	}
	if set["k"] || set["api-key"] {
		switch cfg.LLMProvider {
		case ProviderAnthropic:
			cfg.AnthropicAPIKey = apiKey
		default:
			cfg.OpenAIAPIKey = apiKey
		}
	}
	return nil
}

func (c Config) Validate() error {
	switch c.LLMProvider {
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("%w: set OPENAI_API_KEY environment variable or use -k flag", ErrMissingCredential)
		}
	case ProviderAnthropic:
		if c.AnthropicAPIKey == "" {
			return fmt.Errorf("%w: set ANTHROPIC_API_KEY environment variable or use -k flag", ErrMissingCredential)
		}
	default:
		return fmt.Errorf("llm_provider must be 'openai' or 'anthropic', got '%s'", c.LLMProvider)
	}

	if strings.TrimSpace(c.InputPath) == "" {
		return ErrMissingInput
	}
	if c.DelaySeconds < 0 {
		return fmt.Errorf("invalid delay_seconds '%g': must be >= 0", c.DelaySeconds)
	}
	if c.LLMMaxRetries < 0 {
		return fmt.Errorf("invalid llm_max_retries '%d': must be >= 0", c.LLMMaxRetries)
	}
	if c.LLMRateLimitRPS < 0 {
		return fmt.Errorf("invalid llm_rate_limit_rps '%g': must be >= 0", c.LLMRateLimitRPS)
	}
	if c.ExternalHTTPTimeoutSeconds < 5 {
		return fmt.Errorf("invalid external_http_timeout_seconds '%d': must be >= 5", c.ExternalHTTPTimeoutSeconds)
	}
	if c.Schedule != "" {
		if _, err := schedule.Parse(c.Schedule); err != nil {
			return err
		}
	}
	if (c.SlackBotToken == "") != (c.ReportChannelID == "") {
		return fmt.Errorf("slack_bot_token and report_channel_id must be set together")
	}
	return nil
}

func (c Config) APIKey() string {
	if c.LLMProvider == ProviderAnthropic {
		return c.AnthropicAPIKey
	}
	return c.OpenAIAPIKey
}

func (c Config) Delay() time.Duration {
	return time.Duration(c.DelaySeconds * float64(time.Second))
}

func (c Config) SlackConfigured() bool {
	return c.SlackBotToken != "" && c.ReportChannelID != ""
}

func defaultModel(provider string) string {
	if provider == ProviderAnthropic {
		return DefaultAnthropicModel
	}
	return DefaultOpenAIModel
}

func envOverride(field *string, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}

func envOverrideInt(field *int, envKey string) error {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid %s '%s': %w", envKey, val, err)
		}
		*field = parsed
	}
	return nil
}

func envOverrideFloat(field *float64, envKey string) error {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return fmt.Errorf("invalid %s '%s': %w", envKey, val, err)
		}
		*field = parsed
	}
	return nil
}
