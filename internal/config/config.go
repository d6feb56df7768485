package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	ProviderAnthropic = "anthropic"
	ProviderBedrock   = "bedrock"
)

type Config struct {
	Port         string
	AgentAPIKeys map[string]struct{}

	AnthropicAPIKey    string
	AnthropicBaseURL   string
	AnthropicModel     string
	AnthropicVersion   string
	MaxTokens          int
	CompletionProvider string
	BedrockModelID     string
	AWSRegion          string
	MockMode           bool

	QueryEngineURL    string
	QueryEngineAPIKey string

	SurveyDataPath     string
	SurveyDatabaseURL  string
	SurveyTable        string
	SurveySampleColumn string

	CORSAllowedOrigins string
	HTTPTimeout        time.Duration
	LogLevel           string
	LogFormat          string
}

func parseCSVSet(v string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, part := range strings.Split(v, ",") {
		s := strings.TrimSpace(part)
		if s == "" {
			continue
		}
		out[s] = struct{}{}
	}
	return out
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8091")
	v.SetDefault("ANTHROPIC_BASE_URL", "https://api.anthropic.com")
	v.SetDefault("ANTHROPIC_MODEL", "claude-3-5-sonnet-20241022")
	v.SetDefault("ANTHROPIC_VERSION", "2023-06-01")
	v.SetDefault("MAX_TOKENS", 4000)
	v.SetDefault("COMPLETION_PROVIDER", ProviderAnthropic)
	v.SetDefault("SURVEY_TABLE", "survey_responses")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("HTTP_TIMEOUT", "30s")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
}

// Load reads .env (if present), an optional config.yaml and the environment,
// in increasing order of precedence.
func Load() (Config, error) {
	_ = godotenv.Load(".env")

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (Config, error) {
	str := func(key string) string { return strings.TrimSpace(v.GetString(key)) }

	cfg := Config{
		Port:               str("PORT"),
		AnthropicAPIKey:    str("ANTHROPIC_API_KEY"),
		AnthropicBaseURL:   str("ANTHROPIC_BASE_URL"),
		AnthropicModel:     str("ANTHROPIC_MODEL"),
		AnthropicVersion:   str("ANTHROPIC_VERSION"),
		MaxTokens:          v.GetInt("MAX_TOKENS"),
		CompletionProvider: strings.ToLower(str("COMPLETION_PROVIDER")),
		BedrockModelID:     str("BEDROCK_MODEL_ID"),
		AWSRegion:          str("AWS_REGION"),
		MockMode:           v.GetBool("MOCK_MODE"),
		QueryEngineURL:     str("QUERY_ENGINE_URL"),
		QueryEngineAPIKey:  str("QUERY_ENGINE_API_KEY"),
		SurveyDataPath:     str("SURVEY_DATA_PATH"),
		SurveyDatabaseURL:  str("SURVEY_DATABASE_URL"),
		SurveyTable:        str("SURVEY_TABLE"),
		SurveySampleColumn: str("SURVEY_SAMPLE_COLUMN"),
		CORSAllowedOrigins: str("CORS_ALLOWED_ORIGINS"),
		HTTPTimeout:        v.GetDuration("HTTP_TIMEOUT"),
		LogLevel:           strings.ToLower(str("LOG_LEVEL")),
		LogFormat:          strings.ToLower(str("LOG_FORMAT")),
	}
	cfg.AgentAPIKeys = parseCSVSet(str("AGENT_API_KEYS"))

	if cfg.Port == "" {
		return Config{}, errors.New("missing PORT")
	}
	if cfg.MaxTokens <= 0 {
		return Config{}, errors.New("MAX_TOKENS must be positive")
	}
	switch cfg.CompletionProvider {
	case ProviderAnthropic, ProviderBedrock:
	default:
		return Config{}, fmt.Errorf("unsupported COMPLETION_PROVIDER %q", cfg.CompletionProvider)
	}
	if cfg.HTTPTimeout <= 0 {
		return Config{}, errors.New("HTTP_TIMEOUT must be positive")
	}
	if cfg.SurveyDataPath != "" && cfg.SurveyDatabaseURL != "" {
		return Config{}, errors.New("set only one of SURVEY_DATA_PATH and SURVEY_DATABASE_URL")
	}
	if cfg.SurveyDatabaseURL != "" && cfg.SurveyTable == "" {
		return Config{}, errors.New("missing SURVEY_TABLE")
	}

	return cfg, nil
}
