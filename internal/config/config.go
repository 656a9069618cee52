package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the process configuration. TransformTimeout bounds one record
// end to end; zero disables it.
type Config struct {
	Port             string
	Env              string
	Log              LogConfig
	LLM              LLMConfig
	Currency         CurrencyConfig
	Enrich           EnrichConfig
	TransformTimeout time.Duration
	Retry            RetryConfig
}

type LogConfig struct {
	Level  string
	Format string
}

type LLMConfig struct {
	Provider     string
	Model        string
	BaseURL      string
	RPS          float64
	Burst        int
	MaxAttempts  int
	APIKeySecret string
}

type CurrencyConfig struct {
	BaseURL      string
	APIKeySecret string
	CacheSize    int
	CacheTTL     time.Duration
}

// EnrichConfig selects the enrichment sources. Empty URLs select the
// in-memory sources, loaded from FixturesPath when set.
type EnrichConfig struct {
	ProductURL   string
	PricingURL   string
	FixturesPath string
	Timeout      time.Duration
}

type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	ProviderFake   = "fake"
)

// Load reads .env, the process environment and args. PORT in the
// environment wins over -port.
func Load(args []string) (*Config, error) {
	fs := flag.NewFlagSet("catalogd", flag.ContinueOnError)
	port := fs.String("port", ":8081", "server port")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	cfg, err := FromEnv()
	if err != nil {
		return nil, err
	}
	if cfg.Port == "" {
		cfg.Port = *port
	}
	return cfg, nil
}

// FromEnv builds a Config from .env and the environment only.
func FromEnv() (*Config, error) {
	_ = godotenv.Load()

	env := firstNonEmpty(getenv("APP_ENV"), "local")
	var errs []error
	cfg := &Config{
		Port: normalizePort(getenv("PORT")),
		Env:  env,
		Log: LogConfig{
			Level:  firstNonEmpty(getenv("LOG_LEVEL"), "info"),
			Format: firstNonEmpty(getenv("LOG_FORMAT"), defaultLogFormat(env)),
		},
		LLM: LLMConfig{
			Provider:    strings.ToLower(firstNonEmpty(getenv("LLM_PROVIDER"), defaultProvider(env))),
			Model:       getenv("LLM_MODEL"),
			BaseURL:     getenv("LLM_BASE_URL"),
			RPS:         parseFloat("LLM_RPS", 0, &errs),
			Burst:       parseInt("LLM_BURST", 1, &errs),
			MaxAttempts: parseInt("LLM_MAX_ATTEMPTS", 1, &errs),
		},
		Currency: CurrencyConfig{
			BaseURL:      getenv("CURRENCY_API_URL"),
			APIKeySecret: firstNonEmpty(getenv("CURRENCY_API_KEY_SECRET"), "currencyApiKey"),
			CacheSize:    parseInt("RATE_CACHE_SIZE", 256, &errs),
			CacheTTL:     parseDuration("RATE_CACHE_TTL", time.Hour, &errs),
		},
		Enrich: EnrichConfig{
			ProductURL:   getenv("PRODUCT_API_URL"),
			PricingURL:   getenv("PRICING_API_URL"),
			FixturesPath: getenv("ENRICH_FIXTURES"),
			Timeout:      parseDuration("UPSTREAM_TIMEOUT", 30*time.Second, &errs),
		},
		TransformTimeout: parseDuration("TRANSFORM_TIMEOUT", 0, &errs),
		Retry: RetryConfig{
			MaxAttempts: parseInt("RETRY_MAX_ATTEMPTS", 1, &errs),
			BaseDelay:   parseDuration("RETRY_BASE_DELAY", 200*time.Millisecond, &errs),
		},
	}
	cfg.LLM.APIKeySecret = firstNonEmpty(getenv("LLM_API_KEY_SECRET"), defaultKeySecret(cfg.LLM.Provider))

	switch cfg.LLM.Provider {
	case ProviderOpenAI, ProviderGemini, ProviderFake:
	default:
		errs = append(errs, fmt.Errorf("LLM_PROVIDER: unknown provider %q", cfg.LLM.Provider))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func getenv(key string) string { return strings.TrimSpace(os.Getenv(key)) }

func normalizePort(p string) string {
	if p == "" || strings.HasPrefix(p, ":") {
		return p
	}
	return ":" + p
}

func defaultKeySecret(provider string) string {
	if provider == ProviderGemini {
		return "GEMINI_API_KEY"
	}
	return "OPENAI_API_KEY"
}

func parseInt(key string, def int, errs *[]error) int {
	raw := getenv(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return v
}

func parseFloat(key string, def float64, errs *[]error) float64 {
	raw := getenv(key)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return v
}

func parseDuration(key string, def time.Duration, errs *[]error) time.Duration {
	raw := getenv(key)
	if raw == "" {
		return def
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
