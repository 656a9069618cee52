package config

import (
	"testing"
	"time"

	"catalognorm/internal/tester"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PORT", "APP_ENV", "LOG_LEVEL", "LOG_FORMAT", "LLM_PROVIDER", "LLM_MODEL", "LLM_BASE_URL",
		"LLM_RPS", "LLM_BURST", "LLM_MAX_ATTEMPTS", "LLM_API_KEY_SECRET", "CURRENCY_API_URL",
		"CURRENCY_API_KEY_SECRET", "RATE_CACHE_SIZE", "RATE_CACHE_TTL", "PRODUCT_API_URL",
		"PRICING_API_URL", "ENRICH_FIXTURES", "UPSTREAM_TIMEOUT", "TRANSFORM_TIMEOUT", "RETRY_MAX_ATTEMPTS", "RETRY_BASE_DELAY",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_LocalDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(nil)
	tester.NoErr(t, err)

	tester.Eq(t, cfg.Port, ":8081")
	tester.Eq(t, cfg.Env, "local")
	tester.Eq(t, cfg.LLM.Provider, ProviderFake)
	tester.Eq(t, cfg.LLM.MaxAttempts, 1)
	tester.Eq(t, cfg.Log.Format, "console")
	tester.Eq(t, cfg.Currency.APIKeySecret, "currencyApiKey")
	tester.Eq(t, cfg.Currency.CacheSize, 256)
	tester.Eq(t, cfg.Currency.CacheTTL, time.Hour)
	tester.Eq(t, cfg.Enrich.ProductURL, "")
	tester.Eq(t, cfg.TransformTimeout, time.Duration(0))
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("APP_ENV", "production")
	t.Setenv("LLM_PROVIDER", "Gemini")
	t.Setenv("LLM_RPS", "2.5")
	t.Setenv("RATE_CACHE_TTL", "10m")
	t.Setenv("RETRY_MAX_ATTEMPTS", "3")

	cfg, err := Load([]string{"-port", ":7000"})
	tester.NoErr(t, err)

	tester.Eq(t, cfg.Port, ":9090")
	tester.Eq(t, cfg.LLM.Provider, ProviderGemini)
	tester.Eq(t, cfg.LLM.APIKeySecret, "GEMINI_API_KEY")
	tester.Eq(t, cfg.LLM.RPS, 2.5)
	tester.Eq(t, cfg.Log.Format, "json")
	tester.Eq(t, cfg.Currency.CacheTTL, 10*time.Minute)
	tester.Eq(t, cfg.Retry.MaxAttempts, 3)
}

func TestLoad_PortFlag(t *testing.T) {
	clearEnv(t)
	cfg, err := Load([]string{"-port", ":7000"})
	tester.NoErr(t, err)
	tester.Eq(t, cfg.Port, ":7000")
}

func TestLoad_Invalid(t *testing.T) {
	clearEnv(t)
	t.Setenv("LLM_PROVIDER", "claude")
	t.Setenv("LLM_BURST", "many")
	_, err := Load(nil)
	tester.True(t, err != nil)
	tester.Contains(t, err.Error(), "LLM_PROVIDER")
	tester.Contains(t, err.Error(), "LLM_BURST")
}
