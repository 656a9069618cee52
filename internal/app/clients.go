package app

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"catalognorm/internal/config"
	"catalognorm/internal/currency"
	"catalognorm/internal/enrich"
	"catalognorm/internal/extract"
	"catalognorm/internal/llm"
	llmclient "catalognorm/internal/llm/client"
	"catalognorm/internal/secrets"
)

func newLLMClient(ctx context.Context, cfg config.LLMConfig, src secrets.Source) (llmclient.LLMClient, string, error) {
	model := strings.TrimSpace(cfg.Model)
	switch cfg.Provider {
	case config.ProviderFake:
		return llmclient.NewFakeClient(), firstNonEmpty(model, extract.DefaultModel), nil
	case config.ProviderGemini:
		key, err := src.Secret(cfg.APIKeySecret)
		if err != nil {
			return nil, "", err
		}
		model = firstNonEmpty(model, DefaultGeminiModel)
		c, err := llmclient.NewGeminiClient(ctx, key, model)
		if err != nil {
			return nil, "", err
		}
		return c, model, nil
	default:
		key, err := src.Secret(cfg.APIKeySecret)
		if err != nil {
			return nil, "", err
		}
		model = firstNonEmpty(model, extract.DefaultModel)
		return llmclient.NewOpenAIClient(llmclient.OpenAIOptions{
			APIKey:  key,
			Model:   model,
			BaseURL: cfg.BaseURL,
		}), model, nil
	}
}

// middlewares orders the chain outermost first. Retry sits next to the
// provider client so it can read rate-limit headers.
func middlewares(cfg config.LLMConfig, usage *llm.UsageMeter, log *zap.Logger) []llm.Middleware {
	mws := []llm.Middleware{
		llm.WithUsage(usage),
		llm.WithHooks(),
		llm.WithLogging(log),
	}
	if cfg.RPS > 0 {
		mws = append(mws, llm.RateLimit(cfg.RPS, cfg.Burst))
	}
	if cfg.MaxAttempts > 1 {
		mws = append(mws, llm.Retry(cfg.MaxAttempts, 0))
	}
	return mws
}

func newRateProvider(cfg config.CurrencyConfig, up config.EnrichConfig, src secrets.Source, log *zap.Logger) currency.RateProvider {
	key := secrets.Optional(src, cfg.APIKeySecret)
	if key == "" {
		log.Warn("exchange-rate API key not set; foreign prices will fall back to null",
			zap.String("secret", cfg.APIKeySecret))
	}
	client := currency.NewCurrencyAPIClient(currency.ClientOptions{
		BaseURL: cfg.BaseURL,
		APIKey:  key,
		Timeout: up.Timeout,
	})
	return currency.NewCachedProvider(client, cfg.CacheSize, cfg.CacheTTL)
}

// samplePrice answers every identifier in local mode without fixtures.
const samplePrice = 149.99

// newEnrichSources picks HTTP sources for configured URLs and in-memory
// sources otherwise.
func newEnrichSources(cfg config.EnrichConfig) (enrich.ProductSource, enrich.PricingSource, error) {
	price := samplePrice
	staticProducts := enrich.StaticProducts{Default: enrich.SampleProduct()}
	staticPricing := enrich.StaticPricing{Default: &price}
	if cfg.FixturesPath != "" && (cfg.ProductURL == "" || cfg.PricingURL == "") {
		var err error
		staticProducts, staticPricing, err = enrich.LoadFixtures(cfg.FixturesPath)
		if err != nil {
			return nil, nil, err
		}
	}

	var products enrich.ProductSource = staticProducts
	if cfg.ProductURL != "" {
		products = enrich.NewProductClient(enrich.SourceOptions{BaseURL: cfg.ProductURL, Timeout: cfg.Timeout})
	}
	var pricing enrich.PricingSource = staticPricing
	if cfg.PricingURL != "" {
		pricing = enrich.NewPricingClient(enrich.SourceOptions{BaseURL: cfg.PricingURL, Timeout: cfg.Timeout})
	}
	return products, pricing, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
