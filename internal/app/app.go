// Package app wires configuration into ready-to-run pipelines.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"catalognorm/internal/config"
	"catalognorm/internal/currency"
	"catalognorm/internal/enrich"
	"catalognorm/internal/extract"
	"catalognorm/internal/llm"
	llmclient "catalognorm/internal/llm/client"
	"catalognorm/internal/pipeline"
	"catalognorm/internal/secrets"
)

// DefaultGeminiModel is used when LLM_MODEL is unset and the provider is Gemini.
const DefaultGeminiModel = "gemini-2.5-flash"

// Pipeline names accepted by Transformer.
const (
	PipelineStandardize = "standardize"
	PipelineInventory   = "inventory"
)

type App struct {
	Config      *config.Config
	Log         *zap.Logger
	Usage       *llm.UsageMeter
	Standardize pipeline.Transformer
	Inventory   pipeline.Transformer

	llm llmclient.LLMClient
}

// New builds both pipelines from cfg. Credentials are read from src.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger, src secrets.Source) (*App, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if src == nil {
		src = secrets.EnvSource{}
	}

	base, model, err := newLLMClient(ctx, cfg.LLM, src)
	if err != nil {
		return nil, fmt.Errorf("failed to init completion client: %w", err)
	}
	usage := llm.NewUsageMeter()
	client := llm.Wrap(base, middlewares(cfg.LLM, usage, log)...)

	extractor := extract.New(client, model, extract.WithLogger(log))
	normalizer := currency.NewNormalizer(newRateProvider(cfg.Currency, cfg.Enrich, src, log), log)
	products, pricing, err := newEnrichSources(cfg.Enrich)
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to init enrichment sources: %w", err)
	}
	merger := enrich.NewMerger(products, pricing, log)

	policy := pipeline.Policy{MaxAttempts: cfg.Retry.MaxAttempts, BaseDelay: cfg.Retry.BaseDelay}
	decorate := func(t pipeline.Transformer) pipeline.Transformer {
		return pipeline.WithTimeout(pipeline.Retry(t, policy), cfg.TransformTimeout)
	}

	log.Info("pipelines ready",
		zap.String("llm", client.Name()),
		zap.Bool("staticProducts", cfg.Enrich.ProductURL == ""),
		zap.Bool("staticPricing", cfg.Enrich.PricingURL == ""),
		zap.String("fixtures", cfg.Enrich.FixturesPath),
		zap.Int("retryAttempts", cfg.Retry.MaxAttempts))

	return &App{
		Config:      cfg,
		Log:         log,
		Usage:       usage,
		Standardize: decorate(&pipeline.Standardize{Extractor: extractor, Normalizer: normalizer, Log: log}),
		Inventory:   decorate(&pipeline.Inventory{Merger: merger, Log: log}),
		llm:         client,
	}, nil
}

// Transformer returns the pipeline registered under name.
func (a *App) Transformer(name string) (pipeline.Transformer, bool) {
	switch name {
	case PipelineStandardize:
		return a.Standardize, true
	case PipelineInventory:
		return a.Inventory, true
	}
	return nil, false
}

// Close releases the completion client and stops its rate limiter.
func (a *App) Close() error {
	if a.llm == nil {
		return nil
	}
	return a.llm.Close()
}
