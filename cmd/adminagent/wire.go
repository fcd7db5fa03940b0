package main

import (
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/storekit/adminagent/collab"
	"github.com/storekit/adminagent/config"
	"github.com/storekit/adminagent/confirm"
	"github.com/storekit/adminagent/executors"
	"github.com/storekit/adminagent/logger"
	promexporter "github.com/storekit/adminagent/metrics/prometheus"
	"github.com/storekit/adminagent/policy"
	"github.com/storekit/adminagent/store"
	"github.com/storekit/adminagent/tools"
	"github.com/storekit/adminagent/validation"
	"github.com/storekit/adminagent/workflow"
)

// agent bundles everything a command needs.
type agent struct {
	cfg          *config.Config
	catalog      *store.Catalog
	orchestrator *workflow.Orchestrator
}

// buildAgent wires the pipeline from configuration. The OpenAI-compatible
// API key is read from the environment by the client library.
func buildAgent(cfg *config.Config) (*agent, error) {
	catalog := store.OpenCatalog(store.CatalogSettings{
		SeedDir:    cfg.Data.SeedDir,
		WorkingDir: cfg.Data.WorkingDir,
		Dynamic:    cfg.Data.Dynamic,
		CacheTTL:   cfg.Data.CacheTTL,
	})

	registry, err := tools.CatalogRegistry(catalog)
	if err != nil {
		return nil, err
	}

	modelOpts := []openai.Option{}
	if cfg.LLM.Model != "" {
		modelOpts = append(modelOpts, openai.WithModel(cfg.LLM.Model))
	}
	if cfg.LLM.BaseURL != "" {
		modelOpts = append(modelOpts, openai.WithBaseURL(cfg.LLM.BaseURL))
	}
	model, err := openai.New(modelOpts...)
	if err != nil {
		return nil, fmt.Errorf("creating model client: %w", err)
	}

	extractor, err := collab.NewLLMExtractor(model, registry,
		collab.WithMaxToolRounds(cfg.LLM.MaxToolRounds),
		collab.WithExtractorRateLimit(cfg.LLM.RequestsPerMinute),
	)
	if err != nil {
		return nil, err
	}
	explainer := collab.NewLLMExplainer(model,
		collab.WithExplainerRateLimit(cfg.LLM.RequestsPerMinute))

	rules := make([]policy.CustomRule, len(cfg.Policy.CustomRules))
	for i, r := range cfg.Policy.CustomRules {
		rules[i] = policy.CustomRule{Name: r.Name, Expr: r.Expr, Reason: r.Reason}
	}
	engine, err := policy.NewEngine(policy.Options{
		ConfidenceThreshold:     cfg.Policy.ConfidenceThreshold,
		PriceDeviationThreshold: cfg.Policy.PriceDeviationThreshold,
		RiskScoreThreshold:      cfg.Policy.RiskScoreThreshold,
		CustomRules:             rules,
	})
	if err != nil {
		return nil, err
	}

	pending, err := buildPendingStore(cfg)
	if err != nil {
		return nil, err
	}

	opts := []workflow.Option{
		workflow.WithExplainTimeout(cfg.Explain.Timeout),
	}
	if cfg.Metrics.Enabled {
		opts = append(opts, workflow.WithObserver(promexporter.NewObserver()))
	}

	orchestrator, err := workflow.New(workflow.Deps{
		Extractor: extractor,
		Explainer: explainer,
		Validator: validation.NewStage(catalog,
			validation.WithDeviationThreshold(cfg.Policy.PriceDeviationThreshold)),
		Policy:    engine,
		Executors: executors.NewRegistry(catalog),
		Pending:   pending,
	}, opts...)
	if err != nil {
		return nil, err
	}

	return &agent{cfg: cfg, catalog: catalog, orchestrator: orchestrator}, nil
}

func buildPendingStore(cfg *config.Config) (confirm.Store, error) {
	switch cfg.Confirm.Backend {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Confirm.Redis.Addr,
			Password: cfg.Confirm.Redis.Password,
			DB:       cfg.Confirm.Redis.DB,
		})
		return confirm.NewRedisStore(client,
			confirm.WithTTL(cfg.Confirm.TTL),
			confirm.WithPrefix(cfg.Confirm.Redis.Prefix),
		), nil
	case "memory", "":
		return confirm.NewMemoryStore(confirm.WithMemoryTTL(cfg.Confirm.TTL)), nil
	default:
		return nil, fmt.Errorf("unknown confirmation backend %q", cfg.Confirm.Backend)
	}
}

// startMetrics launches the Prometheus exporter when enabled.
func startMetrics(cfg *config.Config) {
	if !cfg.Metrics.Enabled {
		return
	}
	exporter := promexporter.New(cfg.Metrics.Addr)
	go func() {
		if err := exporter.Start(); err != nil {
			logger.Error("metrics exporter stopped", "error", err)
		}
	}()
	logger.Info("metrics exporter listening", "addr", cfg.Metrics.Addr)
}
