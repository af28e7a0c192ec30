package cli

import (
	"fmt"

	"github.com/ppiankov/wellspring/internal/cache"
	"github.com/ppiankov/wellspring/internal/dedup"
	"github.com/ppiankov/wellspring/internal/generate"
	"github.com/ppiankov/wellspring/internal/llm"
	"github.com/ppiankov/wellspring/internal/logging"
	"github.com/ppiankov/wellspring/internal/model"
	"github.com/ppiankov/wellspring/internal/store"
	"github.com/ppiankov/wellspring/internal/worker"
)

// newLogger builds the process logger from config
func newLogger(cfg *model.Config) (*logging.Logger, error) {
	log, err := logging.New(cfg.Log.Mode, cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("%w: logger: %v", model.ErrConfig, err)
	}
	return log, nil
}

// openStore opens the SQLite content store at cfg.Store.Path
func openStore(cfg *model.Config) (*store.SQLiteStore, error) {
	return store.NewSQLiteStore(cfg.Store.Path)
}

// buildService wires provider, rate limiter, generator, judge, detector and
// engine into a generation service writing to sink.
func buildService(cfg *model.Config, sink generate.Sink, log *logging.Logger) (*generate.Service, error) {
	llmCfg := llm.ConfigFromModel(cfg.LLM)
	provider, err := llm.NewProvider(llmCfg)
	if err != nil {
		return nil, err
	}
	provider = llm.WithRateLimit(provider, worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize))

	gen := llm.NewGenerator(provider, llmCfg.Model, cfg.LLM.MaxTokens)

	detOpts := []dedup.Option{
		dedup.WithJudgeMaxPrior(cfg.Dedup.JudgeMaxPrior),
		dedup.WithLogger(log.With("component", "dedup")),
	}
	if cfg.Dedup.SoftThreshold > 0 {
		detOpts = append(detOpts, dedup.WithSoftThreshold(cfg.Dedup.SoftThreshold))
	}
	if cfg.Dedup.JudgeEnabled {
		detOpts = append(detOpts, dedup.WithJudge(newJudge(cfg, provider, log)))
	}

	engine := generate.NewEngine(gen, dedup.NewDetector(detOpts...), cfg.Generation,
		generate.WithEngineLogger(log.With("component", "engine")))

	return generate.NewService(engine, sink, cfg.Generation,
		generate.WithAuthorizer(generate.NewRoleAuthorizer(cfg.Auth.AllowedRoles)),
		generate.WithServiceLogger(log.With("component", "service")),
	), nil
}

// newJudge builds the semantic judge, with a verdict cache when enabled
func newJudge(cfg *model.Config, provider llm.Provider, log *logging.Logger) *llm.SemanticJudge {
	judgeModel := cfg.LLM.JudgeModel
	if judgeModel == "" {
		judgeModel = cfg.LLM.Model
	}

	opts := []llm.JudgeOption{
		llm.WithJudgePolicy(cfg.Dedup.JudgePolicy),
		llm.WithJudgeLogger(log.With("component", "judge")),
	}
	if cfg.Cache.Enabled {
		c := cache.New(cfg.Cache.MemoryTTL, cfg.Cache.Dir, cfg.Cache.DiskTTL)
		// zero ttl lets each cache layer apply its own expiry
		opts = append(opts, llm.WithJudgeCache(c, 0))
	}
	return llm.NewSemanticJudge(provider, judgeModel, opts...)
}
