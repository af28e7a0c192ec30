// Package generate drives candidate generation through the duplicate
// detector until a quota is met or the generator stops producing new items.
package generate

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/ppiankov/wellspring/internal/dedup"
	"github.com/ppiankov/wellspring/internal/llm"
	"github.com/ppiankov/wellspring/internal/logging"
	"github.com/ppiankov/wellspring/internal/model"
)

// CandidateGenerator produces raw candidates for one prompt
type CandidateGenerator interface {
	Generate(ctx context.Context, prompt llm.GenerationPrompt, temperature float64) ([]model.Candidate, error)
}

// Engine owns the quota loop and the multi-category fan-out
type Engine struct {
	gen      CandidateGenerator
	detector *dedup.Detector
	cfg      model.GenerationConfig
	logger   *logging.Logger

	rngMu sync.Mutex
	rng   *rand.Rand
}

// EngineOption configures an Engine
type EngineOption func(*Engine)

// WithEngineLogger sets the engine logger
func WithEngineLogger(l *logging.Logger) EngineOption {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithSeed makes allocation and shuffling deterministic
func WithSeed(seed uint64) EngineOption {
	return func(e *Engine) {
		e.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
}

// NewEngine creates an engine. Zero-valued config fields take the defaults.
func NewEngine(gen CandidateGenerator, detector *dedup.Detector, cfg model.GenerationConfig, opts ...EngineOption) *Engine {
	e := &Engine{
		gen:      gen,
		detector: detector,
		cfg:      withDefaults(cfg),
		logger:   logging.Nop(),
	}
	now := uint64(time.Now().UnixNano())
	e.rng = rand.New(rand.NewPCG(now, now>>1))
	for _, opt := range opts {
		opt(e)
	}
	if e.detector == nil {
		e.detector = dedup.NewDetector()
	}
	return e
}

func withDefaults(cfg model.GenerationConfig) model.GenerationConfig {
	def := model.DefaultConfig().Generation
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.Buffer <= 0 {
		cfg.Buffer = def.Buffer
	}
	if cfg.SaturationLimit <= 0 {
		cfg.SaturationLimit = def.SaturationLimit
	}
	if cfg.Overflow <= 0 {
		cfg.Overflow = def.Overflow
	}
	if cfg.BaseTemperature <= 0 {
		cfg.BaseTemperature = def.BaseTemperature
	}
	if cfg.TemperatureStep <= 0 {
		cfg.TemperatureStep = def.TemperatureStep
	}
	if cfg.MaxTemperature <= 0 {
		cfg.MaxTemperature = def.MaxTemperature
	}
	if cfg.ExclusionLimit <= 0 {
		cfg.ExclusionLimit = def.ExclusionLimit
	}
	return cfg
}

// temperature for a zero-based attempt, capped at MaxTemperature
func (e *Engine) temperature(attempt int) float64 {
	t := e.cfg.BaseTemperature + float64(attempt)*e.cfg.TemperatureStep
	if t > e.cfg.MaxTemperature {
		t = e.cfg.MaxTemperature
	}
	return t
}

func (e *Engine) shuffle(n int, swap func(i, j int)) {
	e.rngMu.Lock()
	defer e.rngMu.Unlock()
	e.rng.Shuffle(n, swap)
}
