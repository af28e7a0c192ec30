package llm

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"golang.org/x/sync/singleflight"

	"github.com/ppiankov/wellspring/internal/cache"
	"github.com/ppiankov/wellspring/internal/logging"
	"github.com/ppiankov/wellspring/internal/model"
)

const judgeCacheNamespace = "wellspring:judge:v1:"

var (
	verdictYes = []byte("YES")
	verdictNo  = []byte("NO")
)

// SemanticJudge asks an LLM whether a candidate restates a prior item.
// It satisfies dedup.Judge.
type SemanticJudge struct {
	provider Provider
	model    string
	cache    cache.Cache
	cacheTTL time.Duration
	policy   string
	logger   *logging.Logger
	group    singleflight.Group
}

// JudgeOption configures a SemanticJudge
type JudgeOption func(*SemanticJudge)

// WithJudgeCache caches verdicts. A nil cache disables caching.
func WithJudgeCache(c cache.Cache, ttl time.Duration) JudgeOption {
	return func(j *SemanticJudge) {
		j.cache = c
		j.cacheTTL = ttl
	}
}

// WithJudgePolicy sets the verdict used when the judge call fails
func WithJudgePolicy(policy string) JudgeOption {
	return func(j *SemanticJudge) { j.policy = policy }
}

// WithJudgeLogger sets the logger used for judge failures
func WithJudgeLogger(l *logging.Logger) JudgeOption {
	return func(j *SemanticJudge) {
		if l != nil {
			j.logger = l
		}
	}
}

// NewSemanticJudge creates a judge that defaults to fail-open with no cache
func NewSemanticJudge(p Provider, modelName string, opts ...JudgeOption) *SemanticJudge {
	j := &SemanticJudge{
		provider: p,
		model:    modelName,
		policy:   model.JudgePolicyFailOpen,
		logger:   logging.Nop(),
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// IsDuplicate applies the failure policy to Judge's result
func (j *SemanticJudge) IsDuplicate(ctx context.Context, candidate string, prior []string) bool {
	dup, err := j.Judge(ctx, candidate, prior)
	if err != nil {
		failClosed := j.policy == model.JudgePolicyFailClosed
		j.logger.Warn("semantic judge failed, applying policy",
			"policy", j.policy,
			"treated_as_duplicate", failClosed,
			"error", err,
		)
		return failClosed
	}
	return dup
}

// Judge returns the raw verdict. Failures wrap model.ErrSemanticJudge.
// Concurrent identical questions share one upstream call.
func (j *SemanticJudge) Judge(ctx context.Context, candidate string, prior []string) (bool, error) {
	if len(prior) == 0 {
		return false, nil
	}

	key := cache.Key(judgeCacheNamespace, append([]string{j.model, candidate}, prior...)...)
	if j.cache != nil {
		if v, ok := j.cache.Get(key); ok {
			return string(v) == string(verdictYes), nil
		}
	}

	v, err, _ := j.group.Do(key, func() (interface{}, error) {
		resp, err := j.provider.Complete(ctx, CompletionRequest{
			System:    judgeSystemPrompt,
			Prompt:    buildJudgePrompt(candidate, prior),
			Model:     j.model,
			MaxTokens: 5,
		})
		if err != nil {
			return false, fmt.Errorf("%w: %v", model.ErrSemanticJudge, err)
		}

		dup, err := parseVerdict(resp.Text)
		if err != nil {
			return false, err
		}

		if j.cache != nil {
			verdict := verdictNo
			if dup {
				verdict = verdictYes
			}
			if err := j.cache.Set(key, verdict, j.cacheTTL); err != nil {
				j.logger.Debug("judge cache write failed", "error", err)
			}
		}
		return dup, nil
	})
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}

// parseVerdict accepts answers such as "YES", "no.", "Yes, it is".
func parseVerdict(text string) (bool, error) {
	word := strings.FieldsFunc(strings.ToUpper(text), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	if len(word) > 0 {
		switch word[0] {
		case "YES":
			return true, nil
		case "NO":
			return false, nil
		}
	}
	return false, fmt.Errorf("%w: unexpected answer %q", model.ErrSemanticJudge, text)
}
