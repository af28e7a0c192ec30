package llm

import (
	"context"
	"fmt"

	"github.com/ppiankov/wellspring/internal/worker"
)

// RateLimitedProvider gates every Complete call on a shared limiter keyed by
// the provider name.
type RateLimitedProvider struct {
	Provider
	limiter *worker.Limiter
}

// WithRateLimit wraps p. A nil limiter returns p unchanged.
func WithRateLimit(p Provider, limiter *worker.Limiter) Provider {
	if limiter == nil {
		return p
	}
	return &RateLimitedProvider{Provider: p, limiter: limiter}
}

// Complete waits for a token and then delegates
func (r *RateLimitedProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	if err := r.limiter.Wait(ctx, r.Name()); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}
	return r.Provider.Complete(ctx, req)
}
