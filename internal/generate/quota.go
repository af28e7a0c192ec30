package generate

import (
	"context"

	"github.com/ppiankov/wellspring/internal/dedup"
	"github.com/ppiankov/wellspring/internal/llm"
	"github.com/ppiankov/wellspring/internal/model"
)

// Outcome describes how a quota run ended. Both outcomes are successes.
type Outcome string

const (
	OutcomeQuotaMet  Outcome = "quota_met"
	OutcomeExhausted Outcome = "exhausted"
)

// QuotaRequest asks for Count unique items of one category
type QuotaRequest struct {
	Category    model.Category
	Count       int
	Theme       model.Theme
	Translation string
}

// QuotaResult is what FillQuota collected
type QuotaResult struct {
	Items     []model.Candidate
	Outcome   Outcome
	Attempts  int
	Saturated bool // stopped after SaturationLimit consecutive rejections
}

// FillQuota repeatedly asks the generator for remaining+Buffer candidates
// and admits them one at a time through the detector. It stops when Count
// items are collected, after MaxAttempts generation calls, after
// SaturationLimit consecutive rejections (counted across attempts), or when
// ctx is done. Accepted items are folded into rc.
func (e *Engine) FillQuota(ctx context.Context, rc *dedup.RunContext, req QuotaRequest) QuotaResult {
	log := e.logger.With("category", req.Category)
	res := QuotaResult{Outcome: OutcomeExhausted}
	consecutive := 0

	for attempt := 0; attempt < e.cfg.MaxAttempts && len(res.Items) < req.Count; attempt++ {
		if ctx.Err() != nil {
			log.Warn("quota loop stopped", "reason", ctx.Err(), "collected", len(res.Items))
			break
		}

		remaining := req.Count - len(res.Items)
		temp := e.temperature(attempt)
		res.Attempts++

		candidates, err := e.gen.Generate(ctx, llm.GenerationPrompt{
			Category:    req.Category,
			Count:       remaining + e.cfg.Buffer,
			Theme:       req.Theme,
			Translation: req.Translation,
			Exclusions:  recent(rc.Accepted(), e.cfg.ExclusionLimit),
		}, temp)
		if err != nil {
			log.Warn("generation attempt failed", "attempt", res.Attempts, "error", err)
			continue
		}

		accepted, rejected := 0, 0
		for _, c := range candidates {
			if len(res.Items) >= req.Count {
				break
			}
			c.Category = req.Category

			v := e.detector.Admit(ctx, rc, c)
			if v.Accepted {
				res.Items = append(res.Items, c)
				consecutive = 0
				accepted++
				continue
			}

			rejected++
			consecutive++
			log.Debug("candidate rejected", "stage", v.Stage, "content", c.Content, "matched", v.MatchedWith)
			if consecutive >= e.cfg.SaturationLimit {
				res.Saturated = true
				break
			}
		}

		log.Debug("attempt finished",
			"attempt", res.Attempts,
			"temperature", temp,
			"returned", len(candidates),
			"accepted", accepted,
			"rejected", rejected,
		)

		if res.Saturated {
			log.Info("generator saturated", "consecutive_rejections", consecutive, "collected", len(res.Items))
			break
		}
	}

	if len(res.Items) >= req.Count {
		res.Outcome = OutcomeQuotaMet
	}
	return res
}

// recent returns the last n entries of items
func recent(items []string, n int) []string {
	if n <= 0 || len(items) <= n {
		return items
	}
	return items[len(items)-n:]
}
