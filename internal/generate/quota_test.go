package generate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/wellspring/internal/dedup"
	"github.com/ppiankov/wellspring/internal/llm"
	"github.com/ppiankov/wellspring/internal/model"
)

func testConfig() model.GenerationConfig {
	return model.DefaultConfig().Generation
}

func contents(items []model.Candidate) []string {
	out := make([]string, 0, len(items))
	for _, c := range items {
		out = append(out, c.Content)
	}
	return out
}

func TestFillQuota_QuotaMet(t *testing.T) {
	gen := fresh()
	e := NewEngine(gen, dedup.NewDetector(), testConfig())

	res := e.FillQuota(context.Background(), dedup.NewRunContext(nil), QuotaRequest{
		Category: model.CategoryAffirmation,
		Count:    4,
	})

	assert.Equal(t, OutcomeQuotaMet, res.Outcome)
	assert.Len(t, res.Items, 4)
	assert.Equal(t, 1, res.Attempts)
	assert.False(t, res.Saturated)

	// remaining + buffer
	assert.Equal(t, 4+5, gen.calls[0].prompt.Count)
}

func TestFillQuota_BaselineScenario(t *testing.T) {
	baseline := dedup.NewBaseline([]model.BaselineItem{
		{Content: "I am capable and strong", Category: model.CategoryAffirmation},
	})
	gen := repeat("I am capable and strong.", "I am kind and brave", "I am capable and strong!")
	e := NewEngine(gen, dedup.NewDetector(), testConfig())

	res := e.FillQuota(context.Background(), dedup.NewRunContext(baseline), QuotaRequest{
		Category: model.CategoryAffirmation,
		Count:    3,
	})

	assert.Equal(t, []string{"I am kind and brave"}, contents(res.Items))
	assert.Equal(t, OutcomeExhausted, res.Outcome)
	// 2 rejections then 3 per attempt never reach 15 within 5 attempts
	assert.Equal(t, 5, res.Attempts)
	assert.False(t, res.Saturated)
}

func TestFillQuota_CitationOverlapScenario(t *testing.T) {
	baseline := dedup.NewBaseline([]model.BaselineItem{
		{Content: "The Lord is my shepherd", Category: model.CategoryBibleVerse, Citation: "Psalm 23:1-3"},
	})
	gen := &scriptedGenerator{fn: func(p llm.GenerationPrompt, _ int) ([]model.Candidate, error) {
		return []model.Candidate{
			{Content: "He makes me lie down in green pastures", Citation: "Psalm 23:2"},
			{Content: "Be still, and know that I am God", Citation: "Psalm 46:10"},
		}, nil
	}}
	e := NewEngine(gen, dedup.NewDetector(), testConfig())

	res := e.FillQuota(context.Background(), dedup.NewRunContext(baseline), QuotaRequest{
		Category: model.CategoryBibleVerse,
		Count:    1,
	})

	require.Len(t, res.Items, 1)
	assert.Equal(t, "Psalm 46:10", res.Items[0].Citation)
	assert.Equal(t, model.CategoryBibleVerse, res.Items[0].Category, "category is forced onto candidates")
	assert.Equal(t, OutcomeQuotaMet, res.Outcome)
}

func TestFillQuota_Saturation(t *testing.T) {
	baseline := dedup.NewBaseline([]model.BaselineItem{
		{Content: "Kindness costs nothing", Category: model.CategoryLifeLesson},
	})
	dups := make([]string, 20)
	for i := range dups {
		dups[i] = "Kindness costs nothing!"
	}
	e := NewEngine(repeat(dups...), dedup.NewDetector(), testConfig())

	res := e.FillQuota(context.Background(), dedup.NewRunContext(baseline), QuotaRequest{
		Category: model.CategoryLifeLesson,
		Count:    5,
	})

	assert.True(t, res.Saturated)
	assert.Equal(t, 1, res.Attempts, "15 consecutive rejections inside the first batch end the loop")
	assert.Empty(t, res.Items)
	assert.Equal(t, OutcomeExhausted, res.Outcome)
}

func TestFillQuota_SaturationCarriesAcrossAttempts(t *testing.T) {
	baseline := dedup.NewBaseline([]model.BaselineItem{
		{Content: "Rest is productive", Category: model.CategoryLifeLesson},
	})
	cfg := testConfig()
	cfg.SaturationLimit = 10
	e := NewEngine(repeat("Rest is productive", "rest is productive.", "REST IS PRODUCTIVE", "Rest, is productive"), dedup.NewDetector(), cfg)

	res := e.FillQuota(context.Background(), dedup.NewRunContext(baseline), QuotaRequest{
		Category: model.CategoryLifeLesson,
		Count:    2,
	})

	// 4 rejections per attempt: 4, 8, 12
	assert.True(t, res.Saturated)
	assert.Equal(t, 3, res.Attempts)
}

func TestFillQuota_AcceptanceResetsSaturation(t *testing.T) {
	baseline := dedup.NewBaseline([]model.BaselineItem{
		{Content: "Old news", Category: model.CategoryAffirmation},
	})
	cfg := testConfig()
	cfg.SaturationLimit = 3

	var next int
	gen := &scriptedGenerator{fn: func(p llm.GenerationPrompt, _ int) ([]model.Candidate, error) {
		// two duplicates then one new item, every call
		out := []model.Candidate{{Content: "Old news"}, {Content: "old news!"}, {Content: token(next)}}
		next++
		return out, nil
	}}
	e := NewEngine(gen, dedup.NewDetector(), cfg)

	res := e.FillQuota(context.Background(), dedup.NewRunContext(baseline), QuotaRequest{
		Category: model.CategoryAffirmation,
		Count:    4,
	})

	assert.False(t, res.Saturated)
	assert.Len(t, res.Items, 4)
	assert.Equal(t, 4, res.Attempts)
}

func TestFillQuota_GenerationErrorsCountAsAttempts(t *testing.T) {
	gen := failing()
	e := NewEngine(gen, dedup.NewDetector(), testConfig())

	res := e.FillQuota(context.Background(), dedup.NewRunContext(nil), QuotaRequest{
		Category: model.CategoryQuote,
		Count:    3,
	})

	assert.Equal(t, 5, res.Attempts)
	assert.Equal(t, 5, gen.callCount())
	assert.Empty(t, res.Items)
	assert.Equal(t, OutcomeExhausted, res.Outcome)
}

func TestFillQuota_RecoversAfterFailedAttempt(t *testing.T) {
	ok := fresh()
	gen := &scriptedGenerator{fn: func(p llm.GenerationPrompt, n int) ([]model.Candidate, error) {
		if n == 1 {
			return nil, model.ErrParse
		}
		return ok.fn(p, n)
	}}
	e := NewEngine(gen, dedup.NewDetector(), testConfig())

	res := e.FillQuota(context.Background(), dedup.NewRunContext(nil), QuotaRequest{
		Category: model.CategoryAffirmation,
		Count:    2,
	})

	assert.Equal(t, OutcomeQuotaMet, res.Outcome)
	assert.Equal(t, 2, res.Attempts)
}

func TestFillQuota_TemperatureAndExclusions(t *testing.T) {
	// one new item per call
	var next int
	gen := &scriptedGenerator{fn: func(p llm.GenerationPrompt, _ int) ([]model.Candidate, error) {
		next++
		return []model.Candidate{{Content: token(next)}}, nil
	}}
	cfg := testConfig()
	cfg.ExclusionLimit = 2
	e := NewEngine(gen, dedup.NewDetector(), cfg)

	res := e.FillQuota(context.Background(), dedup.NewRunContext(nil), QuotaRequest{
		Category:    model.CategoryBibleVerse,
		Count:       10,
		Theme:       model.ThemeHope,
		Translation: "ESV",
	})
	require.Equal(t, 5, res.Attempts)
	require.Len(t, gen.calls, 5)

	wantTemps := []float64{0.8, 0.9, 1.0, 1.1, 1.2}
	for i, c := range gen.calls {
		assert.InDelta(t, wantTemps[i], c.temperature, 1e-9, "attempt %d", i)
		assert.Equal(t, 10-i+5, c.prompt.Count, "attempt %d asks for remaining+buffer", i)
		assert.Equal(t, model.ThemeHope, c.prompt.Theme)
		assert.Equal(t, "ESV", c.prompt.Translation)
	}

	assert.Empty(t, gen.calls[0].prompt.Exclusions)
	assert.Equal(t, []string{token(2), token(3)}, gen.calls[3].prompt.Exclusions, "only the most recent ExclusionLimit items")
}

func TestFillQuota_TemperatureCapped(t *testing.T) {
	cfg := testConfig()
	cfg.TemperatureStep = 0.5
	e := NewEngine(fresh(), nil, cfg)

	assert.InDelta(t, 0.8, e.temperature(0), 1e-9)
	assert.InDelta(t, 1.2, e.temperature(1), 1e-9)
	assert.InDelta(t, 1.2, e.temperature(4), 1e-9)
}

func TestFillQuota_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	gen := fresh()
	res := NewEngine(gen, nil, testConfig()).FillQuota(ctx, dedup.NewRunContext(nil), QuotaRequest{
		Category: model.CategoryAffirmation,
		Count:    3,
	})

	assert.Equal(t, 0, gen.callCount())
	assert.Equal(t, OutcomeExhausted, res.Outcome)
}

func TestFillQuota_NoDuplicatesInRun(t *testing.T) {
	// The generator keeps repeating itself with cosmetic variations.
	gen := repeat("Hope anchors the soul", "hope anchors the soul!", "Joy comes in the morning", "JOY comes in the morning.")
	res := NewEngine(gen, nil, testConfig()).FillQuota(context.Background(), dedup.NewRunContext(nil), QuotaRequest{
		Category: model.CategoryAffirmation,
		Count:    5,
	})

	seen := make(map[string]bool)
	for _, c := range res.Items {
		n := dedup.Normalize(c.Content)
		assert.False(t, seen[n], "duplicate %q", c.Content)
		seen[n] = true
	}
	assert.Len(t, res.Items, 2)
}
