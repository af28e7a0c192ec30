package generate

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/wellspring/internal/dedup"
	"github.com/ppiankov/wellspring/internal/llm"
	"github.com/ppiankov/wellspring/internal/model"
)

func sum(m map[model.Category]int) int {
	total := 0
	for _, v := range m {
		total += v
	}
	return total
}

func TestAllocate(t *testing.T) {
	four := []model.Category{
		model.CategoryAffirmation,
		model.CategoryQuote,
		model.CategoryGratitudePrompt,
		model.CategoryLifeLesson,
	}

	tests := []struct {
		name       string
		total      int
		categories []model.Category
		wantSum    int
		wantMin    int
		wantMax    int
	}{
		{"even split", 8, four, 8, 2, 2},
		{"remainder spread", 10, four, 10, 2, 3},
		{"floor wins below 2n", 3, four, 8, 2, 2},
		{"large", 101, four, 101, 25, 26},
		{"single category", 7, []model.Category{model.CategoryQuote}, 7, 7, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEngine(fresh(), nil, testConfig(), WithSeed(42))
			got := e.Allocate(tt.total, tt.categories)

			assert.Len(t, got, len(tt.categories))
			assert.Equal(t, tt.wantSum, sum(got))
			for c, n := range got {
				assert.GreaterOrEqual(t, n, tt.wantMin, "category %s", c)
				assert.LessOrEqual(t, n, tt.wantMax, "category %s", c)
			}
		})
	}
}

func TestAllocate_Empty(t *testing.T) {
	e := NewEngine(fresh(), nil, testConfig())
	assert.Empty(t, e.Allocate(10, nil))
}

func TestAllocate_RemainderVariesWithSeed(t *testing.T) {
	cats := model.Categories()
	seen := make(map[model.Category]bool)
	for seed := uint64(0); seed < 50; seed++ {
		alloc := NewEngine(fresh(), nil, testConfig(), WithSeed(seed)).Allocate(len(cats)*3+1, cats)
		for c, n := range alloc {
			if n == 4 {
				seen[c] = true
			}
		}
	}
	assert.Greater(t, len(seen), 1, "the extra item should not always land on the same category")
}

func TestGenerateMany_Distribution(t *testing.T) {
	cats := []model.Category{model.CategoryAffirmation, model.CategoryQuote, model.CategoryBibleVerse}
	gen := fresh()
	e := NewEngine(gen, dedup.NewDetector(), testConfig(), WithSeed(7))

	res := e.GenerateMany(context.Background(), dedup.NewBaseline(nil), ManyRequest{
		Total:      9,
		Categories: cats,
		Theme:      model.ThemePeace,
	})

	assert.Len(t, res.Items, 9)
	assert.Empty(t, res.Failed)
	for _, c := range cats {
		assert.Equal(t, 3, res.Allocation[c])
		assert.Equal(t, 3, res.Distribution[c])
	}
	assert.Equal(t, len(res.Items), sum(res.Distribution))

	// one single-shot call per category, asking for quota + overflow
	require.Equal(t, 3, gen.callCount())
	for _, c := range gen.calls {
		assert.Equal(t, 3+3, c.prompt.Count)
		assert.InDelta(t, 0.8, c.temperature, 1e-9)
		assert.Equal(t, model.ThemePeace, c.prompt.Theme)
	}
}

func TestGenerateMany_CrossCategoryDuplicateDropped(t *testing.T) {
	gen := &scriptedGenerator{fn: func(p llm.GenerationPrompt, _ int) ([]model.Candidate, error) {
		own := fmt.Sprintf("%s only", token(len(p.Category)))
		if p.Category == model.CategoryLifeLesson {
			own = "unique lesson text"
		}
		return []model.Candidate{{Content: "Shared wisdom for everyone"}, {Content: own}}, nil
	}}
	e := NewEngine(gen, dedup.NewDetector(), testConfig(), WithSeed(1))

	res := e.GenerateMany(context.Background(), dedup.NewBaseline(nil), ManyRequest{
		Total:      4,
		Categories: []model.Category{model.CategoryAffirmation, model.CategoryLifeLesson},
	})

	shared := 0
	for _, c := range res.Items {
		if c.Content == "Shared wisdom for everyone" {
			shared++
		}
	}
	assert.Equal(t, 1, shared, "the global pass keeps only the first copy")
	assert.Len(t, res.Items, 3)
	assert.Equal(t, 3, sum(res.Distribution))
}

func TestGenerateMany_BaselineShared(t *testing.T) {
	baseline := dedup.NewBaseline([]model.BaselineItem{
		{Content: "Gratitude turns what we have into enough", Category: model.CategoryQuote},
	})
	gen := &scriptedGenerator{fn: func(p llm.GenerationPrompt, n int) ([]model.Candidate, error) {
		return []model.Candidate{
			{Content: "Gratitude turns what we have into enough."},
			{Content: token(n)},
		}, nil
	}}
	e := NewEngine(gen, dedup.NewDetector(), testConfig())

	res := e.GenerateMany(context.Background(), baseline, ManyRequest{
		Total:      4,
		Categories: []model.Category{model.CategoryQuote, model.CategoryGratitudePrompt},
	})

	for _, c := range res.Items {
		assert.NotEqual(t, "Gratitude turns what we have into enough.", c.Content)
	}
	assert.Len(t, res.Items, 2)
}

func TestGenerateMany_JudgeOnlyInsideJobs(t *testing.T) {
	judge := &alwaysDuplicate{}
	e := NewEngine(fresh(), dedup.NewDetector(dedup.WithJudge(judge)), testConfig(), WithSeed(3))

	res := e.GenerateMany(context.Background(), dedup.NewBaseline(nil), ManyRequest{
		Total:      4,
		Categories: []model.Category{model.CategoryAffirmation, model.CategoryGratitudePrompt},
	})

	// The first candidate of each job has no prior to compare against; every
	// later one is flagged. The global pass never consults the judge.
	assert.Len(t, res.Items, 2)
	assert.Equal(t, 1, res.Distribution[model.CategoryAffirmation])
	assert.Equal(t, 1, res.Distribution[model.CategoryGratitudePrompt])

	judge.mu.Lock()
	defer judge.mu.Unlock()
	assert.Equal(t, 2*(2+3-1), judge.calls)
}

func TestGenerateMany_FailedJobContributesNothing(t *testing.T) {
	ok := fresh()
	gen := &scriptedGenerator{fn: func(p llm.GenerationPrompt, n int) ([]model.Candidate, error) {
		if p.Category == model.CategoryQuote {
			return nil, fmt.Errorf("%w: bad json", model.ErrParse)
		}
		return ok.fn(p, n)
	}}
	e := NewEngine(gen, dedup.NewDetector(), testConfig())

	res := e.GenerateMany(context.Background(), dedup.NewBaseline(nil), ManyRequest{
		Total:      6,
		Categories: []model.Category{model.CategoryQuote, model.CategoryAffirmation, model.CategoryLifeLesson},
	})

	assert.Equal(t, []model.Category{model.CategoryQuote}, res.Failed)
	assert.Zero(t, res.Distribution[model.CategoryQuote])
	assert.Len(t, res.Items, 4)
}

func TestGenerateMany_NoCategories(t *testing.T) {
	gen := fresh()
	res := NewEngine(gen, nil, testConfig()).GenerateMany(context.Background(), nil, ManyRequest{Total: 5})

	assert.Empty(t, res.Items)
	assert.Zero(t, gen.callCount())
}

func TestGenerateMany_RepeatedCategoriesCollapse(t *testing.T) {
	gen := fresh()
	e := NewEngine(gen, dedup.NewDetector(), testConfig())

	res := e.GenerateMany(context.Background(), dedup.NewBaseline(nil), ManyRequest{
		Total:      10,
		Categories: []model.Category{model.CategoryAffirmation, model.CategoryAffirmation},
	})

	assert.Equal(t, map[model.Category]int{model.CategoryAffirmation: 10}, res.Allocation)
	assert.Equal(t, 1, gen.callCount(), "one job per distinct category")
	assert.Len(t, res.Items, 10)
}

func TestGenerateMany_CancelledRunMarksEveryCategoryFailed(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	gen := fresh()
	cats := []model.Category{model.CategoryQuote, model.CategoryAffirmation}
	res := NewEngine(gen, dedup.NewDetector(), testConfig()).GenerateMany(ctx, dedup.NewBaseline(nil), ManyRequest{
		Total:      4,
		Categories: cats,
	})

	assert.Equal(t, cats, res.Failed)
	assert.Empty(t, res.Items)
	assert.Zero(t, gen.callCount())
}
