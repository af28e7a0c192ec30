package generate

import (
	"context"
	"fmt"

	"github.com/ppiankov/wellspring/internal/dedup"
	"github.com/ppiankov/wellspring/internal/llm"
	"github.com/ppiankov/wellspring/internal/model"
	"github.com/ppiankov/wellspring/internal/worker"
)

// minPerCategory is the allocation floor for every category in a mixed run
const minPerCategory = 2

// Allocate splits total across categories. Each category gets
// max(2, total/n); the first total-per*n categories after a shuffle get one
// more. Below 2n the floor wins and the sum exceeds total.
func (e *Engine) Allocate(total int, categories []model.Category) map[model.Category]int {
	out := make(map[model.Category]int, len(categories))
	n := len(categories)
	if n == 0 {
		return out
	}

	per := total / n
	if per < minPerCategory {
		per = minPerCategory
	}
	remainder := total - per*n

	order := make([]model.Category, n)
	copy(order, categories)
	e.shuffle(n, func(i, j int) { order[i], order[j] = order[j], order[i] })

	for i, c := range order {
		out[c] = per
		if i < remainder {
			out[c]++
		}
	}
	return out
}

// ManyRequest asks for Total items spread across Categories
type ManyRequest struct {
	Total       int
	Categories  []model.Category
	Theme       model.Theme
	Translation string
}

// ManyResult is the merged outcome of a multi-category run
type ManyResult struct {
	Items        []model.Candidate
	Allocation   map[model.Category]int
	Distribution map[model.Category]int
	Failed       []model.Category // categories whose job errored or never ran
}

// categoryJob runs one single-shot generation for a category on the pool
type categoryJob struct {
	engine   *Engine
	baseline *dedup.Baseline
	category model.Category
	quota    int
	theme    model.Theme
	trans    string
}

type categoryResult struct {
	category model.Category
	items    []model.Candidate
	err      error
}

func (r *categoryResult) GetError() error { return r.err }

// Execute asks once for quota+Overflow candidates and keeps at most quota of
// those that pass the detector against this job's own run context.
func (j *categoryJob) Execute(ctx context.Context) worker.Result {
	res := &categoryResult{category: j.category}

	candidates, err := j.engine.gen.Generate(ctx, llm.GenerationPrompt{
		Category:    j.category,
		Count:       j.quota + j.engine.cfg.Overflow,
		Theme:       j.theme,
		Translation: j.trans,
	}, j.engine.cfg.BaseTemperature)
	if err != nil {
		res.err = fmt.Errorf("generate %s: %w", j.category, err)
		return res
	}

	rc := dedup.NewRunContext(j.baseline)
	for _, c := range candidates {
		if len(res.items) >= j.quota || ctx.Err() != nil {
			break
		}
		c.Category = j.category
		if v := j.engine.detector.Admit(ctx, rc, c); v.Accepted {
			res.items = append(res.items, c)
		}
	}
	return res
}

// GenerateMany fans out one job per category, all running concurrently over
// the shared baseline, then merges and shuffles the results and runs a
// sequential cross-category pass without the semantic judge.
func (e *Engine) GenerateMany(ctx context.Context, baseline *dedup.Baseline, req ManyRequest) ManyResult {
	categories := model.DistinctCategories(req.Categories)
	alloc := e.Allocate(req.Total, categories)
	res := ManyResult{
		Allocation:   alloc,
		Distribution: make(map[model.Category]int, len(alloc)),
	}
	if len(alloc) == 0 {
		return res
	}

	jobs := make([]worker.Job, 0, len(categories))
	for _, c := range categories {
		jobs = append(jobs, &categoryJob{
			engine:   e,
			baseline: baseline,
			category: c,
			quota:    alloc[c],
			theme:    req.Theme,
			trans:    req.Translation,
		})
	}

	var merged []model.Candidate
	for i, r := range worker.RunAll(ctx, len(jobs), jobs) {
		if r == nil {
			c := categories[i]
			e.logger.Warn("category job did not run", "category", c, "error", ctx.Err())
			res.Failed = append(res.Failed, c)
			continue
		}
		cr := r.(*categoryResult)
		if cr.err != nil {
			e.logger.Warn("category job failed", "category", cr.category, "error", cr.err)
			res.Failed = append(res.Failed, cr.category)
			continue
		}
		e.logger.Debug("category job finished", "category", cr.category, "accepted", len(cr.items), "allocated", alloc[cr.category])
		merged = append(merged, cr.items...)
	}

	e.shuffle(len(merged), func(i, j int) { merged[i], merged[j] = merged[j], merged[i] })

	global := dedup.NewRunContext(nil)
	noJudge := e.detector.WithoutJudge()
	for _, c := range merged {
		v := noJudge.Admit(ctx, global, c)
		if !v.Accepted {
			e.logger.Debug("cross-category duplicate dropped", "category", c.Category, "stage", v.Stage, "content", c.Content)
			continue
		}
		res.Items = append(res.Items, c)
		res.Distribution[c.Category]++
	}
	return res
}
