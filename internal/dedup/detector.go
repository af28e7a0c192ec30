package dedup

import (
	"context"
	"sort"

	"github.com/ppiankov/wellspring/internal/logging"
	"github.com/ppiankov/wellspring/internal/model"
)

// DefaultJudgeMaxPrior caps how many prior items are shown to the semantic judge
const DefaultJudgeMaxPrior = 25

// Judge decides whether a candidate restates one of the prior texts.
// Implementations own their failure policy and never return an error.
type Judge interface {
	IsDuplicate(ctx context.Context, candidate string, prior []string) bool
}

// Stage names the check that rejected a candidate
type Stage string

const (
	StageNone     Stage = ""
	StageInvalid  Stage = "invalid"
	StageExact    Stage = "exact"
	StageCitation Stage = "citation"
	StageSoft     Stage = "soft"
	StageSemantic Stage = "semantic"
)

// Verdict is the outcome of admitting one candidate
type Verdict struct {
	Accepted    bool
	Stage       Stage
	MatchedWith string // the existing item (or citation) that caused the rejection
}

// Detector composes the duplicate checks into a single accept/reject decision
type Detector struct {
	soft     *SoftMatcher
	judge    Judge
	maxPrior int
	logger   *logging.Logger
}

// Option configures a Detector
type Option func(*Detector)

// WithJudge enables the semantic stage for categories that use it
func WithJudge(j Judge) Option {
	return func(d *Detector) { d.judge = j }
}

// WithSoftThreshold overrides the soft-match overlap ratio
func WithSoftThreshold(threshold float64) Option {
	return func(d *Detector) { d.soft = NewSoftMatcher(threshold) }
}

// WithJudgeMaxPrior lowers how many prior items the judge sees. Values
// outside 1..DefaultJudgeMaxPrior are clamped.
func WithJudgeMaxPrior(n int) Option {
	return func(d *Detector) {
		if n > 0 {
			d.maxPrior = min(n, DefaultJudgeMaxPrior)
		}
	}
}

// WithLogger sets the detector logger
func WithLogger(l *logging.Logger) Option {
	return func(d *Detector) {
		if l != nil {
			d.logger = l
		}
	}
}

// NewDetector creates a detector. Without WithJudge the semantic stage is skipped.
func NewDetector(opts ...Option) *Detector {
	d := &Detector{
		soft:     NewSoftMatcher(DefaultSoftThreshold),
		maxPrior: DefaultJudgeMaxPrior,
		logger:   logging.Nop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// WithoutJudge returns a copy of the detector that skips the semantic stage
func (d *Detector) WithoutJudge() *Detector {
	cp := *d
	cp.judge = nil
	return &cp
}

// Admit checks the candidate against everything in rc. An accepted candidate
// is folded into rc before Admit returns, so the next call sees it.
func (d *Detector) Admit(ctx context.Context, rc *RunContext, c model.Candidate) Verdict {
	v := d.Check(ctx, rc, c)
	if v.Accepted {
		rc.Add(c)
	}
	return v
}

// Check runs the stages in order without mutating rc:
// exact content, citation key/overlap, soft match, semantic judge.
func (d *Detector) Check(ctx context.Context, rc *RunContext, c model.Candidate) Verdict {
	text := newEntryText(c.Content)
	if text.normalized == "" {
		return Verdict{Stage: StageInvalid}
	}

	if rc.hasContent(text.normalized) {
		return Verdict{Stage: StageExact, MatchedWith: text.normalized}
	}

	if c.Category.IsCitation() && c.Citation != "" {
		key := CitationKey(c.Citation)
		if rc.hasCitationKey(key) {
			return Verdict{Stage: StageCitation, MatchedWith: key}
		}
		if other := rc.overlapping(ParseCitation(c.Citation)); other != nil {
			return Verdict{Stage: StageCitation, MatchedWith: other.Key()}
		}
	}

	var softHit string
	rc.each(func(e *entry) bool {
		if d.soft.match(text, e.text) {
			softHit = e.raw
			return false
		}
		return true
	})
	if softHit != "" {
		return Verdict{Stage: StageSoft, MatchedWith: softHit}
	}

	if d.judge != nil && c.Category.IsSemantic() {
		prior := d.priorFor(rc, c.Category, text)
		if len(prior) > 0 && d.judge.IsDuplicate(ctx, c.Content, prior) {
			d.logger.Debug("semantic duplicate", "category", c.Category, "candidate", c.Content)
			return Verdict{Stage: StageSemantic}
		}
	}

	return Verdict{Accepted: true}
}

// priorFor picks the judge's comparison set: items accepted in this run
// (newest first), then baseline items of the same category ranked by shared
// significant words, then the rest of the baseline by the same ranking.
func (d *Detector) priorFor(rc *RunContext, category model.Category, text entryText) []string {
	prior := make([]string, 0, d.maxPrior)

	run := rc.run.entries
	for i := len(run) - 1; i >= 0 && len(prior) < d.maxPrior; i-- {
		prior = append(prior, run[i].raw)
	}
	if len(prior) >= d.maxPrior {
		return prior
	}

	type ranked struct {
		raw          string
		sameCategory bool
		shared       int
	}
	base := make([]ranked, 0, len(rc.base.entries))
	for _, e := range rc.base.entries {
		base = append(base, ranked{
			raw:          e.raw,
			sameCategory: e.category == category,
			shared:       sharedWords(text.significant, e.text.significant),
		})
	}
	sort.SliceStable(base, func(i, j int) bool {
		if base[i].sameCategory != base[j].sameCategory {
			return base[i].sameCategory
		}
		return base[i].shared > base[j].shared
	})
	for _, r := range base {
		if len(prior) >= d.maxPrior {
			break
		}
		prior = append(prior, r.raw)
	}
	return prior
}
