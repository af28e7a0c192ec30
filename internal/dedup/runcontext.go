package dedup

import (
	"github.com/ppiankov/wellspring/internal/model"
)

// entry is one known item as seen by the detector
type entry struct {
	raw      string
	category model.Category
	text     entryText
	citation *Citation
	fromRun  bool
}

// index holds the lookup structures for a set of entries
type index struct {
	contents     map[string]struct{}
	citationKeys map[string]struct{}
	citations    map[chapterKey][]*Citation
	entries      []entry
}

func newIndex() *index {
	return &index{
		contents:     make(map[string]struct{}),
		citationKeys: make(map[string]struct{}),
		citations:    make(map[chapterKey][]*Citation),
	}
}

func (ix *index) add(e entry, citationRaw string) {
	if e.text.normalized != "" {
		ix.contents[e.text.normalized] = struct{}{}
	}
	if citationRaw != "" {
		ix.citationKeys[CitationKey(citationRaw)] = struct{}{}
	}
	if e.citation != nil {
		k := e.citation.chapterKey()
		ix.citations[k] = append(ix.citations[k], e.citation)
	}
	ix.entries = append(ix.entries, e)
}

func newEntry(c model.Candidate, fromRun bool) entry {
	return entry{
		raw:      c.Content,
		category: c.Category,
		text:     newEntryText(c.Content),
		citation: ParseCitation(c.Citation),
		fromRun:  fromRun,
	}
}

// Baseline is the read-only index of historical items. It is built once and
// may be shared by any number of concurrent RunContexts.
type Baseline struct {
	ix *index
}

// NewBaseline indexes the historical corpus, archived items included
func NewBaseline(items []model.BaselineItem) *Baseline {
	ix := newIndex()
	for _, it := range items {
		c := it.Candidate()
		ix.add(newEntry(c, false), c.Citation)
	}
	return &Baseline{ix: ix}
}

// Len returns the number of baseline items
func (b *Baseline) Len() int {
	if b == nil {
		return 0
	}
	return len(b.ix.entries)
}

// RunContext is the mutable, run-scoped set of accepted keys layered over a
// shared baseline. It is not safe for concurrent use; each sequential loop
// owns its own RunContext.
type RunContext struct {
	base *index
	run  *index
}

// NewRunContext creates an empty run context over the baseline (which may be nil)
func NewRunContext(b *Baseline) *RunContext {
	base := newIndex()
	if b != nil {
		base = b.ix
	}
	return &RunContext{base: base, run: newIndex()}
}

// Add folds an accepted candidate into the run context
func (rc *RunContext) Add(c model.Candidate) {
	rc.run.add(newEntry(c, true), c.Citation)
}

// Accepted returns the contents accepted in this run, oldest first
func (rc *RunContext) Accepted() []string {
	out := make([]string, 0, len(rc.run.entries))
	for _, e := range rc.run.entries {
		out = append(out, e.raw)
	}
	return out
}

// Len returns the number of items accepted in this run
func (rc *RunContext) Len() int {
	return len(rc.run.entries)
}

func (rc *RunContext) hasContent(normalized string) bool {
	if _, ok := rc.run.contents[normalized]; ok {
		return true
	}
	_, ok := rc.base.contents[normalized]
	return ok
}

func (rc *RunContext) hasCitationKey(key string) bool {
	if _, ok := rc.run.citationKeys[key]; ok {
		return true
	}
	_, ok := rc.base.citationKeys[key]
	return ok
}

// overlapping returns the first known citation overlapping c
func (rc *RunContext) overlapping(c *Citation) *Citation {
	if c == nil {
		return nil
	}
	k := c.chapterKey()
	for _, ix := range []*index{rc.run, rc.base} {
		for _, other := range ix.citations[k] {
			if Overlaps(c, other) {
				return other
			}
		}
	}
	return nil
}

// each visits run entries first, then baseline entries, until fn returns false
func (rc *RunContext) each(fn func(e *entry) bool) {
	for _, ix := range []*index{rc.run, rc.base} {
		for i := range ix.entries {
			if !fn(&ix.entries[i]) {
				return
			}
		}
	}
}
