package llm

import (
	"fmt"
	"strings"

	"github.com/ppiankov/wellspring/internal/model"
)

// categoryPrompt is the per-category wording used when asking for candidates
type categoryPrompt struct {
	noun  string
	shape string
}

var categoryPrompts = map[model.Category]categoryPrompt{
	model.CategoryBibleVerse: {
		noun:  "Bible verses",
		shape: `"content" is the verse text in the requested translation and "reference" is the citation in "Book Chapter:Verse" or "Book Chapter:Verse-Verse" form.`,
	},
	model.CategoryProverbs: {
		noun:  "verses from the book of Proverbs",
		shape: `"content" is the verse text in the requested translation and "reference" is the citation in "Proverbs Chapter:Verse" form.`,
	},
	model.CategoryAffirmation: {
		noun:  "first-person affirmations",
		shape: `"content" is one short sentence in the first person, under 20 words.`,
	},
	model.CategoryLifeLesson: {
		noun:  "life lessons",
		shape: `"content" is one or two sentences of practical wisdom.`,
	},
	model.CategoryGratitudePrompt: {
		noun:  "gratitude journaling prompts",
		shape: `"content" is a single question that invites the reader to name something they are thankful for.`,
	},
	model.CategoryDiscussionStarter: {
		noun:  "family discussion starter questions",
		shape: `"content" is a single open question suitable for a dinner table conversation.`,
	},
	model.CategoryQuote: {
		noun:  "inspirational quotes by real, well-known people",
		shape: `"content" is the exact quote and "author" is the person who said or wrote it.`,
	},
}

const generatorSystemPrompt = "You write short inspirational content. Reply with a JSON array only, no commentary."

// GenerationPrompt describes one batch request to the candidate generator
type GenerationPrompt struct {
	Category    model.Category
	Count       int
	Theme       model.Theme
	Translation string
	Exclusions  []string // recently accepted contents the model should avoid
}

// Build renders the user prompt
func (p GenerationPrompt) Build() string {
	cp, ok := categoryPrompts[p.Category]
	if !ok {
		cp = categoryPrompts[model.CategoryAffirmation]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Generate %d unique %s.\n", p.Count, cp.noun)
	if p.Theme != "" {
		fmt.Fprintf(&b, "Theme: %s.\n", p.Theme)
	}
	if p.Category.IsCitation() && p.Translation != "" {
		fmt.Fprintf(&b, "Translation: %s.\n", p.Translation)
	}

	b.WriteString("\nReturn a JSON array of objects with keys \"content\"")
	if p.Category.IsCitation() {
		b.WriteString(", \"reference\"")
	}
	if s, _ := model.StrategyFor(p.Category); s.Authored {
		b.WriteString(", \"author\"")
	}
	b.WriteString(". ")
	b.WriteString(cp.shape)
	b.WriteString("\nEvery item must be distinct from every other item in meaning, not just wording.\n")

	if len(p.Exclusions) > 0 {
		b.WriteString("\nDo NOT repeat or paraphrase any of these existing items:\n")
		for _, e := range p.Exclusions {
			fmt.Fprintf(&b, "- %s\n", e)
		}
	}

	return b.String()
}

const judgeSystemPrompt = "You detect duplicate content. Answer with exactly one word: YES or NO."

// buildJudgePrompt asks whether candidate restates any of prior
func buildJudgePrompt(candidate string, prior []string) string {
	var b strings.Builder
	b.WriteString("Existing items:\n")
	for i, p := range prior {
		fmt.Fprintf(&b, "%d. %s\n", i+1, p)
	}
	fmt.Fprintf(&b, "\nNew item: %s\n\n", candidate)
	b.WriteString("Is the new item the same specific question or statement as any existing item? ")
	b.WriteString("Sharing a broad topic is NOT a duplicate; only an equivalent meaning is. Answer YES or NO.")
	return b.String()
}
