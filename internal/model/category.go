package model

import (
	"fmt"
	"sort"
	"strings"
)

// Category identifies the kind of content being generated
type Category string

const (
	CategoryBibleVerse        Category = "bible_verse"
	CategoryProverbs          Category = "proverbs"
	CategoryAffirmation       Category = "affirmation"
	CategoryLifeLesson        Category = "life_lesson"
	CategoryGratitudePrompt   Category = "gratitude_prompt"
	CategoryDiscussionStarter Category = "discussion_starter"
	CategoryQuote             Category = "quote"
)

// CategoryAll selects every category in a multi-category run
const CategoryAll = "all"

// Strategy describes how a category is generated and deduplicated
type Strategy struct {
	Category Category
	Label    string

	// Citation categories carry a "Book Chapter:Verse" reference that is
	// checked for range overlap.
	Citation bool

	// Semantic categories are prone to paraphrase and get an LLM judge pass.
	Semantic bool

	// Authored categories attribute each item to a person.
	Authored bool
}

var strategies = map[Category]Strategy{
	CategoryBibleVerse: {
		Category: CategoryBibleVerse,
		Label:    "Bible verse",
		Citation: true,
	},
	CategoryProverbs: {
		Category: CategoryProverbs,
		Label:    "Proverb",
		Citation: true,
	},
	CategoryAffirmation: {
		Category: CategoryAffirmation,
		Label:    "Affirmation",
		Semantic: true,
	},
	CategoryLifeLesson: {
		Category: CategoryLifeLesson,
		Label:    "Life lesson",
		Semantic: true,
	},
	CategoryGratitudePrompt: {
		Category: CategoryGratitudePrompt,
		Label:    "Gratitude prompt",
		Semantic: true,
	},
	CategoryDiscussionStarter: {
		Category: CategoryDiscussionStarter,
		Label:    "Discussion starter",
		Semantic: true,
	},
	CategoryQuote: {
		Category: CategoryQuote,
		Label:    "Quote",
		Authored: true,
	},
}

// StrategyFor returns the strategy for a category
func StrategyFor(c Category) (Strategy, bool) {
	s, ok := strategies[c]
	return s, ok
}

// Valid reports whether c is one of the known categories
func (c Category) Valid() bool {
	_, ok := strategies[c]
	return ok
}

// IsCitation reports whether items of this category carry scripture citations
func (c Category) IsCitation() bool {
	return strategies[c].Citation
}

// IsSemantic reports whether the semantic judge applies to this category
func (c Category) IsSemantic() bool {
	return strategies[c].Semantic
}

// Categories returns all known categories in a stable order
func Categories() []Category {
	out := make([]Category, 0, len(strategies))
	for c := range strategies {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ParseCategories parses a comma-separated category list
func ParseCategories(raw string) ([]Category, error) {
	var out []Category
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(strings.ToLower(part))
		if part == "" {
			continue
		}
		c := Category(part)
		if !c.Valid() {
			return nil, fmt.Errorf("%w: unknown category %q", ErrInvalidRequest, part)
		}
		out = append(out, c)
	}
	return DistinctCategories(out), nil
}

// DistinctCategories drops repeats, keeping first occurrences in order
func DistinctCategories(cs []Category) []Category {
	seen := make(map[Category]bool, len(cs))
	out := make([]Category, 0, len(cs))
	for _, c := range cs {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}

// Theme narrows generation to a topic
type Theme string

const (
	ThemeHope        Theme = "hope"
	ThemeFaith       Theme = "faith"
	ThemeLove        Theme = "love"
	ThemeGratitude   Theme = "gratitude"
	ThemeStrength    Theme = "strength"
	ThemePeace       Theme = "peace"
	ThemeForgiveness Theme = "forgiveness"
	ThemeCourage     Theme = "courage"
	ThemeJoy         Theme = "joy"
	ThemePatience    Theme = "patience"
	ThemeWisdom      Theme = "wisdom"
	ThemeFamily      Theme = "family"
)

var themes = []Theme{
	ThemeHope, ThemeFaith, ThemeLove, ThemeGratitude, ThemeStrength, ThemePeace,
	ThemeForgiveness, ThemeCourage, ThemeJoy, ThemePatience, ThemeWisdom, ThemeFamily,
}

// Themes returns all known themes
func Themes() []Theme {
	out := make([]Theme, len(themes))
	copy(out, themes)
	return out
}

// Valid reports whether t is a known theme. The empty theme is valid and means "any".
func (t Theme) Valid() bool {
	if t == "" {
		return true
	}
	for _, known := range themes {
		if t == known {
			return true
		}
	}
	return false
}
