package dedup

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// Citation is a parsed "Book Chapter:Verse[-Verse]" reference
type Citation struct {
	Book       string // lowercased, whitespace collapsed ("1 john")
	Chapter    int
	VerseStart int
	VerseEnd   int
}

// citationGrammar matches "John 3:16", "1 John 3:16-18", "Song of Solomon 2:1".
//
//nolint:govet // participle grammar tags are not standard struct tags
type citationGrammar struct {
	Ordinal *int     `parser:"@Int?"`
	Words   []string `parser:"@Word+"`
	Chapter int      `parser:"@Int"`
	Verse   int      `parser:"\":\" @Int"`
	End     *int     `parser:"( (\"-\" | \"–\" | \"—\") @Int )?"`
}

var citationLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Int", Pattern: `[0-9]+`},
	{Name: "Word", Pattern: `\p{L}+`},
	{Name: "Punct", Pattern: `[:\-–—]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var citationParser = participle.MustBuild[citationGrammar](
	participle.Lexer(citationLexer),
	participle.Elide("Whitespace"),
)

// ParseCitation parses a structured citation. It returns nil for free-form or
// malformed input: zero chapter or verse, a reversed range, or trailing text.
// Book names are folded for case and whitespace only, so "Psalm" and "Psalms"
// stay distinct books.
func ParseCitation(s string) *Citation {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	parsed, err := citationParser.ParseString("", s)
	if err != nil {
		return nil
	}

	book := foldSpace(strings.Join(parsed.Words, " "))
	if parsed.Ordinal != nil {
		book = strconv.Itoa(*parsed.Ordinal) + " " + book
	}

	c := &Citation{
		Book:       book,
		Chapter:    parsed.Chapter,
		VerseStart: parsed.Verse,
		VerseEnd:   parsed.Verse,
	}
	if parsed.End != nil {
		c.VerseEnd = *parsed.End
	}

	if c.Chapter <= 0 || c.VerseStart <= 0 || c.VerseEnd < c.VerseStart {
		return nil
	}
	return c
}

// Key is the canonical string form used for exact citation matching
func (c *Citation) Key() string {
	if c.VerseEnd != c.VerseStart {
		return fmt.Sprintf("%s %d:%d-%d", c.Book, c.Chapter, c.VerseStart, c.VerseEnd)
	}
	return fmt.Sprintf("%s %d:%d", c.Book, c.Chapter, c.VerseStart)
}

func (c *Citation) String() string {
	return c.Key()
}

// Overlaps reports whether two citations share book and chapter and their
// inclusive verse ranges intersect. Unparseable (nil) citations never overlap.
func Overlaps(a, b *Citation) bool {
	if a == nil || b == nil {
		return false
	}
	if a.Book != b.Book || a.Chapter != b.Chapter {
		return false
	}
	return a.VerseStart <= b.VerseEnd && a.VerseEnd >= b.VerseStart
}

// CitationKey returns the exact-match key for a raw citation string:
// the canonical form when it parses, the case/space-folded text otherwise.
func CitationKey(raw string) string {
	if c := ParseCitation(raw); c != nil {
		return c.Key()
	}
	return foldSpace(raw)
}

type chapterKey struct {
	book    string
	chapter int
}

func (c *Citation) chapterKey() chapterKey {
	return chapterKey{book: c.Book, chapter: c.Chapter}
}
