package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ppiankov/wellspring/internal/model"
)

// Generator turns a GenerationPrompt into candidates via a Provider
type Generator struct {
	provider  Provider
	model     string
	maxTokens int
}

// NewGenerator creates a candidate generator. An empty model uses the
// provider's configured model.
func NewGenerator(p Provider, modelName string, maxTokens int) *Generator {
	return &Generator{provider: p, model: modelName, maxTokens: maxTokens}
}

// generatedItem is one element of the generator's JSON array
type generatedItem struct {
	Content   string `json:"content"`
	Author    string `json:"author,omitempty"`
	Reference string `json:"reference,omitempty"`
}

// Generate requests up to prompt.Count candidates. Provider failures wrap
// model.ErrGeneration and unusable output wraps model.ErrParse. Items with
// empty content are dropped.
func (g *Generator) Generate(ctx context.Context, prompt GenerationPrompt, temperature float64) ([]model.Candidate, error) {
	resp, err := g.provider.Complete(ctx, CompletionRequest{
		System:      generatorSystemPrompt,
		Prompt:      prompt.Build(),
		Model:       g.model,
		MaxTokens:   g.maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", model.ErrGeneration, g.provider.Name(), err)
	}

	return ParseCandidates(resp.Text, prompt.Category)
}

// ParseCandidates decodes a JSON array of {content, author, reference},
// optionally wrapped in a markdown code fence.
func ParseCandidates(raw string, category model.Category) ([]model.Candidate, error) {
	text := stripFences(raw)
	if text == "" {
		return nil, fmt.Errorf("%w: empty response", model.ErrParse)
	}

	var items []generatedItem
	if err := json.Unmarshal([]byte(text), &items); err != nil {
		return nil, fmt.Errorf("%w: %v (response: %.200s)", model.ErrParse, err, text)
	}

	out := make([]model.Candidate, 0, len(items))
	for _, it := range items {
		content := strings.TrimSpace(it.Content)
		if content == "" {
			continue
		}
		out = append(out, model.Candidate{
			Content:  content,
			Category: category,
			Author:   strings.TrimSpace(it.Author),
			Citation: strings.TrimSpace(it.Reference),
		})
	}
	return out, nil
}

// stripFences removes a surrounding ```json ... ``` block and any chatter
// before the first '[' or after the last ']'.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```JSON")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(s, "```")
		s = strings.TrimSpace(s)
	}
	if start, end := strings.Index(s, "["), strings.LastIndex(s, "]"); start >= 0 && end > start {
		s = s[start : end+1]
	}
	return s
}
