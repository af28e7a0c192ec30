package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ppiankov/wellspring/internal/model"
)

const defaultOllamaBaseURL = "http://localhost:11434"

// OllamaProvider talks to a local Ollama daemon
type OllamaProvider struct {
	api    *jsonClient
	config Config
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	System  string        `json:"system,omitempty"`
	Stream  bool          `json:"stream"`
	Options ollamaOptions `json:"options,omitempty"`
}

type ollamaResponse struct {
	Model           string `json:"model"`
	Response        string `json:"response"`
	Done            bool   `json:"done"`
	PromptEvalCount int    `json:"prompt_eval_count,omitempty"`
	EvalCount       int    `json:"eval_count,omitempty"`
}

// NewOllamaProvider never fails; the model is checked per call
func NewOllamaProvider(config Config) (*OllamaProvider, error) {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = defaultOllamaBaseURL
	}

	// local models are slow to load on first use
	api := newJSONClient(config, baseURL, 120*time.Second)
	api.errorMessage = func(body []byte) string {
		var e struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &e) != nil {
			return ""
		}
		return e.Error
	}

	return &OllamaProvider{api: api, config: config}, nil
}

// Name returns the provider name
func (p *OllamaProvider) Name() string {
	return "ollama"
}

// Ping lists local models
func (p *OllamaProvider) Ping(ctx context.Context) error {
	return p.api.get(ctx, "/api/tags")
}

// Complete runs a single non-streaming /api/generate call
func (p *OllamaProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	modelName := req.Model
	if modelName == "" {
		modelName = p.config.Model
	}
	if modelName == "" {
		return nil, fmt.Errorf("%w: ollama model must be specified (e.g. llama3.1:8b)", model.ErrConfig)
	}

	var resp ollamaResponse
	err := p.api.post(ctx, "/api/generate", ollamaRequest{
		Model:  modelName,
		Prompt: req.Prompt,
		System: req.System,
		Options: ollamaOptions{
			Temperature: req.Temperature,
			NumPredict:  p.config.maxTokens(req.MaxTokens),
		},
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("ollama: %w", err)
	}

	text := strings.TrimSpace(resp.Response)
	return &CompletionResponse{
		Text:       text,
		Model:      resp.Model,
		TokensUsed: ollamaTokens(resp, len(req.Prompt)+len(text)),
	}, nil
}

// ollamaTokens prefers the reported eval counts and falls back to roughly
// four characters per token.
func ollamaTokens(resp ollamaResponse, chars int) int {
	if n := resp.PromptEvalCount + resp.EvalCount; n > 0 {
		return n
	}
	return chars / 4
}
