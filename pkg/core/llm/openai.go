package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/phuslu/log"
)

type preset struct {
	baseURL string
	model   string
	keyEnv  string
}

var presets = map[string]preset{
	"deepseek": {baseURL: "https://api.deepseek.com", model: "deepseek-chat", keyEnv: "DEEPSEEK_API_KEY"},
	"openai":   {baseURL: "https://api.openai.com/v1", model: "gpt-4o-mini", keyEnv: "OPENAI_API_KEY"},
	"ollama":   {baseURL: "http://localhost:11434/v1", model: "llama3.1"},
}

// OpenAICompatible talks to any /chat/completions endpoint: DeepSeek, OpenAI
// or a local Ollama server.
type OpenAICompatible struct {
	name    string
	baseURL string
	model   string
	apiKey  string
	keyEnv  string
	client  *http.Client
}

var _ Provider = (*OpenAICompatible)(nil)

// NewOpenAICompatible fills blank settings from the named preset.
func NewOpenAICompatible(name, baseURL, model, apiKey string) *OpenAICompatible {
	ps := presets[name]
	if baseURL == "" {
		baseURL = ps.baseURL
	}
	if model == "" {
		model = ps.model
	}
	return &OpenAICompatible{
		name:    name,
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		apiKey:  apiKey,
		keyEnv:  ps.keyEnv,
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float32         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
	Stream         bool            `json:"stream"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (p *OpenAICompatible) Name() string { return p.name }

func (p *OpenAICompatible) GenerateResponse(ctx context.Context, prompt string, systemPrompt string, opts Options) (string, error) {
	apiKey := p.apiKey
	if apiKey == "" && p.keyEnv != "" {
		apiKey = os.Getenv(p.keyEnv)
		if apiKey == "" {
			return "", fmt.Errorf("%s: %s not set", p.name, p.keyEnv)
		}
	}

	model := p.model
	if opts.Model != "" {
		model = opts.Model
	}

	req := chatRequest{
		Model:       model,
		Temperature: temperature(opts, 0.2),
		MaxTokens:   opts.MaxTokens,
	}
	if systemPrompt != "" {
		req.Messages = append(req.Messages, chatMessage{Role: "system", Content: systemPrompt})
	}
	req.Messages = append(req.Messages, chatMessage{Role: "user", Content: prompt})
	if opts.JSON {
		req.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("%s: marshal request: %w", p.name, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%s: create request: %w", p.name, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+apiKey)
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%s: call: %w", p.name, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%s: read body: %w", p.name, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%s: status %d: %s", p.name, resp.StatusCode, truncate(string(raw), 300))
	}

	var out chatResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("%s: decode response: %w", p.name, err)
	}
	if out.Error != nil {
		return "", fmt.Errorf("%s: %s", p.name, out.Error.Message)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("%s: response has no choices", p.name)
	}

	text := out.Choices[0].Message.Content
	log.Debug().Str("provider", p.name).Str("model", model).Int("chars", len(text)).Msg("generation complete")
	return text, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
