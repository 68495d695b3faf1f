package llm

import (
	"context"
	"fmt"
	"os"

	"github.com/phuslu/log"
	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.0-flash"

// GeminiProvider calls Google's Gemini models through the GenAI SDK.
type GeminiProvider struct {
	Model  string
	APIKey string // falls back to GEMINI_API_KEY
}

var _ Provider = (*GeminiProvider)(nil)

func (p *GeminiProvider) Name() string { return "gemini" }

func (p *GeminiProvider) GenerateResponse(ctx context.Context, prompt string, systemPrompt string, opts Options) (string, error) {
	apiKey := p.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if apiKey == "" {
		return "", fmt.Errorf("gemini: GEMINI_API_KEY not set")
	}

	model := p.Model
	if opts.Model != "" {
		model = opts.Model
	}
	if model == "" {
		model = defaultGeminiModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return "", fmt.Errorf("gemini: create client: %w", err)
	}

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(temperature(opts, 0.2)),
	}
	if opts.MaxTokens > 0 {
		config.MaxOutputTokens = int32(opts.MaxTokens)
	}
	if opts.JSON {
		config.ResponseMIMEType = "application/json"
	}
	if systemPrompt != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: systemPrompt}},
		}
	}

	result, err := client.Models.GenerateContent(ctx, model, genai.Text(prompt), config)
	if err != nil {
		return "", fmt.Errorf("gemini: generate: %w", err)
	}

	text := result.Text()
	log.Debug().Str("provider", "gemini").Str("model", model).Int("chars", len(text)).Msg("generation complete")
	return text, nil
}
