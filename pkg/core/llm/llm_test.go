package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	_, err := New(Config{})
	assert.True(t, errors.Is(err, ErrDisabled))
	_, err = New(Config{Provider: "none"})
	assert.True(t, errors.Is(err, ErrDisabled))

	p, err := New(Config{Provider: "Gemini", Model: "gemini-x"})
	require.NoError(t, err)
	assert.Equal(t, "gemini", p.Name())

	p, err = New(Config{Provider: "ollama"})
	require.NoError(t, err)
	oc := p.(*OpenAICompatible)
	assert.Equal(t, "http://localhost:11434/v1", oc.baseURL)
	assert.Equal(t, "llama3.1", oc.model)

	_, err = New(Config{Provider: "kimi"})
	assert.Error(t, err)
}

func TestOpenAICompatible_GenerateResponse(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"{\"ok\":true}"}}]}`))
	}))
	defer srv.Close()

	p := NewOpenAICompatible("deepseek", srv.URL+"/", "", "secret")
	out, err := p.GenerateResponse(context.Background(), "hello", "be brief", Options{JSON: true})
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, out)

	assert.Equal(t, "deepseek-chat", got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "hello", got.Messages[1].Content)
	require.NotNil(t, got.ResponseFormat)
	assert.Equal(t, "json_object", got.ResponseFormat.Type)
	assert.InDelta(t, 0.2, got.Temperature, 0.0001)
}

func TestOpenAICompatible_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p := NewOpenAICompatible("ollama", srv.URL, "llama3.1", "")
	_, err := p.GenerateResponse(context.Background(), "hi", "", Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 429")

	t.Setenv("OPENAI_API_KEY", "")
	_, err = NewOpenAICompatible("openai", srv.URL, "", "").GenerateResponse(context.Background(), "hi", "", Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OPENAI_API_KEY")
}

func TestGemini_MissingKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	_, err := (&GeminiProvider{}).GenerateResponse(context.Background(), "hi", "", Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GEMINI_API_KEY")
}

func TestStatic(t *testing.T) {
	s := &Static{Response: "canned"}
	out, err := s.GenerateResponse(context.Background(), "p1", "", Options{})
	require.NoError(t, err)
	assert.Equal(t, "canned", out)
	assert.Equal(t, []string{"p1"}, s.Prompts())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.GenerateResponse(ctx, "p2", "", Options{})
	assert.ErrorIs(t, err, context.Canceled)
}
