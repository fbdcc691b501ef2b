package decomposequeryllm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	httpclient "ria-hunter/internal/common/http"
)

// Backend returns the raw serialized filters for text. Transport failures
// are returned as errors; shape checking is left to the caller.
type Backend interface {
	Decompose(ctx context.Context, text string) ([]byte, error)
}

// NewBackend builds the backend named by config.Backend.
func NewBackend(config *Config) (Backend, error) {
	switch config.Backend {
	case "", "genai":
		if config.GenAIBaseURL == "" {
			return nil, errors.New("genai backend requires a base url")
		}
		return NewGenAIBackend(config.GenAIBaseURL, config.GenAIAPIKey, config.Timeout), nil
	case "openai":
		if config.OpenAIAPIKey == "" {
			return nil, errors.New("openai backend requires an api key")
		}
		return NewOpenAIBackend(config.OpenAIAPIKey, config.OpenAIBaseURL, config.ChatModel), nil
	}
	return nil, fmt.Errorf("unknown llm backend %q", config.Backend)
}

// GenAIBackend calls the internal GenAI service.
type GenAIBackend struct {
	baseURL string
	client  *httpclient.Client
}

func NewGenAIBackend(baseURL, apiKey string, timeout time.Duration) *GenAIBackend {
	client := httpclient.NewClient(timeout)
	if apiKey != "" {
		client.WithHeader("Authorization", "Bearer "+apiKey)
	}
	return &GenAIBackend{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

func (b *GenAIBackend) Decompose(ctx context.Context, text string) ([]byte, error) {
	return b.client.PostRaw(ctx, b.baseURL+"/api/ai/decompose-query", map[string]interface{}{
		"query": text,
	})
}

const systemPrompt = `You convert questions about registered investment advisers into JSON filters.
Reply with one JSON object: {"location":{"city":string|null,"state":two-letter code|null},
"fundTypeIntent":one of VC,PE,HF,RE,REIT,FoF,Credit,Commodity,BDC,CEF,OEF,MLP,Infra,Energy,Other or null,
"minAum":number|null,"queryType":"FIRM_LOOKUP"|"TOP_N_RANKING"|"ACTIVITY_FILTER"|"GENERIC",
"confidence":number between 0 and 1,"topN":integer|null,"crd":digits|null}.`

// OpenAIBackend asks an OpenAI-compatible chat model for a JSON object.
type OpenAIBackend struct {
	client *openai.Client
	model  string
}

func NewOpenAIBackend(apiKey, baseURL, model string) *OpenAIBackend {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAIBackend{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

func (b *OpenAIBackend) Decompose(ctx context.Context, text string) ([]byte, error) {
	resp, err := b.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: b.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		Temperature: 0,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices returned", ErrResponseInvalid)
	}
	return []byte(stripCodeFence(resp.Choices[0].Message.Content)), nil
}

// stripCodeFence removes a surrounding ```json fence some models emit even
// in JSON mode.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// isTransient extends httpclient.IsTransient with the error types of the
// openai client.
func isTransient(err error) bool {
	if httpclient.IsTransient(err) {
		return true
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return retryableStatus(apiErr.HTTPStatusCode)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return retryableStatus(reqErr.HTTPStatusCode)
	}
	return false
}

func retryableStatus(code int) bool {
	return code >= 500 || code == http.StatusTooManyRequests
}
