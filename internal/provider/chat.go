package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/rankforge/rankforge/internal/types"
)

// Compile-time interface check
var _ Adapter = (*ChatAdapter)(nil)

// ChatService defines the interface for making chat completion API calls.
// This abstraction enables testing without calling the real vendor API.
type ChatService interface {
	New(ctx context.Context, params openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

// ChatAdapter serves every vendor that speaks the OpenAI chat completion
// protocol: OpenAI itself, plus DeepSeek and Qwen on their compatible
// endpoints.
type ChatAdapter struct {
	provider types.Provider
	chat     ChatService
	model    string
}

func newChatAdapter(p types.Provider, apiKey, model, baseURL string, httpClient *http.Client) *ChatAdapter {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}
	client := openai.NewClient(opts...)
	return &ChatAdapter{
		provider: p,
		chat:     client.Chat.Completions,
		model:    model,
	}
}

// Complete runs a single chat completion and returns the first choice's text.
func (a *ChatAdapter) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	messages := []openai.ChatCompletionMessageParamUnion{}
	if req.SystemPrompt != "" {
		messages = append(messages, openai.SystemMessage(req.SystemPrompt))
	}
	messages = append(messages, openai.UserMessage(req.UserPrompt))

	resp, err := a.chat.New(ctx, openai.ChatCompletionNewParams{
		Messages: openai.F(messages),
		Model:    openai.F(openai.ChatModel(a.model)),
	})
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", newProviderError(a.provider, apiErr.StatusCode, apiErr.Message)
		}
		return "", fmt.Errorf("%s completion failed: %w", a.provider, err)
	}

	if len(resp.Choices) == 0 {
		return "", newProviderError(a.provider, 0, "no choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}

// Name returns the vendor this adapter targets.
func (a *ChatAdapter) Name() types.Provider {
	return a.provider
}

// ModelName returns the concrete model identifier in use.
func (a *ChatAdapter) ModelName() string {
	return a.model
}
