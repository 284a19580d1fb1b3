package provider

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/rankforge/rankforge/internal/types"
)

// mockChatService implements ChatService for testing
type mockChatService struct {
	err      error
	response *openai.ChatCompletion
	// captured params from the last call
	params openai.ChatCompletionNewParams
}

func (m *mockChatService) New(ctx context.Context, params openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error) {
	m.params = params
	if m.err != nil {
		return nil, m.err
	}
	return m.response, nil
}

func chatResponse(text string) *openai.ChatCompletion {
	return &openai.ChatCompletion{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: text}},
		},
	}
}

func TestChatAdapterComplete(t *testing.T) {
	mock := &mockChatService{response: chatResponse("generated text")}
	adapter := &ChatAdapter{provider: types.ProviderOpenAI, chat: mock, model: "gpt-4o-mini"}

	got, err := adapter.Complete(context.Background(), CompletionRequest{
		SystemPrompt: "you are a writer",
		UserPrompt:   "write something",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "generated text" {
		t.Errorf("expected %q, got %q", "generated text", got)
	}
	if len(mock.params.Messages.Value) != 2 {
		t.Errorf("expected 2 messages, got %d", len(mock.params.Messages.Value))
	}
}

func TestChatAdapterCompleteNoSystemPrompt(t *testing.T) {
	mock := &mockChatService{response: chatResponse("ok")}
	adapter := &ChatAdapter{provider: types.ProviderDeepSeek, chat: mock, model: "deepseek-chat"}

	if _, err := adapter.Complete(context.Background(), CompletionRequest{UserPrompt: "hi"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(mock.params.Messages.Value) != 1 {
		t.Errorf("expected 1 message, got %d", len(mock.params.Messages.Value))
	}
}

func TestChatAdapterCompleteAPIError(t *testing.T) {
	mock := &mockChatService{err: &openai.Error{StatusCode: http.StatusTooManyRequests, Message: "Rate limit reached"}}
	adapter := &ChatAdapter{provider: types.ProviderOpenAI, chat: mock, model: "gpt-4o-mini"}

	_, err := adapter.Complete(context.Background(), CompletionRequest{UserPrompt: "hi"})
	if err == nil {
		t.Fatal("expected error")
	}
	var pe *ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ProviderError, got %T", err)
	}
	if pe.Code != CodeRateLimit {
		t.Errorf("expected code %q, got %q", CodeRateLimit, pe.Code)
	}
	if pe.Provider != types.ProviderOpenAI {
		t.Errorf("expected provider %q, got %q", types.ProviderOpenAI, pe.Provider)
	}
}

func TestChatAdapterCompleteNoChoices(t *testing.T) {
	mock := &mockChatService{response: &openai.ChatCompletion{}}
	adapter := &ChatAdapter{provider: types.ProviderQwen, chat: mock, model: "qwen-plus"}

	if _, err := adapter.Complete(context.Background(), CompletionRequest{UserPrompt: "hi"}); err == nil {
		t.Fatal("expected error for empty choices")
	}
}

func TestNewProviderErrorClassification(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		message string
		want    ErrorCode
	}{
		{"http 429", http.StatusTooManyRequests, "slow down", CodeRateLimit},
		{"quota phrase in body", http.StatusBadRequest, "You exceeded your current quota", CodeRateLimit},
		{"resource exhausted", http.StatusOK, "RESOURCE_EXHAUSTED: try later", CodeRateLimit},
		{"server error", http.StatusInternalServerError, "boom", CodeProviderError},
		{"auth error", http.StatusUnauthorized, "invalid api key", CodeProviderError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pe := newProviderError(types.ProviderOpenAI, tt.status, tt.message)
			if pe.Code != tt.want {
				t.Errorf("expected code %q, got %q", tt.want, pe.Code)
			}
		})
	}
}

func TestIsRateLimit(t *testing.T) {
	limited := newProviderError(types.ProviderGemini, http.StatusTooManyRequests, "quota")
	if !IsRateLimit(limited) {
		t.Error("expected rate limit error to be detected")
	}
	if IsRateLimit(errors.New("plain error")) {
		t.Error("plain error should not be rate limit")
	}
	if IsRateLimit(nil) {
		t.Error("nil should not be rate limit")
	}
}

func TestResolveModel(t *testing.T) {
	tests := []struct {
		provider types.Provider
		abstract string
		want     string
	}{
		{types.ProviderOpenAI, ModelFast, "gpt-4o-mini"},
		{types.ProviderOpenAI, ModelAdvanced, "gpt-4-turbo"},
		{types.ProviderDeepSeek, ModelAdvanced, "deepseek-reasoner"},
		{types.ProviderQwen, ModelStandard, "qwen-plus"},
		{types.ProviderGemini, "nonexistent-tier", "gemini-1.5-flash"},
		{types.ProviderOpenAI, "", "gpt-4o-mini"},
	}

	for _, tt := range tests {
		if got := ResolveModel(tt.provider, tt.abstract); got != tt.want {
			t.Errorf("ResolveModel(%s, %q) = %q, want %q", tt.provider, tt.abstract, got, tt.want)
		}
	}
}

func TestNewUnsupportedProvider(t *testing.T) {
	if _, err := New(types.Provider("anthropic"), "key", ModelFast, Options{}); err == nil {
		t.Fatal("expected error for unsupported provider")
	}
}

func TestGeminiComplete(t *testing.T) {
	var gotPath, gotKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("key")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"hello from gemini"}],"role":"model"}}]}`))
	}))
	defer server.Close()

	adapter := newGemini("test-key", "gemini-1.5-flash", server.URL, server.Client())
	got, err := adapter.Complete(context.Background(), CompletionRequest{
		SystemPrompt: "sys",
		UserPrompt:   "hi",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "hello from gemini" {
		t.Errorf("expected %q, got %q", "hello from gemini", got)
	}
	if !strings.Contains(gotPath, "gemini-1.5-flash:generateContent") {
		t.Errorf("unexpected path %q", gotPath)
	}
	if gotKey != "test-key" {
		t.Errorf("expected key in query, got %q", gotKey)
	}
}

func TestGeminiCompleteRateLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"code":429,"message":"Quota exceeded","status":"RESOURCE_EXHAUSTED"}}`))
	}))
	defer server.Close()

	adapter := newGemini("test-key", "gemini-1.5-flash", server.URL, server.Client())
	_, err := adapter.Complete(context.Background(), CompletionRequest{UserPrompt: "hi"})
	if !IsRateLimit(err) {
		t.Fatalf("expected rate limit error, got %v", err)
	}
}

func TestGeminiCompleteEmptyCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[]}`))
	}))
	defer server.Close()

	adapter := newGemini("test-key", "gemini-1.5-flash", server.URL, server.Client())
	if _, err := adapter.Complete(context.Background(), CompletionRequest{UserPrompt: "hi"}); err == nil {
		t.Fatal("expected error for empty candidates")
	}
}
