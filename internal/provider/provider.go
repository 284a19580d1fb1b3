// Package provider adapts the uniform (system prompt, user prompt) completion
// request onto each supported AI vendor's HTTP API.
package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/rankforge/rankforge/internal/types"
)

// CompletionRequest is the uniform input every adapter accepts.
type CompletionRequest struct {
	SystemPrompt string
	UserPrompt   string
}

// Adapter performs a single non-streaming completion call.
// No retries happen at this layer.
type Adapter interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
	Name() types.Provider
	ModelName() string
}

// ErrorCode classifies provider failures for structured client handling.
type ErrorCode string

const (
	CodeRateLimit     ErrorCode = "RATE_LIMIT"
	CodeProviderError ErrorCode = "PROVIDER_ERROR"
)

// ProviderError carries the HTTP status and error body from a failed vendor
// call. Code is RATE_LIMIT when the failure is a quota/429 condition, so
// clients can prompt a provider switch without matching message text.
type ProviderError struct {
	Provider   types.Provider
	StatusCode int
	Message    string
	Code       ErrorCode
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: HTTP %d: %s", e.Provider, e.StatusCode, e.Message)
}

// rateLimitPhrases are matched against provider error bodies because some
// vendors report quota exhaustion with a 200-family or 400 status.
var rateLimitPhrases = []string{"rate limit", "quota", "too many requests", "resource_exhausted", "insufficient_quota"}

// newProviderError builds a ProviderError, classifying rate limiting from
// the status code or the error body.
func newProviderError(p types.Provider, status int, message string) *ProviderError {
	code := CodeProviderError
	if status == http.StatusTooManyRequests || containsRateLimitPhrase(message) {
		code = CodeRateLimit
	}
	return &ProviderError{Provider: p, StatusCode: status, Message: message, Code: code}
}

func containsRateLimitPhrase(message string) bool {
	lower := strings.ToLower(message)
	for _, phrase := range rateLimitPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// IsRateLimit reports whether err is a provider rate-limit failure.
func IsRateLimit(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Code == CodeRateLimit
}

// Abstract model tiers. Unmapped names fall back to the provider default.
const (
	ModelFast     = "fast"
	ModelStandard = "standard"
	ModelAdvanced = "advanced"
)

var modelTables = map[types.Provider]map[string]string{
	types.ProviderOpenAI: {
		ModelFast:     "gpt-4o-mini",
		ModelStandard: "gpt-4o",
		ModelAdvanced: "gpt-4-turbo",
	},
	types.ProviderGemini: {
		ModelFast:     "gemini-1.5-flash",
		ModelStandard: "gemini-1.5-pro",
		ModelAdvanced: "gemini-1.5-pro",
	},
	types.ProviderDeepSeek: {
		ModelFast:     "deepseek-chat",
		ModelStandard: "deepseek-chat",
		ModelAdvanced: "deepseek-reasoner",
	},
	types.ProviderQwen: {
		ModelFast:     "qwen-turbo",
		ModelStandard: "qwen-plus",
		ModelAdvanced: "qwen-max",
	},
}

var modelDefaults = map[types.Provider]string{
	types.ProviderOpenAI:   "gpt-4o-mini",
	types.ProviderGemini:   "gemini-1.5-flash",
	types.ProviderDeepSeek: "deepseek-chat",
	types.ProviderQwen:     "qwen-plus",
}

// ResolveModel translates an abstract model name to the provider's concrete
// model identifier, falling back to the provider default when unmapped.
func ResolveModel(p types.Provider, abstract string) string {
	if table, ok := modelTables[p]; ok {
		if concrete, ok := table[abstract]; ok {
			return concrete
		}
	}
	return modelDefaults[p]
}

// Options configures adapter construction. BaseURLs override the vendor
// endpoints, used by tests and self-hosted gateways.
type Options struct {
	BaseURLs   map[types.Provider]string
	HTTPClient *http.Client
}

// New constructs the adapter for the given provider. The model name is
// abstract and resolved per provider.
func New(p types.Provider, apiKey, model string, opts Options) (Adapter, error) {
	concrete := ResolveModel(p, model)
	base := opts.BaseURLs[p]

	switch p {
	case types.ProviderOpenAI:
		return newChatAdapter(types.ProviderOpenAI, apiKey, concrete, base, opts.HTTPClient), nil
	case types.ProviderDeepSeek:
		if base == "" {
			base = "https://api.deepseek.com"
		}
		return newChatAdapter(types.ProviderDeepSeek, apiKey, concrete, base, opts.HTTPClient), nil
	case types.ProviderQwen:
		if base == "" {
			base = "https://dashscope.aliyuncs.com/compatible-mode/v1"
		}
		return newChatAdapter(types.ProviderQwen, apiKey, concrete, base, opts.HTTPClient), nil
	case types.ProviderGemini:
		return newGemini(apiKey, concrete, base, opts.HTTPClient), nil
	default:
		return nil, fmt.Errorf("unsupported provider %q", p)
	}
}
