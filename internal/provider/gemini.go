package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rankforge/rankforge/internal/types"
)

const defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// Compile-time interface check
var _ Adapter = (*Gemini)(nil)

// Gemini calls the Google Generative Language generateContent endpoint
// directly. The API key travels as a query parameter per Google's scheme.
type Gemini struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

func newGemini(apiKey, model, baseURL string, client *http.Client) *Gemini {
	if baseURL == "" {
		baseURL = defaultGeminiBaseURL
	}
	if client == nil {
		client = &http.Client{Timeout: 120 * time.Second}
	}
	return &Gemini{apiKey: apiKey, model: model, baseURL: baseURL, client: client}
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
	Role  string       `json:"role,omitempty"`
}

type geminiRequest struct {
	Contents          []geminiContent `json:"contents"`
	SystemInstruction *geminiContent  `json:"systemInstruction,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Complete runs a single generateContent call and returns the first
// candidate's text.
func (g *Gemini) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	body := geminiRequest{
		Contents: []geminiContent{
			{Role: "user", Parts: []geminiPart{{Text: req.UserPrompt}}},
		},
	}
	if req.SystemPrompt != "" {
		body.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: req.SystemPrompt}}}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("encoding gemini request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", g.baseURL, g.model, g.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("building gemini request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading gemini response: %w", err)
	}

	var parsed geminiResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		if resp.StatusCode != http.StatusOK {
			return "", newProviderError(types.ProviderGemini, resp.StatusCode, string(raw))
		}
		return "", fmt.Errorf("decoding gemini response: %w", err)
	}

	if resp.StatusCode != http.StatusOK || parsed.Error != nil {
		message := string(raw)
		if parsed.Error != nil {
			message = parsed.Error.Message
			if parsed.Error.Status != "" {
				message = parsed.Error.Status + ": " + message
			}
		}
		return "", newProviderError(types.ProviderGemini, resp.StatusCode, message)
	}

	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", newProviderError(types.ProviderGemini, resp.StatusCode, "no candidates returned")
	}
	return parsed.Candidates[0].Content.Parts[0].Text, nil
}

// Name returns the vendor this adapter targets.
func (g *Gemini) Name() types.Provider {
	return types.ProviderGemini
}

// ModelName returns the concrete model identifier in use.
func (g *Gemini) ModelName() string {
	return g.model
}
