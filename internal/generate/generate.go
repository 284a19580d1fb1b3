// Package generate orchestrates AI content generation: it resolves the
// caller's credentials, builds the prompt, calls the provider adapter, and
// parses the model output into structured results.
package generate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/rankforge/rankforge/internal/credentials"
	"github.com/rankforge/rankforge/internal/provider"
	"github.com/rankforge/rankforge/internal/types"
)

// AdapterFactory constructs a provider adapter. Swappable for testing.
type AdapterFactory func(p types.Provider, apiKey, model string, opts provider.Options) (provider.Adapter, error)

// Service runs every generation operation. One AI call per operation, no
// retries.
type Service struct {
	resolver   *credentials.Resolver
	opts       provider.Options
	logger     *slog.Logger
	newAdapter AdapterFactory
}

func NewService(resolver *credentials.Resolver, opts provider.Options, logger *slog.Logger) *Service {
	return &Service{
		resolver:   resolver,
		opts:       opts,
		logger:     logger,
		newAdapter: provider.New,
	}
}

// complete resolves credentials for userID and runs one completion.
func (s *Service) complete(ctx context.Context, userID, system, user string) (string, error) {
	creds, err := s.resolver.Resolve(ctx, userID)
	if err != nil {
		return "", err
	}
	return s.completeWith(ctx, creds, system, user)
}

func (s *Service) completeWith(ctx context.Context, creds credentials.Resolved, system, user string) (string, error) {
	adapter, err := s.newAdapter(creds.Provider, creds.APIKey, creds.Model, s.opts)
	if err != nil {
		return "", err
	}

	s.logger.Debug("calling provider",
		"provider", creds.Provider,
		"model", adapter.ModelName())

	text, err := adapter.Complete(ctx, provider.CompletionRequest{
		SystemPrompt: system,
		UserPrompt:   user,
	})
	if err != nil {
		return "", err
	}
	return text, nil
}

// AnalyzeWebsite profiles the business behind a URL into structured fields.
func (s *Service) AnalyzeWebsite(ctx context.Context, userID string, req types.AnalyzeWebsiteRequest) (*types.AnalyzeWebsiteResult, error) {
	raw, err := s.complete(ctx, userID, systemPrompt, analyzeWebsitePrompt(req.WebsiteURL, req.Language))
	if err != nil {
		return nil, err
	}
	var result types.AnalyzeWebsiteResult
	if err := decodeJSON(raw, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GenerateStrategy produces a full strategy pack from the project's business
// profile.
func (s *Service) GenerateStrategy(ctx context.Context, userID string, req types.GenerateStrategyRequest) (*types.GenerateStrategyResult, error) {
	raw, err := s.complete(ctx, userID, systemPrompt, strategyPrompt(req.ProjectData))
	if err != nil {
		return nil, err
	}
	var pack types.StrategyPack
	if err := decodeJSON(raw, &pack); err != nil {
		return nil, err
	}
	return &types.GenerateStrategyResult{Strategy: pack}, nil
}

// GeneratePersona produces one customer persona.
func (s *Service) GeneratePersona(ctx context.Context, userID string, req types.GeneratePersonaRequest) (*types.GeneratePersonaResult, error) {
	raw, err := s.complete(ctx, userID, systemPrompt, personaPrompt(req.ProjectData))
	if err != nil {
		return nil, err
	}
	var persona types.Persona
	if err := decodeJSON(raw, &persona); err != nil {
		return nil, err
	}
	return &types.GeneratePersonaResult{Persona: persona}, nil
}

// GenerateTitles suggests new article titles, avoiding the existing ones.
func (s *Service) GenerateTitles(ctx context.Context, userID string, req types.GenerateTitlesRequest) (*types.GenerateTitlesResult, error) {
	if req.Count <= 0 {
		req.Count = 10
	}
	raw, err := s.complete(ctx, userID, systemPrompt, titlesPrompt(req))
	if err != nil {
		return nil, err
	}
	var result types.GenerateTitlesResult
	if err := decodeJSON(raw, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GenerateKeywords produces keyword ideas around a seed. The 100-item,
// 25-per-type split is a prompt contract with the model, not locally
// enforced.
func (s *Service) GenerateKeywords(ctx context.Context, userID string, req types.GenerateKeywordsRequest) (*types.GenerateKeywordsResult, error) {
	raw, err := s.complete(ctx, userID, systemPrompt, keywordsPrompt(req.SeedKeyword, req.Language))
	if err != nil {
		return nil, err
	}
	var result types.GenerateKeywordsResult
	if err := decodeJSON(raw, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GenerateArticle writes the full article body as HTML. When the project
// does not set a target word count, the settings default applies. The word
// count in the result is computed locally from the returned content.
func (s *Service) GenerateArticle(ctx context.Context, userID string, req types.GenerateArticleRequest) (*types.GenerateArticleResult, error) {
	creds, err := s.resolver.Resolve(ctx, userID)
	if err != nil {
		return nil, err
	}
	if req.ProjectData.WordCount <= 0 {
		req.ProjectData.WordCount = creds.WordCount
	}
	raw, err := s.completeWith(ctx, creds, articleSystemPrompt, articlePrompt(req.ArticleTitle, req.ProjectData))
	if err != nil {
		return nil, err
	}
	content := stripFences(raw)
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("provider returned empty article content")
	}
	return &types.GenerateArticleResult{
		Content:   content,
		WordCount: countWords(content),
	}, nil
}

// ValidateKey probes a plaintext key with a minimal completion. A throttled
// probe still proves the key is real, so rate-limit failures report valid.
func (s *Service) ValidateKey(ctx context.Context, req types.ValidateKeyRequest) *types.ValidateKeyResult {
	adapter, err := s.newAdapter(req.Provider, req.APIKey, provider.ModelFast, s.opts)
	if err != nil {
		return &types.ValidateKeyResult{Valid: false, Error: err.Error()}
	}
	_, err = adapter.Complete(ctx, provider.CompletionRequest{UserPrompt: "Reply with the single word OK."})
	if err != nil {
		if provider.IsRateLimit(err) {
			return &types.ValidateKeyResult{Valid: true}
		}
		return &types.ValidateKeyResult{Valid: false, Error: err.Error()}
	}
	return &types.ValidateKeyResult{Valid: true}
}
