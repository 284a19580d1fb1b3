package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rankforge/rankforge/internal/types"
	"github.com/rankforge/rankforge/internal/validation"
	"github.com/rankforge/rankforge/internal/wordpress"
	"github.com/rankforge/rankforge/internal/worker"
)

// decodeBody decodes the JSON request body, writing the problem response
// itself on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %s", err.Error()))
		return false
	}
	return true
}

// AnalyzeWebsite handles POST /api/v1/generate/analyze-website
func (h *Handler) AnalyzeWebsite(w http.ResponseWriter, r *http.Request) {
	var req types.AnalyzeWebsiteRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if errs := validation.ValidateAnalyzeWebsite(req); len(errs) > 0 {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", errs)
		return
	}

	identity := MustIdentityFromContext(r.Context())
	result, err := h.generator.AnalyzeWebsite(r.Context(), identity.UserID, req)
	if err != nil {
		MapGenerateError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// GenerateStrategy handles POST /api/v1/generate/strategy
func (h *Handler) GenerateStrategy(w http.ResponseWriter, r *http.Request) {
	var req types.GenerateStrategyRequest
	if !decodeBody(w, r, &req) {
		return
	}

	identity := MustIdentityFromContext(r.Context())
	result, err := h.generator.GenerateStrategy(r.Context(), identity.UserID, req)
	if err != nil {
		MapGenerateError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// GeneratePersona handles POST /api/v1/generate/persona
func (h *Handler) GeneratePersona(w http.ResponseWriter, r *http.Request) {
	var req types.GeneratePersonaRequest
	if !decodeBody(w, r, &req) {
		return
	}

	identity := MustIdentityFromContext(r.Context())
	result, err := h.generator.GeneratePersona(r.Context(), identity.UserID, req)
	if err != nil {
		MapGenerateError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// GenerateTitles handles POST /api/v1/generate/titles
func (h *Handler) GenerateTitles(w http.ResponseWriter, r *http.Request) {
	var req types.GenerateTitlesRequest
	if !decodeBody(w, r, &req) {
		return
	}

	identity := MustIdentityFromContext(r.Context())
	result, err := h.generator.GenerateTitles(r.Context(), identity.UserID, req)
	if err != nil {
		MapGenerateError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// GenerateKeywords handles POST /api/v1/generate/keywords
func (h *Handler) GenerateKeywords(w http.ResponseWriter, r *http.Request) {
	var req types.GenerateKeywordsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if errs := validation.ValidateGenerateKeywords(req); len(errs) > 0 {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", errs)
		return
	}

	identity := MustIdentityFromContext(r.Context())
	result, err := h.generator.GenerateKeywords(r.Context(), identity.UserID, req)
	if err != nil {
		MapGenerateError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// GenerateArticle handles POST /api/v1/generate/article
func (h *Handler) GenerateArticle(w http.ResponseWriter, r *http.Request) {
	var req types.GenerateArticleRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if errs := validation.ValidateGenerateArticle(req); len(errs) > 0 {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", errs)
		return
	}

	identity := MustIdentityFromContext(r.Context())
	result, err := h.generator.GenerateArticle(r.Context(), identity.UserID, req)
	if err != nil {
		MapGenerateError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ValidateKey handles POST /api/v1/generate/validate-key. Probes the given
// plaintext key against its provider; never stores it.
func (h *Handler) ValidateKey(w http.ResponseWriter, r *http.Request) {
	var req types.ValidateKeyRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if errs := validation.ValidateValidateKey(req); len(errs) > 0 {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", errs)
		return
	}

	writeJSON(w, http.StatusOK, h.generator.ValidateKey(r.Context(), req))
}

// Publish handles POST /api/v1/publish. Sends an article to the project's
// WordPress site using its stored application password.
func (h *Handler) Publish(w http.ResponseWriter, r *http.Request) {
	var req types.PublishRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if errs := validation.ValidatePublish(req); len(errs) > 0 {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", errs)
		return
	}
	if _, ok := h.projectAccess(w, r, req.ProjectID, true); !ok {
		return
	}

	project, err := h.store.GetProject(r.Context(), req.ProjectID)
	if err != nil {
		MapStoreError(w, r, err)
		return
	}
	if project.WordPress == nil || project.WordPress.Password == "" {
		WriteProblem(w, r, http.StatusPreconditionFailed, "Project has no WordPress credentials configured")
		return
	}

	siteURL := req.WordPressURL
	if siteURL == "" {
		siteURL = project.WordPress.URL
	}
	username := req.Username
	if username == "" {
		username = project.WordPress.Username
	}

	published, err := h.publisher.Publish(r.Context(), wordpress.Post{
		SiteURL:             siteURL,
		Username:            username,
		ApplicationPassword: project.WordPress.Password,
		Title:               req.Title,
		Content:             req.Content,
		Status:              req.Status,
	})
	if err != nil {
		MapPublishError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, types.PublishResult{
		Success: true,
		PostID:  published.PostID,
		PostURL: published.PostURL,
		EditURL: published.EditURL,
	})
}

// ValidateWordPress handles POST /api/v1/publish/validate. Probes the site's
// authenticated-user endpoint; bad credentials come back as a negative
// result, not an error status.
func (h *Handler) ValidateWordPress(w http.ResponseWriter, r *http.Request) {
	var req types.ValidateWordPressRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if errs := validation.ValidateWordPressCredentials(req); len(errs) > 0 {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", errs)
		return
	}

	result := types.ValidateWordPressResult{Valid: true}
	if err := h.publisher.CheckCredentials(r.Context(), req.WordPressURL, req.Username, req.ApplicationPassword); err != nil {
		result = types.ValidateWordPressResult{Valid: false, Error: err.Error()}
	}
	writeJSON(w, http.StatusOK, result)
}

// StartBatch handles POST /api/v1/projects/{id}/batch. Queues every todo
// article for sequential generation; the run outlives this request.
func (h *Handler) StartBatch(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := h.projectAccess(w, r, id, true); !ok {
		return
	}

	identity := MustIdentityFromContext(r.Context())
	queued, err := h.batches.Start(context.WithoutCancel(r.Context()), identity.UserID, id)
	if err != nil {
		if errors.Is(err, worker.ErrBatchRunning) {
			WriteProblem(w, r, http.StatusConflict, "A batch is already running for this project")
			return
		}
		MapStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]int{"queued": queued})
}

// BatchStatus handles GET /api/v1/projects/{id}/batch
func (h *Handler) BatchStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := h.projectAccess(w, r, id, false); !ok {
		return
	}

	status, ok := h.batches.Status(id)
	if !ok {
		WriteProblem(w, r, http.StatusNotFound, "No batch has run for this project")
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// CancelBatch handles DELETE /api/v1/projects/{id}/batch
func (h *Handler) CancelBatch(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := h.projectAccess(w, r, id, true); !ok {
		return
	}

	if !h.batches.Cancel(id) {
		WriteProblem(w, r, http.StatusNotFound, "No batch is running for this project")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
