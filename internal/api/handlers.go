package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rankforge/rankforge/internal/secrets"
	"github.com/rankforge/rankforge/internal/store"
	"github.com/rankforge/rankforge/internal/types"
	"github.com/rankforge/rankforge/internal/validation"
	"github.com/rankforge/rankforge/internal/wordpress"
	"github.com/rankforge/rankforge/internal/worker"
)

// GenerationService defines the generation operations the handlers expose.
// Implemented by generate.Service; the abstraction enables testing without
// calling real providers.
type GenerationService interface {
	AnalyzeWebsite(ctx context.Context, userID string, req types.AnalyzeWebsiteRequest) (*types.AnalyzeWebsiteResult, error)
	GenerateStrategy(ctx context.Context, userID string, req types.GenerateStrategyRequest) (*types.GenerateStrategyResult, error)
	GeneratePersona(ctx context.Context, userID string, req types.GeneratePersonaRequest) (*types.GeneratePersonaResult, error)
	GenerateTitles(ctx context.Context, userID string, req types.GenerateTitlesRequest) (*types.GenerateTitlesResult, error)
	GenerateKeywords(ctx context.Context, userID string, req types.GenerateKeywordsRequest) (*types.GenerateKeywordsResult, error)
	GenerateArticle(ctx context.Context, userID string, req types.GenerateArticleRequest) (*types.GenerateArticleResult, error)
	ValidateKey(ctx context.Context, req types.ValidateKeyRequest) *types.ValidateKeyResult
}

// Publisher defines the WordPress operations.
// Implemented by wordpress.Client.
type Publisher interface {
	Publish(ctx context.Context, post wordpress.Post) (*wordpress.Published, error)
	CheckCredentials(ctx context.Context, siteURL, username, applicationPassword string) error
}

// Handler implements the API handlers
type Handler struct {
	store     store.Store
	cipher    *secrets.Cipher
	generator GenerationService
	publisher Publisher
	batches   *worker.BatchRunner
	version   string
}

// NewHandler creates a new Handler with store.Store interface
func NewHandler(s store.Store, cipher *secrets.Cipher, generator GenerationService, publisher Publisher, batches *worker.BatchRunner, version string) *Handler {
	return &Handler{
		store:     s,
		cipher:    cipher,
		generator: generator,
		publisher: publisher,
		batches:   batches,
		version:   version,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// Health returns the health status
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": h.version,
	})
}

// projectAccess loads the caller's access level for a project, writing the
// problem response itself on failure. The bool reports whether the caller
// may proceed.
func (h *Handler) projectAccess(w http.ResponseWriter, r *http.Request, projectID string, needEdit bool) (store.ProjectAccess, bool) {
	identity := MustIdentityFromContext(r.Context())
	access, err := h.store.GetProjectAccess(r.Context(), projectID, identity.UserID, identity.Email)
	if err != nil {
		MapStoreError(w, r, err)
		return access, false
	}
	if !access.CanView() || (needEdit && !access.CanEdit()) {
		WriteProblem(w, r, http.StatusForbidden, "You do not have access to this project")
		return access, false
	}
	return access, true
}

// ListProjects handles GET /api/v1/projects. Returns owned and shared
// projects, de-duplicated with owned taking precedence.
func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	identity := MustIdentityFromContext(r.Context())
	projects, err := h.store.ListProjectsForUser(r.Context(), identity.UserID, identity.Email)
	if err != nil {
		slog.Error("list projects failed", "error", err, "user_id", identity.UserID)
		MapStoreError(w, r, err)
		return
	}
	if projects == nil {
		projects = []types.Project{}
	}
	writeJSON(w, http.StatusOK, projects)
}

// CreateProject handles POST /api/v1/projects
func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req types.NewProject
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %s", err.Error()))
		return
	}

	if errs := validation.ValidateNewProject(req); len(errs) > 0 {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", errs)
		return
	}

	identity := MustIdentityFromContext(r.Context())
	project, err := h.store.CreateProject(r.Context(), identity.UserID, req)
	if err != nil {
		slog.Error("create project failed", "error", err, "user_id", identity.UserID)
		MapStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, project)
}

// GetProject handles GET /api/v1/projects/{id}
func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	access, ok := h.projectAccess(w, r, id, false)
	if !ok {
		return
	}

	project, err := h.store.GetProject(r.Context(), id)
	if err != nil {
		MapStoreError(w, r, err)
		return
	}
	project.SharedRole = access.Role
	writeJSON(w, http.StatusOK, project)
}

// UpdateProject handles PATCH /api/v1/projects/{id}. Only fields present in
// the body are written; absent keys are left untouched.
func (h *Handler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := h.projectAccess(w, r, id, true); !ok {
		return
	}

	var req types.ProjectUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %s", err.Error()))
		return
	}
	if errs := validation.ValidateProjectUpdate(req); len(errs) > 0 {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", errs)
		return
	}

	if err := h.store.UpdateProject(r.Context(), id, req); err != nil {
		MapStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteProject handles DELETE /api/v1/projects/{id}. Owner only.
func (h *Handler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	access, ok := h.projectAccess(w, r, id, true)
	if !ok {
		return
	}
	if !access.Owner {
		WriteProblem(w, r, http.StatusForbidden, "Only the project owner can delete it")
		return
	}

	if err := h.store.DeleteProject(r.Context(), id); err != nil {
		MapStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetStrategy handles PUT /api/v1/projects/{id}/strategy. Destructive
// replace: all existing articles are deleted and recreated from the pack's
// article titles with status todo.
func (h *Handler) SetStrategy(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := h.projectAccess(w, r, id, true); !ok {
		return
	}

	var pack types.StrategyPack
	if err := json.NewDecoder(r.Body).Decode(&pack); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %s", err.Error()))
		return
	}

	articles, err := h.store.SetStrategyPack(r.Context(), id, pack)
	if err != nil {
		slog.Error("set strategy failed", "error", err, "project_id", id)
		MapStoreError(w, r, err)
		return
	}
	if articles == nil {
		articles = []types.Article{}
	}
	writeJSON(w, http.StatusOK, articles)
}

// ListArticles handles GET /api/v1/projects/{id}/articles
func (h *Handler) ListArticles(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := h.projectAccess(w, r, id, false); !ok {
		return
	}

	articles, err := h.store.ListArticlesForProject(r.Context(), id)
	if err != nil {
		MapStoreError(w, r, err)
		return
	}
	if articles == nil {
		articles = []types.Article{}
	}
	writeJSON(w, http.StatusOK, articles)
}

// AddArticle handles POST /api/v1/projects/{id}/articles
func (h *Handler) AddArticle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := h.projectAccess(w, r, id, true); !ok {
		return
	}

	var req types.NewArticle
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %s", err.Error()))
		return
	}
	req.ProjectID = id
	if errs := validation.ValidateNewArticle(req); len(errs) > 0 {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", errs)
		return
	}

	article, err := h.store.AddArticle(r.Context(), req)
	if err != nil {
		MapStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, article)
}

// articleAccess loads an article and checks project access for it.
func (h *Handler) articleAccess(w http.ResponseWriter, r *http.Request, articleID string, needEdit bool) (*types.Article, bool) {
	article, err := h.store.GetArticle(r.Context(), articleID)
	if err != nil {
		MapStoreError(w, r, err)
		return nil, false
	}
	if _, ok := h.projectAccess(w, r, article.ProjectID, needEdit); !ok {
		return nil, false
	}
	return article, true
}

// GetArticle handles GET /api/v1/articles/{id}
func (h *Handler) GetArticle(w http.ResponseWriter, r *http.Request) {
	article, ok := h.articleAccess(w, r, chi.URLParam(r, "id"), false)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, article)
}

// UpdateArticle handles PATCH /api/v1/articles/{id}
func (h *Handler) UpdateArticle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := h.articleAccess(w, r, id, true); !ok {
		return
	}

	var req types.ArticleUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %s", err.Error()))
		return
	}
	if errs := validation.ValidateArticleUpdate(req); len(errs) > 0 {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", errs)
		return
	}

	if err := h.store.UpdateArticle(r.Context(), id, req); err != nil {
		MapStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteArticle handles DELETE /api/v1/articles/{id}
func (h *Handler) DeleteArticle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := h.articleAccess(w, r, id, true); !ok {
		return
	}
	if err := h.store.DeleteArticle(r.Context(), id); err != nil {
		MapStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListShares handles GET /api/v1/projects/{id}/shares. Owner only.
func (h *Handler) ListShares(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	access, ok := h.projectAccess(w, r, id, false)
	if !ok {
		return
	}
	if !access.Owner {
		WriteProblem(w, r, http.StatusForbidden, "Only the project owner can manage shares")
		return
	}

	shares, err := h.store.ListSharesForProject(r.Context(), id)
	if err != nil {
		MapStoreError(w, r, err)
		return
	}
	if shares == nil {
		shares = []types.ProjectShare{}
	}
	writeJSON(w, http.StatusOK, shares)
}

// CreateShare handles POST /api/v1/projects/{id}/shares. Owner only.
func (h *Handler) CreateShare(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	access, ok := h.projectAccess(w, r, id, false)
	if !ok {
		return
	}
	if !access.Owner {
		WriteProblem(w, r, http.StatusForbidden, "Only the project owner can manage shares")
		return
	}

	var req types.NewShare
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %s", err.Error()))
		return
	}
	req.ProjectID = id
	if errs := validation.ValidateNewShare(req); len(errs) > 0 {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", errs)
		return
	}

	identity := MustIdentityFromContext(r.Context())
	share, err := h.store.CreateShare(r.Context(), types.ProjectShare{
		ProjectID:   id,
		OwnerID:     identity.UserID,
		SharedEmail: req.SharedEmail,
		Role:        req.Role,
	})
	if err != nil {
		MapStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, share)
}

// DeleteShare handles DELETE /api/v1/projects/{id}/shares/{shareID}. Owner
// only.
func (h *Handler) DeleteShare(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	access, ok := h.projectAccess(w, r, id, false)
	if !ok {
		return
	}
	if !access.Owner {
		WriteProblem(w, r, http.StatusForbidden, "Only the project owner can manage shares")
		return
	}

	if err := h.store.DeleteShare(r.Context(), chi.URLParam(r, "shareID")); err != nil {
		MapStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
