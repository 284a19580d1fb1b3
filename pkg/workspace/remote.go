package workspace

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

// Remote is the server surface the workspace client syncs against.
// Implemented by HTTPRemote; the abstraction enables testing without a
// server.
type Remote interface {
	FetchProjects(ctx context.Context) ([]types.Project, error)
	FetchSettings(ctx context.Context) (*types.MasterSettings, error)

	CreateProject(ctx context.Context, p types.NewProject) (*types.Project, error)
	UpdateProject(ctx context.Context, id string, u types.ProjectUpdate) error
	DeleteProject(ctx context.Context, id string) error
	SetStrategyPack(ctx context.Context, projectID string, pack types.StrategyPack) ([]types.Article, error)

	AddArticle(ctx context.Context, projectID string, a types.NewArticle) (*types.Article, error)
	UpdateArticle(ctx context.Context, id string, u types.ArticleUpdate) error
	DeleteArticle(ctx context.Context, id string) error

	UpdateSettings(ctx context.Context, u types.SettingsUpdate) (*types.MasterSettings, error)
}

// HTTPRemote talks to the rankforge API with a bearer token.
type HTTPRemote struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewHTTPRemote creates an HTTPRemote for the given server and token.
func NewHTTPRemote(baseURL, token string, client *http.Client) *HTTPRemote {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPRemote{baseURL: baseURL, token: token, client: client}
}

// RemoteError carries the HTTP status and problem detail from a failed call.
type RemoteError struct {
	StatusCode int
	Detail     string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote: HTTP %d: %s", e.StatusCode, e.Detail)
}

// send issues an authenticated request and decodes the JSON response into
// out when out is non-nil.
func (r *HTTPRemote) send(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, r.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+r.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var problem struct {
			Detail string `json:"detail"`
		}
		raw, _ := io.ReadAll(resp.Body)
		detail := string(raw)
		if json.Unmarshal(raw, &problem) == nil && problem.Detail != "" {
			detail = problem.Detail
		}
		return &RemoteError{StatusCode: resp.StatusCode, Detail: detail}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}

func (r *HTTPRemote) FetchProjects(ctx context.Context) ([]types.Project, error) {
	var projects []types.Project
	if err := r.send(ctx, http.MethodGet, "/api/v1/projects", nil, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

func (r *HTTPRemote) FetchSettings(ctx context.Context) (*types.MasterSettings, error) {
	var settings types.MasterSettings
	if err := r.send(ctx, http.MethodGet, "/api/v1/settings", nil, &settings); err != nil {
		return nil, err
	}
	return &settings, nil
}

func (r *HTTPRemote) CreateProject(ctx context.Context, p types.NewProject) (*types.Project, error) {
	var project types.Project
	if err := r.send(ctx, http.MethodPost, "/api/v1/projects", p, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

func (r *HTTPRemote) UpdateProject(ctx context.Context, id string, u types.ProjectUpdate) error {
	return r.send(ctx, http.MethodPatch, "/api/v1/projects/"+id, u, nil)
}

func (r *HTTPRemote) DeleteProject(ctx context.Context, id string) error {
	return r.send(ctx, http.MethodDelete, "/api/v1/projects/"+id, nil, nil)
}

func (r *HTTPRemote) SetStrategyPack(ctx context.Context, projectID string, pack types.StrategyPack) ([]types.Article, error) {
	var articles []types.Article
	if err := r.send(ctx, http.MethodPut, "/api/v1/projects/"+projectID+"/strategy", pack, &articles); err != nil {
		return nil, err
	}
	return articles, nil
}

func (r *HTTPRemote) AddArticle(ctx context.Context, projectID string, a types.NewArticle) (*types.Article, error) {
	var article types.Article
	if err := r.send(ctx, http.MethodPost, "/api/v1/projects/"+projectID+"/articles", a, &article); err != nil {
		return nil, err
	}
	return &article, nil
}

func (r *HTTPRemote) UpdateArticle(ctx context.Context, id string, u types.ArticleUpdate) error {
	return r.send(ctx, http.MethodPatch, "/api/v1/articles/"+id, u, nil)
}

func (r *HTTPRemote) DeleteArticle(ctx context.Context, id string) error {
	return r.send(ctx, http.MethodDelete, "/api/v1/articles/"+id, nil, nil)
}

func (r *HTTPRemote) UpdateSettings(ctx context.Context, u types.SettingsUpdate) (*types.MasterSettings, error) {
	var settings types.MasterSettings
	if err := r.send(ctx, http.MethodPatch, "/api/v1/settings", u, &settings); err != nil {
		return nil, err
	}
	return &settings, nil
}
