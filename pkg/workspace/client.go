// Package workspace keeps a local mirror of a user's projects, articles, and
// settings consistent with the server. Every mutation is remote-first: the
// local copy changes only after the remote call succeeds, so local state is
// a strict function of remote-call success.
package workspace

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/rankforge/rankforge/internal/types"
	"github.com/rankforge/rankforge/internal/validation"
)

// ErrValidation means the input was rejected before any remote call.
var ErrValidation = errors.New("validation failed")

// Client mirrors remote state for one authenticated user. All methods are
// safe for concurrent use.
type Client struct {
	remote Remote
	logger *slog.Logger

	mu              sync.RWMutex
	loading         bool
	projects        []types.Project
	settings        *types.MasterSettings
	activeProjectID string
}

// New creates a workspace client over the given remote.
func New(remote Remote, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		remote:  remote,
		logger:  logger,
		loading: true,
	}
}

// Load fetches settings and projects in parallel and installs both as the
// local mirror. Loading reports true until both fetches complete; callers
// must treat accessor output as stale while loading.
func (c *Client) Load(ctx context.Context) error {
	c.mu.Lock()
	c.loading = true
	c.mu.Unlock()

	var (
		wg          sync.WaitGroup
		projects    []types.Project
		settings    *types.MasterSettings
		projectsErr error
		settingsErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		projects, projectsErr = c.remote.FetchProjects(ctx)
	}()
	go func() {
		defer wg.Done()
		settings, settingsErr = c.remote.FetchSettings(ctx)
	}()
	wg.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = false

	if projectsErr != nil {
		c.logger.Error("failed to load projects", "error", projectsErr)
		return projectsErr
	}
	if settingsErr != nil {
		c.logger.Error("failed to load settings", "error", settingsErr)
		return settingsErr
	}

	c.projects = projects
	c.settings = settings
	return nil
}

// Reset clears all local state, used when the user signs out.
func (c *Client) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.projects = nil
	c.settings = nil
	c.activeProjectID = ""
	c.loading = false
}

// Loading reports whether the initial load is still in flight.
func (c *Client) Loading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loading
}

// Projects returns a copy of the project list: owned and shared,
// de-duplicated with owned taking precedence.
func (c *Client) Projects() []types.Project {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]types.Project(nil), c.projects...)
}

// Settings returns the current masked settings view, or nil before load.
func (c *Client) Settings() *types.MasterSettings {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.settings == nil {
		return nil
	}
	copied := *c.settings
	return &copied
}

// SetActiveProject selects the project the UI is working in.
func (c *Client) SetActiveProject(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.activeProjectID = id
}

// ActiveProject resolves the active project by id, or nil when unset or no
// longer present.
func (c *Client) ActiveProject() *types.Project {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.activeProjectID == "" {
		return nil
	}
	for i := range c.projects {
		if c.projects[i].ID == c.activeProjectID {
			copied := c.projects[i]
			return &copied
		}
	}
	return nil
}

// refetchProjects replaces the local project list from remote. Used after
// operations with cascading effects instead of synthesizing local state.
func (c *Client) refetchProjects(ctx context.Context) error {
	projects, err := c.remote.FetchProjects(ctx)
	if err != nil {
		c.logger.Error("projects refetch failed", "error", err)
		return err
	}
	c.mu.Lock()
	c.projects = projects
	c.mu.Unlock()
	return nil
}

// CreateProject creates a project and returns its id. The local list is
// fully refetched rather than locally synthesized, so server-assigned
// defaults are never duplicated client-side.
func (c *Client) CreateProject(ctx context.Context, p types.NewProject) (string, error) {
	if errs := validation.ValidateNewProject(p); len(errs) > 0 {
		return "", ErrValidation
	}

	project, err := c.remote.CreateProject(ctx, p)
	if err != nil {
		c.logger.Error("create project failed", "error", err)
		return "", err
	}
	if err := c.refetchProjects(ctx); err != nil {
		return project.ID, err
	}
	return project.ID, nil
}

// UpdateProject writes a sparse update remotely, then shallow-merges it into
// the matching local project and bumps its UpdatedAt. No other project is
// touched.
func (c *Client) UpdateProject(ctx context.Context, id string, u types.ProjectUpdate) error {
	if err := c.remote.UpdateProject(ctx, id, u); err != nil {
		c.logger.Error("update project failed", "error", err, "project_id", id)
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.projects {
		if c.projects[i].ID == id {
			applyProjectUpdate(&c.projects[i], u)
			c.projects[i].UpdatedAt = time.Now().UTC()
			break
		}
	}
	return nil
}

// DeleteProject removes the project remotely, then locally. If it was the
// active project, the selection is cleared.
func (c *Client) DeleteProject(ctx context.Context, id string) error {
	if err := c.remote.DeleteProject(ctx, id); err != nil {
		c.logger.Error("delete project failed", "error", err, "project_id", id)
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.projects {
		if c.projects[i].ID == id {
			c.projects = append(c.projects[:i], c.projects[i+1:]...)
			break
		}
	}
	if c.activeProjectID == id {
		c.activeProjectID = ""
	}
	return nil
}

// SetStrategyPack replaces the project's strategy and recreates its article
// list from the pack's titles. Destructive: previously generated content for
// the project is lost. Always followed by a full refetch.
func (c *Client) SetStrategyPack(ctx context.Context, projectID string, pack types.StrategyPack) error {
	if _, err := c.remote.SetStrategyPack(ctx, projectID, pack); err != nil {
		c.logger.Error("set strategy failed", "error", err, "project_id", projectID)
		return err
	}
	return c.refetchProjects(ctx)
}

// AddArticle creates the article remotely, then appends it to the local
// project.
func (c *Client) AddArticle(ctx context.Context, projectID string, a types.NewArticle) (*types.Article, error) {
	a.ProjectID = projectID
	article, err := c.remote.AddArticle(ctx, projectID, a)
	if err != nil {
		c.logger.Error("add article failed", "error", err, "project_id", projectID)
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.projects {
		if c.projects[i].ID == projectID {
			c.projects[i].Articles = append(c.projects[i].Articles, *article)
			break
		}
	}
	return article, nil
}

// UpdateArticle writes a sparse update remotely, then patches the local
// copy.
func (c *Client) UpdateArticle(ctx context.Context, articleID string, u types.ArticleUpdate) error {
	if err := c.remote.UpdateArticle(ctx, articleID, u); err != nil {
		c.logger.Error("update article failed", "error", err, "article_id", articleID)
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.projects {
		for j := range c.projects[i].Articles {
			if c.projects[i].Articles[j].ID == articleID {
				applyArticleUpdate(&c.projects[i].Articles[j], u)
				c.projects[i].Articles[j].UpdatedAt = time.Now().UTC()
				return nil
			}
		}
	}
	return nil
}

// DeleteArticle removes the article remotely, then locally.
func (c *Client) DeleteArticle(ctx context.Context, articleID string) error {
	if err := c.remote.DeleteArticle(ctx, articleID); err != nil {
		c.logger.Error("delete article failed", "error", err, "article_id", articleID)
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.projects {
		articles := c.projects[i].Articles
		for j := range articles {
			if articles[j].ID == articleID {
				c.projects[i].Articles = append(articles[:j], articles[j+1:]...)
				return nil
			}
		}
	}
	return nil
}

// UpdateMasterSettings writes a sparse settings update. The server encrypts
// any plaintext key and returns the masked view, which replaces the local
// settings wholesale; the cache never holds more than a masked placeholder
// for keys.
func (c *Client) UpdateMasterSettings(ctx context.Context, u types.SettingsUpdate) error {
	settings, err := c.remote.UpdateSettings(ctx, u)
	if err != nil {
		c.logger.Error("update settings failed", "error", err)
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.settings = settings
	return nil
}

// AddKeywordsToProject appends keywords to the project's list, skipping
// case-sensitive exact duplicates. Order of surviving entries is preserved.
func (c *Client) AddKeywordsToProject(ctx context.Context, projectID string, keywords []string) error {
	c.mu.RLock()
	var current []string
	found := false
	for i := range c.projects {
		if c.projects[i].ID == projectID {
			current = append(current, c.projects[i].Keywords...)
			found = true
			break
		}
	}
	c.mu.RUnlock()
	if !found {
		return errors.New("project not found")
	}

	existing := make(map[string]bool, len(current))
	for _, k := range current {
		existing[k] = true
	}
	merged := current
	for _, k := range keywords {
		if !existing[k] {
			merged = append(merged, k)
			existing[k] = true
		}
	}

	return c.UpdateProject(ctx, projectID, types.ProjectUpdate{Keywords: &merged})
}

// RemoveKeywordFromProject removes a case-sensitive exact match from the
// project's keyword list.
func (c *Client) RemoveKeywordFromProject(ctx context.Context, projectID, keyword string) error {
	c.mu.RLock()
	var remaining []string
	found := false
	for i := range c.projects {
		if c.projects[i].ID == projectID {
			found = true
			for _, k := range c.projects[i].Keywords {
				if k != keyword {
					remaining = append(remaining, k)
				}
			}
			break
		}
	}
	c.mu.RUnlock()
	if !found {
		return errors.New("project not found")
	}
	if remaining == nil {
		remaining = []string{}
	}

	return c.UpdateProject(ctx, projectID, types.ProjectUpdate{Keywords: &remaining})
}

// applyProjectUpdate shallow-merges the non-nil fields of u into p.
func applyProjectUpdate(p *types.Project, u types.ProjectUpdate) {
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Mode != nil {
		p.Mode = *u.Mode
	}
	if u.Language != nil {
		p.Language = *u.Language
	}
	if u.CustomLanguage != nil {
		p.CustomLanguage = *u.CustomLanguage
	}
	if u.WebsiteURL != nil {
		p.WebsiteURL = *u.WebsiteURL
	}
	if u.Product != nil {
		p.Product = *u.Product
	}
	if u.TargetMarket != nil {
		p.TargetMarket = *u.TargetMarket
	}
	if u.PersonaText != nil {
		p.PersonaText = *u.PersonaText
	}
	if u.PainPoints != nil {
		p.PainPoints = *u.PainPoints
	}
	if u.ValueProposition != nil {
		p.ValueProposition = *u.ValueProposition
	}
	if u.BusinessName != nil {
		p.BusinessName = *u.BusinessName
	}
	if u.BusinessEmail != nil {
		p.BusinessEmail = *u.BusinessEmail
	}
	if u.BusinessPhone != nil {
		p.BusinessPhone = *u.BusinessPhone
	}
	if u.BrandVoice != nil {
		p.BrandVoice = *u.BrandVoice
	}
	if u.ReferenceText != nil {
		p.ReferenceText = *u.ReferenceText
	}
	if u.Keywords != nil {
		p.Keywords = append([]string(nil), (*u.Keywords)...)
	}
	if u.Personas != nil {
		p.Personas = append([]types.Persona(nil), (*u.Personas)...)
	}
	if u.WordPress != nil {
		copied := *u.WordPress
		p.WordPress = &copied
	}
}

// applyArticleUpdate shallow-merges the non-nil fields of u into a.
func applyArticleUpdate(a *types.Article, u types.ArticleUpdate) {
	if u.Title != nil {
		a.Title = *u.Title
	}
	if u.Content != nil {
		a.Content = *u.Content
	}
	if u.Status != nil {
		a.Status = *u.Status
	}
	if u.WordCount != nil {
		a.WordCount = *u.WordCount
	}
	if u.Keywords != nil {
		a.Keywords = append([]string(nil), (*u.Keywords)...)
	}
	if u.PersonaName != nil {
		a.PersonaName = *u.PersonaName
	}
	if u.FunnelStage != nil {
		a.FunnelStage = *u.FunnelStage
	}
	if u.ArticleType != nil {
		a.ArticleType = *u.ArticleType
	}
}
