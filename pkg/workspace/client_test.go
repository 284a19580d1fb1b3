package workspace

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/rankforge/rankforge/internal/types"
)

// mockRemote implements Remote with in-memory state for testing.
type mockRemote struct {
	mu       sync.Mutex
	projects []types.Project
	settings types.MasterSettings
	nextID   int

	failNext error // returned by the next mutating call, then cleared

	fetchCalls   int
	updateCalls  []types.ProjectUpdate
	articleCalls []types.ArticleUpdate
}

func (m *mockRemote) takeFailure() error {
	err := m.failNext
	m.failNext = nil
	return err
}

func (m *mockRemote) FetchProjects(ctx context.Context) ([]types.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetchCalls++
	return append([]types.Project(nil), m.projects...), nil
}

func (m *mockRemote) FetchSettings(ctx context.Context) (*types.MasterSettings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := m.settings
	return &copied, nil
}

func (m *mockRemote) CreateProject(ctx context.Context, p types.NewProject) (*types.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return nil, err
	}
	m.nextID++
	project := types.Project{
		ID:       string(rune('A' + m.nextID - 1)),
		Name:     p.Name,
		Mode:     p.Mode,
		Language: p.Language,
		Keywords: []string{},
	}
	m.projects = append(m.projects, project)
	return &project, nil
}

func (m *mockRemote) UpdateProject(ctx context.Context, id string, u types.ProjectUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return err
	}
	m.updateCalls = append(m.updateCalls, u)
	return nil
}

func (m *mockRemote) DeleteProject(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return err
	}
	for i := range m.projects {
		if m.projects[i].ID == id {
			m.projects = append(m.projects[:i], m.projects[i+1:]...)
			break
		}
	}
	return nil
}

func (m *mockRemote) SetStrategyPack(ctx context.Context, projectID string, pack types.StrategyPack) ([]types.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return nil, err
	}
	articles := make([]types.Article, len(pack.ArticleTitles))
	for i, title := range pack.ArticleTitles {
		articles[i] = types.Article{ID: title, ProjectID: projectID, Title: title, Status: types.StatusTodo}
	}
	for i := range m.projects {
		if m.projects[i].ID == projectID {
			m.projects[i].Strategy = &pack
			m.projects[i].Articles = articles
		}
	}
	return articles, nil
}

func (m *mockRemote) AddArticle(ctx context.Context, projectID string, a types.NewArticle) (*types.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return nil, err
	}
	article := types.Article{ID: "art-" + a.Title, ProjectID: projectID, Title: a.Title, Status: types.StatusTodo}
	return &article, nil
}

func (m *mockRemote) UpdateArticle(ctx context.Context, id string, u types.ArticleUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return err
	}
	m.articleCalls = append(m.articleCalls, u)
	return nil
}

func (m *mockRemote) DeleteArticle(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.takeFailure()
}

func (m *mockRemote) UpdateSettings(ctx context.Context, u types.SettingsUpdate) (*types.MasterSettings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return nil, err
	}
	if u.WordCount != nil {
		m.settings.WordCount = *u.WordCount
	}
	if u.Provider != nil {
		m.settings.Provider = *u.Provider
	}
	// The server never returns plaintext keys, only masked indicators.
	if u.APIKey != nil && *u.APIKey != "" {
		m.settings.Keys.OpenAI = "sk-•••••••cdef"
	}
	copied := m.settings
	return &copied, nil
}

func newTestClient(remote *mockRemote) *Client {
	return New(remote, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestLoad(t *testing.T) {
	remote := &mockRemote{
		projects: []types.Project{{ID: "p1", Name: "One"}},
		settings: types.MasterSettings{Provider: types.ProviderOpenAI, WordCount: 1000},
	}
	client := newTestClient(remote)

	if !client.Loading() {
		t.Error("expected loading before Load")
	}
	if err := client.Load(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client.Loading() {
		t.Error("expected loading false after Load")
	}
	if got := client.Projects(); len(got) != 1 || got[0].Name != "One" {
		t.Errorf("unexpected projects: %+v", got)
	}
	if s := client.Settings(); s == nil || s.WordCount != 1000 {
		t.Errorf("unexpected settings: %+v", s)
	}
}

func TestCreateProjectRefetches(t *testing.T) {
	remote := &mockRemote{}
	client := newTestClient(remote)
	client.Load(context.Background())
	before := remote.fetchCalls

	id, err := client.CreateProject(context.Background(), types.NewProject{
		Name: "New", Mode: types.ModeAuto, Language: types.LanguageEnglish,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id == "" {
		t.Fatal("expected project id")
	}
	if remote.fetchCalls != before+1 {
		t.Error("expected a full projects refetch after create")
	}
	if got := client.Projects(); len(got) != 1 {
		t.Errorf("expected 1 local project, got %d", len(got))
	}
}

func TestCreateProjectValidatesBeforeRemote(t *testing.T) {
	remote := &mockRemote{}
	client := newTestClient(remote)
	client.Load(context.Background())

	_, err := client.CreateProject(context.Background(), types.NewProject{
		Name: "Bad", Mode: types.ModeAuto, Language: types.LanguageOther, // no custom language
	})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if len(remote.projects) != 0 {
		t.Error("invalid input must not reach the remote")
	}
}

func TestUpdateProjectPatchesOnlyTarget(t *testing.T) {
	remote := &mockRemote{projects: []types.Project{
		{ID: "p1", Name: "One", Product: "old"},
		{ID: "p2", Name: "Two", Product: "untouched"},
	}}
	client := newTestClient(remote)
	client.Load(context.Background())

	product := "new product"
	if err := client.UpdateProject(context.Background(), "p1", types.ProjectUpdate{Product: &product}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	projects := client.Projects()
	if projects[0].Product != "new product" {
		t.Errorf("expected patched product, got %q", projects[0].Product)
	}
	if projects[0].Name != "One" {
		t.Errorf("absent fields must stay, name = %q", projects[0].Name)
	}
	if projects[1].Product != "untouched" {
		t.Errorf("other projects must not change, got %q", projects[1].Product)
	}
	if projects[0].UpdatedAt.IsZero() {
		t.Error("expected UpdatedAt bump")
	}
}

func TestUpdateProjectSequentialPartialsAccumulate(t *testing.T) {
	remote := &mockRemote{projects: []types.Project{{ID: "p1", Name: "One"}}}
	client := newTestClient(remote)
	client.Load(context.Background())

	product := "espresso machines"
	if err := client.UpdateProject(context.Background(), "p1", types.ProjectUpdate{Product: &product}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	market := "home baristas"
	voice := "friendly"
	if err := client.UpdateProject(context.Background(), "p1", types.ProjectUpdate{TargetMarket: &market, BrandVoice: &voice}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Disjoint partials accumulate: the second update must not erase the
	// first one's fields.
	got := client.Projects()[0]
	if got.Product != "espresso machines" {
		t.Errorf("first update lost: Product = %q", got.Product)
	}
	if got.TargetMarket != "home baristas" || got.BrandVoice != "friendly" {
		t.Errorf("second update not applied: %+v", got)
	}
	if got.Name != "One" {
		t.Errorf("untouched field changed: Name = %q", got.Name)
	}

	// Overlapping fields are last-writer-wins.
	newer := "grinders"
	if err := client.UpdateProject(context.Background(), "p1", types.ProjectUpdate{Product: &newer}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := client.Projects()[0]; got.Product != "grinders" || got.TargetMarket != "home baristas" {
		t.Errorf("overwrite semantics wrong: %+v", got)
	}
}

func TestUpdateProjectRemoteFailureLeavesLocalUntouched(t *testing.T) {
	remote := &mockRemote{projects: []types.Project{{ID: "p1", Product: "old"}}}
	client := newTestClient(remote)
	client.Load(context.Background())

	remote.failNext = errors.New("boom")
	product := "new"
	if err := client.UpdateProject(context.Background(), "p1", types.ProjectUpdate{Product: &product}); err == nil {
		t.Fatal("expected error")
	}
	if got := client.Projects()[0].Product; got != "old" {
		t.Errorf("local state changed despite remote failure: %q", got)
	}
}

func TestDeleteProjectClearsActiveSelection(t *testing.T) {
	remote := &mockRemote{projects: []types.Project{{ID: "p1"}, {ID: "p2"}}}
	client := newTestClient(remote)
	client.Load(context.Background())
	client.SetActiveProject("p1")

	if err := client.DeleteProject(context.Background(), "p1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := client.Projects(); len(got) != 1 || got[0].ID != "p2" {
		t.Errorf("unexpected projects after delete: %+v", got)
	}
	if client.ActiveProject() != nil {
		t.Error("expected active selection cleared")
	}

	// Deleting a non-active project keeps the selection.
	client.SetActiveProject("p2")
	remote.projects = []types.Project{{ID: "p2"}, {ID: "p3"}}
	client.Load(context.Background())
	client.DeleteProject(context.Background(), "p3")
	if active := client.ActiveProject(); active == nil || active.ID != "p2" {
		t.Errorf("selection should survive, got %+v", active)
	}
}

func TestSetStrategyPackRefetches(t *testing.T) {
	remote := &mockRemote{projects: []types.Project{{ID: "p1", Articles: []types.Article{
		{ID: "old", Title: "Old", Status: types.StatusCompleted, Content: "<p>done</p>"},
	}}}}
	client := newTestClient(remote)
	client.Load(context.Background())

	pack := types.StrategyPack{ArticleTitles: []string{"New One", "New Two", "New Three"}}
	if err := client.SetStrategyPack(context.Background(), "p1", pack); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	project := client.Projects()[0]
	if len(project.Articles) != len(pack.ArticleTitles) {
		t.Fatalf("expected %d articles, got %d", len(pack.ArticleTitles), len(project.Articles))
	}
	for i, a := range project.Articles {
		if a.Status != types.StatusTodo {
			t.Errorf("article %d should be todo, got %s", i, a.Status)
		}
		if a.Title != pack.ArticleTitles[i] {
			t.Errorf("article %d title = %q, want %q", i, a.Title, pack.ArticleTitles[i])
		}
	}
}

func TestAddAndUpdateArticle(t *testing.T) {
	remote := &mockRemote{projects: []types.Project{{ID: "p1"}}}
	client := newTestClient(remote)
	client.Load(context.Background())

	article, err := client.AddArticle(context.Background(), "p1", types.NewArticle{Title: "Fresh"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := client.Projects()[0].Articles; len(got) != 1 || got[0].Title != "Fresh" {
		t.Fatalf("unexpected local articles: %+v", got)
	}

	status := types.StatusCompleted
	content := "<p>done</p>"
	if err := client.UpdateArticle(context.Background(), article.ID, types.ArticleUpdate{Status: &status, Content: &content}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := client.Projects()[0].Articles[0]
	if got.Status != types.StatusCompleted || got.Content != "<p>done</p>" {
		t.Errorf("unexpected article after update: %+v", got)
	}

	if err := client.DeleteArticle(context.Background(), article.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := client.Projects()[0].Articles; len(got) != 0 {
		t.Errorf("expected empty articles, got %+v", got)
	}
}

func TestUpdateMasterSettingsNeverCachesPlaintext(t *testing.T) {
	remote := &mockRemote{settings: types.MasterSettings{Provider: types.ProviderOpenAI}}
	client := newTestClient(remote)
	client.Load(context.Background())

	key := "sk-live-1234567890abcdef"
	if err := client.UpdateMasterSettings(context.Background(), types.SettingsUpdate{APIKey: &key}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	settings := client.Settings()
	if string(settings.Keys.OpenAI) == key {
		t.Error("plaintext key must never land in the local cache")
	}
	if !settings.Keys.OpenAI.IsSet() {
		t.Error("expected masked key indicator")
	}
}

func TestUpdateMasterSettingsEmptyPartialIdempotent(t *testing.T) {
	remote := &mockRemote{settings: types.MasterSettings{Provider: types.ProviderGemini, WordCount: 1200}}
	client := newTestClient(remote)
	client.Load(context.Background())

	if err := client.UpdateMasterSettings(context.Background(), types.SettingsUpdate{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	settings := client.Settings()
	if settings.Provider != types.ProviderGemini || settings.WordCount != 1200 {
		t.Errorf("empty update changed settings: %+v", settings)
	}
}

func TestAddKeywordsDeduplicatesCaseSensitively(t *testing.T) {
	remote := &mockRemote{projects: []types.Project{{ID: "p1", Keywords: []string{"a", "B"}}}}
	client := newTestClient(remote)
	client.Load(context.Background())

	if err := client.AddKeywordsToProject(context.Background(), "p1", []string{"a", "b", "c"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := client.Projects()[0].Keywords
	want := []string{"a", "B", "b", "c"} // "a" deduped, "b" differs from "B" by case
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestRemoveKeywordExactMatch(t *testing.T) {
	remote := &mockRemote{projects: []types.Project{{ID: "p1", Keywords: []string{"coffee", "Coffee", "tea"}}}}
	client := newTestClient(remote)
	client.Load(context.Background())

	if err := client.RemoveKeywordFromProject(context.Background(), "p1", "coffee"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := client.Projects()[0].Keywords
	if len(got) != 2 || got[0] != "Coffee" || got[1] != "tea" {
		t.Errorf("case-sensitive removal failed: %v", got)
	}
}

func TestActiveProjectAbsent(t *testing.T) {
	client := newTestClient(&mockRemote{})
	client.Load(context.Background())
	if client.ActiveProject() != nil {
		t.Error("expected nil active project when unset")
	}
	client.SetActiveProject("ghost")
	if client.ActiveProject() != nil {
		t.Error("expected nil active project for unknown id")
	}
}

func TestKeywordHeuristics(t *testing.T) {
	project := &types.Project{
		Keywords: []string{"Coffee Shop"},
		Articles: []types.Article{{Title: "Best Espresso Machines"}},
	}

	if !KeywordInProject(project, "coffee shop near me") {
		t.Error("expected containment match against project keywords")
	}
	if KeywordInProject(project, "tea house") {
		t.Error("unexpected match")
	}
	if !KeywordHasArticle(project, "espresso machines") {
		t.Error("expected containment match against article titles")
	}
	if KeywordHasArticle(project, "cold brew") {
		t.Error("unexpected article match")
	}
}
