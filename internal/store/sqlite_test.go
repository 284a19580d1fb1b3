package store

import (
	"context"
	"errors"
	"testing"

	"github.com/rankforge/rankforge/internal/types"
	_ "modernc.org/sqlite"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	db, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func mustCreateProject(t *testing.T, db *SQLiteStore, ownerID, name string) *types.Project {
	t.Helper()
	p, err := db.CreateProject(context.Background(), ownerID, types.NewProject{
		Name: name, Mode: types.ModeAuto, Language: types.LanguageEnglish,
	})
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestStore_NewSQLiteStore(t *testing.T) {
	db, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
}

func TestStore_CreateProject(t *testing.T) {
	db := newTestStore(t)

	p := mustCreateProject(t, db, "user-1", "Coffee Roasters")

	if p.ID == "" {
		t.Error("Expected ID to be set")
	}
	if p.OwnerID != "user-1" {
		t.Errorf("OwnerID: got %q, want %q", p.OwnerID, "user-1")
	}

	got, err := db.GetProject(context.Background(), p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "Coffee Roasters" {
		t.Errorf("Name: got %q, want %q", got.Name, "Coffee Roasters")
	}
	if got.Mode != types.ModeAuto || got.Language != types.LanguageEnglish {
		t.Errorf("defaults not persisted: %+v", got)
	}
	if len(got.Articles) != 0 {
		t.Errorf("new project has %d articles, want 0", len(got.Articles))
	}
}

func TestStore_GetProject_NotFound(t *testing.T) {
	db := newTestStore(t)

	_, err := db.GetProject(context.Background(), "01JMISSING00000000000000000")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestStore_UpdateProject_SparseFields(t *testing.T) {
	db := newTestStore(t)
	ctx := context.Background()
	p := mustCreateProject(t, db, "user-1", "Original")

	product := "Single-origin beans"
	keywords := []string{"coffee", "arabica"}
	err := db.UpdateProject(ctx, p.ID, types.ProjectUpdate{
		Product:  &product,
		Keywords: &keywords,
	})
	if err != nil {
		t.Fatal(err)
	}

	got, err := db.GetProject(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Product != product {
		t.Errorf("Product: got %q, want %q", got.Product, product)
	}
	if len(got.Keywords) != 2 || got.Keywords[0] != "coffee" {
		t.Errorf("Keywords: got %v, want %v", got.Keywords, keywords)
	}
	// Absent fields untouched.
	if got.Name != "Original" {
		t.Errorf("Name changed by sparse update: got %q", got.Name)
	}
}

func TestStore_UpdateProject_EmptyUpdateIsNoop(t *testing.T) {
	db := newTestStore(t)
	ctx := context.Background()
	p := mustCreateProject(t, db, "user-1", "Untouched")

	if err := db.UpdateProject(ctx, p.ID, types.ProjectUpdate{}); err != nil {
		t.Fatalf("empty update failed: %v", err)
	}

	got, err := db.GetProject(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "Untouched" {
		t.Errorf("Name: got %q, want %q", got.Name, "Untouched")
	}
}

func TestStore_UpdateProject_NotFound(t *testing.T) {
	db := newTestStore(t)

	name := "X"
	err := db.UpdateProject(context.Background(), "01JMISSING00000000000000000", types.ProjectUpdate{Name: &name})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestStore_DeleteProject_CascadesArticles(t *testing.T) {
	db := newTestStore(t)
	ctx := context.Background()
	p := mustCreateProject(t, db, "user-1", "Doomed")

	a, err := db.AddArticle(ctx, types.NewArticle{ProjectID: p.ID, Title: "Orphan-to-be"})
	if err != nil {
		t.Fatal(err)
	}

	if err := db.DeleteProject(ctx, p.ID); err != nil {
		t.Fatal(err)
	}

	if _, err := db.GetProject(ctx, p.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("project still present after delete: %v", err)
	}
	if _, err := db.GetArticle(ctx, a.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("article survived project delete: %v", err)
	}
}

func TestStore_DeleteProject_WithoutForeignKeys(t *testing.T) {
	db := newTestStore(t)
	ctx := context.Background()
	p := mustCreateProject(t, db, "user-1", "Doomed")

	a, err := db.AddArticle(ctx, types.NewArticle{ProjectID: p.ID, Title: "Orphan-to-be"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.CreateShare(ctx, types.ProjectShare{
		ProjectID: p.ID, OwnerID: "user-1", SharedEmail: "friend@example.com", Role: types.RoleViewer,
	}); err != nil {
		t.Fatal(err)
	}

	// foreign_keys is connection-scoped, so a connection can see it off
	// even though opening the store turned it on. Deletion must not
	// depend on ON DELETE CASCADE firing.
	if _, err := db.db.ExecContext(ctx, "PRAGMA foreign_keys=OFF"); err != nil {
		t.Fatal(err)
	}

	if err := db.DeleteProject(ctx, p.ID); err != nil {
		t.Fatal(err)
	}

	if _, err := db.GetArticle(ctx, a.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("article survived project delete: %v", err)
	}
	shares, err := db.ListSharesForProject(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(shares) != 0 {
		t.Errorf("shares survived project delete: %d left", len(shares))
	}
}

func TestStore_ListProjectsForUser_OwnedAndShared(t *testing.T) {
	db := newTestStore(t)
	ctx := context.Background()

	owned := mustCreateProject(t, db, "alice", "Alice's")
	shared := mustCreateProject(t, db, "bob", "Bob's")
	mustCreateProject(t, db, "carol", "Carol's")

	_, err := db.CreateShare(ctx, types.ProjectShare{
		ProjectID: shared.ID, OwnerID: "bob",
		SharedEmail: "alice@example.com", Role: types.RoleEditor,
	})
	if err != nil {
		t.Fatal(err)
	}

	projects, err := db.ListProjectsForUser(ctx, "alice", "alice@example.com")
	if err != nil {
		t.Fatal(err)
	}

	if len(projects) != 2 {
		t.Fatalf("got %d projects, want 2", len(projects))
	}

	byID := map[string]types.Project{}
	for _, p := range projects {
		byID[p.ID] = p
	}
	if _, ok := byID[owned.ID]; !ok {
		t.Error("owned project missing from list")
	}
	sp, ok := byID[shared.ID]
	if !ok {
		t.Fatal("shared project missing from list")
	}
	if sp.SharedRole != types.RoleEditor {
		t.Errorf("SharedRole: got %q, want %q", sp.SharedRole, types.RoleEditor)
	}
	if byID[owned.ID].SharedRole != "" {
		t.Error("owned project carries a shared role")
	}
}

func TestStore_ListProjectsForUser_OwnedWinsOverShare(t *testing.T) {
	db := newTestStore(t)
	ctx := context.Background()

	// Pathological: a share record pointing at the caller's own project.
	p := mustCreateProject(t, db, "alice", "Mine")
	_, err := db.CreateShare(ctx, types.ProjectShare{
		ProjectID: p.ID, OwnerID: "alice",
		SharedWith: "alice", SharedEmail: "alice@example.com", Role: types.RoleViewer,
	})
	if err != nil {
		t.Fatal(err)
	}

	projects, err := db.ListProjectsForUser(ctx, "alice", "alice@example.com")
	if err != nil {
		t.Fatal(err)
	}

	if len(projects) != 1 {
		t.Fatalf("got %d projects, want 1 (de-duplicated)", len(projects))
	}
	if projects[0].SharedRole != "" {
		t.Error("owned copy should win over the share record")
	}
}

func TestStore_SetStrategyPack_ReplacesArticles(t *testing.T) {
	db := newTestStore(t)
	ctx := context.Background()
	p := mustCreateProject(t, db, "user-1", "Strategized")

	// Pre-existing articles, one already completed; the replace destroys it.
	old, err := db.AddArticle(ctx, types.NewArticle{ProjectID: p.ID, Title: "Old completed", Status: types.StatusCompleted})
	if err != nil {
		t.Fatal(err)
	}

	pack := types.StrategyPack{
		PersonaSummary: "Busy founders",
		ArticleTitles:  []string{"First title", "Second title", "Third title"},
	}

	created, err := db.SetStrategyPack(ctx, p.ID, pack)
	if err != nil {
		t.Fatal(err)
	}
	if len(created) != 3 {
		t.Fatalf("got %d created articles, want 3", len(created))
	}

	got, err := db.GetProject(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}

	if got.Strategy == nil || got.Strategy.PersonaSummary != "Busy founders" {
		t.Errorf("strategy not persisted: %+v", got.Strategy)
	}
	if len(got.Articles) != len(pack.ArticleTitles) {
		t.Fatalf("got %d articles, want %d", len(got.Articles), len(pack.ArticleTitles))
	}
	for i, a := range got.Articles {
		if a.Title != pack.ArticleTitles[i] {
			t.Errorf("article %d title: got %q, want %q", i, a.Title, pack.ArticleTitles[i])
		}
		if a.Status != types.StatusTodo {
			t.Errorf("article %d status: got %q, want todo", i, a.Status)
		}
	}

	if _, err := db.GetArticle(ctx, old.ID); !errors.Is(err, ErrNotFound) {
		t.Error("pre-existing article survived the strategy replace")
	}
}

func TestStore_SetStrategyPack_NotFound(t *testing.T) {
	db := newTestStore(t)

	_, err := db.SetStrategyPack(context.Background(), "01JMISSING00000000000000000", types.StrategyPack{})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestStore_Article_CRUD(t *testing.T) {
	db := newTestStore(t)
	ctx := context.Background()
	p := mustCreateProject(t, db, "user-1", "With articles")

	a, err := db.AddArticle(ctx, types.NewArticle{
		ProjectID: p.ID, Title: "How to brew", Keywords: []string{"brew", "grind"},
		FunnelStage: "tofu",
	})
	if err != nil {
		t.Fatal(err)
	}
	if a.Status != types.StatusTodo {
		t.Errorf("default status: got %q, want todo", a.Status)
	}

	content := "<p>Grind fresh.</p>"
	wc := 412
	status := types.StatusCompleted
	err = db.UpdateArticle(ctx, a.ID, types.ArticleUpdate{
		Content: &content, WordCount: &wc, Status: &status,
	})
	if err != nil {
		t.Fatal(err)
	}

	got, err := db.GetArticle(ctx, a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Content != content || got.WordCount != wc || got.Status != types.StatusCompleted {
		t.Errorf("update not applied: %+v", got)
	}
	if got.Title != "How to brew" {
		t.Errorf("title changed by sparse update: %q", got.Title)
	}

	if err := db.DeleteArticle(ctx, a.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := db.GetArticle(ctx, a.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("article still present after delete: %v", err)
	}
}

func TestStore_ListArticlesByStatus(t *testing.T) {
	db := newTestStore(t)
	ctx := context.Background()
	p := mustCreateProject(t, db, "user-1", "P")

	for _, title := range []string{"a", "b"} {
		if _, err := db.AddArticle(ctx, types.NewArticle{ProjectID: p.ID, Title: title}); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := db.AddArticle(ctx, types.NewArticle{ProjectID: p.ID, Title: "c", Status: types.StatusCompleted}); err != nil {
		t.Fatal(err)
	}

	todos, err := db.ListArticlesByStatus(ctx, p.ID, types.StatusTodo)
	if err != nil {
		t.Fatal(err)
	}
	if len(todos) != 2 {
		t.Errorf("got %d todo articles, want 2", len(todos))
	}
}

func TestStore_Settings_UpsertAndGet(t *testing.T) {
	db := newTestStore(t)
	ctx := context.Background()

	if _, err := db.GetSettings(ctx, "user-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound for fresh user", err)
	}

	row := &SettingsRow{
		UserID:    "user-1",
		Provider:  types.ProviderGemini,
		Model:     "fast",
		WordCount: 1200,
	}
	row.SetKeyEncFor(types.ProviderGemini, "ciphertext-1")

	if err := db.UpsertSettings(ctx, row); err != nil {
		t.Fatal(err)
	}

	got, err := db.GetSettings(ctx, "user-1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Provider != types.ProviderGemini || got.WordCount != 1200 {
		t.Errorf("settings not persisted: %+v", got)
	}
	if got.GeminiKeyEnc != "ciphertext-1" {
		t.Errorf("GeminiKeyEnc: got %q", got.GeminiKeyEnc)
	}
	if got.LegacyKeyEnc != "ciphertext-1" {
		t.Errorf("legacy column not kept in sync: got %q", got.LegacyKeyEnc)
	}

	// Second save overwrites (implicit-create upsert, last write wins).
	row.WordCount = 600
	if err := db.UpsertSettings(ctx, row); err != nil {
		t.Fatal(err)
	}
	got, err = db.GetSettings(ctx, "user-1")
	if err != nil {
		t.Fatal(err)
	}
	if got.WordCount != 600 {
		t.Errorf("WordCount after second save: got %d, want 600", got.WordCount)
	}
}

func TestStore_Settings_SchemaDefaultWordCount(t *testing.T) {
	db := newTestStore(t)
	ctx := context.Background()

	// A row written without word_count picks up the schema default, which
	// must match the pre-save default the settings handler serves.
	_, err := db.db.ExecContext(ctx,
		`INSERT INTO master_settings (user_id, created_at, updated_at) VALUES (?, ?, ?)`,
		"user-1", nowRFC3339(), nowRFC3339())
	if err != nil {
		t.Fatal(err)
	}

	got, err := db.GetSettings(ctx, "user-1")
	if err != nil {
		t.Fatal(err)
	}
	if got.WordCount != 1000 {
		t.Errorf("WordCount default: got %d, want 1000", got.WordCount)
	}
}

func TestSettingsRow_KeyEncFor_LegacyFallback(t *testing.T) {
	r := SettingsRow{LegacyKeyEnc: "legacy-cipher"}
	if got := r.KeyEncFor(types.ProviderOpenAI); got != "legacy-cipher" {
		t.Errorf("legacy fallback: got %q", got)
	}

	r.OpenAIKeyEnc = "openai-cipher"
	if got := r.KeyEncFor(types.ProviderOpenAI); got != "openai-cipher" {
		t.Errorf("provider column should win: got %q", got)
	}
}

func TestStore_Shares(t *testing.T) {
	db := newTestStore(t)
	ctx := context.Background()
	p := mustCreateProject(t, db, "alice", "Shared")

	sh, err := db.CreateShare(ctx, types.ProjectShare{
		ProjectID: p.ID, OwnerID: "alice",
		SharedEmail: "bob@example.com", Role: types.RoleViewer,
	})
	if err != nil {
		t.Fatal(err)
	}
	if sh.ID == "" || sh.InviteToken == "" {
		t.Errorf("share missing generated fields: %+v", sh)
	}

	_, err = db.CreateShare(ctx, types.ProjectShare{
		ProjectID: p.ID, OwnerID: "alice",
		SharedEmail: "bob@example.com", Role: types.RoleEditor,
	})
	if !errors.Is(err, ErrDuplicateShare) {
		t.Errorf("duplicate share: got %v, want ErrDuplicateShare", err)
	}

	shares, err := db.ListSharesForProject(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(shares) != 1 {
		t.Fatalf("got %d shares, want 1", len(shares))
	}

	if err := db.DeleteShare(ctx, sh.ID); err != nil {
		t.Fatal(err)
	}
	shares, err = db.ListSharesForProject(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(shares) != 0 {
		t.Errorf("got %d shares after delete, want 0", len(shares))
	}
}

func TestStore_GetProjectAccess(t *testing.T) {
	db := newTestStore(t)
	ctx := context.Background()
	p := mustCreateProject(t, db, "alice", "Access")

	_, err := db.CreateShare(ctx, types.ProjectShare{
		ProjectID: p.ID, OwnerID: "alice",
		SharedEmail: "bob@example.com", Role: types.RoleViewer,
	})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		userID  string
		email   string
		owner   bool
		canEdit bool
		canView bool
	}{
		{"owner", "alice", "alice@example.com", true, true, true},
		{"viewer by email", "bob", "bob@example.com", false, false, true},
		{"stranger", "mallory", "mallory@example.com", false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			access, err := db.GetProjectAccess(ctx, p.ID, tt.userID, tt.email)
			if err != nil {
				t.Fatal(err)
			}
			if access.Owner != tt.owner {
				t.Errorf("Owner: got %v, want %v", access.Owner, tt.owner)
			}
			if access.CanEdit() != tt.canEdit {
				t.Errorf("CanEdit: got %v, want %v", access.CanEdit(), tt.canEdit)
			}
			if access.CanView() != tt.canView {
				t.Errorf("CanView: got %v, want %v", access.CanView(), tt.canView)
			}
		})
	}

	_, err = db.GetProjectAccess(ctx, "01JMISSING00000000000000000", "alice", "")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("missing project: got %v, want ErrNotFound", err)
	}
}

func TestStore_HasRole(t *testing.T) {
	db := newTestStore(t)
	ctx := context.Background()

	ok, err := db.HasRole(ctx, "user-1", "admin")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("fresh user reported as admin")
	}
}
