package store

import (
	"context"
	"time"

	"github.com/rankforge/rankforge/internal/types"
)

// SettingsRow is the master_settings row as persisted: per-provider key
// columns hold ciphertext, never plaintext. Conversion to the client-facing
// masked view happens above the store.
type SettingsRow struct {
	UserID     string
	Provider   types.Provider
	Model      string
	WordCount  int
	BrandVoice string

	OpenAIKeyEnc   string
	GeminiKeyEnc   string
	DeepSeekKeyEnc string
	QwenKeyEnc     string
	// LegacyKeyEnc mirrors the selected provider's key for pre-split rows.
	LegacyKeyEnc string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// KeyEncFor returns the ciphertext column for the given provider, falling
// back to the legacy shared column when the provider column is empty.
func (r *SettingsRow) KeyEncFor(p types.Provider) string {
	var enc string
	switch p {
	case types.ProviderOpenAI:
		enc = r.OpenAIKeyEnc
	case types.ProviderGemini:
		enc = r.GeminiKeyEnc
	case types.ProviderDeepSeek:
		enc = r.DeepSeekKeyEnc
	case types.ProviderQwen:
		enc = r.QwenKeyEnc
	}
	if enc == "" {
		return r.LegacyKeyEnc
	}
	return enc
}

// SetKeyEncFor writes the ciphertext column for the given provider and keeps
// the legacy shared column in sync.
func (r *SettingsRow) SetKeyEncFor(p types.Provider, enc string) {
	switch p {
	case types.ProviderOpenAI:
		r.OpenAIKeyEnc = enc
	case types.ProviderGemini:
		r.GeminiKeyEnc = enc
	case types.ProviderDeepSeek:
		r.DeepSeekKeyEnc = enc
	case types.ProviderQwen:
		r.QwenKeyEnc = enc
	}
	r.LegacyKeyEnc = enc
}

// ProjectAccess describes how a user may touch a project.
type ProjectAccess struct {
	Owner bool
	Role  types.ShareRole // set for shared access, empty otherwise
}

// CanEdit reports whether the access level permits mutations.
func (a ProjectAccess) CanEdit() bool {
	return a.Owner || a.Role == types.RoleEditor
}

// CanView reports whether the access level permits reads.
func (a ProjectAccess) CanView() bool {
	return a.Owner || a.Role.Valid()
}

// Store defines the interface contract for all persistence operations.
type Store interface {
	// Projects
	CreateProject(ctx context.Context, ownerID string, p types.NewProject) (*types.Project, error)
	GetProject(ctx context.Context, id string) (*types.Project, error)
	UpdateProject(ctx context.Context, id string, u types.ProjectUpdate) error
	DeleteProject(ctx context.Context, id string) error
	ListProjectsForUser(ctx context.Context, userID, email string) ([]types.Project, error)
	GetProjectAccess(ctx context.Context, projectID, userID, email string) (ProjectAccess, error)
	SetStrategyPack(ctx context.Context, projectID string, pack types.StrategyPack) ([]types.Article, error)

	// Articles
	AddArticle(ctx context.Context, a types.NewArticle) (*types.Article, error)
	GetArticle(ctx context.Context, id string) (*types.Article, error)
	UpdateArticle(ctx context.Context, id string, u types.ArticleUpdate) error
	DeleteArticle(ctx context.Context, id string) error
	ListArticlesForProject(ctx context.Context, projectID string) ([]types.Article, error)
	ListArticlesByStatus(ctx context.Context, projectID string, status types.ArticleStatus) ([]types.Article, error)

	// Settings
	GetSettings(ctx context.Context, userID string) (*SettingsRow, error)
	UpsertSettings(ctx context.Context, row *SettingsRow) error

	// Shares
	CreateShare(ctx context.Context, s types.ProjectShare) (*types.ProjectShare, error)
	DeleteShare(ctx context.Context, id string) error
	ListSharesForProject(ctx context.Context, projectID string) ([]types.ProjectShare, error)

	// Roles
	HasRole(ctx context.Context, userID, role string) (bool, error)

	Close() error
}
