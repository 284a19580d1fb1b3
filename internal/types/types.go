package types

import (
	"encoding/json"
	"time"
)

// Provider identifies an AI completion vendor.
type Provider string

const (
	ProviderOpenAI   Provider = "openai"
	ProviderGemini   Provider = "gemini"
	ProviderDeepSeek Provider = "deepseek"
	ProviderQwen     Provider = "qwen"
)

// Providers lists every supported provider in display order.
var Providers = []Provider{ProviderOpenAI, ProviderGemini, ProviderDeepSeek, ProviderQwen}

// Valid reports whether p is a known provider.
func (p Provider) Valid() bool {
	switch p {
	case ProviderOpenAI, ProviderGemini, ProviderDeepSeek, ProviderQwen:
		return true
	}
	return false
}

// ArticleStatus tracks an article through generation.
// Practical flow is todo -> in-progress -> completed, with a fallback edge
// in-progress -> todo when generation fails (retryable, not terminal).
type ArticleStatus string

const (
	StatusTodo       ArticleStatus = "todo"
	StatusInProgress ArticleStatus = "in-progress"
	StatusCompleted  ArticleStatus = "completed"
)

// Valid reports whether s is a known article status.
func (s ArticleStatus) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// Language is the content language for a project.
type Language string

const (
	LanguageIndonesian Language = "indonesian"
	LanguageEnglish    Language = "english"
	LanguageOther      Language = "other"
)

// Valid reports whether l is a known language value.
func (l Language) Valid() bool {
	switch l {
	case LanguageIndonesian, LanguageEnglish, LanguageOther:
		return true
	}
	return false
}

// Mode selects how much of the project setup is AI-driven.
type Mode string

const (
	ModeAuto     Mode = "auto"
	ModeAdvanced Mode = "advanced"
)

// Valid reports whether m is a known project mode.
func (m Mode) Valid() bool {
	return m == ModeAuto || m == ModeAdvanced
}

// ShareRole is the access level granted to a non-owning collaborator.
type ShareRole string

const (
	RoleViewer ShareRole = "viewer"
	RoleEditor ShareRole = "editor"
)

// Valid reports whether r is a known share role.
func (r ShareRole) Valid() bool {
	return r == RoleViewer || r == RoleEditor
}

// KeywordType classifies a generated keyword idea.
type KeywordType string

const (
	KeywordShortTail     KeywordType = "short-tail"
	KeywordLongTail      KeywordType = "long-tail"
	KeywordLSI           KeywordType = "lsi"
	KeywordTransactional KeywordType = "transactional"
)

// KeywordTypes lists every keyword classification in contract order.
// The keyword generator returns 25 ideas per type, 100 total.
var KeywordTypes = []KeywordType{KeywordShortTail, KeywordLongTail, KeywordLSI, KeywordTransactional}

// MaskedKey is a display-only placeholder for a stored API key.
// It is the only key representation that may live in long-lived client
// state; plaintext keys exist transiently during entry and server-side.
type MaskedKey string

// IsSet reports whether a key is configured (masked value present).
func (m MaskedKey) IsSet() bool { return m != "" }

// Persona describes a target customer persona attached to a project.
type Persona struct {
	Name         string   `json:"name"`
	Role         string   `json:"role,omitempty"`
	Location     string   `json:"location,omitempty"`
	FamilyStatus string   `json:"family_status,omitempty"`
	PainPoints   []string `json:"pain_points"`
	Concerns     string   `json:"concerns,omitempty"`
}

// StrategyPack is the wholesale output of strategy generation, embedded in a
// project. Replacing it deletes and recreates the project's articles from
// ArticleTitles.
type StrategyPack struct {
	PersonaSummary string   `json:"persona_summary"`
	CorePainPoints []string `json:"core_pain_points"`
	SearchIntent   string   `json:"search_intent"`
	TopicClusters  []string `json:"topic_clusters"`
	ArticleTitles  []string `json:"article_titles"`
}

// WordPressCredentials hold a project's publishing target. The password is a
// WordPress application password used for HTTP Basic auth.
type WordPressCredentials struct {
	URL      string `json:"url"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// Article belongs to exactly one project.
type Article struct {
	ID          string        `json:"id"`
	ProjectID   string        `json:"project_id"`
	Title       string        `json:"title"`
	Content     string        `json:"content,omitempty"` // HTML
	Status      ArticleStatus `json:"status"`
	WordCount   int           `json:"word_count,omitempty"`
	Keywords    []string      `json:"keywords,omitempty"`
	PersonaName string        `json:"persona_name,omitempty"`
	FunnelStage string        `json:"funnel_stage,omitempty"`
	ArticleType string        `json:"article_type,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// Project is the aggregate root for a content-generation engagement.
type Project struct {
	ID             string   `json:"id"`
	OwnerID        string   `json:"owner_id"`
	Name           string   `json:"name"`
	Mode           Mode     `json:"mode"`
	Language       Language `json:"language"`
	CustomLanguage string   `json:"custom_language,omitempty"` // required when Language == other

	WebsiteURL       string `json:"website_url,omitempty"`
	Product          string `json:"product,omitempty"`
	TargetMarket     string `json:"target_market,omitempty"`
	PersonaText      string `json:"persona_text,omitempty"`
	PainPoints       string `json:"pain_points,omitempty"`
	ValueProposition string `json:"value_proposition,omitempty"`
	BusinessName     string `json:"business_name,omitempty"`
	BusinessEmail    string `json:"business_email,omitempty"`
	BusinessPhone    string `json:"business_phone,omitempty"`
	BrandVoice       string `json:"brand_voice,omitempty"`
	ReferenceText    string `json:"reference_text,omitempty"`

	// Keywords keeps insertion order; calling code prevents case-sensitive
	// duplicates, the store does not.
	Keywords []string `json:"keywords"`

	Personas  []Persona             `json:"personas,omitempty"`
	Strategy  *StrategyPack         `json:"strategy,omitempty"`
	WordPress *WordPressCredentials `json:"wordpress,omitempty"`

	Articles []Article `json:"articles"`

	// SharedRole is set when the project reached the caller via a share
	// rather than ownership. Empty for owned projects.
	SharedRole ShareRole `json:"shared_role,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MasterSettings is the per-user configuration row, created implicitly on
// first save.
type MasterSettings struct {
	UserID     string    `json:"user_id"`
	Provider   Provider  `json:"provider"`
	Model      string    `json:"model,omitempty"`
	WordCount  int       `json:"word_count"` // default target article length
	BrandVoice string    `json:"brand_voice,omitempty"`
	Keys       KeyStatus `json:"keys"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// KeyStatus carries masked per-provider key indicators. Plaintext keys never
// appear here.
type KeyStatus struct {
	OpenAI   MaskedKey `json:"openai"`
	Gemini   MaskedKey `json:"gemini"`
	DeepSeek MaskedKey `json:"deepseek"`
	Qwen     MaskedKey `json:"qwen"`
}

// ForProvider returns the masked key for the given provider.
func (k KeyStatus) ForProvider(p Provider) MaskedKey {
	switch p {
	case ProviderOpenAI:
		return k.OpenAI
	case ProviderGemini:
		return k.Gemini
	case ProviderDeepSeek:
		return k.DeepSeek
	case ProviderQwen:
		return k.Qwen
	}
	return ""
}

// ProjectShare grants a non-owning user access to a project.
type ProjectShare struct {
	ID          string    `json:"id"`
	ProjectID   string    `json:"project_id"`
	OwnerID     string    `json:"owner_id"`
	SharedWith  string    `json:"shared_with"`  // user id when known
	SharedEmail string    `json:"shared_email"` // invite email, matched at load time
	Role        ShareRole `json:"role"`
	InviteToken string    `json:"invite_token,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// KeywordIdea is one generated keyword suggestion.
type KeywordIdea struct {
	Keyword string      `json:"keyword"`
	Type    KeywordType `json:"type"`
}

// MarshalJSON ensures nil slices in Project marshal as [] not null.
func (p Project) MarshalJSON() ([]byte, error) {
	if p.Keywords == nil {
		p.Keywords = []string{}
	}
	if p.Articles == nil {
		p.Articles = []Article{}
	}
	type Alias Project
	return json.Marshal(Alias(p))
}

// MarshalJSON ensures nil slices in Persona marshal as [] not null.
func (p Persona) MarshalJSON() ([]byte, error) {
	if p.PainPoints == nil {
		p.PainPoints = []string{}
	}
	type Alias Persona
	return json.Marshal(Alias(p))
}

// MarshalJSON ensures nil slices in StrategyPack marshal as [] not null.
func (s StrategyPack) MarshalJSON() ([]byte, error) {
	if s.CorePainPoints == nil {
		s.CorePainPoints = []string{}
	}
	if s.TopicClusters == nil {
		s.TopicClusters = []string{}
	}
	if s.ArticleTitles == nil {
		s.ArticleTitles = []string{}
	}
	type Alias StrategyPack
	return json.Marshal(Alias(s))
}
