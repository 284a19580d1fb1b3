package types

import "encoding/json"

// ProjectData is the business context forwarded to prompt templates. It is a
// flattened view of the project fields the generators care about.
type ProjectData struct {
	BusinessName     string   `json:"business_name,omitempty"`
	WebsiteURL       string   `json:"website_url,omitempty"`
	Product          string   `json:"product,omitempty"`
	TargetMarket     string   `json:"target_market,omitempty"`
	PersonaText      string   `json:"persona_text,omitempty"`
	PainPoints       string   `json:"pain_points,omitempty"`
	ValueProposition string   `json:"value_proposition,omitempty"`
	BrandVoice       string   `json:"brand_voice,omitempty"`
	Language         string   `json:"language,omitempty"`
	Keywords         []string `json:"keywords,omitempty"`
	WordCount        int      `json:"word_count,omitempty"`
}

// Data flattens the project's business fields into the view the prompt
// templates consume.
func (p *Project) Data() ProjectData {
	language := string(p.Language)
	if p.Language == LanguageOther && p.CustomLanguage != "" {
		language = p.CustomLanguage
	}
	return ProjectData{
		BusinessName:     p.BusinessName,
		WebsiteURL:       p.WebsiteURL,
		Product:          p.Product,
		TargetMarket:     p.TargetMarket,
		PersonaText:      p.PersonaText,
		PainPoints:       p.PainPoints,
		ValueProposition: p.ValueProposition,
		BrandVoice:       p.BrandVoice,
		Language:         language,
		Keywords:         p.Keywords,
	}
}

// AnalyzeWebsiteRequest asks the generator to profile a business from its site.
type AnalyzeWebsiteRequest struct {
	WebsiteURL string `json:"website_url"`
	Language   string `json:"language"`
}

// AnalyzeWebsiteResult is the structured profile extracted from a website.
type AnalyzeWebsiteResult struct {
	BusinessName string    `json:"business_name"`
	Product      string    `json:"product"`
	TargetMarket string    `json:"target_market"`
	Keywords     []string  `json:"keywords"`
	Personas     []Persona `json:"personas"`
	BrandVoice   string    `json:"brand_voice"`
}

// GenerateStrategyRequest asks for a full strategy pack.
type GenerateStrategyRequest struct {
	ProjectID   string      `json:"project_id"`
	ProjectData ProjectData `json:"project_data"`
}

// GenerateStrategyResult wraps the generated pack.
type GenerateStrategyResult struct {
	Strategy StrategyPack `json:"strategy"`
}

// GeneratePersonaRequest asks for a customer persona.
type GeneratePersonaRequest struct {
	ProjectData ProjectData `json:"project_data"`
}

// GeneratePersonaResult wraps the generated persona.
type GeneratePersonaResult struct {
	Persona Persona `json:"persona"`
}

// GenerateTitlesRequest asks for article title suggestions.
type GenerateTitlesRequest struct {
	Count          int         `json:"count"`
	ExistingTitles []string    `json:"existing_titles"`
	ArticleTypes   []string    `json:"article_types"`
	FunnelType     string      `json:"funnel_type"`
	ProjectData    ProjectData `json:"project_data"`
}

// GenerateTitlesResult lists the suggested titles.
type GenerateTitlesResult struct {
	Titles []string `json:"titles"`
}

// GenerateKeywordsRequest asks for keyword ideas around a seed.
type GenerateKeywordsRequest struct {
	SeedKeyword string `json:"seed_keyword"`
	Language    string `json:"language"`
}

// GenerateKeywordsResult carries exactly 100 ideas, 25 per type, by contract
// with the upstream model. The handler surfaces the contract; it does not
// locally enforce the model's compliance.
type GenerateKeywordsResult struct {
	Keywords []KeywordIdea `json:"keywords"`
}

// GenerateArticleRequest asks for a full article body.
type GenerateArticleRequest struct {
	ArticleID    string      `json:"article_id,omitempty"`
	ArticleTitle string      `json:"article_title"`
	ProjectData  ProjectData `json:"project_data"`
}

// GenerateArticleResult carries the article HTML and its word count, which
// are set together or not at all.
type GenerateArticleResult struct {
	Content   string `json:"content"`
	WordCount int    `json:"word_count"`
}

// ValidateKeyRequest checks a plaintext API key against its provider.
type ValidateKeyRequest struct {
	APIKey   string   `json:"api_key"`
	Provider Provider `json:"provider"`
}

// ValidateKeyResult reports the probe outcome.
type ValidateKeyResult struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

// ValidateWordPressRequest checks WordPress credentials without publishing.
type ValidateWordPressRequest struct {
	WordPressURL        string `json:"wordpress_url"`
	Username            string `json:"username"`
	ApplicationPassword string `json:"application_password"`
}

// ValidateWordPressResult reports the credential check outcome.
type ValidateWordPressResult struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

// PublishRequest sends an article to a WordPress site.
type PublishRequest struct {
	ProjectID    string `json:"project_id"`
	WordPressURL string `json:"wordpress_url"`
	Username     string `json:"username"`
	Title        string `json:"title"`
	Content      string `json:"content"`
	Status       string `json:"status"` // "draft" or "publish"
}

// PublishResult reports the created WordPress post.
type PublishResult struct {
	Success bool   `json:"success"`
	PostID  int64  `json:"post_id"`
	PostURL string `json:"post_url"`
	EditURL string `json:"edit_url"`
}

// APIKeysResult returns decrypted plaintext keys to the authenticated owner.
// Never logged, never cached.
type APIKeysResult struct {
	OpenAI   string `json:"openai"`
	Gemini   string `json:"gemini"`
	DeepSeek string `json:"deepseek"`
	Qwen     string `json:"qwen"`
}

// SettingsUpdate is a sparse settings mutation. Nil pointers leave the
// corresponding column untouched. APIKey, when present, is plaintext bound
// for server-side encryption and is never echoed back.
type SettingsUpdate struct {
	Provider   *Provider `json:"provider,omitempty"`
	Model      *string   `json:"model,omitempty"`
	WordCount  *int      `json:"word_count,omitempty"`
	BrandVoice *string   `json:"brand_voice,omitempty"`
	APIKey     *string   `json:"api_key,omitempty"`
	// KeyProvider names the provider column the key belongs to; defaults to
	// Provider (updated or current) when empty.
	KeyProvider Provider `json:"key_provider,omitempty"`
}

// ProjectUpdate is a sparse project mutation; only non-nil fields are
// written, absent keys are left untouched server-side.
type ProjectUpdate struct {
	Name             *string               `json:"name,omitempty"`
	Mode             *Mode                 `json:"mode,omitempty"`
	Language         *Language             `json:"language,omitempty"`
	CustomLanguage   *string               `json:"custom_language,omitempty"`
	WebsiteURL       *string               `json:"website_url,omitempty"`
	Product          *string               `json:"product,omitempty"`
	TargetMarket     *string               `json:"target_market,omitempty"`
	PersonaText      *string               `json:"persona_text,omitempty"`
	PainPoints       *string               `json:"pain_points,omitempty"`
	ValueProposition *string               `json:"value_proposition,omitempty"`
	BusinessName     *string               `json:"business_name,omitempty"`
	BusinessEmail    *string               `json:"business_email,omitempty"`
	BusinessPhone    *string               `json:"business_phone,omitempty"`
	BrandVoice       *string               `json:"brand_voice,omitempty"`
	ReferenceText    *string               `json:"reference_text,omitempty"`
	Keywords         *[]string             `json:"keywords,omitempty"`
	Personas         *[]Persona            `json:"personas,omitempty"`
	WordPress        *WordPressCredentials `json:"wordpress,omitempty"`
}

// ArticleUpdate is a sparse article mutation.
type ArticleUpdate struct {
	Title       *string        `json:"title,omitempty"`
	Content     *string        `json:"content,omitempty"`
	Status      *ArticleStatus `json:"status,omitempty"`
	WordCount   *int           `json:"word_count,omitempty"`
	Keywords    *[]string      `json:"keywords,omitempty"`
	PersonaName *string        `json:"persona_name,omitempty"`
	FunnelStage *string        `json:"funnel_stage,omitempty"`
	ArticleType *string        `json:"article_type,omitempty"`
}

// NewProject is the input for project creation.
type NewProject struct {
	Name           string   `json:"name"`
	Mode           Mode     `json:"mode"`
	Language       Language `json:"language"`
	CustomLanguage string   `json:"custom_language,omitempty"`
}

// NewArticle is the input for article creation.
type NewArticle struct {
	ProjectID   string        `json:"project_id"`
	Title       string        `json:"title"`
	Status      ArticleStatus `json:"status,omitempty"` // defaults to todo
	Keywords    []string      `json:"keywords,omitempty"`
	PersonaName string        `json:"persona_name,omitempty"`
	FunnelStage string        `json:"funnel_stage,omitempty"`
	ArticleType string        `json:"article_type,omitempty"`
}

// NewShare is the input for sharing a project.
type NewShare struct {
	ProjectID   string    `json:"project_id"`
	SharedEmail string    `json:"shared_email"`
	Role        ShareRole `json:"role"`
}

// MarshalJSON ensures nil slices in AnalyzeWebsiteResult marshal as [] not null.
func (r AnalyzeWebsiteResult) MarshalJSON() ([]byte, error) {
	if r.Keywords == nil {
		r.Keywords = []string{}
	}
	if r.Personas == nil {
		r.Personas = []Persona{}
	}
	type Alias AnalyzeWebsiteResult
	return json.Marshal(Alias(r))
}

// MarshalJSON ensures nil slices in GenerateTitlesResult marshal as [] not null.
func (r GenerateTitlesResult) MarshalJSON() ([]byte, error) {
	if r.Titles == nil {
		r.Titles = []string{}
	}
	type Alias GenerateTitlesResult
	return json.Marshal(Alias(r))
}

// MarshalJSON ensures nil slices in GenerateKeywordsResult marshal as [] not null.
func (r GenerateKeywordsResult) MarshalJSON() ([]byte, error) {
	if r.Keywords == nil {
		r.Keywords = []KeywordIdea{}
	}
	type Alias GenerateKeywordsResult
	return json.Marshal(Alias(r))
}
