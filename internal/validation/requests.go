package validation

import (
	"github.com/rankforge/rankforge/internal/types"
)

var (
	languageValues = []string{
		string(types.LanguageIndonesian),
		string(types.LanguageEnglish),
		string(types.LanguageOther),
	}
	modeValues = []string{
		string(types.ModeAuto),
		string(types.ModeAdvanced),
	}
	providerValues = []string{
		string(types.ProviderOpenAI),
		string(types.ProviderGemini),
		string(types.ProviderDeepSeek),
		string(types.ProviderQwen),
	}
	roleValues = []string{
		string(types.RoleViewer),
		string(types.RoleEditor),
	}
	publishStatusValues = []string{"draft", "publish"}
)

// ValidateNewProject checks project creation input. customLanguage is
// required when language is "other"; this runs before any store access.
func ValidateNewProject(p types.NewProject) []ValidationError {
	var c Collector
	c.Add(ValidateRequired("name", p.Name))
	c.Add(ValidateMaxLength("name", p.Name, 200))
	c.Add(ValidateEnum("mode", string(p.Mode), modeValues))
	c.Add(ValidateEnum("language", string(p.Language), languageValues))
	if p.Language == types.LanguageOther {
		c.Add(ValidateRequired("custom_language", p.CustomLanguage))
	}
	return c.Errors()
}

// ValidateProjectUpdate checks a sparse project mutation. Only present
// fields are examined.
func ValidateProjectUpdate(u types.ProjectUpdate) []ValidationError {
	var c Collector
	if u.Name != nil {
		c.Add(ValidateRequired("name", *u.Name))
		c.Add(ValidateMaxLength("name", *u.Name, 200))
	}
	if u.Mode != nil {
		c.Add(ValidateEnum("mode", string(*u.Mode), modeValues))
	}
	if u.Language != nil {
		c.Add(ValidateEnum("language", string(*u.Language), languageValues))
		if *u.Language == types.LanguageOther {
			custom := ""
			if u.CustomLanguage != nil {
				custom = *u.CustomLanguage
			}
			c.Add(ValidateRequired("custom_language", custom))
		}
	}
	if u.WebsiteURL != nil && *u.WebsiteURL != "" {
		c.Add(ValidateURL("website_url", *u.WebsiteURL))
	}
	if u.WordPress != nil {
		c.Add(ValidateURL("wordpress.url", u.WordPress.URL))
		c.Add(ValidateRequired("wordpress.username", u.WordPress.Username))
		c.Add(ValidateRequired("wordpress.password", u.WordPress.Password))
	}
	return c.Errors()
}

// ValidateNewArticle checks article creation input.
func ValidateNewArticle(a types.NewArticle) []ValidationError {
	var c Collector
	c.Add(ValidateRequired("project_id", a.ProjectID))
	c.Add(ValidateRequired("title", a.Title))
	c.Add(ValidateMaxLength("title", a.Title, 500))
	if a.Status != "" && !a.Status.Valid() {
		c.Add(&ValidationError{Field: "status", Message: "must be one of: todo, in-progress, completed"})
	}
	return c.Errors()
}

// ValidateArticleUpdate checks a sparse article mutation.
func ValidateArticleUpdate(u types.ArticleUpdate) []ValidationError {
	var c Collector
	if u.Title != nil {
		c.Add(ValidateRequired("title", *u.Title))
		c.Add(ValidateMaxLength("title", *u.Title, 500))
	}
	if u.Status != nil && !u.Status.Valid() {
		c.Add(&ValidationError{Field: "status", Message: "must be one of: todo, in-progress, completed"})
	}
	if u.WordCount != nil {
		c.Add(ValidatePositive("word_count", *u.WordCount))
	}
	return c.Errors()
}

// ValidateSettingsUpdate checks a sparse settings mutation.
func ValidateSettingsUpdate(u types.SettingsUpdate) []ValidationError {
	var c Collector
	if u.Provider != nil {
		c.Add(ValidateEnum("provider", string(*u.Provider), providerValues))
	}
	if u.WordCount != nil {
		c.Add(ValidatePositive("word_count", *u.WordCount))
	}
	if u.KeyProvider != "" {
		c.Add(ValidateEnum("key_provider", string(u.KeyProvider), providerValues))
	}
	return c.Errors()
}

// ValidateNewShare checks share creation input.
func ValidateNewShare(s types.NewShare) []ValidationError {
	var c Collector
	c.Add(ValidateRequired("project_id", s.ProjectID))
	c.Add(ValidateRequired("shared_email", s.SharedEmail))
	c.Add(ValidateEnum("role", string(s.Role), roleValues))
	return c.Errors()
}

// ValidateGenerateKeywords checks keyword generation input.
func ValidateGenerateKeywords(r types.GenerateKeywordsRequest) []ValidationError {
	var c Collector
	c.Add(ValidateRequired("seed_keyword", r.SeedKeyword))
	c.Add(ValidateRequired("language", r.Language))
	return c.Errors()
}

// ValidateAnalyzeWebsite checks website analysis input.
func ValidateAnalyzeWebsite(r types.AnalyzeWebsiteRequest) []ValidationError {
	var c Collector
	c.Add(ValidateRequired("website_url", r.WebsiteURL))
	if r.WebsiteURL != "" {
		c.Add(ValidateURL("website_url", r.WebsiteURL))
	}
	return c.Errors()
}

// ValidateGenerateArticle checks article generation input.
func ValidateGenerateArticle(r types.GenerateArticleRequest) []ValidationError {
	var c Collector
	c.Add(ValidateRequired("article_title", r.ArticleTitle))
	return c.Errors()
}

// ValidateValidateKey checks key validation input.
func ValidateValidateKey(r types.ValidateKeyRequest) []ValidationError {
	var c Collector
	c.Add(ValidateRequired("api_key", r.APIKey))
	c.Add(ValidateEnum("provider", string(r.Provider), providerValues))
	return c.Errors()
}

// ValidatePublish checks WordPress publish input. Site URL and username are
// optional here; when absent the project's stored credentials apply.
func ValidatePublish(r types.PublishRequest) []ValidationError {
	var c Collector
	if r.WordPressURL != "" {
		c.Add(ValidateURL("wordpress_url", r.WordPressURL))
	}
	c.Add(ValidateRequired("project_id", r.ProjectID))
	c.Add(ValidateRequired("title", r.Title))
	c.Add(ValidateRequired("content", r.Content))
	c.Add(ValidateEnum("status", r.Status, publishStatusValues))
	return c.Errors()
}

// ValidateWordPressCredentials checks a credential probe request.
func ValidateWordPressCredentials(r types.ValidateWordPressRequest) []ValidationError {
	var c Collector
	c.Add(ValidateRequired("wordpress_url", r.WordPressURL))
	if r.WordPressURL != "" {
		c.Add(ValidateURL("wordpress_url", r.WordPressURL))
	}
	c.Add(ValidateRequired("username", r.Username))
	c.Add(ValidateRequired("application_password", r.ApplicationPassword))
	return c.Errors()
}
