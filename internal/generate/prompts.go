package generate

import (
	"fmt"
	"strings"

	"github.com/rankforge/rankforge/internal/types"
)

const systemPrompt = "You are an expert SEO strategist and content writer. " +
	"Always respond with valid JSON matching the requested schema exactly, " +
	"with no commentary before or after the JSON."

const articleSystemPrompt = "You are an expert SEO content writer. " +
	"Write complete, well-structured articles in clean HTML using h2, h3, p, ul and li tags. " +
	"Never include a title tag or h1; the title is rendered separately."

// projectContext renders the business fields into a prompt preamble. Empty
// fields are omitted so the model is not distracted by blank labels.
func projectContext(d types.ProjectData) string {
	var b strings.Builder
	line := func(label, value string) {
		if value != "" {
			fmt.Fprintf(&b, "%s: %s\n", label, value)
		}
	}
	line("Business name", d.BusinessName)
	line("Website", d.WebsiteURL)
	line("Product or service", d.Product)
	line("Target market", d.TargetMarket)
	line("Customer persona", d.PersonaText)
	line("Customer pain points", d.PainPoints)
	line("Value proposition", d.ValueProposition)
	line("Brand voice", d.BrandVoice)
	line("Content language", d.Language)
	if len(d.Keywords) > 0 {
		line("Target keywords", strings.Join(d.Keywords, ", "))
	}
	return b.String()
}

func analyzeWebsitePrompt(websiteURL, language string) string {
	return fmt.Sprintf(`Analyze the business behind this website URL: %s

Infer what the business does from the URL, domain name, and your knowledge.
Respond in %s where free text is expected.

Return JSON with this exact shape:
{
  "business_name": "...",
  "product": "what they sell, one paragraph",
  "target_market": "who they sell to, one paragraph",
  "keywords": ["10 to 15 SEO keywords"],
  "personas": [
    {"name": "...", "role": "...", "location": "...", "family_status": "...", "pain_points": ["..."], "concerns": "..."}
  ],
  "brand_voice": "suggested tone of voice, one sentence"
}`, websiteURL, language)
}

func strategyPrompt(d types.ProjectData) string {
	return fmt.Sprintf(`Based on this business profile, produce a complete SEO content strategy.

%s
Return JSON with this exact shape:
{
  "persona_summary": "one paragraph describing the ideal customer",
  "core_pain_points": ["5 pain points"],
  "search_intent": "what the persona types into a search engine at the top of the funnel, one paragraph",
  "topic_clusters": ["5 to 8 topic clusters"],
  "article_titles": ["10 SEO article titles covering the clusters"]
}`, projectContext(d))
}

func personaPrompt(d types.ProjectData) string {
	return fmt.Sprintf(`Based on this business profile, create one detailed customer persona.

%s
Return JSON with this exact shape:
{
  "name": "full name",
  "role": "job or life role",
  "location": "city/country",
  "family_status": "...",
  "pain_points": ["3 to 5 pain points"],
  "concerns": "free text describing worries relevant to the product"
}`, projectContext(d))
}

func titlesPrompt(req types.GenerateTitlesRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Based on this business profile, suggest %d new SEO article titles.\n\n", req.Count)
	b.WriteString(projectContext(req.ProjectData))
	if req.FunnelType != "" {
		fmt.Fprintf(&b, "Funnel stage: %s\n", req.FunnelType)
	}
	if len(req.ArticleTypes) > 0 {
		fmt.Fprintf(&b, "Article types to cover: %s\n", strings.Join(req.ArticleTypes, ", "))
	}
	if len(req.ExistingTitles) > 0 {
		fmt.Fprintf(&b, "Do not repeat or closely paraphrase these existing titles:\n- %s\n",
			strings.Join(req.ExistingTitles, "\n- "))
	}
	b.WriteString("\nReturn JSON with this exact shape:\n{\"titles\": [\"...\"]}")
	return b.String()
}

func keywordsPrompt(seedKeyword, language string) string {
	return fmt.Sprintf(`Generate keyword ideas for the seed keyword "%s" in %s.

Produce exactly 100 keywords: 25 of type "short-tail", 25 of type "long-tail",
25 of type "lsi", and 25 of type "transactional".

Return JSON with this exact shape:
{"keywords": [{"keyword": "...", "type": "short-tail"}]}`, seedKeyword, language)
}

func articlePrompt(title string, d types.ProjectData) string {
	wordCount := d.WordCount
	if wordCount <= 0 {
		wordCount = 1000
	}
	return fmt.Sprintf(`Write a complete SEO article titled "%s" of roughly %d words.

%s
Output only the article body as HTML. Do not wrap it in JSON or markdown fences.`,
		title, wordCount, projectContext(d))
}
