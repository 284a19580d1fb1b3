package workspace

import (
	"strings"

	"github.com/rankforge/rankforge/internal/types"
)

// KeywordInProject reports whether a generated keyword idea already appears
// in the project's keyword list. Matching is case-insensitive substring
// containment in both directions, which can false-positive on very short
// keywords; it is a display heuristic, not a correctness guarantee.
func KeywordInProject(p *types.Project, keyword string) bool {
	needle := strings.ToLower(keyword)
	for _, k := range p.Keywords {
		have := strings.ToLower(k)
		if strings.Contains(have, needle) || strings.Contains(needle, have) {
			return true
		}
	}
	return false
}

// KeywordHasArticle reports whether any article title in the project already
// covers the keyword, using the same bidirectional containment heuristic.
func KeywordHasArticle(p *types.Project, keyword string) bool {
	needle := strings.ToLower(keyword)
	for _, a := range p.Articles {
		title := strings.ToLower(a.Title)
		if strings.Contains(title, needle) || strings.Contains(needle, title) {
			return true
		}
	}
	return false
}
