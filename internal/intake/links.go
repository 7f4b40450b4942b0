package intake

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/nhle/ops-board/internal/model"
)

// urlPattern matches http(s) URLs up to whitespace or a closing bracket.
var urlPattern = regexp.MustCompile(`https?://[^\s<>()\[\]"']+`)

// ExtractLinks returns the URLs found in text as links, deduplicated and in
// order of first occurrence. Trailing sentence punctuation is not part of a
// URL. Each link is titled with its host.
func ExtractLinks(text string) []model.Link {
	matches := urlPattern.FindAllString(text, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]bool)
	var links []model.Link
	for _, m := range matches {
		m = strings.TrimRight(m, ".,;:!?")
		if seen[m] {
			continue
		}
		u, err := url.Parse(m)
		if err != nil || u.Host == "" {
			continue
		}
		seen[m] = true
		links = append(links, model.Link{Title: u.Host, URL: m})
	}
	return links
}
