package sitefind

import (
	"net/url"
	"strings"

	"github.com/FranksOps/harrier/internal/heuristics"
)

// LooksLikeStore scores a candidate against the store vocabularies: domain
// keywords, commerce TLDs, path keywords, and text signals in the title and
// snippet. Two independent signals are required so a blog post that merely
// mentions "shop" does not qualify; a commerce TLD alone is decisive.
func LooksLikeStore(c Candidate) bool {
	u, err := url.Parse(c.URL)
	if err != nil || u.Host == "" {
		return false
	}
	host := strings.ToLower(u.Hostname())

	for _, suffix := range heuristics.StoreTLDSuffixes {
		if strings.HasSuffix(host, suffix) {
			return true
		}
	}

	score := 0
	for _, kw := range heuristics.StoreDomainKeywords {
		if strings.Contains(host, kw) {
			score++
			break
		}
	}

	path := strings.ToLower(u.Path)
	for _, kw := range heuristics.StorePathKeywords {
		if strings.Contains(path, kw) {
			score++
			break
		}
	}

	text := strings.ToLower(c.Title + " " + c.Snippet)
	for _, sig := range heuristics.StoreTextSignals {
		if strings.Contains(text, sig) {
			score++
			break
		}
	}

	return score >= 2
}
