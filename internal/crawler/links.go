package crawler

import (
	"net/url"
	"slices"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/mayaoy/fun-news-crawler/pkg/providers"
)

// ExtractLinks returns the distinct absolute article URLs linked from a category page.
// An href qualifies when it contains the provider's article path segment and at least
// MinSlashes slashes. Relative hrefs are resolved against the provider origin,
// fragments are dropped and anything that does not end up as an absolute http(s)
// URL is discarded. The result is sorted.
func ExtractLinks(body []byte, p providers.Provider) ([]string, error) {
	doc, err := parseDocument(body)
	if err != nil {
		return nil, err
	}
	return extractLinks(doc, p), nil
}

func extractLinks(doc *goquery.Document, p providers.Provider) []string {
	base, err := url.Parse(p.BaseURL + "/")
	if err != nil {
		base = &url.URL{}
	}
	seen := make(map[string]struct{})
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href := strings.TrimSpace(a.AttrOr("href", ""))
		if !isArticleHref(href, p) {
			return
		}
		abs, ok := absoluteURL(href, base)
		if !ok {
			return
		}
		seen[abs] = struct{}{}
	})

	out := make([]string, 0, len(seen))
	for u := range seen {
		out = append(out, u)
	}
	slices.Sort(out)
	return out
}

func isArticleHref(href string, p providers.Provider) bool {
	if href == "" || p.ArticlePathSegment == "" {
		return false
	}
	return strings.Contains(href, p.ArticlePathSegment) && strings.Count(href, "/") >= p.MinSlashes
}
