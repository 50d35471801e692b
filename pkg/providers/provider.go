package providers

import (
	"math/rand/v2"
	"strings"
	"time"

	"github.com/mayaoy/fun-news-crawler/internal/config"
)

const defaultProviderID = "bbc"

// Provider describes the single crawled site: its origin, request identity,
// article link heuristic and pacing bounds.
type Provider struct {
	ID                 string
	BaseURL            string
	UserAgent          string
	ArticlePathSegment string
	MinSlashes         int
	MinDelay           time.Duration
	MaxDelay           time.Duration
	Headers            map[string]string
}

// FromConfig builds the provider from the site and crawl sections of the config.
func FromConfig(site config.SiteConfig, crawl config.CrawlConfig) Provider {
	return Provider{
		ID:                 defaultProviderID,
		BaseURL:            strings.TrimRight(site.BaseURL, "/"),
		UserAgent:          site.UserAgent,
		ArticlePathSegment: site.ArticlePathSegment,
		MinSlashes:         site.MinSlashes,
		MinDelay:           crawl.MinDelay,
		MaxDelay:           crawl.MaxDelay,
	}
}

// RequestDelay returns a uniformly random pause in [MinDelay, MaxDelay].
func (p Provider) RequestDelay() time.Duration {
	if p.MaxDelay <= p.MinDelay {
		return max(p.MinDelay, 0)
	}
	span := p.MaxDelay - p.MinDelay
	return p.MinDelay + time.Duration(rand.Int64N(int64(span)+1))
}

// Headers returns the request headers for the provider. The User-Agent always wins
// over an identically named extra header.
func Headers(p Provider) map[string]string {
	out := make(map[string]string, len(p.Headers)+1)
	for k, v := range p.Headers {
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		if k == "" || v == "" {
			continue
		}
		out[k] = v
	}
	if ua := strings.TrimSpace(p.UserAgent); ua != "" {
		out["User-Agent"] = ua
	}
	return out
}
