package crawler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"github.com/mayaoy/fun-news-crawler/internal/domain"
	"github.com/mayaoy/fun-news-crawler/internal/logger"
	"github.com/mayaoy/fun-news-crawler/internal/store"
	"github.com/mayaoy/fun-news-crawler/pkg/providers"
)

// publishedLayout mirrors a naive ISO-8601 timestamp with microseconds.
const publishedLayout = "2006-01-02T15:04:05.000000"

// ErrNotArticle marks a page that lacks a headline or an article container.
var ErrNotArticle = errors.New("page is not an article")

// Outcome reports what happened to one article URL.
type Outcome int

const (
	OutcomeSaved Outcome = iota
	OutcomeDuplicate
	OutcomeKnown
	OutcomeFetchFailed
	OutcomeNotArticle
	OutcomeStoreFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSaved:
		return "saved"
	case OutcomeDuplicate:
		return "duplicate"
	case OutcomeKnown:
		return "known"
	case OutcomeFetchFailed:
		return "fetch_failed"
	case OutcomeNotArticle:
		return "not_article"
	case OutcomeStoreFailed:
		return "store_failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Saved reports whether a new row was written.
func (o Outcome) Saved() bool { return o == OutcomeSaved }

// ParserDefaults are the values the parser falls back to.
type ParserDefaults struct {
	// DefaultCategory is used when the caller passes an empty category.
	DefaultCategory string
	// Now stamps articles whose page carries no publication time.
	Now func() time.Time
}

// DefaultParserDefaults returns the "World" category and the wall clock.
func DefaultParserDefaults() ParserDefaults {
	return ParserDefaults{DefaultCategory: "World", Now: time.Now}
}

// ParserOption customises a Parser.
type ParserOption func(*Parser)

// WithReadabilityFallback fills empty article bodies with the readability text extraction.
func WithReadabilityFallback(enabled bool) ParserOption {
	return func(p *Parser) { p.readability = enabled }
}

// Parser turns article pages into stored articles.
type Parser struct {
	fetcher     providers.Fetcher
	store       store.Store
	defaults    ParserDefaults
	readability bool
	log         logger.Logger
}

// NewParser builds a parser. Zero-valued defaults are filled from DefaultParserDefaults.
func NewParser(fetcher providers.Fetcher, st store.Store, defaults ParserDefaults, log logger.Logger, opts ...ParserOption) *Parser {
	base := DefaultParserDefaults()
	if strings.TrimSpace(defaults.DefaultCategory) == "" {
		defaults.DefaultCategory = base.DefaultCategory
	}
	if defaults.Now == nil {
		defaults.Now = base.Now
	}

	p := &Parser{
		fetcher:  fetcher,
		store:    st,
		defaults: defaults,
		log:      logger.Ensure(log),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse fetches, extracts and stores the article at articleURL under category.
// URLs already in the store are not fetched. Failures are logged and reported
// through the outcome; Parse never panics.
func (p *Parser) Parse(ctx context.Context, articleURL, category string) (art domain.Article, outcome Outcome) {
	defer func() {
		if r := recover(); r != nil {
			p.log.ErrorObj("article parse panicked", "parse_panic", map[string]any{
				"url":   articleURL,
				"panic": fmt.Sprint(r),
			})
			art, outcome = domain.Article{}, OutcomeNotArticle
		}
	}()

	if p.store.URLExists(ctx, articleURL) {
		return domain.Article{}, OutcomeKnown
	}

	body, err := p.fetcher.Fetch(ctx, articleURL)
	if err != nil {
		return domain.Article{}, OutcomeFetchFailed
	}

	art, err = p.Extract(body, articleURL, category)
	if err != nil {
		p.log.WarnObj("article parse failed", "parse_error", map[string]any{
			"url":   articleURL,
			"error": err.Error(),
		})
		return domain.Article{}, OutcomeNotArticle
	}

	if p.store.SaveArticle(ctx, art) {
		return art, OutcomeSaved
	}
	if p.store.URLExists(ctx, articleURL) {
		return art, OutcomeDuplicate
	}
	return art, OutcomeStoreFailed
}

// Extract builds an article from page markup without touching the store.
func (p *Parser) Extract(body []byte, articleURL, category string) (domain.Article, error) {
	doc, err := parseDocument(body)
	if err != nil {
		return domain.Article{}, err
	}

	title := strings.TrimSpace(doc.Find("h1").First().Text())
	if title == "" {
		return domain.Article{}, fmt.Errorf("%w: no headline", ErrNotArticle)
	}
	container := doc.Find("article").First()
	if container.Length() == 0 {
		return domain.Article{}, fmt.Errorf("%w: no article container", ErrNotArticle)
	}

	content := paragraphText(container)
	if content == "" && p.readability {
		content = readabilityText(body, articleURL)
	}

	published := ""
	if t := doc.Find("time").First(); t.Length() > 0 {
		published = strings.TrimSpace(t.AttrOr("datetime", ""))
	}
	if published == "" {
		published = p.defaults.Now().Format(publishedLayout)
	}

	return domain.Article{
		Title:         title,
		URL:           articleURL,
		Category:      firstNonEmpty(category, p.defaults.DefaultCategory),
		Content:       content,
		PublishedDate: published,
	}, nil
}

// paragraphText joins the trimmed, non-empty paragraphs of sel with newlines.
func paragraphText(sel *goquery.Selection) string {
	var parts []string
	sel.Find("p").Each(func(_ int, p *goquery.Selection) {
		if text := strings.TrimSpace(p.Text()); text != "" {
			parts = append(parts, text)
		}
	})
	return strings.Join(parts, "\n")
}

func readabilityText(body []byte, pageURL string) string {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		parsed = nil
	}
	article, err := readability.FromReader(bytes.NewReader(body), parsed)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(article.TextContent)
}
