package crawler

import (
	"context"
	"time"

	"github.com/mayaoy/fun-news-crawler/internal/categories"
	"github.com/mayaoy/fun-news-crawler/internal/domain"
	"github.com/mayaoy/fun-news-crawler/internal/logger"
	"github.com/mayaoy/fun-news-crawler/pkg/providers"
)

// ArticlePublisher receives every newly saved article.
type ArticlePublisher interface {
	PublishArticle(ctx context.Context, article domain.Article)
}

// SleepFunc pauses for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Orchestrator walks the category directory, parsing every linked article.
type Orchestrator struct {
	dir       *categories.Directory
	provider  providers.Provider
	fetcher   providers.Fetcher
	parser    *Parser
	publisher ArticlePublisher
	sleep     SleepFunc
	log       logger.Logger
}

// OrchestratorOption customises an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithPublisher hands newly saved articles to pub.
func WithPublisher(pub ArticlePublisher) OrchestratorOption {
	return func(o *Orchestrator) { o.publisher = pub }
}

// WithSleep replaces the pacing sleep.
func WithSleep(fn SleepFunc) OrchestratorOption {
	return func(o *Orchestrator) {
		if fn != nil {
			o.sleep = fn
		}
	}
}

// NewOrchestrator wires the crawl pipeline.
func NewOrchestrator(
	dir *categories.Directory,
	provider providers.Provider,
	fetcher providers.Fetcher,
	parser *Parser,
	log logger.Logger,
	opts ...OrchestratorOption,
) *Orchestrator {
	if dir == nil {
		dir = categories.Default()
	}
	o := &Orchestrator{
		dir:      dir,
		provider: provider,
		fetcher:  fetcher,
		parser:   parser,
		sleep:    sleepContext,
		log:      logger.Ensure(log),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// ArticleURLs fetches a category page and returns its article links.
// A failed fetch or unparsable page yields an empty list.
func (o *Orchestrator) ArticleURLs(ctx context.Context, categoryURL string) []string {
	body, err := o.fetcher.Fetch(ctx, categoryURL)
	if err != nil {
		return []string{}
	}
	links, err := ExtractLinks(body, o.provider)
	if err != nil {
		o.log.WarnObj("category page parse failed", "links_error", map[string]any{
			"url":   categoryURL,
			"error": err.Error(),
		})
		return []string{}
	}
	return links
}

// CrawlCategory crawls one category by name. Unknown names yield zero stats.
func (o *Orchestrator) CrawlCategory(ctx context.Context, name string) domain.CrawlStats {
	var stats domain.CrawlStats

	pageURL, ok := o.dir.URLFor(o.provider.BaseURL, name)
	if !ok {
		o.log.WarnObj("unknown category", "category_unknown", map[string]any{"category": name})
		return stats
	}

	o.log.InfoObj("crawling category", "category_start", map[string]any{
		"category": name,
		"url":      pageURL,
	})

	urls := o.ArticleURLs(ctx, pageURL)
	stats.Total = len(urls)

	for i, u := range urls {
		if ctx.Err() != nil {
			break
		}

		art, outcome := o.parser.Parse(ctx, u, name)
		if outcome.Saved() {
			stats.Saved++
			o.log.DebugObj("article saved", "article_saved", map[string]any{
				"category": name,
				"url":      u,
				"title":    art.Title,
			})
			if o.publisher != nil {
				o.publisher.PublishArticle(ctx, art)
			}
		}

		// only pace after pages that were actually requested
		if outcome != OutcomeKnown && i < len(urls)-1 {
			if err := o.sleep(ctx, o.provider.RequestDelay()); err != nil {
				break
			}
		}
	}
	stats.Skipped = stats.Total - stats.Saved

	o.log.InfoObj("category crawled", "crawl_summary", map[string]any{
		"category": name,
		"total":    stats.Total,
		"saved":    stats.Saved,
		"skipped":  stats.Skipped,
	})
	return stats
}

// CrawlAll crawls every category in directory order and returns the summed stats.
func (o *Orchestrator) CrawlAll(ctx context.Context) domain.CrawlStats {
	started := time.Now()
	var total domain.CrawlStats

	for _, c := range o.dir.All() {
		if ctx.Err() != nil {
			o.log.WarnObj("crawl interrupted", "crawl_cancelled", map[string]any{"category": c.Name})
			break
		}
		total.Add(o.CrawlCategory(ctx, c.Name))
	}

	o.log.InfoObj("crawl complete", "crawl_total", map[string]any{
		"total":    total.Total,
		"saved":    total.Saved,
		"skipped":  total.Skipped,
		"duration": time.Since(started).String(),
	})
	return total
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
