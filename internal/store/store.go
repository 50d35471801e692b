// Package store persists crawled articles and the seeded category table.
//
// Every backend follows the same failure policy: storage errors are logged and
// turned into false or empty results, never returned to the crawl loop.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/mayaoy/fun-news-crawler/internal/config"
	"github.com/mayaoy/fun-news-crawler/internal/domain"
	"github.com/mayaoy/fun-news-crawler/internal/logger"
)

// DefaultRecentLimit is used when RecentArticles is called with a non-positive limit.
const DefaultRecentLimit = 10

// crawledDateLayout matches SQLite's CURRENT_TIMESTAMP text form.
const crawledDateLayout = "2006-01-02 15:04:05"

// Store is the article store used by the parser, the orchestrator and the CLI.
type Store interface {
	// Init creates the schema when missing and seeds the category table.
	Init(ctx context.Context) error
	URLExists(ctx context.Context, url string) bool
	// SaveArticle inserts the article unless its URL is already stored.
	// It reports whether a new row was written.
	SaveArticle(ctx context.Context, article domain.Article) bool
	ArticlesByCategory(ctx context.Context, category string) []domain.Article
	RecentArticles(ctx context.Context, limit int) []domain.Article
	Categories(ctx context.Context) []domain.Category
	// Clear removes every article and category and resets identity counters.
	Clear(ctx context.Context) bool
	Close() error
}

// Open builds the backend selected by cfg.Driver. seed is the category list written by Init.
func Open(ctx context.Context, cfg config.StoreConfig, seed []domain.Category, log logger.Logger) (Store, error) {
	switch cfg.Driver {
	case config.DriverSQLite, "":
		return OpenSQLite(ctx, cfg.Path, seed, log)
	case config.DriverPostgres:
		return OpenPostgres(ctx, cfg.DSN, seed, log)
	case config.DriverBolt:
		return OpenBolt(cfg.Path, seed, log)
	default:
		return nil, fmt.Errorf("store driver %q not supported", cfg.Driver)
	}
}

// validateArticle enforces the columns every backend requires.
func validateArticle(a domain.Article) error {
	if a.Title == "" || a.URL == "" {
		return errors.New("title and url are required")
	}
	return nil
}

func recentLimit(limit int) int {
	if limit <= 0 {
		return DefaultRecentLimit
	}
	return limit
}
