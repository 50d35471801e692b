package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/mayaoy/fun-news-crawler/internal/domain"
	"github.com/mayaoy/fun-news-crawler/internal/logger"
)

// SQLStore implements Store over database/sql through sqlx. One pooled handle is
// kept for the process; each statement acquires and releases its own connection.
type SQLStore struct {
	db      *sqlx.DB
	dialect Dialect
	seed    []domain.Category
	log     logger.Logger
}

// OpenSQLite opens (creating its directory when needed) the SQLite file at path.
func OpenSQLite(ctx context.Context, path string, seed []domain.Category, log logger.Logger) (*SQLStore, error) {
	if path == "" {
		return nil, errors.New("sqlite path is empty")
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite directory: %w", err)
		}
	}

	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite allows a single writer; one connection avoids SQLITE_BUSY between pooled handles.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return NewSQLStore(db, SQLiteDialect, seed, log), nil
}

// OpenPostgres connects to Postgres through the pgx stdlib driver.
func OpenPostgres(ctx context.Context, dsn string, seed []domain.Category, log logger.Logger) (*SQLStore, error) {
	if dsn == "" {
		return nil, errors.New("postgres DSN is required")
	}

	db, err := sqlx.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return NewSQLStore(db, PostgresDialect, seed, log), nil
}

// NewSQLStore wraps an existing handle. The dialect decides schema and reset statements.
func NewSQLStore(db *sqlx.DB, d Dialect, seed []domain.Category, log logger.Logger) *SQLStore {
	cp := make([]domain.Category, len(seed))
	copy(cp, seed)
	return &SQLStore{
		db:      db,
		dialect: d,
		seed:    cp,
		log:     logger.Ensure(log),
	}
}

// Init creates both tables when missing and seeds the categories.
func (s *SQLStore) Init(ctx context.Context) error {
	for _, stmt := range s.dialect.schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := tx.Rebind(insertCategoryQuery)
	for _, c := range s.seed {
		if _, err := tx.ExecContext(ctx, query, c.Name, c.URLPath, string(c.Type)); err != nil {
			return fmt.Errorf("seed category %q: %w", c.Name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed: %w", err)
	}

	s.log.DebugObj("store initialised", "store_init", map[string]any{
		"dialect":    s.dialect.name,
		"categories": len(s.seed),
	})
	return nil
}

func (s *SQLStore) URLExists(ctx context.Context, url string) bool {
	var one int
	err := s.db.GetContext(ctx, &one, s.db.Rebind(urlExistsQuery), url)
	if errors.Is(err, sql.ErrNoRows) {
		return false
	}
	if err != nil {
		s.logError("url lookup failed", "store_lookup_error", err, map[string]any{"url": url})
		return false
	}
	return true
}

func (s *SQLStore) SaveArticle(ctx context.Context, a domain.Article) bool {
	if err := validateArticle(a); err != nil {
		s.logError("saving article failed", "store_save_error", err, map[string]any{"url": a.URL})
		return false
	}
	res, err := s.db.ExecContext(ctx, s.db.Rebind(insertArticleQuery),
		a.Title, a.URL, a.Category, a.Content, a.PublishedDate)
	if err != nil {
		s.logError("saving article failed", "store_save_error", err, map[string]any{"url": a.URL})
		return false
	}
	n, err := res.RowsAffected()
	if err != nil {
		s.logError("reading affected rows failed", "store_save_error", err, map[string]any{"url": a.URL})
		return false
	}
	return n > 0
}

func (s *SQLStore) ArticlesByCategory(ctx context.Context, category string) []domain.Article {
	var out []domain.Article
	if err := s.db.SelectContext(ctx, &out, s.db.Rebind(byCategoryQuery), category); err != nil {
		s.logError("listing articles by category failed", "store_query_error", err, map[string]any{"category": category})
		return []domain.Article{}
	}
	if out == nil {
		out = []domain.Article{}
	}
	return out
}

func (s *SQLStore) RecentArticles(ctx context.Context, limit int) []domain.Article {
	limit = recentLimit(limit)
	var out []domain.Article
	if err := s.db.SelectContext(ctx, &out, s.db.Rebind(recentQuery), limit); err != nil {
		s.logError("listing recent articles failed", "store_query_error", err, map[string]any{"limit": limit})
		return []domain.Article{}
	}
	if out == nil {
		out = []domain.Article{}
	}
	return out
}

func (s *SQLStore) Categories(ctx context.Context) []domain.Category {
	var out []domain.Category
	if err := s.db.SelectContext(ctx, &out, categoriesQuery); err != nil {
		s.logError("listing categories failed", "store_query_error", err, nil)
		return []domain.Category{}
	}
	if out == nil {
		out = []domain.Category{}
	}
	return out
}

// Clear empties both tables and resets their identity counters in one transaction.
func (s *SQLStore) Clear(ctx context.Context) bool {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		s.logError("clearing store failed", "store_clear_error", err, nil)
		return false
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range s.dialect.reset {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			s.logError("clearing store failed", "store_clear_error", err, map[string]any{"statement": stmt})
			return false
		}
	}
	if err := tx.Commit(); err != nil {
		s.logError("clearing store failed", "store_clear_error", err, nil)
		return false
	}
	return true
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) logError(msg, event string, err error, fields map[string]any) {
	if fields == nil {
		fields = make(map[string]any, 2)
	}
	fields["dialect"] = s.dialect.name
	fields["error"] = err.Error()
	s.log.ErrorObj(msg, event, fields)
}
