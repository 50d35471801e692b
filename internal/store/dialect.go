package store

// Dialect holds the statements that differ between relational backends.
type Dialect struct {
	name   string
	schema []string
	reset  []string
}

// SQLiteDialect targets modernc.org/sqlite.
var SQLiteDialect = Dialect{
	name: "sqlite",
	schema: []string{
		`CREATE TABLE IF NOT EXISTS news (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL,
			url TEXT UNIQUE NOT NULL,
			category TEXT,
			content TEXT,
			published_date TEXT,
			crawled_date TEXT DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS categories (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT UNIQUE NOT NULL,
			url_path TEXT NOT NULL,
			category_type TEXT NOT NULL
		)`,
	},
	reset: []string{
		`DELETE FROM news`,
		`DELETE FROM categories`,
		`DELETE FROM sqlite_sequence WHERE name IN ('news', 'categories')`,
	},
}

// PostgresDialect targets Postgres through pgx.
var PostgresDialect = Dialect{
	name: "postgres",
	schema: []string{
		`CREATE TABLE IF NOT EXISTS news (
			id BIGSERIAL PRIMARY KEY,
			title TEXT NOT NULL,
			url TEXT UNIQUE NOT NULL,
			category TEXT,
			content TEXT,
			published_date TEXT,
			crawled_date TEXT DEFAULT to_char(now() AT TIME ZONE 'utc', 'YYYY-MM-DD HH24:MI:SS')
		)`,
		`CREATE TABLE IF NOT EXISTS categories (
			id BIGSERIAL PRIMARY KEY,
			name TEXT UNIQUE NOT NULL,
			url_path TEXT NOT NULL,
			category_type TEXT NOT NULL
		)`,
	},
	reset: []string{
		`TRUNCATE TABLE news, categories RESTART IDENTITY`,
	},
}

const (
	articleSelectColumns = `id, title, url, COALESCE(category, '') AS category, COALESCE(content, '') AS content,
		COALESCE(published_date, '') AS published_date, COALESCE(crawled_date, '') AS crawled_date`

	insertArticleQuery = `INSERT INTO news (title, url, category, content, published_date)
		VALUES (?, ?, ?, ?, ?) ON CONFLICT (url) DO NOTHING`

	insertCategoryQuery = `INSERT INTO categories (name, url_path, category_type)
		VALUES (?, ?, ?) ON CONFLICT (name) DO NOTHING`

	urlExistsQuery = `SELECT 1 FROM news WHERE url = ? LIMIT 1`

	byCategoryQuery = `SELECT ` + articleSelectColumns + ` FROM news WHERE category = ? ORDER BY published_date DESC`

	recentQuery = `SELECT ` + articleSelectColumns + ` FROM news ORDER BY published_date DESC LIMIT ?`

	categoriesQuery = `SELECT id, name, url_path, category_type FROM categories ORDER BY id`
)
