package domain

// Domain contains core models shared by the crawler, store and publishers.

// Article is one crawled news item. URL is its identity.
type Article struct {
	ID            int64  `db:"id" json:"id,omitempty"`
	Title         string `db:"title" json:"title"`
	URL           string `db:"url" json:"url"`
	Category      string `db:"category" json:"category"`
	Content       string `db:"content" json:"content"`
	PublishedDate string `db:"published_date" json:"published_date"`
	CrawledDate   string `db:"crawled_date" json:"crawled_date,omitempty"`
}

// CategoryType distinguishes top-level sections from news sub-sections.
type CategoryType string

const (
	CategoryMain CategoryType = "main"
	CategoryNews CategoryType = "news"
)

// Category is a named section of the source site.
type Category struct {
	ID      int64        `db:"id" json:"id,omitempty"`
	Name    string       `db:"name" json:"name"`
	URLPath string       `db:"url_path" json:"url_path"`
	Type    CategoryType `db:"category_type" json:"category_type"`
}

// CrawlStats counts what happened while crawling one category or a whole run.
type CrawlStats struct {
	Total   int
	Saved   int
	Skipped int
}

// Add sums other into s.
func (s *CrawlStats) Add(other CrawlStats) {
	s.Total += other.Total
	s.Saved += other.Saved
	s.Skipped += other.Skipped
}
