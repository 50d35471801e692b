package store

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/mayaoy/fun-news-crawler/internal/domain"
	"github.com/mayaoy/fun-news-crawler/internal/logger"
)

var (
	newsBucket      = []byte("news")
	newsURLBucket   = []byte("news_urls")
	categoryBucket  = []byte("categories")
	categoryNameIdx = []byte("category_names")

	allBuckets = [][]byte{newsBucket, newsURLBucket, categoryBucket, categoryNameIdx}
)

var errBucketMissing = errors.New("bucket missing, store not initialised")

// BoltStore keeps articles in a single bbolt file. Bucket sequences play the role
// of autoincrement counters; ordering queries sort in memory.
type BoltStore struct {
	db   *bolt.DB
	seed []domain.Category
	log  logger.Logger
	now  func() time.Time
}

// OpenBolt opens (creating its directory when needed) the bbolt file at path.
func OpenBolt(path string, seed []domain.Category, log logger.Logger) (*BoltStore, error) {
	if path == "" {
		return nil, errors.New("bolt path is empty")
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create bolt directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt: %w", err)
	}

	cp := make([]domain.Category, len(seed))
	copy(cp, seed)
	return &BoltStore{db: db, seed: cp, log: logger.Ensure(log), now: time.Now}, nil
}

func (s *BoltStore) Init(ctx context.Context) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		for _, name := range allBuckets {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("create bucket %s: %w", name, err)
			}
		}

		cats := tx.Bucket(categoryBucket)
		names := tx.Bucket(categoryNameIdx)
		for _, c := range s.seed {
			if names.Get([]byte(c.Name)) != nil {
				continue
			}
			id, err := cats.NextSequence()
			if err != nil {
				return fmt.Errorf("category sequence: %w", err)
			}
			c.ID = int64(id)
			raw, err := json.Marshal(c)
			if err != nil {
				return fmt.Errorf("encode category %q: %w", c.Name, err)
			}
			if err := cats.Put(itob(id), raw); err != nil {
				return err
			}
			if err := names.Put([]byte(c.Name), itob(id)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("init bolt store: %w", err)
	}
	return nil
}

func (s *BoltStore) URLExists(ctx context.Context, url string) bool {
	var found bool
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(newsURLBucket)
		if b == nil {
			return errBucketMissing
		}
		found = b.Get([]byte(url)) != nil
		return nil
	})
	if err != nil {
		s.logError("url lookup failed", "store_lookup_error", err, map[string]any{"url": url})
		return false
	}
	return found
}

func (s *BoltStore) SaveArticle(ctx context.Context, a domain.Article) bool {
	var inserted bool
	err := s.db.Update(func(tx *bolt.Tx) error {
		news, urls := tx.Bucket(newsBucket), tx.Bucket(newsURLBucket)
		if news == nil || urls == nil {
			return errBucketMissing
		}
		if err := validateArticle(a); err != nil {
			return err
		}
		if urls.Get([]byte(a.URL)) != nil {
			return nil
		}

		id, err := news.NextSequence()
		if err != nil {
			return err
		}
		a.ID = int64(id)
		a.CrawledDate = s.now().UTC().Format(crawledDateLayout)
		raw, err := json.Marshal(a)
		if err != nil {
			return fmt.Errorf("encode article: %w", err)
		}
		if err := news.Put(itob(id), raw); err != nil {
			return err
		}
		if err := urls.Put([]byte(a.URL), itob(id)); err != nil {
			return err
		}
		inserted = true
		return nil
	})
	if err != nil {
		s.logError("saving article failed", "store_save_error", err, map[string]any{"url": a.URL})
		return false
	}
	return inserted
}

func (s *BoltStore) ArticlesByCategory(ctx context.Context, category string) []domain.Article {
	out, err := s.scanArticles(func(a domain.Article) bool { return a.Category == category })
	if err != nil {
		s.logError("listing articles by category failed", "store_query_error", err, map[string]any{"category": category})
		return []domain.Article{}
	}
	return out
}

func (s *BoltStore) RecentArticles(ctx context.Context, limit int) []domain.Article {
	limit = recentLimit(limit)
	out, err := s.scanArticles(nil)
	if err != nil {
		s.logError("listing recent articles failed", "store_query_error", err, map[string]any{"limit": limit})
		return []domain.Article{}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// scanArticles returns the articles accepted by keep, newest published_date first.
func (s *BoltStore) scanArticles(keep func(domain.Article) bool) ([]domain.Article, error) {
	out := []domain.Article{}
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(newsBucket)
		if b == nil {
			return errBucketMissing
		}
		return b.ForEach(func(_, v []byte) error {
			var a domain.Article
			if err := json.Unmarshal(v, &a); err != nil {
				return fmt.Errorf("decode article: %w", err)
			}
			if keep == nil || keep(a) {
				out = append(out, a)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PublishedDate > out[j].PublishedDate
	})
	return out, nil
}

func (s *BoltStore) Categories(ctx context.Context) []domain.Category {
	out := []domain.Category{}
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(categoryBucket)
		if b == nil {
			return errBucketMissing
		}
		// keys are big-endian ids, so cursor order is id order
		return b.ForEach(func(_, v []byte) error {
			var c domain.Category
			if err := json.Unmarshal(v, &c); err != nil {
				return fmt.Errorf("decode category: %w", err)
			}
			out = append(out, c)
			return nil
		})
	})
	if err != nil {
		s.logError("listing categories failed", "store_query_error", err, nil)
		return []domain.Category{}
	}
	return out
}

// Clear drops and recreates every bucket, which also resets their sequences.
func (s *BoltStore) Clear(ctx context.Context) bool {
	err := s.db.Update(func(tx *bolt.Tx) error {
		for _, name := range allBuckets {
			if err := tx.DeleteBucket(name); err != nil && !errors.Is(err, bolt.ErrBucketNotFound) {
				return fmt.Errorf("delete bucket %s: %w", name, err)
			}
			if _, err := tx.CreateBucket(name); err != nil {
				return fmt.Errorf("recreate bucket %s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		s.logError("clearing store failed", "store_clear_error", err, nil)
		return false
	}
	return true
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

func (s *BoltStore) logError(msg, event string, err error, fields map[string]any) {
	if fields == nil {
		fields = make(map[string]any, 2)
	}
	fields["backend"] = "bolt"
	fields["error"] = err.Error()
	s.log.ErrorObj(msg, event, fields)
}

// itob encodes v as an 8-byte big-endian key.
func itob(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}
