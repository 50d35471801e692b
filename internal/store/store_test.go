package store_test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mayaoy/fun-news-crawler/internal/categories"
	"github.com/mayaoy/fun-news-crawler/internal/config"
	"github.com/mayaoy/fun-news-crawler/internal/domain"
	"github.com/mayaoy/fun-news-crawler/internal/store"
)

type backend struct {
	name string
	open func(t *testing.T) store.Store
}

func backends() []backend {
	seed := categories.Default().All()
	return []backend{
		{name: "sqlite", open: func(t *testing.T) store.Store {
			s, err := store.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "data", "news.db"), seed, nil)
			require.NoError(t, err)
			return s
		}},
		{name: "bolt", open: func(t *testing.T) store.Store {
			s, err := store.OpenBolt(filepath.Join(t.TempDir(), "data", "news.bolt"), seed, nil)
			require.NoError(t, err)
			return s
		}},
	}
}

// forEachBackend runs fn against a freshly initialised store of every backend.
func forEachBackend(t *testing.T, fn func(t *testing.T, s store.Store)) {
	t.Helper()
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			s := b.open(t)
			t.Cleanup(func() { _ = s.Close() })
			require.NoError(t, s.Init(context.Background()))
			fn(t, s)
		})
	}
}

func article(url, title, published string) domain.Article {
	return domain.Article{
		Title:         title,
		URL:           url,
		Category:      "News",
		Content:       "para one\npara two",
		PublishedDate: published,
	}
}

func TestStore_InitSeedsTwentyCategories(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s store.Store) {
		ctx := context.Background()
		cats := s.Categories(ctx)
		require.Len(t, cats, 20)
		assert.Equal(t, "Home", cats[0].Name)
		assert.Equal(t, int64(1), cats[0].ID)
		assert.Equal(t, domain.CategoryMain, cats[0].Type)
		assert.Equal(t, "BBC Verify", cats[19].Name)
		assert.Equal(t, domain.CategoryNews, cats[19].Type)

		// second Init is a no-op for the seed
		require.NoError(t, s.Init(ctx))
		assert.Len(t, s.Categories(ctx), 20)
	})
}

func TestStore_SaveArticleIsIdempotent(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s store.Store) {
		ctx := context.Background()
		url := "https://www.bbc.com/news/articles/c123"

		assert.True(t, s.SaveArticle(ctx, article(url, "First title", "2024-05-01T10:00:00.000Z")))
		assert.False(t, s.SaveArticle(ctx, article(url, "Second title", "2024-05-02T10:00:00.000Z")))

		rows := s.RecentArticles(ctx, 100)
		require.Len(t, rows, 1)
		assert.Equal(t, "First title", rows[0].Title)
		assert.Equal(t, "2024-05-01T10:00:00.000Z", rows[0].PublishedDate)
		assert.NotEmpty(t, rows[0].CrawledDate)
		assert.Equal(t, "para one\npara two", rows[0].Content)
	})
}

func TestStore_SaveArticleRequiresTitleAndURL(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s store.Store) {
		ctx := context.Background()
		url := "https://www.bbc.com/news/articles/untitled"

		assert.False(t, s.SaveArticle(ctx, article(url, "", "2024-01-01")))
		assert.False(t, s.URLExists(ctx, url))
		assert.False(t, s.SaveArticle(ctx, article("", "No link", "2024-01-01")))
		assert.Empty(t, s.RecentArticles(ctx, 10))
	})
}

func TestStore_URLExistsTracksSuccessfulSaves(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s store.Store) {
		ctx := context.Background()
		saved := map[string]bool{}
		for i := range 5 {
			url := fmt.Sprintf("https://www.bbc.com/news/articles/c%d", i%3)
			if s.SaveArticle(ctx, article(url, "t", "2024-01-01")) {
				saved[url] = true
			}
		}
		assert.Len(t, saved, 3)
		for url := range saved {
			assert.True(t, s.URLExists(ctx, url), url)
		}
		assert.False(t, s.URLExists(ctx, "https://www.bbc.com/news/articles/unknown"))
	})
}

func TestStore_RecentArticlesOrderedAndBounded(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s store.Store) {
		ctx := context.Background()
		dates := []string{"2024-03-01", "2024-01-01", "2024-05-01", "2024-02-01", "2024-04-01"}
		for i, d := range dates {
			require.True(t, s.SaveArticle(ctx, article(fmt.Sprintf("https://www.bbc.com/news/a/%d", i), "t", d)))
		}

		rows := s.RecentArticles(ctx, 3)
		require.Len(t, rows, 3)
		assert.Equal(t, "2024-05-01", rows[0].PublishedDate)
		assert.Equal(t, "2024-04-01", rows[1].PublishedDate)
		assert.Equal(t, "2024-03-01", rows[2].PublishedDate)

		assert.Len(t, s.RecentArticles(ctx, 0), 5, "non-positive limit falls back to the default")
	})
}

func TestStore_ArticlesByCategory(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s store.Store) {
		ctx := context.Background()
		a := article("https://www.bbc.com/news/a/1", "asia old", "2024-01-01")
		a.Category = "Asia"
		b := article("https://www.bbc.com/news/a/2", "asia new", "2024-06-01")
		b.Category = "Asia"
		c := article("https://www.bbc.com/news/a/3", "uk", "2024-07-01")
		c.Category = "UK"
		for _, x := range []domain.Article{a, b, c} {
			require.True(t, s.SaveArticle(ctx, x))
		}

		rows := s.ArticlesByCategory(ctx, "Asia")
		require.Len(t, rows, 2)
		assert.Equal(t, "asia new", rows[0].Title)
		assert.Equal(t, "asia old", rows[1].Title)
		assert.Empty(t, s.ArticlesByCategory(ctx, "Travel"))
	})
}

func TestStore_ClearThenInitRestoresSeed(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s store.Store) {
		ctx := context.Background()
		require.True(t, s.SaveArticle(ctx, article("https://www.bbc.com/news/a/1", "t", "2024-01-01")))

		require.True(t, s.Clear(ctx))
		assert.Empty(t, s.Categories(ctx))
		assert.Empty(t, s.RecentArticles(ctx, 10))

		require.NoError(t, s.Init(ctx))
		cats := s.Categories(ctx)
		require.Len(t, cats, 20)
		assert.Equal(t, int64(1), cats[0].ID, "identity counter restarts")
		assert.Equal(t, int64(20), cats[19].ID)
		assert.Empty(t, s.RecentArticles(ctx, 10))

		want := categories.Default().All()
		for i, c := range cats {
			assert.Equal(t, want[i].Name, c.Name)
			assert.Equal(t, want[i].URLPath, c.URLPath)
			assert.Equal(t, want[i].Type, c.Type)
		}

		// article ids restart too
		require.True(t, s.SaveArticle(ctx, article("https://www.bbc.com/news/a/9", "t", "2024-01-01")))
		assert.Equal(t, int64(1), s.RecentArticles(ctx, 1)[0].ID)
	})
}

func TestOpen_SelectsBackend(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := store.Open(ctx, config.StoreConfig{Driver: config.DriverSQLite, Path: filepath.Join(dir, "a.db")}, nil, nil)
	require.NoError(t, err)
	assert.IsType(t, &store.SQLStore{}, s)
	require.NoError(t, s.Close())

	s, err = store.Open(ctx, config.StoreConfig{Driver: config.DriverBolt, Path: filepath.Join(dir, "a.bolt")}, nil, nil)
	require.NoError(t, err)
	assert.IsType(t, &store.BoltStore{}, s)
	require.NoError(t, s.Close())

	_, err = store.Open(ctx, config.StoreConfig{Driver: "mongo"}, nil, nil)
	require.Error(t, err)
}

func TestBoltStore_OperationsBeforeInitFailSoft(t *testing.T) {
	s, err := store.OpenBolt(filepath.Join(t.TempDir(), "x.bolt"), nil, nil)
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	assert.False(t, s.URLExists(ctx, "https://www.bbc.com/news/a/1"))
	assert.False(t, s.SaveArticle(ctx, article("https://www.bbc.com/news/a/1", "t", "2024")))
	assert.Empty(t, s.RecentArticles(ctx, 5))
	assert.Empty(t, s.Categories(ctx))
}
