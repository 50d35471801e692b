package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mayaoy/fun-news-crawler/internal/domain"
)

const ukArticle = `<html><body><h1>Storm hits coast</h1><time datetime="2024-05-01T10:00:00Z"></time>
<article><p>Heavy rain.</p><p>Roads closed.</p></article></body></html>`

func newSite(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/news/uk", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<a href="/news/articles/c1"></a><a href="/news/articles/c1"></a><a href="/sport/x/y"></a>`))
	})
	mux.HandleFunc("/news/articles/c1", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(ukArticle))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func writeConfig(t *testing.T, baseURL, driver string) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	body := fmt.Sprintf(`
site:
  base_url: %s
crawl:
  min_delay: 0s
  max_delay: 0s
store:
  driver: %s
  path: %s
log:
  level: error
`, baseURL, driver, filepath.Join(dir, "data", "news."+driver))
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand()
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return buf.String(), err
}

func TestCrawlThenList(t *testing.T) {
	for _, driver := range []string{"sqlite", "bolt"} {
		t.Run(driver, func(t *testing.T) {
			srv := newSite(t)
			cfg := writeConfig(t, srv.URL, driver)

			out, err := execute(t, "crawl", "--config", cfg, "--category", "UK")
			require.NoError(t, err)
			assert.Contains(t, out, "crawled 1 articles: 1 saved, 0 skipped")

			out, err = execute(t, "crawl", "--config", cfg, "--category", "UK")
			require.NoError(t, err)
			assert.Contains(t, out, "crawled 1 articles: 0 saved, 1 skipped")

			out, err = execute(t, "list", "--config", cfg)
			require.NoError(t, err)
			assert.Contains(t, out, "Storm hits coast")
			assert.Contains(t, out, srv.URL+"/news/articles/c1")

			out, err = execute(t, "list", "--config", cfg, "--category", "Asia")
			require.NoError(t, err)
			assert.NotContains(t, out, "Storm hits coast")
		})
	}
}

func TestCrawlPublishesSavedArticles(t *testing.T) {
	srv := newSite(t)
	events := make(chan map[string]any, 4)
	hook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var evt map[string]any
		_ = json.NewDecoder(r.Body).Decode(&evt)
		events <- evt
	}))
	t.Cleanup(hook.Close)

	cfg := writeConfig(t, srv.URL, "sqlite")
	sinks := filepath.Join(filepath.Dir(cfg), "sinks.yaml")
	require.NoError(t, os.WriteFile(sinks, []byte("sinks:\n  - id: hook\n    kind: webhook\n    target: "+hook.URL+"\n"), 0o600))
	t.Setenv("PUBLISHERS_FILE", sinks)

	_, err := execute(t, "crawl", "--config", cfg, "--category", "UK")
	require.NoError(t, err)
	require.Len(t, events, 1)
	evt := <-events
	assert.Equal(t, "article.saved", evt["type"])
	assert.Equal(t, "bbc", evt["source"])

	_, err = execute(t, "crawl", "--config", cfg, "--category", "UK")
	require.NoError(t, err)
	assert.Empty(t, events, "known articles are not published again")
}

func TestResetReseedsAndOptionallyCrawls(t *testing.T) {
	srv := newSite(t)
	cfg := writeConfig(t, srv.URL, "sqlite")

	_, err := execute(t, "crawl", "--config", cfg, "--category", "UK")
	require.NoError(t, err)

	out, err := execute(t, "reset", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "store cleared")
	assert.Contains(t, out, "re-initialised with 20 categories")

	out, err = execute(t, "list", "--config", cfg)
	require.NoError(t, err)
	assert.NotContains(t, out, "Storm hits coast")

	out, err = execute(t, "reset", "--config", cfg, "--crawl")
	require.NoError(t, err)
	assert.Contains(t, out, "crawled 1 articles: 1 saved, 0 skipped")
}

func TestCategoriesCommand(t *testing.T) {
	cfg := writeConfig(t, "https://www.bbc.com", "sqlite")

	out, err := execute(t, "categories", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "Latin America")
	assert.Contains(t, out, "https://www.bbc.com/news/world/latin_america")
	assert.Contains(t, out, "BBC Verify")
	assert.True(t, strings.Contains(out, "TOTAL") || strings.Contains(out, "Total"))
}

func TestCrawlRejectsUnknownCategory(t *testing.T) {
	cfg := writeConfig(t, "https://www.bbc.com", "sqlite")

	_, err := execute(t, "crawl", "--config", cfg, "--category", "Narnia")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown category "Narnia"`)
	assert.Contains(t, err.Error(), "Latin America")
}

func TestInvalidConfigFails(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store:\n  driver: mongo\n"), 0o600))

	_, err := execute(t, "list", "--config", path)
	require.Error(t, err)
}

func TestRenderArticles(t *testing.T) {
	var buf bytes.Buffer
	renderArticles(&buf, []domain.Article{
		{ID: 7, Title: "A headline", URL: "https://www.bbc.com/news/a/1", Category: "UK", PublishedDate: "2024-01-01"},
	})
	out := buf.String()
	assert.Contains(t, out, "A headline")
	assert.Contains(t, out, "UK")
	assert.True(t, strings.Contains(out, "TOTAL") || strings.Contains(out, "Total"))
}
