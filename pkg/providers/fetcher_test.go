package providers_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mayaoy/fun-news-crawler/internal/config"
	"github.com/mayaoy/fun-news-crawler/pkg/providers"
)

func testProvider(base string) providers.Provider {
	return providers.Provider{
		ID:        "test",
		BaseURL:   base,
		UserAgent: "news-test-agent",
	}
}

func TestPageFetcher_ReturnsBodyAndSendsUserAgent(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.UserAgent()
		_, _ = w.Write([]byte("<html><h1>hi</h1></html>"))
	}))
	defer srv.Close()

	f := providers.NewPageFetcher(nil, testProvider(srv.URL), nil)
	body, err := f.Fetch(context.Background(), srv.URL+"/news/articles/x")
	require.NoError(t, err)
	assert.Equal(t, "<html><h1>hi</h1></html>", string(body))
	assert.Equal(t, "news-test-agent", gotUA)
}

func TestPageFetcher_NonSuccessStatusIsNoContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := providers.NewPageFetcher(nil, testProvider(srv.URL), nil)
	body, err := f.Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.True(t, errors.Is(err, providers.ErrNoContent))
	assert.Nil(t, body)
}

func TestPageFetcher_TransportFailureIsNoContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	f := providers.NewPageFetcher(nil, testProvider(url), nil)
	_, err := f.Fetch(context.Background(), url)
	require.ErrorIs(t, err, providers.ErrNoContent)
}

func TestPageFetcher_SingleRequestPerCall(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	f := providers.NewPageFetcher(nil, testProvider(srv.URL), nil)
	_, _ = f.Fetch(context.Background(), srv.URL)
	assert.Equal(t, 1, calls)
}

func TestHeaders_UserAgentWins(t *testing.T) {
	p := providers.Provider{
		UserAgent: "agent-a",
		Headers:   map[string]string{"User-Agent": "agent-b", "Accept": "text/html", " ": "x"},
	}
	h := providers.Headers(p)
	assert.Equal(t, "agent-a", h["User-Agent"])
	assert.Equal(t, "text/html", h["Accept"])
	assert.Len(t, h, 2)
}

func TestRequestDelay_WithinBounds(t *testing.T) {
	p := providers.Provider{MinDelay: time.Second, MaxDelay: 3 * time.Second}
	for range 200 {
		d := p.RequestDelay()
		assert.GreaterOrEqual(t, d, time.Second)
		assert.LessOrEqual(t, d, 3*time.Second)
	}
}

func TestRequestDelay_Degenerate(t *testing.T) {
	assert.Equal(t, time.Duration(0), providers.Provider{}.RequestDelay())
	assert.Equal(t, 2*time.Second, providers.Provider{MinDelay: 2 * time.Second, MaxDelay: time.Second}.RequestDelay())
}

func TestFromConfig(t *testing.T) {
	p := providers.FromConfig(
		config.SiteConfig{BaseURL: "https://www.bbc.com/", UserAgent: "ua", ArticlePathSegment: "/news/", MinSlashes: 3},
		config.CrawlConfig{MinDelay: time.Second, MaxDelay: 3 * time.Second},
	)
	assert.Equal(t, "https://www.bbc.com", p.BaseURL)
	assert.Equal(t, "/news/", p.ArticlePathSegment)
	assert.Equal(t, 3, p.MinSlashes)
	assert.True(t, strings.EqualFold(p.ID, "bbc"))
}
