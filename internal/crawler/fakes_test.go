package crawler_test

import (
	"context"
	"fmt"
	"sync"

	"github.com/mayaoy/fun-news-crawler/internal/domain"
	"github.com/mayaoy/fun-news-crawler/pkg/providers"
)

type fakeFetcher struct {
	mu    sync.Mutex
	pages map[string]string
	calls []string
}

func newFakeFetcher(pages map[string]string) *fakeFetcher {
	return &fakeFetcher{pages: pages}
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, url)
	body, ok := f.pages[url]
	if !ok {
		return nil, fmt.Errorf("%w: %s returned status 404", providers.ErrNoContent, url)
	}
	return []byte(body), nil
}

func (f *fakeFetcher) called(url string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.calls {
		if c == url {
			return true
		}
	}
	return false
}

// memStore is an in-memory store.Store; failSaves makes every insert fail without writing.
type memStore struct {
	mu        sync.Mutex
	rows      []domain.Article
	byURL     map[string]bool
	saves     int
	failSaves bool
}

func newMemStore(known ...string) *memStore {
	s := &memStore{byURL: map[string]bool{}}
	for _, u := range known {
		s.byURL[u] = true
	}
	return s
}

func (s *memStore) Init(context.Context) error { return nil }

func (s *memStore) URLExists(_ context.Context, url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.byURL[url]
}

func (s *memStore) SaveArticle(_ context.Context, a domain.Article) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	if s.failSaves || s.byURL[a.URL] {
		return false
	}
	s.byURL[a.URL] = true
	s.rows = append(s.rows, a)
	return true
}

func (s *memStore) ArticlesByCategory(_ context.Context, category string) []domain.Article {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []domain.Article{}
	for _, a := range s.rows {
		if a.Category == category {
			out = append(out, a)
		}
	}
	return out
}

func (s *memStore) RecentArticles(_ context.Context, _ int) []domain.Article {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Article{}, s.rows...)
}

func (s *memStore) Categories(context.Context) []domain.Category { return []domain.Category{} }
func (s *memStore) Clear(context.Context) bool                    { return true }
func (s *memStore) Close() error                                  { return nil }

func (s *memStore) saveCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

type recordingPublisher struct {
	mu       sync.Mutex
	articles []domain.Article
}

func (p *recordingPublisher) PublishArticle(_ context.Context, a domain.Article) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.articles = append(p.articles, a)
}

func bbcProvider() providers.Provider {
	return providers.Provider{
		ID:                 "bbc",
		BaseURL:            "https://www.bbc.com",
		UserAgent:          "test-agent",
		ArticlePathSegment: "/news/",
		MinSlashes:         3,
	}
}

func articlePage(title, datetime string, paragraphs ...string) string {
	body := "<html><body>"
	if title != "" {
		body += "<h1>" + title + "</h1>"
	}
	if datetime != "" {
		body += `<time datetime="` + datetime + `">1 May</time>`
	}
	body += "<article>"
	for _, p := range paragraphs {
		body += "<p>" + p + "</p>"
	}
	body += "</article></body></html>"
	return body
}
