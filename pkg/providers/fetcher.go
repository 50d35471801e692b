package providers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mayaoy/fun-news-crawler/internal/logger"
	"github.com/mayaoy/fun-news-crawler/pkg/httpclient"
)

const maxPageBytes = 4 << 20 // 4 MiB

// ErrNoContent marks a fetch that produced no usable page.
var ErrNoContent = errors.New("no content")

// HTTPClient is the transport used by fetchers.
type HTTPClient = httpclient.Client

// Fetcher returns the raw markup of a page.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// PageFetcher issues one GET per call with the provider's headers. No retries.
type PageFetcher struct {
	client   HTTPClient
	provider Provider
	log      logger.Logger
}

// DefaultHTTPClient returns a resty client; a zero timeout leaves requests unbounded.
func DefaultHTTPClient(timeout time.Duration) HTTPClient { return httpclient.NewRestyClient(timeout) }

// NewPageFetcher builds a fetcher for the provider.
func NewPageFetcher(client HTTPClient, provider Provider, log logger.Logger) *PageFetcher {
	if client == nil {
		client = DefaultHTTPClient(0)
	}
	return &PageFetcher{
		client:   client,
		provider: provider,
		log:      logger.Ensure(log),
	}
}

// Fetch returns the page body. Transport failures and non-2xx statuses are logged
// and returned wrapped in ErrNoContent.
func (f *PageFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	resp, err := f.client.Get(ctx, url, Headers(f.provider))
	if err != nil {
		f.log.WarnObj("page fetch failed", "fetch_error", map[string]any{
			"provider_id": f.provider.ID,
			"url":         url,
			"error":       err.Error(),
		})
		return nil, fmt.Errorf("%w: %v", ErrNoContent, err)
	}

	body := resp.Body()
	if status := resp.StatusCode(); status < 200 || status > 299 {
		f.log.WarnObj("page fetch returned non-success status", "fetch_status", map[string]any{
			"provider_id": f.provider.ID,
			"url":         url,
			"status":      status,
			"body":        responseSnippet(body),
		})
		return nil, fmt.Errorf("%w: %s returned status %d", ErrNoContent, url, status)
	}

	if len(body) > maxPageBytes {
		f.log.InfoObj("page body truncated", "truncation", map[string]any{
			"provider_id": f.provider.ID,
			"url":         url,
			"original":    len(body),
			"kept":        maxPageBytes,
		})
		body = body[:maxPageBytes]
	}

	f.log.DebugObj("page fetched", "fetch_ok", map[string]any{
		"provider_id": f.provider.ID,
		"url":         url,
		"bytes":       len(body),
	})
	return body, nil
}
