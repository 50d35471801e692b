package httpclient

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client performs GET requests and exposes the raw resty response.
type Client interface {
	Get(ctx context.Context, url string, headers map[string]string) (*resty.Response, error)
}

// Poster is implemented by clients that can also send request bodies.
type Poster interface {
	Do(ctx context.Context, method, url string, headers map[string]string, body []byte) (*resty.Response, error)
}

// RestyClient implements Client and Poster on top of resty.
type RestyClient struct {
	c *resty.Client
}

// NewRestyClient builds a resty-backed client. A zero timeout leaves requests unbounded.
func NewRestyClient(timeout time.Duration) *RestyClient {
	c := resty.New().
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(10))
	if timeout > 0 {
		c.SetTimeout(timeout)
	}
	return &RestyClient{c: c}
}

// Get issues a GET with the given headers. Non-2xx statuses are not errors here;
// callers inspect StatusCode themselves.
func (r *RestyClient) Get(ctx context.Context, url string, headers map[string]string) (*resty.Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	resp, err := r.c.R().
		SetContext(ctx).
		SetHeaders(headers).
		Get(url)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", url, err)
	}
	return resp, nil
}

// Do sends an arbitrary request with a raw body.
func (r *RestyClient) Do(ctx context.Context, method, url string, headers map[string]string, body []byte) (*resty.Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	resp, err := r.c.R().
		SetContext(ctx).
		SetHeaders(headers).
		SetBody(body).
		Execute(method, url)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, url, err)
	}
	return resp, nil
}
