package publishers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mayaoy/fun-news-crawler/pkg/httpclient"
)

// webhookPublisher sends events as JSON to an HTTP endpoint.
type webhookPublisher struct {
	id      string
	url     string
	method  string
	headers map[string]string
	client  httpclient.Poster
	log     Logger
}

func newWebhookPublisher(_ context.Context, sink Sink, log Logger) (Publisher, error) {
	return newWebhookPublisherWithClient(sink, httpclient.NewRestyClient(sink.Timeout), log), nil
}

func newWebhookPublisherWithClient(sink Sink, client httpclient.Poster, log Logger) *webhookPublisher {
	headers := map[string]string{"Content-Type": "application/json"}
	for k, v := range sink.Headers {
		headers[k] = v
	}
	method := sink.Method
	if method == "" {
		method = "POST"
	}
	return &webhookPublisher{
		id:      sink.ID,
		url:     sink.Target,
		method:  method,
		headers: headers,
		client:  client,
		log:     ensureLogger(log),
	}
}

func (p *webhookPublisher) ID() string   { return p.id }
func (p *webhookPublisher) Kind() string { return KindWebhook }

// Publish sends the event. Any non-2xx response is an error.
func (p *webhookPublisher) Publish(ctx context.Context, evt Event) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	resp, err := p.client.Do(ctx, p.method, p.url, p.headers, payload)
	if err != nil {
		return fmt.Errorf("webhook sink %q: %w", p.id, err)
	}
	if status := resp.StatusCode(); status < 200 || status > 299 {
		body := strings.TrimSpace(string(resp.Body()))
		if len(body) > 256 {
			body = body[:256]
		}
		return fmt.Errorf("webhook sink %q: status %d: %s", p.id, status, body)
	}

	p.log.DebugObj("webhook delivered event", "publisher_webhook_delivery", map[string]any{
		"sink_id": p.id,
		"url":     evt.Article.URL,
		"status":  resp.StatusCode(),
	})
	return nil
}
