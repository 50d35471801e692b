package publishers

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/mayaoy/fun-news-crawler/internal/domain"
)

type route struct {
	pub        Publisher
	categories []string
}

// Dispatcher fans newly saved articles out to every matching publisher.
// Delivery failures are logged and never returned.
type Dispatcher struct {
	source string
	routes []route
	now    func() time.Time
	log    Logger
}

// NewDispatcher returns an empty dispatcher stamping events with source.
func NewDispatcher(source string, log Logger) *Dispatcher {
	return &Dispatcher{source: source, now: time.Now, log: ensureLogger(log)}
}

// Add registers pub. With categories set, only articles of those categories reach it.
func (d *Dispatcher) Add(pub Publisher, categories ...string) {
	if pub == nil {
		return
	}
	d.routes = append(d.routes, route{pub: pub, categories: categories})
}

// Len reports the number of registered publishers.
func (d *Dispatcher) Len() int {
	if d == nil {
		return 0
	}
	return len(d.routes)
}

// FromSinks prepares sinks, builds a publisher for every enabled one and routes
// each by its category filter.
func FromSinks(ctx context.Context, source string, sinks []Sink, log Logger) (*Dispatcher, error) {
	active, err := Prepare(sinks)
	if err != nil {
		return nil, err
	}
	pubs, err := DefaultBuilders().Build(ctx, active, log)
	if err != nil {
		return nil, err
	}

	d := NewDispatcher(source, log)
	for i, pub := range pubs {
		d.Add(pub, active[i].Categories...)
	}
	d.log.InfoObj("publishers ready", "publishers_loaded", map[string]any{
		"enabled":  len(active),
		"declared": len(sinks),
	})
	return d, nil
}

// PublishArticle delivers one article event to every publisher that accepts its category.
func (d *Dispatcher) PublishArticle(ctx context.Context, article domain.Article) {
	if d.Len() == 0 {
		return
	}
	evt := NewArticleEvent(d.source, article, d.now())
	for _, r := range d.routes {
		if !matchCategory(r.categories, article.Category) {
			continue
		}
		if err := r.pub.Publish(ctx, evt); err != nil {
			d.log.WarnObj("publisher delivery failed", "publisher_error", map[string]any{
				"sink_id":   r.pub.ID(),
				"sink_kind": r.pub.Kind(),
				"url":            article.URL,
				"error":          err.Error(),
			})
		}
	}
}

// Close releases publishers that hold connections.
func (d *Dispatcher) Close() error {
	if d == nil {
		return nil
	}
	var errs []error
	for _, r := range d.routes {
		if c, ok := r.pub.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
