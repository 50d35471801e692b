package publishers

import (
	"context"
	"time"

	"github.com/mayaoy/fun-news-crawler/internal/domain"
	"github.com/mayaoy/fun-news-crawler/internal/logger"
)

// EventArticleSaved is emitted once per newly stored article.
const EventArticleSaved = "article.saved"

// Logger is the logging surface publishers write to.
type Logger = logger.Logger

func ensureLogger(log Logger) Logger {
	return logger.Ensure(log)
}

// Event is the payload handed to every publisher.
type Event struct {
	Type      string         `json:"type"`
	Source    string         `json:"source"`
	Article   domain.Article `json:"article"`
	EmittedAt time.Time      `json:"emitted_at"`
}

// NewArticleEvent wraps a saved article for delivery.
func NewArticleEvent(source string, article domain.Article, now time.Time) Event {
	return Event{
		Type:      EventArticleSaved,
		Source:    source,
		Article:   article,
		EmittedAt: now.UTC(),
	}
}

// attributes are the routing keys attached to queue messages.
func (e Event) attributes() map[string]string {
	return map[string]string{
		"event_type": e.Type,
		"source":     e.Source,
		"category":   e.Article.Category,
	}
}

// Publisher delivers events to one sink.
type Publisher interface {
	ID() string
	Kind() string
	Publish(ctx context.Context, evt Event) error
}
