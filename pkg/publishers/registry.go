package publishers

import (
	"context"
	"fmt"
	"io"
)

// Builder creates the publisher for one sink.
type Builder func(ctx context.Context, sink Sink, log Logger) (Publisher, error)

// Builders maps sink kinds to their constructors.
type Builders map[string]Builder

// DefaultBuilders knows every supported sink kind.
func DefaultBuilders() Builders {
	return Builders{
		KindWebhook: newWebhookPublisher,
		KindSQS:     newQueuePublisher,
		KindSNS:     newQueuePublisher,
		KindPubSub:  newQueuePublisher,
	}
}

// Build instantiates one publisher per sink, in order. When a build fails the
// publishers created so far are closed.
func (b Builders) Build(ctx context.Context, sinks []Sink, log Logger) ([]Publisher, error) {
	log = ensureLogger(log)
	pubs := make([]Publisher, 0, len(sinks))
	for _, s := range sinks {
		build, ok := b[s.Kind]
		if !ok {
			closeAll(pubs)
			return nil, fmt.Errorf("sink %q: no builder for kind %q", s.ID, s.Kind)
		}
		pub, err := build(ctx, s, log)
		if err != nil {
			closeAll(pubs)
			return nil, fmt.Errorf("build sink %q: %w", s.ID, err)
		}
		log.DebugObj("sink ready", "publisher_built", map[string]any{
			"sink_id":    s.ID,
			"sink_kind":  s.Kind,
			"categories": s.Categories,
		})
		pubs = append(pubs, pub)
	}
	return pubs, nil
}

func closeAll(pubs []Publisher) {
	for _, p := range pubs {
		if c, ok := p.(io.Closer); ok {
			_ = c.Close()
		}
	}
}
