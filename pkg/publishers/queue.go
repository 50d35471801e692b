package publishers

import (
	"context"
	"fmt"
	"io"
)

// sender hands one event to a cloud queue or topic.
type sender interface {
	Send(ctx context.Context, evt Event) error
}

// queuePublisher adapts a cloud sender to Publisher.
type queuePublisher struct {
	id     string
	kind   string
	sender sender
}

func newQueuePublisher(ctx context.Context, sink Sink, log Logger) (Publisher, error) {
	var (
		snd sender
		err error
	)
	switch sink.Kind {
	case KindSQS:
		snd, err = newAWSSQSSender(ctx, sink, log)
	case KindSNS:
		snd, err = newAWSSNSSender(ctx, sink, log)
	case KindPubSub:
		snd, err = newGCPPubSubSender(ctx, sink, log)
	default:
		err = fmt.Errorf("kind %q is not a queue", sink.Kind)
	}
	if err != nil {
		return nil, err
	}
	return &queuePublisher{id: sink.ID, kind: sink.Kind, sender: snd}, nil
}

func (p *queuePublisher) ID() string   { return p.id }
func (p *queuePublisher) Kind() string { return p.kind }

func (p *queuePublisher) Publish(ctx context.Context, evt Event) error {
	if err := p.sender.Send(ctx, evt); err != nil {
		return fmt.Errorf("%s sink %q: %w", p.kind, p.id, err)
	}
	return nil
}

// Close releases the sender when it holds a client connection.
func (p *queuePublisher) Close() error {
	if c, ok := p.sender.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
