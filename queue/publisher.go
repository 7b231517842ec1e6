package queue

import (
	"context"
	"log/slog"
	"time"

	"github.com/zero-day-ai/sabik/monitor"
)

// DefaultPublishTimeout bounds each Redis publish made from a feed worker.
const DefaultPublishTimeout = 2 * time.Second

// Publisher is a monitor.Sink that re-publishes every feed event to Redis.
// Publish failures are logged and dropped so a Redis outage never stalls a
// feed.
type Publisher struct {
	client  Client
	timeout time.Duration
	logger  *slog.Logger
}

// PublisherOption configures a Publisher.
type PublisherOption func(*Publisher)

// WithPublishTimeout overrides DefaultPublishTimeout.
func WithPublishTimeout(d time.Duration) PublisherOption {
	return func(p *Publisher) {
		p.timeout = d
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) PublisherOption {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// NewPublisher wraps client as a feed sink.
func NewPublisher(client Client, opts ...PublisherOption) *Publisher {
	p := &Publisher{client: client, timeout: DefaultPublishTimeout}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	p.logger = p.logger.With("component", "feed_publisher")
	return p
}

// Deliver implements monitor.Sink.
func (p *Publisher) Deliver(ev monitor.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	if err := p.client.Publish(ctx, FromEvent(ev)); err != nil {
		p.logger.Warn("failed to publish feed event", "feed", ev.FeedID, "error", err)
		return
	}
	p.logger.Debug("feed event published", "feed", ev.FeedID, "channel", Channel(ev.FeedID))
}

var _ monitor.Sink = (*Publisher)(nil)
