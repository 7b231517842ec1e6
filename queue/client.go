package queue

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client is the Redis surface used to fan feed events out.
type Client interface {
	// Publish sends msg to the feed's channel and records it in the feed's
	// recent list.
	Publish(ctx context.Context, msg FeedMessage) error

	// Subscribe receives messages of one feed, or of every feed when
	// feedID is empty, until ctx is cancelled.
	Subscribe(ctx context.Context, feedID string) (<-chan FeedMessage, error)

	// Recent returns up to n of the feed's latest messages, newest first.
	Recent(ctx context.Context, feedID string, n int) ([]FeedMessage, error)

	// Ping checks the connection.
	Ping(ctx context.Context) error

	// Close closes the Redis connection.
	Close() error
}

// RedisOptions configures the Redis connection.
type RedisOptions struct {
	// URL is the Redis connection string (e.g., "redis://localhost:6379")
	URL string

	// TLS configuration for secure connections
	TLS *tls.Config

	// ConnectTimeout is the maximum time to wait for connection establishment
	ConnectTimeout time.Duration

	// ReadTimeout is the maximum time to wait for read operations
	ReadTimeout time.Duration

	// WriteTimeout is the maximum time to wait for write operations
	WriteTimeout time.Duration

	// RecentLimit caps each feed's recent list. Default: 100
	RecentLimit int
}

// RedisClient implements Client on go-redis/v9.
type RedisClient struct {
	client      *redis.Client
	recentLimit int
}

// NewRedisClient connects to Redis and verifies the connection with PING.
func NewRedisClient(opts RedisOptions) (*RedisClient, error) {
	if opts.URL == "" {
		opts.URL = "redis://localhost:6379"
	}
	if opts.ConnectTimeout == 0 {
		opts.ConnectTimeout = 5 * time.Second
	}
	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = 5 * time.Second
	}
	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = 5 * time.Second
	}
	if opts.RecentLimit <= 0 {
		opts.RecentLimit = DefaultRecentLimit
	}

	redisOpts, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	if opts.TLS != nil {
		redisOpts.TLSConfig = opts.TLS
	}
	redisOpts.DialTimeout = opts.ConnectTimeout
	redisOpts.ReadTimeout = opts.ReadTimeout
	redisOpts.WriteTimeout = opts.WriteTimeout

	client := redis.NewClient(redisOpts)

	ctx, cancel := context.WithTimeout(context.Background(), opts.ConnectTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisClient{client: client, recentLimit: opts.RecentLimit}, nil
}

// Publish sends msg to sabik:feed:<feedID> and pushes it onto the feed's
// capped recent list in one pipeline.
func (c *RedisClient) Publish(ctx context.Context, msg FeedMessage) error {
	if err := msg.IsValid(); err != nil {
		return fmt.Errorf("invalid feed message: %w", err)
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal feed message: %w", err)
	}

	recent := RecentKey(msg.FeedID)
	_, err = c.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Publish(ctx, Channel(msg.FeedID), data)
		pipe.LPush(ctx, recent, data)
		pipe.LTrim(ctx, recent, 0, int64(c.recentLimit-1))
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to publish to feed %s: %w", msg.FeedID, err)
	}
	return nil
}

// Subscribe returns a channel of decoded messages. It is closed when ctx
// is cancelled or the subscription ends. Undecodable payloads are skipped.
func (c *RedisClient) Subscribe(ctx context.Context, feedID string) (<-chan FeedMessage, error) {
	var pubsub *redis.PubSub
	if feedID == "" {
		pubsub = c.client.PSubscribe(ctx, AllFeedsPattern)
	} else {
		pubsub = c.client.Subscribe(ctx, Channel(feedID))
	}

	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to feed %q: %w", feedID, err)
	}

	out := make(chan FeedMessage)

	go func() {
		defer close(out)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var fm FeedMessage
				if err := json.Unmarshal([]byte(msg.Payload), &fm); err != nil {
					continue
				}

				select {
				case out <- fm:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

// Recent returns up to n of the feed's latest messages, newest first.
func (c *RedisClient) Recent(ctx context.Context, feedID string, n int) ([]FeedMessage, error) {
	if n <= 0 {
		return nil, nil
	}

	raw, err := c.client.LRange(ctx, RecentKey(feedID), 0, int64(n-1)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read recent events of feed %s: %w", feedID, err)
	}

	msgs := make([]FeedMessage, 0, len(raw))
	for _, r := range raw {
		var fm FeedMessage
		if err := json.Unmarshal([]byte(r), &fm); err != nil {
			continue
		}
		msgs = append(msgs, fm)
	}
	return msgs, nil
}

// Ping checks the connection.
func (c *RedisClient) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (c *RedisClient) Close() error {
	return c.client.Close()
}
