package queue

import (
	"fmt"
	"time"

	"github.com/zero-day-ai/sabik/monitor"
)

// Key layout.
const (
	channelPrefix = "sabik:feed:"

	// AllFeedsPattern matches the channel of every feed.
	AllFeedsPattern = channelPrefix + "*"
)

// DefaultRecentLimit is how many events are kept per feed in the recent list.
const DefaultRecentLimit = 100

// Channel returns the pub/sub channel for a feed: sabik:feed:<feedID>.
func Channel(feedID string) string {
	return channelPrefix + feedID
}

// RecentKey returns the list holding a feed's latest events.
func RecentKey(feedID string) string {
	return channelPrefix + feedID + ":recent"
}

// FeedMessage is the wire form of a monitor.Event.
type FeedMessage struct {
	// FeedID is the feed that produced the event
	FeedID string `json:"feed_id"`

	// Name is the SSE event name, if any
	Name string `json:"name,omitempty"`

	// Data is the event payload as received
	Data string `json:"data"`

	// Value is the decoded payload for JSON events
	Value any `json:"value,omitempty"`

	// Raw is true when Data is not valid JSON
	Raw bool `json:"raw"`

	// ReceivedAt is the Unix timestamp in milliseconds
	ReceivedAt int64 `json:"received_at"`
}

// FromEvent converts a monitor event to its wire form.
func FromEvent(ev monitor.Event) FeedMessage {
	return FeedMessage{
		FeedID:     ev.FeedID,
		Name:       ev.Name,
		Data:       ev.Data,
		Value:      ev.Value,
		Raw:        ev.Raw,
		ReceivedAt: ev.ReceivedAt.UnixMilli(),
	}
}

// Event converts the message back to a monitor event.
func (m FeedMessage) Event() monitor.Event {
	obj, _ := m.Value.(map[string]any)
	return monitor.Event{
		FeedID:     m.FeedID,
		Name:       m.Name,
		Data:       m.Data,
		Value:      m.Value,
		JSON:       obj,
		Raw:        m.Raw,
		ReceivedAt: time.UnixMilli(m.ReceivedAt),
	}
}

// IsValid checks the fields required to route a message.
func (m *FeedMessage) IsValid() error {
	if m.FeedID == "" {
		return fmt.Errorf("feed_id is required")
	}
	if m.ReceivedAt <= 0 {
		return fmt.Errorf("received_at must be positive, got %d", m.ReceivedAt)
	}
	return nil
}

// Age returns the time since the event was received.
func (m *FeedMessage) Age() time.Duration {
	if m.ReceivedAt <= 0 {
		return 0
	}
	return time.Duration(time.Now().UnixMilli()-m.ReceivedAt) * time.Millisecond
}
