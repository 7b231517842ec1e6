package monitor

import (
	"encoding/json"
	"strings"
	"time"
)

// Event is one server-sent event received from a feed.
type Event struct {
	FeedID string

	// Name is the SSE event name, empty for the default "message" event.
	Name string

	// Data is the event payload as received.
	Data string

	// Value is the decoded payload when Data is valid JSON of any kind.
	Value any

	// JSON is Value when it is an object, nil otherwise.
	JSON map[string]any

	// Raw is true when Data is not valid JSON.
	Raw bool

	ReceivedAt time.Time
}

// newEvent decodes data into an Event. It reports false for heartbeats:
// payloads that are not JSON and start with ':'.
func newEvent(feedID, name, data string, now time.Time) (Event, bool) {
	ev := Event{FeedID: feedID, Name: name, Data: data, ReceivedAt: now}

	trimmed := strings.TrimSpace(data)
	var v any
	if err := json.Unmarshal([]byte(trimmed), &v); err != nil {
		if strings.HasPrefix(trimmed, ":") {
			return Event{}, false
		}
		ev.Raw = true
		return ev, true
	}
	ev.Value = v
	ev.JSON, _ = v.(map[string]any)
	return ev, true
}

// Sink receives feed events. Deliver is called from the feed's worker
// goroutine; implementations shared by several feeds must be safe for
// concurrent use.
type Sink interface {
	Deliver(Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event)

// Deliver calls f(ev).
func (f SinkFunc) Deliver(ev Event) { f(ev) }

// NoticeKind classifies a lifecycle notice.
type NoticeKind string

const (
	NoticeStarted   NoticeKind = "started"
	NoticeConnected NoticeKind = "connected"
	NoticeRetrying  NoticeKind = "retrying"
	NoticeStopped   NoticeKind = "stopped"
)

// Notice reports a change in a feed worker's state.
type Notice struct {
	FeedID string
	Kind   NoticeKind

	// Cause is set for NoticeRetrying: timeout, io_error, fault or end.
	Cause string

	// Err is the error that ended the connection, if any.
	Err error

	// Retry is the delay before the next connection attempt.
	Retry time.Duration
}

// Notifier is implemented by sinks that also want lifecycle notices.
type Notifier interface {
	Notify(Notice)
}

// MultiSink fans events and notices out to several sinks in order.
type MultiSink []Sink

// Deliver forwards ev to every sink.
func (m MultiSink) Deliver(ev Event) {
	for _, s := range m {
		if s != nil {
			s.Deliver(ev)
		}
	}
}

// Notify forwards n to every sink that implements Notifier.
func (m MultiSink) Notify(n Notice) {
	for _, s := range m {
		if nt, ok := s.(Notifier); ok {
			nt.Notify(n)
		}
	}
}

type discard struct{}

func (discard) Deliver(Event) {}
