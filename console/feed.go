package console

import (
	"encoding/json"
	"fmt"

	"github.com/zero-day-ai/sabik/monitor"
)

// FeedRenderer prints feed events and worker notices to a Console. It
// implements monitor.Sink and monitor.Notifier.
type FeedRenderer struct {
	c *Console
}

// FeedRenderer returns a sink that renders to c.
func (c *Console) FeedRenderer() *FeedRenderer {
	return &FeedRenderer{c: c}
}

// Deliver renders decoded JSON indented in an event panel and anything
// else as raw data.
func (r *FeedRenderer) Deliver(ev monitor.Event) {
	c := r.c
	ts := ev.ReceivedAt.Format("15:04:05")
	label := feedLabel(ev.FeedID)

	if !ev.Raw {
		body, err := json.MarshalIndent(ev.Value, "", "  ")
		if err == nil {
			c.println(c.box(c.styles.Theme.Event, fmt.Sprintf("%s Event (%s)", label, ts), string(body)))
			return
		}
	}
	c.println(c.box(c.styles.Theme.Warn, fmt.Sprintf("%s Raw Data (%s)", label, ts), ev.Data))
}

// Notify renders worker lifecycle changes.
func (r *FeedRenderer) Notify(n monitor.Notice) {
	c := r.c
	label := feedLabel(n.FeedID)

	switch n.Kind {
	case monitor.NoticeStarted:
		c.Notice("%s monitor started.", label)
	case monitor.NoticeConnected:
		c.println(c.styles.Help.Render(label + " connected."))
	case monitor.NoticeRetrying:
		secs := int(n.Retry.Seconds())
		switch n.Cause {
		case monitor.CauseEnd:
			c.println(c.styles.Help.Render(fmt.Sprintf("%s stream ended. Retrying in %d seconds...", label, secs)))
		case monitor.CauseTimeout:
			c.Warn("%s connection timeout. Retrying in %d seconds...", label, secs)
		case monitor.CauseIOError:
			c.Warn("%s connection error: %v. Retrying in %d seconds...", label, n.Err, secs)
		default:
			c.println(c.styles.Error.Render(fmt.Sprintf("Unexpected error in %s monitor: %v. Retrying in %ds...", label, n.Err, secs)))
		}
	case monitor.NoticeStopped:
		c.Warn("%s monitor stopped.", label)
	}
}

func feedLabel(feedID string) string {
	switch feedID {
	case "image":
		return "Image Feed"
	case "text":
		return "Text Feed"
	}
	return feedID
}

var (
	_ monitor.Sink     = (*FeedRenderer)(nil)
	_ monitor.Notifier = (*FeedRenderer)(nil)
)
