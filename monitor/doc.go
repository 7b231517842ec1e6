// Package monitor keeps long-lived server-sent event feeds connected in the
// background.
//
// A Monitor runs at most one worker per feed id. The worker opens the feed
// with Accept: text/event-stream, decodes each event's data as JSON when it
// can, and hands the result to a Sink. When the connection ends the worker
// waits a fixed delay chosen by the reason and connects again:
//
//	connection timeout   10s
//	other I/O error      10s (including non-2xx status)
//	unexpected fault     10s
//	clean end of stream   5s
//
// Workers only stop on StopAll, which cancels all of them together and
// waits a bounded time for each to exit.
//
//	m := monitor.New(monitor.WithSink(monitor.SinkFunc(func(ev monitor.Event) {
//		fmt.Println(ev.FeedID, ev.Data)
//	})))
//	m.Start("image", "https://image.pollinations.ai/feed")
//	defer m.StopAll()
package monitor
