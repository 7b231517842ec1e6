// Package sabik assembles the Sabik assistant: a terminal conversation in
// which a language model answers directly or calls tools (image
// generation, image analysis, transcription, speech, page fetch,
// arithmetic), plus a background monitor that follows server-sent event
// feeds and renders each event as it arrives.
//
// # Getting Started
//
// An App is built from configuration (YAML file, environment, defaults)
// and owns every long-lived component:
//
//	app, err := sabik.New(ctx, sabik.WithConfigPath("sabik.yaml"))
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer app.Close(context.Background())
//
//	app.Welcome()
//	app.Ask(ctx, "What is the result of (350 / 7) * 3 + 15?")
//
// # Feeds
//
// StartFeed follows the "image" or "text" feed in a background goroutine
// that reconnects with a fixed delay after every disconnect. StopFeeds
// cancels all of them and waits a bounded time for each to exit. When
// redis_url is set, every event is also published to the channel
// sabik:feed:<name> and kept in a capped recent list (see Recent).
//
// # Errors
//
// Wiring failures are returned as *Error with a Kind; tool and model
// failures surface as *toolerr.Error inside turn results.
//
// The cmd/sabik binary is a thin cobra front end over App.
package sabik
