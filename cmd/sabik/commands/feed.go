package commands

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zero-day-ai/sabik"
	"github.com/zero-day-ai/sabik/config"
)

var (
	feedRecent    int
	feedFromRedis bool
)

var feedCmd = &cobra.Command{
	Use:   "feed <" + strings.Join(config.FeedNames(), "|") + ">",
	Short: "Follow a live feed until interrupted",
	Long: `Connect to a server-sent events feed and print every event.

The connection is re-established after timeouts, errors and normal ends.
With --recent, events previously re-published to Redis are printed first
(requires --redis-url or redis_url). With --from-redis, no connection is
made; events re-published by another sabik process are printed instead.

Examples:
  sabik feed image
  sabik --redis-url redis://localhost:6379 feed text --recent 20
  sabik --redis-url redis://localhost:6379 feed image --from-redis`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: config.FeedNames(),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !slices.Contains(config.FeedNames(), args[0]) {
			return fmt.Errorf("unknown feed %q (want one of %s)", args[0], strings.Join(config.FeedNames(), ", "))
		}

		app, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer closeApp(app)

		if feedFromRedis {
			return watch(cmd.Context(), app, args[0], feedRecent)
		}
		return follow(cmd.Context(), app, args[0], feedRecent)
	},
}

func init() {
	feedCmd.Flags().IntVar(&feedRecent, "recent", 0, "print up to N events stored in Redis before following")
	feedCmd.Flags().BoolVar(&feedFromRedis, "from-redis", false, "follow events re-published to Redis instead of connecting")
}

// follow replays recent events, starts the feed and blocks until ctx ends.
func follow(ctx context.Context, app *sabik.App, name string, recent int) error {
	con := app.Console()

	if err := replay(ctx, app, name, recent); err != nil {
		return err
	}
	if _, err := app.StartFeed(name); err != nil {
		return err
	}
	con.Notice("Following the %s feed. Press Ctrl-C to stop.", name)

	<-ctx.Done()
	app.StopFeeds()
	return nil
}

// watch replays recent events and then prints what arrives on the feed's
// Redis channel until ctx ends.
func watch(ctx context.Context, app *sabik.App, name string, recent int) error {
	con := app.Console()

	if err := replay(ctx, app, name, recent); err != nil {
		return err
	}
	msgs, err := app.Subscribe(ctx, name)
	if err != nil {
		return err
	}
	con.Notice("Watching the %s feed through Redis. Press Ctrl-C to stop.", name)

	renderer := con.FeedRenderer()
	for msg := range msgs {
		renderer.Deliver(msg.Event())
	}
	return nil
}

func replay(ctx context.Context, app *sabik.App, name string, n int) error {
	if n <= 0 {
		return nil
	}
	msgs, err := app.Recent(ctx, name, n)
	if err != nil {
		return err
	}
	renderer := app.Console().FeedRenderer()
	// Oldest first, like a live stream.
	for i := len(msgs) - 1; i >= 0; i-- {
		renderer.Deliver(msgs[i].Event())
	}
	return nil
}
