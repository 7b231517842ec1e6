package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zero-day-ai/sabik"
	"github.com/zero-day-ai/sabik/config"
	"github.com/zero-day-ai/sabik/monitor"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive conversation (default)",
	Long: `Start an interactive session.

Type a request and press enter. The model answers directly or calls tools.

Commands inside the session:
  /feed start image|text   follow a live feed in the background
  /feed stop               stop all feeds
  /feed                    list running feeds
  /reset                   forget the conversation
  /usage                   show token usage
  /tools                   list tools
  /help                    show help
  quit, exit               leave (Ctrl-D and Ctrl-C work too)`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func runChat(cmd *cobra.Command, args []string) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer closeApp(app)

	return repl(cmd.Context(), app, cmd.InOrStdin(), cmd.OutOrStdout())
}

// repl reads lines from in until quit, EOF or ctx is cancelled.
func repl(ctx context.Context, app *sabik.App, in io.Reader, out io.Writer) error {
	con := app.Console()
	app.Welcome()

	lines := make(chan string)
	done := make(chan struct{})
	defer close(done)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-done:
				return
			}
		}
	}()

	for {
		fmt.Fprint(out, con.Prompt())
		select {
		case <-ctx.Done():
			fmt.Fprintln(out)
			con.Notice("Interrupted. Exiting.")
			return nil
		case line, ok := <-lines:
			if !ok {
				fmt.Fprintln(out)
				con.Notice("Exiting.")
				return nil
			}
			if !handleLine(ctx, app, line) {
				return nil
			}
		}
	}
}

// handleLine processes one input line and reports whether the session
// continues.
func handleLine(ctx context.Context, app *sabik.App, line string) bool {
	con := app.Console()
	line = strings.TrimSpace(line)

	switch {
	case line == "":
		return true
	case strings.EqualFold(line, "quit"), strings.EqualFold(line, "exit"):
		con.Notice("Goodbye!")
		return false
	case strings.HasPrefix(line, "/"):
		runSlash(app, strings.Fields(line))
		return true
	}

	// A turn is never cut short by an interrupt; the loop notices the
	// cancellation at the next prompt.
	app.Ask(context.WithoutCancel(ctx), line)
	con.Rule()
	return true
}

func runSlash(app *sabik.App, fields []string) {
	con := app.Console()

	switch fields[0] {
	case "/feed":
		runFeedSlash(app, fields[1:])
	case "/reset":
		app.Reset()
		con.Notice("Conversation cleared.")
	case "/usage":
		con.Usage(app.Usage())
	case "/tools":
		con.Tools(app.Registry().Specs())
	case "/help":
		con.Help()
	default:
		con.Warn("Unknown command %s. Type /help for the list of commands.", fields[0])
	}
}

func runFeedSlash(app *sabik.App, args []string) {
	con := app.Console()

	if len(args) == 0 {
		running := app.Monitor().Running()
		if len(running) == 0 {
			con.Notice("No feeds running.")
			return
		}
		con.Notice("Running feeds: %s", strings.Join(running, ", "))
		return
	}

	switch args[0] {
	case "start":
		if len(args) != 2 {
			con.Warn("Usage: /feed start %s", strings.Join(config.FeedNames(), "|"))
			return
		}
		status, err := app.StartFeed(args[1])
		if err != nil {
			con.Error(err)
			return
		}
		if status == monitor.AlreadyRunning {
			con.Warn("%s feed is already running.", args[1])
		}
	case "stop":
		app.StopFeeds()
		con.Notice("All feeds stopped.")
	default:
		con.Warn("Usage: /feed [start %s|stop]", strings.Join(config.FeedNames(), "|"))
	}
}
