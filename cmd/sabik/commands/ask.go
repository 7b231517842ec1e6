package commands

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/zero-day-ai/sabik/agent"
)

var askCmd = &cobra.Command{
	Use:   "ask <request...>",
	Short: "Run a single request and print the answer",
	Long: `Run one conversation turn and exit.

The exit status is non-zero when the model could not be reached.

Examples:
  sabik ask "Generate an image of a futuristic city at sunset."
  sabik ask What is depicted in the image at ./my_photo.jpg?`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer closeApp(app)

		res := app.Ask(cmd.Context(), strings.Join(args, " "))
		if res.Status == agent.StatusAborted {
			return res.Err
		}
		return nil
	},
}
