package commands

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/zero-day-ai/sabik/health"
)

var errUnhealthy = errors.New("one or more checks failed")

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check endpoints, output directory and optional services",
	Long: `Probe everything Sabik depends on and print a table.

Checks the text and image endpoints, that the output directory is
writable, that an audio player is available for speech playback and,
when configured, that Redis answers. Exits non-zero if any check is
unhealthy; degraded checks only warn.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer closeApp(app)

		results := app.Doctor(cmd.Context())
		app.Console().Health(results)
		if health.Overall(results).IsUnhealthy() {
			return errUnhealthy
		}
		return nil
	},
}

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the tools the model can call",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer closeApp(app)

		app.Console().Tools(app.Registry().Specs())
		return nil
	},
}
