// Package main provides the Sabik command line assistant.
//
// Usage:
//
//	sabik [flags] [command]
//
// Commands:
//
//	chat    - interactive conversation (default)
//	ask     - run a single request
//	feed    - follow a live feed in the foreground
//	doctor  - check endpoints, output directory and optional services
//	tools   - list the tools the model can call
//
// Configuration:
//
//	Settings come from built-in defaults, an optional YAML file (--config),
//	OPENAI_* and SABIK_* environment variables and flags, in that order.
package main

import (
	"fmt"
	"os"

	"github.com/zero-day-ai/sabik/cmd/sabik/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
