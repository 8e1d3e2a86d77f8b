// Package cli wires the sightline commands together.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// configFlag is the persistent --config override shared by every command.
var configFlag string

var rootCmd = &cobra.Command{
	Use:   "sightline",
	Short: "Terminal dashboard and chat client for Pulse monitoring servers",
	Long: `sightline renders live infrastructure metrics as terminal charts and
streams AI assistant conversations from a Pulse-compatible server.

Start with the built-in demo backend if you don't have a server yet:

  sightline demo &
  sightline dash

Then point it at a real server:

  sightline login
  sightline dash`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "config file (default: ./.sightline.yaml, then ~/.config/sightline/config.yaml)")
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
