package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/sightlinehq/sightline/internal/errors"
)

// Command-specific flags
var (
	dashRangeFlag    string
	dashRefreshFlag  string
	demoAddrFlag     string
	demoTokenFlag    string
	demoIntervalFlag string
	loginURLFlag     string
	loginTokenFlag   string
	loginNoVerify    bool
)

// dashCmd starts the metrics dashboard TUI.
var dashCmd = &cobra.Command{
	Use:   "dash",
	Short: "Live metrics dashboard",
	Long: `Open the full-screen metrics dashboard.

Shows one card per monitored resource with sparklines, an expandable
detail chart with hover inspection, and a week-at-a-glance density view.

Keyboard shortcuts:
  q / Ctrl+C  Quit
  r           Force refresh
  m           Cycle metric (cpu/memory/disk/net)
  1-9         Switch time range
  up/down     Select resource
  Enter       Expand selected resource
  d           Density view
  Esc         Go back

Examples:
  sightline dash
  sightline dash --range 24h
  sightline dash --refresh 10s`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return dashCommand(dashRangeFlag, dashRefreshFlag)
	},
}

// chatCmd starts the AI assistant chat TUI.
var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the server's AI assistant",
	Long: `Open a streaming chat session with the server's AI assistant.

Responses stream in as they are generated. When the assistant wants to
run a command on a monitored host, you are asked to approve or skip it
before anything executes.

Examples:
  sightline chat`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return chatCommand()
	},
}

// demoCmd runs the embedded demo backend.
var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run a local demo server",
	Long: `Serve a self-contained demo backend on localhost.

Samples real metrics from this machine, backfills a week of synthetic
history, and scripts the assistant stream so dash and chat can be tried
without a real Pulse server.

Examples:
  sightline demo
  sightline demo --addr :9000
  sightline demo --token secret`,
	RunE: func(cmd *cobra.Command, args []string) error {
		interval, err := time.ParseDuration(demoIntervalFlag)
		if err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				"Invalid sample interval: "+demoIntervalFlag,
				"Use a valid duration like 2s, 5s, or 1m.")
		}
		return demoCommand(demoAddrFlag, demoTokenFlag, interval)
	},
}

// loginCmd saves server credentials to the global config.
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Save server URL and API token",
	Long: `Store the server URL and API token in the global config file.

Prompts interactively when run in a terminal; values can also be passed
as flags for scripted use. The token is verified against the server
before saving unless --no-verify is set.

Examples:
  sightline login
  sightline login --url https://pulse.example.com --token "$PULSE_TOKEN"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return loginCommand(loginURLFlag, loginTokenFlag, loginNoVerify)
	},
}

// completionCmd generates shell completion scripts.
var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion script",
	Long: `Generate shell completion scripts for sightline.

Examples:
  # Bash
  sightline completion bash > /etc/bash_completion.d/sightline

  # Zsh
  sightline completion zsh > "${fpath[1]}/_sightline"

  # Fish
  sightline completion fish > ~/.config/fish/completions/sightline.fish`,
	ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		switch args[0] {
		case "bash":
			return rootCmd.GenBashCompletion(cmd.OutOrStdout())
		case "zsh":
			return rootCmd.GenZshCompletion(cmd.OutOrStdout())
		case "fish":
			return rootCmd.GenFishCompletion(cmd.OutOrStdout(), true)
		default:
			return rootCmd.GenPowerShellCompletion(cmd.OutOrStdout())
		}
	},
}

func init() {
	dashCmd.Flags().StringVar(&dashRangeFlag, "range", "", "initial time range (e.g., 5m, 1h, 7d)")
	dashCmd.Flags().StringVar(&dashRefreshFlag, "refresh", "", "refresh interval (e.g., 10s, 1m)")

	demoCmd.Flags().StringVar(&demoAddrFlag, "addr", ":7655", "listen address")
	demoCmd.Flags().StringVar(&demoTokenFlag, "token", "", "require this API token on every request")
	demoCmd.Flags().StringVar(&demoIntervalFlag, "interval", "5s", "live sample interval")

	loginCmd.Flags().StringVar(&loginURLFlag, "url", "", "server URL")
	loginCmd.Flags().StringVar(&loginTokenFlag, "token", "", "API token (empty for anonymous access)")
	loginCmd.Flags().BoolVar(&loginNoVerify, "no-verify", false, "skip the connection check before saving")

	rootCmd.AddCommand(dashCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(demoCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(completionCmd)
}
