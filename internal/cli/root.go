package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	cfg    *Config
	client *Client
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cfg = DefaultConfig()

	rootCmd := &cobra.Command{
		Use:   "guessd",
		Short: "Multiplayer number guessing game server",
		Long: `guessd runs the multiplayer "mystery number" game server.

Run without a subcommand (or with "serve") to start the TCP game listener,
the HTTP status API and the UDP chat relay. The remaining subcommands query
a running server's HTTP API.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			client = NewClient(cfg.APIURL)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), cfg, cmd.OutOrStdout())
		},
		SilenceUsage: true,
	}

	// Client flags
	rootCmd.PersistentFlags().StringVar(&cfg.APIURL, "api", cfg.APIURL, "HTTP API URL (env: GUESS_API)")
	rootCmd.PersistentFlags().StringVarP(&cfg.Output, "output", "o", cfg.Output, "Output format: text, json")

	addServeFlags(rootCmd)

	// Add subcommands
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newHealthCmd())
	rootCmd.AddCommand(newRoundCmd())
	rootCmd.AddCommand(newRankingCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newEventsCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
