// Command menuscan analyzes restaurant menu photos against your dietary
// preferences and remembers which dishes you liked.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/maxpollack/Menu/internal/logging"
	"github.com/maxpollack/Menu/internal/preferences"
)

const (
	Version = "0.1.0"
	appName = "menuscan"
)

type globals struct {
	server    string
	statePath string
	logLevel  string

	logger *slog.Logger
	store  preferences.Store
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	g := &globals{}

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Check a menu photo against your dietary preferences",
		Long: `menuscan uploads a photo of a restaurant menu to the analysis service and
prints every dish it can read, rated against your dietary preferences.

Preferences and dish feedback are kept locally and sent with every request,
so ratings improve as you like and dislike dishes.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return g.init()
		},
	}

	defaultServer := os.Getenv("MENUSCAN_SERVER")
	if defaultServer == "" {
		defaultServer = "http://localhost:3001"
	}

	cmd.PersistentFlags().StringVar(&g.server, "server", defaultServer, "Analysis service base URL")
	cmd.PersistentFlags().StringVar(&g.statePath, "state", "", "State file (default: user config dir)")
	cmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	cmd.AddCommand(
		analyzeCmd(g),
		prefsCmd(g),
		feedbackCmd(g),
		compressCmd(g),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", appName, Version)
			},
		},
	)

	return cmd
}

func (g *globals) init() error {
	g.logger = logging.New(os.Stderr, g.logLevel, "text")

	path := g.statePath
	if path == "" {
		var err error
		if path, err = preferences.DefaultPath(); err != nil {
			return err
		}
	}
	g.store = preferences.NewFileStore(path)
	return nil
}
