package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/agentbay/agentbay-go/pkg/agentbay"
)

// version is set at build time via ldflags.
var version = "dev"

// Global persistent flags, bound in newRootCmd().
var (
	flagConfigPath string
	flagAPIKey     string
	flagEndpoint   string
	flagJSON       bool
	flagVerbose    bool
	flagQuiet      bool
)

// appClient and appLogger are initialized by PersistentPreRunE and
// available to all subcommands.
var (
	appClient *agentbay.Client
	appLogger *slog.Logger
)

// newRootCmd builds and returns the fully-assembled root command with all
// subcommands registered. Called once from main().
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "agentbay",
		Short:   "AgentBay cloud session CLI",
		Long:    "Manage AgentBay remote sessions, context volumes, and file transfers.",
		Version: version,
		// Silence Cobra's default error/usage printing; we handle it ourselves.
		SilenceErrors: true,
		SilenceUsage:  true,
		// PersistentPreRunE resolves configuration and constructs the API
		// client before every command.
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return initApp()
		},
	}

	cmd.PersistentFlags().StringVar(&flagConfigPath, "config", "", "config file path (TOML)")
	cmd.PersistentFlags().StringVar(&flagAPIKey, "api-key", "", "API key (overrides AGENTBAY_API_KEY)")
	cmd.PersistentFlags().StringVar(&flagEndpoint, "endpoint", "", "API endpoint host")
	cmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "output in JSON format")
	cmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	cmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "suppress informational output")

	// Register subcommands.
	cmd.AddCommand(newSessionCmd())
	cmd.AddCommand(newContextCmd())
	cmd.AddCommand(newPutCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newWatchCmd())
	cmd.AddCommand(newExtCmd())
	cmd.AddCommand(newRunCmd())

	return cmd
}

// initApp builds the logger and the API client from the flag, env, .env,
// and config-file layers.
func initApp() error {
	appLogger = buildLogger()

	client, err := agentbay.NewClient(&agentbay.Options{
		APIKey:     flagAPIKey,
		Endpoint:   flagEndpoint,
		ConfigFile: flagConfigPath,
		Logger:     appLogger,
	})
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	appClient = client

	return nil
}

// buildLogger creates an slog.Logger: text handler on a TTY, JSON handler
// otherwise. --verbose and --quiet override the level.
func buildLogger() *slog.Logger {
	level := slog.LevelInfo

	if flagVerbose {
		level = slog.LevelDebug
	}

	if flagQuiet {
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	if isatty.IsTerminal(os.Stderr.Fd()) {
		return slog.New(slog.NewTextHandler(os.Stderr, opts))
	}

	return slog.New(slog.NewJSONHandler(os.Stderr, opts))
}

// exitOnError prints a user-friendly error message to stderr and exits.
func exitOnError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
