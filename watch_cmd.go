package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/agentbay/agentbay-go/pkg/agentbay"
)

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <session-id> <path>",
		Short: "Watch a session directory for changes",
		Long: `Poll a directory inside the session and print change events as they
happen. Runs until interrupted.`,
		Args: cobra.ExactArgs(2),
		RunE: runWatch,
	}

	cmd.Flags().Duration("interval", 500*time.Millisecond, "poll interval (min 100ms)")

	return cmd
}

func runWatch(cmd *cobra.Command, args []string) error {
	session, err := fetchSession(cmd, args[0])
	if err != nil {
		return err
	}

	interval, _ := cmd.Flags().GetDuration("interval")

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// WatchDirectory returns nil once the interrupt cancels ctx.
	return session.FileSystem.WatchDirectory(ctx, args[1], interval,
		func(events []agentbay.FileChangeEvent) {
			for _, event := range events {
				fmt.Println(event)
			}
		})
}
