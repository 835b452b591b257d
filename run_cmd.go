package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agentbay/agentbay-go/pkg/agentbay"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <session-id> <command-or-code>",
		Short: "Run a shell command or code snippet in a session",
		Args:  cobra.ExactArgs(2),
		RunE:  runRun,
	}

	cmd.Flags().String("language", "", "run as code in this language (python or javascript)")
	cmd.Flags().Int("timeout", 0, "timeout in ms for shell, seconds for code")

	return cmd
}

func runRun(cmd *cobra.Command, args []string) error {
	session, err := fetchSession(cmd, args[0])
	if err != nil {
		return err
	}

	timeout, _ := cmd.Flags().GetInt("timeout")
	language := mustString(cmd, "language")

	var result *agentbay.ToolResult

	if language != "" {
		result, err = session.Code.RunCodeWithTimeout(cmd.Context(), args[1], language, timeout)
	} else {
		result, err = session.Command.ExecuteCommandWithTimeout(cmd.Context(), args[1], timeout)
	}

	if err != nil {
		return err
	}

	if !result.Success {
		return fmt.Errorf("execution failed: %s", result.ErrorMessage)
	}

	fmt.Print(result.Data)

	if !strings.HasSuffix(result.Data, "\n") {
		fmt.Println()
	}

	return nil
}
