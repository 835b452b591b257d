package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/agentbay/agentbay-go/pkg/agentbay"
)

func newSessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Manage remote sessions",
	}

	cmd.AddCommand(newSessionCreateCmd())
	cmd.AddCommand(newSessionGetCmd())
	cmd.AddCommand(newSessionLsCmd())
	cmd.AddCommand(newSessionRmCmd())
	cmd.AddCommand(newSessionPauseCmd())
	cmd.AddCommand(newSessionResumeCmd())
	cmd.AddCommand(newSessionLabelsCmd())
	cmd.AddCommand(newSessionLinkCmd())

	return cmd
}

func newSessionCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a remote session",
		Args:  cobra.NoArgs,
		RunE:  runSessionCreate,
	}

	cmd.Flags().String("image", "", "session image id (e.g. linux_latest)")
	cmd.Flags().StringArray("label", nil, "session label (key=value, repeatable)")
	cmd.Flags().StringArray("mount", nil, "context mount (contextId:path, repeatable)")
	cmd.Flags().Bool("vpc", false, "create a VPC-isolated session")
	cmd.Flags().String("policy", "", "server-side MCP policy id")
	cmd.Flags().Bool("browser-replay", false, "record browser events for replay")

	return cmd
}

func runSessionCreate(cmd *cobra.Command, _ []string) error {
	labels, err := parseKeyValues(mustStringArray(cmd, "label"))
	if err != nil {
		return err
	}

	params := agentbay.NewCreateSessionParams()
	params.Labels = labels
	params.ImageID = mustString(cmd, "image")
	params.IsVpc = mustBool(cmd, "vpc")
	params.PolicyID = mustString(cmd, "policy")
	params.EnableBrowserReplay = mustBool(cmd, "browser-replay")

	for _, mount := range mustStringArray(cmd, "mount") {
		contextID, path, found := strings.Cut(mount, ":")
		if !found || contextID == "" || path == "" {
			return fmt.Errorf("invalid mount %q: expected contextId:path", mount)
		}

		sync, err := agentbay.NewContextSync(contextID, path, nil)
		if err != nil {
			return err
		}

		params.ContextSyncs = append(params.ContextSyncs, sync)
	}

	result, err := appClient.Create(cmd.Context(), params)
	if err != nil {
		return err
	}

	if !result.Success {
		return fmt.Errorf("creating session: %s", result.ErrorMessage)
	}

	if flagJSON {
		return printJSON(map[string]string{
			"sessionId":   result.Session.SessionID,
			"resourceUrl": result.Session.ResourceURL,
			"requestId":   result.RequestID,
		})
	}

	fmt.Println(result.Session.SessionID)

	return nil
}

func newSessionGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <session-id>",
		Short: "Show a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := appClient.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if !result.Success {
				return fmt.Errorf("fetching session: %s", result.ErrorMessage)
			}

			s := result.Session

			if flagJSON {
				return printJSON(map[string]any{
					"sessionId":   s.SessionID,
					"resourceUrl": s.ResourceURL,
					"vpc":         s.IsVpc,
				})
			}

			table := newTable()
			fmt.Fprintf(table, "ID\t%s\n", s.SessionID)
			fmt.Fprintf(table, "Resource URL\t%s\n", s.ResourceURL)
			fmt.Fprintf(table, "VPC\t%t\n", s.IsVpc)

			return table.Flush()
		},
	}
}

func newSessionLsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ls",
		Short: "List sessions by label",
		Args:  cobra.NoArgs,
		RunE:  runSessionLs,
	}

	cmd.Flags().StringArray("label", nil, "label filter (key=value, repeatable)")
	cmd.Flags().Int("page", 1, "page number (1-based)")
	cmd.Flags().Int32("limit", 10, "page size")

	return cmd
}

func runSessionLs(cmd *cobra.Command, _ []string) error {
	labels, err := parseKeyValues(mustStringArray(cmd, "label"))
	if err != nil {
		return err
	}

	page, _ := cmd.Flags().GetInt("page")
	limit, _ := cmd.Flags().GetInt32("limit")

	result, err := appClient.List(cmd.Context(), labels, page, limit)
	if err != nil {
		return err
	}

	if !result.Success {
		return fmt.Errorf("listing sessions: %s", result.ErrorMessage)
	}

	if flagJSON {
		return printJSON(map[string]any{
			"sessionIds": result.SessionIDs,
			"nextToken":  result.NextToken,
			"totalCount": result.TotalCount,
		})
	}

	for _, id := range result.SessionIDs {
		fmt.Println(id)
	}

	return nil
}

func newSessionRmCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rm <session-id>",
		Short: "Release a session",
		Args:  cobra.ExactArgs(1),
		RunE:  runSessionRm,
	}

	cmd.Flags().Bool("sync", false, "flush all context mounts before release")

	return cmd
}

func runSessionRm(cmd *cobra.Command, args []string) error {
	session, err := fetchSession(cmd, args[0])
	if err != nil {
		return err
	}

	result, err := appClient.Delete(cmd.Context(), session, mustBool(cmd, "sync"))
	if err != nil {
		return err
	}

	if !result.Success {
		return fmt.Errorf("releasing session: %s", result.ErrorMessage)
	}

	return nil
}

func newSessionPauseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pause <session-id>",
		Short: "Pause a session and wait for PAUSED",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStateChange(cmd, args[0], appClient.PauseAsync)
		},
	}

	addStateChangeFlags(cmd)

	return cmd
}

func newSessionResumeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resume <session-id>",
		Short: "Resume a session and wait for RUNNING",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStateChange(cmd, args[0], appClient.ResumeAsync)
		},
	}

	addStateChangeFlags(cmd)

	return cmd
}

func addStateChangeFlags(cmd *cobra.Command) {
	cmd.Flags().Duration("timeout", 0, "state poll timeout (default 10m)")
	cmd.Flags().Duration("interval", 0, "state poll interval (default 2s)")
}

type stateChangeFunc func(ctx context.Context, session *agentbay.Session, timeout, interval time.Duration) (*agentbay.PauseResult, error)

func runStateChange(cmd *cobra.Command, sessionID string, change stateChangeFunc) error {
	session, err := fetchSession(cmd, sessionID)
	if err != nil {
		return err
	}

	timeout, _ := cmd.Flags().GetDuration("timeout")
	interval, _ := cmd.Flags().GetDuration("interval")

	result, err := change(cmd.Context(), session, timeout, interval)
	if err != nil {
		return err
	}

	if !result.Success {
		return fmt.Errorf("%s (after %d ms)", result.ErrorMessage, result.ElapsedMs)
	}

	fmt.Printf("%s (%d ms)\n", result.State, result.ElapsedMs)

	return nil
}

func newSessionLabelsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "labels <session-id>",
		Short: "Show or replace session labels",
		Args:  cobra.ExactArgs(1),
		RunE:  runSessionLabels,
	}

	cmd.Flags().StringArray("set", nil, "replace labels (key=value, repeatable)")

	return cmd
}

func runSessionLabels(cmd *cobra.Command, args []string) error {
	session, err := fetchSession(cmd, args[0])
	if err != nil {
		return err
	}

	if pairs := mustStringArray(cmd, "set"); len(pairs) > 0 {
		labels, err := parseKeyValues(pairs)
		if err != nil {
			return err
		}

		result, err := session.SetLabels(cmd.Context(), labels)
		if err != nil {
			return err
		}

		if !result.Success {
			return fmt.Errorf("setting labels: %s", result.ErrorMessage)
		}

		return nil
	}

	result, err := session.GetLabels(cmd.Context())
	if err != nil {
		return err
	}

	if !result.Success {
		return fmt.Errorf("fetching labels: %s", result.ErrorMessage)
	}

	if flagJSON {
		return printJSON(result.Labels)
	}

	table := newTable()
	for k, v := range result.Labels {
		fmt.Fprintf(table, "%s\t%s\n", k, v)
	}

	return table.Flush()
}

func newSessionLinkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "link <session-id>",
		Short: "Request an access link",
		Args:  cobra.ExactArgs(1),
		RunE:  runSessionLink,
	}

	cmd.Flags().String("protocol", "", "link protocol (e.g. wss)")
	cmd.Flags().Int32("port", 0, "target port (30100-30199)")
	cmd.Flags().String("option", "", "provider-specific link option")

	return cmd
}

func runSessionLink(cmd *cobra.Command, args []string) error {
	session, err := fetchSession(cmd, args[0])
	if err != nil {
		return err
	}

	var port *int32
	if p, _ := cmd.Flags().GetInt32("port"); p != 0 {
		port = &p
	}

	result, err := session.GetLink(cmd.Context(),
		mustString(cmd, "protocol"), port, mustString(cmd, "option"))
	if err != nil {
		return err
	}

	if !result.Success {
		return fmt.Errorf("requesting link: %s", result.ErrorMessage)
	}

	fmt.Println(result.URL)

	return nil
}

// fetchSession hydrates a Session handle by id, failing on any error.
func fetchSession(cmd *cobra.Command, sessionID string) (*agentbay.Session, error) {
	result, err := appClient.Get(cmd.Context(), sessionID)
	if err != nil {
		return nil, err
	}

	if !result.Success {
		return nil, fmt.Errorf("fetching session %s: %s", sessionID, result.ErrorMessage)
	}

	return result.Session, nil
}

// Flag helpers: the flags are registered locally, so lookups cannot fail.
func mustString(cmd *cobra.Command, name string) string {
	v, _ := cmd.Flags().GetString(name)
	return v
}

func mustBool(cmd *cobra.Command, name string) bool {
	v, _ := cmd.Flags().GetBool(name)
	return v
}

func mustStringArray(cmd *cobra.Command, name string) []string {
	v, _ := cmd.Flags().GetStringArray(name)
	return v
}
