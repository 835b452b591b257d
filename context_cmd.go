package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentbay/agentbay-go/pkg/agentbay"
)

func newContextCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "context",
		Short: "Manage persistent context volumes",
	}

	cmd.AddCommand(newContextLsCmd())
	cmd.AddCommand(newContextGetCmd())
	cmd.AddCommand(newContextRmCmd())
	cmd.AddCommand(newContextRenameCmd())
	cmd.AddCommand(newContextFilesCmd())

	return cmd
}

func newContextLsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ls",
		Short: "List contexts",
		Args:  cobra.NoArgs,
		RunE:  runContextLs,
	}

	cmd.Flags().Int32("limit", 10, "page size")
	cmd.Flags().String("token", "", "paging token from a previous listing")

	return cmd
}

func runContextLs(cmd *cobra.Command, _ []string) error {
	limit, _ := cmd.Flags().GetInt32("limit")

	result, err := appClient.ContextService.List(cmd.Context(), &agentbay.ContextListParams{
		MaxResults: limit,
		NextToken:  mustString(cmd, "token"),
	})
	if err != nil {
		return err
	}

	if !result.Success {
		return fmt.Errorf("listing contexts: %s", result.ErrorMessage)
	}

	if flagJSON {
		return printJSON(result.Contexts)
	}

	table := newTable()
	fmt.Fprintln(table, "ID\tNAME\tCREATED\tLAST USED")

	for _, c := range result.Contexts {
		fmt.Fprintf(table, "%s\t%s\t%s\t%s\n", c.ID, c.Name, c.CreatedAt, c.LastUsedAt)
	}

	if err := table.Flush(); err != nil {
		return err
	}

	if result.NextToken != "" {
		fmt.Printf("next token: %s\n", result.NextToken)
	}

	return nil
}

func newContextGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <name>",
		Short: "Fetch a context by name",
		Args:  cobra.ExactArgs(1),
		RunE:  runContextGet,
	}

	cmd.Flags().Bool("create", false, "create the context if it does not exist")

	return cmd
}

func runContextGet(cmd *cobra.Command, args []string) error {
	result, err := appClient.ContextService.Get(cmd.Context(), args[0], mustBool(cmd, "create"))
	if err != nil {
		return err
	}

	if !result.Success {
		return fmt.Errorf("fetching context: %s", result.ErrorMessage)
	}

	if flagJSON {
		return printJSON(result.Context)
	}

	fmt.Println(result.ContextID)

	return nil
}

func newContextRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <context-id>",
		Short: "Delete a context and its data",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := appClient.ContextService.Delete(cmd.Context(), &agentbay.Context{ID: args[0]})
			if err != nil {
				return err
			}

			if !result.Success {
				return fmt.Errorf("deleting context: %s", result.ErrorMessage)
			}

			return nil
		},
	}
}

func newContextRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <context-id> <new-name>",
		Short: "Rename a context",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := appClient.ContextService.Update(cmd.Context(),
				&agentbay.Context{ID: args[0], Name: args[1]})
			if err != nil {
				return err
			}

			if !result.Success {
				return fmt.Errorf("renaming context: %s", result.ErrorMessage)
			}

			return nil
		},
	}
}

func newContextFilesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "files <context-id>",
		Short: "List files stored in a context",
		Args:  cobra.ExactArgs(1),
		RunE:  runContextFiles,
	}

	cmd.Flags().String("path", "/", "parent folder path")
	cmd.Flags().Int32("page", 1, "page number (1-based)")
	cmd.Flags().Int32("size", 50, "page size")

	return cmd
}

func runContextFiles(cmd *cobra.Command, args []string) error {
	page, _ := cmd.Flags().GetInt32("page")
	size, _ := cmd.Flags().GetInt32("size")

	result, err := appClient.ContextService.ListFiles(cmd.Context(),
		args[0], mustString(cmd, "path"), page, size)
	if err != nil {
		return err
	}

	if !result.Success {
		return fmt.Errorf("listing context files: %s", result.ErrorMessage)
	}

	if flagJSON {
		return printJSON(result.Entries)
	}

	table := newTable()
	fmt.Fprintln(table, "PATH\tTYPE\tSIZE\tMODIFIED")

	for _, e := range result.Entries {
		fmt.Fprintf(table, "%s\t%s\t%d\t%s\n", e.FilePath, e.FileType, e.Size, e.GmtModified)
	}

	return table.Flush()
}
