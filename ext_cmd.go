package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentbay/agentbay-go/pkg/agentbay"
)

func newExtCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ext",
		Short: "Manage stored browser extensions",
	}

	cmd.PersistentFlags().String("context", "", "extension context name (default: auto-created)")

	cmd.AddCommand(newExtCreateCmd())
	cmd.AddCommand(newExtLsCmd())
	cmd.AddCommand(newExtRmCmd())

	return cmd
}

func extService(cmd *cobra.Command) *agentbay.ExtensionService {
	name, _ := cmd.Flags().GetString("context")
	return agentbay.NewExtensionService(appClient, name)
}

func newExtCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create <package.zip>",
		Short: "Upload an extension package",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ext, err := extService(cmd).Create(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			fmt.Println(ext.ID)

			return nil
		},
	}
}

func newExtLsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ls",
		Short: "List stored extensions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			extensions, err := extService(cmd).List(cmd.Context())
			if err != nil {
				return err
			}

			if flagJSON {
				return printJSON(extensions)
			}

			table := newTable()
			fmt.Fprintln(table, "ID\tCREATED")

			for _, ext := range extensions {
				fmt.Fprintf(table, "%s\t%s\n", ext.ID, ext.CreatedAt)
			}

			return table.Flush()
		},
	}
}

func newExtRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <extension-id>",
		Short: "Delete a stored extension",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return extService(cmd).Delete(cmd.Context(), args[0])
		},
	}
}
