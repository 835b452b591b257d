package main

import (
	"fmt"
	"path"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/agentbay/agentbay-go/pkg/agentbay"
)

// transferConcurrency bounds parallel file transfers per command.
const transferConcurrency = 4

func newPutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "put <session-id> <local-file>...",
		Short: "Upload files into a session",
		Args:  cobra.MinimumNArgs(2),
		RunE:  runPut,
	}

	cmd.Flags().String("remote-dir", agentbay.FileTransferPath, "destination directory in the session")
	cmd.Flags().Bool("no-wait", false, "do not wait for the follow-up sync")

	return cmd
}

func runPut(cmd *cobra.Command, args []string) error {
	session, err := fetchSession(cmd, args[0])
	if err != nil {
		return err
	}

	remoteDir := mustString(cmd, "remote-dir")
	noWait := mustBool(cmd, "no-wait")

	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(transferConcurrency)

	for _, localPath := range args[1:] {
		localPath := localPath

		g.Go(func() error {
			remotePath := path.Join(remoteDir, filepath.Base(localPath))

			result, err := session.FileTransfer.UploadFile(ctx, localPath, remotePath,
				&agentbay.UploadOptions{NoWait: noWait})
			if err != nil {
				return err
			}

			if !result.Success {
				return fmt.Errorf("uploading %s: %s", localPath, result.ErrorMessage)
			}

			appLogger.Info("uploaded",
				"local", localPath,
				"remote", remotePath,
				"bytes", result.BytesSent,
			)

			return nil
		})
	}

	return g.Wait()
}

func newGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <session-id> <remote-file>...",
		Short: "Download files from a session",
		Args:  cobra.MinimumNArgs(2),
		RunE:  runGet,
	}

	cmd.Flags().String("local-dir", ".", "destination directory on this machine")
	cmd.Flags().Bool("overwrite", false, "replace existing local files")
	cmd.Flags().Bool("no-wait", false, "do not wait for the pre-download sync")

	return cmd
}

func runGet(cmd *cobra.Command, args []string) error {
	session, err := fetchSession(cmd, args[0])
	if err != nil {
		return err
	}

	localDir := mustString(cmd, "local-dir")
	overwrite := mustBool(cmd, "overwrite")
	noWait := mustBool(cmd, "no-wait")

	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(transferConcurrency)

	for _, remotePath := range args[1:] {
		remotePath := remotePath

		g.Go(func() error {
			localPath := filepath.Join(localDir, path.Base(remotePath))

			result, err := session.FileTransfer.DownloadFile(ctx, remotePath, localPath,
				&agentbay.DownloadOptions{Overwrite: overwrite, NoWait: noWait})
			if err != nil {
				return err
			}

			if !result.Success {
				return fmt.Errorf("downloading %s: %s", remotePath, result.ErrorMessage)
			}

			appLogger.Info("downloaded",
				"remote", remotePath,
				"local", localPath,
				"bytes", result.BytesReceived,
			)

			return nil
		})
	}

	return g.Wait()
}
