package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tonimelisma/sharepoint-go/internal/export"
	"github.com/tonimelisma/sharepoint-go/internal/graph"
	"github.com/tonimelisma/sharepoint-go/internal/locator"
)

func newVerifyCmd(cc *CLIContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify [name]",
		Short: "Verify a downloaded file against the library copy",
		Long: `Compare the file in the download directory with the item of the same name in
site.file_folder, the drive root unless set. Size is checked first, then the
QuickXorHash.

Exits non-zero when the local copy is missing or differs.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := cc.Cfg.Site.FileName
			if len(args) == 1 {
				name = args[0]
			}

			return runVerify(cmd, cc, name)
		},
	}

	cmd.Flags().String("file-folder", "", "folder holding the remote item, / for the drive root (overrides site.file_folder)")
	cmd.Flags().String("download-dir", "", "directory holding the local copy (overrides output.download_dir)")

	return cmd
}

func runVerify(cmd *cobra.Command, cc *CLIContext, name string) error {
	ctx := cmd.Context()

	sess, err := NewSession(ctx, cc.Cfg, cc.Logger)
	if err != nil {
		return err
	}

	driveRef, _, _, err := sess.resolveDrive(ctx)
	if err != nil {
		return err
	}

	items, err := sess.Locator.ListChildren(ctx, driveRef, cc.Cfg.Site.FileFolder)
	if err != nil {
		return err
	}

	item, err := locator.FindByName(items, name)
	if err != nil {
		return fmt.Errorf("in folder %q: %w", folderLabel(cc.Cfg.Site.FileFolder), err)
	}

	w := export.NewWriter(cc.Cfg.Output.JSONDir, cc.Cfg.Output.DownloadDir, cc.Logger)

	res, err := w.Verify(item)
	if err != nil {
		return err
	}

	if cc.Flags.JSON {
		if err := printJSON(cc.Out, res); err != nil {
			return err
		}
	} else {
		printTable(cc.Out, []string{"NAME", "STATUS", "REMOTE", "LOCAL"}, [][]string{
			{res.Name, res.Status, formatSize(res.RemoteSize), formatSize(res.LocalSize)},
		})
	}

	if !res.OK() {
		return fmt.Errorf("%s: %s: %w", res.Path, res.Status, graph.ErrHashMismatch)
	}

	return nil
}
