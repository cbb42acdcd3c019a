package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/tonimelisma/sharepoint-go/internal/config"
	"github.com/tonimelisma/sharepoint-go/internal/export"
	"github.com/tonimelisma/sharepoint-go/internal/graph"
	"github.com/tonimelisma/sharepoint-go/internal/locator"
)

func newLsCmd(cc *CLIContext) *cobra.Command {
	return &cobra.Command{
		Use:   "ls [folder]",
		Short: "List a folder of the document library",
		Long: `List the children of a folder. Without an argument the configured folder is
listed; "/" lists the library root. Only the first page is shown.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			folder := cc.Cfg.Site.Folder
			if len(args) == 1 {
				folder = args[0]
			}

			return runLs(cmd, cc, folder)
		},
	}
}

func runLs(cmd *cobra.Command, cc *CLIContext, folder string) error {
	ctx := cmd.Context()

	sess, err := NewSession(ctx, cc.Cfg, cc.Logger)
	if err != nil {
		return err
	}

	driveRef, _, _, err := sess.resolveDrive(ctx)
	if err != nil {
		return err
	}

	listing, err := sess.Locator.Listing(ctx, driveRef, folder)
	if err != nil {
		return err
	}

	if cc.Flags.JSON {
		return printJSON(cc.Out, export.NewListingRecord(folder, listing))
	}

	printItemTable(cc.Out, listing.Items)

	if listing.Truncated() {
		cc.Statusf("(more than %d entries; only the first page is shown)\n", len(listing.Items))
	}

	return nil
}

func printItemTable(w io.Writer, items []graph.Item) {
	if len(items) == 0 {
		fmt.Fprintln(w, "(empty)")
		return
	}

	rows := make([][]string, 0, len(items))
	for i := range items {
		it := &items[i]

		size := formatSize(it.Size)
		if it.IsFolder {
			size = "-"
		}

		rows = append(rows, []string{it.Kind(), size, formatTime(it.ModifiedAt), it.Name})
	}

	printTable(w, []string{"TYPE", "SIZE", "MODIFIED", "NAME"}, rows)
}

func newGetCmd(cc *CLIContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get [name]",
		Short: "Download one file from the library",
		Long: `Find a file by exact name in site.file_folder (the drive root unless set) and
download it into the download directory. The name defaults to site.file_name.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := cc.Cfg.Site.FileName
			if len(args) == 1 {
				name = args[0]
			}

			return runGet(cmd, cc, name)
		},
	}

	cmd.Flags().String("file-folder", "", "folder to search, / for the drive root (overrides site.file_folder)")
	cmd.Flags().String("download-dir", "", "directory for downloads (overrides output.download_dir)")

	return cmd
}

func runGet(cmd *cobra.Command, cc *CLIContext, name string) error {
	ctx := cmd.Context()

	if err := config.RequireSite(cc.Cfg); err != nil {
		return err
	}

	sess, err := NewSession(ctx, cc.Cfg, cc.Logger)
	if err != nil {
		return err
	}

	target := locator.Target{
		Hostname: cc.Cfg.Site.Hostname,
		SitePath: cc.Cfg.Site.SitePath,
		Folder:   cc.Cfg.Site.FileFolder,
		Name:     name,
	}

	var item *graph.Item

	w := export.NewWriter(cc.Cfg.Output.JSONDir, cc.Cfg.Output.DownloadDir, cc.Logger)

	res, err := w.SaveDownload(name, func(out io.Writer) (int64, error) {
		var n int64
		var ferr error

		item, n, ferr = sess.Locator.Fetch(ctx, target, out)

		return n, ferr
	})
	if err != nil {
		return err
	}

	if cc.Flags.JSON {
		return printJSON(cc.Out, export.FileRecord{Item: item, Download: res})
	}

	cc.Statusf("Downloaded %s (%s) to %s\n", name, formatSize(res.Bytes), res.Path)

	return nil
}

func newStatCmd(cc *CLIContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stat <path>",
		Short: "Show metadata for one item by drive-relative path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStat(cmd, cc, args[0])
		},
	}
}

func runStat(cmd *cobra.Command, cc *CLIContext, path string) error {
	ctx := cmd.Context()

	sess, err := NewSession(ctx, cc.Cfg, cc.Logger)
	if err != nil {
		return err
	}

	driveRef, _, _, err := sess.resolveDrive(ctx)
	if err != nil {
		return err
	}

	item, err := sess.Locator.Stat(ctx, driveRef, path)
	if err != nil {
		return err
	}

	if cc.Flags.JSON {
		return printJSON(cc.Out, item)
	}

	printKV(cc.Out, [][2]string{
		{"Name", item.Name},
		{"ID", item.ID},
		{"Type", item.Kind()},
		{"Size", formatSize(item.Size) + " (" + strconv.FormatInt(item.Size, 10) + " bytes)"},
		{"Modified", formatTime(item.ModifiedAt)},
		{"MIME type", item.MimeType},
		{"QuickXorHash", item.QuickXorHash},
		{"Web URL", item.WebURL},
	})

	return nil
}
