package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"time"

	"github.com/spf13/cobra"

	"github.com/tonimelisma/sharepoint-go/internal/export"
	"github.com/tonimelisma/sharepoint-go/internal/graph"
	"github.com/tonimelisma/sharepoint-go/internal/locator"
	"github.com/tonimelisma/sharepoint-go/internal/remoteref"
)

// exportOptions are the export-only switches that have no config key.
type exportOptions struct {
	skipUsers bool
}

func newExportCmd(cc *CLIContext) *cobra.Command {
	var opts exportOptions

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Run the full export (the default when no subcommand is given)",
		Long: `Authenticate, export the user directory, resolve the configured site and
its document library, export the drive root and folder listings, then download
the configured file. The file is looked up in site.file_folder, the drive root
unless set. A missing folder or file is reported and skipped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runExport(cmd, cc, opts)
		},
	}

	addExportFlags(cmd, &opts)

	return cmd
}

// addExportFlags registers the export flags. Flags that mirror config keys
// are read back by name in loadConfig.
func addExportFlags(cmd *cobra.Command, opts *exportOptions) {
	f := cmd.Flags()
	f.String("folder", "", "folder whose listing is exported (overrides site.folder)")
	f.String("file-folder", "", "folder holding the file, / for the drive root (overrides site.file_folder)")
	f.String("file", "", "file name to download (overrides site.file_name)")
	f.String("json-dir", "", "directory for JSON exports (overrides output.json_dir)")
	f.String("download-dir", "", "directory for downloads (overrides output.download_dir)")
	f.String("source", "", "user lister: rest or sdk (overrides users.source)")
	f.BoolVar(&opts.skipUsers, "no-users", false, "skip the user export")
}

// exportSummary is the --json output of export.
type exportSummary struct {
	TokenExpiry time.Time              `json:"token_expiry"`
	Files       []string               `json:"files"`
	Download    *export.DownloadResult `json:"download,omitempty"`
	Missing     []string               `json:"missing,omitempty"`
	Truncated   []string               `json:"truncated,omitempty"`
}

func runExport(cmd *cobra.Command, cc *CLIContext, opts exportOptions) error {
	ctx := cmd.Context()
	cfg := cc.Cfg
	logger := cc.Logger

	sess, err := NewSession(ctx, cfg, logger)
	if err != nil {
		return err
	}

	tok, err := sess.Creds.Authenticate(ctx)
	if err != nil {
		return fmt.Errorf("authenticating: %w", err)
	}

	summary := &exportSummary{TokenExpiry: tok.Expiry}
	w := export.NewWriter(cfg.Output.JSONDir, cfg.Output.DownloadDir, logger)

	if !opts.skipUsers {
		if err := exportUsers(ctx, cc, sess, w, summary); err != nil {
			return err
		}
	}

	driveRef, site, drive, err := sess.resolveDrive(ctx)
	if err != nil {
		return err
	}

	if err := cc.writeJSON(w, export.SiteFile, export.SiteRecord{Site: site, Drive: drive}, summary); err != nil {
		return err
	}

	root, err := sess.Locator.Listing(ctx, driveRef, "")
	if err != nil {
		return err
	}

	if err := cc.writeListing(w, export.RootListingFile, "", root, summary); err != nil {
		return err
	}

	folder := cfg.Site.Folder

	child, err := optionalListing(ctx, sess.Locator, driveRef, folder)
	if err != nil {
		return err
	}

	if child == nil {
		cc.reportMissing(summary, folder, fmt.Sprintf("folder %q not found", folder))
	} else if err := cc.writeListing(w, export.FolderListingFile, folder, child, summary); err != nil {
		return err
	}

	fetched := map[string]*graph.Listing{"": root, folder: child}

	if err := exportFile(ctx, cc, sess, w, driveRef, fetched, summary); err != nil {
		return err
	}

	return cc.finish(summary)
}

// exportFile finds site.file_name in site.file_folder, downloads it and
// writes file_info.json from a by-path lookup of the same item. Listings
// already fetched are reused; a nil entry marks a folder known to be
// missing.
func exportFile(
	ctx context.Context, cc *CLIContext, sess *Session, w *export.Writer,
	driveRef remoteref.Ref, fetched map[string]*graph.Listing, summary *exportSummary,
) error {
	fileFolder, name := cc.Cfg.Site.FileFolder, cc.Cfg.Site.FileName

	listing, ok := fetched[fileFolder]
	if !ok {
		var err error

		listing, err = optionalListing(ctx, sess.Locator, driveRef, fileFolder)
		if err != nil {
			return err
		}
	}

	if listing == nil {
		cc.reportMissing(summary, name, fmt.Sprintf("%s not found: folder %q does not exist", name, fileFolder))
		return nil
	}

	item, err := locator.FindByName(listing.Items, name)
	if err != nil {
		cc.reportMissing(summary, name, fmt.Sprintf("%s not found in %q", name, folderLabel(fileFolder)))
		return nil
	}

	res, err := w.SaveDownload(item.Name, func(out io.Writer) (int64, error) {
		return sess.Locator.FetchContent(ctx, item, out)
	})
	if err != nil {
		return fmt.Errorf("downloading %q: %w", item.Name, err)
	}

	summary.Download = res
	cc.Statusf("Downloaded %s (%s) to %s\n", item.Name, formatSize(res.Bytes), res.Path)

	info, err := sess.Locator.Stat(ctx, driveRef, path.Join(fileFolder, name))
	if err != nil {
		return fmt.Errorf("reading metadata of %q: %w", name, err)
	}

	return cc.writeJSON(w, export.FileInfoFile, export.FileRecord{Item: info, Download: res}, summary)
}

// optionalListing lists folder, returning nil without error when the folder
// does not exist.
func optionalListing(ctx context.Context, loc *locator.Locator, drive remoteref.Ref, folder string) (*graph.Listing, error) {
	l, err := loc.Listing(ctx, drive, folder)
	if locator.IsNotFound(err) {
		return nil, nil
	}

	return l, err
}

func exportUsers(ctx context.Context, cc *CLIContext, sess *Session, w *export.Writer, summary *exportSummary) error {
	lister, file, err := sess.UserLister(cc.Cfg.Users.Source)
	if err != nil {
		return err
	}

	listing, err := lister.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("exporting users: %w", err)
	}

	if listing.NextLink != "" {
		summary.Truncated = append(summary.Truncated, file)
	}

	return cc.writeJSON(w, file, export.UserRecords(listing.Users), summary)
}

func (cc *CLIContext) writeJSON(w *export.Writer, name string, v any, summary *exportSummary) error {
	path, err := w.WriteJSON(name, v)
	if err != nil {
		return err
	}

	summary.Files = append(summary.Files, path)
	cc.Statusf("Wrote %s\n", path)

	return nil
}

func (cc *CLIContext) writeListing(w *export.Writer, name, folder string, l *graph.Listing, summary *exportSummary) error {
	if l.Truncated() {
		summary.Truncated = append(summary.Truncated, name)
		cc.Statusf("Warning: listing of %q has more than %d entries; only the first page was exported\n",
			folderLabel(folder), len(l.Items))
	}

	return cc.writeJSON(w, name, export.NewListingRecord(folder, l), summary)
}

// reportMissing records a missing folder or file. The run goes on:
// everything exported so far, and anything that does not depend on the
// missing piece, stays valid.
func (cc *CLIContext) reportMissing(summary *exportSummary, name, msg string) {
	cc.Logger.Warn("not found", slog.String("name", name))
	cc.Statusf("%s\n", msg)

	summary.Missing = append(summary.Missing, name)
}

func (cc *CLIContext) finish(summary *exportSummary) error {
	if cc.Flags.JSON {
		return printJSON(cc.Out, summary)
	}

	return nil
}

func folderLabel(folder string) string {
	if folder == "" {
		return "/"
	}

	return folder
}
