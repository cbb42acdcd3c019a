package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tonimelisma/sharepoint-go/internal/export"
)

func newSiteCmd(cc *CLIContext) *cobra.Command {
	return &cobra.Command{
		Use:   "site",
		Short: "Resolve the configured site and show its document library",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			sess, err := NewSession(ctx, cc.Cfg, cc.Logger)
			if err != nil {
				return err
			}

			_, site, drive, err := sess.resolveDrive(ctx)
			if err != nil {
				return err
			}

			if cc.Flags.JSON {
				return printJSON(cc.Out, export.SiteRecord{Site: site, Drive: drive})
			}

			printKV(cc.Out, [][2]string{
				{"Site", site.DisplayName},
				{"Site ID", site.ID},
				{"Web URL", site.WebURL},
				{"Library", drive.Name},
				{"Drive ID", drive.ID},
				{"Drive type", drive.DriveType},
				{"Owner", drive.OwnerName},
				{"Quota", quotaLabel(drive.QuotaUsed, drive.QuotaTotal)},
			})

			return nil
		},
	}
}

// quotaLabel renders used/total, or "" when the server reported no quota.
func quotaLabel(used, total int64) string {
	if total <= 0 {
		return ""
	}

	return fmt.Sprintf("%s of %s", formatSize(used), formatSize(total))
}
