package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tonimelisma/sharepoint-go/internal/export"
)

func newUsersCmd(cc *CLIContext) *cobra.Command {
	var save bool

	cmd := &cobra.Command{
		Use:   "users",
		Short: "List directory users (first page only)",
		Long: `List users with their display name and mail address. --source picks the
plain REST client or the Graph SDK. --save also writes the export file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			sess, err := NewSession(ctx, cc.Cfg, cc.Logger)
			if err != nil {
				return err
			}

			lister, file, err := sess.UserLister(cc.Cfg.Users.Source)
			if err != nil {
				return err
			}

			listing, err := lister.ListUsers(ctx)
			if err != nil {
				return fmt.Errorf("listing users: %w", err)
			}

			records := export.UserRecords(listing.Users)

			if save {
				w := export.NewWriter(cc.Cfg.Output.JSONDir, cc.Cfg.Output.DownloadDir, cc.Logger)

				path, err := w.WriteJSON(file, records)
				if err != nil {
					return err
				}

				cc.Statusf("Wrote %s\n", path)
			}

			if cc.Flags.JSON {
				return printJSON(cc.Out, records)
			}

			rows := make([][]string, 0, len(records))
			for _, u := range records {
				rows = append(rows, []string{u.Name, u.Email})
			}

			printTable(cc.Out, []string{"NAME", "EMAIL"}, rows)

			if listing.NextLink != "" {
				cc.Statusf("(more users exist; only the first page is shown)\n")
			}

			return nil
		},
	}

	cmd.Flags().String("source", "", "user lister: rest or sdk (overrides users.source)")
	cmd.Flags().BoolVar(&save, "save", false, "also write the users export file")

	return cmd
}
