package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// tokenInfo is what the token command reports. The token itself is never
// printed.
type tokenInfo struct {
	Provider  string    `json:"provider"`
	Scope     string    `json:"scope"`
	ExpiresAt time.Time `json:"expires_at"`
}

func newTokenCmd(cc *CLIContext) *cobra.Command {
	return &cobra.Command{
		Use:   "token",
		Short: "Check that the service principal can obtain a token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			sess, err := NewSession(ctx, cc.Cfg, cc.Logger)
			if err != nil {
				return err
			}

			tok, err := sess.Creds.Authenticate(ctx)
			if err != nil {
				return err
			}

			info := tokenInfo{
				Provider:  cc.Cfg.Auth.Provider,
				Scope:     cc.Cfg.Auth.Scope,
				ExpiresAt: tok.Expiry,
			}

			if cc.Flags.JSON {
				return printJSON(cc.Out, info)
			}

			fmt.Fprintf(cc.Out, "Token OK (%s), expires %s (in %s)\n",
				info.Provider, info.ExpiresAt.Format(time.RFC3339),
				time.Until(info.ExpiresAt).Round(time.Second))

			return nil
		},
	}
}
