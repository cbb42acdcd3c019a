package main

import (
	"github.com/spf13/cobra"

	"github.com/tonimelisma/sharepoint-go/internal/config"
)

func newConfigCmd(cc *CLIContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration",
	}

	cmd.AddCommand(newConfigShowCmd(cc))

	return cmd
}

func newConfigShowCmd(cc *CLIContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration with the secret redacted",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if cc.Flags.JSON {
				return printJSON(cc.Out, config.Redacted(cc.Cfg))
			}

			return config.RenderEffective(cc.Cfg, cc.Out)
		},
	}
}
