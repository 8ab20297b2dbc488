package main

import "github.com/spf13/cobra"

func newSystemInfoCmd(opts *globalOptions, client clientFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "system-info",
		Short: "Show the runtime's host information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client()
			if err != nil {
				return err
			}
			info, err := c.GetSystemInfo(cmd.Context())
			if err != nil {
				return err
			}
			return newPrinter(cmd.OutOrStdout(), opts).systemInfo(info)
		},
	}
}
