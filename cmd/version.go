package main

import (
	"fmt"

	"carbonlint/update"
	"carbonlint/version"

	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	var check bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version and optionally check for updates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "carbonlint %s\n", version.Version)
			if !check {
				return nil
			}
			rel, err := update.CheckForUpdate(cmd.Context(), version.Version)
			if err != nil {
				return fmt.Errorf("check for update: %w", err)
			}
			if rel.Newer {
				fmt.Fprintf(out, "Update available: %s -> %s\n", version.Version, rel.Version)
				if rel.URL != "" {
					fmt.Fprintln(out, rel.URL)
				}
			} else {
				fmt.Fprintln(out, "You are running the latest release.")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&check, "check", false, "query GitHub for a newer release")
	return cmd
}
