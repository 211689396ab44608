package main

import (
	"carbonlint/logger"
	"carbonlint/mcpserver"
	"carbonlint/version"

	"github.com/spf13/cobra"
)

func newMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve scan tools over the Model Context Protocol (stdio)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// stdout carries the protocol; keep logs quiet on stderr.
			logger.Init("error")
			return mcpserver.Serve(mcpserver.New(version.Version))
		},
	}
}
