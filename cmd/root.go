package main

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/common-nighthawk/go-figure"
	"github.com/spf13/cobra"
)

const longDescription = "Measure and track the carbon footprint of your software projects."

var bannerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#1a9850")).Bold(true)

func banner() string {
	return bannerStyle.Render(figure.NewFigure("carbonlint", "small", true).String())
}

// newRootCmd builds the command tree. Running the root with no subcommand
// scans the given path (default ".").
func newRootCmd() *cobra.Command {
	opts := &scanOptions{}
	root := &cobra.Command{
		Use:           "carbonlint [path]",
		Short:         "Carbon footprint estimator for source trees",
		Long:          banner() + "\n" + longDescription,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd, args, opts)
		},
	}
	addScanFlags(root, opts)

	root.AddCommand(
		newScanCmd(),
		newInitCmd(),
		newRegionsCmd(),
		newProfilesCmd(),
		newHistoryCmd(),
		newMCPCmd(),
		newVersionCmd(),
	)
	return root
}
