package main

import (
	"encoding/json"
	"fmt"

	"carbonlint/systeminfo"
	"carbonlint/tables"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

func newRegionsCmd() *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "regions",
		Short: "List grid regions and their carbon intensity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if jsonOut {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(tables.Regions())
			}
			tw := table.NewWriter()
			tw.AppendHeader(table.Row{"Region", "Name", "gCO₂/kWh"})
			for _, r := range tables.Regions() {
				tw.AppendRow(table.Row{r.Key, r.Name, r.Intensity})
			}
			tw.SetStyle(table.StyleRounded)
			tw.SetColumnConfigs([]table.ColumnConfig{{Number: 3, Align: text.AlignRight}})
			fmt.Fprintln(cmd.OutOrStdout(), tw.Render())
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "output as JSON")
	return cmd
}

func newProfilesCmd() *cobra.Command {
	var noDetect bool
	cmd := &cobra.Command{
		Use:   "profiles",
		Short: "List hardware profiles and suggest one for this machine",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			tw := table.NewWriter()
			tw.AppendHeader(table.Row{"Profile", "CPU TDP (W)", "Memory (W/GB)"})
			for _, p := range tables.HardwareProfiles() {
				tw.AppendRow(table.Row{p.Key, p.CPUTDPWatts, p.MemPerGB})
			}
			tw.SetStyle(table.StyleRounded)
			fmt.Fprintln(out, tw.Render())

			if noDetect {
				return nil
			}
			info := systeminfo.GetSystemInfo(cmd.Context())
			suggested := systeminfo.SuggestProfile(info)
			fmt.Fprintln(out)
			fmt.Fprintf(out, "Detected host: %s/%s, %d logical CPUs, %s memory\n",
				info.OS, info.KernelArch, info.LogicalCPUs, humanize.IBytes(info.MemoryBytes))
			if p, ok := tables.LookupHardwareProfile(suggested); ok {
				fmt.Fprintf(out, "Suggested profile: %s (~%.0f W)\n", suggested, systeminfo.EstimatedPowerWatts(p, info.MemoryBytes))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&noDetect, "no-detect", false, "skip host detection")
	return cmd
}
