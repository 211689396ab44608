package main

import (
	"encoding/json"
	"fmt"
	"io"

	"carbonlint/carbon"
	"carbonlint/history"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

func openHistory(dbPath string) (*history.Store, error) {
	if dbPath == "" {
		p, err := history.DefaultPath()
		if err != nil {
			return nil, fmt.Errorf("locate history database: %w", err)
		}
		dbPath = p
	}
	return history.Open(dbPath)
}

func newHistoryCmd() *cobra.Command {
	var dbPath string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect runs recorded with `scan --save`",
	}
	cmd.PersistentFlags().StringVar(&dbPath, "db", "", "history database path (default: user config dir)")
	cmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "output as JSON")

	var limit int
	list := &cobra.Command{
		Use:   "list",
		Short: "List recorded runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openHistory(dbPath)
			if err != nil {
				return err
			}
			defer store.Close()
			runs, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd.OutOrStdout(), runs)
			}
			fmt.Fprintln(cmd.OutOrStdout(), runsTable(runs))
			return nil
		},
	}
	list.Flags().IntVarP(&limit, "limit", "n", 20, "maximum runs to show (0 = all)")

	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one recorded run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openHistory(dbPath)
			if err != nil {
				return err
			}
			defer store.Close()
			run, err := store.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd.OutOrStdout(), run)
			}
			tw := table.NewWriter()
			tw.AppendRows([]table.Row{
				{"ID", run.ID},
				{"Recorded", run.CreatedAt.Local().Format("2006-01-02 15:04:05")},
				{"Root", run.Root},
				{"Fingerprint", run.Fingerprint},
				{"Region", run.Region},
				{"Profile", run.HardwareProfile},
				{"PUE", run.PUE},
				{"Files", humanize.Comma(int64(run.Files))},
				{"Size", humanize.IBytes(uint64(run.SizeBytes))},
				{"Energy (kWh)", fmt.Sprintf("%.6f", run.EnergyKWh)},
				{"Carbon (g)", fmt.Sprintf("%.4f", run.CarbonGrams)},
				{"Budget (g)", run.Budget},
				{"Green Score", fmt.Sprintf("%d (%s)", run.GreenScore, carbon.Label(run.GreenScore))},
				{"Over budget", run.OverBudget},
			})
			tw.SetStyle(table.StyleRounded)
			fmt.Fprintln(cmd.OutOrStdout(), tw.Render())
			return nil
		},
	}

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a recorded run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openHistory(dbPath)
			if err != nil {
				return err
			}
			defer store.Close()
			if err := store.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted run %s\n", args[0])
			return nil
		},
	}

	summary := &cobra.Command{
		Use:   "summary",
		Short: "Aggregate statistics over all recorded runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openHistory(dbPath)
			if err != nil {
				return err
			}
			defer store.Close()
			sum, err := store.Summary(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd.OutOrStdout(), sum)
			}
			tw := table.NewWriter()
			tw.AppendRows([]table.Row{
				{"Runs", sum.Runs},
				{"Total carbon (g)", fmt.Sprintf("%.4f", sum.TotalCarbon)},
				{"Average carbon (g)", fmt.Sprintf("%.4f", sum.AverageCarbon)},
				{"Average score", fmt.Sprintf("%.1f", sum.AverageScore)},
				{"Best score", sum.BestScore},
				{"Worst score", sum.WorstScore},
				{"Over budget", sum.OverBudgetCount},
			})
			tw.SetStyle(table.StyleRounded)
			fmt.Fprintln(cmd.OutOrStdout(), tw.Render())
			return nil
		},
	}

	cmd.AddCommand(list, show, del, summary)
	return cmd
}

func runsTable(runs []history.Run) string {
	tw := table.NewWriter()
	tw.AppendHeader(table.Row{"ID", "Recorded", "Region", "Files", "Carbon (g)", "Score", ""})
	for _, r := range runs {
		status := ""
		if r.OverBudget {
			status = "over budget"
		}
		tw.AppendRow(table.Row{
			r.ID,
			humanize.Time(r.CreatedAt),
			r.Region,
			humanize.Comma(int64(r.Files)),
			fmt.Sprintf("%.4f", r.CarbonGrams),
			r.GreenScore,
			status,
		})
	}
	tw.SetStyle(table.StyleRounded)
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
	})
	return tw.Render()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
