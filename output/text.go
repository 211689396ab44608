package output

import (
	"fmt"
	"io"
	"strings"

	"carbonlint/carbon"
	"carbonlint/scanner"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

const (
	colorGood = "#1a9850"
	colorWarn = "#fee08b"
	colorBad  = "#d73027"

	breakdownRows = 10
	warningRows   = 5
	scoreBarWidth = 30
)

var (
	boldStyle  = lipgloss.NewStyle().Bold(true)
	dimStyle   = lipgloss.NewStyle().Faint(true)
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(colorGood))
	chartFrame = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("#F4D060"))
)

func scoreColor(score int) lipgloss.Style {
	switch {
	case score >= 80:
		return lipgloss.NewStyle().Foreground(lipgloss.Color(colorGood))
	case score >= 50:
		return lipgloss.NewStyle().Foreground(lipgloss.Color(colorWarn))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color(colorBad))
	}
}

func carbonColor(grams, budget float64) lipgloss.Style {
	switch {
	case grams > budget:
		return lipgloss.NewStyle().Foreground(lipgloss.Color(colorBad))
	case grams > budget*0.8:
		return lipgloss.NewStyle().Foreground(lipgloss.Color(colorWarn))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color(colorGood))
	}
}

func writeText(w io.Writer, res *scanner.Result, opts Options) error {
	var b strings.Builder
	hr := dimStyle.Render(strings.Repeat("─", 56))

	fmt.Fprintln(&b)
	fmt.Fprintf(&b, "  %s%s\n", titleStyle.Render("CarbonLint"), dimStyle.Render(" · Carbon Footprint Report"))
	fmt.Fprintln(&b, hr)
	fmt.Fprintln(&b)

	sc := scoreColor(res.GreenScore)
	fmt.Fprintf(&b, "  %s  %s (%s)\n", boldStyle.Render("Green Score"),
		sc.Bold(true).Render(fmt.Sprintf("%d/100", res.GreenScore)), carbon.Label(res.GreenScore))
	fmt.Fprintf(&b, "  %s\n\n", scoreBar(res.GreenScore))

	row := func(label, value string) {
		fmt.Fprintf(&b, "  %s %s\n", dimStyle.Render(fmt.Sprintf("%-17s", label)), value)
	}
	row("Files scanned", boldStyle.Render(humanize.Comma(int64(res.TotalFiles))))
	row("Total size", boldStyle.Render(humanize.IBytes(uint64(res.TotalSize))))
	row("Region", boldStyle.Render(res.Region.Key)+" "+
		dimStyle.Render(fmt.Sprintf("(%s, %g gCO₂/kWh)", res.Region.Name, res.Region.Intensity)))
	if res.PUE != 1 {
		row("PUE", boldStyle.Render(fmt.Sprintf("%g", res.PUE)))
	}
	row("Est. energy", boldStyle.Render(fmt.Sprintf("%.6f", res.EnergyKWh))+" "+dimStyle.Render("kWh"))
	row("Est. CO₂", carbonColor(res.CarbonGrams, res.Budget).Bold(true).Render(fmt.Sprintf("%.4fg", res.CarbonGrams)))
	status := lipgloss.NewStyle().Foreground(lipgloss.Color(colorGood)).Render("✓ within budget")
	if res.OverBudget {
		status = lipgloss.NewStyle().Foreground(lipgloss.Color(colorBad)).Render("⚠ OVER BUDGET")
	}
	row("Budget", boldStyle.Render(fmt.Sprintf("%gg", res.Budget))+" "+status)
	if res.SkippedEntries > 0 {
		row("Skipped", dimStyle.Render(fmt.Sprintf("%d unreadable entries", res.SkippedEntries)))
	}
	fmt.Fprintln(&b)

	if len(res.Breakdown) > 0 {
		fmt.Fprintf(&b, "  %s %s\n", boldStyle.Render("File Breakdown"), dimStyle.Render("(top 10 by weight)"))
		fmt.Fprintln(&b, indent(BreakdownTable(res.Breakdown, breakdownRows), "  "))
		fmt.Fprintln(&b)
		if opts.Chart {
			fmt.Fprintln(&b, breakdownChart(res.Breakdown, breakdownRows))
			fmt.Fprintln(&b)
		}
	}

	if len(res.Warnings) > 0 {
		warn := lipgloss.NewStyle().Foreground(lipgloss.Color(colorWarn))
		fmt.Fprintf(&b, "  %s %s\n", warn.Bold(true).Render("⚠ Warnings"), dimStyle.Render(fmt.Sprintf("(%d)", len(res.Warnings))))
		for i, wa := range res.Warnings {
			if i == warningRows {
				break
			}
			fmt.Fprintf(&b, "  %s %s\n", warn.Render("›"), wa.Message)
		}
		if extra := len(res.Warnings) - warningRows; extra > 0 {
			fmt.Fprintf(&b, "  %s\n", dimStyle.Render(fmt.Sprintf("  ... and %d more", extra)))
		}
		fmt.Fprintln(&b)
	}

	fmt.Fprintln(&b, hr)
	_, err := io.WriteString(w, b.String())
	return err
}

func scoreBar(score int) string {
	filled := (score*scoreBarWidth + 50) / 100
	return dimStyle.Render("[") +
		scoreColor(score).Render(strings.Repeat("█", filled)) +
		dimStyle.Render(strings.Repeat("░", scoreBarWidth-filled)+"]")
}

// BreakdownTable renders at most limit rows; limit <= 0 renders all.
func BreakdownTable(stats []scanner.ExtensionStat, limit int) string {
	tw := table.NewWriter()
	tw.AppendHeader(table.Row{"Ext", "Count", "Size", "Weight"})
	for i, s := range stats {
		if limit > 0 && i == limit {
			break
		}
		ext := s.Ext
		if ext == "" {
			ext = "(none)"
		}
		tw.AppendRow(table.Row{ext, humanize.Comma(int64(s.Count)), humanize.IBytes(uint64(s.Size)), fmt.Sprintf("%.1f", s.Weight)})
	}
	tw.SetStyle(table.StyleRounded)
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
	})
	return tw.Render()
}

func breakdownChart(stats []scanner.ExtensionStat, limit int) string {
	palette := []string{colorBad, "#f46d43", colorWarn, "#abdda4", "#66c2a5", colorGood}
	bc := barchart.New(72, 14)
	for i, s := range stats {
		if i == limit {
			break
		}
		label := s.Ext
		if label == "" {
			label = "(none)"
		}
		color := palette[len(palette)-1]
		if i < len(palette) {
			color = palette[i]
		}
		bc.Push(barchart.BarData{
			Label: label,
			Values: []barchart.BarValue{{
				Name:  label,
				Value: s.Weight,
				Style: lipgloss.NewStyle().Foreground(lipgloss.Color(color)),
			}},
		})
	}
	bc.Draw()
	return chartFrame.Render(bc.View())
}

func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}
