package output

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"carbonlint/scanner"
)

func TestTextReportSummary(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, sampleResult(), Options{Format: FormatText}); err != nil {
		t.Fatalf("write: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"100/100", "Excellent", "GLOBAL-AVG", "0.0095g", "0.000020", "within budget", ".ts", "File Breakdown"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in report:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Warnings") {
		t.Fatalf("no warnings section expected:\n%s", out)
	}
}

func TestTextReportOverBudgetAndWarnings(t *testing.T) {
	res := sampleResult()
	res.CarbonGrams = 250
	res.GreenScore = 0
	res.OverBudget = true
	for i := 0; i < 7; i++ {
		name := fmt.Sprintf("img%d.png", i)
		res.Warnings = append(res.Warnings, scanner.Warning{
			Type:    scanner.WarningHeavyAsset,
			File:    name,
			Message: fmt.Sprintf("Heavy asset: %s (600 KB)", name),
		})
	}

	var buf bytes.Buffer
	if err := Write(&buf, res, Options{}); err != nil {
		t.Fatalf("write: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"OVER BUDGET", "Poor", "Warnings", "(7)", "img4.png", "... and 2 more"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in report:\n%s", want, out)
		}
	}
	if strings.Contains(out, "img5.png") {
		t.Fatalf("only the first five warnings should be listed:\n%s", out)
	}
}

func TestBreakdownTableLimit(t *testing.T) {
	var stats []scanner.ExtensionStat
	for i := 0; i < 12; i++ {
		stats = append(stats, scanner.ExtensionStat{Ext: fmt.Sprintf(".e%02d", i), Count: 1, Size: 10, Weight: float64(12 - i)})
	}
	stats = append(stats, scanner.ExtensionStat{Ext: "", Count: 1, Size: 1, Weight: 0.01})

	out := BreakdownTable(stats, 10)
	if !strings.Contains(out, ".e09") || strings.Contains(out, ".e10") {
		t.Fatalf("expected ten rows:\n%s", out)
	}
	if all := BreakdownTable(stats, 0); !strings.Contains(all, "(none)") {
		t.Fatalf("expected extensionless row labelled (none):\n%s", all)
	}
}

func TestTextReportChart(t *testing.T) {
	res := sampleResult()
	res.Breakdown = append(res.Breakdown, scanner.ExtensionStat{Ext: ".go", Count: 3, Size: 4096, Weight: 1.5})

	var plain, charted bytes.Buffer
	if err := Write(&plain, res, Options{}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := Write(&charted, res, Options{Chart: true}); err != nil {
		t.Fatalf("write with chart: %v", err)
	}
	if charted.Len() <= plain.Len() {
		t.Fatal("expected chart to add output")
	}
}

func TestScoreBar(t *testing.T) {
	if got := strings.Count(scoreBar(100), "█"); got != scoreBarWidth {
		t.Fatalf("expected full bar, got %d cells", got)
	}
	if got := strings.Count(scoreBar(0), "█"); got != 0 {
		t.Fatalf("expected empty bar, got %d cells", got)
	}
	if got := strings.Count(scoreBar(50), "█"); got != scoreBarWidth/2 {
		t.Fatalf("expected half bar, got %d cells", got)
	}
}
