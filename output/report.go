// Package output renders scan results as text, JSON or YAML and exports them
// as OTLP log records.
package output

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"carbonlint/scanner"

	"gopkg.in/yaml.v3"
)

// SchemaVersion is the version field of the machine-readable report.
const SchemaVersion = "1.0.0"

const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Report is the JSON/YAML document. Energy is rounded to 6 decimal places and
// carbon to 4; warnings are reduced to their messages.
type Report struct {
	Version         string                  `json:"version" yaml:"version"`
	GreenScore      int                     `json:"greenScore" yaml:"greenScore"`
	Files           int                     `json:"files" yaml:"files"`
	TotalSizeBytes  int64                   `json:"totalSizeBytes" yaml:"totalSizeBytes"`
	Region          string                  `json:"region" yaml:"region"`
	RegionName      string                  `json:"regionName" yaml:"regionName"`
	CarbonIntensity float64                 `json:"carbonIntensity_gCO2_kWh" yaml:"carbonIntensity_gCO2_kWh"`
	EnergyKWh       float64                 `json:"estimatedEnergy_kWh" yaml:"estimatedEnergy_kWh"`
	CarbonGrams     float64                 `json:"estimatedCarbon_grams" yaml:"estimatedCarbon_grams"`
	BudgetGrams     float64                 `json:"budget_grams" yaml:"budget_grams"`
	OverBudget      bool                    `json:"overBudget" yaml:"overBudget"`
	Breakdown       []scanner.ExtensionStat `json:"breakdown" yaml:"breakdown"`
	Warnings        []string                `json:"warnings" yaml:"warnings"`
}

func NewReport(res *scanner.Result) Report {
	warnings := make([]string, 0, len(res.Warnings))
	for _, w := range res.Warnings {
		warnings = append(warnings, w.Message)
	}
	breakdown := res.Breakdown
	if breakdown == nil {
		breakdown = []scanner.ExtensionStat{}
	}
	return Report{
		Version:         SchemaVersion,
		GreenScore:      res.GreenScore,
		Files:           res.TotalFiles,
		TotalSizeBytes:  res.TotalSize,
		Region:          res.Region.Key,
		RegionName:      res.Region.Name,
		CarbonIntensity: res.Region.Intensity,
		EnergyKWh:       roundTo(res.EnergyKWh, 6),
		CarbonGrams:     roundTo(res.CarbonGrams, 4),
		BudgetGrams:     res.Budget,
		OverBudget:      res.OverBudget,
		Breakdown:       breakdown,
		Warnings:        warnings,
	}
}

func roundTo(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}

type Options struct {
	Format string
	// Chart adds a bar chart of the breakdown to text reports.
	Chart bool
}

// Write renders res to w in the requested format.
func Write(w io.Writer, res *scanner.Result, opts Options) error {
	switch strings.ToLower(opts.Format) {
	case "", FormatText:
		return writeText(w, res, opts)
	case FormatJSON:
		return encodeJSON(w, NewReport(res))
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(NewReport(res)); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported output format %q", opts.Format)
	}
}

// WriteFile renders res into path, replacing any existing file.
func WriteFile(path string, res *scanner.Result, opts Options) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	if err := Write(f, res, opts); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
