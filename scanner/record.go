package scanner

import (
	"errors"
	"fmt"
	"time"

	"carbonlint/tables"
)

// FileRecord is one scanned regular file. Records live for a single scan.
type FileRecord struct {
	Path   string  `json:"path"`
	Rel    string  `json:"rel"`
	Ext    string  `json:"ext"`
	Size   int64   `json:"size"`
	Weight float64 `json:"weight"`

	seq int
}

// ExtensionStat aggregates all files sharing an extension.
type ExtensionStat struct {
	Ext    string  `json:"ext"`
	Count  int     `json:"count"`
	Size   int64   `json:"size"`
	Weight float64 `json:"weight"`
}

const WarningHeavyAsset = "heavy-asset"

type Warning struct {
	Type    string `json:"type"`
	File    string `json:"file"`
	Size    int64  `json:"size"`
	Message string `json:"message"`
	MIME    string `json:"mime,omitempty"`
}

// Result is the outcome of one scan. It is never modified after Scan returns.
type Result struct {
	Root            string          `json:"root"`
	TotalFiles      int             `json:"totalFiles"`
	TotalSize       int64           `json:"totalSize"`
	TotalWeight     float64         `json:"totalWeight"`
	EnergyKWh       float64         `json:"energy_kWh"`
	CarbonGrams     float64         `json:"carbon_grams"`
	GreenScore      int             `json:"greenScore"`
	Region          tables.Region   `json:"region"`
	RequestedRegion string          `json:"requestedRegion"`
	HardwareProfile string          `json:"hardwareProfile"`
	PUE             float64         `json:"pue"`
	Budget          float64         `json:"budget"`
	MaxEnergy       float64         `json:"maxEnergy"`
	OverBudget      bool            `json:"overBudget"`
	Breakdown       []ExtensionStat `json:"breakdown"`
	Warnings        []Warning       `json:"warnings"`
	Fingerprint     string          `json:"fingerprint"`
	SkippedEntries  int             `json:"skippedEntries"`
	Duration        time.Duration   `json:"duration"`
}

// ErrRootUnreadable marks scans that could not start because the root path
// is missing, not a directory, or cannot be opened.
var ErrRootUnreadable = errors.New("scan root is not readable")

type RootError struct {
	Path string
	Err  error
}

func (e *RootError) Error() string {
	return fmt.Sprintf("cannot scan %s: %v", e.Path, e.Err)
}

func (e *RootError) Unwrap() []error {
	return []error{ErrRootUnreadable, e.Err}
}
