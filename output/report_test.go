package output

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"carbonlint/scanner"
	"carbonlint/tables"

	"gopkg.in/yaml.v3"
)

func sampleResult() *scanner.Result {
	return &scanner.Result{
		Root:        "/tmp/project",
		TotalFiles:  1,
		TotalSize:   2048,
		TotalWeight: 2,
		EnergyKWh:   0.00002,
		CarbonGrams: 0.0095,
		GreenScore:  100,
		Region:      tables.Region{Key: "GLOBAL-AVG", Name: "Global Average", Intensity: 475},
		PUE:         1,
		Budget:      100,
		Breakdown:   []scanner.ExtensionStat{{Ext: ".ts", Count: 1, Size: 2048, Weight: 2}},
		Warnings:    []scanner.Warning{},
		Fingerprint: "00000000deadbeef",
	}
}

func TestJSONReportShape(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, sampleResult(), Options{Format: FormatJSON}); err != nil {
		t.Fatalf("write: %v", err)
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("invalid json: %v\n%s", err, buf.String())
	}
	keys := []string{
		"version", "greenScore", "files", "totalSizeBytes", "region", "regionName",
		"carbonIntensity_gCO2_kWh", "estimatedEnergy_kWh", "estimatedCarbon_grams",
		"budget_grams", "overBudget", "breakdown", "warnings",
	}
	if len(doc) != len(keys) {
		t.Fatalf("expected %d keys, got %d: %v", len(keys), len(doc), doc)
	}
	for _, key := range keys {
		if _, ok := doc[key]; !ok {
			t.Fatalf("missing key %q", key)
		}
	}
	if doc["estimatedCarbon_grams"] != 0.0095 || doc["greenScore"] != float64(100) {
		t.Fatalf("unexpected values: %v", doc)
	}
	if warnings, ok := doc["warnings"].([]interface{}); !ok || len(warnings) != 0 {
		t.Fatalf("warnings should be an empty array, got %#v", doc["warnings"])
	}
	breakdown := doc["breakdown"].([]interface{})
	row := breakdown[0].(map[string]interface{})
	if row["ext"] != ".ts" || row["count"] != float64(1) || row["size"] != float64(2048) {
		t.Fatalf("unexpected breakdown row: %v", row)
	}
}

func TestReportRounding(t *testing.T) {
	res := sampleResult()
	res.EnergyKWh = 0.0000123456
	res.CarbonGrams = 0.123456789
	res.Warnings = []scanner.Warning{{Type: scanner.WarningHeavyAsset, File: "a.png", Message: "Heavy asset: a.png (600 KB)"}}

	rep := NewReport(res)
	if rep.EnergyKWh != 0.000012 {
		t.Fatalf("expected energy rounded to 6 dp, got %v", rep.EnergyKWh)
	}
	if rep.CarbonGrams != 0.1235 {
		t.Fatalf("expected carbon rounded to 4 dp, got %v", rep.CarbonGrams)
	}
	if len(rep.Warnings) != 1 || rep.Warnings[0] != "Heavy asset: a.png (600 KB)" {
		t.Fatalf("unexpected warnings: %v", rep.Warnings)
	}
}

func TestYAMLReport(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, sampleResult(), Options{Format: FormatYAML}); err != nil {
		t.Fatalf("write: %v", err)
	}
	var doc map[string]interface{}
	if err := yaml.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("invalid yaml: %v", err)
	}
	if doc["greenScore"] != 100 || doc["region"] != "GLOBAL-AVG" {
		t.Fatalf("unexpected yaml document: %v", doc)
	}
	breakdown, ok := doc["breakdown"].([]interface{})
	if !ok || len(breakdown) != 1 {
		t.Fatalf("unexpected breakdown: %#v", doc["breakdown"])
	}
	if row := breakdown[0].(map[string]interface{}); row["ext"] != ".ts" {
		t.Fatalf("unexpected breakdown row: %v", row)
	}
}

func TestWriteUnsupportedFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, sampleResult(), Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	if err := os.WriteFile(path, []byte("stale content that is longer than the report should ever be......"), 0644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := WriteFile(path, sampleResult(), Options{Format: FormatJSON}); err != nil {
		t.Fatalf("write file: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if strings.Contains(string(data), "stale") || !json.Valid(data) {
		t.Fatalf("file not replaced cleanly: %s", data)
	}
}
