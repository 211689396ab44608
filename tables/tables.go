// Package tables holds the static reference data used by the scanner and the
// carbon estimator. Every table is read-only after package initialisation.
package tables

import (
	"sort"
	"strings"
)

// DefaultWeightPerKB applies to extensions missing from the weight table.
const DefaultWeightPerKB = 0.05

// DefaultRegion is the region used when a key is empty or unknown.
const DefaultRegion = "GLOBAL-AVG"

// HeavyAssetThreshold is the size above which media files are flagged.
const HeavyAssetThreshold = 512 * 1024

type Region struct {
	Key       string  `json:"key"`
	Name      string  `json:"name"`
	Intensity float64 `json:"gco2_kwh"`
}

// HardwareProfile describes a power envelope. It is not part of the carbon
// formula; see carbon.Estimate.
type HardwareProfile struct {
	Key         string  `json:"key"`
	CPUTDPWatts float64 `json:"cpu_tdp"`
	MemPerGB    float64 `json:"mem_per_gb"`
}

var regions = map[string]Region{
	"US-WEST":    {Key: "US-WEST", Name: "California, US", Intensity: 210},
	"US-EAST":    {Key: "US-EAST", Name: "Virginia, US", Intensity: 380},
	"EU-WEST":    {Key: "EU-WEST", Name: "Ireland, EU", Intensity: 300},
	"EU-NORTH":   {Key: "EU-NORTH", Name: "Sweden, EU", Intensity: 25},
	"ASIA-EAST":  {Key: "ASIA-EAST", Name: "Japan", Intensity: 470},
	"ASIA-SOUTH": {Key: "ASIA-SOUTH", Name: "India", Intensity: 700},
	"GLOBAL-AVG": {Key: "GLOBAL-AVG", Name: "Global Average", Intensity: 475},
}

var hardwareProfiles = map[string]HardwareProfile{
	"laptop":  {Key: "laptop", CPUTDPWatts: 15, MemPerGB: 0.3},
	"desktop": {Key: "desktop", CPUTDPWatts: 65, MemPerGB: 0.4},
	"server":  {Key: "server", CPUTDPWatts: 150, MemPerGB: 0.5},
}

// Relative energy per KB. Compiled languages weigh more than markup, docs
// and config barely register, assets count for bundling and optimisation.
var extensionWeights = map[string]float64{
	".ts": 1.0, ".tsx": 1.0, ".jsx": 1.0,
	".rs": 1.2, ".cpp": 1.2, ".c": 1.0,
	".java": 1.1, ".go": 0.9, ".cs": 1.1,

	".js": 0.6, ".mjs": 0.6, ".cjs": 0.6,
	".py": 0.5, ".rb": 0.5, ".php": 0.5,

	".css": 0.3, ".scss": 0.4, ".less": 0.4,
	".html": 0.2, ".vue": 0.8, ".svelte": 0.8,

	".json": 0.1, ".yaml": 0.1, ".yml": 0.1,
	".toml": 0.1, ".xml": 0.1, ".md": 0.05,
	".txt": 0.02, ".env": 0.01,

	".png": 0.15, ".jpg": 0.15, ".jpeg": 0.15,
	".gif": 0.15, ".svg": 0.1, ".webp": 0.1,
	".ico": 0.05, ".mp4": 0.2, ".webm": 0.2,
	".woff": 0.05, ".woff2": 0.05, ".ttf": 0.05,
}

// Build outputs, dependency caches and VCS metadata. Matched on the
// directory's base name and pruned before descent.
var excludedDirs = map[string]struct{}{
	"node_modules": {}, ".git": {}, ".svn": {}, ".hg": {},
	"dist": {}, "build": {}, "out": {},
	".next": {}, ".nuxt": {}, ".output": {},
	"__pycache__": {}, ".venv": {}, "venv": {},
	"target": {}, "vendor": {},
	".cache": {}, ".parcel-cache": {}, "coverage": {},
	".turbo": {}, ".vercel": {}, ".netlify": {},
}

var heavyAssetExts = map[string]struct{}{
	".png": {}, ".jpg": {}, ".jpeg": {}, ".gif": {},
	".mp4": {}, ".webm": {}, ".bmp": {}, ".tiff": {},
}

// WeightPerKB returns the weight for ext, or DefaultWeightPerKB.
func WeightPerKB(ext string) float64 {
	if w, ok := extensionWeights[strings.ToLower(ext)]; ok {
		return w
	}
	return DefaultWeightPerKB
}

// LookupRegion returns the region for key after uppercasing.
func LookupRegion(key string) (Region, bool) {
	r, ok := regions[strings.ToUpper(strings.TrimSpace(key))]
	return r, ok
}

// ResolveRegion never fails: unknown keys map to DefaultRegion.
func ResolveRegion(key string) Region {
	if r, ok := LookupRegion(key); ok {
		return r
	}
	return regions[DefaultRegion]
}

func Regions() []Region {
	out := make([]Region, 0, len(regions))
	for _, r := range regions {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

func RegionKeys() []string {
	rs := Regions()
	keys := make([]string, len(rs))
	for i, r := range rs {
		keys[i] = r.Key
	}
	return keys
}

func LookupHardwareProfile(key string) (HardwareProfile, bool) {
	p, ok := hardwareProfiles[strings.ToLower(strings.TrimSpace(key))]
	return p, ok
}

// HardwareProfiles returns profiles ordered by CPU TDP.
func HardwareProfiles() []HardwareProfile {
	out := make([]HardwareProfile, 0, len(hardwareProfiles))
	for _, p := range hardwareProfiles {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CPUTDPWatts < out[j].CPUTDPWatts })
	return out
}

func IsExcludedDir(name string) bool {
	_, ok := excludedDirs[name]
	return ok
}

// ExcludedDirs returns the sorted exclusion set.
func ExcludedDirs() []string {
	out := make([]string, 0, len(excludedDirs))
	for name := range excludedDirs {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func IsHeavyAssetExt(ext string) bool {
	_, ok := heavyAssetExts[strings.ToLower(ext)]
	return ok
}
