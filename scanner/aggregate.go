package scanner

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"carbonlint/tables"

	"github.com/cespare/xxhash/v2"
	"github.com/h2non/filetype"
)

type aggregate struct {
	totalFiles  int
	totalSize   int64
	totalWeight float64
	breakdown   []ExtensionStat
	warnings    []Warning
	fingerprint string
}

// newRecord weighs a file: weight-per-KB for the extension times size in KB.
func newRecord(path, rel, ext string, size int64, seq int) FileRecord {
	return FileRecord{
		Path:   path,
		Rel:    rel,
		Ext:    ext,
		Size:   size,
		Weight: tables.WeightPerKB(ext) * float64(size) / 1024,
		seq:    seq,
	}
}

// summarize reduces records already in discovery order. Summing in a fixed
// order keeps float totals identical across runs regardless of which worker
// produced which record.
func summarize(records []FileRecord) aggregate {
	agg := aggregate{
		breakdown: []ExtensionStat{},
		warnings:  []Warning{},
	}
	byExt := make(map[string]*ExtensionStat)
	for i := range records {
		r := &records[i]
		agg.totalFiles++
		agg.totalSize += r.Size
		agg.totalWeight += r.Weight

		ext := strings.ToLower(r.Ext)
		stat, ok := byExt[ext]
		if !ok {
			stat = &ExtensionStat{Ext: ext}
			byExt[ext] = stat
		}
		stat.Count++
		stat.Size += r.Size
		stat.Weight += r.Weight

		if w, ok := heavyAssetWarning(r); ok {
			agg.warnings = append(agg.warnings, w)
		}
	}
	for _, stat := range byExt {
		agg.breakdown = append(agg.breakdown, *stat)
	}
	sortBreakdown(agg.breakdown)
	agg.fingerprint = fingerprint(records)
	return agg
}

// sortBreakdown orders by weight descending, then extension ascending.
func sortBreakdown(stats []ExtensionStat) {
	sort.SliceStable(stats, func(i, j int) bool {
		if stats[i].Weight != stats[j].Weight {
			return stats[i].Weight > stats[j].Weight
		}
		return stats[i].Ext < stats[j].Ext
	})
}

func heavyAssetWarning(r *FileRecord) (Warning, bool) {
	if r.Size <= tables.HeavyAssetThreshold || !tables.IsHeavyAssetExt(r.Ext) {
		return Warning{}, false
	}
	kb := math.Round(float64(r.Size) / 1024)
	return Warning{
		Type:    WarningHeavyAsset,
		File:    r.Rel,
		Size:    r.Size,
		Message: fmt.Sprintf("Heavy asset: %s (%.0f KB)", r.Rel, kb),
		MIME:    mimeForExt(r.Ext),
	}, true
}

var mimeAliases = map[string]string{
	"jpeg": "jpg",
	"tiff": "tif",
}

func mimeForExt(ext string) string {
	name := strings.TrimPrefix(strings.ToLower(ext), ".")
	if alias, ok := mimeAliases[name]; ok {
		name = alias
	}
	kind := filetype.GetType(name)
	if kind == filetype.Unknown {
		return ""
	}
	return kind.MIME.Value
}

// fingerprint hashes the sorted (relative path, size) list so that an
// unchanged tree always produces the same value.
func fingerprint(records []FileRecord) string {
	keys := make([]int, len(records))
	for i := range keys {
		keys[i] = i
	}
	sort.Slice(keys, func(a, b int) bool { return records[keys[a]].Rel < records[keys[b]].Rel })

	d := xxhash.New()
	for _, idx := range keys {
		r := records[idx]
		_, _ = d.WriteString(r.Rel)
		_, _ = d.WriteString("\x00")
		_, _ = d.WriteString(fmt.Sprint(r.Size))
		_, _ = d.WriteString("\n")
	}
	return fmt.Sprintf("%016x", d.Sum64())
}
