package scanner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"carbonlint/carbon"
	"carbonlint/config"
	"carbonlint/logger"
	"carbonlint/tables"
	"carbonlint/tracing"
	"carbonlint/utils"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"
	"golang.org/x/time/rate"
)

type fileScanTask struct {
	path  string
	rel   string
	entry fs.DirEntry
	seq   int
}

// Scan walks root and returns its carbon estimate. The only fatal outcomes
// are an invalid configuration, an unreadable root and context
// cancellation; unreadable subdirectories and files that cannot be statted
// are skipped and counted in Result.SkippedEntries.
func Scan(ctx context.Context, root string, cfg *config.Config) (*Result, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	absRoot, err := checkRoot(root)
	if err != nil {
		return nil, err
	}

	ctx, endTask := tracing.StartTask(ctx, "scan")
	defer endTask()

	start := time.Now()
	endWalk := tracing.StartRegion(ctx, "walk")
	records, skipped, err := collect(ctx, absRoot, cfg)
	endWalk()
	if err != nil {
		return nil, err
	}

	endSummarize := tracing.StartRegion(ctx, "summarize")
	agg := summarize(records)
	endSummarize()
	footprint := carbon.Estimate(agg.totalWeight, cfg.PUE, cfg.Region)
	score, err := carbon.GreenScore(footprint.CarbonGrams, cfg.MaxCarbon)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Root:            absRoot,
		TotalFiles:      agg.totalFiles,
		TotalSize:       agg.totalSize,
		TotalWeight:     agg.totalWeight,
		EnergyKWh:       footprint.EnergyKWh,
		CarbonGrams:     footprint.CarbonGrams,
		GreenScore:      score,
		Region:          footprint.Region,
		RequestedRegion: strings.ToUpper(strings.TrimSpace(cfg.Region)),
		HardwareProfile: cfg.HardwareProfile,
		PUE:             cfg.PUE,
		Budget:          cfg.MaxCarbon,
		MaxEnergy:       cfg.MaxEnergy,
		OverBudget:      footprint.CarbonGrams > cfg.MaxCarbon,
		Breakdown:       agg.breakdown,
		Warnings:        agg.warnings,
		Fingerprint:     agg.fingerprint,
		SkippedEntries:  skipped,
		Duration:        time.Since(start),
	}
	if res.RequestedRegion != res.Region.Key {
		logger.Debugf("Unknown region %q, using %s", cfg.Region, res.Region.Key)
	}
	logger.WithFields(map[string]interface{}{
		"root":     absRoot,
		"files":    res.TotalFiles,
		"skipped":  skipped,
		"duration": res.Duration,
	}).Debug("Scan complete")
	return res, nil
}

func checkRoot(root string) (string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", &RootError{Path: root, Err: err}
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", &RootError{Path: abs, Err: err}
	}
	if !info.IsDir() {
		return "", &RootError{Path: abs, Err: errors.New("not a directory")}
	}
	f, err := os.Open(abs)
	if err != nil {
		return "", &RootError{Path: abs, Err: err}
	}
	defer f.Close()
	if _, err := f.Readdirnames(1); err != nil && err != io.EOF {
		return "", &RootError{Path: abs, Err: err}
	}
	return abs, nil
}

// collect runs the walker in one goroutine and stats files in a worker pool.
// Each worker appends to its own slice; the slices are merged and put back
// into discovery order afterwards.
func collect(ctx context.Context, root string, cfg *config.Config) ([]FileRecord, int, error) {
	concurrency := cfg.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	matcher := utils.NewPatternMatcher(cfg.Exclude)

	var ioLimiter *rate.Limiter
	if cfg.MaxIOPerSecond > 0 {
		ioLimiter = rate.NewLimiter(rate.Limit(cfg.MaxIOPerSecond), cfg.MaxIOPerSecond)
	}

	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetDescription("Scanning project"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetVisibility(cfg.ShowProgress && progressVisible(os.Stderr)),
		progressbar.OptionClearOnFinish(),
	)
	progressCh := make(chan int, concurrency*4)
	var progressWG sync.WaitGroup
	progressWG.Add(1)
	go func() {
		defer progressWG.Done()
		for delta := range progressCh {
			_ = bar.Add(delta)
		}
	}()

	var skipped atomic.Int64
	tasks := make(chan fileScanTask, concurrency)
	walkErr := make(chan error, 1)

	walker := treeWalker{
		root: root,
		prune: func(rel string, d fs.DirEntry) bool {
			if isHidden(d.Name()) {
				return true
			}
			if d.IsDir() && tables.IsExcludedDir(d.Name()) {
				return true
			}
			return matcher.Excluded(rel)
		},
		unreadable: func(path string, err error) {
			// The subtree is dropped.
			logger.Debugf("Skipping unreadable %s: %v", path, err)
			skipped.Add(1)
		},
	}

	go func() {
		defer close(tasks)
		seq := 0
		walker.visit = func(path, rel string, d fs.DirEntry) error {
			if !d.Type().IsRegular() {
				return nil
			}
			seq++
			select {
			case <-ctx.Done():
				return ctx.Err()
			case tasks <- fileScanTask{path: path, rel: rel, entry: d, seq: seq}:
			}
			if ioLimiter != nil {
				return ioLimiter.Wait(ctx)
			}
			return nil
		}
		walkErr <- walker.walk(ctx)
	}()

	partials := make([][]FileRecord, concurrency)
	var wg sync.WaitGroup
	for i := range concurrency {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			for task := range tasks {
				info, err := task.entry.Info()
				if err != nil {
					logger.Debugf("Skipping %s: %v", task.path, err)
					skipped.Add(1)
					continue
				}
				partials[slot] = append(partials[slot], newRecord(task.path, task.rel, utils.Extension(task.entry.Name()), info.Size(), task.seq))
				progressCh <- 1
			}
		}(i)
	}

	wg.Wait()
	close(progressCh)
	progressWG.Wait()
	_ = bar.Finish()

	if err := <-walkErr; err != nil {
		return nil, 0, fmt.Errorf("walk %s: %w", root, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	total := 0
	for _, p := range partials {
		total += len(p)
	}
	records := make([]FileRecord, 0, total)
	for _, p := range partials {
		records = append(records, p...)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].seq < records[j].seq })
	return records, int(skipped.Load()), nil
}

// isHidden reports dot-prefixed names other than ".env".
func isHidden(name string) bool {
	return strings.HasPrefix(name, ".") && name != ".env"
}

// progressVisible is false when CARBONLINT_DISABLE_PROGRESS is set or out is
// not a terminal.
func progressVisible(out *os.File) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv("CARBONLINT_DISABLE_PROGRESS")))
	if value == "1" || value == "true" || value == "yes" || value == "on" {
		return false
	}
	return out != nil && term.IsTerminal(int(out.Fd()))
}
