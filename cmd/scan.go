package main

import (
	"fmt"
	"io"
	"strings"

	"carbonlint/apperr"
	"carbonlint/config"
	"carbonlint/history"
	"carbonlint/logger"
	"carbonlint/output"
	"carbonlint/scanner"
	"carbonlint/tables"
	"carbonlint/tracing"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

type scanOptions struct {
	region      string
	budget      float64
	profile     string
	pue         float64
	jsonOut     bool
	format      string
	ci          bool
	outputFile  string
	chart       bool
	save        bool
	dbPath      string
	exclude     []string
	concurrency int
	maxIO       int
	logLevel    string
	otelURL     string
	otelHeaders string
	otelFromEnv bool
	noProgress  bool
	traceFile   string
}

func newScanCmd() *cobra.Command {
	opts := &scanOptions{}
	cmd := &cobra.Command{
		Use:   "scan [path]",
		Short: "Scan a project and report its estimated carbon footprint",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd, args, opts)
		},
	}
	addScanFlags(cmd, opts)
	return cmd
}

func addScanFlags(cmd *cobra.Command, opts *scanOptions) {
	f := cmd.Flags()
	f.StringVarP(&opts.region, "region", "r", "", "carbon intensity region (see `carbonlint regions`)")
	f.Float64VarP(&opts.budget, "budget", "b", 0, "carbon budget in grams")
	f.StringVar(&opts.profile, "profile", "", "hardware profile (laptop, desktop, server)")
	f.Float64Var(&opts.pue, "pue", 0, "power usage effectiveness multiplier (>= 1)")
	f.BoolVar(&opts.jsonOut, "json", false, "output results as JSON (same as --format json)")
	f.StringVar(&opts.format, "format", "", "output format: text, json or yaml")
	f.BoolVar(&opts.ci, "ci", false, "exit with code 1 when the estimate is over budget")
	f.StringVarP(&opts.outputFile, "output", "o", "", "write the report to a file instead of stdout")
	f.BoolVar(&opts.chart, "chart", false, "add a breakdown bar chart to text reports")
	f.BoolVar(&opts.save, "save", false, "record this run in the local history database")
	f.StringVar(&opts.dbPath, "db", "", "history database path (default: user config dir)")
	f.StringSliceVar(&opts.exclude, "exclude", nil,
		"additional glob or regex patterns to skip (always skipped: "+strings.Join(tables.ExcludedDirs(), ", ")+")")
	f.IntVar(&opts.concurrency, "concurrency", 0, "number of stat workers (default: CPU count)")
	f.IntVar(&opts.maxIO, "max-io-per-second", 0, "limit file discoveries per second (0 = unlimited)")
	f.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")
	f.StringVar(&opts.otelURL, "otel-endpoint", "", "OTLP/HTTP logs endpoint to export results to")
	f.StringVar(&opts.otelHeaders, "otel-header", "", "OTLP headers as k=v,k2=v2")
	f.BoolVar(&opts.otelFromEnv, "otel-from-env", false, "read the OTLP endpoint from OTEL_EXPORTER_OTLP_* variables")
	f.BoolVar(&opts.noProgress, "no-progress", false, "disable the progress spinner")
	f.StringVar(&opts.traceFile, "trace", "", "write a runtime execution trace (trace builds only)")
	_ = f.MarkHidden("trace")
}

// resolveScanConfig loads the nearest configuration file for path and
// applies explicitly set flags over it.
func resolveScanConfig(cmd *cobra.Command, path string, opts *scanOptions) (*config.Config, error) {
	cfg := config.Load(path)
	flags := cmd.Flags()

	if flags.Changed("region") {
		if _, ok := tables.LookupRegion(opts.region); !ok {
			return nil, apperr.Userf("Unknown region: %s (available: %s)", opts.region, strings.Join(tables.RegionKeys(), ", "))
		}
		cfg.Region = strings.ToUpper(opts.region)
	}
	if flags.Changed("profile") {
		if _, ok := tables.LookupHardwareProfile(opts.profile); !ok {
			return nil, apperr.Userf("Unknown hardware profile: %s (available: laptop, desktop, server)", opts.profile)
		}
		cfg.HardwareProfile = strings.ToLower(opts.profile)
	}
	if flags.Changed("budget") {
		cfg.MaxCarbon = opts.budget
	}
	if flags.Changed("pue") {
		cfg.PUE = opts.pue
	}
	if opts.ci {
		cfg.FailOnThreshold = true
	}
	if len(opts.exclude) > 0 {
		cfg.Exclude = append(cfg.Exclude, opts.exclude...)
	}
	if flags.Changed("concurrency") {
		cfg.Concurrency = opts.concurrency
	}
	if flags.Changed("max-io-per-second") {
		cfg.MaxIOPerSecond = opts.maxIO
	}
	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}
	if opts.otelURL != "" {
		cfg.OtelEndpoint = opts.otelURL
	}
	if opts.otelHeaders != "" {
		if cfg.OtelHeaders == nil {
			cfg.OtelHeaders = map[string]string{}
		}
		for k, v := range config.ParseHeaders(opts.otelHeaders) {
			cfg.OtelHeaders[k] = v
		}
	}
	if opts.otelFromEnv {
		cfg.OtelFromEnv = true
	}

	cfg.OutputFormat = config.Default().OutputFormat
	if opts.format != "" {
		cfg.OutputFormat = strings.ToLower(opts.format)
	}
	if opts.jsonOut {
		cfg.OutputFormat = output.FormatJSON
	}
	cfg.OutputFile = opts.outputFile
	cfg.ShowProgress = !opts.noProgress && cfg.OutputFormat == output.FormatText

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runScan(cmd *cobra.Command, args []string, opts *scanOptions) error {
	path := "."
	if len(args) > 0 {
		path = args[0]
	}
	cfg, err := resolveScanConfig(cmd, path, opts)
	if err != nil {
		return err
	}
	logger.Init(cfg.LogLevel)
	if cfg.SourceFile != "" {
		logger.Debugf("Using configuration %s", cfg.SourceFile)
	}

	if opts.traceFile != "" {
		if !tracing.Enabled() {
			logger.Warn("Tracing requested but this binary was built without the trace tag")
		}
		if err := tracing.Start(opts.traceFile); err != nil {
			logger.Warnf("Failed to start trace: %v", err)
		} else {
			defer tracing.Stop()
		}
	}

	exporter, err := output.NewExporter(cfg)
	if err != nil {
		logger.Warnf("OTEL export disabled: %v", err)
	}
	defer exporter.Shutdown()

	ctx := cmd.Context()
	res, err := scanner.Scan(ctx, path, cfg)
	if err != nil {
		return err
	}

	reportOpts := output.Options{Format: cfg.OutputFormat, Chart: opts.chart}
	if cfg.OutputFile != "" {
		if err := output.WriteFile(cfg.OutputFile, res, reportOpts); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		logger.Infof("Report written to %s", cfg.OutputFile)
	} else if err := output.Write(cmd.OutOrStdout(), res, reportOpts); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	exporter.ExportResult(ctx, res)

	if opts.save {
		if err := saveRun(cmd, opts.dbPath, res); err != nil {
			logger.Warnf("Failed to record run: %v", err)
		}
	}

	if cfg.FailOnThreshold && res.OverBudget {
		if cfg.OutputFormat == output.FormatText && cfg.OutputFile == "" {
			printCIFailure(cmd.OutOrStdout(), res)
		}
		return apperr.BudgetExceeded(res.CarbonGrams, res.Budget)
	}
	return nil
}

func printCIFailure(w io.Writer, res *scanner.Result) {
	fail := lipgloss.NewStyle().Foreground(lipgloss.Color("#d73027")).Bold(true)
	dim := lipgloss.NewStyle().Faint(true)
	fmt.Fprintf(w, "  %s%s\n\n", fail.Render("✗ CI CHECK FAILED"),
		dim.Render(fmt.Sprintf(" · carbon %.4fg exceeds budget %gg", res.CarbonGrams, res.Budget)))
}

func saveRun(cmd *cobra.Command, dbPath string, res *scanner.Result) error {
	store, err := openHistory(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()
	run, err := store.Save(cmd.Context(), history.NewRun(res))
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Recorded run %s\n", run.ID)
	return nil
}
