package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	"carbonlint/apperr"
	"carbonlint/config"
	"carbonlint/history"
	"carbonlint/logger"
	"carbonlint/output"
)

func init() {
	logger.Init("error")
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func projectDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "main.ts"), make([]byte, 2048), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return dir
}

func decodeReport(t *testing.T, out string) output.Report {
	t.Helper()
	var rep output.Report
	if err := json.Unmarshal([]byte(out), &rep); err != nil {
		t.Fatalf("invalid JSON report: %v\n%s", err, out)
	}
	return rep
}

func TestDefaultCommandScansPath(t *testing.T) {
	dir := projectDir(t)
	out, err := runCLI(t, dir, "--json", "--log-level", "error")
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	rep := decodeReport(t, out)
	if rep.Files != 1 || rep.CarbonGrams != 0.0095 || rep.GreenScore != 100 || rep.Region != "GLOBAL-AVG" {
		t.Fatalf("unexpected report: %+v", rep)
	}
}

func TestScanSubcommandTextReport(t *testing.T) {
	out, err := runCLI(t, "scan", projectDir(t), "--no-progress", "--region", "eu-north")
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if !strings.Contains(out, "EU-NORTH") || !strings.Contains(out, "100/100") {
		t.Fatalf("unexpected text report:\n%s", out)
	}
}

func TestScanYAMLFormat(t *testing.T) {
	out, err := runCLI(t, "scan", projectDir(t), "--format", "yaml")
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if !strings.Contains(out, "greenScore: 100") {
		t.Fatalf("unexpected yaml:\n%s", out)
	}
}

func TestUnknownRegionFlagIsUserError(t *testing.T) {
	_, err := runCLI(t, projectDir(t), "--region", "mars", "--json")
	if !apperr.IsUser(err) {
		t.Fatalf("expected user error, got %v", err)
	}
	if !strings.Contains(err.Error(), "EU-NORTH") {
		t.Fatalf("expected available regions in message, got %q", err.Error())
	}
}

func TestInvalidBudgetIsConfigError(t *testing.T) {
	_, err := runCLI(t, projectDir(t), "--budget", "-1", "--json")
	if !errors.Is(err, config.ErrInvalidConfig) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestNaNPUEFlagIsConfigError(t *testing.T) {
	out, err := runCLI(t, projectDir(t), "--pue", "NaN", "--json")
	if !errors.Is(err, config.ErrInvalidConfig) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if out != "" {
		t.Fatalf("expected no report for an invalid configuration, got %q", out)
	}
}

func TestCIGateFailsOverBudget(t *testing.T) {
	dir := projectDir(t)
	out, err := runCLI(t, dir, "--ci", "--budget", "0.001", "--no-progress")
	if !errors.Is(err, apperr.ErrBudgetExceeded) {
		t.Fatalf("expected budget exceeded, got %v", err)
	}
	if !strings.Contains(out, "CI CHECK FAILED") {
		t.Fatalf("expected CI failure line:\n%s", out)
	}

	if _, err := runCLI(t, dir, "--ci", "--json"); err != nil {
		t.Fatalf("within budget should pass: %v", err)
	}
	if _, err := runCLI(t, dir, "--budget", "0.001", "--json"); err != nil {
		t.Fatalf("over budget without --ci should pass: %v", err)
	}
}

func TestConfigFileIsDiscoveredAndFlagsOverride(t *testing.T) {
	parent := t.TempDir()
	if err := os.WriteFile(filepath.Join(parent, config.FileName), []byte(`{"region":"EU-NORTH","maxCarbon":50,"failOnThreshold":false}`), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	child := filepath.Join(parent, "app")
	if err := os.MkdirAll(child, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(child, "a.go"), make([]byte, 1024), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	out, err := runCLI(t, child, "--json")
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if rep := decodeReport(t, out); rep.Region != "EU-NORTH" || rep.BudgetGrams != 50 {
		t.Fatalf("config file not applied: %+v", rep)
	}

	out, err = runCLI(t, child, "--json", "-r", "US-WEST", "-b", "10")
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if rep := decodeReport(t, out); rep.Region != "US-WEST" || rep.BudgetGrams != 10 {
		t.Fatalf("flags did not override config: %+v", rep)
	}
}

func TestScanWritesOutputFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	out, err := runCLI(t, projectDir(t), "--json", "-o", path)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if out != "" {
		t.Fatalf("expected nothing on stdout, got %q", out)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	decodeReport(t, string(data))
}

func TestInitCreatesConfigOnce(t *testing.T) {
	dir := t.TempDir()
	out, err := runCLI(t, "init", dir)
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if !strings.Contains(out, "Created") {
		t.Fatalf("unexpected output: %s", out)
	}
	data, err := os.ReadFile(filepath.Join(dir, config.FileName))
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(data, &doc); err != nil || len(doc) != 5 {
		t.Fatalf("unexpected config file %s (%v)", data, err)
	}

	out, err = runCLI(t, "init", dir)
	if err != nil {
		t.Fatalf("second init: %v", err)
	}
	if !strings.Contains(out, "already exists") {
		t.Fatalf("expected already-exists notice, got %s", out)
	}
}

func TestRegionsAndProfiles(t *testing.T) {
	out, err := runCLI(t, "regions")
	if err != nil {
		t.Fatalf("regions: %v", err)
	}
	for _, key := range []string{"US-WEST", "EU-NORTH", "GLOBAL-AVG", "ASIA-SOUTH"} {
		if !strings.Contains(out, key) {
			t.Fatalf("missing %s in:\n%s", key, out)
		}
	}

	out, err = runCLI(t, "profiles", "--no-detect")
	if err != nil {
		t.Fatalf("profiles: %v", err)
	}
	for _, key := range []string{"laptop", "desktop", "server"} {
		if !strings.Contains(out, key) {
			t.Fatalf("missing %s in:\n%s", key, out)
		}
	}
}

func TestScanSaveAndHistory(t *testing.T) {
	db := filepath.Join(t.TempDir(), "history.db")
	dir := projectDir(t)
	for i := 0; i < 2; i++ {
		if _, err := runCLI(t, dir, "--json", "--save", "--db", db); err != nil {
			t.Fatalf("scan: %v", err)
		}
	}

	out, err := runCLI(t, "history", "list", "--db", db, "--json")
	if err != nil {
		t.Fatalf("history list: %v", err)
	}
	var runs []history.Run
	if err := json.Unmarshal([]byte(out), &runs); err != nil {
		t.Fatalf("decode runs: %v\n%s", err, out)
	}
	if len(runs) != 2 || runs[0].Files != 1 {
		t.Fatalf("unexpected runs: %+v", runs)
	}

	if out, err := runCLI(t, "history", "show", runs[0].ID, "--db", db); err != nil || !strings.Contains(out, runs[0].ID) {
		t.Fatalf("history show: %v\n%s", err, out)
	}
	if _, err := runCLI(t, "history", "delete", runs[0].ID, "--db", db); err != nil {
		t.Fatalf("history delete: %v", err)
	}
	if _, err := runCLI(t, "history", "show", runs[0].ID, "--db", db); !errors.Is(err, history.ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}

	out, err = runCLI(t, "history", "summary", "--db", db, "--json")
	if err != nil {
		t.Fatalf("history summary: %v", err)
	}
	var sum history.Summary
	if err := json.Unmarshal([]byte(out), &sum); err != nil || sum.Runs != 1 {
		t.Fatalf("unexpected summary %s (%v)", out, err)
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := runCLI(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out, "carbonlint ") {
		t.Fatalf("unexpected version output %q", out)
	}
}

func TestHandleSignalEventCancelsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)

	done := make(chan struct{})
	go func() {
		handleSignalEvent(cancel, sigChan)
		close(done)
	}()

	sigChan <- syscall.SIGTERM

	select {
	case <-ctx.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("expected context to be canceled")
	}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("signal handler did not return")
	}
}

func TestExitCode(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, 0},
		{apperr.ErrCancelled, 0},
		{apperr.BudgetExceeded(150, 100), 1},
		{apperr.Userf("bad flag"), 1},
		{errors.New("boom"), 1},
	}
	for _, c := range cases {
		if got := exitCode(c.err); got != c.want {
			t.Fatalf("exitCode(%v) = %d, want %d", c.err, got, c.want)
		}
	}
}

func TestExcludeHelpListsBuiltInDirectories(t *testing.T) {
	usage := newRootCmd().Flags().Lookup("exclude").Usage
	for _, dir := range []string{"node_modules", ".git", "vendor"} {
		if !strings.Contains(usage, dir) {
			t.Fatalf("expected %q in --exclude help, got %q", dir, usage)
		}
	}
}

func TestHandleSignalEventClosedChannel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigChan := make(chan os.Signal)
	close(sigChan)
	handleSignalEvent(cancel, sigChan)
	if ctx.Err() != nil {
		t.Fatal("closed channel must not cancel")
	}
}
