//go:build trace

// Package tracing wraps runtime/trace. Builds without the "trace" tag get
// no-op stubs.
package tracing

import (
	"context"
	"os"
	"runtime/trace"
)

var traceFile *os.File

// Start writes an execution trace to path until Stop is called.
func Start(path string) error {
	if path == "" {
		return nil
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := trace.Start(f); err != nil {
		_ = f.Close()
		return err
	}
	traceFile = f
	return nil
}

func Stop() {
	if traceFile == nil {
		return
	}
	trace.Stop()
	_ = traceFile.Close()
	traceFile = nil
}

func StartTask(ctx context.Context, name string) (context.Context, func()) {
	ctx, task := trace.NewTask(ctx, name)
	return ctx, task.End
}

func StartRegion(ctx context.Context, name string) func() {
	return trace.StartRegion(ctx, name).End
}

// Log adds a trace event with the provided category and message.
func Log(ctx context.Context, category, message string) {
	trace.Log(ctx, category, message)
}

// Enabled reports whether this binary was built with tracing support.
func Enabled() bool { return true }
