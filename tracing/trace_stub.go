//go:build !trace

package tracing

import "context"

// Start is a no-op when tracing is disabled.
func Start(path string) error { return nil }

func Stop() {}

func StartTask(ctx context.Context, name string) (context.Context, func()) {
	return ctx, func() {}
}

func StartRegion(ctx context.Context, name string) func() {
	return func() {}
}

func Log(ctx context.Context, category, message string) {}

func Enabled() bool { return false }
