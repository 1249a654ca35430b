package catalog

import (
	"context"
	"fmt"
)

// ProgressFunc receives human-readable loading updates, e.g. for a spinner.
type ProgressFunc func(msg string)

type progressKey struct{}

// WithProgress attaches fn to ctx for the loaders below it.
func WithProgress(ctx context.Context, fn ProgressFunc) context.Context {
	return context.WithValue(ctx, progressKey{}, fn)
}

// Progressf formats and reports an update. Requests without a callback, such
// as gateway and MCP calls, skip the formatting entirely.
func Progressf(ctx context.Context, format string, args ...any) {
	fn, ok := ctx.Value(progressKey{}).(ProgressFunc)
	if !ok || fn == nil {
		return
	}
	fn(fmt.Sprintf(format, args...))
}
