// Package debugctx carries the debug switch on a context.Context so CLI
// plumbing stays quiet unless the --debug flag or config asks otherwise.
package debugctx

import (
	"context"
	"fmt"
	"io"
	"strings"
)

type enabledKey struct{}

func WithEnabled(ctx context.Context, enabled bool) context.Context {
	return context.WithValue(ctx, enabledKey{}, enabled)
}

func Enabled(ctx context.Context) bool {
	if ctx == nil {
		return false
	}

	enabled, _ := ctx.Value(enabledKey{}).(bool)
	return enabled
}

// Printf writes a debug line to writer when debugging is enabled for ctx.
// Blank messages are dropped so callers can format unconditionally.
func Printf(ctx context.Context, writer io.Writer, format string, args ...any) {
	if !Enabled(ctx) || writer == nil {
		return
	}

	message := strings.TrimSpace(fmt.Sprintf(format, args...))
	if message == "" {
		return
	}

	_, _ = fmt.Fprintf(writer, "debug: %s\n", message)
}
