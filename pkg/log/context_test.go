package log

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestCtxReturnsStoredLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "debug"}).Output(&buf)
	ctx := WithLogger(context.Background(), &logger)

	// Chained directly on the return value; Ctx must hand back something
	// the level methods can be called on.
	Ctx(ctx).Info().Str("k", "v").Msg("request scoped entry")

	out := buf.String()
	if !strings.Contains(out, "request scoped entry") {
		t.Fatalf("log output = %q, want the request entry", out)
	}
	if !strings.Contains(out, `"k":"v"`) {
		t.Fatalf("log output = %q, want structured field", out)
	}
}

func TestCtxFallsBackToGlobalLogger(t *testing.T) {
	if got := Ctx(context.Background()); got != L() {
		t.Fatal("context without a logger should fall back to the global one")
	}
	// The global logger is chainable in the same way.
	L().Debug().Msg("global fallback entry")
}
