package logger

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestNewLevelAndServiceField(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: "warn", Output: &buf})
	l.Info().Msg("hidden")
	l.Warn().Msg("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info line written at warn level: %s", out)
	}
	if !strings.Contains(out, `"service":"tripchat"`) || !strings.Contains(out, "shown") {
		t.Fatalf("unexpected output: %s", out)
	}
}

func TestWithCarriesLoggerInContext(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: "debug", Output: &buf}).With().Str("request_id", "r1").Logger()
	ctx := With(context.Background(), l)
	zerolog.Ctx(ctx).Debug().Msg("hello")
	if !strings.Contains(buf.String(), `"request_id":"r1"`) {
		t.Fatalf("context logger lost fields: %s", buf.String())
	}
}
