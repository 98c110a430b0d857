package curvefit

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestNopHandler(t *testing.T) {
	h := nopHandler{}
	for _, level := range []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError} {
		if h.Enabled(context.Background(), level) {
			t.Errorf("nopHandler.Enabled(%v) = true, want false", level)
		}
	}
	if err := h.Handle(context.Background(), slog.Record{}); err != nil {
		t.Errorf("nopHandler.Handle() = %v, want nil", err)
	}
	if _, ok := h.WithAttrs([]slog.Attr{slog.Int("n", 1)}).(nopHandler); !ok {
		t.Error("nopHandler.WithAttrs() didn't return a nopHandler")
	}
	if _, ok := h.WithGroup("g").(nopHandler); !ok {
		t.Error("nopHandler.WithGroup() didn't return a nopHandler")
	}
}

func TestLoggerDefaultSilent(t *testing.T) {
	if Logger() == nil {
		t.Fatal("Logger() returned nil")
	}
	if debugEnabled() {
		t.Error("default logger is enabled for debug records")
	}
}

func TestSetLogger(t *testing.T) {
	orig := Logger()
	t.Cleanup(func() { SetLogger(orig) })

	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	if !debugEnabled() {
		t.Fatal("debug records are disabled")
	}

	pts := sinePoints(30, 1)
	if _, err := FitCubics(pts, 2, 0.01, nil, DefaultFitOptions); err != nil {
		t.Fatal(err)
	}
	if _, err := Refit(pts, 2, 0.01, nil, DefaultRefitOptions); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{`msg="fit cubics"`, "msg=refit", "points=30", "knots="} {
		if !strings.Contains(out, want) {
			t.Errorf("log output doesn't contain %q:\n%s", want, out)
		}
	}
}

func TestSetLoggerNilRestoresSilent(t *testing.T) {
	orig := Logger()
	t.Cleanup(func() { SetLogger(orig) })

	SetLogger(slog.Default())
	SetLogger(nil)
	if l := Logger(); l == nil || l.Enabled(context.Background(), slog.LevelError) {
		t.Error("SetLogger(nil) didn't restore the silent logger")
	}
}
