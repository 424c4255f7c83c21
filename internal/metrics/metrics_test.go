package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveConversion(t *testing.T) {
	okBefore := testutil.ToFloat64(ConversionsTotal.WithLabelValues("ok"))
	windowsBefore := testutil.ToFloat64(WindowsTotal)
	eventsBefore := testutil.ToFloat64(EventsTotal)

	ObserveConversion(39, 1, 1.0, 12*time.Millisecond)

	if got := testutil.ToFloat64(ConversionsTotal.WithLabelValues("ok")) - okBefore; got != 1 {
		t.Errorf("ok conversions grew by %v, want 1", got)
	}
	if got := testutil.ToFloat64(WindowsTotal) - windowsBefore; got != 39 {
		t.Errorf("windows grew by %v, want 39", got)
	}
	if got := testutil.ToFloat64(EventsTotal) - eventsBefore; got != 1 {
		t.Errorf("events grew by %v, want 1", got)
	}
	if got := testutil.ToFloat64(AnalyzedSeconds); got != 1.0 {
		t.Errorf("analyzed seconds = %v, want 1", got)
	}
}

func TestObserveFailures(t *testing.T) {
	errBefore := testutil.ToFloat64(ConversionsTotal.WithLabelValues("error"))
	beepBefore := testutil.ToFloat64(RenderFailuresTotal.WithLabelValues("beep"))

	ObserveFailure()
	ObserveRenderFailure("beep")
	ObserveRenderFailure("beep")

	if got := testutil.ToFloat64(ConversionsTotal.WithLabelValues("error")) - errBefore; got != 1 {
		t.Errorf("error conversions grew by %v, want 1", got)
	}
	if got := testutil.ToFloat64(RenderFailuresTotal.WithLabelValues("beep")) - beepBefore; got != 2 {
		t.Errorf("beep failures grew by %v, want 2", got)
	}
}

func TestWriteTextfile(t *testing.T) {
	ObserveConversion(10, 2, 0.25, time.Millisecond)
	path := filepath.Join(t.TempDir(), "wavbeep.prom")

	if err := WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile() error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	text := string(data)
	for _, name := range []string{
		"wavbeep_conversions_total",
		"wavbeep_windows_analyzed_total",
		"wavbeep_tone_events_total",
		"wavbeep_last_analyzed_seconds",
		"wavbeep_conversion_duration_ms_bucket",
	} {
		if !strings.Contains(text, name) {
			t.Errorf("textfile missing %s", name)
		}
	}
	if strings.Contains(text, "go_goroutines") {
		t.Error("textfile contains runtime collectors")
	}
}

func TestWriteTextfileBadPath(t *testing.T) {
	if err := WriteTextfile(filepath.Join(t.TempDir(), "missing", "x.prom")); err == nil {
		t.Error("WriteTextfile() into a missing directory succeeded")
	}
}
