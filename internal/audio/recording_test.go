// SPDX-License-Identifier: MIT
package audio

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"wavbeep/internal/config"
	applog "wavbeep/internal/log"
	"wavbeep/internal/wave"
)

func TestMain(m *testing.M) {
	applog.SetLevel(applog.LevelError)
	os.Exit(m.Run())
}

func newTestRecorder(t *testing.T) *Recorder {
	t.Helper()
	cfg := &config.RecordingConfig{
		Seconds:         1,
		SampleRate:      8000,
		Channels:        1,
		BitDepth:        16,
		FramesPerBuffer: testFrameSize,
	}
	return &Recorder{
		config:      cfg,
		inputBuffer: make([]int32, cfg.FramesPerBuffer*cfg.Channels),
	}
}

func isDone(r *Recorder) bool {
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}

func TestStartStopRecording(t *testing.T) {
	r := newTestRecorder(t)
	path := filepath.Join(t.TempDir(), "take.wav")

	if err := r.StartRecording(path); err != nil {
		t.Fatalf("StartRecording() error: %v", err)
	}
	if !r.recording() {
		t.Error("recording() = false after StartRecording")
	}
	if got := r.loadFramesLeft(); got != 8000 {
		t.Errorf("frame budget = %d, want 8000", got)
	}
	if err := r.StartRecording(path); err == nil {
		t.Error("second StartRecording() succeeded")
	}

	if err := r.StopRecording(); err != nil {
		t.Fatalf("StopRecording() error: %v", err)
	}
	if r.recording() {
		t.Error("recording() = true after StopRecording")
	}
	if err := r.StopRecording(); err != nil {
		t.Errorf("repeated StopRecording() error: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("output file missing: %v", err)
	}
}

func TestStartRecordingBadPath(t *testing.T) {
	r := newTestRecorder(t)
	path := filepath.Join(t.TempDir(), "missing", "take.wav")

	if err := r.StartRecording(path); err == nil {
		t.Fatal("StartRecording() into a missing directory succeeded")
	}
	if r.recording() {
		t.Error("recording() = true after a failed start")
	}
}

func TestProcessBufferIgnoredWhenIdle(t *testing.T) {
	r := newTestRecorder(t)
	r.processBuffer(testBuffer(1 << 24))
	if r.done != nil {
		t.Error("idle recorder touched its done channel")
	}
}

func TestRecordingStopsAtFrameBudget(t *testing.T) {
	r := newTestRecorder(t)
	path := filepath.Join(t.TempDir(), "take.wav")
	if err := r.StartRecording(path); err != nil {
		t.Fatal(err)
	}

	buf := testBuffer(1 << 24)
	calls := 0
	for !isDone(r) {
		if calls > 100 {
			t.Fatal("frame budget never ran out")
		}
		r.processBuffer(buf)
		calls++
	}
	if want := (8000 + testFrameSize - 1) / testFrameSize; calls != want {
		t.Errorf("finished after %d buffers, want %d", calls, want)
	}

	// Further buffers are dropped.
	r.processBuffer(buf)

	if err := r.StopRecording(); err != nil {
		t.Fatal(err)
	}

	w, err := wave.Load(path, 0)
	if err != nil {
		t.Fatalf("wave.Load() error: %v", err)
	}
	if w.SampleRate != 8000 || w.Len() != 8000 {
		t.Fatalf("recorded %d samples at %d Hz, want 8000 at 8000 Hz", w.Len(), w.SampleRate)
	}
	want := 256.0 / 32768
	for i, v := range w.Samples[:4] {
		if math.Abs(math.Abs(v)-want) > 1e-12 {
			t.Errorf("sample %d = %v, want +/-%v", i, v, want)
		}
	}
}

func TestRecordingWaitsForTrigger(t *testing.T) {
	r := newTestRecorder(t)
	r.SetGateThreshold(0.25)
	r.EnableGate()

	path := filepath.Join(t.TempDir(), "take.wav")
	if err := r.StartRecording(path); err != nil {
		t.Fatal(err)
	}

	quiet := testBuffer(1 << 20)
	for range 10 {
		r.processBuffer(quiet)
	}
	if got := r.loadFramesLeft(); got != 8000 {
		t.Fatalf("frames left = %d before trigger, want 8000", got)
	}

	r.processBuffer(testBuffer(1 << 30))
	r.processBuffer(quiet)
	if got, want := r.loadFramesLeft(), int64(8000-2*testFrameSize); got != want {
		t.Errorf("frames left = %d, want %d", got, want)
	}

	if err := r.StopRecording(); err != nil {
		t.Fatal(err)
	}
	w, err := wave.Load(path, 0)
	if err != nil {
		t.Fatal(err)
	}
	if w.Len() != 2*testFrameSize {
		t.Errorf("recorded %d samples, want %d", w.Len(), 2*testFrameSize)
	}
}

func TestRecorderCloseWithoutStream(t *testing.T) {
	r := newTestRecorder(t)
	if err := r.StartRecording(filepath.Join(t.TempDir(), "take.wav")); err != nil {
		t.Fatal(err)
	}
	if err := r.Close(); err != nil {
		t.Errorf("Close() error: %v", err)
	}
	if r.recording() {
		t.Error("recording() = true after Close")
	}
}

func TestEachTakeGetsAFullBudget(t *testing.T) {
	r := newTestRecorder(t)
	dir := t.TempDir()

	if err := r.StartRecording(filepath.Join(dir, "first.wav")); err != nil {
		t.Fatal(err)
	}
	for range 3 {
		r.processBuffer(testBuffer(1 << 24))
	}
	if err := r.StopRecording(); err != nil {
		t.Fatal(err)
	}

	second := filepath.Join(dir, "second.wav")
	if err := r.StartRecording(second); err != nil {
		t.Fatal(err)
	}
	if got := r.loadFramesLeft(); got != r.budget() {
		t.Errorf("frames left = %d on a new take, want %d", got, r.budget())
	}
	r.processBuffer(testBuffer(1 << 24))
	if err := r.StopRecording(); err != nil {
		t.Fatal(err)
	}

	w, err := wave.Load(second, 0)
	if err != nil {
		t.Fatal(err)
	}
	if w.Len() != testFrameSize {
		t.Errorf("second take has %d samples, want %d", w.Len(), testFrameSize)
	}
}
