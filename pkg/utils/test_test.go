// SPDX-License-Identifier: MIT
package utils

import (
	"errors"
	"math"
	"os"
	"testing"

	"wavbeep/internal/tone"
)

const (
	testSize       = 1024
	testSampleRate = 44100
	testFrequency  = 440.0 // A4 note
)

var testSineWave []float64

func TestMain(m *testing.M) {
	testSineWave = GenerateSineWave(testSize, testSampleRate, testFrequency)

	os.Exit(m.Run())
}

func TestMockRenderer(t *testing.T) {
	tests := []struct {
		name string
		seq  tone.Sequence
	}{
		{"Empty Sequence", tone.Sequence{}},
		{"Single Event", tone.Sequence{{DurationMS: 50, Hz: 440}}},
		{"Multiple Events", tone.Sequence{{DurationMS: 50, Hz: 440}, {DurationMS: 100, Hz: 1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mr := &MockRenderer{}
			if err := mr.Render(tt.seq); err != nil {
				t.Fatalf("Render() error = %v", err)
			}
			if len(mr.Rendered) != 1 || len(mr.Rendered[0]) != len(tt.seq) {
				t.Fatalf("Render() stored %v, want one copy of %v", mr.Rendered, tt.seq)
			}
			if len(tt.seq) > 0 {
				orig := tt.seq[0]
				tt.seq[0].Hz = 999.999
				if mr.Rendered[0][0].Hz == 999.999 {
					t.Errorf("Render() stored reference instead of copy")
				}
				tt.seq[0] = orig
			}
		})
	}
}

func TestMockRendererError(t *testing.T) {
	want := errors.New("boom")
	mr := &MockRenderer{Err: want}
	if err := mr.Render(tone.Sequence{{DurationMS: 1, Hz: 1}}); !errors.Is(err, want) {
		t.Errorf("Render() error = %v, want %v", err, want)
	}
	if len(mr.Rendered) != 0 {
		t.Errorf("Render() stored a sequence despite failing")
	}
}

func TestGenerateSineWave(t *testing.T) {
	if len(testSineWave) != testSize {
		t.Fatalf("length = %d, want %d", len(testSineWave), testSize)
	}
	if testSineWave[0] != 0 {
		t.Errorf("first sample = %f, want 0", testSineWave[0])
	}
	for i, s := range testSineWave {
		if math.Abs(s) > 0.9+1e-12 {
			t.Fatalf("sample %d = %f exceeds amplitude 0.9", i, s)
		}
	}
}

func TestGenerateToneSteps(t *testing.T) {
	buf := GenerateToneSteps(100, testSampleRate, 440, 0, 880)
	if len(buf) != 300 {
		t.Fatalf("length = %d, want 300", len(buf))
	}
	for i := 100; i < 200; i++ {
		if buf[i] != 0 {
			t.Fatalf("silent segment sample %d = %f", i, buf[i])
		}
	}
}
