// SPDX-License-Identifier: MIT
package analysis

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"wavbeep/pkg/utils"
)

const (
	testSampleRate = 44100
	testWindowMS   = 50
)

func newTestAnalyzer(t testing.TB, sampleRate, windowMS int) *Analyzer {
	t.Helper()
	g, err := NewGeometry(sampleRate, windowMS)
	if err != nil {
		t.Fatalf("NewGeometry(%d, %d) error: %v", sampleRate, windowMS, err)
	}
	a, err := NewAnalyzer(g, Blackman)
	if err != nil {
		t.Fatalf("NewAnalyzer() error: %v", err)
	}
	return a
}

func TestNewGeometry(t *testing.T) {
	tests := []struct {
		name                string
		sampleRate, ms      int
		size, overlap, step int
		wantErr             bool
	}{
		{"CD 50ms", 44100, 50, 2205, 1102, 1103, false},
		{"8k 50ms", 8000, 50, 400, 200, 200, false},
		{"CD 1ms", 44100, 1, 44, 22, 22, false},
		{"Odd size", 11025, 1, 11, 5, 6, false},
		{"Zero window", 8000, 0, 0, 0, 0, true},
		{"Negative window", 8000, -10, 0, 0, 0, true},
		{"Rounds to zero", 100, 1, 0, 0, 0, true},
		{"Single sample", 1000, 1, 0, 0, 0, true},
		{"No sample rate", 0, 50, 0, 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := NewGeometry(tt.sampleRate, tt.ms)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("NewGeometry() = %+v, want error", g)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewGeometry() unexpected error: %v", err)
			}
			if g.Size != tt.size || g.Overlap != tt.overlap || g.Step != tt.step {
				t.Errorf("NewGeometry() = %+v, want size=%d overlap=%d step=%d", g, tt.size, tt.overlap, tt.step)
			}
		})
	}
}

func TestNewGeometryErrorClass(t *testing.T) {
	_, err := NewGeometry(8000, 0)
	if !errors.Is(err, ErrWindowTooSmall) {
		t.Errorf("NewGeometry(8000, 0) error = %v, want ErrWindowTooSmall", err)
	}
}

func TestGeometryCounts(t *testing.T) {
	g, _ := NewGeometry(testSampleRate, testWindowMS)

	if got := g.Windows(44100); got != 39 {
		t.Errorf("Windows(44100) = %d, want 39", got)
	}
	if got := g.Analyzed(44100); got != 39*1103 {
		t.Errorf("Analyzed(44100) = %d, want %d", got, 39*1103)
	}
	if got := g.Windows(1102); got != 0 {
		t.Errorf("Windows(1102) = %d, want 0", got)
	}
	if got := g.BinWidth(); got != 20 {
		t.Errorf("BinWidth() = %v, want 20", got)
	}
	if got := g.Bins(); got != 1102 {
		t.Errorf("Bins() = %d, want 1102", got)
	}
}

func TestDominantFrequency(t *testing.T) {
	a := newTestAnalyzer(t, testSampleRate, testWindowMS)
	size := a.Geometry().Size

	tests := []struct {
		name  string
		chunk []float64
		want  float64
	}{
		{"440 Hz", utils.GenerateSineWave(size, testSampleRate, 440), 440},
		{"1000 Hz", utils.GenerateSineWave(size, testSampleRate, 1000), 1000},
		{"Harmonics keep fundamental", utils.GenerateComplexWave(size, testSampleRate), 440},
		{"Silence is bin 0", make([]float64, size), 0},
		{"Zero-padded half window", utils.GenerateSineWave(a.Geometry().Step, testSampleRate, 440), 440},
		{"Empty chunk", nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := a.DominantFrequency(tt.chunk); got != tt.want {
				t.Errorf("DominantFrequency() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDominantFrequencyIsBinAligned(t *testing.T) {
	a := newTestAnalyzer(t, 8000, 50)
	width := a.Geometry().BinWidth()
	hz := a.DominantFrequency(utils.GenerateSineWave(a.Geometry().Size, 8000, 1230))

	if bin := hz / width; bin != math.Trunc(bin) {
		t.Errorf("DominantFrequency() = %v, not a multiple of the %v Hz bin width", hz, width)
	}
	if math.Abs(hz-1230) > width {
		t.Errorf("DominantFrequency() = %v, want within one bin of 1230", hz)
	}
}

type fixedEstimator struct {
	g      Geometry
	chunks [][]float64
}

func (f *fixedEstimator) Geometry() Geometry { return f.g }

func (f *fixedEstimator) DominantFrequency(chunk []float64) float64 {
	f.chunks = append(f.chunks, chunk)
	return float64(len(f.chunks))
}

func TestEstimateWindowing(t *testing.T) {
	est := &fixedEstimator{g: Geometry{SampleRate: 1000, Size: 10, Step: 5}}
	samples := make([]float64, 27)
	for i := range samples {
		samples[i] = float64(i)
	}

	got := Estimate(est, samples)
	if want := []float64{1, 2, 3, 4, 5}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Estimate() = %v, want %v", got, want)
	}
	for i, c := range est.chunks {
		if c[0] != float64(i*5) {
			t.Errorf("window %d starts at sample %v, want %d", i, c[0], i*5)
		}
	}
	if last := est.chunks[len(est.chunks)-1]; len(last) != 5 {
		t.Errorf("last window has %d samples, want 5", len(last))
	}
}

func TestDominantFrequencyIgnoresDCOffset(t *testing.T) {
	a := newTestAnalyzer(t, testSampleRate, testWindowMS)
	chunk := utils.GenerateSineWave(a.Geometry().Size, testSampleRate, 440)
	// Without mean removal bin 0 would outweigh the 440 Hz peak.
	for i := range chunk {
		chunk[i] += 0.6
	}

	if got := a.DominantFrequency(chunk); got != 440 {
		t.Errorf("DominantFrequency() with DC offset = %v, want 440", got)
	}
}

func TestAnalyzeWindowCount(t *testing.T) {
	a := newTestAnalyzer(t, testSampleRate, testWindowMS)
	samples := utils.GenerateSineWave(testSampleRate, testSampleRate, 440)

	estimates := a.Analyze(samples)
	if len(estimates) != 39 {
		t.Fatalf("Analyze() produced %d estimates, want 39", len(estimates))
	}
	for i, hz := range estimates {
		if hz != 440 {
			t.Errorf("window %d estimate = %v, want 440", i, hz)
		}
	}
}

func TestAnalyzeTooShort(t *testing.T) {
	a := newTestAnalyzer(t, testSampleRate, testWindowMS)
	if got := a.Analyze(make([]float64, 100)); len(got) != 0 {
		t.Errorf("Analyze() on 100 samples = %v, want no windows", got)
	}
}

func TestAnalyzeWithGate(t *testing.T) {
	a := newTestAnalyzer(t, 8000, 50)
	a.SetGate(NewGate(0.05))

	// 0.5 s loud tone, 0.5 s whisper.
	loud := utils.GenerateSineWave(4000, 8000, 440)
	quiet := utils.GenerateSineWave(4000, 8000, 440)
	for i := range quiet {
		quiet[i] *= 0.01
	}

	estimates := a.Analyze(append(loud, quiet...))
	if estimates[0] != 440 {
		t.Errorf("first window = %v, want 440", estimates[0])
	}
	if last := estimates[len(estimates)-1]; last != 0 {
		t.Errorf("last window = %v, want 0 (gated)", last)
	}
}

func TestParseWindowFunc(t *testing.T) {
	tests := []struct {
		in      string
		want    WindowFunc
		wantErr bool
	}{
		{"", Blackman, false},
		{"Blackman", Blackman, false},
		{"hanning", Hann, false},
		{"HAMMING", Hamming, false},
		{"none", Rectangular, false},
		{"kaiser", Blackman, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseWindowFunc(tt.in)
			if got != tt.want || (err != nil) != tt.wantErr {
				t.Errorf("ParseWindowFunc(%q) = (%v, %v), want (%v, err=%v)", tt.in, got, err, tt.want, tt.wantErr)
			}
		})
	}
}

func TestBlackmanCoefficients(t *testing.T) {
	const n = 9
	coeffs := make([]float64, n)
	applyWindow(coeffs, Blackman)

	for k, c := range coeffs {
		x := 2 * math.Pi * float64(k) / float64(n-1)
		want := 0.42 - 0.5*math.Cos(x) + 0.08*math.Cos(2*x)
		if math.Abs(c-want) > 1e-12 {
			t.Errorf("coeff[%d] = %v, want %v", k, c, want)
		}
	}
}

func TestGate(t *testing.T) {
	tests := []struct {
		name   string
		gate   Gate
		chunk  []float64
		closed bool
	}{
		{"Disabled", NewGate(0), []float64{0, 0}, false},
		{"Clamped above one", NewGate(5), []float64{0.99, -0.99}, true},
		{"Clamped below zero", NewGate(-1), nil, false},
		{"Loud passes", NewGate(0.1), []float64{0.5, -0.5}, false},
		{"Quiet closes", NewGate(0.1), []float64{0.01, -0.01}, true},
		{"Empty closes", NewGate(0.1), nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.gate.Closed(tt.chunk); got != tt.closed {
				t.Errorf("Closed() = %v, want %v", got, tt.closed)
			}
		})
	}
}

func TestDominantFrequencyZeroAllocs(t *testing.T) {
	a := newTestAnalyzer(t, testSampleRate, testWindowMS)
	chunk := utils.GenerateComplexWave(a.Geometry().Size, testSampleRate)

	// Warm-up call.
	a.DominantFrequency(chunk)
	allocs := testing.AllocsPerRun(100, func() {
		a.DominantFrequency(chunk)
	})

	if allocs > 0 {
		t.Errorf("Expected zero allocations in DominantFrequency, got %.1f", allocs)
	}
}

func BenchmarkDominantFrequency(b *testing.B) {
	a := newTestAnalyzer(b, testSampleRate, testWindowMS)
	chunk := utils.GenerateComplexWave(a.Geometry().Size, testSampleRate)

	b.ReportAllocs()
	for b.Loop() {
		a.DominantFrequency(chunk)
	}
}
