// SPDX-License-Identifier: MIT
package analysis

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"

	applog "wavbeep/internal/log"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ErrWindowTooSmall is returned when the window duration maps to fewer than
// two samples, which leaves no spectrum to analyze.
var ErrWindowTooSmall = errors.New("analysis window too small")

// Geometry describes how a waveform is sliced into overlapping windows.
type Geometry struct {
	SampleRate int // Samples per second.
	Size       int // Samples per window (w).
	Overlap    int // Samples shared with the next window (w/2).
	Step       int // Offset between window starts (w - overlap).
}

// NewGeometry derives the window geometry for windowMS at sampleRate.
func NewGeometry(sampleRate, windowMS int) (Geometry, error) {
	if sampleRate <= 0 {
		return Geometry{}, fmt.Errorf("sample rate must be positive, got %d", sampleRate)
	}
	if windowMS <= 0 {
		return Geometry{}, fmt.Errorf("%w: window must be positive, got %d ms", ErrWindowTooSmall, windowMS)
	}

	size := int(math.Round(float64(sampleRate) / 1000 * float64(windowMS)))
	if size < 2 {
		return Geometry{}, fmt.Errorf("%w: %d ms at %d Hz is %d samples", ErrWindowTooSmall, windowMS, sampleRate, size)
	}

	overlap := size / 2
	return Geometry{
		SampleRate: sampleRate,
		Size:       size,
		Overlap:    overlap,
		Step:       size - overlap,
	}, nil
}

// Windows returns how many windows start inside the first n samples once n
// is cut down to a whole number of steps.
func (g Geometry) Windows(n int) int {
	return n / g.Step
}

// Analyzed returns the number of samples kept for analysis out of n: the
// largest multiple of the step not above n.
func (g Geometry) Analyzed(n int) int {
	return g.Windows(n) * g.Step
}

// Bins returns the number of non-negative frequency bins inspected per window.
func (g Geometry) Bins() int {
	return g.Size / 2
}

// BinWidth returns the spacing in Hz of the frequency axis: Bins() bins
// spanning 0 to the Nyquist limit.
func (g Geometry) BinWidth() float64 {
	return (float64(g.SampleRate) / 2) / (float64(g.Size) / 2)
}

// Pre-allocated buffers for one window.
type workspace struct {
	input     []float64    // Tapered, zero-mean window.
	fftOutput []complex128 // Size/2 + 1 coefficients from the real FFT.
	magnitude []float64    // |X[k]| for k in [0, Size/2).
	window    []float64    // Taper coefficients.
}

// Analyzer estimates the dominant frequency of each analysis window. It is
// not safe for concurrent use; every call reuses the same workspace.
type Analyzer struct {
	fftCalculator *fourier.FFT
	geometry      Geometry
	windowType    WindowFunc
	gate          Gate
	workspace     workspace
}

var _ Estimator = (*Analyzer)(nil)

// NewAnalyzer builds an analyzer for g. gonum's FFT handles any length, so
// the window size does not need to be a power of 2.
func NewAnalyzer(g Geometry, windowType WindowFunc) (*Analyzer, error) {
	if g.Size < 2 || g.Step <= 0 || g.SampleRate <= 0 {
		return nil, fmt.Errorf("%w: invalid geometry %+v", ErrWindowTooSmall, g)
	}

	coeffs := make([]float64, g.Size)
	applyWindow(coeffs, windowType)

	applog.Debugf("Analysis: Initializing Analyzer (Size: %d, Step: %d, SampleRate: %d Hz, Window: %v)",
		g.Size, g.Step, g.SampleRate, windowType)

	return &Analyzer{
		fftCalculator: fourier.NewFFT(g.Size),
		geometry:      g,
		windowType:    windowType,
		workspace: workspace{
			input:     make([]float64, g.Size),
			fftOutput: make([]complex128, g.Size/2+1),
			magnitude: make([]float64, g.Bins()),
			window:    coeffs,
		},
	}, nil
}

// SetGate installs a silence gate. The zero Gate is disabled.
func (a *Analyzer) SetGate(g Gate) {
	a.gate = g
}

// Geometry returns the window geometry the analyzer was built for.
func (a *Analyzer) Geometry() Geometry {
	return a.geometry
}

// DominantFrequency returns the frequency in Hz of the strongest bin of
// chunk. Chunks shorter than the window are zero-padded; a spectrum with
// several equal maxima resolves to the lowest bin, so silence yields 0 Hz.
func (a *Analyzer) DominantFrequency(chunk []float64) float64 {
	if a.gate.Closed(chunk) {
		return 0
	}

	ws := &a.workspace

	// --- 1. Zero-pad & taper ---
	n := copy(ws.input, chunk)
	clear(ws.input[n:])
	floats.Mul(ws.input, ws.window)

	// --- 2. Remove DC ---
	floats.AddConst(-stat.Mean(ws.input, nil), ws.input)

	// --- 3. Transform & magnitudes of the non-negative half ---
	a.fftCalculator.Coefficients(ws.fftOutput, ws.input)
	for i := range ws.magnitude {
		ws.magnitude[i] = cmplx.Abs(ws.fftOutput[i])
	}

	// --- 4. Peak bin ---
	return float64(floats.MaxIdx(ws.magnitude)) * a.geometry.BinWidth()
}

// Analyze runs Estimate with a; the final window is zero-padded.
func (a *Analyzer) Analyze(samples []float64) []float64 {
	return Estimate(a, samples)
}
