// SPDX-License-Identifier: MIT
/*
Package pipeline turns a loaded waveform into a tone sequence.

A run truncates the waveform to config.MaxLengthSeconds, slices it into
half-overlapping windows, estimates one dominant frequency per window,
snaps each estimate onto the note table and run-length encodes the result.
Options are validated before any analyzer is built, so a bad window size
is rejected before a single sample is read.
*/
package pipeline

import (
	"errors"
	"fmt"
	"time"

	"wavbeep/internal/analysis"
	"wavbeep/internal/config"
	applog "wavbeep/internal/log"
	"wavbeep/internal/notes"
	"wavbeep/internal/tone"
	"wavbeep/internal/wave"
)

var (
	ErrInvalidOptions = errors.New("invalid analysis options")
	ErrTooShort       = errors.New("waveform shorter than one analysis step")
)

// Options are the analysis parameters of a run.
type Options struct {
	WindowMS      int                 // Analysis window length in ms.
	Window        analysis.WindowFunc // Taper applied to each window.
	GateThreshold float64             // RMS silence gate, 0 disables.
}

// DefaultOptions returns a 50 ms Blackman window with no gate.
func DefaultOptions() Options {
	return Options{
		WindowMS: config.DefaultWindowMS,
		Window:   analysis.DefaultWindow,
	}
}

// Validate checks the options without reference to any waveform.
func (o Options) Validate() error {
	if o.WindowMS <= 0 {
		return fmt.Errorf("%w: window must be a positive number of ms, got %d", ErrInvalidOptions, o.WindowMS)
	}
	if o.WindowMS > config.MaxLengthSeconds*1000 {
		return fmt.Errorf("%w: window %d ms exceeds the %d s input limit", ErrInvalidOptions, o.WindowMS, config.MaxLengthSeconds)
	}
	if o.GateThreshold < 0 || o.GateThreshold > 1 {
		return fmt.Errorf("%w: gate threshold %.3f outside 0.0-1.0", ErrInvalidOptions, o.GateThreshold)
	}
	if !o.Window.Valid() {
		return fmt.Errorf("%w: unknown window function %d", ErrInvalidOptions, int(o.Window))
	}
	return nil
}

// Result is everything a run produced. Sequence is the only artifact the
// renderers consume; the rest is kept for reporting and tests.
type Result struct {
	Sequence         tone.Sequence
	Estimates        []float64 // Raw dominant frequency per window.
	Windows          int
	WindowDurationMS int
	AnalyzedSamples  int // Samples after truncation, cut to whole steps.
	Geometry         analysis.Geometry
	Elapsed          time.Duration
}

// Pipeline converts waveforms of one sample rate. It is not safe for
// concurrent use.
type Pipeline struct {
	est   analysis.Estimator
	table notes.Table
}

// New validates opts and prepares an analyzer for sampleRate.
func New(opts Options, sampleRate int) (*Pipeline, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	g, err := analysis.NewGeometry(sampleRate, opts.WindowMS)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidOptions, err)
	}

	a, err := analysis.NewAnalyzer(g, opts.Window)
	if err != nil {
		return nil, fmt.Errorf("failed to create analyzer: %w", err)
	}
	if opts.GateThreshold > 0 {
		a.SetGate(analysis.NewGate(opts.GateThreshold))
	}

	return WithEstimator(a), nil
}

// WithEstimator returns a pipeline that snaps est's estimates onto the
// default note table. The waveform must match est's sample rate.
func WithEstimator(est analysis.Estimator) *Pipeline {
	return &Pipeline{est: est, table: notes.Default}
}

// Geometry returns the window geometry the pipeline analyzes with.
func (p *Pipeline) Geometry() analysis.Geometry {
	return p.est.Geometry()
}

// Run converts w. The waveform itself is never modified.
func (p *Pipeline) Run(w *wave.Waveform) (*Result, error) {
	start := time.Now()
	g := p.est.Geometry()

	if w.SampleRate != g.SampleRate {
		return nil, fmt.Errorf("pipeline built for %d Hz, waveform is %d Hz", g.SampleRate, w.SampleRate)
	}

	samples := w.Samples
	if limit := config.MaxLengthSeconds * w.SampleRate; len(samples) > limit {
		applog.Warnf("Pipeline: Input is %s, only the first %d s are analyzed", w.Duration(), config.MaxLengthSeconds)
		samples = samples[:limit]
	}

	windows := g.Windows(len(samples))
	if windows == 0 {
		return nil, fmt.Errorf("%w: %d samples, step is %d", ErrTooShort, len(samples), g.Step)
	}
	dur := tone.WindowDuration(len(samples), w.SampleRate, windows)

	estimates := analysis.Estimate(p.est, samples)
	seq := tone.Encode(p.table.Quantize(estimates), dur)

	res := &Result{
		Sequence:         seq,
		Estimates:        estimates,
		Windows:          windows,
		WindowDurationMS: dur,
		AnalyzedSamples:  g.Analyzed(len(samples)),
		Geometry:         g,
		Elapsed:          time.Since(start),
	}

	applog.Debugf("Pipeline: %d windows of %d samples (step %d, %d ms each) -> %d events, %d ms total",
		windows, g.Size, g.Step, dur, len(seq), seq.TotalMS())
	return res, nil
}

// Convert builds a pipeline for w's sample rate and runs it once.
func Convert(opts Options, w *wave.Waveform) (*Result, error) {
	p, err := New(opts, w.SampleRate)
	if err != nil {
		return nil, err
	}
	return p.Run(w)
}
