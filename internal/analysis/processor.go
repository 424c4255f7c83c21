// SPDX-License-Identifier: MIT
package analysis

// Estimator reduces one analysis window to a single frequency estimate.
type Estimator interface {
	// Geometry describes the windows the estimator expects.
	Geometry() Geometry
	// DominantFrequency returns the strongest frequency in chunk, in Hz.
	// Implementations may reuse internal buffers between calls.
	DominantFrequency(chunk []float64) float64
}

// Estimate slices samples into e's half-overlapping windows and returns one
// estimate per window in temporal order. Samples past the last whole step
// are ignored; the final window is shorter than Size and left to e to pad.
func Estimate(e Estimator, samples []float64) []float64 {
	g := e.Geometry()
	analyzed := g.Analyzed(len(samples))
	data := samples[:analyzed]

	out := make([]float64, 0, g.Windows(len(samples)))
	for start := 0; start < analyzed; start += g.Step {
		end := min(start+g.Size, analyzed)
		out = append(out, e.DominantFrequency(data[start:end]))
	}
	return out
}
