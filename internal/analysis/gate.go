// SPDX-License-Identifier: MIT
package analysis

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Gate forces quiet windows to report no tone. Threshold is an RMS level in
// the normalized range 0.0-1.0; 0 disables the gate.
type Gate struct {
	Threshold float64
}

// NewGate returns a gate clamped to 0.0-1.0.
func NewGate(threshold float64) Gate {
	if threshold < 0 {
		threshold = 0
	}
	if threshold > 1 {
		threshold = 1
	}
	return Gate{Threshold: threshold}
}

// Enabled reports whether the gate can close at all.
func (g Gate) Enabled() bool {
	return g.Threshold > 0
}

// Closed reports whether chunk is too quiet to analyze.
func (g Gate) Closed(chunk []float64) bool {
	if !g.Enabled() {
		return false
	}
	return rms(chunk) < g.Threshold
}

// rms calculates the root mean square level of buffer.
func rms(buffer []float64) float64 {
	if len(buffer) == 0 {
		return 0
	}
	return math.Sqrt(floats.Dot(buffer, buffer) / float64(len(buffer)))
}
