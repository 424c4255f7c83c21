// SPDX-License-Identifier: MIT
package audio

import (
	"math"
	"sync/atomic"
)

func (r *Recorder) EnableGate() {
	r.gateEnabled = true
}

func (r *Recorder) DisableGate() {
	r.gateEnabled = false
}

// SetGateThreshold adjusts the start trigger level.
// The value is in the range of 0.0-1.0 where 0=always open, 1=never opens.
func (r *Recorder) SetGateThreshold(threshold float64) {
	if threshold < 0.0 {
		threshold = 0.0
	}
	if threshold > 1.0 {
		threshold = 1.0
	}

	r.gateThreshold = int32(threshold * float64(math.MaxInt32))
}

// GetGateThreshold returns the current trigger level as a float64.
func (r *Recorder) GetGateThreshold() float64 {
	return float64(r.gateThreshold) / float64(math.MaxInt32)
}

// gateOpen reports whether buffer should be recorded. The gate latches:
// after the first buffer whose peak exceeds the threshold everything is
// recorded, so quiet passages inside the take are kept.
func (r *Recorder) gateOpen(buffer []int32) bool {
	if !r.gateEnabled || atomic.LoadInt32(&r.triggered) == 1 {
		return true
	}
	if peak(buffer) > r.gateThreshold {
		atomic.StoreInt32(&r.triggered, 1)
		return true
	}
	return false
}

// peak returns the largest absolute sample without branching.
func peak(buffer []int32) int32 {
	var maxAmplitude int32
	for _, sample := range buffer {
		mask := sample >> 31
		amplitude := (sample ^ mask) - mask
		diff := amplitude - maxAmplitude
		maxAmplitude += (diff & (diff >> 31)) ^ diff
	}
	return maxAmplitude
}
