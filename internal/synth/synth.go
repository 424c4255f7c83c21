// SPDX-License-Identifier: MIT
/*
Package synth renders tone sequences as square waves, the way a PC speaker
or an Arduino tone() pin would sound them.

Every event becomes one beep.Streamer; the silence sentinel becomes
beep.Silence. The streamers are chained with beep.Seq, so the output plays
the events back to back with no gaps.
*/
package synth

import (
	"math"
	"time"

	"wavbeep/internal/tone"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
)

// drainChunk is the number of frames pulled from a streamer per call.
const drainChunk = 512

// square generates a +/-1 square wave for a fixed number of samples.
type square struct {
	freq      float64
	phase     float64
	remaining int
	rate      beep.SampleRate
}

// Square returns a streamer holding freq Hz for d.
func Square(freq float64, d time.Duration, rate beep.SampleRate) beep.Streamer {
	return &square{freq: freq, remaining: rate.N(d), rate: rate}
}

func (s *square) Stream(samples [][2]float64) (n int, ok bool) {
	if s.remaining <= 0 {
		return 0, false
	}
	for i := range samples {
		if s.remaining == 0 {
			return i, true
		}

		val := -1.0
		if s.phase < 0.5 {
			val = 1.0
		}
		samples[i][0] = val
		samples[i][1] = val

		s.phase += s.freq / float64(s.rate)
		s.phase -= math.Floor(s.phase)
		s.remaining--
	}
	return len(samples), true
}

func (s *square) Err() error { return nil }

// Sequence chains one streamer per event and scales the result by volume
// (0.0-1.0).
func Sequence(seq tone.Sequence, rate beep.SampleRate, volume float64) beep.Streamer {
	streamers := make([]beep.Streamer, 0, len(seq))
	for _, e := range seq {
		if e.Silent() {
			streamers = append(streamers, beep.Silence(rate.N(e.Duration())))
			continue
		}
		streamers = append(streamers, Square(e.Hz, e.Duration(), rate))
	}
	return withVolume(beep.Seq(streamers...), volume)
}

// Length returns the number of samples Sequence produces for seq.
func Length(seq tone.Sequence, rate beep.SampleRate) int {
	n := 0
	for _, e := range seq {
		n += rate.N(e.Duration())
	}
	return n
}

// Samples renders the whole sequence into a mono buffer.
func Samples(seq tone.Sequence, rate beep.SampleRate, volume float64) []float64 {
	out := make([]float64, Length(seq, rate))
	n, _ := Drain(Sequence(seq, rate, volume), out)
	return out[:n]
}

// Drain pulls up to len(dst) mono samples (left channel) from s. It reports
// how many were written and whether s can produce more.
func Drain(s beep.Streamer, dst []float64) (n int, ok bool) {
	var buf [drainChunk][2]float64
	for n < len(dst) {
		chunk := buf[:min(drainChunk, len(dst)-n)]
		m, more := s.Stream(chunk)
		for i := range m {
			dst[n+i] = chunk[i][0]
		}
		n += m
		if !more {
			return n, false
		}
	}
	return n, true
}

// withVolume wraps s in a linear gain. log2(0) is -Inf, so 0 means silent.
func withVolume(s beep.Streamer, vol float64) beep.Streamer {
	if vol <= 0 {
		return &effects.Volume{Streamer: s, Base: 2, Volume: 0, Silent: true}
	}
	return &effects.Volume{Streamer: s, Base: 2, Volume: math.Log2(vol)}
}
