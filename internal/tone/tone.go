// SPDX-License-Identifier: MIT
package tone

import (
	"math"
	"time"

	"wavbeep/internal/notes"
)

// Event is one sustained tone: a frequency held for DurationMS milliseconds.
type Event struct {
	DurationMS int     `json:"ms"`
	Hz         float64 `json:"hz"`
}

// Duration returns the event length as a time.Duration.
func (e Event) Duration() time.Duration {
	return time.Duration(e.DurationMS) * time.Millisecond
}

// Silent reports whether the event carries the silence sentinel.
func (e Event) Silent() bool {
	return e.Hz == notes.SilenceHz
}

// Sequence is the ordered list of events covering an analyzed waveform.
type Sequence []Event

// TotalMS returns the summed duration of all events.
func (s Sequence) TotalMS() int {
	total := 0
	for _, e := range s {
		total += e.DurationMS
	}
	return total
}

// Duration returns TotalMS as a time.Duration.
func (s Sequence) Duration() time.Duration {
	return time.Duration(s.TotalMS()) * time.Millisecond
}

// WindowDuration is the nominal length in ms given to every analysis
// window: the analyzed time divided evenly between the windows. The final
// window is counted in full even when it was zero-padded.
func WindowDuration(samples, sampleRate, windows int) int {
	if windows <= 0 || sampleRate <= 0 {
		return 0
	}
	seconds := float64(samples) / float64(sampleRate)
	return int(math.Round(1000 * seconds / float64(windows)))
}

// Encoder run-length encodes per-window frequencies into a Sequence. Every
// window contributes the same fixed duration.
type Encoder struct {
	dur int
	seq Sequence
}

// NewEncoder returns an Encoder that credits dur ms per window.
func NewEncoder(dur int) *Encoder {
	return &Encoder{dur: dur}
}

// Add appends one window. A window whose frequency equals the last event's
// extends that event; anything else starts a new event.
func (e *Encoder) Add(hz float64) {
	if n := len(e.seq); n > 0 && e.seq[n-1].Hz == hz {
		e.seq[n-1].DurationMS += e.dur
		return
	}
	e.seq = append(e.seq, Event{DurationMS: e.dur, Hz: hz})
}

// Sequence returns the events encoded so far.
func (e *Encoder) Sequence() Sequence {
	return e.seq
}

// Encode run-length encodes freqs with dur ms per window.
func Encode(freqs []float64, dur int) Sequence {
	enc := NewEncoder(dur)
	for _, hz := range freqs {
		enc.Add(hz)
	}
	return enc.Sequence()
}
