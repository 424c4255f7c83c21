// SPDX-License-Identifier: MIT
/*
Package notes builds the fixed table of accepted tone frequencies and snaps
measured frequencies onto it.

The table holds a silence sentinel followed by ten octaves of the
equal-tempered scale, tuned to A4 = 440 Hz:

	f(note, octave) = 440 * 2^((octave-4) + (note-10)/12)

with note 1 = C and note 10 = A. Entries are stored octave-major,
note-minor, so index 1 is C0 and index 120 is B9.
*/
package notes

import (
	"fmt"
	"math"
)

const (
	ReferenceHz     = 440.0 // A4
	ReferenceOctave = 4
	ReferenceNote   = 10 // A within 1..12
	NotesPerOctave  = 12
	Octaves         = 10 // 0..9

	// SilenceHz stands in for "no tone". It sits below C0 (~16.35 Hz), so
	// DC and sub-audio estimates quantize to it.
	SilenceHz = 1.0
)

var noteNames = [NotesPerOctave]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// Table is an ordered set of accepted frequencies in Hz. Index 0 is the
// silence sentinel.
type Table []float64

// Default is the table shared by the converter. It is never mutated.
var Default = NewTable()

// Frequency returns the equal-tempered frequency of note (1..12) in octave.
func Frequency(note, octave int) float64 {
	exp := float64(octave-ReferenceOctave) + float64(note-ReferenceNote)/NotesPerOctave
	return ReferenceHz * math.Exp2(exp)
}

// NewTable generates the sentinel plus octaves 0..9 of notes 1..12.
func NewTable() Table {
	t := make(Table, 0, 1+Octaves*NotesPerOctave)
	t = append(t, SilenceHz)
	for o := range Octaves {
		for n := 1; n <= NotesPerOctave; n++ {
			t = append(t, Frequency(n, o))
		}
	}
	return t
}

// NearestIndex returns the index of the entry closest to hz by absolute
// difference. Equidistant entries resolve to the lowest index.
func (t Table) NearestIndex(hz float64) int {
	best := 0
	bestDiff := math.Abs(t[0] - hz)
	for i := 1; i < len(t); i++ {
		if d := math.Abs(t[i] - hz); d < bestDiff {
			best, bestDiff = i, d
		}
	}
	return best
}

// Nearest returns the table entry closest to hz.
func (t Table) Nearest(hz float64) float64 {
	return t[t.NearestIndex(hz)]
}

// Quantize snaps every estimate onto the table. The result has the same
// length and order as estimates.
func (t Table) Quantize(estimates []float64) []float64 {
	out := make([]float64, len(estimates))
	for i, hz := range estimates {
		out[i] = t.Nearest(hz)
	}
	return out
}

// Contains reports whether hz is exactly one of the table entries.
func (t Table) Contains(hz float64) bool {
	for _, v := range t {
		if v == hz {
			return true
		}
	}
	return false
}

// Name returns the scientific pitch name of the entry at index, "rest" for
// the sentinel. Only meaningful for tables built by NewTable.
func Name(index int) string {
	if index <= 0 {
		return "rest"
	}
	i := index - 1
	return fmt.Sprintf("%s%d", noteNames[i%NotesPerOctave], i/NotesPerOctave)
}
