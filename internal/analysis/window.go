// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"
	"strings"

	applog "wavbeep/internal/log"

	"gonum.org/v1/gonum/dsp/window"
)

// WindowFunc selects the taper applied to each analysis window.
type WindowFunc int

// Enum for available window functions.
const (
	Blackman WindowFunc = iota
	BlackmanNuttall
	BartlettHann
	Hann
	Hamming
	Nuttall
	Rectangular
)

// DefaultWindow is the taper used unless configured otherwise.
const DefaultWindow = Blackman

var windowNames = map[WindowFunc]string{
	Blackman:        "blackman",
	BlackmanNuttall: "blackmannuttall",
	BartlettHann:    "bartletthann",
	Hann:            "hann",
	Hamming:         "hamming",
	Nuttall:         "nuttall",
	Rectangular:     "rectangular",
}

func (w WindowFunc) String() string {
	if name, ok := windowNames[w]; ok {
		return name
	}
	return fmt.Sprintf("WindowFunc(%d)", int(w))
}

// Valid reports whether w names a known taper.
func (w WindowFunc) Valid() bool {
	_, ok := windowNames[w]
	return ok
}

// ParseWindowFunc converts a string name (case-insensitive) to a WindowFunc.
// Unknown names return Blackman and an error.
func ParseWindowFunc(name string) (WindowFunc, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "blackman", "":
		return Blackman, nil
	case "blackmannuttall":
		return BlackmanNuttall, nil
	case "bartletthann":
		return BartlettHann, nil
	case "hann", "hanning":
		return Hann, nil
	case "hamming":
		return Hamming, nil
	case "nuttall":
		return Nuttall, nil
	case "rectangular", "rect", "none":
		return Rectangular, nil
	default:
		return Blackman, fmt.Errorf("unknown window function name: '%s'", name)
	}
}

// applyWindow fills coeffs with the selected taper. gonum's window functions
// scale the slice in place, so it is first set to 1.
func applyWindow(coeffs []float64, windowType WindowFunc) {
	for i := range coeffs {
		coeffs[i] = 1.0
	}
	switch windowType {
	case Blackman:
		window.Blackman(coeffs)
	case BlackmanNuttall:
		window.BlackmanNuttall(coeffs)
	case BartlettHann:
		window.BartlettHann(coeffs)
	case Hann:
		window.Hann(coeffs)
	case Hamming:
		window.Hamming(coeffs)
	case Nuttall:
		window.Nuttall(coeffs)
	case Rectangular:
		window.Rectangular(coeffs)
	default:
		applog.Warnf("Analysis: Unknown window function type %d, defaulting to Blackman", windowType)
		window.Blackman(coeffs)
	}
}
