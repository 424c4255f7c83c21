// SPDX-License-Identifier: MIT
package render

import (
	"strconv"
	"strings"
)

// FormatHz prints hz as the shortest decimal that round-trips, always with
// a fractional part: 440 becomes "440.0", C4 becomes "261.6255653005986".
func FormatHz(hz float64) string {
	s := strconv.FormatFloat(hz, 'f', -1, 64)
	if !strings.ContainsAny(s, ".NI") {
		s += ".0"
	}
	return s
}
