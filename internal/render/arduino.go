// SPDX-License-Identifier: MIT
package render

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"wavbeep/internal/tone"
)

// DefaultArduinoPin is the output pin used in generated tone() calls.
const DefaultArduinoPin = 4

// Arduino writes the sequence as Arduino sketch statements, two per event:
//
//	tone(4, 440.0, 1014);
//	delay(1014);
type Arduino struct {
	Pin   int
	Title string    // Optional line written before the statements.
	Out   io.Writer // os.Stdout when nil.
}

// Name implements Namer.
func (a *Arduino) Name() string { return "arduino" }

// Source returns the generated statements as one string.
func (a *Arduino) Source(seq tone.Sequence) string {
	var sb strings.Builder
	a.write(&sb, seq)
	return sb.String()
}

func (a *Arduino) Render(seq tone.Sequence) error {
	out := a.Out
	if out == nil {
		out = os.Stdout
	}
	w := bufio.NewWriter(out)
	if a.Title != "" {
		fmt.Fprintln(w, a.Title)
	}
	a.write(w, seq)
	return w.Flush()
}

func (a *Arduino) write(w io.Writer, seq tone.Sequence) {
	for _, e := range seq {
		fmt.Fprintf(w, "tone(%d, %s, %d);\ndelay(%d);\n", a.Pin, FormatHz(e.Hz), e.DurationMS, e.DurationMS)
	}
}
