// SPDX-License-Identifier: MIT
package render

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"

	applog "wavbeep/internal/log"
	"wavbeep/internal/tone"
)

// beep(1) flags.
const (
	flagLength = "-l"
	flagFreq   = "-f"
	flagNew    = "-n"
)

// DefaultBeepBinary is looked up in $PATH.
const DefaultBeepBinary = "beep"

// BeepCommand plays a sequence through the beep(1) utility, e.g.
//
//	beep -l 50 -f 140.0 -n -l 250 -f 370.0
type BeepCommand struct {
	Binary  string    // Program to run, DefaultBeepBinary when empty.
	Silent  bool      // Build the command but never run it.
	Verbose bool      // Print the command line to Out.
	Out     io.Writer // Verbose output, os.Stdout when nil.

	run func(ctx context.Context, bin string, args []string) error
}

// Name implements Namer.
func (b *BeepCommand) Name() string { return "beep" }

// Args returns the beep arguments for seq: one "-l ms -f hz" group per
// event, separated by "-n".
func Args(seq tone.Sequence) []string {
	args := make([]string, 0, 5*len(seq))
	for i, e := range seq {
		if i > 0 {
			args = append(args, flagNew)
		}
		args = append(args, flagLength, strconv.Itoa(e.DurationMS), flagFreq, FormatHz(e.Hz))
	}
	return args
}

// Command returns the full command line, binary first.
func (b *BeepCommand) Command(seq tone.Sequence) []string {
	return append([]string{b.binary()}, Args(seq)...)
}

func (b *BeepCommand) Render(seq tone.Sequence) error {
	return b.RenderContext(context.Background(), seq)
}

// RenderContext runs beep(1); cancelling ctx kills the process.
func (b *BeepCommand) RenderContext(ctx context.Context, seq tone.Sequence) error {
	cmd := b.Command(seq)

	if b.Verbose {
		out := b.Out
		if out == nil {
			out = os.Stdout
		}
		if _, err := fmt.Fprintln(out, strings.Join(cmd, " ")); err != nil {
			return err
		}
	}

	if b.Silent {
		return nil
	}
	if len(seq) == 0 {
		applog.Warnf("Beep: Empty sequence, nothing to play")
		return nil
	}

	applog.Debugf("Beep: Running %s with %d tones (%d ms)", cmd[0], len(seq), seq.TotalMS())
	run := b.run
	if run == nil {
		run = runCmd
	}
	return run(ctx, cmd[0], cmd[1:])
}

func (b *BeepCommand) binary() string {
	if b.Binary == "" {
		return DefaultBeepBinary
	}
	return b.Binary
}

func runCmd(ctx context.Context, bin string, args []string) error {
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
