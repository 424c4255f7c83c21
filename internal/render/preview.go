// SPDX-License-Identifier: MIT
package render

import (
	"fmt"
	"math"
	"os"

	applog "wavbeep/internal/log"
	"wavbeep/internal/synth"
	"wavbeep/internal/tone"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/gopxl/beep"
)

const (
	DefaultPreviewSampleRate = 44100
	DefaultPreviewBitDepth   = 16
	DefaultPreviewVolume     = 0.5

	wavFormatPCM = 1
)

// Preview writes the square-wave rendition of a sequence to a mono WAV
// file, so the result can be auditioned without a PC speaker.
type Preview struct {
	Path       string
	SampleRate int     // DefaultPreviewSampleRate when 0.
	BitDepth   int     // 8, 16, 24 or 32; DefaultPreviewBitDepth when 0.
	Volume     float64 // 0.0-1.0.
}

// Name implements Namer.
func (p *Preview) Name() string { return "preview" }

func (p *Preview) Render(seq tone.Sequence) error {
	sampleRate := p.SampleRate
	if sampleRate <= 0 {
		sampleRate = DefaultPreviewSampleRate
	}
	bitDepth := p.BitDepth
	if bitDepth == 0 {
		bitDepth = DefaultPreviewBitDepth
	}
	switch bitDepth {
	case 8, 16, 24, 32:
	default:
		return fmt.Errorf("unsupported preview bit depth %d", bitDepth)
	}

	samples := synth.Samples(seq, beep.SampleRate(sampleRate), p.Volume)

	f, err := os.Create(p.Path)
	if err != nil {
		return fmt.Errorf("failed to create preview file: %w", err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, bitDepth, 1, wavFormatPCM)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		SourceBitDepth: bitDepth,
		Data:           toPCM(samples, bitDepth),
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("failed to write preview samples: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to finalize preview file: %w", err)
	}

	applog.Infof("Preview: Wrote %s (%d samples, %s)", p.Path, len(samples), seq.Duration())
	return nil
}

// toPCM scales samples in [-1, 1] to signed integers of bitDepth bits.
// 8-bit WAV is unsigned, centred on 128.
func toPCM(samples []float64, bitDepth int) []int {
	full := float64(int(1)<<(bitDepth-1)) - 1
	offset := 0
	if bitDepth == 8 {
		offset = 128
	}
	out := make([]int, len(samples))
	for i, v := range samples {
		v = math.Max(-1, math.Min(1, v))
		out[i] = int(math.Round(v*full)) + offset
	}
	return out
}
