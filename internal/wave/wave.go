// SPDX-License-Identifier: MIT
/*
Package wave loads PCM .wav recordings into memory as mono, normalized
sample arrays.

Decoding is chunked and stops once the duration cap is reached, so memory
stays bounded by maxSeconds*sampleRate samples whatever the file size.
Multi-channel files are averaged frame by frame into one channel.
*/
package wave

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	applog "wavbeep/internal/log"

	"github.com/go-audio/audio"
	"github.com/go-audio/riff"
	"github.com/go-audio/wav"
)

const (
	wavFormatPCM        = 1
	wavFormatExtensible = 0xFFFE

	// framesPerRead is the decode chunk size in frames.
	framesPerRead = 4096
)

var (
	ErrInvalidFile       = errors.New("not a valid RIFF/WAVE file")
	ErrUnsupportedFormat = errors.New("unsupported wav encoding")
	ErrEmpty             = errors.New("wav file contains no samples")
)

// Waveform is an immutable mono recording with samples in [-1, 1).
type Waveform struct {
	SampleRate int       // Samples per second.
	Channels   int       // Channel count of the source before downmixing.
	BitDepth   int       // Bits per sample of the source, 0 for synthetic data.
	Samples    []float64 // Mono samples.
}

// New wraps already-decoded mono samples.
func New(sampleRate int, samples []float64) *Waveform {
	return &Waveform{SampleRate: sampleRate, Channels: 1, Samples: samples}
}

// Len returns the number of samples.
func (w *Waveform) Len() int {
	return len(w.Samples)
}

// Duration returns the playing time of the samples.
func (w *Waveform) Duration() time.Duration {
	if w.SampleRate <= 0 {
		return 0
	}
	return time.Duration(len(w.Samples)) * time.Second / time.Duration(w.SampleRate)
}

// Truncate drops every sample beyond maxSeconds. It reports whether any
// sample was dropped.
func (w *Waveform) Truncate(maxSeconds int) bool {
	limit := maxSeconds * w.SampleRate
	if maxSeconds <= 0 || len(w.Samples) <= limit {
		return false
	}
	w.Samples = w.Samples[:limit]
	return true
}

// Load opens and decodes the wav file at path, keeping at most maxSeconds of
// audio. maxSeconds <= 0 keeps everything.
func Load(path string, maxSeconds int) (*Waveform, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open wav file: %w", err)
	}
	defer f.Close()

	w, err := Decode(f, maxSeconds)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	applog.Debugf("Wave: Loaded %s (%d Hz, %d ch, %d bit, %d samples, %s)",
		path, w.SampleRate, w.Channels, w.BitDepth, w.Len(), w.Duration())
	return w, nil
}

// Decode reads integer PCM from r, downmixes to mono and normalizes.
func Decode(r io.ReadSeeker, maxSeconds int) (*Waveform, error) {
	d := wav.NewDecoder(r)
	if !d.IsValidFile() {
		if err := d.Err(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFile, err)
		}
		return nil, ErrInvalidFile
	}

	switch d.WavAudioFormat {
	case wavFormatPCM:
	case wavFormatExtensible:
		sub, err := subFormat(r)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFile, err)
		}
		if sub != wavFormatPCM {
			return nil, fmt.Errorf("%w: extensible sub-format %d is not integer PCM", ErrUnsupportedFormat, sub)
		}
		if err := d.Rewind(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFile, err)
		}
	default:
		return nil, fmt.Errorf("%w: audio format %d is not integer PCM", ErrUnsupportedFormat, d.WavAudioFormat)
	}
	bitDepth := int(d.BitDepth)
	switch bitDepth {
	case 8, 16, 24, 32:
	default:
		return nil, fmt.Errorf("%w: %d-bit samples", ErrUnsupportedFormat, bitDepth)
	}

	channels := int(d.NumChans)
	sampleRate := int(d.SampleRate)
	limit := -1
	if maxSeconds > 0 {
		limit = maxSeconds * sampleRate
	}

	buf := &audio.IntBuffer{
		Format: &audio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:   make([]int, framesPerRead*channels),
	}

	// 8-bit wav is unsigned, centred on 128.
	offset := 0
	if bitDepth == 8 {
		offset = 128
	}
	scale := 1 / float64(int(1)<<(bitDepth-1)) / float64(channels)

	samples := make([]float64, 0, framesPerRead)
	var acc float64
	var ch int

read:
	for {
		buf.Data = buf.Data[:cap(buf.Data)]
		n, err := d.PCMBuffer(buf)
		if err != nil {
			return nil, fmt.Errorf("failed to read PCM data: %w", err)
		}
		if n == 0 {
			break
		}

		// Frames may straddle reads; acc/ch carry a partial frame over.
		for _, v := range buf.Data[:n] {
			acc += float64(v-offset) * scale
			ch++
			if ch < channels {
				continue
			}
			samples = append(samples, acc)
			acc, ch = 0, 0
			if len(samples) == limit {
				break read
			}
		}
	}

	if len(samples) == 0 {
		return nil, ErrEmpty
	}

	return &Waveform{
		SampleRate: sampleRate,
		Channels:   channels,
		BitDepth:   bitDepth,
		Samples:    samples,
	}, nil
}

// extensibleFmt is the fmt chunk body of a WAVE_FORMAT_EXTENSIBLE file.
type extensibleFmt struct {
	AudioFormat    uint16
	NumChannels    uint16
	SampleRate     uint32
	AvgBytesPerSec uint32
	BlockAlign     uint16
	BitsPerSample  uint16
	ExtensionSize  uint16
	ValidBits      uint16
	ChannelMask    uint32
	SubFormat      [16]byte // GUID; the first two bytes carry the format code.
}

// subFormat returns the format code of the SubFormat GUID of an extensible
// file. It leaves r at an arbitrary position.
func subFormat(r io.ReadSeeker) (uint16, error) {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return 0, err
	}
	p := riff.New(r)
	if err := p.ParseHeaders(); err != nil {
		return 0, err
	}

	for {
		ch, err := p.NextChunk()
		if err != nil {
			return 0, fmt.Errorf("fmt chunk not found: %w", err)
		}
		if ch.ID != riff.FmtID {
			ch.Drain()
			continue
		}
		if ch.Size < binary.Size(extensibleFmt{}) {
			return 0, fmt.Errorf("extensible fmt chunk is %d bytes", ch.Size)
		}
		var f extensibleFmt
		if err := ch.ReadLE(&f); err != nil {
			return 0, err
		}
		return binary.LittleEndian.Uint16(f.SubFormat[:2]), nil
	}
}
