// SPDX-License-Identifier: MIT
package audio

import (
	"context"
	"fmt"
	"sync"
	"time"

	"wavbeep/internal/config"
	applog "wavbeep/internal/log"
	"wavbeep/internal/synth"
	"wavbeep/internal/tone"

	"github.com/gopxl/beep"
	"github.com/gordonklaus/portaudio"
)

// drainGrace is how long Play waits after the last sample for the device
// buffer to empty.
const drainGrace = 100 * time.Millisecond

// Player sounds a tone sequence as a square wave on a PortAudio output
// device. It is a render.Renderer.
type Player struct {
	config *config.PlaybackConfig
}

// NewPlayer returns a player for cfg.
func NewPlayer(cfg *config.PlaybackConfig) *Player {
	return &Player{config: cfg}
}

// Name implements render.Namer.
func (p *Player) Name() string { return "speaker" }

// Render plays seq to completion.
func (p *Player) Render(seq tone.Sequence) error {
	return p.RenderContext(context.Background(), seq)
}

// RenderContext plays seq until it ends or ctx is cancelled.
func (p *Player) RenderContext(ctx context.Context, seq tone.Sequence) error {
	return p.Play(ctx, seq)
}

// Play blocks until seq has been played or ctx is cancelled.
func (p *Player) Play(ctx context.Context, seq tone.Sequence) error {
	if err := Initialize(); err != nil {
		return err
	}
	defer Terminate()

	device, err := OutputDevice(p.config.DeviceID)
	if err != nil {
		return fmt.Errorf("failed to open output device: %w", err)
	}

	latency := device.DefaultHighOutputLatency
	if p.config.LowLatency {
		latency = device.DefaultLowOutputLatency
	}

	rate := beep.SampleRate(int(p.config.SampleRate))
	src := newPlayback(synth.Sequence(seq, rate, p.config.Volume), p.config.FramesPerBuffer)

	params := portaudio.StreamParameters{
		Output: portaudio.StreamDeviceParameters{
			Channels: 1,
			Device:   device,
			Latency:  latency,
		},
		FramesPerBuffer: p.config.FramesPerBuffer,
		SampleRate:      p.config.SampleRate,
	}

	stream, err := portaudio.OpenStream(params, src.fill)
	if err != nil {
		return fmt.Errorf("failed to open output stream: %w", err)
	}
	defer stream.Close()

	applog.Infof("Player: Playing %d tones (%s) on %s", len(seq), seq.Duration(), device.Name)
	if err := stream.Start(); err != nil {
		return fmt.Errorf("failed to start output stream: %w", err)
	}

	select {
	case <-src.done:
		time.Sleep(drainGrace)
	case <-ctx.Done():
		applog.Infof("Player: Playback interrupted")
	}

	if err := stream.Stop(); err != nil {
		return err
	}
	return ctx.Err()
}

// playback adapts a beep.Streamer to the PortAudio output callback.
type playback struct {
	streamer beep.Streamer
	buf      []float64
	done     chan struct{}
	once     sync.Once
}

func newPlayback(s beep.Streamer, frames int) *playback {
	return &playback{
		streamer: s,
		buf:      make([]float64, frames),
		done:     make(chan struct{}),
	}
}

// fill is the output callback. Once the streamer is exhausted it writes
// silence and signals done.
func (p *playback) fill(out []float32) {
	if len(out) > len(p.buf) {
		p.buf = make([]float64, len(out))
	}

	n, ok := synth.Drain(p.streamer, p.buf[:len(out)])
	for i := range n {
		out[i] = float32(p.buf[i])
	}
	clear(out[n:])

	if !ok {
		p.once.Do(func() { close(p.done) })
	}
}
