// SPDX-License-Identifier: MIT
/*
Package audio talks to sound hardware through PortAudio:
- Device listing and lookup
- Square-wave playback of tone sequences on an output device
- Microphone capture to WAV, bounded by config.MaxLengthSeconds, with an
  optional peak-level trigger

Thread Safety:
- Recording state is switched with atomic operations
- Buffers are pre-allocated so the capture callback does not allocate
- The capture callback locks its OS thread
*/
package audio

import (
	"context"
	"os"
	"runtime"
	"sync"
	"time"

	"wavbeep/internal/config"
	applog "wavbeep/internal/log"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/gordonklaus/portaudio"
)

type Recorder struct {
	// Core configuration.
	config *config.RecordingConfig

	// Audio input handling.
	inputBuffer  []int32
	inputDevice  *portaudio.DeviceInfo
	inputLatency time.Duration
	inputStream  *portaudio.Stream

	// Start trigger.
	gateEnabled   bool
	gateThreshold int32 // Absolute amplitude threshold (0-2147483647)
	triggered     int32 // Atomic flag, set once the gate has opened

	// Recording state and buffers.
	isRecording int32 // Atomic flag for thread-safe state
	framesLeft  int64 // Atomic count of frames still to capture
	done        chan struct{}
	doneOnce    sync.Once
	outputFile  *os.File
	wavEncoder  *wav.Encoder
	sampleBuf   *audio.IntBuffer // Reusable buffer for format conversion
}

// NewRecorder resolves the configured input device. PortAudio must be
// initialized.
func NewRecorder(cfg *config.RecordingConfig) (*Recorder, error) {
	inputDevice, err := InputDevice(cfg.DeviceID)
	if err != nil {
		return nil, err
	}

	r := &Recorder{
		config:      cfg,
		inputBuffer: make([]int32, cfg.FramesPerBuffer*cfg.Channels),
		inputDevice: inputDevice,
	}

	if cfg.LowLatency {
		r.inputLatency = inputDevice.DefaultLowInputLatency
	} else {
		r.inputLatency = inputDevice.DefaultHighInputLatency
	}

	if cfg.Trigger > 0 {
		r.SetGateThreshold(cfg.Trigger)
		r.EnableGate()
	}

	return r, nil
}

func (r *Recorder) StartInputStream() error {
	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Channels: r.config.Channels,
			Device:   r.inputDevice,
			Latency:  r.inputLatency,
		},
		Output: portaudio.StreamDeviceParameters{
			Channels: 0, // No output device
			Device:   nil,
		},
		FramesPerBuffer: r.config.FramesPerBuffer,
		SampleRate:      r.config.SampleRate,
	}

	stream, err := portaudio.OpenStream(params, r.processInputStream)
	if err != nil {
		return err
	}
	r.inputStream = stream

	if err := r.inputStream.Start(); err != nil {
		r.inputStream.Close()
		r.inputStream = nil
		return err
	}

	return nil
}

func (r *Recorder) StopInputStream() error {
	if r.inputStream != nil {
		if err := r.inputStream.Stop(); err != nil {
			return err
		}

		if err := r.inputStream.Close(); err != nil {
			return err
		}

		r.inputStream = nil
	}

	return nil
}

// Record captures config.Seconds of audio into filename, blocking until
// the capture completes or ctx is cancelled. What was captured before a
// cancellation is kept.
func (r *Recorder) Record(ctx context.Context, filename string) error {
	if err := r.StartRecording(filename); err != nil {
		return err
	}

	if err := r.StartInputStream(); err != nil {
		r.StopRecording()
		return err
	}

	if r.gateEnabled {
		applog.Infof("Recorder: Waiting for input above %.3f on %s", r.GetGateThreshold(), r.inputDevice.Name)
	} else {
		applog.Infof("Recorder: Recording %d s from %s", r.config.Seconds, r.inputDevice.Name)
	}

	select {
	case <-r.done:
	case <-ctx.Done():
		applog.Infof("Recorder: Interrupted")
	}

	if err := r.StopInputStream(); err != nil {
		r.StopRecording()
		return err
	}
	if err := r.StopRecording(); err != nil {
		return err
	}
	return ctx.Err()
}

// processInputStream is the capture callback.
// Performance Critical:
// - Runs in a dedicated OS thread (LockOSThread)
// - Uses pre-allocated buffers only
func (r *Recorder) processInputStream(in []int32) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	copy(r.inputBuffer, in)
	r.processBuffer(r.inputBuffer[:min(len(in), len(r.inputBuffer))])
}

// processBuffer writes one interleaved buffer to the WAV encoder once the
// trigger has fired, stopping at the frame budget.
func (r *Recorder) processBuffer(buffer []int32) {
	if !r.recording() || r.wavEncoder == nil {
		return
	}
	if !r.gateOpen(buffer) {
		return
	}

	channels := r.config.Channels
	left := r.loadFramesLeft()
	if left <= 0 {
		r.finish()
		return
	}
	frames := min(int64(len(buffer)/channels), left)
	n := int(frames) * channels

	shift := 32 - r.config.BitDepth
	for i, sample := range buffer[:n] {
		r.sampleBuf.Data[i] = int(sample >> shift)
	}
	r.sampleBuf.Data = r.sampleBuf.Data[:n]

	if err := r.wavEncoder.Write(r.sampleBuf); err != nil {
		applog.Errorf("Recorder: Error writing to WAV file: %v", err)
	}
	r.sampleBuf.Data = r.sampleBuf.Data[:cap(r.sampleBuf.Data)]

	if r.addFramesLeft(-frames) <= 0 {
		r.finish()
	}
}

// finish signals Record that the frame budget is spent.
func (r *Recorder) finish() {
	r.doneOnce.Do(func() { close(r.done) })
}
