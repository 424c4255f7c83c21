package audio

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	applog "wavbeep/internal/log"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const wavFormatPCM = 1

// budget is the number of frames a take of cfg.Seconds holds.
func (r *Recorder) budget() int64 {
	return int64(r.config.Seconds) * int64(r.config.SampleRate)
}

// StartRecording opens filename as a WAV take and hands the capture
// callback a budget of Seconds*SampleRate frames. The gate, if enabled,
// must open again before any frame is spent.
func (r *Recorder) StartRecording(filename string) error {
	if r.recording() {
		return fmt.Errorf("already recording into %s", r.outputFile.Name())
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create take: %w", err)
	}

	r.outputFile = file
	r.wavEncoder = wav.NewEncoder(file, int(r.config.SampleRate), r.config.BitDepth, r.config.Channels, wavFormatPCM)
	r.sampleBuf = &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: r.config.Channels, SampleRate: int(r.config.SampleRate)},
		SourceBitDepth: r.config.BitDepth,
		Data:           make([]int, r.config.FramesPerBuffer*r.config.Channels),
	}

	r.done = make(chan struct{})
	r.doneOnce = sync.Once{}
	atomic.StoreInt32(&r.triggered, 0)
	atomic.StoreInt64(&r.framesLeft, r.budget())
	atomic.StoreInt32(&r.isRecording, 1)
	return nil
}

// StopRecording ends the take: the callback stops spending the budget and
// the WAV header is rewritten with the frames actually captured. The file
// is closed even when the header cannot be written.
func (r *Recorder) StopRecording() error {
	if !atomic.CompareAndSwapInt32(&r.isRecording, 1, 0) {
		return nil
	}

	var errs []error
	if r.wavEncoder != nil {
		errs = append(errs, r.wavEncoder.Close())
		r.wavEncoder = nil
	}
	if r.outputFile != nil {
		spent := r.budget() - max(r.loadFramesLeft(), 0)
		applog.Infof("Recorder: Saved %s (%d of %d frames)", r.outputFile.Name(), spent, r.budget())
		errs = append(errs, r.outputFile.Close())
		r.outputFile = nil
	}
	return errors.Join(errs...)
}

// Close finalizes an unfinished take, then stops the input stream.
func (r *Recorder) Close() error {
	return errors.Join(r.StopRecording(), r.StopInputStream())
}

func (r *Recorder) recording() bool {
	return atomic.LoadInt32(&r.isRecording) == 1
}

// loadFramesLeft is the unspent part of the budget.
func (r *Recorder) loadFramesLeft() int64 {
	return atomic.LoadInt64(&r.framesLeft)
}

// addFramesLeft adds delta (negative when frames were written) to the
// budget and returns what is left.
func (r *Recorder) addFramesLeft(delta int64) int64 {
	return atomic.AddInt64(&r.framesLeft, delta)
}
