package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"wavbeep/cmd"
	"wavbeep/internal/analysis"
	"wavbeep/internal/audio"
	"wavbeep/internal/config"
	applog "wavbeep/internal/log"
	"wavbeep/internal/metrics"
	"wavbeep/internal/notes"
	"wavbeep/internal/pipeline"
	"wavbeep/internal/render"
	"wavbeep/internal/transport"
	"wavbeep/internal/wave"
	"wavbeep/pkg/build"
)

const arduinoTitle = "Arduino equivalent order:"

// main is the entry point of the converter.
//
// 1. Startup:
//   - Initialize build information
//   - Parse flags over the config file and environment
//   - Set the log level
//
// 2. Command:
//   - convert: load, analyze, quantize, encode, then render
//   - notes, devices, record: one-off utilities
//
// 3. Shutdown:
//   - Close transports and output files
//   - Flush metrics and the log
func main() {
	if err := build.Initialize(); err != nil {
		applog.Debugf("Build: %v", err)
	}

	cfg, err := cmd.ParseArgs()
	if err != nil {
		applog.Fatalf("%v", err)
	}
	if cfg == nil {
		return
	}

	level, _ := applog.ParseLevel(cfg.LogLevel)
	if cfg.Verbose {
		level = applog.LevelDebug
	}
	applog.SetLevel(level)
	defer applog.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := executeCommand(ctx, cfg); err != nil {
		applog.Errorf("%v", err)
		applog.Sync()
		os.Exit(1)
	}
}

// executeCommand runs the subcommand selected on the command line.
func executeCommand(ctx context.Context, cfg *config.Config) error {
	switch cfg.Command {
	case config.CommandNotes:
		return printNotes(os.Stdout)
	case config.CommandDevices:
		return listDevices(os.Stdout)
	case config.CommandRecord:
		return record(ctx, &cfg.Recording)
	default:
		return convert(ctx, cfg)
	}
}

func printNotes(w io.Writer) error {
	for i, hz := range notes.Default {
		if _, err := fmt.Fprintf(w, "%-4s %s\n", notes.Name(i), render.FormatHz(hz)); err != nil {
			return err
		}
	}
	return nil
}

func listDevices(w io.Writer) error {
	if err := audio.Initialize(); err != nil {
		return err
	}
	defer audio.Terminate()

	return audio.ListDevices(w)
}

func record(ctx context.Context, cfg *config.RecordingConfig) error {
	if err := audio.Initialize(); err != nil {
		return err
	}
	defer audio.Terminate()

	recorder, err := audio.NewRecorder(cfg)
	if err != nil {
		return err
	}
	defer recorder.Close()

	err = recorder.Record(ctx, cfg.Output)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// convert runs the whole conversion of cfg.Input and renders the result.
// Cancelling ctx stops rendering; an interrupted render is not an error.
func convert(ctx context.Context, cfg *config.Config) error {
	taper, err := analysis.ParseWindowFunc(cfg.Taper)
	if err != nil {
		return err
	}
	opts := pipeline.Options{
		WindowMS:      cfg.WindowMS,
		Window:        taper,
		GateThreshold: cfg.GateThreshold,
	}
	// Reject bad options before touching the input.
	if err := opts.Validate(); err != nil {
		return err
	}

	defer writeMetrics(cfg.Metrics.File)

	w, err := wave.Load(cfg.Input, config.MaxLengthSeconds)
	if err != nil {
		metrics.ObserveFailure()
		return err
	}

	res, err := pipeline.Convert(opts, w)
	if err != nil {
		metrics.ObserveFailure()
		return err
	}
	metrics.ObserveConversion(res.Windows, len(res.Sequence),
		float64(res.AnalyzedSamples)/float64(w.SampleRate), res.Elapsed)
	applog.Infof("Converted %s: %d tones, %s", cfg.Input, len(res.Sequence), res.Sequence.Duration())

	renderers, cleanup, err := buildRenderers(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := renderers.RenderContext(ctx, res.Sequence); err != nil {
		if errors.Is(err, context.Canceled) {
			applog.Infof("Rendering interrupted")
			return nil
		}
		var renderErr *render.Error
		if errors.As(err, &renderErr) {
			metrics.ObserveRenderFailure(renderErr.Renderer)
		}
		return err
	}
	return nil
}

// buildRenderers assembles the outputs selected by cfg in the order they
// run: player, Arduino statements, preview, publisher. cleanup closes any
// file or transport that was opened.
func buildRenderers(cfg *config.Config) (render.Multi, func(), error) {
	var (
		renderers render.Multi
		closers   []io.Closer
	)
	cleanup := func() {
		for _, c := range closers {
			if err := c.Close(); err != nil {
				applog.Warnf("Close: %v", err)
			}
		}
	}

	switch cfg.Playback.Player {
	case config.PlayerBeep:
		renderers = append(renderers, &render.BeepCommand{
			Binary:  cfg.Playback.BeepBinary,
			Silent:  cfg.Silent,
			Verbose: cfg.Verbose,
		})
	default:
		if cfg.Verbose {
			renderers = append(renderers, &render.BeepCommand{
				Binary:  cfg.Playback.BeepBinary,
				Silent:  true,
				Verbose: true,
			})
		}
		if cfg.Playback.Player == config.PlayerSpeaker && !cfg.Silent {
			renderers = append(renderers, audio.NewPlayer(&cfg.Playback))
		}
	}

	if cfg.Verbose {
		renderers = append(renderers, &render.Arduino{Pin: cfg.Arduino.Pin, Title: arduinoTitle})
	}
	if cfg.Arduino.Output != "" {
		f, err := os.Create(cfg.Arduino.Output)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, f)
		renderers = append(renderers, &render.Arduino{Pin: cfg.Arduino.Pin, Out: f})
	}

	if cfg.Preview.Path != "" {
		renderers = append(renderers, &render.Preview{
			Path:       cfg.Preview.Path,
			SampleRate: cfg.Preview.SampleRate,
			BitDepth:   cfg.Preview.BitDepth,
			Volume:     cfg.Preview.Volume,
		})
	}

	if cfg.Transport.URL != "" {
		t, err := transport.Open(cfg.Transport.URL)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		closers = append(closers, t)
		renderers = append(renderers, &render.Publisher{Transport: t, Pace: cfg.Transport.Pace})
	}

	return renderers, cleanup, nil
}

func writeMetrics(path string) {
	if path == "" {
		return
	}
	if err := metrics.WriteTextfile(path); err != nil {
		applog.Warnf("Metrics: %v", err)
	}
}
