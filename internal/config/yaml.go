// SPDX-License-Identifier: MIT
package config

import (
	"fmt"
	"os"
	"strconv"

	"wavbeep/internal/analysis"
	applog "wavbeep/internal/log"
	"wavbeep/pkg/bitint"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is looked up in the working directory when no path is
// given.
const DefaultConfigFile = "wavbeep.yaml"

// LoadConfig loads configuration from the YAML file at path, applies the
// environment and validates the result.
func LoadConfig(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Load builds a configuration from defaults, the YAML file at path and
// WAVBEEP_* environment overrides, without validating it. If path is empty
// it tries DefaultConfigFile and falls back to built-in defaults when that
// does not exist. Callers layering more overrides on top validate once
// they are done.
func Load(path string) (*Config, error) {
	cfg := NewConfig()

	if path == "" {
		if _, err := os.Stat(DefaultConfigFile); err == nil {
			path = DefaultConfigFile
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
		applog.Debugf("Config: Loaded %s", path)
	}

	// Apply environment variable overrides AFTER loading from file.
	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks every field the selected command depends on.
func (c *Config) Validate() error {
	if c.WindowMS <= 0 {
		return fmt.Errorf("window_ms must be positive, got %d", c.WindowMS)
	}
	if c.WindowMS > MaxLengthSeconds*1000 {
		return fmt.Errorf("window_ms %d exceeds the %d s input limit", c.WindowMS, MaxLengthSeconds)
	}
	if _, err := analysis.ParseWindowFunc(c.Taper); err != nil {
		return fmt.Errorf("taper: %w", err)
	}
	if err := checkUnit("gate_threshold", c.GateThreshold); err != nil {
		return err
	}
	if _, ok := applog.ParseLevel(c.LogLevel); !ok {
		return fmt.Errorf("unknown log_level '%s'", c.LogLevel)
	}

	switch c.Playback.Player {
	case PlayerBeep, PlayerSpeaker, PlayerNone:
	default:
		return fmt.Errorf("playback.player must be one of %s, %s, %s; got '%s'",
			PlayerBeep, PlayerSpeaker, PlayerNone, c.Playback.Player)
	}
	if c.Playback.Player == PlayerBeep && c.Playback.BeepBinary == "" {
		return fmt.Errorf("playback.beep_binary must be set for the beep player")
	}
	if c.Playback.Player == PlayerSpeaker {
		if err := checkDevice("playback", c.Playback.DeviceID, c.Playback.SampleRate, c.Playback.FramesPerBuffer); err != nil {
			return err
		}
	}
	if err := checkUnit("playback.volume", c.Playback.Volume); err != nil {
		return err
	}

	if c.Arduino.Pin < 0 || c.Arduino.Pin > MaxArduinoPin {
		return fmt.Errorf("arduino.pin must be between 0 and %d, got %d", MaxArduinoPin, c.Arduino.Pin)
	}

	if c.Preview.Path != "" {
		switch c.Preview.BitDepth {
		case 8, 16, 24, 32:
		default:
			return fmt.Errorf("preview.bit_depth must be 8, 16, 24 or 32, got %d", c.Preview.BitDepth)
		}
		if c.Preview.SampleRate < MinSampleRate || c.Preview.SampleRate > MaxSampleRate {
			return fmt.Errorf("preview.sample_rate must be between %d and %d Hz, got %d",
				MinSampleRate, MaxSampleRate, c.Preview.SampleRate)
		}
		if err := checkUnit("preview.volume", c.Preview.Volume); err != nil {
			return err
		}
	}

	if c.Command == CommandRecord {
		r := c.Recording
		if r.Seconds < 1 || r.Seconds > MaxLengthSeconds {
			return fmt.Errorf("recording.seconds must be between 1 and %d, got %d", MaxLengthSeconds, r.Seconds)
		}
		if r.Channels < 1 || r.Channels > MaxChannels {
			return fmt.Errorf("recording.channels must be between 1 and %d, got %d", MaxChannels, r.Channels)
		}
		if r.BitDepth != 16 && r.BitDepth != 32 {
			return fmt.Errorf("recording.bit_depth must be 16 or 32, got %d", r.BitDepth)
		}
		if err := checkDevice("recording", r.DeviceID, r.SampleRate, r.FramesPerBuffer); err != nil {
			return err
		}
		if err := checkUnit("recording.trigger", r.Trigger); err != nil {
			return err
		}
	}

	return nil
}

func checkUnit(name string, v float64) error {
	if v < 0 || v > 1 {
		return fmt.Errorf("%s must be between 0.0 and 1.0, got %.3f", name, v)
	}
	return nil
}

func checkDevice(section string, deviceID int, sampleRate float64, frames int) error {
	if deviceID < MinDeviceID {
		return fmt.Errorf("%s device must be %d (default) or a device index, got %d", section, MinDeviceID, deviceID)
	}
	if sampleRate < MinSampleRate || sampleRate > MaxSampleRate {
		return fmt.Errorf("%s.sample_rate must be between %d and %d Hz, got %.0f", section, MinSampleRate, MaxSampleRate, sampleRate)
	}
	if frames <= 0 || frames > MaxBufferFrames || !bitint.IsPowerOfTwo(frames) {
		return fmt.Errorf("%s.frames_per_buffer must be a power of 2 up to %d, got %d (try %d)",
			section, MaxBufferFrames, frames, bitint.ClampPowerOfTwo(frames, MaxBufferFrames))
	}
	return nil
}

// applyEnvOverrides applies WAVBEEP_* variables on top of the file values.
// A set but malformed variable is an error.
func (cfg *Config) applyEnvOverrides() error {
	if val, ok := os.LookupEnv("WAVBEEP_WINDOW_MS"); ok {
		n, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("WAVBEEP_WINDOW_MS: %w", err)
		}
		cfg.WindowMS = n
		applog.Debugf("Config: Overriding window_ms from env: %d", n)
	}
	if val, ok := os.LookupEnv("WAVBEEP_TAPER"); ok {
		cfg.Taper = val
		applog.Debugf("Config: Overriding taper from env: %s", val)
	}
	if val, ok := os.LookupEnv("WAVBEEP_GATE"); ok {
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return fmt.Errorf("WAVBEEP_GATE: %w", err)
		}
		cfg.GateThreshold = f
		applog.Debugf("Config: Overriding gate_threshold from env: %v", f)
	}
	if val, ok := os.LookupEnv("WAVBEEP_LOG_LEVEL"); ok {
		cfg.LogLevel = val
		applog.Debugf("Config: Overriding log_level from env: %s", val)
	}
	if val, ok := os.LookupEnv("WAVBEEP_VERBOSE"); ok {
		b, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("WAVBEEP_VERBOSE: %w", err)
		}
		cfg.Verbose = b
	}
	if val, ok := os.LookupEnv("WAVBEEP_SILENT"); ok {
		b, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("WAVBEEP_SILENT: %w", err)
		}
		cfg.Silent = b
	}

	// WAVBEEP_{PLAYER,BEEP_BIN}
	// Playback selection.
	if val, ok := os.LookupEnv("WAVBEEP_PLAYER"); ok {
		cfg.Playback.Player = val
		applog.Debugf("Config: Overriding playback.player from env: %s", val)
	}
	if val, ok := os.LookupEnv("WAVBEEP_BEEP_BIN"); ok {
		cfg.Playback.BeepBinary = val
		applog.Debugf("Config: Overriding playback.beep_binary from env: %s", val)
	}

	// WAVBEEP_{PUBLISH,METRICS_FILE}
	// Outputs that leave the process.
	if val, ok := os.LookupEnv("WAVBEEP_PUBLISH"); ok {
		cfg.Transport.URL = val
		applog.Debugf("Config: Overriding transport.url from env: %s", val)
	}
	if val, ok := os.LookupEnv("WAVBEEP_METRICS_FILE"); ok {
		cfg.Metrics.File = val
		applog.Debugf("Config: Overriding metrics.file from env: %s", val)
	}
	return nil
}
