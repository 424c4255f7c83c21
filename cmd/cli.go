package cmd

import (
	"fmt"
	"os"
	"time"

	"wavbeep/internal/config"
	"wavbeep/pkg/build"

	"github.com/spf13/cobra"
)

// override copies one flag's value from the flag-bound config into the
// loaded one.
type override func(dst, src *config.Config)

// Flags bound to the root command and shared by every subcommand.
var persistentOverrides = map[string]override{
	"log-level": func(d, s *config.Config) { d.LogLevel = s.LogLevel },
	"verbose":   func(d, s *config.Config) { d.Verbose = s.Verbose },
}

var convertOverrides = map[string]override{
	"window":        func(d, s *config.Config) { d.WindowMS = s.WindowMS },
	"taper":         func(d, s *config.Config) { d.Taper = s.Taper },
	"gate":          func(d, s *config.Config) { d.GateThreshold = s.GateThreshold },
	"silent":        func(d, s *config.Config) { d.Silent = s.Silent },
	"player":        func(d, s *config.Config) { d.Playback.Player = s.Playback.Player },
	"beep-bin":      func(d, s *config.Config) { d.Playback.BeepBinary = s.Playback.BeepBinary },
	"output-device": func(d, s *config.Config) { d.Playback.DeviceID = s.Playback.DeviceID },
	"volume":        func(d, s *config.Config) { d.Playback.Volume = s.Playback.Volume },
	"arduino-pin":   func(d, s *config.Config) { d.Arduino.Pin = s.Arduino.Pin },
	"arduino-out":   func(d, s *config.Config) { d.Arduino.Output = s.Arduino.Output },
	"preview":       func(d, s *config.Config) { d.Preview.Path = s.Preview.Path },
	"publish":       func(d, s *config.Config) { d.Transport.URL = s.Transport.URL },
	"pace":          func(d, s *config.Config) { d.Transport.Pace = s.Transport.Pace },
	"metrics-file":  func(d, s *config.Config) { d.Metrics.File = s.Metrics.File },
}

var recordOverrides = map[string]override{
	"input-device":      func(d, s *config.Config) { d.Recording.DeviceID = s.Recording.DeviceID },
	"seconds":           func(d, s *config.Config) { d.Recording.Seconds = s.Recording.Seconds },
	"sample-rate":       func(d, s *config.Config) { d.Recording.SampleRate = s.Recording.SampleRate },
	"channels":          func(d, s *config.Config) { d.Recording.Channels = s.Recording.Channels },
	"bit-depth":         func(d, s *config.Config) { d.Recording.BitDepth = s.Recording.BitDepth },
	"frames-per-buffer": func(d, s *config.Config) { d.Recording.FramesPerBuffer = s.Recording.FramesPerBuffer },
	"low-latency":       func(d, s *config.Config) { d.Recording.LowLatency = s.Recording.LowLatency },
	"trigger":           func(d, s *config.Config) { d.Recording.Trigger = s.Recording.Trigger },
}

// ParseArgs parses os.Args into a validated configuration. It returns a
// nil config when only help or version output was requested.
func ParseArgs() (*config.Config, error) {
	return parseArgs(os.Args[1:])
}

func parseArgs(args []string) (*config.Config, error) {
	buildInfo := build.GetBuildFlags()

	// Flag values land here; only the ones set explicitly are copied over
	// the loaded configuration.
	flags := config.NewConfig()
	var (
		configPath string
		result     *config.Config
	)

	resolve := func(cmd *cobra.Command, command string, sets ...map[string]override) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg.Command = command
		for _, set := range append(sets, persistentOverrides) {
			for name, apply := range set {
				if cmd.Flags().Changed(name) {
					apply(cfg, flags)
				}
			}
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		result = cfg
		return nil
	}

	rootCmd := &cobra.Command{
		Use:           buildInfo.Name + " <file.wav>",
		Short:         buildInfo.Description,
		Version:       buildInfo.Version,
		Args:          cobra.ExactArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := resolve(cmd, config.CommandConvert, convertOverrides); err != nil {
				return err
			}
			result.Input = args[0]
			return nil
		},
	}
	rootCmd.SetVersionTemplate(buildInfo.String() + "\n")

	// Display help message
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	// Global Configuration
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"YAML configuration file (default ./"+config.DefaultConfigFile+" if present)")
	rootCmd.PersistentFlags().StringVar(&flags.LogLevel, "log-level", config.DefaultLogLevel,
		"Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().BoolVarP(&flags.Verbose, "verbose", "v", false,
		"Print the beep command and the Arduino equivalent")

	// Analysis Configuration
	rootCmd.Flags().IntVarP(&flags.WindowMS, "window", "w", config.DefaultWindowMS,
		"Analysis window length in milliseconds")
	rootCmd.Flags().StringVar(&flags.Taper, "taper", config.DefaultTaper,
		"Window function: blackman, hann, hamming or rectangular")
	rootCmd.Flags().Float64Var(&flags.GateThreshold, "gate", config.DefaultGateThreshold,
		"RMS level 0.0-1.0 below which a window becomes a rest (0 disables)")

	// Playback Configuration
	rootCmd.Flags().BoolVar(&flags.Silent, "silent", false,
		"Do not play the generated sequence")
	rootCmd.Flags().StringVar(&flags.Playback.Player, "player", config.DefaultPlayer,
		"How to play the sequence: beep, speaker or none")
	rootCmd.Flags().StringVar(&flags.Playback.BeepBinary, "beep-bin", config.DefaultBeepBinary,
		"beep executable to run")
	rootCmd.Flags().IntVar(&flags.Playback.DeviceID, "output-device", config.DefaultDeviceID,
		"Output device ID for the speaker player. Use 'devices' command to see available devices.")
	rootCmd.Flags().Float64Var(&flags.Playback.Volume, "volume", config.DefaultVolume,
		"Speaker player volume 0.0-1.0")

	// Other Outputs
	rootCmd.Flags().IntVar(&flags.Arduino.Pin, "arduino-pin", config.DefaultArduinoPin,
		"Pin used in the generated Arduino statements")
	rootCmd.Flags().StringVar(&flags.Arduino.Output, "arduino-out", "",
		"Write the Arduino statements to a file")
	rootCmd.Flags().StringVar(&flags.Preview.Path, "preview", "",
		"Write a square-wave WAV preview of the sequence")
	rootCmd.Flags().StringVar(&flags.Transport.URL, "publish", "",
		"Publish events to udp://host:port, ws://host/path or log:")
	rootCmd.Flags().BoolVar(&flags.Transport.Pace, "pace", false,
		"Publish events in real time")
	rootCmd.Flags().StringVar(&flags.Metrics.File, "metrics-file", "",
		"Write conversion metrics in Prometheus text format")

	// Notes command
	notesCmd := &cobra.Command{
		Use:   "notes",
		Short: "Print the note frequency table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return resolve(cmd, config.CommandNotes)
		},
	}
	rootCmd.AddCommand(notesCmd)

	// Devices command
	devicesCmd := &cobra.Command{
		Use:   "devices",
		Short: "List available audio devices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return resolve(cmd, config.CommandDevices)
		},
	}
	rootCmd.AddCommand(devicesCmd)

	// Record command
	recordCmd := &cobra.Command{
		Use:   "record [out.wav]",
		Short: "Record a WAV file from an input device",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := resolve(cmd, config.CommandRecord, recordOverrides); err != nil {
				return err
			}
			result.Recording.Output = flags.Recording.Output
			if len(args) == 1 {
				result.Recording.Output = args[0]
			}
			return nil
		},
	}
	recordCmd.Flags().StringVarP(&flags.Recording.Output, "output", "o",
		"recording-"+time.Now().UTC().Format("02-01-2006-150405")+".wav",
		"Output file name")
	recordCmd.Flags().IntVarP(&flags.Recording.DeviceID, "input-device", "d", config.DefaultDeviceID,
		"Input device ID. Use 'devices' command to see available devices.")
	recordCmd.Flags().IntVar(&flags.Recording.Seconds, "seconds", config.DefaultRecordSeconds,
		"Seconds to record")
	recordCmd.Flags().Float64VarP(&flags.Recording.SampleRate, "sample-rate", "s", config.DefaultSampleRate,
		"Sample rate, measured in Hertz (Hz)")
	recordCmd.Flags().IntVarP(&flags.Recording.Channels, "channels", "c", config.DefaultChannels,
		"Number of channels to record (1=mono, 2=stereo)")
	recordCmd.Flags().IntVar(&flags.Recording.BitDepth, "bit-depth", config.DefaultRecordBitDepth,
		"Bits per sample in the WAV file (16 or 32)")
	recordCmd.Flags().IntVarP(&flags.Recording.FramesPerBuffer, "frames-per-buffer", "b", config.DefaultFramesPerBuffer,
		"The number of frames per buffer (affects latency)")
	recordCmd.Flags().BoolVarP(&flags.Recording.LowLatency, "low-latency", "l", config.DefaultLowLatency,
		"Use low latency mode")
	recordCmd.Flags().Float64Var(&flags.Recording.Trigger, "trigger", 0,
		"Peak level 0.0-1.0 that starts the recording (0 starts at once)")
	rootCmd.AddCommand(recordCmd)

	// Execute the CLI
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		return nil, err
	}

	return result, nil
}
