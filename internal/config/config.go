package config

// Core configuration constants that define the boundaries and defaults
// for the converter.
const (
	// MaxLengthSeconds caps how much of an input is analyzed. Samples past
	// it are never decoded. Not configurable.
	MaxLengthSeconds = 40

	// Analysis defaults
	DefaultWindowMS      = 50         // Analysis window length (ms)
	DefaultTaper         = "blackman" // Window function
	DefaultGateThreshold = 0.0        // Silence gate disabled
	DefaultLogLevel      = "info"

	// Output defaults
	DefaultPlayer     = PlayerBeep
	DefaultBeepBinary = "beep"
	DefaultArduinoPin = 4
	DefaultVolume     = 0.5

	// Preview defaults
	DefaultPreviewSampleRate = 44100
	DefaultPreviewBitDepth   = 16

	// Audio device defaults
	DefaultDeviceID        = MinDeviceID // System default device
	DefaultSampleRate      = 44100       // CD-quality audio
	DefaultChannels        = 1           // Mono audio
	DefaultFramesPerBuffer = 512         // Balanced latency/performance
	DefaultLowLatency      = false       // Standard latency mode
	DefaultRecordSeconds   = 5
	DefaultRecordBitDepth  = 16

	// Hardware and processing limits
	MinDeviceID     = -1     // -1 represents system default device
	MinSampleRate   = 8000   // Minimum usable sample rate (Hz)
	MaxSampleRate   = 192000 // Maximum supported sample rate (Hz)
	MaxChannels     = 2
	MaxBufferFrames = 8192 // Maximum frames per buffer (power of 2)
	MaxArduinoPin   = 69   // Highest digital pin on a Mega 2560
)

// Players that can sound a converted sequence.
const (
	PlayerBeep    = "beep"    // beep(1) on the PC speaker
	PlayerSpeaker = "speaker" // Square-wave synthesis on a PortAudio output
	PlayerNone    = "none"
)

// Subcommands
const (
	CommandConvert = "convert"
	CommandNotes   = "notes"
	CommandDevices = "devices"
	CommandRecord  = "record"
)

// Config holds all runtime configuration options. It is built from
// defaults, then a YAML file, then WAVBEEP_* environment variables, then
// explicitly set command line flags.
type Config struct {
	Command string `yaml:"-"` // Subcommand to run.
	Input   string `yaml:"-"` // WAV file to convert.

	// Analysis Settings
	WindowMS      int     `yaml:"window_ms"`      // Analysis window length in ms.
	Taper         string  `yaml:"taper"`          // Window function name.
	GateThreshold float64 `yaml:"gate_threshold"` // RMS silence gate 0.0-1.0, 0 disables.

	// Output Options
	Verbose  bool   `yaml:"verbose"`   // Print the beep command and Arduino code.
	Silent   bool   `yaml:"silent"`    // Never play the sequence.
	LogLevel string `yaml:"log_level"` // debug, info, warn, error.

	Playback  PlaybackConfig  `yaml:"playback"`
	Arduino   ArduinoConfig   `yaml:"arduino"`
	Preview   PreviewConfig   `yaml:"preview"`
	Transport TransportConfig `yaml:"transport"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Recording RecordingConfig `yaml:"recording"`
}

// PlaybackConfig selects and tunes the player.
type PlaybackConfig struct {
	Player          string  `yaml:"player"`            // beep, speaker or none.
	BeepBinary      string  `yaml:"beep_binary"`       // Path or name of beep(1).
	DeviceID        int     `yaml:"output_device"`     // PortAudio output device, -1 for default.
	SampleRate      float64 `yaml:"sample_rate"`       // Speaker synthesis rate in Hz.
	FramesPerBuffer int     `yaml:"frames_per_buffer"` // PortAudio buffer size.
	LowLatency      bool    `yaml:"low_latency"`
	Volume          float64 `yaml:"volume"` // 0.0-1.0.
}

// ArduinoConfig controls the generated sketch statements.
type ArduinoConfig struct {
	Pin    int    `yaml:"pin"`
	Output string `yaml:"output"` // File to write the statements to, empty for none.
}

// PreviewConfig controls the synthesized WAV preview.
type PreviewConfig struct {
	Path       string  `yaml:"path"` // Empty disables the preview.
	SampleRate int     `yaml:"sample_rate"`
	BitDepth   int     `yaml:"bit_depth"`
	Volume     float64 `yaml:"volume"`
}

// TransportConfig controls event publishing.
type TransportConfig struct {
	URL  string `yaml:"url"`  // udp://host:port, ws://host/path or log:. Empty disables.
	Pace bool   `yaml:"pace"` // Send events in real time.
}

// MetricsConfig controls the prometheus textfile dump.
type MetricsConfig struct {
	File string `yaml:"file"` // Empty disables.
}

// RecordingConfig holds the microphone capture settings of the record
// subcommand.
type RecordingConfig struct {
	Output          string  `yaml:"-"`                 // Target WAV file.
	DeviceID        int     `yaml:"input_device"`      // PortAudio input device, -1 for default.
	Seconds         int     `yaml:"seconds"`           // Capture length, at most MaxLengthSeconds.
	SampleRate      float64 `yaml:"sample_rate"`       // Capture rate in Hz.
	Channels        int     `yaml:"channels"`          // 1 or 2.
	BitDepth        int     `yaml:"bit_depth"`         // 16 or 32.
	FramesPerBuffer int     `yaml:"frames_per_buffer"` // PortAudio buffer size.
	LowLatency      bool    `yaml:"low_latency"`
	Trigger         float64 `yaml:"trigger"` // Peak level 0.0-1.0 that starts the capture, 0 starts at once.
}

// NewConfig creates a new Config instance with default values.
// This is used as the base configuration before applying a config file,
// the environment and command line flags.
func NewConfig() *Config {
	return &Config{
		Command:       CommandConvert,
		WindowMS:      DefaultWindowMS,
		Taper:         DefaultTaper,
		GateThreshold: DefaultGateThreshold,
		LogLevel:      DefaultLogLevel,
		Playback: PlaybackConfig{
			Player:          DefaultPlayer,
			BeepBinary:      DefaultBeepBinary,
			DeviceID:        DefaultDeviceID,
			SampleRate:      DefaultSampleRate,
			FramesPerBuffer: DefaultFramesPerBuffer,
			LowLatency:      DefaultLowLatency,
			Volume:          DefaultVolume,
		},
		Arduino: ArduinoConfig{
			Pin: DefaultArduinoPin,
		},
		Preview: PreviewConfig{
			SampleRate: DefaultPreviewSampleRate,
			BitDepth:   DefaultPreviewBitDepth,
			Volume:     DefaultVolume,
		},
		Recording: RecordingConfig{
			DeviceID:        DefaultDeviceID,
			Seconds:         DefaultRecordSeconds,
			SampleRate:      DefaultSampleRate,
			Channels:        DefaultChannels,
			BitDepth:        DefaultRecordBitDepth,
			FramesPerBuffer: DefaultFramesPerBuffer,
			LowLatency:      DefaultLowLatency,
		},
	}
}
