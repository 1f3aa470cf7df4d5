// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/viper"

	"github.com/ColonelBlimp/cwkeyer/internal/device"
	"github.com/ColonelBlimp/cwkeyer/internal/keyer"
	"github.com/ColonelBlimp/cwkeyer/internal/morse"
)

const (
	AppName       = "cwkeyer"
	ConfigType    = "yaml"
	DefaultConfig = `# CW Keyer Configuration

# Speed
wpm: 20                 # Your keying speed, drives the keyer and decoder
sim_wpm: 20             # Character speed of text played back by encode
farnsworth_wpm: 0       # Effective speed for playback spacing (0 = off)

# Sidetone and playback
tone_frequency: 600     # Tone pitch in Hz
volume: 0.5             # Peak amplitude (0.0-1.0)
sidetone: true          # Sound a tone while keying
sample_rate: 48000      # Output sample rate in Hz

# Paddle
paddle_mode: iambic_b   # iambic_a, iambic_b or straight
switch_paddle: false    # Swap dit and dah contacts

# Input adapter
adapter: midi           # midi, serial or winkeyer
port: ""                # Serial device for serial/winkeyer (e.g. /dev/ttyUSB0)
midi_port: ""           # MIDI input name fragment ("" = autodetect)
serial_baud: 115200     # serial-MIDI rate (31250 for Nano, 115200 for ESP32)

# Loop timing
poll_interval_ms: 2     # Paddle poll cadence
tick_interval_ms: 10    # Decoder tick cadence

# Output
debug: false            # Enable debug logging
`
)


// Settings holds all application configuration
type Settings struct {
	// Speed
	WPM           int `mapstructure:"wpm"`
	SimWPM        int `mapstructure:"sim_wpm"`
	FarnsworthWPM int `mapstructure:"farnsworth_wpm"`

	// Sidetone and playback
	ToneFrequency float64 `mapstructure:"tone_frequency"`
	Volume        float64 `mapstructure:"volume"`
	Sidetone      bool    `mapstructure:"sidetone"`
	SampleRate    int     `mapstructure:"sample_rate"`

	// Paddle
	PaddleMode   string `mapstructure:"paddle_mode"`
	SwitchPaddle bool   `mapstructure:"switch_paddle"`

	// Input adapter
	Adapter    string `mapstructure:"adapter"`
	Port       string `mapstructure:"port"`
	MIDIPort   string `mapstructure:"midi_port"`
	SerialBaud int    `mapstructure:"serial_baud"`

	// Loop timing
	PollIntervalMs int `mapstructure:"poll_interval_ms"`
	TickIntervalMs int `mapstructure:"tick_interval_ms"`

	// Output
	Debug bool `mapstructure:"debug"`
}

// Init initializes Viper with defaults and config file.
// Config file search order: current directory, then ~/.config/cwkeyer/
func Init() error {
	setDefaults()

	// Support both config.yaml and .config.yaml
	viper.SetConfigType(ConfigType)

	// Priority order: current directory first, then XDG config
	viper.AddConfigPath(".")

	configDir := Dir()
	viper.AddConfigPath(configDir)

	// Try .config.yaml first (hidden file), then config.yaml
	viper.SetConfigName(".config")
	err := viper.ReadInConfig()
	if err != nil {
		viper.SetConfigName("config")
		err = viper.ReadInConfig()
	}

	// Read config file - if not found, create default in XDG config dir
	if err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("read config: %w", err)
		}
		if err = ensureConfigExists(configDir); err != nil {
			return err
		}
		if err = viper.ReadInConfig(); err != nil {
			return fmt.Errorf("read config: %w", err)
		}
	}

	return nil
}

func setDefaults() {
	viper.SetDefault("wpm", 20)
	viper.SetDefault("sim_wpm", 20)
	viper.SetDefault("farnsworth_wpm", 0)
	viper.SetDefault("tone_frequency", 600)
	viper.SetDefault("volume", 0.5)
	viper.SetDefault("sidetone", true)
	viper.SetDefault("sample_rate", 48000)
	viper.SetDefault("paddle_mode", "iambic_b")
	viper.SetDefault("switch_paddle", false)
	viper.SetDefault("adapter", "midi")
	viper.SetDefault("port", "")
	viper.SetDefault("midi_port", "")
	viper.SetDefault("serial_baud", 115200)
	viper.SetDefault("poll_interval_ms", 2)
	viper.SetDefault("tick_interval_ms", 10)
	viper.SetDefault("debug", false)
}

// Dir returns the XDG config directory for the application.
func Dir() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return filepath.Join(configDir, AppName)
}

func ensureConfigExists(configPath string) error {
	configFile := filepath.Join(configPath, "config.yaml")

	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		if err = os.MkdirAll(configPath, 0755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
		if err = os.WriteFile(configFile, []byte(DefaultConfig), 0644); err != nil {
			return fmt.Errorf("write default config: %w", err)
		}
	}
	return nil
}

// Get returns the current settings
func Get() (*Settings, error) {
	var s Settings
	if err := viper.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &s, nil
}

// Validate checks that all settings are within acceptable ranges
func (s *Settings) Validate() error {
	var errs []error

	// Speed
	if s.WPM < 5 || s.WPM > 60 {
		errs = append(errs, fmt.Errorf("wpm must be between 5 and 60, got %d", s.WPM))
	}
	if s.SimWPM < 5 || s.SimWPM > 60 {
		errs = append(errs, fmt.Errorf("sim_wpm must be between 5 and 60, got %d", s.SimWPM))
	}
	if s.FarnsworthWPM != 0 && (s.FarnsworthWPM < 1 || s.FarnsworthWPM > s.SimWPM) {
		errs = append(errs, fmt.Errorf("farnsworth_wpm must be 0 or between 1 and sim_wpm (%d), got %d", s.SimWPM, s.FarnsworthWPM))
	}

	// Sidetone and playback
	if s.SampleRate < 8000 || s.SampleRate > 192000 {
		errs = append(errs, fmt.Errorf("sample_rate must be between 8000 and 192000 Hz, got %d", s.SampleRate))
	}
	if s.ToneFrequency < 100 || s.ToneFrequency > 3000 {
		errs = append(errs, fmt.Errorf("tone_frequency must be between 100 and 3000 Hz, got %v", s.ToneFrequency))
	}
	if s.ToneFrequency >= float64(s.SampleRate)/2 {
		errs = append(errs, fmt.Errorf("tone_frequency (%v Hz) must be less than Nyquist frequency (%v Hz)", s.ToneFrequency, float64(s.SampleRate)/2))
	}
	if s.Volume < 0.0 || s.Volume > 1.0 {
		errs = append(errs, fmt.Errorf("volume must be between 0.0 and 1.0, got %v", s.Volume))
	}

	// Paddle
	if _, err := keyer.ParseMode(s.PaddleMode); err != nil {
		errs = append(errs, fmt.Errorf("paddle_mode: %w", err))
	}

	// Input adapter
	adapter := strings.ToLower(s.Adapter)
	if !slices.Contains(device.Adapters, adapter) {
		errs = append(errs, fmt.Errorf("adapter must be one of %s, got %q", strings.Join(device.Adapters, ", "), s.Adapter))
	}
	if s.SerialBaud < 300 || s.SerialBaud > 1000000 {
		errs = append(errs, fmt.Errorf("serial_baud must be between 300 and 1000000, got %d", s.SerialBaud))
	}

	// Loop timing
	if s.PollIntervalMs < 1 || s.PollIntervalMs > 20 {
		errs = append(errs, fmt.Errorf("poll_interval_ms must be between 1 and 20, got %d", s.PollIntervalMs))
	}
	if s.TickIntervalMs < 1 || s.TickIntervalMs > 100 {
		errs = append(errs, fmt.Errorf("tick_interval_ms must be between 1 and 100, got %d", s.TickIntervalMs))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Timing returns the operator's keying timing.
func (s *Settings) Timing() morse.Timing {
	return morse.FromWPM(s.WPM)
}

// SimTiming returns the playback timing. Farnsworth spacing applies when
// farnsworth is set and farnsworth_wpm is non-zero.
func (s *Settings) SimTiming(farnsworth bool) morse.Timing {
	if farnsworth && s.FarnsworthWPM > 0 {
		return morse.Farnsworth(s.SimWPM, s.FarnsworthWPM)
	}
	return morse.FromWPM(s.SimWPM)
}

// Mode returns the parsed paddle mode. Validate has already checked it.
func (s *Settings) Mode() keyer.Mode {
	m, _ := keyer.ParseMode(s.PaddleMode)
	return m
}
