// cmd/root.go
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/ColonelBlimp/cwkeyer/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "cwkeyer",
	Short: "Iambic Morse keyer, decoder and encoder",
	Long: `A Morse code keyer that reads paddles from USB-MIDI, serial-MIDI or
WinKeyer adapters, decodes what you send, and encodes text for playback.`,
	SilenceUsage: true,
}

// logger is replaced by initLogger once the config is read.
var logger = slog.Default()

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags (override config file)
	rootCmd.PersistentFlags().IntP("wpm", "w", 20, "keying speed in WPM")
	rootCmd.PersistentFlags().StringP("mode", "m", "iambic_b", "paddle mode: iambic_a, iambic_b or straight")
	rootCmd.PersistentFlags().StringP("adapter", "a", "midi", "input adapter: midi, serial or winkeyer")
	rootCmd.PersistentFlags().StringP("port", "p", "", "serial port for serial and winkeyer adapters")
	rootCmd.PersistentFlags().String("midi-port", "", "MIDI input name fragment (empty to autodetect)")
	rootCmd.PersistentFlags().Float64P("frequency", "f", 600, "tone frequency in Hz")
	rootCmd.PersistentFlags().BoolP("debug", "D", false, "enable debug output")
}

// persistentBindings maps config keys to root flags.
var persistentBindings = map[string]string{
	"wpm":            "wpm",
	"paddle_mode":    "mode",
	"adapter":        "adapter",
	"port":           "port",
	"midi_port":      "midi-port",
	"tone_frequency": "frequency",
	"debug":          "debug",
}

// bindFlags binds flags to viper. It runs on every initialisation because
// viper.Reset drops earlier bindings.
func bindFlags() {
	for key, name := range persistentBindings {
		_ = viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(name))
	}
	_ = viper.BindPFlag("sim_wpm", encodeCmd.Flags().Lookup("speed"))
}

func initConfig() {
	bindFlags()
	if err := config.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	initLogger(viper.GetBool("debug"))
}

// initLogger configures the shared slog logger and makes it the default.
func initLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level:     level,
		AddSource: debug,
	})
	logger = slog.New(h)
	slog.SetDefault(logger)
}

// settings loads and validates the merged configuration.
func settings() (*config.Settings, error) {
	s, err := config.Get()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return s, nil
}
