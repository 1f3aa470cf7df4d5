package cmd

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ColonelBlimp/cwkeyer/internal/audio"
	"github.com/ColonelBlimp/cwkeyer/internal/config"
	"github.com/ColonelBlimp/cwkeyer/internal/device"
	"github.com/ColonelBlimp/cwkeyer/internal/keyer"
	"github.com/ColonelBlimp/cwkeyer/internal/morse"
	"github.com/ColonelBlimp/cwkeyer/internal/recovery"
	"github.com/ColonelBlimp/cwkeyer/internal/session"
	"github.com/spf13/cobra"
)

var keyCmd = &cobra.Command{
	Use:   "key",
	Short: "Key from a paddle adapter and print what you send",
	Long: `Open the configured adapter and run a live keying session. Elements are
decoded as you send and printed as text; the sidetone follows the key.
Press Ctrl+C to stop.`,
	Args: cobra.NoArgs,
	RunE: runKey,
}

func init() {
	rootCmd.AddCommand(keyCmd)
}

func runKey(cmd *cobra.Command, _ []string) error {
	s, err := settings()
	if err != nil {
		return err
	}
	tm := s.Timing()
	mode := s.Mode()

	in, closer, err := device.Open(deviceConfig(s))
	if err != nil {
		return fmt.Errorf("open %s adapter: %w", s.Adapter, err)
	}
	defer closer.Close()

	sink := sidetone(s)
	defer sink.Close()
	defer recovery.HandlePanicFunc(releaseKey(sink, closer))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	dec := morse.NewDecoder(tm, morse.WithLogger(logger))
	fmt.Fprintf(out, "Keying on %s at %d WPM (%s). Ctrl+C to stop.\n", in.Name(), s.WPM, mode)

	err = session.Run(ctx, in, dec, session.Options{
		PollInterval: time.Duration(s.PollIntervalMs) * time.Millisecond,
		TickInterval: time.Duration(s.TickIntervalMs) * time.Millisecond,
		// WinKeyer has no straight mode; echoed input is always timed elements.
		Straight: mode == keyer.Straight && s.Adapter != device.AdapterWinKeyer,
		OnText: func(text string) {
			fmt.Fprint(out, text)
			if text == " " && session.EndOfOver(dec.Text()) {
				logger.Info("over")
			}
		},
		OnKey: func(down bool) {
			if down {
				sink.ToneOn()
			} else {
				sink.ToneOff()
			}
		},
		Logger: logger,
	})
	fmt.Fprintln(out)
	return err
}

// releaseKey unkeys the sidetone and releases the adapter and audio device.
// It runs when a session panics, before the process exits.
func releaseKey(sink audio.Sink, adapter io.Closer) func() {
	return func() {
		sink.ToneOff()
		if err := adapter.Close(); err != nil {
			logger.Error("close adapter", "err", err)
		}
		if err := sink.Close(); err != nil {
			logger.Error("close audio", "err", err)
		}
	}
}

func deviceConfig(s *config.Settings) device.Config {
	return device.Config{
		Adapter:  s.Adapter,
		Port:     s.Port,
		MIDIPort: s.MIDIPort,
		Baud:     s.SerialBaud,
		Mode:     s.Mode(),
		Swap:     s.SwitchPaddle,
		Timing:   s.Timing(),
		Logger:   logger,
	}
}

// sidetone opens the audio device, falling back to silence when sidetone is
// off or no device is available.
func sidetone(s *config.Settings) audio.Sink {
	if !s.Sidetone {
		return &audio.Null{}
	}
	p, err := audio.NewPlayer(format(s))
	if err != nil {
		logger.Warn("sidetone disabled", "err", err)
		return &audio.Null{}
	}
	return p
}
