package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ColonelBlimp/cwkeyer/internal/audio"
	"github.com/ColonelBlimp/cwkeyer/internal/dsp"
	"github.com/ColonelBlimp/cwkeyer/internal/morse"
	"github.com/spf13/cobra"
)

// ErrNoKeying is returned when a recording holds no tone at tone_frequency.
var ErrNoKeying = errors.New("no keying found at the tone frequency")

var decodeCmd = &cobra.Command{
	Use:   "decode [pattern...]",
	Short: "Decode dot/dash notation or a WAV recording",
	Long: `Decode Morse written as dots and dashes, characters separated by spaces
and words by "/", e.g. "-.-. --.- / -.. .". The pattern is replayed through
the live decoder on a simulated clock at the configured speed.

With --wav the keying is recovered from a recording instead: a tone
detector at tone_frequency finds the key-down spans, the speed is
estimated from them and the result goes through the same decoder.
--auto-tone finds the tone in the recording instead of using tone_frequency.`,
	Args: func(cmd *cobra.Command, args []string) error {
		if path, _ := cmd.Flags().GetString("wav"); path != "" {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.MinimumNArgs(1)(cmd, args)
	},
	RunE: runDecode,
}

func init() {
	decodeCmd.Flags().String("wav", "", "decode a WAV recording")
	decodeCmd.Flags().Bool("auto-tone", false, "detect the tone frequency of the recording")
	rootCmd.AddCommand(decodeCmd)
}

func runDecode(cmd *cobra.Command, args []string) error {
	s, err := settings()
	if err != nil {
		return err
	}
	step := time.Duration(s.TickIntervalMs) * time.Millisecond

	var text string
	if path, _ := cmd.Flags().GetString("wav"); path != "" {
		auto, _ := cmd.Flags().GetBool("auto-tone")
		text, err = decodeWAV(path, s.ToneFrequency, auto, step)
	} else {
		text, err = decodePattern(strings.Join(args, " "), s.Timing(), step)
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), strings.TrimSpace(text))
	return nil
}

func decodePattern(pattern string, tm morse.Timing, step time.Duration) (string, error) {
	seq, err := morse.ParsePattern(pattern, tm)
	if err != nil {
		return "", err
	}
	return morse.Replay(seq, tm, step), nil
}

func decodeWAV(path string, freq float64, auto bool, step time.Duration) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	samples, rate, err := audio.ReadWAV(f)
	if err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}
	if auto {
		if freq, err = dsp.Pitch(samples, dsp.DefaultPitchConfig(rate)); err != nil {
			return "", fmt.Errorf("%s: %w", path, err)
		}
		logger.Info("tone detected", "path", path, "hz", fmt.Sprintf("%.1f", freq))
	}
	seq, err := dsp.Keying(samples, dsp.DefaultKeyingConfig(freq, rate))
	if err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}
	tm, ok := morse.EstimateTiming(seq)
	if !ok {
		return "", fmt.Errorf("%s: %w", path, ErrNoKeying)
	}
	logger.Debug("wav keying", "path", path, "rate", rate, "tones", len(seq), "wpm", tm.WPM())
	return morse.Replay(morse.Quantize(seq, tm), tm, step), nil
}
