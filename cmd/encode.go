package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ColonelBlimp/cwkeyer/internal/audio"
	"github.com/ColonelBlimp/cwkeyer/internal/config"
	"github.com/ColonelBlimp/cwkeyer/internal/morse"
	"github.com/spf13/cobra"
)

var ErrNoText = errors.New("nothing to encode")

var encodeCmd = &cobra.Command{
	Use:   "encode [text...]",
	Short: "Print text as Morse and optionally play or save it",
	Long: `Encode text as Morse code. Prosigns are written in angle brackets,
e.g. "CQ CQ DE K1ABC <AR>". The dot/dash pattern is always printed;
--play sounds it and --wav writes a 16-bit mono WAV file.`,
	Args: cobra.ArbitraryArgs,
	RunE: runEncode,
}

func init() {
	encodeCmd.Flags().IntP("speed", "s", 20, "character speed in WPM (sim_wpm)")
	encodeCmd.Flags().Bool("play", false, "play through the audio device")
	encodeCmd.Flags().String("wav", "", "write a WAV file")
	encodeCmd.Flags().Bool("farnsworth", false, "stretch spacing to farnsworth_wpm")
	rootCmd.AddCommand(encodeCmd)
}

func runEncode(cmd *cobra.Command, args []string) error {
	text := strings.Join(args, " ")
	if strings.TrimSpace(text) == "" {
		return ErrNoText
	}

	s, err := settings()
	if err != nil {
		return err
	}
	farnsworth, _ := cmd.Flags().GetBool("farnsworth")
	tm := s.SimTiming(farnsworth)
	seq := morse.Encode(text, tm)

	fmt.Fprintln(cmd.OutOrStdout(), morse.Pattern(text))
	logger.Debug("encoded", "text", text, "elements", len(seq), "duration", seq.Total(), "dot", tm.Dot)

	if path, _ := cmd.Flags().GetString("wav"); path != "" {
		if err := writeWAV(path, seq, format(s)); err != nil {
			return err
		}
		logger.Info("wav written", "path", path, "duration", seq.Total())
	}

	if play, _ := cmd.Flags().GetBool("play"); play {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		p, err := audio.NewPlayer(format(s))
		if err != nil {
			return fmt.Errorf("audio: %w", err)
		}
		defer p.Close()

		if err := p.Play(ctx, seq); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("audio: %w", err)
		}
	}
	return nil
}

func writeWAV(path string, seq morse.ToneSeq, f audio.Format) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create wav: %w", err)
	}
	if err := audio.WriteWAV(file, seq, f); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

func format(s *config.Settings) audio.Format {
	return audio.Format{
		SampleRate: s.SampleRate,
		Frequency:  s.ToneFrequency,
		Volume:     s.Volume,
	}
}
