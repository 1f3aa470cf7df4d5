package dsp

import (
	"errors"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
)

// ErrNoPitch is returned when no tone stands out of the noise in range.
var ErrNoPitch = errors.New("no tone found")

// PitchConfig bounds the tone search.
type PitchConfig struct {
	SampleRate int
	// FFTSize is the analysis frame; a power of two keeps the FFT fast
	FFTSize int
	MinHz   float64
	MaxHz   float64
	// NoiseFloor is the smallest averaged amplitude accepted as a tone
	NoiseFloor float64
}

// DefaultPitchConfig searches the range tone_frequency may be set to.
func DefaultPitchConfig(sampleRate int) PitchConfig {
	return PitchConfig{
		SampleRate: sampleRate,
		FFTSize:    4096,
		MinHz:      100,
		MaxHz:      3000,
		NoiseFloor: 1e-3,
	}
}

// Pitch finds the dominant tone in samples: Blackman-windowed FFT frames are
// averaged, the loudest bin inside [MinHz, MaxHz] is picked and refined by
// parabolic interpolation.
func Pitch(samples []float32, cfg PitchConfig) (float64, error) {
	if cfg.SampleRate <= 0 {
		return 0, ErrInvalidSampleRate
	}
	if cfg.FFTSize <= 0 {
		return 0, ErrInvalidBlockSize
	}

	if len(samples) < 2 {
		return 0, ErrNoPitch
	}

	// Input shorter than a frame is windowed as-is and zero padded.
	n := cfg.FFTSize
	win := window.Blackman(min(n, len(samples)))
	var gain float64
	for _, v := range win {
		gain += v
	}

	spectrum := make([]float64, n/2+1)
	frame := make([]float64, n)
	frames := 0
	for at := 0; at == 0 || at+n <= len(samples); at += n {
		for i := range frame {
			frame[i] = 0
			if i < len(win) && at+i < len(samples) {
				frame[i] = float64(samples[at+i]) * win[i]
			}
		}
		for i, c := range fft.FFTReal(frame)[:len(spectrum)] {
			spectrum[i] += cmplx.Abs(c)
		}
		frames++
	}

	binHz := float64(cfg.SampleRate) / float64(n)
	lo := max(1, int(cfg.MinHz/binHz))
	hi := min(len(spectrum)-2, int(cfg.MaxHz/binHz)+1)
	peak := -1
	for i := lo; i <= hi; i++ {
		if peak < 0 || spectrum[i] > spectrum[peak] {
			peak = i
		}
	}
	if peak < 0 {
		return 0, ErrNoPitch
	}
	if amp := spectrum[peak] * 2 / gain / float64(frames); amp < cfg.NoiseFloor {
		return 0, ErrNoPitch
	}

	a, b, c := spectrum[peak-1], spectrum[peak], spectrum[peak+1]
	offset := 0.0
	if d := a - 2*b + c; d != 0 {
		offset = 0.5 * (a - c) / d
	}
	return (float64(peak) + offset) * binHz, nil
}
