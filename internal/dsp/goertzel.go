// internal/dsp/goertzel.go
// Package dsp recovers keying from recorded audio: a single-bin Goertzel
// filter at the tone frequency and a block detector that turns its output
// back into a tone sequence.
package dsp

import (
	"errors"
	"math"

	"github.com/mjibson/go-dsp/window"
)

var (
	// ErrInvalidBlockSize indicates block size must be positive
	ErrInvalidBlockSize = errors.New("block size must be positive")
	// ErrInvalidSampleRate indicates sample rate must be positive
	ErrInvalidSampleRate = errors.New("sample rate must be positive")
	// ErrInvalidFrequency indicates frequency must be positive and below Nyquist
	ErrInvalidFrequency = errors.New("target frequency must be positive and less than Nyquist frequency")
	// ErrInsufficientSamples indicates not enough samples for the configured block size
	ErrInsufficientSamples = errors.New("insufficient samples for block size")
)

// Goertzel measures the energy of one frequency over fixed-size, Hann
// windowed blocks.
type Goertzel struct {
	blockSize   int
	coefficient float64 // 2 * cos(2π * f / fs)
	window      []float64
	normalizer  float64 // 2 / Σw, so a full-scale sine reads about 1.0
}

// NewGoertzel builds a filter for freq Hz at sampleRate over blockSize samples.
func NewGoertzel(freq float64, sampleRate, blockSize int) (*Goertzel, error) {
	if blockSize <= 0 {
		return nil, ErrInvalidBlockSize
	}
	if sampleRate <= 0 {
		return nil, ErrInvalidSampleRate
	}
	if freq <= 0 || freq >= float64(sampleRate)/2 {
		return nil, ErrInvalidFrequency
	}

	w := window.Hann(blockSize)
	var sum float64
	for _, v := range w {
		sum += v
	}
	if sum == 0 {
		// A one- or two-sample Hann window is all zeros.
		for i := range w {
			w[i] = 1
		}
		sum = float64(blockSize)
	}

	omega := 2 * math.Pi * freq / float64(sampleRate)
	return &Goertzel{
		blockSize:   blockSize,
		coefficient: 2 * math.Cos(omega),
		window:      w,
		normalizer:  2 / sum,
	}, nil
}

// Magnitude returns the normalised magnitude of the target frequency in the
// first BlockSize samples.
func (g *Goertzel) Magnitude(samples []float32) (float64, error) {
	if len(samples) < g.blockSize {
		return 0, ErrInsufficientSamples
	}
	return g.magnitude(samples[:g.blockSize]), nil
}

func (g *Goertzel) magnitude(block []float32) float64 {
	var s1, s2 float64
	for i, x := range block {
		s0 := float64(x)*g.window[i] + g.coefficient*s1 - s2
		s2, s1 = s1, s0
	}

	power := s1*s1 + s2*s2 - g.coefficient*s1*s2
	if power < 0 {
		// Rounding can push a silent block just below zero.
		power = 0
	}
	return math.Sqrt(power) * g.normalizer
}

// BlockSize returns the configured block size
func (g *Goertzel) BlockSize() int {
	return g.blockSize
}
