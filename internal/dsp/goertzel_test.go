package dsp

import (
	"errors"
	"math"
	"testing"
)

func sine(freq float64, rate, n int, amp float64) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(amp * math.Sin(2*math.Pi*freq*float64(i)/float64(rate)))
	}
	return out
}

func TestNewGoertzel_Validation(t *testing.T) {
	tests := []struct {
		name  string
		freq  float64
		rate  int
		block int
		want  error
	}{
		{"valid", 600, 8000, 80, nil},
		{"zero block", 600, 8000, 0, ErrInvalidBlockSize},
		{"zero rate", 600, 0, 80, ErrInvalidSampleRate},
		{"zero freq", 0, 8000, 80, ErrInvalidFrequency},
		{"at nyquist", 4000, 8000, 80, ErrInvalidFrequency},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := NewGoertzel(tt.freq, tt.rate, tt.block)
			if !errors.Is(err, tt.want) {
				t.Fatalf("NewGoertzel() error = %v, want %v", err, tt.want)
			}
			if tt.want == nil && g.BlockSize() != tt.block {
				t.Errorf("BlockSize() = %d, want %d", g.BlockSize(), tt.block)
			}
		})
	}
}

func TestGoertzel_Magnitude(t *testing.T) {
	// 700 Hz sits exactly on bin 7 for 80 samples at 8 kHz.
	g, err := NewGoertzel(700, 8000, 80)
	if err != nil {
		t.Fatal(err)
	}

	on, err := g.Magnitude(sine(700, 8000, 80, 0.8))
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(on-0.8) > 0.01 {
		t.Errorf("on-frequency magnitude = %v, want 0.8", on)
	}

	off, _ := g.Magnitude(sine(1500, 8000, 80, 0.8))
	if off > 0.05 {
		t.Errorf("off-frequency magnitude = %v, want near 0", off)
	}

	silent, _ := g.Magnitude(make([]float32, 80))
	if silent != 0 {
		t.Errorf("silence magnitude = %v, want 0", silent)
	}

	if _, err := g.Magnitude(make([]float32, 10)); !errors.Is(err, ErrInsufficientSamples) {
		t.Errorf("short input error = %v, want ErrInsufficientSamples", err)
	}
}
