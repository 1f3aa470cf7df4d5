package dsp

import (
	"errors"
	"fmt"
	"time"

	"github.com/ColonelBlimp/cwkeyer/internal/morse"
)

var (
	// ErrInvalidThreshold indicates threshold must be between 0 and 1
	ErrInvalidThreshold = errors.New("threshold must be between 0.0 and 1.0")
	// ErrInvalidHysteresis indicates hysteresis must be non-negative
	ErrInvalidHysteresis = errors.New("hysteresis must be non-negative")
	// ErrInvalidOverlap indicates overlap percentage must be 0-99
	ErrInvalidOverlap = errors.New("overlap percentage must be between 0 and 99")
)

// KeyingConfig tunes the offline keying detector.
type KeyingConfig struct {
	// Frequency is the tone to listen for (from config: tone_frequency)
	Frequency float64
	// SampleRate of the input samples
	SampleRate int
	// BlockSize is the Goertzel window in samples
	BlockSize int
	// OverlapPct is how much consecutive blocks overlap, 0-99
	OverlapPct int
	// Threshold is the key-down level relative to the loudest block
	Threshold float64
	// Hysteresis is how many blocks a new state must hold to be accepted
	Hysteresis int
}

// DefaultKeyingConfig suits rendered or clean off-air audio at freq.
func DefaultKeyingConfig(freq float64, sampleRate int) KeyingConfig {
	block := sampleRate / 200 // 5 ms
	return KeyingConfig{
		Frequency:  freq,
		SampleRate: sampleRate,
		BlockSize:  max(block, 16),
		OverlapPct: 50,
		Threshold:  0.5,
		Hysteresis: 2,
	}
}

// Keying converts audio to a tone sequence: Goertzel magnitudes per block,
// normalised to the loudest block, thresholded and debounced. Leading and
// trailing silence is dropped.
func Keying(samples []float32, cfg KeyingConfig) (morse.ToneSeq, error) {
	if cfg.Threshold < 0 || cfg.Threshold > 1 {
		return nil, ErrInvalidThreshold
	}
	if cfg.Hysteresis < 0 {
		return nil, ErrInvalidHysteresis
	}
	if cfg.OverlapPct < 0 || cfg.OverlapPct >= 100 {
		return nil, ErrInvalidOverlap
	}
	g, err := NewGoertzel(cfg.Frequency, cfg.SampleRate, cfg.BlockSize)
	if err != nil {
		return nil, fmt.Errorf("goertzel: %w", err)
	}

	hop := max(1, cfg.BlockSize-cfg.BlockSize*cfg.OverlapPct/100)
	var mags []float64
	var peak float64
	for at := 0; at+cfg.BlockSize <= len(samples); at += hop {
		m := g.magnitude(samples[at : at+cfg.BlockSize])
		mags = append(mags, m)
		peak = max(peak, m)
	}
	if peak == 0 {
		return nil, nil
	}

	hopDur := time.Duration(float64(hop) / float64(cfg.SampleRate) * float64(time.Second))
	d := debouncer{hysteresis: cfg.Hysteresis}
	for _, m := range mags {
		d.push(m/peak > cfg.Threshold, hopDur)
	}
	return d.finish(), nil
}

// debouncer accepts a state change only after it has held for hysteresis
// blocks; the blocks spent pending are credited to the new state.
type debouncer struct {
	hysteresis int

	seq     morse.ToneSeq
	state   bool
	run     time.Duration
	pending int
	pendDur time.Duration
}

func (d *debouncer) push(on bool, dur time.Duration) {
	if on == d.state {
		d.run += d.pendDur + dur
		d.pending, d.pendDur = 0, 0
		return
	}
	d.pending++
	d.pendDur += dur
	if d.pending < max(1, d.hysteresis) {
		return
	}
	d.emit()
	d.state = on
	d.run = d.pendDur
	d.pending, d.pendDur = 0, 0
}

func (d *debouncer) emit() {
	if d.run <= 0 {
		return
	}
	if !d.state && len(d.seq) == 0 {
		// Leading silence.
		return
	}
	d.seq = append(d.seq, morse.Tone{On: d.state, Duration: d.run})
}

func (d *debouncer) finish() morse.ToneSeq {
	if d.state {
		d.run += d.pendDur
		d.emit()
	}
	return d.seq
}
