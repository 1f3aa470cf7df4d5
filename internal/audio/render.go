// Package audio turns tone sequences into sound: a sine renderer with
// click-free edges, a malgo playback device with a live sidetone, a silent
// stand-in, and WAV export.
package audio

import (
	"math"
	"time"

	"github.com/ColonelBlimp/cwkeyer/internal/morse"
)

// Ramp is the rise and fall time applied at every key edge.
const Ramp = 5 * time.Millisecond

// Format describes the rendered signal.
type Format struct {
	SampleRate int     // samples per second (from config: sample_rate)
	Frequency  float64 // tone pitch in Hz (from config: tone_frequency)
	Volume     float64 // peak amplitude 0..1 (from config: volume)
}

// DefaultFormat returns 48 kHz, 600 Hz at half scale.
func DefaultFormat() Format {
	return Format{
		SampleRate: 48000,
		Frequency:  600,
		Volume:     0.5,
	}
}

// samplesAt converts an offset from the start of a sequence to a sample
// index. Rounding the running offset keeps the total exact.
func samplesAt(d time.Duration, rate int) int {
	return int(math.Round(d.Seconds() * float64(rate)))
}

// Render synthesises seq as mono float32 samples. Key-down segments are a
// sine with raised-cosine edges; key-up segments are silence. The phase runs
// continuously across the whole sequence.
func Render(seq morse.ToneSeq, f Format) []float32 {
	out := make([]float32, samplesAt(seq.Total(), f.SampleRate))
	step := 2 * math.Pi * f.Frequency / float64(f.SampleRate)
	ramp := samplesAt(Ramp, f.SampleRate)

	var at time.Duration
	for _, tone := range seq {
		from := samplesAt(at, f.SampleRate)
		at += tone.Duration
		to := samplesAt(at, f.SampleRate)
		if !tone.On {
			continue
		}

		n := to - from
		r := min(ramp, n/2)
		for i := 0; i < n; i++ {
			gain := f.Volume
			switch {
			case i < r:
				gain *= raisedCosine(i, r)
			case i >= n-r:
				gain *= raisedCosine(n-1-i, r)
			}
			out[from+i] = float32(gain * math.Sin(step*float64(from+i)))
		}
	}
	return out
}

// raisedCosine is the rising edge 0..1 over n samples.
func raisedCosine(i, n int) float64 {
	return 0.5 * (1 - math.Cos(math.Pi*float64(i)/float64(n)))
}

// oscillator produces the live sidetone. Its gain slides toward the key
// state over Ramp so keying never clicks.
type oscillator struct {
	phase, step float64
	gain, delta float64
	volume      float64
	keyed       bool
}

func newOscillator(f Format) oscillator {
	return oscillator{
		step:   2 * math.Pi * f.Frequency / float64(f.SampleRate),
		delta:  1 / math.Max(1, float64(samplesAt(Ramp, f.SampleRate))),
		volume: f.Volume,
	}
}

func (o *oscillator) next() float32 {
	switch {
	case o.keyed && o.gain < 1:
		o.gain = math.Min(1, o.gain+o.delta)
	case !o.keyed && o.gain > 0:
		o.gain = math.Max(0, o.gain-o.delta)
	}
	if o.gain == 0 {
		// Restart the phase so each tone starts at a zero crossing.
		o.phase = 0
		return 0
	}
	s := o.volume * o.gain * math.Sin(o.phase)
	o.phase += o.step
	if o.phase > 2*math.Pi {
		o.phase -= 2 * math.Pi
	}
	return float32(s)
}
