// Package morse implements the Morse timing model, the text encoder and the
// element decoder shared by the keyer and the playback path.
package morse

import "time"

// PARIS timing: one dot lasts 1200/wpm milliseconds.
const (
	// DotsPerMinuteMs is the PARIS constant; dot = DotsPerMinuteMs / wpm.
	DotsPerMinuteMs = 1200

	// DashDots is the length of a dah in dots.
	DashDots = 3
	// CharGapDots is the standard space between characters.
	CharGapDots = 3
	// WordGapDots is the standard space between words.
	WordGapDots = 7
)

// Timing holds every duration derived from a single speed setting.
// It is an immutable value; swap the whole struct to change speed.
type Timing struct {
	Dot     time.Duration // 1 unit
	Dash    time.Duration // 3 units
	ElemGap time.Duration // 1 unit, between elements of one character
	CharGap time.Duration // 3 units, or Farnsworth-stretched
	WordGap time.Duration // 7 units, or Farnsworth-stretched
}

// dotFor returns the dot length for wpm, clamping wpm to at least 1.
func dotFor(wpm int) time.Duration {
	if wpm < 1 {
		wpm = 1
	}
	return DotsPerMinuteMs * time.Millisecond / time.Duration(wpm)
}

// FromWPM returns standard PARIS timing for wpm. Values below 1 are clamped.
func FromWPM(wpm int) Timing {
	dot := dotFor(wpm)
	return Timing{
		Dot:     dot,
		Dash:    dot * DashDots,
		ElemGap: dot,
		CharGap: dot * CharGapDots,
		WordGap: dot * WordGapDots,
	}
}

// Farnsworth sends elements at charWPM but spaces characters and words as if
// sending at effWPM. The gaps are never shorter than standard spacing.
func Farnsworth(charWPM, effWPM int) Timing {
	t := FromWPM(charWPM)
	effDot := dotFor(effWPM)
	t.CharGap = max(effDot*CharGapDots, t.Dot*CharGapDots)
	t.WordGap = max(effDot*WordGapDots, t.Dot*WordGapDots)
	return t
}

// Element returns the key-down length of a dah or a dit.
func (t Timing) Element(dash bool) time.Duration {
	if dash {
		return t.Dash
	}
	return t.Dot
}

// WPM reports the character speed this timing was built for.
func (t Timing) WPM() int {
	if t.Dot <= 0 {
		return 0
	}
	ms := t.Dot.Seconds() * 1000
	return int(DotsPerMinuteMs/ms + 0.5)
}
