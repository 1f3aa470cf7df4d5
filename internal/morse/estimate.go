package morse

import "time"

// EstimateTiming guesses the sending speed of a received sequence. Every
// tone or gap shorter than twice the shortest one is taken to be a single
// unit, and their mean becomes the dot. A sequence made only of dahs with no
// inner gaps reads as dits; ok is false when seq has no key-down tone or
// no positive duration.
func EstimateTiming(seq ToneSeq) (t Timing, ok bool) {
	shortest := time.Duration(0)
	for _, tone := range seq {
		if tone.On {
			ok = true
		}
		if tone.Duration > 0 && (shortest == 0 || tone.Duration < shortest) {
			shortest = tone.Duration
		}
	}
	if !ok || shortest == 0 {
		return Timing{}, false
	}

	var sum time.Duration
	var n int
	for _, tone := range seq {
		if tone.Duration > 0 && tone.Duration < 2*shortest {
			sum += tone.Duration
			n++
		}
	}
	dot := sum / time.Duration(n)
	wpm := int(float64(DotsPerMinuteMs*time.Millisecond)/float64(dot) + 0.5)
	return FromWPM(wpm), true
}

// Quantize snaps a received sequence onto t: key-down tones become a dit or
// a dah, and gaps become an element, character or word gap, whichever is
// nearest. Adjacent tones of the same state are merged first.
func Quantize(seq ToneSeq, t Timing) ToneSeq {
	var merged ToneSeq
	for _, tone := range seq {
		if tone.Duration <= 0 {
			continue
		}
		if n := len(merged); n > 0 && merged[n-1].On == tone.On {
			merged[n-1].Duration += tone.Duration
			continue
		}
		merged = append(merged, tone)
	}

	out := make(ToneSeq, len(merged))
	for i, tone := range merged {
		units := float64(tone.Duration) / float64(t.Dot)
		switch {
		case tone.On:
			out[i] = Tone{true, t.Element(units >= 2)}
		case units < 2:
			out[i] = Tone{false, t.ElemGap}
		case units < 5:
			out[i] = Tone{false, t.CharGap}
		default:
			out[i] = Tone{false, t.WordGap}
		}
	}
	return out
}
