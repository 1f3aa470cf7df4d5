package morse

import (
	"strings"
	"time"
)

// Tone is one key-down or key-up segment of a transmission.
type Tone struct {
	On       bool
	Duration time.Duration
}

// ToneSeq is a finite, replayable transmission.
type ToneSeq []Tone

// Total returns the summed duration of the sequence.
func (s ToneSeq) Total() time.Duration {
	var d time.Duration
	for _, t := range s {
		d += t.Duration
	}
	return d
}

// Encode converts text to a tone sequence at the given timing.
// Characters without a code are skipped without leaving a gap behind, and
// so are words made only of them.
func Encode(text string, t Timing) ToneSeq {
	var words [][]string
	for _, word := range strings.Fields(text) {
		// A word with nothing encodable leaves no word gap behind either.
		if codes := wordCodes(word); len(codes) > 0 {
			words = append(words, codes)
		}
	}

	var seq ToneSeq
	for wi, codes := range words {
		if wi > 0 {
			seq = append(seq, Tone{false, t.WordGap})
		}
		for ci, code := range codes {
			if ci > 0 {
				seq = append(seq, Tone{false, t.CharGap})
			}
			seq = appendCode(seq, code, t)
		}
	}
	return seq
}

// Pattern renders text as dot/dash notation: characters separated by a
// space, words by " / ".
func Pattern(text string) string {
	var out []string
	for _, word := range strings.Fields(text) {
		if codes := wordCodes(word); len(codes) > 0 {
			out = append(out, strings.Join(codes, " "))
		}
	}
	return strings.Join(out, " / ")
}

// wordCodes returns the code of every encodable unit in word. A prosign
// word yields a single code.
func wordCodes(word string) []string {
	if isProsignToken(word) {
		if code, ok := ProsignCode(word); ok {
			return []string{code}
		}
		return nil
	}
	var out []string
	for _, r := range word {
		if code, ok := Code(r); ok {
			out = append(out, code)
		}
	}
	return out
}

func appendCode(seq ToneSeq, code string, t Timing) ToneSeq {
	for i, el := range code {
		if i > 0 {
			seq = append(seq, Tone{false, t.ElemGap})
		}
		seq = append(seq, Tone{true, t.Element(el == Dah)})
	}
	return seq
}
