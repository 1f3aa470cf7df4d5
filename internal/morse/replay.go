package morse

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// MinReplayStep is the finest tick Replay simulates.
const MinReplayStep = time.Millisecond

// ErrBadPattern indicates a pattern token that is neither code nor "/".
var ErrBadPattern = errors.New("invalid pattern token")

// ParsePattern turns dot/dash notation, as produced by Pattern, back into a
// tone sequence. Tokens are separated by whitespace and "/" separates words.
func ParsePattern(pattern string, t Timing) (ToneSeq, error) {
	var seq ToneSeq
	gap := time.Duration(0)
	for _, tok := range strings.Fields(pattern) {
		if tok == "/" {
			if len(seq) > 0 {
				gap = t.WordGap
			}
			continue
		}
		if strings.Trim(tok, string([]rune{Dit, Dah})) != "" {
			return nil, fmt.Errorf("%w: %q", ErrBadPattern, tok)
		}
		if gap > 0 {
			seq = append(seq, Tone{false, gap})
		}
		seq = appendCode(seq, tok, t)
		gap = t.CharGap
	}
	return seq, nil
}

// Replay decodes seq offline: it drives a Decoder on a simulated clock,
// ticking every step, and returns everything decoded. Trailing silence is
// added so the last word is always flushed. A step below MinReplayStep is
// raised to it.
func Replay(seq ToneSeq, t Timing, step time.Duration) string {
	step = max(step, MinReplayStep)
	now := time.Unix(0, 0)
	dec := NewDecoder(t, WithClock(func() time.Time { return now }))
	var out strings.Builder

	advance := func(d time.Duration) {
		for d > 0 {
			s := min(step, d)
			now = now.Add(s)
			d -= s
			out.WriteString(dec.Tick())
		}
	}

	for _, tone := range seq {
		if tone.On {
			dec.PushElement(tone.Duration >= 2*t.Dot, tone.Duration)
		}
		advance(tone.Duration)
	}
	advance(t.CharGap + 2*t.WordGap)
	return out.String()
}
