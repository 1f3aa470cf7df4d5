package morse

import (
	"log/slog"
	"strings"
	"time"
)

// Decoder turns pushed elements into text as silence accumulates.
// It is driven by the caller: PushElement for each element and Tick on a
// steady cadence. It is not safe for concurrent use.
type Decoder struct {
	timing Timing
	now    func() time.Time
	log    *slog.Logger

	code strings.Builder
	text strings.Builder

	// lastEvent is the projected end of the most recent element.
	lastEvent time.Time
	// lastFlush is set while a flushed character still waits for its word gap.
	lastFlush    time.Time
	flushPending bool
	pendingSpace bool
}

// Option configures a Decoder.
type Option func(*Decoder)

// WithClock replaces time.Now, mainly for tests and offline replay.
func WithClock(now func() time.Time) Option {
	return func(d *Decoder) { d.now = now }
}

// WithLogger sets the logger used for debug traces.
func WithLogger(l *slog.Logger) Option {
	return func(d *Decoder) { d.log = l }
}

// NewDecoder returns a decoder using t for gap detection.
func NewDecoder(t Timing, opts ...Option) *Decoder {
	d := &Decoder{
		timing: t,
		now:    time.Now,
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.lastEvent = d.now()
	return d
}

// SetTiming swaps the timing, e.g. after a speed change.
func (d *Decoder) SetTiming(t Timing) { d.timing = t }

// Timing returns the timing in use.
func (d *Decoder) Timing() Timing { return d.timing }

// PushElement records a dit or dah. dur is the element's remaining key-down
// time: gaps are measured from the projected end of the element so a dah's
// own length is never mistaken for a character gap.
func (d *Decoder) PushElement(dash bool, dur time.Duration) {
	now := d.now()
	if d.flushPending && now.Sub(d.lastEvent) >= d.timing.WordGap {
		// The word gap ran out before a tick could see it.
		d.flushPending = false
		d.pendingSpace = true
	}
	if dash {
		d.code.WriteByte(Dah)
	} else {
		d.code.WriteByte(Dit)
	}
	d.lastEvent = now.Add(dur)
}

// Tick checks the silence since the last element and returns newly decoded
// text: a character, a character and a space, a lone space, or "".
func (d *Decoder) Tick() string {
	var out string
	if d.pendingSpace {
		d.pendingSpace = false
		out = " "
	}
	out += d.step(d.now())
	d.text.WriteString(out)
	return out
}

func (d *Decoder) step(now time.Time) string {
	if d.code.Len() == 0 {
		if d.flushPending && now.Sub(d.lastFlush) >= d.timing.WordGap {
			d.flushPending = false
			d.log.Debug("word gap", "since_flush", now.Sub(d.lastFlush))
			return " "
		}
		return ""
	}

	elapsed := now.Sub(d.lastEvent)
	switch {
	case elapsed >= d.timing.WordGap:
		d.log.Debug("word gap flush", "elapsed", elapsed, "code", d.code.String())
		s, _ := d.flush()
		d.flushPending = false
		return s + " "
	case elapsed >= d.timing.CharGap:
		d.log.Debug("char gap flush", "elapsed", elapsed, "code", d.code.String())
		s, _ := d.flush()
		d.lastFlush = now
		d.flushPending = true
		return s
	}
	return ""
}

// flush clears the current code and looks it up. Unknown codes are dropped.
func (d *Decoder) flush() (string, bool) {
	code := d.code.String()
	d.code.Reset()
	s, ok := Lookup(code)
	if !ok {
		d.log.Debug("unknown code dropped", "code", code)
	}
	return s, ok
}

// Code returns the elements of the character being received.
func (d *Decoder) Code() string { return d.code.String() }

// Text returns everything decoded so far. It is a display log only.
func (d *Decoder) Text() string { return d.text.String() }

// Reset discards all state but keeps the timing.
func (d *Decoder) Reset() {
	d.code.Reset()
	d.text.Reset()
	d.lastEvent = d.now()
	d.flushPending = false
	d.pendingSpace = false
}
