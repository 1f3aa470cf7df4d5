// Package session runs a live keying session: it polls a keyer input, feeds
// the decoder and reports decoded text and sidetone changes.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ColonelBlimp/cwkeyer/internal/keyer"
	"github.com/ColonelBlimp/cwkeyer/internal/morse"
)

const (
	// DefaultPollInterval is the input poll cadence when none is set.
	DefaultPollInterval = 2 * time.Millisecond
	// DefaultTickInterval is the decoder tick cadence when none is set.
	DefaultTickInterval = 10 * time.Millisecond

	// straightDashDots is the hold time, in dots, from which a straight-key
	// closure counts as a dah.
	straightDashDots = 2
)

// Options configures a Session. Zero intervals take the defaults.
type Options struct {
	// PollInterval is the input poll cadence (from config: poll_interval_ms)
	PollInterval time.Duration
	// TickInterval is the decoder tick cadence (from config: tick_interval_ms)
	TickInterval time.Duration
	// Straight times key closures instead of trusting the element events.
	Straight bool
	// OnText receives every non-empty decoder output.
	OnText func(string)
	// OnKey follows the key for a sidetone.
	OnKey func(down bool)
	// Now must be the clock the decoder was built with.
	Now    func() time.Time
	Logger *slog.Logger
}

// Session owns the loop state. It is driven from one goroutine.
type Session struct {
	in   keyer.Input
	dec  *morse.Decoder
	opts Options

	keyDown   bool
	downAt    time.Time
	toneOffAt time.Time
}

// New binds an input to a decoder.
func New(in keyer.Input, dec *morse.Decoder, opts Options) *Session {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = DefaultTickInterval
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Session{in: in, dec: dec, opts: opts}
}

// Run is shorthand for New(in, dec, opts).Run(ctx).
func Run(ctx context.Context, in keyer.Input, dec *morse.Decoder, opts Options) error {
	return New(in, dec, opts).Run(ctx)
}

// Run polls and ticks until ctx ends. Cancellation is a normal stop and
// returns nil; any other context error is returned wrapped.
func (s *Session) Run(ctx context.Context) error {
	poll := time.NewTicker(s.opts.PollInterval)
	defer poll.Stop()
	tick := time.NewTicker(s.opts.TickInterval)
	defer tick.Stop()

	s.opts.Logger.Info("session started", "input", s.in.Name(), "wpm", s.dec.Timing().WPM(), "straight", s.opts.Straight)

	for {
		select {
		case <-ctx.Done():
			s.key(false)
			s.opts.Logger.Info("session stopped", "input", s.in.Name())
			if err := ctx.Err(); !errors.Is(err, context.Canceled) {
				return fmt.Errorf("session: %w", err)
			}
			return nil
		case <-poll.C:
			s.Poll(s.opts.Now())
		case <-tick.C:
			s.Tick()
		}
	}
}

// Poll reads one event from the input and applies it.
func (s *Session) Poll(now time.Time) {
	ev := s.in.Poll(now)

	if s.opts.Straight {
		s.straight(ev, now)
		return
	}

	switch ev {
	case keyer.DitDown, keyer.DahDown:
		dash := ev == keyer.DahDown
		el := s.dec.Timing().Element(dash)
		s.dec.PushElement(dash, el)
		s.toneOffAt = now.Add(el)
		s.key(true)
	default:
		if s.keyDown && !now.Before(s.toneOffAt) {
			s.key(false)
		}
	}
}

// straight classifies each closure by how long it was held. The element
// is pushed on release, so nothing of it remains to project forward.
func (s *Session) straight(ev keyer.Event, now time.Time) {
	switch {
	case ev.KeyDown() && !s.keyDown:
		s.downAt = now
		s.key(true)
	case ev == keyer.DitUp && s.keyDown:
		held := now.Sub(s.downAt)
		dash := held >= straightDashDots*s.dec.Timing().Dot
		s.dec.PushElement(dash, 0)
		s.key(false)
	}
}

// Tick advances the decoder and forwards any output.
func (s *Session) Tick() string {
	out := s.dec.Tick()
	if out != "" && s.opts.OnText != nil {
		s.opts.OnText(out)
	}
	return out
}

func (s *Session) key(down bool) {
	if s.keyDown == down {
		return
	}
	s.keyDown = down
	if s.opts.OnKey != nil {
		s.opts.OnKey(down)
	}
}

// overEnders are the words that hand the transmission back.
var overEnders = map[string]bool{
	"K": true, "BK": true, "AR": true, "KN": true,
	"+": true, "(": true, "<BK>": true, "<AR>": true, "<KN>": true,
}

// EndOfOver reports whether text ends with a go-ahead such as K or KN.
func EndOfOver(text string) bool {
	words := strings.Fields(text)
	if len(words) == 0 {
		return false
	}
	return overEnders[strings.ToUpper(words[len(words)-1])]
}
