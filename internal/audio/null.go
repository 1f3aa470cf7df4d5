package audio

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/ColonelBlimp/cwkeyer/internal/morse"
)

// Null is a Sink without audio hardware. Play waits out the sequence so
// callers keep real-time pacing.
type Null struct {
	keyed atomic.Bool
}

// Play sleeps for the sequence's duration or until ctx ends.
func (n *Null) Play(ctx context.Context, seq morse.ToneSeq) error {
	d := seq.Total()
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ToneOn implements Sink.
func (n *Null) ToneOn() { n.keyed.Store(true) }

// ToneOff implements Sink.
func (n *Null) ToneOff() { n.keyed.Store(false) }

// Keyed reports the sidetone state.
func (n *Null) Keyed() bool { return n.keyed.Load() }

// Close implements Sink.
func (n *Null) Close() error { return nil }
