package keyer

import (
	"time"

	"github.com/ColonelBlimp/cwkeyer/internal/morse"
)

// Input is anything the session loop can poll for key events.
type Input interface {
	Poll(now time.Time) Event
	Name() string
}

// PaddleInput runs the shared state machine over a paddle Source. Every
// paddle backend is a Source; none carries its own keyer logic.
type PaddleInput struct {
	name  string
	src   Source
	keyer *Keyer
}

// NewPaddleInput binds src to k.
func NewPaddleInput(name string, src Source, k *Keyer) *PaddleInput {
	return &PaddleInput{name: name, src: src, keyer: k}
}

// Poll implements Input.
func (p *PaddleInput) Poll(now time.Time) Event {
	dit, dah := p.src.Paddles()
	return p.keyer.Poll(dit, dah, now)
}

// Name implements Input.
func (p *PaddleInput) Name() string { return p.name }

// Keyer returns the underlying state machine.
func (p *PaddleInput) Keyer() *Keyer { return p.keyer }

// CodeFunc maps an echoed character to a code string.
type CodeFunc func(r rune) (string, bool)

// EchoInput replays characters decoded by the device itself as timed
// dit/dah events. It bypasses the state machine but keeps the timing model.
type EchoInput struct {
	name  string
	chars <-chan rune
	sched *morse.Scheduler
	code  CodeFunc
}

// NewEchoInput reads characters from chars. A nil code uses morse.Code.
func NewEchoInput(name string, chars <-chan rune, t morse.Timing, code CodeFunc) *EchoInput {
	if code == nil {
		code = morse.Code
	}
	return &EchoInput{
		name:  name,
		chars: chars,
		sched: morse.NewScheduler(t),
		code:  code,
	}
}

// Poll implements Input. It drains pending characters without blocking and
// reports the next element once it is due.
func (e *EchoInput) Poll(now time.Time) Event {
	e.drain(now)
	el, ok := e.sched.Next(now)
	switch {
	case !ok:
		return None
	case el.Dash:
		return DahDown
	}
	return DitDown
}

// Name implements Input.
func (e *EchoInput) Name() string { return e.name }

// Pending reports how many elements are still scheduled.
func (e *EchoInput) Pending() int { return e.sched.Len() }

func (e *EchoInput) drain(now time.Time) {
	for e.chars != nil {
		select {
		case r, ok := <-e.chars:
			if !ok {
				e.chars = nil
				return
			}
			if r == ' ' {
				e.sched.Push(r, now)
				continue
			}
			if c, ok := e.code(r); ok {
				e.sched.PushCode(c, now)
			}
		default:
			return
		}
	}
}
