package keyer

import (
	"errors"
	"time"
)

// ErrInvalidDot indicates the dot duration must be positive.
var ErrInvalidDot = errors.New("dot duration must be positive")

// Config holds the keyer settings.
type Config struct {
	// Mode is the paddle behaviour (from config: paddle_mode)
	Mode Mode
	// Dot is the element unit, normally morse.FromWPM(wpm).Dot (from config: wpm)
	Dot time.Duration
	// Swap exchanges the dit and dah contacts (from config: switch_paddle)
	Swap bool
}

type element int

const (
	noElement element = iota
	ditElement
	dahElement
)

// Keyer is the dual-lever paddle state machine. One instance belongs to one
// input device; Poll is called from a single goroutine.
type Keyer struct {
	cfg Config

	ditMem, dahMem bool
	last           element
	// elementEnd is when the element in flight and its trailing gap finish.
	elementEnd time.Time
	// squeeze latches once both paddles are seen down and is only cleared
	// at true idle, so contact bounce cannot add an element.
	squeeze bool

	prevDit, prevDah bool
}

// New returns an idle keyer.
func New(cfg Config) (*Keyer, error) {
	if cfg.Dot <= 0 {
		return nil, ErrInvalidDot
	}
	return &Keyer{cfg: cfg}, nil
}

// Mode returns the configured paddle mode.
func (k *Keyer) Mode() Mode { return k.cfg.Mode }

// Dot returns the current element unit.
func (k *Keyer) Dot() time.Duration { return k.cfg.Dot }

// SetDot changes speed; it applies from the next element.
func (k *Keyer) SetDot(d time.Duration) {
	if d > 0 {
		k.cfg.Dot = d
	}
}

// Reset returns the keyer to idle and forgets paddle memory.
func (k *Keyer) Reset() {
	k.ditMem, k.dahMem = false, false
	k.last = noElement
	k.elementEnd = time.Time{}
	k.squeeze = false
	k.prevDit, k.prevDah = false, false
}

// Poll advances the state machine with the current paddle contacts and
// returns the event to report for this instant.
func (k *Keyer) Poll(dit, dah bool, now time.Time) Event {
	if k.cfg.Swap {
		dit, dah = dah, dit
	}

	if k.cfg.Mode == Straight {
		k.prevDit = dit
		if dit {
			return DitDown
		}
		return DitUp
	}

	ditEdge := dit && !k.prevDit
	dahEdge := dah && !k.prevDah
	k.prevDit, k.prevDah = dit, dah

	if dit && dah {
		k.squeeze = true
	}
	if ditEdge {
		k.ditMem = true
	}
	if dahEdge {
		k.dahMem = true
	}

	if now.Before(k.elementEnd) {
		k.latchDuringElement(dit, dah)
		return None
	}

	k.rearm(dit, dah)

	var dash bool
	switch {
	case dit && dah:
		dash = k.last == ditElement
		if dash {
			k.dahMem = false
		} else {
			k.ditMem = false
		}
	case k.ditMem:
		k.ditMem = false
	case k.dahMem:
		dash = true
		k.dahMem = false
	default:
		if !dit && !dah {
			k.squeeze = false
		}
		k.last = noElement
		return None
	}

	return k.start(dash, now)
}

// latchDuringElement records the opposite element while one is in flight.
func (k *Keyer) latchDuringElement(dit, dah bool) {
	switch k.cfg.Mode {
	case IambicA:
		// Only a real squeeze queues the alternate element.
		if !(dit && dah) {
			return
		}
		switch k.last {
		case dahElement:
			k.ditMem = true
		case ditElement:
			k.dahMem = true
		}
	case IambicB:
		if k.last == dahElement && dit {
			k.ditMem = true
		}
		if k.last == ditElement && dah {
			k.dahMem = true
		}
	}
}

// rearm lets a held paddle queue its own element again once the window ends.
func (k *Keyer) rearm(dit, dah bool) {
	switch k.cfg.Mode {
	case IambicA:
		if k.squeeze {
			return
		}
		if dit && !dah {
			k.ditMem = true
		}
		if dah && !dit {
			k.dahMem = true
		}
	case IambicB:
		if dit {
			k.ditMem = true
		}
		if dah {
			k.dahMem = true
		}
	}
}

func (k *Keyer) start(dash bool, now time.Time) Event {
	el := k.cfg.Dot
	if dash {
		el *= 3
	}
	k.elementEnd = now.Add(el + k.cfg.Dot)
	if dash {
		k.last = dahElement
		return DahDown
	}
	k.last = ditElement
	return DitDown
}
