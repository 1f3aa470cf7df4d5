// Package keyer turns paddle contact states into timed dit/dah events.
package keyer

import (
	"errors"
	"fmt"
	"strings"
)

// Event is what a keyer reports for one poll.
type Event int

const (
	None Event = iota
	DitDown
	DitUp
	DahDown
	DahUp
)

func (e Event) String() string {
	switch e {
	case DitDown:
		return "DitDown"
	case DitUp:
		return "DitUp"
	case DahDown:
		return "DahDown"
	case DahUp:
		return "DahUp"
	}
	return "None"
}

// KeyDown reports whether e starts an element.
func (e Event) KeyDown() bool { return e == DitDown || e == DahDown }

// Mode selects the paddle behaviour.
type Mode int

const (
	// IambicA stops cleanly when the squeeze is released.
	IambicA Mode = iota
	// IambicB adds one alternate element after a squeeze is released.
	IambicB
	// Straight passes the dit contact through untimed.
	Straight
)

// ErrUnknownMode is returned by ParseMode.
var ErrUnknownMode = errors.New("unknown paddle mode")

// ParseMode accepts iambic_a, iambic_b or straight (case and dash tolerant).
func ParseMode(s string) (Mode, error) {
	switch strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_") {
	case "iambic_a", "iambica", "a":
		return IambicA, nil
	case "iambic_b", "iambicb", "b":
		return IambicB, nil
	case "straight":
		return Straight, nil
	}
	return IambicA, fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

func (m Mode) String() string {
	switch m {
	case IambicB:
		return "iambic_b"
	case Straight:
		return "straight"
	}
	return "iambic_a"
}
