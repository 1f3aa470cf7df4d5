package keyer

import "sync/atomic"

// Source supplies the freshest known paddle contacts.
type Source interface {
	Paddles() (dit, dah bool)
}

const (
	ditBit uint32 = 1 << iota
	dahBit
)

// PaddleState is a single-slot, lock-free paddle snapshot. A device reader
// goroutine writes it; the polling goroutine reads it.
type PaddleState struct {
	bits atomic.Uint32
}

// SetDit records the dit contact.
func (p *PaddleState) SetDit(pressed bool) { p.set(ditBit, pressed) }

// SetDah records the dah contact.
func (p *PaddleState) SetDah(pressed bool) { p.set(dahBit, pressed) }

// Store replaces both contacts at once.
func (p *PaddleState) Store(dit, dah bool) {
	var v uint32
	if dit {
		v |= ditBit
	}
	if dah {
		v |= dahBit
	}
	p.bits.Store(v)
}

// Paddles implements Source.
func (p *PaddleState) Paddles() (dit, dah bool) {
	v := p.bits.Load()
	return v&ditBit != 0, v&dahBit != 0
}

func (p *PaddleState) set(bit uint32, on bool) {
	for {
		old := p.bits.Load()
		v := old &^ bit
		if on {
			v |= bit
		}
		if p.bits.CompareAndSwap(old, v) {
			return
		}
	}
}
