// Package device adapts physical keying hardware to keyer inputs. Every
// adapter only reports paddle contacts or echoed characters; keying logic
// lives in package keyer.
package device

import (
	"slices"

	"github.com/ColonelBlimp/cwkeyer/internal/keyer"
)

// Note numbers sent by the paddle firmwares. The Digispark sketches use 1/2,
// the Nano and ESP32 sketches middle C and D.
var (
	DitNotes = []uint8{1, 60}
	DahNotes = []uint8{2, 62}
)

// MIDI status nibbles.
const (
	statusNoteOff  = 0x80
	statusNoteOn   = 0x90
	statusPoly     = 0xA0
	statusControl  = 0xB0
	statusProgram  = 0xC0
	statusPressure = 0xD0
	statusPitch    = 0xE0

	sysexStart = 0xF0
	sysexEnd   = 0xF7
	realtime   = 0xF8
)

// Note is a decoded NoteOn or NoteOff.
type Note struct {
	Channel uint8
	Key     uint8
	// Pressed is false for NoteOff and for NoteOn with zero velocity.
	Pressed bool
}

// ApplyNote updates p from a note message. It reports whether the note is
// one of the paddle notes.
func ApplyNote(p *keyer.PaddleState, n Note) bool {
	switch {
	case slices.Contains(DitNotes, n.Key):
		p.SetDit(n.Pressed)
	case slices.Contains(DahNotes, n.Key):
		p.SetDah(n.Pressed)
	default:
		return false
	}
	return true
}

// Parser decodes a raw MIDI byte stream as sent by boards that speak MIDI
// over a plain UART. It understands running status and skips every message
// that is not a note. The zero value is ready to use.
type Parser struct {
	status byte
	data   [2]byte
	n      int
	sysex  bool
}

// dataLen is the number of data bytes that follow a channel status byte.
func dataLen(status byte) int {
	switch status & 0xF0 {
	case statusProgram, statusPressure:
		return 1
	case statusNoteOff, statusNoteOn, statusPoly, statusControl, statusPitch:
		return 2
	}
	return 0
}

// Feed consumes one byte and returns a note once one is complete.
func (p *Parser) Feed(b byte) (Note, bool) {
	switch {
	case b >= realtime:
		// Realtime bytes may appear anywhere and carry no data.
		return Note{}, false
	case b == sysexStart:
		p.sysex = true
		p.status, p.n = 0, 0
		return Note{}, false
	case b == sysexEnd:
		p.sysex = false
		return Note{}, false
	case b > sysexStart:
		// System common messages cancel running status.
		p.status, p.n = 0, 0
		return Note{}, false
	case b&0x80 != 0:
		p.sysex = false
		p.status, p.n = b, 0
		return Note{}, false
	}

	if p.sysex || p.status == 0 {
		return Note{}, false
	}

	p.data[p.n] = b
	p.n++
	if p.n < dataLen(p.status) {
		return Note{}, false
	}
	p.n = 0

	kind := p.status & 0xF0
	if kind != statusNoteOn && kind != statusNoteOff {
		return Note{}, false
	}
	return Note{
		Channel: p.status & 0x0F,
		Key:     p.data[0],
		Pressed: kind == statusNoteOn && p.data[1] > 0,
	}, true
}
