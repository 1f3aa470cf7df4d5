package device

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/tarm/serial"

	"github.com/ColonelBlimp/cwkeyer/internal/keyer"
	"github.com/ColonelBlimp/cwkeyer/internal/morse"
)

// WinKeyer host-mode protocol.
const (
	winkeyerBaud = 1200

	wkAdmin      = 0x00
	wkAdminOpen  = 0x02
	wkAdminClose = 0x03
	wkSetMode    = 0x0E

	wkModeEcho  = 0x40
	wkModeSwap  = 0x08
	wkIambicA   = 0x01
	wkModeShift = 4
)

// ModeByte builds the WinKeyer mode register: paddle echo on, the keyer mode
// in bits 5..4 (01 Iambic A, 00 Iambic B) and paddle swap in bit 3.
func ModeByte(mode keyer.Mode, swap bool) byte {
	b := byte(wkModeEcho)
	if mode == keyer.IambicA {
		b |= wkIambicA << wkModeShift
	}
	if swap {
		b |= wkModeSwap
	}
	return b
}

// Response is the class of a byte received from the WinKeyer.
type Response int

const (
	// EchoChar is a character decoded from the paddles.
	EchoChar Response = iota
	// StatusByte reports keyer state such as busy or breakin.
	StatusByte
	// SpeedPot carries the speed pot setting in its low six bits.
	SpeedPot
)

// Classify sorts a received byte by its two top bits.
func Classify(b byte) Response {
	switch b & 0xC0 {
	case 0xC0:
		return StatusByte
	case 0x80:
		return SpeedPot
	}
	return EchoChar
}

// skCode is the pattern for SK, which WinKeyer echoes as '%'.
var skCode, _ = morse.ProsignCode("<SK>")

// EchoCode maps a character echoed by the WinKeyer to its code.
func EchoCode(r rune) (string, bool) {
	if r == '%' {
		return skCode, true
	}
	return morse.Code(r)
}

// WinKeyer drives a K1EL WinKeyer in host mode with paddle echo. The device
// decodes the paddles itself and sends back ASCII.
type WinKeyer struct {
	name    string
	port    io.ReadWriteCloser
	chars   chan rune
	version byte
	rd      reader
	wait    func(time.Duration)
	once    sync.Once
	err     error
}

// OpenWinKeyer opens name at 1200 baud 8N2 and enters host mode.
func OpenWinKeyer(name string, mode keyer.Mode, swap bool, log *slog.Logger) (*WinKeyer, error) {
	port, err := openSerial(name, winkeyerBaud, serial.Stop2)
	if err != nil {
		return nil, err
	}
	w, err := newWinKeyer(port, name, ModeByte(mode, swap), log, time.Sleep)
	if err != nil {
		_ = port.Close()
		return nil, err
	}
	return w, nil
}

func newWinKeyer(port io.ReadWriteCloser, name string, mode byte, log *slog.Logger, wait func(time.Duration)) (*WinKeyer, error) {
	w := &WinKeyer{
		name:  name,
		port:  port,
		chars: make(chan rune, 64),
		wait:  wait,
	}
	if err := w.hostOpen(mode, log); err != nil {
		return nil, err
	}

	w.rd.port = port
	w.rd.log = log
	w.rd.start("winkeyer "+name, func(b byte) {
		switch Classify(b) {
		case StatusByte:
			log.Debug("winkeyer status", "byte", fmt.Sprintf("0x%02X", b))
		case SpeedPot:
			log.Debug("winkeyer speed pot", "wpm", b&0x3F)
		default:
			log.Debug("winkeyer echo", "char", string(rune(b)))
			select {
			case w.chars <- rune(b):
			default:
				log.Warn("winkeyer echo dropped", "char", string(rune(b)))
			}
		}
	})
	return w, nil
}

// hostOpen resets any previous session, opens host mode and sets the mode
// register.
func (w *WinKeyer) hostOpen(mode byte, log *slog.Logger) error {
	if _, err := w.port.Write([]byte{wkAdmin, wkAdminClose}); err != nil {
		return fmt.Errorf("winkeyer admin close: %w", err)
	}
	w.wait(100 * time.Millisecond)

	drain := make([]byte, 64)
	_, _ = w.port.Read(drain)

	if _, err := w.port.Write([]byte{wkAdmin, wkAdminOpen}); err != nil {
		return fmt.Errorf("winkeyer admin open: %w", err)
	}
	w.wait(500 * time.Millisecond)

	ver := make([]byte, 8)
	if n, _ := w.port.Read(ver); n > 0 {
		w.version = ver[0]
		log.Info("winkeyer opened", "port", w.name, "firmware", w.version)
	} else {
		log.Warn("winkeyer sent no version byte", "port", w.name)
	}

	if _, err := w.port.Write([]byte{wkSetMode, mode}); err != nil {
		return fmt.Errorf("winkeyer set mode: %w", err)
	}
	log.Debug("winkeyer mode set", "mode", fmt.Sprintf("0x%02X", mode))
	return nil
}

// Chars delivers echoed characters.
func (w *WinKeyer) Chars() <-chan rune { return w.chars }

// Version returns the firmware version reported at open, or 0.
func (w *WinKeyer) Version() byte { return w.version }

// Name returns the port name.
func (w *WinKeyer) Name() string { return w.name }

// Close leaves host mode, closes the port and then the Chars channel.
func (w *WinKeyer) Close() error {
	w.once.Do(func() {
		_, _ = w.port.Write([]byte{wkAdmin, wkAdminClose})
		w.err = w.rd.stopAndClose()
		close(w.chars)
	})
	return w.err
}
