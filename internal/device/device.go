package device

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/ColonelBlimp/cwkeyer/internal/keyer"
	"github.com/ColonelBlimp/cwkeyer/internal/morse"
)

// ErrUnknownAdapter indicates an adapter name Open does not know.
var ErrUnknownAdapter = errors.New("unknown adapter")

// Adapter names accepted by Open.
const (
	AdapterMIDI     = "midi"
	AdapterSerial   = "serial"
	AdapterWinKeyer = "winkeyer"
)

// Adapters lists every adapter name.
var Adapters = []string{AdapterMIDI, AdapterSerial, AdapterWinKeyer}

// Config selects and parameterises an adapter.
type Config struct {
	// Adapter is one of Adapters (from config: adapter)
	Adapter string
	// Port is the serial device for serial and winkeyer (from config: port)
	Port string
	// MIDIPort is a name fragment of the MIDI input (from config: midi_port)
	MIDIPort string
	// Baud is the serial-MIDI rate (from config: serial_baud)
	Baud int
	// Mode is the paddle mode (from config: paddle_mode)
	Mode keyer.Mode
	// Swap exchanges the paddles (from config: switch_paddle)
	Swap bool
	// Timing drives the keyer and echo re-synthesis (from config: wpm)
	Timing morse.Timing
	Logger *slog.Logger
}

// Open starts the configured adapter. The returned Input is polled by the
// session loop; the Closer releases the hardware.
func Open(cfg Config) (keyer.Input, io.Closer, error) {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	switch strings.ToLower(cfg.Adapter) {
	case AdapterMIDI:
		u, err := OpenUSBMIDI(cfg.MIDIPort, log)
		if err != nil {
			return nil, nil, err
		}
		in, err := paddleInput(u.Name(), u, cfg)
		if err != nil {
			_ = u.Close()
			return nil, nil, err
		}
		return in, u, nil

	case AdapterSerial:
		baud := cfg.Baud
		if baud <= 0 {
			baud = BaudESP32
		}
		s, err := OpenSerialMIDI(cfg.Port, baud, log)
		if err != nil {
			return nil, nil, err
		}
		in, err := paddleInput(s.Name(), s, cfg)
		if err != nil {
			_ = s.Close()
			return nil, nil, err
		}
		return in, s, nil

	case AdapterWinKeyer:
		if cfg.Mode == keyer.Straight {
			log.Warn("winkeyer has no straight mode, using iambic B")
		}
		w, err := OpenWinKeyer(cfg.Port, cfg.Mode, cfg.Swap, log)
		if err != nil {
			return nil, nil, err
		}
		return keyer.NewEchoInput("WinKeyer "+w.Name(), w.Chars(), cfg.Timing, EchoCode), w, nil
	}

	return nil, nil, fmt.Errorf("%w: %q", ErrUnknownAdapter, cfg.Adapter)
}

func paddleInput(name string, src keyer.Source, cfg Config) (*keyer.PaddleInput, error) {
	k, err := keyer.New(keyer.Config{Mode: cfg.Mode, Dot: cfg.Timing.Dot, Swap: cfg.Swap})
	if err != nil {
		return nil, fmt.Errorf("create keyer: %w", err)
	}
	return keyer.NewPaddleInput(name, src, k), nil
}
