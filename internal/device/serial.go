package device

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tarm/serial"

	"github.com/ColonelBlimp/cwkeyer/internal/keyer"
	"github.com/ColonelBlimp/cwkeyer/internal/recovery"
)

// ErrNoPort indicates a serial adapter was selected without a port.
var ErrNoPort = errors.New("serial port required")

// Baud rates for serial-MIDI boards. 31250 is the MIDI wire rate used by the
// Nano sketch; USB bridges on Linux handle it poorly, so ESP32 boards run at
// 115200.
const (
	BaudMIDI  = 31250
	BaudESP32 = 115200
)

const (
	serialReadTimeout = 50 * time.Millisecond
	readIdle          = 2 * time.Millisecond
	readErrBackoff    = 100 * time.Millisecond
)

// openSerial opens a port with the given framing.
func openSerial(name string, baud int, stop serial.StopBits) (io.ReadWriteCloser, error) {
	if name == "" {
		return nil, ErrNoPort
	}
	p, err := serial.OpenPort(&serial.Config{
		Name:        name,
		Baud:        baud,
		ReadTimeout: serialReadTimeout,
		Size:        8,
		Parity:      serial.ParityNone,
		StopBits:    stop,
	})
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", name, err)
	}
	return p, nil
}

// reader pumps bytes from a port to a handler on its own goroutine until
// the port is closed.
type reader struct {
	port   io.ReadCloser
	log    *slog.Logger
	closed atomic.Bool
	wg     sync.WaitGroup
}

func (r *reader) start(name string, handle func(b byte)) {
	r.wg.Add(1)
	recovery.Go(name, func() {
		defer r.wg.Done()
		buf := make([]byte, 64)
		for !r.closed.Load() {
			n, err := r.port.Read(buf)
			for _, b := range buf[:n] {
				handle(b)
			}
			switch {
			case err == nil && n > 0:
			case err == nil, errors.Is(err, io.EOF):
				// A read timeout surfaces as zero bytes or EOF.
				time.Sleep(readIdle)
			case r.closed.Load():
				return
			default:
				r.log.Error("serial read failed", "port", name, "err", err)
				time.Sleep(readErrBackoff)
			}
		}
	})
}

// stopAndClose closes the port and waits for the reader goroutine.
func (r *reader) stopAndClose() error {
	if r.closed.Swap(true) {
		return nil
	}
	err := r.port.Close()
	r.wg.Wait()
	return err
}

// SerialMIDI reads paddle notes from a board that writes raw MIDI bytes to a
// serial port (Arduino Nano, ESP32).
type SerialMIDI struct {
	name   string
	state  keyer.PaddleState
	parser Parser
	rd     reader
}

// OpenSerialMIDI opens name at baud and starts the reader.
func OpenSerialMIDI(name string, baud int, log *slog.Logger) (*SerialMIDI, error) {
	port, err := openSerial(name, baud, serial.Stop1)
	if err != nil {
		return nil, err
	}
	log.Info("serial midi opened", "port", name, "baud", baud)
	return newSerialMIDI(port, name, log), nil
}

func newSerialMIDI(port io.ReadCloser, name string, log *slog.Logger) *SerialMIDI {
	s := &SerialMIDI{name: name}
	s.rd.port = port
	s.rd.log = log
	s.rd.start("serial-midi "+name, func(b byte) {
		n, ok := s.parser.Feed(b)
		if !ok {
			return
		}
		if ApplyNote(&s.state, n) {
			log.Debug("serial midi note", "key", n.Key, "pressed", n.Pressed)
		}
	})
	return s
}

// Paddles implements keyer.Source.
func (s *SerialMIDI) Paddles() (dit, dah bool) { return s.state.Paddles() }

// Name returns the port name.
func (s *SerialMIDI) Name() string { return s.name }

// Close stops the reader and closes the port.
func (s *SerialMIDI) Close() error { return s.rd.stopAndClose() }
