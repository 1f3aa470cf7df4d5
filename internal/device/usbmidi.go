package device

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"github.com/ColonelBlimp/cwkeyer/internal/keyer"
)

// ErrPortNotFound indicates no MIDI input matched the requested port.
var ErrPortNotFound = errors.New("midi port not found")

// KnownPortNames are lower-case fragments of port names used by USB-MIDI
// paddle interfaces. They are tried when no port is configured.
var KnownPortNames = []string{
	"digispark", "attiny", "tiny", "digikey",
	"midistomp", "usb midi", "midi keyer", "cw",
}

// matchPort returns the index of the port to open. A non-empty hint matches
// as a case-insensitive substring; otherwise the known names are tried.
func matchPort(names []string, hint string) (int, bool) {
	if hint != "" {
		hint = strings.ToLower(hint)
		for i, name := range names {
			if strings.Contains(strings.ToLower(name), hint) {
				return i, true
			}
		}
		return -1, false
	}
	for i, name := range names {
		lc := strings.ToLower(name)
		for _, frag := range KnownPortNames {
			if strings.Contains(lc, frag) {
				return i, true
			}
		}
	}
	return -1, false
}

// USBMIDI reads paddle notes from a class-compliant USB-MIDI device.
type USBMIDI struct {
	drv   *rtmididrv.Driver
	in    drivers.In
	stop  func()
	state keyer.PaddleState
	log   *slog.Logger
}

// OpenUSBMIDI opens the MIDI input matching hint and starts listening.
func OpenUSBMIDI(hint string, log *slog.Logger) (*USBMIDI, error) {
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("init midi driver: %w", err)
	}

	ins, err := drv.Ins()
	if err != nil {
		_ = drv.Close()
		return nil, fmt.Errorf("list midi inputs: %w", err)
	}
	names := make([]string, len(ins))
	for i, in := range ins {
		names[i] = in.String()
	}

	idx, ok := matchPort(names, hint)
	if !ok {
		_ = drv.Close()
		return nil, fmt.Errorf("%w: hint %q, available %q", ErrPortNotFound, hint, names)
	}

	u := &USBMIDI{drv: drv, in: ins[idx], log: log}
	if err := u.in.Open(); err != nil {
		_ = drv.Close()
		return nil, fmt.Errorf("open midi port %q: %w", names[idx], err)
	}

	stop, err := midi.ListenTo(u.in, u.onMessage, midi.HandleError(func(err error) {
		log.Warn("midi listener error", "port", names[idx], "err", err)
		// A lost device must not leave a paddle stuck down.
		u.state.Store(false, false)
	}))
	if err != nil {
		_ = u.in.Close()
		_ = drv.Close()
		return nil, fmt.Errorf("listen on midi port %q: %w", names[idx], err)
	}
	u.stop = stop

	log.Info("midi input connected", "port", names[idx])
	return u, nil
}

func (u *USBMIDI) onMessage(msg midi.Message, _ int32) {
	var ch, key, vel uint8
	switch {
	case msg.GetNoteStart(&ch, &key, &vel):
		ApplyNote(&u.state, Note{Channel: ch, Key: key, Pressed: true})
	case msg.GetNoteEnd(&ch, &key):
		ApplyNote(&u.state, Note{Channel: ch, Key: key})
	default:
		return
	}
	u.log.Debug("midi note", "ch", ch, "key", key, "vel", vel)
}

// Paddles implements keyer.Source.
func (u *USBMIDI) Paddles() (dit, dah bool) { return u.state.Paddles() }

// Name returns the connected port name.
func (u *USBMIDI) Name() string { return u.in.String() }

// Close stops listening and releases the driver.
func (u *USBMIDI) Close() error {
	if u.stop != nil {
		u.stop()
		u.stop = nil
	}
	return errors.Join(u.in.Close(), u.drv.Close())
}

// ListPorts returns the names of all MIDI inputs.
func ListPorts() ([]string, error) {
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("init midi driver: %w", err)
	}
	defer drv.Close()

	ins, err := drv.Ins()
	if err != nil {
		return nil, fmt.Errorf("list midi inputs: %w", err)
	}
	names := make([]string, 0, len(ins))
	for _, in := range ins {
		names = append(names, in.String())
	}
	return names, nil
}
