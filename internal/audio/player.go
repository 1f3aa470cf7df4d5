package audio

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/gen2brain/malgo"

	"github.com/ColonelBlimp/cwkeyer/internal/morse"
)

// ErrClosed is returned by Play after Close.
var ErrClosed = errors.New("audio player closed")

// Sink consumes tone sequences and keys the live sidetone.
type Sink interface {
	Play(ctx context.Context, seq morse.ToneSeq) error
	ToneOn()
	ToneOff()
	Close() error
}

// Player plays through the default output device. Queued sequences and
// the sidetone are mixed in the device callback.
type Player struct {
	format Format
	ctx    *malgo.AllocatedContext
	device *malgo.Device

	mu      sync.Mutex
	queue   []float32
	drained chan struct{}
	osc     oscillator
	closed  bool
}

// NewPlayer opens the default playback device and starts it.
func NewPlayer(f Format) (*Player, error) {
	p := &Player{format: f, osc: newOscillator(f)}

	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("init audio context: %w", err)
	}
	p.ctx = ctx

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.SampleRate = uint32(f.SampleRate)
	deviceConfig.Playback.Format = malgo.FormatF32
	deviceConfig.Playback.Channels = 1

	device, err := malgo.InitDevice(ctx.Context, deviceConfig, malgo.DeviceCallbacks{
		Data: p.onSendFrames,
	})
	if err != nil {
		p.freeContext()
		return nil, fmt.Errorf("init device: %w", err)
	}
	if err := device.Start(); err != nil {
		device.Uninit()
		p.freeContext()
		return nil, fmt.Errorf("start device: %w", err)
	}
	p.device = device
	return p, nil
}

// onSendFrames runs on the audio thread. It must not block.
func (p *Player) onSendFrames(out, _ []byte, frameCount uint32) {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := min(int(frameCount), len(out)/4)
	for i := 0; i < n; i++ {
		s := p.osc.next()
		if len(p.queue) > 0 {
			s += p.queue[0]
			p.queue = p.queue[1:]
			if len(p.queue) == 0 && p.drained != nil {
				close(p.drained)
				p.drained = nil
			}
		}
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(s))
	}
}

// Play renders seq and blocks until it has been sent to the device or ctx
// ends. A second Play replaces whatever is still queued.
func (p *Player) Play(ctx context.Context, seq morse.ToneSeq) error {
	samples := Render(seq, p.format)

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	if len(samples) == 0 {
		p.mu.Unlock()
		return nil
	}
	if p.drained != nil {
		close(p.drained)
	}
	done := make(chan struct{})
	p.queue = samples
	p.drained = done
	p.mu.Unlock()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		p.mu.Lock()
		if p.drained == done {
			p.queue = nil
			p.drained = nil
		}
		p.mu.Unlock()
		return ctx.Err()
	}
}

// ToneOn keys the sidetone.
func (p *Player) ToneOn() {
	p.mu.Lock()
	p.osc.keyed = true
	p.mu.Unlock()
}

// ToneOff releases the sidetone.
func (p *Player) ToneOff() {
	p.mu.Lock()
	p.osc.keyed = false
	p.mu.Unlock()
}

// Close stops the device and releases all audio resources.
func (p *Player) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	if p.drained != nil {
		close(p.drained)
		p.drained = nil
	}
	p.queue = nil
	p.mu.Unlock()

	if p.device != nil {
		_ = p.device.Stop()
		p.device.Uninit()
		p.device = nil
	}
	return p.freeContext()
}

func (p *Player) freeContext() error {
	if p.ctx == nil {
		return nil
	}
	err := p.ctx.Uninit()
	p.ctx.Free()
	p.ctx = nil
	if err != nil {
		return fmt.Errorf("uninit context: %w", err)
	}
	return nil
}
