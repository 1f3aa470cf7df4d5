package audio

import (
	"errors"
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/ColonelBlimp/cwkeyer/internal/morse"
)

const (
	wavBitDepth = 16
	wavPCM      = 1
)

// ErrNotWAV indicates the input is not a readable PCM WAV file.
var ErrNotWAV = errors.New("not a PCM wav file")

// WriteWAV renders seq and writes it as 16-bit mono PCM.
func WriteWAV(w io.WriteSeeker, seq morse.ToneSeq, f Format) error {
	samples := Render(seq, f)

	data := make([]int, len(samples))
	for i, s := range samples {
		data[i] = int(clamp(s) * 32767)
	}

	enc := wav.NewEncoder(w, f.SampleRate, wavBitDepth, 1, wavPCM)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: f.SampleRate},
		Data:           data,
		SourceBitDepth: wavBitDepth,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("write wav samples: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finish wav: %w", err)
	}
	return nil
}

// ReadWAV decodes a PCM WAV file to mono samples in [-1, 1] and returns them
// with the file's sample rate. Only the first channel is kept.
func ReadWAV(r io.ReadSeeker) ([]float32, int, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, 0, ErrNotWAV
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("read wav samples: %w", err)
	}

	chans := max(1, int(dec.NumChans))
	depth := int(dec.BitDepth)
	if depth <= 0 || depth > 32 {
		return nil, 0, fmt.Errorf("%w: bit depth %d", ErrNotWAV, depth)
	}
	scale := float32(int64(1) << (depth - 1))

	out := make([]float32, 0, len(buf.Data)/chans)
	for i := 0; i < len(buf.Data); i += chans {
		out = append(out, clamp(float32(buf.Data[i])/scale))
	}
	return out, int(dec.SampleRate), nil
}

func clamp(s float32) float32 {
	return max(-1, min(1, s))
}
