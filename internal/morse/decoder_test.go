package morse

import (
	"strings"
	"testing"
	"time"
)

type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func TestDecoder_DashFlushTiming(t *testing.T) {
	tm := FromWPM(20)
	clk := newFakeClock()
	dec := NewDecoder(tm, WithClock(clk.Now))

	dec.PushElement(true, 60*time.Millisecond)

	// Element end is 60ms out; char gap counts from there.
	clk.Advance(60*time.Millisecond + tm.CharGap - time.Millisecond)
	if got := dec.Tick(); got != "" {
		t.Fatalf("Tick() before char gap = %q, want empty", got)
	}
	if dec.Code() != "-" {
		t.Fatalf("Code() = %q, want %q", dec.Code(), "-")
	}

	clk.Advance(time.Millisecond)
	if got := dec.Tick(); got != "T" {
		t.Fatalf("Tick() at char gap = %q, want %q", got, "T")
	}
	flushed := clk.Now()

	clk.Advance(tm.WordGap - time.Millisecond)
	if got := dec.Tick(); got != "" {
		t.Fatalf("Tick() before word gap = %q, want empty", got)
	}

	clk.t = flushed.Add(tm.WordGap)
	if got := dec.Tick(); got != " " {
		t.Fatalf("Tick() at word gap = %q, want space", got)
	}

	clk.Advance(tm.WordGap * 3)
	if got := dec.Tick(); got != "" {
		t.Errorf("Tick() after space = %q, want empty", got)
	}
	if dec.Text() != "T " {
		t.Errorf("Text() = %q, want %q", dec.Text(), "T ")
	}
}

func TestDecoder_DahNotMistakenForGap(t *testing.T) {
	tm := FromWPM(20)
	clk := newFakeClock()
	dec := NewDecoder(tm, WithClock(clk.Now))

	// Dah pushed at its start: after 3 dots the key is still down.
	dec.PushElement(true, tm.Dash)
	clk.Advance(tm.Dash)
	if got := dec.Tick(); got != "" {
		t.Errorf("Tick() at end of dah = %q, want empty", got)
	}
}

func TestDecoder_WordGapWithPendingCode(t *testing.T) {
	tm := FromWPM(20)
	clk := newFakeClock()
	dec := NewDecoder(tm, WithClock(clk.Now))

	dec.PushElement(false, tm.Dot)
	dec.PushElement(true, tm.Dash)
	clk.Advance(tm.Dash + tm.WordGap)

	if got := dec.Tick(); got != "A " {
		t.Errorf("Tick() = %q, want %q", got, "A ")
	}
	clk.Advance(tm.WordGap * 2)
	if got := dec.Tick(); got != "" {
		t.Errorf("second Tick() = %q, want empty", got)
	}
}

func TestDecoder_UnknownCodeDiscarded(t *testing.T) {
	tm := FromWPM(20)
	clk := newFakeClock()
	dec := NewDecoder(tm, WithClock(clk.Now))

	for i := 0; i < 7; i++ {
		dec.PushElement(true, tm.Dash)
	}
	clk.Advance(tm.Dash + tm.CharGap)
	if got := dec.Tick(); got != "" {
		t.Errorf("Tick() = %q, want empty for unknown code", got)
	}
	if dec.Code() != "" {
		t.Errorf("Code() = %q, want cleared", dec.Code())
	}

	for i := 0; i < 7; i++ {
		dec.PushElement(true, tm.Dash)
	}
	clk.Advance(tm.Dash + tm.WordGap)
	if got := dec.Tick(); got != " " {
		t.Errorf("Tick() = %q, want lone space", got)
	}
}

func TestDecoder_TickIdempotentWithoutElements(t *testing.T) {
	tm := FromWPM(20)
	clk := newFakeClock()
	dec := NewDecoder(tm, WithClock(clk.Now))

	for i := 0; i < 1000; i++ {
		clk.Advance(10 * time.Millisecond)
		if got := dec.Tick(); got != "" {
			t.Fatalf("Tick() #%d = %q, want empty", i, got)
		}
		if dec.Code() != "" {
			t.Fatalf("Code() = %q, want empty", dec.Code())
		}
	}
}

func TestDecoder_SKIsProsignNotSpace(t *testing.T) {
	tm := FromWPM(20)
	got := Replay(Encode("<SK>", tm), tm, 5*time.Millisecond)
	if strings.TrimSpace(got) != "<SK>" {
		t.Errorf("decode(<SK>) = %q, want %q", got, "<SK>")
	}
}

func TestDecoder_SOS(t *testing.T) {
	tm := FromWPM(20)
	got := Replay(Encode("SOS", tm), tm, 10*time.Millisecond)
	if strings.TrimSpace(got) != "SOS" {
		t.Errorf("decode(encode(SOS)) = %q, want %q", got, "SOS")
	}
}

func TestDecoder_RoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		timing Timing
	}{
		{"paris", "PARIS", FromWPM(20)},
		{"words", "CQ CQ DE DL1ABC K", FromWPM(20)},
		{"digits", "599 73 0123456789", FromWPM(25)},
		{"punctuation", "R TU. QTH? 5/9 = +", FromWPM(18)},
		{"odd speed", "THE QUICK BROWN FOX", FromWPM(13)},
		{"farnsworth", "HELLO WORLD", Farnsworth(20, 8)},
		{"slow", "AB", FromWPM(5)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := strings.TrimSpace(Replay(Encode(tt.text, tt.timing), tt.timing, time.Millisecond))
			if got != tt.text {
				t.Errorf("round trip = %q, want %q", got, tt.text)
			}
		})
	}
}

func TestDecoder_RoundTripCollapsesSpaces(t *testing.T) {
	tm := FromWPM(20)
	got := strings.TrimSpace(Replay(Encode("GM   OM", tm), tm, 5*time.Millisecond))
	if got != "GM OM" {
		t.Errorf("round trip = %q, want %q", got, "GM OM")
	}
}

func TestDecoder_ReverseTableIsInverse(t *testing.T) {
	for r, code := range codes {
		got, ok := Lookup(code)
		if !ok || got != string(r) {
			t.Errorf("Lookup(%q) = %q, %v; want %q", code, got, ok, string(r))
		}
	}
}

func TestDecoder_Reset(t *testing.T) {
	tm := FromWPM(20)
	clk := newFakeClock()
	dec := NewDecoder(tm, WithClock(clk.Now))

	dec.PushElement(false, tm.Dot)
	clk.Advance(tm.Dot + tm.CharGap)
	dec.Tick()
	dec.PushElement(false, tm.Dot)

	dec.Reset()
	if dec.Code() != "" || dec.Text() != "" {
		t.Errorf("Reset() left code %q text %q", dec.Code(), dec.Text())
	}
	clk.Advance(tm.WordGap * 2)
	if got := dec.Tick(); got != "" {
		t.Errorf("Tick() after Reset = %q, want empty", got)
	}
}

func TestDecoder_SetTiming(t *testing.T) {
	clk := newFakeClock()
	dec := NewDecoder(FromWPM(20), WithClock(clk.Now))
	dec.SetTiming(FromWPM(10))

	dec.PushElement(false, 0)
	clk.Advance(FromWPM(20).CharGap)
	if got := dec.Tick(); got != "" {
		t.Errorf("Tick() = %q, want empty at the slower speed", got)
	}
	clk.Advance(FromWPM(10).CharGap)
	if got := dec.Tick(); got != "E" {
		t.Errorf("Tick() = %q, want E", got)
	}
}
