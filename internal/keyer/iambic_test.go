package keyer

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

const testDot = 60 * time.Millisecond

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// span is a half-open interval [from, to) during which a paddle is held.
type span struct{ from, to time.Duration }

func held(spans []span, at time.Duration) bool {
	for _, s := range spans {
		if at >= s.from && at < s.to {
			return true
		}
	}
	return false
}

type keyed struct {
	event Event
	at    time.Duration
}

// run polls k every millisecond for total and returns the non-None events.
func run(k *Keyer, dit, dah []span, total time.Duration) []keyed {
	var out []keyed
	for at := time.Duration(0); at < total; at += time.Millisecond {
		if ev := k.Poll(held(dit, at), held(dah, at), epoch.Add(at)); ev != None {
			out = append(out, keyed{ev, at})
		}
	}
	return out
}

func eventsOf(ks []keyed) []Event {
	out := make([]Event, 0, len(ks))
	for _, k := range ks {
		out = append(out, k.event)
	}
	return out
}

func newKeyer(t *testing.T, mode Mode) *Keyer {
	t.Helper()
	k, err := New(Config{Mode: mode, Dot: testDot})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return k
}

func TestNew_InvalidDot(t *testing.T) {
	for _, dot := range []time.Duration{0, -time.Millisecond} {
		_, err := New(Config{Mode: IambicA, Dot: dot})
		if !errors.Is(err, ErrInvalidDot) {
			t.Errorf("New(dot=%v) error = %v, want %v", dot, err, ErrInvalidDot)
		}
	}
}

func TestKeyer_IdleWithoutPaddles(t *testing.T) {
	for _, mode := range []Mode{IambicA, IambicB} {
		k := newKeyer(t, mode)
		if got := run(k, nil, nil, time.Second); len(got) != 0 {
			t.Errorf("%v: events = %v, want none", mode, got)
		}
	}
}

func TestKeyer_IambicA_HoldDahTapDitSendsC(t *testing.T) {
	k := newKeyer(t, IambicA)
	dit := []span{{200 * time.Millisecond, 400 * time.Millisecond}}
	dah := []span{{0, 5 * time.Second}}

	got := run(k, dit, dah, 5*time.Second)
	want := []keyed{
		{DahDown, 0},
		{DitDown, 240 * time.Millisecond},
		{DahDown, 360 * time.Millisecond},
		{DitDown, 600 * time.Millisecond},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("events = %v, want %v", got, want)
	}
}

// A tap that starts and ends inside the dah leaves one dit owed. Mode A
// stops there while the squeeze latch holds; Mode B goes back to repeating
// the held dah.
func TestKeyer_BriefTapInsideDah(t *testing.T) {
	dit := []span{{50 * time.Millisecond, 80 * time.Millisecond}}
	dah := []span{{0, 2 * time.Second}}

	a := run(newKeyer(t, IambicA), dit, dah, 3*time.Second)
	wantA := []keyed{{DahDown, 0}, {DitDown, 240 * time.Millisecond}}
	if !reflect.DeepEqual(a, wantA) {
		t.Errorf("IambicA events = %v, want %v", a, wantA)
	}

	b := run(newKeyer(t, IambicB), dit, dah, 3*time.Second)
	wantB := []keyed{{DahDown, 0}, {DitDown, 240 * time.Millisecond}}
	for at := 360 * time.Millisecond; at < 2*time.Second; at += 240 * time.Millisecond {
		wantB = append(wantB, keyed{DahDown, at})
	}
	if !reflect.DeepEqual(b, wantB) {
		t.Errorf("IambicB events = %v, want %v", b, wantB)
	}
}

func TestKeyer_IambicB_BonusElement(t *testing.T) {
	dit := []span{{200 * time.Millisecond, 400 * time.Millisecond}}
	dah := []span{{0, 650 * time.Millisecond}}

	a := eventsOf(run(newKeyer(t, IambicA), dit, dah, 3*time.Second))
	b := eventsOf(run(newKeyer(t, IambicB), dit, dah, 3*time.Second))

	wantA := []Event{DahDown, DitDown, DahDown, DitDown}
	if !reflect.DeepEqual(a, wantA) {
		t.Errorf("IambicA events = %v, want %v", a, wantA)
	}
	wantB := append(append([]Event{}, wantA...), DahDown)
	if !reflect.DeepEqual(b, wantB) {
		t.Errorf("IambicB events = %v, want %v", b, wantB)
	}
}

func TestKeyer_SinglePaddleRepeats(t *testing.T) {
	tests := []struct {
		name string
		mode Mode
		dit  []span
		dah  []span
		want []keyed
	}{
		{
			name: "A dit held",
			mode: IambicA,
			dit:  []span{{0, 300 * time.Millisecond}},
			want: []keyed{{DitDown, 0}, {DitDown, 120 * time.Millisecond}, {DitDown, 240 * time.Millisecond}},
		},
		{
			name: "B dit held",
			mode: IambicB,
			dit:  []span{{0, 300 * time.Millisecond}},
			want: []keyed{{DitDown, 0}, {DitDown, 120 * time.Millisecond}, {DitDown, 240 * time.Millisecond}},
		},
		{
			name: "A dah held",
			mode: IambicA,
			dah:  []span{{0, 450 * time.Millisecond}},
			want: []keyed{{DahDown, 0}, {DahDown, 240 * time.Millisecond}},
		},
		{
			name: "A short tap",
			mode: IambicA,
			dit:  []span{{10 * time.Millisecond, 15 * time.Millisecond}},
			want: []keyed{{DitDown, 10 * time.Millisecond}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := run(newKeyer(t, tt.mode), tt.dit, tt.dah, 2*time.Second)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("events = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestKeyer_SqueezeAlternatesStartingWithDit(t *testing.T) {
	for _, mode := range []Mode{IambicA, IambicB} {
		k := newKeyer(t, mode)
		both := []span{{0, 500 * time.Millisecond}}
		got := eventsOf(run(k, both, both, 500*time.Millisecond))
		want := []Event{DitDown, DahDown, DitDown, DahDown}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("%v: events = %v, want %v", mode, got, want)
		}
	}
}

func TestKeyer_TapDuringElementIsRemembered(t *testing.T) {
	k := newKeyer(t, IambicA)
	// Dah tapped and released while the dit is still sounding.
	dit := []span{{0, 20 * time.Millisecond}}
	dah := []span{{30 * time.Millisecond, 50 * time.Millisecond}}

	got := run(k, dit, dah, time.Second)
	want := []keyed{{DitDown, 0}, {DahDown, 120 * time.Millisecond}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("events = %v, want %v", got, want)
	}
}

func TestKeyer_Straight(t *testing.T) {
	k := newKeyer(t, Straight)
	if ev := k.Poll(true, false, epoch); ev != DitDown {
		t.Errorf("Poll(dit) = %v, want DitDown", ev)
	}
	if ev := k.Poll(true, false, epoch.Add(time.Millisecond)); ev != DitDown {
		t.Errorf("Poll(dit held) = %v, want DitDown", ev)
	}
	if ev := k.Poll(false, true, epoch.Add(2*time.Millisecond)); ev != DitUp {
		t.Errorf("Poll(dah only) = %v, want DitUp", ev)
	}
	if ev := k.Poll(false, false, epoch.Add(3*time.Millisecond)); ev != DitUp {
		t.Errorf("Poll(released) = %v, want DitUp", ev)
	}
}

func TestKeyer_Swap(t *testing.T) {
	k, err := New(Config{Mode: IambicA, Dot: testDot, Swap: true})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if ev := k.Poll(true, false, epoch); ev != DahDown {
		t.Errorf("Poll(dit contact) with swap = %v, want DahDown", ev)
	}
}

func TestKeyer_SetDotAndReset(t *testing.T) {
	k := newKeyer(t, IambicA)
	k.SetDot(100 * time.Millisecond)
	k.SetDot(0)
	if k.Dot() != 100*time.Millisecond {
		t.Fatalf("Dot() = %v, want 100ms", k.Dot())
	}

	if ev := k.Poll(true, false, epoch); ev != DitDown {
		t.Fatalf("Poll() = %v, want DitDown", ev)
	}
	if ev := k.Poll(false, true, epoch.Add(10*time.Millisecond)); ev != None {
		t.Fatalf("Poll() inside window = %v, want None", ev)
	}

	k.Reset()
	if ev := k.Poll(false, false, epoch.Add(20*time.Millisecond)); ev != None {
		t.Errorf("Poll() after Reset = %v, want None (memory cleared)", ev)
	}
	if k.Mode() != IambicA {
		t.Errorf("Mode() = %v, want IambicA", k.Mode())
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"iambic_a", IambicA, false},
		{"Iambic-B", IambicB, false},
		{" straight ", Straight, false},
		{"b", IambicB, false},
		{"bug", IambicA, true},
	}

	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseMode(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, ErrUnknownMode) {
			t.Errorf("ParseMode(%q) error = %v, want ErrUnknownMode", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseMode(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestMode_StringRoundTrip(t *testing.T) {
	for _, m := range []Mode{IambicA, IambicB, Straight} {
		got, err := ParseMode(m.String())
		if err != nil || got != m {
			t.Errorf("ParseMode(%q) = %v, %v; want %v", m.String(), got, err, m)
		}
	}
}

func TestEvent_String(t *testing.T) {
	tests := map[Event]string{
		None: "None", DitDown: "DitDown", DitUp: "DitUp", DahDown: "DahDown", DahUp: "DahUp",
	}
	for ev, want := range tests {
		if ev.String() != want {
			t.Errorf("%d.String() = %q, want %q", ev, ev.String(), want)
		}
	}
	if !DitDown.KeyDown() || !DahDown.KeyDown() || DitUp.KeyDown() || None.KeyDown() {
		t.Error("KeyDown() misclassifies events")
	}
}
