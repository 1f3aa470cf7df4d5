package morse

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestParsePattern_InvertsEncode(t *testing.T) {
	tm := FromWPM(20)
	for _, text := range []string{"CQ DE K1ABC", "PARIS", "73 <SK>", "E"} {
		t.Run(text, func(t *testing.T) {
			got, err := ParsePattern(Pattern(text), tm)
			if err != nil {
				t.Fatalf("ParsePattern() error = %v", err)
			}
			want := Encode(text, tm)
			if len(got) != len(want) {
				t.Fatalf("len = %d, want %d", len(got), len(want))
			}
			for i := range want {
				if got[i] != want[i] {
					t.Errorf("tone %d = %+v, want %+v", i, got[i], want[i])
				}
			}
		})
	}
}

func TestParsePattern_Edges(t *testing.T) {
	tm := FromWPM(20)

	seq, err := ParsePattern("  /  .-  / ", tm)
	if err != nil {
		t.Fatalf("ParsePattern() error = %v", err)
	}
	if want := Encode("A", tm); len(seq) != len(want) {
		t.Errorf("leading and trailing separators should be ignored, got %+v", seq)
	}

	if seq, err := ParsePattern("", tm); err != nil || len(seq) != 0 {
		t.Errorf("ParsePattern(\"\") = %v, %v; want empty", seq, err)
	}

	if _, err := ParsePattern(".- x-", tm); !errors.Is(err, ErrBadPattern) {
		t.Errorf("ParsePattern() error = %v, want ErrBadPattern", err)
	}
}

func TestReplay_Pattern(t *testing.T) {
	tm := FromWPM(18)
	seq, err := ParsePattern("-.-. --.- / -.. . / -.- .---- .- -... -.-.", tm)
	if err != nil {
		t.Fatalf("ParsePattern() error = %v", err)
	}

	got := strings.TrimSpace(Replay(seq, tm, 10*time.Millisecond))
	if got != "CQ DE K1ABC" {
		t.Errorf("Replay() = %q, want %q", got, "CQ DE K1ABC")
	}
}

func TestReplay_NonPositiveStep(t *testing.T) {
	tm := FromWPM(20)
	seq := Encode("E", tm)
	for _, step := range []time.Duration{0, -time.Millisecond} {
		done := make(chan string, 1)
		go func() { done <- Replay(seq, tm, step) }()

		select {
		case got := <-done:
			if strings.TrimSpace(got) != "E" {
				t.Errorf("Replay(step %v) = %q, want %q", step, got, "E")
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("Replay(step %v) did not return", step)
		}
	}
}
