package mastery

import (
	"errors"
	"testing"
	"time"
)

func TestNext(t *testing.T) {
	tests := []struct {
		name         string
		stars        int
		mode         Mode
		correct      bool
		wantStars    int
		wantPlatinum bool
	}{
		{"initial from zero", 0, ModeInitial, true, 1, false},
		{"practice from one", 1, ModePractice, true, 2, false},
		{"advanced from two grants platinum", 2, ModeAdvanced, true, 3, true},
		{"advanced at three refreshes platinum", 3, ModeAdvanced, true, 3, true},
		{"advanced at zero is a no-op", 0, ModeAdvanced, true, 0, false},
		{"practice at zero is a no-op", 0, ModePractice, true, 0, false},
		{"initial at one is a no-op", 1, ModeInitial, true, 1, false},
		{"practice at three is a no-op", 3, ModePractice, true, 3, false},
		{"wrong answer keeps stars", 2, ModeAdvanced, false, 2, false},
		{"wrong answer at zero", 0, ModeInitial, false, 0, false},
		{"unknown mode is a no-op", 0, Mode("speedrun"), true, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotStars, gotPlatinum := Next(tt.stars, tt.mode, tt.correct)
			if gotStars != tt.wantStars || gotPlatinum != tt.wantPlatinum {
				t.Errorf("Next(%d, %q, %v) = (%d, %v), want (%d, %v)",
					tt.stars, tt.mode, tt.correct, gotStars, gotPlatinum, tt.wantStars, tt.wantPlatinum)
			}
		})
	}
}

func TestNext_NeverSkipsRungs(t *testing.T) {
	modes := []Mode{ModeInitial, ModePractice, ModeAdvanced}
	for stars := 0; stars <= MaxStars; stars++ {
		for _, m := range modes {
			for _, correct := range []bool{true, false} {
				got, _ := Next(stars, m, correct)
				if got < stars || got > stars+1 || got > MaxStars {
					t.Errorf("Next(%d, %q, %v) = %d: must stay or advance one rung", stars, m, correct, got)
				}
			}
		}
	}
}

func TestParseMode(t *testing.T) {
	for _, in := range []string{"initial", "PRACTICE", " Advanced "} {
		if _, err := ParseMode(in); err != nil {
			t.Errorf("ParseMode(%q) unexpected error: %v", in, err)
		}
	}
	if _, err := ParseMode("expert"); !errors.Is(err, ErrUnknownMode) {
		t.Errorf("ParseMode(expert) error = %v, want ErrUnknownMode", err)
	}
}

func TestExpectedMode(t *testing.T) {
	want := map[int]Mode{0: ModeInitial, 1: ModePractice, 2: ModeAdvanced, 3: ModeAdvanced}
	for stars, m := range want {
		if got := ExpectedMode(stars); got != m {
			t.Errorf("ExpectedMode(%d) = %q, want %q", stars, got, m)
		}
		if next, _ := Next(stars, ExpectedMode(stars), true); stars < MaxStars && next != stars+1 {
			t.Errorf("expected mode for %d stars did not advance (got %d)", stars, next)
		}
	}
}

func TestIsPlatinum(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	future := PlatinumUntil(now).UnixMilli()
	past := now.Add(-time.Hour).UnixMilli()

	if IsPlatinum(nil, now) {
		t.Error("nil expiry should not be platinum")
	}
	if !IsPlatinum(&future, now) {
		t.Error("future expiry should be platinum")
	}
	if IsPlatinum(&past, now) {
		t.Error("past expiry should not be platinum")
	}
	if d := time.UnixMilli(future).Sub(now); d != 30*24*time.Hour {
		t.Errorf("platinum window = %v, want 30 days", d)
	}
}
