// Package mastery holds the star ladder that gates progress on a node:
// one rung per correct answer, and only when the study mode matches the rung.
package mastery

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Mode is a study intensity.
type Mode string

const (
	ModeInitial  Mode = "initial"
	ModePractice Mode = "practice"
	ModeAdvanced Mode = "advanced"
)

func (m Mode) String() string { return string(m) }

// MaxStars is the top rung. Reaching it grants platinum.
const MaxStars = 3

// PlatinumDuration is how long platinum lasts after it is granted or refreshed.
const PlatinumDuration = 30 * 24 * time.Hour

// ErrUnknownMode is returned by ParseMode for anything but the three modes.
var ErrUnknownMode = errors.New("unknown study mode")

// ParseMode accepts "initial", "practice" or "advanced", case-insensitively.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeInitial, ModePractice, ModeAdvanced:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q (want initial, practice or advanced)", ErrUnknownMode, s)
	}
}

// Next returns the star count after an attempt and whether the platinum
// window should be set to now+PlatinumDuration.
//
//	0 + initial  -> 1
//	1 + practice -> 2
//	2 + advanced -> 3, platinum
//	3 + advanced -> 3, platinum refreshed
//
// Wrong answers and every other combination leave stars unchanged.
func Next(stars int, mode Mode, correct bool) (int, bool) {
	if !correct {
		return stars, false
	}
	switch {
	case stars == 0 && mode == ModeInitial:
		return 1, false
	case stars == 1 && mode == ModePractice:
		return 2, false
	case stars == 2 && mode == ModeAdvanced:
		return MaxStars, true
	case stars == MaxStars && mode == ModeAdvanced:
		return MaxStars, true
	default:
		return stars, false
	}
}

// ExpectedMode is the mode that advances (or, at the top, refreshes) a node
// with the given star count.
func ExpectedMode(stars int) Mode {
	switch {
	case stars <= 0:
		return ModeInitial
	case stars == 1:
		return ModePractice
	default:
		return ModeAdvanced
	}
}

// PlatinumUntil returns the expiry for platinum granted at now.
func PlatinumUntil(now time.Time) time.Time {
	return now.Add(PlatinumDuration)
}

// IsPlatinum reports whether a platinum expiry (Unix millis, nil if never
// granted) is still in the future at now.
func IsPlatinum(until *int64, now time.Time) bool {
	return until != nil && *until > now.UnixMilli()
}
