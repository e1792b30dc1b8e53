package availability

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const minutesPerDay = 24 * 60

var ErrInvalidTime = errors.New("time must be HH:MM or HH:MM:SS")

// WallClock is a time of day in whole minutes since midnight, without date or zone.
type WallClock int

// ParseWallClock accepts "H:MM", "HH:MM" and "HH:MM:SS"; seconds are dropped.
func ParseWallClock(s string) (WallClock, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	if len(parts[0]) == 0 || len(parts[0]) > 2 || len(parts[1]) != 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	if len(parts) == 3 {
		sec, err := strconv.Atoi(parts[2])
		if len(parts[2]) != 2 || err != nil || sec < 0 || sec > 59 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
		}
	}
	return WallClock(h*60 + m), nil
}

// MustParseWallClock panics on malformed input; for constants and tests.
func MustParseWallClock(s string) WallClock {
	w, err := ParseWallClock(s)
	if err != nil {
		panic(err)
	}
	return w
}

// WallClockOf reads the hour and minute of t in t's own location.
func WallClockOf(t time.Time) WallClock {
	return WallClock(t.Hour()*60 + t.Minute())
}

func (w WallClock) String() string {
	m := int(w) % minutesPerDay
	if m < 0 {
		m += minutesPerDay
	}
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// NormalizeTime validates a time of day and rewrites it as HH:MM. An empty string yields nil.
func NormalizeTime(s *string) (*string, error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, nil
	}
	w, err := ParseWallClock(*s)
	if err != nil {
		return nil, err
	}
	out := w.String()
	return &out, nil
}
