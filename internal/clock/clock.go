package clock

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

// MinutesPerDay is the number of minutes in a wall-clock day.
const MinutesPerDay = 24 * 60

// ErrInvalidTimeFormat is returned when a time string is not a valid 24-hour
// HH:MM value.
var ErrInvalidTimeFormat = errors.New("invalid time format")

var hhmmPattern = regexp.MustCompile(`^([01]\d|2[0-3]):([0-5]\d)$`)

// ToMinutes parses "HH:MM" into minutes since midnight.
func ToMinutes(s string) (int, error) {
	m := hhmmPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, s)
	}
	// The pattern guarantees two digits for each component.
	h, _ := strconv.Atoi(m[1])
	mm, _ := strconv.Atoi(m[2])
	return h*60 + mm, nil
}

// ToTimeString formats minutes since midnight as zero-padded "HH:MM".
//
// Values of MinutesPerDay or more are not wrapped, so 1440 formats as "24:00".
// Negative values are clamped to "00:00".
func ToTimeString(minutes int) string {
	if minutes < 0 {
		minutes = 0
	}
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// RangesOverlap reports whether the half-open intervals [startA, endA) and
// [startB, endB) overlap. Touching endpoints do not overlap.
func RangesOverlap(startA, endA, startB, endB int) bool {
	return startA < endB && endA > startB
}

// Duration returns the number of minutes from start to end.
func Duration(start, end string) (int, error) {
	s, err := ToMinutes(start)
	if err != nil {
		return 0, err
	}
	e, err := ToMinutes(end)
	if err != nil {
		return 0, err
	}
	return e - s, nil
}

// HourLabel formats a whole hour as "HH:00".
func HourLabel(hour int) string {
	return ToTimeString(hour * 60)
}
