package domain

import "time"

// Overlaps reports whether the half-open intervals [aStart, aEnd) and
// [bStart, bEnd) intersect. Touching endpoints do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return bStart.Before(aEnd) && aStart.Before(bEnd)
}

// ValidateInterval checks that end is strictly after start.
func ValidateInterval(start, end time.Time) error {
	if !end.After(start) {
		return ErrInvalidInterval
	}
	return nil
}

// ValidateNewInterval applies the rules for a reservation being created:
// the interval must be well formed and must not start before now.
func ValidateNewInterval(start, end, now time.Time) error {
	if err := ValidateInterval(start, end); err != nil {
		return err
	}
	if start.Before(now) {
		return ErrPastStartTime
	}
	return nil
}
