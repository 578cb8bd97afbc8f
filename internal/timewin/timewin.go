package timewin

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	clockRe = regexp.MustCompile(`^([01]?\d|2[0-3]):([0-5]\d)$`)
	slotRe  = regexp.MustCompile(`^([^-\s]+)\s*-\s*([^-\s]+)$`)
)

// MinutesPerDay is the wrap modulus for clock arithmetic.
const MinutesPerDay = 24 * 60

// MinuteOfDay converts an "HH:MM" clock string into minutes since midnight.
func MinuteOfDay(clock string) (int, error) {
	m := clockRe.FindStringSubmatch(strings.TrimSpace(clock))
	if m == nil {
		return 0, fmt.Errorf("invalid clock string: %q", clock)
	}
	h, _ := strconv.Atoi(m[1])
	min, _ := strconv.Atoi(m[2])
	return h*60 + min, nil
}

// MinutesBetween returns the number of minutes from clock a to clock b,
// wrapping past midnight when b reads earlier than a. Equal clocks count as a
// full day rather than zero, so a shift can never have zero duration. This
// rule feeds earnings estimates and must not change.
func MinutesBetween(a, b string) (int, error) {
	ma, err := MinuteOfDay(a)
	if err != nil {
		return 0, err
	}
	mb, err := MinuteOfDay(b)
	if err != nil {
		return 0, err
	}
	diff := mb - ma
	if diff <= 0 {
		diff += MinutesPerDay
	}
	return diff, nil
}

// RangesOverlap reports whether the half-open intervals [s1,e1) and [s2,e2)
// intersect. Comparison is on raw minute-of-day values with no midnight wrap;
// an interval whose end reads before its start is simply empty here. Duration
// wraps, overlap does not. The asymmetry matches the platform's own behavior.
func RangesOverlap(s1, e1, s2, e2 string) (bool, error) {
	a1, err := MinuteOfDay(s1)
	if err != nil {
		return false, err
	}
	b1, err := MinuteOfDay(e1)
	if err != nil {
		return false, err
	}
	a2, err := MinuteOfDay(s2)
	if err != nil {
		return false, err
	}
	b2, err := MinuteOfDay(e2)
	if err != nil {
		return false, err
	}
	return a1 < b2 && a2 < b1, nil
}

// ParseSlot splits an "HH:MM-HH:MM" interval string into its start and end
// clocks, validating both sides.
func ParseSlot(slot string) (start, end string, err error) {
	m := slotRe.FindStringSubmatch(strings.TrimSpace(slot))
	if m == nil {
		return "", "", fmt.Errorf("invalid time slot: %q", slot)
	}
	if _, err := MinuteOfDay(m[1]); err != nil {
		return "", "", fmt.Errorf("invalid time slot %q: %w", slot, err)
	}
	if _, err := MinuteOfDay(m[2]); err != nil {
		return "", "", fmt.Errorf("invalid time slot %q: %w", slot, err)
	}
	return m[1], m[2], nil
}

// Earnings estimates pay for a shift window at the given hourly rate, using
// the wrap-aware duration rule above.
func Earnings(start, end string, payRate float64) (float64, error) {
	minutes, err := MinutesBetween(start, end)
	if err != nil {
		return 0, err
	}
	return float64(minutes) / 60 * payRate, nil
}
