// Package match decides whether a shift falls within a worker's declared
// weekly availability. It is a pure predicate used to filter and highlight
// candidate shifts; it never mutates shift or availability state.
package match

import (
	"strings"

	"guardshift-agent/internal/model"
	"guardshift-agent/internal/timewin"
)

// Matches reports whether the shift fits the worker's availability.
//
// A worker with no declared availability is offered everything, so a nil
// availability matches every shift. Otherwise the shift's weekday must be
// among the declared days and its [start,end) window must overlap at least
// one declared slot. Malformed slots are skipped rather than failing the
// whole evaluation.
func Matches(shift model.Shift, avail *model.Availability) bool {
	if avail == nil {
		return true
	}

	day, err := shift.Day()
	if err != nil {
		return false
	}
	if !containsFold(avail.Days, day.String()) {
		return false
	}

	if !shift.HasWindow() {
		return false
	}

	for _, slot := range avail.TimeSlots {
		start, end, err := timewin.ParseSlot(slot)
		if err != nil {
			continue
		}
		ok, err := timewin.RangesOverlap(shift.StartTime, shift.EndTime, start, end)
		if err != nil {
			continue
		}
		if ok {
			return true
		}
	}
	return false
}

func containsFold(days []string, day string) bool {
	for _, d := range days {
		if strings.EqualFold(strings.TrimSpace(d), day) {
			return true
		}
	}
	return false
}
