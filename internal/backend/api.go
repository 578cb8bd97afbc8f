package backend

import (
	"bytes"
	"encoding/json"
	"fmt"

	"guardshift-agent/internal/model"
)

// actionResponse models the platform's mutation responses: {message, shift?}
// for apply, {message, attendance?, shift?} for check-in/check-out.
type actionResponse struct {
	Message    string                  `json:"message"`
	Shift      *model.Shift            `json:"shift,omitempty"`
	Attendance *model.AttendanceRecord `json:"attendance,omitempty"`
}

// apiError models the platform's error body. Code carries the
// machine-readable discriminator; messages are for humans only.
type apiError struct {
	Message string `json:"message"`
	Error   string `json:"error"`
	Code    string `json:"code"`
}

const codeLocationMismatch = "location_mismatch"

var listWrapperKeys = []string{"items", "data", "shifts"}

// decodeShiftList normalizes the platform's assorted list shapes into a flat
// slice: a bare JSON array, or an object wrapping the array under "items",
// "data" or "shifts", possibly nested one level ({"data":{"items":[...]}}).
// Shape sniffing happens here and nowhere else.
func decodeShiftList(body []byte) ([]model.Shift, error) {
	return decodeShiftValue(bytes.TrimSpace(body), 0)
}

func decodeShiftValue(raw []byte, depth int) ([]model.Shift, error) {
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	if raw[0] == '[' {
		var shifts []model.Shift
		if err := json.Unmarshal(raw, &shifts); err != nil {
			return nil, fmt.Errorf("failed to unmarshal shift array: %w", err)
		}
		return shifts, nil
	}
	if depth >= 2 {
		return nil, fmt.Errorf("unrecognized shift list shape")
	}
	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(raw, &wrapper); err != nil {
		return nil, fmt.Errorf("failed to unmarshal shift list wrapper: %w", err)
	}
	for _, key := range listWrapperKeys {
		if inner, ok := wrapper[key]; ok {
			return decodeShiftValue(bytes.TrimSpace(inner), depth+1)
		}
	}
	return nil, fmt.Errorf("no recognized wrapper key in shift list response")
}

// decodeAvailability accepts a bare availability object or one wrapped under
// "availability" or "data". An empty record means the worker never configured
// availability and is reported as nil.
func decodeAvailability(body []byte) (*model.Availability, error) {
	raw := bytes.TrimSpace(body)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(raw, &wrapper); err != nil {
		return nil, fmt.Errorf("failed to unmarshal availability response: %w", err)
	}
	for _, key := range []string{"availability", "data"} {
		if inner, ok := wrapper[key]; ok {
			raw = bytes.TrimSpace(inner)
			break
		}
	}

	var av model.Availability
	if err := json.Unmarshal(raw, &av); err != nil {
		return nil, fmt.Errorf("failed to unmarshal availability: %w", err)
	}
	if len(av.Days) == 0 && len(av.TimeSlots) == 0 {
		return nil, nil
	}
	return &av, nil
}
