package schedule

import (
	"errors"
	"fmt"

	"schedgrid/internal/clock"
)

// ValidationError describes the first problem found in a document. Index is
// the offending event's position, or -1 for document-level problems.
type ValidationError struct {
	Index int
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Index < 0 {
		return "invalid schedule: " + e.Msg
	}
	return fmt.Sprintf("invalid schedule: event #%d: %s", e.Index, e.Msg)
}

// IsValidation reports whether err is (or wraps) a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Validate checks the document structure, colour mappings and every event.
// Legacy day 7 is accepted as Sunday.
func Validate(doc *Document) error {
	if doc == nil {
		return &ValidationError{Index: -1, Msg: "document is nil"}
	}
	if doc.Name == "" {
		return &ValidationError{Index: -1, Msg: "missing required key: 'name'"}
	}
	if doc.Events == nil {
		return &ValidationError{Index: -1, Msg: "missing required key: 'events'"}
	}
	if err := doc.ColorMappings.Validate(); err != nil {
		return &ValidationError{Index: -1, Msg: err.Error()}
	}
	for i, ev := range doc.Events {
		if msg := validateEvent(ev); msg != "" {
			return &ValidationError{Index: i, Msg: msg}
		}
	}
	return nil
}

// ValidateEvent checks a single logical event.
func ValidateEvent(ev EventSpec) error {
	if msg := validateEvent(ev); msg != "" {
		return &ValidationError{Index: -1, Msg: msg}
	}
	return nil
}

func validateEvent(ev EventSpec) string {
	if ev.Title == "" {
		return "missing field 'title'"
	}
	if ev.Type == "" {
		return "missing field 'type'"
	}

	if ev.Legacy() {
		if ev.Day == nil {
			return "missing field 'day'"
		}
		return validateSlot(ev.Day, ev.Start, ev.End)
	}

	if len(ev.Timestamps) == 0 {
		return "timestamps list cannot be empty"
	}
	for i, ts := range ev.Timestamps {
		if ts.Day == nil {
			return fmt.Sprintf("timestamp #%d: missing field 'day'", i)
		}
		if msg := validateSlot(ts.Day, ts.Start, ts.End); msg != "" {
			return fmt.Sprintf("timestamp #%d: %s", i, msg)
		}
	}
	return ""
}

func validateSlot(days Days, start, end string) string {
	if len(days) == 0 {
		return "day list cannot be empty"
	}
	for _, d := range days {
		if !clock.ValidDay(clock.NormalizeDay(d)) {
			return fmt.Sprintf("day %d must be between 0 (Mon) and 6 (Sun)", d)
		}
	}
	if start == "" {
		return "missing field 'start'"
	}
	if end == "" {
		return "missing field 'end'"
	}
	s, err := clock.ToMinutes(start)
	if err != nil {
		return "invalid start time format: " + start
	}
	e, err := clock.ToMinutes(end)
	if err != nil {
		return "invalid end time format: " + end
	}
	if s >= e {
		return fmt.Sprintf("start %s must be before end %s", start, end)
	}
	return ""
}
