package ics

import (
	"errors"
	"sort"
	"time"

	"github.com/teambition/rrule-go"

	appLog "schedgrid/internal/log"
)

const defaultMaxOccurrences = 5000

// Occurrence is one concrete instance of an Entry.
type Occurrence struct {
	SourceID string
	Category string
	UID      string
	Summary  string
	Location string
	AllDay   bool
	Start    time.Time
	End      time.Time
}

// Window bounds an expansion. Occurrences overlapping [Start, End) are kept
// and converted to Location (time.Local when nil).
type Window struct {
	Start    time.Time
	End      time.Time
	Location *time.Location

	// MaxPerEvent caps the instances of one recurring entry; zero means
	// 5000.
	MaxPerEvent int
}

// Expand turns entries into the occurrences that overlap the window.
// RRULE and EXDATE are applied through rrule-go, and an entry carrying a
// RECURRENCE-ID replaces the matching instance of its series. The result is
// sorted by start time.
func Expand(entries []Entry, w Window) ([]Occurrence, error) {
	if !w.End.After(w.Start) {
		return nil, errors.New("expand: window end must be after start")
	}
	if w.Location == nil {
		w.Location = time.Local
	}
	if w.MaxPerEvent <= 0 {
		w.MaxPerEvent = defaultMaxOccurrences
	}

	overrides := make(map[string][]Entry)
	var bases []Entry
	for _, e := range entries {
		if e.RecurrenceID != nil {
			overrides[e.UID] = append(overrides[e.UID], e)
			continue
		}
		bases = append(bases, e)
	}

	var out []Occurrence
	for _, base := range bases {
		out = append(out, expandEntry(base, overrides[base.UID], w)...)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}

func expandEntry(e Entry, overrides []Entry, w Window) []Occurrence {
	if e.RRule == "" {
		return keep(e, e.Start, e.End, overrides, w)
	}

	r, err := rrule.StrToRRule(e.RRule)
	if err != nil {
		appLog.Warn("ics: bad RRULE, skipping series", "uid", e.UID, "rrule", e.RRule, "err", err)
		return nil
	}
	r.DTStart(e.Start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range e.ExDates {
		set.ExDate(ex.In(e.Start.Location()))
	}

	// Widen the lower bound by the event length so instances that started
	// before the window but still run into it are found.
	dur := e.End.Sub(e.Start)
	starts := set.Between(w.Start.Add(-dur).In(e.Start.Location()), w.End.In(e.Start.Location()), true)
	if len(starts) > w.MaxPerEvent {
		appLog.Warn("ics: truncating recurring series", "uid", e.UID, "cap", w.MaxPerEvent)
		starts = starts[:w.MaxPerEvent]
	}

	var out []Occurrence
	for _, s := range starts {
		out = append(out, keep(e, s, s.Add(dur), overrides, w)...)
	}
	return out
}

// keep applies a matching override and returns the instance when it
// overlaps the window.
func keep(e Entry, start, end time.Time, overrides []Entry, w Window) []Occurrence {
	for _, o := range overrides {
		if o.RecurrenceID.Equal(start) {
			e, start, end = o, o.Start, o.End
			break
		}
	}
	if !start.Before(w.End) || !end.After(w.Start) {
		return nil
	}
	cat := e.Source.Category
	if cat == "" {
		cat = "other"
	}
	return []Occurrence{{
		SourceID: e.Source.ID,
		Category: cat,
		UID:      e.UID,
		Summary:  e.Summary,
		Location: e.Location,
		AllDay:   e.AllDay,
		Start:    start.In(w.Location),
		End:      end.In(w.Location),
	}}
}
