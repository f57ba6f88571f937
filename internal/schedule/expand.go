package schedule

import (
	"schedgrid/internal/clock"
	"schedgrid/internal/model"
	"schedgrid/internal/overlap"
)

// Expand flattens a validated document into single-day events. Every copy
// of a logical event carries its position in doc.Events as OriginalIndex.
func Expand(doc *Document) []model.Event {
	var out []model.Event
	for idx, spec := range doc.Events {
		base := model.Event{
			OriginalIndex: idx,
			Overwriteable: spec.Overwriteable,
			Type:          spec.Type,
			Title:         spec.Title,
			Sub:           spec.Sub,
			Source:        model.SourceSchedule,
		}

		slots := spec.Timestamps
		if spec.Legacy() {
			slots = []Timestamp{{Day: spec.Day, Start: spec.Start, End: spec.End}}
		}
		for _, ts := range slots {
			for _, day := range ts.Day {
				ev := base
				ev.Day = clock.NormalizeDay(day)
				ev.Start = ts.Start
				ev.End = ts.End
				out = append(out, ev)
			}
		}
	}
	return out
}

// MergeDirect combines schedule events with imported calendar events for
// the same week. Direct events are fixed and take precedence: every
// schedule event is cut around the direct events of its day, whatever its
// own overwriteable flag. Direct events get OriginalIndex values after the
// highest schedule index so clicks on them stay distinguishable.
func MergeDirect(sched, direct []model.Event) ([]model.Event, error) {
	if len(direct) == 0 {
		return sched, nil
	}

	next := 0
	for _, ev := range sched {
		next = max(next, ev.OriginalIndex+1)
	}

	fixed := make([]model.Event, len(direct))
	for i, ev := range direct {
		ev.Overwriteable = false
		ev.Source = model.SourceDirect
		ev.OriginalIndex = next + i
		fixed[i] = ev
	}

	out := make([]model.Event, 0, len(sched)+len(fixed))
	for _, ev := range sched {
		pieces, err := overlap.SplitAround(ev, fixed)
		if err != nil {
			return nil, err
		}
		out = append(out, pieces...)
	}
	return append(out, fixed...), nil
}
