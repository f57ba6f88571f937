// Package overlap splits flexible (overwriteable) events around the fixed
// events that share their day, producing the segments the grid draws.
package overlap

import (
	"errors"
	"fmt"
	"sort"

	"schedgrid/internal/clock"
	"schedgrid/internal/model"
)

var (
	// ErrInvalidInterval is returned for an event whose start is not before
	// its end.
	ErrInvalidInterval = errors.New("invalid interval")
	// ErrInvalidDay is returned for an event whose day is outside 0..6.
	ErrInvalidDay = errors.New("invalid day")
)

// interval is a half-open [start, end) span in minutes since midnight.
type interval struct {
	start, end int
}

// parsed pairs an event with its validated interval.
type parsed struct {
	ev model.Event
	iv interval
}

// ResolveDay turns the events of a single day into drawable segments.
//
// Every event is validated before anything is emitted: a malformed time
// yields clock.ErrInvalidTimeFormat and start >= end yields
// ErrInvalidInterval, and in both cases no segments are returned.
//
// Fixed events become one segment each. A flexible event that no fixed event
// overlaps becomes one whole segment. Otherwise the flexible event is cut
// into the sub-intervals not covered by any fixed event; a fully covered
// flexible event contributes nothing. Overlapping fixed events are left
// as-is and simply stack.
func ResolveDay(events []model.Event) ([]model.Segment, error) {
	items, err := parseAll(events)
	if err != nil {
		return nil, err
	}

	var fixed, flexible []parsed
	for _, p := range items {
		if p.ev.Overwriteable {
			flexible = append(flexible, p)
		} else {
			fixed = append(fixed, p)
		}
	}

	out := make([]model.Segment, 0, len(items))
	for _, f := range fixed {
		out = append(out, wholeSegment(f.ev, model.PriorityFixed))
	}

	fixedIvs := make([]interval, 0, len(fixed))
	for _, f := range fixed {
		fixedIvs = append(fixedIvs, f.iv)
	}

	for _, fl := range flexible {
		hits := overlapping(fl.iv, fixedIvs)
		if len(hits) == 0 {
			out = append(out, wholeSegment(fl.ev, model.PriorityFlexibleWhole))
			continue
		}

		pieces := subtract(fl.iv, hits)
		for i, piece := range pieces {
			seg := wholeSegment(fl.ev, model.PriorityFlexibleSegment)
			seg.Start = clock.ToTimeString(piece.start)
			seg.End = clock.ToTimeString(piece.end)
			seg.IsSegment = true
			seg.SegmentIndex = i
			seg.TotalSegments = len(pieces)
			out = append(out, seg)
		}
	}

	return out, nil
}

// ResolveWeek groups events by day and resolves each day independently.
//
// When days is non-nil only those days are resolved; events on other days
// are ignored. The result is ordered by day (in the order given), then by
// start time, with lower stacking tiers first so fixed segments draw last.
func ResolveWeek(events []model.Event, days []int) ([]model.Segment, error) {
	if days == nil {
		days = clock.AllDays()
	}

	byDay := make(map[int][]model.Event, clock.DaysPerWeek)
	for _, ev := range events {
		if !clock.ValidDay(ev.Day) {
			return nil, fmt.Errorf("event %d: %w: %d", ev.OriginalIndex, ErrInvalidDay, ev.Day)
		}
		byDay[ev.Day] = append(byDay[ev.Day], ev)
	}

	order := make(map[int]int, len(days))
	var out []model.Segment
	for pos, day := range days {
		if _, seen := order[day]; seen {
			continue
		}
		order[day] = pos
		segs, err := ResolveDay(byDay[day])
		if err != nil {
			return nil, fmt.Errorf("day %d: %w", day, err)
		}
		out = append(out, segs...)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if order[a.Day] != order[b.Day] {
			return order[a.Day] < order[b.Day]
		}
		// Times were validated by ResolveDay and are zero-padded, so string
		// order matches minute order.
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		return a.ZIndex() < b.ZIndex()
	})
	return out, nil
}

// VisibleMinutes returns how many minutes of ev remain visible after
// splitting against the fixed events in sameDay. Fixed events always count
// in full. sameDay may include ev itself and events from other days; both
// are ignored.
func VisibleMinutes(ev model.Event, sameDay []model.Event) (int, error) {
	self, err := parseOne(ev)
	if err != nil {
		return 0, err
	}
	total := self.iv.end - self.iv.start
	if !ev.Overwriteable {
		return total, nil
	}

	var fixed []interval
	for _, other := range sameDay {
		if other.Overwriteable || other.Day != ev.Day {
			continue
		}
		p, err := parseOne(other)
		if err != nil {
			return 0, err
		}
		fixed = append(fixed, p.iv)
	}

	hits := overlapping(self.iv, fixed)
	if len(hits) == 0 {
		return total, nil
	}
	visible := 0
	for _, piece := range subtract(self.iv, hits) {
		visible += piece.end - piece.start
	}
	return visible, nil
}

// SplitAround removes from ev every span covered by blockers on the same
// day and returns the remaining pieces as events that keep ev's identity.
// Unlike ResolveDay it ignores the overwriteable flag on both sides: a
// blocker always wins. A fully covered event yields no pieces.
func SplitAround(ev model.Event, blockers []model.Event) ([]model.Event, error) {
	self, err := parseOne(ev)
	if err != nil {
		return nil, err
	}
	var ivs []interval
	for _, b := range blockers {
		if b.Day != ev.Day {
			continue
		}
		p, err := parseOne(b)
		if err != nil {
			return nil, err
		}
		ivs = append(ivs, p.iv)
	}

	hits := overlapping(self.iv, ivs)
	if len(hits) == 0 {
		return []model.Event{ev}, nil
	}
	var out []model.Event
	for _, piece := range subtract(self.iv, hits) {
		cp := ev
		cp.Start = clock.ToTimeString(piece.start)
		cp.End = clock.ToTimeString(piece.end)
		out = append(out, cp)
	}
	return out, nil
}

func parseAll(events []model.Event) ([]parsed, error) {
	out := make([]parsed, 0, len(events))
	for _, ev := range events {
		p, err := parseOne(ev)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func parseOne(ev model.Event) (parsed, error) {
	s, err := clock.ToMinutes(ev.Start)
	if err != nil {
		return parsed{}, fmt.Errorf("event %d start: %w", ev.OriginalIndex, err)
	}
	e, err := clock.ToMinutes(ev.End)
	if err != nil {
		return parsed{}, fmt.Errorf("event %d end: %w", ev.OriginalIndex, err)
	}
	if s >= e {
		return parsed{}, fmt.Errorf("event %d %s-%s: %w", ev.OriginalIndex, ev.Start, ev.End, ErrInvalidInterval)
	}
	return parsed{ev: ev, iv: interval{start: s, end: e}}, nil
}

func wholeSegment(ev model.Event, p model.Priority) model.Segment {
	return model.Segment{
		OriginalIndex: ev.OriginalIndex,
		Day:           ev.Day,
		Start:         ev.Start,
		End:           ev.End,
		Priority:      p,
		ParentStart:   ev.Start,
		ParentEnd:     ev.End,
		Title:         ev.Title,
		Sub:           ev.Sub,
		Type:          ev.Type,
		Overwriteable: ev.Overwriteable,
		Source:        ev.Source,
	}
}

// overlapping returns the fixed intervals that overlap iv, sorted by start.
func overlapping(iv interval, fixed []interval) []interval {
	var hits []interval
	for _, f := range fixed {
		if clock.RangesOverlap(iv.start, iv.end, f.start, f.end) {
			hits = append(hits, f)
		}
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].start < hits[j].start })
	return hits
}

// subtract sweeps iv left to right, keeping the parts not covered by the
// sorted intervals in hits.
func subtract(iv interval, hits []interval) []interval {
	var pieces []interval
	cursor := iv.start
	for _, h := range hits {
		if cursor < h.start {
			pieces = append(pieces, interval{start: cursor, end: min(h.start, iv.end)})
		}
		cursor = max(cursor, h.end)
	}
	if cursor < iv.end {
		pieces = append(pieces, interval{start: cursor, end: iv.end})
	}
	return pieces
}
