// Package stats totals scheduled hours per category. Time a flexible event
// loses to overlapping fixed events is not counted.
package stats

import (
	"sort"

	"schedgrid/internal/model"
	"schedgrid/internal/overlap"
)

// StandardCategories always appear in a Summary, even at zero hours.
var StandardCategories = []string{"class", "work", "exercise", "food", "commute", "other"}

// Summary is the per-category total for a set of events.
type Summary struct {
	ByCategory map[string]float64 `json:"by_category"`
	Total      float64            `json:"total"`
}

// Categories returns the category names of s, sorted by hours descending
// and then by name.
func (s Summary) Categories() []string {
	out := make([]string, 0, len(s.ByCategory))
	for c := range s.ByCategory {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := s.ByCategory[out[i]], s.ByCategory[out[j]]
		if a != b {
			return a > b
		}
		return out[i] < out[j]
	})
	return out
}

// Activity is one event's contribution to its category.
type Activity struct {
	Title string  `json:"title"`
	Sub   string  `json:"sub,omitempty"`
	Day   int     `json:"day"`
	Hours float64 `json:"hours"`
}

// Compute totals the effective hours of events by type. Events with no type
// count as "other".
func Compute(events []model.Event) (Summary, error) {
	s := Summary{ByCategory: make(map[string]float64, len(StandardCategories))}
	for _, c := range StandardCategories {
		s.ByCategory[c] = 0
	}

	byDay := groupByDay(events)
	for _, ev := range events {
		mins, err := overlap.VisibleMinutes(ev, byDay[ev.Day])
		if err != nil {
			return Summary{}, err
		}
		h := float64(mins) / 60
		s.ByCategory[category(ev)] += h
		s.Total += h
	}
	return s, nil
}

// Breakdown lists the events of one category with their effective hours,
// in input order.
func Breakdown(events []model.Event, cat string) ([]Activity, error) {
	byDay := groupByDay(events)
	out := []Activity{}
	for _, ev := range events {
		if category(ev) != cat {
			continue
		}
		mins, err := overlap.VisibleMinutes(ev, byDay[ev.Day])
		if err != nil {
			return nil, err
		}
		out = append(out, Activity{Title: ev.Title, Sub: ev.Sub, Day: ev.Day, Hours: float64(mins) / 60})
	}
	return out, nil
}

func category(ev model.Event) string {
	if ev.Type == "" {
		return "other"
	}
	return ev.Type
}

func groupByDay(events []model.Event) map[int][]model.Event {
	byDay := make(map[int][]model.Event)
	for _, ev := range events {
		byDay[ev.Day] = append(byDay[ev.Day], ev)
	}
	return byDay
}
