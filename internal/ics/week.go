package ics

import (
	"context"
	"time"

	"schedgrid/internal/clock"
	"schedgrid/internal/model"
)

// lastMinute is the latest representable end of a day on the grid.
const lastMinute = clock.MinutesPerDay - 1

// WeekEvents converts occurrences into fixed grid events for the week that
// starts at monday (midnight, in the occurrences' location). Occurrences
// crossing midnight are cut into one event per day; a piece running to
// midnight ends at 23:59. All-day occurrences are not placed on the grid.
// OriginalIndex is the position in occs, so every piece of one occurrence
// shares it.
func WeekEvents(occs []Occurrence, monday time.Time) []model.Event {
	monday = clock.StartOfDay(monday)

	var out []model.Event
	for idx, occ := range occs {
		if occ.AllDay || !occ.End.After(occ.Start) {
			continue
		}
		for day := 0; day < clock.DaysPerWeek; day++ {
			dayStart := monday.AddDate(0, 0, day)
			dayEnd := dayStart.AddDate(0, 0, 1)
			if !occ.Start.Before(dayEnd) || !occ.End.After(dayStart) {
				continue
			}

			s := 0
			if occ.Start.After(dayStart) {
				s = clock.MinutesOfDay(occ.Start)
			}
			e := lastMinute
			if occ.End.Before(dayEnd) {
				e = clock.MinutesOfDay(occ.End)
			}
			if e <= s {
				continue
			}
			out = append(out, model.Event{
				OriginalIndex: idx,
				Day:           day,
				Start:         clock.ToTimeString(s),
				End:           clock.ToTimeString(e),
				Type:          occ.Category,
				Title:         occ.Summary,
				Sub:           occ.Location,
				Source:        model.SourceDirect,
			})
		}
	}
	return out
}

// Importer fetches, parses and expands a set of feeds for one week.
type Importer struct {
	Fetcher  *Fetcher
	Sources  []Source
	Location *time.Location
}

// Week returns the direct events of the week containing t. Feeds that fail
// to download or parse are skipped; their errors are returned alongside the
// events of the feeds that worked.
func (im *Importer) Week(ctx context.Context, t time.Time) ([]model.Event, []error) {
	loc := im.Location
	if loc == nil {
		loc = time.Local
	}
	monday, _ := clock.WeekRange(t.In(loc))

	results, errs := im.Fetcher.FetchAll(ctx, im.Sources)
	var entries []Entry
	for _, res := range results {
		parsed, err := Parse(res.Source, res.Body)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		entries = append(entries, parsed...)
	}

	occs, err := Expand(entries, Window{Start: monday, End: monday.AddDate(0, 0, clock.DaysPerWeek), Location: loc})
	if err != nil {
		return nil, append(errs, err)
	}
	return WeekEvents(occs, monday), errs
}
