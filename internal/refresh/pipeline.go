// Package refresh builds rendered grid snapshots from a schedule file plus
// imported calendar events, and rebuilds them on a cron schedule.
package refresh

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"schedgrid/internal/clock"
	"schedgrid/internal/grid"
	"schedgrid/internal/ics"
	appLog "schedgrid/internal/log"
	"schedgrid/internal/model"
	"schedgrid/internal/render"
	"schedgrid/internal/schedule"
)

// DefaultDirectTTL is how long imported calendar events are reused before
// the feeds are fetched again.
const DefaultDirectTTL = 5 * time.Minute

// Snapshot is one rendered state of a schedule.
type Snapshot struct {
	Schedule    string
	Events      []model.Event
	Description grid.Description
	SVG         string
	UpdatedAt   time.Time
}

// Pipeline loads schedules and merges in the calendar events of the current
// week. It is safe for concurrent use.
type Pipeline struct {
	Store *schedule.Store
	// Importer is optional; nil disables calendar import.
	Importer *ics.Importer
	Location *time.Location
	// DirectTTL defaults to DefaultDirectTTL.
	DirectTTL time.Duration
	// Now defaults to time.Now.
	Now func() time.Time

	mu     sync.RWMutex
	direct *directCache
}

// directCache holds the imported events of one week and when they were fetched.
type directCache struct {
	week      time.Time
	events    []model.Event
	updatedAt time.Time
}

func (p *Pipeline) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

func (p *Pipeline) location() *time.Location {
	if p.Location != nil {
		return p.Location
	}
	return time.Local
}

// Events loads the named schedule and returns it together with its expanded
// events, cut around this week's calendar events.
func (p *Pipeline) Events(ctx context.Context, name string) (*schedule.Document, []model.Event, error) {
	if p.Store == nil {
		return nil, nil, errors.New("refresh: no schedule store")
	}
	doc, err := p.Store.Load(name)
	if err != nil {
		return nil, nil, err
	}
	events := schedule.Expand(doc)

	direct := p.directEvents(ctx)
	if len(direct) == 0 {
		return doc, events, nil
	}
	merged, err := schedule.MergeDirect(events, direct)
	if err != nil {
		return nil, nil, fmt.Errorf("refresh: merge calendar events: %w", err)
	}
	return doc, merged, nil
}

// Render builds a snapshot of the named schedule for the given view.
func (p *Pipeline) Render(ctx context.Context, name string, view model.ViewConfig, width float64, opts render.Options) (*Snapshot, error) {
	doc, events, err := p.Events(ctx, name)
	if err != nil {
		return nil, err
	}
	d, err := grid.Layout(events, view, doc.ColorMappings.Style, width)
	if err != nil {
		return nil, err
	}
	if opts.Title == "" {
		opts.Title = doc.Name
	}
	return &Snapshot{
		Schedule:    name,
		Events:      events,
		Description: d,
		SVG:         render.SVG(d, opts),
		UpdatedAt:   p.now(),
	}, nil
}

// directEvents returns the imported events for the current week, using the
// cache while it is fresh. Feed errors are logged and skipped.
func (p *Pipeline) directEvents(ctx context.Context) []model.Event {
	if p.Importer == nil || len(p.Importer.Sources) == 0 {
		return nil
	}

	ttl := p.DirectTTL
	if ttl <= 0 {
		ttl = DefaultDirectTTL
	}
	now := p.now().In(p.location())
	week, _ := clock.WeekRange(now)

	p.mu.RLock()
	dc := p.direct
	p.mu.RUnlock()
	if dc != nil && dc.week.Equal(week) && now.Sub(dc.updatedAt) < ttl {
		return dc.events
	}

	events, errs := p.Importer.Week(ctx, now)
	for _, err := range errs {
		appLog.Warn("refresh: calendar import problem", "error", err.Error())
	}
	appLog.Debug("refresh: calendar events imported", "week", week.Format(time.DateOnly), "events", len(events))

	p.mu.Lock()
	p.direct = &directCache{week: week, events: events, updatedAt: now}
	p.mu.Unlock()
	return events
}
