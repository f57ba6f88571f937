package grid

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"schedgrid/internal/model"
	"schedgrid/internal/overlap"
)

func sampleEvents() []model.Event {
	return []model.Event{
		{OriginalIndex: 0, Day: 0, Start: "10:00", End: "11:00", Title: "Lecture", Type: "class"},
		{OriginalIndex: 1, Day: 0, Start: "09:00", End: "12:00", Overwriteable: true, Title: "Deep work", Sub: "Project", Type: "work"},
		{OriginalIndex: 2, Day: 3, Start: "14:00", End: "14:20", Title: "Call", Type: "other"},
	}
}

func redStyle(string) model.Style { return model.Style{Name: "red", BgHex: "#fee2e2"} }

func TestLayoutFullWeek(t *testing.T) {
	d, err := Layout(sampleEvents(), model.ViewConfig{ZoomLevel: 1}, redStyle, 1460)
	if err != nil {
		t.Fatalf("Layout() error = %v", err)
	}
	if d.StartHour != 9 || d.EndHour != 15 {
		t.Fatalf("range = %d-%d, want 9-15", d.StartHour, d.EndHour)
	}
	if len(d.Days) != 7 || len(d.Hours) != 6 || len(d.Cells) != 42 {
		t.Fatalf("skeleton sizes days=%d hours=%d cells=%d", len(d.Days), len(d.Hours), len(d.Cells))
	}
	if d.Days[6].Name != "Sunday" || !near(d.Days[1].Left, TimeColumnWidth+200) {
		t.Fatalf("unexpected header: %+v", d.Days[1])
	}
	if !near(d.Height, HeaderHeight+6*60) || !near(d.Width, 1460) {
		t.Fatalf("canvas %vx%v", d.Width, d.Height)
	}

	if len(d.Segments) != 4 {
		t.Fatalf("expected 4 placed segments, got %d", len(d.Segments))
	}
	last := d.Segments[len(d.Segments)-1]
	if last.Geometry.ZIndex != 10 {
		t.Fatalf("fixed segments must draw last, got %+v", last)
	}

	var piece *PlacedSegment
	for i := range d.Segments {
		if d.Segments[i].OriginalIndex == 1 && d.Segments[i].SegmentIndex == 1 {
			piece = &d.Segments[i]
		}
	}
	if piece == nil {
		t.Fatal("missing second piece of the flexible event")
	}
	if !near(piece.Top, HeaderHeight+120) || !near(piece.Height, 60) || !near(piece.Left, TimeColumnWidth) {
		t.Fatalf("unexpected piece geometry: %+v", piece.Geometry)
	}
	if piece.Tier != model.TierNormal || !piece.ShowTime || piece.ShowSub {
		t.Fatalf("unexpected presentation: tier=%v time=%v sub=%v", piece.Tier, piece.ShowTime, piece.ShowSub)
	}
	if piece.TimeLabel != "09:00 - 12:00" || piece.Title != "Deep work" || piece.Style.Name != "red" {
		t.Fatalf("piece must carry parent label and style: %+v", piece)
	}

	for _, p := range d.Segments {
		if p.OriginalIndex == 2 && p.Tier != model.TierTiny {
			t.Fatalf("20 minute event should be tiny, got %v", p.Tier)
		}
	}
}

func TestLayoutDayFilterAndScroll(t *testing.T) {
	view := model.ViewConfig{ZoomLevel: 2, DaysRange: []int{3, 0, 3}}
	d, err := Layout(sampleEvents(), view, nil, 200)
	if err != nil {
		t.Fatalf("Layout() error = %v", err)
	}
	if len(d.VisibleDays) != 2 || d.VisibleDays[0] != 3 {
		t.Fatalf("unexpected visible days: %v", d.VisibleDays)
	}
	if !d.ScrollRequired || !near(d.ColumnWidth, MinColumnWidth) {
		t.Fatalf("expected scrolling columns, got %+v", d)
	}
	if !near(d.HourHeight, 120) {
		t.Fatalf("hour height = %v", d.HourHeight)
	}
	for _, p := range d.Segments {
		if p.Day == 3 && !near(p.Left, TimeColumnWidth) {
			t.Fatalf("Thursday must be the first column: %+v", p.Geometry)
		}
	}

	if _, err := Layout(nil, model.ViewConfig{DaysRange: []int{8}}, nil, 800); !errors.Is(err, overlap.ErrInvalidDay) {
		t.Fatalf("expected ErrInvalidDay, got %v", err)
	}
}

func TestLayoutEmptyUsesFallback(t *testing.T) {
	d, err := Layout(nil, model.ViewConfig{}, nil, 800)
	if err != nil {
		t.Fatalf("Layout() error = %v", err)
	}
	if d.StartHour != FallbackStartHour || d.EndHour != FallbackEndHour {
		t.Fatalf("range = %d-%d", d.StartHour, d.EndHour)
	}
	if len(d.Hours) != FallbackEndHour-FallbackStartHour || len(d.Segments) != 0 || len(d.Days) != 7 {
		t.Fatalf("unexpected skeleton: hours=%d segs=%d", len(d.Hours), len(d.Segments))
	}
}

func TestLayoutClipsOutsideRange(t *testing.T) {
	d, err := Layout(sampleEvents(), model.ViewConfig{TimeRange: model.Hours(13, 18)}, nil, 800)
	if err != nil {
		t.Fatalf("Layout() error = %v", err)
	}
	if len(d.Segments) != 1 || d.Segments[0].OriginalIndex != 2 {
		t.Fatalf("only the afternoon call should be visible, got %+v", d.Segments)
	}
}

func TestClickIgnoresSegmentOverflow(t *testing.T) {
	var segmentClicks int
	view := model.ViewConfig{
		TimeRange:      model.Hours(10, 12),
		DaysRange:      []int{0},
		OnSegmentClick: func(model.Event, int) { segmentClicks++ },
	}
	events := []model.Event{{OriginalIndex: 0, Day: 0, Start: "08:00", End: "11:00", Title: "Early shift"}}
	d, err := Layout(events, view, nil, 800)
	if err != nil {
		t.Fatalf("Layout() error = %v", err)
	}
	if len(d.Segments) != 1 || d.Segments[0].Top >= HeaderHeight {
		t.Fatalf("segment should start above the body: %+v", d.Segments)
	}

	for _, pt := range [][2]float64{
		{100, 20},
		{100, 0.5},
		{100, HeaderHeight + 2*60},
		{TimeColumnWidth + d.ColumnWidth + 1, HeaderHeight + 10},
	} {
		if hit, ok := d.Click(view, pt[0], pt[1]); ok {
			t.Fatalf("click at %v should miss, got %+v", pt, hit)
		}
	}
	if segmentClicks != 0 {
		t.Fatalf("OnSegmentClick fired %d times outside the body", segmentClicks)
	}

	if hit, ok := d.Click(view, 100, HeaderHeight+10); !ok || hit.Kind != HitSegment {
		t.Fatalf("click inside the body should hit the segment: %+v %v", hit, ok)
	}
	if segmentClicks != 1 {
		t.Fatalf("OnSegmentClick fired %d times, want 1", segmentClicks)
	}
}

func TestLayoutInvalidEvent(t *testing.T) {
	events := append(sampleEvents(), model.Event{OriginalIndex: 9, Day: 1, Start: "12:00", End: "11:00"})
	if _, err := Layout(events, model.ViewConfig{}, nil, 800); !errors.Is(err, overlap.ErrInvalidInterval) {
		t.Fatalf("expected ErrInvalidInterval, got %v", err)
	}
}

func TestClickDispatch(t *testing.T) {
	var cellDay int
	var cellTime string
	var clicked model.Event
	clickedIdx := -1

	view := model.ViewConfig{
		OnCellClick: func(day int, hhmm string) { cellDay, cellTime = day, hhmm },
		OnSegmentClick: func(ev model.Event, idx int) {
			clicked, clickedIdx = ev, idx
		},
	}
	d, err := Layout(sampleEvents(), view, nil, 1460)
	if err != nil {
		t.Fatalf("Layout() error = %v", err)
	}

	// Monday 10:30 is covered by the fixed lecture.
	hit, ok := d.Click(view, TimeColumnWidth+20, HeaderHeight+90)
	if !ok || hit.Kind != HitSegment || hit.OriginalIndex != 0 || clickedIdx != 0 || clicked.Title != "Lecture" {
		t.Fatalf("unexpected segment hit: %+v (callback %d %+v)", hit, clickedIdx, clicked)
	}

	// Monday 09:15 is the first piece; the callback reports the whole event.
	hit, ok = d.Click(view, TimeColumnWidth+20, HeaderHeight+15)
	if !ok || hit.OriginalIndex != 1 || clicked.Start != "09:00" || clicked.End != "12:00" {
		t.Fatalf("piece click must report the parent event: %+v %+v", hit, clicked)
	}

	// Tuesday 13:xx is empty.
	hit, ok = d.Click(view, TimeColumnWidth+200+5, HeaderHeight+4*60+30)
	if !ok || hit.Kind != HitCell || cellDay != 1 || cellTime != "13:00" {
		t.Fatalf("unexpected cell hit: %+v day=%d time=%q", hit, cellDay, cellTime)
	}

	if _, ok := d.Click(view, 10, 10); ok {
		t.Fatal("header click must miss")
	}
}

func TestDescriptionJSON(t *testing.T) {
	d, err := Layout(sampleEvents(), model.ViewConfig{}, redStyle, 1460)
	if err != nil {
		t.Fatalf("Layout() error = %v", err)
	}
	data, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	for _, key := range []string{`"segment_index":0`, `"original_index"`, `"z_index"`, `"tier":"normal"`, `"priority":"fixed"`, `"scroll_required"`} {
		if !strings.Contains(string(data), key) {
			t.Fatalf("JSON missing %s", key)
		}
	}
}

func TestEmptyLayoutJSONHasArrays(t *testing.T) {
	d, err := Layout(nil, model.ViewConfig{DaysRange: []int{}}, nil, 800)
	if err != nil {
		t.Fatalf("Layout() error = %v", err)
	}
	data, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if strings.Contains(string(data), "null") {
		t.Fatalf("empty layout must use empty arrays: %s", data)
	}
	if !strings.Contains(string(data), `"segments":[]`) {
		t.Fatalf("JSON missing empty segments: %s", data)
	}
}
