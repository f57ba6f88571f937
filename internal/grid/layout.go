package grid

import (
	"fmt"
	"sort"

	"schedgrid/internal/clock"
	"schedgrid/internal/model"
	"schedgrid/internal/overlap"
)

// StyleFunc maps an event category to its colours.
type StyleFunc func(category string) model.Style

// DayHeader is a day column header. All Description coordinates are
// absolute canvas pixels.
type DayHeader struct {
	Day    int     `json:"day"`
	Name   string  `json:"name"`
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// HourRow is one labelled hour row.
type HourRow struct {
	Hour   int     `json:"hour"`
	Label  string  `json:"label"`
	Top    float64 `json:"top"`
	Height float64 `json:"height"`
}

// CellBox is a clickable background cell.
type CellBox struct {
	Cell
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// PlacedSegment is a segment with its absolute geometry and presentation.
// Use Geometry.ZIndex or Segment.ZIndex() explicitly; the embedded names
// collide.
type PlacedSegment struct {
	model.Segment
	model.Geometry

	Tier      model.Tier  `json:"tier"`
	ShowTime  bool        `json:"show_time"`
	ShowSub   bool        `json:"show_sub"`
	Style     model.Style `json:"style"`
	TimeLabel string      `json:"time_label"`
}

// Contains reports whether the point lies inside the segment box.
func (p PlacedSegment) Contains(x, y float64) bool {
	return x >= p.Left && x < p.Left+p.Width && y >= p.Top && y < p.Top+p.Height
}

// Description is the complete geometric output of one layout pass.
type Description struct {
	StartHour      int     `json:"start_hour"`
	EndHour        int     `json:"end_hour"`
	HourHeight     float64 `json:"hour_height"`
	ColumnWidth    float64 `json:"column_width"`
	ScrollRequired bool    `json:"scroll_required"`
	Width          float64 `json:"width"`
	Height         float64 `json:"height"`

	// Origin is the top-left corner of the grid body.
	Origin Point `json:"origin"`

	VisibleDays []int           `json:"visible_days"`
	Days        []DayHeader     `json:"days"`
	Hours       []HourRow       `json:"hours"`
	Cells       []CellBox       `json:"cells"`
	Segments    []PlacedSegment `json:"segments"`
}

// Layout runs a complete pass: day filtering, overlap resolution per day,
// time range, column sizing and geometry for every visible segment and
// background cell. Segments are returned in draw order (lowest stacking tier
// first). An empty event list yields the skeleton for the fallback range.
func Layout(events []model.Event, view model.ViewConfig, styles StyleFunc, availableWidth float64) (Description, error) {
	days, err := visibleDays(view.DaysRange)
	if err != nil {
		return Description{}, err
	}

	segs, err := overlap.ResolveWeek(events, days)
	if err != nil {
		return Description{}, err
	}

	startHour, endHour, err := ResolveTimeRange(segs, view.TimeRange)
	if err != nil {
		return Description{}, err
	}

	hourHeight := HourHeight(view.Zoom())
	cols := ComputeColumnLayout(len(days), availableWidth)
	origin := Point{X: TimeColumnWidth, Y: HeaderHeight}

	d := Description{
		StartHour:      startHour,
		EndHour:        endHour,
		HourHeight:     hourHeight,
		ColumnWidth:    cols.ColumnWidth,
		ScrollRequired: cols.ScrollRequired,
		Width:          cols.TotalWidth,
		Height:         HeaderHeight + float64(endHour-startHour)*hourHeight,
		Origin:         origin,
		VisibleDays:    days,
		Days:           []DayHeader{},
		Hours:          []HourRow{},
		Cells:          []CellBox{},
		Segments:       []PlacedSegment{},
	}

	position := make(map[int]int, len(days))
	for pos, day := range days {
		position[day] = pos
		d.Days = append(d.Days, DayHeader{
			Day:    day,
			Name:   clock.DayName(day),
			Left:   origin.X + float64(pos)*cols.ColumnWidth,
			Top:    0,
			Width:  cols.ColumnWidth,
			Height: HeaderHeight,
		})
	}

	for h := startHour; h < endHour; h++ {
		top := origin.Y + float64(h-startHour)*hourHeight
		d.Hours = append(d.Hours, HourRow{Hour: h, Label: clock.HourLabel(h), Top: top, Height: hourHeight})
		for pos, day := range days {
			d.Cells = append(d.Cells, CellBox{
				Cell:   Cell{Day: day, Hour: h, Time: clock.HourLabel(h)},
				Left:   origin.X + float64(pos)*cols.ColumnWidth,
				Top:    top,
				Width:  cols.ColumnWidth,
				Height: hourHeight,
			})
		}
	}

	for _, seg := range segs {
		geo, ok, err := LayoutSegment(seg, startHour, endHour, seg.Day, position[seg.Day], hourHeight, cols.ColumnWidth)
		if err != nil {
			return Description{}, err
		}
		if !ok {
			continue
		}
		geo.Top += origin.Y
		geo.Left += origin.X

		showTime, showSub := TierDetails(geo.Height)
		style := model.Style{}
		if styles != nil {
			style = styles(seg.Type)
		}
		d.Segments = append(d.Segments, PlacedSegment{
			Segment:   seg,
			Geometry:  geo,
			Tier:      PickPresentationTier(geo.Height),
			ShowTime:  showTime,
			ShowSub:   showSub && seg.Sub != "",
			Style:     style,
			TimeLabel: seg.ParentStart + " - " + seg.ParentEnd,
		})
	}

	sort.SliceStable(d.Segments, func(i, j int) bool {
		return d.Segments[i].Geometry.ZIndex < d.Segments[j].Geometry.ZIndex
	})
	return d, nil
}

func visibleDays(days []int) ([]int, error) {
	if days == nil {
		return clock.AllDays(), nil
	}
	seen := make(map[int]bool, len(days))
	out := make([]int, 0, len(days))
	for _, day := range days {
		if !clock.ValidDay(day) {
			return nil, fmt.Errorf("visible days: %w: %d", overlap.ErrInvalidDay, day)
		}
		if seen[day] {
			continue
		}
		seen[day] = true
		out = append(out, day)
	}
	return out, nil
}

// HitKind says what a click landed on.
type HitKind string

const (
	HitCell    HitKind = "cell"
	HitSegment HitKind = "segment"
)

// Hit is the outcome of a click.
type Hit struct {
	Kind HitKind `json:"kind"`

	// Cell hits.
	Day  int    `json:"day"`
	Time string `json:"time,omitempty"`

	// Segment hits.
	OriginalIndex int          `json:"original_index,omitempty"`
	Event         *model.Event `json:"event,omitempty"`
}

// Body returns the grid body rectangle: everything below the day headers and
// right of the time column, down to the end of the last hour row. Segments
// reaching past the visible range are clipped to it.
func (d Description) Body() (left, top, width, height float64) {
	return d.Origin.X, d.Origin.Y,
		float64(len(d.VisibleDays)) * d.ColumnWidth,
		float64(d.EndHour-d.StartHour) * d.HourHeight
}

// InBody reports whether the point lies inside the grid body.
func (d Description) InBody(x, y float64) bool {
	left, top, width, height := d.Body()
	return x >= left && x < left+width && y >= top && y < top+height
}

// Click resolves a pointer position against the layout and invokes the
// matching ViewConfig callback: OnSegmentClick when a segment is under the
// pointer (the topmost one wins), otherwise OnCellClick with the hour
// formatted as "HH:00". It returns false when the pointer is outside the
// grid body, even where a clipped segment would extend there.
func (d Description) Click(view model.ViewConfig, x, y float64) (Hit, bool) {
	if !d.InBody(x, y) {
		return Hit{}, false
	}
	for i := len(d.Segments) - 1; i >= 0; i-- {
		p := d.Segments[i]
		if !p.Contains(x, y) {
			continue
		}
		ev := p.Segment.Event()
		if view.OnSegmentClick != nil {
			view.OnSegmentClick(ev, p.OriginalIndex)
		}
		return Hit{Kind: HitSegment, Day: p.Day, OriginalIndex: p.OriginalIndex, Event: &ev}, true
	}

	cell, ok := HitTest(x, y, d.Origin, d.ColumnWidth, d.HourHeight, d.StartHour, d.EndHour, d.VisibleDays)
	if !ok {
		return Hit{}, false
	}
	if view.OnCellClick != nil {
		view.OnCellClick(cell.Day, cell.Time)
	}
	return Hit{Kind: HitCell, Day: cell.Day, Time: cell.Time}, true
}
