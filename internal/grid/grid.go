package grid

import (
	"math"

	"schedgrid/internal/clock"
	"schedgrid/internal/model"
)

// Grid geometry constants, in pixels unless noted.
const (
	// TimeColumnWidth is reserved on the left for hour labels.
	TimeColumnWidth = 60.0
	// MinColumnWidth is the narrowest a day column may get before the grid
	// switches to horizontal scrolling.
	MinColumnWidth = 100.0
	// BaseHourHeight is the height of one hour row at zoom 1.
	BaseHourHeight = 60.0
	// HeaderHeight is the height of the day header row.
	HeaderHeight = 40.0

	// FallbackStartHour / FallbackEndHour bound the grid when there is no
	// data to infer a range from.
	FallbackStartHour = 5
	FallbackEndHour   = 23
)

// Tier height thresholds.
const (
	compactMinHeight = 25.0
	timeMinHeight    = 35.0
	normalMinHeight  = 55.0
	subMinHeight     = 70.0
)

// Point is a pixel coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ColumnLayout describes how day columns share the available width.
type ColumnLayout struct {
	ColumnWidth    float64 `json:"column_width"`
	ScrollRequired bool    `json:"scroll_required"`
	// TotalWidth includes the time label column.
	TotalWidth float64 `json:"total_width"`
}

// Cell is one day × hour grid cell.
type Cell struct {
	Day  int    `json:"day"`
	Hour int    `json:"hour"`
	Time string `json:"time"`
}

// ResolveTimeRange picks the visible hour window.
//
// When both override bounds are set they are used verbatim. Otherwise the
// window is inferred from the segments (start floored, end ceiled to whole
// hours) and any single override bound replaces the inferred one. With no
// segments the inferred window is FallbackStartHour..FallbackEndHour.
func ResolveTimeRange(segs []model.Segment, override model.TimeRange) (startHour, endHour int, err error) {
	if override.StartHour != nil && override.EndHour != nil {
		return *override.StartHour, *override.EndHour, nil
	}

	startHour, endHour = FallbackStartHour, FallbackEndHour
	if len(segs) > 0 {
		minM, maxM := math.MaxInt, math.MinInt
		for _, s := range segs {
			a, err := clock.ToMinutes(s.Start)
			if err != nil {
				return 0, 0, err
			}
			b, err := clock.ToMinutes(s.End)
			if err != nil {
				return 0, 0, err
			}
			minM = min(minM, a)
			maxM = max(maxM, b)
		}
		startHour = minM / 60
		endHour = (maxM + 59) / 60
	}

	if override.StartHour != nil {
		startHour = *override.StartHour
	}
	if override.EndHour != nil {
		endHour = *override.EndHour
	}
	if endHour <= startHour {
		endHour = startHour + 1
	}
	return startHour, endHour, nil
}

// ComputeColumnLayout splits availableWidth (minus the time column) evenly
// among the visible days. If a column would be narrower than
// MinColumnWidth, every column gets MinColumnWidth and ScrollRequired is set.
func ComputeColumnLayout(visibleDays int, availableWidth float64) ColumnLayout {
	if visibleDays <= 0 {
		return ColumnLayout{TotalWidth: TimeColumnWidth}
	}
	width := (availableWidth - TimeColumnWidth) / float64(visibleDays)
	scroll := false
	if width < MinColumnWidth {
		width = MinColumnWidth
		scroll = true
	}
	return ColumnLayout{
		ColumnWidth:    width,
		ScrollRequired: scroll,
		TotalWidth:     TimeColumnWidth + width*float64(visibleDays),
	}
}

// TimeToRowOffset returns how many hour rows below startHour the time lies,
// with sub-hour precision.
func TimeToRowOffset(hhmm string, startHour int) (float64, error) {
	m, err := clock.ToMinutes(hhmm)
	if err != nil {
		return 0, err
	}
	return float64(m/60-startHour) + float64(m%60)/60, nil
}

// HourHeight returns the pixel height of one hour at the given zoom.
func HourHeight(zoom float64) float64 {
	if zoom <= 0 {
		zoom = 1
	}
	return BaseHourHeight * zoom
}

// LayoutSegment computes the pixel box of seg relative to the top-left of
// the grid body (below the header, right of the time column).
//
// dayIndex is the weekday the column shows and dayPosition its position
// among the visible columns. The second return value is false when the
// segment belongs to another day or lies entirely outside
// [startHour, endHour); partially visible segments are not resized.
func LayoutSegment(seg model.Segment, startHour, endHour, dayIndex, dayPosition int, hourHeight, columnWidth float64) (model.Geometry, bool, error) {
	s, err := clock.ToMinutes(seg.Start)
	if err != nil {
		return model.Geometry{}, false, err
	}
	e, err := clock.ToMinutes(seg.End)
	if err != nil {
		return model.Geometry{}, false, err
	}
	if seg.Day != dayIndex {
		return model.Geometry{}, false, nil
	}
	if !clock.RangesOverlap(s, e, startHour*60, endHour*60) {
		return model.Geometry{}, false, nil
	}

	top, err := TimeToRowOffset(seg.Start, startHour)
	if err != nil {
		return model.Geometry{}, false, err
	}
	return model.Geometry{
		Top:    top * hourHeight,
		Height: float64(e-s) / 60 * hourHeight,
		Left:   float64(dayPosition) * columnWidth,
		Width:  columnWidth,
		ZIndex: seg.ZIndex(),
	}, true, nil
}

// PickPresentationTier classifies a segment by its pixel height.
func PickPresentationTier(height float64) model.Tier {
	switch {
	case height < compactMinHeight:
		return model.TierTiny
	case height < normalMinHeight:
		return model.TierCompact
	default:
		return model.TierNormal
	}
}

// TierDetails reports which optional lines fit at the given height: the time
// from 35px, the subtitle above 70px.
func TierDetails(height float64) (showTime, showSub bool) {
	switch PickPresentationTier(height) {
	case model.TierCompact:
		return height >= timeMinHeight, false
	case model.TierNormal:
		return true, height > subMinHeight
	default:
		return false, false
	}
}

// HitTest maps a pointer position back to the day and hour under it.
// It returns false for the header, the time column and anything outside
// the visible days or [startHour, endHour).
func HitTest(x, y float64, origin Point, columnWidth, hourHeight float64, startHour, endHour int, visibleDays []int) (Cell, bool) {
	if columnWidth <= 0 || hourHeight <= 0 {
		return Cell{}, false
	}
	relX := x - origin.X
	relY := y - origin.Y
	if relX < 0 || relY < 0 {
		return Cell{}, false
	}

	col := int(relX / columnWidth)
	if col >= len(visibleDays) {
		return Cell{}, false
	}
	hour := startHour + int(relY/hourHeight)
	if hour >= endHour {
		return Cell{}, false
	}
	return Cell{Day: visibleDays[col], Hour: hour, Time: clock.HourLabel(hour)}, true
}
