package model

// Event is a single scheduling entry for one weekday, after multi-day
// expansion. Events are value data owned by the caller; the layout code only
// reads them.
type Event struct {
	// OriginalIndex identifies the logical event this entry was expanded
	// from. Every day-copy and every segment of the same logical event share
	// it, so a click can be reported against the original record.
	OriginalIndex int `json:"original_index"`

	// Day is 0 (Monday) .. 6 (Sunday).
	Day int `json:"day"`

	// Start / End are 24-hour "HH:MM" strings with Start < End.
	Start string `json:"start"`
	End   string `json:"end"`

	// Overwriteable events may be split around fixed events.
	Overwriteable bool `json:"overwriteable"`

	Type  string `json:"type"`
	Title string `json:"title"`
	Sub   string `json:"sub,omitempty"`

	// Source is "schedule" for entries from a schedule document and "direct"
	// for imported calendar entries.
	Source string `json:"source,omitempty"`
}

const (
	SourceSchedule = "schedule"
	SourceDirect   = "direct"
)

// Segment is the unit the grid actually draws: a whole fixed event, a whole
// flexible event, or one visible piece of a flexible event.
type Segment struct {
	OriginalIndex int `json:"original_index"`
	Day           int `json:"day"`

	Start string `json:"start"`
	End   string `json:"end"`

	Priority  Priority `json:"priority"`
	IsSegment bool     `json:"is_segment"`

	// SegmentIndex / TotalSegments are only meaningful when IsSegment is set.
	SegmentIndex  int `json:"segment_index"`
	TotalSegments int `json:"total_segments"`

	// Parent interval, preserved so a piece can still be labelled with the
	// full event time.
	ParentStart string `json:"parent_start"`
	ParentEnd   string `json:"parent_end"`

	Title         string `json:"title"`
	Sub           string `json:"sub,omitempty"`
	Type          string `json:"type"`
	Overwriteable bool   `json:"overwriteable"`
	Source        string `json:"source,omitempty"`
}

// ZIndex returns the stacking order of the segment.
func (s Segment) ZIndex() int {
	return s.Priority.ZIndex()
}

// Event rebuilds the logical event this segment belongs to, with the parent's
// full interval.
func (s Segment) Event() Event {
	return Event{
		OriginalIndex: s.OriginalIndex,
		Day:           s.Day,
		Start:         s.ParentStart,
		End:           s.ParentEnd,
		Overwriteable: s.Overwriteable,
		Type:          s.Type,
		Title:         s.Title,
		Sub:           s.Sub,
		Source:        s.Source,
	}
}

// TimeRange is the visible hour window. A nil bound is computed from data.
type TimeRange struct {
	StartHour *int `json:"start_hour,omitempty" yaml:"start_hour,omitempty"`
	EndHour   *int `json:"end_hour,omitempty" yaml:"end_hour,omitempty"`
}

// Hours builds a TimeRange with both bounds set.
func Hours(start, end int) TimeRange {
	return TimeRange{StartHour: &start, EndHour: &end}
}

// ViewConfig is the per-render configuration supplied by the caller. It is
// built fresh for every layout pass and never stored by the layout code.
type ViewConfig struct {
	// ZoomLevel multiplies the pixel height of one hour. Values <= 0 are
	// treated as 1.
	ZoomLevel float64

	TimeRange TimeRange

	// DaysRange lists the visible days in display order. Nil means all
	// seven days.
	DaysRange []int

	OnCellClick    func(day int, hhmm string)
	OnSegmentClick func(ev Event, originalIndex int)
}

// Zoom returns the effective zoom factor.
func (v ViewConfig) Zoom() float64 {
	if v.ZoomLevel <= 0 {
		return 1
	}
	return v.ZoomLevel
}

// Style is opaque colour data attached to a drawn segment.
type Style struct {
	Name      string `json:"name,omitempty"`
	Bg        string `json:"bg"`
	Border    string `json:"border"`
	Text      string `json:"text"`
	BgHex     string `json:"bg_hex"`
	BorderHex string `json:"border_hex"`
	TextHex   string `json:"text_hex"`
}

// Geometry is the pixel box of a drawn segment.
type Geometry struct {
	Top    float64 `json:"top"`
	Height float64 `json:"height"`
	Left   float64 `json:"left"`
	Width  float64 `json:"width"`
	ZIndex int     `json:"z_index"`
}
