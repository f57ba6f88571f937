package schedule

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"schedgrid/internal/clock"
	"schedgrid/internal/model"
)

const weekJSON = `{
  "name": "Week",
  "events": [
    {"title": "Lecture", "type": "class", "timestamps": [
      {"day": [0, 2], "start": "10:00", "end": "11:30"},
      {"day": 4, "start": "09:00", "end": "10:00"}
    ]},
    {"title": "Deep work", "type": "work", "sub": "Thesis", "overwriteable": true,
     "day": [0, 1], "start": "09:00", "end": "12:00"},
    {"title": "Long run", "type": "exercise", "day": 7, "start": "07:00", "end": "08:00"}
  ]
}`

const weekYAML = `name: Week
events:
  - title: Lecture
    type: class
    timestamps:
      - day: [0, 2]
        start: "10:00"
        end: "11:30"
  - title: Deep work
    type: work
    overwriteable: true
    day: 1
    start: "09:00"
    end: "12:00"
`

func TestDecodeDayForms(t *testing.T) {
	doc, err := Decode([]byte(weekJSON), FormatJSON)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if err := Validate(doc); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if got := doc.Events[0].Timestamps[1].Day; len(got) != 1 || got[0] != 4 {
		t.Fatalf("single day not decoded: %v", got)
	}
	if !doc.Events[1].Legacy() || len(doc.Events[1].Day) != 2 {
		t.Fatalf("legacy list not decoded: %+v", doc.Events[1])
	}

	ydoc, err := Decode([]byte(weekYAML), FormatYAML)
	if err != nil {
		t.Fatalf("Decode(yaml) error = %v", err)
	}
	if err := Validate(ydoc); err != nil {
		t.Fatalf("Validate(yaml) error = %v", err)
	}
	if d := ydoc.Events[1].Day; len(d) != 1 || d[0] != 1 {
		t.Fatalf("yaml scalar day not decoded: %v", d)
	}

	if _, err := Decode([]byte(`{"name":"x","events":[{"day":"mon"}]}`), FormatJSON); err == nil {
		t.Fatal("expected decode error for string day")
	}
}

func TestEncodeKeepsDayShape(t *testing.T) {
	doc, _ := Decode([]byte(weekJSON), FormatJSON)
	data, err := Encode(doc, FormatJSON)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	out := string(data)
	if !strings.Contains(out, `"day": 4`) || !strings.Contains(out, `"day": [`) {
		t.Fatalf("unexpected encoding:\n%s", out)
	}
}

func TestExpand(t *testing.T) {
	doc, _ := Decode([]byte(weekJSON), FormatJSON)
	events := Expand(doc)
	if len(events) != 6 {
		t.Fatalf("expected 6 expanded events, got %d: %+v", len(events), events)
	}

	byIndex := map[int][]model.Event{}
	for _, ev := range events {
		byIndex[ev.OriginalIndex] = append(byIndex[ev.OriginalIndex], ev)
		if ev.Source != model.SourceSchedule {
			t.Fatalf("missing source on %+v", ev)
		}
	}
	if len(byIndex[0]) != 3 || len(byIndex[1]) != 2 || len(byIndex[2]) != 1 {
		t.Fatalf("unexpected grouping: %v", byIndex)
	}
	if byIndex[0][2].Day != 4 || byIndex[0][2].Start != "09:00" {
		t.Fatalf("second timestamp not expanded: %+v", byIndex[0][2])
	}
	if !byIndex[1][0].Overwriteable || byIndex[1][0].Sub != "Thesis" {
		t.Fatalf("flags not copied: %+v", byIndex[1][0])
	}
	if byIndex[2][0].Day != 6 {
		t.Fatalf("legacy day 7 should become Sunday, got %d", byIndex[2][0].Day)
	}
}

func TestValidate(t *testing.T) {
	good := func() *Document {
		doc, _ := Decode([]byte(weekJSON), FormatJSON)
		return doc
	}

	cases := []struct {
		name  string
		edit  func(*Document)
		index int
		msg   string
	}{
		{"missing name", func(d *Document) { d.Name = "" }, -1, "'name'"},
		{"missing events", func(d *Document) { d.Events = nil }, -1, "'events'"},
		{"bad colour", func(d *Document) { d.ColorMappings = map[string]string{"work": "plaid"} }, -1, "plaid"},
		{"bad day", func(d *Document) { d.Events[1].Day = Days{9} }, 1, "day 9"},
		{"empty days", func(d *Document) { d.Events[1].Day = Days{} }, 1, "cannot be empty"},
		{"missing day", func(d *Document) { d.Events[2].Day = nil }, 2, "'day'"},
		{"bad time", func(d *Document) { d.Events[0].Timestamps[0].Start = "24:00" }, 0, "timestamp #0"},
		{"inverted", func(d *Document) { d.Events[1].End = "08:00" }, 1, "before end"},
		{"missing title", func(d *Document) { d.Events[2].Title = "" }, 2, "'title'"},
		{"empty timestamps", func(d *Document) { d.Events[0].Timestamps = []Timestamp{} }, 0, "timestamps"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			doc := good()
			tc.edit(doc)
			err := Validate(doc)
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if ve.Index != tc.index || !strings.Contains(ve.Error(), tc.msg) {
				t.Fatalf("got index %d msg %q", ve.Index, ve.Error())
			}
		})
	}

	empty := &Document{Name: "Empty", Events: []EventSpec{}}
	if err := Validate(empty); err != nil {
		t.Fatalf("empty event list should be valid: %v", err)
	}
}

func TestMergeDirect(t *testing.T) {
	doc, _ := Decode([]byte(weekJSON), FormatJSON)
	sched := Expand(doc)
	direct := []model.Event{{Day: 0, Start: "10:30", End: "11:00", Title: "Dentist", Type: "other"}}

	merged, err := MergeDirect(sched, direct)
	if err != nil {
		t.Fatalf("MergeDirect() error = %v", err)
	}

	var lecture []model.Event
	var dentist *model.Event
	for i, ev := range merged {
		if ev.OriginalIndex == 0 && ev.Day == 0 {
			lecture = append(lecture, ev)
		}
		if ev.Source == model.SourceDirect {
			dentist = &merged[i]
		}
	}
	if dentist == nil || dentist.OriginalIndex != 3 || dentist.Overwriteable {
		t.Fatalf("direct event not appended as fixed: %+v", dentist)
	}
	// The fixed lecture is cut around the direct event.
	if len(lecture) != 2 || lecture[0].End != "10:30" || lecture[1].Start != "11:00" {
		t.Fatalf("lecture not split: %+v", lecture)
	}

	same, _ := MergeDirect(sched, nil)
	if len(same) != len(sched) {
		t.Fatal("no direct events should leave the schedule untouched")
	}
}

func TestSanitize(t *testing.T) {
	cases := map[string]string{
		"week":             "week.json",
		" ../../etc/pass ": "etcpass.json",
		"plan.yaml":        "plan.yaml",
		`a:b*c?.JSON`:      "abc.JSON",
	}
	for in, want := range cases {
		got, err := Sanitize(in)
		if err != nil || got != want {
			t.Fatalf("Sanitize(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := Sanitize("/\\.."); !errors.Is(err, ErrInvalidName) {
		t.Fatalf("expected ErrInvalidName, got %v", err)
	}
}

func TestStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(filepath.Join(dir, "schedules"))

	names, err := store.List()
	if err != nil || len(names) != 0 {
		t.Fatalf("List() on missing dir = %v, %v", names, err)
	}

	doc, _ := Decode([]byte(weekJSON), FormatJSON)
	safe, err := store.Save("week", doc)
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if safe != "week.json" || doc.ID == "" {
		t.Fatalf("Save() = %q id=%q", safe, doc.ID)
	}
	id := doc.ID

	if _, err := store.Save("week", doc); err != nil || doc.ID != id {
		t.Fatalf("ID must be stable across saves: %q vs %q (%v)", doc.ID, id, err)
	}

	ydoc, _ := Decode([]byte(weekYAML), FormatYAML)
	if _, err := store.Save("alt.yaml", ydoc); err != nil {
		t.Fatalf("Save(yaml) error = %v", err)
	}

	names, _ = store.List()
	if len(names) != 2 || names[0] != "alt.yaml" || names[1] != "week.json" {
		t.Fatalf("List() = %v", names)
	}

	loaded, err := store.Load("week")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.ID != id || len(loaded.Events) != 3 {
		t.Fatalf("unexpected loaded doc: %+v", loaded)
	}

	yloaded, err := store.Load("alt.yaml")
	if err != nil || len(yloaded.Events) != 2 {
		t.Fatalf("Load(yaml) = %+v, %v", yloaded, err)
	}

	if _, err := store.Load("nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := store.Delete("alt.yaml"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := store.Delete("alt.yaml"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestLoadMigratesColourMappings(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "week.json"), []byte(weekJSON), 0o644); err != nil {
		t.Fatal(err)
	}
	store := NewStore(dir)

	doc, err := store.Load("week.json")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if doc.ColorMappings["class"] != "yellow-orange" || doc.ColorMappings["exercise"] != "yellow" || doc.ColorMappings["work"] != "orange" {
		t.Fatalf("unexpected defaults: %v", doc.ColorMappings)
	}

	raw, _, err := store.LoadRaw("week.json")
	if err != nil {
		t.Fatalf("LoadRaw() error = %v", err)
	}
	if len(raw.ColorMappings) != 3 {
		t.Fatalf("migration not persisted: %v", raw.ColorMappings)
	}
}

func TestStoreEventEdits(t *testing.T) {
	store := NewStore(t.TempDir())
	doc, _ := Decode([]byte(weekJSON), FormatJSON)
	if _, err := store.Save("week", doc); err != nil {
		t.Fatal(err)
	}

	gym := EventSpec{Title: "Gym", Type: "exercise", Day: Days{3}, Start: "18:00", End: "19:00"}
	idx, err := store.AddEvent("week", gym)
	if err != nil || idx != 3 {
		t.Fatalf("AddEvent() = %d, %v", idx, err)
	}

	gym.End = "19:30"
	if err := store.UpdateEvent("week", 3, gym); err != nil {
		t.Fatalf("UpdateEvent() error = %v", err)
	}
	if err := store.UpdateEvent("week", 9, gym); !errors.Is(err, ErrEventIndex) {
		t.Fatalf("expected ErrEventIndex, got %v", err)
	}
	bad := gym
	bad.Start = "7pm"
	if err := store.UpdateEvent("week", 3, bad); !IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}

	if err := store.DeleteEvent("week", 0); err != nil {
		t.Fatalf("DeleteEvent() error = %v", err)
	}

	got, err := store.Load("week")
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Events) != 3 || got.Events[2].End != "19:30" || got.Events[0].Title != "Deep work" {
		t.Fatalf("unexpected events after edits: %+v", got.Events)
	}
	for _, ev := range Expand(got) {
		if !clock.ValidDay(ev.Day) {
			t.Fatalf("expanded invalid day: %+v", ev)
		}
	}
}
