package refresh

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"schedgrid/internal/capture"
	"schedgrid/internal/ics"
	"schedgrid/internal/model"
	"schedgrid/internal/palette"
	"schedgrid/internal/render"
	"schedgrid/internal/schedule"
)

const feed = "BEGIN:VCALENDAR\r\n" +
	"VERSION:2.0\r\n" +
	"PRODID:-//schedgrid//test//EN\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:sync@example.com\r\n" +
	"SUMMARY:Sync\r\n" +
	"DTSTART:20261019T100000Z\r\n" +
	"DTEND:20261019T110000Z\r\n" +
	"END:VEVENT\r\n" +
	"END:VCALENDAR\r\n"

type fakeCapturer struct {
	calls atomic.Int32
	url   string
	err   error
}

func (f *fakeCapturer) CapturePNG(_ context.Context, opts capture.Options) ([]byte, error) {
	f.calls.Add(1)
	f.url = opts.URL
	if f.err != nil {
		return nil, f.err
	}
	return []byte("\x89PNG"), nil
}

func newStore(t *testing.T) *schedule.Store {
	t.Helper()
	store := schedule.NewStore(t.TempDir())
	doc := &schedule.Document{
		Name: "Week",
		Events: []schedule.EventSpec{
			{Title: "Deep work", Type: "work", Overwriteable: true, Day: schedule.Days{0}, Start: "09:00", End: "12:00"},
			{Title: "Gym", Type: "exercise", Day: schedule.Days{2, 4}, Start: "18:00", End: "19:00"},
		},
		ColorMappings: palette.Mappings{"work": "blue", "exercise": "green"},
	}
	if _, err := store.Save("week", doc); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	return store
}

func newPipeline(t *testing.T, hits *atomic.Int32) (*Pipeline, *time.Time) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(feed))
	}))
	t.Cleanup(srv.Close)

	now := time.Date(2026, 10, 21, 12, 0, 0, 0, time.UTC)
	p := &Pipeline{
		Store: newStore(t),
		Importer: &ics.Importer{
			Fetcher:  ics.NewFetcher(t.TempDir(), time.Second),
			Sources:  []ics.Source{{ID: "work", URL: srv.URL, Category: "meeting"}},
			Location: time.UTC,
		},
		Location: time.UTC,
		Now:      func() time.Time { return now },
	}
	return p, &now
}

func TestPipelineMergesCalendarEvents(t *testing.T) {
	var hits atomic.Int32
	p, _ := newPipeline(t, &hits)

	_, events, err := p.Events(context.Background(), "week.json")
	if err != nil {
		t.Fatalf("Events() error = %v", err)
	}

	var monday []string
	for _, ev := range events {
		if ev.Day == 0 {
			monday = append(monday, ev.Start+"-"+ev.End+" "+ev.Source)
		}
	}
	want := "09:00-10:00 schedule,11:00-12:00 schedule,10:00-11:00 direct"
	if got := strings.Join(monday, ","); got != want {
		t.Fatalf("monday = %s, want %s", got, want)
	}
	if len(events) != 5 {
		t.Fatalf("expected 5 events, got %d", len(events))
	}
}

func TestPipelineCachesCalendarImport(t *testing.T) {
	var hits atomic.Int32
	p, now := newPipeline(t, &hits)
	ctx := context.Background()

	for range 3 {
		if _, _, err := p.Events(ctx, "week.json"); err != nil {
			t.Fatal(err)
		}
	}
	if hits.Load() != 1 {
		t.Fatalf("expected one fetch while cache is fresh, got %d", hits.Load())
	}

	*now = now.Add(DefaultDirectTTL + time.Second)
	if _, _, err := p.Events(ctx, "week.json"); err != nil {
		t.Fatal(err)
	}
	if hits.Load() != 2 {
		t.Fatalf("expected refetch after TTL, got %d", hits.Load())
	}
}

func TestPipelineWithoutImporter(t *testing.T) {
	p := &Pipeline{Store: newStore(t)}
	_, events, err := p.Events(context.Background(), "week.json")
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 schedule events, got %d", len(events))
	}

	if _, _, err := p.Events(context.Background(), "missing.json"); !errors.Is(err, schedule.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, _, err := (&Pipeline{}).Events(context.Background(), "week.json"); err == nil {
		t.Fatal("expected error without store")
	}
}

func TestSchedulerRunOnce(t *testing.T) {
	var hits atomic.Int32
	p, _ := newPipeline(t, &hits)
	s := NewScheduler(p, Job{Schedule: "week.json", View: model.ViewConfig{ZoomLevel: 1}, Width: 900, SVG: render.DefaultOptions()}, time.UTC)

	if s.Latest() != nil {
		t.Fatal("no snapshot expected before the first run")
	}

	out := filepath.Join(t.TempDir(), "preview.png")
	fake := &fakeCapturer{}
	s.SetCapture(&CaptureTarget{Capturer: fake, Output: out})

	snap, err := s.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}
	if s.Latest() != snap {
		t.Fatal("latest snapshot not stored")
	}
	if !strings.Contains(snap.SVG, "<title>Week</title>") || snap.Description.StartHour != 9 || snap.Description.EndHour != 19 {
		t.Fatalf("unexpected snapshot: hours %d-%d", snap.Description.StartHour, snap.Description.EndHour)
	}

	if fake.calls.Load() != 1 || !strings.HasPrefix(fake.url, "file://") || !strings.HasSuffix(fake.url, "/preview.svg") {
		t.Fatalf("capture not run against the svg file: %d %q", fake.calls.Load(), fake.url)
	}
	if _, err := os.Stat(strings.TrimSuffix(out, ".png") + ".svg"); err != nil {
		t.Fatalf("svg not written: %v", err)
	}
	if _, err := os.Stat(out); err != nil {
		t.Fatalf("png not written: %v", err)
	}
}

func TestSchedulerCaptureFailureKeepsSnapshot(t *testing.T) {
	p := &Pipeline{Store: newStore(t)}
	s := NewScheduler(p, Job{Schedule: "week.json", Width: 900}, nil)
	boom := errors.New("no browser")
	s.SetCapture(&CaptureTarget{Capturer: &fakeCapturer{err: boom}, Options: capture.Options{URL: "http://x"}, Output: filepath.Join(t.TempDir(), "p.png")})

	snap, err := s.RunOnce(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("expected capture error, got %v", err)
	}
	if snap == nil || s.Latest() != snap {
		t.Fatal("snapshot should be stored even when capture fails")
	}
}

func TestSchedulerRenderError(t *testing.T) {
	s := NewScheduler(&Pipeline{Store: newStore(t)}, Job{Schedule: "nope.json"}, nil)
	if _, err := s.RunOnce(context.Background()); err == nil {
		t.Fatal("expected error for missing schedule")
	}
	if s.Latest() != nil {
		t.Fatal("failed render must not replace the snapshot")
	}
}

func TestSchedulerStartStop(t *testing.T) {
	s := NewScheduler(&Pipeline{Store: newStore(t)}, Job{Schedule: "week.json"}, time.UTC)
	if err := s.Start(context.Background(), "not a cron"); err == nil {
		t.Fatal("expected error for invalid cron expression")
	}
	if err := s.Start(context.Background(), "*/5 * * * *"); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	s.Stop()
}

func TestFileURL(t *testing.T) {
	u, err := FileURL("/tmp/a b/grid.svg")
	if err != nil {
		t.Fatal(err)
	}
	if u != "file:///tmp/a%20b/grid.svg" {
		t.Fatalf("FileURL() = %q", u)
	}
}
