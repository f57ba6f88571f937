package web

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"schedgrid/internal/clock"
	"schedgrid/internal/grid"
	appLog "schedgrid/internal/log"
	"schedgrid/internal/model"
	"schedgrid/internal/render"
	"schedgrid/internal/schedule"
	"schedgrid/internal/stats"
)

// maxBodyBytes bounds schedule uploads.
const maxBodyBytes = 1 << 20

// viewRequest is the parsed form of the query parameters shared by the
// layout, click, stats and SVG endpoints:
//
//	schedule=<name>  schedule file (default: config default_schedule)
//	zoom=<float>     hour height multiplier
//	start=<hour>     first visible hour (0-23)
//	end=<hour>       last visible hour (1-24)
//	days=0,1,2       visible days, 0 = Monday
//	width=<px>       available drawing width
type viewRequest struct {
	schedule string
	view     model.ViewConfig
	width    float64
}

func (s *Server) parseView(q url.Values) (viewRequest, error) {
	req := viewRequest{
		schedule: q.Get("schedule"),
		view:     s.cfg.View.Model(),
		width:    s.cfg.View.Width,
	}
	if req.schedule == "" {
		req.schedule = s.cfg.DefaultSchedule
	}
	if req.schedule == "" {
		return req, fmt.Errorf("%w: schedule is required", errBadRequest)
	}

	if v := q.Get("zoom"); v != "" {
		z, err := strconv.ParseFloat(v, 64)
		if err != nil || z <= 0 {
			return req, fmt.Errorf("%w: invalid zoom %q", errBadRequest, v)
		}
		req.view.ZoomLevel = z
	}
	if v := q.Get("width"); v != "" {
		w, err := strconv.ParseFloat(v, 64)
		if err != nil || w <= 0 {
			return req, fmt.Errorf("%w: invalid width %q", errBadRequest, v)
		}
		req.width = w
	}

	if v := q.Get("start"); v != "" {
		h, err := parseHour(v, 0, 23)
		if err != nil {
			return req, err
		}
		req.view.TimeRange.StartHour = &h
	}
	if v := q.Get("end"); v != "" {
		h, err := parseHour(v, 1, 24)
		if err != nil {
			return req, err
		}
		req.view.TimeRange.EndHour = &h
	}
	if tr := req.view.TimeRange; tr.StartHour != nil && tr.EndHour != nil && *tr.StartHour >= *tr.EndHour {
		return req, fmt.Errorf("%w: start must be before end", errBadRequest)
	}

	if v := q.Get("days"); v != "" {
		days, err := parseDays(v)
		if err != nil {
			return req, err
		}
		req.view.DaysRange = days
	}
	return req, nil
}

func parseHour(v string, lo, hi int) (int, error) {
	h, err := strconv.Atoi(v)
	if err != nil || h < lo || h > hi {
		return 0, fmt.Errorf("%w: invalid hour %q", errBadRequest, v)
	}
	return h, nil
}

func parseDays(v string) ([]int, error) {
	parts := strings.Split(v, ",")
	days := make([]int, 0, len(parts))
	for _, p := range parts {
		d, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || !clock.ValidDay(d) {
			return nil, fmt.Errorf("%w: invalid day %q", errBadRequest, p)
		}
		days = append(days, d)
	}
	return days, nil
}

func parseFloatParam(q url.Values, key string) (float64, error) {
	v := q.Get(key)
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid %s %q", errBadRequest, key, v)
	}
	return f, nil
}

// layoutFor loads the schedule named by req and lays it out.
func (s *Server) layoutFor(r *http.Request, req viewRequest) (*schedule.Document, grid.Description, error) {
	doc, events, err := s.pipeline.Events(r.Context(), req.schedule)
	if err != nil {
		return nil, grid.Description{}, err
	}
	d, err := grid.Layout(events, req.view, doc.ColorMappings.Style, req.width)
	if err != nil {
		return nil, grid.Description{}, err
	}
	return doc, d, nil
}

// handleLayout returns the layout description as JSON.
//
// GET /api/layout?schedule=week.json&zoom=1.5&days=0,1,2,3,4
func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	req, err := s.parseView(r.URL.Query())
	if err != nil {
		fail(w, r, err)
		return
	}
	_, d, err := s.layoutFor(r, req)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// clickResponse extends a hit with the gesture it maps to: "create" for an
// empty cell, "edit" for a segment.
type clickResponse struct {
	grid.Hit
	Action string `json:"action"`
}

// handleClick resolves a pointer position against the layout.
//
// GET /api/click?schedule=week.json&x=130&y=220 (plus the layout parameters)
func (s *Server) handleClick(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req, err := s.parseView(q)
	if err != nil {
		fail(w, r, err)
		return
	}
	x, err := parseFloatParam(q, "x")
	if err != nil {
		fail(w, r, err)
		return
	}
	y, err := parseFloatParam(q, "y")
	if err != nil {
		fail(w, r, err)
		return
	}

	_, d, err := s.layoutFor(r, req)
	if err != nil {
		fail(w, r, err)
		return
	}

	resp := clickResponse{}
	view := req.view
	view.OnCellClick = func(int, string) { resp.Action = "create" }
	view.OnSegmentClick = func(model.Event, int) { resp.Action = "edit" }

	hit, ok := d.Click(view, x, y)
	if !ok {
		writeError(w, http.StatusNotFound, "position is outside the grid")
		return
	}
	resp.Hit = hit
	writeJSON(w, http.StatusOK, resp)
}

type statsResponse struct {
	stats.Summary
	Categories []string         `json:"categories"`
	Activities []stats.Activity `json:"activities,omitempty"`
}

// handleStats returns hours per category, and the per-event breakdown of
// one category when category= is given.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req, err := s.parseView(q)
	if err != nil {
		fail(w, r, err)
		return
	}
	_, events, err := s.pipeline.Events(r.Context(), req.schedule)
	if err != nil {
		fail(w, r, err)
		return
	}

	sum, err := stats.Compute(events)
	if err != nil {
		fail(w, r, err)
		return
	}
	resp := statsResponse{Summary: sum, Categories: sum.Categories()}
	if cat := q.Get("category"); cat != "" {
		acts, err := stats.Breakdown(events, cat)
		if err != nil {
			fail(w, r, err)
			return
		}
		resp.Activities = acts
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleGridSVG renders the layout as SVG. Without query parameters the
// latest refresh snapshot is served when one exists.
func (s *Server) handleGridSVG(w http.ResponseWriter, r *http.Request) {
	if r.URL.RawQuery == "" && s.sched != nil {
		if snap := s.sched.Latest(); snap != nil {
			writeSVG(w, snap.SVG)
			return
		}
	}

	req, err := s.parseView(r.URL.Query())
	if err != nil {
		fail(w, r, err)
		return
	}
	doc, d, err := s.layoutFor(r, req)
	if err != nil {
		fail(w, r, err)
		return
	}
	opts := render.DefaultOptions()
	opts.Title = doc.Name
	writeSVG(w, render.SVG(d, opts))
}

func writeSVG(w http.ResponseWriter, svg string) {
	w.Header().Set("Content-Type", "image/svg+xml")
	w.WriteHeader(http.StatusOK)
	if _, err := io.WriteString(w, svg); err != nil {
		appLog.Error("failed to write SVG response", err)
	}
}

func (s *Server) handleListSchedules(w http.ResponseWriter, r *http.Request) {
	names, err := s.pipeline.Store.List()
	if err != nil {
		fail(w, r, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"schedules": names,
		"default":   s.cfg.DefaultSchedule,
	})
}

func (s *Server) handleGetSchedule(w http.ResponseWriter, r *http.Request) {
	doc, err := s.pipeline.Store.Load(r.PathValue("name"))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handlePutSchedule(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		fail(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	doc, err := schedule.Decode(body, schedule.FormatJSON)
	if err != nil {
		fail(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	name, err := s.pipeline.Store.Save(r.PathValue("name"), doc)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"name": name, "id": doc.ID})
}

func (s *Server) handleDeleteSchedule(w http.ResponseWriter, r *http.Request) {
	if err := s.pipeline.Store.Delete(r.PathValue("name")); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decodeEvent(w http.ResponseWriter, r *http.Request) (schedule.EventSpec, error) {
	var doc struct {
		Event schedule.EventSpec `json:"event"`
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return schedule.EventSpec{}, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	if err := json.Unmarshal(body, &doc); err != nil {
		return schedule.EventSpec{}, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return doc.Event, nil
}

func eventIndex(r *http.Request) (int, error) {
	v := r.PathValue("index")
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid event index %q", errBadRequest, v)
	}
	return i, nil
}

// handleAddEvent appends {"event": {...}} to a schedule; typically the
// follow-up of a "create" click.
func (s *Server) handleAddEvent(w http.ResponseWriter, r *http.Request) {
	ev, err := decodeEvent(w, r)
	if err != nil {
		fail(w, r, err)
		return
	}
	idx, err := s.pipeline.Store.AddEvent(r.PathValue("name"), ev)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int{"index": idx})
}

// handleUpdateEvent replaces the event at the original index reported by an
// "edit" click.
func (s *Server) handleUpdateEvent(w http.ResponseWriter, r *http.Request) {
	idx, err := eventIndex(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	ev, err := decodeEvent(w, r)
	if err != nil {
		fail(w, r, err)
		return
	}
	if err := s.pipeline.Store.UpdateEvent(r.PathValue("name"), idx, ev); err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"index": idx})
}

func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	idx, err := eventIndex(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	if err := s.pipeline.Store.DeleteEvent(r.PathValue("name"), idx); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
