package refresh

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"schedgrid/internal/capture"
	appLog "schedgrid/internal/log"
	"schedgrid/internal/model"
	"schedgrid/internal/render"
)

// Job describes what the scheduler renders on every tick.
type Job struct {
	Schedule string
	View     model.ViewConfig
	Width    float64
	SVG      render.Options
}

// CaptureTarget is an optional PNG capture run after each render.
type CaptureTarget struct {
	Capturer capture.Capturer
	// Options.URL may be empty: the snapshot SVG is then written next to
	// Output and captured from disk.
	Options capture.Options
	Output  string
}

// Scheduler re-renders a Job on a cron schedule and keeps the latest
// snapshot in memory.
type Scheduler struct {
	pipeline *Pipeline
	job      Job
	capture  *CaptureTarget
	cron     *cron.Cron

	// run serialises renders triggered by cron and by RunOnce.
	run sync.Mutex

	mu     sync.RWMutex
	latest *Snapshot
}

// NewScheduler returns a stopped scheduler whose cron expressions are
// evaluated in loc (time.Local when nil).
func NewScheduler(p *Pipeline, job Job, loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	return &Scheduler{
		pipeline: p,
		job:      job,
		cron:     cron.New(cron.WithLocation(loc)),
	}
}

// SetCapture enables a PNG capture after each successful render.
func (s *Scheduler) SetCapture(t *CaptureTarget) {
	s.capture = t
}

// Latest returns the most recent snapshot, or nil before the first render.
func (s *Scheduler) Latest() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

// RunOnce renders the job immediately, stores the snapshot and runs the
// capture if configured. A capture failure is returned after the snapshot
// has been stored.
func (s *Scheduler) RunOnce(ctx context.Context) (*Snapshot, error) {
	s.run.Lock()
	defer s.run.Unlock()

	start := time.Now()
	snap, err := s.pipeline.Render(ctx, s.job.Schedule, s.job.View, s.job.Width, s.job.SVG)
	if err != nil {
		return nil, fmt.Errorf("refresh: render %q: %w", s.job.Schedule, err)
	}

	s.mu.Lock()
	s.latest = snap
	s.mu.Unlock()

	appLog.Info("refresh: snapshot rendered",
		"schedule", snap.Schedule,
		"events", len(snap.Events),
		"segments", len(snap.Description.Segments),
		"hours", fmt.Sprintf("%02d-%02d", snap.Description.StartHour, snap.Description.EndHour),
		"took", time.Since(start).Round(time.Millisecond).String(),
	)

	if s.capture != nil {
		if err := s.captureSnapshot(ctx, snap); err != nil {
			return snap, err
		}
	}
	return snap, nil
}

func (s *Scheduler) captureSnapshot(ctx context.Context, snap *Snapshot) error {
	t := s.capture
	if t.Capturer == nil {
		return errors.New("refresh: capture enabled without a capturer")
	}
	opts := t.Options
	if opts.URL == "" {
		svgPath := strings.TrimSuffix(t.Output, filepath.Ext(t.Output)) + ".svg"
		if err := WriteFile(svgPath, []byte(snap.SVG)); err != nil {
			return fmt.Errorf("refresh: write svg: %w", err)
		}
		u, err := FileURL(svgPath)
		if err != nil {
			return err
		}
		opts.URL = u
	}
	if err := capture.ToFile(ctx, t.Capturer, opts, t.Output); err != nil {
		return fmt.Errorf("refresh: capture: %w", err)
	}
	appLog.Info("refresh: preview captured", "output", t.Output)
	return nil
}

// Start registers the job under the given 5-field cron expression and
// starts the cron runner. ctx bounds every triggered render.
func (s *Scheduler) Start(ctx context.Context, spec string) error {
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("refresh: invalid cron expression %q: %w", spec, err)
	}
	_, err := s.cron.AddFunc(spec, func() {
		if ctx.Err() != nil {
			return
		}
		if _, err := s.RunOnce(ctx); err != nil {
			appLog.Error("refresh: scheduled run failed", err, "schedule", s.job.Schedule)
		}
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	appLog.Info("refresh: scheduler started", "cron", spec, "schedule", s.job.Schedule)
	return nil
}

// Stop stops the cron runner and waits for a running render to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	appLog.Info("refresh: scheduler stopped")
}

// WriteFile writes data to path via a temp file and rename.
func WriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".snapshot-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// FileURL returns a file:// URL for a local path.
func FileURL(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String(), nil
}
