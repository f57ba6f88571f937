package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"schedgrid/internal/capture"
	"schedgrid/internal/config"
	"schedgrid/internal/ics"
	appLog "schedgrid/internal/log"
	"schedgrid/internal/refresh"
	"schedgrid/internal/render"
	"schedgrid/internal/schedule"
	"schedgrid/internal/web"
)

const version = "0.3.0"

// flagConfig holds CLI flag values; non-empty values override the config file.
type flagConfig struct {
	configPath string
	listen     string
	schedule   string
	logLevel   string
	once       bool
	output     string
}

func main() {
	flags := parseFlags()

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}
	if flags.listen != "" {
		conf.Listen = flags.listen
	}
	if flags.schedule != "" {
		conf.DefaultSchedule = flags.schedule
	}
	if flags.logLevel != "" {
		conf.LogLevel = flags.logLevel
	}

	level, err := appLog.ParseLevel(conf.LogLevel)
	if err != nil {
		appLog.Warn("unknown log level; using info", "log_level", conf.LogLevel)
	}
	appLog.SetLevel(level)

	appLog.Info("schedgrid starting", "version", version)
	appLog.Info("effective config",
		"listen", conf.Listen,
		"timezone", conf.Timezone,
		"refresh", conf.RefreshCron,
		"schedule_dir", conf.ScheduleDir,
		"default_schedule", conf.DefaultSchedule,
		"ics_count", len(conf.ICS),
		"capture", conf.Capture.Enabled,
		"once", flags.once,
	)

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	loc := resolveLocationOrLocal(conf.Timezone)
	pipeline := &refresh.Pipeline{
		Store:    schedule.NewStore(conf.ScheduleDir),
		Importer: buildImporter(conf, loc),
		Location: loc,
	}
	sched := refresh.NewScheduler(pipeline, refresh.Job{
		Schedule: conf.DefaultSchedule,
		View:     conf.View.Model(),
		Width:    conf.View.Width,
		SVG:      render.DefaultOptions(),
	}, loc)
	if conf.Capture.Enabled {
		sched.SetCapture(&refresh.CaptureTarget{
			Capturer: capture.Chromium{},
			Options: capture.Options{
				URL:    conf.Capture.URL,
				Width:  conf.Capture.Width,
				Height: conf.Capture.Height,
			},
			Output: conf.Capture.Output,
		})
	}

	if flags.once {
		os.Exit(runOnce(ctx, conf, sched, flags.output))
	}

	if conf.DefaultSchedule != "" {
		if _, err := sched.RunOnce(ctx); err != nil {
			appLog.Error("initial render failed", err, "schedule", conf.DefaultSchedule)
		}
		if err := sched.Start(ctx, conf.RefreshCron); err != nil {
			appLog.Error("failed to start refresh scheduler", err)
			os.Exit(1)
		}
		defer sched.Stop()
	} else {
		appLog.Warn("no default_schedule configured; periodic refresh disabled")
	}

	srv := web.NewServer(conf, pipeline, sched)
	if err := srv.ListenAndServe(ctx); err != nil {
		appLog.Error("HTTP server failed", err, "listen", conf.Listen)
		cancel()
		sched.Stop()
		os.Exit(1)
	}

	appLog.Info("schedgrid exiting")
}

// runOnce renders the default schedule once, writes the SVG to output and
// returns the process exit code.
func runOnce(ctx context.Context, conf *config.Config, sched *refresh.Scheduler, output string) int {
	if conf.DefaultSchedule == "" {
		appLog.Error("nothing to render", errors.New("no schedule configured"), "hint", "set default_schedule or pass -schedule")
		return 2
	}
	snap, err := sched.RunOnce(ctx)
	if snap == nil {
		appLog.Error("render failed", err, "schedule", conf.DefaultSchedule)
		return 1
	}
	if werr := refresh.WriteFile(output, []byte(snap.SVG)); werr != nil {
		appLog.Error("failed to write SVG", werr, "output", output)
		return 1
	}
	appLog.Info("grid written", "output", output, "segments", len(snap.Description.Segments))
	if err != nil {
		// Render succeeded; only the capture failed.
		appLog.Error("preview capture failed", err, "output", conf.Capture.Output)
		return 1
	}
	return 0
}

func buildImporter(conf *config.Config, loc *time.Location) *ics.Importer {
	sources := make([]ics.Source, 0, len(conf.ICS))
	for _, c := range conf.ICS {
		if c.URL == "" {
			continue
		}
		sources = append(sources, ics.Source{ID: c.SourceID(), URL: c.URL, Category: c.Category})
	}
	if len(sources) == 0 {
		return nil
	}
	return &ics.Importer{
		Fetcher:  ics.NewFetcher(conf.ICSCacheDir, 30*time.Second),
		Sources:  sources,
		Location: loc,
	}
}

func resolveLocationOrLocal(name string) *time.Location {
	if name == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		appLog.Error("failed to load timezone; falling back to local", err, "name", name)
		return time.Local
	}
	return loc
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "/etc/schedgrid/config.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.StringVar(&cfg.schedule, "schedule", "", "Schedule file to render (overrides default_schedule)")
	flag.StringVar(&cfg.logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides config)")
	flag.BoolVar(&cfg.once, "once", false, "Render the schedule once, write it to -output and exit")
	flag.StringVar(&cfg.output, "output", "grid.svg", "SVG output path for -once")

	flag.Parse()

	return cfg
}
