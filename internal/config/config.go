package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"schedgrid/internal/model"
)

// NOTE: This file provides the configuration model and full YAML-based
// load/save behavior, including first-run config creation and 0600
// permissions.

// ICSConfig describes a single calendar feed whose events are merged into
// the schedule as fixed events.
type ICSConfig struct {
	// URL is the ICS subscription endpoint.
	URL string `yaml:"url" json:"url"`
	// ID is an internal identifier used for caching and logging.
	ID string `yaml:"id" json:"id"`
	// Name is a human-friendly label.
	Name string `yaml:"name" json:"name"`
	// Category is the event type given to imported events ("other" if empty).
	Category string `yaml:"category,omitempty" json:"category,omitempty"`
}

// SourceID returns the identifier to use for this feed: ID, then Name, then URL.
func (c ICSConfig) SourceID() string {
	switch {
	case c.ID != "":
		return c.ID
	case c.Name != "":
		return c.Name
	default:
		return c.URL
	}
}

// ViewConfig holds the default view used for rendering when a request does
// not override it.
type ViewConfig struct {
	Zoom float64 `yaml:"zoom" json:"zoom"`
	// StartHour / EndHour pin the visible range; nil means inferred from events.
	StartHour *int `yaml:"start_hour,omitempty" json:"start_hour,omitempty"`
	EndHour   *int `yaml:"end_hour,omitempty" json:"end_hour,omitempty"`
	// Days lists visible days (0 = Monday). Empty means the whole week.
	Days []int `yaml:"days,omitempty" json:"days,omitempty"`
	// Width is the available drawing width in pixels.
	Width float64 `yaml:"width" json:"width"`
}

// Model converts the configured defaults into a layout ViewConfig.
func (v ViewConfig) Model() model.ViewConfig {
	mv := model.ViewConfig{
		ZoomLevel: v.Zoom,
		TimeRange: model.TimeRange{StartHour: v.StartHour, EndHour: v.EndHour},
	}
	if len(v.Days) > 0 {
		mv.DaysRange = append([]int(nil), v.Days...)
	}
	return mv
}

// CaptureConfig controls the PNG snapshot taken after each refresh.
type CaptureConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
	// URL of the page to capture. Empty means the rendered SVG, written next
	// to Output.
	URL    string `yaml:"url,omitempty" json:"url,omitempty"`
	Output string `yaml:"output" json:"output"`
	Width  int    `yaml:"width" json:"width"`
	Height int    `yaml:"height" json:"height"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the API.
	Listen string `yaml:"listen" json:"listen"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" json:"log_level"`

	// ScheduleDir holds the schedule documents (.json / .yaml).
	ScheduleDir string `yaml:"schedule_dir" json:"schedule_dir"`

	// DefaultSchedule is rendered by the refresh loop and used when a
	// request does not name a schedule.
	DefaultSchedule string `yaml:"default_schedule" json:"default_schedule"`

	// Timezone is the IANA timezone used to place imported calendar events.
	Timezone string `yaml:"timezone" json:"timezone"`

	// RefreshCron is a standard 5-field cron expression (e.g. "*/15 * * * *")
	// for the periodic re-render.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	View ViewConfig `yaml:"view" json:"view"`

	// ICS is the list of subscribed calendar feeds.
	ICS []ICSConfig `yaml:"ics" json:"ics"`

	// ICSCacheDir stores feed bodies and ETags between fetches.
	ICSCacheDir string `yaml:"ics_cache_dir" json:"ics_cache_dir"`

	Capture CaptureConfig `yaml:"capture" json:"capture"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all endpoints
	// except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

const (
	defaultListen      = "127.0.0.1:8080"
	defaultTimezone    = "Asia/Seoul"
	defaultRefreshCron = "*/15 * * * *"
	defaultScheduleDir = "./schedules"
	defaultICSCacheDir = "./cache/ics"
	defaultPreviewPath = "./cache/preview.png"
	defaultViewWidth   = 900
	defaultShotWidth   = 1280
	defaultShotHeight  = 900
)

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:      defaultListen,
		LogLevel:    "info",
		ScheduleDir: defaultScheduleDir,
		Timezone:    defaultTimezone,
		RefreshCron: defaultRefreshCron,
		View: ViewConfig{
			Zoom:  1,
			Width: defaultViewWidth,
		},
		ICS:         []ICSConfig{},
		ICSCacheDir: defaultICSCacheDir,
		Capture: CaptureConfig{
			Output: defaultPreviewPath,
			Width:  defaultShotWidth,
			Height: defaultShotHeight,
		},
		BasicAuth: nil,
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs (e.g., older versions) still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = defaultListen
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.ScheduleDir == "" {
		c.ScheduleDir = defaultScheduleDir
	}
	if c.Timezone == "" {
		c.Timezone = defaultTimezone
	}
	if c.RefreshCron == "" {
		c.RefreshCron = defaultRefreshCron
	}

	if c.View.Zoom <= 0 {
		c.View.Zoom = 1
	}
	if c.View.Width <= 0 {
		c.View.Width = defaultViewWidth
	}

	if c.ICS == nil {
		c.ICS = []ICSConfig{}
	}
	if c.ICSCacheDir == "" {
		c.ICSCacheDir = defaultICSCacheDir
	}

	if c.Capture.Output == "" {
		c.Capture.Output = defaultPreviewPath
	}
	if c.Capture.Width <= 0 {
		c.Capture.Width = defaultShotWidth
	}
	if c.Capture.Height <= 0 {
		c.Capture.Height = defaultShotHeight
	}

	if c.BasicAuth != nil && c.BasicAuth.Username == "" && c.BasicAuth.Password == "" {
		c.BasicAuth = nil
	}
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - normalize defaults
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the given configuration to the specified path atomically
// (temp file + rename) with 0600 permissions.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".schedgrid-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Save is a convenience method on Config that delegates to the package-level
// Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
