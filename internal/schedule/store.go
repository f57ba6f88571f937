package schedule

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/google/uuid"

	appLog "schedgrid/internal/log"
	"schedgrid/internal/palette"
)

var (
	// ErrNotFound is returned when a named schedule does not exist.
	ErrNotFound = errors.New("schedule not found")
	// ErrInvalidName is returned for names that sanitise to nothing.
	ErrInvalidName = errors.New("invalid schedule name")
	// ErrEventIndex is returned for an event index outside the document.
	ErrEventIndex = errors.New("event index out of range")
)

var unsafeChars = regexp.MustCompile(`[\\/*?:"<>|]`)

// Sanitize strips path separators and shell-hostile characters from name
// and makes sure it carries a supported extension (".json" by default).
func Sanitize(name string) (string, error) {
	safe := strings.TrimSpace(unsafeChars.ReplaceAllString(name, ""))
	safe = strings.TrimLeft(safe, ".")
	if safe == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if _, ok := formatOf(safe); !ok {
		safe += ".json"
	}
	return safe, nil
}

func formatOf(name string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		return FormatJSON, true
	case ".yaml", ".yml":
		return FormatYAML, true
	default:
		return "", false
	}
}

// Store keeps schedule documents as files in a single directory.
type Store struct {
	dir string
}

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the backing directory.
func (s *Store) Dir() string { return s.dir }

// List returns the schedule file names in the store, sorted. A missing
// directory is an empty store.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, err
	}
	names := []string{}
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if _, ok := formatOf(e.Name()); ok {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// LoadRaw reads and decodes a document without validating or migrating it.
// It also returns the sanitised file name.
func (s *Store) LoadRaw(name string) (*Document, string, error) {
	safe, err := Sanitize(name)
	if err != nil {
		return nil, "", err
	}
	data, err := os.ReadFile(filepath.Join(s.dir, safe))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, safe, fmt.Errorf("%w: %s", ErrNotFound, safe)
		}
		return nil, safe, err
	}
	f, _ := formatOf(safe)
	doc, err := Decode(data, f)
	if err != nil {
		return nil, safe, &ValidationError{Index: -1, Msg: err.Error()}
	}
	return doc, safe, nil
}

// Load reads a document and validates it. Documents without colour
// mappings get defaults generated from their event types, and the migrated
// document is written back.
func (s *Store) Load(name string) (*Document, error) {
	doc, safe, err := s.LoadRaw(name)
	if err != nil {
		return nil, err
	}

	migrated := false
	if doc.ColorMappings == nil && doc.Events != nil {
		doc.ColorMappings = palette.Default(doc.Types())
		migrated = true
	}
	if err := Validate(doc); err != nil {
		return nil, fmt.Errorf("%s: %w", safe, err)
	}
	if migrated {
		if err := s.write(safe, doc); err != nil {
			appLog.Error("schedule: failed to persist default colour mappings", err, "schedule", safe)
		} else {
			appLog.Info("schedule: added default colour mappings", "schedule", safe, "types", len(doc.ColorMappings))
		}
	}
	return doc, nil
}

// Save validates doc and writes it atomically, assigning an ID on first
// save. It returns the sanitised file name.
func (s *Store) Save(name string, doc *Document) (string, error) {
	if err := Validate(doc); err != nil {
		return "", err
	}
	safe, err := Sanitize(name)
	if err != nil {
		return "", err
	}
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if err := s.write(safe, doc); err != nil {
		return "", err
	}
	appLog.Info("schedule: saved", "schedule", safe, "events", len(doc.Events))
	return safe, nil
}

// Delete removes a schedule file.
func (s *Store) Delete(name string) error {
	safe, err := Sanitize(name)
	if err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(s.dir, safe)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, safe)
		}
		return err
	}
	return nil
}

// AddEvent appends ev to the named schedule and returns its index.
func (s *Store) AddEvent(name string, ev EventSpec) (int, error) {
	if err := ValidateEvent(ev); err != nil {
		return -1, err
	}
	var idx int
	err := s.modify(name, func(doc *Document) error {
		doc.Events = append(doc.Events, ev)
		idx = len(doc.Events) - 1
		return nil
	})
	return idx, err
}

// UpdateEvent replaces the event at index.
func (s *Store) UpdateEvent(name string, index int, ev EventSpec) error {
	if err := ValidateEvent(ev); err != nil {
		return err
	}
	return s.modify(name, func(doc *Document) error {
		if index < 0 || index >= len(doc.Events) {
			return fmt.Errorf("%w: %d", ErrEventIndex, index)
		}
		doc.Events[index] = ev
		return nil
	})
}

// DeleteEvent removes the event at index. Later events shift down, so
// their indices change.
func (s *Store) DeleteEvent(name string, index int) error {
	return s.modify(name, func(doc *Document) error {
		if index < 0 || index >= len(doc.Events) {
			return fmt.Errorf("%w: %d", ErrEventIndex, index)
		}
		doc.Events = append(doc.Events[:index], doc.Events[index+1:]...)
		return nil
	})
}

func (s *Store) modify(name string, fn func(*Document) error) error {
	doc, safe, err := s.LoadRaw(name)
	if err != nil {
		return err
	}
	if err := fn(doc); err != nil {
		return err
	}
	if err := Validate(doc); err != nil {
		return err
	}
	return s.write(safe, doc)
}

// write stores doc under safe via a temp file and rename.
func (s *Store) write(safe string, doc *Document) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	f, _ := formatOf(safe)
	data, err := Encode(doc, f)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, ".schedule-*.tmp")
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
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpName, filepath.Join(s.dir, safe))
}
