// Package schedule holds weekly schedule documents: their on-disk form,
// validation, and the expansion of multi-day entries into the flat
// single-day events the layout engine consumes.
package schedule

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"schedgrid/internal/palette"
)

// Document is one schedule file.
type Document struct {
	// ID is assigned on first save and never changes afterwards.
	ID          string `json:"id,omitempty" yaml:"id,omitempty"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// Events is required; an empty list is valid, a missing key is not.
	Events []EventSpec `json:"events" yaml:"events"`

	// ColorMappings maps event types to palette colour names. Documents
	// without mappings get defaults generated on load.
	ColorMappings palette.Mappings `json:"color_mappings,omitempty" yaml:"color_mappings,omitempty"`
}

// EventSpec is a logical event as written in a document. It either lists
// its occurrences in Timestamps, or uses the legacy flat form with
// Day/Start/End at the top level.
type EventSpec struct {
	Title         string `json:"title" yaml:"title"`
	Type          string `json:"type" yaml:"type"`
	Sub           string `json:"sub,omitempty" yaml:"sub,omitempty"`
	Overwriteable bool   `json:"overwriteable,omitempty" yaml:"overwriteable,omitempty"`

	Timestamps []Timestamp `json:"timestamps,omitempty" yaml:"timestamps,omitempty"`

	// Legacy flat form.
	Day   Days   `json:"day,omitempty" yaml:"day,omitempty"`
	Start string `json:"start,omitempty" yaml:"start,omitempty"`
	End   string `json:"end,omitempty" yaml:"end,omitempty"`
}

// Legacy reports whether the event uses the flat Day/Start/End form.
func (e EventSpec) Legacy() bool {
	return e.Timestamps == nil
}

// Timestamp is one time slot of an event, repeated on every listed day.
type Timestamp struct {
	Day   Days   `json:"day" yaml:"day"`
	Start string `json:"start" yaml:"start"`
	End   string `json:"end" yaml:"end"`
}

// Days is a day field that may be written either as a single integer or as
// a list of integers. A nil Days means the field was absent; an empty
// non-nil Days means an explicit empty list.
type Days []int

func (d Days) MarshalJSON() ([]byte, error) {
	if len(d) == 1 {
		return json.Marshal(d[0])
	}
	return json.Marshal([]int(d))
}

func (d *Days) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if string(data) == "null" {
		return nil
	}
	var one int
	if err := json.Unmarshal(data, &one); err == nil {
		*d = Days{one}
		return nil
	}
	many := []int{}
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("day must be an integer or a list of integers: %w", err)
	}
	*d = many
	return nil
}

func (d Days) MarshalYAML() (any, error) {
	if len(d) == 1 {
		return d[0], nil
	}
	return []int(d), nil
}

func (d *Days) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.ScalarNode:
		var one int
		if err := n.Decode(&one); err != nil {
			return fmt.Errorf("day must be an integer or a list of integers: %w", err)
		}
		*d = Days{one}
	case yaml.SequenceNode:
		many := []int{}
		if err := n.Decode(&many); err != nil {
			return fmt.Errorf("day must be an integer or a list of integers: %w", err)
		}
		*d = many
	default:
		return fmt.Errorf("day must be an integer or a list of integers (line %d)", n.Line)
	}
	return nil
}

// Format is a document encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Decode parses a document in the given format. It does not validate.
func Decode(data []byte, f Format) (*Document, error) {
	var doc Document
	switch f {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
	}
	return &doc, nil
}

// Encode renders a document in the given format.
func Encode(doc *Document, f Format) ([]byte, error) {
	switch f {
	case FormatYAML:
		return yaml.Marshal(doc)
	default:
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	}
}

// Types returns the event type of every logical event, with empty types
// reported as "other".
func (d *Document) Types() []string {
	out := make([]string, 0, len(d.Events))
	for _, ev := range d.Events {
		t := ev.Type
		if t == "" {
			t = "other"
		}
		out = append(out, t)
	}
	return out
}
