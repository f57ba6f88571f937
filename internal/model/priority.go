package model

import "fmt"

// Priority is the stacking tier of a drawn segment. It also carries whether
// the underlying event may be split.
type Priority int

const (
	// PriorityFlexibleSegment is one visible piece of a split flexible event.
	PriorityFlexibleSegment Priority = iota
	// PriorityFlexibleWhole is a flexible event that nothing overlapped.
	PriorityFlexibleWhole
	// PriorityFixed is a non-overwriteable event. It is never split.
	PriorityFixed
)

// ZIndex returns the CSS-style stacking value for the tier.
func (p Priority) ZIndex() int {
	switch p {
	case PriorityFixed:
		return 10
	default:
		return 5
	}
}

// Splittable reports whether events of this tier may be cut into segments.
func (p Priority) Splittable() bool {
	return p != PriorityFixed
}

func (p Priority) String() string {
	switch p {
	case PriorityFlexibleSegment:
		return "flexible-segment"
	case PriorityFlexibleWhole:
		return "flexible"
	case PriorityFixed:
		return "fixed"
	default:
		return fmt.Sprintf("priority(%d)", int(p))
	}
}

// MarshalText encodes the tier by name.
func (p Priority) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// Tier is the presentation density of a segment, chosen from its height.
type Tier int

const (
	// TierTiny shows the label only.
	TierTiny Tier = iota
	// TierCompact shows the label and, when tall enough, the time.
	TierCompact
	// TierNormal shows label, time and optionally the subtitle.
	TierNormal
)

func (t Tier) String() string {
	switch t {
	case TierTiny:
		return "tiny"
	case TierCompact:
		return "compact"
	case TierNormal:
		return "normal"
	default:
		return fmt.Sprintf("tier(%d)", int(t))
	}
}

// MarshalText encodes the tier by name.
func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}
