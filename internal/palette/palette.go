package palette

import (
	"fmt"
	"sort"

	"schedgrid/internal/model"
)

// Colors is the ordered set of predefined colours. Default mappings assign
// them in this order.
var Colors = []model.Style{
	{Name: "yellow-orange", Bg: "bg-amber-100", Border: "border-amber-500", Text: "text-amber-900", BgHex: "#fef3c7", BorderHex: "#f59e0b", TextHex: "#78350f"},
	{Name: "yellow", Bg: "bg-yellow-100", Border: "border-yellow-500", Text: "text-yellow-900", BgHex: "#fef9c3", BorderHex: "#eab308", TextHex: "#713f12"},
	{Name: "orange", Bg: "bg-orange-100", Border: "border-orange-500", Text: "text-orange-900", BgHex: "#ffedd5", BorderHex: "#f97316", TextHex: "#7c2d12"},
	{Name: "red", Bg: "bg-red-100", Border: "border-red-500", Text: "text-red-900", BgHex: "#fee2e2", BorderHex: "#ef4444", TextHex: "#7f1d1d"},
	{Name: "blue", Bg: "bg-blue-100", Border: "border-blue-500", Text: "text-blue-900", BgHex: "#dbeafe", BorderHex: "#3b82f6", TextHex: "#1e3a8a"},
	{Name: "purple", Bg: "bg-purple-100", Border: "border-purple-500", Text: "text-purple-900", BgHex: "#f3e8ff", BorderHex: "#a855f7", TextHex: "#581c87"},
	{Name: "teal", Bg: "bg-teal-100", Border: "border-teal-500", Text: "text-teal-900", BgHex: "#ccfbf1", BorderHex: "#14b8a6", TextHex: "#134e4a"},
	{Name: "light-purple", Bg: "bg-violet-100", Border: "border-violet-500", Text: "text-violet-900", BgHex: "#ede9fe", BorderHex: "#8b5cf6", TextHex: "#4c1d95"},
	{Name: "light-blue", Bg: "bg-sky-100", Border: "border-sky-500", Text: "text-sky-900", BgHex: "#e0f2fe", BorderHex: "#0ea5e9", TextHex: "#0c4a6e"},
	{Name: "green", Bg: "bg-emerald-100", Border: "border-emerald-500", Text: "text-emerald-900", BgHex: "#d1fae5", BorderHex: "#10b981", TextHex: "#064e3b"},
	{Name: "black", Bg: "bg-gray-800", Border: "border-gray-900", Text: "text-white", BgHex: "#1f2937", BorderHex: "#111827", TextHex: "#ffffff"},
	{Name: "muted-gray", Bg: "bg-slate-200", Border: "border-slate-500", Text: "text-slate-900", BgHex: "#e2e8f0", BorderHex: "#64748b", TextHex: "#0f172a"},
	{Name: "brown", Bg: "bg-amber-200", Border: "border-amber-700", Text: "text-amber-900", BgHex: "#fde68a", BorderHex: "#b45309", TextHex: "#78350f"},
	{Name: "light-pink", Bg: "bg-pink-100", Border: "border-pink-400", Text: "text-pink-900", BgHex: "#fce7f3", BorderHex: "#f472b6", TextHex: "#831843"},
	{Name: "kiwi", Bg: "bg-lime-100", Border: "border-lime-500", Text: "text-lime-900", BgHex: "#ecfccb", BorderHex: "#84cc16", TextHex: "#365314"},
	{Name: "rose", Bg: "bg-rose-100", Border: "border-rose-500", Text: "text-rose-900", BgHex: "#ffe4e6", BorderHex: "#f43f5e", TextHex: "#881337"},
}

// Neutral is used for categories with no mapping.
var Neutral = model.Style{
	Name:      "neutral",
	Bg:        "bg-gray-200",
	Border:    "border-gray-400",
	Text:      "text-gray-800",
	BgHex:     "#e5e7eb",
	BorderHex: "#9ca3af",
	TextHex:   "#1f2937",
}

var byName = func() map[string]model.Style {
	m := make(map[string]model.Style, len(Colors))
	for _, c := range Colors {
		m[c.Name] = c
	}
	return m
}()

// ByName returns the palette colour with the given name.
func ByName(name string) (model.Style, bool) {
	c, ok := byName[name]
	return c, ok
}

// Valid reports whether name is a palette colour.
func Valid(name string) bool {
	_, ok := byName[name]
	return ok
}

// Names lists the palette colour names in palette order.
func Names() []string {
	out := make([]string, len(Colors))
	for i, c := range Colors {
		out[i] = c.Name
	}
	return out
}

// Mappings assigns a palette colour name to each event category.
type Mappings map[string]string

// Validate checks that every mapped colour exists in the palette.
func (m Mappings) Validate() error {
	for typ, name := range m {
		if !Valid(name) {
			return fmt.Errorf("invalid color %q for type %q", name, typ)
		}
	}
	return nil
}

// Style returns the style for a category, or Neutral when the category is
// unmapped or mapped to an unknown colour.
func (m Mappings) Style(category string) model.Style {
	if name, ok := m[category]; ok {
		if c, ok := byName[name]; ok {
			return c
		}
	}
	return Neutral
}

// Default builds mappings for the given categories: unique names sorted
// alphabetically, palette colours assigned in order and reused once the
// palette is exhausted. An empty category is treated as "other".
func Default(categories []string) Mappings {
	seen := make(map[string]bool)
	var uniq []string
	for _, c := range categories {
		if c == "" {
			c = "other"
		}
		if !seen[c] {
			seen[c] = true
			uniq = append(uniq, c)
		}
	}
	sort.Strings(uniq)

	m := make(Mappings, len(uniq))
	for i, c := range uniq {
		m[c] = Colors[i%len(Colors)].Name
	}
	return m
}
