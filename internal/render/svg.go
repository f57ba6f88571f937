// Package render draws a grid.Description as SVG. It only paints what the
// layout pass already positioned and makes no layout decisions of its own.
package render

import (
	"fmt"
	"io"
	"strings"

	"schedgrid/internal/grid"
	"schedgrid/internal/model"
)

// Options controls the look of the drawing.
type Options struct {
	Title      string
	FontFamily string
	FontSize   int
	Background string
	GridLine   string
	Text       string
}

// DefaultOptions returns a light theme.
func DefaultOptions() Options {
	return Options{
		FontFamily: "Helvetica, Arial, sans-serif",
		FontSize:   12,
		Background: "#ffffff",
		GridLine:   "#e5e7eb",
		Text:       "#374151",
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.FontFamily == "" {
		o.FontFamily = def.FontFamily
	}
	if o.FontSize <= 0 {
		o.FontSize = def.FontSize
	}
	if o.Background == "" {
		o.Background = def.Background
	}
	if o.GridLine == "" {
		o.GridLine = def.GridLine
	}
	if o.Text == "" {
		o.Text = def.Text
	}
	return o
}

// WriteSVG writes the drawing to w.
func WriteSVG(w io.Writer, d grid.Description, opts Options) error {
	_, err := io.WriteString(w, SVG(d, opts))
	return err
}

// SVG returns the drawing as a standalone SVG document. Segments are painted
// in the order the layout returned them, so higher stacking tiers end up on
// top.
func SVG(d grid.Description, opts Options) string {
	opts = opts.withDefaults()
	fs := opts.FontSize

	var svg strings.Builder
	fmt.Fprintf(&svg, `<?xml version="1.0" encoding="UTF-8"?>
<svg width="%s" height="%s" viewBox="0 0 %s %s" xmlns="http://www.w3.org/2000/svg">
<defs>
<style>
.day { font-family: %s; font-size: %dpx; font-weight: bold; fill: %s; }
.hour { font-family: %s; font-size: %dpx; fill: %s; }
.title { font-family: %s; font-size: %dpx; font-weight: bold; }
.meta { font-family: %s; font-size: %dpx; }
</style>
</defs>
<rect width="100%%" height="100%%" fill="%s"/>
`,
		num(d.Width), num(d.Height), num(d.Width), num(d.Height),
		opts.FontFamily, fs+1, opts.Text,
		opts.FontFamily, fs-2, opts.Text,
		opts.FontFamily, fs,
		opts.FontFamily, fs-2,
		opts.Background)

	if opts.Title != "" {
		fmt.Fprintf(&svg, "<title>%s</title>\n", escapeXML(opts.Title))
	}

	for _, c := range d.Cells {
		fmt.Fprintf(&svg, `<rect class="cell" data-day="%d" data-time="%s" x="%s" y="%s" width="%s" height="%s" fill="none" stroke="%s"/>`+"\n",
			c.Day, c.Time, num(c.Left), num(c.Top), num(c.Width), num(c.Height), opts.GridLine)
	}
	for _, h := range d.Hours {
		fmt.Fprintf(&svg, `<text class="hour" x="%s" y="%s" text-anchor="end">%s</text>`+"\n",
			num(d.Origin.X-6), num(h.Top+float64(fs)), h.Label)
	}
	for _, day := range d.Days {
		fmt.Fprintf(&svg, `<text class="day" x="%s" y="%s" text-anchor="middle">%s</text>`+"\n",
			num(day.Left+day.Width/2), num(day.Top+day.Height/2+float64(fs)/2), escapeXML(day.Name))
	}

	left, top, width, height := d.Body()
	fmt.Fprintf(&svg, `<clipPath id="grid-body"><rect x="%s" y="%s" width="%s" height="%s"/></clipPath>`+"\n",
		num(left), num(top), num(width), num(height))
	svg.WriteString(`<g class="segments" clip-path="url(#grid-body)">` + "\n")
	for _, p := range d.Segments {
		drawSegment(&svg, p, fs)
	}
	svg.WriteString("</g>\n")

	svg.WriteString("</svg>\n")
	return svg.String()
}

func drawSegment(svg *strings.Builder, p grid.PlacedSegment, fs int) {
	const inset = 2.0
	x, y := p.Left+inset, p.Top+1
	w, h := p.Width-2*inset, p.Height-2
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}

	dash := ""
	if p.Source == model.SourceDirect {
		dash = ` stroke-dasharray="4 2"`
	}
	fmt.Fprintf(svg, `<g class="segment %s" data-index="%d" data-z="%d">`+"\n", p.Tier, p.OriginalIndex, p.Geometry.ZIndex)
	fmt.Fprintf(svg, `<rect x="%s" y="%s" width="%s" height="%s" rx="3" fill="%s" stroke="%s"%s/>`+"\n",
		num(x), num(y), num(w), num(h), orDefault(p.Style.BgHex, "#e5e7eb"), orDefault(p.Style.BorderHex, "#9ca3af"), dash)

	text := orDefault(p.Style.TextHex, "#1f2937")
	maxChars := int(w / (float64(fs) * 0.6))
	line := y + float64(fs) + 1

	if p.Tier == model.TierTiny {
		small := fs - 2
		fmt.Fprintf(svg, `<text class="meta" x="%s" y="%s" fill="%s" font-size="%d">%s</text>`+"\n",
			num(x+3), num(y+h/2+float64(small)/2-1), text, small, escapeXML(truncate(p.Title, maxChars)))
		svg.WriteString("</g>\n")
		return
	}

	fmt.Fprintf(svg, `<text class="title" x="%s" y="%s" fill="%s">%s</text>`+"\n",
		num(x+4), num(line), text, escapeXML(truncate(p.Title, maxChars)))
	if p.ShowTime {
		line += float64(fs)
		fmt.Fprintf(svg, `<text class="meta" x="%s" y="%s" fill="%s">%s</text>`+"\n",
			num(x+4), num(line), text, escapeXML(p.TimeLabel))
	}
	if p.ShowSub {
		line += float64(fs)
		fmt.Fprintf(svg, `<text class="meta" x="%s" y="%s" fill="%s" font-weight="bold">%s</text>`+"\n",
			num(x+4), num(line), text, escapeXML(truncate(p.Sub, maxChars)))
	}
	svg.WriteString("</g>\n")
}

// truncate shortens s to at most n runes, marking the cut with "…".
func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 {
		return ""
	}
	if len(r) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return string(r[:n-1]) + "…"
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// num formats a coordinate with at most two decimals.
func num(f float64) string {
	s := fmt.Sprintf("%.2f", f)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

func escapeXML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	s = strings.ReplaceAll(s, "\"", "&quot;")
	s = strings.ReplaceAll(s, "'", "&apos;")
	return s
}
