package layout

import "strings"

// Measurer returns the advance width of text in pixels for a fixed font.
type Measurer interface {
	Measure(text string) float64
}

// MeasurerFunc adapts a plain function to Measurer.
type MeasurerFunc func(text string) float64

func (f MeasurerFunc) Measure(text string) float64 { return f(text) }

// Rect is a rounded box in surface coordinates.
type Rect struct {
	X, Y, W, H float64
	Radius     float64
}

// BoxStyle describes the caption backdrop drawn behind every wrapped row.
type BoxStyle struct {
	Width float64
	// Ascent is the distance from the box top to the text baseline.
	Ascent float64
	Height float64
	Radius float64
}

// DefaultBoxStyle is the caption backdrop used by the compositor.
func DefaultBoxStyle() BoxStyle {
	return BoxStyle{Width: 600, Ascent: 28, Height: 42, Radius: 8}
}

// Placement is one wrapped row: centred text at baseline (X, Y) with its backdrop.
type Placement struct {
	Text string
	X, Y float64
	Box  Rect
}

// Wrap breaks text into rows no wider than maxWidth using greedy word wrap.
// Words are never split, so a single word wider than maxWidth gets its own row.
func Wrap(text string, maxWidth float64, m Measurer) []string {
	if text == "" {
		return nil
	}

	var lines []string
	acc := ""
	for _, word := range strings.Split(text, " ") {
		next := word
		if acc != "" {
			next = acc + " " + word
		}
		if m.Measure(next) > maxWidth && acc != "" {
			lines = append(lines, acc)
			acc = word
			continue
		}
		acc = next
	}
	if acc != "" {
		lines = append(lines, acc)
	}
	return lines
}

// LayoutCentered stacks rows around baseY: the first baseline sits half the block
// height above baseY and each following row advances by lineHeight.
func LayoutCentered(lines []string, centerX, baseY, lineHeight float64, box BoxStyle) []Placement {
	if len(lines) == 0 {
		return nil
	}

	out := make([]Placement, 0, len(lines))
	y := baseY - float64(len(lines))*lineHeight/2
	for _, line := range lines {
		out = append(out, Placement{
			Text: line,
			X:    centerX,
			Y:    y,
			Box: Rect{
				X:      centerX - box.Width/2,
				Y:      y - box.Ascent,
				W:      box.Width,
				H:      box.Height,
				Radius: box.Radius,
			},
		})
		y += lineHeight
	}
	return out
}
