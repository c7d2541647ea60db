package compositor

import (
	"math"
	"time"

	"github.com/ivlev/reelforge/internal/script"
)

// Motion is the background camera at a moment of the timeline.
type Motion struct {
	Zoom float64
	DX   float64 // horizontal offset in pixels
	DY   float64 // vertical offset in pixels
}

// PanZoom is a pure function of t: a slow breathing zoom with a small drift.
func PanZoom(t time.Duration) Motion {
	ms := float64(t) / float64(time.Millisecond)
	return Motion{
		Zoom: 1.05 + 0.05*math.Sin(ms/1000),
		DX:   10 * math.Sin(ms/1200),
		DY:   10 * math.Cos(ms/1300),
	}
}

// SegmentIndex splits the timeline into n equal segments and returns the one t falls in,
// clamped to [0, n-1].
func SegmentIndex(t, duration time.Duration, n int) int {
	if n <= 1 || duration <= 0 {
		return 0
	}
	seg := int(math.Floor(float64(t) / float64(duration) * float64(n)))
	if seg < 0 {
		return 0
	}
	if seg > n-1 {
		return n - 1
	}
	return seg
}

// ActiveLine returns the first line covering t, or the first line when none does.
// ok is false only when lines is empty.
func ActiveLine(lines []script.CaptionLine, t time.Duration) (line script.CaptionLine, ok bool) {
	if len(lines) == 0 {
		return script.CaptionLine{}, false
	}
	sec := t.Seconds()
	for _, l := range lines {
		if sec >= l.Start && sec < l.End {
			return l, true
		}
	}
	return lines[0], true
}
