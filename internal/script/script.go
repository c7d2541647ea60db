package script

import (
	"math"
	"strings"
	"time"

	"github.com/ivlev/reelforge/internal/pkg/errors"
)

const (
	MinDurationSec = 15.0
	MaxDurationSec = 60.0
	// MaxVisuals is how many background queries a render uses.
	MaxVisuals = 3
)

// Script is one short: a hook, timed captions, a call to action and background queries.
type Script struct {
	Hook        string        `yaml:"hook" json:"hook"`
	Lines       []CaptionLine `yaml:"lines" json:"lines"`
	CTA         string        `yaml:"cta" json:"cta"`
	Visuals     []string      `yaml:"visuals" json:"visuals"`
	DurationSec float64       `yaml:"durationSec" json:"durationSec"`
	// CTAURL, when set, is drawn as a QR badge next to the call to action.
	CTAURL   string    `yaml:"ctaUrl,omitempty" json:"ctaUrl,omitempty"`
	Keywords *Keywords `yaml:"keywords,omitempty" json:"keywords,omitempty"`
}

// CaptionLine is a caption bound to [Start, End) seconds of the timeline.
type CaptionLine struct {
	Text  string  `yaml:"text" json:"text"`
	Start float64 `yaml:"start" json:"start"`
	End   float64 `yaml:"end" json:"end"`
}

// Keywords is the SEO metadata attached by the optimizer.
type Keywords struct {
	Title       string   `yaml:"title" json:"title"`
	Tags        []string `yaml:"tags" json:"tags"`
	Description string   `yaml:"description" json:"description"`
}

// ClampDuration limits a requested length to [MinDurationSec, MaxDurationSec].
func ClampDuration(sec float64) float64 {
	return math.Max(MinDurationSec, math.Min(MaxDurationSec, sec))
}

// Duration is the clamped render length.
func (s *Script) Duration() time.Duration {
	return time.Duration(ClampDuration(s.DurationSec) * float64(time.Second))
}

// UsedVisuals returns the background queries a render actually fetches.
func (s *Script) UsedVisuals() []string {
	var out []string
	for _, v := range s.Visuals {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		out = append(out, v)
		if len(out) == MaxVisuals {
			break
		}
	}
	return out
}

// Title prefers the optimized title and falls back to the hook.
func (s *Script) Title() string {
	if s.Keywords != nil && s.Keywords.Title != "" {
		return s.Keywords.Title
	}
	return s.Hook
}

// Validate rejects scripts the pipeline cannot time. It runs before any asset is touched.
func (s *Script) Validate() error {
	if s == nil {
		return errors.InvalidScript("script is nil")
	}
	if len(s.Lines) == 0 {
		return errors.InvalidScript("script has no caption lines")
	}
	if math.IsNaN(s.DurationSec) || math.IsInf(s.DurationSec, 0) {
		return errors.InvalidScriptf("durationSec is not a number: %v", s.DurationSec)
	}
	for i, l := range s.Lines {
		if math.IsNaN(l.Start) || math.IsNaN(l.End) {
			return errors.InvalidScriptf("line %d has a NaN timestamp", i).WithField("line", i)
		}
		if l.Start < 0 {
			return errors.InvalidScriptf("line %d starts before zero (%.2fs)", i, l.Start).WithField("line", i)
		}
		if l.Start >= l.End {
			return errors.InvalidScriptf("line %d: start %.2fs is not before end %.2fs", i, l.Start, l.End).WithField("line", i)
		}
	}
	return nil
}
