package compositor

import (
	"fmt"
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomedium"

	"github.com/ivlev/reelforge/internal/layout"
)

const (
	hookSize    = 26
	captionSize = 34
	ctaSize     = 22
	labelSize   = 32
)

var (
	fontsOnce  sync.Once
	boldFont   *truetype.Font
	mediumFont *truetype.Font
	fontsErr   error
)

// parsed fonts are shared; faces are not safe for concurrent use and belong to one compositor.
func loadFonts() (*truetype.Font, *truetype.Font, error) {
	fontsOnce.Do(func() {
		boldFont, fontsErr = truetype.Parse(gobold.TTF)
		if fontsErr != nil {
			fontsErr = fmt.Errorf("parse bold font: %w", fontsErr)
			return
		}
		mediumFont, fontsErr = truetype.Parse(gomedium.TTF)
		if fontsErr != nil {
			fontsErr = fmt.Errorf("parse medium font: %w", fontsErr)
		}
	})
	return boldFont, mediumFont, fontsErr
}

// Faces holds the per-session font faces.
type Faces struct {
	Hook    font.Face
	Caption font.Face
	CTA     font.Face
	Label   font.Face
}

func NewFaces() (*Faces, error) {
	bold, medium, err := loadFonts()
	if err != nil {
		return nil, err
	}
	return &Faces{
		Hook:    newFace(bold, hookSize),
		Caption: newFace(bold, captionSize),
		CTA:     newFace(medium, ctaSize),
		Label:   newFace(medium, labelSize),
	}, nil
}

func (f *Faces) Close() {
	for _, face := range []font.Face{f.Hook, f.Caption, f.CTA, f.Label} {
		if face != nil {
			face.Close()
		}
	}
}

func newFace(f *truetype.Font, size float64) font.Face {
	return truetype.NewFace(f, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}

// FaceMeasurer measures text advance with a font face.
func FaceMeasurer(face font.Face) layout.Measurer {
	return layout.MeasurerFunc(func(s string) float64 {
		return float64(font.MeasureString(face, s)) / 64
	})
}
