package compositor

import (
	"image"
	"image/color"
	"time"

	"github.com/ivlev/reelforge/internal/layout"
	"github.com/ivlev/reelforge/internal/script"
	"github.com/ivlev/reelforge/internal/system"
)

var (
	Background   = color.NRGBA{R: 0x0b, G: 0x0f, B: 0x14, A: 0xff}
	TextColor    = color.NRGBA{R: 0xe6, G: 0xed, B: 0xf3, A: 0xff}
	CaptionBox   = color.NRGBA{R: 0x11, G: 0x18, B: 0x27, A: 0xff}
	CTAColor     = color.NRGBA{R: 0x93, G: 0xc5, B: 0xfd, A: 0xff}
	BannerColor  = color.NRGBA{A: 128}
	shadowBottom = color.NRGBA{A: 153}
)

const (
	// imageAlpha is 0.95 opacity.
	imageAlpha = 242

	bannerMargin      = 24
	captionLineHeight = 38
	captionMargin     = 120
	qrSize            = 96
)

// Compositor draws one frame of a short as a pure function of the timeline position.
// It owns font faces and a scratch surface, so each render session needs its own.
type Compositor struct {
	faces   *Faces
	caption layout.Measurer
	box     layout.BoxStyle
	scratch *image.RGBA

	qrURL string
	qr    image.Image
}

func New(width, height int) (*Compositor, error) {
	faces, err := NewFaces()
	if err != nil {
		return nil, err
	}
	return &Compositor{
		faces:   faces,
		caption: FaceMeasurer(faces.Caption),
		box:     layout.DefaultBoxStyle(),
		scratch: system.GetImage(image.Rect(0, 0, width, height)),
	}, nil
}

// Close releases the font faces and returns the scratch surface to the pool.
func (c *Compositor) Close() {
	if c.faces != nil {
		c.faces.Close()
		c.faces = nil
	}
	if c.scratch != nil {
		system.PutImage(c.scratch)
		c.scratch = nil
	}
}

// Render draws the frame at t into dst. Nothing carries over between calls: rendering the
// same t twice produces identical pixels.
func (c *Compositor) Render(dst *image.RGBA, sc *script.Script, images []image.Image, t, duration time.Duration) {
	bounds := dst.Bounds()
	W, H := float64(bounds.Dx()), float64(bounds.Dy())

	fill(dst, Background)

	if len(images) == 0 {
		label := "No image"
		if v := sc.UsedVisuals(); len(v) > 0 {
			label = v[0]
		}
		drawPlaceholder(dst, c.faces.Label, label)
	} else {
		img := images[SegmentIndex(t, duration, len(images))]
		drawTransformed(dst, c.scratchFor(bounds), img, PanZoom(t), imageAlpha)
	}

	shadowTop := bounds.Min.Y + int(H*0.6)
	verticalGradient(dst, image.Rect(bounds.Min.X, shadowTop, bounds.Max.X, bounds.Max.Y), color.NRGBA{}, shadowBottom)

	fillRect(dst, image.Rect(bannerMargin, bannerMargin, int(W)-bannerMargin, bannerMargin+56), BannerColor)
	fillRect(dst, image.Rect(bannerMargin, int(H)-120, int(W)-bannerMargin, int(H)-24), BannerColor)

	drawCentered(dst, c.faces.Hook, sc.Hook, W/2, 60, TextColor)

	if line, ok := ActiveLine(sc.Lines, t); ok {
		rows := layout.Wrap(line.Text, W-captionMargin, c.caption)
		for _, p := range layout.LayoutCentered(rows, W/2, H-80, captionLineHeight, c.box) {
			fillRoundRect(dst, p.Box, CaptionBox)
			drawCentered(dst, c.faces.Caption, p.Text, p.X, p.Y, TextColor)
		}
	}

	drawCentered(dst, c.faces.CTA, sc.CTA, W/2, H-24, CTAColor)

	if sc.CTAURL != "" {
		c.drawQR(dst, sc.CTAURL)
	}
}

func (c *Compositor) scratchFor(r image.Rectangle) *image.RGBA {
	if c.scratch == nil || c.scratch.Bounds() != r {
		if c.scratch != nil {
			system.PutImage(c.scratch)
		}
		c.scratch = system.GetImage(r)
	}
	return c.scratch
}
