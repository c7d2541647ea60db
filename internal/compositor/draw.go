package compositor

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/f64"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"

	"github.com/ivlev/reelforge/internal/layout"
)

// kappa places cubic control points so a quarter curve approximates a circular arc.
const kappa = 0.5523

func fill(dst draw.Image, c color.Color) {
	draw.Draw(dst, dst.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
}

func fillRect(dst draw.Image, r image.Rectangle, c color.Color) {
	draw.Draw(dst, r, image.NewUniform(c), image.Point{}, draw.Over)
}

// verticalGradient blends from top to bottom over r, sampling at pixel centres.
func verticalGradient(dst draw.Image, r image.Rectangle, top, bottom color.NRGBA) {
	h := r.Dy()
	if h <= 0 {
		return
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		k := (float64(y-r.Min.Y) + 0.5) / float64(h)
		c := color.NRGBA{
			R: lerp8(top.R, bottom.R, k),
			G: lerp8(top.G, bottom.G, k),
			B: lerp8(top.B, bottom.B, k),
			A: lerp8(top.A, bottom.A, k),
		}
		draw.Draw(dst, image.Rect(r.Min.X, y, r.Max.X, y+1), image.NewUniform(c), image.Point{}, draw.Over)
	}
}

func lerp8(a, b uint8, k float64) uint8 {
	return uint8(math.Round(float64(a) + (float64(b)-float64(a))*k))
}

// fillRoundRect rasterizes a rounded box into an alpha mask and composites c through it.
func fillRoundRect(dst draw.Image, r layout.Rect, c color.Color) {
	x0, y0 := int(math.Floor(r.X)), int(math.Floor(r.Y))
	x1, y1 := int(math.Ceil(r.X+r.W)), int(math.Ceil(r.Y+r.H))
	w, h := x1-x0, y1-y0
	if w <= 0 || h <= 0 {
		return
	}

	rad := math.Min(r.Radius, math.Min(r.W, r.H)/2)
	ox, oy := float32(r.X-float64(x0)), float32(r.Y-float64(y0))
	bw, bh, br := float32(r.W), float32(r.H), float32(rad)
	k := br * kappa

	z := vector.NewRasterizer(w, h)
	z.MoveTo(ox+br, oy)
	z.LineTo(ox+bw-br, oy)
	z.CubeTo(ox+bw-br+k, oy, ox+bw, oy+br-k, ox+bw, oy+br)
	z.LineTo(ox+bw, oy+bh-br)
	z.CubeTo(ox+bw, oy+bh-br+k, ox+bw-br+k, oy+bh, ox+bw-br, oy+bh)
	z.LineTo(ox+br, oy+bh)
	z.CubeTo(ox+br-k, oy+bh, ox, oy+bh-br+k, ox, oy+bh-br)
	z.LineTo(ox, oy+br)
	z.CubeTo(ox, oy+br-k, ox+br-k, oy, ox+br, oy)
	z.ClosePath()

	mask := image.NewAlpha(image.Rect(0, 0, w, h))
	z.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})
	draw.DrawMask(dst, image.Rect(x0, y0, x1, y1), image.NewUniform(c), image.Point{}, mask, image.Point{}, draw.Over)
}

// drawCentered draws text horizontally centred on cx with its baseline at y.
func drawCentered(dst draw.Image, face font.Face, text string, cx, y float64, c color.Color) {
	if text == "" {
		return
	}
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
	}
	width := d.MeasureString(text)
	d.Dot = fixed.Point26_6{
		X: fixed.Int26_6(cx*64) - width/2,
		Y: fixed.Int26_6(y * 64),
	}
	d.DrawString(text)
}

// drawTransformed scales src by m.Zoom around the surface centre, shifts it by the motion
// offsets and composites it over dst at the given alpha. scratch must match dst bounds.
func drawTransformed(dst, scratch *image.RGBA, src image.Image, m Motion, alpha uint8) {
	b := src.Bounds()
	if b.Empty() {
		return
	}
	W, H := float64(dst.Bounds().Dx()), float64(dst.Bounds().Dy())
	iw, ih := float64(b.Dx())*m.Zoom, float64(b.Dy())*m.Zoom
	x := (W-iw)/2 + m.DX
	y := (H-ih)/2 + m.DY

	s2d := f64.Aff3{
		m.Zoom, 0, x - m.Zoom*float64(b.Min.X),
		0, m.Zoom, y - m.Zoom*float64(b.Min.Y),
	}

	draw.Draw(scratch, scratch.Bounds(), image.Transparent, image.Point{}, draw.Src)
	xdraw.ApproxBiLinear.Transform(scratch, s2d, src, b, xdraw.Src, nil)
	draw.DrawMask(dst, dst.Bounds(), scratch, scratch.Bounds().Min, image.NewUniform(color.Alpha{A: alpha}), image.Point{}, draw.Over)
}
