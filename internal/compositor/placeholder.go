package compositor

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
)

var (
	placeholderTop    = color.NRGBA{R: 0x1d, G: 0x2a, B: 0x3a, A: 0xff}
	placeholderLabel  = color.NRGBA{R: 0x94, G: 0xa3, B: 0xb8, A: 0xff}
	noImageLabelColor = color.NRGBA{R: 0x64, G: 0x74, B: 0x8b, A: 0xff}
)

// Placeholder is the stand-in background used when no image for a query could be loaded:
// a dark vertical gradient with the query written near the bottom.
func Placeholder(width, height int, label string) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	_, medium, err := loadFonts()
	if err != nil {
		verticalGradient(img, img.Bounds(), placeholderTop, Background)
		return img
	}
	face := newFace(medium, labelSize)
	defer face.Close()

	drawPlaceholder(img, face, label)
	return img
}

// NoImage is the flat error placeholder with a centred "No image" label.
func NoImage(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	fill(img, Background)
	if _, medium, err := loadFonts(); err == nil {
		face := newFace(medium, 28)
		defer face.Close()
		drawCentered(img, face, "No image", float64(width)/2, float64(height)/2, noImageLabelColor)
	}
	return img
}

func drawPlaceholder(dst draw.Image, face font.Face, label string) {
	b := dst.Bounds()
	verticalGradient(dst, b, placeholderTop, Background)
	drawCentered(dst, face, label, float64(b.Min.X)+float64(b.Dx())/2, float64(b.Min.Y)+float64(b.Dy())*0.9, placeholderLabel)
}
