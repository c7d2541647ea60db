package compositor

import (
	"image"
	"image/draw"

	qrcode "github.com/skip2/go-qrcode"
)

// drawQR places a scannable badge for the CTA link under the hook banner, right aligned.
// The encoded image is cached per URL.
func (c *Compositor) drawQR(dst *image.RGBA, url string) {
	if c.qrURL != url {
		q, err := qrcode.New(url, qrcode.Medium)
		if err != nil {
			c.qrURL, c.qr = url, nil
			return
		}
		c.qrURL, c.qr = url, q.Image(qrSize)
	}
	if c.qr == nil {
		return
	}

	b := dst.Bounds()
	x := b.Max.X - bannerMargin - qrSize
	y := b.Min.Y + bannerMargin + 56 + 12
	r := image.Rect(x, y, x+qrSize, y+qrSize)
	draw.Draw(dst, r, c.qr, c.qr.Bounds().Min, draw.Over)
}
