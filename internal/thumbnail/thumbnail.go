package thumbnail

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
)

// Extract encodes the surface as it is right now into a PNG. Call it before the surface
// goes back to the pool.
func Extract(surface image.Image) ([]byte, error) {
	if surface == nil {
		return nil, fmt.Errorf("thumbnail: no surface")
	}
	if surface.Bounds().Empty() {
		return nil, fmt.Errorf("thumbnail: empty surface %v", surface.Bounds())
	}

	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := enc.Encode(&buf, surface); err != nil {
		return nil, fmt.Errorf("thumbnail: encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// DataURL wraps PNG bytes for inline display in a page.
func DataURL(pngData []byte) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngData)
}
