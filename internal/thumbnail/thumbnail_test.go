package thumbnail

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
)

func TestExtract(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	img.Set(5, 5, color.RGBA{255, 0, 0, 255})

	data, err := Extract(img)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	decoded, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("result is not a PNG: %v", err)
	}
	if decoded.Bounds() != img.Bounds() {
		t.Errorf("bounds = %v, want %v", decoded.Bounds(), img.Bounds())
	}
	r, _, _, _ := decoded.At(5, 5).RGBA()
	if r>>8 != 255 {
		t.Errorf("expected red pixel to survive, got r=%d", r>>8)
	}
}

func TestExtractRejectsEmpty(t *testing.T) {
	tests := []struct {
		name string
		img  image.Image
	}{
		{"nil", nil},
		{"zero size", image.NewRGBA(image.Rect(0, 0, 0, 0))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Extract(tt.img); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestDataURL(t *testing.T) {
	got := DataURL([]byte{0x89, 'P', 'N', 'G'})
	if !strings.HasPrefix(got, "data:image/png;base64,") {
		t.Errorf("unexpected prefix: %s", got)
	}
	if !strings.HasSuffix(got, "iVBORw==") {
		t.Errorf("unexpected payload: %s", got)
	}
}
