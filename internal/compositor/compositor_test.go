package compositor

import (
	"bytes"
	"image"
	"image/color"
	"math"
	"testing"
	"time"

	"github.com/ivlev/reelforge/internal/script"
)

const (
	testW = 720
	testH = 1280
)

func testScript() *script.Script {
	return &script.Script{
		Hook: "3 facts about octopuses",
		Lines: []script.CaptionLine{
			{Text: "They have three hearts", Start: 0, End: 5},
			{Text: "Their blood is blue because it carries copper instead of iron", Start: 5, End: 10},
			{Text: "Each arm can taste what it touches", Start: 10, End: 15},
		},
		CTA:         "Follow for more ocean facts",
		Visuals:     []string{"octopus"},
		DurationSec: 15,
	}
}

func solid(c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, testW, testH))
	fill(img, c)
	return img
}

func near(a, b color.RGBA, tol int) bool {
	d := func(x, y uint8) bool {
		v := int(x) - int(y)
		return v <= tol && v >= -tol
	}
	return d(a.R, b.R) && d(a.G, b.G) && d(a.B, b.B) && d(a.A, b.A)
}

func TestSegmentIndex(t *testing.T) {
	d := 15 * time.Second
	tests := []struct {
		name string
		t    time.Duration
		n    int
		want int
	}{
		{"start", 0, 3, 0},
		{"first third end", 4999 * time.Millisecond, 3, 0},
		{"second third", 5 * time.Second, 3, 1},
		{"last millisecond", d - time.Millisecond, 3, 2},
		{"at duration clamps", d, 3, 2},
		{"past duration clamps", d + time.Second, 3, 2},
		{"negative clamps", -time.Second, 3, 0},
		{"single image", 10 * time.Second, 1, 0},
		{"no images", 10 * time.Second, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SegmentIndex(tt.t, d, tt.n); got != tt.want {
				t.Errorf("SegmentIndex(%v, %v, %d) = %d, want %d", tt.t, d, tt.n, got, tt.want)
			}
		})
	}
}

func TestPanZoom(t *testing.T) {
	m := PanZoom(0)
	if m.Zoom != 1.05 || m.DX != 0 || m.DY != 10 {
		t.Errorf("PanZoom(0) = %+v, want zoom 1.05, dx 0, dy 10", m)
	}

	for ms := 0; ms < 60000; ms += 333 {
		m := PanZoom(time.Duration(ms) * time.Millisecond)
		if m.Zoom < 1.0-1e-9 || m.Zoom > 1.1+1e-9 {
			t.Fatalf("zoom out of range at %dms: %v", ms, m.Zoom)
		}
		if math.Abs(m.DX) > 10 || math.Abs(m.DY) > 10 {
			t.Fatalf("offset out of range at %dms: %+v", ms, m)
		}
	}
}

func TestActiveLine(t *testing.T) {
	lines := []script.CaptionLine{
		{Text: "a", Start: 1, End: 4},
		{Text: "b", Start: 3, End: 6},
	}
	tests := []struct {
		t    time.Duration
		want string
	}{
		{0, "a"}, // before every line: first line
		{time.Second, "a"},
		{3500 * time.Millisecond, "a"}, // overlap: first in order wins
		{4 * time.Second, "b"},         // end is exclusive
		{10 * time.Second, "a"},
	}

	for _, tt := range tests {
		got, ok := ActiveLine(lines, tt.t)
		if !ok || got.Text != tt.want {
			t.Errorf("ActiveLine(%v) = %q, want %q", tt.t, got.Text, tt.want)
		}
		again, _ := ActiveLine(lines, tt.t)
		if again != got {
			t.Errorf("ActiveLine(%v) not deterministic", tt.t)
		}
	}

	if _, ok := ActiveLine(nil, 0); ok {
		t.Error("expected ok=false for no lines")
	}
}

func TestRenderIdempotent(t *testing.T) {
	c, err := New(testW, testH)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer c.Close()

	sc := testScript()
	images := []image.Image{solid(color.RGBA{200, 30, 30, 255}), solid(color.RGBA{30, 200, 30, 255})}
	at := 6200 * time.Millisecond

	a := image.NewRGBA(image.Rect(0, 0, testW, testH))
	b := image.NewRGBA(image.Rect(0, 0, testW, testH))
	c.Render(a, sc, images, at, 15*time.Second)
	c.Render(b, sc, images, 2*time.Second, 15*time.Second)
	c.Render(b, sc, images, at, 15*time.Second)

	if !bytes.Equal(a.Pix, b.Pix) {
		t.Error("rendering the same t twice produced different pixels")
	}
}

func TestRenderLayers(t *testing.T) {
	c, err := New(testW, testH)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer c.Close()

	dst := image.NewRGBA(image.Rect(0, 0, testW, testH))
	red := solid(color.RGBA{255, 0, 0, 255})
	c.Render(dst, testScript(), []image.Image{red}, 0, 15*time.Second)

	// Middle of the frame shows the image at 0.95 over the background.
	mid := dst.RGBAAt(testW/2, testH/3)
	if mid.R < 230 || mid.G > 20 {
		t.Errorf("expected mostly red background image, got %v", mid)
	}

	// Top banner darkens the image.
	banner := dst.RGBAAt(30, 30)
	if banner.R >= mid.R || banner.R < 100 {
		t.Errorf("expected banner to halve the image, got %v (image %v)", banner, mid)
	}

	// Bottom rows are darkened by the gradient and the banner.
	bottom := dst.RGBAAt(10, testH-2)
	if bottom.R >= mid.R/2 {
		t.Errorf("expected gradient to darken bottom edge, got %v", bottom)
	}

	// Caption backdrop sits on the single-row baseline box.
	box := dst.RGBAAt(62, testH-80-19-28+20)
	if !near(box, color.RGBA{0x11, 0x18, 0x27, 0xff}, 3) {
		t.Errorf("expected caption box colour, got %v", box)
	}
}

func TestRenderLandscapeImageAsBand(t *testing.T) {
	c, err := New(testW, testH)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer c.Close()

	wide := image.NewRGBA(image.Rect(0, 0, 720, 400))
	fill(wide, color.RGBA{255, 0, 0, 255})
	dst := image.NewRGBA(image.Rect(0, 0, testW, testH))
	c.Render(dst, testScript(), []image.Image{wide}, 0, 15*time.Second)

	// At t=0 the image is 756x420 centred, 10px low: rows 440..860.
	if above := dst.RGBAAt(testW/2, 300); !near(above, color.RGBA{0x0b, 0x0f, 0x14, 0xff}, 1) {
		t.Errorf("expected plain background above the band, got %v", above)
	}
	if inside := dst.RGBAAt(testW/2, 600); inside.R < 230 || inside.G > 20 {
		t.Errorf("expected the image inside the band, got %v", inside)
	}
}

func TestRenderWithoutImages(t *testing.T) {
	c, err := New(testW, testH)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer c.Close()

	dst := image.NewRGBA(image.Rect(0, 0, testW, testH))
	c.Render(dst, testScript(), nil, 3*time.Second, 15*time.Second)

	top := dst.RGBAAt(testW/2, 200)
	if top == (color.RGBA{0x0b, 0x0f, 0x14, 0xff}) {
		t.Errorf("expected gradient placeholder above plain background, got %v", top)
	}
}

func TestRenderQRBadge(t *testing.T) {
	c, err := New(testW, testH)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer c.Close()

	sc := testScript()
	plain := image.NewRGBA(image.Rect(0, 0, testW, testH))
	c.Render(plain, sc, nil, 0, 15*time.Second)

	sc.CTAURL = "https://example.com/follow"
	badged := image.NewRGBA(image.Rect(0, 0, testW, testH))
	c.Render(badged, sc, nil, 0, 15*time.Second)

	x0, y0 := testW-bannerMargin-qrSize, bannerMargin+56+12
	diff := 0
	for y := y0; y < y0+qrSize; y++ {
		for x := x0; x < x0+qrSize; x++ {
			if plain.RGBAAt(x, y) != badged.RGBAAt(x, y) {
				diff++
			}
		}
	}
	if diff == 0 {
		t.Error("expected QR badge to change pixels in its area")
	}
	if !bytes.Equal(plain.Pix[:testW*4*bannerMargin], badged.Pix[:testW*4*bannerMargin]) {
		t.Error("QR badge leaked outside its area")
	}
}

func TestPlaceholder(t *testing.T) {
	img := Placeholder(testW, testH, "ocean")
	top := img.RGBAAt(5, 0)
	bottom := img.RGBAAt(5, testH-1)
	if top.B <= bottom.B {
		t.Errorf("expected gradient from lighter top to darker bottom: top %v bottom %v", top, bottom)
	}

	labelRow := int(float64(testH) * 0.9)
	found := false
	for x := 0; x < testW && !found; x++ {
		for y := labelRow - 24; y <= labelRow; y++ {
			if px := img.RGBAAt(x, y); px.R > 0x60 {
				found = true
				break
			}
		}
	}
	if !found {
		t.Error("expected label pixels near 90% height")
	}
}

func TestFaceMeasurer(t *testing.T) {
	faces, err := NewFaces()
	if err != nil {
		t.Fatalf("NewFaces failed: %v", err)
	}
	defer faces.Close()

	m := FaceMeasurer(faces.Caption)
	short, long := m.Measure("hi"), m.Measure("hello there")
	if short <= 0 || long <= short {
		t.Errorf("unexpected widths: %v, %v", short, long)
	}
}
