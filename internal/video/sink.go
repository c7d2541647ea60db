package video

import (
	"context"
	"image"
	"time"

	goaudio "github.com/go-audio/audio"
)

// Format is fixed for the lifetime of one render.
type Format struct {
	Width      int
	Height     int
	FPS        int
	Encoder    string // ffmpeg video encoder name, e.g. libx264
	Quality    int
	SampleRate int
}

// Sink turns a timeline of frames and PCM into one container.
//
// EncodeFrame receives the frame for timeline position t; sinks that need a constant
// frame rate drop frames that land in a filled slot and hold the previous frame over
// slots a late tick skipped. WriteAudio makes every Sink an audio
// track for the bed. End pads the stream to t and returns the finished container.
// Abort releases everything without producing output and is safe to call after End.
type Sink interface {
	Begin(ctx context.Context, f Format) error
	EncodeFrame(img *image.RGBA, t time.Duration) error
	WriteAudio(buf *goaudio.IntBuffer) error
	End(ctx context.Context, t time.Duration) ([]byte, error)
	Abort() error
	MIMEType() string
}

// FrameIndex is the constant-rate frame slot that timeline position t falls into.
func FrameIndex(t time.Duration, fps int) int64 {
	if t <= 0 || fps <= 0 {
		return 0
	}
	return int64(t) * int64(fps) / int64(time.Second)
}

// Pacer maps variable tick times onto a constant frame rate.
type Pacer struct {
	FPS  int
	next int64
}

// Advance claims the slot t falls into. held is the number of slots skipped since the
// last frame; they keep showing the previous frame. ok is false when t's slot is already
// filled and the frame should be dropped.
func (p *Pacer) Advance(t time.Duration) (held int, ok bool) {
	idx := FrameIndex(t, p.FPS)
	if idx < p.next {
		return 0, false
	}
	held = int(idx - p.next)
	p.next = idx + 1
	return held, true
}

// Pad returns how many copies of the last frame fill the stream up to end.
func (p *Pacer) Pad(end time.Duration) int {
	total := FrameIndex(end, p.FPS)
	if total <= p.next {
		return 0
	}
	n := total - p.next
	p.next = total
	return int(n)
}

// Emitted is the number of frame slots written so far.
func (p *Pacer) Emitted() int64 {
	return p.next
}

// Extension is the file extension for a sink's MIME type.
func Extension(mimeType string) string {
	switch mimeType {
	case "video/mp4":
		return ".mp4"
	case "video/x-motion-jpeg":
		return ".mjpeg"
	default:
		return ".bin"
	}
}
