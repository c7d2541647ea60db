package video

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"sync"
	"time"

	goaudio "github.com/go-audio/audio"
)

// MemorySink encodes every frame slot as a JPEG into an in-memory Motion-JPEG stream.
// It needs no external encoder and backs dry runs; audio is counted, not stored.
type MemorySink struct {
	Quality int
	// FailOn makes the n-th EncodeFrame call fail when > 0.
	FailOn int

	mu      sync.Mutex
	format  Format
	pacer   Pacer
	buf     bytes.Buffer
	last    []byte
	offsets []int
	frames  int
	samples int
	calls   int
	begun   bool
	ended   bool
	aborted bool
}

func NewMemorySink() *MemorySink {
	return &MemorySink{Quality: 80}
}

func (m *MemorySink) MIMEType() string { return "video/x-motion-jpeg" }

func (m *MemorySink) Begin(ctx context.Context, f Format) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.format = f
	m.pacer = Pacer{FPS: f.FPS}
	m.begun = true
	return nil
}

func (m *MemorySink) EncodeFrame(img *image.RGBA, t time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.begun || m.ended {
		return fmt.Errorf("memory sink not open")
	}
	m.calls++
	if m.FailOn > 0 && m.calls == m.FailOn {
		return fmt.Errorf("injected encoder failure at frame call %d", m.calls)
	}

	held, ok := m.pacer.Advance(t)
	if !ok {
		return nil
	}
	var frame bytes.Buffer
	if err := jpeg.Encode(&frame, img, &jpeg.Options{Quality: m.Quality}); err != nil {
		return err
	}
	// A late first frame has nothing to hold, so it fills the gap itself.
	prev := m.last
	if prev == nil {
		prev = frame.Bytes()
	}
	for i := 0; i < held; i++ {
		m.writeSlotLocked(prev)
	}
	m.last = frame.Bytes()
	m.writeSlotLocked(m.last)
	return nil
}

func (m *MemorySink) writeSlotLocked(jpg []byte) {
	m.offsets = append(m.offsets, m.buf.Len())
	m.buf.Write(jpg)
	m.frames++
}

func (m *MemorySink) WriteAudio(buf *goaudio.IntBuffer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.samples += len(buf.Data)
	return nil
}

func (m *MemorySink) End(ctx context.Context, t time.Duration) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.begun || m.ended {
		return nil, fmt.Errorf("memory sink not open")
	}
	m.ended = true
	if m.last != nil {
		for i := m.pacer.Pad(t); i > 0; i-- {
			m.writeSlotLocked(m.last)
		}
	}
	return bytes.Clone(m.buf.Bytes()), nil
}

func (m *MemorySink) Abort() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.aborted = true
	m.buf.Reset()
	m.offsets = nil
	return nil
}

// Frames is the number of constant-rate frame slots written.
func (m *MemorySink) Frames() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.frames
}

// Slot decodes the frame written into constant-rate slot i.
func (m *MemorySink) Slot(i int) (image.Image, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i < 0 || i >= len(m.offsets) {
		return nil, fmt.Errorf("slot %d out of range [0,%d)", i, len(m.offsets))
	}
	end := m.buf.Len()
	if i+1 < len(m.offsets) {
		end = m.offsets[i+1]
	}
	return jpeg.Decode(bytes.NewReader(m.buf.Bytes()[m.offsets[i]:end]))
}

func (m *MemorySink) Samples() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.samples
}

func (m *MemorySink) Aborted() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.aborted
}
