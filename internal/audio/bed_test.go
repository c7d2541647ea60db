package audio

import (
	"errors"
	"testing"
	"time"

	goaudio "github.com/go-audio/audio"
)

type memTrack struct {
	data   []int
	chunks int
	err    error
}

func (m *memTrack) WriteAudio(buf *goaudio.IntBuffer) error {
	if m.err != nil {
		return m.err
	}
	m.chunks++
	m.data = append(m.data, buf.Data...)
	return nil
}

func TestPumpWritesToElapsedTime(t *testing.T) {
	track := &memTrack{}
	bed := NewBed(DefaultConfig(), track)
	bed.Start()

	if err := bed.Pump(time.Second); err != nil {
		t.Fatalf("Pump failed: %v", err)
	}
	if got := bed.Samples(); got != 48000 {
		t.Errorf("expected 48000 samples after 1s, got %d", got)
	}
	if track.chunks != 10 {
		t.Errorf("expected 10 chunks of 100ms, got %d", track.chunks)
	}

	if err := bed.Pump(500 * time.Millisecond); err != nil {
		t.Fatalf("Pump failed: %v", err)
	}
	if got := bed.Samples(); got != 48000 {
		t.Errorf("pumping backwards must not write, got %d samples", got)
	}
}

func TestPumpGranularityDoesNotChangeSignal(t *testing.T) {
	whole := &memTrack{}
	a := NewBed(DefaultConfig(), whole)
	a.Start()
	a.Pump(2 * time.Second)

	stepped := &memTrack{}
	b := NewBed(DefaultConfig(), stepped)
	b.Start()
	for ms := 33; ms < 2000; ms += 33 {
		b.Pump(time.Duration(ms) * time.Millisecond)
	}
	b.Pump(2 * time.Second)

	if len(whole.data) != len(stepped.data) {
		t.Fatalf("length mismatch: %d vs %d", len(whole.data), len(stepped.data))
	}
	for i := range whole.data {
		if whole.data[i] != stepped.data[i] {
			t.Fatalf("sample %d differs: %d vs %d", i, whole.data[i], stepped.data[i])
		}
	}
}

func TestAmplitude(t *testing.T) {
	track := &memTrack{}
	bed := NewBed(DefaultConfig(), track)
	bed.Start()
	bed.Pump(100 * time.Millisecond)

	limit := 655 // 0.02 of full scale at 16 bit
	peak := 0
	for _, s := range track.data {
		if s < 0 {
			s = -s
		}
		if s > peak {
			peak = s
		}
	}
	if peak > limit || peak < limit-5 {
		t.Errorf("expected peak near %d, got %d", limit, peak)
	}
}

func TestStopIdempotent(t *testing.T) {
	track := &memTrack{}
	bed := NewBed(DefaultConfig(), track)
	bed.Start()
	bed.Pump(200 * time.Millisecond)

	if err := bed.Stop(time.Second); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if err := bed.Stop(3 * time.Second); err != nil {
		t.Fatalf("second Stop failed: %v", err)
	}
	if got := bed.Samples(); got != 48000 {
		t.Errorf("expected Stop to flush to 1s (48000 samples), got %d", got)
	}

	bed.Pump(2 * time.Second)
	if got := bed.Samples(); got != 48000 {
		t.Errorf("Pump after Stop must not write, got %d", got)
	}
	if !bed.Stopped() {
		t.Error("expected bed to report stopped")
	}
}

func TestStopWithoutStart(t *testing.T) {
	track := &memTrack{}
	bed := NewBed(DefaultConfig(), track)
	if err := bed.Stop(time.Second); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if len(track.data) != 0 {
		t.Errorf("expected no samples from a bed that never started, got %d", len(track.data))
	}
}

func TestTrackErrorPropagates(t *testing.T) {
	boom := errors.New("disk full")
	bed := NewBed(DefaultConfig(), &memTrack{err: boom})
	bed.Start()
	if err := bed.Pump(time.Second); !errors.Is(err, boom) {
		t.Errorf("expected track error, got %v", err)
	}
}
