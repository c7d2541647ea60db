package audio

import (
	"math"
	"sync"
	"time"

	goaudio "github.com/go-audio/audio"
)

// Track receives PCM chunks as the bed produces them.
type Track interface {
	WriteAudio(buf *goaudio.IntBuffer) error
}

// Config fixes the tone for a whole render.
type Config struct {
	Frequency  float64 `yaml:"frequency"`
	Gain       float64 `yaml:"gain"`
	SampleRate int     `yaml:"sample_rate"`
	BitDepth   int     `yaml:"bit_depth"`
}

func DefaultConfig() Config {
	return Config{
		Frequency:  220,
		Gain:       0.02,
		SampleRate: 48000,
		BitDepth:   16,
	}
}

// chunkSamples bounds a single buffer handed to the track (100ms at 48kHz).
const chunkSamples = 4800

// Bed is a quiet sine tone that runs on its own sample clock. The pipeline pumps it to
// the elapsed timeline position after every frame; samples are a function of their index
// only, so pump granularity never changes the signal.
type Bed struct {
	cfg   Config
	track Track

	mu      sync.Mutex
	written int64
	started bool
	stopped bool
}

func NewBed(cfg Config, track Track) *Bed {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = DefaultConfig().SampleRate
	}
	if cfg.BitDepth <= 0 {
		cfg.BitDepth = DefaultConfig().BitDepth
	}
	return &Bed{cfg: cfg, track: track}
}

func (b *Bed) Format() *goaudio.Format {
	return &goaudio.Format{NumChannels: 1, SampleRate: b.cfg.SampleRate}
}

func (b *Bed) Start() {
	b.mu.Lock()
	b.started = true
	b.mu.Unlock()
}

// Pump writes every sample up to the elapsed time until. Calls with an earlier time
// than already written are no-ops.
func (b *Bed) Pump(until time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.started || b.stopped {
		return nil
	}
	return b.pumpLocked(until)
}

// Stop flushes the bed to at and silences it. Repeated calls do nothing.
func (b *Bed) Stop(at time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stopped {
		return nil
	}
	var err error
	if b.started {
		err = b.pumpLocked(at)
	}
	b.stopped = true
	return err
}

// Samples reports how many samples have been handed to the track.
func (b *Bed) Samples() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.written
}

func (b *Bed) Stopped() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stopped
}

func (b *Bed) pumpLocked(until time.Duration) error {
	target := int64(math.Floor(until.Seconds() * float64(b.cfg.SampleRate)))
	for b.written < target {
		n := target - b.written
		if n > chunkSamples {
			n = chunkSamples
		}
		buf := &goaudio.IntBuffer{
			Format:         b.Format(),
			Data:           b.synth(b.written, int(n)),
			SourceBitDepth: b.cfg.BitDepth,
		}
		if err := b.track.WriteAudio(buf); err != nil {
			return err
		}
		b.written += n
	}
	return nil
}

func (b *Bed) synth(from int64, n int) []int {
	peak := float64(int(1)<<(b.cfg.BitDepth-1)-1) * b.cfg.Gain
	step := 2 * math.Pi * b.cfg.Frequency / float64(b.cfg.SampleRate)
	out := make([]int, n)
	for i := range out {
		out[i] = int(math.Round(peak * math.Sin(step*float64(from+int64(i)))))
	}
	return out
}
