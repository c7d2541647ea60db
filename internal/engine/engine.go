// Package engine drives one render from a validated script to an encoded artifact.
package engine

import (
	"context"
	"time"

	"github.com/ivlev/reelforge/internal/assets"
	"github.com/ivlev/reelforge/internal/audio"
	"github.com/ivlev/reelforge/internal/config"
	"github.com/ivlev/reelforge/internal/pkg/logger"
	"github.com/ivlev/reelforge/internal/script"
	"github.com/ivlev/reelforge/internal/video"
)

// Artifact is the result of a completed render.
type Artifact struct {
	RenderID  string
	Video     []byte
	MIMEType  string
	Thumbnail []byte // PNG of the last rendered frame
	Duration  time.Duration
	Frames    int // compositor passes, not container frames
	Images    int
	// Placeholder is set when every background failed to load.
	Placeholder bool
	Truncated   bool
	Stats       Stats
}

// Stats times the phases of a render.
type Stats struct {
	Priming  time.Duration
	Running  time.Duration
	Finalize time.Duration
	Total    time.Duration
}

// Progress is reported after every rendered frame.
type Progress struct {
	RenderID string
	Elapsed  time.Duration
	Duration time.Duration
	Frames   int
}

// Options fixes everything about a render that does not come from the script.
type Options struct {
	Format       video.Format
	Audio        audio.Config
	AssetTimeout time.Duration
	CoverFit     bool
}

// OptionsFromConfig builds render options for the given encoder; quality follows the
// encoder's scale.
func OptionsFromConfig(cfg *config.Config, encoder string) Options {
	return Options{
		Format: video.Format{
			Width:      cfg.Video.Width,
			Height:     cfg.Video.Height,
			FPS:        cfg.Video.FPS,
			Encoder:    encoder,
			Quality:    cfg.EffectiveQuality(encoder),
			SampleRate: cfg.Audio.SampleRate,
		},
		Audio:        cfg.Audio,
		AssetTimeout: cfg.Assets.Timeout,
		CoverFit:     cfg.Assets.CoverFit,
	}
}

// Pipeline starts render sessions. It is safe for concurrent use; every session gets its
// own sink, clock and scheduler.
type Pipeline struct {
	Options Options
	Fetcher assets.Fetcher
	NewSink func() video.Sink
	Timing  Timing
	Log     *logger.Logger

	// OnProgress, if set, is called from the scheduler after each frame.
	OnProgress func(Progress)
}

func NewPipeline(opts Options, fetcher assets.Fetcher, newSink func() video.Sink, log *logger.Logger) *Pipeline {
	if log == nil {
		log = logger.Discard()
	}
	return &Pipeline{
		Options: opts,
		Fetcher: fetcher,
		NewSink: newSink,
		Timing:  RealTime,
		Log:     log,
	}
}

// Render runs a session to completion.
func (p *Pipeline) Render(ctx context.Context, sc *script.Script) (*Artifact, error) {
	s, err := p.Start(ctx, sc)
	if err != nil {
		return nil, err
	}
	return s.Wait()
}

// Start validates the script, primes a session and schedules its first frame. Priming
// blocks while backgrounds load. The returned session is Running; use Stop to finish it
// early and Wait for the artifact.
func (p *Pipeline) Start(ctx context.Context, sc *script.Script) (*Session, error) {
	if err := sc.Validate(); err != nil {
		return nil, err
	}

	timing := p.Timing
	if timing == nil {
		timing = RealTime
	}
	clock, sched := timing(p.Options.Format.FPS)

	s := newSession(ctx, p, sc, clock, sched)
	if err := s.prime(); err != nil {
		return nil, err
	}
	s.run()
	return s, nil
}
