package engine

import (
	"context"
	"fmt"
	"image"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/ivlev/reelforge/internal/assets"
	"github.com/ivlev/reelforge/internal/audio"
	"github.com/ivlev/reelforge/internal/compositor"
	"github.com/ivlev/reelforge/internal/pkg/errors"
	"github.com/ivlev/reelforge/internal/pkg/logger"
	"github.com/ivlev/reelforge/internal/script"
	"github.com/ivlev/reelforge/internal/system"
	"github.com/ivlev/reelforge/internal/thumbnail"
	"github.com/ivlev/reelforge/internal/video"
)

// placeholderLabel is drawn when a script names no visuals and nothing loaded.
const placeholderLabel = "abstract background"

// Session is one render in flight. The surface, compositor, bed and sink belong to it
// and are released on every exit path.
type Session struct {
	ID string

	ctx      context.Context
	pipeline *Pipeline
	script   *script.Script
	duration time.Duration
	clock    Clock
	sched    Scheduler
	log      *logger.Logger

	mu          sync.Mutex
	state       State
	origin      time.Time
	images      []image.Image
	placeholder bool
	surface     *image.RGBA
	comp        *compositor.Compositor
	sink        video.Sink
	bed         *audio.Bed
	frames      int
	lastT       time.Duration
	stats       Stats
	started     time.Time
	runStart    time.Time

	stopRequested atomic.Bool
	done          chan struct{}
	artifact      *Artifact
	err           error
}

func newSession(ctx context.Context, p *Pipeline, sc *script.Script, clock Clock, sched Scheduler) *Session {
	id := uuid.New().String()
	log := p.Log
	if log == nil {
		log = logger.Discard()
	}
	return &Session{
		ID:       id,
		ctx:      logger.ContextWithRenderID(ctx, id),
		pipeline: p,
		script:   sc,
		duration: sc.Duration(),
		clock:    clock,
		sched:    sched,
		log:      log.WithRenderID(id).WithComponent("engine"),
		state:    Idle,
		done:     make(chan struct{}),
		started:  time.Now(),
	}
}

// State is safe to call at any time.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Duration is the clamped target length.
func (s *Session) Duration() time.Duration { return s.duration }

// Stop asks the session to finish at the next tick with whatever it has rendered. The
// result is a shorter but complete artifact.
func (s *Session) Stop() {
	s.stopRequested.Store(true)
}

// Done is closed once the session reaches Complete or Failed.
func (s *Session) Done() <-chan struct{} { return s.done }

// Wait blocks until the session ends and returns its artifact or its single error.
func (s *Session) Wait() (*Artifact, error) {
	<-s.done
	return s.artifact, s.err
}

func (s *Session) setStateLocked(to State) {
	if !CanTransition(s.state, to) {
		panic(fmt.Sprintf("engine: illegal transition %s -> %s", s.state, to))
	}
	s.log.Debug("state", "from", s.state, "to", to)
	s.state = to
}

func (s *Session) prime() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setStateLocked(Priming)

	p := s.pipeline
	f := p.Options.Format
	queries := s.script.UsedVisuals()
	s.log.Info("priming", "duration", s.duration, "visuals", len(queries), "size", fmt.Sprintf("%dx%d", f.Width, f.Height), "fps", f.FPS)

	loader := &assets.Loader{
		Fetcher:  p.Fetcher,
		Timeout:  p.Options.AssetTimeout,
		CoverFit: p.Options.CoverFit,
		Width:    f.Width,
		Height:   f.Height,
		Log:      s.log,
	}
	res, err := loader.Load(s.ctx, queries)
	if err != nil {
		return s.failLocked(err)
	}
	s.images = res.Images
	if len(s.images) == 0 {
		label := placeholderLabel
		if len(queries) > 0 {
			label = queries[0]
		}
		s.images = []image.Image{compositor.Placeholder(f.Width, f.Height, label)}
		s.placeholder = true
		s.log.Warn("no backgrounds loaded, using placeholder", "failures", len(res.Failures))
	}

	s.surface = system.GetImage(image.Rect(0, 0, f.Width, f.Height))
	s.comp, err = compositor.New(f.Width, f.Height)
	if err != nil {
		return s.failLocked(errors.Wrap(err, "engine.prime", "compositor init failed"))
	}

	if p.NewSink == nil {
		return s.failLocked(errors.New(errors.CodeInternal, "no video sink configured"))
	}
	s.sink = p.NewSink()
	if err := s.sink.Begin(s.ctx, f); err != nil {
		return s.failLocked(s.encoderError("engine.prime", err))
	}

	s.bed = audio.NewBed(p.Options.Audio, s.sink)
	s.bed.Start()
	s.origin = s.clock.Now()
	s.stats.Priming = time.Since(s.started)
	return nil
}

func (s *Session) run() {
	s.mu.Lock()
	s.setStateLocked(Running)
	s.runStart = time.Now()
	s.mu.Unlock()

	go s.watchContext()
	s.sched.Schedule(s.tick)
}

func (s *Session) watchContext() {
	select {
	case <-s.done:
	case <-s.ctx.Done():
		s.mu.Lock()
		defer s.mu.Unlock()
		s.failLocked(s.encoderError("engine.run", s.ctx.Err()))
	}
}

func (s *Session) tick() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Running {
		return
	}

	t := s.clock.Now().Sub(s.origin)
	if t >= s.duration || s.stopRequested.Load() {
		end := min(t, s.duration)
		if s.frames == 0 {
			// Always leave at least one frame for the container and the thumbnail.
			ft := end
			if ft >= s.duration {
				ft = s.duration - time.Millisecond
			}
			if err := s.renderFrameLocked(max(ft, 0)); err != nil {
				s.failLocked(err)
				return
			}
		}
		s.finalizeLocked(max(end, s.lastT))
		return
	}

	if err := s.renderFrameLocked(t); err != nil {
		s.failLocked(err)
		return
	}
	s.sched.Schedule(s.tick)
}

func (s *Session) renderFrameLocked(t time.Duration) error {
	s.comp.Render(s.surface, s.script, s.images, t, s.duration)
	if err := s.sink.EncodeFrame(s.surface, t); err != nil {
		return s.encoderError("engine.tick", err)
	}
	if err := s.bed.Pump(t); err != nil {
		return s.encoderError("engine.tick", err)
	}
	s.frames++
	s.lastT = t

	if fn := s.pipeline.OnProgress; fn != nil {
		fn(Progress{RenderID: s.ID, Elapsed: t, Duration: s.duration, Frames: s.frames})
	}
	return nil
}

func (s *Session) finalizeLocked(end time.Duration) {
	s.setStateLocked(Finalizing)
	s.sched.Stop()
	s.stats.Running = time.Since(s.runStart)
	finStart := time.Now()

	if err := s.bed.Stop(end); err != nil {
		s.failLocked(s.encoderError("engine.finalize", err))
		return
	}
	data, err := s.sink.End(s.ctx, end)
	if err != nil {
		s.failLocked(s.encoderError("engine.finalize", err))
		return
	}
	thumb, err := thumbnail.Extract(s.surface)
	if err != nil {
		s.failLocked(errors.Wrap(err, "engine.finalize", "thumbnail failed"))
		return
	}

	s.stats.Finalize = time.Since(finStart)
	s.stats.Total = time.Since(s.started)
	s.artifact = &Artifact{
		RenderID:    s.ID,
		Video:       data,
		MIMEType:    s.sink.MIMEType(),
		Thumbnail:   thumb,
		Duration:    end,
		Frames:      s.frames,
		Images:      len(s.images),
		Placeholder: s.placeholder,
		Truncated:   end < s.duration,
		Stats:       s.stats,
	}
	s.setStateLocked(Complete)
	s.log.Info("render complete", "frames", s.frames, "duration", end, "bytes", len(data), "elapsed", s.stats.Total)
	s.releaseLocked()
	close(s.done)
}

// failLocked moves to Failed and records err. It is a no-op once the session has ended.
func (s *Session) failLocked(err error) error {
	if s.state.Terminal() {
		return s.err
	}
	s.setStateLocked(Failed)
	s.sched.Stop()
	if s.bed != nil {
		s.bed.Stop(s.lastT)
	}
	if s.sink != nil {
		if aerr := s.sink.Abort(); aerr != nil {
			s.log.Warn("sink abort failed", "error", aerr)
		}
	}
	s.err = err
	s.log.WithError(err).Error("render failed", "code", errors.GetCode(err), "frames", s.frames)
	var coded *errors.Error
	if errors.As(err, &coded) && len(coded.Stack) > 0 {
		s.log.Debug("failure stack", "stack", coded.StackTrace())
	}
	s.releaseLocked()
	close(s.done)
	return err
}

func (s *Session) releaseLocked() {
	if s.comp != nil {
		s.comp.Close()
		s.comp = nil
	}
	if s.surface != nil {
		system.PutImage(s.surface)
		s.surface = nil
	}
	s.images = nil
}

// encoderError maps a sink or context failure onto the session's error codes.
func (s *Session) encoderError(op string, err error) error {
	if ctxErr := s.ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return errors.WrapWithCode(ctxErr, errors.CodeTimeout, op, "render timed out")
		}
		return errors.WrapWithCode(ctxErr, errors.CodeCanceled, op, "render canceled")
	}
	if errors.IsCode(err, errors.CodeEncoderFailure) {
		return err
	}
	return errors.EncoderFailure(op, err)
}
