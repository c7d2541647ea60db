// Package handlers implements the HTTP endpoints of the render service.
package handlers

import (
	"context"
	"time"

	"github.com/ivlev/reelforge/internal/assets"
	"github.com/ivlev/reelforge/internal/engine"
	"github.com/ivlev/reelforge/internal/pkg/logger"
	"github.com/ivlev/reelforge/internal/renderlog"
	"github.com/ivlev/reelforge/internal/script"
)

type ScriptGenerator interface {
	Generate(ctx context.Context, niche string, count int) ([]script.Script, error)
}

type KeywordOptimizer interface {
	Optimize(ctx context.Context, scripts []script.Script) ([]script.Script, error)
}

// Renderer is satisfied by *engine.Pipeline.
type Renderer interface {
	Render(ctx context.Context, sc *script.Script) (*engine.Artifact, error)
}

type Deps struct {
	Generator ScriptGenerator
	Optimizer KeywordOptimizer
	// Fetcher backs /api/stock-image; nil serves placeholders only.
	Fetcher  assets.Fetcher
	Renderer Renderer
	// RenderLog and OutputDir are optional; without OutputDir rendered videos are not kept.
	RenderLog *renderlog.Log
	OutputDir string

	Width         int
	Height        int
	RenderTimeout time.Duration
	// Encoder is the video encoder renders use, reported by the deep health check.
	Encoder string
	Version string
	Log     *logger.Logger
}

type Handler struct {
	gen       ScriptGenerator
	opt       KeywordOptimizer
	fetcher   assets.Fetcher
	renderer  Renderer
	renderLog *renderlog.Log
	outputDir string

	width, height int
	renderTimeout time.Duration
	encoder       string
	version       string
	log           *logger.Logger
}

func New(d Deps) *Handler {
	log := d.Log
	if log == nil {
		log = logger.Discard()
	}
	w, h := d.Width, d.Height
	if w <= 0 || h <= 0 {
		w, h = 720, 1280
	}
	return &Handler{
		gen:           d.Generator,
		opt:           d.Optimizer,
		fetcher:       d.Fetcher,
		renderer:      d.Renderer,
		renderLog:     d.RenderLog,
		outputDir:     d.OutputDir,
		width:         w,
		height:        h,
		renderTimeout: d.RenderTimeout,
		encoder:       d.Encoder,
		version:       d.Version,
		log:           log.WithComponent("httpapi"),
	}
}
