// Package app builds pipeline collaborators from configuration for the binaries.
package app

import (
	"github.com/ivlev/reelforge/internal/assets"
	"github.com/ivlev/reelforge/internal/config"
	"github.com/ivlev/reelforge/internal/engine"
	"github.com/ivlev/reelforge/internal/pkg/logger"
	"github.com/ivlev/reelforge/internal/system"
	"github.com/ivlev/reelforge/internal/video"
)

// NewFetcher returns nil when backgrounds should always be placeholders.
func NewFetcher(cfg *config.Config, log *logger.Logger) assets.Fetcher {
	switch cfg.Assets.Source {
	case "pexels":
		if cfg.Assets.PexelsAPIKey == "" {
			log.Warn("PEXELS_API_KEY is not set, backgrounds will be placeholders")
			return nil
		}
		f := assets.NewPexelsFetcher(cfg.Assets.PexelsAPIKey, log)
		if cfg.Assets.PexelsEndpoint != "" {
			f.Endpoint = cfg.Assets.PexelsEndpoint
		}
		return f
	case "local":
		return assets.NewLocalFetcher(cfg.Assets.LocalDir)
	default:
		return nil
	}
}

// NewSinkFactory picks ffmpeg for real output and the in-memory MJPEG sink for dry runs.
func NewSinkFactory(cfg *config.Config, dryRun bool, log *logger.Logger) (func() video.Sink, error) {
	if dryRun {
		return func() video.Sink { return video.NewMemorySink() }, nil
	}
	if err := system.CheckFFmpeg(cfg.Video.FFmpeg); err != nil {
		return nil, err
	}
	return func() video.Sink {
		s := video.NewFFmpegSink(log)
		s.Binary = cfg.Video.FFmpeg
		s.TmpDir = cfg.Paths.TmpDir
		return s
	}, nil
}

// ResolveEncoder returns the configured encoder, or probes the configured ffmpeg binary
// for the best one. Dry runs never touch ffmpeg and get an empty name.
func ResolveEncoder(cfg *config.Config, dryRun bool) string {
	if cfg.Video.Encoder != "" {
		return cfg.Video.Encoder
	}
	if dryRun {
		return ""
	}
	return system.GetBestH264Encoder(cfg.Video.FFmpeg)
}

// NewPipeline wires a pipeline for cfg. Offline renders run on a virtual clock and are
// not paced to the wall clock.
func NewPipeline(cfg *config.Config, dryRun, offline bool, log *logger.Logger) (*engine.Pipeline, error) {
	newSink, err := NewSinkFactory(cfg, dryRun, log)
	if err != nil {
		return nil, err
	}
	p := engine.NewPipeline(engine.OptionsFromConfig(cfg, ResolveEncoder(cfg, dryRun)), NewFetcher(cfg, log), newSink, log)
	if offline {
		p.Timing = engine.Offline
	}
	return p, nil
}
