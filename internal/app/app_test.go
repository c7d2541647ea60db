package app

import (
	"path/filepath"
	"testing"

	"github.com/ivlev/reelforge/internal/assets"
	"github.com/ivlev/reelforge/internal/config"
	"github.com/ivlev/reelforge/internal/pkg/logger"
	"github.com/ivlev/reelforge/internal/video"
)

func TestNewFetcher(t *testing.T) {
	log := logger.Discard()
	tests := []struct {
		name   string
		source string
		key    string
		check  func(assets.Fetcher) bool
	}{
		{"pexels", "pexels", "k", func(f assets.Fetcher) bool { _, ok := f.(*assets.PexelsFetcher); return ok }},
		{"pexels without key", "pexels", "", func(f assets.Fetcher) bool { return f == nil }},
		{"local", "local", "", func(f assets.Fetcher) bool { _, ok := f.(*assets.LocalFetcher); return ok }},
		{"none", "none", "", func(f assets.Fetcher) bool { return f == nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Assets.Source = tt.source
			cfg.Assets.PexelsAPIKey = tt.key
			if f := NewFetcher(cfg, log); !tt.check(f) {
				t.Errorf("unexpected fetcher %T", f)
			}
		})
	}
}

func TestResolveEncoder(t *testing.T) {
	cfg := config.Default()
	cfg.Video.FFmpeg = filepath.Join(t.TempDir(), "no-such-ffmpeg")

	if got := ResolveEncoder(cfg, true); got != "" {
		t.Errorf("dry run should not query ffmpeg, got %q", got)
	}
	if got := ResolveEncoder(cfg, false); got != "libx264" {
		t.Errorf("missing binary should fall back to libx264, got %q", got)
	}
	cfg.Video.Encoder = "h264_nvenc"
	if got := ResolveEncoder(cfg, false); got != "h264_nvenc" {
		t.Errorf("configured encoder should win, got %q", got)
	}
}

func TestDryRunPipeline(t *testing.T) {
	cfg := config.Default()
	cfg.Video.Encoder = "libx264"
	p, err := NewPipeline(cfg, true, true, logger.Discard())
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := p.NewSink().(*video.MemorySink); !ok {
		t.Error("dry run should use the memory sink")
	}
	if p.Options.Format.Quality != 23 {
		t.Errorf("expected libx264 default quality, got %d", p.Options.Format.Quality)
	}
}
