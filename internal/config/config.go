package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ivlev/reelforge/internal/audio"
	"github.com/ivlev/reelforge/internal/pkg/errors"
)

type Config struct {
	Video  VideoConfig  `yaml:"video"`
	Audio  audio.Config `yaml:"audio"`
	Assets AssetsConfig `yaml:"assets"`
	LLM    LLMConfig    `yaml:"llm"`
	Server ServerConfig `yaml:"server"`
	Paths  PathsConfig  `yaml:"paths"`

	ShowStats    bool   `yaml:"show_stats"`
	BuildVersion string `yaml:"-"`
}

type VideoConfig struct {
	Width   int    `yaml:"width"`
	Height  int    `yaml:"height"`
	FPS     int    `yaml:"fps"`
	Preset  string `yaml:"preset"`
	Encoder string `yaml:"encoder"` // empty: probe for the best H.264 encoder
	Quality int    `yaml:"quality"` // 0: encoder-specific default
	FFmpeg  string `yaml:"ffmpeg"`
}

type AssetsConfig struct {
	// Source selects the fetcher: pexels, local or none.
	Source         string        `yaml:"source"`
	LocalDir       string        `yaml:"local_dir"`
	PexelsEndpoint string        `yaml:"pexels_endpoint"`
	PexelsAPIKey   string        `yaml:"-"`
	Timeout        time.Duration `yaml:"timeout"`
	// CoverFit crops every background to the frame instead of drawing it at natural size.
	CoverFit bool `yaml:"cover_fit"`
}

type LLMConfig struct {
	BaseURL     string        `yaml:"base_url"`
	Model       string        `yaml:"model"`
	Temperature float64       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
	APIKey      string        `yaml:"-"`
}

type ServerConfig struct {
	Addr          string        `yaml:"addr"`
	RenderTimeout time.Duration `yaml:"render_timeout"`
}

type PathsConfig struct {
	Output    string `yaml:"output"`
	RenderLog string `yaml:"render_log"`
	TmpDir    string `yaml:"tmp_dir"`
}

func Default() *Config {
	return &Config{
		Video: VideoConfig{
			Width:  720,
			Height: 1280,
			FPS:    30,
			FFmpeg: "ffmpeg",
		},
		Audio: audio.DefaultConfig(),
		Assets: AssetsConfig{
			Source:         "pexels",
			LocalDir:       "input/visuals",
			PexelsEndpoint: "https://api.pexels.com/v1/search",
			Timeout:        10 * time.Second,
		},
		LLM: LLMConfig{
			BaseURL:     "https://api.openai.com/v1",
			Model:       "gpt-4o-mini",
			Temperature: 0.8,
			Timeout:     60 * time.Second,
		},
		Server: ServerConfig{
			Addr:          ":8080",
			RenderTimeout: 3 * time.Minute,
		},
		Paths: PathsConfig{
			Output:    "output",
			RenderLog: "output/renders.jsonl",
		},
	}
}

// Load reads a YAML file over the defaults. Keys missing from the file keep their default;
// a preset in the file wins over width and height.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if cfg.Video.Preset != "" {
		if err := cfg.ApplyPreset(cfg.Video.Preset); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// ApplyEnv pulls secrets and endpoint overrides from the environment.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("PEXELS_API_KEY"); v != "" {
		c.Assets.PexelsAPIKey = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		c.LLM.BaseURL = v
	}
	if v := os.Getenv("OPENAI_MODEL"); v != "" {
		c.LLM.Model = v
	}
}

// ApplyPreset sets the frame size for a named aspect ratio.
func (c *Config) ApplyPreset(name string) error {
	switch name {
	case "9:16":
		c.Video.Width, c.Video.Height = 720, 1280
	case "16:9":
		c.Video.Width, c.Video.Height = 1280, 720
	case "4:5":
		c.Video.Width, c.Video.Height = 1080, 1350
	default:
		return errors.Validation(fmt.Sprintf("unknown preset %q (use 9:16, 16:9 or 4:5)", name))
	}
	c.Video.Preset = name
	return nil
}

// EffectiveQuality resolves quality 0 to a sensible default per encoder.
func (c *Config) EffectiveQuality(encoder string) int {
	if c.Video.Quality > 0 {
		return c.Video.Quality
	}
	switch encoder {
	case "h264_videotoolbox":
		return 75
	case "h264_nvenc":
		return 28
	default:
		return 23
	}
}

func (c *Config) Validate() error {
	switch {
	case c.Video.Width <= 0 || c.Video.Height <= 0:
		return errors.Validation(fmt.Sprintf("frame size must be positive, got %dx%d", c.Video.Width, c.Video.Height))
	case c.Video.Width%2 != 0 || c.Video.Height%2 != 0:
		return errors.Validation(fmt.Sprintf("yuv420p needs even dimensions, got %dx%d", c.Video.Width, c.Video.Height))
	case c.Video.FPS <= 0 || c.Video.FPS > 120:
		return errors.Validation(fmt.Sprintf("fps must be in 1..120, got %d", c.Video.FPS))
	case c.Audio.SampleRate <= 0:
		return errors.Validation("audio sample rate must be positive")
	case c.Audio.BitDepth != 16:
		return errors.Validation(fmt.Sprintf("only 16-bit audio is supported, got %d", c.Audio.BitDepth))
	case c.Assets.Timeout <= 0:
		return errors.Validation("asset timeout must be positive")
	}
	switch c.Assets.Source {
	case "pexels", "local", "none":
	default:
		return errors.Validation(fmt.Sprintf("unknown asset source %q", c.Assets.Source))
	}
	return nil
}
