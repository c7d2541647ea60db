package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/schollz/progressbar/v3"

	"github.com/ivlev/reelforge/internal/app"
	"github.com/ivlev/reelforge/internal/config"
	"github.com/ivlev/reelforge/internal/engine"
	"github.com/ivlev/reelforge/internal/pkg/logger"
	"github.com/ivlev/reelforge/internal/renderlog"
	"github.com/ivlev/reelforge/internal/script"
	"github.com/ivlev/reelforge/internal/scriptgen"
	"github.com/ivlev/reelforge/internal/system"
	"github.com/ivlev/reelforge/internal/video"
)

var version = "dev"

func main() {
	system.InitResourceLimits()
	_ = godotenv.Load()

	for _, d := range []string{"input/scripts", "input/visuals", "output"} {
		os.MkdirAll(d, 0755)
	}

	configPtr := flag.String("config", "", "YAML config file (defaults are used for missing keys)")
	scriptPtr := flag.String("script", "", "Script file (.yaml/.json, may hold a list; default: newest file in input/scripts/)")
	nichePtr := flag.String("niche", "", "Generate scripts for this niche instead of reading a file")
	countPtr := flag.Int("count", 1, "How many scripts to generate with -niche")
	outputPtr := flag.String("output", "", "Output directory (default from config: output/)")
	presetPtr := flag.String("preset", "", "Frame preset: 9:16 (Shorts/TikTok), 16:9, 4:5 (Instagram)")
	fpsPtr := flag.Int("fps", 0, "FPS (0: from config)")
	qualityPtr := flag.Int("quality", 0, "Video quality (0: auto; x264 CRF 1-51, VideoToolbox bitrate = Q*100kbit/s)")
	statsPtr := flag.Bool("stats", false, "Print a performance report and append it to benchmark.log")
	dryRunPtr := flag.Bool("dry-run", false, "Render to an in-memory Motion-JPEG stream; no ffmpeg needed")
	offlinePtr := flag.Bool("offline", false, "Render every frame on a virtual clock instead of in real time")
	logPtr := flag.String("log", "", "Log level: debug, info, warn, error")
	historyPtr := flag.Int("history", 0, "Print the last N entries of the render log and exit")
	flag.Parse()

	logCfg := logger.DefaultConfig()
	if *logPtr != "" {
		logCfg.Level = *logPtr
	}
	lg := logger.New(logCfg)

	cfg, err := config.Load(*configPtr)
	if err != nil {
		log.Fatalf("[-] Config error: %v", err)
	}
	cfg.ApplyEnv()
	cfg.BuildVersion = version
	if *presetPtr != "" {
		if err := cfg.ApplyPreset(*presetPtr); err != nil {
			log.Fatalf("[-] %v", err)
		}
	}
	if *fpsPtr > 0 {
		cfg.Video.FPS = *fpsPtr
	}
	if *qualityPtr > 0 {
		cfg.Video.Quality = *qualityPtr
	}
	if *outputPtr != "" {
		cfg.Paths.Output = *outputPtr
	}
	if *statsPtr {
		cfg.ShowStats = true
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[-] %v", err)
	}

	rlog := renderlog.Open(cfg.Paths.RenderLog)
	if *historyPtr > 0 {
		if err := printHistory(os.Stdout, rlog, *historyPtr); err != nil {
			log.Fatalf("[-] %v", err)
		}
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	scripts, niche := loadScripts(ctx, cfg, lg, *scriptPtr, *nichePtr, *countPtr)
	if len(scripts) == 0 {
		log.Fatalf("[-] No scripts to render")
	}

	pipeline, err := app.NewPipeline(cfg, *dryRunPtr, *offlinePtr, lg)
	if err != nil {
		log.Fatalf("[-] %v", err)
	}
	if enc := pipeline.Options.Format.Encoder; enc != "libx264" && !*dryRunPtr {
		fmt.Printf("[*] Hardware encoder detected: %s\n", enc)
	}

	// First interrupt finishes the current render early, the second aborts it.
	var current atomic.Pointer[engine.Session]
	var interrupted atomic.Bool
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		interrupted.Store(true)
		fmt.Println("\n[!] Interrupted: finishing the current video (press Ctrl+C again to abort)")
		if s := current.Load(); s != nil {
			s.Stop()
		}
		<-sigCh
		cancel()
	}()

	failed := 0
	for i := range scripts {
		if interrupted.Load() {
			break
		}
		sc := &scripts[i]
		fmt.Printf("[*] Rendering %d/%d: %q (%.0fs)\n", i+1, len(scripts), sc.Title(), sc.Duration().Seconds())

		out, art, err := renderOne(ctx, pipeline, sc, cfg, &current, &interrupted)
		if err != nil {
			failed++
			fmt.Printf("[-] Render failed: %v\n", err)
			continue
		}

		if err := rlog.Append(renderlog.Entry{
			RenderID:    art.RenderID,
			Niche:       niche,
			Title:       sc.Title(),
			DurationSec: art.Duration.Seconds(),
			Output:      out,
		}); err != nil {
			fmt.Printf("[!] Could not write %s: %v\n", rlog.Path(), err)
		}

		if art.MIMEType == "video/mp4" {
			if d, err := system.ProbeDuration(out); err == nil {
				fmt.Printf("[*] Container duration: %.2fs\n", d)
			}
		}
		if cfg.ShowStats {
			fmt.Print(engine.Report(art, cfg.BuildVersion, system.TakeSnapshot()))
			if err := engine.AppendBenchmark("benchmark.log", cfg.BuildVersion, sc.Title(), art); err != nil {
				fmt.Printf("[!] Could not write benchmark.log: %v\n", err)
			}
		}
		if art.Truncated {
			fmt.Printf("[!] Stopped early at %.1fs\n", art.Duration.Seconds())
		}
		fmt.Printf("[+++] Done! Result: %s\n", out)
	}

	if failed > 0 {
		os.Exit(1)
	}
}

func loadScripts(ctx context.Context, cfg *config.Config, lg *logger.Logger, path, niche string, count int) ([]script.Script, string) {
	if niche != "" {
		client := scriptgen.NewClient(cfg.LLM)
		fmt.Printf("[*] Generating %d script(s) for %q\n", count, niche)
		scripts, err := scriptgen.NewGenerator(client, lg).Generate(ctx, niche, count)
		if err != nil {
			log.Fatalf("[-] Script generation failed: %v", err)
		}
		fmt.Println("[*] Optimizing keywords")
		optimized, err := scriptgen.NewOptimizer(client, lg).Optimize(ctx, scripts)
		if err != nil {
			fmt.Printf("[!] Keyword optimization failed, using defaults: %v\n", err)
			for i := range scripts {
				scripts[i].Keywords = scriptgen.FallbackKeywords(&scripts[i])
			}
			optimized = scripts
		}
		if saved, err := saveScripts("input/scripts", niche, optimized); err != nil {
			fmt.Printf("[!] Could not save scripts: %v\n", err)
		} else {
			fmt.Printf("[*] Scripts saved: %s\n", saved)
		}
		return optimized, niche
	}

	if path == "" {
		latest, err := system.FindLatestScript("input/scripts")
		if err != nil {
			log.Fatalf("[-] Error: %v. Put a script into input/scripts/ or use -niche", err)
		}
		path = latest
		fmt.Printf("[*] Selected script: %s\n", path)
	}
	scripts, err := script.Read(path)
	if err != nil {
		log.Fatalf("[-] Could not read %s: %v", path, err)
	}
	return scripts, ""
}

func renderOne(ctx context.Context, p *engine.Pipeline, sc *script.Script, cfg *config.Config, current *atomic.Pointer[engine.Session], interrupted *atomic.Bool) (string, *engine.Artifact, error) {
	bar := progressbar.NewOptions64(sc.Duration().Milliseconds(),
		progressbar.OptionSetDescription("Rendering"),
		progressbar.OptionSetWidth(30),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
	p.OnProgress = func(pr engine.Progress) {
		bar.Set64(pr.Elapsed.Milliseconds())
	}
	defer func() { p.OnProgress = nil }()

	s, err := p.Start(ctx, sc)
	if err != nil {
		return "", nil, err
	}
	current.Store(s)
	if interrupted.Load() {
		s.Stop()
	}
	art, err := s.Wait()
	current.Store(nil)
	bar.Finish()
	if err != nil {
		return "", nil, err
	}

	if err := os.MkdirAll(cfg.Paths.Output, 0755); err != nil {
		return "", nil, err
	}
	base := filepath.Join(cfg.Paths.Output, outputName(sc.Title()))
	out := base + video.Extension(art.MIMEType)
	if err := os.WriteFile(out, art.Video, 0644); err != nil {
		return "", nil, err
	}
	if err := os.WriteFile(base+".png", art.Thumbnail, 0644); err != nil {
		return "", nil, err
	}
	return out, art, nil
}

// saveScripts keeps generated scripts next to hand-written ones so they can be re-rendered
// with -script.
func saveScripts(dir, niche string, scripts []script.Script) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, outputName(niche)+".yaml")
	if err := script.Write(path, scripts); err != nil {
		return "", err
	}
	return path, nil
}

func printHistory(w io.Writer, rlog *renderlog.Log, n int) error {
	entries, err := rlog.Last(n)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintf(w, "[*] No renders in %s\n", rlog.Path())
		return nil
	}
	for _, e := range entries {
		fmt.Fprintf(w, "%s  %5.1fs  %-40q %s\n", e.Time.Local().Format("2006-01-02 15:04"), e.DurationSec, e.Title, e.Output)
	}
	return nil
}

// outputName is a file-system safe title plus a timestamp.
func outputName(title string) string {
	clean := strings.Map(func(r rune) rune {
		switch {
		case r == ' ':
			return '_'
		case r == '/' || r == '\\' || r == ':' || r == '#' || r == '?' || r == '*' || r == '"':
			return -1
		}
		return r
	}, strings.TrimSpace(title))
	if r := []rune(clean); len(r) > 60 {
		clean = string(r[:60])
	}
	if clean == "" {
		clean = "short"
	}
	return fmt.Sprintf("%s_%s", clean, time.Now().Format("2006-01-02_15-04-05"))
}
