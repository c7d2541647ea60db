package engine

import (
	"fmt"
	"os"
	"time"

	"github.com/ivlev/reelforge/internal/system"
)

// Report is the console performance summary of one render.
func Report(art *Artifact, build string, snap system.Snapshot) string {
	return fmt.Sprintf(
		"--- [PERFORMANCE REPORT] ---\n"+
			"Build: %s\n"+
			"Render ID: %s\n"+
			"Total Time: %.2fs\n"+
			"Priming (assets): %.2fs\n"+
			"Running (render+encode): %.2fs\n"+
			"Finalize (mux): %.2fs\n"+
			"Frames: %d (%.2f fps)\n"+
			"System: %s\n"+
			"----------------------------\n",
		build, art.RenderID, art.Stats.Total.Seconds(), art.Stats.Priming.Seconds(),
		art.Stats.Running.Seconds(), art.Stats.Finalize.Seconds(), art.Frames, art.EffectiveFPS(), snap,
	)
}

// EffectiveFPS is rendered frames per second of running time.
func (a *Artifact) EffectiveFPS() float64 {
	if a.Stats.Running <= 0 {
		return 0
	}
	return float64(a.Frames) / a.Stats.Running.Seconds()
}

// AppendBenchmark adds a one-line summary of art to the log at path.
func AppendBenchmark(path, build, title string, art *Artifact) error {
	line := fmt.Sprintf("[%s] Build: %s | Title: %s | Duration: %.1fs | Frames: %d | Total: %.2fs | Render: %.2fs | Mux: %.2fs | FPS: %.2f\n",
		time.Now().Format("2006-01-02 15:04:05"),
		build,
		title,
		art.Duration.Seconds(),
		art.Frames,
		art.Stats.Total.Seconds(),
		art.Stats.Running.Seconds(),
		art.Stats.Finalize.Seconds(),
		art.EffectiveFPS(),
	)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString(line)
	return err
}
