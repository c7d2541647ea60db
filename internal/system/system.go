package system

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"
)

func InitResourceLimits() {
	var rLimit syscall.Rlimit
	err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit)
	if err != nil {
		log.Printf("[!] Could not read the open file limit: %v", err)
		return
	}

	rLimit.Cur = 2048
	if rLimit.Cur > rLimit.Max {
		rLimit.Cur = rLimit.Max
	}

	err = syscall.Setrlimit(syscall.RLIMIT_NOFILE, &rLimit)
	if err != nil {
		log.Printf("[!] Could not raise the open file limit: %v", err)
	} else {
		fmt.Printf("[*] Open file limit raised to %d\n", rLimit.Cur)
	}
}

// CheckFFmpeg verifies that the encoder binary is on PATH.
func CheckFFmpeg(bin string) error {
	if bin == "" {
		bin = "ffmpeg"
	}
	if _, err := exec.LookPath(bin); err != nil {
		return fmt.Errorf("%s not found in PATH: %w", bin, err)
	}
	return nil
}

var (
	encoderMu sync.Mutex
	encoders  = map[string]string{}
)

// GetBestH264Encoder probes the given ffmpeg binary once and prefers hardware encoders:
// VideoToolbox on macOS, then NVENC, then libx264. An empty bin means ffmpeg on PATH.
func GetBestH264Encoder(bin string) string {
	if bin == "" {
		bin = "ffmpeg"
	}
	encoderMu.Lock()
	defer encoderMu.Unlock()
	if name, ok := encoders[bin]; ok {
		return name
	}
	name := "libx264"
	if out, err := exec.Command(bin, "-hide_banner", "-encoders").CombinedOutput(); err == nil {
		name = pickEncoder(string(out))
	}
	encoders[bin] = name
	return name
}

func pickEncoder(encodersList string) string {
	for _, name := range []string{"h264_videotoolbox", "h264_nvenc"} {
		if strings.Contains(encodersList, name) {
			return name
		}
	}
	return "libx264"
}

// ProbeDuration asks ffprobe for a container's duration in seconds.
func ProbeDuration(path string) (float64, error) {
	cmd := exec.Command("ffprobe", "-v", "error", "-show_entries", "format=duration", "-of", "default=noprint_wrappers=1:nokey=1", path)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return 0, err
	}

	var duration float64
	_, err = fmt.Sscanf(strings.TrimSpace(string(out)), "%f", &duration)
	if err != nil {
		return 0, err
	}

	return duration, nil
}

// FindLatestScript returns path itself when it is a file, otherwise the newest
// .yaml/.yml/.json file inside the directory.
func FindLatestScript(path string) (string, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if !fi.IsDir() {
		return path, nil
	}

	files, err := os.ReadDir(path)
	if err != nil {
		return "", err
	}

	extensions := []string{".yaml", ".yml", ".json"}
	var latestFile string
	var latestTime time.Time

	for _, f := range files {
		if f.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(f.Name()))
		isScript := false
		for _, e := range extensions {
			if ext == e {
				isScript = true
				break
			}
		}
		if !isScript {
			continue
		}
		info, err := f.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(latestTime) {
			latestTime = info.ModTime()
			latestFile = filepath.Join(path, f.Name())
		}
	}

	if latestFile == "" {
		return "", fmt.Errorf("no script files found in %s", path)
	}

	return latestFile, nil
}
