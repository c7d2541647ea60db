package system

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// Snapshot is a point-in-time view of host and process resources.
type Snapshot struct {
	Time          time.Time `json:"time"`
	CPUPercent    float64   `json:"cpu_percent"`
	MemUsedPct    float64   `json:"mem_used_percent"`
	MemTotalBytes uint64    `json:"mem_total_bytes"`
	ProcessRSS    uint64    `json:"process_rss_bytes"`
	Goroutines    int       `json:"goroutines"`
	NumCPU        int       `json:"num_cpu"`
	Surfaces      int64     `json:"surfaces_allocated"`
}

// TakeSnapshot collects what it can; failing probes leave their fields zero.
func TakeSnapshot() Snapshot {
	s := Snapshot{
		Time:       time.Now(),
		Goroutines: runtime.NumGoroutine(),
		NumCPU:     runtime.NumCPU(),
		Surfaces:   SurfacesAllocated(),
	}

	if pct, err := cpu.Percent(0, false); err == nil && len(pct) > 0 {
		s.CPUPercent = pct[0]
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		s.MemUsedPct = vm.UsedPercent
		s.MemTotalBytes = vm.Total
	}
	if p, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if mi, err := p.MemoryInfo(); err == nil {
			s.ProcessRSS = mi.RSS
		}
	}
	return s
}

func (s Snapshot) String() string {
	return fmt.Sprintf("CPU: %.1f%% | Mem: %.1f%% of %s | RSS: %s | Goroutines: %d | Surfaces: %d",
		s.CPUPercent, s.MemUsedPct, FormatBytes(s.MemTotalBytes), FormatBytes(s.ProcessRSS), s.Goroutines, s.Surfaces)
}

func FormatBytes(b uint64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := uint64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(b)/float64(div), "KMGTPE"[exp])
}
