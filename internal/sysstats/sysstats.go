// Package sysstats samples local machine metrics for the dashboard's system
// panel. On Linux the numbers come from /proc through procfs; elsewhere only
// the static fields (hostname, OS, CPU count) are filled in.
package sysstats

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/prometheus/procfs"
)

// DefaultInterval is how often Run samples.
const DefaultInterval = 2 * time.Second

// Sample is one reading of the local machine.
type Sample struct {
	Hostname   string
	OS         string
	Kernel     string
	CPUs       int
	CPUPercent float64
	MemUsed    uint64
	MemTotal   uint64
	Load1      float64
	Load5      float64
	Load15     float64
	Uptime     time.Duration
	SampledAt  time.Time
}

// MemPercent returns used memory as a share of total.
func (s Sample) MemPercent() float64 {
	if s.MemTotal == 0 {
		return 0
	}
	return float64(s.MemUsed) / float64(s.MemTotal) * 100
}

// Sampler keeps the previous CPU counters so consecutive samples can report
// utilisation over the interval between them.
type Sampler struct {
	root string
	fs   procfs.FS
	ok   bool
	now  func() time.Time

	prevIdle  float64
	prevTotal float64
	havePrev  bool
}

// NewSampler returns a Sampler reading the host's /proc.
func NewSampler() *Sampler {
	return newSampler(procfs.DefaultMountPoint)
}

func newSampler(root string) *Sampler {
	s := &Sampler{root: root, now: time.Now}
	if fs, err := procfs.NewFS(root); err == nil {
		s.fs, s.ok = fs, true
	}
	return s
}

// Sample reads the current metrics. Missing or unreadable sources leave
// their fields zero; Sample never fails.
func (s *Sampler) Sample() Sample {
	now := s.now()
	out := Sample{
		OS:        runtime.GOOS + "/" + runtime.GOARCH,
		CPUs:      runtime.NumCPU(),
		SampledAt: now,
	}
	out.Hostname, _ = os.Hostname()
	if !s.ok {
		return out
	}

	// procfs has no reader for the kernel release.
	if raw, err := os.ReadFile(filepath.Join(s.root, "sys", "kernel", "osrelease")); err == nil {
		out.Kernel = strings.TrimSpace(string(raw))
	}

	if stat, err := s.fs.Stat(); err == nil {
		out.CPUPercent = s.cpuPercent(stat.CPUTotal)
		if stat.BootTime > 0 {
			out.Uptime = max(now.Sub(time.Unix(int64(stat.BootTime), 0)), 0)
		}
	}

	if mem, err := s.fs.Meminfo(); err == nil && mem.MemTotal != nil && mem.MemAvailable != nil {
		total := *mem.MemTotal * 1024
		avail := min(*mem.MemAvailable*1024, total)
		out.MemUsed, out.MemTotal = total-avail, total
	}

	if load, err := s.fs.LoadAvg(); err == nil {
		out.Load1, out.Load5, out.Load15 = load.Load1, load.Load5, load.Load15
	}
	return out
}

// cpuPercent is the busy share of CPU time since the previous call. The
// first call only records the counters and reports 0.
func (s *Sampler) cpuPercent(c procfs.CPUStat) float64 {
	idle := c.Idle + c.Iowait
	total := c.User + c.Nice + c.System + c.Idle + c.Iowait + c.IRQ + c.SoftIRQ + c.Steal

	pct := 0.0
	if s.havePrev && total > s.prevTotal {
		dTotal := total - s.prevTotal
		dIdle := min(max(idle-s.prevIdle, 0), dTotal)
		pct = (dTotal - dIdle) / dTotal * 100
	}
	s.prevIdle, s.prevTotal, s.havePrev = idle, total, true
	return pct
}

// Run samples every interval and offers each sample on out without blocking.
// A slow consumer simply misses samples. Run returns when ctx is done.
func Run(ctx context.Context, s *Sampler, interval time.Duration, out chan<- Sample) {
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	offer := func() {
		select {
		case out <- s.Sample():
		default:
		}
	}

	offer()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			offer()
		}
	}
}
