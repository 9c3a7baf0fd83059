package sysstats

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeProc(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
}

func near(got, want float64) bool {
	return math.Abs(got-want) < 0.01
}

func TestSampler_ReadsProc(t *testing.T) {
	root := t.TempDir()
	boot := time.Date(2024, 5, 2, 11, 0, 0, 0, time.UTC)
	writeProc(t, root, map[string]string{
		"stat": "cpu  100 0 100 700 100 0 0 0 0 0\n" +
			"cpu0 100 0 100 700 100 0 0 0 0 0\n" +
			"btime 1714647600\n",
		"meminfo":              "MemTotal:       8000 kB\nMemFree:        1000 kB\nMemAvailable:   6000 kB\n",
		"loadavg":              "0.50 0.25 0.10 1/123 4567\n",
		"sys/kernel/osrelease": "6.1.0-test\n",
	})

	s := newSampler(root)
	s.now = func() time.Time { return boot.Add(time.Hour) }

	first := s.Sample()
	if first.CPUPercent != 0 {
		t.Fatalf("first CPUPercent = %v, want 0 without a previous reading", first.CPUPercent)
	}
	if first.MemTotal != 8000*1024 || first.MemUsed != 2000*1024 {
		t.Fatalf("mem = %d/%d, want 2000kB/8000kB", first.MemUsed, first.MemTotal)
	}
	if !near(first.Load1, 0.5) || !near(first.Load5, 0.25) || !near(first.Load15, 0.1) {
		t.Fatalf("load = %v %v %v", first.Load1, first.Load5, first.Load15)
	}
	if first.Uptime != time.Hour {
		t.Fatalf("uptime = %v, want 1h since btime", first.Uptime)
	}
	if first.Kernel != "6.1.0-test" {
		t.Fatalf("kernel = %q", first.Kernel)
	}
	if got := first.MemPercent(); !near(got, 25) {
		t.Fatalf("MemPercent = %v, want 25", got)
	}

	// 100 more jiffies, 50 of them idle.
	writeProc(t, root, map[string]string{
		"stat": "cpu  125 0 125 750 100 0 0 0 0 0\n" +
			"cpu0 125 0 125 750 100 0 0 0 0 0\n" +
			"btime 1714647600\n",
	})
	second := s.Sample()
	if !near(second.CPUPercent, 50) {
		t.Fatalf("CPUPercent = %v, want 50", second.CPUPercent)
	}
}

func TestSampler_MissingProcIsPartial(t *testing.T) {
	s := newSampler(filepath.Join(t.TempDir(), "nope"))
	got := s.Sample()
	if got.CPUs <= 0 || got.OS == "" {
		t.Fatalf("static fields missing: %#v", got)
	}
	if got.MemTotal != 0 || got.Uptime != 0 || got.Kernel != "" {
		t.Fatalf("expected zero dynamic fields, got %#v", got)
	}
}

func TestSampler_EmptyProcIsPartial(t *testing.T) {
	s := newSampler(t.TempDir())
	got := s.Sample()
	if got.MemTotal != 0 || got.CPUPercent != 0 || got.Load1 != 0 {
		t.Fatalf("expected zero dynamic fields from an empty tree, got %#v", got)
	}
}

func TestRun_DoesNotBlockOnSlowConsumer(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	out := make(chan Sample) // never read

	done := make(chan struct{})
	go func() {
		Run(ctx, newSampler(t.TempDir()), 5*time.Millisecond, out)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Run did not return after cancel")
	}
}
