package sitecount

import (
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"
)

// RunStats is a snapshot of process resource usage at the end of a run
type RunStats struct {
	Duration   time.Duration
	HeapAlloc  uint64
	Sys        uint64
	NumGC      uint32
	PauseTotal time.Duration
	Goroutines int
	RSS        uint64
}

// ReadRunStats reads the current process statistics for a run that
// started at start
func ReadRunStats(start time.Time) RunStats {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	return RunStats{
		Duration:   time.Since(start),
		HeapAlloc:  ms.HeapAlloc,
		Sys:        ms.Sys,
		NumGC:      ms.NumGC,
		PauseTotal: time.Duration(ms.PauseTotalNs),
		Goroutines: runtime.NumGoroutine(),
		RSS:        getProcessRSS(),
	}
}

// Metrics returns the stats as gauges
func (s RunStats) Metrics() []Metric {
	now := time.Now()
	gauge := func(name string, v float64) Metric {
		return Metric{
			Name:       name,
			Value:      v,
			Labels:     map[string]string{},
			MetricType: Gauge,
			Timestamp:  now,
		}
	}

	metrics := []Metric{
		gauge("run_duration_seconds", s.Duration.Seconds()),
		gauge("memory_heap_alloc_bytes", float64(s.HeapAlloc)),
		gauge("memory_sys_bytes", float64(s.Sys)),
		gauge("gc_runs_total", float64(s.NumGC)),
		gauge("gc_pause_total_seconds", s.PauseTotal.Seconds()),
		gauge("goroutines_num", float64(s.Goroutines)),
	}
	if s.RSS > 0 {
		metrics = append(metrics, gauge("memory_rss_bytes", float64(s.RSS)))
	}
	return metrics
}

// getProcessRSS returns the resident set size in bytes, or 0 when
// /proc/self/status is unavailable
func getProcessRSS() uint64 {
	data, err := os.ReadFile("/proc/self/status")
	if err != nil {
		return 0
	}
	for _, line := range strings.Split(string(data), "\n") {
		if !strings.HasPrefix(line, "VmRSS:") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) >= 2 {
			if kb, err := strconv.ParseUint(fields[1], 10, 64); err == nil {
				return kb * 1024
			}
		}
	}
	return 0
}
