package stats

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shirou/gopsutil/v4/process"
)

// Sample is a single reading of process memory and CPU usage.
type Sample struct {
	Elapsed      time.Duration
	HeapAlloc    uint64
	Sys          uint64
	RSS          uint64
	CPUPercent   float64
	NumGoroutine int
	NumGC        uint32
}

type Summary struct {
	Elapsed        time.Duration
	SampleCount    int
	PeakHeapAlloc  uint64
	PeakSys        uint64
	PeakRSS        uint64
	PeakCPUPercent float64
	AvgCPUPercent  float64
	PeakGoroutines int
	GCCycles       uint32
}

func (s Summary) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("elapsed", s.Elapsed.Round(time.Millisecond).String()),
		slog.Int("samples", s.SampleCount),
		slog.String("peak_heap", humanize.IBytes(s.PeakHeapAlloc)),
		slog.String("peak_sys", humanize.IBytes(s.PeakSys)),
		slog.String("peak_rss", humanize.IBytes(s.PeakRSS)),
		slog.String("peak_cpu", fmt.Sprintf("%.1f%%", s.PeakCPUPercent)),
		slog.String("avg_cpu", fmt.Sprintf("%.1f%%", s.AvgCPUPercent)),
		slog.Int("peak_goroutines", s.PeakGoroutines),
		slog.Uint64("gc_cycles", uint64(s.GCCycles)),
	)
}

// Collector samples runtime statistics on an interval until stopped.
type Collector struct {
	mu       sync.Mutex
	samples  []Sample
	start    time.Time
	interval time.Duration
	proc     *process.Process

	stopChan chan struct{}
	doneChan chan struct{}
}

func NewCollector(interval time.Duration) (*Collector, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, fmt.Errorf("failed to get process info: %w", err)
	}

	return &Collector{
		interval: interval,
		proc:     proc,
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
	}, nil
}

func (c *Collector) Start() {
	c.start = time.Now()
	go c.collect()
}

func (c *Collector) collect() {
	defer close(c.doneChan)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.sample()
	for {
		select {
		case <-c.stopChan:
			c.sample()
			return
		case <-ticker.C:
			c.sample()
		}
	}
}

func (c *Collector) sample() {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	s := Sample{
		Elapsed:      time.Since(c.start),
		HeapAlloc:    memStats.HeapAlloc,
		Sys:          memStats.Sys,
		NumGoroutine: runtime.NumGoroutine(),
		NumGC:        memStats.NumGC,
	}

	if memInfo, err := c.proc.MemoryInfo(); err == nil && memInfo != nil {
		s.RSS = memInfo.RSS
	}
	if cpuPercent, err := c.proc.CPUPercent(); err == nil {
		s.CPUPercent = cpuPercent
	}

	c.mu.Lock()
	c.samples = append(c.samples, s)
	c.mu.Unlock()
}

// Stop takes a final sample and summarizes everything collected.
func (c *Collector) Stop() Summary {
	close(c.stopChan)
	<-c.doneChan

	c.mu.Lock()
	defer c.mu.Unlock()

	return summarize(c.samples, time.Since(c.start))
}

func summarize(samples []Sample, elapsed time.Duration) Summary {
	sum := Summary{
		Elapsed:     elapsed,
		SampleCount: len(samples),
	}
	if len(samples) == 0 {
		return sum
	}

	var totalCPU float64
	for _, s := range samples {
		sum.PeakHeapAlloc = max(sum.PeakHeapAlloc, s.HeapAlloc)
		sum.PeakSys = max(sum.PeakSys, s.Sys)
		sum.PeakRSS = max(sum.PeakRSS, s.RSS)
		sum.PeakCPUPercent = max(sum.PeakCPUPercent, s.CPUPercent)
		sum.PeakGoroutines = max(sum.PeakGoroutines, s.NumGoroutine)
		totalCPU += s.CPUPercent
	}
	sum.GCCycles = samples[len(samples)-1].NumGC - samples[0].NumGC
	sum.AvgCPUPercent = totalCPU / float64(len(samples))

	return sum
}

// Run samples until ctx is done and logs the summary.
func Run(ctx context.Context, log *slog.Logger, interval time.Duration) (func(), error) {
	c, err := NewCollector(interval)
	if err != nil {
		return nil, err
	}
	c.Start()

	var once sync.Once
	return func() {
		once.Do(func() {
			log.InfoContext(ctx, "runtime stats", "stats", c.Stop())
		})
	}, nil
}
