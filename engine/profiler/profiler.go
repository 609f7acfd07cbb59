package profiler

import (
	"fmt"
	"log"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"
)

// DefaultInterval is how often statistics are logged.
const DefaultInterval = time.Second

// stepStats accumulates the durations recorded under one label.
type stepStats struct {
	count int
	total time.Duration
	max   time.Duration
}

// Profiler tracks tick rate, step timings and memory statistics for performance monitoring.
// Outputs stats to the log at a configurable interval.
type Profiler struct {
	mu *sync.Mutex

	frameCount     int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64

	steps map[string]*stepStats
	last  string
}

// NewProfiler creates a new Profiler.
//
// Parameters:
//   - interval: how often stats are logged, DefaultInterval when <= 0
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(interval time.Duration) *Profiler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Profiler{
		mu:             &sync.Mutex{},
		lastTime:       time.Now(),
		updateInterval: interval,
		steps:          make(map[string]*stepStats),
	}
}

// Record adds one timed step under label, e.g. a scene name. Safe to call from any goroutine.
//
// Parameters:
//   - label: the step label
//   - d: the step duration
func (p *Profiler) Record(label string, d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.steps[label]
	if !ok {
		s = &stepStats{}
		p.steps[label] = s
	}
	s.count++
	s.total += d
	s.max = max(s.max, d)
}

// Tick should be called once per engine tick.
// Logs performance statistics when the update interval has elapsed: tick rate, heap usage,
// allocation rate, GC count/pause times, total memory and per-label step timings.
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.frameCount++
	currentTime := time.Now()
	elapsed := currentTime.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return false
	}

	tps := float64(p.frameCount) / elapsed.Seconds()

	runtime.ReadMemStats(&p.memStats)
	allocMB := float64(p.memStats.Alloc) / 1024 / 1024
	sysMB := float64(p.memStats.Sys) / 1024 / 1024
	allocDelta := p.memStats.TotalAlloc - p.lastTotalAlloc
	allocRateMB := float64(allocDelta) / 1024 / 1024 / elapsed.Seconds()

	gcCount := p.memStats.NumGC
	var lastPauseUs, maxPauseUs uint64
	if gcCount > 0 {
		// PauseNs is a circular buffer of the last 256 pauses
		lastPauseUs = p.memStats.PauseNs[(gcCount-1)%256] / 1000
		startIdx := p.lastGCCount
		if gcCount-startIdx > 256 {
			startIdx = gcCount - 256
		}
		for i := startIdx; i < gcCount; i++ {
			maxPauseUs = max(maxPauseUs, p.memStats.PauseNs[i%256]/1000)
		}
	}

	p.last = fmt.Sprintf("TPS: %.2f | Heap: %.2f MB | Alloc Rate: %.2f MB/s | GC: %d (last: %d µs, max: %d µs) | Sys: %.2f MB%s",
		tps, allocMB, allocRateMB, gcCount, lastPauseUs, maxPauseUs, sysMB, p.stepSummary())
	log.Printf("[Profiler] %s", p.last)

	p.frameCount = 0
	p.lastTime = currentTime
	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	clear(p.steps)
	return true
}

// stepSummary formats the recorded steps ordered by label. Caller must hold p.mu.
func (p *Profiler) stepSummary() string {
	if len(p.steps) == 0 {
		return ""
	}
	labels := make([]string, 0, len(p.steps))
	for l := range p.steps {
		labels = append(labels, l)
	}
	sort.Strings(labels)

	var b strings.Builder
	for _, l := range labels {
		s := p.steps[l]
		avg := s.total / time.Duration(s.count)
		fmt.Fprintf(&b, " | %s: avg %s, max %s", l, avg.Round(time.Microsecond), s.max.Round(time.Microsecond))
	}
	return b.String()
}

// Last returns the most recently logged line without the log prefix.
func (p *Profiler) Last() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}
