package monitoring

import (
	"context"
	"encoding/json"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cyrusvahidi/gosynth/internal/logger"
	"github.com/cyrusvahidi/gosynth/internal/metrics"
)

// Status is the health snapshot served on /status.
type Status struct {
	Status    string        `json:"status"`
	Timestamp time.Time     `json:"timestamp"`
	Uptime    time.Duration `json:"uptime"`
	System    SystemInfo    `json:"system"`
	Run       RunInfo       `json:"run"`
}

// SystemInfo contains host-level information.
type SystemInfo struct {
	GoVersion    string `json:"go_version"`
	OS           string `json:"os"`
	Arch         string `json:"arch"`
	NumCPU       int    `json:"num_cpu"`
	MemoryMB     int    `json:"memory_mb"`
	MemoryUsedMB int    `json:"memory_used_mb"`
}

// RunInfo reflects the profiling run in flight.
type RunInfo struct {
	Batches       int       `json:"batches"`
	TotalBatches  int       `json:"total_batches"`
	Samples       int64     `json:"samples"`
	BatchesPerSec float64   `json:"batches_per_sec"`
	LastBatch     time.Time `json:"last_batch"`
}

// Monitor serves health, status and Prometheus metrics for the harness.
type Monitor struct {
	startTime time.Time
	server    *http.Server

	mu           sync.RWMutex
	batches      int
	totalBatches int
	lastBatch    time.Time
}

func New(totalBatches int) *Monitor {
	return &Monitor{
		startTime:    time.Now(),
		totalBatches: totalBatches,
	}
}

// RecordBatch advances the run progress counter.
func (m *Monitor) RecordBatch() {
	m.mu.Lock()
	m.batches++
	m.lastBatch = time.Now()
	m.mu.Unlock()
}

// Start serves until the listener fails or Stop is called.
func (m *Monitor) Start(addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", m.handleHealth)
	mux.HandleFunc("/status", m.handleStatus)
	mux.Handle("/metrics", promhttp.Handler())

	m.server = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	logger.Log.Info("monitor serving", "addr", addr)
	return m.server.ListenAndServe()
}

func (m *Monitor) Stop(ctx context.Context) error {
	if m.server == nil {
		return nil
	}
	return m.server.Shutdown(ctx)
}

func (m *Monitor) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func (m *Monitor) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(m.snapshot())
}

func (m *Monitor) snapshot() Status {
	m.mu.RLock()
	batches := m.batches
	total := m.totalBatches
	last := m.lastBatch
	m.mu.RUnlock()

	uptime := time.Since(m.startTime)
	perSec := 0.0
	if uptime > 0 {
		perSec = float64(batches) / uptime.Seconds()
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	return Status{
		Status:    "healthy",
		Timestamp: time.Now(),
		Uptime:    uptime,
		System: SystemInfo{
			GoVersion:    runtime.Version(),
			OS:           runtime.GOOS,
			Arch:         runtime.GOARCH,
			NumCPU:       runtime.NumCPU(),
			MemoryMB:     int(mem.Sys / 1024 / 1024),
			MemoryUsedMB: int(mem.Alloc / 1024 / 1024),
		},
		Run: RunInfo{
			Batches:       batches,
			TotalBatches:  total,
			Samples:       metrics.TotalSamples(),
			BatchesPerSec: perSec,
			LastBatch:     last,
		},
	}
}
