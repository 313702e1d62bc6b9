package metrics

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var totalSamples atomic.Int64

var (
	ForwardDuration = promauto.NewSummary(prometheus.SummaryOpts{
		Name: "synth_forward_duration_seconds",
		Help: "Duration of full synth forward passes",
	})

	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "synth_stage_duration_seconds",
		Help:    "Histogram of per-stage render times inside the synth",
		Buckets: prometheus.DefBuckets,
	}, []string{"stage"})

	SamplesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "synth_samples_total",
		Help: "The total number of audio samples rendered",
	})

	BatchesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "harness_batches_total",
		Help: "The total number of loader batches processed by the test loop",
	})

	CallbackForwardsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "harness_callback_forwards_total",
		Help: "The total number of extra forward passes issued by the profiling callback",
	})

	ShapeViolationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "harness_shape_violations_total",
		Help: "The total number of malformed batches rejected by the callback",
	})

	BufferBytes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "synth_buffer_bytes",
		Help: "Bytes held by the most recent audio buffer",
	})

	LoaderWaitDuration = promauto.NewSummary(prometheus.SummaryOpts{
		Name: "harness_loader_wait_duration_seconds",
		Help: "Time the test loop spent waiting for the next batch",
	})
)

// RecordForward records one full forward pass of the synth.
func RecordForward(samples int, duration time.Duration) {
	ForwardDuration.Observe(duration.Seconds())
	SamplesTotal.Add(float64(samples))
	totalSamples.Add(int64(samples))
}

// RecordStage records the render time of one synth stage.
func RecordStage(stage string, duration time.Duration) {
	StageDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

// RecordBatch records one loader batch completed by the test loop.
func RecordBatch(wait time.Duration) {
	BatchesTotal.Inc()
	LoaderWaitDuration.Observe(wait.Seconds())
}

// RecordCallbackForward records one extra forward issued by the callback.
func RecordCallbackForward() {
	CallbackForwardsTotal.Inc()
}

// RecordShapeViolation records a malformed batch seen by the callback.
func RecordShapeViolation() {
	ShapeViolationsTotal.Inc()
}

// RecordBufferBytes records the size of the live audio buffer.
func RecordBufferBytes(n int64) {
	BufferBytes.Set(float64(n))
}

// TotalSamples returns the process-lifetime sample count.
func TotalSamples() int64 {
	return totalSamples.Load()
}
