package metrics

import (
	"testing"
	"time"
)

func TestRecordForward(t *testing.T) {
	before := TotalSamples()
	RecordForward(64*176400, 150*time.Millisecond)
	after := TotalSamples()
	if after-before != 64*176400 {
		t.Errorf("TotalSamples delta = %d, want %d", after-before, 64*176400)
	}
}

func TestRecordStage(t *testing.T) {
	// Stage labels must not panic regardless of name.
	RecordStage("envelope", time.Millisecond)
	RecordStage("oscillator", 2*time.Millisecond)
	RecordStage("mix", time.Millisecond)
}

func TestRecordBatchAndCallback(t *testing.T) {
	RecordBatch(time.Microsecond)
	RecordBatch(5 * time.Microsecond)
	RecordCallbackForward()
	RecordShapeViolation()
	RecordBufferBytes(64 * 176400 * 4)
}
