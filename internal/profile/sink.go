package profile

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/cyrusvahidi/gosynth/internal/logger"
)

// Record is one profiled forward pass.
type Record struct {
	BatchIdx  int64
	ForwardNS int64
	Samples   int64
}

// Sink buffers per-forward timing records and flushes them as an Arrow IPC
// stream, one row per callback forward. A sink with an empty path is
// disabled: Record becomes a no-op and Flush writes nothing.
type Sink struct {
	mu      sync.Mutex
	path    string
	records []Record
}

func NewSink(path string) *Sink {
	return &Sink{path: path}
}

func (s *Sink) Enabled() bool {
	return s != nil && s.path != ""
}

// Record appends one timing record. Safe for concurrent use; sharded runs
// record from every device worker.
func (s *Sink) Record(batchIdx int64, forward time.Duration, samples int64) {
	if !s.Enabled() {
		return
	}
	s.mu.Lock()
	s.records = append(s.records, Record{
		BatchIdx:  batchIdx,
		ForwardNS: forward.Nanoseconds(),
		Samples:   samples,
	})
	s.mu.Unlock()
}

func (s *Sink) Len() int {
	if s == nil {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Flush writes all buffered records to the configured path and clears the
// buffer.
func (s *Sink) Flush() error {
	if !s.Enabled() {
		return nil
	}
	s.mu.Lock()
	records := s.records
	s.records = nil
	s.mu.Unlock()

	f, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("profile: create %s: %w", s.path, err)
	}
	defer f.Close()

	if err := WriteIPC(f, records); err != nil {
		return fmt.Errorf("profile: write %s: %w", s.path, err)
	}
	logger.Log.Info("profile flushed", "path", s.path, "records", len(records))
	return nil
}

// Schema describes one profiled forward per row.
func Schema() *arrow.Schema {
	return arrow.NewSchema([]arrow.Field{
		{Name: "batch_idx", Type: arrow.PrimitiveTypes.Int64},
		{Name: "forward_ns", Type: arrow.PrimitiveTypes.Int64},
		{Name: "samples", Type: arrow.PrimitiveTypes.Int64},
	}, nil)
}

// WriteIPC encodes records as an Arrow IPC stream.
func WriteIPC(w io.Writer, records []Record) error {
	pool := memory.NewGoAllocator()
	schema := Schema()

	builder := array.NewRecordBuilder(pool, schema)
	defer builder.Release()

	idx := builder.Field(0).(*array.Int64Builder)
	ns := builder.Field(1).(*array.Int64Builder)
	samples := builder.Field(2).(*array.Int64Builder)
	for _, r := range records {
		idx.Append(r.BatchIdx)
		ns.Append(r.ForwardNS)
		samples.Append(r.Samples)
	}

	rec := builder.NewRecord()
	defer rec.Release()

	writer := ipc.NewWriter(w, ipc.WithSchema(schema), ipc.WithAllocator(pool))
	if err := writer.Write(rec); err != nil {
		writer.Close()
		return err
	}
	return writer.Close()
}

// ReadIPC decodes an Arrow IPC stream written by WriteIPC.
func ReadIPC(r io.Reader) ([]Record, error) {
	reader, err := ipc.NewReader(r, ipc.WithAllocator(memory.NewGoAllocator()))
	if err != nil {
		return nil, err
	}
	defer reader.Release()

	var records []Record
	for reader.Next() {
		rec := reader.Record()
		idx := rec.Column(0).(*array.Int64)
		ns := rec.Column(1).(*array.Int64)
		samples := rec.Column(2).(*array.Int64)
		for i := 0; i < int(rec.NumRows()); i++ {
			records = append(records, Record{
				BatchIdx:  idx.Value(i),
				ForwardNS: ns.Value(i),
				Samples:   samples.Value(i),
			})
		}
	}
	if err := reader.Err(); err != nil {
		return nil, err
	}
	return records, nil
}
