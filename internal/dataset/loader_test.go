package dataset

import (
	"context"
	"testing"
	"time"
)

func collect(t *testing.T, out <-chan Batch, errCh <-chan error) []Batch {
	t.Helper()
	var batches []Batch
	for b := range out {
		batches = append(batches, b)
	}
	if err, ok := <-errCh; ok && err != nil {
		t.Fatalf("loader error: %v", err)
	}
	return batches
}

// Data() yields the bare element for one-element tensors.
func batchIndices(t *testing.T, b Batch) []int64 {
	t.Helper()
	switch data := b.Indices.Data().(type) {
	case []int64:
		return data
	case int64:
		return []int64{data}
	}
	t.Fatalf("batch %d: unexpected backing type %T", b.Ordinal, b.Indices.Data())
	return nil
}

func TestLoaderSequential(t *testing.T) {
	ds, _ := NewIndexDataset(10)
	loader, err := NewLoader(ds, LoaderOptions{BatchSize: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loader.NumBatches() != 10 {
		t.Fatalf("NumBatches() = %d, want 10", loader.NumBatches())
	}

	out, errCh := loader.Batches(context.Background())
	batches := collect(t, out, errCh)

	if len(batches) != 10 {
		t.Fatalf("got %d batches, want 10", len(batches))
	}
	for i, b := range batches {
		if b.Ordinal != i {
			t.Errorf("batch %d: ordinal = %d", i, b.Ordinal)
		}
		if b.Indices.Dims() != 1 {
			t.Errorf("batch %d: dims = %d, want 1", i, b.Indices.Dims())
		}
		data := batchIndices(t, b)
		if len(data) != 1 || data[0] != int64(i) {
			t.Errorf("batch %d: indices = %v", i, data)
		}
	}
}

func TestLoaderWideBatches(t *testing.T) {
	ds, _ := NewIndexDataset(10)
	loader, err := NewLoader(ds, LoaderOptions{BatchSize: 4})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loader.NumBatches() != 3 {
		t.Fatalf("NumBatches() = %d, want 3", loader.NumBatches())
	}

	out, errCh := loader.Batches(context.Background())
	batches := collect(t, out, errCh)

	if len(batches) != 3 {
		t.Fatalf("got %d batches, want 3", len(batches))
	}
	// Last batch is short.
	last := batchIndices(t, batches[2])
	if len(last) != 2 || last[0] != 8 || last[1] != 9 {
		t.Errorf("last batch = %v, want [8 9]", last)
	}
}

func TestLoaderWorkersPreserveOrder(t *testing.T) {
	ds, _ := NewIndexDataset(64)
	loader, err := NewLoader(ds, LoaderOptions{BatchSize: 1, NumWorkers: 4})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out, errCh := loader.Batches(context.Background())
	batches := collect(t, out, errCh)

	if len(batches) != 64 {
		t.Fatalf("got %d batches, want 64", len(batches))
	}
	for i, b := range batches {
		if b.Ordinal != i {
			t.Fatalf("batch %d out of order: ordinal %d", i, b.Ordinal)
		}
	}
}

func TestLoaderCancel(t *testing.T) {
	ds, _ := NewIndexDataset(1 << 20)
	loader, _ := NewLoader(ds, LoaderOptions{BatchSize: 1})

	ctx, cancel := context.WithCancel(context.Background())
	out, _ := loader.Batches(ctx)

	<-out
	cancel()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-out:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("loader did not close after cancel")
		}
	}
}

func TestLoaderInvalidOptions(t *testing.T) {
	ds, _ := NewIndexDataset(4)

	if _, err := NewLoader(nil, LoaderOptions{BatchSize: 1}); err == nil {
		t.Error("expected error for nil dataset")
	}
	if _, err := NewLoader(ds, LoaderOptions{BatchSize: 0}); err == nil {
		t.Error("expected error for zero batch size")
	}
	if _, err := NewLoader(ds, LoaderOptions{BatchSize: 1, NumWorkers: -1}); err == nil {
		t.Error("expected error for negative workers")
	}
}
