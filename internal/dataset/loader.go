package dataset

import (
	"context"
	"fmt"
	"sync"

	"gorgonia.org/tensor"
)

// Batch is one loader batch: a 1-D int64 tensor of dataset indices plus the
// batch ordinal assigned by the loader.
type Batch struct {
	Ordinal int
	Indices *tensor.Dense
}

// LoaderOptions configures batching and parallelism.
type LoaderOptions struct {
	// BatchSize is the loader batch width. The profiling harness uses 1:
	// batching real work is the synth's job, not the loader's.
	BatchSize int

	// NumWorkers is the number of goroutines building batches. Zero means
	// the loader runs fully sequential on the caller's schedule.
	NumWorkers int

	// Buffer is the output channel depth.
	Buffer int
}

// Loader yields dataset indices wrapped into batches, in dataset order.
type Loader struct {
	ds   *IndexDataset
	opts LoaderOptions
}

// NewLoader creates a loader over ds.
func NewLoader(ds *IndexDataset, opts LoaderOptions) (*Loader, error) {
	if ds == nil {
		return nil, fmt.Errorf("loader: dataset is nil")
	}
	if opts.BatchSize <= 0 {
		return nil, fmt.Errorf("loader: batch size must be positive (got %d)", opts.BatchSize)
	}
	if opts.NumWorkers < 0 {
		return nil, fmt.Errorf("loader: num workers must be non-negative (got %d)", opts.NumWorkers)
	}
	if opts.Buffer <= 0 {
		opts.Buffer = 2 * (opts.NumWorkers + 1)
	}
	return &Loader{ds: ds, opts: opts}, nil
}

// NumBatches returns the number of batches one full pass yields.
func (l *Loader) NumBatches() int {
	return (l.ds.Len() + l.opts.BatchSize - 1) / l.opts.BatchSize
}

// Batches starts the pipeline and returns the batch stream. Both channels
// close once the pass completes, errors out, or ctx is cancelled. Batches
// arrive in ordinal order regardless of worker count.
func (l *Loader) Batches(ctx context.Context) (<-chan Batch, <-chan error) {
	out := make(chan Batch, l.opts.Buffer)
	errCh := make(chan error, 1)

	if l.opts.NumWorkers == 0 {
		go l.runSequential(ctx, out, errCh)
		return out, errCh
	}

	go l.runWorkers(ctx, out, errCh)
	return out, errCh
}

func (l *Loader) runSequential(ctx context.Context, out chan<- Batch, errCh chan<- error) {
	defer close(out)
	defer close(errCh)

	for b := 0; b < l.NumBatches(); b++ {
		batch, err := l.build(b)
		if err != nil {
			errCh <- err
			return
		}
		select {
		case <-ctx.Done():
			return
		case out <- batch:
		}
	}
}

func (l *Loader) runWorkers(ctx context.Context, out chan<- Batch, errCh chan<- error) {
	defer close(out)
	defer close(errCh)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan int, l.opts.NumWorkers)
	built := make(chan Batch, l.opts.NumWorkers*2)
	buildErr := make(chan error, l.opts.NumWorkers)

	go func() {
		defer close(jobs)
		for b := 0; b < l.NumBatches(); b++ {
			select {
			case <-ctx.Done():
				return
			case jobs <- b:
			}
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < l.opts.NumWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case b, ok := <-jobs:
					if !ok {
						return
					}
					batch, err := l.build(b)
					if err != nil {
						select {
						case buildErr <- err:
						default:
						}
						cancel()
						return
					}
					select {
					case <-ctx.Done():
						return
					case built <- batch:
					}
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(built)
	}()

	// Reorder buffer: workers finish out of order, consumers see ordinal order.
	pending := make(map[int]Batch)
	next := 0
	for batch := range built {
		pending[batch.Ordinal] = batch
		for {
			ready, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)
			select {
			case <-ctx.Done():
				return
			case out <- ready:
				next++
			}
		}
	}

	select {
	case err := <-buildErr:
		errCh <- err
	default:
	}
}

func (l *Loader) build(b int) (Batch, error) {
	start := b * l.opts.BatchSize
	end := start + l.opts.BatchSize
	if end > l.ds.Len() {
		end = l.ds.Len()
	}
	backing := make([]int64, 0, end-start)
	for i := start; i < end; i++ {
		v, err := l.ds.Get(i)
		if err != nil {
			return Batch{}, err
		}
		backing = append(backing, v)
	}
	indices := tensor.New(tensor.WithShape(len(backing)), tensor.WithBacking(backing))
	return Batch{Ordinal: b, Indices: indices}, nil
}
