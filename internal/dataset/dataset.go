package dataset

import (
	"errors"
	"fmt"
)

// ErrIndexOutOfRange is returned by Get for indices outside [0, Len()).
var ErrIndexOutOfRange = errors.New("dataset: index out of range")

// IndexDataset is a fixed-length collection whose item at position i is i
// itself. The synth renders from internal parameters, so the loader only
// needs something enumerable to drive repeated forward passes; the index is
// the payload.
type IndexDataset struct {
	n int
}

// NewIndexDataset creates a dataset of n successive indices.
func NewIndexDataset(n int) (*IndexDataset, error) {
	if n <= 0 {
		return nil, fmt.Errorf("dataset: length must be positive (got %d)", n)
	}
	return &IndexDataset{n: n}, nil
}

// Len returns the number of items. It is constant for the dataset's lifetime.
func (d *IndexDataset) Len() int {
	return d.n
}

// Get returns index i unchanged. Pure lookup; no state is touched.
func (d *IndexDataset) Get(i int) (int64, error) {
	if i < 0 || i >= d.n {
		return 0, fmt.Errorf("%w: %d (len %d)", ErrIndexOutOfRange, i, d.n)
	}
	return int64(i), nil
}
