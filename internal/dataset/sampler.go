package dataset

import (
	"fmt"
	"math/rand/v2"

	"tradedash/internal/models"
)

const (
	DefaultSampleSize        = 3001
	DefaultSeed       uint64 = 55040
)

// NewRand returns the generator the sampler draws from. The same seed always
// yields the same sequence.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed))
}

// SampleIndices picks n distinct indices from [0, total) uniformly with a
// partial Fisher-Yates shuffle, in draw order.
func SampleIndices(total, n int, rng *rand.Rand) ([]int, error) {
	if n <= 0 {
		return nil, fmt.Errorf("sample size must be positive, got %d", n)
	}
	if total < n {
		return nil, &InsufficientRowsError{Have: total, Need: n}
	}

	idx := make([]int, total)
	for i := range idx {
		idx[i] = i
	}
	for i := 0; i < n; i++ {
		j := i + rng.IntN(total-i)
		idx[i], idx[j] = idx[j], idx[i]
	}
	return idx[:n:n], nil
}

// Sample draws n rows of table. It does not modify table.
func Sample(table *Table, n int, rng *rand.Rand) ([]models.Transaction, error) {
	idx, err := SampleIndices(table.Len(), n, rng)
	if err != nil {
		return nil, err
	}

	rows := make([]models.Transaction, n)
	for i, j := range idx {
		rows[i] = table.Rows[j]
	}
	return rows, nil
}
