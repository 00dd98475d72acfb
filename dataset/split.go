package dataset

import (
	"fmt"
	"math"
	"math/rand"
)

// Split shuffles ds with a source seeded by seed and moves ceil(testRatio*n) rows to the test set.
// Both sides keep at least one row.
func Split(ds *Dataset, testRatio float64, seed int64) (train, test *Dataset, err error) {
	if math.IsNaN(testRatio) || testRatio <= 0 || testRatio >= 1 {
		return nil, nil, fmt.Errorf("test ratio %v outside (0, 1)", testRatio)
	}
	n := ds.Len()
	if n < 2 {
		return nil, nil, fmt.Errorf("%w: need at least 2 rows to split, got %d", ErrFormat, n)
	}
	if ds.Labels != nil && len(ds.Labels) != n {
		return nil, nil, fmt.Errorf("%w: %d rows but %d labels", ErrFormat, n, len(ds.Labels))
	}

	numTest := int(math.Ceil(testRatio * float64(n)))
	if numTest >= n {
		numTest = n - 1
	}

	order := rand.New(rand.NewSource(seed)).Perm(n)
	test = subset(ds, order[:numTest])
	train = subset(ds, order[numTest:])
	return train, test, nil
}

func subset(ds *Dataset, indices []int) *Dataset {
	out := &Dataset{
		Header:   ds.Header,
		Features: make([][]float64, len(indices)),
	}
	if ds.Labels != nil {
		out.Labels = make([]int, len(indices))
	}
	for i, idx := range indices {
		out.Features[i] = ds.Features[idx]
		if ds.Labels != nil {
			out.Labels[i] = ds.Labels[idx]
		}
	}
	return out
}
