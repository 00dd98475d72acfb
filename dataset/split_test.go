package dataset

import (
	"errors"
	"sort"
	"testing"
)

func numberedDataset(n int) *Dataset {
	ds := &Dataset{Features: make([][]float64, n), Labels: make([]int, n)}
	for i := 0; i < n; i++ {
		ds.Features[i] = []float64{float64(i)}
		ds.Labels[i] = i % 2
	}
	return ds
}

func TestSplitSizes(t *testing.T) {
	tests := []struct {
		name      string
		rows      int
		ratio     float64
		wantTrain int
		wantTest  int
	}{
		{name: "eighty twenty", rows: 10, ratio: 0.2, wantTrain: 8, wantTest: 2},
		{name: "test size rounds up", rows: 5, ratio: 0.3, wantTrain: 3, wantTest: 2},
		{name: "train keeps one row", rows: 2, ratio: 0.9, wantTrain: 1, wantTest: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			train, test, err := Split(numberedDataset(tt.rows), tt.ratio, 42)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if train.Len() != tt.wantTrain || test.Len() != tt.wantTest {
				t.Fatalf("expected %d/%d, got %d/%d", tt.wantTrain, tt.wantTest, train.Len(), test.Len())
			}
		})
	}
}

func TestSplitKeepsEveryRow(t *testing.T) {
	train, test, err := Split(numberedDataset(25), 0.2, 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var seen []int
	for _, part := range []*Dataset{train, test} {
		for i, row := range part.Features {
			value := int(row[0])
			if part.Labels[i] != value%2 {
				t.Fatalf("row %d lost its label: got %d", value, part.Labels[i])
			}
			seen = append(seen, value)
		}
	}
	sort.Ints(seen)
	for i, value := range seen {
		if value != i {
			t.Fatalf("expected rows 0..24 exactly once, got %v", seen)
		}
	}
}

func TestSplitDeterministic(t *testing.T) {
	ds := numberedDataset(30)
	firstTrain, firstTest, err := Split(ds, 0.2, 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	secondTrain, secondTest, err := Split(ds, 0.2, 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := range firstTrain.Features {
		if firstTrain.Features[i][0] != secondTrain.Features[i][0] {
			t.Fatalf("train row %d differs between runs", i)
		}
	}
	for i := range firstTest.Features {
		if firstTest.Features[i][0] != secondTest.Features[i][0] {
			t.Fatalf("test row %d differs between runs", i)
		}
	}

	otherTrain, _, err := Split(ds, 0.2, 43)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	same := true
	for i := range otherTrain.Features {
		if otherTrain.Features[i][0] != firstTrain.Features[i][0] {
			same = false
			break
		}
	}
	if same {
		t.Fatal("expected a different order for a different seed")
	}
}

func TestSplitErrors(t *testing.T) {
	for _, ratio := range []float64{0, 1, -0.1, 1.5} {
		if _, _, err := Split(numberedDataset(10), ratio, 1); err == nil {
			t.Fatalf("ratio %v: expected error", ratio)
		}
	}
	if _, _, err := Split(numberedDataset(1), 0.5, 1); !errors.Is(err, ErrFormat) {
		t.Fatalf("expected ErrFormat for a single row, got %v", err)
	}
}
