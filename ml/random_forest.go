package ml

import (
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"sync"

	"gonum.org/v1/gonum/floats"
)

type ForestConfig struct {
	NumClasses  int   `json:"num_classes"`
	NumTrees    int   `json:"num_trees"`
	MinLeafSize int   `json:"min_leaf_size"`
	MaxFeatures int   `json:"max_features"`
	Seed        int64 `json:"seed"`
	// Workers bounds parallel tree construction. Zero means runtime.NumCPU().
	Workers int `json:"-"`
}

func DefaultForestConfig() ForestConfig {
	return ForestConfig{
		NumClasses:  2,
		NumTrees:    50,
		MinLeafSize: 5,
		Seed:        42,
	}
}

var (
	_ MLModel         = (*RandomForest)(nil)
	_ BatchClassifier = (*RandomForest)(nil)
	_ MLModel         = (*DecisionTree)(nil)
)

// RandomForest averages the leaf distributions of bootstrap-trained trees.
type RandomForest struct {
	config    ForestConfig
	dimension int
	trees     []*DecisionTree
}

func NewRandomForest(config ForestConfig) *RandomForest {
	defaults := DefaultForestConfig()
	if config.NumClasses < 2 {
		config.NumClasses = defaults.NumClasses
	}
	if config.NumTrees <= 0 {
		config.NumTrees = defaults.NumTrees
	}
	if config.MinLeafSize <= 0 {
		config.MinLeafSize = defaults.MinLeafSize
	}
	if config.MaxFeatures < 0 {
		config.MaxFeatures = 0
	}
	return &RandomForest{config: config}
}

func (rf *RandomForest) Config() ForestConfig {
	return rf.config
}

func (rf *RandomForest) Dimension() int {
	return rf.dimension
}

func (rf *RandomForest) NumTrees() int {
	return len(rf.trees)
}

// Train fits NumTrees trees, each on its own bootstrap sample with its own random source.
// Per-tree seeds come from a master source seeded with Seed, so output does not depend on
// worker scheduling.
func (rf *RandomForest) Train(features [][]float64, labels []int) error {
	dimension, err := validateTrainingSet(features, labels, rf.config.NumClasses)
	if err != nil {
		return err
	}

	numTrees := rf.config.NumTrees
	master := rand.New(rand.NewSource(rf.config.Seed))
	seeds := make([]int64, numTrees)
	for i := range seeds {
		seeds[i] = master.Int63()
	}

	treeConfig := TreeConfig{
		NumClasses:  rf.config.NumClasses,
		MinLeafSize: rf.config.MinLeafSize,
		MaxFeatures: forestMaxFeatures(rf.config.MaxFeatures, dimension),
	}

	workers := rf.config.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > numTrees {
		workers = numTrees
	}

	trees := make([]*DecisionTree, numTrees)
	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				rng := rand.New(rand.NewSource(seeds[i]))
				config := treeConfig
				config.Seed = seeds[i]
				tree := NewDecisionTree(config)
				tree.grow(features, labels, bootstrap(len(features), rng), dimension, rng)
				trees[i] = tree
			}
		}()
	}
	for i := range trees {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	rf.dimension = dimension
	rf.trees = trees
	return nil
}

// Classify routes every row through all trees and averages the leaf distributions.
func (rf *RandomForest) Classify(features [][]float64) ([]int, [][]float64, error) {
	if len(rf.trees) == 0 {
		return nil, nil, ErrNotTrained
	}
	for i, row := range features {
		if len(row) != rf.dimension {
			return nil, nil, fmt.Errorf("%w: row %d has %d features, model expects %d", ErrDimension, i, len(row), rf.dimension)
		}
	}

	predictions := make([]int, len(features))
	probabilities := make([][]float64, len(features))
	for i, row := range features {
		dist := rf.average(row)
		predictions[i] = floats.MaxIdx(dist)
		probabilities[i] = dist
	}
	return predictions, probabilities, nil
}

func (rf *RandomForest) ClassifyRow(row []float64) (int, []float64, error) {
	predictions, probabilities, err := rf.Classify([][]float64{row})
	if err != nil {
		return 0, nil, err
	}
	return predictions[0], probabilities[0], nil
}

func (rf *RandomForest) Predict(features []float64) (int, float64, error) {
	label, dist, err := rf.ClassifyRow(features)
	if err != nil {
		return 0, 0, err
	}
	return label, dist[label], nil
}

func (rf *RandomForest) average(row []float64) []float64 {
	sum := make([]float64, rf.config.NumClasses)
	for _, tree := range rf.trees {
		floats.Add(sum, tree.leaf(row))
	}
	n := float64(len(rf.trees))
	for k := range sum {
		sum[k] /= n
	}
	return sum
}

func bootstrap(n int, rng *rand.Rand) []int {
	sample := make([]int, n)
	for i := range sample {
		sample[i] = rng.Intn(n)
	}
	return sample
}

// forestMaxFeatures defaults to floor(sqrt(d)) candidate dimensions per split.
func forestMaxFeatures(maxFeatures, dimension int) int {
	if maxFeatures > 0 {
		return resolveMaxFeatures(maxFeatures, dimension)
	}
	m := int(math.Sqrt(float64(dimension)))
	if m < 1 {
		m = 1
	}
	return m
}
