package ml

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/floats"
)

const minGain = 1e-12

type TreeConfig struct {
	NumClasses  int   `json:"num_classes"`
	MinLeafSize int   `json:"min_leaf_size"`
	MaxFeatures int   `json:"max_features"`
	Seed        int64 `json:"seed"`
}

// DecisionTree stores its nodes flat. Node 0 is the root and children always follow their parent.
type DecisionTree struct {
	config    TreeConfig
	dimension int
	nodes     []TreeNode
}

type TreeNode struct {
	FeatureIdx   int       `json:"feature_idx"`
	Threshold    float64   `json:"threshold"`
	LeftChild    int       `json:"left_child"`
	RightChild   int       `json:"right_child"`
	IsLeaf       bool      `json:"is_leaf"`
	Distribution []float64 `json:"distribution,omitempty"`
}

func NewDecisionTree(config TreeConfig) *DecisionTree {
	if config.NumClasses < 2 {
		config.NumClasses = 2
	}
	if config.MinLeafSize <= 0 {
		config.MinLeafSize = 1
	}
	return &DecisionTree{config: config}
}

// Train grows the tree on every row, considering MaxFeatures random dimensions per split
// (all of them when MaxFeatures is zero).
func (dt *DecisionTree) Train(features [][]float64, labels []int) error {
	dimension, err := validateTrainingSet(features, labels, dt.config.NumClasses)
	if err != nil {
		return err
	}
	indices := make([]int, len(features))
	for i := range indices {
		indices[i] = i
	}
	rng := rand.New(rand.NewSource(dt.config.Seed))
	dt.grow(features, labels, indices, dimension, rng)
	return nil
}

func (dt *DecisionTree) Predict(features []float64) (int, float64, error) {
	dist, err := dt.Distribution(features)
	if err != nil {
		return 0, 0, err
	}
	label := floats.MaxIdx(dist)
	return label, dist[label], nil
}

// Distribution returns the class distribution of the leaf features lands in.
func (dt *DecisionTree) Distribution(features []float64) ([]float64, error) {
	if len(dt.nodes) == 0 {
		return nil, ErrNotTrained
	}
	if len(features) != dt.dimension {
		return nil, fmt.Errorf("%w: expected %d features, got %d", ErrDimension, dt.dimension, len(features))
	}
	return append([]float64(nil), dt.leaf(features)...), nil
}

func (dt *DecisionTree) leaf(features []float64) []float64 {
	idx := 0
	for {
		node := &dt.nodes[idx]
		if node.IsLeaf {
			return node.Distribution
		}
		if features[node.FeatureIdx] <= node.Threshold {
			idx = node.LeftChild
		} else {
			idx = node.RightChild
		}
	}
}

func (dt *DecisionTree) NodeCount() int {
	return len(dt.nodes)
}

func (dt *DecisionTree) grow(features [][]float64, labels []int, indices []int, dimension int, rng *rand.Rand) {
	b := &treeBuilder{
		features:    features,
		labels:      labels,
		numClasses:  dt.config.NumClasses,
		minLeafSize: dt.config.MinLeafSize,
		maxFeatures: resolveMaxFeatures(dt.config.MaxFeatures, dimension),
		dimension:   dimension,
		rng:         rng,
	}
	b.build(indices)
	dt.dimension = dimension
	dt.nodes = b.nodes
}

type treeBuilder struct {
	features    [][]float64
	labels      []int
	numClasses  int
	minLeafSize int
	maxFeatures int
	dimension   int
	rng         *rand.Rand
	nodes       []TreeNode
}

func (b *treeBuilder) build(indices []int) int {
	idx := len(b.nodes)
	b.nodes = append(b.nodes, TreeNode{})

	counts := b.classCounts(indices)
	if len(indices) <= b.minLeafSize || isPure(counts) {
		b.nodes[idx] = leafNode(counts, len(indices))
		return idx
	}

	feature, threshold, ok := b.bestSplit(indices, counts)
	if !ok {
		b.nodes[idx] = leafNode(counts, len(indices))
		return idx
	}

	left, right := b.partition(indices, feature, threshold)
	if len(left) == 0 || len(right) == 0 {
		b.nodes[idx] = leafNode(counts, len(indices))
		return idx
	}

	leftIdx := b.build(left)
	rightIdx := b.build(right)
	b.nodes[idx] = TreeNode{
		FeatureIdx: feature,
		Threshold:  threshold,
		LeftChild:  leftIdx,
		RightChild: rightIdx,
	}
	return idx
}

// bestSplit scans midpoints between consecutive distinct values of each candidate feature and
// keeps the one with the largest Gini decrease.
func (b *treeBuilder) bestSplit(indices []int, counts []int) (int, float64, bool) {
	total := len(indices)
	parent := gini(counts, total)
	bestFeature := -1
	bestThreshold := 0.0
	bestGain := minGain

	candidates := b.rng.Perm(b.dimension)[:b.maxFeatures]
	sorted := make([]int, total)
	leftCounts := make([]int, b.numClasses)
	rightCounts := make([]int, b.numClasses)

	for _, featureIdx := range candidates {
		copy(sorted, indices)
		sort.Slice(sorted, func(i, j int) bool {
			return b.features[sorted[i]][featureIdx] < b.features[sorted[j]][featureIdx]
		})
		for k := range leftCounts {
			leftCounts[k] = 0
		}
		copy(rightCounts, counts)

		for k := 0; k < total-1; k++ {
			label := b.labels[sorted[k]]
			leftCounts[label]++
			rightCounts[label]--

			value := b.features[sorted[k]][featureIdx]
			next := b.features[sorted[k+1]][featureIdx]
			if value == next {
				continue
			}
			leftN := k + 1
			rightN := total - leftN
			weighted := (float64(leftN)*gini(leftCounts, leftN) + float64(rightN)*gini(rightCounts, rightN)) / float64(total)
			gain := parent - weighted
			if gain > bestGain {
				bestGain = gain
				bestFeature = featureIdx
				bestThreshold = value + (next-value)/2
				if bestThreshold >= next {
					bestThreshold = value
				}
			}
		}
	}
	if bestFeature == -1 {
		return -1, 0, false
	}
	return bestFeature, bestThreshold, true
}

func (b *treeBuilder) partition(indices []int, featureIdx int, threshold float64) ([]int, []int) {
	left := make([]int, 0, len(indices))
	right := make([]int, 0, len(indices))
	for _, i := range indices {
		if b.features[i][featureIdx] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	return left, right
}

func (b *treeBuilder) classCounts(indices []int) []int {
	counts := make([]int, b.numClasses)
	for _, i := range indices {
		counts[b.labels[i]]++
	}
	return counts
}

func leafNode(counts []int, total int) TreeNode {
	dist := make([]float64, len(counts))
	if total > 0 {
		for k, c := range counts {
			dist[k] = float64(c) / float64(total)
		}
	}
	return TreeNode{FeatureIdx: -1, LeftChild: -1, RightChild: -1, IsLeaf: true, Distribution: dist}
}

func gini(counts []int, total int) float64 {
	if total == 0 {
		return 0
	}
	impurity := 1.0
	for _, c := range counts {
		p := float64(c) / float64(total)
		impurity -= p * p
	}
	return impurity
}

func isPure(counts []int) bool {
	nonZero := 0
	for _, c := range counts {
		if c > 0 {
			nonZero++
		}
	}
	return nonZero <= 1
}

func resolveMaxFeatures(maxFeatures, dimension int) int {
	if maxFeatures <= 0 || maxFeatures > dimension {
		return dimension
	}
	return maxFeatures
}

func validateTrainingSet(features [][]float64, labels []int, numClasses int) (int, error) {
	if len(features) == 0 || len(labels) == 0 {
		return 0, ErrEmptyTrainingSet
	}
	if len(features) != len(labels) {
		return 0, fmt.Errorf("features and labels size mismatch: %d rows, %d labels", len(features), len(labels))
	}
	dimension := len(features[0])
	if dimension == 0 {
		return 0, fmt.Errorf("%w: rows have no features", ErrDimension)
	}
	for i, row := range features {
		if len(row) != dimension {
			return 0, fmt.Errorf("%w: row %d has %d features, expected %d", ErrDimension, i, len(row), dimension)
		}
		for _, value := range row {
			if math.IsNaN(value) || math.IsInf(value, 0) {
				return 0, fmt.Errorf("row %d holds non-finite value %v", i, value)
			}
		}
	}
	for i, label := range labels {
		if label < 0 || label >= numClasses {
			return 0, fmt.Errorf("label %d at row %d outside [0, %d)", label, i, numClasses)
		}
	}
	return dimension, nil
}
