package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
)

const (
	forestFormat  = "vulnforest/random-forest"
	treeFormat    = "vulnforest/decision-tree"
	formatVersion = 1
)

type forestFile struct {
	Format    string       `json:"format"`
	Version   int          `json:"version"`
	Config    ForestConfig `json:"config"`
	Dimension int          `json:"dimension"`
	Trees     [][]TreeNode `json:"trees"`
}

type treeFile struct {
	Format    string     `json:"format"`
	Version   int        `json:"version"`
	Config    TreeConfig `json:"config"`
	Dimension int        `json:"dimension"`
	Nodes     []TreeNode `json:"nodes"`
}

func (rf *RandomForest) Save(path string) error {
	if len(rf.trees) == 0 {
		return ErrNotTrained
	}
	file := forestFile{
		Format:    forestFormat,
		Version:   formatVersion,
		Config:    rf.config,
		Dimension: rf.dimension,
		Trees:     make([][]TreeNode, len(rf.trees)),
	}
	for i, tree := range rf.trees {
		file.Trees[i] = tree.nodes
	}
	return writeJSON(path, file)
}

func (rf *RandomForest) Load(path string) error {
	payload, err := readModel(path)
	if err != nil {
		return err
	}
	var file forestFile
	if err := json.Unmarshal(payload, &file); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrCorruptModel, path, err)
	}
	if err := file.validate(); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrCorruptModel, path, err)
	}

	trees := make([]*DecisionTree, len(file.Trees))
	for i, nodes := range file.Trees {
		trees[i] = &DecisionTree{
			config: TreeConfig{
				NumClasses:  file.Config.NumClasses,
				MinLeafSize: file.Config.MinLeafSize,
				MaxFeatures: forestMaxFeatures(file.Config.MaxFeatures, file.Dimension),
			},
			dimension: file.Dimension,
			nodes:     nodes,
		}
	}
	rf.config = file.Config
	rf.dimension = file.Dimension
	rf.trees = trees
	return nil
}

// LoadForest reads a forest written by Save.
func LoadForest(path string) (*RandomForest, error) {
	rf := &RandomForest{}
	if err := rf.Load(path); err != nil {
		return nil, err
	}
	return rf, nil
}

func (dt *DecisionTree) Save(path string) error {
	if len(dt.nodes) == 0 {
		return ErrNotTrained
	}
	return writeJSON(path, treeFile{
		Format:    treeFormat,
		Version:   formatVersion,
		Config:    dt.config,
		Dimension: dt.dimension,
		Nodes:     dt.nodes,
	})
}

func (dt *DecisionTree) Load(path string) error {
	payload, err := readModel(path)
	if err != nil {
		return err
	}
	var file treeFile
	if err := json.Unmarshal(payload, &file); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrCorruptModel, path, err)
	}
	if file.Format != treeFormat || file.Version != formatVersion {
		return fmt.Errorf("%w: %s: unexpected format %q version %d", ErrCorruptModel, path, file.Format, file.Version)
	}
	if file.Config.NumClasses < 2 || file.Dimension <= 0 {
		return fmt.Errorf("%w: %s: invalid configuration", ErrCorruptModel, path)
	}
	if err := validateNodes(file.Nodes, file.Dimension, file.Config.NumClasses); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrCorruptModel, path, err)
	}
	dt.config = file.Config
	dt.dimension = file.Dimension
	dt.nodes = file.Nodes
	return nil
}

func (f *forestFile) validate() error {
	if f.Format != forestFormat || f.Version != formatVersion {
		return fmt.Errorf("unexpected format %q version %d", f.Format, f.Version)
	}
	if f.Config.NumClasses < 2 {
		return fmt.Errorf("num_classes %d below 2", f.Config.NumClasses)
	}
	if f.Dimension <= 0 {
		return fmt.Errorf("dimension %d not positive", f.Dimension)
	}
	if len(f.Trees) == 0 || len(f.Trees) != f.Config.NumTrees {
		return fmt.Errorf("num_trees %d but %d trees stored", f.Config.NumTrees, len(f.Trees))
	}
	for i, nodes := range f.Trees {
		if err := validateNodes(nodes, f.Dimension, f.Config.NumClasses); err != nil {
			return fmt.Errorf("tree %d: %v", i, err)
		}
	}
	return nil
}

// validateNodes requires children to point forward so routing always terminates.
func validateNodes(nodes []TreeNode, dimension, numClasses int) error {
	if len(nodes) == 0 {
		return errors.New("tree has no nodes")
	}
	for i, node := range nodes {
		if node.IsLeaf {
			if len(node.Distribution) != numClasses {
				return fmt.Errorf("leaf %d has %d class probabilities, expected %d", i, len(node.Distribution), numClasses)
			}
			sum := 0.0
			for _, p := range node.Distribution {
				if p < 0 || math.IsNaN(p) || math.IsInf(p, 0) {
					return fmt.Errorf("leaf %d has invalid probability %v", i, p)
				}
				sum += p
			}
			if math.Abs(sum-1) > 1e-6 {
				return fmt.Errorf("leaf %d probabilities sum to %v", i, sum)
			}
			continue
		}
		if node.FeatureIdx < 0 || node.FeatureIdx >= dimension {
			return fmt.Errorf("split %d uses feature %d outside [0, %d)", i, node.FeatureIdx, dimension)
		}
		if math.IsNaN(node.Threshold) || math.IsInf(node.Threshold, 0) {
			return fmt.Errorf("split %d has invalid threshold", i)
		}
		if node.LeftChild <= i || node.LeftChild >= len(nodes) {
			return fmt.Errorf("split %d has missing or invalid left child %d", i, node.LeftChild)
		}
		if node.RightChild <= i || node.RightChild >= len(nodes) || node.RightChild == node.LeftChild {
			return fmt.Errorf("split %d has missing or invalid right child %d", i, node.RightChild)
		}
	}
	return nil
}

func writeJSON(path string, v interface{}) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode model: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("%w: %v", ErrIO, err)
		}
	}
	if err := os.WriteFile(path, payload, 0o600); err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	return nil
}

func readModel(path string) ([]byte, error) {
	payload, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}
	return payload, nil
}
