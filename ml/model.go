package ml

// MLModel is satisfied by every classifier LoadModel can return.
type MLModel interface {
	Train(features [][]float64, labels []int) error
	Predict(features []float64) (int, float64, error)
	Save(path string) error
	Load(path string) error
}

// BatchClassifier returns the arg-max class and the class distribution for every row.
type BatchClassifier interface {
	Classify(features [][]float64) ([]int, [][]float64, error)
}
