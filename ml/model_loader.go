package ml

import (
	"fmt"
)

func LoadModel(modelType, path string) (MLModel, error) {
	switch modelType {
	case "random_forest", "":
		return LoadForest(path)
	case "decision_tree":
		model := &DecisionTree{}
		if err := model.Load(path); err != nil {
			return nil, err
		}
		return model, nil
	default:
		return nil, fmt.Errorf("unsupported model type %q", modelType)
	}
}
