package ml

import "fmt"

type Metrics struct {
	Total         int     `json:"total"`
	TruePositive  int     `json:"true_positive"`
	FalsePositive int     `json:"false_positive"`
	TrueNegative  int     `json:"true_negative"`
	FalseNegative int     `json:"false_negative"`
	Accuracy      float64 `json:"accuracy"`
	Precision     float64 `json:"precision"`
	Recall        float64 `json:"recall"`
	F1            float64 `json:"f1"`
}

// Evaluate scores predicted against actual, treating positive as the class of interest.
func Evaluate(predicted, actual []int, positive int) (Metrics, error) {
	if len(predicted) != len(actual) {
		return Metrics{}, fmt.Errorf("predictions/labels length mismatch: %d vs %d", len(predicted), len(actual))
	}
	m := Metrics{Total: len(actual)}
	if m.Total == 0 {
		return m, nil
	}

	var correct int
	for i, label := range predicted {
		if label == actual[i] {
			correct++
		}
		switch {
		case label == positive && actual[i] == positive:
			m.TruePositive++
		case label == positive:
			m.FalsePositive++
		case actual[i] == positive:
			m.FalseNegative++
		default:
			m.TrueNegative++
		}
	}

	m.Accuracy = float64(correct) / float64(m.Total)
	if predictedPositive := m.TruePositive + m.FalsePositive; predictedPositive > 0 {
		m.Precision = float64(m.TruePositive) / float64(predictedPositive)
	}
	if actualPositive := m.TruePositive + m.FalseNegative; actualPositive > 0 {
		m.Recall = float64(m.TruePositive) / float64(actualPositive)
	}
	if m.Precision+m.Recall > 0 {
		m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
	}
	return m, nil
}
