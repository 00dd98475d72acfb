package dataset

import (
	"fmt"
	"math"
)

// Row is a parsed record before it is accepted into a Dataset.
type Row struct {
	Line     int
	Features []float64
	Label    int
	HasLabel bool
}

type RowRule interface {
	Check(Row) error
	Name() string
}

type ValidationStats struct {
	Processed int64
	Rejected  int64
	Issues    map[string]int64
}

// Validator runs every rule on each row and reports the first failure as ErrFormat.
type Validator struct {
	rules []RowRule
	stats ValidationStats
}

func NewValidator(numClasses int) *Validator {
	v := &Validator{
		stats: ValidationStats{Issues: make(map[string]int64)},
	}
	v.AddRule(FiniteRule{})
	v.AddRule(LabelRule{NumClasses: numClasses})
	return v
}

func (v *Validator) AddRule(rule RowRule) {
	v.rules = append(v.rules, rule)
}

func (v *Validator) Check(row Row) error {
	v.stats.Processed++
	for _, rule := range v.rules {
		if err := rule.Check(row); err != nil {
			v.stats.Rejected++
			v.stats.Issues[rule.Name()]++
			return fmt.Errorf("%w: line %d: %s: %v", ErrFormat, row.Line, rule.Name(), err)
		}
	}
	return nil
}

func (v *Validator) Stats() ValidationStats {
	return v.stats
}

// FiniteRule rejects NaN and infinite feature values.
type FiniteRule struct{}

func (FiniteRule) Name() string {
	return "finite_values"
}

func (FiniteRule) Check(row Row) error {
	for i, value := range row.Features {
		if math.IsNaN(value) || math.IsInf(value, 0) {
			return fmt.Errorf("column %d holds non-finite value %v", i+1, value)
		}
	}
	return nil
}

// LabelRule requires labels in [0, NumClasses).
type LabelRule struct {
	NumClasses int
}

func (LabelRule) Name() string {
	return "label_range"
}

func (r LabelRule) Check(row Row) error {
	if !row.HasLabel {
		return nil
	}
	if row.Label < 0 || row.Label >= r.NumClasses {
		return fmt.Errorf("label %d outside [0, %d)", row.Label, r.NumClasses)
	}
	return nil
}
