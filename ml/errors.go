package ml

import "errors"

var (
	ErrDimension        = errors.New("feature dimension mismatch")
	ErrModelNotFound    = errors.New("model not found")
	ErrCorruptModel     = errors.New("corrupt model")
	ErrIO               = errors.New("model io error")
	ErrNotTrained       = errors.New("model not trained")
	ErrEmptyTrainingSet = errors.New("features or labels empty")
)
