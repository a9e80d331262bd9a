package models

import "errors"

// Custom errors
var (
	ErrNotFound            = errors.New("record not found")
	ErrInvalidDistribution = errors.New("invalid outcome distribution")
	ErrNoTrainingData      = errors.New("no usable training data in batch")
	ErrInvalidPosterior    = errors.New("invalid team posterior")
	ErrModelNotFrozen      = errors.New("model is not frozen for inference")
	ErrUnsupportedSport    = errors.New("unsupported sport")
)
