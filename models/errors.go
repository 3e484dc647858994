package models

import (
	"errors"
)

var (
	ErrNoOptions           = errors.New("no initialized model options")
	ErrNoTrainingData      = errors.New("no training data")
	ErrNoDesignMatrix      = errors.New("no design matrix for inference")
	ErrUnfitModel          = errors.New("model has not been fit")
	ErrInsufficientSamples = errors.New("fewer samples than coefficients")
	ErrSingularDesign      = errors.New("design matrix is rank deficient")
)
