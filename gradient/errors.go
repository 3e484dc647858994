package gradient

import (
	"errors"
	"fmt"

	"github.com/aouyang1/go-descent/dataset"
)

// ErrInvalidInput is the single failure kind of a fit, shared with the dataset validation. Every
// validation error below wraps it so callers can match with errors.Is(err, ErrInvalidInput).
var ErrInvalidInput = dataset.ErrInvalidInput

var (
	ErrNoSamples               = dataset.ErrNoSamples
	ErrNonFiniteSample         = dataset.ErrNonFinite
	ErrNonPositiveLearningRate = fmt.Errorf("learning rate must be positive and finite, %w", ErrInvalidInput)
	ErrNegativeEpochs          = fmt.Errorf("negative epochs, %w", ErrInvalidInput)
	ErrUnknownRule             = fmt.Errorf("unknown update rule, %w", ErrInvalidInput)
)

// ErrDiverged is returned when HaltOnDivergence is set and the parameters stop being finite
var ErrDiverged = errors.New("parameters diverged")
