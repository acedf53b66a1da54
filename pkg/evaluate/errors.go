package evaluate

import (
	"errors"
	"fmt"
)

var (
	// ErrInputShape is returned when ground truth and predictions are not
	// aligned one to one.
	ErrInputShape = errors.New("evaluate: ground truth and predictions differ in length")

	// ErrDegenerateMetric is returned when every ground-truth set is empty,
	// leaving recall without a denominator.
	ErrDegenerateMetric = errors.New("evaluate: no samples with ground truth")

	// ErrEmptyGrid is returned when a search is given no thresholds.
	ErrEmptyGrid = errors.New("evaluate: empty threshold grid")
)

// SampleError ties a failure to the sample that caused it.
type SampleError struct {
	Index int
	Gene  string
	Err   error
}

func (e *SampleError) Error() string {
	if e.Gene != "" {
		return fmt.Sprintf("sample %d (%s): %v", e.Index, e.Gene, e.Err)
	}
	return fmt.Sprintf("sample %d: %v", e.Index, e.Err)
}

func (e *SampleError) Unwrap() error {
	return e.Err
}
