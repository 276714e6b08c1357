package model

import (
	"fmt"
	"strings"
)

// FeatureMismatchError reports an assembled row the scaler refuses:
// wrong columns, wrong order, or values that are not finite numbers.
type FeatureMismatchError struct {
	Columns []string
	Reason  string
}

func (e *FeatureMismatchError) Error() string {
	return fmt.Sprintf("feature mismatch (%s): %s", e.Reason, strings.Join(e.Columns, ", "))
}

// PredictionError reports a failed regressor call.
type PredictionError struct {
	Err error
}

func (e *PredictionError) Error() string {
	return fmt.Sprintf("prediction failed: %v", e.Err)
}

func (e *PredictionError) Unwrap() error {
	return e.Err
}
