package artifacts

import "fmt"

// LoadError reports an artifact that could not be fetched or decoded.
// It aborts the invocation; the fetch layer has already retried.
type LoadError struct {
	Key string
	Err error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load artifact %s: %v", e.Key, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
