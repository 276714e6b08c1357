package drivers

import (
	"context"
	"fmt"
	"io"
)

// Source is the read side of an artifact store. Artifacts are published by
// the training job; this service only ever reads them.
type Source interface {
	Get(ctx context.Context, container, artifact string) (io.ReadCloser, error)
	Exists(ctx context.Context, container, artifact string) (bool, error)
}

// NotFoundError reports a missing artifact.
type NotFoundError struct {
	Container string
	Artifact  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("not found: %s/%s", e.Container, e.Artifact)
}

// ErrNotFound builds a NotFoundError
func ErrNotFound(container, artifact string) error {
	return &NotFoundError{Container: container, Artifact: artifact}
}
