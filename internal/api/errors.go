package api

import (
	"errors"

	"github.com/FairForge/parkbeat/internal/artifacts"
	"github.com/FairForge/parkbeat/internal/model"
)

// Error kinds reported in the "type" field of a failure body.
const (
	KindArtifactLoad    = "ArtifactLoadError"
	KindFeatureMismatch = "FeatureMismatchError"
	KindPrediction      = "PredictionError"
	KindInternal        = "InternalError"
	KindValidation      = "ValidationError"
)

// ErrorBody is the JSON body of every non-200 response.
type ErrorBody struct {
	Error   string   `json:"error"`
	Type    string   `json:"type,omitempty"`
	Columns []string `json:"columns,omitempty"`
}

// classify maps a pipeline error to its failure body.
func classify(err error) ErrorBody {
	var loadErr *artifacts.LoadError
	var mismatch *model.FeatureMismatchError
	var predErr *model.PredictionError

	switch {
	case errors.As(err, &loadErr):
		return ErrorBody{Error: err.Error(), Type: KindArtifactLoad}
	case errors.As(err, &mismatch):
		return ErrorBody{Error: err.Error(), Type: KindFeatureMismatch, Columns: mismatch.Columns}
	case errors.As(err, &predErr):
		return ErrorBody{Error: err.Error(), Type: KindPrediction}
	}
	return ErrorBody{Error: err.Error(), Type: KindInternal}
}
