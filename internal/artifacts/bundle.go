package artifacts

import (
	"github.com/FairForge/parkbeat/internal/history"
	"github.com/FairForge/parkbeat/internal/model"
)

// Bundle is the full set of loaded artifacts. It is never mutated after
// Loader.Load returns it, so one bundle may serve concurrent requests.
type Bundle struct {
	Regressor model.Regressor
	Scaler    model.Scaler
	Encodings model.EncodingMaps
	Sample    *history.Sample
	Tables    history.Tables
	Resolver  *history.Resolver
}
