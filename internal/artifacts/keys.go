package artifacts

import (
	"github.com/FairForge/parkbeat/internal/config"
	"github.com/FairForge/parkbeat/internal/history"
)

// Keys names every object the service loads from the artifact bucket.
type Keys struct {
	Model           string
	Scaler          string
	Encodings       string
	ReferenceSample string
	Tables          map[history.Granularity]string
}

// KeysFromConfig maps configured object keys onto Keys.
func KeysFromConfig(cfg config.ArtifactsConfig) Keys {
	return Keys{
		Model:           cfg.Model,
		Scaler:          cfg.Scaler,
		Encodings:       cfg.Encodings,
		ReferenceSample: cfg.ReferenceSample,
		Tables: map[history.Granularity]string{
			history.ByMonth:        cfg.HistMonth,
			history.ByHour:         cfg.HistHour,
			history.ByWeekday:      cfg.HistWeekday,
			history.ByMonthWeekday: cfg.HistMonthWeekday,
			history.ByHourWeekday:  cfg.HistHourWeekday,
			history.ByMonthHour:    cfg.HistMonthHour,
		},
	}
}

// All lists every key in load order.
func (k Keys) All() []string {
	keys := []string{k.Model, k.Scaler, k.Encodings, k.ReferenceSample}
	for _, g := range history.Granularities {
		keys = append(keys, k.Tables[g])
	}
	return keys
}
