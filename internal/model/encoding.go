package model

// Category names used by the encoding maps.
const (
	CategoryAttraction = "atraccion"
	CategoryZone       = "zona"
)

// EncodingMaps holds the mean-target encodings per categorical column:
// category -> value -> mean wait observed for that value.
type EncodingMaps map[string]map[string]float64

// Lookup returns the encoding for value, or fallback when the category or
// value was never seen during training.
func (m EncodingMaps) Lookup(category, value string, fallback float64) float64 {
	values, ok := m[category]
	if !ok {
		return fallback
	}
	if v, ok := values[value]; ok {
		return v
	}
	return fallback
}
