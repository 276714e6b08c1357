package model

import (
	"errors"
	"fmt"
	"math"
)

// Scaler normalizes an assembled feature row. ExpectedColumns is the
// authoritative column order the regressor was trained on.
type Scaler interface {
	ExpectedColumns() []string
	Transform(columns []string, row []float64) ([]float64, error)
}

// StandardScaler is a fitted z-score scaler exported from the training job.
// Field names follow the scikit-learn attributes it is exported from.
type StandardScaler struct {
	FeatureNames []string  `json:"feature_names_in"`
	Mean         []float64 `json:"mean"`
	Scale        []float64 `json:"scale"`
}

// Validate checks the fitted parameters line up with the column list.
func (s *StandardScaler) Validate() error {
	if len(s.FeatureNames) == 0 {
		return errors.New("scaler: feature_names_in is empty")
	}
	if s.Mean != nil && len(s.Mean) != len(s.FeatureNames) {
		return fmt.Errorf("scaler: %d means for %d features", len(s.Mean), len(s.FeatureNames))
	}
	if s.Scale != nil && len(s.Scale) != len(s.FeatureNames) {
		return fmt.Errorf("scaler: %d scales for %d features", len(s.Scale), len(s.FeatureNames))
	}
	seen := make(map[string]bool, len(s.FeatureNames))
	for _, name := range s.FeatureNames {
		if seen[name] {
			return fmt.Errorf("scaler: duplicate feature %q", name)
		}
		seen[name] = true
	}
	return nil
}

func (s *StandardScaler) ExpectedColumns() []string {
	out := make([]string, len(s.FeatureNames))
	copy(out, s.FeatureNames)
	return out
}

// Transform applies (x - mean) / scale column by column. The row must carry
// exactly the expected columns in the expected order, every value finite.
func (s *StandardScaler) Transform(columns []string, row []float64) ([]float64, error) {
	if len(columns) != len(row) {
		return nil, &FeatureMismatchError{
			Columns: columns,
			Reason:  fmt.Sprintf("%d names for %d values", len(columns), len(row)),
		}
	}

	if len(columns) != len(s.FeatureNames) {
		return nil, &FeatureMismatchError{
			Columns: s.diffColumns(columns),
			Reason:  fmt.Sprintf("expected %d columns, got %d", len(s.FeatureNames), len(columns)),
		}
	}

	var misplaced []string
	for i, name := range s.FeatureNames {
		if columns[i] != name {
			misplaced = append(misplaced, name)
		}
	}
	if len(misplaced) > 0 {
		return nil, &FeatureMismatchError{Columns: misplaced, Reason: "column order"}
	}

	var nonFinite []string
	for i, v := range row {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			nonFinite = append(nonFinite, columns[i])
		}
	}
	if len(nonFinite) > 0 {
		return nil, &FeatureMismatchError{Columns: nonFinite, Reason: "non-finite value"}
	}

	out := make([]float64, len(row))
	for i, v := range row {
		mean, scale := 0.0, 1.0
		if s.Mean != nil {
			mean = s.Mean[i]
		}
		// zero-variance columns are fitted with scale 0; they pass through centred
		if s.Scale != nil && s.Scale[i] != 0 {
			scale = s.Scale[i]
		}
		out[i] = (v - mean) / scale
	}
	return out, nil
}

// diffColumns lists expected columns that are missing plus given columns
// that were not expected.
func (s *StandardScaler) diffColumns(columns []string) []string {
	given := make(map[string]bool, len(columns))
	for _, c := range columns {
		given[c] = true
	}
	expected := make(map[string]bool, len(s.FeatureNames))
	var diff []string
	for _, name := range s.FeatureNames {
		expected[name] = true
		if !given[name] {
			diff = append(diff, name)
		}
	}
	for _, c := range columns {
		if !expected[c] {
			diff = append(diff, c)
		}
	}
	return diff
}
