package blend

import (
	"github.com/FairForge/parkbeat/internal/features"
	"github.com/FairForge/parkbeat/internal/history"
)

// Thin-sample thresholds: a peak-hour p75 below lowP75 computed from fewer
// than thinCount rows is not trusted as is.
const (
	lowP75    = 15.0
	thinCount = 20
)

// Weights are the coefficients of the affine blend. They need not sum to 1.
type Weights struct {
	Model      float64
	Historical float64
}

// Widener looks for a larger p75 in a coarser window when the current one
// rests on a thin sample. It returns the value to use, the specificity label
// to report instead, and whether a replacement happened.
type Widener func(current float64) (float64, string, bool)

// Input is everything the blender needs about one prediction.
type Input struct {
	Raw      float64
	Resolved history.Resolved
	// Bands of the resolved hour, which differs from the requested one when
	// a neighbouring hour was used.
	Bands        features.Bands
	Weekend      bool
	Bridge       bool
	Flagship     bool
	Month        int
	Weekday      int
	GlobalMedian float64
	Widen        Widener
}

// Choice is the historical base and the weights applied to it.
type Choice struct {
	Weights
	Base        float64
	Specificity string
}

// ChooseWeights picks the historical base and blend weights for in.
func ChooseWeights(in Input) Choice {
	r := in.Resolved
	specificity := string(r.Level)

	if !r.Level.HasHour() {
		base := r.Median
		if in.Bands.Peak {
			base = r.P75
		}
		return Choice{Weights: Weights{Model: 0.60, Historical: 0.40}, Base: base, Specificity: specificity}
	}

	switch {
	case r.Empty():
		return Choice{Weights: Weights{Model: 0.40, Historical: 0.60}, Base: r.Median, Specificity: specificity}

	case in.Bands.Opening:
		base := r.Median
		if r.Count > 10 {
			base = r.P25
		}
		return Choice{Weights: Weights{Model: 0.20, Historical: 0.80}, Base: base, Specificity: specificity}

	case in.Bands.Peak:
		if r.P75 >= lowP75 || r.Count >= thinCount {
			return Choice{Weights: Weights{Model: 0.30, Historical: 0.70}, Base: r.P75, Specificity: specificity}
		}
		base := r.P75
		if in.Widen != nil {
			if widened, label, ok := in.Widen(r.P75); ok {
				base, specificity = widened, label
			}
		}
		w := Weights{Model: 0.50, Historical: 0.50}
		if base < lowP75 {
			w = Weights{Model: 0.70, Historical: 0.30}
		}
		return Choice{Weights: w, Base: base, Specificity: specificity}
	}

	return Choice{Weights: Weights{Model: 0.25, Historical: 0.75}, Base: r.Median, Specificity: specificity}
}
