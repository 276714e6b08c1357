package blend

import "math"

// Situation is what adjustment rules see: the blend input plus the values
// computed from it.
type Situation struct {
	Input
	Blended float64
	Base    float64
}

// Rule is one row of the adjustment table. Apply returns the adjusted value
// and the label prefix reported to clients.
type Rule struct {
	Name  string
	Match func(s Situation) bool
	Apply func(s Situation) (float64, string)
}

func scale(name string, weekend, weekday float64) func(Situation) (float64, string) {
	return func(s Situation) (float64, string) {
		if s.Weekend {
			return s.Blended * weekend, name
		}
		return s.Blended * weekday, name
	}
}

func peakOnly(name string, factor float64) func(Situation) (float64, string) {
	return func(s Situation) (float64, string) {
		if s.Bands.Peak {
			return s.Blended * factor, name
		}
		return s.Blended, name
	}
}

// DefaultRules is evaluated top down; the first matching rule wins.
var DefaultRules = []Rule{
	{
		Name:  "apertura",
		Match: func(s Situation) bool { return s.Bands.Opening },
		Apply: scale("apertura", 0.50, 0.60),
	},
	{
		Name:  "batman_octubre",
		Match: func(s Situation) bool { return s.Flagship },
		Apply: flagship,
	},
	{
		Name:  "puente",
		Match: func(s Situation) bool { return s.Bridge },
		Apply: scale("puente", 1.15, 1.10),
	},
	{
		Name:  "octubre_domingo",
		Match: func(s Situation) bool { return s.Month == 10 && s.Weekday == 6 },
		Apply: peakOnly("octubre_domingo", 1.10),
	},
	{
		Name:  "noviembre_domingo",
		Match: func(s Situation) bool { return s.Month == 11 && s.Weekday == 6 },
		Apply: peakOnly("noviembre_domingo", 1.08),
	},
	{
		Name:  "hora_pico",
		Match: func(s Situation) bool { return s.Bands.Peak },
		Apply: func(s Situation) (float64, string) { return s.Blended * 1.05, "hora_pico" },
	},
	{
		Name:  "hora_valle",
		Match: func(s Situation) bool { return s.Bands.Valley() },
		Apply: func(s Situation) (float64, string) { return s.Blended * 0.90, "hora_valle" },
	},
	{
		Name:  "fin_semana",
		Match: func(s Situation) bool { return s.Weekend },
		Apply: func(s Situation) (float64, string) { return s.Blended, "fin_semana" },
	},
	{
		Name:  "laborable",
		Match: func(Situation) bool { return true },
		Apply: func(s Situation) (float64, string) { return s.Blended, "laborable" },
	},
}

// flagship lifts a headline attraction in its busy month. Each branch takes
// the largest of several lower bounds; a suspiciously low history raises
// the floor instead of dragging the estimate down.
func flagship(s Situation) (float64, string) {
	raw, blended, base, p75 := s.Raw, s.Blended, s.Base, s.Resolved.P75

	if s.Weekend {
		label := "batman_octubre_fin_semana"
		if s.Bands.Peak {
			if p75 < lowP75 || base < lowP75 {
				return max(raw*1.50, blended*1.40, 25), label
			}
			return max(blended*1.30, p75*1.25, base*1.35, raw*1.25), label
		}
		if base < 10 {
			return max(raw*1.30, blended*1.20, 15), label
		}
		return max(blended*1.20, base*1.25), label
	}

	label := "batman_octubre_laborable"
	if s.Bands.Peak {
		if base < lowP75 {
			return max(raw*1.35, blended*1.25, 20), label
		}
		return max(blended*1.15, base*1.20), label
	}
	return max(blended*1.10, base*1.15), label
}

// Bounds of a reported prediction, in minutes.
const (
	MinMinutes = 1.0
	MaxMinutes = 180.0
)

func clamp(v float64) float64 {
	return math.Min(MaxMinutes, math.Max(MinMinutes, v))
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
