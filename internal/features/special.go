package features

import "strings"

// SpecialCase flags an attraction whose demand spikes in a given month.
type SpecialCase struct {
	Column     string
	Attraction string // substring of the attraction name
	Month      int
}

// SpecialCases the model was trained with.
var SpecialCases = []SpecialCase{
	{Column: "is_batman_octubre", Attraction: "Batman", Month: 10},
}

// Matches reports whether the case applies to attraction in month.
func (s SpecialCase) Matches(attraction string, month int) bool {
	return month == s.Month && strings.Contains(attraction, s.Attraction)
}

// IsFlagship reports whether any special case applies.
func IsFlagship(attraction string, month int) bool {
	for _, sc := range SpecialCases {
		if sc.Matches(attraction, month) {
			return true
		}
	}
	return false
}
