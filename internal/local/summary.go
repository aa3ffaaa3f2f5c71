package local

import (
	"maps"
	"slices"
)

// Summary counts ward winners within a local authority district.
type Summary struct {
	LadCode string         `json:"ladCode"`
	LadName string         `json:"ladName"`
	Wards   int            `json:"wards"`
	Winners map[string]int `json:"winners"`
}

// Leader returns the party winning the most wards, ties go to the party
// name that sorts first.
func (s Summary) Leader() string {
	names := slices.Sorted(maps.Keys(s.Winners))
	leader := ""
	for _, name := range names {
		if leader == "" || s.Winners[name] > s.Winners[leader] {
			leader = name
		}
	}
	return leader
}

// Summarize groups projections by local authority district, ordered by LAD
// code.
func Summarize(projections []Projection) []Summary {
	byLad := map[string]*Summary{}
	for _, p := range projections {
		s, ok := byLad[p.LadCode]
		if !ok {
			s = &Summary{
				LadCode: p.LadCode,
				LadName: p.LadName,
				Winners: map[string]int{},
			}
			byLad[p.LadCode] = s
		}
		s.Wards++
		s.Winners[p.Winner]++
	}

	result := make([]Summary, 0, len(byLad))
	for _, code := range slices.Sorted(maps.Keys(byLad)) {
		result = append(result, *byLad[code])
	}
	return result
}

// SummarizeLAD summarizes a single local authority district, ok is false if
// none of the projections belong to it.
func SummarizeLAD(projections []Projection, ladCode string) (Summary, bool) {
	var filtered []Projection
	for _, p := range projections {
		if p.LadCode == ladCode {
			filtered = append(filtered, p)
		}
	}
	summaries := Summarize(filtered)
	if len(summaries) == 0 {
		return Summary{}, false
	}
	return summaries[0], true
}
