package weights

import (
	"fmt"
	"math"
	"pollofpolls-backend/lib/textutil"
	"slices"
)

const (
	// UnknownPollster is the trust score of any pollster not in the table.
	UnknownPollster = 0.9
	// DefaultSampleSize is assumed for polls that do not report one.
	DefaultSampleSize = 1000
	// MaxSampleSize caps the influence of very large samples.
	MaxSampleSize = 3000
)

type pollster struct {
	name  string
	score float64
}

var defaultPollsters = []pollster{
	{name: "Survation", score: 1.1},
	{name: "Ipsos MORI", score: 1.1},
	{name: "YouGov", score: 1.1},
	{name: "More in Common", score: 1.1},
	{name: "Opinium", score: 1.0},
	{name: "Verian", score: 1.0},
	{name: "Norstat", score: 1.0},
	{name: "JL Partners", score: 1.0},
	{name: "BMG Research", score: 1.0},
	{name: "Deltapoll", score: 1.0},
	{name: "Savanta ComRes", score: 1.0},
	{name: "Focaldata", score: 1.0},
	{name: "Find Out Now", score: 0.9},
}

// Table holds pollster trust scores, it is never mutated after construction
// so it can be shared freely.
type Table struct {
	scores map[string]float64
	names  []string
}

// DefaultTable returns the built in pollster trust scores.
func DefaultTable() Table {
	t, err := NewTable(nil)
	if err != nil {
		panic(err)
	}
	return t
}

// NewTable returns the default table with the given pollster scores added or
// replaced. Keys are matched case and whitespace insensitively.
func NewTable(overrides map[string]float64) (Table, error) {
	t := Table{
		scores: make(map[string]float64, len(defaultPollsters)+len(overrides)),
	}
	for _, p := range defaultPollsters {
		t.scores[textutil.NormalizeKey(p.name)] = p.score
		t.names = append(t.names, p.name)
	}

	// sorted so that the resulting name list is deterministic
	keys := make([]string, 0, len(overrides))
	for name := range overrides {
		keys = append(keys, name)
	}
	slices.Sort(keys)

	for _, name := range keys {
		score := overrides[name]
		if math.IsNaN(score) || math.IsInf(score, 0) || score <= 0 {
			return Table{}, fmt.Errorf("pollster %q: trust score must be positive, got %v", name, score)
		}
		key := textutil.NormalizeKey(name)
		if key == "" {
			return Table{}, fmt.Errorf("empty pollster name in weight overrides")
		}
		if _, exists := t.scores[key]; !exists {
			t.names = append(t.names, textutil.CollapseWhitespace(name))
		}
		t.scores[key] = score
	}

	return t, nil
}

// Pollster returns the trust score of a pollster.
func (t Table) Pollster(name string) float64 {
	score, ok := t.scores[textutil.NormalizeKey(name)]
	if !ok {
		return UnknownPollster
	}
	return score
}

// Pollsters returns the display names of every pollster in the table.
func (t Table) Pollsters() []string {
	return slices.Clone(t.names)
}

// Recency is a step function of the age of a poll in days.
func Recency(ageDays float64) float64 {
	switch {
	case ageDays < 7:
		return 1.0
	case ageDays < 14:
		return 0.75
	case ageDays < 28:
		return 0.5
	case ageDays < 42:
		return 0.25
	default:
		return 0.1
	}
}

// Sample is the square root of the effective sample size. Missing or
// non-positive sample sizes count as DefaultSampleSize.
func Sample(sampleSize *int) float64 {
	n := DefaultSampleSize
	if sampleSize != nil && *sampleSize > 0 {
		n = *sampleSize
	}
	return math.Sqrt(float64(min(n, MaxSampleSize)))
}

// Weight combines recency, pollster trust and sample size, the result is
// always positive.
func (t Table) Weight(ageDays float64, pollster string, sampleSize *int) float64 {
	return Recency(max(0, ageDays)) * t.Pollster(pollster) * Sample(sampleSize)
}
