package local

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Ward is the historical result of a single ward, shares are percentages of
// TotalVotes.
type Ward struct {
	WardCode   string `json:"wardCode" validate:"required"`
	WardName   string `json:"wardName"`
	LadCode    string `json:"ladCode" validate:"required"`
	LadName    string `json:"ladName"`
	LastYear   int    `json:"lastYear"`
	TotalVotes int    `json:"totalVotes" validate:"gt=0"`
	// keyed by national party display name
	NationalShares map[string]float64 `json:"nationalShares"`
	// keyed by whatever the local party is called
	LocalShares map[string]float64 `json:"localShares"`
}

// Baseline is the ward baseline file produced by the offline build.
type Baseline struct {
	GeneratedAt time.Time `json:"generatedAt"`
	// national vote share of each national party at the time of the
	// baseline elections, keyed by display name
	BaselineNational map[string]float64 `json:"baselineNational" validate:"required"`
	Wards            []Ward             `json:"wards" validate:"dive"`
}

func ReadBaseline(r io.Reader) (Baseline, error) {
	var baseline Baseline
	err := json.NewDecoder(r).Decode(&baseline)
	if err != nil {
		return Baseline{}, fmt.Errorf("decode baseline: %w", err)
	}
	err = validate.Struct(baseline)
	if err != nil {
		return Baseline{}, fmt.Errorf("invalid baseline: %w", err)
	}
	return baseline, nil
}

func LoadBaseline(path string) (Baseline, error) {
	f, err := os.Open(path)
	if err != nil {
		return Baseline{}, err
	}
	defer f.Close()
	return ReadBaseline(f)
}

// LADs returns the distinct local authority districts in the baseline in
// the order they first appear.
func (b Baseline) LADs() []LAD {
	seen := map[string]struct{}{}
	var lads []LAD
	for _, w := range b.Wards {
		if _, ok := seen[w.LadCode]; ok {
			continue
		}
		seen[w.LadCode] = struct{}{}
		lads = append(lads, LAD{Code: w.LadCode, Name: w.LadName})
	}
	return lads
}

type LAD struct {
	Code string `json:"code"`
	Name string `json:"name"`
}
