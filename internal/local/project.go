package local

import (
	"context"
	"maps"
	"pollofpolls-backend/internal/polls"
	"slices"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("pollofpolls/local")

type Projection struct {
	WardCode string `json:"wardCode"`
	WardName string `json:"wardName"`
	LadCode  string `json:"ladCode"`
	LadName  string `json:"ladName"`
	// projected share keyed by party name, national parties use their
	// display names
	Shares      map[string]float64 `json:"shares"`
	Winner      string             `json:"winner"`
	WinnerColor string             `json:"winnerColor"`
}

// Project applies the national swing since the baseline election to a ward.
//
// Each national party moves by the difference between its current aggregate
// and its baseline national share (floored at zero). Local parties absorb
// whatever is left of 100 in proportion to their historical shares. When the
// national parties alone exceed 100 they are scaled down to 100 and local
// parties get nothing.
func Project(ward Ward, baselineNational map[string]float64, aggregate polls.Aggregate) Projection {
	national := make(map[string]float64, len(polls.NationalParties))
	sumNational := 0.0
	for _, party := range polls.NationalParties {
		name := party.DisplayName()
		current, _ := aggregate.Values.Get(party)
		delta := current - baselineNational[name]
		value := max(0, ward.NationalShares[name]+delta)
		national[name] = value
		sumNational += value
	}

	localSum := 0.0
	for _, v := range ward.LocalShares {
		localSum += v
	}
	remaining := 100 - sumNational

	local := make(map[string]float64, len(ward.LocalShares))
	if remaining > 0 && localSum != 0 {
		scale := remaining / localSum
		for name, v := range ward.LocalShares {
			local[name] = v * scale
		}
	} else {
		for name := range ward.LocalShares {
			local[name] = 0
		}
		if remaining < 0 && sumNational > 0 {
			scale := 100 / sumNational
			for name, v := range national {
				national[name] = v * scale
			}
		}
	}

	combined := make(map[string]float64, len(national)+len(local))
	maps.Copy(combined, local)
	maps.Copy(combined, national)

	winner := pickWinner(combined)
	return Projection{
		WardCode:    ward.WardCode,
		WardName:    ward.WardName,
		LadCode:     ward.LadCode,
		LadName:     ward.LadName,
		Shares:      combined,
		Winner:      winner,
		WinnerColor: polls.Color(winner),
	}
}

// pickWinner returns the party with the strictly greatest share. Ties go to
// whichever comes first with national parties ahead of local ones.
func pickWinner(shares map[string]float64) string {
	order := make([]string, 0, len(shares))
	for _, party := range polls.NationalParties {
		if _, ok := shares[party.DisplayName()]; ok {
			order = append(order, party.DisplayName())
		}
	}
	var localNames []string
	for name := range shares {
		if slices.Contains(order, name) {
			continue
		}
		localNames = append(localNames, name)
	}
	slices.Sort(localNames)
	order = append(order, localNames...)

	winner := polls.OtherName
	top := -1.0
	for _, name := range order {
		if shares[name] > top {
			top = shares[name]
			winner = name
		}
	}
	return winner
}

// ProjectAll projects every ward in the baseline, if ladCode is not empty
// only wards in that local authority district are projected.
func ProjectAll(ctx context.Context, baseline Baseline, aggregate polls.Aggregate, ladCode string) []Projection {
	_, span := tracer.Start(ctx, "ProjectAll")
	defer span.End()

	span.SetAttributes(attribute.String("lad_code", ladCode))

	projections := make([]Projection, 0, len(baseline.Wards))
	for _, ward := range baseline.Wards {
		if ladCode != "" && ward.LadCode != ladCode {
			continue
		}
		projections = append(projections, Project(ward, baseline.BaselineNational, aggregate))
	}

	span.SetAttributes(attribute.Int("wards", len(projections)))
	return projections
}
