package wikipedia

import (
	"pollofpolls-backend/internal/polls"
	"pollofpolls-backend/lib/htmlutil"
	"pollofpolls-backend/lib/textutil"

	"github.com/PuerkitoBio/goquery"
)

type role int

const (
	roleDate role = iota
	rolePollster
	roleSampleSize
	roleArea
	roleLabour
	roleConservative
	roleLibDem
	roleReform
	roleGreen
	roleSNP
	rolePlaidCymru
	roleOthers
)

type headerRule struct {
	matches []string
	role    role
}

// order matters, the first rule that matches a header wins
// ("dates conducted" contains "con", "fieldwork" contains "ld")
var headerRules = []headerRule{
	{matches: []string{"date"}, role: roleDate},
	{matches: []string{"pollster"}, role: rolePollster},
	{matches: []string{"sample"}, role: roleSampleSize},
	{matches: []string{"lab", "labour"}, role: roleLabour},
	{matches: []string{"con", "conservative"}, role: roleConservative},
	{matches: []string{"lib", "ld"}, role: roleLibDem},
	{matches: []string{"reform", "ref"}, role: roleReform},
	{matches: []string{"green", "grn"}, role: roleGreen},
	{matches: []string{"snp"}, role: roleSNP},
	{matches: []string{"pc", "plaid"}, role: rolePlaidCymru},
	{matches: []string{"other"}, role: roleOthers},
	{matches: []string{"area"}, role: roleArea},
}

var requiredRoles = []role{
	roleDate,
	rolePollster,
	roleSampleSize,
	roleLabour,
	roleConservative,
	roleReform,
	roleLibDem,
	roleGreen,
}

var partyRoles = map[role]polls.Party{
	roleLabour:       polls.Labour,
	roleConservative: polls.Conservative,
	roleLibDem:       polls.LibDem,
	roleReform:       polls.Reform,
	roleGreen:        polls.Green,
	roleSNP:          polls.SNP,
	rolePlaidCymru:   polls.PlaidCymru,
	roleOthers:       polls.Others,
}

func matchHeader(text string) (role, bool) {
	normalized := textutil.NormalizeHeader(text)
	if normalized == "" {
		return 0, false
	}
	for _, rule := range headerRules {
		if textutil.ContainsAny(normalized, rule.matches) {
			return rule.role, true
		}
	}
	return 0, false
}

// columnMap maps a role to the index of the (colspan expanded) column
// holding it.
type columnMap map[role]int

// buildColumnMap binds every role to the first header cell claiming it.
func buildColumnMap(headers []string) columnMap {
	columns := columnMap{}
	for i, text := range headers {
		r, ok := matchHeader(text)
		if !ok {
			continue
		}
		if _, bound := columns[r]; bound {
			continue
		}
		columns[r] = i
	}
	return columns
}

func (m columnMap) complete() bool {
	for _, r := range requiredRoles {
		if _, ok := m[r]; !ok {
			return false
		}
	}
	return true
}

func headerTexts(row *goquery.Selection) []string {
	cells := htmlutil.ExpandRow(row)
	texts := make([]string, len(cells))
	for i, cell := range cells {
		texts[i] = htmlutil.VisibleText(cell)
	}
	return texts
}
