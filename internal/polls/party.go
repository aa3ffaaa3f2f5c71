package polls

// Party is one of the fixed poll columns.
type Party string

const (
	Labour       Party = "labour"
	Conservative Party = "conservative"
	Reform       Party = "reform"
	LibDem       Party = "libdem"
	Green        Party = "green"
	SNP          Party = "snp"
	PlaidCymru   Party = "pc"
	Others       Party = "others"
)

// Parties is every party key in display order.
var Parties = []Party{
	Labour,
	Conservative,
	Reform,
	LibDem,
	Green,
	SNP,
	PlaidCymru,
	Others,
}

// NationalParties are the parties with a national share in ward baselines.
var NationalParties = Parties[:7]

var displayNames = map[Party]string{
	Labour:       "Labour",
	Conservative: "Conservative",
	Reform:       "Reform",
	LibDem:       "Liberal Democrat",
	Green:        "Green",
	SNP:          "SNP",
	PlaidCymru:   "Plaid Cymru",
	Others:       "Other",
}

// DisplayName returns the human readable name, this is also the key used in
// ward baseline files.
func (p Party) DisplayName() string {
	name, ok := displayNames[p]
	if !ok {
		return string(p)
	}
	return name
}

// PartyFromDisplayName is the inverse of DisplayName.
func PartyFromDisplayName(name string) (Party, bool) {
	for p, n := range displayNames {
		if n == name {
			return p, true
		}
	}
	return "", false
}

// OtherName is the bucket used for winners when nothing else applies.
const OtherName = "Other"

var partyColors = map[string]string{
	"Labour":           "#E4003B",
	"Conservative":     "#0087DC",
	"Reform":           "#12B6CF",
	"Liberal Democrat": "#FAA61A",
	"Green":            "#02A95B",
	"SNP":              "#FDF38E",
	"Plaid Cymru":      "#008672",
	"Other":            "#9a9a9a",
}

// Color returns the hex colour of a party display name, unknown local
// parties get the colour of Other.
func Color(displayName string) string {
	color, ok := partyColors[displayName]
	if !ok {
		return partyColors[OtherName]
	}
	return color
}
