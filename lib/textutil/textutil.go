package textutil

import (
	"regexp"
	"strings"

	"github.com/antzucaro/matchr"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

// matches wiki citation markers such as "[12]", "[a]" or "[note 3]"
var footnoteRegex = regexp.MustCompile(`\[[^\[\]]*\]`)

var lower = cases.Lower(language.Und)

// CollapseWhitespace replaces runs of whitespace (including nbsp) with a single space.
func CollapseWhitespace(text string) string {
	text = strings.ReplaceAll(text, "\u00a0", " ")
	return strings.TrimSpace(whitespaceRegex.ReplaceAllString(text, " "))
}

func StripFootnotes(text string) string {
	return footnoteRegex.ReplaceAllString(text, "")
}

// CleanCell strips citations and collapses whitespace, case is preserved.
func CleanCell(text string) string {
	return CollapseWhitespace(StripFootnotes(text))
}

// NormalizeHeader is the form header cells are in when matched against
// column role rules.
func NormalizeHeader(text string) string {
	return lower.String(CleanCell(text))
}

// NormalizeKey is the lookup form for names: trimmed, lowercased and with
// inner whitespace collapsed.
func NormalizeKey(name string) string {
	return lower.String(CollapseWhitespace(name))
}

func NormalizeName(name string) string {
	name = strings.ToLower(name)
	name = strings.Trim(name, " \n\t")
	name = whitespaceRegex.ReplaceAllString(name, "")
	return name
}

// ContainsAny reports whether the (already normalized) text contains any of
// the given substrings.
func ContainsAny(text string, substrings []string) bool {
	for _, m := range substrings {
		if strings.Contains(text, m) {
			return true
		}
	}
	return false
}

const snapThreshold = 0.97

// Canonicalize returns the entry of known that name is a near-exact spelling
// of, or the cleaned name itself if nothing is close enough.
func Canonicalize(name string, known []string) string {
	cleaned := CleanCell(name)
	key := NormalizeName(cleaned)
	if key == "" {
		return cleaned
	}

	best := ""
	bestScore := 0.0
	for _, k := range known {
		candidate := NormalizeName(k)
		if candidate == key {
			return k
		}
		score := matchr.JaroWinkler(key, candidate, false)
		if score > bestScore {
			bestScore = score
			best = k
		}
	}
	if bestScore >= snapThreshold {
		return best
	}
	return cleaned
}
