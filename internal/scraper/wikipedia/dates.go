package wikipedia

import (
	"fmt"
	"pollofpolls-backend/lib/textutil"
	"pollofpolls-backend/lib/timezone"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var referenceMonths = []string{
	"january",
	"february",
	"march",
	"april",
	"may",
	"june",
	"july",
	"august",
	"september",
	"october",
	"november",
	"december",
}

func parseMonth(text string) (time.Month, bool) {
	text = strings.ToLower(strings.TrimSuffix(text, "."))
	if len(text) < 3 {
		return 0, false
	}
	for i, month := range referenceMonths {
		if strings.HasPrefix(month, text) {
			return time.January + time.Month(i), true
		}
	}
	return 0, false
}

var dashReplacer = strings.NewReplacer("–", "-", "—", "-", "‒", "-", "−", "-")

var (
	dayMonthRegex = regexp.MustCompile(`(\d{1,2})\s*([A-Za-z]{3,9}\.?)(?:,?\s+(\d{4}|\d{2})\b)?`)
	dayOnlyRegex  = regexp.MustCompile(`^(\d{1,2})$`)
	yearRegex     = regexp.MustCompile(`\b(\d{4})\b`)
	sortDateRegex = regexp.MustCompile(`(\d{4})-(\d{2})-(\d{2})`)
)

// futureTolerance is how far in the future a date without a year may fall
// before it is assumed to belong to the previous year.
const futureTolerance = 7 * 24 * time.Hour

// parseSortValue parses the machine readable value of a data-sort-value
// attribute, which holds an ISO date optionally followed by other text.
func parseSortValue(value string) (time.Time, bool) {
	match := sortDateRegex.FindStringSubmatch(value)
	if match == nil {
		return time.Time{}, false
	}
	year, _ := strconv.Atoi(match[1])
	month, _ := strconv.Atoi(match[2])
	day, _ := strconv.Atoi(match[3])
	return makeDate(year, time.Month(month), day)
}

func makeDate(year int, month time.Month, day int) (time.Time, bool) {
	if month < time.January || month > time.December || day < 1 || day > 31 {
		return time.Time{}, false
	}
	date := timezone.Date(year, month, day)
	// rejects things like 31 February instead of rolling them over
	if date.Day() != day {
		return time.Time{}, false
	}
	return date, true
}

func expandYear(text string) int {
	year, err := strconv.Atoi(text)
	if err != nil {
		return 0
	}
	if year < 100 {
		year += 2000
	}
	return year
}

// parseDateText parses the visible text of a fieldwork date cell into the
// first day of fieldwork. It understands "12 March 2026", "12–14 Mar 2026",
// "30 Mar – 2 Apr 2026", "30 Dec 2025 – 2 Jan 2026" and forms without a
// year, which resolve relative to now.
func parseDateText(text string, now time.Time) (time.Time, error) {
	cleaned := dashReplacer.Replace(textutil.CleanCell(text))
	if cleaned == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}

	first, rest, _ := strings.Cut(cleaned, "-")
	first = strings.TrimSpace(first)
	rest = strings.TrimSpace(rest)

	var day, year int
	var month time.Month
	var ok bool

	if match := dayMonthRegex.FindStringSubmatch(first); match != nil {
		day, _ = strconv.Atoi(match[1])
		month, ok = parseMonth(match[2])
		if !ok {
			return time.Time{}, fmt.Errorf("unknown month in %q", cleaned)
		}
		year = expandYear(match[3])
	} else if match := dayOnlyRegex.FindStringSubmatch(first); match != nil {
		// "12–14 March 2026": the month and year come from the end of the range
		day, _ = strconv.Atoi(match[1])
		restMatch := dayMonthRegex.FindStringSubmatch(rest)
		if restMatch == nil {
			return time.Time{}, fmt.Errorf("no month in %q", cleaned)
		}
		month, ok = parseMonth(restMatch[2])
		if !ok {
			return time.Time{}, fmt.Errorf("unknown month in %q", cleaned)
		}
		year = expandYear(restMatch[3])
	} else {
		return time.Time{}, fmt.Errorf("unrecognized date %q", cleaned)
	}

	if year == 0 && rest != "" {
		if match := yearRegex.FindStringSubmatch(rest); match != nil {
			year = expandYear(match[1])
			// "30 Dec – 2 Jan 2026" started in the year before the one given
			if restMatch := dayMonthRegex.FindStringSubmatch(rest); restMatch != nil {
				endMonth, ok := parseMonth(restMatch[2])
				if ok && endMonth < month {
					year--
				}
			}
		}
	}

	if year == 0 {
		now = now.In(timezone.Location)
		date, ok := makeDate(now.Year(), month, day)
		if !ok {
			return time.Time{}, fmt.Errorf("invalid date %q", cleaned)
		}
		if date.Sub(now) > futureTolerance {
			date, ok = makeDate(now.Year()-1, month, day)
			if !ok {
				return time.Time{}, fmt.Errorf("invalid date %q", cleaned)
			}
		}
		return date, nil
	}

	date, ok := makeDate(year, month, day)
	if !ok {
		return time.Time{}, fmt.Errorf("invalid date %q", cleaned)
	}
	return date, nil
}
