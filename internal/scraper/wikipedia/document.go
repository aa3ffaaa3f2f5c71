package wikipedia

import (
	"context"
	"log/slog"
	"pollofpolls-backend/lib/htmlutil"
	"pollofpolls-backend/lib/textutil"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const sectionHeading = "national poll results"

func headingLevel(sel *goquery.Selection) int {
	name := goquery.NodeName(sel)
	if len(name) != 2 || name[0] != 'h' {
		return 0
	}
	level, err := strconv.Atoi(name[1:])
	if err != nil {
		return 0
	}
	return level
}

// findYearTables returns the tables under the heading for the given year
// inside the "National poll results" section. It returns nothing if either
// heading is missing, rather than falling back to every table on the page.
func findYearTables(ctx context.Context, doc *goquery.Document, year int) []*goquery.Selection {
	yearText := strconv.Itoa(year)

	sectionLevel := 0
	yearLevel := 0
	var tables []*goquery.Selection

	doc.Find("h1, h2, h3, h4, h5, h6, table").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		level := headingLevel(sel)

		if level > 0 {
			text := textutil.NormalizeHeader(htmlutil.VisibleText(sel))
			switch {
			case sectionLevel == 0:
				if strings.Contains(text, sectionHeading) {
					sectionLevel = level
				}
			case level <= sectionLevel:
				// left the section
				return false
			case yearLevel == 0:
				if strings.Contains(text, yearText) {
					yearLevel = level
				}
			case level <= yearLevel:
				// left the year subsection
				return false
			}
			return true
		}

		if yearLevel == 0 {
			return true
		}
		// tables nested in another table are part of that table's cells
		if sel.ParentsFiltered("table").Length() > 0 {
			return true
		}
		tables = append(tables, sel)
		return true
	})

	if sectionLevel == 0 {
		slog.WarnContext(ctx, "could not find national poll results heading")
	} else if yearLevel == 0 {
		slog.WarnContext(ctx, "could not find heading for current year", "year", year)
	}
	return tables
}

// tableRows returns the rows belonging to the table itself, excluding rows of
// nested tables.
func tableRows(table *goquery.Selection) []*goquery.Selection {
	var rows []*goquery.Selection
	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		if row.Closest("table").IsSelection(table) {
			rows = append(rows, row)
		}
	})
	return rows
}

func isHeaderRow(row *goquery.Selection) bool {
	return row.ChildrenFiltered("td").Length() == 0 &&
		row.ChildrenFiltered("th").Length() > 0
}
