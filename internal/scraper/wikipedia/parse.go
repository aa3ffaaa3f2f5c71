package wikipedia

import (
	"context"
	"log/slog"
	"math"
	"pollofpolls-backend/internal/polls"
	"pollofpolls-backend/lib/htmlutil"
	"pollofpolls-backend/lib/textutil"
	"pollofpolls-backend/lib/timezone"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"
)

type ParseOptions struct {
	Now            time.Time
	LookbackMonths int
	Pollsters      []string
}

// Parse extracts polls from an already fetched page.
func Parse(ctx context.Context, doc *goquery.Document, opts ParseOptions) Result {
	ctx, span := tracer.Start(ctx, "Parse")
	defer span.End()

	now := opts.Now.In(timezone.Location)
	cutoff := timezone.StartOfDay(now.AddDate(0, -opts.LookbackMonths, 0))

	p := parser{
		now:       now,
		cutoff:    cutoff,
		pollsters: opts.Pollsters,
		seen:      map[string]struct{}{},
	}

	tables := findYearTables(ctx, doc, now.Year())
	span.SetAttributes(attribute.Int("tables", len(tables)))

	for i, table := range tables {
		p.parseTable(ctx, i, table)
	}

	return Result{
		Polls:         p.polls,
		SkippedTables: p.skippedTables,
		SkippedRows:   p.skippedRows,
	}
}

type parser struct {
	now       time.Time
	cutoff    time.Time
	pollsters []string

	seen          map[string]struct{}
	polls         []polls.Poll
	skippedTables int
	skippedRows   int
}

func (p *parser) parseTable(ctx context.Context, index int, table *goquery.Selection) {
	rows := tableRows(table)

	headerIdx := -1
	var columns columnMap
	for i, row := range rows {
		if !isHeaderRow(row) {
			continue
		}
		columns = buildColumnMap(headerTexts(row))
		if len(columns) > 0 {
			headerIdx = i
			break
		}
	}

	if headerIdx < 0 || !columns.complete() {
		slog.DebugContext(ctx, "skipping table without required columns", "table", index, "columns", len(columns))
		p.skippedTables++
		return
	}

	// the grid starts at the header so its rowspans reach the rows below
	grid := htmlutil.ExpandRows(rows[headerIdx:])
	width := len(grid[0])
	for i, row := range rows[headerIdx+1:] {
		if isHeaderRow(row) {
			continue
		}
		poll, ok := p.parseRow(ctx, row, grid[i+1], columns, width)
		if !ok {
			p.skippedRows++
			continue
		}

		key := dedupeKey(poll)
		if _, dup := p.seen[key]; dup {
			p.skippedRows++
			continue
		}
		p.seen[key] = struct{}{}
		p.polls = append(p.polls, poll)
	}
}

// parseRow reads a data row, cells is the row expanded by colspan and
// rowspan.
func (p *parser) parseRow(ctx context.Context, row *goquery.Selection, cells []*goquery.Selection, columns columnMap, width int) (polls.Poll, bool) {
	// rows like "General election" or "Leadership change" are a single cell
	// spanning the table
	if row.ChildrenFiltered("td, th").Length() == 1 && htmlutil.Span(row.ChildrenFiltered("td, th")) >= width {
		slog.DebugContext(ctx, "skipping event row", "text", textutil.CleanCell(htmlutil.VisibleText(row)))
		return polls.Poll{}, false
	}

	cell := func(r role) *goquery.Selection {
		idx, ok := columns[r]
		if !ok || idx >= len(cells) || cells[idx] == nil {
			return nil
		}
		return cells[idx]
	}

	dateCell := cell(roleDate)
	pollsterCell := cell(rolePollster)
	if dateCell == nil || pollsterCell == nil {
		return polls.Poll{}, false
	}

	date, ok := p.cellDate(ctx, dateCell)
	if !ok {
		return polls.Poll{}, false
	}
	if date.Before(p.cutoff) || date.Year() < p.now.Year() {
		return polls.Poll{}, false
	}

	pollster := textutil.Canonicalize(htmlutil.VisibleText(pollsterCell), p.pollsters)
	if pollster == "" {
		return polls.Poll{}, false
	}

	poll := polls.Poll{
		Date:     date,
		Pollster: pollster,
		Values:   polls.Shares{},
	}
	if sample := cell(roleSampleSize); sample != nil {
		poll.SampleSize = parseSampleSize(htmlutil.VisibleText(sample))
	}
	if area := cell(roleArea); area != nil {
		text := textutil.CleanCell(htmlutil.VisibleText(area))
		if text != "" {
			poll.Area = &text
		}
	}
	for r, party := range partyRoles {
		c := cell(r)
		if c == nil {
			continue
		}
		value, ok := parsePercentage(htmlutil.VisibleText(c))
		if ok {
			poll.Values[party] = value
		}
	}

	if !poll.HasValues() {
		return polls.Poll{}, false
	}
	return poll, true
}

func (p *parser) cellDate(ctx context.Context, cell *goquery.Selection) (time.Time, bool) {
	sortValue, ok := cell.Attr("data-sort-value")
	if !ok {
		sortValue, ok = cell.Find("[data-sort-value]").First().Attr("data-sort-value")
	}
	if ok {
		date, ok := parseSortValue(sortValue)
		if ok {
			return date, true
		}
	}

	text := htmlutil.VisibleText(cell)
	date, err := parseDateText(text, p.now)
	if err != nil {
		slog.DebugContext(ctx, "skipping row with unparseable date", "text", text, "err", err)
		return time.Time{}, false
	}
	return date, true
}

// parsePercentage parses a party cell, anything that is not a number is
// treated as absent rather than zero.
func parsePercentage(text string) (float64, bool) {
	text = textutil.CleanCell(text)
	text = strings.TrimSpace(strings.TrimSuffix(text, "%"))
	if text == "" {
		return 0, false
	}
	value, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, false
	}
	return value, true
}

var nonDigitRegex = regexp.MustCompile(`\D`)

func parseSampleSize(text string) *int {
	digits := nonDigitRegex.ReplaceAllString(textutil.StripFootnotes(text), "")
	if digits == "" {
		return nil
	}
	n, err := strconv.Atoi(digits)
	if err != nil || n <= 0 {
		return nil
	}
	return &n
}

func dedupeKey(poll polls.Poll) string {
	fields := []string{
		poll.Date.Format(time.DateOnly),
		poll.Pollster,
	}
	if poll.SampleSize != nil {
		fields = append(fields, strconv.Itoa(*poll.SampleSize))
	} else {
		fields = append(fields, "")
	}
	if poll.Area != nil {
		fields = append(fields, *poll.Area)
	} else {
		fields = append(fields, "")
	}
	for _, party := range polls.Parties {
		value, ok := poll.Values.Get(party)
		if !ok {
			fields = append(fields, "null")
			continue
		}
		fields = append(fields, strconv.FormatFloat(value, 'f', -1, 64))
	}
	return strings.Join(fields, "|")
}
