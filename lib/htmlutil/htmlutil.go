package htmlutil

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	if node.Type == html.ElementNode && isHidden(node) {
		return
	}
	if node.Type == html.ElementNode && node.Data == "br" {
		buffer.WriteString(" ")
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

func attr(node *html.Node, key string) (string, bool) {
	for _, a := range node.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// isHidden reports elements whose text is never shown to a reader: citation
// superscripts, inline styles, sort keys and display:none spans.
func isHidden(node *html.Node) bool {
	switch node.Data {
	case "sup", "style", "script":
		return true
	}
	if class, ok := attr(node, "class"); ok {
		for _, c := range strings.Fields(class) {
			if c == "sortkey" || c == "reference" {
				return true
			}
		}
	}
	if style, ok := attr(node, "style"); ok {
		style = strings.ReplaceAll(strings.ToLower(style), " ", "")
		if strings.Contains(style, "display:none") {
			return true
		}
	}
	return false
}

// VisibleText returns the text of every node in the selection as a reader
// would see it.
func VisibleText(sel *goquery.Selection) string {
	var buffer bytes.Buffer
	for _, n := range sel.Nodes {
		getTextRecursive(n, &buffer)
	}
	return buffer.String()
}

func spanAttr(sel *goquery.Selection, name string) int {
	span, err := strconv.Atoi(strings.TrimSpace(sel.AttrOr(name, "1")))
	if err != nil || span < 1 {
		return 1
	}
	return span
}

// Span returns the colspan of a table cell, defaulting to 1.
func Span(sel *goquery.Selection) int {
	return spanAttr(sel, "colspan")
}

// RowSpan returns the rowspan of a table cell, defaulting to 1.
func RowSpan(sel *goquery.Selection) int {
	return spanAttr(sel, "rowspan")
}

// ExpandRow returns the cells of a table row with every cell repeated by its
// colspan so that indices line up with the header.
func ExpandRow(row *goquery.Selection) []*goquery.Selection {
	return ExpandRows([]*goquery.Selection{row})[0]
}

type carriedCell struct {
	cell *goquery.Selection
	rows int
}

// ExpandRows lays out the rows of a table as a grid. A cell is repeated by
// its colspan across columns and by its rowspan into the same columns of the
// rows below it. Columns a row leaves empty are nil.
func ExpandRows(rows []*goquery.Selection) [][]*goquery.Selection {
	var carried []carriedCell
	grid := make([][]*goquery.Selection, len(rows))

	for i, row := range rows {
		var cells []*goquery.Selection
		takeCarried := func() {
			for len(cells) < len(carried) && carried[len(cells)].rows > 0 {
				col := len(cells)
				cells = append(cells, carried[col].cell)
				carried[col].rows--
			}
		}

		row.ChildrenFiltered("th, td").Each(func(_ int, cell *goquery.Selection) {
			takeCarried()
			colspan := Span(cell)
			rowspan := RowSpan(cell)
			for j := 0; j < colspan; j++ {
				col := len(cells)
				cells = append(cells, cell)
				for len(carried) <= col {
					carried = append(carried, carriedCell{})
				}
				carried[col] = carriedCell{cell: cell, rows: rowspan - 1}
			}
		})
		takeCarried()

		// cells carried past a gap at the end of a short row
		for col := len(cells); col < len(carried); col++ {
			if carried[col].rows <= 0 {
				continue
			}
			for len(cells) < col {
				cells = append(cells, nil)
			}
			cells = append(cells, carried[col].cell)
			carried[col].rows--
		}

		grid[i] = cells
	}
	return grid
}
