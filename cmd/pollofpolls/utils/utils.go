package utils

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
)

func NewTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(os.Stdout)
	return t
}

// FormatShare renders a percentage, missing values are rendered as "-".
func FormatShare(value float64, ok bool) string {
	if !ok {
		return "-"
	}
	return fmt.Sprintf("%.1f", value)
}

func FormatOptional[T any](value *T) string {
	if value == nil {
		return "-"
	}
	return fmt.Sprint(*value)
}
