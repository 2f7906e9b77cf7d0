// Package static provides non-interactive terminal output components.
//
// This package contains components for rendering formatted output
// that does not require user interaction, such as the writeup table
// printed by `wu list`.
package static

import (
	"strings"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"
	"github.com/raphi011/wu/internal/ui/styles"
	"github.com/raphi011/wu/internal/writeup"
)

// WriteupTableHeaders are the column headers matching WriteupTableRow.
var WriteupTableHeaders = []string{"BADGE", "CATEGORY", "TITLE", "SIZE", "PATH"}

// WriteupTableRow formats a writeup as a table row.
// With links enabled the title becomes an OSC 8 hyperlink to the GitHub page.
func WriteupTableRow(item writeup.Item, links bool) []string {
	title := item.Title
	if links {
		title = styles.Hyperlink(item.HTMLURL, title)
	}
	return []string{
		styles.FormatBadge(item.Badge),
		item.Category,
		title,
		writeup.FormatSize(item.Size),
		styles.MutedStyle.Render(item.Path),
	}
}

// RenderTable creates a formatted table with proper column alignment.
// Headers and rows are rendered using lipgloss/table which automatically
// calculates column widths based on content. No borders are rendered.
func RenderTable(headers []string, rows [][]string) string {
	if len(rows) == 0 {
		return ""
	}

	var output strings.Builder

	t := table.New().
		Headers(headers...).
		Rows(rows...).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderHeader(false).
		BorderColumn(false).
		BorderRow(false).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return lipgloss.NewStyle().Bold(true).PaddingRight(2)
			}
			return lipgloss.NewStyle().PaddingRight(2)
		})

	output.WriteString(t.String())
	output.WriteString("\n")

	return output.String()
}
