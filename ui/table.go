package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Table renders rows of pre-styled cells with aligned columns
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
}

// NewTable creates a table with the given title and headers
func NewTable(title string, headers ...string) *Table {
	return &Table{
		Title:   title,
		Headers: headers,
	}
}

// AddRow appends a row
func (t *Table) AddRow(cells ...string) {
	t.Rows = append(t.Rows, cells)
}

// String renders the table; an empty table renders its title and a note
func (t *Table) String() string {
	var sb strings.Builder

	if t.Title != "" {
		sb.WriteString(Heading.Render(t.Title))
		sb.WriteString("\n")
	}
	if len(t.Rows) == 0 {
		sb.WriteString(Dim.Render("  (none)"))
		sb.WriteString("\n")
		return sb.String()
	}

	widths := make([]int, len(t.Headers))
	for i, h := range t.Headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range t.Rows {
		for i, cell := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], lipgloss.Width(cell))
			}
		}
	}

	cell := lipgloss.NewStyle().PaddingRight(2)
	header := Bold.PaddingRight(2)

	for i, h := range t.Headers {
		sb.WriteString(header.Width(widths[i] + 2).Render(h))
	}
	sb.WriteString("\n")

	for _, row := range t.Rows {
		for i, c := range row {
			if i < len(widths) {
				sb.WriteString(cell.Width(widths[i] + 2).Render(c))
			}
		}
		sb.WriteString("\n")
	}

	return sb.String()
}
