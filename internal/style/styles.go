package style

import "github.com/charmbracelet/lipgloss"

// Bold and Dim are the two text styles Table uses for headers and
// separators; kept here rather than inlined in table.go so other CLI
// output (agents/sessions text fields) can reuse the same look.
var (
	Bold = lipgloss.NewStyle().Bold(true)
	Dim  = lipgloss.NewStyle().Faint(true)
)
