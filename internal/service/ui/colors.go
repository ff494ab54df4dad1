// Package ui holds the terminal styles of the brain CLI.
package ui

import "github.com/charmbracelet/lipgloss"

var (
	TitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true).MarginBottom(1)
	UsageStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	DescStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	FlagStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))

	OKStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	FailStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	KeyStyle  = lipgloss.NewStyle().Width(14)
)

// StatusLine renders "name  ok|fail  detail" for probe output.
func StatusLine(name string, ok bool, detail string) string {
	mark := OKStyle.Render("ok")
	if !ok {
		mark = FailStyle.Render("fail")
	}
	line := KeyStyle.Render(name) + " " + mark
	if detail != "" {
		line += "  " + DescStyle.Render(detail)
	}
	return line
}
