package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"kestrel/internal/observ"
)

var (
	timingHeader = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	timingName   = lipgloss.NewStyle().Width(10)
	timingNote   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	timingValue  = lipgloss.NewStyle().Width(10).Align(lipgloss.Right)
	timingTotal  = lipgloss.NewStyle().Bold(true)
)

// printTimings renders the timer report as a two-column table. Without
// colour the styles only pad.
func printTimings(out io.Writer, report observ.Report, colored bool) {
	if len(report.Phases) == 0 {
		return
	}
	style := func(s lipgloss.Style) lipgloss.Style {
		if colored {
			return s
		}
		return s.UnsetBold().UnsetForeground()
	}

	var sb strings.Builder
	sb.WriteString(style(timingHeader).Render("timings"))
	sb.WriteString("\n")
	for _, p := range report.Phases {
		row := lipgloss.JoinHorizontal(lipgloss.Top,
			"  ",
			style(timingName).Render(p.Name),
			style(timingValue).Render(fmt.Sprintf("%.2f ms", p.DurationMS)),
		)
		sb.WriteString(row)
		if p.Note != "" {
			sb.WriteString("  ")
			sb.WriteString(style(timingNote).Render(p.Note))
		}
		sb.WriteString("\n")
	}
	total := lipgloss.JoinHorizontal(lipgloss.Top,
		"  ",
		style(timingName).Inherit(style(timingTotal)).Render("total"),
		style(timingValue).Inherit(style(timingTotal)).Render(fmt.Sprintf("%.2f ms", report.TotalMS)),
	)
	sb.WriteString(total)
	sb.WriteString("\n")
	_, _ = io.WriteString(out, sb.String())
}
