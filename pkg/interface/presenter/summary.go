package presenter

import (
	"fmt"
	"io"
	"strings"

	"github.com/WangYihang/SEO-Auditor/pkg/domain/entity"
	"github.com/charmbracelet/lipgloss"
)

// maxSummaryIssues is how many issues per tier are listed in the summary
const maxSummaryIssues = 5

var tierColors = map[entity.Priority]string{
	entity.P1: "#FF5F87",
	entity.P2: "#FFAF00",
	entity.P3: "#5FAFFF",
}

func tierStyle(p entity.Priority) lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(tierColors[p]))
}

// RenderSummary renders a human readable digest of a report, wrapped to width
func RenderSummary(report *entity.Report, width int) string {
	if width <= 0 {
		width = 80
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#7D56F4"))
	dimStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#999999"))

	lines := []string{
		titleStyle.Render("SEO audit of " + report.Site.URL),
		dimStyle.Render(fmt.Sprintf("host %s | %d page(s) crawled | %d broken link(s)",
			report.Site.Host, report.Site.PagesCrawled, len(report.BrokenLinks))),
	}
	if report.Partial {
		lines = append(lines, tierStyle(entity.P1).Render("Audit was interrupted; results are partial."))
	}
	lines = append(lines, "")

	for _, tier := range entity.Priorities {
		issues := report.PriorityFixes.Bucket(tier)
		lines = append(lines, tierStyle(tier).Render(fmt.Sprintf("%s  %d issue(s)", tier, len(issues))))

		for i, issue := range issues {
			if i == maxSummaryIssues {
				lines = append(lines, dimStyle.Render(fmt.Sprintf("    ... and %d more", len(issues)-maxSummaryIssues)))
				break
			}
			line := fmt.Sprintf("    %s: %s", issue.Code, issue.Message)
			if issue.URL != "" {
				line += " (" + issue.URL + ")"
			}
			// Border and padding take four columns
			lines = append(lines, truncate(line, width-4))
		}
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#874BFD")).
		Padding(0, 1).
		MaxWidth(width)

	return box.Render(strings.Join(lines, "\n"))
}

// PrintSummary writes the report digest sized to the current terminal
func PrintSummary(w io.Writer, report *entity.Report) error {
	_, err := fmt.Fprintln(w, RenderSummary(report, TerminalWidth(100)))
	return err
}
