package presenter

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/WangYihang/SEO-Auditor/pkg/domain/entity"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const maxRecentPages = 50

// recentPage is one line of the recent pages panel
type recentPage struct {
	url    string
	status int
	issues int
}

// Dashboard is a TUI dashboard for audit progress
type Dashboard struct {
	progress    entity.Progress
	recentPages []recentPage
	tierCounts  map[entity.Priority]int
	bar         progress.Model
	width       int
	height      int
	startTime   time.Time
	mu          sync.RWMutex
}

type tickMsg time.Time

// NewDashboard creates a new TUI dashboard
func NewDashboard() *Dashboard {
	return &Dashboard{
		tierCounts: map[entity.Priority]int{},
		bar:        progress.New(progress.WithDefaultGradient()),
		startTime:  time.Now(),
	}
}

// Init initializes the dashboard
func (d *Dashboard) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(),
		tea.EnterAltScreen,
	)
}

// Update handles dashboard updates
func (d *Dashboard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "Q", "ctrl+c":
			return d, tea.Quit
		}

	case tea.WindowSizeMsg:
		d.width = msg.Width
		d.height = msg.Height
		d.bar.Width = msg.Width/2 - 8
		return d, nil

	case tickMsg:
		// Continue ticking to keep the display updating
		return d, tickCmd()
	}

	return d, nil
}

// View renders the dashboard
func (d *Dashboard) View() string {
	if d.width == 0 {
		return "Initializing..."
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	var sections []string

	header := d.renderHeader()
	sections = append(sections, header)
	headerHeight := lipgloss.Height(header)

	footer := d.renderFooter()
	footerHeight := lipgloss.Height(footer)

	availableHeight := d.height - headerHeight - footerHeight
	if availableHeight < 0 {
		availableHeight = 0
	}
	halfHeight := availableHeight / 2

	leftWidth := d.width / 2
	rightWidth := d.width - leftWidth

	// Row 1: Crawl (Left) | Issues (Right)
	row1 := lipgloss.JoinHorizontal(
		lipgloss.Top,
		d.renderCrawlStats(leftWidth, halfHeight),
		d.renderIssueStats(rightWidth, halfHeight),
	)
	sections = append(sections, row1)

	// Row 2: Links (Left) | Recent Pages (Right)
	remainingHeight := availableHeight - halfHeight
	row2 := lipgloss.JoinHorizontal(
		lipgloss.Top,
		d.renderLinkStats(leftWidth, remainingHeight),
		d.renderRecentPages(rightWidth, remainingHeight),
	)
	sections = append(sections, row2)

	sections = append(sections, footer)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// OnProgress implements application.ProgressObserver
func (d *Dashboard) OnProgress(p entity.Progress) {
	d.mu.Lock()
	d.progress = p
	if !p.StartTime.IsZero() {
		d.startTime = p.StartTime
	}
	d.mu.Unlock()
}

// OnPageRecorded implements application.ProgressObserver
func (d *Dashboard) OnPageRecorded(page *entity.Page) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, issue := range page.Issues {
		d.tierCounts[issue.Priority]++
	}
	d.recentPages = append(d.recentPages, recentPage{url: page.URL, status: page.Status, issues: len(page.Issues)})

	// Keep only the last entries for memory efficiency
	if len(d.recentPages) > maxRecentPages {
		d.recentPages = d.recentPages[len(d.recentPages)-maxRecentPages:]
	}
}

func (d *Dashboard) renderHeader() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#7D56F4")).
		Padding(0, 1)

	timeStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#999999"))

	state := "Running"
	if d.progress.Done {
		state = "Done"
	}

	title := titleStyle.Render("🔎 SEO Auditor")
	timeInfo := timeStyle.Render(fmt.Sprintf(" %s: %s | %s | Time: %s",
		state, formatElapsed(time.Since(d.startTime)), d.progress.StartURL, time.Now().Format("15:04:05")))

	return title + timeInfo
}

func panelStyle(color string, width, height int) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(color)).
		Padding(1, 2).
		Width(width - 2).  // Adjust for border
		Height(height - 2) // Adjust for border
}

func (d *Dashboard) renderCrawlStats(width, height int) string {
	p := d.progress

	ratio := 0.0
	if p.MaxPages > 0 {
		ratio = float64(p.PagesCrawled) / float64(p.MaxPages)
	}

	stats := []string{
		"📊 Crawl",
		"",
		d.bar.ViewAs(ratio),
		"",
		fmt.Sprintf("Pages Crawled:     %d / %d", p.PagesCrawled, p.MaxPages),
		fmt.Sprintf("Fetch Failures:    %d", p.PagesFailed),
		fmt.Sprintf("Current Depth:     %d", p.CurrentDepth),
		fmt.Sprintf("Frontier Length:   %d", p.FrontierLength),
		fmt.Sprintf("Active Workers:    %d / %d", p.ActiveWorkers, p.TotalWorkers),
	}

	elapsed := time.Since(d.startTime).Seconds()
	if elapsed > 0 {
		stats = append(stats,
			"",
			fmt.Sprintf("Page Rate:         %.1f pages/s", float64(p.PagesCrawled)/elapsed),
		)
	}

	return panelStyle("#874BFD", width, height).Render(strings.Join(stats, "\n"))
}

func (d *Dashboard) renderIssueStats(width, height int) string {
	stats := []string{
		"🩺 Issues",
		"",
		tierStyle(entity.P1).Render(fmt.Sprintf("P1 critical:       %d", d.tierCounts[entity.P1])),
		tierStyle(entity.P2).Render(fmt.Sprintf("P2 important:      %d", d.tierCounts[entity.P2])),
		tierStyle(entity.P3).Render(fmt.Sprintf("P3 advisory:       %d", d.tierCounts[entity.P3])),
		"",
		fmt.Sprintf("Page Issues:       %d", d.progress.IssuesFound),
	}

	return panelStyle("#FF6B6B", width, height).Render(strings.Join(stats, "\n"))
}

func (d *Dashboard) renderLinkStats(width, height int) string {
	p := d.progress
	stats := []string{
		"🔗 Links",
		"",
		fmt.Sprintf("Links Probed:      %d", p.LinksProbed),
		fmt.Sprintf("Broken Links:      %d", p.BrokenLinks),
	}

	if p.LinksProbed > 0 {
		stats = append(stats,
			fmt.Sprintf("Broken Rate:       %.1f%%", float64(p.BrokenLinks)/float64(p.LinksProbed)*100),
		)
	}

	if len(p.ActiveURLs) > 0 {
		stats = append(stats, "", "In flight:")
		for _, u := range p.ActiveURLs {
			stats = append(stats, "  "+truncate(u, width-10))
		}
	}

	return panelStyle("#4ECDC4", width, height).Render(strings.Join(stats, "\n"))
}

func (d *Dashboard) renderRecentPages(width, height int) string {
	count := len(d.recentPages)

	lines := []string{
		fmt.Sprintf("📄 Recent Pages (Total: %d)", d.progress.PagesCrawled),
		"",
	}

	if count == 0 {
		lines = append(lines, "No pages recorded yet...")
	} else {
		// Height - 2 (border) - 2 (padding) - 2 (title + empty line)
		maxLines := height - 6
		if maxLines < 0 {
			maxLines = 0
		}

		start := 0
		if count > maxLines {
			start = count - maxLines
		}

		for _, page := range d.recentPages[start:] {
			status := fmt.Sprintf("%3d", page.status)
			if page.status == 0 {
				status = "ERR"
			}
			lines = append(lines, fmt.Sprintf("  %s %2d  %s", status, page.issues, truncate(page.url, width-16)))
		}
	}

	return panelStyle("#04B575", width, height).Render(strings.Join(lines, "\n"))
}

func (d *Dashboard) renderFooter() string {
	footerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#626262")).
		Padding(1, 0)

	return footerStyle.Render("Press 'q' or 'Ctrl+C' to quit")
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Millisecond*500, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Run starts the dashboard
func (d *Dashboard) Run() error {
	p := tea.NewProgram(d, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func formatElapsed(elapsed time.Duration) string {
	hours := int(elapsed.Hours())
	minutes := int(elapsed.Minutes()) % 60
	seconds := int(elapsed.Seconds()) % 60

	switch {
	case hours > 0:
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	case minutes > 0:
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	default:
		return fmt.Sprintf("%ds", seconds)
	}
}

func truncate(s string, limit int) string {
	if limit < 4 {
		limit = 4
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}
