package usage

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/hfrankel/cursor-usage-tui/internal/models"
	"github.com/hfrankel/cursor-usage-tui/internal/ui/components"
	"github.com/hfrankel/cursor-usage-tui/internal/ui/styles"
)

const maxLineItems = 10

// View renders the usage tab.
func (m *Model) View() string {
	snap := m.state.GetSnapshot()

	if snap.Data == nil {
		if snap.Err != "" {
			return m.renderError(snap.Err)
		}
		return components.RenderSpinnerCentered(m.spinner, m.width, m.height)
	}

	var sections []string

	sections = append(sections, m.renderTitle(snap.Data))

	if snap.Err != "" {
		sections = append(sections, styles.WarningTextStyle.Render(
			fmt.Sprintf("⚠ Last refresh failed, showing data from %s: %s",
				snap.LastUpdated.Format("15:04:05"), snap.Err)))
		sections = append(sections, "")
	}
	if m.state.RestartNeeded() {
		sections = append(sections, styles.WarningTextStyle.Render(
			"⚠ Cursor login changed on disk - restart to pick it up"))
		sections = append(sections, "")
	}

	sections = append(sections, m.renderBillingCard(snap.Data))
	sections = append(sections, m.renderWindowsCard(snap.Data))
	sections = append(sections, m.renderModelsCard(snap.Data))

	if history := m.state.GetSpendHistory(); len(history) > 1 {
		sections = append(sections, m.renderSpendTrendCard(history))
	}

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)

	m.viewport.SetContent(content)

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

func (m *Model) renderError(errMsg string) string {
	var lines []string
	lines = append(lines, styles.ErrorTextStyle.Bold(true).Render("Unable to load usage data"))
	lines = append(lines, "")
	lines = append(lines, styles.ErrorTextStyle.Render(errMsg))
	lines = append(lines, "")
	lines = append(lines, styles.HelpStyle.Render("Make sure Cursor is installed and you are logged in."))
	lines = append(lines, styles.HelpStyle.Render("Press 'r' to retry or 'q' to quit."))

	content := lipgloss.JoinVertical(lipgloss.Left, lines...)
	return styles.CenterBoth(styles.CardStyle.Render(content), m.width, m.height)
}

func (m *Model) renderTitle(data *models.UsageDisplayData) string {
	title := styles.TitleStyle.Render("Cursor Usage")
	subtitle := styles.HelpStyle.Render(fmt.Sprintf(
		"Billing period since %s",
		data.BillingPeriodStart.Format("Jan 2, 2006"),
	))

	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle, "")
}

func (m *Model) cardWidth() int {
	return max(m.width-6, 40)
}

func (m *Model) renderBillingCard(data *models.UsageDisplayData) string {
	var rows []string

	titleIcon := lipgloss.NewStyle().Foreground(styles.Primary).Render("◈")
	rows = append(rows, fmt.Sprintf("%s %s", titleIcon, styles.CardTitleStyle.Render("Billing Period")))
	rows = append(rows, "")

	spend := styles.GetSpendStyle(data.TotalSpendDollars).Render(formatDollars(data.TotalSpendDollars))
	rows = append(rows, statRow("Spend", spend))
	rows = append(rows, statRow("Requests", styles.StatValueStyle.Render(formatCount(data.TotalRequests))))
	rows = append(rows, statRow("Tokens", styles.StatValueStyle.Render(formatTokens(data.TotalTokens))))

	if !m.state.GetLastUpdated().IsZero() {
		rows = append(rows, "")
		rows = append(rows, styles.HelpStyle.Render(
			"Updated "+m.state.GetLastUpdated().Format("15:04:05")))
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

func (m *Model) renderWindowsCard(data *models.UsageDisplayData) string {
	var rows []string

	titleIcon := lipgloss.NewStyle().Foreground(styles.Primary).Render("◷")
	rows = append(rows, fmt.Sprintf("%s %s", titleIcon, styles.CardTitleStyle.Render("Rolling Windows")))
	rows = append(rows, "")

	header := fmt.Sprintf("  %-14s %10s %10s %10s", "Window", "Spend", "Requests", "Tokens")
	rows = append(rows, styles.TableHeaderStyle.Render(header))

	for _, p := range []models.PeriodSummary{data.Today, data.Last7Days, data.Last30Days} {
		line := fmt.Sprintf("  %-14s %10s %10s %10s",
			p.Label,
			formatDollars(p.SpendDollars),
			formatCount(p.Requests),
			formatTokens(p.Tokens),
		)
		rows = append(rows, styles.GetSpendStyle(p.SpendDollars).Render(line))
	}

	rows = append(rows, "")
	rows = append(rows, "  "+components.RenderLegend([]components.LegendItem{
		{Label: "under $5", Color: styles.Success},
		{Label: "$5 to $20", Color: styles.Warning},
		{Label: "$20 and up", Color: styles.Error},
	}))

	return styles.CardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

func (m *Model) renderModelsCard(data *models.UsageDisplayData) string {
	var rows []string

	titleIcon := lipgloss.NewStyle().Foreground(styles.Primary).Render("⬡")
	rows = append(rows, fmt.Sprintf("%s %s", titleIcon, styles.CardTitleStyle.Render("Per-Model Breakdown")))
	rows = append(rows, "")

	if len(data.LineItems) == 0 {
		rows = append(rows, styles.HelpStyle.Render("  No usage recorded this billing period"))
		return styles.CardStyle.Width(m.cardWidth()).Render(
			lipgloss.JoinVertical(lipgloss.Left, rows...),
		)
	}

	items := data.LineItems
	truncated := false
	if len(items) > maxLineItems {
		items = items[:maxLineItems]
		truncated = true
	}

	values := make([]float64, len(items))
	labels := make([]string, len(items))
	for i, item := range items {
		values[i] = item.CostDollars
		labels[i] = shortenModel(item.ModelName)
	}
	rows = append(rows, components.RenderBarChart(values, labels, m.cardWidth()-6))

	rows = append(rows, "")
	header := fmt.Sprintf("  %-28s %10s %10s %10s", "Model", "Cost", "Requests", "Tokens")
	rows = append(rows, styles.TableHeaderStyle.Render(header))
	for _, item := range items {
		rows = append(rows, fmt.Sprintf("  %-28s %10s %10s %10s",
			shortenModel(item.ModelName),
			formatDollars(item.CostDollars),
			formatCount(item.RequestCount),
			formatTokens(item.TotalTokens),
		))
	}
	if truncated {
		rows = append(rows, styles.HelpStyle.Render(
			fmt.Sprintf("  ... and %d more", len(data.LineItems)-maxLineItems)))
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

func (m *Model) renderSpendTrendCard(history []float64) string {
	var rows []string

	titleIcon := lipgloss.NewStyle().Foreground(styles.Primary).Render("◍")
	rows = append(rows, fmt.Sprintf("%s %s", titleIcon, styles.CardTitleStyle.Render("Today's Spend Trend")))
	rows = append(rows, "")

	chartWidth := max(m.cardWidth()-16, 20)
	rows = append(rows, components.RenderLineChart(history, chartWidth, 5, "spend this session ($)"))

	return styles.CardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

func statRow(label, value string) string {
	return styles.StatLabelStyle.Width(12).Render(label+":") + " " + value
}

// formatDollars renders a dollar amount with two decimal places.
func formatDollars(d float64) string {
	return fmt.Sprintf("$%.2f", d)
}

// formatCount renders a request count with thousands separators.
func formatCount(n int) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}
	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	return s + "," + strings.Join(parts, ",")
}

// formatTokens renders token counts compactly (1.4K, 2.3M).
func formatTokens(n int64) string {
	switch {
	case n >= 1_000_000_000:
		return fmt.Sprintf("%.1fB", float64(n)/1_000_000_000)
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%.1fK", float64(n)/1_000)
	default:
		return fmt.Sprintf("%d", n)
	}
}

// shortenModel trims long model identifiers for table display.
func shortenModel(name string) string {
	if len(name) <= 28 {
		return name
	}
	return name[:25] + "..."
}
