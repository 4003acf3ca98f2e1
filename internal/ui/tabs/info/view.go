package info

import (
	"fmt"
	"runtime"

	"github.com/charmbracelet/lipgloss"

	"github.com/hfrankel/cursor-usage-tui/internal/credstore"
	"github.com/hfrankel/cursor-usage-tui/internal/ui/styles"
	"github.com/hfrankel/cursor-usage-tui/internal/version"
)

// View renders the info tab.
func (m *Model) View() string {
	var sections []string

	sections = append(sections, m.renderTitle())
	sections = append(sections, m.renderConfigCard())
	sections = append(sections, m.renderSessionCard())
	sections = append(sections, m.renderAboutCard())

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)

	m.viewport.SetContent(content)

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

// renderTitle renders the info tab title.
func (m *Model) renderTitle() string {
	title := styles.TitleStyle.Render("Info")
	subtitle := styles.HelpStyle.Render("Configuration and application information")

	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle, "")
}

func (m *Model) cardWidth() int {
	cardWidth := m.width - 6
	if cardWidth < 50 {
		cardWidth = 50
	}
	if cardWidth > 80 {
		cardWidth = 80
	}
	return cardWidth
}

// renderConfigCard renders the configuration card.
func (m *Model) renderConfigCard() string {
	var rows []string
	rows = append(rows, styles.CardTitleStyle.Render("Configuration"))
	rows = append(rows, "")

	if m.config != nil {
		storePath := m.config.StorePath
		if storePath == "" {
			storePath = credstore.DefaultPath()
		}
		rows = append(rows, m.renderRow("State Database", storePath))
		rows = append(rows, m.renderRow("API Base URL", m.config.APIBaseURL))
		rows = append(rows, m.renderRow("Dashboard URL", m.config.DashboardURL))
		rows = append(rows, m.renderRow("Refresh Every", m.config.RefreshInterval.String()))
		if m.config.SpendAlertDollars > 0 {
			rows = append(rows, m.renderRow("Spend Alert", fmt.Sprintf("$%.2f/day", m.config.SpendAlertDollars)))
		}
	} else {
		rows = append(rows, styles.HelpStyle.Render("Configuration not loaded"))
	}

	rows = append(rows, "")
	rows = append(rows, styles.HelpStyle.Render("Press 'o' to open the usage dashboard"))

	return styles.CardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

// renderRow renders a key-value row.
func (m *Model) renderRow(label, value string) string {
	labelStyle := lipgloss.NewStyle().
		Width(18).
		Foreground(styles.TextMuted)

	valueStyle := lipgloss.NewStyle().
		Foreground(styles.TextPrimary)

	return labelStyle.Render(label+":") + " " + valueStyle.Render(value)
}

// renderSessionCard renders the authenticated session card.
func (m *Model) renderSessionCard() string {
	var rows []string
	rows = append(rows, styles.CardTitleStyle.Render("Session"))
	rows = append(rows, "")

	if m.userID != "" {
		rows = append(rows, m.renderRow("User ID", m.userID))
		rows = append(rows, m.renderRow("Status", styles.SuccessTextStyle.Render("authenticated")))
	} else {
		rows = append(rows, m.renderRow("Status", styles.ErrorTextStyle.Render("not authenticated")))
		rows = append(rows, styles.HelpStyle.Render("Log in to Cursor and restart"))
	}

	if m.state.RestartNeeded() {
		rows = append(rows, "")
		rows = append(rows, styles.WarningTextStyle.Render("Login changed on disk - restart to pick it up"))
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

// renderAboutCard renders the about/version information card.
func (m *Model) renderAboutCard() string {
	var rows []string
	rows = append(rows, styles.CardTitleStyle.Render("About cursor-usage-tui"))
	rows = append(rows, "")

	rows = append(rows, m.renderRow("Version", version.Short()))
	rows = append(rows, m.renderRow("Build Date", version.BuildDate()))
	rows = append(rows, m.renderRow("Git Commit", version.CommitHash()))
	rows = append(rows, m.renderRow("Go Version", runtime.Version()))
	rows = append(rows, m.renderRow("Platform", fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)))

	return styles.CardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}
