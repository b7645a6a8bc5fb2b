package ui

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// renderHeader renders the top bar: logo, view tabs and API status.
func (m Model) renderHeader() string {
	styles := m.theme.Styles()
	bar := lipgloss.NewStyle().Background(lipgloss.Color(m.theme.Surface))
	on := func(s lipgloss.Style) lipgloss.Style { return s.Background(lipgloss.Color(m.theme.Surface)) }
	sep := bar.Render("  ")

	tab := func(label string, v View) string {
		if m.currentView == v {
			return styles.Selected.Bold(true).Padding(0, 1).Render(label)
		}
		return on(styles.MutedText).Padding(0, 1).Render(label)
	}

	parts := []string{
		on(styles.Logo).Render("courier"),
		tab("F2 Compose", ViewCompose) + tab("F3 History", ViewHistory),
		on(styles.Text).Render(recipientCount(m.loader.Current().Recipients.Len()) + " loaded"),
		m.renderAPIStatus(),
	}

	return styles.Header.Width(m.width).Render(strings.Join(parts, sep))
}

// renderAPIStatus describes the last history poll.
func (m Model) renderAPIStatus() string {
	styles := m.theme.Styles()
	on := func(s lipgloss.Style) lipgloss.Style { return s.Background(lipgloss.Color(m.theme.Surface)) }
	snap := m.snapshot

	switch {
	case snap.IsOffline():
		text := on(styles.DangerText).Render("API OFFLINE") + " " + on(styles.WarningText).Render("retrying...")
		if m.config != nil && m.config.LogFile != "" {
			text += " " + on(styles.FaintText).Render("logs "+truncateMiddle(m.config.LogFile, 40))
		}
		return text
	case snap.LastError != nil:
		return on(styles.WarningText).Render("API error: " + truncateMiddle(errorText(snap.LastError), 60))
	case snap.LastUpdated.IsZero():
		return on(styles.MutedText).Render("connecting...")
	default:
		return on(styles.MutedText).Render("updated " + humanizeDuration(time.Since(snap.LastUpdated)) + " ago")
	}
}

// renderFlash renders the latest status message. Errors stay until replaced;
// other messages fade after FlashTTL.
func (m Model) renderFlash() string {
	styles := m.theme.Styles()
	f := m.flash
	if f.text == "" || (f.level != flashError && time.Since(f.at) > FlashTTL) {
		return ""
	}
	switch f.level {
	case flashError:
		return styles.DangerText.Render(f.text)
	case flashSuccess:
		return styles.SuccessText.Render(f.text)
	default:
		return styles.InfoText.Render(f.text)
	}
}

// renderFooter renders the key hints for the active view.
func (m Model) renderFooter() string {
	styles := m.theme.Styles()
	var hints [][2]string
	switch m.currentView {
	case ViewHistory:
		hints = [][2]string{
			{"f", "status"}, {"s/o", "sort"}, {"/", "search"}, {"[ ]", "page"},
			{"enter", "recipients"}, {"x/X", "export"}, {"d", "delete"}, {"a", "archive"},
		}
	default:
		hints = [][2]string{
			{"tab", "next field"}, {"enter", "load file"}, {"ctrl+s", "send"}, {"ctrl+x", "clear list"},
		}
	}
	hints = append(hints, [2]string{"f1", "help"}, [2]string{"ctrl+c", "quit"})

	keyStyle := styles.AccentText.Background(lipgloss.Color(m.theme.Surface))
	descStyle := styles.MutedText.Background(lipgloss.Color(m.theme.Surface))
	space := lipgloss.NewStyle().Background(lipgloss.Color(m.theme.Surface))

	parts := make([]string, len(hints))
	for i, h := range hints {
		parts[i] = keyStyle.Render(h[0]) + space.Render(" ") + descStyle.Render(h[1])
	}
	return styles.Footer.Width(m.width).Render(strings.Join(parts, space.Render("  ")))
}
