package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
)

// renderHelp renders the help overlay from the key map.
func (m Model) renderHelp() string {
	styles := m.theme.Styles()
	k := m.keys

	sections := []helpSection{
		{title: "General", bindings: []helpItem{
			item(k.ViewCompose), item(k.ViewHistory), item(k.CycleTheme), item(k.Help), item(k.Quit),
		}},
		{title: "Compose", bindings: []helpItem{
			item(k.Tab), item(k.ShiftTab), item(k.LoadFile), item(k.Send), item(k.ClearRecipients),
		}},
		{title: "History", bindings: []helpItem{
			item(k.Up), item(k.Down), item(k.PrevPage), item(k.NextPage), item(k.Refresh),
			item(k.CycleStatus), item(k.CycleSort), item(k.ToggleOrder), item(k.Search),
			item(k.Expand), item(k.ExportCSV), item(k.ExportXLSX), item(k.ExportRecipients),
			item(k.Delete), item(k.Archive),
		}},
	}

	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render("Keyboard Shortcuts"))
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render(strings.Repeat("─", 30)))
	b.WriteString("\n\n")

	keyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Warning)).Width(12)
	for i, section := range sections {
		b.WriteString(styles.AccentText.Bold(true).Render(section.title))
		b.WriteString("\n")
		for _, it := range section.bindings {
			b.WriteString(keyStyle.Render(it.key))
			b.WriteString(styles.Text.Render(it.desc))
			b.WriteString("\n")
		}
		if i < len(sections)-1 {
			b.WriteString("\n")
		}
	}

	modal := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.theme.Accent)).
		Padding(1, 2).
		Width(44)

	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		modal.Render(b.String()),
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color(m.theme.Background)),
	)
}

type helpSection struct {
	title    string
	bindings []helpItem
}

type helpItem struct {
	key  string
	desc string
}

func item(b key.Binding) helpItem {
	h := b.Help()
	return helpItem{key: h.Key, desc: h.Desc}
}
