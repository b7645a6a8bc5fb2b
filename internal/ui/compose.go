package ui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/courier/internal/mailapi"
	"github.com/five82/courier/internal/recipients"
)

type composeField int

const (
	fieldSubject composeField = iota
	fieldMessage
	fieldFile
	composeFieldCount
)

type composeState struct {
	subject textinput.Model
	message textarea.Model
	file    textinput.Model
	focus   composeField

	loadSeq int  // identifies the newest recipient load
	loading bool // a recipient file is being parsed
	sending bool // a campaign is in flight
}

func newComposeState(lastFile string) composeState {
	subject := textinput.New()
	subject.Placeholder = "Subject"
	subject.CharLimit = 255
	subject.Prompt = ""

	message := textarea.New()
	message.Placeholder = "Message"
	message.ShowLineNumbers = false
	message.SetHeight(MessageHeight)

	file := textinput.New()
	file.Placeholder = "Path to .xlsx, .xlsm or .csv (enter to load)"
	file.Prompt = ""
	file.SetValue(lastFile)

	return composeState{subject: subject, message: message, file: file}
}

func (c *composeState) busy() bool {
	return c.loading || c.sending
}

func (c *composeState) blurAll() {
	c.subject.Blur()
	c.message.Blur()
	c.file.Blur()
}

// focusCmd focuses the current field and blurs the others.
func (c *composeState) focusCmd() tea.Cmd {
	c.blurAll()
	switch c.focus {
	case fieldMessage:
		return c.message.Focus()
	case fieldFile:
		return c.file.Focus()
	default:
		return c.subject.Focus()
	}
}

func (c *composeState) move(delta int) tea.Cmd {
	c.focus = composeField((int(c.focus) + delta + int(composeFieldCount)) % int(composeFieldCount))
	return c.focusCmd()
}

func (c *composeState) resize(width int) {
	w := max(width-ComposeLabelWidth-6, 20)
	c.subject.Width = w
	c.file.Width = w
	c.message.SetWidth(w)
}

// handleComposeKey processes keyboard input for the compose view.
func (m Model) handleComposeKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Tab):
		return m, m.compose.move(1)

	case key.Matches(msg, m.keys.ShiftTab):
		return m, m.compose.move(-1)

	case key.Matches(msg, m.keys.Send):
		return m.startSend()

	case key.Matches(msg, m.keys.ClearRecipients):
		m.loader.Clear()
		m.setFlash(flashInfo, "Recipients cleared.")
		return m, nil

	case key.Matches(msg, m.keys.LoadFile) && m.compose.focus == fieldFile:
		return m.startLoad()

	case key.Matches(msg, m.keys.LoadFile) && m.compose.focus == fieldSubject:
		return m, m.compose.move(1)
	}

	return m.updateComposeInput(msg)
}

// updateComposeInput forwards msg to the focused field.
func (m Model) updateComposeInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.compose.focus {
	case fieldMessage:
		m.compose.message, cmd = m.compose.message.Update(msg)
	case fieldFile:
		m.compose.file, cmd = m.compose.file.Update(msg)
	default:
		m.compose.subject, cmd = m.compose.subject.Update(msg)
	}
	return m, cmd
}

// startLoad parses the file named in the file field. A newer load
// supersedes one still running.
func (m Model) startLoad() (tea.Model, tea.Cmd) {
	path := expandHome(strings.TrimSpace(m.compose.file.Value()))
	if path == "" {
		m.setFlash(flashError, "Enter the path of a recipient file.")
		return m, nil
	}
	m.compose.loadSeq++
	m.compose.loading = true
	// An older load must not land after this one, even if this file
	// cannot be read.
	m.loader.Supersede()
	m.setFlash(flashInfo, "Loading "+filepath.Base(path)+"...")
	return m, tea.Batch(m.spinner.Tick, loadRecipientsCmd(m.ctx, m.loader, m.compose.loadSeq, path))
}

func (m Model) handleRecipientsLoaded(msg recipientsLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.seq != m.compose.loadSeq || errors.Is(msg.err, recipients.ErrSuperseded) {
		return m, nil
	}
	m.compose.loading = false
	if msg.err != nil {
		m.logger.Info("recipient file rejected", "file", msg.path, "error", msg.err)
		m.flashError(msg.err)
		return m, nil
	}
	m.setFlash(flashSuccess, fmt.Sprintf("%s loaded from %s.", recipientCount(len(msg.list)), msg.source))
	m.prefs.LastFile = msg.path
	m.savePrefs()
	return m, nil
}

// startSend submits the loaded recipients. The send guards run here so an
// empty list or blank field never leaves the client, and only one send is
// ever in flight.
func (m Model) startSend() (tea.Model, tea.Cmd) {
	if m.compose.sending {
		m.setFlash(flashInfo, "A send is already in progress.")
		return m, nil
	}
	if m.compose.loading {
		m.setFlash(flashInfo, "Wait for the recipient file to finish loading.")
		return m, nil
	}
	req := mailapi.SendRequest{
		Recipients: m.loader.Current().Recipients,
		Subject:    m.compose.subject.Value(),
		Message:    m.compose.message.Value(),
	}
	if err := req.Validate(); err != nil {
		m.flashError(err)
		return m, nil
	}
	if m.client == nil {
		m.setFlash(flashError, "No mail API configured.")
		return m, nil
	}
	m.compose.sending = true
	m.setFlash(flashInfo, fmt.Sprintf("Sending to %s...", recipientCount(len(req.Recipients))))
	return m, tea.Batch(m.spinner.Tick, sendCmd(m.ctx, m.client, req))
}

func (m Model) handleSendDone(msg sendDoneMsg) (tea.Model, tea.Cmd) {
	m.compose.sending = false
	if msg.err != nil {
		m.logger.Warn("send failed", "recipients", msg.count, "error", msg.err)
		m.flashError(msg.err)
		return m, nil
	}

	text := strings.TrimSpace(msg.result.Message)
	if text == "" {
		text = fmt.Sprintf("Campaign sent to %s.", recipientCount(msg.count))
	}
	if msg.result.CampaignID != "" {
		text += " (" + msg.result.CampaignID + ")"
	}
	m.logger.Info("campaign sent", "recipients", msg.count, "campaign", msg.result.CampaignID)
	m.setFlash(flashSuccess, text)

	m.compose.subject.Reset()
	m.compose.message.Reset()
	m.loader.Clear()
	m.nudge()
	return m, nil
}

// renderCompose renders the compose form.
func (m Model) renderCompose() string {
	styles := m.theme.Styles()
	label := lipgloss.NewStyle().Width(ComposeLabelWidth).Foreground(lipgloss.Color(m.theme.Muted))

	panel := func(f composeField, body string) string {
		if m.compose.focus == f {
			return styles.FocusPanel.Render(body)
		}
		return styles.Panel.Render(body)
	}

	row := func(name string, f composeField, body string) string {
		return lipgloss.JoinHorizontal(lipgloss.Top, label.Render(name), panel(f, body))
	}

	loaded := m.loader.Current()
	count := styles.MutedText.Render(recipientCount(loaded.Recipients.Len()) + " loaded")
	if loaded.Source != "" {
		count += styles.FaintText.Render("  from " + truncateMiddle(loaded.Source, 40))
	}
	if m.compose.loading {
		count = m.spinner.View() + " " + styles.InfoText.Render("parsing...")
	}

	sendLine := styles.AccentText.Render("ctrl+s") + styles.MutedText.Render(" send")
	if m.compose.sending {
		sendLine = m.spinner.View() + " " + styles.WarningText.Render("sending...")
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		row("Subject", fieldSubject, m.compose.subject.View()),
		row("Message", fieldMessage, m.compose.message.View()),
		row("Recipients", fieldFile, m.compose.file.View()),
		strings.Repeat(" ", ComposeLabelWidth)+count,
		"",
		strings.Repeat(" ", ComposeLabelWidth)+sendLine,
	)
}

// Messages

type recipientsLoadedMsg struct {
	seq    int
	path   string
	source string
	list   recipients.RecipientList
	err    error
}

type sendDoneMsg struct {
	count  int
	result mailapi.SendResult
	err    error
}

// Commands

func loadRecipientsCmd(ctx context.Context, loader *recipients.Loader, seq int, path string) tea.Cmd {
	return func() tea.Msg {
		file, err := recipients.ReadFile(path, "")
		if err != nil {
			return recipientsLoadedMsg{seq: seq, path: path, err: err}
		}
		list, err := loader.Load(ctx, file)
		return recipientsLoadedMsg{seq: seq, path: path, source: file.Name, list: list, err: err}
	}
}

func sendCmd(ctx context.Context, client mailapi.API, req mailapi.SendRequest) tea.Cmd {
	return func() tea.Msg {
		result, err := client.SendBulk(ctx, req)
		return sendDoneMsg{count: len(req.Recipients), result: result, err: err}
	}
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
