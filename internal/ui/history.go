package ui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/courier/internal/history"
	"github.com/five82/courier/internal/mailapi"
	"github.com/five82/courier/internal/prefs"
)

type actionKind int

const (
	actionDelete actionKind = iota
	actionArchive
)

func (a actionKind) verb() string {
	if a == actionArchive {
		return "archive"
	}
	return "delete"
}

// pendingAction is a destructive action waiting for confirmation.
type pendingAction struct {
	kind    actionKind
	id      string
	subject string
}

type exportKind int

const (
	exportCSV exportKind = iota
	exportXLSX
	exportRecipients
)

type historyState struct {
	table     table.Model
	records   []mailapi.CampaignRecord // current page after local filter and sort
	sortKey   history.SortKey
	desc      bool
	search    textinput.Model
	searching bool
	expanded  bool
	pending   *pendingAction
	busy      bool
}

func newHistoryState(p prefs.Prefs) historyState {
	sortKey, err := history.ParseSortKey(p.HistorySort)
	if err != nil {
		sortKey = history.SortCreated
	}

	search := textinput.New()
	search.Placeholder = "subject or recipient"
	search.Prompt = "/ "
	search.CharLimit = 120

	t := table.New(
		table.WithColumns(historyColumns(LayoutCompactWidth)),
		table.WithFocused(true),
		table.WithHeight(10),
	)

	return historyState{table: t, sortKey: sortKey, desc: p.HistoryDesc, search: search}
}

func historyColumns(width int) []table.Column {
	subject := max(width-HistoryFixedColumnsWidth, 20)
	return []table.Column{
		{Title: "Date", Width: 16},
		{Title: "Subject", Width: subject},
		{Title: "Status", Width: 8},
		{Title: "Recipients", Width: 10},
		{Title: "Failed", Width: 6},
	}
}

func (h *historyState) resize(width, height int, theme Theme) {
	if width <= 0 {
		return
	}
	h.table.SetColumns(historyColumns(width))
	h.table.SetWidth(width)
	tableHeight := height - HistoryChromeHeight
	if h.expanded {
		tableHeight -= ExpandedRecipientsHeight
	}
	h.table.SetHeight(max(tableHeight, 3))
	h.search.Width = max(width-10, 10)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color(theme.Border)).
		BorderBottom(true).
		Foreground(lipgloss.Color(theme.Accent)).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color(theme.SelectionText)).
		Background(lipgloss.Color(theme.SelectionBg)).
		Bold(false)
	h.table.SetStyles(s)
}

// selected returns the highlighted record, if any.
func (h *historyState) selected() (mailapi.CampaignRecord, bool) {
	i := h.table.Cursor()
	if i < 0 || i >= len(h.records) {
		return mailapi.CampaignRecord{}, false
	}
	return h.records[i], true
}

// syncHistory rebuilds the table rows from the latest snapshot. The server
// already filters by status and search; the local pass keeps the view
// consistent if it does not.
func (m *Model) syncHistory() {
	var records []mailapi.CampaignRecord
	if m.snapshot.HasPage {
		q := m.snapshot.Query
		records = history.Filter(m.snapshot.Page.Records, history.Criteria{Status: q.Status, Search: q.Search})
		records = history.Sort(records, m.history.sortKey, m.history.desc)
	}
	m.history.records = records

	rows := make([]table.Row, len(records))
	for i, rec := range records {
		rows[i] = table.Row{
			formatDate(rec.CreatedAt),
			rec.Subject,
			string(rec.Status),
			fmt.Sprintf("%d", rec.RecipientCount),
			fmt.Sprintf("%d", rec.FailedCount()),
		}
	}
	m.history.table.SetRows(rows)
	if c := m.history.table.Cursor(); c >= len(rows) {
		m.history.table.SetCursor(max(len(rows)-1, 0))
	}
}

// changeQuery applies edit to the selected history query, hands it to the
// poller and clears the table until the new page arrives.
func (m *Model) changeQuery(edit func(q *mailapi.HistoryQuery)) tea.Cmd {
	q := m.store.Query()
	edit(&q)
	m.store.SetQuery(q)
	m.history.expanded = false
	m.nudge()
	m.snapshot = m.store.Snapshot()
	m.syncHistory()
	return fetchSnapshotCmd(m.store)
}

// handleHistoryKey processes keyboard input for the history view.
func (m Model) handleHistoryKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.history.searching {
		return m.handleSearchKey(msg)
	}
	if p := m.history.pending; p != nil {
		m.history.pending = nil
		if key.Matches(msg, m.keys.Confirm) {
			m.history.busy = true
			m.setFlash(flashInfo, fmt.Sprintf("Working: %s %q...", p.kind.verb(), p.subject))
			return m, tea.Batch(m.spinner.Tick, actionCmd(m.ctx, m.client, *p))
		}
		m.setFlash(flashInfo, "Cancelled.")
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Up):
		m.history.table.MoveUp(1)
	case key.Matches(msg, m.keys.Down):
		m.history.table.MoveDown(1)

	case key.Matches(msg, m.keys.PrevPage):
		if m.store.Query().Page <= 1 {
			return m, nil
		}
		return m, m.changeQuery(func(q *mailapi.HistoryQuery) { q.Page-- })

	case key.Matches(msg, m.keys.NextPage):
		q := m.store.Query()
		if !m.snapshot.HasPage || q.Page >= m.snapshot.Page.TotalPages {
			return m, nil
		}
		return m, m.changeQuery(func(q *mailapi.HistoryQuery) { q.Page++ })

	case key.Matches(msg, m.keys.Refresh):
		m.nudge()
		return m, fetchSnapshotCmd(m.store)

	case key.Matches(msg, m.keys.CycleStatus):
		next := nextStatus(m.store.Query().Status)
		m.prefs.StatusFilter = string(next)
		m.savePrefs()
		return m, m.changeQuery(func(q *mailapi.HistoryQuery) {
			q.Status = next
			q.Page = 1
		})

	case key.Matches(msg, m.keys.CycleSort):
		m.history.sortKey = m.history.sortKey.Next()
		m.prefs.HistorySort = string(m.history.sortKey)
		m.savePrefs()
		m.syncHistory()

	case key.Matches(msg, m.keys.ToggleOrder):
		m.history.desc = !m.history.desc
		m.prefs.HistoryDesc = m.history.desc
		m.savePrefs()
		m.syncHistory()

	case key.Matches(msg, m.keys.Search):
		m.history.searching = true
		m.history.search.SetValue(m.store.Query().Search)
		return m, m.history.search.Focus()

	case key.Matches(msg, m.keys.Expand):
		m.history.expanded = !m.history.expanded
		m.history.resize(m.width, m.height, m.theme)

	case key.Matches(msg, m.keys.Escape):
		m.history.expanded = false
		m.history.resize(m.width, m.height, m.theme)

	case key.Matches(msg, m.keys.ExportCSV):
		return m.startExport(exportCSV)
	case key.Matches(msg, m.keys.ExportXLSX):
		return m.startExport(exportXLSX)
	case key.Matches(msg, m.keys.ExportRecipients):
		return m.startExport(exportRecipients)

	case key.Matches(msg, m.keys.Delete):
		return m.askConfirm(actionDelete)
	case key.Matches(msg, m.keys.Archive):
		return m.askConfirm(actionArchive)
	}
	return m, nil
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.history.searching = false
		m.history.search.Blur()
		term := strings.TrimSpace(m.history.search.Value())
		return m, m.changeQuery(func(q *mailapi.HistoryQuery) {
			q.Search = term
			q.Page = 1
		})
	case tea.KeyEsc:
		m.history.searching = false
		m.history.search.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.history.search, cmd = m.history.search.Update(msg)
	return m, cmd
}

func (m Model) askConfirm(kind actionKind) (tea.Model, tea.Cmd) {
	if m.history.busy {
		m.setFlash(flashInfo, "Another action is still running.")
		return m, nil
	}
	rec, ok := m.history.selected()
	if !ok {
		return m, nil
	}
	if m.client == nil {
		m.setFlash(flashError, "No mail API configured.")
		return m, nil
	}
	m.history.pending = &pendingAction{kind: kind, id: rec.ID, subject: rec.Subject}
	m.setFlash(flashInfo, fmt.Sprintf("%s %q? y to confirm, any other key cancels.", capitalize(kind.verb()), rec.Subject))
	return m, nil
}

func (m Model) handleActionDone(msg actionDoneMsg) (tea.Model, tea.Cmd) {
	m.history.busy = false
	if msg.err != nil {
		m.logger.Warn("history action failed", "action", msg.action.kind.verb(), "campaign", msg.action.id, "error", msg.err)
		m.flashError(msg.err)
		return m, nil
	}
	past := "Deleted"
	if msg.action.kind == actionArchive {
		past = "Archived"
	}
	m.setFlash(flashSuccess, fmt.Sprintf("%s %q.", past, msg.action.subject))
	m.nudge()
	return m, fetchSnapshotCmd(m.store)
}

func (m Model) startExport(kind exportKind) (tea.Model, tea.Cmd) {
	if len(m.history.records) == 0 {
		m.setFlash(flashInfo, "Nothing to export.")
		return m, nil
	}
	dir := m.exportDir
	if dir == "" {
		dir = "."
	}
	stamp := time.Now().Format("20060102-150405")

	switch kind {
	case exportRecipients:
		rec, ok := m.history.selected()
		if !ok {
			return m, nil
		}
		path := filepath.Join(dir, fmt.Sprintf("courier-recipients-%s-%s.xlsx", sanitizeFileName(rec.ID), stamp))
		return m, exportCmd(path, 1, func(f *os.File) error { return history.ExportRecipientsXLSX(f, rec) })
	case exportXLSX:
		records := m.history.records
		path := filepath.Join(dir, fmt.Sprintf("courier-history-%s.xlsx", stamp))
		return m, exportCmd(path, len(records), func(f *os.File) error { return history.ExportXLSX(f, records) })
	default:
		records := m.history.records
		path := filepath.Join(dir, fmt.Sprintf("courier-history-%s.csv", stamp))
		return m, exportCmd(path, len(records), func(f *os.File) error { return history.ExportCSV(f, records) })
	}
}

func (m Model) handleExportDone(msg exportDoneMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.logger.Warn("export failed", "path", msg.path, "error", msg.err)
		m.setFlash(flashError, "Export failed: "+msg.err.Error())
		return m, nil
	}
	m.setFlash(flashSuccess, fmt.Sprintf("Exported %d row(s) to %s.", msg.rows, msg.path))
	return m, nil
}

// renderHistory renders the history table, its status line and, when
// expanded, the selected campaign's recipients.
func (m Model) renderHistory() string {
	styles := m.theme.Styles()
	q := m.snapshot.Query

	var parts []string

	filter := "all"
	if q.Status != "" {
		filter = string(q.Status)
	}
	order := "asc"
	if m.history.desc {
		order = "desc"
	}
	pageInfo := fmt.Sprintf("page %d", q.Page)
	if m.snapshot.HasPage {
		pageInfo = fmt.Sprintf("page %d/%d · %d total", q.Page, max(m.snapshot.Page.TotalPages, 1), m.snapshot.Page.Total)
	}
	info := []string{
		styles.MutedText.Render("filter ") + styles.AccentText.Render(filter),
		styles.MutedText.Render("sort ") + styles.AccentText.Render(string(m.history.sortKey)+" "+order),
		styles.MutedText.Render(pageInfo),
	}
	if q.Search != "" {
		info = append(info, styles.MutedText.Render("search ")+styles.AccentText.Render(q.Search))
	}
	parts = append(parts, strings.Join(info, styles.FaintText.Render("  │  ")))

	if m.history.searching {
		parts = append(parts, m.history.search.View())
	}

	switch {
	case !m.snapshot.HasPage && m.snapshot.LastError != nil:
		parts = append(parts, styles.DangerText.Render(errorText(m.snapshot.LastError)))
	case !m.snapshot.HasPage:
		parts = append(parts, styles.MutedText.Render("Loading history..."))
	case len(m.history.records) == 0:
		parts = append(parts, styles.MutedText.Render("No campaigns match."))
	default:
		parts = append(parts, m.history.table.View())
		sum := history.Summarize(m.history.records)
		parts = append(parts, styles.FaintText.Render(fmt.Sprintf("%d campaigns · %d recipients · %d failed on this page",
			sum.Campaigns, sum.Recipients, sum.Failed)))
	}

	if m.history.expanded {
		if rec, ok := m.history.selected(); ok {
			parts = append(parts, m.renderRecipients(rec))
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) renderRecipients(rec mailapi.CampaignRecord) string {
	styles := m.theme.Styles()
	lines := []string{styles.AccentText.Bold(true).Render(rec.Subject)}
	limit := ExpandedRecipientsHeight - 3
	for i, r := range rec.Recipients {
		if i == limit {
			lines = append(lines, styles.FaintText.Render(fmt.Sprintf("… %d more (R exports all)", len(rec.Recipients)-limit)))
			break
		}
		line := styles.StatusStyle(r.Status).Render(string(r.Status)) + " " + styles.Text.Render(r.Email)
		if r.SentAt != nil {
			line += styles.FaintText.Render("  " + formatDate(*r.SentAt))
		}
		if r.Error != "" {
			line += "  " + styles.DangerText.Render(r.Error)
		}
		lines = append(lines, line)
	}
	if len(rec.Recipients) == 0 {
		lines = append(lines, styles.MutedText.Render("No per-recipient detail."))
	}
	return styles.Panel.Render(strings.Join(lines, "\n"))
}

// nextStatus cycles all → sent → partial → failed → pending → all.
func nextStatus(current mailapi.Status) mailapi.Status {
	if current == "" {
		return mailapi.CampaignStatuses[0]
	}
	for i, s := range mailapi.CampaignStatuses {
		if s == current && i+1 < len(mailapi.CampaignStatuses) {
			return mailapi.CampaignStatuses[i+1]
		}
	}
	return ""
}

// Messages

type actionDoneMsg struct {
	action pendingAction
	err    error
}

type exportDoneMsg struct {
	path string
	rows int
	err  error
}

// Commands

func actionCmd(ctx context.Context, client mailapi.API, p pendingAction) tea.Cmd {
	return func() tea.Msg {
		var err error
		if p.kind == actionArchive {
			err = client.ArchiveCampaign(ctx, p.id)
		} else {
			err = client.DeleteCampaign(ctx, p.id)
		}
		return actionDoneMsg{action: p, err: err}
	}
}

func exportCmd(path string, rows int, write func(*os.File) error) tea.Cmd {
	return func() tea.Msg {
		f, err := os.Create(path)
		if err != nil {
			return exportDoneMsg{path: path, err: fmt.Errorf("create %s: %w", path, err)}
		}
		if err := write(f); err != nil {
			_ = f.Close()
			return exportDoneMsg{path: path, err: err}
		}
		if err := f.Close(); err != nil {
			return exportDoneMsg{path: path, err: fmt.Errorf("close %s: %w", path, err)}
		}
		return exportDoneMsg{path: path, rows: rows}
	}
}
