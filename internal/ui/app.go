package ui

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/courier/internal/config"
	"github.com/five82/courier/internal/mailapi"
	"github.com/five82/courier/internal/prefs"
	"github.com/five82/courier/internal/recipients"
	"github.com/five82/courier/internal/state"
)

// View represents the current active view.
type View int

const (
	ViewCompose View = iota
	ViewHistory
)

// Options configures the UI.
type Options struct {
	Context   context.Context
	Client    mailapi.API
	Store     *state.Store
	Loader    *recipients.Loader
	Config    *config.Config
	PollTick  time.Duration
	Prefs     prefs.Prefs
	PrefsPath string
	ExportDir string // empty uses the working directory
	Logger    *slog.Logger
	Nudge     func() // asks the poller for an immediate refresh
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx       context.Context
	client    mailapi.API
	store     *state.Store
	loader    *recipients.Loader
	config    *config.Config
	prefs     prefs.Prefs
	prefsPath string
	exportDir string
	pollTick  time.Duration
	logger    *slog.Logger
	nudge     func()
	keys      keyMap

	// UI state
	theme       Theme
	currentView View
	width       int
	height      int
	ready       bool
	showHelp    bool
	spinner     spinner.Model
	flash       flash

	// Data state
	snapshot state.Snapshot

	compose composeState
	history historyState
}

type flashLevel int

const (
	flashInfo flashLevel = iota
	flashSuccess
	flashError
)

// flash is the one-line status message shown above the footer.
type flash struct {
	text  string
	level flashLevel
	at    time.Time
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	pollTick := opts.PollTick
	if pollTick <= 0 {
		pollTick = DefaultUIInterval
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	loader := opts.Loader
	if loader == nil {
		recipientOpts := recipients.DefaultOptions()
		if opts.Config != nil {
			recipientOpts = opts.Config.RecipientOptions()
		}
		loader = recipients.NewLoader(recipientOpts)
	}

	store := opts.Store
	if store == nil {
		store = &state.Store{}
	}

	nudge := opts.Nudge
	if nudge == nil {
		nudge = func() {}
	}

	m := Model{
		ctx:         ctx,
		client:      opts.Client,
		store:       store,
		loader:      loader,
		config:      opts.Config,
		prefs:       opts.Prefs,
		prefsPath:   prefsPath,
		exportDir:   opts.ExportDir,
		pollTick:    pollTick,
		logger:      logger,
		nudge:       nudge,
		keys:        DefaultKeyMap(),
		theme:       GetTheme(opts.Prefs.Theme),
		currentView: ViewCompose,
		spinner:     spinner.New(spinner.WithSpinner(spinner.Dot)),
		snapshot:    store.Snapshot(),
	}
	m.compose = newComposeState(opts.Prefs.LastFile)
	m.history = newHistoryState(opts.Prefs)
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		m.compose.focusCmd(),
		tickCmd(m.pollTick),
		fetchSnapshotCmd(m.store),
	)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.resize()
		return m, nil

	case tickMsg:
		return m, tea.Batch(fetchSnapshotCmd(m.store), tickCmd(m.pollTick))

	case snapshotMsg:
		m.snapshot = state.Snapshot(msg)
		m.syncHistory()
		return m, nil

	case spinner.TickMsg:
		if !m.compose.busy() && !m.history.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case recipientsLoadedMsg:
		return m.handleRecipientsLoaded(msg)

	case sendDoneMsg:
		return m.handleSendDone(msg)

	case actionDoneMsg:
		return m.handleActionDone(msg)

	case exportDoneMsg:
		return m.handleExportDone(msg)
	}

	if m.currentView == ViewCompose {
		return m.updateComposeInput(msg)
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	switch m.currentView {
	case ViewHistory:
		b.WriteString(m.renderHistory())
	default:
		b.WriteString(m.renderCompose())
	}
	b.WriteString("\n")
	b.WriteString(m.renderFlash())
	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

// handleKey processes keyboard input. Global bindings come first, then the
// active view's.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.prefs.Theme = m.theme.Name
		m.savePrefs()
		m.resize()
		return m, nil

	case key.Matches(msg, m.keys.ViewCompose):
		m.currentView = ViewCompose
		return m, m.compose.focusCmd()

	case key.Matches(msg, m.keys.ViewHistory):
		m.currentView = ViewHistory
		m.compose.blurAll()
		return m, fetchSnapshotCmd(m.store)
	}

	switch m.currentView {
	case ViewHistory:
		return m.handleHistoryKey(msg)
	default:
		return m.handleComposeKey(msg)
	}
}

func (m *Model) setFlash(level flashLevel, text string) {
	m.flash = flash{text: text, level: level, at: time.Now()}
}

func (m *Model) flashError(err error) {
	if text := errorText(err); text != "" {
		m.setFlash(flashError, text)
	}
}

func (m *Model) savePrefs() {
	if err := prefs.Save(m.prefsPath, m.prefs); err != nil {
		m.logger.Warn("save preferences failed", "path", m.prefsPath, "error", err)
	}
}

func (m *Model) resize() {
	m.compose.resize(m.width)
	m.history.resize(m.width, m.height, m.theme)
}

// Messages

type tickMsg time.Time

type snapshotMsg state.Snapshot

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchSnapshotCmd(store *state.Store) tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(store.Snapshot())
	}
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	m := New(opts)
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}
