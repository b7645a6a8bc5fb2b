package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/courier/internal/config"
	"github.com/five82/courier/internal/mailapi"
	"github.com/five82/courier/internal/prefs"
	"github.com/five82/courier/internal/recipients"
	"github.com/five82/courier/internal/state"
	"github.com/five82/courier/internal/ui"
)

// Options configure the Courier application.
type Options struct {
	ConfigPath string
	PrefsPath  string        // empty uses default ~/.config/courier/prefs.toml
	EnvFiles   []string      // .env files read before the config; empty reads ./.env
	PollEvery  time.Duration // zero uses default
	Logger     *slog.Logger  // nil logs to the config's log_file
}

// Run boots the Courier TUI until the context is cancelled or the user quits.
func Run(ctx context.Context, opts Options) error {
	if err := config.LoadEnv(opts.EnvFiles...); err != nil {
		return fmt.Errorf("load env: %w", err)
	}
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load courier config: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		l, closer, err := OpenLog(cfg.LogFile)
		if err != nil {
			return err
		}
		defer closer.Close()
		logger = l
	}

	userPrefs, err := prefs.Load(opts.PrefsPath)
	if err != nil {
		logger.Warn("preferences unavailable, using defaults", "error", err)
		userPrefs = prefs.Default()
	}

	client, err := mailapi.NewClient(cfg.APIURL, append(cfg.ClientOptions(), mailapi.WithLogger(logger))...)
	if err != nil {
		return fmt.Errorf("init mail api client: %w", err)
	}

	store := &state.Store{}
	store.SetQuery(InitialQuery(cfg, userPrefs))

	loader := recipients.NewLoader(cfg.RecipientOptions())
	defer loader.Close()

	interval := defaultPollInterval
	if opts.PollEvery > 0 {
		interval = opts.PollEvery
	}

	logger.Info("courier starting", "api", client.BaseURL(), "poll", interval)
	poller := StartPoller(ctx, store, client, interval, logger)

	uiOpts := ui.Options{
		Context:   ctx,
		Client:    client,
		Store:     store,
		Loader:    loader,
		Config:    &cfg,
		Prefs:     userPrefs,
		PrefsPath: opts.PrefsPath,
		Logger:    logger,
		Nudge:     poller.Nudge,
	}
	return ui.Run(uiOpts)
}

// InitialQuery builds the first history query from config and saved prefs.
// An unknown saved status filter is ignored.
func InitialQuery(cfg config.Config, p prefs.Prefs) mailapi.HistoryQuery {
	status, err := mailapi.ParseStatus(p.StatusFilter)
	if err != nil {
		status = ""
	}
	return mailapi.HistoryQuery{Page: 1, Limit: cfg.PageSize, Status: status}.Normalized()
}

// OpenLog opens path for appending through Bubble Tea's file logger, so the
// standard library logger used by the TUI runtime lands in the same file,
// and returns an slog text logger writing to it.
func OpenLog(path string) (*slog.Logger, io.Closer, error) {
	if path == "" {
		return slog.New(slog.NewTextHandler(io.Discard, nil)), io.NopCloser(nil), nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := tea.LogToFile(path, "courier")
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelInfo})), f, nil
}
