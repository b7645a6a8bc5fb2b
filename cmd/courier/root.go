package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/five82/courier/internal/app"
	"github.com/five82/courier/internal/config"
	"github.com/five82/courier/internal/mailapi"
)

// globalFlags are shared by every command.
type globalFlags struct {
	configPath string
	prefsPath  string
	envFiles   []string
	poll       time.Duration
	verbose    bool
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "courier",
		Short: "Bulk email client for the Courier mail API",
		Long: `Courier loads recipient lists from spreadsheets or CSV files, sends
campaigns through the mail API and browses the send history.

Without a subcommand it starts the interactive terminal UI.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Run(cmd.Context(), app.Options{
				ConfigPath: g.configPath,
				PrefsPath:  g.prefsPath,
				EnvFiles:   g.envFiles,
				PollEvery:  g.poll,
			})
		},
	}

	rootCmd.PersistentFlags().StringVar(&g.configPath, "config", "", "config file (default ~/.config/courier/config.toml)")
	rootCmd.PersistentFlags().StringVar(&g.prefsPath, "prefs", "", "preferences file (default ~/.config/courier/prefs.toml)")
	rootCmd.PersistentFlags().StringSliceVar(&g.envFiles, "env", nil, ".env files to read before the config (default ./.env)")
	rootCmd.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "log each API request (method, path, status, duration) to stderr")
	rootCmd.Flags().DurationVar(&g.poll, "poll", 0, "history refresh interval (default 5s)")

	rootCmd.AddCommand(
		newRecipientsCmd(g),
		newSendCmd(g),
		newHistoryCmd(g),
		newDeleteCmd(g),
		newArchiveCmd(g),
		newLogsCmd(g),
	)
	return rootCmd
}

// loadConfig reads .env files and the config file.
func (g *globalFlags) loadConfig() (config.Config, error) {
	if err := config.LoadEnv(g.envFiles...); err != nil {
		return config.Config{}, err
	}
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("load courier config: %w", err)
	}
	return cfg, nil
}

// client loads the config and builds an API client from it. With -v every
// request is logged to stderr.
func (g *globalFlags) client(cmd *cobra.Command) (config.Config, *mailapi.Client, error) {
	cfg, err := g.loadConfig()
	if err != nil {
		return cfg, nil, err
	}
	opts := append(cfg.ClientOptions(), mailapi.WithLogger(g.logger(cmd)))
	client, err := mailapi.NewClient(cfg.APIURL, opts...)
	if err != nil {
		return cfg, nil, fmt.Errorf("init mail api client: %w", err)
	}
	return cfg, client, nil
}

// logger writes slog text records to the command's stderr.
func (g *globalFlags) logger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelWarn
	if g.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}
