package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/five82/courier/internal/history"
	"github.com/five82/courier/internal/logtail"
	"github.com/five82/courier/internal/mailapi"
	"github.com/five82/courier/internal/recipients"
)

func newRecipientsCmd(g *globalFlags) *cobra.Command {
	var declared string

	cmd := &cobra.Command{
		Use:   "recipients FILE",
		Short: "Print the addresses extracted from a recipient file",
		Long: `Reads the first column of an .xlsx, .xlsm or .csv file and prints one
valid, deduplicated address per line. The count goes to stderr.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			list, err := extractFile(cmd, args[0], declared, cfg.RecipientOptions())
			if err != nil {
				return err
			}
			for _, addr := range list {
				fmt.Fprintln(cmd.OutOrStdout(), addr)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%d recipients loaded from %s\n", list.Len(), filepath.Base(args[0]))
			return nil
		},
	}
	cmd.Flags().StringVar(&declared, "type", "", "declared MIME type (default: detected from content and extension)")
	return cmd
}

func newSendCmd(g *globalFlags) *cobra.Command {
	var (
		subject  string
		message  string
		file     string
		declared string
	)

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send one campaign to every address in a recipient file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, client, err := g.client(cmd)
			if err != nil {
				return err
			}
			list, err := extractFile(cmd, file, declared, cfg.RecipientOptions())
			if err != nil {
				return err
			}

			logger := g.logger(cmd)
			logger.Debug("sending campaign", "recipients", list.Len(), "subject", subject)

			result, err := client.SendBulk(cmd.Context(), mailapi.SendRequest{
				Recipients: list.Clone(),
				Subject:    subject,
				Message:    message,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Sent to %d recipients.\n", list.Len())
			if result.CampaignID != "" {
				fmt.Fprintf(out, "Campaign: %s\n", result.CampaignID)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&subject, "subject", "s", "", "email subject")
	cmd.Flags().StringVarP(&message, "message", "m", "", "email body")
	cmd.Flags().StringVarP(&file, "file", "f", "", "recipient file (.xlsx, .xlsm or .csv)")
	cmd.Flags().StringVar(&declared, "type", "", "declared MIME type of the recipient file")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

type historyFlags struct {
	page   int
	limit  int
	status string
	search string
	sort   string
	desc   bool
	export string
}

func newHistoryCmd(g *globalFlags) *cobra.Command {
	f := &historyFlags{}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show one page of campaign history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, client, err := g.client(cmd)
			if err != nil {
				return err
			}
			status, err := mailapi.ParseStatus(f.status)
			if err != nil {
				return err
			}
			sortKey, err := history.ParseSortKey(f.sort)
			if err != nil {
				return err
			}
			limit := f.limit
			if limit <= 0 {
				limit = cfg.PageSize
			}

			page, err := client.FetchHistory(cmd.Context(), mailapi.HistoryQuery{
				Page:   f.page,
				Limit:  limit,
				Status: status,
				Search: f.search,
			})
			if err != nil {
				return err
			}

			records := history.Filter(page.Records, history.Criteria{Status: status, Search: f.search})
			records = history.Sort(records, sortKey, f.desc)

			if f.export != "" {
				if err := exportHistory(f.export, records); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d campaigns to %s\n", len(records), f.export)
				return nil
			}

			printHistory(cmd.OutOrStdout(), page, records)
			return nil
		},
	}
	cmd.Flags().IntVar(&f.page, "page", 1, "page number")
	cmd.Flags().IntVar(&f.limit, "limit", 0, "campaigns per page (default from config)")
	cmd.Flags().StringVar(&f.status, "status", "", "only campaigns with this status (sent, partial, failed, pending)")
	cmd.Flags().StringVar(&f.search, "search", "", "only campaigns whose subject or recipients contain this text")
	cmd.Flags().StringVar(&f.sort, "sort", string(history.SortCreated), "sort key (created, subject, count, status)")
	cmd.Flags().BoolVar(&f.desc, "desc", true, "sort descending")
	cmd.Flags().StringVar(&f.export, "export", "", "write the page to FILE instead (.xlsx for a workbook, otherwise CSV)")
	return cmd
}

func newDeleteCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a campaign from history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, client, err := g.client(cmd)
			if err != nil {
				return err
			}
			if err := client.DeleteCampaign(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		},
	}
}

func newArchiveCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "archive ID",
		Short: "Archive a campaign",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, client, err := g.client(cmd)
			if err != nil {
				return err
			}
			if err := client.ArchiveCampaign(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Archived %s\n", args[0])
			return nil
		},
	}
}

func newLogsCmd(g *globalFlags) *cobra.Command {
	var (
		lines int
		level string
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Print the tail of the Courier log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			if cfg.LogFile == "" {
				return errors.New("no log file configured")
			}
			out, err := logtail.Read(cfg.LogFile, lines, logtail.Options{Level: level})
			if err != nil {
				return fmt.Errorf("read log: %w", err)
			}
			if len(out) == 0 {
				fmt.Fprintf(cmd.ErrOrStderr(), "No log entries in %s\n", cfg.LogFile)
				return nil
			}
			for _, line := range out {
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "number of lines (0 for all)")
	cmd.Flags().StringVar(&level, "level", "", "only lines at this level (debug, info, warn, error)")
	return cmd
}

// extractFile reads a recipient file from disk and runs the pipeline on it.
func extractFile(cmd *cobra.Command, path, declared string, opts recipients.Options) (recipients.RecipientList, error) {
	file, err := recipients.ReadFile(path, declared)
	if err != nil {
		return nil, err
	}
	return recipients.Extract(cmd.Context(), file, opts)
}

func exportHistory(path string, records []mailapi.CampaignRecord) (err error) {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export: %w", err)
	}
	defer func() {
		if cerr := out.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close export: %w", cerr)
		}
	}()

	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return history.ExportXLSX(out, records)
	}
	return history.ExportCSV(out, records)
}

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

func printHistory(w io.Writer, page mailapi.HistoryPage, records []mailapi.CampaignRecord) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No campaigns.")
		return
	}

	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		rows = append(rows, []string{
			rec.ID,
			rec.CreatedAt.Local().Format(time.DateTime),
			rec.Subject,
			string(rec.Status),
			strconv.Itoa(rec.RecipientCount),
			strconv.Itoa(rec.FailedCount()),
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers("ID", "Date", "Subject", "Status", "Recipients", "Failed").
		Rows(rows...)
	fmt.Fprintln(w, t.Render())

	sum := history.Summarize(records)
	fmt.Fprintf(w, "Page %d of %d (%d total). %d campaigns, %d recipients, %d failed.\n",
		page.Page, page.TotalPages, page.Total, sum.Campaigns, sum.Recipients, sum.Failed)
}
