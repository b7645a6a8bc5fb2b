package history

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/five82/courier/internal/mailapi"
)

const (
	campaignSheet  = "Campaigns"
	recipientSheet = "Recipients"
	exportTime     = time.RFC3339
)

var (
	campaignHeader  = []string{"Date", "Subject", "Status", "Recipients", "Failed"}
	recipientHeader = []string{"Email", "Status", "Sent At", "Error"}
)

// ExportCSV writes one row per campaign.
func ExportCSV(w io.Writer, records []mailapi.CampaignRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(campaignHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, rec := range records {
		if err := cw.Write(campaignRow(rec)); err != nil {
			return fmt.Errorf("write campaign %s: %w", rec.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportXLSX writes one row per campaign to a workbook sheet named Campaigns.
func ExportXLSX(w io.Writer, records []mailapi.CampaignRecord) error {
	rows := make([][]any, 0, len(records))
	for _, rec := range records {
		rows = append(rows, []any{
			formatTime(rec.CreatedAt), rec.Subject, string(rec.Status), rec.RecipientCount, rec.FailedCount(),
		})
	}
	return writeWorkbook(w, campaignSheet, campaignHeader, rows)
}

// ExportRecipientsXLSX writes the per-recipient outcome of one campaign.
func ExportRecipientsXLSX(w io.Writer, rec mailapi.CampaignRecord) error {
	rows := make([][]any, 0, len(rec.Recipients))
	for _, r := range rec.Recipients {
		sent := ""
		if r.SentAt != nil {
			sent = formatTime(*r.SentAt)
		}
		rows = append(rows, []any{r.Email, string(r.Status), sent, r.Error})
	}
	return writeWorkbook(w, recipientSheet, recipientHeader, rows)
}

func writeWorkbook(w io.Writer, sheet string, header []string, rows [][]any) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}

	headerRow := make([]any, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &headerRow); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func campaignRow(rec mailapi.CampaignRecord) []string {
	return []string{
		formatTime(rec.CreatedAt),
		csvText(rec.Subject),
		string(rec.Status),
		strconv.Itoa(rec.RecipientCount),
		strconv.Itoa(rec.FailedCount()),
	}
}

// csvText quotes a value spreadsheet tools would otherwise run as a formula.
func csvText(s string) string {
	if s != "" && strings.ContainsRune("=+-@\t\r", rune(s[0])) {
		return "'" + s
	}
	return s
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(exportTime)
}
