package ui

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/five82/courier/internal/mailapi"
	"github.com/five82/courier/internal/recipients"
)

func TestHumanizeDuration(t *testing.T) {
	cases := []struct {
		name string
		in   int64 // seconds
		want string
	}{
		{"negative", -5, "now"},
		{"subsecond", 0, "now"},
		{"seconds", 12, "12s"},
		{"minutes", 61, "1m"},
		{"hours_only", 2*60*60 + 10, "2h"},
		{"hours_minutes", 2*60*60 + 3*60, "2h 3m"},
		{"days", 24 * 60 * 60, "1d"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := humanizeDuration(timeSeconds(tc.in))
			if got != tc.want {
				t.Fatalf("humanizeDuration(%d) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestTruncateMiddle(t *testing.T) {
	if got := truncateMiddle("  ", 10); got != "" {
		t.Fatalf("truncateMiddle blank = %q, want empty", got)
	}
	if got := truncateMiddle("abcd", 2); got != "ab" {
		t.Fatalf("truncateMiddle limit<=3 = %q, want ab", got)
	}
	got := truncateMiddle("/home/me/lists/newsletter-october.xlsx", 12)
	if len([]rune(got)) != 12 || !strings.Contains(got, "…") {
		t.Fatalf("got %q (%d runes), want 12 runes with ellipsis", got, len([]rune(got)))
	}
	if !strings.HasSuffix(got, ".xlsx") {
		t.Fatalf("got %q, want extension kept", got)
	}
}

func TestRecipientCount(t *testing.T) {
	if got := recipientCount(0); got != "0 recipients" {
		t.Fatalf("recipientCount(0) = %q", got)
	}
	if got := recipientCount(1); got != "1 recipient" {
		t.Fatalf("recipientCount(1) = %q", got)
	}
}

func TestSanitizeFileName(t *testing.T) {
	if got := sanitizeFileName("65f/..\\x"); got != "65f____x" {
		t.Fatalf("sanitizeFileName = %q", got)
	}
	if got := sanitizeFileName(""); got != "campaign" {
		t.Fatalf("sanitizeFileName empty = %q", got)
	}
}

func TestErrorText_SpecificReasons(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"superseded", recipients.ErrSuperseded, ""},
		{"unsupported", &recipients.UnsupportedFileTypeError{Type: "application/pdf"}, "Unsupported file type application/pdf"},
		{"parse", &recipients.ParseError{Name: "list.xlsx", Format: recipients.FormatWorkbook, Cause: errors.New("zip: not a valid zip file")}, "Could not parse list.xlsx as workbook"},
		{"read", &recipients.ReadError{Name: "list.csv", Cause: io.ErrUnexpectedEOF}, "Could not read list.csv"},
		{"no recipients", mailapi.ErrNoRecipients, "No recipients loaded."},
		{"missing fields", &mailapi.MissingFieldsError{Fields: []string{"subject", "message"}}, "Missing required fields: subject, message."},
		{"timeout", &mailapi.TimeoutError{Op: "POST /api/send-bulk", Cause: context.DeadlineExceeded}, "did not answer in time"},
		{"network", &mailapi.NetworkError{Op: "GET /api/history", Cause: errors.New("connection refused")}, "Could not reach the mail server"},
		{"decode", &mailapi.DecodeError{Op: "GET /api/history", Reason: "missing data"}, "does not understand"},
		{"api with message", &mailapi.APIError{Op: "POST /api/send-bulk", Status: 429, Message: "rate limited"}, "(429): rate limited"},
		{"api bare", &mailapi.APIError{Op: "DELETE /api/history/x", Status: 500}, "(500)."},
		{"other", errors.New("boom"), "boom"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := errorText(tc.err)
			if tc.want == "" {
				if got != "" {
					t.Fatalf("errorText = %q, want empty", got)
				}
				return
			}
			if !strings.Contains(got, tc.want) {
				t.Fatalf("errorText = %q, want it to contain %q", got, tc.want)
			}
		})
	}
}

func TestNextStatus_CyclesThroughAll(t *testing.T) {
	want := []mailapi.Status{mailapi.StatusSent, mailapi.StatusPartial, mailapi.StatusFailed, mailapi.StatusPending, ""}
	var cur mailapi.Status
	for i, w := range want {
		cur = nextStatus(cur)
		if cur != w {
			t.Fatalf("step %d: nextStatus = %q, want %q", i, cur, w)
		}
	}
}

func timeSeconds(sec int64) time.Duration {
	return time.Duration(sec) * time.Second
}
