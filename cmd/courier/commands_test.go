package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setup writes a config pointing at srv and returns the global flags to use.
func setup(t *testing.T, apiURL string) []string {
	t.Helper()
	t.Setenv("COURIER_API_URL", "")
	t.Setenv("COURIER_API_TOKEN", "")

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.toml")
	logPath := filepath.Join(dir, "courier.log")
	body := "api_url = \"" + apiURL + "\"\nlog_file = \"" + logPath + "\"\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(body), 0o644))

	return []string{"--config", cfgPath, "--env", filepath.Join(dir, "missing.env")}
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "list.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRecipientsCommand(t *testing.T) {
	flags := setup(t, "http://127.0.0.1:1")
	path := writeCSV(t, "email\nA@example.com\nnot-an-address\nb@example.com\nA@example.com\n")

	stdout, stderr, err := execute(t, append(flags, "recipients", path)...)
	require.NoError(t, err)
	assert.Equal(t, "A@example.com\nb@example.com\n", stdout)
	assert.Contains(t, stderr, "2 recipients loaded from list.csv")
}

func TestRecipientsCommand_UnsupportedType(t *testing.T) {
	flags := setup(t, "http://127.0.0.1:1")
	path := writeCSV(t, "a@example.com\n")

	_, _, err := execute(t, append(flags, "recipients", "--type", "application/pdf", path)...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "application/pdf")
}

func TestSendCommand(t *testing.T) {
	var got struct {
		Recipients []string `json:"recipients"`
		Subject    string   `json:"subject"`
		Message    string   `json:"message"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/send-bulk", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"campaignId":"c42"}`))
	}))
	defer srv.Close()

	flags := setup(t, srv.URL)
	path := writeCSV(t, "a@example.com\nb@example.com\n")

	stdout, _, err := execute(t, append(flags, "send", "-s", "Hello", "-m", "Body", "-f", path)...)
	require.NoError(t, err)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, got.Recipients)
	assert.Equal(t, "Hello", got.Subject)
	assert.Equal(t, "Body", got.Message)
	assert.Contains(t, stdout, "Sent to 2 recipients.")
	assert.Contains(t, stdout, "Campaign: c42")
}

func TestSendCommand_MissingSubjectNeverHitsNetwork(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	flags := setup(t, srv.URL)
	path := writeCSV(t, "a@example.com\n")

	_, _, err := execute(t, append(flags, "send", "-m", "Body", "-f", path)...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "subject")
	assert.False(t, called)
}

const historyBody = `{
  "data": [
    {"_id": "c1", "subject": "Launch", "status": "sent", "recipientCount": 2,
     "createdAt": "2026-01-02T10:00:00Z",
     "recipients": [{"email": "a@example.com", "status": "sent"}, {"email": "b@example.com", "status": "sent"}]},
    {"_id": "c2", "subject": "Reminder", "status": "partial", "recipientCount": 2,
     "createdAt": "2026-01-03T10:00:00Z",
     "recipients": [{"email": "a@example.com", "status": "sent"}, {"email": "c@example.com", "status": "failed", "error": "bounced"}]}
  ],
  "pagination": {"page": 1, "totalPages": 3, "total": 22}
}`

func historyServer(t *testing.T, query *string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/history", r.URL.Path)
		if query != nil {
			*query = r.URL.RawQuery
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(historyBody))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestHistoryCommand_PrintsTable(t *testing.T) {
	var query string
	srv := historyServer(t, &query)
	flags := setup(t, srv.URL)

	stdout, _, err := execute(t, append(flags, "history", "--limit", "5", "--sort", "subject", "--desc=false")...)
	require.NoError(t, err)
	assert.Contains(t, query, "limit=5")
	assert.Contains(t, query, "page=1")

	assert.Contains(t, stdout, "Launch")
	assert.Contains(t, stdout, "Reminder")
	assert.Less(t, strings.Index(stdout, "Launch"), strings.Index(stdout, "Reminder"))
	assert.Contains(t, stdout, "Page 1 of 3 (22 total). 2 campaigns, 4 recipients, 1 failed.")
}

func TestHistoryCommand_RejectsUnknownStatus(t *testing.T) {
	flags := setup(t, "http://127.0.0.1:1")
	_, _, err := execute(t, append(flags, "history", "--status", "bogus")...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bogus")
}

func TestHistoryCommand_ExportCSV(t *testing.T) {
	srv := historyServer(t, nil)
	flags := setup(t, srv.URL)
	out := filepath.Join(t.TempDir(), "history.csv")

	_, stderr, err := execute(t, append(flags, "history", "--export", out)...)
	require.NoError(t, err)
	assert.Contains(t, stderr, "Exported 2 campaigns")

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Date,Subject,Status,Recipients,Failed", strings.TrimSpace(lines[0]))
}

func TestHistoryCommand_ExportXLSX(t *testing.T) {
	srv := historyServer(t, nil)
	flags := setup(t, srv.URL)
	out := filepath.Join(t.TempDir(), "history.xlsx")

	_, _, err := execute(t, append(flags, "history", "--export", out)...)
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("PK")), "xlsx export should be a zip archive")
}

func TestDeleteAndArchiveCommands(t *testing.T) {
	var calls []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()
	flags := setup(t, srv.URL)

	stdout, _, err := execute(t, append(flags, "delete", "c1")...)
	require.NoError(t, err)
	assert.Equal(t, "Deleted c1\n", stdout)

	stdout, _, err = execute(t, append(flags, "archive", "c2")...)
	require.NoError(t, err)
	assert.Equal(t, "Archived c2\n", stdout)

	assert.Equal(t, []string{"DELETE /api/history/c1", "POST /api/history/c2/archive"}, calls)
}

func TestVerboseLogsRequests(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()
	flags := setup(t, srv.URL)

	_, stderr, err := execute(t, append(flags, "delete", "c1")...)
	require.NoError(t, err)
	assert.Empty(t, stderr)

	_, stderr, err = execute(t, append(flags, "-v", "delete", "c1")...)
	require.NoError(t, err)
	assert.Contains(t, stderr, `msg="api request"`)
	assert.Contains(t, stderr, "method=DELETE")
	assert.Contains(t, stderr, "path=/api/history/c1")
	assert.Contains(t, stderr, "status=204")
}

func TestDeleteCommand_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"campaign not found"}`))
	}))
	defer srv.Close()
	flags := setup(t, srv.URL)

	_, _, err := execute(t, append(flags, "delete", "nope")...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "campaign not found")
}

func TestLogsCommand(t *testing.T) {
	flags := setup(t, "http://127.0.0.1:1")
	cfgPath := flags[1]
	logPath := filepath.Join(filepath.Dir(cfgPath), "courier.log")

	stdout, stderr, err := execute(t, append(flags, "logs")...)
	require.NoError(t, err)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "No log entries")

	content := strings.Join([]string{
		`time=2026-01-01T10:00:00Z level=INFO msg="recipients loaded" count=3`,
		`time=2026-01-01T10:00:01Z level=WARN msg="history poll failed" error=timeout`,
		`time=2026-01-01T10:00:02Z level=INFO msg="campaign sent"`,
	}, "\n") + "\n"
	require.NoError(t, os.WriteFile(logPath, []byte(content), 0o644))

	stdout, _, err = execute(t, append(flags, "logs", "-n", "2")...)
	require.NoError(t, err)
	assert.NotContains(t, stdout, "recipients loaded")
	assert.Contains(t, stdout, "history poll failed")
	assert.Contains(t, stdout, "campaign sent")

	stdout, _, err = execute(t, append(flags, "logs", "--level", "warn")...)
	require.NoError(t, err)
	assert.Equal(t, `time=2026-01-01T10:00:01Z level=WARN msg="history poll failed" error=timeout`+"\n", stdout)
}
