package logtail

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestRead(t *testing.T) {
	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "courier.log")

	var content strings.Builder
	var expectedAll []string
	for i := 1; i <= 10; i++ {
		line := fmt.Sprintf("time=2026-10-16T10:00:%02dZ level=INFO msg=\"poll %d\"", i, i)
		content.WriteString(line + "\n")
		expectedAll = append(expectedAll, line)
	}

	if err := os.WriteFile(logPath, []byte(content.String()), 0644); err != nil {
		t.Fatalf("failed to create test log file: %v", err)
	}

	tests := []struct {
		name     string
		maxLines int
		expected []string
	}{
		{"read all (0)", 0, expectedAll},
		{"read all (negative)", -1, expectedAll},
		{"read partial (5)", 5, expectedAll[5:]},
		{"read exactly all (10)", 10, expectedAll},
		{"read more than exists (20)", 20, expectedAll},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Read(logPath, tt.maxLines, Options{})
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Read() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestRead_MissingFile(t *testing.T) {
	got, err := Read(filepath.Join(t.TempDir(), "absent.log"), 10, Options{})
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if got != nil {
		t.Fatalf("Read() = %v, want nil", got)
	}
}

func TestRead_LevelFilter(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "courier.log")
	body := strings.Join([]string{
		`time=2026-10-16T10:00:00Z level=INFO msg="history poll ok"`,
		`time=2026-10-16T10:00:02Z level=WARN msg="history poll failed" err="timed out"`,
		`time=2026-10-16T10:00:04Z level=INFO msg="history poll ok"`,
		`time=2026-10-16T10:00:06Z level=WARN msg="history poll failed" err="refused"`,
		`plain line without attributes`,
	}, "\n") + "\n"
	if err := os.WriteFile(logPath, []byte(body), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	got, err := Read(logPath, 1, Options{Level: "warn"})
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	want := []string{`time=2026-10-16T10:00:06Z level=WARN msg="history poll failed" err="refused"`}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Read() = %v, want %v", got, want)
	}

	got, err = Read(logPath, 0, Options{Level: "WARN"})
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Read() returned %d lines, want 2", len(got))
	}
}

func TestLevelOf(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{`time=x level=INFO msg=hi`, "INFO"},
		{`time=x level=error msg=hi`, "ERROR"},
		{`no level here`, ""},
		{``, ""},
	}
	for _, tt := range tests {
		if got := LevelOf(tt.line); got != tt.want {
			t.Errorf("LevelOf(%q) = %q, want %q", tt.line, got, tt.want)
		}
	}
}
