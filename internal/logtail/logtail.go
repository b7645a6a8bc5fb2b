package logtail

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
)

// Options narrow the lines returned by Read.
type Options struct {
	// Level keeps only slog text records with this level (DEBUG, INFO,
	// WARN, ERROR). Empty keeps every line.
	Level string
}

// Read returns at most maxLines from the end of the log file at path. A
// non-positive maxLines returns every matching line. A missing file yields
// no lines.
func Read(path string, maxLines int, opts Options) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	level := strings.ToUpper(strings.TrimSpace(opts.Level))
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if maxLines <= 0 {
		var lines []string
		for scanner.Scan() {
			if line := scanner.Text(); level == "" || LevelOf(line) == level {
				lines = append(lines, line)
			}
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read log: %w", err)
		}
		return lines, nil
	}

	ring := make([]string, maxLines)
	count := 0
	idx := 0
	for scanner.Scan() {
		line := scanner.Text()
		if level != "" && LevelOf(line) != level {
			continue
		}
		ring[idx] = line
		idx = (idx + 1) % maxLines
		if count < maxLines {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	lines := make([]string, count)
	if count == maxLines {
		for i := range count {
			lines[i] = ring[(idx+i)%maxLines]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, nil
}

// LevelOf extracts the level=... attribute of an slog text record, or ""
// when the line has none.
func LevelOf(line string) string {
	for field := range strings.FieldsSeq(line) {
		if v, ok := strings.CutPrefix(field, "level="); ok {
			return strings.ToUpper(v)
		}
	}
	return ""
}
