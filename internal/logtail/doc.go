// Package logtail reads the tail of Courier's log file.
//
// The TUI writes slog text records to the file named by log_file in the
// config; the `courier logs` command prints the last lines of it so poll
// failures can be inspected without leaving the terminal.
//
// Read keeps a ring buffer of maxLines entries and scans the file once, so
// memory use is bounded by the number of lines requested rather than the
// file size. Lines come back oldest first.
//
//	lines, err := logtail.Read(cfg.LogFile, 200, logtail.Options{Level: "WARN"})
//
// Options.Level keeps only records whose level= attribute matches, compared
// case-insensitively. A missing log file is not an error.
package logtail
