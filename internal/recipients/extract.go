package recipients

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Extract turns an upload into a RecipientList: type gate, full read, first
// worksheet parse, column-0 extraction, validation and de-duplication, in
// that order. Row 0 is treated as data. Invalid rows are dropped silently;
// an empty result is not an error.
func Extract(ctx context.Context, file UploadedFile, opts Options) (RecipientList, error) {
	format, ok := opts.FormatFor(file.DeclaredType)
	if !ok {
		return nil, &UnsupportedFileTypeError{Type: file.DeclaredType}
	}

	data, err := readAll(ctx, file.Body)
	if err != nil {
		return nil, &ReadError{Name: file.Name, Cause: err}
	}
	if len(data) == 0 {
		return RecipientList{}, nil
	}

	var column []string
	switch format {
	case FormatWorkbook:
		column, err = workbookColumn(data)
	case FormatCSV:
		column, err = csvColumn(data, opts.delimiter())
	default:
		return nil, &UnsupportedFileTypeError{Type: file.DeclaredType}
	}
	if err != nil {
		return nil, &ParseError{Name: file.Name, Format: format, Cause: err}
	}

	return RecipientList(Dedupe(filterAddresses(column))), nil
}

// IsAddress reports whether value passes the minimal syntactic check: an @
// with non-empty text on both sides. Value is never trimmed or folded.
func IsAddress(value string) bool {
	first := strings.IndexByte(value, '@')
	if first <= 0 {
		return false
	}
	last := strings.LastIndexByte(value, '@')
	return last < len(value)-1
}

// Dedupe keeps the first occurrence of each exact string, preserving order.
func Dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func filterAddresses(candidates []string) []string {
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if IsAddress(c) {
			out = append(out, c)
		}
	}
	return out
}

func readAll(ctx context.Context, r io.Reader) ([]byte, error) {
	if r == nil {
		return nil, nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return io.ReadAll(&contextReader{ctx: ctx, r: r})
}

type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

// workbookColumn reads column 0 of the first sheet in declaration order.
// Cells that are not text (numbers, booleans, dates) yield "".
func workbookColumn(data []byte) ([]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	sheet := sheets[0]

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}

	column := make([]string, len(rows))
	for i, row := range rows {
		if len(row) == 0 || row[0] == "" {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, err
		}
		cellType, err := f.GetCellType(sheet, cell)
		if err != nil {
			return nil, fmt.Errorf("cell %s: %w", cell, err)
		}
		if isTextCell(cellType) {
			column[i] = row[0]
		}
	}
	return column, nil
}

func isTextCell(t excelize.CellType) bool {
	switch t {
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString, excelize.CellTypeFormula:
		return true
	default:
		return false
	}
}

// csvColumn splits on lines then on delim. Each line is parsed on its own, so
// a quote never carries a field across a line break. Quotes are tolerated but
// not required to balance; ragged rows are accepted.
func csvColumn(data []byte, delim rune) ([]string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	data = bytes.TrimSuffix(data, []byte("\n"))

	lines := bytes.Split(data, []byte("\n"))
	column := make([]string, 0, len(lines))
	for i, line := range lines {
		line = bytes.TrimSuffix(line, []byte("\r"))
		if len(line) == 0 {
			column = append(column, "")
			continue
		}
		first, err := csvFirstField(line, delim)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		column = append(column, first)
	}
	return column, nil
}

func csvFirstField(line []byte, delim rune) (string, error) {
	reader := csv.NewReader(bytes.NewReader(line))
	reader.Comma = delim
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	// An unterminated quote can come back together with io.EOF.
	record, err := reader.Read()
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	if len(record) == 0 {
		return "", nil
	}
	return record[0], nil
}
