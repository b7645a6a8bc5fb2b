package recipients

import (
	"bytes"
	"io"
	"mime"
	"strings"
)

// Format identifies how an upload's bytes are parsed into a worksheet.
type Format int

const (
	FormatUnknown Format = iota
	FormatWorkbook
	FormatCSV
)

func (f Format) String() string {
	switch f {
	case FormatWorkbook:
		return "workbook"
	case FormatCSV:
		return "csv"
	default:
		return "unknown"
	}
}

// Media types accepted by DefaultOptions.
const (
	TypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	TypeXLSM = "application/vnd.ms-excel.sheet.macroEnabled.12"
	TypeCSV  = "text/csv"
	TypeCSV2 = "application/csv"
)

// UploadedFile is a single user-selected file. Body is consumed once.
type UploadedFile struct {
	Name         string
	DeclaredType string
	Body         io.Reader
}

// NewUploadedFile wraps an in-memory payload.
func NewUploadedFile(name, declaredType string, data []byte) UploadedFile {
	return UploadedFile{Name: name, DeclaredType: declaredType, Body: bytes.NewReader(data)}
}

// RecipientList is the ordered, de-duplicated set of validated addresses.
type RecipientList []string

// Len returns the number of recipients.
func (l RecipientList) Len() int { return len(l) }

// Clone returns an independent copy.
func (l RecipientList) Clone() RecipientList {
	if l == nil {
		return nil
	}
	dup := make(RecipientList, len(l))
	copy(dup, l)
	return dup
}

// Options configure the pipeline. The zero value accepts nothing.
type Options struct {
	// AllowedTypes maps a lower-case media type (no parameters) to its format.
	AllowedTypes map[string]Format
	// CSVDelimiter separates CSV fields; zero means ','.
	CSVDelimiter rune
}

// DefaultOptions accepts OOXML workbooks and CSV.
func DefaultOptions() Options {
	return Options{
		AllowedTypes: map[string]Format{
			TypeXLSX: FormatWorkbook,
			TypeXLSM: FormatWorkbook,
			TypeCSV:  FormatCSV,
			TypeCSV2: FormatCSV,
		},
		CSVDelimiter: ',',
	}
}

// FormatFor resolves a declared media type against the allow-list.
func (o Options) FormatFor(declared string) (Format, bool) {
	key := NormalizeType(declared)
	if key == "" {
		return FormatUnknown, false
	}
	format, ok := o.AllowedTypes[key]
	if !ok {
		for allowed, f := range o.AllowedTypes {
			if NormalizeType(allowed) == key {
				format, ok = f, true
				break
			}
		}
	}
	if !ok || format == FormatUnknown {
		return FormatUnknown, false
	}
	return format, true
}

func (o Options) delimiter() rune {
	if o.CSVDelimiter == 0 {
		return ','
	}
	return o.CSVDelimiter
}

// NormalizeType lower-cases a media type and drops any parameters.
func NormalizeType(declared string) string {
	trimmed := strings.TrimSpace(declared)
	if trimmed == "" {
		return ""
	}
	if mediaType, _, err := mime.ParseMediaType(trimmed); err == nil {
		return mediaType
	}
	base, _, _ := strings.Cut(trimmed, ";")
	return strings.ToLower(strings.TrimSpace(base))
}
