package recipients

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

var extensionTypes = map[string]string{
	".xlsx": TypeXLSX,
	".xlsm": TypeXLSM,
	".csv":  TypeCSV,
}

// DetectType guesses the declared media type of a local file the way a
// browser upload would report it. Content sniffing decides first; the
// extension refines results sniffing cannot tell apart (CSV reads as plain
// text, an empty or macro-enabled workbook reads as a bare zip).
func DetectType(name string, data []byte) string {
	ext := strings.ToLower(filepath.Ext(name))
	byExt := extensionTypes[ext]

	if len(data) == 0 {
		if byExt != "" {
			return byExt
		}
		return "application/octet-stream"
	}

	detected := mimetype.Detect(data)
	switch {
	case ext == ".csv" && (detected.Is("text/plain") || detected.Is(TypeCSV)):
		return TypeCSV
	case ext == ".xlsm" && (detected.Is(TypeXLSX) || detected.Is("application/zip")):
		return TypeXLSM
	case detected.Is("application/zip") && byExt != "":
		return byExt
	}
	return detected.String()
}

// ReadFile loads a local file into an UploadedFile. An empty declared type
// is replaced by DetectType.
func ReadFile(path, declared string) (UploadedFile, error) {
	name := filepath.Base(path)
	data, err := os.ReadFile(path)
	if err != nil {
		return UploadedFile{}, &ReadError{Name: name, Cause: err}
	}
	if strings.TrimSpace(declared) == "" {
		declared = DetectType(name, data)
	}
	return NewUploadedFile(name, declared, data), nil
}
