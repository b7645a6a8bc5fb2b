package recipients

import (
	"errors"
	"fmt"
)

// Sentinels for errors.Is checks against the typed pipeline errors.
var (
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrRead                = errors.New("read upload")
	ErrParse               = errors.New("parse upload")
	ErrSuperseded          = errors.New("load superseded by a newer file")
	ErrLoaderClosed        = errors.New("loader closed")
)

// UnsupportedFileTypeError reports a declared media type outside the allow-list.
// No parsing is attempted for such files.
type UnsupportedFileTypeError struct {
	Type string
}

func (e *UnsupportedFileTypeError) Error() string {
	if e.Type == "" {
		return "unsupported file type: (none declared)"
	}
	return fmt.Sprintf("unsupported file type: %s", e.Type)
}

func (e *UnsupportedFileTypeError) Is(target error) bool { return target == ErrUnsupportedFileType }

// ReadError reports an interrupted read of the upload body.
type ReadError struct {
	Name  string
	Cause error
}

func (e *ReadError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("read upload: %v", e.Cause)
	}
	return fmt.Sprintf("read %s: %v", e.Name, e.Cause)
}

func (e *ReadError) Unwrap() error        { return e.Cause }
func (e *ReadError) Is(target error) bool { return target == ErrRead }

// ParseError reports bytes that are not a valid file of the declared format.
type ParseError struct {
	Name   string
	Format Format
	Cause  error
}

func (e *ParseError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("parse %s: %v", e.Format, e.Cause)
	}
	return fmt.Sprintf("parse %s %s: %v", e.Format, e.Name, e.Cause)
}

func (e *ParseError) Unwrap() error        { return e.Cause }
func (e *ParseError) Is(target error) bool { return target == ErrParse }
