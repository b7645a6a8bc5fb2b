package ui

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/five82/courier/internal/mailapi"
	"github.com/five82/courier/internal/recipients"
)

// errorText turns an error into the message shown to the user. Each known
// failure gets its specific reason; superseded loads are silent.
func errorText(err error) string {
	var (
		unsupported *recipients.UnsupportedFileTypeError
		parseErr    *recipients.ParseError
		readErr     *recipients.ReadError
		apiErr      *mailapi.APIError
	)
	switch {
	case err == nil:
		return ""
	case errors.Is(err, recipients.ErrSuperseded), errors.Is(err, recipients.ErrLoaderClosed):
		return ""
	case errors.As(err, &unsupported):
		if unsupported.Type == "" {
			return "Unsupported file type: the file has no type. Use .xlsx, .xlsm or .csv."
		}
		return fmt.Sprintf("Unsupported file type %s. Use .xlsx, .xlsm or .csv.", unsupported.Type)
	case errors.As(err, &parseErr):
		return fmt.Sprintf("Could not parse %s as %s: %v", displayName(parseErr.Name), parseErr.Format, parseErr.Cause)
	case errors.As(err, &readErr):
		return fmt.Sprintf("Could not read %s: %v", displayName(readErr.Name), readErr.Cause)
	case errors.Is(err, mailapi.ErrNoRecipients), errors.Is(err, mailapi.ErrMissingFields):
		// Send guards are shown as-is.
		return capitalize(err.Error()) + "."
	case errors.Is(err, mailapi.ErrTimeout):
		return "The mail server did not answer in time. Try again."
	case errors.Is(err, mailapi.ErrNetwork):
		return "Could not reach the mail server. Check api_url and your connection."
	case errors.Is(err, mailapi.ErrDecode):
		return "The mail server sent a response Courier does not understand."
	case errors.As(err, &apiErr):
		if apiErr.Message != "" {
			return fmt.Sprintf("Server rejected the request (%d): %s", apiErr.Status, apiErr.Message)
		}
		return fmt.Sprintf("Server rejected the request (%d).", apiErr.Status)
	default:
		return err.Error()
	}
}

func displayName(name string) string {
	if name == "" {
		return "the file"
	}
	return name
}

func recipientCount(n int) string {
	if n == 1 {
		return "1 recipient"
	}
	return fmt.Sprintf("%d recipients", n)
}

func humanizeDuration(d time.Duration) string {
	switch {
	case d < time.Second:
		return "now"
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		h := int(d.Hours())
		if m := int(d.Minutes()) % 60; m > 0 {
			return fmt.Sprintf("%dh %dm", h, m)
		}
		return fmt.Sprintf("%dh", h)
	default:
		return fmt.Sprintf("%dd", int(d.Hours())/24)
	}
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func truncateMiddle(value string, limit int) string {
	value = strings.TrimSpace(value)
	if limit <= 0 || value == "" {
		return value
	}
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	if limit <= 3 {
		return string(runes[:limit])
	}
	keep := limit - 1 // room for ellipsis rune
	prefix := keep / 2
	suffix := keep - prefix
	return string(runes[:prefix]) + "…" + string(runes[len(runes)-suffix:])
}

func capitalize(s string) string {
	r := []rune(s)
	if len(r) == 0 {
		return s
	}
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

// sanitizeFileName keeps letters, digits, dash and underscore.
func sanitizeFileName(s string) string {
	out := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' {
			return r
		}
		return '_'
	}, s)
	if out == "" {
		return "campaign"
	}
	return out
}
