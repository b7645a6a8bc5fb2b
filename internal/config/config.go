package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"

	"github.com/five82/courier/internal/mailapi"
	"github.com/five82/courier/internal/recipients"
)

// Config captures everything Courier needs to reach the backend and to run
// the recipient pipeline. It is passed explicitly; nothing reads it globally.
type Config struct {
	APIURL         string
	APIToken       string
	RequestTimeout time.Duration
	PageSize       int
	WorkbookTypes  []string
	CSVTypes       []string
	CSVDelimiter   rune
	LogFile        string
}

const (
	defaultConfigPath = "~/.config/courier/config.toml"
	defaultLogFile    = "~/.local/state/courier/courier.log"
	defaultTimeout    = mailapi.DefaultTimeout

	envAPIURL   = "COURIER_API_URL"
	envAPIToken = "COURIER_API_TOKEN"
)

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		APIURL:         mailapi.DefaultAPIURL,
		RequestTimeout: defaultTimeout,
		PageSize:       mailapi.DefaultPageSize,
		WorkbookTypes:  []string{recipients.TypeXLSX, recipients.TypeXLSM},
		CSVTypes:       []string{recipients.TypeCSV, recipients.TypeCSV2},
		CSVDelimiter:   ',',
		LogFile:        mustExpand(defaultLogFile),
	}
}

// LoadEnv reads .env style files into the process environment without
// overriding variables that are already set. Missing files are ignored.
func LoadEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load env %s: %w", p, err)
		}
	}
	return nil
}

// Load locates and parses the config, falling back to defaults when missing.
// COURIER_API_URL and COURIER_API_TOKEN override the file.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			applyEnv(&cfg)
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		APIURL         string   `toml:"api_url"`
		APIToken       string   `toml:"api_token"`
		RequestTimeout string   `toml:"request_timeout"`
		PageSize       int      `toml:"page_size"`
		WorkbookTypes  []string `toml:"workbook_types"`
		CSVTypes       []string `toml:"csv_types"`
		CSVDelimiter   string   `toml:"csv_delimiter"`
		LogFile        string   `toml:"log_file"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if v := strings.TrimSpace(raw.APIURL); v != "" {
		cfg.APIURL = v
	}
	cfg.APIToken = strings.TrimSpace(raw.APIToken)

	if v := strings.TrimSpace(raw.RequestTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, fmt.Errorf("parse config: request_timeout %q: want a positive duration like 30s", v)
		}
		cfg.RequestTimeout = d
	}

	if raw.PageSize < 0 {
		return Config{}, fmt.Errorf("parse config: page_size must not be negative")
	}
	if raw.PageSize > 0 {
		cfg.PageSize = raw.PageSize
	}

	if types := cleanTypes(raw.WorkbookTypes); raw.WorkbookTypes != nil {
		cfg.WorkbookTypes = types
	}
	if types := cleanTypes(raw.CSVTypes); raw.CSVTypes != nil {
		cfg.CSVTypes = types
	}

	if raw.CSVDelimiter != "" {
		delim, err := parseDelimiter(raw.CSVDelimiter)
		if err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
		cfg.CSVDelimiter = delim
	}

	if v := strings.TrimSpace(raw.LogFile); v != "" {
		cfg.LogFile = mustExpand(v)
	}

	applyEnv(&cfg)
	return cfg, nil
}

// RecipientOptions builds the pipeline allow-list from the configured types.
func (c Config) RecipientOptions() recipients.Options {
	allowed := make(map[string]recipients.Format, len(c.WorkbookTypes)+len(c.CSVTypes))
	for _, t := range c.WorkbookTypes {
		if key := recipients.NormalizeType(t); key != "" {
			allowed[key] = recipients.FormatWorkbook
		}
	}
	for _, t := range c.CSVTypes {
		if key := recipients.NormalizeType(t); key != "" {
			allowed[key] = recipients.FormatCSV
		}
	}
	return recipients.Options{AllowedTypes: allowed, CSVDelimiter: c.CSVDelimiter}
}

// ClientOptions returns the mailapi options implied by the config.
func (c Config) ClientOptions() []mailapi.Option {
	return []mailapi.Option{
		mailapi.WithToken(c.APIToken),
		mailapi.WithTimeout(c.RequestTimeout),
	}
}

func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv(envAPIURL)); v != "" {
		cfg.APIURL = v
	}
	if v := strings.TrimSpace(os.Getenv(envAPIToken)); v != "" {
		cfg.APIToken = v
	}
}

func cleanTypes(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if key := recipients.NormalizeType(v); key != "" {
			out = append(out, key)
		}
	}
	return out
}

func parseDelimiter(value string) (rune, error) {
	if value == `\t` || value == "tab" {
		return '\t', nil
	}
	r, size := utf8.DecodeRuneInString(value)
	if size != len(value) || r == utf8.RuneError {
		return 0, fmt.Errorf("csv_delimiter %q: want a single character", value)
	}
	switch r {
	case '"', '\r', '\n':
		return 0, fmt.Errorf("csv_delimiter %q is not allowed", value)
	}
	return r, nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
