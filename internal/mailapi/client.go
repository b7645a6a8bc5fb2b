package mailapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// API defines the bulk-mail backend operations. It is implemented by *Client
// and can be replaced in tests.
type API interface {
	SendBulk(ctx context.Context, req SendRequest) (SendResult, error)
	FetchHistory(ctx context.Context, query HistoryQuery) (HistoryPage, error)
	DeleteCampaign(ctx context.Context, id string) error
	ArchiveCampaign(ctx context.Context, id string) error
}

// Ensure Client implements API at compile time.
var _ API = (*Client)(nil)

// Client talks to the bulk-mail HTTP API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	token     string
	userAgent string
	newKey    func() string
	logger    *slog.Logger
}

const (
	DefaultAPIURL   = "http://127.0.0.1:5000"
	DefaultPageSize = 10
	DefaultTimeout  = 30 * time.Second

	defaultUserAgent = "courier/0.1"
	maxErrorMessage  = 200
)

// Option customizes a Client.
type Option func(*Client)

// WithToken sends token as a bearer credential on every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = strings.TrimSpace(token) }
}

// WithTimeout bounds each request. Zero keeps the default.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying transport client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithLogger logs every request at debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient builds a Client for the API rooted at apiURL.
func NewClient(apiURL string, opts ...Option) (*Client, error) {
	base, err := parseBaseURL(apiURL)
	if err != nil {
		return nil, err
	}
	c := &Client{
		baseURL:   base,
		http:      &http.Client{Timeout: DefaultTimeout},
		userAgent: defaultUserAgent,
		newKey:    uuid.NewString,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string {
	if c == nil {
		return ""
	}
	return c.baseURL.String()
}

// SendBulk submits one campaign. The caller-side guards run first, so an empty
// list or blank subject/message never reaches the network.
func (c *Client) SendBulk(ctx context.Context, req SendRequest) (SendResult, error) {
	if c == nil {
		return SendResult{}, fmt.Errorf("client is nil")
	}
	if err := req.Validate(); err != nil {
		return SendResult{}, err
	}
	header := http.Header{}
	header.Set("Idempotency-Key", c.newKey())

	status, payload, err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/api/send-bulk",
		body:   req,
		header: header,
	})
	if err != nil {
		return SendResult{}, err
	}

	var result SendResult
	if len(bytes.TrimSpace(payload)) == 0 {
		return result, nil
	}
	if err := json.Unmarshal(payload, &result); err != nil {
		return SendResult{}, &DecodeError{Op: "POST /api/send-bulk", Reason: "invalid JSON", Cause: err}
	}
	if result.Success != nil && !*result.Success {
		msg := firstNonEmpty(result.Error, result.Message)
		return result, &APIError{Op: "POST /api/send-bulk", Status: status, Message: msg}
	}
	return result, nil
}

// FetchHistory retrieves one page of campaign history. The envelope is
// validated here so callers never probe response shapes.
func (c *Client) FetchHistory(ctx context.Context, query HistoryQuery) (HistoryPage, error) {
	if c == nil {
		return HistoryPage{}, fmt.Errorf("client is nil")
	}
	query = query.Normalized()

	values := url.Values{}
	values.Set("page", strconv.Itoa(query.Page))
	values.Set("limit", strconv.Itoa(query.Limit))
	if query.Status != "" {
		values.Set("status", string(query.Status))
	}
	if query.Search != "" {
		values.Set("search", query.Search)
	}

	_, payload, err := c.do(ctx, request{method: http.MethodGet, path: "/api/history", query: values})
	if err != nil {
		return HistoryPage{}, err
	}
	return decodeHistory(payload, query)
}

// DeleteCampaign removes a campaign from history.
func (c *Client) DeleteCampaign(ctx context.Context, id string) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("campaign id required")
	}
	_, _, err := c.do(ctx, request{method: http.MethodDelete, path: "/api/history/" + url.PathEscape(id)})
	return err
}

// ArchiveCampaign hides a campaign from the default history listing.
func (c *Client) ArchiveCampaign(ctx context.Context, id string) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("campaign id required")
	}
	_, _, err := c.do(ctx, request{method: http.MethodPost, path: "/api/history/" + url.PathEscape(id) + "/archive"})
	return err
}

type request struct {
	method string
	path   string
	query  url.Values
	body   any
	header http.Header
}

func (c *Client) do(ctx context.Context, r request) (int, []byte, error) {
	op := r.method + " " + strings.SplitN(r.path, "?", 2)[0]

	reqURL := c.baseURL.JoinPath(r.path)
	if len(r.query) > 0 {
		reqURL.RawQuery = r.query.Encode()
	}

	var body io.Reader
	if r.body != nil {
		buf, err := json.Marshal(r.body)
		if err != nil {
			return 0, nil, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, reqURL.String(), body)
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	for key, values := range r.header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		err = classifyTransport(ctx, op, err)
		c.logger.Debug("api request failed", "method", r.method, "path", r.path, "duration", time.Since(start), "error", err)
		return 0, nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	payload, err := io.ReadAll(resp.Body)
	c.logger.Debug("api request", "method", r.method, "path", r.path, "status", resp.StatusCode, "duration", time.Since(start))
	if err != nil {
		return resp.StatusCode, nil, classifyTransport(ctx, op, err)
	}
	if resp.StatusCode >= 400 {
		return resp.StatusCode, nil, &APIError{Op: op, Status: resp.StatusCode, Message: errorMessage(payload)}
	}
	return resp.StatusCode, payload, nil
}

// classifyTransport separates deadlines from other transport failures. A
// caller cancellation is returned as-is so it is never reported as an outage.
func classifyTransport(ctx context.Context, op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &TimeoutError{Op: op, Cause: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &TimeoutError{Op: op, Cause: err}
	}
	if ctx.Err() != nil && errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s: %w", op, ctx.Err())
	}
	return &NetworkError{Op: op, Cause: err}
}

func errorMessage(payload []byte) string {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 {
		return ""
	}
	var body errorBody
	if err := json.Unmarshal(trimmed, &body); err == nil {
		if msg := firstNonEmpty(body.Error, body.Message); msg != "" {
			return msg
		}
	}
	if trimmed[0] == '<' || trimmed[0] == '{' {
		return ""
	}
	msg := string(trimmed)
	if runes := []rune(msg); len(runes) > maxErrorMessage {
		msg = string(runes[:maxErrorMessage]) + "…"
	}
	return msg
}

func decodeHistory(payload []byte, query HistoryQuery) (HistoryPage, error) {
	const op = "GET /api/history"

	var env historyEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return HistoryPage{}, &DecodeError{Op: op, Reason: "invalid JSON", Cause: err}
	}
	if env.Data == nil {
		return HistoryPage{}, &DecodeError{Op: op, Reason: "missing data array"}
	}

	records := *env.Data
	for i, rec := range records {
		if !rec.Status.ValidCampaign() {
			return HistoryPage{}, &DecodeError{Op: op, Reason: fmt.Sprintf("record %d: unknown status %q", i, rec.Status)}
		}
	}

	page := HistoryPage{Records: records, Page: query.Page, TotalPages: 1, Total: len(records)}
	if p := env.Pagination; p != nil {
		if p.TotalPages > 0 {
			page.TotalPages = p.TotalPages
		}
		if p.Page > 0 {
			page.Page = p.Page
		}
		if p.Total > 0 {
			page.Total = p.Total
		}
	}
	return page, nil
}

func parseBaseURL(apiURL string) (*url.URL, error) {
	trimmed := strings.TrimSpace(apiURL)
	if trimmed == "" {
		trimmed = DefaultAPIURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api_url %q: %w", apiURL, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse api_url %q: missing host", apiURL)
	}
	u.Path = strings.TrimSuffix(u.Path, "/")
	u.RawPath = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
