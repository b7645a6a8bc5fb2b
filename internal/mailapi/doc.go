// Package mailapi provides an HTTP client for the bulk-mail backend API.
//
// # Overview
//
// This package defines the client Courier uses to submit campaigns and to
// browse campaign history. It handles HTTP communication, JSON serialization,
// response validation, and a typed failure taxonomy.
//
// # Architecture
//
// The package is split into three files:
//
//   - client.go: HTTP client implementation and request/response handling
//   - types.go: Data structures mirroring the backend API schema
//   - errors.go: Typed errors returned to callers
//
// # Client Usage
//
//	client, err := mailapi.NewClient("https://mail.example.com",
//		mailapi.WithToken(cfg.APIToken),
//		mailapi.WithTimeout(cfg.RequestTimeout),
//	)
//	if err != nil {
//		return err
//	}
//
//	res, err := client.SendBulk(ctx, mailapi.SendRequest{
//		Recipients: recipients,
//		Subject:    "Quarterly update",
//		Message:    body,
//	})
//
//	page, err := client.FetchHistory(ctx, mailapi.HistoryQuery{Page: 1, Status: mailapi.StatusFailed})
//
// # API Endpoints
//
//   - POST /api/send-bulk: submit {recipients, subject, message}
//   - GET /api/history: paginated campaigns (page, limit, status, search)
//   - DELETE /api/history/{id}: remove a campaign
//   - POST /api/history/{id}/archive: archive a campaign
//
// # Request Handling
//
// All requests:
//   - Use context for cancellation and deadline control
//   - Set Accept: application/json and User-Agent: courier/0.1
//   - Carry Authorization: Bearer <token> when a token is configured
//   - Have a 30-second timeout unless WithTimeout overrides it
//
// Sends additionally carry an Idempotency-Key header (a fresh UUID per call),
// so a backend that honours the header never double-sends on a retried
// request.
//
// # Send Guards
//
// SendBulk validates the request before touching the network:
//
//   - ErrNoRecipients: the recipient list is empty
//   - *MissingFieldsError: subject or message is blank
//
// # Error Handling
//
// Failures are typed so the UI can explain them precisely:
//
//   - *TimeoutError (errors.Is ErrTimeout): the request ran past its deadline
//   - *NetworkError (errors.Is ErrNetwork): connection refused, DNS, reset
//   - *APIError: HTTP 4xx/5xx, with the server's {"error": "..."} message
//   - *DecodeError (errors.Is ErrDecode): body does not match the schema
//
// A caller cancelling its own context gets the context error back, not a
// network error.
//
// # Response Validation
//
// History responses must be {"data": [...], "pagination": {...}}. A missing
// data array, an unknown campaign status (sent, partial, failed, pending) or
// an unknown recipient status is a DecodeError. A missing pagination object
// means a single page.
//
// # Thread Safety
//
// The Client struct is safe for concurrent use.
package mailapi
