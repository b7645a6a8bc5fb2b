package mailapi

import (
	"errors"
	"strings"
	"time"
)

// Status is the delivery state of a campaign or a single recipient.
type Status string

const (
	StatusSent    Status = "sent"
	StatusPartial Status = "partial"
	StatusFailed  Status = "failed"
	StatusPending Status = "pending"
)

// CampaignStatuses lists campaign states in filter-cycle order.
var CampaignStatuses = []Status{StatusSent, StatusPartial, StatusFailed, StatusPending}

// ValidCampaign reports whether s is a campaign status the history API may return.
func (s Status) ValidCampaign() bool {
	switch s {
	case StatusSent, StatusPartial, StatusFailed, StatusPending:
		return true
	}
	return false
}

// ParseStatus accepts a campaign status in any case; "" means no filter.
func ParseStatus(value string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(value)))
	if s == "" || s.ValidCampaign() {
		return s, nil
	}
	return "", errors.New("unknown status " + value)
}

// SendRequest is the body of POST /api/send-bulk.
type SendRequest struct {
	Recipients []string `json:"recipients"`
	Subject    string   `json:"subject"`
	Message    string   `json:"message"`
}

// Validate applies the caller-side guards that run before any request.
func (r SendRequest) Validate() error {
	if len(r.Recipients) == 0 {
		return ErrNoRecipients
	}
	var missing []string
	if strings.TrimSpace(r.Subject) == "" {
		missing = append(missing, "subject")
	}
	if strings.TrimSpace(r.Message) == "" {
		missing = append(missing, "message")
	}
	if len(missing) > 0 {
		return &MissingFieldsError{Fields: missing}
	}
	return nil
}

// SendResult is the optional acknowledgement body of a successful send.
type SendResult struct {
	Success    *bool  `json:"success,omitempty"`
	Message    string `json:"message,omitempty"`
	CampaignID string `json:"campaignId,omitempty"`
	Error      string `json:"error,omitempty"`
}

// HistoryQuery configures /api/history requests.
type HistoryQuery struct {
	Page   int
	Limit  int
	Status Status
	Search string
}

// Normalized clamps paging values to the API's expectations.
func (q HistoryQuery) Normalized() HistoryQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit <= 0 {
		q.Limit = DefaultPageSize
	}
	q.Search = strings.TrimSpace(q.Search)
	return q
}

// HistoryPage is a validated page of campaign history.
type HistoryPage struct {
	Records    []CampaignRecord
	Page       int
	TotalPages int
	Total      int
}

// Clone returns a deep copy.
func (p HistoryPage) Clone() HistoryPage {
	dup := p
	if p.Records != nil {
		dup.Records = make([]CampaignRecord, len(p.Records))
		for i, r := range p.Records {
			dup.Records[i] = r.Clone()
		}
	}
	return dup
}

// CampaignRecord is one past send attempt.
type CampaignRecord struct {
	ID             string            `json:"_id"`
	Subject        string            `json:"subject"`
	Status         Status            `json:"status"`
	RecipientCount int               `json:"recipientCount"`
	Recipients     []RecipientStatus `json:"recipients"`
	CreatedAt      time.Time         `json:"createdAt"`
	Archived       bool              `json:"archived,omitempty"`
}

// Clone returns a deep copy.
func (c CampaignRecord) Clone() CampaignRecord {
	dup := c
	if c.Recipients != nil {
		dup.Recipients = make([]RecipientStatus, len(c.Recipients))
		copy(dup.Recipients, c.Recipients)
	}
	return dup
}

// FailedCount counts recipients whose delivery failed.
func (c CampaignRecord) FailedCount() int {
	n := 0
	for _, r := range c.Recipients {
		if r.Status == StatusFailed {
			n++
		}
	}
	return n
}

// RecipientStatus is the per-address delivery outcome. Its Status is whatever
// the backend reports and is not limited to the campaign states.
type RecipientStatus struct {
	Email  string     `json:"email"`
	Status Status     `json:"status"`
	SentAt *time.Time `json:"sentAt,omitempty"`
	Error  string     `json:"error,omitempty"`
}

type historyEnvelope struct {
	Data       *[]CampaignRecord `json:"data"`
	Pagination *struct {
		Page       int `json:"page"`
		TotalPages int `json:"totalPages"`
		Total      int `json:"total"`
	} `json:"pagination"`
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
