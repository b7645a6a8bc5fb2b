// Package history holds client-side operations over a page of campaign
// records: filtering, sorting, summaries and export.
package history

import (
	"fmt"
	"slices"
	"strings"

	"github.com/five82/courier/internal/mailapi"
)

// Criteria narrows a list of campaigns. Zero values match everything.
type Criteria struct {
	Status mailapi.Status
	Search string
}

// Filter returns the records matching c, in their original order. Search is a
// case-insensitive substring match over the subject and recipient emails.
func Filter(records []mailapi.CampaignRecord, c Criteria) []mailapi.CampaignRecord {
	needle := strings.ToLower(strings.TrimSpace(c.Search))
	out := make([]mailapi.CampaignRecord, 0, len(records))
	for _, rec := range records {
		if c.Status != "" && rec.Status != c.Status {
			continue
		}
		if needle != "" && !matches(rec, needle) {
			continue
		}
		out = append(out, rec)
	}
	return out
}

func matches(rec mailapi.CampaignRecord, needle string) bool {
	if strings.Contains(strings.ToLower(rec.Subject), needle) {
		return true
	}
	for _, r := range rec.Recipients {
		if strings.Contains(strings.ToLower(r.Email), needle) {
			return true
		}
	}
	return false
}

// SortKey names a sortable campaign column.
type SortKey string

const (
	SortCreated SortKey = "created"
	SortSubject SortKey = "subject"
	SortCount   SortKey = "count"
	SortStatus  SortKey = "status"
)

var sortOrder = []SortKey{SortCreated, SortSubject, SortCount, SortStatus}

// ParseSortKey accepts a sort key name; "" means SortCreated.
func ParseSortKey(value string) (SortKey, error) {
	key := SortKey(strings.ToLower(strings.TrimSpace(value)))
	if key == "" {
		return SortCreated, nil
	}
	if slices.Contains(sortOrder, key) {
		return key, nil
	}
	return "", fmt.Errorf("unknown sort key %q (want one of created, subject, count, status)", value)
}

// Next returns the sort key after k in the UI cycle.
func (k SortKey) Next() SortKey {
	i := slices.Index(sortOrder, k)
	return sortOrder[(i+1)%len(sortOrder)]
}

// Sort returns a sorted copy of records. Ties keep their input order.
func Sort(records []mailapi.CampaignRecord, key SortKey, desc bool) []mailapi.CampaignRecord {
	out := slices.Clone(records)
	slices.SortStableFunc(out, func(a, b mailapi.CampaignRecord) int {
		var c int
		switch key {
		case SortSubject:
			c = strings.Compare(strings.ToLower(a.Subject), strings.ToLower(b.Subject))
		case SortCount:
			c = a.RecipientCount - b.RecipientCount
		case SortStatus:
			c = strings.Compare(string(a.Status), string(b.Status))
		default:
			c = a.CreatedAt.Compare(b.CreatedAt)
		}
		if desc {
			return -c
		}
		return c
	})
	return out
}

// Summary aggregates a list of campaigns.
type Summary struct {
	Campaigns  int
	Recipients int
	Failed     int
	ByStatus   map[mailapi.Status]int
}

// Summarize counts campaigns per status and totals their recipients.
func Summarize(records []mailapi.CampaignRecord) Summary {
	s := Summary{ByStatus: make(map[mailapi.Status]int, len(mailapi.CampaignStatuses))}
	for _, rec := range records {
		s.Campaigns++
		s.Recipients += rec.RecipientCount
		s.Failed += rec.FailedCount()
		s.ByStatus[rec.Status]++
	}
	return s
}
