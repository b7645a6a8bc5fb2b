package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/five82/courier/internal/mailapi"
)

// Snapshot represents the latest history data available to the UI.
type Snapshot struct {
	Query               mailapi.HistoryQuery
	Page                mailapi.HistoryPage
	HasPage             bool
	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int // Number of consecutive poll failures
}

// IsOffline returns true when the API has been unreachable for multiple polls.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// Store coordinates concurrent updates to the snapshot.
type Store struct {
	mu       sync.RWMutex
	query    mailapi.HistoryQuery
	snapshot Snapshot
}

// SetQuery selects the history query to poll. A changed query drops the page
// fetched for the previous one.
func (s *Store) SetQuery(q mailapi.HistoryQuery) {
	q = q.Normalized()

	s.mu.Lock()
	defer s.mu.Unlock()

	if q == s.query {
		return
	}
	s.query = q
	s.snapshot.Query = q
	s.snapshot.Page = mailapi.HistoryPage{}
	s.snapshot.HasPage = false
}

// Query returns the query the poller should fetch.
func (s *Store) Query() mailapi.HistoryQuery {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.query.Normalized()
}

// Update records the result of fetching q. Results for a query that is no
// longer selected are discarded. When err is non-nil the previous data is
// kept but the error is recorded for visibility.
func (s *Store) Update(q mailapi.HistoryQuery, page *mailapi.HistoryPage, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if q.Normalized() != s.query.Normalized() {
		return false
	}

	if err != nil {
		s.snapshot.LastError = err
		s.snapshot.LastUpdated = time.Now()
		s.snapshot.ConsecutiveFailures++
		return true
	}

	s.snapshot.Query = s.query.Normalized()
	if page != nil {
		s.snapshot.Page = page.Clone()
		s.snapshot.HasPage = true
	} else {
		s.snapshot.Page = mailapi.HistoryPage{}
		s.snapshot.HasPage = false
	}
	s.snapshot.LastError = nil
	s.snapshot.LastUpdated = time.Now()
	s.snapshot.ConsecutiveFailures = 0
	return true
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Query = s.query.Normalized()
	snap.Page = s.snapshot.Page.Clone()
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}
