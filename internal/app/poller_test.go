package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/five82/courier/internal/mailapi"
	"github.com/five82/courier/internal/state"
)

func TestCalculateBackoff(t *testing.T) {
	baseInterval := 2 * time.Second

	tests := []struct {
		name     string
		failures int
		want     time.Duration
	}{
		{"zero failures", 0, 2 * time.Second},
		{"negative failures", -1, 2 * time.Second},
		{"one failure", 1, 4 * time.Second},
		{"two failures", 2, 8 * time.Second},
		{"three failures", 3, 16 * time.Second},
		{"four failures capped", 4, 30 * time.Second}, // Would be 32s, capped to 30s
		{"many failures capped", 10, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calculateBackoff(tt.failures, baseInterval)
			if got != tt.want {
				t.Errorf("calculateBackoff(%d, %v) = %v, want %v", tt.failures, baseInterval, got, tt.want)
			}
		})
	}
}

func TestCalculateBackoff_MaxCap(t *testing.T) {
	// Verify that backoff never exceeds maxBackoff regardless of input
	baseInterval := 2 * time.Second
	for failures := 0; failures <= 200; failures++ {
		got := calculateBackoff(failures, baseInterval)
		if got > maxBackoff {
			t.Errorf("calculateBackoff(%d, %v) = %v, exceeds maxBackoff %v", failures, baseInterval, got, maxBackoff)
		}
	}
}

func TestCalculateBackoff_LongIntervalUnchanged(t *testing.T) {
	if got := calculateBackoff(3, time.Minute); got != time.Minute {
		t.Fatalf("calculateBackoff(3, 1m) = %v, want 1m", got)
	}
}

type fakeAPI struct {
	mu      sync.Mutex
	queries []mailapi.HistoryQuery
	page    mailapi.HistoryPage
	err     error
	fetched chan struct{}
}

func (f *fakeAPI) SendBulk(context.Context, mailapi.SendRequest) (mailapi.SendResult, error) {
	return mailapi.SendResult{}, nil
}

func (f *fakeAPI) FetchHistory(_ context.Context, q mailapi.HistoryQuery) (mailapi.HistoryPage, error) {
	f.mu.Lock()
	f.queries = append(f.queries, q)
	page, err := f.page, f.err
	f.mu.Unlock()
	if f.fetched != nil {
		select {
		case f.fetched <- struct{}{}:
		default:
		}
	}
	return page, err
}

func (f *fakeAPI) DeleteCampaign(context.Context, string) error  { return nil }
func (f *fakeAPI) ArchiveCampaign(context.Context, string) error { return nil }

func (f *fakeAPI) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queries)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRefresh_UsesSelectedQuery(t *testing.T) {
	store := &state.Store{}
	store.SetQuery(mailapi.HistoryQuery{Page: 3, Status: mailapi.StatusFailed, Search: "promo"})
	api := &fakeAPI{page: mailapi.HistoryPage{
		Records: []mailapi.CampaignRecord{{ID: "c1", Status: mailapi.StatusFailed}},
		Page:    3, TotalPages: 4, Total: 31,
	}}

	failures := refresh(context.Background(), store, api, discardLogger())
	if failures != 0 {
		t.Fatalf("failures = %d, want 0", failures)
	}
	if len(api.queries) != 1 {
		t.Fatalf("FetchHistory calls = %d, want 1", len(api.queries))
	}
	q := api.queries[0]
	if q.Page != 3 || q.Status != mailapi.StatusFailed || q.Search != "promo" || q.Limit != mailapi.DefaultPageSize {
		t.Fatalf("query = %+v, want page 3 failed promo", q)
	}
	snap := store.Snapshot()
	if !snap.HasPage || snap.Page.Total != 31 || snap.Page.Records[0].ID != "c1" {
		t.Fatalf("snapshot = %+v, want fetched page", snap.Page)
	}
}

func TestRefresh_FailureCountsAndKeepsPage(t *testing.T) {
	store := &state.Store{}
	api := &fakeAPI{page: mailapi.HistoryPage{Records: []mailapi.CampaignRecord{{ID: "c1"}}, Page: 1, TotalPages: 1}}
	refresh(context.Background(), store, api, discardLogger())

	api.err = &mailapi.TimeoutError{Op: "fetch history"}
	if got := refresh(context.Background(), store, api, discardLogger()); got != 1 {
		t.Fatalf("failures = %d, want 1", got)
	}
	if got := refresh(context.Background(), store, api, discardLogger()); got != 2 {
		t.Fatalf("failures = %d, want 2", got)
	}
	snap := store.Snapshot()
	if !snap.IsOffline() {
		t.Fatalf("IsOffline() = false after two failures")
	}
	if !errors.Is(snap.LastError, mailapi.ErrTimeout) {
		t.Fatalf("LastError = %v, want timeout", snap.LastError)
	}
	if !snap.HasPage || snap.Page.Records[0].ID != "c1" {
		t.Fatalf("previous page should survive failures, got %+v", snap.Page)
	}
}

func TestRefresh_CancelledContextIsNotAFailure(t *testing.T) {
	store := &state.Store{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	api := &fakeAPI{err: context.Canceled}

	if got := refresh(ctx, store, api, discardLogger()); got != 0 {
		t.Fatalf("failures = %d, want 0", got)
	}
	if store.Snapshot().LastError != nil {
		t.Fatalf("cancellation should not be recorded")
	}
}

func TestPoller_NudgeRefreshesImmediately(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	api := &fakeAPI{fetched: make(chan struct{}, 1)}
	store := &state.Store{}
	p := StartPoller(ctx, store, api, time.Hour, discardLogger())

	select {
	case <-api.fetched:
	case <-time.After(2 * time.Second):
		t.Fatal("initial poll did not happen")
	}

	p.Nudge()
	select {
	case <-api.fetched:
	case <-time.After(2 * time.Second):
		t.Fatal("nudge did not trigger a poll")
	}
	if got := api.calls(); got < 2 {
		t.Fatalf("FetchHistory calls = %d, want >= 2", got)
	}
}
