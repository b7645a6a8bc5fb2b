package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/five82/courier/internal/mailapi"
	"github.com/five82/courier/internal/state"
)

const (
	defaultPollInterval = 5 * time.Second
	maxBackoff          = 30 * time.Second
)

// Poller refreshes the history page selected in the store.
type Poller struct {
	store    *state.Store
	client   mailapi.API
	interval time.Duration
	logger   *slog.Logger
	nudge    chan struct{}
}

// StartPoller launches a background goroutine that refreshes the store. It
// waits interval between successful polls and backs off exponentially while
// the API keeps failing. It returns immediately.
func StartPoller(ctx context.Context, store *state.Store, client mailapi.API, interval time.Duration, logger *slog.Logger) *Poller {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	p := &Poller{
		store:    store,
		client:   client,
		interval: interval,
		logger:   logger,
		nudge:    make(chan struct{}, 1),
	}
	go p.loop(ctx)
	return p
}

// Nudge asks for an immediate refresh, for example after the query changed
// or a campaign was deleted. Nudges coalesce.
func (p *Poller) Nudge() {
	select {
	case p.nudge <- struct{}{}:
	default:
	}
}

func (p *Poller) loop(ctx context.Context) {
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		case <-p.nudge:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
		}

		failures := refresh(ctx, p.store, p.client, p.logger)
		timer.Reset(calculateBackoff(failures, p.interval))
	}
}

// refresh fetches the currently selected query once and returns the number
// of consecutive failures recorded in the store.
func refresh(ctx context.Context, store *state.Store, client mailapi.API, logger *slog.Logger) int {
	q := store.Query()
	page, err := client.FetchHistory(ctx, q)
	if err != nil && ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		return store.Snapshot().ConsecutiveFailures
	}
	if err != nil {
		if store.Update(q, nil, err) {
			logger.Warn("history poll failed", "page", q.Page, "status", string(q.Status), "error", err)
		}
	} else {
		store.Update(q, &page, nil)
	}
	return store.Snapshot().ConsecutiveFailures
}

// calculateBackoff doubles base for every consecutive failure, capped at
// maxBackoff. Intervals already above the cap are left alone.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 || base >= maxBackoff {
		return base
	}
	d := base
	for range failures {
		d *= 2
		if d >= maxBackoff {
			return maxBackoff
		}
	}
	return d
}
