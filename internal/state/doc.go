// Package state holds the history snapshot shared by the poller and the UI.
//
// # Overview
//
// Store pairs the history query the UI has selected with the latest page
// fetched for it. The poller reads Query, fetches, and calls Update; the UI
// calls SetQuery when the user changes filter, search or page, and reads
// Snapshot on every tick.
//
//	Poller goroutine                 UI goroutine
//	────────────────                 ────────────
//	q := store.Query()               store.SetQuery(q2)
//	page, err := FetchHistory(q)     snap := store.Snapshot()
//	store.Update(q, &page, err)
//
// # Update Semantics
//
//   - Update for a query that is no longer selected returns false and
//     changes nothing, so a slow response never overwrites a newer view.
//   - Update with an error keeps the previous page and records LastError.
//   - ConsecutiveFailures counts failed updates since the last success;
//     Snapshot.IsOffline reports two or more.
//   - SetQuery with a different query drops the page; re-selecting an
//     equivalent query keeps it.
//
// # Thread Safety
//
// All methods take the store's RWMutex. Snapshot returns deep copies of the
// records so callers may sort or filter them in place.
//
// The zero Store is ready to use and selects page 1 with the default limit.
package state
