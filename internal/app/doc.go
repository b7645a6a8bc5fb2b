// Package app is the composition root for the Courier TUI.
//
// # Overview
//
// Run wires configuration, preferences, the mail API client, the shared
// state.Store, the recipient Loader and the UI together, then blocks until
// the user quits or the context is cancelled.
//
//  1. Read .env files (COURIER_API_URL, COURIER_API_TOKEN)
//  2. Load ~/.config/courier/config.toml
//  3. Open the log file through tea.LogToFile
//  4. Load ~/.config/courier/prefs.toml
//  5. Build the mailapi client and select the first history query
//  6. Start the history poller
//  7. Run the TUI
//
// # Data Flow
//
//	┌──────────────┐
//	│   Run()      │
//	└──────┬───────┘
//	       ├─────> config.Load()          Read config + env overrides
//	       ├─────> mailapi.NewClient()    HTTP client
//	       ├─────> state.Store{}          Shared history snapshot
//	       ├─────> recipients.NewLoader() Single loaded-recipients slot
//	       ├─────> StartPoller()          Background history refresh
//	       └─────> ui.Run()               TUI (blocks)
//
//	Poller loop:
//	┌─────────────────────────────────────────┐
//	│  q := store.Query()                     │
//	│  FetchHistory(q)                        │
//	│  store.Update(q, page, err)             │
//	│  wait interval (backoff on failure)     │
//	│  or wake on Nudge()                     │
//	└─────────────────────────────────────────┘
//
// # Polling Behavior
//
// The poller always fetches the query currently selected in the store, so
// changing the status filter, search or page in the UI only needs
// store.SetQuery followed by Poller.Nudge. Results for a query that was
// replaced while the request was in flight are dropped by the store.
//
// After a failure the wait doubles per consecutive failure (2s, 4s, 8s, ...)
// and is capped at 30 seconds. A success resets it. Failures are logged with
// slog to the log file and never printed over the TUI; the UI shows an
// offline badge once the store reports two consecutive failures.
//
// # Error Handling
//
// Fatal errors (returned from Run):
//   - Unreadable .env or config file, invalid config values
//   - Invalid API URL
//   - Log file cannot be created
//
// Recoverable errors (logged, polling continues):
//   - History fetch failures of any kind
package app
