// Package ui implements Courier's terminal interface with Bubble Tea.
//
// # Views
//
// Compose (F2) is a small form: a subject line, a multi-line message and
// the path of a recipient file. Enter in the file field parses it through
// recipients.Loader; the header then shows "N recipients loaded". Ctrl+S
// runs the send guards locally and, when they pass, submits the campaign.
// A spinner marks the send and further Ctrl+S presses are refused until it
// finishes.
//
// History (F3) shows the page of campaigns the poller last fetched:
//
//	f        cycle status filter (resets to page 1)
//	/        search subject and recipient emails (resets to page 1)
//	s, o     sort column and direction (local to the page)
//	[ ]      previous and next page
//	enter    show per-recipient status for the selected campaign
//	x, X, R  export the page as CSV or XLSX, or the campaign's recipients
//	d, a     delete or archive, after a y confirmation
//
// # Data Flow
//
// The UI never fetches history itself. Filter, search and page changes go
// through state.Store.SetQuery and a nudge to the poller; a tick every
// PollTick reads Store.Snapshot. Sends, deletes, archives, exports and
// file loads run as tea.Cmds and report back with a result message.
//
// # Errors
//
// errorText maps every known failure to a specific message: unsupported
// file type, unreadable or unparsable file, the two send guards, timeout,
// unreachable server, malformed response, and server rejections with the
// server's own message. Errors stay in the status line until replaced.
//
// # Theming
//
// Nightfox, Kanagawa and Slate palettes; Ctrl+T cycles and the choice is
// saved to prefs along with sort order, status filter and last file.
package ui
