package ui

import "time"

// Layout sizes.
const (
	// LayoutCompactWidth is the width assumed before the first resize.
	LayoutCompactWidth = 100

	// ComposeLabelWidth is the width of the compose form's label column.
	ComposeLabelWidth = 12

	// MessageHeight is the number of lines of the message editor.
	MessageHeight = 8

	// HistoryFixedColumnsWidth is the width used by every history column
	// except Subject, including cell padding.
	HistoryFixedColumnsWidth = 16 + 8 + 10 + 6 + 12

	// HistoryChromeHeight is the number of rows around the history table.
	HistoryChromeHeight = 8

	// ExpandedRecipientsHeight is the height of the expanded recipient panel.
	ExpandedRecipientsHeight = 12
)

// Timing constants.
const (
	// DefaultUIInterval is the default UI refresh interval.
	DefaultUIInterval = time.Second

	// FlashTTL is how long a non-error status message stays visible.
	FlashTTL = 8 * time.Second
)
