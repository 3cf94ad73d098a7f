package thread

import (
	"time"

	"github.com/carecollective/careconnect/internal/model"
	"github.com/carecollective/careconnect/internal/service"
)

// Virtualization constants. Threads shorter than the threshold render
// every row; longer ones render only the visible window.
const (
	VirtualizationThreshold = 100
	EstimatedRowHeight      = 80
	// Overscan rows rendered above and below the viewport
	Overscan = 5
	// Auto-scroll engages only when the viewport sits this close to the
	// bottom, so reading history is never yanked away.
	AutoScrollThresholdPx = 100
)

// RowKind discriminates the flattened render list.
type RowKind string

const (
	RowMessage       RowKind = "message"
	RowDateSeparator RowKind = "date_separator"
)

// Row is one entry of the flattened render list.
type Row struct {
	Kind    RowKind
	Date    time.Time
	Message *model.Message
	Content string
	Meta    Meta
}

// BuildRows flattens a chronological message list into render rows:
// date separators on calendar-day changes, grouped messages with their
// metadata, hidden content redacted unless the viewer moderates.
func BuildRows(messages []model.Message, viewerIsModerator bool) []Row {
	metas := GroupingMetadata(GroupMessages(messages))

	rows := make([]Row, 0, len(messages))
	var prev *model.Message
	for i := range messages {
		msg := &messages[i]
		if ShouldShowDateSeparator(prev, msg) {
			y, m, d := msg.CreatedAt.Date()
			rows = append(rows, Row{
				Kind: RowDateSeparator,
				Date: time.Date(y, m, d, 0, 0, 0, 0, msg.CreatedAt.Location()),
			})
		}
		rows = append(rows, Row{
			Kind:    RowMessage,
			Message: msg,
			Content: service.RedactForViewer(msg, viewerIsModerator),
			Meta:    metas[msg.ID.String()],
		})
		prev = msg
	}
	return rows
}

// Virtualized reports whether the thread is long enough to virtualize.
func Virtualized(rowCount int) bool {
	return rowCount > VirtualizationThreshold
}

// VisibleRange computes the window of rows to render for a scroll offset
// and viewport height, using the fixed estimated row height. Bounds are
// clamped and padded with overscan.
func VisibleRange(rowCount int, scrollTop, viewportHeight int) (start, end int) {
	if rowCount == 0 {
		return 0, 0
	}
	start = scrollTop/EstimatedRowHeight - Overscan
	if start < 0 {
		start = 0
	}
	end = (scrollTop+viewportHeight)/EstimatedRowHeight + 1 + Overscan
	if end > rowCount {
		end = rowCount
	}
	return start, end
}

// ContentHeight is the estimated full scroll height of the thread.
func ContentHeight(rowCount int) int {
	return rowCount * EstimatedRowHeight
}

// ShouldAutoScroll reports whether a new message should snap the view to
// the bottom.
func ShouldAutoScroll(scrollTop, viewportHeight, contentHeight int) bool {
	distanceFromBottom := contentHeight - scrollTop - viewportHeight
	return distanceFromBottom <= AutoScrollThresholdPx
}
