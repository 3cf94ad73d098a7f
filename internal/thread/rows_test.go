package thread

import (
	"testing"
	"time"

	"github.com/carecollective/careconnect/internal/model"
	"github.com/carecollective/careconnect/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildRows(t *testing.T) {
	day1 := time.Date(2026, 1, 13, 10, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 1, 14, 9, 0, 0, 0, time.UTC)

	msgs := []model.Message{
		msgAt(alice, day1, model.MessageTypeText),
		msgAt(bob, day1.Add(time.Minute), model.MessageTypeText),
		msgAt(alice, day2, model.MessageTypeText),
	}

	rows := BuildRows(msgs, false)

	// separator, msg, msg, separator, msg
	require.Len(t, rows, 5)
	assert.Equal(t, RowDateSeparator, rows[0].Kind)
	assert.Equal(t, RowMessage, rows[1].Kind)
	assert.Equal(t, RowMessage, rows[2].Kind)
	assert.Equal(t, RowDateSeparator, rows[3].Kind)
	assert.Equal(t, RowMessage, rows[4].Kind)
}

func TestBuildRowsRedaction(t *testing.T) {
	hidden := model.ModerationStatusHidden
	msg := msgAt(alice, time.Now(), model.MessageTypeText)
	msg.ModerationStatus = &hidden

	rows := BuildRows([]model.Message{msg}, false)
	require.Len(t, rows, 2)
	assert.Equal(t, service.RedactedPlaceholder, rows[1].Content)

	modRows := BuildRows([]model.Message{msg}, true)
	assert.Equal(t, "hello", modRows[1].Content)
}

func TestVirtualized(t *testing.T) {
	assert.False(t, Virtualized(100))
	assert.True(t, Virtualized(101))
}

func TestVisibleRange(t *testing.T) {
	t.Run("top of thread", func(t *testing.T) {
		start, end := VisibleRange(500, 0, 800)
		assert.Equal(t, 0, start)
		assert.Equal(t, 800/EstimatedRowHeight+1+Overscan, end)
	})

	t.Run("mid scroll includes overscan", func(t *testing.T) {
		start, end := VisibleRange(500, 8000, 800)
		assert.Equal(t, 8000/EstimatedRowHeight-Overscan, start)
		assert.Greater(t, end, start)
	})

	t.Run("clamped at the end", func(t *testing.T) {
		_, end := VisibleRange(50, 100000, 800)
		assert.Equal(t, 50, end)
	})

	t.Run("empty", func(t *testing.T) {
		start, end := VisibleRange(0, 0, 800)
		assert.Zero(t, start)
		assert.Zero(t, end)
	})
}

func TestShouldAutoScroll(t *testing.T) {
	content := ContentHeight(200)

	// pinned to the bottom
	assert.True(t, ShouldAutoScroll(content-800, 800, content))
	// 100px up still snaps
	assert.True(t, ShouldAutoScroll(content-800-100, 800, content))
	// reading history does not
	assert.False(t, ShouldAutoScroll(content-800-101, 800, content))
}
