package thread

import (
	"testing"
	"time"

	"github.com/carecollective/careconnect/internal/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alice = uuid.New()
	bob   = uuid.New()
)

func msgAt(sender uuid.UUID, at time.Time, msgType model.MessageType) model.Message {
	return model.Message{
		ID:          uuid.New(),
		SenderID:    sender,
		MessageType: msgType,
		Content:     "hello",
		CreatedAt:   at,
	}
}

func TestGroupMessages(t *testing.T) {
	base := time.Date(2026, 1, 13, 10, 0, 0, 0, time.UTC)

	t.Run("same sender within window forms one group", func(t *testing.T) {
		msgs := []model.Message{
			msgAt(alice, base, model.MessageTypeText),
			msgAt(alice, base.Add(2*time.Minute), model.MessageTypeText),
			msgAt(alice, base.Add(4*time.Minute), model.MessageTypeText),
		}
		groups := GroupMessages(msgs)
		require.Len(t, groups, 1)
		assert.Len(t, groups[0].Messages, 3)
	})

	t.Run("gap past the window breaks the group", func(t *testing.T) {
		msgs := []model.Message{
			msgAt(alice, base, model.MessageTypeText),
			msgAt(alice, base.Add(10*time.Minute), model.MessageTypeText),
		}
		groups := GroupMessages(msgs)
		assert.Len(t, groups, 2)
	})

	t.Run("gap of exactly the window still merges", func(t *testing.T) {
		msgs := []model.Message{
			msgAt(alice, base, model.MessageTypeText),
			msgAt(alice, base.Add(GroupingWindow), model.MessageTypeText),
		}
		groups := GroupMessages(msgs)
		require.Len(t, groups, 1)
		assert.Len(t, groups[0].Messages, 2)
	})

	t.Run("one tick past the window splits", func(t *testing.T) {
		msgs := []model.Message{
			msgAt(alice, base, model.MessageTypeText),
			msgAt(alice, base.Add(GroupingWindow+time.Second), model.MessageTypeText),
		}
		groups := GroupMessages(msgs)
		assert.Len(t, groups, 2)
	})

	t.Run("sender change breaks the group", func(t *testing.T) {
		msgs := []model.Message{
			msgAt(alice, base, model.MessageTypeText),
			msgAt(bob, base.Add(time.Minute), model.MessageTypeText),
			msgAt(alice, base.Add(2*time.Minute), model.MessageTypeText),
		}
		groups := GroupMessages(msgs)
		assert.Len(t, groups, 3)
	})

	t.Run("system messages never merge", func(t *testing.T) {
		msgs := []model.Message{
			msgAt(alice, base, model.MessageTypeText),
			msgAt(alice, base.Add(time.Minute), model.MessageTypeSystem),
			msgAt(alice, base.Add(2*time.Minute), model.MessageTypeText),
		}
		groups := GroupMessages(msgs)
		require.Len(t, groups, 3)
		assert.Len(t, groups[1].Messages, 1)
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, GroupMessages(nil))
	})
}

func TestGroupingMetadata(t *testing.T) {
	base := time.Date(2026, 1, 13, 10, 0, 0, 0, time.UTC)
	msgs := []model.Message{
		msgAt(alice, base, model.MessageTypeText),
		msgAt(alice, base.Add(time.Minute), model.MessageTypeText),
		msgAt(alice, base.Add(2*time.Minute), model.MessageTypeText),
	}
	metas := GroupingMetadata(GroupMessages(msgs))

	first := metas[msgs[0].ID.String()]
	middle := metas[msgs[1].ID.String()]
	last := metas[msgs[2].ID.String()]

	assert.True(t, first.IsFirstInGroup)
	assert.False(t, first.IsLastInGroup)
	assert.False(t, middle.IsFirstInGroup)
	assert.False(t, middle.IsLastInGroup)
	assert.False(t, last.IsFirstInGroup)
	assert.True(t, last.IsLastInGroup)
	assert.Equal(t, first.GroupID, last.GroupID)
}

func TestShouldShowDateSeparator(t *testing.T) {
	t.Run("first message always gets one", func(t *testing.T) {
		m := msgAt(alice, time.Date(2026, 1, 13, 9, 0, 0, 0, time.UTC), model.MessageTypeText)
		assert.True(t, ShouldShowDateSeparator(nil, &m))
	})

	t.Run("midnight crossing", func(t *testing.T) {
		prev := msgAt(alice, time.Date(2026, 1, 13, 23, 59, 0, 0, time.UTC), model.MessageTypeText)
		curr := msgAt(alice, time.Date(2026, 1, 14, 0, 1, 0, 0, time.UTC), model.MessageTypeText)
		assert.True(t, ShouldShowDateSeparator(&prev, &curr))
	})

	t.Run("same day hours apart", func(t *testing.T) {
		prev := msgAt(alice, time.Date(2026, 1, 13, 9, 0, 0, 0, time.UTC), model.MessageTypeText)
		curr := msgAt(alice, time.Date(2026, 1, 13, 14, 0, 0, 0, time.UTC), model.MessageTypeText)
		assert.False(t, ShouldShowDateSeparator(&prev, &curr))
	})
}
