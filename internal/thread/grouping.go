// Package thread implements the client-side view model of a conversation:
// message grouping, date separators, row virtualization, and the stateful
// view that consumes realtime events.
package thread

import (
	"fmt"
	"time"

	"github.com/carecollective/careconnect/internal/model"
)

// GroupingWindow is how close together two messages from the same sender
// must be to render as one visual group.
const GroupingWindow = 5 * time.Minute

// Group is a run of consecutive messages rendered under one sender header.
type Group struct {
	ID       string
	SenderID string
	Messages []model.Message
}

// Meta is the per-message rendering metadata derived from grouping.
type Meta struct {
	GroupID        string
	IsFirstInGroup bool
	IsLastInGroup  bool
}

// GroupMessages splits a chronological message list into sender groups.
// A group breaks on sender change or when the gap to the previous message
// exceeds the window. System messages never merge: each renders alone.
func GroupMessages(messages []model.Message) []Group {
	var groups []Group
	for i := range messages {
		msg := messages[i]
		if len(groups) > 0 && sameGroup(&groups[len(groups)-1], &msg) {
			last := &groups[len(groups)-1]
			last.Messages = append(last.Messages, msg)
			continue
		}
		groups = append(groups, Group{
			ID:       fmt.Sprintf("group-%s", msg.ID),
			SenderID: msg.SenderID.String(),
			Messages: []model.Message{msg},
		})
	}
	return groups
}

func sameGroup(g *Group, msg *model.Message) bool {
	if msg.MessageType == model.MessageTypeSystem {
		return false
	}
	prev := g.Messages[len(g.Messages)-1]
	if prev.MessageType == model.MessageTypeSystem {
		return false
	}
	if prev.SenderID != msg.SenderID {
		return false
	}
	return msg.CreatedAt.Sub(prev.CreatedAt) <= GroupingWindow
}

// GroupingMetadata maps each message ID to its rendering metadata.
func GroupingMetadata(groups []Group) map[string]Meta {
	metas := make(map[string]Meta)
	for _, g := range groups {
		for i, msg := range g.Messages {
			metas[msg.ID.String()] = Meta{
				GroupID:        g.ID,
				IsFirstInGroup: i == 0,
				IsLastInGroup:  i == len(g.Messages)-1,
			}
		}
	}
	return metas
}

// ShouldShowDateSeparator reports whether a separator belongs before
// current. The rule is a calendar-day change, not elapsed time.
func ShouldShowDateSeparator(prev *model.Message, current *model.Message) bool {
	if current == nil {
		return false
	}
	if prev == nil {
		return true
	}
	py, pm, pd := prev.CreatedAt.Date()
	cy, cm, cd := current.CreatedAt.Date()
	return py != cy || pm != cm || pd != cd
}
