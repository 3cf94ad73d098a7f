package service

import (
	"testing"
	"time"

	"github.com/carecollective/careconnect/internal/model"
	"github.com/carecollective/careconnect/pkg/apperr"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeReportQueue struct {
	reports  map[uuid.UUID]*model.MessageReport
	verified map[uuid.UUID]int64
	total    map[uuid.UUID]int64
}

func newFakeReportQueue() *fakeReportQueue {
	return &fakeReportQueue{
		reports:  make(map[uuid.UUID]*model.MessageReport),
		verified: make(map[uuid.UUID]int64),
		total:    make(map[uuid.UUID]int64),
	}
}

func (f *fakeReportQueue) FindByID(id uuid.UUID) (*model.MessageReport, error) {
	if r, ok := f.reports[id]; ok {
		return r, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeReportQueue) PendingQueue(limit int) ([]model.MessageReport, error) {
	var out []model.MessageReport
	for _, r := range f.reports {
		if r.Status == model.ReportStatusPending {
			out = append(out, *r)
		}
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (f *fakeReportQueue) Resolve(id uuid.UUID, status model.ReportStatus, reviewerID uuid.UUID, at time.Time) error {
	if r, ok := f.reports[id]; ok {
		r.Status = status
		r.ReviewedBy = &reviewerID
		r.ReviewedAt = &at
	}
	return nil
}

func (f *fakeReportQueue) CountVerifiedAgainstSender(senderID uuid.UUID) (int64, error) {
	return f.verified[senderID], nil
}

func (f *fakeReportQueue) CountAgainstSender(senderID uuid.UUID) (int64, error) {
	return f.total[senderID], nil
}

func (f *fakeMsgStore) UpdateModerationStatus(messageID uuid.UUID, status model.ModerationStatus) error {
	for i := range f.messages {
		if f.messages[i].ID == messageID {
			s := status
			f.messages[i].ModerationStatus = &s
		}
	}
	return nil
}

func TestScreenContent(t *testing.T) {
	tests := []struct {
		name    string
		content string
		action  ScreeningAction
	}{
		{"plain neighborly text", "Happy to give you a ride on Friday!", ScreeningAllow},
		{"profanity goes to review", "what the fuck is taking so long", ScreeningReview},
		{"email goes to review", "reach me at bob@example.com instead", ScreeningReview},
		{"phone number goes to review", "call me at 555-123-4567 tonight", ScreeningReview},
		{"ssn blocks", "my social is 123-45-6789 if you need it", ScreeningBlock},
		{"payment scam blocks near urgency", "urgent, send money now via western union", ScreeningBlock},
		{"gift card ask reviews", "could you grab me a gift card as thanks", ScreeningReview},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ScreenContent(tt.content)
			assert.Equal(t, tt.action, result.Action, "flags: %v confidence: %.2f", result.Flags, result.Confidence)
			if tt.action != ScreeningAllow {
				assert.NotEmpty(t, result.Flags)
			}
		})
	}
}

func TestTrustScore(t *testing.T) {
	tests := []struct {
		name        string
		verified    int64
		wantScore   int
		restriction RestrictionLevel
	}{
		{"clean record", 0, 75, RestrictionNone},
		{"one verified report", 1, 60, RestrictionNone},
		{"two verified reports limited", 2, 45, RestrictionLimited},
		{"three suspended", 3, 30, RestrictionSuspended},
		{"five banned", 5, 0, RestrictionBanned},
		{"many stays banned at floor", 9, 0, RestrictionBanned},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			queue := newFakeReportQueue()
			user := uuid.New()
			queue.verified[user] = tt.verified
			queue.total[user] = tt.verified + 1

			svc := NewModerationService(queue, &fakeMsgStore{}, newFakeConvStore())
			trust, err := svc.TrustScore(user)
			require.NoError(t, err)
			assert.Equal(t, tt.wantScore, trust.Score)
			assert.Equal(t, tt.restriction, trust.Restriction)
		})
	}
}

func TestCheckSendRestrictions(t *testing.T) {
	queue := newFakeReportQueue()
	svc := NewModerationService(queue, &fakeMsgStore{}, newFakeConvStore())

	clean := uuid.New()
	assert.NoError(t, svc.CheckSendRestrictions(clean))

	limited := uuid.New()
	queue.verified[limited] = 2
	assert.NoError(t, svc.CheckSendRestrictions(limited), "limited users may still send")

	suspended := uuid.New()
	queue.verified[suspended] = 3
	assert.Equal(t, apperr.CodePermissionDenied, apperr.CodeOf(svc.CheckSendRestrictions(suspended)))

	banned := uuid.New()
	queue.verified[banned] = 5
	assert.Equal(t, apperr.CodePermissionDenied, apperr.CodeOf(svc.CheckSendRestrictions(banned)))
}

func TestProcessReport(t *testing.T) {
	reviewer := uuid.New()

	setup := func() (*ModerationService, *fakeReportQueue, *fakeMsgStore, uuid.UUID, uuid.UUID) {
		queue := newFakeReportQueue()
		msgs := &fakeMsgStore{}
		msgID := uuid.New()
		msgs.messages = append(msgs.messages, model.Message{ID: msgID, Content: "reported"})

		reportID := uuid.New()
		queue.reports[reportID] = &model.MessageReport{
			ID:        reportID,
			MessageID: msgID,
			Status:    model.ReportStatusPending,
		}
		return NewModerationService(queue, msgs, newFakeConvStore()), queue, msgs, reportID, msgID
	}

	t.Run("dismiss approves the message", func(t *testing.T) {
		svc, queue, msgs, reportID, msgID := setup()
		require.NoError(t, svc.ProcessReport(reviewer, reportID, model.DecisionDismiss))

		assert.Equal(t, model.ReportStatusDismissed, queue.reports[reportID].Status)
		stored, _ := msgs.FindByID(msgID)
		require.NotNil(t, stored.ModerationStatus)
		assert.Equal(t, model.ModerationStatusApproved, *stored.ModerationStatus)
	})

	t.Run("hide redacts the message", func(t *testing.T) {
		svc, queue, msgs, reportID, msgID := setup()
		require.NoError(t, svc.ProcessReport(reviewer, reportID, model.DecisionHideMessage))

		assert.Equal(t, model.ReportStatusActionTaken, queue.reports[reportID].Status)
		stored, _ := msgs.FindByID(msgID)
		assert.True(t, stored.Hidden())
		assert.Equal(t, RedactedPlaceholder, RedactForViewer(stored, false))
		assert.Equal(t, "reported", RedactForViewer(stored, true))
	})

	t.Run("already reviewed rejects a second decision", func(t *testing.T) {
		svc, _, _, reportID, _ := setup()
		require.NoError(t, svc.ProcessReport(reviewer, reportID, model.DecisionDismiss))

		err := svc.ProcessReport(reviewer, reportID, model.DecisionHideMessage)
		assert.Equal(t, apperr.CodeValidation, apperr.CodeOf(err))
	})

	t.Run("unknown report", func(t *testing.T) {
		svc, _, _, _, _ := setup()
		err := svc.ProcessReport(reviewer, uuid.New(), model.DecisionDismiss)
		assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))
	})
}

func TestConversationTransitions(t *testing.T) {
	setup := func() (*ModerationService, *fakeConvStore, uuid.UUID) {
		convs := newFakeConvStore()
		conv := &model.Conversation{Status: model.ConversationStatusActive}
		require.NoError(t, convs.Create(conv))
		return NewModerationService(newFakeReportQueue(), &fakeMsgStore{}, convs), convs, conv.ID
	}

	t.Run("close", func(t *testing.T) {
		svc, convs, id := setup()
		require.NoError(t, svc.CloseConversation(id))
		assert.Equal(t, model.ConversationStatusClosed, convs.convs[id].Status)
	})

	t.Run("block", func(t *testing.T) {
		svc, convs, id := setup()
		require.NoError(t, svc.BlockConversation(id))
		assert.Equal(t, model.ConversationStatusBlocked, convs.convs[id].Status)
	})

	t.Run("closed is terminal", func(t *testing.T) {
		svc, _, id := setup()
		require.NoError(t, svc.CloseConversation(id))

		err := svc.BlockConversation(id)
		assert.Equal(t, apperr.CodeValidation, apperr.CodeOf(err))
	})

	t.Run("unknown conversation", func(t *testing.T) {
		svc, _, _ := setup()
		err := svc.CloseConversation(uuid.New())
		assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))
	})
}
