package service

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/carecollective/careconnect/internal/model"
	"github.com/carecollective/careconnect/pkg/apperr"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ScreeningAction is the verdict of automated content screening.
type ScreeningAction string

const (
	ScreeningAllow  ScreeningAction = "allow"
	ScreeningReview ScreeningAction = "review"
	ScreeningBlock  ScreeningAction = "block"
)

// ScreeningResult carries the verdict plus which pattern categories fired.
type ScreeningResult struct {
	Action     ScreeningAction `json:"action"`
	Flags      []string        `json:"flags,omitempty"`
	Confidence float64         `json:"confidence"`
}

// RestrictionLevel orders user sanctions from none to banned.
type RestrictionLevel string

const (
	RestrictionNone      RestrictionLevel = "none"
	RestrictionLimited   RestrictionLevel = "limited"
	RestrictionSuspended RestrictionLevel = "suspended"
	RestrictionBanned    RestrictionLevel = "banned"
)

// TrustReport summarizes a user's moderation standing.
type TrustReport struct {
	UserID          uuid.UUID        `json:"user_id"`
	Score           int              `json:"score"`
	VerifiedReports int64            `json:"verified_reports"`
	TotalReports    int64            `json:"total_reports"`
	Restriction     RestrictionLevel `json:"restriction"`
}

const trustBaseScore = 75
const trustPenaltyPerVerified = 15

// screeningPattern pairs a category with its detector and severity weight.
type screeningPattern struct {
	category string
	re       *regexp.Regexp
	weight   float64
}

var screeningPatterns = []screeningPattern{
	{"profanity", regexp.MustCompile(`(?i)\b(fuck|shit|bitch|asshole|bastard|cunt)\b`), 0.4},
	{"pii_phone", regexp.MustCompile(`\b\d{3}[-.\s]?\d{3}[-.\s]?\d{4}\b`), 0.3},
	{"pii_email", regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`), 0.3},
	{"pii_ssn", regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`), 0.8},
	{"spam_link", regexp.MustCompile(`(?i)https?://\S+\.(ru|cn|tk|click|xyz)\b`), 0.5},
	{"spam_promo", regexp.MustCompile(`(?i)\b(buy now|limited offer|act now|click here|free money)\b`), 0.5},
	{"scam_payment", regexp.MustCompile(`(?i)\b(wire transfer|western union|gift card|bitcoin|venmo me|cashapp)\b`), 0.6},
	{"scam_urgency", regexp.MustCompile(`(?i)\b(send money (now|immediately)|urgent.{0,20}(payment|transfer))\b`), 0.7},
}

// ScreenContent runs every pattern over the content and aggregates a
// verdict. High-confidence hits block outright; anything else that matched
// goes to the review queue.
func ScreenContent(content string) ScreeningResult {
	var flags []string
	confidence := 0.0
	for _, p := range screeningPatterns {
		if p.re.MatchString(content) {
			flags = append(flags, p.category)
			if p.weight > confidence {
				confidence = p.weight
			}
		}
	}

	action := ScreeningAllow
	switch {
	case confidence >= 0.7:
		action = ScreeningBlock
	case len(flags) > 0:
		action = ScreeningReview
	}
	return ScreeningResult{Action: action, Flags: flags, Confidence: confidence}
}

// ReportQueueStore is the persistence surface the moderation service needs
// for the report queue.
type ReportQueueStore interface {
	FindByID(id uuid.UUID) (*model.MessageReport, error)
	PendingQueue(limit int) ([]model.MessageReport, error)
	Resolve(id uuid.UUID, status model.ReportStatus, reviewerID uuid.UUID, at time.Time) error
	CountVerifiedAgainstSender(senderID uuid.UUID) (int64, error)
	CountAgainstSender(senderID uuid.UUID) (int64, error)
}

// ModeratedMessageStore mutates moderation state on messages.
type ModeratedMessageStore interface {
	FindByID(id uuid.UUID) (*model.Message, error)
	UpdateModerationStatus(messageID uuid.UUID, status model.ModerationStatus) error
}

// ModeratedConversationStore mutates conversation lifecycle state.
type ModeratedConversationStore interface {
	FindByID(id uuid.UUID) (*model.Conversation, error)
	UpdateStatus(conversationID uuid.UUID, status model.ConversationStatus) error
}

// ModerationService handles the report queue, trust scoring, and the
// moderation-only conversation transitions.
type ModerationService struct {
	reports ReportQueueStore
	msgs    ModeratedMessageStore
	convs   ModeratedConversationStore
}

func NewModerationService(reports ReportQueueStore, msgs ModeratedMessageStore, convs ModeratedConversationStore) *ModerationService {
	return &ModerationService{reports: reports, msgs: msgs, convs: convs}
}

// TrustScore derives a user's standing from their verified report history.
func (s *ModerationService) TrustScore(userID uuid.UUID) (*TrustReport, error) {
	verified, err := s.reports.CountVerifiedAgainstSender(userID)
	if err != nil {
		return nil, apperr.Internal("failed to count verified reports", err)
	}
	total, err := s.reports.CountAgainstSender(userID)
	if err != nil {
		return nil, apperr.Internal("failed to count reports", err)
	}

	score := trustBaseScore - int(verified)*trustPenaltyPerVerified
	if score < 0 {
		score = 0
	}

	var restriction RestrictionLevel
	switch {
	case verified >= 5:
		restriction = RestrictionBanned
	case verified >= 3:
		restriction = RestrictionSuspended
	case verified >= 2 || score < 40:
		restriction = RestrictionLimited
	default:
		restriction = RestrictionNone
	}

	return &TrustReport{
		UserID:          userID,
		Score:           score,
		VerifiedReports: verified,
		TotalReports:    total,
		Restriction:     restriction,
	}, nil
}

// CheckSendRestrictions denies messaging for suspended and banned users.
// Limited users may still message; handlers apply tighter rate limits to
// them separately.
func (s *ModerationService) CheckSendRestrictions(userID uuid.UUID) error {
	trust, err := s.TrustScore(userID)
	if err != nil {
		return err
	}
	switch trust.Restriction {
	case RestrictionBanned:
		return apperr.PermissionDenied("your account has been banned from messaging")
	case RestrictionSuspended:
		return apperr.PermissionDenied("your account is suspended from messaging")
	}
	return nil
}

// PendingQueue returns the oldest unreviewed reports.
func (s *ModerationService) PendingQueue(limit int) ([]model.MessageReport, error) {
	if limit <= 0 || limit > MaxPageSize {
		limit = DefaultConversationPageSize
	}
	queue, err := s.reports.PendingQueue(limit)
	if err != nil {
		return nil, apperr.Internal("failed to load moderation queue", err)
	}
	return queue, nil
}

// ProcessReport records a moderator's decision on a pending report.
func (s *ModerationService) ProcessReport(reviewerID, reportID uuid.UUID, decision model.ModerationDecision) error {
	report, err := s.reports.FindByID(reportID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("report not found")
		}
		return apperr.Internal("failed to load report", err)
	}
	if report.Status != model.ReportStatusPending {
		return apperr.Validation("report has already been reviewed")
	}

	now := time.Now()
	switch decision {
	case model.DecisionDismiss:
		if err := s.msgs.UpdateModerationStatus(report.MessageID, model.ModerationStatusApproved); err != nil {
			return apperr.Internal("failed to clear message flag", err)
		}
		return s.resolve(reportID, model.ReportStatusDismissed, reviewerID, now)
	case model.DecisionHideMessage:
		if err := s.msgs.UpdateModerationStatus(report.MessageID, model.ModerationStatusHidden); err != nil {
			return apperr.Internal("failed to hide message", err)
		}
		return s.resolve(reportID, model.ReportStatusActionTaken, reviewerID, now)
	case model.DecisionWarnUser:
		return s.resolve(reportID, model.ReportStatusReviewed, reviewerID, now)
	case model.DecisionRestrictUser:
		return s.resolve(reportID, model.ReportStatusActionTaken, reviewerID, now)
	default:
		return apperr.Validation(fmt.Sprintf("unknown decision: %s", decision))
	}
}

func (s *ModerationService) resolve(reportID uuid.UUID, status model.ReportStatus, reviewerID uuid.UUID, at time.Time) error {
	if err := s.reports.Resolve(reportID, status, reviewerID, at); err != nil {
		return apperr.Internal("failed to resolve report", err)
	}
	return nil
}

// CloseConversation is the only path that moves a conversation to closed.
// Closed and blocked are terminal.
func (s *ModerationService) CloseConversation(conversationID uuid.UUID) error {
	return s.transition(conversationID, model.ConversationStatusClosed)
}

// BlockConversation is the only path that moves a conversation to blocked.
func (s *ModerationService) BlockConversation(conversationID uuid.UUID) error {
	return s.transition(conversationID, model.ConversationStatusBlocked)
}

func (s *ModerationService) transition(conversationID uuid.UUID, status model.ConversationStatus) error {
	conv, err := s.convs.FindByID(conversationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("conversation not found")
		}
		return apperr.Internal("failed to load conversation", err)
	}
	if conv.Status != model.ConversationStatusActive {
		return apperr.Validation(fmt.Sprintf("conversation is already %s", conv.Status))
	}
	if err := s.convs.UpdateStatus(conversationID, status); err != nil {
		return apperr.Internal("failed to update conversation status", err)
	}
	return nil
}

// RedactedPlaceholder is what non-moderators see in place of hidden content.
const RedactedPlaceholder = "[message hidden by moderators]"

// RedactForViewer replaces hidden content unless the viewer moderates.
func RedactForViewer(msg *model.Message, viewerIsModerator bool) string {
	if msg.Hidden() && !viewerIsModerator {
		return RedactedPlaceholder
	}
	if msg.Deleted() {
		return "[message deleted]"
	}
	return strings.TrimSpace(msg.Content)
}
