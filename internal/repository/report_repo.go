package repository

import (
	"time"

	"github.com/carecollective/careconnect/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReportRepository handles database operations for MessageReport
type ReportRepository struct {
	db *gorm.DB
}

func NewReportRepository(db *gorm.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// Create inserts a new report
func (r *ReportRepository) Create(report *model.MessageReport) error {
	return r.db.Create(report).Error
}

// FindByID finds a report with its message and reporter
func (r *ReportRepository) FindByID(id uuid.UUID) (*model.MessageReport, error) {
	var report model.MessageReport
	err := r.db.
		Preload("Message.Sender").
		Preload("Reporter").
		Where("id = ?", id).
		First(&report).Error
	if err != nil {
		return nil, err
	}
	return &report, nil
}

// PendingQueue returns pending reports oldest-first for moderator review.
func (r *ReportRepository) PendingQueue(limit int) ([]model.MessageReport, error) {
	reports := []model.MessageReport{}
	err := r.db.
		Preload("Message.Sender").
		Preload("Reporter").
		Where("status = ?", model.ReportStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&reports).Error
	return reports, err
}

// Resolve records the review outcome for a report.
func (r *ReportRepository) Resolve(id uuid.UUID, status model.ReportStatus, reviewerID uuid.UUID, at time.Time) error {
	return r.db.Model(&model.MessageReport{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":      status,
			"reviewed_at": at,
			"reviewed_by": reviewerID,
		}).Error
}

// CountVerifiedAgainstSender counts action_taken reports against messages a
// user sent; trust scoring is built on it.
func (r *ReportRepository) CountVerifiedAgainstSender(senderID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.Model(&model.MessageReport{}).
		Joins("JOIN messages ON messages.id = message_reports.message_id").
		Where("messages.sender_id = ?", senderID).
		Where("message_reports.status = ?", model.ReportStatusActionTaken).
		Count(&count).Error
	return count, err
}

// CountAgainstSender counts all reports against messages a user sent.
func (r *ReportRepository) CountAgainstSender(senderID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.Model(&model.MessageReport{}).
		Joins("JOIN messages ON messages.id = message_reports.message_id").
		Where("messages.sender_id = ?", senderID).
		Count(&count).Error
	return count, err
}
