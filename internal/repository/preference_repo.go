package repository

import (
	"github.com/carecollective/careconnect/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PreferenceRepository handles database operations for MessagingPreferences
type PreferenceRepository struct {
	db *gorm.DB
}

func NewPreferenceRepository(db *gorm.DB) *PreferenceRepository {
	return &PreferenceRepository{db: db}
}

// Find returns a user's saved preferences, gorm.ErrRecordNotFound when the
// user never saved any. The gateway applies defaults in that case.
func (r *PreferenceRepository) Find(userID uuid.UUID) (*model.MessagingPreferences, error) {
	var prefs model.MessagingPreferences
	err := r.db.Where("user_id = ?", userID).First(&prefs).Error
	if err != nil {
		return nil, err
	}
	return &prefs, nil
}

// Upsert writes preferences, replacing any existing row for the user.
func (r *PreferenceRepository) Upsert(prefs *model.MessagingPreferences) error {
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"can_receive_from",
			"auto_accept_help_requests",
			"email_notifications",
			"push_notifications",
			"updated_at",
		}),
	}).Create(prefs).Error
}
