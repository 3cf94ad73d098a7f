package repository

import (
	"github.com/carecollective/careconnect/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// HelpRequestRepository reads help requests for the messaging gateway.
// Request lifecycle management lives outside the messaging core.
type HelpRequestRepository struct {
	db *gorm.DB
}

func NewHelpRequestRepository(db *gorm.DB) *HelpRequestRepository {
	return &HelpRequestRepository{db: db}
}

// FindByID finds a help request with its owner
func (r *HelpRequestRepository) FindByID(id uuid.UUID) (*model.HelpRequest, error) {
	var req model.HelpRequest
	err := r.db.
		Preload("Owner").
		Where("id = ?", id).
		First(&req).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}
