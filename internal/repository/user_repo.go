package repository

import (
	"time"

	"github.com/carecollective/careconnect/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserRepository handles database operations for User
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user
func (r *UserRepository) Create(user *model.User) error {
	return r.db.Create(user).Error
}

// FindByID finds a user by UUID
func (r *UserRepository) FindByID(id uuid.UUID) (*model.User, error) {
	var user model.User
	err := r.db.Where("id = ?", id).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail finds a user by email
func (r *UserRepository) FindByEmail(email string) (*model.User, error) {
	var user model.User
	err := r.db.Where("email = ?", email).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdatePresence stores a user's raw presence flag and bumps last_seen.
// Readers must go through EffectivePresence, which forces offline once
// last_seen goes stale.
func (r *UserRepository) UpdatePresence(id uuid.UUID, status model.PresenceStatus) error {
	updates := map[string]interface{}{
		"presence":  status,
		"last_seen": time.Now(),
	}
	return r.db.Model(&model.User{}).Where("id = ?", id).Updates(updates).Error
}
