package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/carecollective/careconnect/internal/model"
	"github.com/carecollective/careconnect/pkg/apperr"
	"github.com/carecollective/careconnect/pkg/auth"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// UserStore is the persistence surface auth needs.
type UserStore interface {
	Create(user *model.User) error
	FindByID(id uuid.UUID) (*model.User, error)
	FindByEmail(email string) (*model.User, error)
	UpdatePresence(id uuid.UUID, status model.PresenceStatus) error
}

// AuthService handles registration, login, and token revocation.
type AuthService struct {
	users UserStore
	jwt   *auth.JWTManager
	redis *redis.Client
}

func NewAuthService(users UserStore, jwtManager *auth.JWTManager, redisClient *redis.Client) *AuthService {
	return &AuthService{users: users, jwt: jwtManager, redis: redisClient}
}

func (s *AuthService) Register(req model.RegisterRequest) (*model.LoginResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if _, err := s.users.FindByEmail(email); err == nil {
		return nil, apperr.Validation("email is already registered")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Internal("failed to check email", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperr.Internal("failed to hash password", err)
	}

	user := &model.User{
		Name:     strings.TrimSpace(req.Name),
		Email:    email,
		Password: string(hashed),
		Location: strings.TrimSpace(req.Location),
		Presence: model.PresenceOnline,
	}
	if err := s.users.Create(user); err != nil {
		return nil, apperr.Internal("failed to create user", err)
	}

	return s.issueToken(user)
}

func (s *AuthService) Login(req model.LoginRequest) (*model.LoginResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	user, err := s.users.FindByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Unauthenticated("invalid email or password")
		}
		return nil, apperr.Internal("failed to load user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, apperr.Unauthenticated("invalid email or password")
	}

	_ = s.users.UpdatePresence(user.ID, model.PresenceOnline)

	return s.issueToken(user)
}

// Logout blacklists the token in Redis until its natural expiry, so a
// stolen token stops working the moment its owner signs out.
func (s *AuthService) Logout(token string, userID uuid.UUID) error {
	claims, err := s.jwt.ValidateToken(token)
	if err != nil {
		return apperr.Unauthenticated("invalid token")
	}

	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl > 0 {
		key := "careconnect:blacklist:" + token
		if err := s.redis.Set(context.Background(), key, "1", ttl).Err(); err != nil {
			return apperr.TransientInfra("failed to revoke token", err)
		}
	}

	_ = s.users.UpdatePresence(userID, model.PresenceOffline)
	return nil
}

func (s *AuthService) issueToken(user *model.User) (*model.LoginResponse, error) {
	token, err := s.jwt.GenerateToken(user.ID, user.Email, user.Name, user.IsAdmin)
	if err != nil {
		return nil, apperr.Internal("failed to generate token", err)
	}
	return &model.LoginResponse{
		Token: token,
		User:  user.ToResponse(time.Now()),
	}, nil
}
