package service

import (
	"testing"
	"time"

	"github.com/carecollective/careconnect/internal/model"
	"github.com/carecollective/careconnect/pkg/apperr"
	"github.com/carecollective/careconnect/pkg/auth"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeUserStore struct {
	users map[uuid.UUID]*model.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[uuid.UUID]*model.User)}
}

func (f *fakeUserStore) Create(user *model.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	copied := *user
	f.users[user.ID] = &copied
	return nil
}

func (f *fakeUserStore) FindByID(id uuid.UUID) (*model.User, error) {
	if u, ok := f.users[id]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserStore) FindByEmail(email string) (*model.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserStore) UpdatePresence(id uuid.UUID, status model.PresenceStatus) error {
	if u, ok := f.users[id]; ok {
		u.Presence = status
	}
	return nil
}

func newAuthFixture() (*AuthService, *fakeUserStore, *auth.JWTManager) {
	users := newFakeUserStore()
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	return NewAuthService(users, jwtManager, nil), users, jwtManager
}

func TestRegister(t *testing.T) {
	svc, users, jwtManager := newAuthFixture()

	resp, err := svc.Register(model.RegisterRequest{
		Name:     "Maria Santos",
		Email:    "  Maria@Example.COM ",
		Password: "supersecret",
		Location: "Riverside",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)

	claims, err := jwtManager.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, claims.UserID)
	assert.Equal(t, "maria@example.com", claims.Email, "email is normalized")

	stored, err := users.FindByEmail("maria@example.com")
	require.NoError(t, err, "stored under the normalized email")
	assert.NotEqual(t, "supersecret", stored.Password, "password is hashed")
	assert.Equal(t, model.PresenceOnline, stored.Presence)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _, _ := newAuthFixture()

	req := model.RegisterRequest{Name: "Maria", Email: "maria@example.com", Password: "supersecret"}
	_, err := svc.Register(req)
	require.NoError(t, err)

	_, err = svc.Register(req)
	assert.Equal(t, apperr.CodeValidation, apperr.CodeOf(err))

	req.Email = "MARIA@example.com"
	_, err = svc.Register(req)
	assert.Equal(t, apperr.CodeValidation, apperr.CodeOf(err), "duplicate check ignores case")
}

func TestLogin(t *testing.T) {
	svc, _, _ := newAuthFixture()

	_, err := svc.Register(model.RegisterRequest{Name: "Maria", Email: "maria@example.com", Password: "supersecret"})
	require.NoError(t, err)

	resp, err := svc.Login(model.LoginRequest{Email: "maria@example.com", Password: "supersecret"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)

	_, err = svc.Login(model.LoginRequest{Email: "maria@example.com", Password: "wrong"})
	assert.Equal(t, apperr.CodeUnauthenticated, apperr.CodeOf(err))

	_, err = svc.Login(model.LoginRequest{Email: "nobody@example.com", Password: "supersecret"})
	assert.Equal(t, apperr.CodeUnauthenticated, apperr.CodeOf(err), "unknown email looks the same as a bad password")
}
