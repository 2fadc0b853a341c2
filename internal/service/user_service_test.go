package service

import (
	"ByteGuard/internal/model"
	"ByteGuard/internal/repo"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// мок для repo.UserRepository
type mockUserRepo struct{ mock.Mock }

func (m *mockUserRepo) CreateUser(ctx context.Context, user *model.User) (*model.User, error) {
	args := m.Called(ctx, user)
	if u, ok := args.Get(0).(*model.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserRepo) GetUserByResearcherID(ctx context.Context, rid string) (*model.User, error) {
	args := m.Called(ctx, rid)
	if u, ok := args.Get(0).(*model.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserRepo) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	args := m.Called(ctx, id)
	if u, ok := args.Get(0).(*model.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserRepo) UpdatePublicKey(ctx context.Context, userID int64, key string) error {
	return m.Called(ctx, userID, key).Error(0)
}

func (m *mockUserRepo) SearchByResearcherID(ctx context.Context, q string, excludeID int64, limit int) ([]model.User, error) {
	args := m.Called(ctx, q, excludeID, limit)
	if v, ok := args.Get(0).([]model.User); ok {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}

var _ repo.UserRepository = (*mockUserRepo)(nil)

func TestUserService_Register(t *testing.T) {
	ctx := context.Background()
	m := new(mockUserRepo)
	svc := NewUserService(m)

	t.Run("ok when researcher id free", func(t *testing.T) {
		m.ExpectedCalls = nil
		m.On("GetUserByResearcherID", mock.Anything, "john").Return((*model.User)(nil), gorm.ErrRecordNotFound).Once()
		created := &model.User{ID: 10, ResearcherID: "john"}
		m.On("CreateUser", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
			// пароль сохраняется только как bcrypt-хеш
			return u.ResearcherID == "john" && u.PasswordHash != "" && u.PasswordHash != "p@ssw0rd"
		})).Return(created, nil).Once()

		user, err := svc.Register(ctx, "john", "p@ssw0rd", nil)
		assert.NoError(t, err)
		assert.Equal(t, int64(10), user.ID)
		m.AssertExpectations(t)
	})

	t.Run("conflict when researcher id taken", func(t *testing.T) {
		m.ExpectedCalls = nil
		m.On("GetUserByResearcherID", mock.Anything, "john").Return(&model.User{ID: 1, ResearcherID: "john"}, nil).Once()

		user, err := svc.Register(ctx, "john", "p@ssw0rd", nil)
		assert.Nil(t, user)
		assert.ErrorIs(t, err, ErrResearcherIDTaken)
		assert.ErrorIs(t, err, ErrConflict)
		m.AssertExpectations(t)
	})

	t.Run("validation on empty and short password", func(t *testing.T) {
		m.ExpectedCalls = nil

		_, err := svc.Register(ctx, "", "p@ssw0rd", nil)
		assert.ErrorIs(t, err, ErrValidation)

		_, err = svc.Register(ctx, "john", "", nil)
		assert.ErrorIs(t, err, ErrValidation)

		_, err = svc.Register(ctx, "john", "short", nil)
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestUserService_Login(t *testing.T) {
	ctx := context.Background()
	m := new(mockUserRepo)
	svc := NewUserService(m)

	// готовим хеш для пароля "secretporridge"
	hash, _ := bcrypt.GenerateFromPassword([]byte("secretporridge"), bcrypt.DefaultCost)

	t.Run("ok with valid credentials", func(t *testing.T) {
		m.ExpectedCalls = nil
		m.On("GetUserByResearcherID", mock.Anything, "alice").Return(&model.User{ID: 2, ResearcherID: "alice", PasswordHash: string(hash)}, nil).Once()

		user, err := svc.Login(ctx, "alice", "secretporridge")
		assert.NoError(t, err)
		assert.Equal(t, int64(2), user.ID)
		m.AssertExpectations(t)
	})

	t.Run("invalid password", func(t *testing.T) {
		m.ExpectedCalls = nil
		m.On("GetUserByResearcherID", mock.Anything, "alice").Return(&model.User{ID: 2, ResearcherID: "alice", PasswordHash: string(hash)}, nil).Once()

		user, err := svc.Login(ctx, "alice", "wrong")
		assert.Nil(t, user)
		assert.ErrorIs(t, err, ErrInvalidCredentials)
		m.AssertExpectations(t)
	})

	t.Run("unknown user maps to invalid credentials", func(t *testing.T) {
		m.ExpectedCalls = nil
		m.On("GetUserByResearcherID", mock.Anything, "ghost").Return((*model.User)(nil), gorm.ErrRecordNotFound).Once()

		_, err := svc.Login(ctx, "ghost", "whatever")
		assert.ErrorIs(t, err, ErrUnauthorized)
		m.AssertExpectations(t)
	})
}

func TestUserService_LookupPublicKey(t *testing.T) {
	ctx := context.Background()
	m := new(mockUserRepo)
	svc := NewUserService(m)

	t.Run("user without key is NotFound", func(t *testing.T) {
		m.ExpectedCalls = nil
		m.On("GetUserByResearcherID", mock.Anything, "bob").Return(&model.User{ID: 3, ResearcherID: "bob"}, nil).Once()

		_, err := svc.LookupPublicKey(ctx, "bob")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("ok with key", func(t *testing.T) {
		m.ExpectedCalls = nil
		key := "cGs="
		m.On("GetUserByResearcherID", mock.Anything, "bob").Return(&model.User{ID: 3, ResearcherID: "bob", KyberPublicKey: &key}, nil).Once()

		u, err := svc.LookupPublicKey(ctx, "bob")
		assert.NoError(t, err)
		assert.Equal(t, "cGs=", *u.KyberPublicKey)
	})
}

func TestUserService_SearchEmptyQuery(t *testing.T) {
	// пустой запрос не ходит в репозиторий
	svc := NewUserService(new(mockUserRepo))
	got, err := svc.Search(context.Background(), "   ", 1)
	assert.NoError(t, err)
	assert.Empty(t, got)
}
