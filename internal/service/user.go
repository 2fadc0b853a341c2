package service

import (
	"ByteGuard/internal/model"
	"ByteGuard/internal/repo"
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const searchLimit = 20

// UserService — регистрация, аутентификация и реестр публичных ключей.
type UserService struct {
	repo repo.UserRepository
}

func NewUserService(r repo.UserRepository) *UserService {
	return &UserService{repo: r}
}

// Register создаёт учётную запись. kyberPK опционален: ключ можно загрузить
// позже, до этого пользователь не может получать шары.
func (s *UserService) Register(ctx context.Context, researcherID, password string, kyberPK *string) (*model.User, error) {
	researcherID = strings.TrimSpace(researcherID)
	password = strings.TrimSpace(password)
	if researcherID == "" || password == "" {
		return nil, fmt.Errorf("%w: researcher id and password are required", ErrValidation)
	}
	if len(password) < 6 {
		return nil, fmt.Errorf("%w: password must be at least 6 characters", ErrValidation)
	}

	existing, err := s.repo.GetUserByResearcherID(ctx, researcherID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, ErrResearcherIDTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	u := &model.User{
		ResearcherID:   researcherID,
		PasswordHash:   string(hash),
		KyberPublicKey: kyberPK,
	}
	return s.repo.CreateUser(ctx, u)
}

// Login проверяет учётные данные.
func (s *UserService) Login(ctx context.Context, researcherID, password string) (*model.User, error) {
	researcherID = strings.TrimSpace(researcherID)
	password = strings.TrimSpace(password)
	if researcherID == "" || password == "" {
		return nil, fmt.Errorf("%w: researcher id and password are required", ErrValidation)
	}

	u, err := s.repo.GetUserByResearcherID(ctx, researcherID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

func (s *UserService) GetByID(ctx context.Context, id int64) (*model.User, error) {
	u, err := s.repo.GetUserByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: user", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// SetPublicKey безусловно заменяет публичный ключ пользователя.
func (s *UserService) SetPublicKey(ctx context.Context, userID int64, key string) (*model.User, error) {
	if strings.TrimSpace(key) == "" {
		return nil, fmt.Errorf("%w: kyberPublicKey is required", ErrValidation)
	}
	if _, err := s.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	if err := s.repo.UpdatePublicKey(ctx, userID, key); err != nil {
		return nil, err
	}
	return s.GetByID(ctx, userID)
}

// LookupPublicKey — ключ получателя для инкапсуляции на стороне отправителя.
// Отсутствие пользователя и отсутствие ключа равно NotFound.
func (s *UserService) LookupPublicKey(ctx context.Context, researcherID string) (*model.User, error) {
	u, err := s.repo.GetUserByResearcherID(ctx, researcherID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: user", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if !u.HasKey() {
		return nil, fmt.Errorf("%w: recipient has no public key registered", ErrNotFound)
	}
	return u, nil
}

// Search — подстрочный поиск исследователей, не больше 20, без самого себя.
// Пустой запрос даёт пустой список.
func (s *UserService) Search(ctx context.Context, q string, selfID int64) ([]model.User, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return []model.User{}, nil
	}
	return s.repo.SearchByResearcherID(ctx, q, selfID, searchLimit)
}
