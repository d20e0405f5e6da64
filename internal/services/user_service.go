package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ahmetcoskunkizilkaya/recipe-backend/internal/cache"
	"github.com/ahmetcoskunkizilkaya/recipe-backend/internal/models"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	MinPasswordLength = 5
	MaxPasswordLength = 72
)

var (
	ErrValidation     = errors.New("validation failed")
	ErrEmailRequired  = fmt.Errorf("%w: users must have an email address", ErrValidation)
	ErrEmailTaken     = fmt.Errorf("%w: user with this email already exists", ErrValidation)
	ErrPasswordPolicy = fmt.Errorf("%w: password must be %d to %d characters", ErrValidation, MinPasswordLength, MaxPasswordLength)
	ErrUserNotFound   = errors.New("user not found")
)

// NormalizeEmail lowercases the domain part and keeps the local part as typed.
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at] + "@" + strings.ToLower(email[at+1:])
}

// ValidatePassword enforces the registration password policy.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength || len(password) > MaxPasswordLength {
		return ErrPasswordPolicy
	}
	return nil
}

type UserService struct {
	db     *gorm.DB
	tokens *cache.TokenCache
}

func NewUserService(db *gorm.DB, tokens *cache.TokenCache) *UserService {
	return &UserService{db: db, tokens: tokens}
}

// CreateUser persists an active, non-staff user.
func (s *UserService) CreateUser(ctx context.Context, email, password, name string) (*models.User, error) {
	return s.create(ctx, &models.User{Email: email, Name: name, IsActive: true}, password)
}

// CreateSuperuser persists an active user with staff and superuser flags.
func (s *UserService) CreateSuperuser(ctx context.Context, email, password, name string) (*models.User, error) {
	return s.create(ctx, &models.User{
		Email:       email,
		Name:        name,
		IsActive:    true,
		IsStaff:     true,
		IsSuperuser: true,
	}, password)
}

func (s *UserService) create(ctx context.Context, user *models.User, password string) (*models.User, error) {
	user.Email = NormalizeEmail(user.Email)
	if user.Email == "" {
		return nil, ErrEmailRequired
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", user.Email).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if count > 0 {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user.Password = string(hash)

	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// CheckPassword reports whether plain matches the stored hash.
func CheckPassword(user *models.User, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(plain)) == nil
}

func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// UpdateProfile changes the supplied fields of the user's own record.
func (s *UserService) UpdateProfile(ctx context.Context, id uuid.UUID, name, password *string) (*models.User, error) {
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if name != nil {
		updates["name"] = strings.TrimSpace(*name)
	}
	if password != nil {
		if err := ValidatePassword(*password); err != nil {
			return nil, err
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		updates["password"] = string(hash)
	}
	if len(updates) == 0 {
		return user, nil
	}

	if err := s.db.WithContext(ctx).Model(user).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	s.forgetTokens(ctx, user.ID)
	return s.GetByID(ctx, id)
}

// ListUsers returns every account ordered by email.
func (s *UserService) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := s.db.WithContext(ctx).Order("email ASC").Find(&users).Error
	return users, err
}

// SetActive toggles login capability. Cached identities are dropped immediately.
func (s *UserService) SetActive(ctx context.Context, id uuid.UUID, active bool) (*models.User, error) {
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(user).Update("is_active", active).Error; err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	s.forgetTokens(ctx, user.ID)
	user.IsActive = active
	return user, nil
}

func (s *UserService) forgetTokens(ctx context.Context, userID uuid.UUID) {
	if s.tokens == nil {
		return
	}
	var keys []string
	if err := s.db.WithContext(ctx).Model(&models.Token{}).Where("user_id = ?", userID).Pluck("key", &keys).Error; err != nil {
		slog.Warn("token cache invalidation failed", "error", err, "user_id", userID.String())
		return
	}
	for _, key := range keys {
		s.tokens.Forget(ctx, key)
	}
}
