package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/ahmetcoskunkizilkaya/recipe-backend/internal/cache"
	"github.com/ahmetcoskunkizilkaya/recipe-backend/internal/models"
	"gorm.io/gorm"
)

var (
	ErrInvalidCredentials = errors.New("unable to authenticate with provided credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrInactiveUser       = errors.New("user inactive or deleted")
)

type AuthService struct {
	db     *gorm.DB
	tokens *cache.TokenCache
}

func NewAuthService(db *gorm.DB, tokens *cache.TokenCache) *AuthService {
	return &AuthService{db: db, tokens: tokens}
}

// ObtainToken checks credentials and returns the user's token, creating it on first login.
func (s *AuthService) ObtainToken(ctx context.Context, email, password string) (string, error) {
	if email == "" || password == "" {
		return "", ErrInvalidCredentials
	}

	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", NormalizeEmail(email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}
	if !CheckPassword(&user, password) || !user.IsActive {
		return "", ErrInvalidCredentials
	}

	token, err := s.getOrCreateToken(ctx, &user)
	if err != nil {
		return "", err
	}
	return token.Key, nil
}

func (s *AuthService) getOrCreateToken(ctx context.Context, user *models.User) (*models.Token, error) {
	db := s.db.WithContext(ctx)

	var token models.Token
	err := db.Where("user_id = ?", user.ID).First(&token).Error
	if err == nil {
		return &token, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	key, err := generateKey()
	if err != nil {
		return nil, err
	}
	token = models.Token{Key: key, UserID: user.ID}
	if err := db.Omit("User").Create(&token).Error; err != nil {
		// a concurrent first login won the unique index on user_id
		var existing models.Token
		if findErr := db.Where("user_id = ?", user.ID).First(&existing).Error; findErr == nil {
			return &existing, nil
		}
		return nil, fmt.Errorf("failed to create token: %w", err)
	}
	return &token, nil
}

// Authenticate resolves a token key to its active owner.
func (s *AuthService) Authenticate(ctx context.Context, key string) (*models.User, error) {
	if key == "" {
		return nil, ErrInvalidToken
	}
	if user, ok := s.tokens.Get(ctx, key); ok {
		return user, nil
	}

	var token models.Token
	if err := s.db.WithContext(ctx).Preload("User").Where(&models.Token{Key: key}).First(&token).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if !token.User.IsActive {
		return nil, ErrInactiveUser
	}

	s.tokens.Put(ctx, key, &token.User)
	return &token.User, nil
}

func generateKey() (string, error) {
	b := make([]byte, 20)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
