package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"waypost/internal/cache"
	"waypost/internal/config"
	"waypost/internal/middleware"
	"waypost/internal/models"
	"waypost/internal/repository"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// tokenTTL is the lifetime of an issued access token.
const tokenTTL = 24 * time.Hour

// AuthService handles explorer signup, login and token refresh.
type AuthService struct {
	explorers repository.ExplorerRepository
	cfg       *config.Config
	redis     *redis.Client
}

// NewAuthService creates a new auth service. The redis client backs refresh
// token storage; with a nil client refresh is unavailable and auth responses
// carry only the access token.
func NewAuthService(explorers repository.ExplorerRepository, cfg *config.Config, rdb *redis.Client) *AuthService {
	return &AuthService{explorers: explorers, cfg: cfg, redis: rdb}
}

// SignupInput carries the registration fields.
type SignupInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Bio      string `json:"bio"`
}

// LoginInput carries the credentials for login.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResult is returned by signup, login and refresh.
type AuthResult struct {
	Token        string           `json:"token"`
	RefreshToken string           `json:"refresh_token,omitempty"`
	Explorer     *models.Explorer `json:"explorer"`
}

// Signup registers a new explorer and returns a signed token.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*AuthResult, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))

	if len(in.Username) < 3 || len(in.Username) > 32 {
		return nil, models.NewValidationError("username must be between 3 and 32 characters")
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return nil, models.NewValidationError("a valid email address is required")
	}
	if len(in.Password) < 8 {
		return nil, models.NewValidationError("password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	explorer := &models.Explorer{
		Username: in.Username,
		Email:    in.Email,
		Password: string(hash),
		Role:     models.RoleUser,
		Bio:      in.Bio,
	}
	if err := s.explorers.Create(ctx, explorer); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, models.NewValidationError("username or email already taken")
		}
		return nil, models.NewInternalError(err)
	}

	return s.issue(ctx, explorer)
}

// Login verifies credentials and returns a signed token. Invalid email and
// invalid password produce the same response.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	email := strings.TrimSpace(strings.ToLower(in.Email))
	explorer, err := s.explorers.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewUnauthorizedError("invalid credentials")
		}
		return nil, models.NewInternalError(err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(explorer.Password), []byte(in.Password)); err != nil {
		return nil, models.NewUnauthorizedError("invalid credentials")
	}
	return s.issue(ctx, explorer)
}

// Refresh exchanges a refresh token for a fresh token pair. The presented
// token is consumed atomically, so a rotated token cannot be replayed.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	if s.redis == nil || refreshToken == "" {
		return nil, models.NewUnauthorizedError("invalid refresh token")
	}

	val, err := s.redis.GetDel(ctx, cache.RefreshTokenKey(refreshToken)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, models.NewUnauthorizedError("invalid refresh token")
	}
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	explorerID, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		return nil, models.NewUnauthorizedError("invalid refresh token")
	}
	explorer, err := s.explorers.GetByID(ctx, uint(explorerID))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewUnauthorizedError("invalid refresh token")
		}
		return nil, models.NewInternalError(err)
	}
	return s.issue(ctx, explorer)
}

// Logout revokes the presented refresh token. Already-expired or unknown
// tokens are not an error.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if s.redis == nil || refreshToken == "" {
		return nil
	}
	if err := s.redis.Del(ctx, cache.RefreshTokenKey(refreshToken)).Err(); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (s *AuthService) issue(ctx context.Context, explorer *models.Explorer) (*AuthResult, error) {
	token, err := middleware.IssueToken(explorer.ID, explorer.Role, s.cfg.JWTSecret, tokenTTL)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	result := &AuthResult{Token: token, Explorer: explorer}
	if s.redis != nil {
		refresh, err := s.mintRefreshToken(ctx, explorer.ID)
		if err != nil {
			return nil, models.NewInternalError(err)
		}
		result.RefreshToken = refresh
	}
	return result, nil
}

func (s *AuthService) mintRefreshToken(ctx context.Context, explorerID uint) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	token := hex.EncodeToString(buf)

	key := cache.RefreshTokenKey(token)
	value := fmt.Sprintf("%d", explorerID)
	if err := s.redis.Set(ctx, key, value, cache.RefreshTokenTTL).Err(); err != nil {
		return "", err
	}
	return token, nil
}
