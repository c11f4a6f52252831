package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/vncsmyrnk/fieldsurvey/internal/core/domain"
	"github.com/vncsmyrnk/fieldsurvey/internal/core/ports"
)

type AuthOptions struct {
	Secret         string
	GoogleClientID string
	AccessTTL      time.Duration
	RefreshTTL     time.Duration
}

type AuthService struct {
	userRepo            ports.UserRepository
	authRepo            ports.AuthRepository
	googleTokenVerifier ports.TokenVerifier
	jwtSecret           []byte
	googleClientID      string
	accessTTL           time.Duration
	refreshTTL          time.Duration
}

func NewAuthService(userRepo ports.UserRepository, authRepo ports.AuthRepository, googleTokenVerifier ports.TokenVerifier, opts AuthOptions) *AuthService {
	if opts.AccessTTL <= 0 {
		opts.AccessTTL = 15 * time.Minute
	}
	if opts.RefreshTTL <= 0 {
		opts.RefreshTTL = 7 * 24 * time.Hour
	}
	return &AuthService{
		userRepo:            userRepo,
		authRepo:            authRepo,
		googleTokenVerifier: googleTokenVerifier,
		jwtSecret:           []byte(opts.Secret),
		googleClientID:      opts.GoogleClientID,
		accessTTL:           opts.AccessTTL,
		refreshTTL:          opts.RefreshTTL,
	}
}

func (s *AuthService) Login(ctx context.Context, email, password string) (string, string, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return "", "", fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil || user.PasswordHash == "" {
		return "", "", domain.ErrUnauthorized
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", "", domain.ErrUnauthorized
	}

	return s.issueTokens(ctx, user)
}

// LoginWithGoogle only admits accounts an admin already created.
func (s *AuthService) LoginWithGoogle(ctx context.Context, googleToken string) (string, string, error) {
	payload, err := s.googleTokenVerifier.Verify(ctx, googleToken, s.googleClientID)
	if err != nil {
		return "", "", fmt.Errorf("invalid google token: %w: %w", domain.ErrUnauthorized, err)
	}

	user, err := s.userRepo.GetByEmail(ctx, strings.ToLower(payload.Email))
	if err != nil {
		return "", "", fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return "", "", domain.ErrUnauthorized
	}

	return s.issueTokens(ctx, user)
}

func (s *AuthService) RefreshAccessToken(ctx context.Context, refreshToken string) (string, string, error) {
	tokenHash := s.hashToken(refreshToken)

	rtEntity, err := s.authRepo.GetRefreshTokenByHash(ctx, tokenHash)
	if err != nil {
		return "", "", fmt.Errorf("failed to get refresh token: %w", err)
	}
	if rtEntity == nil {
		return "", "", fmt.Errorf("refresh token not found: %w", domain.ErrUnauthorized)
	}

	if rtEntity.Revoked {
		return "", "", fmt.Errorf("refresh token revoked: %w", domain.ErrUnauthorized)
	}
	if rtEntity.ExpiresAt.Before(time.Now()) {
		return "", "", fmt.Errorf("refresh token expired: %w", domain.ErrUnauthorized)
	}

	user, err := s.userRepo.GetByID(ctx, rtEntity.UserID)
	if err != nil {
		return "", "", fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return "", "", fmt.Errorf("user not found: %w", domain.ErrUnauthorized)
	}

	accessToken, err := s.generateAccessToken(user)
	if err != nil {
		return "", "", fmt.Errorf("failed to generate access token: %w", err)
	}

	return accessToken, refreshToken, nil
}

func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	tokenHash := s.hashToken(refreshToken)

	rtEntity, err := s.authRepo.GetRefreshTokenByHash(ctx, tokenHash)
	if err != nil {
		return fmt.Errorf("failed to get refresh token: %w", err)
	}
	if rtEntity == nil {
		return nil
	}

	return s.authRepo.RevokeRefreshToken(ctx, rtEntity.ID.String())
}

func (s *AuthService) ValidateAccessToken(tokenString string) (*ports.Identity, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, domain.ErrUnauthorized
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	sub, err := claims.GetSubject()
	if err != nil {
		return nil, domain.ErrUnauthorized
	}
	userID, err := uuid.Parse(sub)
	if err != nil {
		return nil, domain.ErrUnauthorized
	}
	email, _ := claims["email"].(string)
	role, _ := claims["role"].(string)

	return &ports.Identity{UserID: userID, Email: email, Role: domain.Role(role)}, nil
}

func (s *AuthService) issueTokens(ctx context.Context, user *domain.User) (string, string, error) {
	accessToken, err := s.generateAccessToken(user)
	if err != nil {
		return "", "", fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := s.generateRefreshToken()
	if err != nil {
		return "", "", fmt.Errorf("failed to generate refresh token: %w", err)
	}

	rtEntity := &domain.RefreshToken{
		UserID:    user.ID,
		TokenHash: s.hashToken(refreshToken),
		ExpiresAt: time.Now().Add(s.refreshTTL),
		Revoked:   false,
	}

	if err := s.authRepo.StoreRefreshToken(ctx, rtEntity); err != nil {
		return "", "", fmt.Errorf("failed to store refresh token: %w", err)
	}

	return accessToken, refreshToken, nil
}

func (s *AuthService) generateAccessToken(user *domain.User) (string, error) {
	if len(s.jwtSecret) == 0 {
		return "", errors.New("jwt secret is not configured")
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   user.ID.String(),
		"email": user.Email,
		"role":  string(user.Role),
		"exp":   now.Add(s.accessTTL).Unix(),
		"iat":   now.Unix(),
		"jti":   uuid.NewString(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

func (s *AuthService) generateRefreshToken() (string, error) {
	b := make([]byte, 32)
	_, err := rand.Read(b)
	if err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

func (s *AuthService) hashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}
