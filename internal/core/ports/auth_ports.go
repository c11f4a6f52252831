package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/fieldsurvey/internal/core/domain"
)

type AuthRepository interface {
	StoreRefreshToken(ctx context.Context, token *domain.RefreshToken) error
	GetRefreshTokenByHash(ctx context.Context, tokenHash string) (*domain.RefreshToken, error)
	RevokeRefreshToken(ctx context.Context, id string) error
}

type TokenPayload struct {
	Email string
	Name  string
}

type TokenVerifier interface {
	Verify(ctx context.Context, token string, clientID string) (*TokenPayload, error)
}

// Identity is what a valid access token proves about its bearer.
type Identity struct {
	UserID uuid.UUID
	Email  string
	Role   domain.Role
}

type AuthService interface {
	Login(ctx context.Context, email, password string) (string, string, error)       // returns access_token, refresh_token, error
	LoginWithGoogle(ctx context.Context, googleToken string) (string, string, error) // returns access_token, refresh_token, error
	RefreshAccessToken(ctx context.Context, refreshToken string) (string, string, error)
	Logout(ctx context.Context, refreshToken string) error
	ValidateAccessToken(token string) (*Identity, error)
}
