package google

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/api/idtoken"

	"github.com/vncsmyrnk/fieldsurvey/internal/core/ports"
)

type GoogleVerifier struct{}

func NewVerifier() ports.TokenVerifier {
	return &GoogleVerifier{}
}

func (v *GoogleVerifier) Verify(ctx context.Context, token string, clientID string) (*ports.TokenPayload, error) {
	payload, err := idtoken.Validate(ctx, token, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to validate id token: %w", err)
	}
	return payloadFromClaims(payload.Claims)
}

// payloadFromClaims only trusts verified addresses since accounts are matched by email.
func payloadFromClaims(claims map[string]interface{}) (*ports.TokenPayload, error) {
	email, ok := claims["email"].(string)
	if !ok || email == "" {
		return nil, errors.New("email not found in claims")
	}
	if verified, ok := claims["email_verified"].(bool); ok && !verified {
		return nil, errors.New("email is not verified")
	}
	name, ok := claims["name"].(string)
	if !ok {
		name = email
	}
	return &ports.TokenPayload{Email: email, Name: name}, nil
}
