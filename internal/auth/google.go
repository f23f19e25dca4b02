package auth

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/api/idtoken"
)

var ErrGoogleDisabled = errors.New("google sign-in is not configured")

// GoogleVerifier validates Google ID tokens against a configured OAuth
// client ID and extracts the verified e-mail claim.
type GoogleVerifier struct {
	clientID string
}

// NewGoogleVerifier returns a verifier, or nil when no client ID is
// configured. Callers treat a nil verifier as Google sign-in disabled.
func NewGoogleVerifier(clientID string) *GoogleVerifier {
	if clientID == "" {
		return nil
	}
	return &GoogleVerifier{clientID: clientID}
}

// VerifyEmail checks the token signature and audience and returns the
// verified e-mail address.
func (v *GoogleVerifier) VerifyEmail(ctx context.Context, token string) (string, error) {
	if v == nil {
		return "", ErrGoogleDisabled
	}

	payload, err := idtoken.Validate(ctx, token, v.clientID)
	if err != nil {
		return "", fmt.Errorf("validate google token: %w", err)
	}

	email, _ := payload.Claims["email"].(string)
	if email == "" {
		return "", errors.New("google token carries no email claim")
	}
	if verified, _ := payload.Claims["email_verified"].(bool); !verified {
		return "", errors.New("google email is not verified")
	}
	return email, nil
}
