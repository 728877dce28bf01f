package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/you/missionlog/domain"
)

// AuthenticatorImpl implements domain.Authenticator.
// The HTTP middleware and the websocket handshake both call it.
type AuthenticatorImpl struct {
	tokens     domain.TokenService
	identities domain.CredentialStore
}

// NewAuthenticator creates a new authenticator
func NewAuthenticator(tokens domain.TokenService, identities domain.CredentialStore) *AuthenticatorImpl {
	return &AuthenticatorImpl{tokens: tokens, identities: identities}
}

// Authenticate implements domain.Authenticator. Every failure wraps
// ErrUnauthenticated; the principal's role comes from the stored identity.
func (a *AuthenticatorImpl) Authenticate(ctx context.Context, token string) (*domain.Principal, error) {
	if token == "" {
		return nil, domain.ErrUnauthenticated
	}

	claims, err := a.tokens.Validate(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUnauthenticated, err)
	}

	identity, err := a.identities.FindByID(ctx, claims.SubjectID)
	if err != nil {
		if errors.Is(err, domain.ErrIdentityNotFound) {
			return nil, fmt.Errorf("%w: %w", domain.ErrUnauthenticated, err)
		}
		return nil, fmt.Errorf("failed to load identity: %w", err)
	}

	return domain.PrincipalFromIdentity(identity), nil
}

var _ domain.Authenticator = (*AuthenticatorImpl)(nil)
