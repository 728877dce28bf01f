package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/you/missionlog/domain"
	"github.com/you/missionlog/internal/infrastructure/auth"
)

func TestAuthenticatorImpl_Authenticate(t *testing.T) {
	clock := newTestClock(t)
	tokens := auth.NewJWTServiceWithClock("test-secret", "missionlog", time.Hour, clock.Now)
	store, table := newMemoryIdentities(t)
	authenticator := NewAuthenticator(tokens, store)
	ctx := context.Background()

	identity := createValidIdentity(t)
	table.put(identity)

	token, _, err := tokens.Issue(identity.ID, identity.Role)
	require.NoError(t, err)

	principal, err := authenticator.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, &domain.Principal{
		ID:          identity.ID,
		Email:       identity.Email,
		DisplayName: identity.DisplayName,
		Role:        domain.RoleStudent,
	}, principal)

	t.Run("role comes from the store", func(t *testing.T) {
		promoted := *identity
		promoted.Role = domain.RoleMentor
		table.put(&promoted)
		defer table.put(identity)

		principal, err := authenticator.Authenticate(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, domain.RoleMentor, principal.Role)
	})

	t.Run("empty token", func(t *testing.T) {
		_, err := authenticator.Authenticate(ctx, "")
		assert.ErrorIs(t, err, domain.ErrUnauthenticated)
	})

	t.Run("tampered token", func(t *testing.T) {
		tampered := []byte(token)
		tampered[len(tampered)/2] ^= 0x01
		_, err := authenticator.Authenticate(ctx, string(tampered))
		assert.ErrorIs(t, err, domain.ErrUnauthenticated)
	})

	t.Run("expired token", func(t *testing.T) {
		clock.Set(testEpoch.Add(time.Hour))
		defer clock.Set(testEpoch)

		_, err := authenticator.Authenticate(ctx, token)
		assert.ErrorIs(t, err, domain.ErrUnauthenticated)
		assert.ErrorIs(t, err, domain.ErrInvalidAssertion)
	})

	t.Run("deleted identity", func(t *testing.T) {
		table.remove(identity.ID)
		defer table.put(identity)

		_, err := authenticator.Authenticate(ctx, token)
		assert.ErrorIs(t, err, domain.ErrUnauthenticated)
	})

	t.Run("store failure is not an auth failure", func(t *testing.T) {
		original := store.FindByIDFunc
		store.FindByIDFunc = func(ctx context.Context, id string) (*domain.Identity, error) {
			return nil, errors.New("database is down")
		}
		defer func() { store.FindByIDFunc = original }()

		_, err := authenticator.Authenticate(ctx, token)
		assert.Error(t, err)
		assert.NotErrorIs(t, err, domain.ErrUnauthenticated)
	})
}
