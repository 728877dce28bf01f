package mocks

import (
	"context"

	"github.com/you/missionlog/domain"
)

// MockAuthService implements domain.AuthService interface for testing
type MockAuthService struct {
	LoginFunc         func(ctx context.Context, email, password string) (*domain.AuthResult, error)
	GetProfileFunc    func(ctx context.Context, id string) (*domain.Identity, error)
	UpdateProfileFunc func(ctx context.Context, id, displayName string) (*domain.Identity, error)
	ChangeRoleFunc    func(ctx context.Context, actor *domain.Principal, id string, role domain.Role) (*domain.Identity, error)
}

// NewMockAuthService creates a new MockAuthService with default behaviors
func NewMockAuthService() *MockAuthService {
	return &MockAuthService{}
}

// Login authenticates a user
func (m *MockAuthService) Login(ctx context.Context, email, password string) (*domain.AuthResult, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, email, password)
	}
	// Default behavior: invalid credentials
	return nil, domain.ErrInvalidCredentials
}

// GetProfile loads an identity
func (m *MockAuthService) GetProfile(ctx context.Context, id string) (*domain.Identity, error) {
	if m.GetProfileFunc != nil {
		return m.GetProfileFunc(ctx, id)
	}
	return nil, domain.ErrIdentityNotFound
}

// UpdateProfile changes the display name
func (m *MockAuthService) UpdateProfile(ctx context.Context, id, displayName string) (*domain.Identity, error) {
	if m.UpdateProfileFunc != nil {
		return m.UpdateProfileFunc(ctx, id, displayName)
	}
	return nil, domain.ErrIdentityNotFound
}

// ChangeRole changes the role of another identity
func (m *MockAuthService) ChangeRole(ctx context.Context, actor *domain.Principal, id string, role domain.Role) (*domain.Identity, error) {
	if m.ChangeRoleFunc != nil {
		return m.ChangeRoleFunc(ctx, actor, id, role)
	}
	return nil, domain.ErrIdentityNotFound
}

// MockAuthenticator implements domain.Authenticator interface for testing
type MockAuthenticator struct {
	AuthenticateFunc func(ctx context.Context, token string) (*domain.Principal, error)
	// Principals maps tokens to principals when AuthenticateFunc is nil
	Principals map[string]*domain.Principal
}

// NewMockAuthenticator creates a new MockAuthenticator with an empty token table
func NewMockAuthenticator() *MockAuthenticator {
	return &MockAuthenticator{Principals: make(map[string]*domain.Principal)}
}

// Authenticate resolves token through AuthenticateFunc or the Principals table
func (m *MockAuthenticator) Authenticate(ctx context.Context, token string) (*domain.Principal, error) {
	if m.AuthenticateFunc != nil {
		return m.AuthenticateFunc(ctx, token)
	}
	if p, ok := m.Principals[token]; ok {
		return p, nil
	}
	return nil, domain.ErrInvalidAssertion
}

// Compile-time interface compliance verification
var (
	_ domain.AuthService   = (*MockAuthService)(nil)
	_ domain.Authenticator = (*MockAuthenticator)(nil)
)
