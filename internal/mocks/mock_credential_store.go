package mocks

import (
	"context"

	"github.com/you/missionlog/domain"
)

// MockCredentialStore implements domain.CredentialStore interface for testing
type MockCredentialStore struct {
	CreateFunc        func(ctx context.Context, identity *domain.Identity) error
	FindByEmailFunc   func(ctx context.Context, email string) (*domain.Identity, error)
	FindByIDFunc      func(ctx context.Context, id string) (*domain.Identity, error)
	UpdateProfileFunc func(ctx context.Context, id, displayName string) (*domain.Identity, error)
	UpdateRoleFunc    func(ctx context.Context, id string, role domain.Role) (*domain.Identity, error)
}

// NewMockCredentialStore creates a new MockCredentialStore with default behaviors
func NewMockCredentialStore() *MockCredentialStore {
	return &MockCredentialStore{}
}

// Create stores a new identity
func (m *MockCredentialStore) Create(ctx context.Context, identity *domain.Identity) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, identity)
	}
	// Default behavior: success
	return nil
}

// FindByEmail finds an identity by email
func (m *MockCredentialStore) FindByEmail(ctx context.Context, email string) (*domain.Identity, error) {
	if m.FindByEmailFunc != nil {
		return m.FindByEmailFunc(ctx, email)
	}
	// Default behavior: not found
	return nil, domain.ErrIdentityNotFound
}

// FindByID finds an identity by ID
func (m *MockCredentialStore) FindByID(ctx context.Context, id string) (*domain.Identity, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	return nil, domain.ErrIdentityNotFound
}

// UpdateProfile changes the display name
func (m *MockCredentialStore) UpdateProfile(ctx context.Context, id, displayName string) (*domain.Identity, error) {
	if m.UpdateProfileFunc != nil {
		return m.UpdateProfileFunc(ctx, id, displayName)
	}
	return nil, domain.ErrIdentityNotFound
}

// UpdateRole changes the role
func (m *MockCredentialStore) UpdateRole(ctx context.Context, id string, role domain.Role) (*domain.Identity, error) {
	if m.UpdateRoleFunc != nil {
		return m.UpdateRoleFunc(ctx, id, role)
	}
	return nil, domain.ErrIdentityNotFound
}

// Compile-time interface compliance verification
var _ domain.CredentialStore = (*MockCredentialStore)(nil)
