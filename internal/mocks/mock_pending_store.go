package mocks

import (
	"context"

	"github.com/you/missionlog/domain"
)

// MockPendingStore implements domain.PendingRegistrationStore interface for testing
type MockPendingStore struct {
	SaveFunc    func(ctx context.Context, record *domain.PendingRegistration) error
	FindFunc    func(ctx context.Context, email string) (*domain.PendingRegistration, error)
	DeleteFunc  func(ctx context.Context, email string) error
	ConsumeFunc func(ctx context.Context, record *domain.PendingRegistration) (bool, error)
}

// NewMockPendingStore creates a new MockPendingStore with default behaviors
func NewMockPendingStore() *MockPendingStore {
	return &MockPendingStore{}
}

// Save stores a pending registration
func (m *MockPendingStore) Save(ctx context.Context, record *domain.PendingRegistration) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, record)
	}
	return nil
}

// Find loads a pending registration
func (m *MockPendingStore) Find(ctx context.Context, email string) (*domain.PendingRegistration, error) {
	if m.FindFunc != nil {
		return m.FindFunc(ctx, email)
	}
	// Default behavior: nothing pending
	return nil, domain.ErrNoPendingRegistration
}

// Delete removes a pending registration
func (m *MockPendingStore) Delete(ctx context.Context, email string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, email)
	}
	return nil
}

// Consume removes a pending registration if it is unchanged
func (m *MockPendingStore) Consume(ctx context.Context, record *domain.PendingRegistration) (bool, error) {
	if m.ConsumeFunc != nil {
		return m.ConsumeFunc(ctx, record)
	}
	return true, nil
}

// Compile-time interface compliance verification
var _ domain.PendingRegistrationStore = (*MockPendingStore)(nil)
