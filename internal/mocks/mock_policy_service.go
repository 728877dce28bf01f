package mocks

import (
	"github.com/you/missionlog/domain"
)

// MockPolicyService implements domain.PolicyService interface for testing
type MockPolicyService struct {
	CanPublishFunc func(role domain.Role, channel string) (bool, error)
	PoliciesFunc   func() ([][]string, error)
}

// NewMockPolicyService creates a new MockPolicyService with default behaviors
func NewMockPolicyService() *MockPolicyService {
	return &MockPolicyService{}
}

// CanPublish allows admins by default
func (m *MockPolicyService) CanPublish(role domain.Role, channel string) (bool, error) {
	if m.CanPublishFunc != nil {
		return m.CanPublishFunc(role, channel)
	}
	return role == domain.RoleAdmin, nil
}

// Policies returns an empty policy list by default
func (m *MockPolicyService) Policies() ([][]string, error) {
	if m.PoliciesFunc != nil {
		return m.PoliciesFunc()
	}
	return [][]string{}, nil
}

// Compile-time interface compliance verification
var _ domain.PolicyService = (*MockPolicyService)(nil)
