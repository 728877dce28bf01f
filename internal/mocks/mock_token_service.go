package mocks

import (
	"fmt"
	"strings"
	"time"

	"github.com/you/missionlog/domain"
)

// MockTokenService implements domain.TokenService interface for testing
type MockTokenService struct {
	IssueFunc    func(subjectID string, role domain.Role) (string, *domain.SessionClaims, error)
	ValidateFunc func(token string) (*domain.SessionClaims, error)
}

// NewMockTokenService creates a new MockTokenService with default behaviors
func NewMockTokenService() *MockTokenService {
	return &MockTokenService{}
}

// Issue returns "token_<subject>_<role>" by default
func (m *MockTokenService) Issue(subjectID string, role domain.Role) (string, *domain.SessionClaims, error) {
	if m.IssueFunc != nil {
		return m.IssueFunc(subjectID, role)
	}
	now := time.Now()
	return fmt.Sprintf("token_%s_%s", subjectID, role), &domain.SessionClaims{
		SubjectID: subjectID,
		Role:      role,
		IssuedAt:  now,
		ExpiresAt: now.Add(7 * 24 * time.Hour),
	}, nil
}

// Validate accepts tokens produced by the default Issue
func (m *MockTokenService) Validate(token string) (*domain.SessionClaims, error) {
	if m.ValidateFunc != nil {
		return m.ValidateFunc(token)
	}
	parts := strings.Split(token, "_")
	if len(parts) != 3 || parts[0] != "token" {
		return nil, domain.ErrInvalidAssertion
	}
	role := domain.Role(parts[2])
	if !role.Valid() {
		return nil, domain.ErrInvalidAssertion
	}
	now := time.Now()
	return &domain.SessionClaims{
		SubjectID: parts[1],
		Role:      role,
		IssuedAt:  now,
		ExpiresAt: now.Add(time.Hour),
	}, nil
}

// Compile-time interface compliance verification
var _ domain.TokenService = (*MockTokenService)(nil)
