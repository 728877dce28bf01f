package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/you/missionlog/domain"
)

// AuthServiceImpl implements domain.AuthService
type AuthServiceImpl struct {
	identities  domain.CredentialStore
	passwordSvc domain.PasswordService
	tokenSvc    domain.TokenService
	notifier    domain.Notifier
	audit       domain.AuditLogger
	logger      *slog.Logger
	// uniformErrors hides whether the account exists on failed logins
	uniformErrors bool
	now           domain.Clock
}

// NewAuthService creates a new auth service
func NewAuthService(
	identities domain.CredentialStore,
	passwordSvc domain.PasswordService,
	tokenSvc domain.TokenService,
	notifier domain.Notifier,
	audit domain.AuditLogger,
	logger *slog.Logger,
	uniformErrors bool,
) *AuthServiceImpl {
	if audit == nil {
		audit = domain.NopAuditLogger{}
	}
	return &AuthServiceImpl{
		identities:    identities,
		passwordSvc:   passwordSvc,
		tokenSvc:      tokenSvc,
		notifier:      notifier,
		audit:         audit,
		logger:        logger.With("component", "auth"),
		uniformErrors: uniformErrors,
		now:           time.Now,
	}
}

// Login implements domain.AuthService
func (s *AuthServiceImpl) Login(ctx context.Context, email, password string) (*domain.AuthResult, error) {
	email = domain.NormalizeEmail(email)

	identity, err := s.identities.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, domain.ErrIdentityNotFound) {
			return nil, fmt.Errorf("failed to load identity: %w", err)
		}
		return nil, s.loginFailure(ctx, email, domain.ErrUnknownAccount)
	}

	if !s.passwordSvc.Verify(identity.PasswordHash, password) {
		return nil, s.loginFailure(ctx, email, domain.ErrWrongPassword)
	}

	token, claims, err := s.tokenSvc.Issue(identity.ID, identity.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to issue session token: %w", err)
	}

	s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.UserLoginEvent).WithSubject(identity.ID).WithEmail(email))
	return &domain.AuthResult{
		Identity:  identity,
		Token:     token,
		ExpiresAt: claims.ExpiresAt,
	}, nil
}

func (s *AuthServiceImpl) loginFailure(ctx context.Context, email string, reason error) error {
	s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.UserLoginFailureEvent).WithEmail(email).WithError(reason))
	if s.uniformErrors {
		return domain.ErrInvalidCredentials
	}
	return reason
}

// GetProfile implements domain.AuthService
func (s *AuthServiceImpl) GetProfile(ctx context.Context, id string) (*domain.Identity, error) {
	return s.identities.FindByID(ctx, id)
}

// UpdateProfile implements domain.AuthService. Only the display name is mutable here.
func (s *AuthServiceImpl) UpdateProfile(ctx context.Context, id, displayName string) (*domain.Identity, error) {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return nil, domain.NewValidationError("name", "is required")
	}
	return s.identities.UpdateProfile(ctx, id, displayName)
}

// ChangeRole implements domain.AuthService. Only admins may change roles and
// an admin cannot demote themselves.
func (s *AuthServiceImpl) ChangeRole(ctx context.Context, actor *domain.Principal, id string, role domain.Role) (*domain.Identity, error) {
	if actor == nil || actor.Role != domain.RoleAdmin {
		event := domain.NewAuditEvent(domain.AccessDeniedEvent).WithSubject(id).WithError(domain.ErrForbidden)
		if actor != nil {
			event.WithMetadata("actor_id", actor.ID)
		}
		s.audit.LogEvent(ctx, event)
		return nil, domain.ErrForbidden
	}
	if !role.Valid() {
		return nil, domain.NewValidationError("role", "must be one of student, mentor, admin")
	}
	if actor.ID == id && role != domain.RoleAdmin {
		return nil, domain.NewValidationError("role", "admins cannot demote themselves")
	}

	before, err := s.identities.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	updated, err := s.identities.UpdateRole(ctx, id, role)
	if err != nil {
		return nil, err
	}

	s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.RoleChangedEvent).
		WithSubject(id).
		WithEmail(updated.Email).
		WithMetadata("actor_id", actor.ID).
		WithMetadata("from", string(before.Role)).
		WithMetadata("to", string(role)))

	if s.notifier != nil && before.Role != role {
		delivered := s.notifier.Publish(domain.SubjectChannel(id), domain.Event{
			Type:      "role.updated",
			Title:     "Role updated",
			Message:   fmt.Sprintf("Your role is now %s", role),
			Data:      map[string]any{"role": string(role), "previousRole": string(before.Role)},
			Timestamp: s.now().UTC(),
		})
		s.logger.DebugContext(ctx, "role change pushed", "subject_id", id, "delivered", delivered)
	}
	return updated, nil
}

var _ domain.AuthService = (*AuthServiceImpl)(nil)
