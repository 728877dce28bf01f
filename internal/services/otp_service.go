package services

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/you/missionlog/domain"
)

const otpDigits = 6

var otpSpace = big.NewInt(1_000_000)

// OTPConfig holds the registration timing settings
type OTPConfig struct {
	TTL             time.Duration
	DeliveryTimeout time.Duration
	// Now defaults to time.Now
	Now domain.Clock
}

// OTPServiceImpl implements domain.OTPIssuer.
// Pending records live in the injected store; identities are created only after
// the emailed code is verified.
type OTPServiceImpl struct {
	pending    domain.PendingRegistrationStore
	identities domain.CredentialStore
	passwords  domain.PasswordService
	sender     domain.OTPSender
	roles      domain.RoleResolver
	notifier   domain.Notifier
	audit      domain.AuditLogger
	logger     *slog.Logger
	config     OTPConfig
}

// NewOTPService creates a new registration service
func NewOTPService(
	pending domain.PendingRegistrationStore,
	identities domain.CredentialStore,
	passwords domain.PasswordService,
	sender domain.OTPSender,
	roles domain.RoleResolver,
	notifier domain.Notifier,
	audit domain.AuditLogger,
	logger *slog.Logger,
	config OTPConfig,
) *OTPServiceImpl {
	if config.Now == nil {
		config.Now = time.Now
	}
	if audit == nil {
		audit = domain.NopAuditLogger{}
	}
	return &OTPServiceImpl{
		pending:    pending,
		identities: identities,
		passwords:  passwords,
		sender:     sender,
		roles:      roles,
		notifier:   notifier,
		audit:      audit,
		logger:     logger.With("component", "otp"),
		config:     config,
	}
}

// StartRegistration implements domain.OTPIssuer. When delivery fails the
// ticket is still returned together with an error wrapping ErrDeliveryFailed.
func (s *OTPServiceImpl) StartRegistration(ctx context.Context, email, name, password string) (*domain.RegistrationTicket, error) {
	email = domain.NormalizeEmail(email)
	name = strings.TrimSpace(name)
	if err := validateRegistration(email, name, password); err != nil {
		return nil, err
	}

	_, err := s.identities.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, domain.ErrDuplicateIdentity
	case !errors.Is(err, domain.ErrIdentityNotFound):
		return nil, fmt.Errorf("failed to check existing identity: %w", err)
	}

	code, err := generateOTP()
	if err != nil {
		return nil, fmt.Errorf("failed to generate OTP code: %w", err)
	}

	record := &domain.PendingRegistration{
		Email:             email,
		DisplayName:       name,
		PasswordCandidate: password,
		OTPCode:           code,
		IssuedAt:          s.config.Now().UTC(),
	}
	if err := s.pending.Save(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to store pending registration: %w", err)
	}

	ticket := &domain.RegistrationTicket{
		Email:     email,
		OTPCode:   code,
		ExpiresAt: record.ExpiresAt(s.config.TTL),
	}
	s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.RegistrationStartedEvent).WithEmail(email))

	if err := s.deliver(ctx, email, code, name); err != nil {
		s.logger.WarnContext(ctx, "otp delivery failed", "email", email, "error", err)
		s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.OTPDeliveryFailureEvent).WithEmail(email).WithError(err))
		return ticket, fmt.Errorf("%w: %w", domain.ErrDeliveryFailed, err)
	}

	ticket.EmailDelivered = true
	return ticket, nil
}

// deliver sends the code under its own deadline; cancelling the request does not abort it
func (s *OTPServiceImpl) deliver(ctx context.Context, email, code, name string) error {
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.config.DeliveryTimeout)
	defer cancel()
	return s.sender.Send(sendCtx, email, code, name)
}

// Verify implements domain.OTPIssuer
func (s *OTPServiceImpl) Verify(ctx context.Context, email, code string) (*domain.Identity, error) {
	email = domain.NormalizeEmail(email)
	code = strings.TrimSpace(code)

	record, err := s.pending.Find(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNoPendingRegistration) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to load pending registration: %w", err)
	}

	if record.Expired(s.config.Now(), s.config.TTL) {
		if err := s.pending.Delete(ctx, email); err != nil {
			s.logger.WarnContext(ctx, "failed to delete expired registration", "email", email, "error", err)
		}
		s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.OTPFailureEvent).WithEmail(email).WithError(domain.ErrOTPExpired))
		return nil, domain.ErrOTPExpired
	}

	if subtle.ConstantTimeCompare([]byte(record.OTPCode), []byte(code)) != 1 {
		s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.OTPFailureEvent).WithEmail(email).WithError(domain.ErrOTPMismatch))
		return nil, domain.ErrOTPMismatch
	}

	// Only the caller that removes this exact record may create the identity
	consumed, err := s.pending.Consume(ctx, record)
	if err != nil {
		return nil, fmt.Errorf("failed to consume pending registration: %w", err)
	}
	if !consumed {
		return nil, domain.ErrNoPendingRegistration
	}
	s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.OTPVerifyEvent).WithEmail(email))

	hash, err := s.passwords.Hash(record.PasswordCandidate)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.config.Now().UTC()
	identity := &domain.Identity{
		Email:        email,
		DisplayName:  record.DisplayName,
		PasswordHash: hash,
		Role:         s.roles.Resolve(email),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.identities.Create(ctx, identity); err != nil {
		if errors.Is(err, domain.ErrDuplicateIdentity) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create identity: %w", err)
	}

	s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.IdentityCreatedEvent).
		WithSubject(identity.ID).
		WithEmail(email).
		WithMetadata("role", string(identity.Role)))

	if s.notifier != nil {
		s.notifier.Publish(domain.RoleChannel(domain.RoleAdmin), domain.Event{
			Type:      "identity.registered",
			Title:     "New registration",
			Message:   fmt.Sprintf("%s joined as %s", identity.DisplayName, identity.Role),
			Data:      map[string]any{"id": identity.ID, "email": identity.Email, "role": string(identity.Role)},
			Timestamp: now,
		})
	}
	return identity, nil
}

// generateOTP returns a uniformly random code in 000000..999999
func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, otpSpace)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", otpDigits, n.Int64()), nil
}

func validateRegistration(email, name, password string) error {
	ve := &domain.ValidationError{}
	if email == "" || !strings.Contains(email, "@") {
		ve.Fields = append(ve.Fields, domain.FieldError{Field: "email", Reason: "must be a valid email address"})
	}
	if name == "" {
		ve.Fields = append(ve.Fields, domain.FieldError{Field: "name", Reason: "is required"})
	}
	if password == "" {
		ve.Fields = append(ve.Fields, domain.FieldError{Field: "password", Reason: "is required"})
	}
	if len(ve.Fields) > 0 {
		return ve
	}
	return nil
}

var _ domain.OTPIssuer = (*OTPServiceImpl)(nil)
