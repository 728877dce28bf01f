package domain

import (
	"context"
	"strings"
	"time"
)

// CredentialStore defines durable identity access
type CredentialStore interface {
	Create(ctx context.Context, identity *Identity) error
	FindByEmail(ctx context.Context, email string) (*Identity, error)
	FindByID(ctx context.Context, id string) (*Identity, error)
	UpdateProfile(ctx context.Context, id, displayName string) (*Identity, error)
	UpdateRole(ctx context.Context, id string, role Role) (*Identity, error)
}

// PendingRegistrationStore holds unverified registrations keyed by normalized email
type PendingRegistrationStore interface {
	// Save replaces any record stored for the same email
	Save(ctx context.Context, record *PendingRegistration) error
	// Find returns ErrNoPendingRegistration when nothing is stored
	Find(ctx context.Context, email string) (*PendingRegistration, error)
	Delete(ctx context.Context, email string) error
	// Consume deletes the record only if the stored value still equals record.
	// It reports false when the record was replaced or already removed.
	Consume(ctx context.Context, record *PendingRegistration) (bool, error)
}

// RoleResolver derives a role from an email address
type RoleResolver interface {
	Resolve(email string) Role
}

// OTPIssuer defines the registration state machine
type OTPIssuer interface {
	StartRegistration(ctx context.Context, email, name, password string) (*RegistrationTicket, error)
	Verify(ctx context.Context, email, code string) (*Identity, error)
}

// OTPSender delivers a passcode out of band
type OTPSender interface {
	Send(ctx context.Context, address, code, name string) error
}

// TokenService defines session assertion operations
type TokenService interface {
	Issue(subjectID string, role Role) (string, *SessionClaims, error)
	Validate(token string) (*SessionClaims, error)
}

// PasswordService defines password operations
type PasswordService interface {
	Hash(password string) (string, error)
	Verify(hashedPassword, password string) bool
}

// Authenticator resolves a bearer assertion into a principal.
// Both the HTTP gateway and the realtime handshake use it.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*Principal, error)
}

// AuthService defines login and profile operations
type AuthService interface {
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	GetProfile(ctx context.Context, id string) (*Identity, error)
	UpdateProfile(ctx context.Context, id, displayName string) (*Identity, error)
	ChangeRole(ctx context.Context, actor *Principal, id string, role Role) (*Identity, error)
}

// Event is the envelope pushed to realtime clients
type Event struct {
	Type      string         `json:"type"`
	Title     string         `json:"title"`
	Message   string         `json:"message"`
	Data      map[string]any `json:"data,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Channel name prefixes used by the realtime hub
const (
	SubjectChannelPrefix = "subject:"
	RoleChannelPrefix    = "role:"
)

// SubjectChannel names the channel that reaches one identity
func SubjectChannel(id string) string { return SubjectChannelPrefix + id }

// RoleChannel names the channel that reaches every identity holding role
func RoleChannel(role Role) string { return RoleChannelPrefix + string(role) }

// ValidChannel reports whether channel is a subject channel with an id or a role channel for a known role
func ValidChannel(channel string) bool {
	if id, ok := strings.CutPrefix(channel, SubjectChannelPrefix); ok {
		return id != "" && !strings.ContainsAny(id, " *")
	}
	if role, ok := strings.CutPrefix(channel, RoleChannelPrefix); ok {
		return Role(role).Valid()
	}
	return false
}

// Notifier publishes fire-and-forget events to a channel
type Notifier interface {
	Publish(channel string, event Event) int
}

// PolicyService defines publish authorization
type PolicyService interface {
	CanPublish(role Role, channel string) (bool, error)
	Policies() ([][]string, error)
}

// Clock returns the current time
type Clock func() time.Time
