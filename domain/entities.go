package domain

import (
	"strings"
	"time"
)

// Role is the privilege tag carried by every identity
type Role string

const (
	RoleStudent Role = "student"
	RoleMentor  Role = "mentor"
	RoleAdmin   Role = "admin"
)

// Roles lists every role the system knows about
var Roles = []Role{RoleStudent, RoleMentor, RoleAdmin}

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleMentor, RoleAdmin:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }

// ParseRole converts a raw string into a known role
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	return r, r.Valid()
}

// Identity represents a registered account
type Identity struct {
	ID           string
	Email        string
	DisplayName  string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Principal is the authenticated caller attached to a request or connection
type Principal struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"name"`
	Role        Role   `json:"role"`
}

// PrincipalFromIdentity strips credentials from an identity
func PrincipalFromIdentity(identity *Identity) *Principal {
	return &Principal{
		ID:          identity.ID,
		Email:       identity.Email,
		DisplayName: identity.DisplayName,
		Role:        identity.Role,
	}
}

// PendingRegistration is an unverified sign-up waiting for its OTP.
// A record is always stored and replaced as a whole value.
type PendingRegistration struct {
	Email             string    `json:"email"`
	DisplayName       string    `json:"display_name"`
	PasswordCandidate string    `json:"password_candidate"`
	OTPCode           string    `json:"otp_code"`
	IssuedAt          time.Time `json:"issued_at"`
}

// ExpiresAt returns the first instant at which the record is no longer valid
func (p *PendingRegistration) ExpiresAt(ttl time.Duration) time.Time {
	return p.IssuedAt.Add(ttl)
}

// Expired reports whether now - issuedAt >= ttl
func (p *PendingRegistration) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(p.IssuedAt) >= ttl
}

// RegistrationTicket is returned by StartRegistration
type RegistrationTicket struct {
	Email          string
	OTPCode        string
	ExpiresAt      time.Time
	EmailDelivered bool
}

// SessionClaims represents the validated content of a session assertion
type SessionClaims struct {
	SubjectID string
	Role      Role
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// AuthResult represents login outcome
type AuthResult struct {
	Identity  *Identity
	Token     string
	ExpiresAt time.Time
}

// NormalizeEmail lower-cases and trims an address so it can be used as a key
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
