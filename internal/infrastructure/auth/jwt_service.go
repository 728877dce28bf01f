package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/you/missionlog/domain"
)

// sessionClaims is the JWT payload: sub, role, iat, exp plus iss and jti
type sessionClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// JWTServiceImpl implements domain.TokenService with HS256 signatures
type JWTServiceImpl struct {
	secretKey []byte
	issuer    string
	ttl       time.Duration
	now       domain.Clock
	parser    *jwt.Parser
}

// NewJWTService creates a new JWT service
func NewJWTService(secretKey, issuer string, ttl time.Duration) *JWTServiceImpl {
	return NewJWTServiceWithClock(secretKey, issuer, ttl, time.Now)
}

// NewJWTServiceWithClock creates a JWT service reading time from now
func NewJWTServiceWithClock(secretKey, issuer string, ttl time.Duration, now domain.Clock) *JWTServiceImpl {
	return &JWTServiceImpl{
		secretKey: []byte(secretKey),
		issuer:    issuer,
		ttl:       ttl,
		now:       now,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithStrictDecoding(),
			jwt.WithExpirationRequired(),
			jwt.WithIssuedAt(),
			jwt.WithIssuer(issuer),
			jwt.WithTimeFunc(now),
		),
	}
}

// Issue implements domain.TokenService
func (j *JWTServiceImpl) Issue(subjectID string, role domain.Role) (string, *domain.SessionClaims, error) {
	if subjectID == "" || !role.Valid() {
		return "", nil, fmt.Errorf("cannot issue token for subject %q with role %q", subjectID, role)
	}

	now := j.now()
	claims := sessionClaims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID,
			Issuer:    j.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.ttl)),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secretKey)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, &domain.SessionClaims{
		SubjectID: subjectID,
		Role:      role,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Validate implements domain.TokenService
func (j *JWTServiceImpl) Validate(tokenString string) (*domain.SessionClaims, error) {
	claims := &sessionClaims{}
	token, err := j.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return j.secretKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidAssertion, err)
	}
	if !token.Valid {
		return nil, domain.ErrInvalidAssertion
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", domain.ErrInvalidAssertion)
	}
	role := domain.Role(claims.Role)
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", domain.ErrInvalidAssertion, claims.Role)
	}
	if claims.IssuedAt == nil {
		return nil, fmt.Errorf("%w: missing iat", domain.ErrInvalidAssertion)
	}

	return &domain.SessionClaims{
		SubjectID: claims.Subject,
		Role:      role,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
