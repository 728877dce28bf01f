package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/you/missionlog/domain"
	"github.com/you/missionlog/internal/http/response"
)

// Context keys set by the auth middleware
const (
	PrincipalKey = "principal"
	UserIDKey    = "user_id"
	UserRoleKey  = "user_role"
)

type principalCtxKey struct{}

// WithPrincipal stores p in ctx
func WithPrincipal(ctx context.Context, p *domain.Principal) context.Context {
	return context.WithValue(ctx, principalCtxKey{}, p)
}

// PrincipalFromContext returns the principal stored by WithPrincipal
func PrincipalFromContext(ctx context.Context) (*domain.Principal, bool) {
	p, ok := ctx.Value(principalCtxKey{}).(*domain.Principal)
	return p, ok && p != nil
}

// PrincipalFrom returns the principal attached to the gin context
func PrincipalFrom(c *gin.Context) (*domain.Principal, bool) {
	v, ok := c.Get(PrincipalKey)
	if !ok {
		return nil, false
	}
	p, ok := v.(*domain.Principal)
	return p, ok && p != nil
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header value
func BearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// AuthMW wraps the authenticator for middleware
type AuthMW struct {
	authenticator domain.Authenticator
	errs          *response.ErrorMapper
}

// NewAuthMW creates new auth middleware wrapper
func NewAuthMW(authenticator domain.Authenticator, errs *response.ErrorMapper) *AuthMW {
	return &AuthMW{authenticator: authenticator, errs: errs}
}

// WithAuth requires a valid bearer token and attaches the caller's principal
func (mw *AuthMW) WithAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := BearerToken(c.GetHeader("Authorization"))
		if !ok {
			mw.errs.Error(c, domain.ErrUnauthenticated)
			return
		}

		principal, err := mw.authenticator.Authenticate(c.Request.Context(), token)
		if err != nil {
			// store failures surface as 500, everything else as 401
			mw.errs.Error(c, err)
			return
		}

		c.Set(PrincipalKey, principal)
		c.Set(UserIDKey, principal.ID)
		c.Set(UserRoleKey, string(principal.Role))
		c.Request = c.Request.WithContext(WithPrincipal(c.Request.Context(), principal))

		c.Next()
	}
}
