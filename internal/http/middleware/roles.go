package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/you/missionlog/domain"
	"github.com/you/missionlog/internal/http/response"
)

// RequireRole allows the request only when the attached principal holds one of roles.
// It must run after AuthMW.WithAuth. Denials are audited.
func RequireRole(audit domain.AuditLogger, roles ...domain.Role) gin.HandlerFunc {
	allowed := make(map[domain.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(c *gin.Context) {
		principal, ok := PrincipalFrom(c)
		if !ok {
			response.Fail(c, http.StatusUnauthorized, response.MsgUnauthenticated)
			return
		}
		if _, ok := allowed[principal.Role]; !ok {
			if audit != nil {
				audit.LogEvent(c.Request.Context(), domain.NewAuditEvent(domain.AccessDeniedEvent).
					WithSubject(principal.ID).
					WithError(domain.ErrForbidden).
					WithMetadata("role", string(principal.Role)).
					WithMetadata("path", c.FullPath()))
			}
			response.Fail(c, http.StatusForbidden, response.MsgForbidden)
			return
		}
		c.Next()
	}
}
