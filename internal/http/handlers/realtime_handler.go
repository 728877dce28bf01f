package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/you/missionlog/domain"
	"github.com/you/missionlog/internal/http/middleware"
	"github.com/you/missionlog/internal/http/response"
)

// Acceptor upgrades an authenticated request into a live connection
type Acceptor interface {
	Accept(w http.ResponseWriter, r *http.Request, principal *domain.Principal) error
}

// RealtimeHandler authenticates the websocket handshake before upgrading
type RealtimeHandler struct {
	authenticator domain.Authenticator
	hub           Acceptor
	errs          *response.ErrorMapper
	logger        *slog.Logger
}

// NewRealtimeHandler creates a new realtime handler
func NewRealtimeHandler(authenticator domain.Authenticator, hub Acceptor, errs *response.ErrorMapper, logger *slog.Logger) *RealtimeHandler {
	return &RealtimeHandler{authenticator: authenticator, hub: hub, errs: errs, logger: logger}
}

// Connect accepts the token from the Authorization header or, for browsers,
// the token query parameter. Rejected handshakes get a 401 and no upgrade.
func (h *RealtimeHandler) Connect(c *gin.Context) {
	token, ok := middleware.BearerToken(c.GetHeader("Authorization"))
	if !ok {
		token = c.Query("token")
	}
	if token == "" {
		h.errs.Error(c, domain.ErrUnauthenticated)
		return
	}

	principal, err := h.authenticator.Authenticate(c.Request.Context(), token)
	if err != nil {
		h.errs.Error(c, err)
		return
	}

	if err := h.hub.Accept(c.Writer, c.Request, principal); err != nil {
		h.logger.WarnContext(c.Request.Context(), "websocket handshake failed", "subject_id", principal.ID, "error", err)
		c.Abort()
	}
}
