package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/you/missionlog/domain"
	"github.com/you/missionlog/internal/http/middleware"
	"github.com/you/missionlog/internal/http/response"
	"github.com/you/missionlog/internal/realtime"
)

// HubStats exposes live connection counts
type HubStats interface {
	Stats() realtime.Stats
}

// NotificationHandlers lets staff push events and inspect the hub
type NotificationHandlers struct {
	notifier domain.Notifier
	stats    HubStats
	policies domain.PolicyService
	audit    domain.AuditLogger
	errs     *response.ErrorMapper
}

// NewNotificationHandlers creates new notification handlers
func NewNotificationHandlers(notifier domain.Notifier, stats HubStats, policies domain.PolicyService, audit domain.AuditLogger, errs *response.ErrorMapper) *NotificationHandlers {
	if audit == nil {
		audit = domain.NopAuditLogger{}
	}
	return &NotificationHandlers{notifier: notifier, stats: stats, policies: policies, audit: audit, errs: errs}
}

// PublishRequest represents a push to one channel
type PublishRequest struct {
	Channel string         `json:"channel" binding:"required"`
	Type    string         `json:"type" binding:"required,max=64"`
	Title   string         `json:"title" binding:"required,max=200"`
	Message string         `json:"message" binding:"required,max=2000"`
	Data    map[string]any `json:"data"`
}

// Publish pushes an event if the caller's role may publish to the channel
func (h *NotificationHandlers) Publish(c *gin.Context) {
	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		h.errs.Error(c, domain.ErrUnauthenticated)
		return
	}

	var req PublishRequest
	if err := bindJSON(c, &req); err != nil {
		h.errs.Error(c, err)
		return
	}
	if !domain.ValidChannel(req.Channel) {
		h.errs.Error(c, domain.NewValidationError("channel", "must be subject:<id> or role:<role>"))
		return
	}

	allowed, err := h.policies.CanPublish(principal.Role, req.Channel)
	if err != nil {
		h.errs.Error(c, err)
		return
	}
	if !allowed {
		h.audit.LogEvent(c.Request.Context(), domain.NewAuditEvent(domain.AccessDeniedEvent).
			WithSubject(principal.ID).
			WithError(domain.ErrForbidden).
			WithMetadata("channel", req.Channel))
		h.errs.Error(c, domain.ErrForbidden)
		return
	}

	delivered := h.notifier.Publish(req.Channel, domain.Event{
		Type:    req.Type,
		Title:   req.Title,
		Message: req.Message,
		Data:    req.Data,
	})
	response.OK(c, gin.H{"channel": req.Channel, "delivered": delivered})
}

// Overview reports live connection counts for mentors and admins
func (h *NotificationHandlers) Overview(c *gin.Context) {
	stats := h.stats.Stats()
	response.OK(c, gin.H{
		"connections": stats.Connections,
		"channels":    stats.Channels,
	})
}
