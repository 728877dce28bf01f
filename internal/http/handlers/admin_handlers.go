package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/you/missionlog/domain"
	"github.com/you/missionlog/internal/http/middleware"
	"github.com/you/missionlog/internal/http/response"
)

// AdminHandlers handles admin-only identity and policy requests
type AdminHandlers struct {
	authSvc  domain.AuthService
	policies domain.PolicyService
	errs     *response.ErrorMapper
}

// NewAdminHandlers creates new admin handlers
func NewAdminHandlers(authSvc domain.AuthService, policies domain.PolicyService, errs *response.ErrorMapper) *AdminHandlers {
	return &AdminHandlers{authSvc: authSvc, policies: policies, errs: errs}
}

// ChangeRoleRequest represents an admin role change
type ChangeRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=student mentor admin"`
}

// GetUser returns any identity by id
func (h *AdminHandlers) GetUser(c *gin.Context) {
	identity, err := h.authSvc.GetProfile(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.errs.Error(c, err)
		return
	}
	response.OK(c, gin.H{"identity": identityView(identity)})
}

// ChangeRole sets the role of another identity
func (h *AdminHandlers) ChangeRole(c *gin.Context) {
	actor, ok := middleware.PrincipalFrom(c)
	if !ok {
		h.errs.Error(c, domain.ErrUnauthenticated)
		return
	}

	var req ChangeRoleRequest
	if err := bindJSON(c, &req); err != nil {
		h.errs.Error(c, err)
		return
	}

	identity, err := h.authSvc.ChangeRole(c.Request.Context(), actor, c.Param("id"), domain.Role(req.Role))
	if err != nil {
		h.errs.Error(c, err)
		return
	}
	response.OK(c, gin.H{"identity": identityView(identity)})
}

// Policies lists the publish policies
func (h *AdminHandlers) Policies(c *gin.Context) {
	rules, err := h.policies.Policies()
	if err != nil {
		h.errs.Error(c, err)
		return
	}

	policies := make([]gin.H, 0, len(rules))
	for _, rule := range rules {
		if len(rule) < 3 {
			continue
		}
		policies = append(policies, gin.H{"role": rule[0], "channel": rule[1], "action": rule[2]})
	}
	response.OK(c, gin.H{"policies": policies})
}
