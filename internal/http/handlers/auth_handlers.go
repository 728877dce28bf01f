package handlers

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/you/missionlog/domain"
	"github.com/you/missionlog/internal/http/middleware"
	"github.com/you/missionlog/internal/http/response"
)

// AuthHandlers handles registration, login and profile requests
type AuthHandlers struct {
	authSvc    domain.AuthService
	otpSvc     domain.OTPIssuer
	errs       *response.ErrorMapper
	logger     *slog.Logger
	production bool
}

// NewAuthHandlers creates new auth handlers. Outside production the register
// response carries the OTP so the flow works without a mail relay.
func NewAuthHandlers(authSvc domain.AuthService, otpSvc domain.OTPIssuer, errs *response.ErrorMapper, logger *slog.Logger, production bool) *AuthHandlers {
	return &AuthHandlers{
		authSvc:    authSvc,
		otpSvc:     otpSvc,
		errs:       errs,
		logger:     logger,
		production: production,
	}
}

// RegisterRequest represents registration request
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email,max=254"`
	Name     string `json:"name" binding:"required,max=100"`
	Password string `json:"password" binding:"required,min=6,max=72"`
}

// VerifyOTPRequest represents OTP verification request
type VerifyOTPRequest struct {
	Email string `json:"email" binding:"required,email"`
	OTP   string `json:"otp" binding:"required,len=6,numeric"`
}

// LoginRequest represents login request
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// UpdateProfileRequest represents a profile change; any other field, role included, is ignored
type UpdateProfileRequest struct {
	Name string `json:"name" binding:"required,max=100"`
}

// Register starts an email-verified registration
func (h *AuthHandlers) Register(c *gin.Context) {
	var req RegisterRequest
	if err := bindJSON(c, &req); err != nil {
		h.errs.Error(c, err)
		return
	}

	ticket, err := h.otpSvc.StartRegistration(c.Request.Context(), req.Email, req.Name, req.Password)
	if err != nil {
		if !errors.Is(err, domain.ErrDeliveryFailed) || ticket == nil {
			h.errs.Error(c, err)
			return
		}
		h.logger.WarnContext(c.Request.Context(), "registration pending without delivered otp", "email", ticket.Email)
	}

	message := "Verification code sent. Check your inbox."
	if !ticket.EmailDelivered {
		message = "Registration pending, but the verification email could not be sent."
	}
	data := gin.H{
		"email":          ticket.Email,
		"emailDelivered": ticket.EmailDelivered,
		"expiresAt":      ticket.ExpiresAt.UTC().Format(time.RFC3339),
		"message":        message,
	}
	if !h.production {
		data["developmentOTP"] = ticket.OTPCode
	}
	response.OK(c, data)
}

// VerifyOTP completes a registration and returns the new identity
func (h *AuthHandlers) VerifyOTP(c *gin.Context) {
	var req VerifyOTPRequest
	if err := bindJSON(c, &req); err != nil {
		h.errs.Error(c, err)
		return
	}

	identity, err := h.otpSvc.Verify(c.Request.Context(), req.Email, req.OTP)
	if err != nil {
		h.errs.Error(c, err)
		return
	}

	response.OK(c, gin.H{
		"message":  "Email verified. You can now log in.",
		"identity": identityView(identity),
	})
}

// Login handles user login
func (h *AuthHandlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := bindJSON(c, &req); err != nil {
		h.errs.Error(c, err)
		return
	}

	result, err := h.authSvc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.errs.Error(c, err)
		return
	}

	response.OK(c, gin.H{
		"token":     result.Token,
		"tokenType": "Bearer",
		"expiresAt": result.ExpiresAt.UTC().Format(time.RFC3339),
		"identity":  identityView(result.Identity),
	})
}

// Me returns the caller's identity
func (h *AuthHandlers) Me(c *gin.Context) {
	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		h.errs.Error(c, domain.ErrUnauthenticated)
		return
	}

	identity, err := h.authSvc.GetProfile(c.Request.Context(), principal.ID)
	if err != nil {
		h.errs.Error(c, err)
		return
	}
	response.OK(c, gin.H{"identity": identityView(identity)})
}

// UpdateMe changes the caller's display name
func (h *AuthHandlers) UpdateMe(c *gin.Context) {
	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		h.errs.Error(c, domain.ErrUnauthenticated)
		return
	}

	var req UpdateProfileRequest
	if err := bindJSON(c, &req); err != nil {
		h.errs.Error(c, err)
		return
	}

	identity, err := h.authSvc.UpdateProfile(c.Request.Context(), principal.ID, req.Name)
	if err != nil {
		h.errs.Error(c, err)
		return
	}
	response.OK(c, gin.H{"identity": identityView(identity)})
}
