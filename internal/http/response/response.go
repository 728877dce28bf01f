// Package response writes the JSON envelope every endpoint returns:
// {"success":true,"data":...} or {"success":false,"message":...}.
package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/you/missionlog/domain"
)

// Envelope is the body of every JSON response
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// OK writes a 200 success envelope
func OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Envelope{Success: true, Data: data})
}

// Fail aborts the request with a failure envelope
func Fail(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, Envelope{Success: false, Message: message})
}

// Messages shown for errors whose text is not meant for clients
const (
	MsgUnauthenticated   = "authentication required"
	MsgForbidden         = "insufficient role permissions"
	MsgInternal          = "internal server error"
	MsgOTPRejected       = "verification failed"
	MsgUniformLoginError = "invalid email or password"
)

// ErrorMapper converts domain errors into HTTP status codes and messages
type ErrorMapper struct {
	production bool
	logger     *slog.Logger
}

// NewErrorMapper creates a mapper; production hides OTP mismatch detail
func NewErrorMapper(production bool, logger *slog.Logger) *ErrorMapper {
	return &ErrorMapper{production: production, logger: logger}
}

// Map returns the status and client message for err
func (m *ErrorMapper) Map(err error) (int, string) {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, ve.Error()
	case errors.Is(err, domain.ErrDuplicateIdentity),
		errors.Is(err, domain.ErrNoPendingRegistration),
		errors.Is(err, domain.ErrOTPExpired):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrOTPMismatch):
		if m.production {
			return http.StatusBadRequest, MsgOTPRejected
		}
		return http.StatusBadRequest, domain.ErrOTPMismatch.Error()
	case errors.Is(err, domain.ErrUnknownAccount):
		return http.StatusUnauthorized, "no account found for this email"
	case errors.Is(err, domain.ErrWrongPassword):
		return http.StatusUnauthorized, "incorrect password"
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, MsgUniformLoginError
	case errors.Is(err, domain.ErrUnauthenticated), errors.Is(err, domain.ErrInvalidAssertion):
		return http.StatusUnauthorized, MsgUnauthenticated
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, MsgForbidden
	case errors.Is(err, domain.ErrIdentityNotFound):
		return http.StatusNotFound, domain.ErrIdentityNotFound.Error()
	default:
		return http.StatusInternalServerError, MsgInternal
	}
}

// Error writes the failure envelope for err and logs unexpected errors
func (m *ErrorMapper) Error(c *gin.Context, err error) {
	status, message := m.Map(err)
	if status == http.StatusInternalServerError {
		m.logger.ErrorContext(c.Request.Context(), "request failed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"error", err,
		)
	}
	Fail(c, status, message)
}
