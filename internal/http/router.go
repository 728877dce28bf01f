package httpx

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/you/missionlog/domain"
	"github.com/you/missionlog/internal/http/handlers"
	"github.com/you/missionlog/internal/http/middleware"
	"github.com/you/missionlog/internal/http/response"
)

// Handlers groups every endpoint handler the router mounts
type Handlers struct {
	Auth          *handlers.AuthHandlers
	Admin         *handlers.AdminHandlers
	Notifications *handlers.NotificationHandlers
	Realtime      *handlers.RealtimeHandler
}

// BuildRouter mounts every route behind its auth and role gates
func BuildRouter(logger *slog.Logger, audit domain.AuditLogger, h Handlers, authmw *middleware.AuthMW) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Recovery(logger), middleware.RequestLogger(logger))

	r.GET("/health", func(c *gin.Context) { response.OK(c, nil) })

	auth := r.Group("/auth")
	auth.POST("/register", h.Auth.Register)
	auth.POST("/verify-otp", h.Auth.VerifyOTP)
	auth.POST("/login", h.Auth.Login)

	me := auth.Group("/me", authmw.WithAuth())
	me.GET("", h.Auth.Me)
	me.PATCH("", h.Auth.UpdateMe)

	staff := r.Group("/", authmw.WithAuth(), middleware.RequireRole(audit, domain.RoleMentor, domain.RoleAdmin))
	staff.GET("/mentor/overview", h.Notifications.Overview)
	staff.POST("/notifications", h.Notifications.Publish)

	adm := r.Group("/admin", authmw.WithAuth(), middleware.RequireRole(audit, domain.RoleAdmin))
	adm.GET("/users/:id", h.Admin.GetUser)
	adm.PATCH("/users/:id/role", h.Admin.ChangeRole)
	adm.GET("/policies", h.Admin.Policies)

	// the handshake authenticates itself so browsers can pass ?token=
	r.GET("/ws", h.Realtime.Connect)

	return r
}
