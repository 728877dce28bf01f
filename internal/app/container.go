package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/you/missionlog/domain"
	"github.com/you/missionlog/internal/config"
	httpx "github.com/you/missionlog/internal/http"
	"github.com/you/missionlog/internal/http/handlers"
	"github.com/you/missionlog/internal/http/middleware"
	"github.com/you/missionlog/internal/http/response"
	"github.com/you/missionlog/internal/infrastructure/auth"
	"github.com/you/missionlog/internal/infrastructure/database"
	"github.com/you/missionlog/internal/infrastructure/notifications"
	"github.com/you/missionlog/internal/infrastructure/repositories"
	"github.com/you/missionlog/internal/logging"
	"github.com/you/missionlog/internal/realtime"
	"github.com/you/missionlog/internal/services"
)

// Container holds all dependencies
type Container struct {
	// Config
	Config *config.Config
	Logger *slog.Logger

	// Infrastructure
	DB          *gorm.DB
	RedisClient *redis.Client
	Hub         *realtime.Hub

	// Repositories
	Identities domain.CredentialStore
	Pending    domain.PendingRegistrationStore
	// sweeper is set when pending registrations live in process memory
	sweeper *repositories.MemoryPendingStore

	// Services
	Audit         domain.AuditLogger
	PasswordSvc   domain.PasswordService
	TokenSvc      domain.TokenService
	Mailer        domain.OTPSender
	OTPSvc        domain.OTPIssuer
	AuthSvc       domain.AuthService
	Authenticator domain.Authenticator
	PolicySvc     domain.PolicyService

	Router *gin.Engine
}

// NewContainer creates and initializes all dependencies
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	container := &Container{Config: cfg, Logger: logger}

	// Initialize infrastructure
	if err := container.initDatabase(); err != nil {
		return nil, err
	}
	if err := container.initPendingStore(ctx); err != nil {
		container.Close()
		return nil, err
	}

	// Initialize services
	if err := container.initServices(); err != nil {
		container.Close()
		return nil, err
	}

	container.initRouter()
	return container, nil
}

func (c *Container) initDatabase() error {
	db, err := database.Open(c.Config.Database.Driver, c.Config.Database.DSN, c.Config.Logging.Level == "debug")
	if err != nil {
		return err
	}

	// Auto-migrate
	if err := database.AutoMigrate(db); err != nil {
		return err
	}

	c.DB = db
	c.Identities = repositories.NewIdentityRepository(db)
	return nil
}

func (c *Container) initPendingStore(ctx context.Context) error {
	switch c.Config.OTP.Store {
	case "redis":
		rdb, err := database.NewRedis(ctx, c.Config.Redis.Addr, c.Config.Redis.Password, c.Config.Redis.DB)
		if err != nil {
			return err
		}
		c.RedisClient = rdb
		c.Pending = repositories.NewRedisPendingStore(rdb, c.Config.OTP.Retention)
	case "memory", "":
		store := repositories.NewMemoryPendingStore(c.Config.OTP.Retention, nil)
		c.sweeper = store
		c.Pending = store
	default:
		return fmt.Errorf("unknown otp store %q", c.Config.OTP.Store)
	}
	return nil
}

func (c *Container) initServices() error {
	cfg := c.Config

	c.Audit = logging.NewAuditLogger(c.Logger)
	c.Hub = realtime.NewHub(cfg.Realtime, c.Logger)
	c.PasswordSvc = auth.NewPasswordService(cfg.Auth.BcryptCost)
	c.TokenSvc = auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.TTL)
	c.Mailer = notifications.NewOTPSender(cfg.Mail, cfg.OTP.TTL, cfg.IsProduction(), c.Logger)

	c.OTPSvc = services.NewOTPService(
		c.Pending,
		c.Identities,
		c.PasswordSvc,
		c.Mailer,
		services.NewRoleResolver(cfg.Roles.AdminEmail, cfg.Roles.StaffDomain),
		c.Hub,
		c.Audit,
		c.Logger,
		services.OTPConfig{TTL: cfg.OTP.TTL, DeliveryTimeout: cfg.OTP.DeliveryTimeout},
	)
	c.AuthSvc = services.NewAuthService(
		c.Identities,
		c.PasswordSvc,
		c.TokenSvc,
		c.Hub,
		c.Audit,
		c.Logger,
		cfg.Auth.UniformLoginErrors,
	)
	c.Authenticator = services.NewAuthenticator(c.TokenSvc, c.Identities)

	enforcer, err := auth.NewPolicyEnforcer(c.DB)
	if err != nil {
		return err
	}
	c.PolicySvc = services.NewPolicyService(enforcer)
	return nil
}

func (c *Container) initRouter() {
	production := c.Config.IsProduction()
	errs := response.NewErrorMapper(production, c.Logger)

	c.Router = httpx.BuildRouter(c.Logger, c.Audit, httpx.Handlers{
		Auth:          handlers.NewAuthHandlers(c.AuthSvc, c.OTPSvc, errs, c.Logger, production),
		Admin:         handlers.NewAdminHandlers(c.AuthSvc, c.PolicySvc, errs),
		Notifications: handlers.NewNotificationHandlers(c.Hub, c.Hub, c.PolicySvc, c.Audit, errs),
		Realtime:      handlers.NewRealtimeHandler(c.Authenticator, c.Hub, errs, c.Logger),
	}, middleware.NewAuthMW(c.Authenticator, errs))
}

// Close closes all connections
func (c *Container) Close() error {
	var errs []error
	if c.Hub != nil {
		c.Hub.Close()
	}
	if c.RedisClient != nil {
		errs = append(errs, c.RedisClient.Close())
	}

	if c.DB != nil {
		sqlDB, err := c.DB.DB()
		if err != nil {
			return errors.Join(append(errs, err)...)
		}
		errs = append(errs, sqlDB.Close())
	}

	return errors.Join(errs...)
}
