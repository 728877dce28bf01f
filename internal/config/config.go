package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	EnvProduction  = "production"
	EnvDevelopment = "development"
	EnvTest        = "test"

	// DevJWTSecret is the built-in secret; Validate refuses it in production.
	DevJWTSecret = "missionlog-dev-secret-change-me"

	defaultConfigPath = "config/config.yml"
)

type AppConfig struct {
	Port    int    `yaml:"port" env:"PORT"`
	Env     string `yaml:"env" env:"ENV"`
	GinMode string `yaml:"gin_mode" env:"GIN_MODE"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver" env:"DRIVER"`
	DSN    string `yaml:"dsn" env:"DSN"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr" env:"ADDR"`
	Password string `yaml:"password" env:"PASSWORD"`
	DB       int    `yaml:"db" env:"DB"`
}

type JWTConfig struct {
	Secret string        `yaml:"secret" env:"SECRET"`
	Issuer string        `yaml:"issuer" env:"ISSUER"`
	TTL    time.Duration `yaml:"ttl" env:"TTL"`
}

type OTPConfig struct {
	TTL             time.Duration `yaml:"ttl" env:"TTL"`
	Store           string        `yaml:"store" env:"STORE"`
	SweepInterval   time.Duration `yaml:"sweep_interval" env:"SWEEP_INTERVAL"`
	Retention       time.Duration `yaml:"retention" env:"RETENTION"`
	DeliveryTimeout time.Duration `yaml:"delivery_timeout" env:"DELIVERY_TIMEOUT"`
}

type RolesConfig struct {
	AdminEmail  string `yaml:"admin_email" env:"ADMIN_EMAIL"`
	StaffDomain string `yaml:"staff_domain" env:"STAFF_DOMAIN"`
}

type AuthConfig struct {
	UniformLoginErrors bool `yaml:"uniform_login_errors" env:"UNIFORM_LOGIN_ERRORS"`
	BcryptCost         int  `yaml:"bcrypt_cost" env:"BCRYPT_COST"`
}

type MailConfig struct {
	Driver   string `yaml:"driver" env:"DRIVER"`
	Host     string `yaml:"host" env:"HOST"`
	Port     int    `yaml:"port" env:"PORT"`
	Username string `yaml:"username" env:"USERNAME"`
	Password string `yaml:"password" env:"PASSWORD"`
	From     string `yaml:"from" env:"FROM"`
}

type RealtimeConfig struct {
	PingInterval   time.Duration `yaml:"ping_interval" env:"PING_INTERVAL"`
	PongTimeout    time.Duration `yaml:"pong_timeout" env:"PONG_TIMEOUT"`
	SendBuffer     int           `yaml:"send_buffer" env:"SEND_BUFFER"`
	MaxMessageSize int64         `yaml:"max_message_size" env:"MAX_MESSAGE_SIZE"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" env:"LEVEL"`
	Format string `yaml:"format" env:"FORMAT"`
}

// Config is the full service configuration. Values come from defaults, then
// the YAML file, then MISSIONLOG_* environment variables.
type Config struct {
	App      AppConfig      `yaml:"app" envPrefix:"APP_"`
	Database DatabaseConfig `yaml:"database" envPrefix:"DATABASE_"`
	Redis    RedisConfig    `yaml:"redis" envPrefix:"REDIS_"`
	JWT      JWTConfig      `yaml:"jwt" envPrefix:"JWT_"`
	OTP      OTPConfig      `yaml:"otp" envPrefix:"OTP_"`
	Roles    RolesConfig    `yaml:"roles" envPrefix:"ROLES_"`
	Auth     AuthConfig     `yaml:"auth" envPrefix:"AUTH_"`
	Mail     MailConfig     `yaml:"mail" envPrefix:"MAIL_"`
	Realtime RealtimeConfig `yaml:"realtime" envPrefix:"REALTIME_"`
	Logging  LoggingConfig  `yaml:"logging" envPrefix:"LOGGING_"`
}

// Default returns a development configuration
func Default() *Config {
	return &Config{
		App:      AppConfig{Port: 8080, Env: EnvDevelopment, GinMode: "debug"},
		Database: DatabaseConfig{Driver: "sqlite", DSN: "missionlog.db"},
		Redis:    RedisConfig{Addr: "localhost:6379"},
		JWT:      JWTConfig{Secret: DevJWTSecret, Issuer: "missionlog", TTL: 7 * 24 * time.Hour},
		OTP: OTPConfig{
			TTL:             5 * time.Minute,
			Store:           "memory",
			SweepInterval:   time.Minute,
			Retention:       10 * time.Minute,
			DeliveryTimeout: 10 * time.Second,
		},
		Roles: RolesConfig{AdminEmail: "admin@missionlog.dev", StaffDomain: "staff.missionlog.dev"},
		Auth:  AuthConfig{BcryptCost: 10},
		Mail:  MailConfig{Driver: "log", Port: 587, From: "no-reply@missionlog.dev"},
		Realtime: RealtimeConfig{
			PingInterval:   30 * time.Second,
			PongTimeout:    10 * time.Second,
			SendBuffer:     64,
			MaxMessageSize: 4096,
		},
		Logging: LoggingConfig{Level: "info", Format: "json"},
	}
}

// IsProduction reports whether the service runs with production settings
func (c *Config) IsProduction() bool {
	return c.App.Env == EnvProduction
}

// Addr returns the HTTP listen address
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.App.Port)
}

// Load reads .env, the YAML file and the environment, in that order
func Load() (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	path := os.Getenv("MISSIONLOG_CONFIG")
	if path == "" {
		path = defaultConfigPath
	}
	return LoadFrom(path)
}

// LoadFrom builds a Config from defaults, the file at path (if present) and the environment
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	if err := loadConfigFile(path, cfg); err != nil {
		return nil, err
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: "MISSIONLOG_"}); err != nil {
		return nil, fmt.Errorf("could not parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadConfigFile(path string, cfg *Config) error {
	bytes, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("could not read config file at %s: %w", path, err)
	}

	if err := yaml.Unmarshal(bytes, cfg); err != nil {
		return fmt.Errorf("could not parse config yaml: %w", err)
	}
	return nil
}

// Validate checks the settings the service cannot start without
func (c *Config) Validate() error {
	switch c.App.Env {
	case EnvProduction, EnvDevelopment, EnvTest:
	default:
		return fmt.Errorf("invalid app env %q", c.App.Env)
	}
	if c.JWT.Secret == "" {
		return errors.New("jwt secret is required")
	}
	if c.IsProduction() && c.JWT.Secret == DevJWTSecret {
		return errors.New("jwt secret must be set in production")
	}
	if c.JWT.TTL <= 0 {
		return errors.New("jwt ttl must be positive")
	}
	if c.OTP.TTL <= 0 {
		return errors.New("otp ttl must be positive")
	}
	if c.OTP.DeliveryTimeout <= 0 {
		return errors.New("otp delivery timeout must be positive")
	}
	if c.OTP.Retention <= c.OTP.TTL {
		return errors.New("otp retention must be longer than otp ttl")
	}
	switch c.OTP.Store {
	case "memory", "redis":
	default:
		return fmt.Errorf("unsupported otp store %q", c.OTP.Store)
	}
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	switch c.Mail.Driver {
	case "log", "smtp":
	default:
		return fmt.Errorf("unsupported mail driver %q", c.Mail.Driver)
	}
	if c.Mail.Driver == "smtp" && c.Mail.Host == "" {
		return errors.New("mail host is required for the smtp driver")
	}
	if c.Realtime.SendBuffer <= 0 {
		return errors.New("realtime send buffer must be positive")
	}
	return nil
}
