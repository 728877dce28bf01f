package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/wneessen/go-mail"
	"github.com/you/missionlog/domain"
	"github.com/you/missionlog/internal/config"
)

const otpSubject = "Your missionlog verification code"

// otpBody renders the plain-text message carrying the code
func otpBody(code, name string, ttl time.Duration) string {
	greeting := "Hello"
	if name != "" {
		greeting = "Hello " + name
	}
	return fmt.Sprintf("%s,\n\nYour verification code is %s. It is valid for %d minutes.\n\nIf you did not sign up for missionlog, ignore this message.\n",
		greeting, code, int(ttl.Minutes()))
}

// SMTPMailer implements domain.OTPSender over SMTP
type SMTPMailer struct {
	cfg    config.MailConfig
	otpTTL time.Duration
}

// NewSMTPMailer creates a mailer for the configured relay
func NewSMTPMailer(cfg config.MailConfig, otpTTL time.Duration) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, otpTTL: otpTTL}
}

// buildMessage assembles the OTP mail without sending it
func (s *SMTPMailer) buildMessage(address, code, name string) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(s.cfg.From); err != nil {
		return nil, fmt.Errorf("invalid sender address: %w", err)
	}
	if err := msg.To(address); err != nil {
		return nil, fmt.Errorf("invalid recipient address: %w", err)
	}
	msg.Subject(otpSubject)
	msg.SetDate()
	msg.SetMessageID()
	msg.SetBodyString(mail.TypeTextPlain, otpBody(code, name, s.otpTTL))
	return msg, nil
}

// Send implements domain.OTPSender. A new connection is dialed per message
// and bounded by ctx.
func (s *SMTPMailer) Send(ctx context.Context, address, code, name string) error {
	msg, err := s.buildMessage(address, code, name)
	if err != nil {
		return err
	}

	opts := []mail.Option{
		mail.WithPort(s.cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if deadline, ok := ctx.Deadline(); ok {
		opts = append(opts, mail.WithTimeout(time.Until(deadline)))
	}
	if s.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.Username),
			mail.WithPassword(s.cfg.Password),
		)
	}

	client, err := mail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("failed to create mail client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send otp mail: %w", err)
	}
	return nil
}

const redactedCode = "******"

// LogMailer implements domain.OTPSender by logging the message instead of sending it.
// It is the development driver. With redact set the code never reaches the log.
type LogMailer struct {
	logger *slog.Logger
	otpTTL time.Duration
	redact bool
}

// NewLogMailer creates a logging mailer
func NewLogMailer(logger *slog.Logger, otpTTL time.Duration, redact bool) *LogMailer {
	return &LogMailer{logger: logger.With("component", "mailer"), otpTTL: otpTTL, redact: redact}
}

// Send implements domain.OTPSender
func (l *LogMailer) Send(ctx context.Context, address, code, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if l.redact {
		code = redactedCode
	}
	l.logger.InfoContext(ctx, "otp mail (not sent)",
		"to", address,
		"subject", otpSubject,
		"body", otpBody(code, name, l.otpTTL),
	)
	return nil
}

// NewOTPSender picks the mail driver named in cfg. The log driver redacts
// codes in production.
func NewOTPSender(cfg config.MailConfig, otpTTL time.Duration, production bool, logger *slog.Logger) domain.OTPSender {
	if cfg.Driver == "smtp" {
		return NewSMTPMailer(cfg, otpTTL)
	}
	if production {
		logger.Warn("log mail driver in production: codes are redacted and never delivered")
	}
	return NewLogMailer(logger, otpTTL, production)
}

// Compile-time interface compliance verification
var (
	_ domain.OTPSender = (*SMTPMailer)(nil)
	_ domain.OTPSender = (*LogMailer)(nil)
)
