package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/you/missionlog/domain"
)

// MockOTPIssuer implements domain.OTPIssuer interface for testing
type MockOTPIssuer struct {
	StartRegistrationFunc func(ctx context.Context, email, name, password string) (*domain.RegistrationTicket, error)
	VerifyFunc            func(ctx context.Context, email, code string) (*domain.Identity, error)
}

// NewMockOTPIssuer creates a new MockOTPIssuer with default behaviors
func NewMockOTPIssuer() *MockOTPIssuer {
	return &MockOTPIssuer{}
}

// StartRegistration returns a delivered ticket with code 123456 by default
func (m *MockOTPIssuer) StartRegistration(ctx context.Context, email, name, password string) (*domain.RegistrationTicket, error) {
	if m.StartRegistrationFunc != nil {
		return m.StartRegistrationFunc(ctx, email, name, password)
	}
	return &domain.RegistrationTicket{
		Email:          email,
		OTPCode:        "123456",
		ExpiresAt:      time.Now().Add(5 * time.Minute),
		EmailDelivered: true,
	}, nil
}

// Verify reports nothing pending by default
func (m *MockOTPIssuer) Verify(ctx context.Context, email, code string) (*domain.Identity, error) {
	if m.VerifyFunc != nil {
		return m.VerifyFunc(ctx, email, code)
	}
	return nil, domain.ErrNoPendingRegistration
}

// SentOTP is one recorded delivery
type SentOTP struct {
	Address string
	Code    string
	Name    string
}

// MockOTPSender implements domain.OTPSender and records every delivery
type MockOTPSender struct {
	SendFunc func(ctx context.Context, address, code, name string) error

	mu   sync.Mutex
	sent []SentOTP
}

// NewMockOTPSender creates a new MockOTPSender with default behaviors
func NewMockOTPSender() *MockOTPSender {
	return &MockOTPSender{}
}

// Send records the delivery, then calls SendFunc if set
func (m *MockOTPSender) Send(ctx context.Context, address, code, name string) error {
	m.mu.Lock()
	m.sent = append(m.sent, SentOTP{Address: address, Code: code, Name: name})
	m.mu.Unlock()

	if m.SendFunc != nil {
		return m.SendFunc(ctx, address, code, name)
	}
	return nil
}

// Sent returns a copy of the recorded deliveries
func (m *MockOTPSender) Sent() []SentOTP {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SentOTP(nil), m.sent...)
}

// LastCode returns the most recently delivered code for address
func (m *MockOTPSender) LastCode(address string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.sent) - 1; i >= 0; i-- {
		if m.sent[i].Address == address {
			return m.sent[i].Code
		}
	}
	return ""
}

// Compile-time interface compliance verification
var (
	_ domain.OTPIssuer = (*MockOTPIssuer)(nil)
	_ domain.OTPSender = (*MockOTPSender)(nil)
)
