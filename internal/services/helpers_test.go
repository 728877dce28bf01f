package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/you/missionlog/domain"
	"github.com/you/missionlog/internal/mocks"
)

// testEpoch is a whole-second instant so JWT timestamps survive truncation
var testEpoch = time.Date(2026, 5, 4, 9, 30, 0, 0, time.UTC)

// testClock is a settable, goroutine-safe time source
type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func newTestClock(t *testing.T) *testClock {
	t.Helper()
	return &testClock{t: testEpoch}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	c.t = t
	c.mu.Unlock()
}

// identityTable backs a MockCredentialStore with a map so service tests see
// realistic store behavior
type identityTable struct {
	mu   sync.Mutex
	byID map[string]*domain.Identity
}

// newMemoryIdentities returns a map-backed credential store mock
func newMemoryIdentities(t *testing.T) (*mocks.MockCredentialStore, *identityTable) {
	t.Helper()

	table := &identityTable{byID: make(map[string]*domain.Identity)}
	store := mocks.NewMockCredentialStore()

	store.CreateFunc = func(ctx context.Context, identity *domain.Identity) error {
		table.mu.Lock()
		defer table.mu.Unlock()
		for _, existing := range table.byID {
			if existing.Email == identity.Email {
				return domain.ErrDuplicateIdentity
			}
		}
		if identity.ID == "" {
			identity.ID = uuid.NewString()
		}
		cp := *identity
		table.byID[identity.ID] = &cp
		return nil
	}
	store.FindByEmailFunc = func(ctx context.Context, email string) (*domain.Identity, error) {
		table.mu.Lock()
		defer table.mu.Unlock()
		for _, existing := range table.byID {
			if existing.Email == email {
				cp := *existing
				return &cp, nil
			}
		}
		return nil, domain.ErrIdentityNotFound
	}
	store.FindByIDFunc = func(ctx context.Context, id string) (*domain.Identity, error) {
		table.mu.Lock()
		defer table.mu.Unlock()
		if existing, ok := table.byID[id]; ok {
			cp := *existing
			return &cp, nil
		}
		return nil, domain.ErrIdentityNotFound
	}
	store.UpdateProfileFunc = func(ctx context.Context, id, displayName string) (*domain.Identity, error) {
		return table.update(id, func(i *domain.Identity) { i.DisplayName = displayName })
	}
	store.UpdateRoleFunc = func(ctx context.Context, id string, role domain.Role) (*domain.Identity, error) {
		return table.update(id, func(i *domain.Identity) { i.Role = role })
	}
	return store, table
}

func (tb *identityTable) update(id string, apply func(*domain.Identity)) (*domain.Identity, error) {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	existing, ok := tb.byID[id]
	if !ok {
		return nil, domain.ErrIdentityNotFound
	}
	apply(existing)
	cp := *existing
	return &cp, nil
}

func (tb *identityTable) put(identity *domain.Identity) {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	cp := *identity
	tb.byID[identity.ID] = &cp
}

func (tb *identityTable) remove(id string) {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	delete(tb.byID, id)
}

func (tb *identityTable) count() int {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return len(tb.byID)
}

// createValidIdentity creates a stored student identity with password "secret1"
func createValidIdentity(t *testing.T) *domain.Identity {
	t.Helper()

	return &domain.Identity{
		ID:           "9f8e7d6c-0000-4000-8000-000000000001",
		Email:        "pat@example.com",
		DisplayName:  "Pat",
		PasswordHash: "hashed_secret1",
		Role:         domain.RoleStudent,
		CreatedAt:    testEpoch.Add(-24 * time.Hour),
		UpdatedAt:    testEpoch.Add(-time.Hour),
	}
}

// createAdminPrincipal creates an admin caller
func createAdminPrincipal(t *testing.T) *domain.Principal {
	t.Helper()

	return &domain.Principal{
		ID:          "9f8e7d6c-0000-4000-8000-0000000000ad",
		Email:       "admin@missionlog.dev",
		DisplayName: "Admin",
		Role:        domain.RoleAdmin,
	}
}

// recordingAudit collects audit events
type recordingAudit struct {
	mu     sync.Mutex
	events []*domain.AuditEvent
}

func (r *recordingAudit) LogEvent(_ context.Context, event *domain.AuditEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingAudit) types() []domain.AuditEventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.AuditEventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.EventType)
	}
	return out
}
