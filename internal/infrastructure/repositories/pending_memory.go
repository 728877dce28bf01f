package repositories

import (
	"context"
	"sync"
	"time"

	"github.com/you/missionlog/domain"
)

// MemoryPendingStore implements domain.PendingRegistrationStore in process memory.
// Records older than the retention window are dropped on read and by Sweep.
type MemoryPendingStore struct {
	mu        sync.Mutex
	records   map[string]domain.PendingRegistration
	retention time.Duration
	now       domain.Clock
}

// NewMemoryPendingStore creates an empty store. A zero retention keeps records
// until they are deleted or consumed.
func NewMemoryPendingStore(retention time.Duration, now domain.Clock) *MemoryPendingStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryPendingStore{
		records:   make(map[string]domain.PendingRegistration),
		retention: retention,
		now:       now,
	}
}

// Save implements domain.PendingRegistrationStore
func (s *MemoryPendingStore) Save(_ context.Context, record *domain.PendingRegistration) error {
	rec := *record
	rec.Email = domain.NormalizeEmail(rec.Email)
	rec.IssuedAt = rec.IssuedAt.UTC()

	s.mu.Lock()
	s.records[rec.Email] = rec
	s.mu.Unlock()
	return nil
}

// Find implements domain.PendingRegistrationStore
func (s *MemoryPendingStore) Find(_ context.Context, email string) (*domain.PendingRegistration, error) {
	key := domain.NormalizeEmail(email)

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[key]
	if !ok {
		return nil, domain.ErrNoPendingRegistration
	}
	if s.evictable(rec, s.now()) {
		delete(s.records, key)
		return nil, domain.ErrNoPendingRegistration
	}
	return &rec, nil
}

// Delete implements domain.PendingRegistrationStore
func (s *MemoryPendingStore) Delete(_ context.Context, email string) error {
	s.mu.Lock()
	delete(s.records, domain.NormalizeEmail(email))
	s.mu.Unlock()
	return nil
}

// Consume implements domain.PendingRegistrationStore
func (s *MemoryPendingStore) Consume(_ context.Context, record *domain.PendingRegistration) (bool, error) {
	key := domain.NormalizeEmail(record.Email)

	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.records[key]
	if !ok || !samePending(cur, *record) {
		return false, nil
	}
	delete(s.records, key)
	return true, nil
}

// Len returns the number of stored records, including ones awaiting eviction
func (s *MemoryPendingStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Sweep removes every record older than the retention window and returns how many were removed
func (s *MemoryPendingStore) Sweep() int {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, rec := range s.records {
		if s.evictable(rec, now) {
			delete(s.records, key)
			removed++
		}
	}
	return removed
}

// Run sweeps every interval until ctx is done
func (s *MemoryPendingStore) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.Sweep()
		}
	}
}

func (s *MemoryPendingStore) evictable(rec domain.PendingRegistration, now time.Time) bool {
	return s.retention > 0 && now.Sub(rec.IssuedAt) >= s.retention
}

func samePending(a, b domain.PendingRegistration) bool {
	return a.OTPCode == b.OTPCode &&
		a.IssuedAt.Equal(b.IssuedAt) &&
		a.DisplayName == b.DisplayName &&
		a.PasswordCandidate == b.PasswordCandidate
}

// Compile-time interface compliance verification
var _ domain.PendingRegistrationStore = (*MemoryPendingStore)(nil)
