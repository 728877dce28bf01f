package mocks

import (
	"sync"

	"github.com/you/missionlog/domain"
)

// Published is one recorded Publish call
type Published struct {
	Channel string
	Event   domain.Event
}

// MockNotifier implements domain.Notifier and records every publish
type MockNotifier struct {
	PublishFunc func(channel string, event domain.Event) int

	mu        sync.Mutex
	published []Published
}

// NewMockNotifier creates a new MockNotifier
func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

// Publish records the event and returns PublishFunc's count, or 0
func (m *MockNotifier) Publish(channel string, event domain.Event) int {
	m.mu.Lock()
	m.published = append(m.published, Published{Channel: channel, Event: event})
	m.mu.Unlock()

	if m.PublishFunc != nil {
		return m.PublishFunc(channel, event)
	}
	return 0
}

// Published returns a copy of the recorded events
func (m *MockNotifier) Published() []Published {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Published(nil), m.published...)
}

// Compile-time interface compliance verification
var _ domain.Notifier = (*MockNotifier)(nil)
