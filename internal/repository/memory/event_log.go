package memory

import (
	"context"
	"sync"

	"github.com/bibee/backend/internal/domain"
)

// EventLog keeps security events in memory, newest last.
type EventLog struct {
	mu     sync.RWMutex
	events []domain.Event
}

func NewEventLog() *EventLog {
	return &EventLog{}
}

func (l *EventLog) Publish(_ context.Context, event domain.Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
	return nil
}

func (l *EventLog) ListBySubject(_ context.Context, subject string, limit, offset int) ([]domain.Event, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	matched := make([]domain.Event, 0)
	for i := len(l.events) - 1; i >= 0; i-- {
		if l.events[i].Subject == subject {
			matched = append(matched, l.events[i])
		}
	}
	return window(matched, limit, offset), nil
}

func (l *EventLog) ListRecent(_ context.Context, limit, offset int) ([]domain.Event, int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	all := make([]domain.Event, 0, len(l.events))
	for i := len(l.events) - 1; i >= 0; i-- {
		all = append(all, l.events[i])
	}
	return window(all, limit, offset), len(all), nil
}
