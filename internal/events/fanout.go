package events

import (
	"context"
	"errors"

	"github.com/bibee/backend/internal/domain"
)

// Fanout publishes every event to each publisher in order. All publishers
// are tried; their errors are joined.
type Fanout []domain.EventPublisher

func (f Fanout) Publish(ctx context.Context, event domain.Event) error {
	var errs []error
	for _, p := range f {
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
