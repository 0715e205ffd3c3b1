package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibee/backend/internal/domain"
)

func TestEventLog(t *testing.T) {
	ctx := context.Background()
	log := NewEventLog()

	require.NoError(t, log.Publish(ctx, domain.Event{Type: domain.EventUserRegistered, Subject: "alice"}))
	require.NoError(t, log.Publish(ctx, domain.Event{Type: domain.EventUserRegistered, Subject: "bob"}))
	require.NoError(t, log.Publish(ctx, domain.Event{Type: domain.EventSessionLogout, Subject: "alice", TokenID: "t1"}))

	events, err := log.ListBySubject(ctx, "alice", 0, 0)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, domain.EventSessionLogout, events[0].Type)
	assert.Equal(t, domain.EventUserRegistered, events[1].Type)

	recent, total, err := log.ListRecent(ctx, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, recent, 2)
	assert.Equal(t, "alice", recent[0].Subject)
	assert.Equal(t, "bob", recent[1].Subject)

	recent, _, err = log.ListRecent(ctx, 2, 5)
	require.NoError(t, err)
	assert.Empty(t, recent)
}
