package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type PersonaStatus string

const (
	PersonaPending  PersonaStatus = "pending"
	PersonaTraining PersonaStatus = "training"
	PersonaReady    PersonaStatus = "ready"
	PersonaFailed   PersonaStatus = "failed"
)

func (s PersonaStatus) Valid() bool {
	switch s {
	case PersonaPending, PersonaTraining, PersonaReady, PersonaFailed:
		return true
	}
	return false
}

// VoicePersona is a user-owned voice model description. Samples and the
// trained model are produced by the audio pipeline; the API only reads
// their paths.
type VoicePersona struct {
	ID          uuid.UUID     `json:"id"`
	UserID      uuid.UUID     `json:"user_id"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Status      PersonaStatus `json:"status"`
	SamplePaths []string      `json:"sample_paths"`
	ModelPath   string        `json:"-"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// VoicePersonaRepository stores personas scoped by owner. GetByID returns
// (nil, nil) when no persona with that id belongs to userID. An empty
// status lists every status.
type VoicePersonaRepository interface {
	Create(ctx context.Context, persona *VoicePersona) error
	GetByID(ctx context.Context, userID, id uuid.UUID) (*VoicePersona, error)
	GetByUser(ctx context.Context, userID uuid.UUID, status PersonaStatus, limit, offset int) ([]*VoicePersona, int, error)
	Update(ctx context.Context, persona *VoicePersona) error
	Delete(ctx context.Context, userID, id uuid.UUID) error
}
