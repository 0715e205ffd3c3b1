package domain

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type ProjectStatus string

const (
	ProjectCreated          ProjectStatus = "created"
	ProjectUploading        ProjectStatus = "uploading"
	ProjectProcessingStems  ProjectStatus = "processing_stems"
	ProjectStemsReady       ProjectStatus = "stems_ready"
	ProjectGeneratingVocals ProjectStatus = "generating_vocals"
	ProjectVocalsReady      ProjectStatus = "vocals_ready"
	ProjectMixing           ProjectStatus = "mixing"
	ProjectCompleted        ProjectStatus = "completed"
	ProjectFailed           ProjectStatus = "failed"
)

func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectCreated, ProjectUploading, ProjectProcessingStems, ProjectStemsReady,
		ProjectGeneratingVocals, ProjectVocalsReady, ProjectMixing, ProjectCompleted, ProjectFailed:
		return true
	}
	return false
}

// VocalMode says what happens to the original vocals of a track.
type VocalMode string

const (
	VocalRemove  VocalMode = "remove"
	VocalReplace VocalMode = "replace"
	VocalBlend   VocalMode = "blend"
)

type Project struct {
	ID              uuid.UUID       `json:"id"`
	UserID          uuid.UUID       `json:"user_id"`
	VoicePersonaID  *uuid.UUID      `json:"voice_persona_id,omitempty"`
	Name            string          `json:"name"`
	Description     string          `json:"description,omitempty"`
	Status          ProjectStatus   `json:"status"`
	VocalMode       VocalMode       `json:"vocal_mode"`
	DurationSeconds *float64        `json:"duration_seconds"`
	MixSettings     json.RawMessage `json:"mix_settings"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// ProjectRepository stores projects scoped by owner, newest first.
// GetByID returns (nil, nil) when no project with that id belongs to
// userID. An empty status lists every status.
type ProjectRepository interface {
	Create(ctx context.Context, project *Project) error
	GetByID(ctx context.Context, userID, id uuid.UUID) (*Project, error)
	GetByUser(ctx context.Context, userID uuid.UUID, status ProjectStatus, limit, offset int) ([]*Project, int, error)
	Update(ctx context.Context, project *Project) error
	Delete(ctx context.Context, userID, id uuid.UUID) error
}
