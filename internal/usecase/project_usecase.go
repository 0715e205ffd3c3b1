package usecase

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"

	"github.com/bibee/backend/internal/domain"
)

var ErrProjectNotFound = domain.ErrProjectNotFound

// ProjectUsecase manages the caller's projects. A project may reference
// one of the caller's own voice personas.
type ProjectUsecase struct {
	projectRepo domain.ProjectRepository
	personaRepo domain.VoicePersonaRepository
}

func NewProjectUsecase(projectRepo domain.ProjectRepository, personaRepo domain.VoicePersonaRepository) *ProjectUsecase {
	return &ProjectUsecase{
		projectRepo: projectRepo,
		personaRepo: personaRepo,
	}
}

type ProjectList struct {
	Projects []*domain.Project `json:"projects"`
	Total    int               `json:"total"`
	Offset   int               `json:"offset"`
	Limit    int               `json:"limit"`
}

type CreateProjectInput struct {
	Name           string           `json:"name" validate:"required,max=255"`
	Description    string           `json:"description" validate:"max=2000"`
	VoicePersonaID *uuid.UUID       `json:"voice_persona_id"`
	VocalMode      domain.VocalMode `json:"vocal_mode" validate:"omitempty,oneof=remove replace blend"`
}

type UpdateProjectInput struct {
	Name           *string           `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	Description    *string           `json:"description,omitempty" validate:"omitempty,max=2000"`
	VoicePersonaID *uuid.UUID        `json:"voice_persona_id,omitempty"`
	VocalMode      *domain.VocalMode `json:"vocal_mode,omitempty" validate:"omitempty,oneof=remove replace blend"`
	MixSettings    json.RawMessage   `json:"mix_settings,omitempty"`
}

func (u *ProjectUsecase) Create(ctx context.Context, userID uuid.UUID, input *CreateProjectInput) (*domain.Project, error) {
	name, err := requireName(input.Name)
	if err != nil {
		return nil, err
	}
	if err := u.checkPersona(ctx, userID, input.VoicePersonaID); err != nil {
		return nil, err
	}

	mode := input.VocalMode
	if mode == "" {
		mode = domain.VocalReplace
	}
	project := &domain.Project{
		UserID:         userID,
		VoicePersonaID: input.VoicePersonaID,
		Name:           name,
		Description:    strings.TrimSpace(input.Description),
		Status:         domain.ProjectCreated,
		VocalMode:      mode,
	}
	if err := u.projectRepo.Create(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

func (u *ProjectUsecase) List(ctx context.Context, userID uuid.UUID, status string, limit, offset int) (*ProjectList, error) {
	filter := domain.ProjectStatus(status)
	if filter != "" && !filter.Valid() {
		return nil, invalidField("status", "unknown project status")
	}
	limit, offset = domain.ClampPage(limit, offset)

	projects, total, err := u.projectRepo.GetByUser(ctx, userID, filter, limit, offset)
	if err != nil {
		return nil, err
	}

	return &ProjectList{
		Projects: projects,
		Total:    total,
		Offset:   offset,
		Limit:    limit,
	}, nil
}

func (u *ProjectUsecase) Get(ctx context.Context, userID, id uuid.UUID) (*domain.Project, error) {
	project, err := u.projectRepo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, ErrProjectNotFound
	}
	return project, nil
}

// Update applies the fields present in input. Status is owned by the
// processing pipeline and cannot be changed here.
func (u *ProjectUsecase) Update(ctx context.Context, userID, id uuid.UUID, input *UpdateProjectInput) (*domain.Project, error) {
	project, err := u.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name, err := requireName(*input.Name)
		if err != nil {
			return nil, err
		}
		project.Name = name
	}
	if input.Description != nil {
		project.Description = strings.TrimSpace(*input.Description)
	}
	if input.VoicePersonaID != nil {
		if err := u.checkPersona(ctx, userID, input.VoicePersonaID); err != nil {
			return nil, err
		}
		project.VoicePersonaID = input.VoicePersonaID
	}
	if input.VocalMode != nil {
		project.VocalMode = *input.VocalMode
	}
	if input.MixSettings != nil {
		settings, err := mixSettings(input.MixSettings)
		if err != nil {
			return nil, err
		}
		project.MixSettings = settings
	}

	if err := u.projectRepo.Update(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

func (u *ProjectUsecase) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return u.projectRepo.Delete(ctx, userID, id)
}

// checkPersona rejects a persona id that does not belong to userID.
func (u *ProjectUsecase) checkPersona(ctx context.Context, userID uuid.UUID, personaID *uuid.UUID) error {
	if personaID == nil {
		return nil
	}
	persona, err := u.personaRepo.GetByID(ctx, userID, *personaID)
	if err != nil {
		return err
	}
	if persona == nil {
		return &domain.ValidationError{Field: "voice_persona_id", Message: "voice persona not found", Kind: ErrPersonaNotFound}
	}
	return nil
}

// mixSettings accepts a JSON object, or null to reset to an empty one.
func mixSettings(raw json.RawMessage) (json.RawMessage, error) {
	var settings map[string]interface{}
	if err := json.Unmarshal(raw, &settings); err != nil {
		return nil, invalidField("mix_settings", "must be a JSON object")
	}
	if settings == nil {
		return json.RawMessage(`{}`), nil
	}
	return raw, nil
}
