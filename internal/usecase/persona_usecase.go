package usecase

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/bibee/backend/internal/domain"
)

var ErrPersonaNotFound = domain.ErrPersonaNotFound

// PersonaUsecase manages the caller's voice personas. Every operation is
// scoped to the owner's id; another user's persona is reported as not
// found.
type PersonaUsecase struct {
	personaRepo domain.VoicePersonaRepository
}

func NewPersonaUsecase(personaRepo domain.VoicePersonaRepository) *PersonaUsecase {
	return &PersonaUsecase{personaRepo: personaRepo}
}

type PersonaList struct {
	Personas []*domain.VoicePersona `json:"personas"`
	Total    int                    `json:"total"`
	Offset   int                    `json:"offset"`
	Limit    int                    `json:"limit"`
}

type CreatePersonaInput struct {
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description" validate:"max=2000"`
}

type UpdatePersonaInput struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=2000"`
}

func (u *PersonaUsecase) Create(ctx context.Context, userID uuid.UUID, input *CreatePersonaInput) (*domain.VoicePersona, error) {
	name, err := requireName(input.Name)
	if err != nil {
		return nil, err
	}

	persona := &domain.VoicePersona{
		UserID:      userID,
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		Status:      domain.PersonaPending,
		SamplePaths: []string{},
	}
	if err := u.personaRepo.Create(ctx, persona); err != nil {
		return nil, err
	}
	return persona, nil
}

func (u *PersonaUsecase) List(ctx context.Context, userID uuid.UUID, status string, limit, offset int) (*PersonaList, error) {
	filter := domain.PersonaStatus(status)
	if filter != "" && !filter.Valid() {
		return nil, invalidField("status", "unknown persona status")
	}
	limit, offset = domain.ClampPage(limit, offset)

	personas, total, err := u.personaRepo.GetByUser(ctx, userID, filter, limit, offset)
	if err != nil {
		return nil, err
	}

	return &PersonaList{
		Personas: personas,
		Total:    total,
		Offset:   offset,
		Limit:    limit,
	}, nil
}

func (u *PersonaUsecase) Get(ctx context.Context, userID, id uuid.UUID) (*domain.VoicePersona, error) {
	persona, err := u.personaRepo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if persona == nil {
		return nil, ErrPersonaNotFound
	}
	return persona, nil
}

func (u *PersonaUsecase) Update(ctx context.Context, userID, id uuid.UUID, input *UpdatePersonaInput) (*domain.VoicePersona, error) {
	persona, err := u.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name, err := requireName(*input.Name)
		if err != nil {
			return nil, err
		}
		persona.Name = name
	}
	if input.Description != nil {
		persona.Description = strings.TrimSpace(*input.Description)
	}

	if err := u.personaRepo.Update(ctx, persona); err != nil {
		return nil, err
	}
	return persona, nil
}

func (u *PersonaUsecase) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return u.personaRepo.Delete(ctx, userID, id)
}

func requireName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", invalidField("name", "must not be blank")
	}
	return name, nil
}

func invalidField(field, message string) error {
	return &domain.ValidationError{Field: field, Message: message, Kind: domain.ErrInvalidInput}
}
