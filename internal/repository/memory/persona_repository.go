package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bibee/backend/internal/domain"
)

type PersonaRepository struct {
	mu       sync.RWMutex
	personas map[uuid.UUID]*domain.VoicePersona
}

func NewPersonaRepository() *PersonaRepository {
	return &PersonaRepository{personas: make(map[uuid.UUID]*domain.VoicePersona)}
}

func clonePersona(p *domain.VoicePersona) *domain.VoicePersona {
	cp := *p
	cp.SamplePaths = slices.Clone(p.SamplePaths)
	if cp.SamplePaths == nil {
		cp.SamplePaths = []string{}
	}
	return &cp
}

func (r *PersonaRepository) Create(ctx context.Context, persona *domain.VoicePersona) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if persona.ID == uuid.Nil {
		persona.ID = uuid.New()
	}
	if persona.Status == "" {
		persona.Status = domain.PersonaPending
	}
	if persona.SamplePaths == nil {
		persona.SamplePaths = []string{}
	}
	now := time.Now()
	persona.CreatedAt = now
	persona.UpdatedAt = now

	r.personas[persona.ID] = clonePersona(persona)
	return nil
}

func (r *PersonaRepository) GetByID(ctx context.Context, userID, id uuid.UUID) (*domain.VoicePersona, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.personas[id]
	if !ok || p.UserID != userID {
		return nil, nil
	}
	return clonePersona(p), nil
}

func (r *PersonaRepository) GetByUser(ctx context.Context, userID uuid.UUID, status domain.PersonaStatus, limit, offset int) ([]*domain.VoicePersona, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]*domain.VoicePersona, 0)
	for _, p := range r.personas {
		if p.UserID == userID && (status == "" || p.Status == status) {
			matched = append(matched, clonePersona(p))
		}
	}
	slices.SortFunc(matched, func(a, b *domain.VoicePersona) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return window(matched, limit, offset), len(matched), nil
}

func (r *PersonaRepository) Update(ctx context.Context, persona *domain.VoicePersona) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.personas[persona.ID]
	if !ok || cur.UserID != persona.UserID {
		return domain.ErrPersonaNotFound
	}
	persona.CreatedAt = cur.CreatedAt
	persona.UpdatedAt = time.Now()
	r.personas[persona.ID] = clonePersona(persona)
	return nil
}

func (r *PersonaRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.personas[id]
	if !ok || p.UserID != userID {
		return domain.ErrPersonaNotFound
	}
	delete(r.personas, id)
	return nil
}

// window returns the limit-sized slice of items starting at offset, after
// the same clamping the SQL repositories apply.
func window[T any](items []T, limit, offset int) []T {
	limit, offset = domain.ClampPage(limit, offset)
	if offset >= len(items) {
		return []T{}
	}
	end := min(offset+limit, len(items))
	return items[offset:end]
}
