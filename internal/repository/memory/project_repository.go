package memory

import (
	"context"
	"encoding/json"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bibee/backend/internal/domain"
)

type ProjectRepository struct {
	mu       sync.RWMutex
	projects map[uuid.UUID]*domain.Project
}

func NewProjectRepository() *ProjectRepository {
	return &ProjectRepository{projects: make(map[uuid.UUID]*domain.Project)}
}

func cloneProject(p *domain.Project) *domain.Project {
	cp := *p
	cp.MixSettings = slices.Clone(p.MixSettings)
	if len(cp.MixSettings) == 0 {
		cp.MixSettings = json.RawMessage(`{}`)
	}
	if p.VoicePersonaID != nil {
		id := *p.VoicePersonaID
		cp.VoicePersonaID = &id
	}
	return &cp
}

func (r *ProjectRepository) Create(ctx context.Context, project *domain.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if project.ID == uuid.Nil {
		project.ID = uuid.New()
	}
	if project.Status == "" {
		project.Status = domain.ProjectCreated
	}
	if project.VocalMode == "" {
		project.VocalMode = domain.VocalReplace
	}
	if len(project.MixSettings) == 0 {
		project.MixSettings = json.RawMessage(`{}`)
	}
	now := time.Now()
	project.CreatedAt = now
	project.UpdatedAt = now

	r.projects[project.ID] = cloneProject(project)
	return nil
}

func (r *ProjectRepository) GetByID(ctx context.Context, userID, id uuid.UUID) (*domain.Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.projects[id]
	if !ok || p.UserID != userID {
		return nil, nil
	}
	return cloneProject(p), nil
}

func (r *ProjectRepository) GetByUser(ctx context.Context, userID uuid.UUID, status domain.ProjectStatus, limit, offset int) ([]*domain.Project, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]*domain.Project, 0)
	for _, p := range r.projects {
		if p.UserID == userID && (status == "" || p.Status == status) {
			matched = append(matched, cloneProject(p))
		}
	}
	slices.SortFunc(matched, func(a, b *domain.Project) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return window(matched, limit, offset), len(matched), nil
}

func (r *ProjectRepository) Update(ctx context.Context, project *domain.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.projects[project.ID]
	if !ok || cur.UserID != project.UserID {
		return domain.ErrProjectNotFound
	}
	project.CreatedAt = cur.CreatedAt
	project.UpdatedAt = time.Now()
	r.projects[project.ID] = cloneProject(project)
	return nil
}

func (r *ProjectRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.projects[id]
	if !ok || p.UserID != userID {
		return domain.ErrProjectNotFound
	}
	delete(r.projects, id)
	return nil
}
