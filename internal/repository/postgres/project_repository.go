package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/bibee/backend/internal/domain"
)

type ProjectRepository struct {
	db DB
}

func NewProjectRepository(db DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

const projectColumns = `id, user_id, voice_persona_id, name, COALESCE(description, ''), status, vocal_mode, duration_seconds, mix_settings, created_at, updated_at`

var emptySettings = json.RawMessage(`{}`)

func scanProject(row pgx.Row) (*domain.Project, error) {
	project := &domain.Project{}
	err := row.Scan(
		&project.ID,
		&project.UserID,
		&project.VoicePersonaID,
		&project.Name,
		&project.Description,
		&project.Status,
		&project.VocalMode,
		&project.DurationSeconds,
		&project.MixSettings,
		&project.CreatedAt,
		&project.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return project, nil
}

func (r *ProjectRepository) Create(ctx context.Context, project *domain.Project) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `
		INSERT INTO projects (id, user_id, voice_persona_id, name, description, status, vocal_mode, mix_settings, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

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
		project.MixSettings = emptySettings
	}
	now := time.Now()
	project.CreatedAt = now
	project.UpdatedAt = now

	_, err := r.db.Exec(ctx, query,
		project.ID,
		project.UserID,
		project.VoicePersonaID,
		project.Name,
		project.Description,
		project.Status,
		project.VocalMode,
		project.MixSettings,
		project.CreatedAt,
		project.UpdatedAt,
	)
	if err != nil {
		return storeError(err)
	}
	return nil
}

func (r *ProjectRepository) GetByID(ctx context.Context, userID, id uuid.UUID) (*domain.Project, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = $1 AND user_id = $2`
	project, err := scanProject(r.db.QueryRow(ctx, query, id, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storeError(err)
	}
	return project, nil
}

func (r *ProjectRepository) GetByUser(ctx context.Context, userID uuid.UUID, status domain.ProjectStatus, limit, offset int) ([]*domain.Project, int, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*queryTimeout)
	defer cancel()

	countQuery := `
		SELECT COUNT(*)
		FROM projects
		WHERE user_id = $1
		AND ($2 = '' OR status = $2)
	`

	baseQuery := `
		SELECT ` + projectColumns + `
		FROM projects
		WHERE user_id = $1
		AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`

	var total int
	if err := r.db.QueryRow(ctx, countQuery, userID, string(status)).Scan(&total); err != nil {
		return nil, 0, storeError(err)
	}

	rows, err := r.db.Query(ctx, baseQuery, userID, string(status), limit, offset)
	if err != nil {
		return nil, 0, storeError(err)
	}
	defer rows.Close()

	projects := make([]*domain.Project, 0)
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, 0, storeError(err)
		}
		projects = append(projects, project)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, storeError(err)
	}
	return projects, total, nil
}

// Update writes the mutable fields of project. It fails with
// domain.ErrProjectNotFound when the row is gone or owned by someone else.
func (r *ProjectRepository) Update(ctx context.Context, project *domain.Project) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `
		UPDATE projects
		SET voice_persona_id = $3, name = $4, description = $5, status = $6, vocal_mode = $7,
			mix_settings = $8, updated_at = $9
		WHERE id = $1 AND user_id = $2
	`

	if len(project.MixSettings) == 0 {
		project.MixSettings = emptySettings
	}
	project.UpdatedAt = time.Now()
	tag, err := r.db.Exec(ctx, query,
		project.ID,
		project.UserID,
		project.VoicePersonaID,
		project.Name,
		project.Description,
		project.Status,
		project.VocalMode,
		project.MixSettings,
		project.UpdatedAt,
	)
	if err != nil {
		return storeError(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrProjectNotFound
	}
	return nil
}

func (r *ProjectRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `DELETE FROM projects WHERE id = $1 AND user_id = $2`
	tag, err := r.db.Exec(ctx, query, id, userID)
	if err != nil {
		return storeError(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrProjectNotFound
	}
	return nil
}
