package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/bibee/backend/internal/domain"
)

type PersonaRepository struct {
	db DB
}

func NewPersonaRepository(db DB) *PersonaRepository {
	return &PersonaRepository{db: db}
}

const personaColumns = `id, user_id, name, COALESCE(description, ''), status, sample_paths, COALESCE(model_path, ''), created_at, updated_at`

func scanPersona(row pgx.Row) (*domain.VoicePersona, error) {
	persona := &domain.VoicePersona{}
	err := row.Scan(
		&persona.ID,
		&persona.UserID,
		&persona.Name,
		&persona.Description,
		&persona.Status,
		&persona.SamplePaths,
		&persona.ModelPath,
		&persona.CreatedAt,
		&persona.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if persona.SamplePaths == nil {
		persona.SamplePaths = []string{}
	}
	return persona, nil
}

func (r *PersonaRepository) Create(ctx context.Context, persona *domain.VoicePersona) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `
		INSERT INTO voice_personas (id, user_id, name, description, status, sample_paths, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

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

	_, err := r.db.Exec(ctx, query,
		persona.ID,
		persona.UserID,
		persona.Name,
		persona.Description,
		persona.Status,
		persona.SamplePaths,
		persona.CreatedAt,
		persona.UpdatedAt,
	)
	if err != nil {
		return storeError(err)
	}
	return nil
}

func (r *PersonaRepository) GetByID(ctx context.Context, userID, id uuid.UUID) (*domain.VoicePersona, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `SELECT ` + personaColumns + ` FROM voice_personas WHERE id = $1 AND user_id = $2`
	persona, err := scanPersona(r.db.QueryRow(ctx, query, id, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storeError(err)
	}
	return persona, nil
}

func (r *PersonaRepository) GetByUser(ctx context.Context, userID uuid.UUID, status domain.PersonaStatus, limit, offset int) ([]*domain.VoicePersona, int, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*queryTimeout)
	defer cancel()

	countQuery := `
		SELECT COUNT(*)
		FROM voice_personas
		WHERE user_id = $1
		AND ($2 = '' OR status = $2)
	`

	baseQuery := `
		SELECT ` + personaColumns + `
		FROM voice_personas
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

	personas := make([]*domain.VoicePersona, 0)
	for rows.Next() {
		persona, err := scanPersona(rows)
		if err != nil {
			return nil, 0, storeError(err)
		}
		personas = append(personas, persona)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, storeError(err)
	}
	return personas, total, nil
}

// Update writes the mutable fields of persona. It fails with
// domain.ErrPersonaNotFound when the row is gone or owned by someone else.
func (r *PersonaRepository) Update(ctx context.Context, persona *domain.VoicePersona) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `
		UPDATE voice_personas
		SET name = $3, description = $4, status = $5, sample_paths = $6, updated_at = $7
		WHERE id = $1 AND user_id = $2
	`

	persona.UpdatedAt = time.Now()
	tag, err := r.db.Exec(ctx, query,
		persona.ID,
		persona.UserID,
		persona.Name,
		persona.Description,
		persona.Status,
		persona.SamplePaths,
		persona.UpdatedAt,
	)
	if err != nil {
		return storeError(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPersonaNotFound
	}
	return nil
}

func (r *PersonaRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `DELETE FROM voice_personas WHERE id = $1 AND user_id = $2`
	tag, err := r.db.Exec(ctx, query, id, userID)
	if err != nil {
		return storeError(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPersonaNotFound
	}
	return nil
}
