package topics

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hockey-club/backend/internal/models"
)

// Repository handles topic persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a topics repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const topicColumns = `id, name, color, description, active, created_at, updated_at`

// List returns topics, optionally restricted to active ones.
func (r *Repository) List(ctx context.Context, activeOnly bool) ([]models.Topic, error) {
	q := `SELECT ` + topicColumns + ` FROM topics ORDER BY name`
	if activeOnly {
		q = `SELECT ` + topicColumns + ` FROM topics WHERE active ORDER BY name`
	}
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Topic
	for rows.Next() {
		var t models.Topic
		if err := rows.Scan(&t.ID, &t.Name, &t.Color, &t.Description, &t.Active, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

// GetByID returns a topic by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Topic, error) {
	var t models.Topic
	err := r.pool.QueryRow(ctx, `SELECT `+topicColumns+` FROM topics WHERE id = $1`, id).
		Scan(&t.ID, &t.Name, &t.Color, &t.Description, &t.Active, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Create inserts a topic.
func (r *Repository) Create(ctx context.Context, t *models.Topic) error {
	const q = `INSERT INTO topics (id, name, color, description, active)
		VALUES (gen_random_uuid(), $1, $2, $3, $4)
		RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, t.Name, t.Color, t.Description, t.Active).
		Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
}

// Update saves changes to a topic.
func (r *Repository) Update(ctx context.Context, t *models.Topic) error {
	const q = `UPDATE topics SET name = $2, color = $3, description = $4, active = $5, updated_at = now()
		WHERE id = $1
		RETURNING updated_at`
	return r.pool.QueryRow(ctx, q, t.ID, t.Name, t.Color, t.Description, t.Active).
		Scan(&t.UpdatedAt)
}

// Delete removes a topic. Events referencing it keep running with a null
// topic via ON DELETE SET NULL.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM topics WHERE id = $1`, id)
	return err
}
