package resources

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hockey-club/backend/internal/models"
)

// Repository handles club document metadata persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a resources repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const resourceColumns = `id, title, file_key, content_type, size_bytes, uploaded_by, created_at`

// List returns all resources, newest first.
func (r *Repository) List(ctx context.Context) ([]models.Resource, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+resourceColumns+` FROM resources ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Resource
	for rows.Next() {
		var res models.Resource
		if err := rows.Scan(&res.ID, &res.Title, &res.FileKey, &res.ContentType, &res.SizeBytes, &res.UploadedBy, &res.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, res)
	}
	return list, rows.Err()
}

// GetByID returns a resource by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Resource, error) {
	var res models.Resource
	err := r.pool.QueryRow(ctx, `SELECT `+resourceColumns+` FROM resources WHERE id = $1`, id).
		Scan(&res.ID, &res.Title, &res.FileKey, &res.ContentType, &res.SizeBytes, &res.UploadedBy, &res.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// Create inserts resource metadata. The ID is assigned by the caller so the
// object key can embed it before the row exists.
func (r *Repository) Create(ctx context.Context, res *models.Resource) error {
	const q = `INSERT INTO resources (id, title, file_key, content_type, size_bytes, uploaded_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`
	return r.pool.QueryRow(ctx, q, res.ID, res.Title, res.FileKey, res.ContentType, res.SizeBytes, res.UploadedBy).
		Scan(&res.CreatedAt)
}

// Delete removes resource metadata.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM resources WHERE id = $1`, id)
	return err
}
