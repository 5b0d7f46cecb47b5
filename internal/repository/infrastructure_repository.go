package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// InfrastructureRepository persists the college infrastructure document.
type InfrastructureRepository struct {
	db *sqlx.DB
}

// NewInfrastructureRepository constructs the repository.
func NewInfrastructureRepository(db *sqlx.DB) *InfrastructureRepository {
	return &InfrastructureRepository{db: db}
}

// Get returns the stored document; a missing row wraps sql.ErrNoRows.
func (r *InfrastructureRepository) Get(ctx context.Context, id string) (*models.Infrastructure, error) {
	const query = `SELECT id, document, updated_at FROM college_infrastructure WHERE id = $1`
	var infra models.Infrastructure
	if err := r.db.GetContext(ctx, &infra, query, id); err != nil {
		return nil, fmt.Errorf("get infrastructure: %w", err)
	}
	return &infra, nil
}

// Save replaces the stored document.
func (r *InfrastructureRepository) Save(ctx context.Context, infra *models.Infrastructure) error {
	if infra.ID == "" {
		infra.ID = models.DefaultInfrastructureID
	}
	infra.UpdatedAt = time.Now().UTC()

	const query = `INSERT INTO college_infrastructure (id, document, updated_at)
		VALUES (:id, :document, :updated_at)
		ON CONFLICT (id) DO UPDATE
		SET document = EXCLUDED.document,
		    updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, infra); err != nil {
		return fmt.Errorf("save infrastructure: %w", err)
	}
	return nil
}
