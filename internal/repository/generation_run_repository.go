package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

const generationRunColumns = `id, status, seed, fingerprint, input, result, warning_count, session_count, error, created_at, started_at, finished_at`

// GenerationRunRepository persists timetable generation runs.
type GenerationRunRepository struct {
	db *sqlx.DB
}

// NewGenerationRunRepository constructs the repository.
func NewGenerationRunRepository(db *sqlx.DB) *GenerationRunRepository {
	return &GenerationRunRepository{db: db}
}

// Create inserts a run row with generated defaults.
func (r *GenerationRunRepository) Create(ctx context.Context, run *models.GenerationRun) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.Status == "" {
		run.Status = models.RunStatusPending
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO timetable_generation_runs (` + generationRunColumns + `)
VALUES (:id, :status, :seed, :fingerprint, :input, :result, :warning_count, :session_count, :error, :created_at, :started_at, :finished_at)`
	if _, err := r.db.NamedExecContext(ctx, query, run); err != nil {
		return fmt.Errorf("create generation run: %w", err)
	}
	return nil
}

// GetByID returns a run by identifier.
func (r *GenerationRunRepository) GetByID(ctx context.Context, id string) (*models.GenerationRun, error) {
	const query = `SELECT ` + generationRunColumns + ` FROM timetable_generation_runs WHERE id = $1`
	var run models.GenerationRun
	if err := r.db.GetContext(ctx, &run, query, id); err != nil {
		return nil, fmt.Errorf("get generation run: %w", err)
	}
	return &run, nil
}

// UpdateRunParams defines the mutable fields of a run.
type UpdateRunParams struct {
	Status       *models.RunStatus
	Result       []byte
	WarningCount *int
	SessionCount *int
	Error        *string
	StartedAt    *time.Time
	FinishedAt   *time.Time
}

// Update persists the provided changes.
func (r *GenerationRunRepository) Update(ctx context.Context, id string, params UpdateRunParams) error {
	set := make([]string, 0, 7)
	args := make([]interface{}, 0, 8)
	add := func(column string, value interface{}) {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if params.Status != nil {
		add("status", string(*params.Status))
	}
	if params.Result != nil {
		add("result", params.Result)
	}
	if params.WarningCount != nil {
		add("warning_count", *params.WarningCount)
	}
	if params.SessionCount != nil {
		add("session_count", *params.SessionCount)
	}
	if params.Error != nil {
		add("error", *params.Error)
	}
	if params.StartedAt != nil {
		add("started_at", *params.StartedAt)
	}
	if params.FinishedAt != nil {
		add("finished_at", *params.FinishedAt)
	}
	if len(set) == 0 {
		return nil
	}

	args = append(args, id)
	query := fmt.Sprintf("UPDATE timetable_generation_runs SET %s WHERE id = $%d", strings.Join(set, ", "), len(args))
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update generation run: %w", err)
	}
	return nil
}

// List returns a page of runs without their payload columns, newest first, with the total count.
func (r *GenerationRunRepository) List(ctx context.Context, filter models.RunFilter) ([]models.GenerationRun, int, error) {
	page, size := filter.Page, filter.PageSize
	if page <= 0 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}

	where := ""
	args := []interface{}{}
	if filter.Status != "" {
		where = " WHERE status = $1"
		args = append(args, string(filter.Status))
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM timetable_generation_runs"+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count generation runs: %w", err)
	}

	query := fmt.Sprintf(`SELECT id, status, seed, fingerprint, warning_count, session_count, error, created_at, started_at, finished_at
FROM timetable_generation_runs%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, where, len(args)+1, len(args)+2)
	args = append(args, size, (page-1)*size)

	var runs []models.GenerationRun
	if err := r.db.SelectContext(ctx, &runs, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list generation runs: %w", err)
	}
	return runs, total, nil
}

// ListPending fetches runs that never left PENDING, used to re-enqueue on start.
func (r *GenerationRunRepository) ListPending(ctx context.Context, limit int) ([]models.GenerationRun, error) {
	if limit <= 0 {
		limit = 20
	}
	const query = `SELECT ` + generationRunColumns + ` FROM timetable_generation_runs WHERE status = 'PENDING' ORDER BY created_at ASC LIMIT $1`
	var runs []models.GenerationRun
	if err := r.db.SelectContext(ctx, &runs, query, limit); err != nil {
		return nil, fmt.Errorf("list pending generation runs: %w", err)
	}
	return runs, nil
}
