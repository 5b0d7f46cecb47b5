package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

const teacherPreferenceColumns = `teacher_name, preferred_slots, blocked_slots, preferred_days, max_consecutive_classes, max_daily_classes, max_weekly_hours, subject_preferences, enabled, created_at, updated_at`

// TeacherPreferenceRepository persists teacher preferences.
type TeacherPreferenceRepository struct {
	db *sqlx.DB
}

// NewTeacherPreferenceRepository constructs the repository.
func NewTeacherPreferenceRepository(db *sqlx.DB) *TeacherPreferenceRepository {
	return &TeacherPreferenceRepository{db: db}
}

// List returns every stored preference ordered by teacher name.
func (r *TeacherPreferenceRepository) List(ctx context.Context) ([]models.TeacherPreference, error) {
	query := `SELECT ` + teacherPreferenceColumns + ` FROM teacher_preferences ORDER BY teacher_name`
	var prefs []models.TeacherPreference
	if err := r.db.SelectContext(ctx, &prefs, query); err != nil {
		return nil, fmt.Errorf("list teacher preferences: %w", err)
	}
	return prefs, nil
}

// GetByTeacher returns stored preferences for a teacher.
func (r *TeacherPreferenceRepository) GetByTeacher(ctx context.Context, name string) (*models.TeacherPreference, error) {
	query := `SELECT ` + teacherPreferenceColumns + ` FROM teacher_preferences WHERE teacher_name = $1`
	var pref models.TeacherPreference
	if err := r.db.GetContext(ctx, &pref, query, name); err != nil {
		return nil, err
	}
	return &pref, nil
}

// Modify runs a read-merge-write for one teacher in a single transaction. apply receives the
// stored row, or nil when the teacher has none, and returns the row to store. Writers for the
// same teacher are serialised, including when no row exists yet.
func (r *TeacherPreferenceRepository) Modify(ctx context.Context, name string, apply func(current *models.TeacherPreference) (*models.TeacherPreference, error)) (pref *models.TeacherPreference, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin teacher preference transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	// FOR UPDATE cannot lock a row that does not exist yet.
	if _, err = tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, name); err != nil {
		return nil, fmt.Errorf("lock teacher preference: %w", err)
	}

	var current *models.TeacherPreference
	var row models.TeacherPreference
	query := `SELECT ` + teacherPreferenceColumns + ` FROM teacher_preferences WHERE teacher_name = $1 FOR UPDATE`
	if err = tx.GetContext(ctx, &row, query, name); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("load teacher preference: %w", err)
		}
		err = nil
	} else {
		current = &row
	}

	if pref, err = apply(current); err != nil {
		return nil, err
	}
	if current != nil {
		pref.CreatedAt = current.CreatedAt
	}
	if err = upsertTeacherPreference(ctx, tx, pref); err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit teacher preference: %w", err)
	}
	return pref, nil
}

func upsertTeacherPreference(ctx context.Context, exec sqlx.ExtContext, pref *models.TeacherPreference) error {
	now := time.Now().UTC()
	if pref.CreatedAt.IsZero() {
		pref.CreatedAt = now
	}
	pref.UpdatedAt = now
	if len(pref.PreferredSlots) == 0 {
		pref.PreferredSlots = types.JSONText(`[]`)
	}
	if len(pref.BlockedSlots) == 0 {
		pref.BlockedSlots = types.JSONText(`[]`)
	}
	if len(pref.PreferredDays) == 0 {
		pref.PreferredDays = types.JSONText(`[]`)
	}
	if len(pref.SubjectPreferences) == 0 {
		pref.SubjectPreferences = types.JSONText(`{}`)
	}

	const query = `INSERT INTO teacher_preferences (teacher_name, preferred_slots, blocked_slots, preferred_days, max_consecutive_classes, max_daily_classes, max_weekly_hours, subject_preferences, enabled, created_at, updated_at)
		VALUES (:teacher_name, :preferred_slots, :blocked_slots, :preferred_days, :max_consecutive_classes, :max_daily_classes, :max_weekly_hours, :subject_preferences, :enabled, :created_at, :updated_at)
		ON CONFLICT (teacher_name) DO UPDATE
		SET preferred_slots = EXCLUDED.preferred_slots,
		    blocked_slots = EXCLUDED.blocked_slots,
		    preferred_days = EXCLUDED.preferred_days,
		    max_consecutive_classes = EXCLUDED.max_consecutive_classes,
		    max_daily_classes = EXCLUDED.max_daily_classes,
		    max_weekly_hours = EXCLUDED.max_weekly_hours,
		    subject_preferences = EXCLUDED.subject_preferences,
		    enabled = EXCLUDED.enabled,
		    updated_at = EXCLUDED.updated_at`
	if _, err := sqlx.NamedExecContext(ctx, exec, query, pref); err != nil {
		return fmt.Errorf("upsert teacher preference: %w", err)
	}
	return nil
}
