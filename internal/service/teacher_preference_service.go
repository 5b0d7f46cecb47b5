package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/engine"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

type teacherPreferenceRepository interface {
	List(ctx context.Context) ([]models.TeacherPreference, error)
	GetByTeacher(ctx context.Context, name string) (*models.TeacherPreference, error)
	Modify(ctx context.Context, name string, apply func(current *models.TeacherPreference) (*models.TeacherPreference, error)) (*models.TeacherPreference, error)
}

// TeacherPreferenceService handles preference logic.
type TeacherPreferenceService struct {
	repo      teacherPreferenceRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTeacherPreferenceService builds the service.
func NewTeacherPreferenceService(repo teacherPreferenceRepository, validate *validator.Validate, logger *zap.Logger) *TeacherPreferenceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeacherPreferenceService{
		repo:      repo,
		validator: registerTimetableValidations(validate),
		logger:    logger,
	}
}

// List returns every stored preference, sorted by teacher name.
func (s *TeacherPreferenceService) List(ctx context.Context) ([]engine.TeacherPreference, error) {
	store, err := s.Store(ctx)
	if err != nil {
		return nil, err
	}
	return store.All(), nil
}

// Get returns stored preferences or defaults.
func (s *TeacherPreferenceService) Get(ctx context.Context, name string) (*engine.TeacherPreference, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "teacher name is required")
	}
	pref, err := s.load(ctx, name)
	if err != nil {
		return nil, err
	}
	return &pref, nil
}

// Upsert merges the request into the teacher's preferences and stores the result. The read and
// the write share one repository transaction so concurrent updates do not drop each other's fields.
func (s *TeacherPreferenceService) Upsert(ctx context.Context, name string, req dto.TeacherPreferenceRequest) (*engine.TeacherPreference, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "teacher name is required")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid preference payload")
	}

	var updated engine.TeacherPreference
	_, err := s.repo.Modify(ctx, name, func(row *models.TeacherPreference) (*models.TeacherPreference, error) {
		current := engine.DefaultTeacherPreference(name)
		if row != nil {
			current = row.ToEngine()
		}
		updated = engine.NewPreferenceStore(current).Update(name, req.Update())
		payload, err := models.TeacherPreferenceFromEngine(updated)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid preference payload")
		}
		return payload, nil
	})
	if err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to upsert teacher preferences")
	}
	s.logger.Info("teacher preferences updated", zap.String("teacher", name), zap.Bool("enabled", updated.Enabled))
	return &updated, nil
}

// Store builds a preference store from every stored entry. Teachers without an entry get
// defaults on first lookup.
func (s *TeacherPreferenceService) Store(ctx context.Context) (*engine.PreferenceStore, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher preferences")
	}
	prefs := make([]engine.TeacherPreference, 0, len(rows))
	for _, row := range rows {
		prefs = append(prefs, row.ToEngine())
	}
	return engine.NewPreferenceStore(prefs...), nil
}

func (s *TeacherPreferenceService) load(ctx context.Context, name string) (engine.TeacherPreference, error) {
	row, err := s.repo.GetByTeacher(ctx, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return engine.DefaultTeacherPreference(name), nil
		}
		return engine.TeacherPreference{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher preferences")
	}
	// Stored zero limits read back as defaults.
	return engine.NewPreferenceStore(row.ToEngine()).Get(name), nil
}
