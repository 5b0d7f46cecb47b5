package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/engine"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

type infrastructureRepository interface {
	Get(ctx context.Context, id string) (*models.Infrastructure, error)
	Save(ctx context.Context, infra *models.Infrastructure) error
}

type preferenceStoreSource interface {
	Store(ctx context.Context) (*engine.PreferenceStore, error)
}

type resultCache interface {
	LookupResult(ctx context.Context, fingerprint string, seed int64) (*engine.Result, bool, error)
	StoreResult(ctx context.Context, fingerprint string, seed int64, result *engine.Result, ttl time.Duration) error
	InvalidateResults(ctx context.Context) error
}

// InfrastructureService manages the college infrastructure document.
type InfrastructureService struct {
	repo        infrastructureRepository
	prefs       preferenceStoreSource
	cache       resultCache
	validator   *validator.Validate
	logger      *zap.Logger
	workingDays int
}

// NewInfrastructureService constructs the service. workingDays is the default week length.
func NewInfrastructureService(repo infrastructureRepository, prefs preferenceStoreSource, cache resultCache, workingDays int, validate *validator.Validate, logger *zap.Logger) *InfrastructureService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InfrastructureService{
		repo:        repo,
		prefs:       prefs,
		cache:       cache,
		validator:   registerTimetableValidations(validate),
		logger:      logger,
		workingDays: workingDays,
	}
}

// Get returns the stored infrastructure.
func (s *InfrastructureService) Get(ctx context.Context) (*models.Infrastructure, error) {
	infra, err := s.repo.Get(ctx, models.DefaultInfrastructureID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "infrastructure not configured")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load infrastructure")
	}
	return infra, nil
}

// Save validates and replaces the infrastructure document. Structural problems the generator
// would reject are reported here as configuration errors.
func (s *InfrastructureService) Save(ctx context.Context, req dto.InfrastructureRequest) (*models.Infrastructure, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid infrastructure payload")
	}
	doc := req.Document()
	if err := checkDocument(doc); err != nil {
		return nil, err
	}

	infra := &models.Infrastructure{ID: models.DefaultInfrastructureID, Document: doc}
	if err := s.repo.Save(ctx, infra); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save infrastructure")
	}
	if s.cache != nil {
		_ = s.cache.InvalidateResults(ctx)
	}
	s.logger.Info("infrastructure saved",
		zap.Int("teachers", len(doc.Teachers)),
		zap.Int("rooms", len(doc.Rooms)),
		zap.Int("courses", len(doc.Courses)),
	)
	return infra, nil
}

// TimeSlots lays out the daily grid of the stored time settings.
func (s *InfrastructureService) TimeSlots(ctx context.Context) (*dto.TimeSlotsResponse, error) {
	infra, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}
	in := infra.Document.EngineInput(engine.WorkingDays(s.workingDays))
	slots, err := engine.GenerateTimeSlots(in.TimeSettings)
	if err != nil {
		return nil, configurationError(err)
	}
	return &dto.TimeSlotsResponse{TimeSettings: in.TimeSettings, TimeSlots: slots, Days: in.Days}, nil
}

// TeachingLoad reports the weekly hours each teacher is configured to teach.
func (s *InfrastructureService) TeachingLoad(ctx context.Context) (*engine.LoadReport, error) {
	infra, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}
	var store *engine.PreferenceStore
	if s.prefs != nil {
		store, err = s.prefs.Store(ctx)
		if err != nil {
			return nil, err
		}
	}
	report := engine.TeachingLoad(infra.Document.Courses, store)
	return &report, nil
}

// checkDocument runs the generator's structural checks and verifies that every teacher and
// named lab room is declared.
func checkDocument(doc models.InfrastructureDocument) error {
	if err := engine.ValidateCourses(doc.Courses); err != nil {
		return configurationError(err)
	}
	if _, err := engine.GenerateTimeSlots(doc.TimeSettings.WithDefaults()); err != nil {
		return configurationError(err)
	}

	teachers := make(map[string]struct{}, len(doc.Teachers))
	for _, t := range doc.Teachers {
		teachers[t] = struct{}{}
	}
	rooms := make(map[string]struct{}, len(doc.Rooms))
	for _, r := range doc.Rooms {
		rooms[r] = struct{}{}
	}

	var problems []string
	for _, course := range doc.Courses {
		for _, subj := range course.Subjects {
			if _, ok := teachers[subj.Teacher]; !ok {
				problems = append(problems, course.ID+"/"+subj.Name+": unknown teacher "+subj.Teacher)
			}
			if subj.HasElectivePairing() {
				if _, ok := teachers[subj.ElectiveTeacher]; !ok {
					problems = append(problems, course.ID+"/"+subj.Name+": unknown elective teacher "+subj.ElectiveTeacher)
				}
			}
			if subj.LabRoomNo != "" {
				if _, ok := rooms[subj.LabRoomNo]; !ok {
					problems = append(problems, course.ID+"/"+subj.Name+": unknown lab room "+subj.LabRoomNo)
				}
			}
		}
	}
	if len(problems) > 0 {
		return appErrors.Clone(appErrors.ErrValidation, strings.Join(problems, "; "))
	}
	return nil
}

func configurationError(err error) error {
	var cfgErr *engine.ConfigError
	if errors.As(err, &cfgErr) {
		return appErrors.Wrap(err, appErrors.ErrInvalidConfiguration.Code, appErrors.ErrInvalidConfiguration.Status, cfgErr.Message)
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to prepare timetable input")
}
