package service

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/engine"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/repository"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/jobs"
	applog "github.com/noah-isme/sma-timetable-api/pkg/logger"
)

// GenerationJobType tags queued generation jobs.
const GenerationJobType = "timetable.generate"

const requeueBatch = 100

type generationRunRepository interface {
	Create(ctx context.Context, run *models.GenerationRun) error
	GetByID(ctx context.Context, id string) (*models.GenerationRun, error)
	Update(ctx context.Context, id string, params repository.UpdateRunParams) error
	List(ctx context.Context, filter models.RunFilter) ([]models.GenerationRun, int, error)
	ListPending(ctx context.Context, limit int) ([]models.GenerationRun, error)
}

type jobQueue interface {
	Enqueue(job jobs.Job) error
	Pending() int64
}

// TimetableConfig tunes generation.
type TimetableConfig struct {
	Enabled     bool
	WorkingDays int
	Options     engine.Options
	ResultTTL   time.Duration
}

// runSnapshot is everything a pass consumes. It is stored with the run so queued passes
// replay exactly what was requested.
type runSnapshot struct {
	Input       engine.Input               `json:"input"`
	Preferences []engine.TeacherPreference `json:"preferences"`
}

// TimetableService runs generation passes and keeps their history.
type TimetableService struct {
	runs      generationRunRepository
	infra     infrastructureRepository
	prefs     preferenceStoreSource
	cache     resultCache
	metrics   *MetricsService
	queue     jobQueue
	validator *validator.Validate
	logger    *zap.Logger
	cfg       TimetableConfig

	now     func() time.Time
	newSeed func() int64
}

// NewTimetableService constructs the service. The queue is attached separately because its
// handler is the service itself.
func NewTimetableService(runs generationRunRepository, infra infrastructureRepository, prefs preferenceStoreSource, cache resultCache, metrics *MetricsService, cfg TimetableConfig, validate *validator.Validate, logger *zap.Logger) *TimetableService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.WorkingDays != 6 {
		cfg.WorkingDays = 5
	}
	return &TimetableService{
		runs:      runs,
		infra:     infra,
		prefs:     prefs,
		cache:     cache,
		metrics:   metrics,
		validator: registerTimetableValidations(validate),
		logger:    logger,
		cfg:       cfg,
		now:       func() time.Time { return time.Now().UTC() },
		newSeed:   func() int64 { return time.Now().UnixNano() },
	}
}

// AttachQueue wires the queue used by Enqueue.
func (s *TimetableService) AttachQueue(q jobQueue) {
	s.queue = q
	if q != nil {
		s.metrics.WatchQueue(q.Pending)
	}
}

// Generate runs one pass synchronously. A seeded request whose input was generated before
// is answered from the result cache.
func (s *TimetableService) Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.GenerateTimetableResponse, error) {
	if !s.cfg.Enabled {
		return nil, appErrors.Clone(appErrors.ErrServiceUnavailable, "timetable generation is disabled")
	}
	snap, err := s.prepare(ctx, req)
	if err != nil {
		return nil, err
	}
	payload, fingerprint, err := encodeSnapshot(snap)
	if err != nil {
		return nil, err
	}
	seed, seeded := s.seedFor(req)

	if seeded && s.cache != nil {
		cached, hit, err := s.cache.LookupResult(ctx, fingerprint, seed)
		if err != nil {
			s.logger.Warn("result cache unavailable", zap.Error(err))
		}
		if hit {
			return s.recordCached(ctx, payload, fingerprint, seed, cached)
		}
	}

	started := s.now()
	run := &models.GenerationRun{
		Status:      models.RunStatusRunning,
		Seed:        seed,
		Fingerprint: fingerprint,
		Input:       payload,
		StartedAt:   &started,
	}
	if err := s.runs.Create(ctx, run); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record generation run")
	}

	result, err := s.execute(ctx, run, snap)
	if err != nil {
		return nil, err
	}
	return newGenerateResponse(run.ID, models.RunStatusCompleted, false, result), nil
}

// Enqueue stores a pending run and hands it to the generation queue.
func (s *TimetableService) Enqueue(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.EnqueueTimetableResponse, error) {
	if !s.cfg.Enabled {
		return nil, appErrors.Clone(appErrors.ErrServiceUnavailable, "timetable generation is disabled")
	}
	if s.queue == nil {
		return nil, appErrors.Clone(appErrors.ErrServiceUnavailable, "generation queue is not running")
	}
	snap, err := s.prepare(ctx, req)
	if err != nil {
		return nil, err
	}
	payload, fingerprint, err := encodeSnapshot(snap)
	if err != nil {
		return nil, err
	}
	seed, _ := s.seedFor(req)

	run := &models.GenerationRun{
		Status:      models.RunStatusPending,
		Seed:        seed,
		Fingerprint: fingerprint,
		Input:       payload,
	}
	if err := s.runs.Create(ctx, run); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record generation run")
	}
	if err := s.queue.Enqueue(jobs.Job{ID: run.ID, Type: GenerationJobType, Payload: run.ID}); err != nil {
		s.fail(ctx, run.ID, err)
		return nil, appErrors.Wrap(err, appErrors.ErrServiceUnavailable.Code, appErrors.ErrServiceUnavailable.Status, "generation queue is full")
	}
	s.logger.Info("generation run queued", zap.String("run_id", run.ID), zap.Int64("seed", seed))
	return &dto.EnqueueTimetableResponse{RunID: run.ID, Status: run.Status, Seed: seed}, nil
}

// HandleJob processes a queued run. Configuration errors fail the run without a retry;
// persistence errors are returned so the queue retries.
func (s *TimetableService) HandleJob(ctx context.Context, job jobs.Job) error {
	run, err := s.runs.GetByID(ctx, job.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("queued run disappeared", zap.String("run_id", job.ID))
			return nil
		}
		return err
	}
	if run.Status == models.RunStatusCompleted || run.Status == models.RunStatusFailed {
		return nil
	}

	var snap runSnapshot
	if err := json.Unmarshal(run.Input, &snap); err != nil {
		s.fail(ctx, run.ID, err)
		return nil
	}

	started := s.now()
	status := models.RunStatusRunning
	if err := s.runs.Update(ctx, run.ID, repository.UpdateRunParams{Status: &status, StartedAt: &started}); err != nil {
		return err
	}

	if _, err := s.execute(ctx, run, snap); err != nil {
		if errors.Is(err, appErrors.ErrInvalidConfiguration) {
			return nil
		}
		return err
	}
	return nil
}

// OnExhausted marks a run failed once the queue gives up on it.
func (s *TimetableService) OnExhausted(job jobs.Job, cause error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.fail(ctx, job.ID, cause)
}

// RequeuePending re-enqueues runs left pending by a previous process.
func (s *TimetableService) RequeuePending(ctx context.Context) (int, error) {
	if s.queue == nil {
		return 0, nil
	}
	runs, err := s.runs.ListPending(ctx, requeueBatch)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, run := range runs {
		if err := s.queue.Enqueue(jobs.Job{ID: run.ID, Type: GenerationJobType, Payload: run.ID}); err != nil {
			s.logger.Warn("failed to requeue pending run", zap.String("run_id", run.ID), zap.Error(err))
			break
		}
		count++
	}
	return count, nil
}

// GetRun returns a run with its decoded result.
func (s *TimetableService) GetRun(ctx context.Context, id string) (*dto.RunDetail, error) {
	run, err := s.runs.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "generation run not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load generation run")
	}
	detail := &dto.RunDetail{GenerationRun: *run}
	if run.Result.Valid && len(run.Result.JSONText) > 0 {
		var result engine.Result
		if err := run.Result.JSONText.Unmarshal(&result); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to decode generation result")
		}
		detail.Result = &result
	}
	return detail, nil
}

// ListRuns pages through runs, newest first.
func (s *TimetableService) ListRuns(ctx context.Context, query dto.RunListQuery) ([]models.GenerationRun, *models.Pagination, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid run filter")
	}
	filter := models.RunFilter{Status: models.RunStatus(query.Status), Page: query.Page, PageSize: query.PageSize}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	runs, total, err := s.runs.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list generation runs")
	}
	return runs, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// Satisfaction grades a completed run against the preferences it was generated with.
func (s *TimetableService) Satisfaction(ctx context.Context, id string) (*dto.SatisfactionResponse, error) {
	detail, err := s.GetRun(ctx, id)
	if err != nil {
		return nil, err
	}
	if detail.Status != models.RunStatusCompleted || detail.Result == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "generation run has not completed")
	}
	var snap runSnapshot
	if err := json.Unmarshal(detail.Input, &snap); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to decode generation input")
	}
	store := engine.NewPreferenceStore(snap.Preferences...)
	return &dto.SatisfactionResponse{
		RunID:    detail.ID,
		Teachers: engine.SatisfactionReport(store, detail.Result.Sessions()),
	}, nil
}

func (s *TimetableService) prepare(ctx context.Context, req dto.GenerateTimetableRequest) (runSnapshot, error) {
	if err := s.validator.Struct(req); err != nil {
		return runSnapshot{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid generation payload")
	}

	var doc models.InfrastructureDocument
	if req.Infrastructure != nil {
		doc = req.Infrastructure.Document()
		if err := checkDocument(doc); err != nil {
			return runSnapshot{}, err
		}
	} else {
		infra, err := s.infra.Get(ctx, models.DefaultInfrastructureID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return runSnapshot{}, appErrors.Clone(appErrors.ErrNotFound, "infrastructure not configured")
			}
			return runSnapshot{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load infrastructure")
		}
		doc = infra.Document
	}

	in := doc.EngineInput(engine.WorkingDays(s.cfg.WorkingDays))
	if req.WorkingDays != 0 {
		in.Days = engine.WorkingDays(req.WorkingDays)
	}

	snap := runSnapshot{Input: in, Preferences: []engine.TeacherPreference{}}
	if s.prefs != nil {
		store, err := s.prefs.Store(ctx)
		if err != nil {
			return runSnapshot{}, err
		}
		snap.Preferences = store.All()
	}
	return snap, nil
}

// execute runs the engine for a recorded run and stores the outcome.
func (s *TimetableService) execute(ctx context.Context, run *models.GenerationRun, snap runSnapshot) (*engine.Result, error) {
	log := applog.ForRun(s.logger, run.ID, run.Seed)
	eng := engine.New(engine.NewPreferenceStore(snap.Preferences...), log, s.cfg.Options)

	started := time.Now()
	result, err := eng.Generate(snap.Input, engine.NewSeededSource(run.Seed))
	elapsed := time.Since(started)
	if err != nil {
		s.metrics.ObserveGeneration(GenerationFailed, elapsed, nil)
		log.Warn("generation rejected", zap.Error(err))
		s.fail(ctx, run.ID, err)
		return nil, configurationError(err)
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode generation result")
	}
	finished := s.now()
	status := models.RunStatusCompleted
	warnings := len(result.Warnings)
	sessions := len(result.Sessions())
	if err := s.runs.Update(ctx, run.ID, repository.UpdateRunParams{
		Status:       &status,
		Result:       payload,
		WarningCount: &warnings,
		SessionCount: &sessions,
		FinishedAt:   &finished,
	}); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store generation result")
	}

	s.metrics.ObserveGeneration(GenerationCompleted, elapsed, result.Warnings)
	if s.cache != nil {
		if err := s.cache.StoreResult(ctx, run.Fingerprint, run.Seed, result, s.cfg.ResultTTL); err != nil {
			log.Warn("result cache write failed", zap.Error(err))
		}
	}
	return result, nil
}

func (s *TimetableService) recordCached(ctx context.Context, payload []byte, fingerprint string, seed int64, result *engine.Result) (*dto.GenerateTimetableResponse, error) {
	encoded, err := json.Marshal(result)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode generation result")
	}
	now := s.now()
	run := &models.GenerationRun{
		Status:       models.RunStatusCompleted,
		Seed:         seed,
		Fingerprint:  fingerprint,
		Input:        payload,
		WarningCount: len(result.Warnings),
		SessionCount: len(result.Sessions()),
		StartedAt:    &now,
		FinishedAt:   &now,
	}
	run.Result.JSONText = encoded
	run.Result.Valid = true
	if err := s.runs.Create(ctx, run); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record generation run")
	}
	s.metrics.ObserveGeneration(GenerationCached, 0, nil)
	return newGenerateResponse(run.ID, run.Status, true, result), nil
}

func (s *TimetableService) fail(ctx context.Context, id string, cause error) {
	status := models.RunStatusFailed
	msg := cause.Error()
	finished := s.now()
	if err := s.runs.Update(ctx, id, repository.UpdateRunParams{Status: &status, Error: &msg, FinishedAt: &finished}); err != nil {
		s.logger.Error("failed to mark run failed", zap.String("run_id", id), zap.Error(err))
	}
}

func (s *TimetableService) seedFor(req dto.GenerateTimetableRequest) (int64, bool) {
	if req.Seed != nil {
		return *req.Seed, true
	}
	return s.newSeed(), false
}

// encodeSnapshot returns the stored form of the snapshot and its sha256 fingerprint.
func encodeSnapshot(snap runSnapshot) ([]byte, string, error) {
	payload, err := json.Marshal(snap)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode generation input")
	}
	sum := sha256.Sum256(payload)
	return payload, hex.EncodeToString(sum[:]), nil
}

func newGenerateResponse(runID string, status models.RunStatus, cached bool, result *engine.Result) *dto.GenerateTimetableResponse {
	return &dto.GenerateTimetableResponse{
		RunID:     runID,
		Status:    status,
		Seed:      result.Seed,
		Cached:    cached,
		Schedules: result.Schedules,
		Warnings:  result.Warnings,
		TimeSlots: result.TimeSlots,
		Days:      result.Days,
	}
}
