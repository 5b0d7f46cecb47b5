package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/engine"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/repository"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/jobs"
)

type runRepoStub struct {
	mu    sync.Mutex
	seq   int
	runs  map[string]*models.GenerationRun
	order []string
}

func newRunRepoStub() *runRepoStub {
	return &runRepoStub{runs: map[string]*models.GenerationRun{}}
}

func (r *runRepoStub) Create(ctx context.Context, run *models.GenerationRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if run.ID == "" {
		r.seq++
		run.ID = fmt.Sprintf("run-%d", r.seq)
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Date(2024, 1, 1, 0, 0, r.seq, 0, time.UTC)
	}
	cp := *run
	r.runs[run.ID] = &cp
	r.order = append(r.order, run.ID)
	return nil
}

func (r *runRepoStub) GetByID(ctx context.Context, id string) (*models.GenerationRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	run, ok := r.runs[id]
	if !ok {
		return nil, fmt.Errorf("get generation run: %w", sql.ErrNoRows)
	}
	cp := *run
	return &cp, nil
}

func (r *runRepoStub) Update(ctx context.Context, id string, params repository.UpdateRunParams) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	run, ok := r.runs[id]
	if !ok {
		return sql.ErrNoRows
	}
	if params.Status != nil {
		run.Status = *params.Status
	}
	if params.Result != nil {
		run.Result.JSONText = params.Result
		run.Result.Valid = true
	}
	if params.WarningCount != nil {
		run.WarningCount = *params.WarningCount
	}
	if params.SessionCount != nil {
		run.SessionCount = *params.SessionCount
	}
	if params.Error != nil {
		msg := *params.Error
		run.Error = &msg
	}
	if params.StartedAt != nil {
		run.StartedAt = params.StartedAt
	}
	if params.FinishedAt != nil {
		run.FinishedAt = params.FinishedAt
	}
	return nil
}

func (r *runRepoStub) List(ctx context.Context, filter models.RunFilter) ([]models.GenerationRun, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.GenerationRun
	for i := len(r.order) - 1; i >= 0; i-- {
		run := r.runs[r.order[i]]
		if filter.Status != "" && run.Status != filter.Status {
			continue
		}
		out = append(out, *run)
	}
	total := len(out)
	start := (filter.Page - 1) * filter.PageSize
	if start > len(out) {
		start = len(out)
	}
	end := start + filter.PageSize
	if end > len(out) {
		end = len(out)
	}
	return out[start:end], total, nil
}

func (r *runRepoStub) ListPending(ctx context.Context, limit int) ([]models.GenerationRun, error) {
	runs, _, err := r.List(ctx, models.RunFilter{Status: models.RunStatusPending, Page: 1, PageSize: limit})
	return runs, err
}

func (r *runRepoStub) get(id string) models.GenerationRun {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.runs[id]
}

type infraRepoStub struct {
	infra *models.Infrastructure
	saved int
}

func (r *infraRepoStub) Get(ctx context.Context, id string) (*models.Infrastructure, error) {
	if r.infra == nil {
		return nil, sql.ErrNoRows
	}
	cp := *r.infra
	return &cp, nil
}

func (r *infraRepoStub) Save(ctx context.Context, infra *models.Infrastructure) error {
	cp := *infra
	r.infra = &cp
	r.saved++
	return nil
}

type memoryCacheRepo struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemoryCacheRepo() *memoryCacheRepo {
	return &memoryCacheRepo{data: map[string][]byte{}}
}

func (m *memoryCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.data[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = raw
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	prefix := strings.TrimSuffix(pattern, "*")
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			delete(m.data, k)
		}
	}
	return nil
}

func (m *memoryCacheRepo) Ping(ctx context.Context) error { return nil }

type queueStub struct {
	jobs []jobs.Job
	err  error
}

func (q *queueStub) Enqueue(job jobs.Job) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

func (q *queueStub) Pending() int64 { return int64(len(q.jobs)) }

func sampleInfrastructure() dto.InfrastructureRequest {
	return dto.InfrastructureRequest{
		Teachers: []string{"Alice", "Bob"},
		Rooms:    []string{"101 (C)", "102 (C)", "Lab1 (L)"},
		Courses: []engine.Course{{
			ID:       "cse-3",
			Branch:   "CSE",
			Semester: "3",
			Subjects: []engine.Subject{
				{Name: "Maths", Teacher: "Alice", LecturesPerWeek: 3},
				{Name: "Physics", Teacher: "Bob", LecturesPerWeek: 2},
			},
		}},
	}
}

type timetableFixture struct {
	svc   *TimetableService
	runs  *runRepoStub
	infra *infraRepoStub
	prefs *prefRepoStub
	cache *memoryCacheRepo
}

func newTimetableFixture(t *testing.T) *timetableFixture {
	t.Helper()
	f := &timetableFixture{
		runs:  newRunRepoStub(),
		infra: &infraRepoStub{},
		prefs: newPrefRepoStub(),
		cache: newMemoryCacheRepo(),
	}
	metrics := NewMetricsService()
	cache := NewCacheService(f.cache, metrics, time.Minute, zap.NewNop(), true)
	prefSvc := NewTeacherPreferenceService(f.prefs, nil, zap.NewNop())
	f.svc = NewTimetableService(f.runs, f.infra, prefSvc, cache, metrics, TimetableConfig{
		Enabled:     true,
		WorkingDays: 5,
		Options:     engine.DefaultOptions(),
		ResultTTL:   time.Minute,
	}, nil, zap.NewNop())
	f.svc.now = func() time.Time { return time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC) }
	return f
}

func sessionCount(res *dto.GenerateTimetableResponse) int {
	total := 0
	for _, sched := range res.Schedules {
		total += len(sched.Classes)
	}
	return total
}

func TestTimetableServiceGenerateInline(t *testing.T) {
	f := newTimetableFixture(t)
	infra := sampleInfrastructure()
	seed := int64(7)

	res, err := f.svc.Generate(context.Background(), dto.GenerateTimetableRequest{Infrastructure: &infra, Seed: &seed})
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusCompleted, res.Status)
	assert.Equal(t, seed, res.Seed)
	assert.False(t, res.Cached)
	assert.Empty(t, res.Warnings)
	assert.Equal(t, 5, sessionCount(res))
	assert.Len(t, res.Days, 5)

	run := f.runs.get(res.RunID)
	assert.Equal(t, models.RunStatusCompleted, run.Status)
	assert.Equal(t, 5, run.SessionCount)
	assert.True(t, run.Result.Valid)
	assert.NotEmpty(t, run.Fingerprint)
	assert.NotNil(t, run.FinishedAt)
}

func TestTimetableServiceGenerateServesSeededResultFromCache(t *testing.T) {
	f := newTimetableFixture(t)
	infra := sampleInfrastructure()
	seed := int64(42)
	req := dto.GenerateTimetableRequest{Infrastructure: &infra, Seed: &seed}

	first, err := f.svc.Generate(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, f.cache.data, 1)

	second, err := f.svc.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.NotEqual(t, first.RunID, second.RunID)
	assert.Equal(t, first.Schedules, second.Schedules)
	assert.Equal(t, models.RunStatusCompleted, f.runs.get(second.RunID).Status)

	snapshot := f.svc.metrics.Snapshot()
	assert.Equal(t, uint64(1), snapshot.CacheHits)
	assert.Equal(t, uint64(1), snapshot.GenerationsTotal)
}

func TestTimetableServiceGenerateUsesStoredInfrastructure(t *testing.T) {
	f := newTimetableFixture(t)

	_, err := f.svc.Generate(context.Background(), dto.GenerateTimetableRequest{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))

	f.infra.infra = &models.Infrastructure{ID: models.DefaultInfrastructureID, Document: sampleInfrastructure().Document()}
	res, err := f.svc.Generate(context.Background(), dto.GenerateTimetableRequest{WorkingDays: 6})
	require.NoError(t, err)
	assert.Len(t, res.Days, 6)
	assert.Equal(t, engine.Saturday, res.Days[5])
}

func TestTimetableServiceGenerateRejectsConfiguration(t *testing.T) {
	f := newTimetableFixture(t)
	infra := sampleInfrastructure()
	infra.Courses[0].Batches = []string{"A", "B"}
	infra.Courses[0].Subjects = append(infra.Courses[0].Subjects, engine.Subject{
		Name: "Chemistry", Teacher: "Bob", RequiresLab: true, LabsPerWeek: 1,
	})

	_, err := f.svc.Generate(context.Background(), dto.GenerateTimetableRequest{Infrastructure: &infra})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInvalidConfiguration.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "Chemistry")
	assert.Empty(t, f.runs.runs)
}

func TestTimetableServiceGenerateDisabled(t *testing.T) {
	f := newTimetableFixture(t)
	f.svc.cfg.Enabled = false

	_, err := f.svc.Generate(context.Background(), dto.GenerateTimetableRequest{})
	assert.True(t, errors.Is(err, appErrors.ErrServiceUnavailable))
}

func TestTimetableServiceEnqueueAndHandleJob(t *testing.T) {
	f := newTimetableFixture(t)
	queue := &queueStub{}
	f.svc.AttachQueue(queue)
	infra := sampleInfrastructure()
	seed := int64(11)

	queued, err := f.svc.Enqueue(context.Background(), dto.GenerateTimetableRequest{Infrastructure: &infra, Seed: &seed})
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusPending, queued.Status)
	require.Len(t, queue.jobs, 1)
	assert.Equal(t, queued.RunID, queue.jobs[0].ID)
	assert.Equal(t, GenerationJobType, queue.jobs[0].Type)
	assert.Equal(t, int64(1), f.svc.metrics.Snapshot().QueueDepth)

	require.NoError(t, f.svc.HandleJob(context.Background(), queue.jobs[0]))
	run := f.runs.get(queued.RunID)
	assert.Equal(t, models.RunStatusCompleted, run.Status)
	assert.Equal(t, 5, run.SessionCount)
	assert.NotNil(t, run.StartedAt)

	// A duplicate delivery of a finished run is a no-op.
	require.NoError(t, f.svc.HandleJob(context.Background(), queue.jobs[0]))

	detail, err := f.svc.GetRun(context.Background(), queued.RunID)
	require.NoError(t, err)
	require.NotNil(t, detail.Result)
	assert.Equal(t, seed, detail.Result.Seed)
}

func TestTimetableServiceHandleJobFailsOnConfigurationError(t *testing.T) {
	f := newTimetableFixture(t)
	snap := runSnapshot{Input: engine.Input{
		Teachers: []string{"Alice"},
		Rooms:    []string{"101 (C)"},
		Courses:  []engine.Course{},
	}}
	payload, fingerprint, err := encodeSnapshot(snap)
	require.NoError(t, err)
	run := &models.GenerationRun{Status: models.RunStatusPending, Seed: 1, Fingerprint: fingerprint, Input: payload}
	require.NoError(t, f.runs.Create(context.Background(), run))

	require.NoError(t, f.svc.HandleJob(context.Background(), jobs.Job{ID: run.ID, Type: GenerationJobType}))
	stored := f.runs.get(run.ID)
	assert.Equal(t, models.RunStatusFailed, stored.Status)
	require.NotNil(t, stored.Error)
	assert.Contains(t, *stored.Error, "at least one course")
}

func TestTimetableServiceEnqueueQueueFull(t *testing.T) {
	f := newTimetableFixture(t)
	f.svc.AttachQueue(&queueStub{err: errors.New("queue timetable full")})
	infra := sampleInfrastructure()

	_, err := f.svc.Enqueue(context.Background(), dto.GenerateTimetableRequest{Infrastructure: &infra})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrServiceUnavailable))
	require.Len(t, f.runs.order, 1)
	assert.Equal(t, models.RunStatusFailed, f.runs.get(f.runs.order[0]).Status)
}

func TestTimetableServiceOnExhaustedAndRequeue(t *testing.T) {
	f := newTimetableFixture(t)
	queue := &queueStub{}
	f.svc.AttachQueue(queue)
	infra := sampleInfrastructure()

	first, err := f.svc.Enqueue(context.Background(), dto.GenerateTimetableRequest{Infrastructure: &infra})
	require.NoError(t, err)
	second, err := f.svc.Enqueue(context.Background(), dto.GenerateTimetableRequest{Infrastructure: &infra})
	require.NoError(t, err)

	f.svc.OnExhausted(jobs.Job{ID: first.RunID}, errors.New("database unavailable"))
	assert.Equal(t, models.RunStatusFailed, f.runs.get(first.RunID).Status)

	queue.jobs = nil
	count, err := f.svc.RequeuePending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	require.Len(t, queue.jobs, 1)
	assert.Equal(t, second.RunID, queue.jobs[0].ID)
}

func TestTimetableServiceSatisfaction(t *testing.T) {
	f := newTimetableFixture(t)
	enabled := true
	_, err := NewTeacherPreferenceService(f.prefs, nil, zap.NewNop()).Upsert(context.Background(), "Alice", dto.TeacherPreferenceRequest{
		PreferredDays: []engine.Day{engine.Monday, engine.Tuesday, engine.Wednesday, engine.Thursday, engine.Friday},
		Enabled:       &enabled,
	})
	require.NoError(t, err)

	infra := sampleInfrastructure()
	res, err := f.svc.Generate(context.Background(), dto.GenerateTimetableRequest{Infrastructure: &infra})
	require.NoError(t, err)

	report, err := f.svc.Satisfaction(context.Background(), res.RunID)
	require.NoError(t, err)
	require.Contains(t, report.Teachers, "Alice")
	alice := report.Teachers["Alice"]
	assert.Equal(t, 3, alice.TotalClasses)
	assert.Equal(t, 3, alice.PreferredDaysUsed)
	assert.Equal(t, 50, alice.SatisfactionScore)
	assert.NotContains(t, report.Teachers, "Bob")
}

func TestTimetableServiceSatisfactionRequiresCompletedRun(t *testing.T) {
	f := newTimetableFixture(t)
	run := &models.GenerationRun{Status: models.RunStatusPending}
	require.NoError(t, f.runs.Create(context.Background(), run))

	_, err := f.svc.Satisfaction(context.Background(), run.ID)
	assert.True(t, errors.Is(err, appErrors.ErrConflict))

	_, err = f.svc.GetRun(context.Background(), "missing")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestTimetableServiceListRuns(t *testing.T) {
	f := newTimetableFixture(t)
	for i := 0; i < 3; i++ {
		require.NoError(t, f.runs.Create(context.Background(), &models.GenerationRun{Status: models.RunStatusCompleted}))
	}
	require.NoError(t, f.runs.Create(context.Background(), &models.GenerationRun{Status: models.RunStatusFailed}))

	runs, page, err := f.svc.ListRuns(context.Background(), dto.RunListQuery{Status: "COMPLETED", PageSize: 2})
	require.NoError(t, err)
	assert.Len(t, runs, 2)
	assert.Equal(t, 3, page.TotalCount)
	assert.Equal(t, 1, page.Page)
	ids := []string{runs[0].ID, runs[1].ID}
	assert.True(t, sort.SliceIsSorted(ids, func(i, j int) bool { return ids[i] > ids[j] }))

	_, _, err = f.svc.ListRuns(context.Background(), dto.RunListQuery{Status: "DONE"})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

type brokenResultCache struct {
	stores int
}

func (b *brokenResultCache) LookupResult(ctx context.Context, fingerprint string, seed int64) (*engine.Result, bool, error) {
	return nil, false, nil
}

func (b *brokenResultCache) StoreResult(ctx context.Context, fingerprint string, seed int64, result *engine.Result, ttl time.Duration) error {
	b.stores++
	return errors.New("redis: connection refused")
}

func (b *brokenResultCache) InvalidateResults(ctx context.Context) error { return nil }

func TestTimetableServiceGenerateSurvivesCacheWriteFailure(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	cache := &brokenResultCache{}
	runs := newRunRepoStub()
	svc := NewTimetableService(runs, &infraRepoStub{}, nil, cache, NewMetricsService(), TimetableConfig{
		Enabled:     true,
		WorkingDays: 5,
		Options:     engine.DefaultOptions(),
		ResultTTL:   time.Minute,
	}, nil, zap.New(core))

	infra := sampleInfrastructure()
	seed := int64(3)
	res, err := svc.Generate(context.Background(), dto.GenerateTimetableRequest{Infrastructure: &infra, Seed: &seed})
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusCompleted, res.Status)
	assert.Equal(t, models.RunStatusCompleted, runs.get(res.RunID).Status)
	assert.Equal(t, 1, cache.stores)

	entries := logs.FilterMessage("result cache write failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "redis: connection refused", entries[0].ContextMap()["error"])
}
