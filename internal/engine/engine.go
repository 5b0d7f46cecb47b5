package engine

import (
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Options tunes the search bounds.
type Options struct {
	// AttemptFactor scales the lecture attempt cap: days x slots x AttemptFactor.
	AttemptFactor int
	// TopCandidates is the window of ranked slots examined per lecture attempt.
	TopCandidates int
}

// DefaultOptions returns the standard search bounds.
func DefaultOptions() Options {
	return Options{AttemptFactor: 2, TopCandidates: 3}
}

func (o Options) normalized() Options {
	def := DefaultOptions()
	if o.AttemptFactor <= 0 {
		o.AttemptFactor = def.AttemptFactor
	}
	if o.TopCandidates <= 0 {
		o.TopCandidates = def.TopCandidates
	}
	return o
}

// Input is everything one generation pass consumes.
type Input struct {
	Teachers     []string     `json:"allTeachers" yaml:"allTeachers"`
	Rooms        []string     `json:"allRooms" yaml:"allRooms"`
	Courses      []Course     `json:"courses" yaml:"courses"`
	TimeSettings TimeSettings `json:"timeSettings" yaml:"timeSettings"`
	Days         []Day        `json:"days,omitempty" yaml:"days"`
}

// Engine allocates lab and lecture sessions onto the weekly grid. Passes are serialised; each
// pass works on a fresh ledger.
type Engine struct {
	mu     sync.Mutex
	prefs  *PreferenceStore
	logger *zap.Logger
	opts   Options
}

// New builds an engine. A nil store gets default preferences for every teacher.
func New(prefs *PreferenceStore, logger *zap.Logger, opts Options) *Engine {
	if prefs == nil {
		prefs = NewPreferenceStore()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{prefs: prefs, logger: logger, opts: opts.normalized()}
}

// Generate runs lab placement then lecture placement for every course and aggregates the
// sessions per course. A configuration error aborts the whole call.
func (e *Engine) Generate(in Input, rnd RandomSource) (*Result, error) {
	if err := ValidateCourses(in.Courses); err != nil {
		return nil, err
	}
	reg, err := NewRegistry(in.Teachers, in.Rooms, in.Days, in.TimeSettings.WithDefaults())
	if err != nil {
		return nil, err
	}
	if rnd == nil {
		rnd = NewSeededSource(time.Now().UnixNano())
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	started := time.Now()
	p := &pass{
		reg:      reg,
		ledger:   NewLedger(),
		prefs:    e.prefs,
		timeline: NewTeacherTimeline(in.TimeSettings.WithDefaults().LectureDuration),
		result:   newResult(in.Courses, reg, rnd.Seed()),
		rnd:      rnd,
		opts:     e.opts,
		logger:   e.logger,
	}

	e.logger.Info("generating timetables",
		zap.Int("courses", len(in.Courses)),
		zap.Int("slots", len(reg.Slots)),
		zap.Int("days", len(reg.Days)),
		zap.Int64("seed", rnd.Seed()),
	)

	for _, name := range unknownTeachers(reg, in.Courses) {
		e.logger.Warn("teacher missing from roster", zap.String("teacher", name))
	}

	for _, course := range in.Courses {
		p.placeLabs(course)
	}
	for _, course := range in.Courses {
		p.placeLectures(course)
	}

	e.logger.Info("timetables generated",
		zap.Int("sessions", len(p.result.Sessions())),
		zap.Int("warnings", len(p.result.Warnings)),
		zap.Duration("elapsed", time.Since(started)),
	)
	return p.result, nil
}

// pass is the mutable state of one generation run.
type pass struct {
	reg      *Registry
	ledger   *Ledger
	prefs    *PreferenceStore
	timeline *TeacherTimeline
	result   *Result
	rnd      RandomSource
	opts     Options
	logger   *zap.Logger
}

func (p *pass) emit(courseID string, s Session) {
	p.result.emit(courseID, s)
	p.timeline.Add(s)
}

func (p *pass) warn(w Warning) {
	p.result.Warnings = append(p.result.Warnings, w)
	p.logger.Warn("placement shortfall",
		zap.String("kind", string(w.Kind)),
		zap.String("course_id", w.CourseID),
		zap.String("subject", w.Subject),
		zap.Int("placed", w.Placed),
		zap.Int("required", w.Required),
		zap.String("message", w.Message),
	)
}

// unknownTeachers lists, once each and in first-seen order, the subject and elective teachers
// that the roster does not declare. They are still scheduled.
func unknownTeachers(reg *Registry, courses []Course) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(name string) {
		if strings.TrimSpace(name) == "" || reg.HasTeacher(name) {
			return
		}
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	for _, course := range courses {
		for _, subj := range course.Subjects {
			add(subj.Teacher)
			if subj.HasElectivePairing() {
				add(subj.ElectiveTeacher)
			}
		}
	}
	return out
}
