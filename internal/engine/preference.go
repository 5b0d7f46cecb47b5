package engine

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Preference defaults applied when a teacher has no stored entry.
const (
	DefaultMaxConsecutiveClasses = 3
	DefaultMaxDailyClasses       = 5
	DefaultMaxWeeklyHours        = 18
	NeutralSubjectScore          = 5

	// BlockedSlotScore effectively rejects a slot when used as a ranking score.
	BlockedSlotScore = -9999

	preferredSlotBonus = 30
	preferredDayBonus  = 15
	subjectScoreWeight = 2
)

// TeacherPreference holds the soft and hard constraints of one teacher. Slot keys have the
// form "<Day> <HH:MM>", for example "Monday 09:00".
type TeacherPreference struct {
	Name                  string         `json:"name" yaml:"name"`
	PreferredSlots        []string       `json:"preferredSlots" yaml:"preferredSlots"`
	BlockedSlots          []string       `json:"blockedSlots" yaml:"blockedSlots"`
	PreferredDays         []Day          `json:"preferredDays" yaml:"preferredDays"`
	MaxConsecutiveClasses int            `json:"maxConsecutiveClasses" yaml:"maxConsecutiveClasses"`
	MaxDailyClasses       int            `json:"maxDailyClasses" yaml:"maxDailyClasses"`
	MaxWeeklyHours        int            `json:"maxWeeklyHours" yaml:"maxWeeklyHours"`
	SubjectPreferences    map[string]int `json:"subjectPreferences" yaml:"subjectPreferences"`
	Enabled               bool           `json:"enabled" yaml:"enabled"`
}

// DefaultTeacherPreference returns the neutral preference set for a teacher.
func DefaultTeacherPreference(name string) TeacherPreference {
	return TeacherPreference{
		Name:                  name,
		PreferredSlots:        []string{},
		BlockedSlots:          []string{},
		PreferredDays:         []Day{},
		MaxConsecutiveClasses: DefaultMaxConsecutiveClasses,
		MaxDailyClasses:       DefaultMaxDailyClasses,
		MaxWeeklyHours:        DefaultMaxWeeklyHours,
		SubjectPreferences:    map[string]int{},
		Enabled:               true,
	}
}

// SlotKey builds the "<Day> <HH:MM>" key used in preferred and blocked slot lists.
func SlotKey(day Day, start string) string {
	return string(day) + " " + start
}

// ParseSlotKey splits a "<Day> <HH:MM>" key. The day must be one of the six working days.
func ParseSlotKey(key string) (Day, string, error) {
	parts := strings.Fields(key)
	if len(parts) != 2 {
		return "", "", fmt.Errorf("slot key %q must look like \"Monday 09:00\"", key)
	}
	day := Day(parts[0])
	if !IsWorkingDay(day) {
		return "", "", fmt.Errorf("slot key %q: unknown day %q", key, parts[0])
	}
	mins, err := ParseClock(parts[1])
	if err != nil {
		return "", "", err
	}
	return day, FormatClock(mins), nil
}

// PreferenceUpdate carries a partial update; nil fields are left untouched.
type PreferenceUpdate struct {
	PreferredSlots        []string
	BlockedSlots          []string
	PreferredDays         []Day
	MaxConsecutiveClasses *int
	MaxDailyClasses       *int
	MaxWeeklyHours        *int
	SubjectPreferences    map[string]int
	Enabled               *bool
}

// PreferenceStore keeps teacher preferences across generation passes.
type PreferenceStore struct {
	mu    sync.RWMutex
	items map[string]*TeacherPreference
}

// NewPreferenceStore returns a store seeded with the given preferences.
func NewPreferenceStore(prefs ...TeacherPreference) *PreferenceStore {
	s := &PreferenceStore{items: make(map[string]*TeacherPreference)}
	s.Load(prefs)
	return s
}

// Load replaces or adds the given entries.
func (s *PreferenceStore) Load(prefs []TeacherPreference) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range prefs {
		cp := normalizePreference(p)
		s.items[cp.Name] = &cp
	}
}

// Get returns a copy of the teacher's preferences, creating the default entry on first lookup.
func (s *PreferenceStore) Get(name string) TeacherPreference {
	return clonePreference(s.lookup(name))
}

// Put stores the preferences for pref.Name.
func (s *PreferenceStore) Put(pref TeacherPreference) {
	s.Load([]TeacherPreference{pref})
}

// Update merges a partial update into the stored entry and returns the result. Stored entries
// are never mutated in place; the merged entry replaces the old pointer so readers holding it
// keep a consistent view.
func (s *PreferenceStore) Update(name string, upd PreferenceUpdate) TeacherPreference {
	s.mu.Lock()
	defer s.mu.Unlock()
	var next TeacherPreference
	if current, ok := s.items[name]; ok {
		next = clonePreference(current)
	} else {
		next = DefaultTeacherPreference(name)
	}
	pref := &next
	if upd.PreferredSlots != nil {
		pref.PreferredSlots = append([]string(nil), upd.PreferredSlots...)
	}
	if upd.BlockedSlots != nil {
		pref.BlockedSlots = append([]string(nil), upd.BlockedSlots...)
	}
	if upd.PreferredDays != nil {
		pref.PreferredDays = append([]Day(nil), upd.PreferredDays...)
	}
	if upd.MaxConsecutiveClasses != nil {
		pref.MaxConsecutiveClasses = *upd.MaxConsecutiveClasses
	}
	if upd.MaxDailyClasses != nil {
		pref.MaxDailyClasses = *upd.MaxDailyClasses
	}
	if upd.MaxWeeklyHours != nil {
		pref.MaxWeeklyHours = *upd.MaxWeeklyHours
	}
	if upd.SubjectPreferences != nil {
		pref.SubjectPreferences = make(map[string]int, len(upd.SubjectPreferences))
		for k, v := range upd.SubjectPreferences {
			pref.SubjectPreferences[k] = v
		}
	}
	if upd.Enabled != nil {
		pref.Enabled = *upd.Enabled
	}
	*pref = normalizePreference(*pref)
	s.items[name] = pref
	return clonePreference(pref)
}

// All returns every stored entry sorted by teacher name.
func (s *PreferenceStore) All() []TeacherPreference {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]TeacherPreference, 0, len(s.items))
	for _, p := range s.items {
		out = append(out, clonePreference(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (s *PreferenceStore) lookup(name string) *TeacherPreference {
	s.mu.RLock()
	pref, ok := s.items[name]
	s.mu.RUnlock()
	if ok {
		return pref
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if pref, ok = s.items[name]; ok {
		return pref
	}
	def := DefaultTeacherPreference(name)
	s.items[name] = &def
	return &def
}

// IsSlotBlocked reports whether the teacher refuses to teach at the slot.
func (s *PreferenceStore) IsSlotBlocked(teacher string, day Day, start string) bool {
	pref := s.lookup(teacher)
	if !pref.Enabled {
		return false
	}
	return containsString(pref.BlockedSlots, SlotKey(day, start))
}

// IsSlotPreferred reports whether the slot is on the teacher's preferred list.
func (s *PreferenceStore) IsSlotPreferred(teacher string, day Day, start string) bool {
	pref := s.lookup(teacher)
	if !pref.Enabled {
		return false
	}
	return containsString(pref.PreferredSlots, SlotKey(day, start))
}

// IsDayPreferred reports whether the day is preferred. An empty list means no restriction.
func (s *PreferenceStore) IsDayPreferred(teacher string, day Day) bool {
	pref := s.lookup(teacher)
	if !pref.Enabled {
		return false
	}
	if len(pref.PreferredDays) == 0 {
		return true
	}
	for _, d := range pref.PreferredDays {
		if d == day {
			return true
		}
	}
	return false
}

// SubjectScore returns the 0-10 affinity of the teacher for a subject, neutral when unset.
func (s *PreferenceStore) SubjectScore(teacher, subject string) int {
	pref := s.lookup(teacher)
	score, ok := pref.SubjectPreferences[subject]
	if !ok {
		return NeutralSubjectScore
	}
	return clampScore(score)
}

// CalculatePreferenceBonus scores a candidate slot for ranking.
func (s *PreferenceStore) CalculatePreferenceBonus(teacher string, day Day, start, subject string) int {
	pref := s.lookup(teacher)
	if !pref.Enabled {
		return 0
	}
	if s.IsSlotBlocked(teacher, day, start) {
		return BlockedSlotScore
	}
	bonus := 0
	if s.IsSlotPreferred(teacher, day, start) {
		bonus += preferredSlotBonus
	}
	if s.IsDayPreferred(teacher, day) {
		bonus += preferredDayBonus
	}
	bonus += (s.SubjectScore(teacher, subject) - NeutralSubjectScore) * subjectScoreWeight
	return bonus
}

// ViolatesConsecutiveLimit reports whether teaching at start would give the teacher a run of
// back-to-back classes longer than allowed.
func (s *PreferenceStore) ViolatesConsecutiveLimit(teacher string, day Day, start string, view *TeacherTimeline) bool {
	return s.violatesConsecutive(teacher, day, []string{start}, view)
}

// ViolatesDailyLimit reports whether the teacher already reached the daily class limit.
func (s *PreferenceStore) ViolatesDailyLimit(teacher string, day Day, view *TeacherTimeline) bool {
	return s.violatesDaily(teacher, day, 1, view)
}

// allows checks every hard preference constraint for a block of consecutive starts.
func (s *PreferenceStore) allows(teacher string, day Day, starts []string, view *TeacherTimeline) bool {
	for _, start := range starts {
		if s.IsSlotBlocked(teacher, day, start) {
			return false
		}
	}
	if s.violatesConsecutive(teacher, day, starts, view) {
		return false
	}
	return !s.violatesDaily(teacher, day, len(starts), view)
}

func (s *PreferenceStore) violatesConsecutive(teacher string, day Day, starts []string, view *TeacherTimeline) bool {
	pref := s.lookup(teacher)
	if !pref.Enabled || len(starts) == 0 || view == nil {
		return false
	}
	candidate := make(map[string]bool, len(starts))
	for _, st := range starts {
		candidate[st] = true
	}
	occupied := func(start string) bool {
		return candidate[start] || view.Has(teacher, day, start)
	}

	first, last := starts[0], starts[0]
	for _, st := range starts[1:] {
		if st < first {
			first = st
		}
		if st > last {
			last = st
		}
	}

	run := len(starts)
	for prev, ok := shiftClock(first, -view.step); ok && occupied(prev); prev, ok = shiftClock(prev, -view.step) {
		run++
	}
	for next, ok := shiftClock(last, view.step); ok && occupied(next); next, ok = shiftClock(next, view.step) {
		run++
	}
	return run > pref.MaxConsecutiveClasses
}

func (s *PreferenceStore) violatesDaily(teacher string, day Day, adding int, view *TeacherTimeline) bool {
	pref := s.lookup(teacher)
	if !pref.Enabled || view == nil {
		return false
	}
	return view.Count(teacher, day)+adding > pref.MaxDailyClasses
}

// TeacherTimeline indexes the sessions placed so far in a pass by teacher and day. Adjacent
// slots are one lecture duration apart.
type TeacherTimeline struct {
	step  int
	busy  map[string]map[Day]map[string]bool
	count map[string]map[Day]int
}

// NewTeacherTimeline builds a timeline from existing sessions.
func NewTeacherTimeline(lectureDuration int, sessions ...Session) *TeacherTimeline {
	if lectureDuration <= 0 {
		lectureDuration = DefaultLectureDuration
	}
	t := &TeacherTimeline{
		step:  lectureDuration,
		busy:  make(map[string]map[Day]map[string]bool),
		count: make(map[string]map[Day]int),
	}
	for _, s := range sessions {
		t.Add(s)
	}
	return t
}

// Add records a placed session.
func (t *TeacherTimeline) Add(s Session) {
	if s.Teacher == "" {
		return
	}
	days, ok := t.busy[s.Teacher]
	if !ok {
		days = make(map[Day]map[string]bool)
		t.busy[s.Teacher] = days
		t.count[s.Teacher] = make(map[Day]int)
	}
	if days[s.Day] == nil {
		days[s.Day] = make(map[string]bool)
	}
	if days[s.Day][s.Start] {
		return
	}
	days[s.Day][s.Start] = true
	t.count[s.Teacher][s.Day]++
}

// Has reports whether the teacher has a session starting at start on day.
func (t *TeacherTimeline) Has(teacher string, day Day, start string) bool {
	return t.busy[teacher][day][start]
}

// Count returns the number of sessions of the teacher on day.
func (t *TeacherTimeline) Count(teacher string, day Day) int {
	return t.count[teacher][day]
}

func normalizePreference(p TeacherPreference) TeacherPreference {
	if p.MaxConsecutiveClasses <= 0 {
		p.MaxConsecutiveClasses = DefaultMaxConsecutiveClasses
	}
	if p.MaxDailyClasses <= 0 {
		p.MaxDailyClasses = DefaultMaxDailyClasses
	}
	if p.MaxWeeklyHours <= 0 {
		p.MaxWeeklyHours = DefaultMaxWeeklyHours
	}
	if p.PreferredSlots == nil {
		p.PreferredSlots = []string{}
	}
	if p.BlockedSlots == nil {
		p.BlockedSlots = []string{}
	}
	if p.PreferredDays == nil {
		p.PreferredDays = []Day{}
	}
	if p.SubjectPreferences == nil {
		p.SubjectPreferences = map[string]int{}
	}
	return p
}

func clonePreference(p *TeacherPreference) TeacherPreference {
	cp := *p
	cp.PreferredSlots = append([]string{}, p.PreferredSlots...)
	cp.BlockedSlots = append([]string{}, p.BlockedSlots...)
	cp.PreferredDays = append([]Day{}, p.PreferredDays...)
	cp.SubjectPreferences = make(map[string]int, len(p.SubjectPreferences))
	for k, v := range p.SubjectPreferences {
		cp.SubjectPreferences[k] = v
	}
	return cp
}

func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 10 {
		return 10
	}
	return v
}

func containsString(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
