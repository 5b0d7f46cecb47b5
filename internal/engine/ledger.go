package engine

// cellGrid is a day -> slot start -> occupied matrix for one resource.
type cellGrid map[Day]map[string]bool

func (g cellGrid) get(day Day, start string) bool {
	return g[day][start]
}

func (g cellGrid) set(day Day, start string) {
	row, ok := g[day]
	if !ok {
		row = make(map[string]bool)
		g[day] = row
	}
	row[start] = true
}

type courseCells struct {
	// any is set by every session of the course, wide only by whole-course sessions.
	any     cellGrid
	wide    cellGrid
	batches map[string]cellGrid
}

// Claim names every resource a single session consumes at one coordinate.
// Empty Teacher, Room or Batch fields are ignored.
type Claim struct {
	Teacher  string
	Room     string
	CourseID string
	Batch    string
	Day      Day
	Start    string
}

// Ledger tracks occupancy of teachers, rooms, courses and batches for one generation pass.
// Cells only ever move from free to occupied; there is no release.
type Ledger struct {
	teachers map[string]cellGrid
	rooms    map[string]cellGrid
	courses  map[string]*courseCells
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{
		teachers: make(map[string]cellGrid),
		rooms:    make(map[string]cellGrid),
		courses:  make(map[string]*courseCells),
	}
}

// IsFree reports whether the teacher, the room and the course or batch cell are all unoccupied.
// A whole-course claim needs the course free of any session, a batch claim needs its batch
// cell free and no whole-course session at that time.
func (l *Ledger) IsFree(c Claim) bool {
	if c.Teacher != "" && l.TeacherBusy(c.Teacher, c.Day, c.Start) {
		return false
	}
	if c.Room != "" && l.RoomBusy(c.Room, c.Day, c.Start) {
		return false
	}
	if c.CourseID == "" {
		return true
	}
	course := l.courses[c.CourseID]
	if course == nil {
		return true
	}
	if c.Batch == "" {
		return !course.any.get(c.Day, c.Start)
	}
	if course.wide.get(c.Day, c.Start) {
		return false
	}
	return !course.batches[c.Batch].get(c.Day, c.Start)
}

// Occupy marks every cell named by the claim. Callers must have verified IsFree for all
// claims of a placement decision before calling it.
func (l *Ledger) Occupy(c Claim) {
	if c.Teacher != "" {
		l.grid(l.teachers, c.Teacher).set(c.Day, c.Start)
	}
	if c.Room != "" {
		l.grid(l.rooms, c.Room).set(c.Day, c.Start)
	}
	if c.CourseID == "" {
		return
	}
	course := l.course(c.CourseID)
	course.any.set(c.Day, c.Start)
	if c.Batch == "" {
		course.wide.set(c.Day, c.Start)
		return
	}
	batch, ok := course.batches[c.Batch]
	if !ok {
		batch = make(cellGrid)
		course.batches[c.Batch] = batch
	}
	batch.set(c.Day, c.Start)
}

// TeacherBusy reports whether the teacher is committed at the coordinate.
func (l *Ledger) TeacherBusy(teacher string, day Day, start string) bool {
	return l.teachers[teacher].get(day, start)
}

// RoomBusy reports whether the room is committed at the coordinate.
func (l *Ledger) RoomBusy(room string, day Day, start string) bool {
	return l.rooms[room].get(day, start)
}

func (l *Ledger) grid(m map[string]cellGrid, key string) cellGrid {
	g, ok := m[key]
	if !ok {
		g = make(cellGrid)
		m[key] = g
	}
	return g
}

func (l *Ledger) course(id string) *courseCells {
	c, ok := l.courses[id]
	if !ok {
		c = &courseCells{
			any:     make(cellGrid),
			wide:    make(cellGrid),
			batches: make(map[string]cellGrid),
		}
		l.courses[id] = c
	}
	return c
}
