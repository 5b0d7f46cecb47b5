package engine

import (
	"fmt"

	"go.uber.org/zap"
)

type labAssignment struct {
	subject Subject
	batch   string
	room    string
}

// labStage collects the per-batch assignments of one round at one day/slot pair. Nothing is
// written to the ledger until every batch has staged.
type labStage struct {
	day      Day
	first    TimeSlot
	second   TimeSlot
	teachers map[string]struct{}
	rooms    map[string]struct{}
	items    []labAssignment
}

func newLabStage(day Day, first, second TimeSlot) *labStage {
	return &labStage{
		day:      day,
		first:    first,
		second:   second,
		teachers: make(map[string]struct{}),
		rooms:    make(map[string]struct{}),
	}
}

func (s *labStage) starts() []string {
	return []string{s.first.Start, s.second.Start}
}

func (s *labStage) add(a labAssignment) {
	s.teachers[a.subject.Teacher] = struct{}{}
	s.rooms[a.room] = struct{}{}
	s.items = append(s.items, a)
}

func (p *pass) placeLabs(course Course) {
	labSubjects := course.LabSubjects()
	if len(labSubjects) == 0 || len(course.Batches) == 0 {
		return
	}
	rounds := labSubjects[0].LabsPerWeek
	if rounds <= 0 {
		rounds = len(course.Batches)
	}

	for round := 0; round < rounds; round++ {
		stage := p.findLabStage(course, labSubjects, round)
		if stage == nil {
			p.warn(Warning{
				Kind:     WarningLabRoundUnplaced,
				CourseID: course.ID,
				Round:    round,
				Placed:   0,
				Required: len(course.Batches),
				Message:  fmt.Sprintf("could not assign labs for course %s round %d", course.Label(), round),
			})
			continue
		}
		p.commitLabStage(course, stage)
	}
}

// findLabStage searches days starting at the round offset, then consecutive slot pairs, for the
// first coordinate where every batch can be seated.
func (p *pass) findLabStage(course Course, labSubjects []Subject, round int) *labStage {
	days := p.reg.Days
	slots := p.reg.Slots
	for dayIdx := 0; dayIdx < len(days); dayIdx++ {
		day := days[(round+dayIdx)%len(days)]
		for si := 0; si+1 < len(slots); si++ {
			first, second := slots[si], slots[si+1]
			if first.IsRecess || second.IsRecess {
				continue
			}
			if stage := p.stageRound(course, labSubjects, round, day, first, second); stage != nil {
				return stage
			}
		}
	}
	return nil
}

func (p *pass) stageRound(course Course, labSubjects []Subject, round int, day Day, first, second TimeSlot) *labStage {
	stage := newLabStage(day, first, second)
	for bi, batch := range course.Batches {
		subj := labSubjects[(bi+round)%len(labSubjects)]
		if _, taken := stage.teachers[subj.Teacher]; taken {
			return nil
		}
		if !p.prefs.allows(subj.Teacher, day, stage.starts(), p.timeline) {
			return nil
		}
		room := p.findLabRoom(subj.LabRoomNo, stage)
		if room == "" {
			return nil
		}
		for _, start := range stage.starts() {
			if !p.ledger.IsFree(Claim{Teacher: subj.Teacher, Room: room, CourseID: course.ID, Batch: batch, Day: day, Start: start}) {
				return nil
			}
		}
		stage.add(labAssignment{subject: subj, batch: batch, room: room})
	}
	if len(stage.items) == 0 {
		return nil
	}
	return stage
}

// findLabRoom prefers the subject's configured lab room and falls back to the first lab-tagged
// room free for both slots and not already staged.
func (p *pass) findLabRoom(preferred string, stage *labStage) string {
	usable := func(room string) bool {
		if _, taken := stage.rooms[room]; taken {
			return false
		}
		for _, start := range stage.starts() {
			if p.ledger.RoomBusy(room, stage.day, start) {
				return false
			}
		}
		return true
	}
	if preferred != "" && containsString(p.reg.Rooms, preferred) && usable(preferred) {
		return preferred
	}
	for _, room := range p.reg.LabRooms() {
		if usable(room) {
			return room
		}
	}
	return ""
}

func (p *pass) commitLabStage(course Course, stage *labStage) {
	for _, a := range stage.items {
		for _, slot := range []TimeSlot{stage.first, stage.second} {
			p.ledger.Occupy(Claim{
				Teacher:  a.subject.Teacher,
				Room:     a.room,
				CourseID: course.ID,
				Batch:    a.batch,
				Day:      stage.day,
				Start:    slot.Start,
			})
			p.emit(course.ID, Session{
				Day:     stage.day,
				Start:   slot.Start,
				End:     slot.End,
				Subject: a.subject.Name,
				Teacher: a.subject.Teacher,
				Room:    a.room,
				IsLab:   true,
				Batch:   a.batch,
			})
		}
	}
	p.logger.Debug("assigned lab round",
		zap.String("course_id", course.ID),
		zap.String("day", string(stage.day)),
		zap.String("start", stage.first.Start),
		zap.String("end", stage.second.End),
		zap.Int("batches", len(stage.items)),
	)
}
