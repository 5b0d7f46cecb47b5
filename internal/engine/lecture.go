package engine

import (
	"fmt"
	"sort"

	"go.uber.org/zap"
)

type lectureCandidate struct {
	day      Day
	dayIdx   int
	slot     TimeSlot
	slotIdx  int
	score    int
	dayUsage int
}

func (p *pass) placeLectures(course Course) {
	subjects := course.LectureSubjects()
	shuffleSubjects(p.rnd, subjects)
	for _, subj := range subjects {
		p.placeSubjectLectures(course, subj)
	}
}

// placeSubjectLectures runs best-first placement for one subject. Candidates are ranked once per
// lecture and examined in windows of TopCandidates; each window is one attempt against the cap.
func (p *pass) placeSubjectLectures(course Course, subj Subject) {
	required := subj.LecturesPerWeek
	maxAttempts := len(p.reg.Days) * len(p.reg.Slots) * p.opts.AttemptFactor
	usedDays := make(map[Day]int)

	placed, attempts := 0, 0
	for placed < required && attempts < maxAttempts {
		anchor := (placed + attempts + 1) % len(p.reg.Days)
		ranked := p.rankLectureSlots(course, subj, usedDays, anchor)

		var chosen *lectureCandidate
		for lo := 0; chosen == nil && attempts < maxAttempts; lo += p.opts.TopCandidates {
			if lo >= len(ranked) {
				break
			}
			attempts++
			hi := lo + p.opts.TopCandidates
			if hi > len(ranked) {
				hi = len(ranked)
			}
			for i := lo; i < hi; i++ {
				if p.tryLecture(course, subj, ranked[i]) {
					chosen = &ranked[i]
					break
				}
			}
		}
		if chosen == nil {
			break
		}
		placed++
		usedDays[chosen.day]++
	}

	if placed < required {
		p.warn(Warning{
			Kind:     WarningLectureShortfall,
			CourseID: course.ID,
			Subject:  subj.Name,
			Placed:   placed,
			Required: required,
			Message:  fmt.Sprintf("could not place all lectures for %s (%d/%d) in course %s", subj.Name, placed, required, course.Label()),
		})
	}
}

// rankLectureSlots lists the non-recess coordinates that pass every hard preference constraint,
// best first: days the subject uses least, then preference bonus, then the cyclic day order
// starting at anchor, then slot order. Day spread outranks the bonus so a single preferred day
// does not collect every lecture of the subject.
func (p *pass) rankLectureSlots(course Course, subj Subject, usedDays map[Day]int, anchor int) []lectureCandidate {
	paired := subj.HasElectivePairing()
	days := p.reg.Days
	var out []lectureCandidate
	for di, day := range days {
		for _, slot := range p.reg.PlaceableSlots() {
			si, _ := p.reg.SlotIndex(slot.Start)
			starts := []string{slot.Start}
			if !p.prefs.allows(subj.Teacher, day, starts, p.timeline) {
				continue
			}
			score := p.prefs.CalculatePreferenceBonus(subj.Teacher, day, slot.Start, subj.Name)
			if paired {
				if !p.prefs.allows(subj.ElectiveTeacher, day, starts, p.timeline) {
					continue
				}
				score += p.prefs.CalculatePreferenceBonus(subj.ElectiveTeacher, day, slot.Start, subj.ElectiveSubjectName)
			}
			out = append(out, lectureCandidate{
				day:      day,
				dayIdx:   (di - anchor + len(days)) % len(days),
				slot:     slot,
				slotIdx:  si,
				score:    score,
				dayUsage: usedDays[day],
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.dayUsage != b.dayUsage {
			return a.dayUsage < b.dayUsage
		}
		if a.score != b.score {
			return a.score > b.score
		}
		if a.dayIdx != b.dayIdx {
			return a.dayIdx < b.dayIdx
		}
		return a.slotIdx < b.slotIdx
	})
	return out
}

// tryLecture verifies every resource the lecture (and its paired elective) needs and commits
// them together, or leaves the ledger untouched.
func (p *pass) tryLecture(course Course, subj Subject, cand lectureCandidate) bool {
	day, start := cand.day, cand.slot.Start

	room := p.freeClassroom(day, start, "")
	if room == "" {
		return false
	}
	main := Claim{Teacher: subj.Teacher, Room: room, CourseID: course.ID, Day: day, Start: start}
	if !p.ledger.IsFree(main) {
		return false
	}

	var elective Claim
	paired := subj.HasElectivePairing()
	if paired {
		if subj.ElectiveTeacher == subj.Teacher || p.ledger.TeacherBusy(subj.ElectiveTeacher, day, start) {
			return false
		}
		electiveRoom := p.freeClassroom(day, start, room)
		if electiveRoom == "" {
			return false
		}
		elective = Claim{Teacher: subj.ElectiveTeacher, Room: electiveRoom, CourseID: course.ID, Day: day, Start: start}
	}

	p.ledger.Occupy(main)
	p.emit(course.ID, Session{
		Day:        day,
		Start:      start,
		End:        cand.slot.End,
		Subject:    subj.Name,
		Teacher:    subj.Teacher,
		Room:       room,
		IsElective: subj.IsElective,
	})
	if paired {
		p.ledger.Occupy(elective)
		p.emit(course.ID, Session{
			Day:           day,
			Start:         start,
			End:           cand.slot.End,
			Subject:       subj.ElectiveSubjectName,
			Teacher:       subj.ElectiveTeacher,
			Room:          elective.Room,
			IsElective:    true,
			ParentSubject: subj.Name,
		})
		p.logger.Debug("placed elective pairing",
			zap.String("course_id", course.ID),
			zap.String("subject", subj.Name),
			zap.String("elective", subj.ElectiveSubjectName),
			zap.String("day", string(day)),
			zap.String("start", start),
		)
	}
	return true
}

// freeClassroom returns the first classroom-tagged room free at the coordinate, skipping except.
func (p *pass) freeClassroom(day Day, start, except string) string {
	for _, room := range p.reg.Classrooms() {
		if room == except {
			continue
		}
		if !p.ledger.RoomBusy(room, day, start) {
			return room
		}
	}
	return ""
}
