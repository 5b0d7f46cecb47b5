package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLedgerTeacherAndRoomExclusion(t *testing.T) {
	l := NewLedger()
	claim := Claim{Teacher: "Alice", Room: "101 (C)", CourseID: "cse-3", Day: Monday, Start: "09:00"}
	assert.True(t, l.IsFree(claim))
	l.Occupy(claim)

	assert.True(t, l.TeacherBusy("Alice", Monday, "09:00"))
	assert.True(t, l.RoomBusy("101 (C)", Monday, "09:00"))
	assert.False(t, l.IsFree(Claim{Teacher: "Alice", Room: "102 (C)", CourseID: "ece-3", Day: Monday, Start: "09:00"}))
	assert.False(t, l.IsFree(Claim{Teacher: "Bob", Room: "101 (C)", CourseID: "ece-3", Day: Monday, Start: "09:00"}))
	assert.True(t, l.IsFree(Claim{Teacher: "Alice", Room: "101 (C)", CourseID: "cse-3", Day: Monday, Start: "10:00"}))
	assert.True(t, l.IsFree(Claim{Teacher: "Alice", Room: "101 (C)", CourseID: "cse-3", Day: Tuesday, Start: "09:00"}))
}

func TestLedgerCourseAndBatchCells(t *testing.T) {
	l := NewLedger()
	l.Occupy(Claim{Teacher: "Alice", Room: "Lab1 (L)", CourseID: "cse-3", Batch: "A", Day: Monday, Start: "09:00"})

	assert.True(t, l.IsFree(Claim{Teacher: "Bob", Room: "Lab2 (L)", CourseID: "cse-3", Batch: "B", Day: Monday, Start: "09:00"}),
		"a sibling batch may run in parallel")
	assert.False(t, l.IsFree(Claim{Teacher: "Bob", Room: "Lab2 (L)", CourseID: "cse-3", Batch: "A", Day: Monday, Start: "09:00"}))
	assert.False(t, l.IsFree(Claim{Teacher: "Bob", Room: "201 (C)", CourseID: "cse-3", Day: Monday, Start: "09:00"}),
		"a whole-course lecture cannot overlap a batch session")

	l.Occupy(Claim{Teacher: "Carol", Room: "201 (C)", CourseID: "cse-3", Day: Monday, Start: "10:00"})
	assert.False(t, l.IsFree(Claim{Teacher: "Dan", Room: "Lab2 (L)", CourseID: "cse-3", Batch: "B", Day: Monday, Start: "10:00"}))
}
