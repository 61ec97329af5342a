package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-engine/internal/models"
)

func conflictsOfType(conflicts []models.Conflict, t models.ConflictType) []models.Conflict {
	var out []models.Conflict
	for _, c := range conflicts {
		if c.Type == t {
			out = append(out, c)
		}
	}
	return out
}

func TestDetectTeacherDoubleBooking(t *testing.T) {
	svc := NewConflictService(nil)
	facts := evaluatorTestFacts()

	slots := []models.ScheduleSlot{
		{ID: "s1", CourseID: "c-alg", TeacherID: "t-math", RoomID: "r-101", TimeSlotID: "mon-p1"},
		{ID: "s2", CourseID: "c-hist", TeacherID: "t-math", RoomID: "r-102", TimeSlotID: "mon-p1"},
	}
	found := conflictsOfType(svc.DetectAll("sched-1", slots, facts), models.ConflictTeacherOverload)

	require.Len(t, found, 1)
	assert.Equal(t, models.SeverityCritical, found[0].Severity)
	assert.ElementsMatch(t, []string{"s1", "s2"}, found[0].AffectedSlotIDs)
	assert.Equal(t, []string{"t-math"}, found[0].AffectedTeacherIDs)
}

func TestDetectRoomDoubleBooking(t *testing.T) {
	svc := NewConflictService(nil)
	facts := evaluatorTestFacts()

	slots := []models.ScheduleSlot{
		{ID: "s1", CourseID: "c-alg", TeacherID: "t-math", RoomID: "r-101", TimeSlotID: "tue-p2"},
		{ID: "s2", CourseID: "c-hist", TeacherID: "t-sci", RoomID: "r-101", TimeSlotID: "tue-p2"},
	}
	found := conflictsOfType(svc.DetectAll("sched-1", slots, facts), models.ConflictRoomDoubleBooking)

	require.Len(t, found, 1)
	assert.Equal(t, models.SeverityCritical, found[0].Severity)
	assert.Equal(t, []string{"r-101"}, found[0].AffectedRoomIDs)
}

func TestDetectRoomCapacityExceeded(t *testing.T) {
	svc := NewConflictService(nil)
	facts := evaluatorTestFacts()

	students := make([]string, 40)
	for i := range students {
		students[i] = uuidLike(i)
	}
	slots := []models.ScheduleSlot{
		{ID: "s1", CourseID: "c-alg", TeacherID: "t-math", RoomID: "r-101", TimeSlotID: "mon-p1", StudentIDs: students},
	}
	found := conflictsOfType(svc.DetectAll("sched-1", slots, facts), models.ConflictRoomCapacityExceeded)

	require.Len(t, found, 1)
	assert.Equal(t, models.SeverityHigh, found[0].Severity)
}

func uuidLike(i int) string {
	return string(rune('a'+i%26)) + string(rune('0'+i/26))
}

func TestDetectRoomTypeMismatchLadder(t *testing.T) {
	svc := NewConflictService(nil)
	facts := evaluatorTestFacts()

	slots := []models.ScheduleSlot{
		// Lab-required course in a plain classroom.
		{ID: "s1", CourseID: "c-chem", TeacherID: "t-sci", RoomID: "r-101", TimeSlotID: "mon-p1"},
	}
	found := conflictsOfType(svc.DetectAll("sched-1", slots, facts), models.ConflictRoomTypeMismatch)

	require.Len(t, found, 1)
	assert.Equal(t, models.SeverityMedium, found[0].Severity)
}

func TestDetectStudentConflict(t *testing.T) {
	svc := NewConflictService(nil)
	facts := evaluatorTestFacts()

	slots := []models.ScheduleSlot{
		{ID: "s1", CourseID: "c-alg", TeacherID: "t-math", RoomID: "r-101", TimeSlotID: "wed-p3", StudentIDs: []string{"stu-1"}},
		{ID: "s2", CourseID: "c-hist", TeacherID: "t-sci", RoomID: "r-102", TimeSlotID: "wed-p3", StudentIDs: []string{"stu-1"}},
	}
	found := conflictsOfType(svc.DetectAll("sched-1", slots, facts), models.ConflictStudentScheduleConflict)

	require.Len(t, found, 1)
	assert.Equal(t, []string{"stu-1"}, found[0].AffectedStudentIDs)
}

func TestDetectTeacherTravelTime(t *testing.T) {
	svc := NewConflictService(nil)
	facts := evaluatorTestFacts()

	// Five minutes to cross from Main to the Annex.
	slots := []models.ScheduleSlot{
		{ID: "s1", CourseID: "c-alg", TeacherID: "t-sci", RoomID: "r-101", TimeSlotID: "mon-p1"},
		{ID: "s2", CourseID: "c-chem", TeacherID: "t-sci", RoomID: "r-lab", TimeSlotID: "mon-p2"},
	}
	found := conflictsOfType(svc.DetectAll("sched-1", slots, facts), models.ConflictTeacherTravelTime)

	require.Len(t, found, 1)
	assert.Equal(t, models.SeverityMedium, found[0].Severity)
	assert.ElementsMatch(t, []string{"s1", "s2"}, found[0].AffectedSlotIDs)
	assert.Equal(t, []string{"t-sci"}, found[0].AffectedTeacherIDs)

	// Same building back-to-back is not a travel conflict.
	sameBuilding := []models.ScheduleSlot{
		{ID: "s1", CourseID: "c-alg", TeacherID: "t-math", RoomID: "r-101", TimeSlotID: "mon-p1"},
		{ID: "s2", CourseID: "c-hist", TeacherID: "t-math", RoomID: "r-102", TimeSlotID: "mon-p2"},
	}
	assert.Empty(t, conflictsOfType(svc.DetectAll("sched-1", sameBuilding, facts), models.ConflictTeacherTravelTime))
}

func TestDetectExcessiveConsecutive(t *testing.T) {
	svc := NewConflictService(nil)
	facts := evaluatorTestFacts()

	// Five classes in a row, reported once for the whole sequence.
	slots := make([]models.ScheduleSlot, 0, 5)
	ids := []string{"mon-p1", "mon-p2", "mon-p3", "mon-p4", "mon-p5"}
	for i, tsID := range ids {
		slots = append(slots, models.ScheduleSlot{
			ID: "s" + string(rune('1'+i)), CourseID: "c-alg", TeacherID: "t-math", RoomID: "r-101", TimeSlotID: tsID,
		})
	}
	found := conflictsOfType(svc.DetectAll("sched-1", slots, facts), models.ConflictExcessiveConsecutive)

	require.Len(t, found, 1)
	assert.Len(t, found[0].AffectedSlotIDs, 5)
}

func TestDetectMissingLunch(t *testing.T) {
	svc := NewConflictService(nil)
	facts := evaluatorTestFacts()

	// A custom grid with five-minute passing only: the 11:00-13:00 window is
	// fully covered with no 30-minute gap.
	custom := []models.TimeSlot{
		{ID: "x1", Day: models.Thursday, Start: 8 * 60, End: 8*60 + 45, Period: 1},
		{ID: "x2", Day: models.Thursday, Start: 8*60 + 50, End: 9*60 + 35, Period: 2},
		{ID: "x3", Day: models.Thursday, Start: 10*60 + 30, End: 11*60 + 15, Period: 3},
		{ID: "x4", Day: models.Thursday, Start: 11*60 + 20, End: 12*60 + 5, Period: 4},
		{ID: "x5", Day: models.Thursday, Start: 12*60 + 10, End: 12*60 + 55, Period: 5},
	}
	for _, ts := range custom {
		facts.TimeSlots[ts.ID] = ts
	}

	slots := make([]models.ScheduleSlot, 0, 5)
	for i, tsID := range []string{"x1", "x2", "x3", "x4", "x5"} {
		slots = append(slots, models.ScheduleSlot{
			ID: "s" + string(rune('1'+i)), CourseID: "c-alg", TeacherID: "t-math", RoomID: "r-101", TimeSlotID: tsID,
		})
	}
	found := conflictsOfType(svc.DetectAll("sched-1", slots, facts), models.ConflictNoLunchBreak)

	require.Len(t, found, 1)
	assert.Equal(t, models.SeverityMedium, found[0].Severity)
}

func TestLunchGapDetected(t *testing.T) {
	svc := NewConflictService(nil)
	facts := evaluatorTestFacts()

	// Same load but period 6 is free: the 12:05-13:20 gap crosses the window
	// with more than 30 free minutes before 13:00.
	slots := make([]models.ScheduleSlot, 0, 5)
	for i, tsID := range []string{"thu-p2", "thu-p3", "thu-p4", "thu-p5", "thu-p7"} {
		slots = append(slots, models.ScheduleSlot{
			ID: "s" + string(rune('1'+i)), CourseID: "c-alg", TeacherID: "t-math", RoomID: "r-101", TimeSlotID: tsID,
		})
	}
	found := conflictsOfType(svc.DetectAll("sched-1", slots, facts), models.ConflictNoLunchBreak)
	assert.Empty(t, found)
}

func TestDetectSubjectMismatch(t *testing.T) {
	svc := NewConflictService(nil)
	facts := evaluatorTestFacts()

	slots := []models.ScheduleSlot{
		// Science teacher on a history course: no certification path matches.
		{ID: "s1", CourseID: "c-hist", TeacherID: "t-sci", RoomID: "r-101", TimeSlotID: "mon-p1"},
	}
	found := conflictsOfType(svc.DetectAll("sched-1", slots, facts), models.ConflictSubjectMismatch)

	require.Len(t, found, 1)
	assert.Equal(t, models.SeverityLow, found[0].Severity)
}

func TestDetectEnrollmentBounds(t *testing.T) {
	svc := NewConflictService(nil)
	facts := evaluatorTestFacts()
	course := facts.Courses["c-alg"]
	course.MinStudents = 10
	course.MaxStudents = 12
	facts.Courses["c-alg"] = course

	over := make([]string, 15)
	for i := range over {
		over[i] = uuidLike(i)
	}
	slots := []models.ScheduleSlot{
		{ID: "s1", CourseID: "c-alg", TeacherID: "t-math", RoomID: "r-101", TimeSlotID: "mon-p1", StudentIDs: over},
		{ID: "s2", CourseID: "c-alg", TeacherID: "t-math", RoomID: "r-101", TimeSlotID: "tue-p1", StudentIDs: over[:3]},
	}
	all := svc.DetectAll("sched-1", slots, facts)

	assert.Len(t, conflictsOfType(all, models.ConflictSectionOverEnrolled), 1)
	assert.Len(t, conflictsOfType(all, models.ConflictSectionUnderEnrolled), 1)
}

func TestSatisfiesHardConstraints(t *testing.T) {
	svc := NewConflictService(nil)
	facts := evaluatorTestFacts()

	clean := []models.ScheduleSlot{
		{ID: "s1", CourseID: "c-alg", TeacherID: "t-math", RoomID: "r-101", TimeSlotID: "mon-p1"},
		{ID: "s2", CourseID: "c-hist", TeacherID: "t-sci", RoomID: "r-102", TimeSlotID: "mon-p2"},
	}
	assert.True(t, svc.SatisfiesHardConstraints("sched-1", clean, facts))

	broken := append([]models.ScheduleSlot{}, clean...)
	broken[1].TeacherID = "t-math"
	broken[1].TimeSlotID = "mon-p1"
	assert.False(t, svc.SatisfiesHardConstraints("sched-1", broken, facts))
}

func TestFitnessPenalizesOpenConflicts(t *testing.T) {
	svc := NewConflictService(nil)
	cfg := models.DefaultOptimizationConfig()
	facts := evaluatorTestFacts()

	slots := []models.ScheduleSlot{
		{ID: "s1", CourseID: "c-alg", TeacherID: "t-math", RoomID: "r-101", TimeSlotID: "mon-p1"},
	}

	clean := svc.Fitness(nil, cfg, slots, facts)
	assert.Greater(t, clean, baseFitness)

	conflicts := []models.Conflict{
		{Type: models.ConflictTeacherOverload, Severity: models.SeverityCritical},
	}
	dirty := svc.Fitness(conflicts, cfg, slots, facts)
	assert.InDelta(t, clean-1000, dirty, 0.001)

	// Resolved and ignored conflicts cost nothing.
	conflicts[0].Resolved = true
	assert.InDelta(t, clean, svc.Fitness(conflicts, cfg, slots, facts), 0.001)
}

func TestFitnessScalesWithAffectedEntities(t *testing.T) {
	svc := NewConflictService(nil)
	cfg := models.DefaultOptimizationConfig()
	facts := evaluatorTestFacts()

	narrow := []models.Conflict{
		{Type: models.ConflictNoLunchBreak, Severity: models.SeverityMedium, AffectedTeacherIDs: []string{"t-1"}},
	}
	wide := []models.Conflict{
		{Type: models.ConflictNoLunchBreak, Severity: models.SeverityMedium,
			AffectedTeacherIDs: []string{"t-1"}, AffectedSlotIDs: []string{"s1", "s2", "s3"}},
	}

	assert.Greater(t, svc.Fitness(narrow, cfg, nil, facts), svc.Fitness(wide, cfg, nil, facts))
}

func TestFitnessBreakdown(t *testing.T) {
	svc := NewConflictService(nil)
	cfg := models.DefaultOptimizationConfig()

	conflicts := []models.Conflict{
		{Type: models.ConflictTeacherOverload, Severity: models.SeverityCritical},
		{Type: models.ConflictNoLunchBreak, Severity: models.SeverityMedium},
		{Type: models.ConflictBackToBackViolation, Severity: models.SeverityLow, Ignored: true},
	}
	perConstraint, hard, soft := svc.FitnessBreakdown(conflicts, cfg)

	assert.Equal(t, float64(1000), perConstraint[models.ConstraintNoTeacherOverlap])
	assert.Equal(t, float64(10), perConstraint[models.ConstraintLunchBreak])
	assert.Equal(t, float64(1000), hard)
	assert.Equal(t, float64(10), soft)
	assert.NotContains(t, perConstraint, models.ConstraintMinimizeStudentGaps)
}

func TestConstraintForConflictMapping(t *testing.T) {
	assert.Equal(t, models.ConstraintNoTeacherOverlap, ConstraintForConflict(models.ConflictTeacherOverload))
	assert.Equal(t, models.ConstraintNoRoomOverlap, ConstraintForConflict(models.ConflictRoomDoubleBooking))
	assert.Equal(t, models.ConstraintNoStudentOverlap, ConstraintForConflict(models.ConflictStudentScheduleConflict))
	assert.Equal(t, models.ConstraintRoomCapacity, ConstraintForConflict(models.ConflictRoomCapacityExceeded))
	assert.Equal(t, models.ConstraintTeacherQualification, ConstraintForConflict(models.ConflictSubjectMismatch))
	assert.Equal(t, models.ConstraintLunchBreak, ConstraintForConflict(models.ConflictNoLunchBreak))
	assert.Equal(t, models.ConstraintBalanceTeacherLoad, ConstraintForConflict(models.ConflictExcessiveTeachingHours))
	assert.Equal(t, models.ConstraintBalanceClassSizes, ConstraintForConflict(models.ConflictSectionOverEnrolled))
	assert.Equal(t, models.ConstraintMinimizeStudentGaps, ConstraintForConflict(models.ConflictBackToBackViolation))
}
