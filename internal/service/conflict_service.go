package service

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-engine/internal/models"
)

// Detection thresholds.
const (
	preferredBreakMinutes   = 15
	lunchWindowStartMinute  = 11 * 60
	lunchWindowEndMinute    = 13 * 60
	lunchMinimumGapMinutes  = 30
	lunchRequiredFromPeriod = 5
	maxConsecutiveDetected  = 4
	travelMinimumGapMinutes = 10
	defaultMaxTeachingDaily = 7
	prepRequiredFromPeriods = 7
)

// baseFitness is the starting fitness a conflict-free schedule scores.
const baseFitness = 10000.0

// ConflictService scans a schedule for violations and derives a
// conflict-based fitness used for run bookkeeping.
type ConflictService struct {
	logger *zap.Logger
}

func NewConflictService(logger *zap.Logger) *ConflictService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConflictService{logger: logger}
}

// DetectAll runs every detector and returns the combined findings.
func (s *ConflictService) DetectAll(scheduleID string, slots []models.ScheduleSlot, facts *EvaluationFacts) []models.Conflict {
	now := time.Now()
	var out []models.Conflict

	out = append(out, s.detectTeacherDoubleBookings(scheduleID, slots, facts, now)...)
	out = append(out, s.detectRoomDoubleBookings(scheduleID, slots, facts, now)...)
	out = append(out, s.detectRoomCapacity(scheduleID, slots, facts, now)...)
	out = append(out, s.detectRoomTypeMismatches(scheduleID, slots, facts, now)...)
	out = append(out, s.detectStudentConflicts(scheduleID, slots, facts, now)...)
	out = append(out, s.detectBackToBack(scheduleID, slots, facts, now)...)
	out = append(out, s.detectTeacherTravel(scheduleID, slots, facts, now)...)
	out = append(out, s.detectMissingLunch(scheduleID, slots, facts, now)...)
	out = append(out, s.detectExcessiveConsecutive(scheduleID, slots, facts, now)...)
	out = append(out, s.detectExcessiveTeachingHours(scheduleID, slots, facts, now)...)
	out = append(out, s.detectMissingPrep(scheduleID, slots, facts, now)...)
	out = append(out, s.detectSubjectMismatches(scheduleID, slots, facts, now)...)
	out = append(out, s.detectEnrollment(scheduleID, slots, facts, now)...)

	s.logger.Debug("conflict scan finished",
		zap.String("schedule_id", scheduleID),
		zap.Int("conflicts", len(out)))
	return out
}

// SatisfiesHardConstraints reports whether no critical conflicts remain.
func (s *ConflictService) SatisfiesHardConstraints(scheduleID string, slots []models.ScheduleSlot, facts *EvaluationFacts) bool {
	for _, c := range s.DetectAll(scheduleID, slots, facts) {
		if c.Open() && c.Severity == models.SeverityCritical {
			return false
		}
	}
	return true
}

// OpenConflictCount counts conflicts that are neither resolved nor ignored.
func (s *ConflictService) OpenConflictCount(conflicts []models.Conflict) int {
	n := 0
	for _, c := range conflicts {
		if c.Open() {
			n++
		}
	}
	return n
}

// Fitness derives a scalar fitness from open conflicts. Each conflict costs
// its severity base scaled by the constraint weight, then by the log of the
// affected entity count; utilization and balance bonuses reward even
// distribution across rooms and teachers.
func (s *ConflictService) Fitness(conflicts []models.Conflict, cfg models.OptimizationConfig, slots []models.ScheduleSlot, facts *EvaluationFacts) float64 {
	fitness := baseFitness
	for _, c := range conflicts {
		if !c.Open() {
			continue
		}
		penalty := c.Severity.Penalty() * cfg.ConstraintWeight(ConstraintForConflict(c.Type)) / 100
		if affected := c.AffectedEntityCount(); affected > 1 {
			penalty *= math.Log(float64(affected + 1))
		}
		fitness -= penalty
	}
	fitness += distributionBonus(slotCountsBy(slots, func(s models.ScheduleSlot) string { return s.RoomID }))
	fitness += distributionBonus(slotCountsBy(slots, func(s models.ScheduleSlot) string { return s.TeacherID }))
	return fitness
}

// FitnessBreakdown splits the penalty total per constraint, separating hard
// from soft categories.
func (s *ConflictService) FitnessBreakdown(conflicts []models.Conflict, cfg models.OptimizationConfig) (perConstraint map[models.ConstraintType]float64, hard, soft float64) {
	perConstraint = make(map[models.ConstraintType]float64)
	for _, c := range conflicts {
		if !c.Open() {
			continue
		}
		constraint := ConstraintForConflict(c.Type)
		penalty := c.Severity.Penalty() * cfg.ConstraintWeight(constraint) / 100
		if affected := c.AffectedEntityCount(); affected > 1 {
			penalty *= math.Log(float64(affected + 1))
		}
		perConstraint[constraint] += penalty
		if constraint.Hard() {
			hard += penalty
		} else {
			soft += penalty
		}
	}
	return perConstraint, hard, soft
}

// ConstraintForConflict maps a detector finding onto the scoring rule it
// violates.
func ConstraintForConflict(t models.ConflictType) models.ConstraintType {
	switch t {
	case models.ConflictTeacherOverload:
		return models.ConstraintNoTeacherOverlap
	case models.ConflictRoomDoubleBooking:
		return models.ConstraintNoRoomOverlap
	case models.ConflictStudentScheduleConflict:
		return models.ConstraintNoStudentOverlap
	case models.ConflictRoomCapacityExceeded:
		return models.ConstraintRoomCapacity
	case models.ConflictSubjectMismatch:
		return models.ConstraintTeacherQualification
	case models.ConflictEquipmentUnavailable:
		return models.ConstraintEquipmentAvailable
	case models.ConflictNoLunchBreak:
		return models.ConstraintLunchBreak
	case models.ConflictTeacherTravelTime:
		return models.ConstraintMinimizeTeacherTravel
	case models.ConflictStudentTravelTime:
		return models.ConstraintMinimizeStudentTravel
	case models.ConflictNoPreparationPeriod:
		return models.ConstraintTeacherPrepPeriods
	case models.ConflictExcessiveTeachingHours:
		return models.ConstraintBalanceTeacherLoad
	case models.ConflictRoomTypeMismatch:
		return models.ConstraintRoomPreferences
	case models.ConflictSectionOverEnrolled, models.ConflictSectionUnderEnrolled:
		return models.ConstraintBalanceClassSizes
	default:
		return models.ConstraintMinimizeStudentGaps
	}
}

// ---------------------------------------------------------------------------
// detectors

func (s *ConflictService) detectTeacherDoubleBookings(scheduleID string, slots []models.ScheduleSlot, facts *EvaluationFacts, now time.Time) []models.Conflict {
	var out []models.Conflict
	byTeacher := groupSlots(slots, func(s models.ScheduleSlot) string { return s.TeacherID })
	for teacherID, group := range byTeacher {
		for i := 0; i < len(group); i++ {
			for j := i + 1; j < len(group); j++ {
				if !slotsOverlap(group[i], group[j], facts) {
					continue
				}
				out = append(out, models.Conflict{
					ID:          uuid.NewString(),
					ScheduleID:  scheduleID,
					Type:        models.ConflictTeacherOverload,
					Severity:    models.SeverityCritical,
					Title:       "Teacher double-booked",
					Description: fmt.Sprintf("%s is assigned to two overlapping classes", teacherName(facts, teacherID)),
					AffectedSlotIDs:    []string{group[i].ID, group[j].ID},
					AffectedTeacherIDs: []string{teacherID},
					DetectedAt:         now,
				})
			}
		}
	}
	return out
}

func (s *ConflictService) detectRoomDoubleBookings(scheduleID string, slots []models.ScheduleSlot, facts *EvaluationFacts, now time.Time) []models.Conflict {
	var out []models.Conflict
	byRoom := groupSlots(slots, func(s models.ScheduleSlot) string { return s.RoomID })
	for roomID, group := range byRoom {
		room, ok := facts.Rooms[roomID]
		limit := 1
		if ok {
			limit = room.ConcurrentLimit()
		}
		byTime := groupSlots(group, func(s models.ScheduleSlot) string { return s.TimeSlotID })
		for _, colocated := range byTime {
			if len(colocated) <= limit {
				continue
			}
			ids := make([]string, 0, len(colocated))
			for _, c := range colocated {
				ids = append(ids, c.ID)
			}
			out = append(out, models.Conflict{
				ID:         uuid.NewString(),
				ScheduleID: scheduleID,
				Type:       models.ConflictRoomDoubleBooking,
				Severity:   models.SeverityCritical,
				Title:      "Room double-booked",
				Description: fmt.Sprintf("room %s hosts %d classes at once (limit %d)",
					roomLabel(facts, roomID), len(colocated), limit),
				AffectedSlotIDs: ids,
				AffectedRoomIDs: []string{roomID},
				DetectedAt:      now,
			})
		}
	}
	return out
}

func (s *ConflictService) detectRoomCapacity(scheduleID string, slots []models.ScheduleSlot, facts *EvaluationFacts, now time.Time) []models.Conflict {
	var out []models.Conflict
	for _, slot := range slots {
		room, ok := facts.Rooms[slot.RoomID]
		if !ok || len(slot.StudentIDs) <= room.EffectiveCapacity() {
			continue
		}
		out = append(out, models.Conflict{
			ID:         uuid.NewString(),
			ScheduleID: scheduleID,
			Type:       models.ConflictRoomCapacityExceeded,
			Severity:   models.SeverityHigh,
			Title:      "Room over capacity",
			Description: fmt.Sprintf("%d students assigned to %s (capacity %d)",
				len(slot.StudentIDs), roomLabel(facts, slot.RoomID), room.EffectiveCapacity()),
			AffectedSlotIDs: []string{slot.ID},
			AffectedRoomIDs: []string{slot.RoomID},
			DetectedAt:      now,
		})
	}
	return out
}

func (s *ConflictService) detectRoomTypeMismatches(scheduleID string, slots []models.ScheduleSlot, facts *EvaluationFacts, now time.Time) []models.Conflict {
	var out []models.Conflict
	for _, slot := range slots {
		course, okC := facts.Courses[slot.CourseID]
		room, okR := facts.Rooms[slot.RoomID]
		if !okC || !okR {
			continue
		}

		subj := strings.ToLower(course.Subject)
		var severity models.ConflictSeverity
		var detail string
		switch {
		case course.RequiresLab && !room.Type.IsLab():
			severity, detail = models.SeverityMedium, "requires a lab"
		case containsAny(subj, "science", "chemistry", "physics", "biology") && room.Type != models.RoomTypeScienceLab && !room.Type.IsLab():
			severity, detail = models.SeverityLow, "is best taught in a science lab"
		case containsAny(subj, "computer", "programming") && room.Type != models.RoomTypeComputerLab:
			severity, detail = models.SeverityLow, "is best taught in a computer lab"
		default:
			continue
		}

		out = append(out, models.Conflict{
			ID:         uuid.NewString(),
			ScheduleID: scheduleID,
			Type:       models.ConflictRoomTypeMismatch,
			Severity:   severity,
			Title:      "Room type mismatch",
			Description: fmt.Sprintf("%s %s but is placed in %s",
				course.CourseName, detail, roomLabel(facts, slot.RoomID)),
			AffectedSlotIDs:   []string{slot.ID},
			AffectedRoomIDs:   []string{slot.RoomID},
			AffectedCourseIDs: []string{course.ID},
			DetectedAt:        now,
		})
	}
	return out
}

func (s *ConflictService) detectStudentConflicts(scheduleID string, slots []models.ScheduleSlot, facts *EvaluationFacts, now time.Time) []models.Conflict {
	var out []models.Conflict
	byStudent := make(map[string][]models.ScheduleSlot)
	for _, slot := range slots {
		for _, id := range slot.StudentIDs {
			byStudent[id] = append(byStudent[id], slot)
		}
	}
	for studentID, group := range byStudent {
		for i := 0; i < len(group); i++ {
			for j := i + 1; j < len(group); j++ {
				if !slotsOverlap(group[i], group[j], facts) {
					continue
				}
				out = append(out, models.Conflict{
					ID:          uuid.NewString(),
					ScheduleID:  scheduleID,
					Type:        models.ConflictStudentScheduleConflict,
					Severity:    models.SeverityCritical,
					Title:       "Student double-booked",
					Description: "student is enrolled in two overlapping classes",
					AffectedSlotIDs:    []string{group[i].ID, group[j].ID},
					AffectedStudentIDs: []string{studentID},
					DetectedAt:         now,
				})
			}
		}
	}
	return out
}

func (s *ConflictService) detectBackToBack(scheduleID string, slots []models.ScheduleSlot, facts *EvaluationFacts, now time.Time) []models.Conflict {
	var out []models.Conflict
	for teacherID, days := range teacherDaySlots(slots, facts) {
		for _, day := range days {
			for i := 0; i < len(day)-1; i++ {
				gap := day[i+1].ts.Start - day[i].ts.End
				if gap < 0 || gap >= preferredBreakMinutes {
					continue
				}
				out = append(out, models.Conflict{
					ID:         uuid.NewString(),
					ScheduleID: scheduleID,
					Type:       models.ConflictBackToBackViolation,
					Severity:   models.SeverityLow,
					Title:      "No break between classes",
					Description: fmt.Sprintf("%s has only %d minutes between consecutive classes",
						teacherName(facts, teacherID), gap),
					AffectedSlotIDs:    []string{day[i].slot.ID, day[i+1].slot.ID},
					AffectedTeacherIDs: []string{teacherID},
					DetectedAt:         now,
				})
			}
		}
	}
	return out
}

// detectTeacherTravel flags consecutive classes in different buildings when
// the gap between them is too short to walk across campus.
func (s *ConflictService) detectTeacherTravel(scheduleID string, slots []models.ScheduleSlot, facts *EvaluationFacts, now time.Time) []models.Conflict {
	var out []models.Conflict
	for teacherID, days := range teacherDaySlots(slots, facts) {
		for _, day := range days {
			for i := 0; i < len(day)-1; i++ {
				cur, next := day[i], day[i+1]
				gap := next.ts.Start - cur.ts.End
				if gap < 0 || gap >= travelMinimumGapMinutes {
					continue
				}
				curRoom, okR1 := facts.Rooms[cur.slot.RoomID]
				nextRoom, okR2 := facts.Rooms[next.slot.RoomID]
				if !okR1 || !okR2 || curRoom.Building == nextRoom.Building {
					continue
				}
				out = append(out, models.Conflict{
					ID:         uuid.NewString(),
					ScheduleID: scheduleID,
					Type:       models.ConflictTeacherTravelTime,
					Severity:   models.SeverityMedium,
					Title:      "Insufficient travel time",
					Description: fmt.Sprintf("%s has %d minutes to move from %s to %s",
						teacherName(facts, teacherID), gap,
						curRoom.Building, nextRoom.Building),
					AffectedSlotIDs:    []string{cur.slot.ID, next.slot.ID},
					AffectedTeacherIDs: []string{teacherID},
					AffectedRoomIDs:    []string{cur.slot.RoomID, next.slot.RoomID},
					DetectedAt:         now,
				})
			}
		}
	}
	return out
}

func (s *ConflictService) detectMissingLunch(scheduleID string, slots []models.ScheduleSlot, facts *EvaluationFacts, now time.Time) []models.Conflict {
	var out []models.Conflict
	for teacherID, days := range teacherDaySlots(slots, facts) {
		for dayIdx, day := range days {
			if len(day) < lunchRequiredFromPeriod {
				continue
			}
			if hasLunchGap(day) {
				continue
			}
			ids := make([]string, 0, len(day))
			for _, e := range day {
				ids = append(ids, e.slot.ID)
			}
			out = append(out, models.Conflict{
				ID:         uuid.NewString(),
				ScheduleID: scheduleID,
				Type:       models.ConflictNoLunchBreak,
				Severity:   models.SeverityMedium,
				Title:      "No lunch break",
				Description: fmt.Sprintf("%s has no free lunch window on day %d",
					teacherName(facts, teacherID), dayIdx+1),
				AffectedSlotIDs:    ids,
				AffectedTeacherIDs: []string{teacherID},
				DetectedAt:         now,
			})
		}
	}
	return out
}

// hasLunchGap reports whether the ordered day leaves a contiguous free gap of
// at least 30 minutes inside the 11:00-13:00 window.
func hasLunchGap(day []slotWithTime) bool {
	free := lunchWindowStartMinute
	for _, e := range day {
		if e.ts.End <= lunchWindowStartMinute || e.ts.Start >= lunchWindowEndMinute {
			continue
		}
		if e.ts.Start-free >= lunchMinimumGapMinutes {
			return true
		}
		if e.ts.End > free {
			free = e.ts.End
		}
	}
	return lunchWindowEndMinute-free >= lunchMinimumGapMinutes
}

func (s *ConflictService) detectExcessiveConsecutive(scheduleID string, slots []models.ScheduleSlot, facts *EvaluationFacts, now time.Time) []models.Conflict {
	var out []models.Conflict
	for teacherID, days := range teacherDaySlots(slots, facts) {
		for _, day := range days {
			run := []slotWithTime{}
			flush := func() {
				if len(run) <= maxConsecutiveDetected {
					run = nil
					return
				}
				ids := make([]string, 0, len(run))
				for _, e := range run {
					ids = append(ids, e.slot.ID)
				}
				out = append(out, models.Conflict{
					ID:         uuid.NewString(),
					ScheduleID: scheduleID,
					Type:       models.ConflictExcessiveConsecutive,
					Severity:   models.SeverityMedium,
					Title:      "Too many consecutive classes",
					Description: fmt.Sprintf("%s teaches %d classes in a row",
						teacherName(facts, teacherID), len(ids)),
					AffectedSlotIDs:    ids,
					AffectedTeacherIDs: []string{teacherID},
					DetectedAt:         now,
				})
				run = nil
			}
			for _, e := range day {
				if len(run) > 0 && e.ts.Period != run[len(run)-1].ts.Period+1 {
					flush()
				}
				run = append(run, e)
			}
			flush()
		}
	}
	return out
}

func (s *ConflictService) detectExcessiveTeachingHours(scheduleID string, slots []models.ScheduleSlot, facts *EvaluationFacts, now time.Time) []models.Conflict {
	var out []models.Conflict
	for teacherID, days := range teacherDaySlots(slots, facts) {
		limit := defaultMaxTeachingDaily
		if t, ok := facts.Teachers[teacherID]; ok && t.MaxPeriodsPerDay > 0 {
			limit = t.MaxPeriodsPerDay
		}
		for dayIdx, day := range days {
			if len(day) <= limit {
				continue
			}
			out = append(out, models.Conflict{
				ID:         uuid.NewString(),
				ScheduleID: scheduleID,
				Type:       models.ConflictExcessiveTeachingHours,
				Severity:   models.SeverityHigh,
				Title:      "Daily teaching limit exceeded",
				Description: fmt.Sprintf("%s teaches %d periods on day %d (limit %d)",
					teacherName(facts, teacherID), len(day), dayIdx+1, limit),
				AffectedTeacherIDs: []string{teacherID},
				DetectedAt:         now,
			})
		}
	}
	return out
}

func (s *ConflictService) detectMissingPrep(scheduleID string, slots []models.ScheduleSlot, facts *EvaluationFacts, now time.Time) []models.Conflict {
	var out []models.Conflict
	for teacherID, days := range teacherDaySlots(slots, facts) {
		for dayIdx, day := range days {
			if len(day) < prepRequiredFromPeriods {
				continue
			}
			out = append(out, models.Conflict{
				ID:         uuid.NewString(),
				ScheduleID: scheduleID,
				Type:       models.ConflictNoPreparationPeriod,
				Severity:   models.SeverityMedium,
				Title:      "No preparation period",
				Description: fmt.Sprintf("%s has no free period on day %d",
					teacherName(facts, teacherID), dayIdx+1),
				AffectedTeacherIDs: []string{teacherID},
				DetectedAt:         now,
			})
		}
	}
	return out
}

func (s *ConflictService) detectSubjectMismatches(scheduleID string, slots []models.ScheduleSlot, facts *EvaluationFacts, now time.Time) []models.Conflict {
	var out []models.Conflict
	for _, slot := range slots {
		teacher, okT := facts.Teachers[slot.TeacherID]
		course, okC := facts.Courses[slot.CourseID]
		if !okT || !okC {
			continue
		}
		if QualificationPenalty(teacher, course) < qualificationNoMatchPenalty {
			continue
		}
		out = append(out, models.Conflict{
			ID:         uuid.NewString(),
			ScheduleID: scheduleID,
			Type:       models.ConflictSubjectMismatch,
			Severity:   models.SeverityLow,
			Title:      "Subject mismatch",
			Description: fmt.Sprintf("%s is not qualified for %s",
				teacher.FullName, course.CourseName),
			AffectedSlotIDs:    []string{slot.ID},
			AffectedTeacherIDs: []string{teacher.ID},
			AffectedCourseIDs:  []string{course.ID},
			DetectedAt:         now,
		})
	}
	return out
}

func (s *ConflictService) detectEnrollment(scheduleID string, slots []models.ScheduleSlot, facts *EvaluationFacts, now time.Time) []models.Conflict {
	var out []models.Conflict
	for _, slot := range slots {
		course, ok := facts.Courses[slot.CourseID]
		if !ok {
			continue
		}
		n := len(slot.StudentIDs)
		switch {
		case course.MaxStudents > 0 && n > course.MaxStudents:
			out = append(out, models.Conflict{
				ID:          uuid.NewString(),
				ScheduleID:  scheduleID,
				Type:        models.ConflictSectionOverEnrolled,
				Severity:    models.SeverityMedium,
				Title:       "Section over-enrolled",
				Description: fmt.Sprintf("%s has %d students (max %d)", course.CourseName, n, course.MaxStudents),
				AffectedSlotIDs:   []string{slot.ID},
				AffectedCourseIDs: []string{course.ID},
				DetectedAt:        now,
			})
		case course.MinStudents > 0 && n > 0 && n < course.MinStudents:
			out = append(out, models.Conflict{
				ID:          uuid.NewString(),
				ScheduleID:  scheduleID,
				Type:        models.ConflictSectionUnderEnrolled,
				Severity:    models.SeverityLow,
				Title:       "Section under-enrolled",
				Description: fmt.Sprintf("%s has %d students (min %d)", course.CourseName, n, course.MinStudents),
				AffectedSlotIDs:   []string{slot.ID},
				AffectedCourseIDs: []string{course.ID},
				DetectedAt:        now,
			})
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// helpers

type slotWithTime struct {
	slot models.ScheduleSlot
	ts   models.TimeSlot
}

// teacherDaySlots groups each teacher's slots per weekday, ordered by start.
func teacherDaySlots(slots []models.ScheduleSlot, facts *EvaluationFacts) map[string][][]slotWithTime {
	perTeacher := make(map[string]map[int][]slotWithTime)
	for _, s := range slots {
		if s.TeacherID == "" || s.IsLunchPeriod {
			continue
		}
		ts, ok := facts.TimeSlots[s.TimeSlotID]
		if !ok {
			continue
		}
		if perTeacher[s.TeacherID] == nil {
			perTeacher[s.TeacherID] = make(map[int][]slotWithTime)
		}
		perTeacher[s.TeacherID][ts.Day] = append(perTeacher[s.TeacherID][ts.Day], slotWithTime{slot: s, ts: ts})
	}

	out := make(map[string][][]slotWithTime, len(perTeacher))
	for teacherID, byDay := range perTeacher {
		days := make([]int, 0, len(byDay))
		for d := range byDay {
			days = append(days, d)
		}
		sort.Ints(days)
		for _, d := range days {
			day := byDay[d]
			sort.Slice(day, func(i, j int) bool { return day[i].ts.Start < day[j].ts.Start })
			out[teacherID] = append(out[teacherID], day)
		}
	}
	return out
}

func slotCountsBy(slots []models.ScheduleSlot, key func(models.ScheduleSlot) string) []float64 {
	counts := make(map[string]int)
	for _, s := range slots {
		if k := key(s); k != "" {
			counts[k]++
		}
	}
	out := make([]float64, 0, len(counts))
	for _, n := range counts {
		out = append(out, float64(n))
	}
	return out
}

// distributionBonus rewards low variance: 1/(1+sqrt(variance)) scaled to 50.
func distributionBonus(counts []float64) float64 {
	if len(counts) == 0 {
		return 0
	}
	mean := 0.0
	for _, c := range counts {
		mean += c
	}
	mean /= float64(len(counts))
	variance := 0.0
	for _, c := range counts {
		variance += (c - mean) * (c - mean)
	}
	variance /= float64(len(counts))
	return 1 / (1 + math.Sqrt(variance)) * 50
}

func teacherName(facts *EvaluationFacts, id string) string {
	if t, ok := facts.Teachers[id]; ok && t.FullName != "" {
		return t.FullName
	}
	return "teacher " + id
}

func roomLabel(facts *EvaluationFacts, id string) string {
	if r, ok := facts.Rooms[id]; ok && r.RoomNumber != "" {
		return r.RoomNumber
	}
	return id
}
