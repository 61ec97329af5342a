package models

import "time"

// ConflictSeverity orders violations by urgency.
type ConflictSeverity string

const (
	SeverityCritical ConflictSeverity = "CRITICAL"
	SeverityHigh     ConflictSeverity = "HIGH"
	SeverityMedium   ConflictSeverity = "MEDIUM"
	SeverityLow      ConflictSeverity = "LOW"
	SeverityInfo     ConflictSeverity = "INFO"
)

// Penalty returns the base fitness penalty for the severity.
func (s ConflictSeverity) Penalty() float64 {
	switch s {
	case SeverityCritical:
		return 1000
	case SeverityHigh:
		return 100
	case SeverityMedium:
		return 10
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// ConflictType identifies the kind of violation a detector found.
type ConflictType string

const (
	ConflictTeacherOverload         ConflictType = "TEACHER_OVERLOAD"
	ConflictRoomDoubleBooking       ConflictType = "ROOM_DOUBLE_BOOKING"
	ConflictRoomCapacityExceeded    ConflictType = "ROOM_CAPACITY_EXCEEDED"
	ConflictRoomTypeMismatch        ConflictType = "ROOM_TYPE_MISMATCH"
	ConflictEquipmentUnavailable    ConflictType = "EQUIPMENT_UNAVAILABLE"
	ConflictSubjectMismatch         ConflictType = "SUBJECT_MISMATCH"
	ConflictBackToBackViolation     ConflictType = "BACK_TO_BACK_VIOLATION"
	ConflictNoLunchBreak            ConflictType = "NO_LUNCH_BREAK"
	ConflictExcessiveConsecutive    ConflictType = "EXCESSIVE_CONSECUTIVE_CLASSES"
	ConflictExcessiveTeachingHours  ConflictType = "EXCESSIVE_TEACHING_HOURS"
	ConflictNoPreparationPeriod     ConflictType = "NO_PREPARATION_PERIOD"
	ConflictTeacherTravelTime       ConflictType = "TEACHER_TRAVEL_TIME"
	ConflictStudentScheduleConflict ConflictType = "STUDENT_SCHEDULE_CONFLICT"
	ConflictStudentTravelTime       ConflictType = "STUDENT_TRAVEL_TIME"
	ConflictSectionOverEnrolled     ConflictType = "SECTION_OVER_ENROLLED"
	ConflictSectionUnderEnrolled    ConflictType = "SECTION_UNDER_ENROLLED"
)

// Conflict is a typed violation record produced by the conflict detector.
type Conflict struct {
	ID          string           `db:"id" json:"id"`
	ScheduleID  string           `db:"schedule_id" json:"schedule_id"`
	Type        ConflictType     `db:"conflict_type" json:"conflict_type"`
	Severity    ConflictSeverity `db:"severity" json:"severity"`
	Title       string           `db:"title" json:"title"`
	Description string           `db:"description" json:"description"`

	AffectedSlotIDs    []string `db:"-" json:"affected_slot_ids,omitempty"`
	AffectedTeacherIDs []string `db:"-" json:"affected_teacher_ids,omitempty"`
	AffectedRoomIDs    []string `db:"-" json:"affected_room_ids,omitempty"`
	AffectedCourseIDs  []string `db:"-" json:"affected_course_ids,omitempty"`
	AffectedStudentIDs []string `db:"-" json:"affected_student_ids,omitempty"`

	DetectedAt time.Time `db:"detected_at" json:"detected_at"`
	Resolved   bool      `db:"resolved" json:"resolved"`
	Ignored    bool      `db:"ignored" json:"ignored"`
}

// Open reports whether the conflict still counts against the schedule.
func (c Conflict) Open() bool {
	return !c.Resolved && !c.Ignored
}

// AffectedEntityCount totals the entities touched by the conflict; fitness
// scales penalties logarithmically with it.
func (c Conflict) AffectedEntityCount() int {
	return len(c.AffectedSlotIDs) + len(c.AffectedTeacherIDs) +
		len(c.AffectedRoomIDs) + len(c.AffectedCourseIDs) + len(c.AffectedStudentIDs)
}

// ConstraintType names a scoring rule for weighting and reporting.
type ConstraintType string

const (
	ConstraintNoTeacherOverlap      ConstraintType = "NO_TEACHER_OVERLAP"
	ConstraintNoRoomOverlap         ConstraintType = "NO_ROOM_OVERLAP"
	ConstraintNoStudentOverlap      ConstraintType = "NO_STUDENT_OVERLAP"
	ConstraintRoomCapacity          ConstraintType = "ROOM_CAPACITY"
	ConstraintTeacherQualification  ConstraintType = "TEACHER_QUALIFICATION"
	ConstraintEquipmentAvailable    ConstraintType = "EQUIPMENT_AVAILABLE"
	ConstraintAllCoursesScheduled   ConstraintType = "ALL_COURSES_SCHEDULED"
	ConstraintMinimizeStudentGaps   ConstraintType = "MINIMIZE_STUDENT_GAPS"
	ConstraintBalanceTeacherLoad    ConstraintType = "BALANCE_TEACHER_LOAD"
	ConstraintLunchBreak            ConstraintType = "LUNCH_BREAK"
	ConstraintMinimizeTeacherTravel ConstraintType = "MINIMIZE_TEACHER_TRAVEL"
	ConstraintMinimizeStudentTravel ConstraintType = "MINIMIZE_STUDENT_TRAVEL"
	ConstraintTeacherPrepPeriods    ConstraintType = "TEACHER_PREP_PERIODS"
	ConstraintRoomPreferences       ConstraintType = "ROOM_PREFERENCES"
	ConstraintBalanceClassSizes     ConstraintType = "BALANCE_CLASS_SIZES"
)

// Hard reports whether the constraint invalidates a schedule when violated.
func (t ConstraintType) Hard() bool {
	switch t {
	case ConstraintNoTeacherOverlap, ConstraintNoRoomOverlap,
		ConstraintNoStudentOverlap, ConstraintRoomCapacity,
		ConstraintTeacherQualification, ConstraintEquipmentAvailable,
		ConstraintAllCoursesScheduled:
		return true
	}
	return false
}

// DefaultWeight returns the base weight for the constraint category.
func (t ConstraintType) DefaultWeight() float64 {
	if t.Hard() {
		return 1000
	}
	return 100
}
