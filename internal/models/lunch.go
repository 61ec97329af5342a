package models

import (
	"strings"
	"time"
	"unicode"
)

// LunchAssignmentMethod names the strategy that produced an assignment.
type LunchAssignmentMethod string

const (
	LunchByGradeLevel LunchAssignmentMethod = "BY_GRADE_LEVEL"
	LunchAlphabetical LunchAssignmentMethod = "ALPHABETICAL"
	LunchRandom       LunchAssignmentMethod = "RANDOM"
	LunchBalanced     LunchAssignmentMethod = "BALANCED"
	LunchByStudentID  LunchAssignmentMethod = "BY_STUDENT_ID"
	LunchManual       LunchAssignmentMethod = "MANUAL"
)

// DefaultWaveCapacity applies when a wave record carries no capacity.
const DefaultWaveCapacity = 300

// Lunch assignment priorities range 1 (lowest) to 10; 5 is the default.
const (
	LunchPriorityMin     = 1
	LunchPriorityMax     = 10
	LunchPriorityDefault = 5
)

// LunchWave is one of several time-shifted lunch periods. GradeLevel is nil
// for unrestricted waves. CurrentCount is a working counter maintained
// during batch assignment; authoritative occupancy is recomputed from
// assignment records.
type LunchWave struct {
	ID          string  `db:"id" json:"id"`
	WaveNumber  int     `db:"wave_number" json:"wave_number"`
	Name        string  `db:"name" json:"name"`
	GradeLevel  *int    `db:"grade_level" json:"grade_level,omitempty"`
	MaxCapacity int     `db:"max_capacity" json:"max_capacity"`
	CurrentCount int    `db:"current_count" json:"current_count"`
	StartMinute int     `db:"start_minute" json:"start_minute"`
	EndMinute   int     `db:"end_minute" json:"end_minute"`
	ScheduleID  string  `db:"schedule_id" json:"schedule_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// EffectiveCapacity returns the configured or default wave capacity.
func (w LunchWave) EffectiveCapacity() int {
	if w.MaxCapacity <= 0 {
		return DefaultWaveCapacity
	}
	return w.MaxCapacity
}

// CanAccept reports whether the wave has room for one more person at the
// given occupancy. Callers pass counts recomputed from assignment records
// rather than the cached CurrentCount.
func (w LunchWave) CanAccept(occupied int) bool {
	return occupied < w.EffectiveCapacity()
}

// GradeEligible reports whether a parsed grade level may join the wave. A
// nil grade is eligible only for unrestricted waves.
func (w LunchWave) GradeEligible(grade *int) bool {
	if w.GradeLevel == nil {
		return true
	}
	if grade == nil {
		return false
	}
	return *grade == *w.GradeLevel
}

// ParseGradeLevel extracts the numeric part of a grade string ("Grade 10",
// "10th") and returns nil when no digits are present.
func ParseGradeLevel(raw string) *int {
	var b strings.Builder
	for _, r := range raw {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return nil
	}
	n := 0
	for _, r := range b.String() {
		n = n*10 + int(r-'0')
	}
	return &n
}

// StudentLunchAssignment binds a student to a wave.
type StudentLunchAssignment struct {
	ID             string                `db:"id" json:"id"`
	StudentID      string                `db:"student_id" json:"student_id"`
	WaveID         string                `db:"wave_id" json:"wave_id"`
	ScheduleID     string                `db:"schedule_id" json:"schedule_id"`
	Method         LunchAssignmentMethod `db:"method" json:"method"`
	Locked         bool                  `db:"locked" json:"locked"`
	ManualOverride bool                  `db:"manual_override" json:"manual_override"`
	Priority       int                   `db:"priority" json:"priority"`
	AssignedAt     time.Time             `db:"assigned_at" json:"assigned_at"`
	UpdatedAt      time.Time             `db:"updated_at" json:"updated_at"`
}

// TeacherLunchAssignment binds a supervising teacher to a wave.
type TeacherLunchAssignment struct {
	ID             string                `db:"id" json:"id"`
	TeacherID      string                `db:"teacher_id" json:"teacher_id"`
	WaveID         string                `db:"wave_id" json:"wave_id"`
	ScheduleID     string                `db:"schedule_id" json:"schedule_id"`
	Method         LunchAssignmentMethod `db:"method" json:"method"`
	Locked         bool                  `db:"locked" json:"locked"`
	ManualOverride bool                  `db:"manual_override" json:"manual_override"`
	Priority       int                   `db:"priority" json:"priority"`
	AssignedAt     time.Time             `db:"assigned_at" json:"assigned_at"`
	UpdatedAt      time.Time             `db:"updated_at" json:"updated_at"`
}

// LunchStatistics summarizes wave occupancy for reporting.
type LunchStatistics struct {
	TotalStudents      int            `json:"total_students"`
	AssignedStudents   int            `json:"assigned_students"`
	UnassignedStudents int            `json:"unassigned_students"`
	WaveOccupancy      map[string]int `json:"wave_occupancy"`
	LockedAssignments  int            `json:"locked_assignments"`
	ManualOverrides    int            `json:"manual_overrides"`
}
