package models

import "time"

// Course is a roster fact consumed read-only by the solver.
type Course struct {
	ID         string `db:"id" json:"id"`
	CourseName string `db:"course_name" json:"course_name"`
	Subject    string `db:"subject" json:"subject"`
	GradeLevel string `db:"grade_level" json:"grade_level,omitempty"`

	RequiresLab      bool     `db:"requires_lab" json:"requires_lab"`
	RequiredRoomType RoomType `db:"required_room_type" json:"required_room_type,omitempty"`

	// ActivityType refines room matching beyond the type, e.g.
	// "weights training" or "general pe".
	ActivityType string `db:"activity_type" json:"activity_type,omitempty"`

	RequiresProjector  bool     `db:"requires_projector" json:"requires_projector"`
	RequiresSmartboard bool     `db:"requires_smartboard" json:"requires_smartboard"`
	RequiresComputers  bool     `db:"requires_computers" json:"requires_computers"`
	RequiredEquipment  []string `db:"-" json:"required_equipment,omitempty"`

	// Multi-room courses occupy every room in AssignedRoomIDs
	// simultaneously; MaxRoomDistanceMinutes bounds acceptable spread.
	MultiRoom              bool     `db:"multi_room" json:"multi_room"`
	AssignedRoomIDs        []string `db:"-" json:"assigned_room_ids,omitempty"`
	MaxRoomDistanceMinutes int      `db:"max_room_distance_minutes" json:"max_room_distance_minutes,omitempty"`

	SessionsPerWeek int `db:"sessions_per_week" json:"sessions_per_week"`

	// Enrollment bounds per section; zero disables the corresponding check.
	MinStudents int `db:"min_students" json:"min_students,omitempty"`
	MaxStudents int `db:"max_students" json:"max_students,omitempty"`

	// ComplexityScore (0-10) drives the avoid-late-afternoon preference for
	// demanding courses.
	ComplexityScore int `db:"complexity_score" json:"complexity_score"`

	// ExplicitTeacherID pins the course to a teacher chosen by an
	// administrator; the qualification ladder treats it as a perfect match.
	ExplicitTeacherID string `db:"explicit_teacher_id" json:"explicit_teacher_id,omitempty"`

	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// DefaultSessionsPerWeek applies when a course omits its weekly session count.
const DefaultSessionsPerWeek = 5

// EffectiveSessionsPerWeek returns the configured or default session count.
func (c Course) EffectiveSessionsPerWeek() int {
	if c.SessionsPerWeek <= 0 {
		return DefaultSessionsPerWeek
	}
	return c.SessionsPerWeek
}
