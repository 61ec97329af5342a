package dto

// AssignLunchRequest batch-assigns students to waves with one strategy.
type AssignLunchRequest struct {
	Method string `json:"method" validate:"required,oneof=BY_GRADE_LEVEL ALPHABETICAL RANDOM BALANCED BY_STUDENT_ID"`
}

// ReassignLunchRequest moves one student to a specific wave.
type ReassignLunchRequest struct {
	StudentID string `json:"studentId" validate:"required"`
	WaveID    string `json:"waveId" validate:"required"`
}

// ReassignTeacherLunchRequest moves one teacher's supervision duty to a
// specific wave.
type ReassignTeacherLunchRequest struct {
	TeacherID string `json:"teacherId" validate:"required"`
	WaveID    string `json:"waveId" validate:"required"`
}

// LunchLockRequest locks or unlocks a student's assignment.
type LunchLockRequest struct {
	StudentID string `json:"studentId" validate:"required"`
	Locked    bool   `json:"locked"`
}

// LunchPriorityRequest adjusts a student's rebalance priority.
type LunchPriorityRequest struct {
	StudentID string `json:"studentId" validate:"required"`
	Priority  int    `json:"priority" validate:"required,min=1,max=10"`
}

// LunchWaveRequest creates or updates a wave definition.
type LunchWaveRequest struct {
	WaveNumber  int    `json:"waveNumber" validate:"required,min=1,max=10"`
	Name        string `json:"name" validate:"required,min=1,max=100"`
	GradeLevel  *int   `json:"gradeLevel" validate:"omitempty,min=1,max=13"`
	MaxCapacity int    `json:"maxCapacity" validate:"omitempty,min=1,max=2000"`
	StartMinute int    `json:"startMinute" validate:"required,min=0,max=1439"`
	EndMinute   int    `json:"endMinute" validate:"required,min=1,max=1440,gtfield=StartMinute"`
}
