package dto

// CreateScheduleRequest creates a new draft timetable.
type CreateScheduleRequest struct {
	Name   string `json:"name" validate:"required,min=1,max=200"`
	TermID string `json:"termId" validate:"omitempty,max=100"`
}

// UpdateScheduleRequest renames a schedule or changes its lifecycle status.
type UpdateScheduleRequest struct {
	Name   string `json:"name" validate:"omitempty,min=1,max=200"`
	Status string `json:"status" validate:"omitempty,oneof=DRAFT PUBLISHED ARCHIVED"`
}

// CreateSlotRequest adds one course session to a schedule. Assignment
// fields may be empty; the solver fills them.
type CreateSlotRequest struct {
	CourseID   string   `json:"courseId" validate:"required"`
	TeacherID  string   `json:"teacherId"`
	RoomID     string   `json:"roomId"`
	TimeSlotID string   `json:"timeSlotId"`
	StudentIDs []string `json:"studentIds" validate:"omitempty,dive,required"`
	Pinned     bool     `json:"pinned"`
}

// UpdateSlotRequest replaces a slot's assignment.
type UpdateSlotRequest struct {
	TeacherID  string `json:"teacherId"`
	RoomID     string `json:"roomId"`
	TimeSlotID string `json:"timeSlotId"`
	Pinned     bool   `json:"pinned"`
}
