package models

import "time"

// ScheduleSlot is the unit of assignment. Teacher, room, and time slot ids
// are empty until assigned; solving mutates them in place on a private
// working copy, never on shared fact objects.
type ScheduleSlot struct {
	ID         string `db:"id" json:"id"`
	ScheduleID string `db:"schedule_id" json:"schedule_id"`
	CourseID   string `db:"course_id" json:"course_id"`
	TeacherID  string `db:"teacher_id" json:"teacher_id,omitempty"`
	RoomID     string `db:"room_id" json:"room_id,omitempty"`
	TimeSlotID string `db:"time_slot_id" json:"time_slot_id,omitempty"`

	StudentIDs []string `db:"-" json:"student_ids,omitempty"`

	Pinned        bool `db:"pinned" json:"pinned"`
	IsLunchPeriod bool `db:"is_lunch_period" json:"is_lunch_period"`
	LunchWave     int  `db:"lunch_wave" json:"lunch_wave,omitempty"`
	HasConflict   bool `db:"has_conflict" json:"has_conflict"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Assigned reports whether the slot carries a complete assignment.
func (s ScheduleSlot) Assigned() bool {
	return s.TeacherID != "" && s.RoomID != "" && s.TimeSlotID != ""
}

// Clone returns an independent copy of the slot, including its student set.
func (s ScheduleSlot) Clone() ScheduleSlot {
	out := s
	if s.StudentIDs != nil {
		out.StudentIDs = append([]string(nil), s.StudentIDs...)
	}
	return out
}

// CloneSlots deep-copies a slot list for use as a solver working copy.
func CloneSlots(slots []ScheduleSlot) []ScheduleSlot {
	out := make([]ScheduleSlot, len(slots))
	for i, s := range slots {
		out[i] = s.Clone()
	}
	return out
}
