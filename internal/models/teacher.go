package models

import "time"

// RoomPreference is a soft, weighted preference for a specific room.
type RoomPreference struct {
	RoomID string `db:"room_id" json:"room_id"`
	Weight int    `db:"weight" json:"weight"`
}

// AvailabilityBlock marks a day/period pair during which a teacher cannot be
// scheduled.
type AvailabilityBlock struct {
	Day    int `db:"day_of_week" json:"day_of_week"`
	Period int `db:"period_number" json:"period_number"`
}

// Teacher is a roster fact consumed read-only by the solver.
type Teacher struct {
	ID         string `db:"id" json:"id"`
	FullName   string `db:"full_name" json:"full_name"`
	Department string `db:"department" json:"department"`

	// Certifications lists subjects the teacher is certified to teach.
	// LegacyCertification carries the free-text field from older rosters
	// and is matched by substring.
	Certifications      []string `db:"-" json:"certifications,omitempty"`
	LegacyCertification string   `db:"legacy_certification" json:"legacy_certification,omitempty"`

	HomeRoomID       string           `db:"home_room_id" json:"home_room_id,omitempty"`
	RoomRestrictions []string         `db:"-" json:"room_restrictions,omitempty"`
	RoomPreferences  []RoomPreference `db:"-" json:"room_preferences,omitempty"`

	Unavailable     []AvailabilityBlock `db:"-" json:"unavailable,omitempty"`
	MaxPeriodsPerDay int                `db:"max_periods_per_day" json:"max_periods_per_day"`
	MaxHoursPerWeek  int                `db:"max_hours_per_week" json:"max_hours_per_week"`
	PlanningPeriod   int                `db:"planning_period" json:"planning_period,omitempty"`

	// HistoricalCourseIDs records courses the teacher has taught before;
	// retaining those pairings is rewarded during scoring.
	HistoricalCourseIDs []string `db:"-" json:"historical_course_ids,omitempty"`

	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// AvailableAt reports whether the teacher can be scheduled at the given
// day/period.
func (t Teacher) AvailableAt(day, period int) bool {
	for _, b := range t.Unavailable {
		if b.Day == day && b.Period == period {
			return false
		}
	}
	return true
}

// HasRoomRestrictions reports whether the teacher carries a hard room list.
func (t Teacher) HasRoomRestrictions() bool {
	return len(t.RoomRestrictions) > 0
}

// AllowedRoom checks the hard room restriction list; an empty list allows
// every room.
func (t Teacher) AllowedRoom(roomID string) bool {
	if len(t.RoomRestrictions) == 0 {
		return true
	}
	for _, id := range t.RoomRestrictions {
		if id == roomID {
			return true
		}
	}
	return false
}
