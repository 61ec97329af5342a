package models

import "time"

// ScheduleStatus represents lifecycle phases for a timetable.
type ScheduleStatus string

const (
	ScheduleStatusDraft     ScheduleStatus = "DRAFT"
	ScheduleStatusPublished ScheduleStatus = "PUBLISHED"
	ScheduleStatusArchived  ScheduleStatus = "ARCHIVED"
)

// Schedule is the persisted container for a set of schedule slots. Version
// supports optimistic concurrency at the persistence boundary.
type Schedule struct {
	ID        string         `db:"id" json:"id"`
	Name      string         `db:"name" json:"name"`
	TermID    string         `db:"term_id" json:"term_id,omitempty"`
	Status    ScheduleStatus `db:"status" json:"status"`
	Version   int            `db:"version" json:"version"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt time.Time      `db:"updated_at" json:"updated_at"`
}

// Pagination describes offset paging metadata shared by list endpoints.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
