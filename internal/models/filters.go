package models

// TeacherFilter narrows teacher listings.
type TeacherFilter struct {
	Active     *bool
	Department string
	Search     string
	SortBy     string
	SortOrder  string
	Page       int
	PageSize   int
}

// RoomFilter narrows room listings.
type RoomFilter struct {
	Active   *bool
	Type     RoomType
	Building string
	Search   string
	Page     int
	PageSize int
}

// CourseFilter narrows course listings.
type CourseFilter struct {
	Active     *bool
	Subject    string
	GradeLevel string
	Search     string
	Page       int
	PageSize   int
}

// StudentFilter narrows student listings.
type StudentFilter struct {
	Active     *bool
	GradeLevel string
	Search     string
	Page       int
	PageSize   int
}

// ScheduleFilter narrows schedule listings.
type ScheduleFilter struct {
	TermID    string
	Status    ScheduleStatus
	SortBy    string
	SortOrder string
	Page      int
	PageSize  int
}

// UserFilter narrows operator account listings.
type UserFilter struct {
	Role      *string
	Active    *bool
	Search    string
	SortBy    string
	SortOrder string
	Page      int
	PageSize  int
}
