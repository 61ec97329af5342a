package dto

// RoomPreferenceRequest is one weighted room preference.
type RoomPreferenceRequest struct {
	RoomID string `json:"roomId" validate:"required"`
	Weight int    `json:"weight" validate:"required,min=1,max=100"`
}

// AvailabilityBlockRequest marks a day/period as unavailable.
type AvailabilityBlockRequest struct {
	DayOfWeek    int `json:"dayOfWeek" validate:"required,min=1,max=5"`
	PeriodNumber int `json:"periodNumber" validate:"required,min=1,max=8"`
}

// TeacherRequest creates or updates a teacher roster fact.
type TeacherRequest struct {
	FullName            string                     `json:"fullName" validate:"required,min=1,max=200"`
	Department          string                     `json:"department" validate:"required,min=1,max=100"`
	Certifications      []string                   `json:"certifications"`
	LegacyCertification string                     `json:"legacyCertification"`
	HomeRoomID          string                     `json:"homeRoomId"`
	RoomRestrictions    []string                   `json:"roomRestrictions"`
	RoomPreferences     []RoomPreferenceRequest    `json:"roomPreferences" validate:"omitempty,dive"`
	Unavailable         []AvailabilityBlockRequest `json:"unavailable" validate:"omitempty,dive"`
	MaxPeriodsPerDay    int                        `json:"maxPeriodsPerDay" validate:"omitempty,min=1,max=8"`
	MaxHoursPerWeek     int                        `json:"maxHoursPerWeek" validate:"omitempty,min=1,max=60"`
	PlanningPeriod      int                        `json:"planningPeriod" validate:"omitempty,min=1,max=8"`
	HistoricalCourseIDs []string                   `json:"historicalCourseIds"`
	Active              *bool                      `json:"active"`
}

// RoomRequest creates or updates a room roster fact.
type RoomRequest struct {
	RoomNumber           string   `json:"roomNumber" validate:"required,min=1,max=50"`
	Capacity             int      `json:"capacity" validate:"required,min=1,max=5000"`
	Type                 string   `json:"roomType" validate:"required"`
	MaxConcurrentClasses int      `json:"maxConcurrentClasses" validate:"omitempty,min=1,max=10"`
	Building             string   `json:"building"`
	Floor                int      `json:"floor" validate:"omitempty,min=0,max=50"`
	Zone                 string   `json:"zone"`
	HasProjector         bool     `json:"hasProjector"`
	HasSmartboard        bool     `json:"hasSmartboard"`
	HasComputers         bool     `json:"hasComputers"`
	Equipment            []string `json:"equipment"`
	ActivityTags         []string `json:"activityTags"`
	Active               *bool    `json:"active"`
}

// CourseRequest creates or updates a course roster fact.
type CourseRequest struct {
	CourseName             string   `json:"courseName" validate:"required,min=1,max=200"`
	Subject                string   `json:"subject" validate:"required,min=1,max=100"`
	GradeLevel             string   `json:"gradeLevel"`
	RequiresLab            bool     `json:"requiresLab"`
	RequiredRoomType       string   `json:"requiredRoomType"`
	ActivityType           string   `json:"activityType"`
	RequiresProjector      bool     `json:"requiresProjector"`
	RequiresSmartboard     bool     `json:"requiresSmartboard"`
	RequiresComputers      bool     `json:"requiresComputers"`
	RequiredEquipment      []string `json:"requiredEquipment"`
	MultiRoom              bool     `json:"multiRoom"`
	AssignedRoomIDs        []string `json:"assignedRoomIds"`
	MaxRoomDistanceMinutes int      `json:"maxRoomDistanceMinutes" validate:"omitempty,min=1,max=60"`
	SessionsPerWeek        int      `json:"sessionsPerWeek" validate:"omitempty,min=1,max=10"`
	MinStudents            int      `json:"minStudents" validate:"omitempty,min=0,max=1000"`
	MaxStudents            int      `json:"maxStudents" validate:"omitempty,min=0,max=1000"`
	ComplexityScore        int      `json:"complexityScore" validate:"omitempty,min=1,max=10"`
	ExplicitTeacherID      string   `json:"explicitTeacherId"`
	Active                 *bool    `json:"active"`
}

// StudentRequest creates or updates a student roster fact.
type StudentRequest struct {
	FirstName  string `json:"firstName" validate:"required,min=1,max=100"`
	LastName   string `json:"lastName" validate:"required,min=1,max=100"`
	GradeLevel string `json:"gradeLevel" validate:"required,min=1,max=20"`
	HasIEP     bool   `json:"hasIep"`
	Active     *bool  `json:"active"`
}
