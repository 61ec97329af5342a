package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-engine/internal/dto"
	"github.com/noah-isme/sma-timetable-engine/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-engine/pkg/errors"
)

type teacherRepository interface {
	List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, int, error)
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
	Create(ctx context.Context, t *models.Teacher) error
	Update(ctx context.Context, t *models.Teacher) error
	Delete(ctx context.Context, id string) error
}

type roomRepository interface {
	List(ctx context.Context, filter models.RoomFilter) ([]models.Room, int, error)
	FindByID(ctx context.Context, id string) (*models.Room, error)
	Create(ctx context.Context, room *models.Room) error
	Update(ctx context.Context, room *models.Room) error
	Delete(ctx context.Context, id string) error
}

type courseRepository interface {
	List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error)
	FindByID(ctx context.Context, id string) (*models.Course, error)
	Create(ctx context.Context, c *models.Course) error
	Update(ctx context.Context, c *models.Course) error
	Delete(ctx context.Context, id string) error
}

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
	Create(ctx context.Context, s *models.Student) error
	Update(ctx context.Context, s *models.Student) error
	Delete(ctx context.Context, id string) error
}

// RosterService manages the teacher, room, course, and student facts the
// solver consumes.
type RosterService struct {
	teachers teacherRepository
	rooms    roomRepository
	courses  courseRepository
	students studentRepository

	validator *validator.Validate
	logger    *zap.Logger
}

// NewRosterService wires the roster fact stores.
func NewRosterService(teachers teacherRepository, rooms roomRepository, courses courseRepository, students studentRepository, validate *validator.Validate, logger *zap.Logger) *RosterService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RosterService{
		teachers:  teachers,
		rooms:     rooms,
		courses:   courses,
		students:  students,
		validator: validate,
		logger:    logger,
	}
}

// ListTeachers returns teachers with pagination metadata.
func (s *RosterService) ListTeachers(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, *models.Pagination, error) {
	teachers, total, err := s.teachers.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teachers")
	}
	return teachers, paginationFor(filter.Page, filter.PageSize, total), nil
}

// GetTeacher returns a teacher by ID.
func (s *RosterService) GetTeacher(ctx context.Context, id string) (*models.Teacher, error) {
	teacher, err := s.teachers.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOrInternal(err, "teacher")
	}
	return teacher, nil
}

// CreateTeacher adds a teacher roster fact.
func (s *RosterService) CreateTeacher(ctx context.Context, req dto.TeacherRequest) (*models.Teacher, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher payload")
	}

	teacher := &models.Teacher{ID: uuid.NewString(), Active: true}
	applyTeacherRequest(teacher, req)

	if err := s.teachers.Create(ctx, teacher); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create teacher")
	}
	return teacher, nil
}

// UpdateTeacher replaces a teacher's attributes.
func (s *RosterService) UpdateTeacher(ctx context.Context, id string, req dto.TeacherRequest) (*models.Teacher, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher payload")
	}

	teacher, err := s.GetTeacher(ctx, id)
	if err != nil {
		return nil, err
	}
	applyTeacherRequest(teacher, req)

	if err := s.teachers.Update(ctx, teacher); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update teacher")
	}
	return teacher, nil
}

// DeleteTeacher deactivates a teacher.
func (s *RosterService) DeleteTeacher(ctx context.Context, id string) error {
	if _, err := s.GetTeacher(ctx, id); err != nil {
		return err
	}
	if err := s.teachers.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete teacher")
	}
	return nil
}

// ListRooms returns rooms with pagination metadata.
func (s *RosterService) ListRooms(ctx context.Context, filter models.RoomFilter) ([]models.Room, *models.Pagination, error) {
	rooms, total, err := s.rooms.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list rooms")
	}
	return rooms, paginationFor(filter.Page, filter.PageSize, total), nil
}

// GetRoom returns a room by ID.
func (s *RosterService) GetRoom(ctx context.Context, id string) (*models.Room, error) {
	room, err := s.rooms.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOrInternal(err, "room")
	}
	return room, nil
}

// CreateRoom adds a room roster fact.
func (s *RosterService) CreateRoom(ctx context.Context, req dto.RoomRequest) (*models.Room, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid room payload")
	}

	room := &models.Room{ID: uuid.NewString(), Active: true}
	applyRoomRequest(room, req)

	if err := s.rooms.Create(ctx, room); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create room")
	}
	return room, nil
}

// UpdateRoom replaces a room's attributes.
func (s *RosterService) UpdateRoom(ctx context.Context, id string, req dto.RoomRequest) (*models.Room, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid room payload")
	}

	room, err := s.GetRoom(ctx, id)
	if err != nil {
		return nil, err
	}
	applyRoomRequest(room, req)

	if err := s.rooms.Update(ctx, room); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update room")
	}
	return room, nil
}

// DeleteRoom deactivates a room.
func (s *RosterService) DeleteRoom(ctx context.Context, id string) error {
	if _, err := s.GetRoom(ctx, id); err != nil {
		return err
	}
	if err := s.rooms.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete room")
	}
	return nil
}

// ListCourses returns courses with pagination metadata.
func (s *RosterService) ListCourses(ctx context.Context, filter models.CourseFilter) ([]models.Course, *models.Pagination, error) {
	courses, total, err := s.courses.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	return courses, paginationFor(filter.Page, filter.PageSize, total), nil
}

// GetCourse returns a course by ID.
func (s *RosterService) GetCourse(ctx context.Context, id string) (*models.Course, error) {
	course, err := s.courses.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOrInternal(err, "course")
	}
	return course, nil
}

// CreateCourse adds a course roster fact.
func (s *RosterService) CreateCourse(ctx context.Context, req dto.CourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}

	course := &models.Course{ID: uuid.NewString(), Active: true}
	applyCourseRequest(course, req)

	if err := s.courses.Create(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}
	return course, nil
}

// UpdateCourse replaces a course's attributes.
func (s *RosterService) UpdateCourse(ctx context.Context, id string, req dto.CourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}

	course, err := s.GetCourse(ctx, id)
	if err != nil {
		return nil, err
	}
	applyCourseRequest(course, req)

	if err := s.courses.Update(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course")
	}
	return course, nil
}

// DeleteCourse deactivates a course.
func (s *RosterService) DeleteCourse(ctx context.Context, id string) error {
	if _, err := s.GetCourse(ctx, id); err != nil {
		return err
	}
	if err := s.courses.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete course")
	}
	return nil
}

// ListStudents returns students with pagination metadata.
func (s *RosterService) ListStudents(ctx context.Context, filter models.StudentFilter) ([]models.Student, *models.Pagination, error) {
	students, total, err := s.students.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	return students, paginationFor(filter.Page, filter.PageSize, total), nil
}

// GetStudent returns a student by ID.
func (s *RosterService) GetStudent(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.students.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOrInternal(err, "student")
	}
	return student, nil
}

// CreateStudent adds a student roster fact.
func (s *RosterService) CreateStudent(ctx context.Context, req dto.StudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}

	student := &models.Student{ID: uuid.NewString(), Active: true}
	applyStudentRequest(student, req)

	if err := s.students.Create(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}
	return student, nil
}

// UpdateStudent replaces a student's attributes.
func (s *RosterService) UpdateStudent(ctx context.Context, id string, req dto.StudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}

	student, err := s.GetStudent(ctx, id)
	if err != nil {
		return nil, err
	}
	applyStudentRequest(student, req)

	if err := s.students.Update(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}
	return student, nil
}

// DeleteStudent deactivates a student.
func (s *RosterService) DeleteStudent(ctx context.Context, id string) error {
	if _, err := s.GetStudent(ctx, id); err != nil {
		return err
	}
	if err := s.students.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete student")
	}
	return nil
}

func applyTeacherRequest(t *models.Teacher, req dto.TeacherRequest) {
	t.FullName = req.FullName
	t.Department = req.Department
	t.Certifications = req.Certifications
	t.LegacyCertification = req.LegacyCertification
	t.HomeRoomID = req.HomeRoomID
	t.RoomRestrictions = req.RoomRestrictions
	t.MaxPeriodsPerDay = req.MaxPeriodsPerDay
	t.MaxHoursPerWeek = req.MaxHoursPerWeek
	t.PlanningPeriod = req.PlanningPeriod
	t.HistoricalCourseIDs = req.HistoricalCourseIDs
	if req.Active != nil {
		t.Active = *req.Active
	}

	t.RoomPreferences = nil
	for _, p := range req.RoomPreferences {
		t.RoomPreferences = append(t.RoomPreferences, models.RoomPreference{RoomID: p.RoomID, Weight: p.Weight})
	}
	t.Unavailable = nil
	for _, b := range req.Unavailable {
		t.Unavailable = append(t.Unavailable, models.AvailabilityBlock{Day: b.DayOfWeek, Period: b.PeriodNumber})
	}
}

func applyRoomRequest(r *models.Room, req dto.RoomRequest) {
	r.RoomNumber = req.RoomNumber
	r.Capacity = req.Capacity
	r.Type = models.RoomType(req.Type)
	r.MaxConcurrentClasses = req.MaxConcurrentClasses
	r.Building = req.Building
	r.Floor = req.Floor
	r.Zone = req.Zone
	r.HasProjector = req.HasProjector
	r.HasSmartboard = req.HasSmartboard
	r.HasComputers = req.HasComputers
	r.Equipment = req.Equipment
	r.ActivityTags = req.ActivityTags
	if req.Active != nil {
		r.Active = *req.Active
	}
}

func applyCourseRequest(c *models.Course, req dto.CourseRequest) {
	c.CourseName = req.CourseName
	c.Subject = req.Subject
	c.GradeLevel = req.GradeLevel
	c.RequiresLab = req.RequiresLab
	c.RequiredRoomType = models.RoomType(req.RequiredRoomType)
	c.ActivityType = req.ActivityType
	c.RequiresProjector = req.RequiresProjector
	c.RequiresSmartboard = req.RequiresSmartboard
	c.RequiresComputers = req.RequiresComputers
	c.RequiredEquipment = req.RequiredEquipment
	c.MultiRoom = req.MultiRoom
	c.AssignedRoomIDs = req.AssignedRoomIDs
	c.MaxRoomDistanceMinutes = req.MaxRoomDistanceMinutes
	c.SessionsPerWeek = req.SessionsPerWeek
	c.MinStudents = req.MinStudents
	c.MaxStudents = req.MaxStudents
	c.ComplexityScore = req.ComplexityScore
	c.ExplicitTeacherID = req.ExplicitTeacherID
	if req.Active != nil {
		c.Active = *req.Active
	}
}

func applyStudentRequest(s *models.Student, req dto.StudentRequest) {
	s.FirstName = req.FirstName
	s.LastName = req.LastName
	s.GradeLevel = req.GradeLevel
	s.HasIEP = req.HasIEP
	if req.Active != nil {
		s.Active = *req.Active
	}
}

func notFoundOrInternal(err error, kind string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, kind+" not found")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load "+kind)
}

func paginationFor(page, size, total int) *models.Pagination {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	return &models.Pagination{Page: page, PageSize: size, TotalCount: total}
}
