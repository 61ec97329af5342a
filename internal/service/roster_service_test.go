package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-engine/internal/dto"
	"github.com/noah-isme/sma-timetable-engine/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-engine/pkg/errors"
)

type stubTeacherRepo struct {
	items map[string]models.Teacher
}

func (r *stubTeacherRepo) List(_ context.Context, _ models.TeacherFilter) ([]models.Teacher, int, error) {
	out := make([]models.Teacher, 0, len(r.items))
	for _, t := range r.items {
		out = append(out, t)
	}
	return out, len(out), nil
}

func (r *stubTeacherRepo) FindByID(_ context.Context, id string) (*models.Teacher, error) {
	t, ok := r.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &t, nil
}

func (r *stubTeacherRepo) Create(_ context.Context, t *models.Teacher) error {
	r.items[t.ID] = *t
	return nil
}

func (r *stubTeacherRepo) Update(_ context.Context, t *models.Teacher) error {
	r.items[t.ID] = *t
	return nil
}

func (r *stubTeacherRepo) Delete(_ context.Context, id string) error {
	t := r.items[id]
	t.Active = false
	r.items[id] = t
	return nil
}

type stubRoomRepo struct {
	items map[string]models.Room
}

func (r *stubRoomRepo) List(_ context.Context, _ models.RoomFilter) ([]models.Room, int, error) {
	out := make([]models.Room, 0, len(r.items))
	for _, room := range r.items {
		out = append(out, room)
	}
	return out, len(out), nil
}

func (r *stubRoomRepo) FindByID(_ context.Context, id string) (*models.Room, error) {
	room, ok := r.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &room, nil
}

func (r *stubRoomRepo) Create(_ context.Context, room *models.Room) error {
	r.items[room.ID] = *room
	return nil
}

func (r *stubRoomRepo) Update(_ context.Context, room *models.Room) error {
	r.items[room.ID] = *room
	return nil
}

func (r *stubRoomRepo) Delete(_ context.Context, id string) error {
	room := r.items[id]
	room.Active = false
	r.items[id] = room
	return nil
}

type stubCourseRepo struct {
	items map[string]models.Course
}

func (r *stubCourseRepo) List(_ context.Context, _ models.CourseFilter) ([]models.Course, int, error) {
	out := make([]models.Course, 0, len(r.items))
	for _, c := range r.items {
		out = append(out, c)
	}
	return out, len(out), nil
}

func (r *stubCourseRepo) FindByID(_ context.Context, id string) (*models.Course, error) {
	c, ok := r.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &c, nil
}

func (r *stubCourseRepo) Create(_ context.Context, c *models.Course) error {
	r.items[c.ID] = *c
	return nil
}

func (r *stubCourseRepo) Update(_ context.Context, c *models.Course) error {
	r.items[c.ID] = *c
	return nil
}

func (r *stubCourseRepo) Delete(_ context.Context, id string) error {
	c := r.items[id]
	c.Active = false
	r.items[id] = c
	return nil
}

type stubStudentRepo struct {
	items map[string]models.Student
}

func (r *stubStudentRepo) List(_ context.Context, _ models.StudentFilter) ([]models.Student, int, error) {
	out := make([]models.Student, 0, len(r.items))
	for _, s := range r.items {
		out = append(out, s)
	}
	return out, len(out), nil
}

func (r *stubStudentRepo) FindByID(_ context.Context, id string) (*models.Student, error) {
	s, ok := r.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &s, nil
}

func (r *stubStudentRepo) Create(_ context.Context, s *models.Student) error {
	r.items[s.ID] = *s
	return nil
}

func (r *stubStudentRepo) Update(_ context.Context, s *models.Student) error {
	r.items[s.ID] = *s
	return nil
}

func (r *stubStudentRepo) Delete(_ context.Context, id string) error {
	s := r.items[id]
	s.Active = false
	r.items[id] = s
	return nil
}

func rosterTestService() (*RosterService, *stubTeacherRepo, *stubRoomRepo, *stubCourseRepo, *stubStudentRepo) {
	teachers := &stubTeacherRepo{items: map[string]models.Teacher{}}
	rooms := &stubRoomRepo{items: map[string]models.Room{}}
	courses := &stubCourseRepo{items: map[string]models.Course{}}
	students := &stubStudentRepo{items: map[string]models.Student{}}
	svc := NewRosterService(teachers, rooms, courses, students, nil, nil)
	return svc, teachers, rooms, courses, students
}

func TestCreateTeacherMapsPreferences(t *testing.T) {
	svc, repo, _, _, _ := rosterTestService()

	teacher, err := svc.CreateTeacher(context.Background(), dto.TeacherRequest{
		FullName:       "Ada Byron",
		Department:     "Mathematics",
		Certifications: []string{"Algebra"},
		RoomPreferences: []dto.RoomPreferenceRequest{
			{RoomID: "r-101", Weight: 80},
		},
		Unavailable: []dto.AvailabilityBlockRequest{
			{DayOfWeek: 1, PeriodNumber: 8},
		},
	})
	require.NoError(t, err)
	require.NotEmpty(t, teacher.ID)

	stored := repo.items[teacher.ID]
	assert.True(t, stored.Active)
	require.Len(t, stored.RoomPreferences, 1)
	assert.Equal(t, "r-101", stored.RoomPreferences[0].RoomID)
	assert.Equal(t, 80, stored.RoomPreferences[0].Weight)
	require.Len(t, stored.Unavailable, 1)
	assert.False(t, stored.AvailableAt(1, 8))
}

func TestCreateTeacherRejectsInvalid(t *testing.T) {
	svc, _, _, _, _ := rosterTestService()

	_, err := svc.CreateTeacher(context.Background(), dto.TeacherRequest{FullName: "No Department"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestGetRoomMissing(t *testing.T) {
	svc, _, _, _, _ := rosterTestService()

	_, err := svc.GetRoom(context.Background(), "nope")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestCreateRoomTypeConversion(t *testing.T) {
	svc, _, repo, _, _ := rosterTestService()

	room, err := svc.CreateRoom(context.Background(), dto.RoomRequest{
		RoomNumber: "Lab 2",
		Capacity:   24,
		Type:       string(models.RoomTypeScienceLab),
		HasComputers: true,
	})
	require.NoError(t, err)

	stored := repo.items[room.ID]
	assert.Equal(t, models.RoomTypeScienceLab, stored.Type)
	assert.True(t, stored.Type.IsLab())
	assert.True(t, stored.Active)
}

func TestUpdateCourseDeactivates(t *testing.T) {
	svc, _, _, repo, _ := rosterTestService()

	created, err := svc.CreateCourse(context.Background(), dto.CourseRequest{
		CourseName:      "Chemistry",
		Subject:         "Science",
		RequiresLab:     true,
		SessionsPerWeek: 3,
	})
	require.NoError(t, err)
	assert.True(t, repo.items[created.ID].Active)

	inactive := false
	updated, err := svc.UpdateCourse(context.Background(), created.ID, dto.CourseRequest{
		CourseName:      "Chemistry",
		Subject:         "Science",
		RequiresLab:     true,
		SessionsPerWeek: 3,
		Active:          &inactive,
	})
	require.NoError(t, err)
	assert.False(t, updated.Active)
	assert.False(t, repo.items[created.ID].Active)
}

func TestDeleteStudentSoft(t *testing.T) {
	svc, _, _, _, repo := rosterTestService()

	student, err := svc.CreateStudent(context.Background(), dto.StudentRequest{
		FirstName:  "Grace",
		LastName:   "Hopper",
		GradeLevel: "10",
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteStudent(context.Background(), student.ID))
	assert.False(t, repo.items[student.ID].Active)

	err = svc.DeleteStudent(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestListTeachersPagination(t *testing.T) {
	svc, repo, _, _, _ := rosterTestService()
	repo.items["t-1"] = models.Teacher{ID: "t-1", FullName: "Ada Byron", Department: "Mathematics", Active: true}
	repo.items["t-2"] = models.Teacher{ID: "t-2", FullName: "Rosalind Franklin", Department: "Science", Active: true}

	teachers, page, err := svc.ListTeachers(context.Background(), models.TeacherFilter{Page: 1, PageSize: 20})
	require.NoError(t, err)
	assert.Len(t, teachers, 2)
	assert.Equal(t, 2, page.TotalCount)
	assert.Equal(t, 1, page.Page)
}
