package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-timetable-engine/internal/models"
)

// RosterRepository bundles the four fact repositories behind the read
// surface the solver services consume.
type RosterRepository struct {
	Teachers *TeacherRepository
	Rooms    *RoomRepository
	Courses  *CourseRepository
	Students *StudentRepository
}

// NewRosterRepository constructs the fact repositories over one connection.
func NewRosterRepository(db *sqlx.DB) *RosterRepository {
	return &RosterRepository{
		Teachers: NewTeacherRepository(db),
		Rooms:    NewRoomRepository(db),
		Courses:  NewCourseRepository(db),
		Students: NewStudentRepository(db),
	}
}

// ListActiveTeachers returns active teachers for solving.
func (r *RosterRepository) ListActiveTeachers(ctx context.Context) ([]models.Teacher, error) {
	return r.Teachers.ListActive(ctx)
}

// ListActiveRooms returns active rooms for solving.
func (r *RosterRepository) ListActiveRooms(ctx context.Context) ([]models.Room, error) {
	return r.Rooms.ListActive(ctx)
}

// ListActiveCourses returns active courses for solving.
func (r *RosterRepository) ListActiveCourses(ctx context.Context) ([]models.Course, error) {
	return r.Courses.ListActive(ctx)
}

// ListActiveStudents returns active students for solving and lunch waves.
func (r *RosterRepository) ListActiveStudents(ctx context.Context) ([]models.Student, error) {
	return r.Students.ListActive(ctx)
}
