package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-engine/internal/models"
)

func TestListWaves(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLunchRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "wave_number", "name", "grade_level", "max_capacity", "current_count", "start_minute", "end_minute", "schedule_id", "created_at", "updated_at"}).
		AddRow("w-1", 1, "Wave A", nil, 300, 120, 660, 690, "sched-1", now, now).
		AddRow("w-2", 2, "Wave B", 10, 300, 95, 690, 720, "sched-1", now, now)
	mock.ExpectQuery("SELECT .+ FROM lunch_waves WHERE schedule_id").
		WithArgs("sched-1").
		WillReturnRows(rows)

	waves, err := repo.ListWaves(context.Background(), "sched-1")
	require.NoError(t, err)
	require.Len(t, waves, 2)
	assert.Nil(t, waves[0].GradeLevel)
	require.NotNil(t, waves[1].GradeLevel)
	assert.Equal(t, 10, *waves[1].GradeLevel)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetWaveMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLunchRepository(db)

	mock.ExpectQuery("SELECT .+ FROM lunch_waves WHERE id").
		WithArgs("w-missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	wave, err := repo.GetWave(context.Background(), "w-missing")
	require.NoError(t, err)
	assert.Nil(t, wave)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertStudentAssignment(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLunchRepository(db)

	mock.ExpectExec("INSERT INTO student_lunch_assignments").WillReturnResult(sqlmock.NewResult(1, 1))

	a := &models.StudentLunchAssignment{
		StudentID:  "s-1",
		WaveID:     "w-1",
		ScheduleID: "sched-1",
		Method:     models.LunchBalanced,
		Priority:   models.LunchPriorityDefault,
	}
	err := repo.UpsertStudentAssignment(context.Background(), a)
	require.NoError(t, err)
	assert.NotEmpty(t, a.ID)
	assert.False(t, a.AssignedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateWaveCount(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLunchRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE lunch_waves SET current_count = $2, updated_at = $3 WHERE id = $1")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateWaveCount(context.Background(), "w-1", 140)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListTeacherAssignments(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLunchRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "teacher_id", "wave_id", "schedule_id", "method", "locked", "manual_override", "priority", "assigned_at", "updated_at"}).
		AddRow("ta-1", "t-1", "w-1", "sched-1", "BALANCED", false, false, 5, now, now).
		AddRow("ta-2", "t-2", "w-2", "sched-1", "MANUAL", true, true, 5, now, now)
	mock.ExpectQuery("SELECT .+ FROM teacher_lunch_assignments WHERE schedule_id").
		WithArgs("sched-1").
		WillReturnRows(rows)

	assignments, err := repo.ListTeacherAssignments(context.Background(), "sched-1")
	require.NoError(t, err)
	require.Len(t, assignments, 2)
	assert.Equal(t, "t-1", assignments[0].TeacherID)
	assert.True(t, assignments[1].Locked)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertTeacherAssignment(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLunchRepository(db)

	mock.ExpectExec("INSERT INTO teacher_lunch_assignments").WillReturnResult(sqlmock.NewResult(1, 1))

	a := &models.TeacherLunchAssignment{
		TeacherID:  "t-1",
		WaveID:     "w-1",
		ScheduleID: "sched-1",
		Method:     models.LunchBalanced,
		Priority:   models.LunchPriorityDefault,
	}
	err := repo.UpsertTeacherAssignment(context.Background(), a)
	require.NoError(t, err)
	assert.NotEmpty(t, a.ID)
	assert.False(t, a.AssignedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteStudentAssignments(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLunchRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM student_lunch_assignments WHERE schedule_id = $1")).
		WithArgs("sched-1").
		WillReturnResult(sqlmock.NewResult(0, 240))

	err := repo.DeleteStudentAssignments(context.Background(), "sched-1")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
