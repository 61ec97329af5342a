package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-engine/internal/models"
)

func TestListSlots(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	now := time.Now()
	slotRows := sqlmock.NewRows([]string{"id", "schedule_id", "course_id", "teacher_id", "room_id", "time_slot_id", "pinned", "is_lunch_period", "lunch_wave", "has_conflict", "created_at", "updated_at"}).
		AddRow("slot-1", "sched-1", "c-1", "t-1", "r-1", "mon-p1", false, false, 0, false, now, now)
	mock.ExpectQuery("SELECT .+ FROM schedule_slots WHERE schedule_id").
		WithArgs("sched-1").
		WillReturnRows(slotRows)

	memberRows := sqlmock.NewRows([]string{"slot_id", "student_id"}).
		AddRow("slot-1", "s-1").
		AddRow("slot-1", "s-2")
	mock.ExpectQuery("SELECT ss.slot_id, ss.student_id FROM slot_students").
		WithArgs("sched-1").
		WillReturnRows(memberRows)

	slots, err := repo.ListSlots(context.Background(), "sched-1")
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, []string{"s-1", "s-2"}, slots[0].StudentIDs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReplaceSlotsTransaction(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM slot_students").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("DELETE FROM schedule_slots").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO schedule_slots").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO slot_students").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE schedules SET version").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	slots := []models.ScheduleSlot{
		{ID: "slot-1", CourseID: "c-1", TeacherID: "t-1", RoomID: "r-1", TimeSlotID: "mon-p1", StudentIDs: []string{"s-1"}},
	}
	err := repo.ReplaceSlots(context.Background(), "sched-1", slots)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReplaceSlotsRollsBackOnError(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM slot_students").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM schedule_slots").WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := repo.ReplaceSlots(context.Background(), "sched-1", nil)
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateSchedule(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectExec("INSERT INTO schedules").WillReturnResult(sqlmock.NewResult(1, 1))

	sched := &models.Schedule{Name: "Fall 2026"}
	err := repo.Create(context.Background(), sched)
	require.NoError(t, err)
	assert.NotEmpty(t, sched.ID)
	assert.Equal(t, models.ScheduleStatusDraft, sched.Status)
	assert.Equal(t, 1, sched.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}
