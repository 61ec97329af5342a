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

func studentRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "first_name", "last_name", "grade_level", "has_iep", "active", "created_at", "updated_at",
	})
}

func TestStudentRepositoryList(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	rows := studentRows().
		AddRow("s1", "Maya", "Adler", "10", false, true, time.Now(), time.Now()).
		AddRow("s2", "Noor", "Baig", "10", true, true, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT " + studentColumns + " FROM students WHERE 1=1 ORDER BY last_name ASC, first_name ASC LIMIT 50 OFFSET 0")).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM students WHERE 1=1")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	students, total, err := repo.List(context.Background(), models.StudentFilter{})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, students, 2)
	assert.Equal(t, "Adler, Maya", students[0].FullName())
	assert.True(t, students[1].HasIEP)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryListFiltersGrade(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT " + studentColumns + " FROM students WHERE 1=1 AND grade_level = $1 ORDER BY last_name ASC, first_name ASC LIMIT 50 OFFSET 0")).
		WithArgs("11").
		WillReturnRows(studentRows())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM students WHERE 1=1 AND grade_level = $1")).
		WithArgs("11").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	students, total, err := repo.List(context.Background(), models.StudentFilter{GradeLevel: "11"})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, students)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryListActive(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT " + studentColumns + " FROM students WHERE active = TRUE ORDER BY last_name ASC, first_name ASC")).
		WillReturnRows(studentRows().AddRow("s1", "Maya", "Adler", "10", false, true, time.Now(), time.Now()))

	students, err := repo.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.True(t, students[0].Active)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryCreateAssignsID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO students")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	student := &models.Student{FirstName: "Maya", LastName: "Adler", GradeLevel: "10", Active: true}
	require.NoError(t, repo.Create(context.Background(), student))
	assert.NotEmpty(t, student.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
