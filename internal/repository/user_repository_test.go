package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-engine/internal/models"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	return sqlxdb, mock, func() {
		db.Close()
	}
}

func TestFindByEmail(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "email", "full_name", "password_hash", "role", "active", "last_login_at", "created_at", "updated_at"}).
		AddRow("1", "ops@example.com", "Ops", "hash", models.RoleAdmin, true, now, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, email, full_name, password_hash, role, active, last_login_at, created_at, updated_at FROM users WHERE email = $1 LIMIT 1")).
		WithArgs("ops@example.com").
		WillReturnRows(rows)

	user, err := repo.FindByEmail(context.Background(), "ops@example.com")
	require.NoError(t, err)
	assert.Equal(t, "ops@example.com", user.Email)
	assert.Equal(t, models.RoleAdmin, user.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListUsers(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	now := time.Now()
	listRows := sqlmock.NewRows([]string{"id", "email", "full_name", "password_hash", "role", "active", "last_login_at", "created_at", "updated_at"}).
		AddRow("1", "a@example.com", "A", "hash", models.RoleScheduler, true, now, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, email, full_name, password_hash, role, active, last_login_at, created_at, updated_at FROM users WHERE 1=1 ORDER BY created_at DESC LIMIT 20 OFFSET 0")).
		WillReturnRows(listRows)

	countRows := sqlmock.NewRows([]string{"count"}).AddRow(1)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users WHERE 1=1")).WillReturnRows(countRows)

	users, total, err := repo.List(context.Background(), models.UserFilter{})
	require.NoError(t, err)
	assert.Len(t, users, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUser(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec("INSERT INTO users").WillReturnResult(sqlmock.NewResult(1, 1))

	user := &models.User{Email: "new@example.com", FullName: "New", PasswordHash: "hash", Role: models.RoleViewer, Active: true}
	err := repo.Create(context.Background(), user)
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateLastLogin(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET last_login_at = $2, updated_at = $3 WHERE id = $1")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateLastLogin(context.Background(), "1", time.Now())
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
