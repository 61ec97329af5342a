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

func TestCreateOptimizationResult(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewOptimizationRepository(db)

	mock.ExpectExec("INSERT INTO optimization_results").WillReturnResult(sqlmock.NewResult(1, 1))

	result := &models.OptimizationResult{
		ScheduleID: "sched-1",
		Algorithm:  models.AlgorithmGenetic,
		Status:     models.OptimizationPending,
	}
	err := repo.CreateResult(context.Background(), result)
	require.NoError(t, err)
	assert.NotEmpty(t, result.ID)
	assert.False(t, result.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOptimizationResultMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewOptimizationRepository(db)

	mock.ExpectQuery("SELECT .+ FROM optimization_results WHERE id").
		WithArgs("run-missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	result, err := repo.GetResult(context.Background(), "run-missing")
	require.NoError(t, err)
	assert.Nil(t, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListOptimizationResults(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewOptimizationRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "schedule_id", "config_id", "algorithm", "status", "initial_fitness", "final_fitness", "best_fitness", "initial_conflicts", "final_conflicts", "improvement_percent", "generations_executed", "message", "error_details", "started_at", "completed_at", "runtime_seconds", "created_at"}).
		AddRow("run-1", "sched-1", "", string(models.AlgorithmGenetic), string(models.OptimizationCompleted), 9000.0, 9800.0, 97.5, 4, 1, 8.9, 120, "", "", now, now, 42.0, now)
	mock.ExpectQuery("SELECT .+ FROM optimization_results WHERE schedule_id").
		WithArgs("sched-1").
		WillReturnRows(rows)

	results, err := repo.ListResults(context.Background(), "sched-1", 20)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, models.OptimizationCompleted, results[0].Status)
	assert.Equal(t, 120, results[0].GenerationsExecuted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteResultsBefore(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewOptimizationRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM optimization_results WHERE created_at < $1 AND status IN ('COMPLETED', 'FAILED', 'CANCELLED')")).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.DeleteResultsBefore(context.Background(), time.Now().Add(-30*24*time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetConfigDecodesWeights(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewOptimizationRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "name", "algorithm", "population_size", "max_generations", "mutation_rate", "crossover_rate", "elite_size", "tournament_size", "max_runtime_seconds", "stagnation_limit", "log_frequency", "target_fitness", "constraint_weights", "is_default", "created_at", "updated_at"}).
		AddRow("cfg-1", "Nightly", string(models.AlgorithmGenetic), 100, 1000, 0.1, 0.8, 5, 5, 300, 100, 10, nil, `{"NO_TEACHER_OVERLAP": 150}`, true, now, now)
	mock.ExpectQuery("SELECT .+ FROM optimization_configs WHERE id").
		WithArgs("cfg-1").
		WillReturnRows(rows)

	cfg, err := repo.GetConfig(context.Background(), "cfg-1")
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.True(t, cfg.IsDefault)
	assert.Nil(t, cfg.TargetFitness)
	assert.InDelta(t, 150, cfg.ConstraintWeights[models.ConstraintNoTeacherOverlap], 1e-9)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClearDefaultFlag(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewOptimizationRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE optimization_configs SET is_default = FALSE, updated_at = $1 WHERE is_default = TRUE")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.ClearDefaultFlag(context.Background())
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
