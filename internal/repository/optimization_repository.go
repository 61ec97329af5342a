package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-timetable-engine/internal/models"
)

const optimizationResultColumns = "id, schedule_id, config_id, algorithm, status, initial_fitness, final_fitness, best_fitness, initial_conflicts, final_conflicts, improvement_percent, generations_executed, message, error_details, started_at, completed_at, runtime_seconds, created_at"

const optimizationConfigColumns = "id, name, algorithm, population_size, max_generations, mutation_rate, crossover_rate, elite_size, tournament_size, max_runtime_seconds, stagnation_limit, log_frequency, target_fitness, constraint_weights, is_default, created_at, updated_at"

// OptimizationRepository persists optimization runs and tuning profiles.
type OptimizationRepository struct {
	db *sqlx.DB
}

// NewOptimizationRepository constructs an OptimizationRepository.
func NewOptimizationRepository(db *sqlx.DB) *OptimizationRepository {
	return &OptimizationRepository{db: db}
}

// CreateResult stores a new run record.
func (r *OptimizationRepository) CreateResult(ctx context.Context, result *models.OptimizationResult) error {
	if result.ID == "" {
		result.ID = uuid.NewString()
	}
	if result.CreatedAt.IsZero() {
		result.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO optimization_results (id, schedule_id, config_id, algorithm, status, initial_fitness, final_fitness, best_fitness, initial_conflicts, final_conflicts, improvement_percent, generations_executed, message, error_details, started_at, completed_at, runtime_seconds, created_at) VALUES (:id, :schedule_id, :config_id, :algorithm, :status, :initial_fitness, :final_fitness, :best_fitness, :initial_conflicts, :final_conflicts, :improvement_percent, :generations_executed, :message, :error_details, :started_at, :completed_at, :runtime_seconds, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, result); err != nil {
		return fmt.Errorf("create optimization result: %w", err)
	}
	return nil
}

// UpdateResult replaces the mutable fields of a run record.
func (r *OptimizationRepository) UpdateResult(ctx context.Context, result *models.OptimizationResult) error {
	const query = `UPDATE optimization_results SET status = :status, initial_fitness = :initial_fitness, final_fitness = :final_fitness, best_fitness = :best_fitness, initial_conflicts = :initial_conflicts, final_conflicts = :final_conflicts, improvement_percent = :improvement_percent, generations_executed = :generations_executed, message = :message, error_details = :error_details, started_at = :started_at, completed_at = :completed_at, runtime_seconds = :runtime_seconds WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, result); err != nil {
		return fmt.Errorf("update optimization result: %w", err)
	}
	return nil
}

// GetResult loads one run.
func (r *OptimizationRepository) GetResult(ctx context.Context, id string) (*models.OptimizationResult, error) {
	query := fmt.Sprintf("SELECT %s FROM optimization_results WHERE id = $1", optimizationResultColumns)
	var result models.OptimizationResult
	if err := r.db.GetContext(ctx, &result, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find optimization result: %w", err)
	}
	return &result, nil
}

// ListResults returns recent runs for a schedule, newest first.
func (r *OptimizationRepository) ListResults(ctx context.Context, scheduleID string, limit int) ([]models.OptimizationResult, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	query := fmt.Sprintf("SELECT %s FROM optimization_results WHERE schedule_id = $1 ORDER BY created_at DESC LIMIT %d", optimizationResultColumns, limit)
	var results []models.OptimizationResult
	if err := r.db.SelectContext(ctx, &results, query, scheduleID); err != nil {
		return nil, fmt.Errorf("list optimization results: %w", err)
	}
	return results, nil
}

// DeleteResultsBefore prunes terminal runs created before the cutoff.
func (r *OptimizationRepository) DeleteResultsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	const query = `DELETE FROM optimization_results WHERE created_at < $1 AND status IN ('COMPLETED', 'FAILED', 'CANCELLED')`
	res, err := r.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune optimization results: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune optimization results rows affected: %w", err)
	}
	return n, nil
}

type optimizationConfigRow struct {
	ID                string          `db:"id"`
	Name              string          `db:"name"`
	Algorithm         string          `db:"algorithm"`
	PopulationSize    int             `db:"population_size"`
	MaxGenerations    int             `db:"max_generations"`
	MutationRate      float64         `db:"mutation_rate"`
	CrossoverRate     float64         `db:"crossover_rate"`
	EliteSize         int             `db:"elite_size"`
	TournamentSize    int             `db:"tournament_size"`
	MaxRuntimeSeconds int             `db:"max_runtime_seconds"`
	StagnationLimit   int             `db:"stagnation_limit"`
	LogFrequency      int             `db:"log_frequency"`
	TargetFitness     sql.NullFloat64 `db:"target_fitness"`
	ConstraintWeights sql.NullString  `db:"constraint_weights"`
	IsDefault         bool            `db:"is_default"`
	CreatedAt         time.Time       `db:"created_at"`
	UpdatedAt         time.Time       `db:"updated_at"`
}

func (row optimizationConfigRow) toModel() (models.OptimizationConfig, error) {
	cfg := models.OptimizationConfig{
		ID:                row.ID,
		Name:              row.Name,
		Algorithm:         models.Algorithm(row.Algorithm),
		PopulationSize:    row.PopulationSize,
		MaxGenerations:    row.MaxGenerations,
		MutationRate:      row.MutationRate,
		CrossoverRate:     row.CrossoverRate,
		EliteSize:         row.EliteSize,
		TournamentSize:    row.TournamentSize,
		MaxRuntimeSeconds: row.MaxRuntimeSeconds,
		StagnationLimit:   row.StagnationLimit,
		LogFrequency:      row.LogFrequency,
		IsDefault:         row.IsDefault,
		CreatedAt:         row.CreatedAt,
		UpdatedAt:         row.UpdatedAt,
	}
	if row.TargetFitness.Valid {
		v := row.TargetFitness.Float64
		cfg.TargetFitness = &v
	}
	if row.ConstraintWeights.Valid && row.ConstraintWeights.String != "" {
		if err := json.Unmarshal([]byte(row.ConstraintWeights.String), &cfg.ConstraintWeights); err != nil {
			return cfg, fmt.Errorf("decode constraint weights for config %s: %w", row.ID, err)
		}
	}
	return cfg, nil
}

// CreateConfig stores a tuning profile.
func (r *OptimizationRepository) CreateConfig(ctx context.Context, cfg *models.OptimizationConfig) error {
	if cfg.ID == "" {
		cfg.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if cfg.CreatedAt.IsZero() {
		cfg.CreatedAt = now
	}
	cfg.UpdatedAt = now

	weights, err := jsonColumn(cfg.ConstraintWeights)
	if err != nil {
		return fmt.Errorf("encode constraint weights: %w", err)
	}
	const query = `INSERT INTO optimization_configs (id, name, algorithm, population_size, max_generations, mutation_rate, crossover_rate, elite_size, tournament_size, max_runtime_seconds, stagnation_limit, log_frequency, target_fitness, constraint_weights, is_default, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`
	_, err = r.db.ExecContext(ctx, query,
		cfg.ID, cfg.Name, string(cfg.Algorithm),
		cfg.PopulationSize, cfg.MaxGenerations, cfg.MutationRate, cfg.CrossoverRate,
		cfg.EliteSize, cfg.TournamentSize, cfg.MaxRuntimeSeconds, cfg.StagnationLimit,
		cfg.LogFrequency, cfg.TargetFitness, weights, cfg.IsDefault, cfg.CreatedAt, cfg.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create optimization config: %w", err)
	}
	return nil
}

// UpdateConfig replaces a tuning profile.
func (r *OptimizationRepository) UpdateConfig(ctx context.Context, cfg *models.OptimizationConfig) error {
	cfg.UpdatedAt = time.Now().UTC()
	weights, err := jsonColumn(cfg.ConstraintWeights)
	if err != nil {
		return fmt.Errorf("encode constraint weights: %w", err)
	}
	const query = `UPDATE optimization_configs SET name = $2, algorithm = $3, population_size = $4, max_generations = $5, mutation_rate = $6, crossover_rate = $7, elite_size = $8, tournament_size = $9, max_runtime_seconds = $10, stagnation_limit = $11, log_frequency = $12, target_fitness = $13, constraint_weights = $14, is_default = $15, updated_at = $16 WHERE id = $1`
	_, err = r.db.ExecContext(ctx, query,
		cfg.ID, cfg.Name, string(cfg.Algorithm),
		cfg.PopulationSize, cfg.MaxGenerations, cfg.MutationRate, cfg.CrossoverRate,
		cfg.EliteSize, cfg.TournamentSize, cfg.MaxRuntimeSeconds, cfg.StagnationLimit,
		cfg.LogFrequency, cfg.TargetFitness, weights, cfg.IsDefault, cfg.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update optimization config: %w", err)
	}
	return nil
}

// GetConfig loads one tuning profile.
func (r *OptimizationRepository) GetConfig(ctx context.Context, id string) (*models.OptimizationConfig, error) {
	query := fmt.Sprintf("SELECT %s FROM optimization_configs WHERE id = $1", optimizationConfigColumns)
	var row optimizationConfigRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find optimization config: %w", err)
	}
	cfg, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ListConfigs returns all stored tuning profiles.
func (r *OptimizationRepository) ListConfigs(ctx context.Context) ([]models.OptimizationConfig, error) {
	query := fmt.Sprintf("SELECT %s FROM optimization_configs ORDER BY is_default DESC, name ASC", optimizationConfigColumns)
	var rows []optimizationConfigRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list optimization configs: %w", err)
	}
	configs := make([]models.OptimizationConfig, 0, len(rows))
	for _, row := range rows {
		cfg, err := row.toModel()
		if err != nil {
			return nil, err
		}
		configs = append(configs, cfg)
	}
	return configs, nil
}

// DeleteConfig removes a tuning profile.
func (r *OptimizationRepository) DeleteConfig(ctx context.Context, id string) error {
	const query = `DELETE FROM optimization_configs WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete optimization config: %w", err)
	}
	return nil
}

// GetDefaultConfig loads the profile flagged as default, nil when none.
func (r *OptimizationRepository) GetDefaultConfig(ctx context.Context) (*models.OptimizationConfig, error) {
	query := fmt.Sprintf("SELECT %s FROM optimization_configs WHERE is_default = TRUE LIMIT 1", optimizationConfigColumns)
	var row optimizationConfigRow
	if err := r.db.GetContext(ctx, &row, query); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find default optimization config: %w", err)
	}
	cfg, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ClearDefaultFlag unsets the default flag on every profile.
func (r *OptimizationRepository) ClearDefaultFlag(ctx context.Context) error {
	const query = `UPDATE optimization_configs SET is_default = FALSE, updated_at = $1 WHERE is_default = TRUE`
	if _, err := r.db.ExecContext(ctx, query, time.Now().UTC()); err != nil {
		return fmt.Errorf("clear default optimization config: %w", err)
	}
	return nil
}
