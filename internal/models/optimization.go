package models

import "time"

// Algorithm selects the search strategy for an optimization run.
type Algorithm string

const (
	AlgorithmGenetic            Algorithm = "GENETIC_ALGORITHM"
	AlgorithmSimulatedAnnealing Algorithm = "SIMULATED_ANNEALING"
	AlgorithmTabuSearch         Algorithm = "TABU_SEARCH"
	AlgorithmHillClimbing       Algorithm = "HILL_CLIMBING"
	AlgorithmIslandModel        Algorithm = "ISLAND_MODEL"
	AlgorithmHybrid             Algorithm = "HYBRID"
)

// UsesPopulation reports whether the algorithm evolves candidate pools.
func (a Algorithm) UsesPopulation() bool {
	return a == AlgorithmGenetic || a == AlgorithmIslandModel || a == AlgorithmHybrid
}

// OptimizationStatus tracks the lifecycle of a run.
type OptimizationStatus string

const (
	OptimizationPending   OptimizationStatus = "PENDING"
	OptimizationRunning   OptimizationStatus = "RUNNING"
	OptimizationCompleted OptimizationStatus = "COMPLETED"
	OptimizationFailed    OptimizationStatus = "FAILED"
	OptimizationCancelled OptimizationStatus = "CANCELLED"
)

// Terminal reports whether the run has finished in any way.
func (s OptimizationStatus) Terminal() bool {
	return s == OptimizationCompleted || s == OptimizationFailed || s == OptimizationCancelled
}

// OptimizationConfig holds tunables for a search run. Exactly one stored
// config is flagged as the default.
type OptimizationConfig struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Algorithm Algorithm `db:"algorithm" json:"algorithm"`

	PopulationSize    int      `db:"population_size" json:"population_size"`
	MaxGenerations    int      `db:"max_generations" json:"max_generations"`
	MutationRate      float64  `db:"mutation_rate" json:"mutation_rate"`
	CrossoverRate     float64  `db:"crossover_rate" json:"crossover_rate"`
	EliteSize         int      `db:"elite_size" json:"elite_size"`
	TournamentSize    int      `db:"tournament_size" json:"tournament_size"`
	MaxRuntimeSeconds int      `db:"max_runtime_seconds" json:"max_runtime_seconds"`
	StagnationLimit   int      `db:"stagnation_limit" json:"stagnation_limit"`
	LogFrequency      int      `db:"log_frequency" json:"log_frequency"`
	TargetFitness     *float64 `db:"target_fitness" json:"target_fitness,omitempty"`

	ConstraintWeights map[ConstraintType]float64 `db:"-" json:"constraint_weights,omitempty"`

	IsDefault bool      `db:"is_default" json:"is_default"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ConstraintWeight resolves the weight for a constraint, falling back to the
// category default.
func (c OptimizationConfig) ConstraintWeight(t ConstraintType) float64 {
	if w, ok := c.ConstraintWeights[t]; ok {
		return w
	}
	return 100
}

// DefaultOptimizationConfig mirrors the stock tuning shipped with the engine.
func DefaultOptimizationConfig() OptimizationConfig {
	return OptimizationConfig{
		Name:              "Default",
		Algorithm:         AlgorithmGenetic,
		PopulationSize:    100,
		MaxGenerations:    1000,
		MutationRate:      0.1,
		CrossoverRate:     0.8,
		EliteSize:         5,
		TournamentSize:    5,
		MaxRuntimeSeconds: 300,
		StagnationLimit:   100,
		LogFrequency:      10,
		IsDefault:         true,
	}
}

// QuickOptimizationConfig trades quality for latency on interactive runs.
func QuickOptimizationConfig() OptimizationConfig {
	cfg := DefaultOptimizationConfig()
	cfg.Name = "Quick"
	cfg.PopulationSize = 50
	cfg.MaxGenerations = 100
	cfg.MaxRuntimeSeconds = 60
	cfg.IsDefault = false
	return cfg
}

// OptimizationResult summarizes one run for persistence and polling.
type OptimizationResult struct {
	ID         string             `db:"id" json:"id"`
	ScheduleID string             `db:"schedule_id" json:"schedule_id"`
	ConfigID   string             `db:"config_id" json:"config_id,omitempty"`
	Algorithm  Algorithm          `db:"algorithm" json:"algorithm"`
	Status     OptimizationStatus `db:"status" json:"status"`

	InitialFitness   float64 `db:"initial_fitness" json:"initial_fitness"`
	FinalFitness     float64 `db:"final_fitness" json:"final_fitness"`
	BestFitness      float64 `db:"best_fitness" json:"best_fitness"`
	InitialConflicts int     `db:"initial_conflicts" json:"initial_conflicts"`
	FinalConflicts   int     `db:"final_conflicts" json:"final_conflicts"`

	GenerationsExecuted int     `db:"generations_executed" json:"generations_executed"`
	ImprovementPercent  float64 `db:"improvement_percent" json:"improvement_percent"`

	Message      string `db:"message" json:"message,omitempty"`
	ErrorDetails string `db:"error_details" json:"error_details,omitempty"`

	StartedAt      *time.Time `db:"started_at" json:"started_at,omitempty"`
	CompletedAt    *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	RuntimeSeconds float64    `db:"runtime_seconds" json:"runtime_seconds"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// MarkStarted transitions the result to RUNNING.
func (r *OptimizationResult) MarkStarted(now time.Time) {
	r.Status = OptimizationRunning
	r.StartedAt = &now
}

// MarkCompleted finalizes the run and derives runtime and improvement.
func (r *OptimizationResult) MarkCompleted(ok bool, now time.Time) {
	if ok {
		r.Status = OptimizationCompleted
	} else {
		r.Status = OptimizationFailed
	}
	r.CompletedAt = &now
	if r.StartedAt != nil {
		r.RuntimeSeconds = now.Sub(*r.StartedAt).Seconds()
	}
	r.CalculateImprovement()
}

// CalculateImprovement derives the fitness gain as a percentage of the
// initial fitness.
func (r *OptimizationResult) CalculateImprovement() {
	if r.InitialFitness != 0 {
		r.ImprovementPercent = (r.FinalFitness - r.InitialFitness) / r.InitialFitness * 100
	}
}
