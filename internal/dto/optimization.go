package dto

// StartOptimizationRequest launches a background optimization run.
type StartOptimizationRequest struct {
	ConfigID string `json:"configId" validate:"omitempty,uuid4"`
}

// OptimizationConfigRequest creates or updates a tuning profile.
type OptimizationConfigRequest struct {
	Name              string             `json:"name" validate:"required,min=1,max=100"`
	Algorithm         string             `json:"algorithm" validate:"required,oneof=GENETIC_ALGORITHM SIMULATED_ANNEALING TABU_SEARCH HILL_CLIMBING ISLAND_MODEL HYBRID"`
	PopulationSize    int                `json:"populationSize" validate:"omitempty,min=2,max=2000"`
	MaxGenerations    int                `json:"maxGenerations" validate:"omitempty,min=1,max=100000"`
	MutationRate      float64            `json:"mutationRate" validate:"omitempty,min=0,max=1"`
	CrossoverRate     float64            `json:"crossoverRate" validate:"omitempty,min=0,max=1"`
	EliteSize         int                `json:"eliteSize" validate:"omitempty,min=0,max=100"`
	TournamentSize    int                `json:"tournamentSize" validate:"omitempty,min=2,max=50"`
	MaxRuntimeSeconds int                `json:"maxRuntimeSeconds" validate:"omitempty,min=1,max=86400"`
	StagnationLimit   int                `json:"stagnationLimit" validate:"omitempty,min=1"`
	LogFrequency      int                `json:"logFrequency" validate:"omitempty,min=1"`
	TargetFitness     *float64           `json:"targetFitness" validate:"omitempty,min=0,max=100"`
	ConstraintWeights map[string]float64 `json:"constraintWeights" validate:"omitempty,dive,min=0"`
	IsDefault         bool               `json:"isDefault"`
}

// PruneResultsRequest trims old terminal runs.
type PruneResultsRequest struct {
	RetentionDays int `json:"retentionDays" validate:"required,min=1,max=365"`
}
