package models

import "time"

// SystemMetrics is an aggregated runtime snapshot exposed on the admin API.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	DBQueryCount             uint64    `json:"db_query_count"`
	AverageDBQueryDurationMs float64   `json:"average_db_query_duration_ms"`
	SolverRunsTotal          uint64    `json:"solver_runs_total"`
	AverageSolverRuntimeSec  float64   `json:"average_solver_runtime_sec"`
	LastSolverFitness        float64   `json:"last_solver_fitness"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
