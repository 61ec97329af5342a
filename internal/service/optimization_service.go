package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-engine/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-engine/pkg/errors"
	"github.com/noah-isme/sma-timetable-engine/pkg/jobs"
)

type optimizationResultRepository interface {
	CreateResult(ctx context.Context, r *models.OptimizationResult) error
	UpdateResult(ctx context.Context, r *models.OptimizationResult) error
	GetResult(ctx context.Context, id string) (*models.OptimizationResult, error)
	ListResults(ctx context.Context, scheduleID string, limit int) ([]models.OptimizationResult, error)
	DeleteResultsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type optimizationConfigRepository interface {
	CreateConfig(ctx context.Context, c *models.OptimizationConfig) error
	UpdateConfig(ctx context.Context, c *models.OptimizationConfig) error
	GetConfig(ctx context.Context, id string) (*models.OptimizationConfig, error)
	ListConfigs(ctx context.Context) ([]models.OptimizationConfig, error)
	DeleteConfig(ctx context.Context, id string) error
	GetDefaultConfig(ctx context.Context) (*models.OptimizationConfig, error)
	ClearDefaultFlag(ctx context.Context) error
}

type scheduleStore interface {
	GetSchedule(ctx context.Context, id string) (*models.Schedule, error)
	ListSlots(ctx context.Context, scheduleID string) ([]models.ScheduleSlot, error)
	ReplaceSlots(ctx context.Context, scheduleID string, slots []models.ScheduleSlot) error
}

type rosterReader interface {
	ListActiveTeachers(ctx context.Context) ([]models.Teacher, error)
	ListActiveRooms(ctx context.Context) ([]models.Room, error)
	ListActiveCourses(ctx context.Context) ([]models.Course, error)
	ListActiveStudents(ctx context.Context) ([]models.Student, error)
}

// OptimizationService owns the lifecycle of optimization runs: it resolves
// the configuration, records a pending result, executes the solve off the
// request path, and exposes cancellation and result queries.
type OptimizationService struct {
	results   optimizationResultRepository
	configs   optimizationConfigRepository
	schedules scheduleStore
	roster    rosterReader
	solver    *SolverService
	conflicts *ConflictService
	queue     *jobs.Queue
	metrics   *MetricsService
	logger    *zap.Logger

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
}

// WithMetrics attaches run instrumentation. Safe to skip in tests.
func (s *OptimizationService) WithMetrics(m *MetricsService) *OptimizationService {
	s.metrics = m
	return s
}

// NewOptimizationService wires the service. When withQueue is true, runs
// execute on a background worker; otherwise Start executes synchronously,
// which is what tests and CLI batch runs want.
func NewOptimizationService(
	results optimizationResultRepository,
	configs optimizationConfigRepository,
	schedules scheduleStore,
	roster rosterReader,
	solver *SolverService,
	conflicts *ConflictService,
	logger *zap.Logger,
	withQueue bool,
) *OptimizationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if solver == nil {
		solver = NewSolverService(nil, logger)
	}
	if conflicts == nil {
		conflicts = NewConflictService(logger)
	}
	s := &OptimizationService{
		results:   results,
		configs:   configs,
		schedules: schedules,
		roster:    roster,
		solver:    solver,
		conflicts: conflicts,
		logger:    logger,
		cancels:   make(map[string]context.CancelFunc),
	}
	if withQueue {
		s.queue = jobs.NewQueue("optimization", s.handleJob, jobs.QueueConfig{
			Workers: 2,
			Logger:  logger,
		})
	}
	return s
}

// StartWorkers begins background processing. No-op without a queue.
func (s *OptimizationService) StartWorkers(ctx context.Context) {
	if s.queue != nil {
		s.queue.Start(ctx)
	}
}

// StopWorkers drains and stops the background workers.
func (s *OptimizationService) StopWorkers() {
	if s.queue != nil {
		s.queue.Stop()
	}
}

// StartOptimization records a pending run for the schedule and kicks off the
// solve. With a queue the call returns as soon as the run is recorded.
func (s *OptimizationService) StartOptimization(ctx context.Context, scheduleID, configID string) (*models.OptimizationResult, error) {
	cfg, err := s.resolveConfig(ctx, configID)
	if err != nil {
		return nil, err
	}
	return s.start(ctx, scheduleID, *cfg)
}

// QuickOptimize runs with the latency-biased stock tuning regardless of the
// stored default.
func (s *OptimizationService) QuickOptimize(ctx context.Context, scheduleID string) (*models.OptimizationResult, error) {
	cfg := models.QuickOptimizationConfig()
	return s.start(ctx, scheduleID, cfg)
}

// SolveNow executes a full solve on the request path and persists the
// improved slots. Interactive edits use this; long runs belong on the queue.
func (s *OptimizationService) SolveNow(ctx context.Context, scheduleID, configID string) (*Solution, error) {
	problem, err := s.problemFor(ctx, scheduleID, configID)
	if err != nil {
		return nil, err
	}
	solution, err := s.solver.Solve(ctx, problem, nil)
	if err != nil {
		return nil, err
	}
	if err := s.schedules.ReplaceSlots(ctx, scheduleID, solution.Slots); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store solved slots")
	}
	return solution, nil
}

// SolvePartialNow re-optimizes only the named slots, keeping every other
// assignment fixed, and persists the outcome.
func (s *OptimizationService) SolvePartialNow(ctx context.Context, scheduleID string, slotIDs []string, configID string) (*Solution, error) {
	problem, err := s.problemFor(ctx, scheduleID, configID)
	if err != nil {
		return nil, err
	}
	solution, err := s.solver.OptimizePartial(ctx, problem, slotIDs, nil)
	if err != nil {
		return nil, err
	}
	if err := s.schedules.ReplaceSlots(ctx, scheduleID, solution.Slots); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store solved slots")
	}
	return solution, nil
}

// ImproveNow re-solves with the named constraint's contribution doubled,
// steering the search toward clearing that class of violation, and persists
// the outcome.
func (s *OptimizationService) ImproveNow(ctx context.Context, scheduleID string, constraint models.ConstraintType, configID string) (*Solution, error) {
	problem, err := s.problemFor(ctx, scheduleID, configID)
	if err != nil {
		return nil, err
	}
	solution, err := s.solver.ImproveForConstraint(ctx, problem, constraint, nil)
	if err != nil {
		return nil, err
	}
	if err := s.schedules.ReplaceSlots(ctx, scheduleID, solution.Slots); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store solved slots")
	}
	return solution, nil
}

// EvaluateNow scores the schedule's current assignment without changing it.
func (s *OptimizationService) EvaluateNow(ctx context.Context, scheduleID, configID string) (Score, float64, error) {
	problem, err := s.problemFor(ctx, scheduleID, configID)
	if err != nil {
		return Score{}, 0, err
	}
	return s.solver.Evaluate(problem)
}

func (s *OptimizationService) problemFor(ctx context.Context, scheduleID, configID string) (*Problem, error) {
	if _, err := s.schedules.GetSchedule(ctx, scheduleID); err != nil {
		return nil, appErrors.Clone(appErrors.ErrScheduleNotFound, "")
	}
	cfg, err := s.resolveConfig(ctx, configID)
	if err != nil {
		return nil, err
	}
	problem, err := s.buildProblem(ctx, scheduleID, *cfg)
	if err != nil {
		return nil, err
	}
	if err := problem.Validate(); err != nil {
		return nil, err
	}
	return problem, nil
}

func (s *OptimizationService) start(ctx context.Context, scheduleID string, cfg models.OptimizationConfig) (*models.OptimizationResult, error) {
	if _, err := s.schedules.GetSchedule(ctx, scheduleID); err != nil {
		return nil, appErrors.Clone(appErrors.ErrScheduleNotFound, "")
	}
	problem, err := s.buildProblem(ctx, scheduleID, cfg)
	if err != nil {
		return nil, err
	}
	if err := problem.Validate(); err != nil {
		return nil, err
	}

	facts := problem.Facts()
	initialConflicts := s.conflicts.DetectAll(scheduleID, problem.Slots, facts)
	initialFitness := s.conflicts.Fitness(initialConflicts, cfg, problem.Slots, facts)

	result := &models.OptimizationResult{
		ID:               uuid.NewString(),
		ScheduleID:       scheduleID,
		ConfigID:         cfg.ID,
		Algorithm:        cfg.Algorithm,
		Status:           models.OptimizationPending,
		InitialFitness:   initialFitness,
		InitialConflicts: s.conflicts.OpenConflictCount(initialConflicts),
		CreatedAt:        time.Now(),
	}
	if err := s.results.CreateResult(ctx, result); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record optimization run")
	}

	if s.queue != nil {
		err := s.queue.Enqueue(jobs.Job{
			ID:      result.ID,
			Type:    "optimize",
			Payload: optimizationJob{ResultID: result.ID, Problem: problem, Config: cfg},
		})
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue optimization run")
		}
		return result, nil
	}

	s.execute(ctx, result.ID, problem, cfg)
	return s.GetResult(ctx, result.ID)
}

type optimizationJob struct {
	ResultID string
	Problem  *Problem
	Config   models.OptimizationConfig
}

func (s *OptimizationService) handleJob(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(optimizationJob)
	if !ok {
		s.logger.Error("unexpected job payload", zap.String("job_id", job.ID))
		return nil
	}
	s.execute(ctx, payload.ResultID, payload.Problem, payload.Config)
	return nil
}

// execute runs the solve, keeps the result row current, and persists the
// improved slots on success.
func (s *OptimizationService) execute(ctx context.Context, resultID string, problem *Problem, cfg models.OptimizationConfig) {
	runCtx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancels[resultID] = cancel
	s.mu.Unlock()
	defer func() {
		cancel()
		s.mu.Lock()
		delete(s.cancels, resultID)
		s.mu.Unlock()
	}()

	result, err := s.results.GetResult(ctx, resultID)
	if err != nil || result == nil {
		s.logger.Error("optimization result disappeared", zap.String("result_id", resultID))
		return
	}
	result.MarkStarted(time.Now())
	if err := s.results.UpdateResult(ctx, result); err != nil {
		s.logger.Warn("failed to mark run started", zap.String("result_id", resultID), zap.Error(err))
	}

	solution, solveErr := s.solver.Solve(runCtx, problem, func(p Progress) {
		result.GenerationsExecuted = p.Generation
		result.BestFitness = p.Quality
	})

	now := time.Now()
	cancelled := runCtx.Err() != nil && ctx.Err() == nil

	switch {
	case solveErr != nil:
		result.Status = models.OptimizationFailed
		result.ErrorDetails = solveErr.Error()
		result.CompletedAt = &now
	case cancelled:
		result.Status = models.OptimizationCancelled
		result.Message = "run cancelled before completion"
		result.CompletedAt = &now
		s.finishScores(result, problem, solution)
	default:
		s.finishScores(result, problem, solution)
		if err := s.schedules.ReplaceSlots(ctx, problem.ScheduleID, solution.Slots); err != nil {
			result.Status = models.OptimizationFailed
			result.ErrorDetails = err.Error()
			result.CompletedAt = &now
		} else {
			result.MarkCompleted(true, now)
		}
	}
	if result.StartedAt != nil && result.CompletedAt != nil {
		result.RuntimeSeconds = result.CompletedAt.Sub(*result.StartedAt).Seconds()
	}
	result.CalculateImprovement()
	s.metrics.ObserveSolverRun(string(cfg.Algorithm), string(result.Status),
		time.Duration(result.RuntimeSeconds*float64(time.Second)), result.FinalFitness)

	if err := s.results.UpdateResult(ctx, result); err != nil {
		s.logger.Error("failed to store optimization outcome",
			zap.String("result_id", resultID), zap.Error(err))
	}
}

func (s *OptimizationService) finishScores(result *models.OptimizationResult, problem *Problem, solution *Solution) {
	if solution == nil {
		return
	}
	facts := problem.Facts()
	conflicts := s.conflicts.DetectAll(problem.ScheduleID, solution.Slots, facts)
	cfg := problem.Config
	result.FinalFitness = s.conflicts.Fitness(conflicts, cfg, solution.Slots, facts)
	result.FinalConflicts = s.conflicts.OpenConflictCount(conflicts)
	result.BestFitness = solution.Quality
	result.GenerationsExecuted = solution.Iterations
}

// Cancel stops a running optimization. Pending or finished runs cannot be
// cancelled.
func (s *OptimizationService) Cancel(ctx context.Context, resultID string) error {
	s.mu.Lock()
	cancel, running := s.cancels[resultID]
	s.mu.Unlock()
	if !running {
		result, err := s.results.GetResult(ctx, resultID)
		if err != nil || result == nil {
			return appErrors.Clone(appErrors.ErrNotFound, "optimization run not found")
		}
		return appErrors.Clone(appErrors.ErrOptimizationCancelled, "run is not in progress")
	}
	cancel()
	s.logger.Info("optimization cancelled", zap.String("result_id", resultID))
	return nil
}

// GetResult returns one run.
func (s *OptimizationService) GetResult(ctx context.Context, resultID string) (*models.OptimizationResult, error) {
	result, err := s.results.GetResult(ctx, resultID)
	if err != nil || result == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "optimization run not found")
	}
	return result, nil
}

// ListResults returns recent runs for a schedule, newest first.
func (s *OptimizationService) ListResults(ctx context.Context, scheduleID string, limit int) ([]models.OptimizationResult, error) {
	if limit <= 0 {
		limit = 20
	}
	out, err := s.results.ListResults(ctx, scheduleID, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list optimization runs")
	}
	return out, nil
}

// DeleteOldResults prunes terminal runs older than the retention window.
func (s *OptimizationService) DeleteOldResults(ctx context.Context, retention time.Duration) (int64, error) {
	n, err := s.results.DeleteResultsBefore(ctx, time.Now().Add(-retention))
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to prune optimization runs")
	}
	return n, nil
}

// ---------------------------------------------------------------------------
// configuration CRUD

// CreateConfig stores a new tuning profile. Flagging it default clears the
// flag elsewhere so exactly one default exists.
func (s *OptimizationService) CreateConfig(ctx context.Context, cfg *models.OptimizationConfig) error {
	if err := validateConfig(cfg); err != nil {
		return err
	}
	if cfg.ID == "" {
		cfg.ID = uuid.NewString()
	}
	if cfg.IsDefault {
		if err := s.configs.ClearDefaultFlag(ctx); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear default flag")
		}
	}
	if err := s.configs.CreateConfig(ctx, cfg); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store configuration")
	}
	return nil
}

// UpdateConfig replaces a tuning profile, maintaining the single-default
// invariant.
func (s *OptimizationService) UpdateConfig(ctx context.Context, cfg *models.OptimizationConfig) error {
	if err := validateConfig(cfg); err != nil {
		return err
	}
	existing, err := s.configs.GetConfig(ctx, cfg.ID)
	if err != nil || existing == nil {
		return appErrors.Clone(appErrors.ErrNotFound, "configuration not found")
	}
	if existing.IsDefault && !cfg.IsDefault {
		return appErrors.Clone(appErrors.ErrValidation, "flag another configuration as default first")
	}
	if cfg.IsDefault && !existing.IsDefault {
		if err := s.configs.ClearDefaultFlag(ctx); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear default flag")
		}
	}
	if err := s.configs.UpdateConfig(ctx, cfg); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store configuration")
	}
	return nil
}

// DeleteConfig removes a profile; the default cannot be deleted.
func (s *OptimizationService) DeleteConfig(ctx context.Context, id string) error {
	existing, err := s.configs.GetConfig(ctx, id)
	if err != nil || existing == nil {
		return appErrors.Clone(appErrors.ErrNotFound, "configuration not found")
	}
	if existing.IsDefault {
		return appErrors.Clone(appErrors.ErrValidation, "the default configuration cannot be deleted")
	}
	if err := s.configs.DeleteConfig(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete configuration")
	}
	return nil
}

// GetConfig returns one profile.
func (s *OptimizationService) GetConfig(ctx context.Context, id string) (*models.OptimizationConfig, error) {
	cfg, err := s.configs.GetConfig(ctx, id)
	if err != nil || cfg == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "configuration not found")
	}
	return cfg, nil
}

// ListConfigs returns all stored profiles.
func (s *OptimizationService) ListConfigs(ctx context.Context) ([]models.OptimizationConfig, error) {
	out, err := s.configs.ListConfigs(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list configurations")
	}
	return out, nil
}

// resolveConfig returns the requested profile, the stored default, or the
// stock tuning, in that order.
func (s *OptimizationService) resolveConfig(ctx context.Context, configID string) (*models.OptimizationConfig, error) {
	if configID != "" {
		cfg, err := s.configs.GetConfig(ctx, configID)
		if err != nil || cfg == nil {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "configuration not found")
		}
		return cfg, nil
	}
	if cfg, err := s.configs.GetDefaultConfig(ctx); err == nil && cfg != nil {
		return cfg, nil
	}
	stock := models.DefaultOptimizationConfig()
	return &stock, nil
}

func (s *OptimizationService) buildProblem(ctx context.Context, scheduleID string, cfg models.OptimizationConfig) (*Problem, error) {
	slots, err := s.schedules.ListSlots(ctx, scheduleID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule slots")
	}
	teachers, err := s.roster.ListActiveTeachers(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teachers")
	}
	rooms, err := s.roster.ListActiveRooms(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rooms")
	}
	courses, err := s.roster.ListActiveCourses(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load courses")
	}
	students, err := s.roster.ListActiveStudents(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load students")
	}

	return &Problem{
		ScheduleID: scheduleID,
		Slots:      slots,
		Teachers:   teachers,
		Rooms:      rooms,
		Courses:    courses,
		Students:   students,
		TimeSlots:  models.StandardTimeGrid(),
		Config:     cfg,
	}, nil
}

func validateConfig(cfg *models.OptimizationConfig) error {
	if cfg == nil || cfg.Name == "" {
		return appErrors.Clone(appErrors.ErrValidation, "configuration name is required")
	}
	if cfg.Algorithm == "" {
		return appErrors.Clone(appErrors.ErrValidation, "algorithm is required")
	}
	if cfg.MutationRate < 0 || cfg.MutationRate > 1 {
		return appErrors.Clone(appErrors.ErrValidation, "mutation rate must be within [0, 1]")
	}
	if cfg.CrossoverRate < 0 || cfg.CrossoverRate > 1 {
		return appErrors.Clone(appErrors.ErrValidation, "crossover rate must be within [0, 1]")
	}
	if cfg.PopulationSize < 0 || cfg.MaxGenerations < 0 || cfg.MaxRuntimeSeconds < 0 {
		return appErrors.Clone(appErrors.ErrValidation, "sizes and limits must not be negative")
	}
	if cfg.EliteSize > cfg.PopulationSize {
		return appErrors.Clone(appErrors.ErrValidation, "elite size cannot exceed population size")
	}
	return nil
}
