package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-engine/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-engine/pkg/errors"
)

// SolverService is the entry point for full and incremental solves. It owns
// the evaluator and picks a strategy per run from the problem config.
type SolverService struct {
	evaluator *ConstraintEvaluator
	logger    *zap.Logger
}

// NewSolverService wires the service; nil arguments fall back to defaults.
func NewSolverService(evaluator *ConstraintEvaluator, logger *zap.Logger) *SolverService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if evaluator == nil {
		evaluator = NewConstraintEvaluator(logger)
	}
	return &SolverService{evaluator: evaluator, logger: logger}
}

// Solve runs a full search over every unpinned slot.
func (s *SolverService) Solve(ctx context.Context, problem *Problem, progress ProgressFunc) (*Solution, error) {
	if err := problem.Validate(); err != nil {
		return nil, err
	}

	solver := NewSolver(problem.Config.Algorithm, s.evaluator, s.logger)
	s.logger.Info("starting solve",
		zap.String("schedule_id", problem.ScheduleID),
		zap.String("solver", solver.Name()),
		zap.Int("slots", len(problem.Slots)))

	solution, err := solver.Solve(ctx, problem, progress)
	if err != nil {
		if appErrors.FromError(err).Code == appErrors.ErrInvalidProblem.Code {
			return nil, err
		}
		return nil, appErrors.Wrap(err, appErrors.ErrSolverExecution.Code,
			appErrors.ErrSolverExecution.Status, "solver run failed")
	}

	s.logger.Info("solve finished",
		zap.String("schedule_id", problem.ScheduleID),
		zap.Int("hard", solution.Score.Hard),
		zap.Float64("soft", solution.Score.Soft),
		zap.Float64("quality", solution.Quality))
	return solution, nil
}

// Evaluate scores the problem's current slots without searching.
func (s *SolverService) Evaluate(problem *Problem) (Score, float64, error) {
	if err := problem.Validate(); err != nil {
		return Score{}, 0, err
	}
	score := s.evaluator.Evaluate(problem.Slots, problem.Facts())
	return score, QualityScore(score), nil
}

// ImproveForConstraint re-solves with the named constraint's contribution
// doubled, steering the search toward fixing that class of violation.
func (s *SolverService) ImproveForConstraint(ctx context.Context, problem *Problem, constraint models.ConstraintType, progress ProgressFunc) (*Solution, error) {
	if err := problem.Validate(); err != nil {
		return nil, err
	}
	scoped := &SolverService{
		evaluator: s.evaluator.WithMultiplier(constraint, 2),
		logger:    s.logger,
	}
	s.logger.Info("re-solving with emphasized constraint",
		zap.String("schedule_id", problem.ScheduleID),
		zap.String("constraint", string(constraint)))
	solution, err := scoped.Solve(ctx, problem, progress)
	if err != nil {
		return nil, err
	}

	// Report the score on the caller's unscaled ruler.
	solution.Score = s.evaluator.Evaluate(solution.Slots, problem.Facts())
	solution.Quality = QualityScore(solution.Score)
	return solution, nil
}

// OptimizePartial re-solves only the slots named in changedSlotIDs. All
// other slots are pinned for the duration of the search and their original
// pin state is restored on the way out, so repeated calls with the same
// changeset are idempotent with respect to pin flags. An empty changeset
// returns the current assignment evaluated as-is.
func (s *SolverService) OptimizePartial(ctx context.Context, problem *Problem, changedSlotIDs []string, progress ProgressFunc) (*Solution, error) {
	if err := problem.Validate(); err != nil {
		return nil, err
	}

	if len(changedSlotIDs) == 0 {
		score := s.evaluator.Evaluate(problem.Slots, problem.Facts())
		return &Solution{
			Slots:   models.CloneSlots(problem.Slots),
			Score:   score,
			Quality: QualityScore(score),
		}, nil
	}

	changed := make(map[string]bool, len(changedSlotIDs))
	for _, id := range changedSlotIDs {
		changed[id] = true
	}

	originalPins := make(map[string]bool, len(problem.Slots))
	scoped := *problem
	scoped.Slots = models.CloneSlots(problem.Slots)
	matched := 0
	for i := range scoped.Slots {
		originalPins[scoped.Slots[i].ID] = scoped.Slots[i].Pinned
		if changed[scoped.Slots[i].ID] {
			scoped.Slots[i].Pinned = false
			matched++
		} else {
			scoped.Slots[i].Pinned = true
		}
	}
	if matched == 0 {
		return nil, appErrors.Clone(appErrors.ErrInvalidProblem, "changeset matches no schedule slots")
	}

	s.logger.Info("starting partial solve",
		zap.String("schedule_id", problem.ScheduleID),
		zap.Int("changed_slots", matched))

	solution, err := s.Solve(ctx, &scoped, progress)
	if err != nil {
		return nil, err
	}

	for i := range solution.Slots {
		solution.Slots[i].Pinned = originalPins[solution.Slots[i].ID]
	}

	// Rescore with the restored pin flags so the reported score matches the
	// returned slots.
	solution.Score = s.evaluator.Evaluate(solution.Slots, problem.Facts())
	solution.Quality = QualityScore(solution.Score)
	return solution, nil
}
