package service

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-engine/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-engine/pkg/errors"
)

// Problem bundles the slots to place with the read-only fact arena and the
// run configuration.
type Problem struct {
	ScheduleID string
	Slots      []models.ScheduleSlot
	Teachers   []models.Teacher
	Rooms      []models.Room
	Courses    []models.Course
	Students   []models.Student
	TimeSlots  []models.TimeSlot
	Config     models.OptimizationConfig
}

// Validate checks that the problem is well formed before any search starts.
// Each missing fact category yields a typed error naming the category.
func (p *Problem) Validate() error {
	if p == nil {
		return appErrors.Clone(appErrors.ErrInvalidProblem, "problem is nil")
	}
	if p.ScheduleID == "" {
		return appErrors.Clone(appErrors.ErrInvalidProblem, "schedule id is required")
	}
	if len(p.Slots) == 0 {
		return appErrors.Clone(appErrors.ErrInvalidProblem, "no schedule slots to place")
	}
	if len(p.Teachers) == 0 {
		return appErrors.Clone(appErrors.ErrInvalidProblem, "no teachers in roster")
	}
	if len(p.Rooms) == 0 {
		return appErrors.Clone(appErrors.ErrInvalidProblem, "no rooms in roster")
	}
	if len(p.Courses) == 0 {
		return appErrors.Clone(appErrors.ErrInvalidProblem, "no courses in roster")
	}
	if len(p.TimeSlots) == 0 {
		return appErrors.Clone(appErrors.ErrInvalidProblem, "no time slots defined")
	}

	courses := make(map[string]bool, len(p.Courses))
	for _, c := range p.Courses {
		courses[c.ID] = true
	}
	for _, s := range p.Slots {
		if s.CourseID != "" && !courses[s.CourseID] {
			return appErrors.Clone(appErrors.ErrInvalidProblem,
				fmt.Sprintf("slot %s references unknown course %s", s.ID, s.CourseID))
		}
	}
	return nil
}

// Facts indexes the problem's rosters for evaluation.
func (p *Problem) Facts() *EvaluationFacts {
	return BuildEvaluationFacts(p.Teachers, p.Rooms, p.Courses, p.Students, p.TimeSlots)
}

// Progress is a periodic snapshot emitted during a search.
type Progress struct {
	Generation int           `json:"generation"`
	BestScore  Score         `json:"best_score"`
	Quality    float64       `json:"quality"`
	Elapsed    time.Duration `json:"elapsed"`
}

// ProgressFunc receives progress snapshots. Implementations must be fast;
// they run on the solver goroutine.
type ProgressFunc func(Progress)

// Solution is the outcome of a solver run. Slots is a deep copy detached
// from the problem's input.
type Solution struct {
	Slots      []models.ScheduleSlot
	Score      Score
	Quality    float64
	Iterations int
	Duration   time.Duration
}

// Solver searches for an improved slot assignment. Implementations honour
// ctx cancellation and return the best solution found so far on cancel.
type Solver interface {
	Name() string
	Solve(ctx context.Context, problem *Problem, progress ProgressFunc) (*Solution, error)
}

// NewSolver selects a strategy for the configured algorithm. Population
// algorithms map onto the genetic solver; the rest onto local search.
func NewSolver(algorithm models.Algorithm, evaluator *ConstraintEvaluator, logger *zap.Logger) Solver {
	if evaluator == nil {
		evaluator = NewConstraintEvaluator(logger)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if algorithm.UsesPopulation() {
		return newGeneticSolver(evaluator, logger)
	}
	return newAnnealingSolver(evaluator, logger, algorithm != models.AlgorithmHillClimbing)
}

// SeedUnassigned places every unassigned, unpinned slot by cycling teachers,
// rooms and periods round-robin. The result is rarely feasible but gives
// local search a dense starting point.
func SeedUnassigned(slots []models.ScheduleSlot, teachers []models.Teacher, rooms []models.Room, timeSlots []models.TimeSlot) []models.ScheduleSlot {
	out := models.CloneSlots(slots)
	if len(rooms) == 0 || len(timeSlots) == 0 {
		return out
	}
	next := 0
	for i := range out {
		if out[i].Pinned || out[i].Assigned() {
			continue
		}
		if out[i].TeacherID == "" && len(teachers) > 0 {
			out[i].TeacherID = teachers[next%len(teachers)].ID
		}
		if out[i].RoomID == "" {
			out[i].RoomID = rooms[next%len(rooms)].ID
		}
		if out[i].TimeSlotID == "" {
			out[i].TimeSlotID = timeSlots[next%len(timeSlots)].ID
		}
		next++
	}
	return out
}

// Simulated annealing tuning.
const (
	annealInitialTemp   = 1000.0
	annealMinTemp       = 0.1
	annealCoolingRate   = 0.995
	annealMaxIterations = 10000
	annealReheatFactor  = 1.5
	annealReheatAfter   = 100
	annealReportEvery   = 500
)

// annealingSolver runs local search over single-slot moves and pair swaps.
// With acceptWorse it is simulated annealing with reheating; without, plain
// hill climbing.
type annealingSolver struct {
	evaluator   *ConstraintEvaluator
	logger      *zap.Logger
	acceptWorse bool

	// rng is replaceable in tests for determinism.
	rng *rand.Rand
}

func newAnnealingSolver(evaluator *ConstraintEvaluator, logger *zap.Logger, acceptWorse bool) *annealingSolver {
	return &annealingSolver{
		evaluator:   evaluator,
		logger:      logger,
		acceptWorse: acceptWorse,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (s *annealingSolver) Name() string {
	if s.acceptWorse {
		return "simulated-annealing"
	}
	return "hill-climbing"
}

func (s *annealingSolver) Solve(ctx context.Context, problem *Problem, progress ProgressFunc) (*Solution, error) {
	if err := problem.Validate(); err != nil {
		return nil, err
	}
	facts := problem.Facts()
	started := time.Now()

	deadline := time.Duration(problem.Config.MaxRuntimeSeconds) * time.Second
	if deadline <= 0 {
		deadline = time.Duration(models.DefaultOptimizationConfig().MaxRuntimeSeconds) * time.Second
	}

	current := SeedUnassigned(problem.Slots, problem.Teachers, problem.Rooms, problem.TimeSlots)
	currentScore := s.evaluator.Evaluate(current, facts)
	best := models.CloneSlots(current)
	bestScore := currentScore

	temp := annealInitialTemp
	stagnant := 0
	iterations := 0

	for iterations < annealMaxIterations && temp > annealMinTemp {
		select {
		case <-ctx.Done():
			return s.finish(best, bestScore, iterations, started), nil
		default:
		}
		if time.Since(started) >= deadline {
			break
		}

		candidate := s.neighbor(current, problem)
		candidateScore := s.evaluator.Evaluate(candidate, facts)

		if s.accepts(currentScore, candidateScore, temp) {
			current = candidate
			currentScore = candidateScore
		}
		if candidateScore.Better(bestScore) {
			best = models.CloneSlots(candidate)
			bestScore = candidateScore
			stagnant = 0
		} else {
			stagnant++
		}

		// Reheat to escape a plateau.
		if s.acceptWorse && stagnant >= annealReheatAfter {
			temp *= annealReheatFactor
			stagnant = 0
		} else {
			temp *= annealCoolingRate
		}
		iterations++

		if progress != nil && iterations%annealReportEvery == 0 {
			progress(Progress{
				Generation: iterations,
				BestScore:  bestScore,
				Quality:    QualityScore(bestScore),
				Elapsed:    time.Since(started),
			})
		}
	}

	s.logger.Debug("local search finished",
		zap.String("solver", s.Name()),
		zap.Int("iterations", iterations),
		zap.Int("hard", bestScore.Hard),
		zap.Float64("soft", bestScore.Soft))

	return s.finish(best, bestScore, iterations, started), nil
}

func (s *annealingSolver) finish(best []models.ScheduleSlot, score Score, iterations int, started time.Time) *Solution {
	return &Solution{
		Slots:      best,
		Score:      score,
		Quality:    QualityScore(score),
		Iterations: iterations,
		Duration:   time.Since(started),
	}
}

// accepts applies the Metropolis criterion. A combined scalar folds hard
// violations in at a dominating weight so the walk always prefers
// feasibility.
func (s *annealingSolver) accepts(current, candidate Score, temp float64) bool {
	if candidate.Better(current) {
		return true
	}
	if !s.acceptWorse {
		return false
	}
	delta := scalarize(candidate) - scalarize(current)
	return s.rng.Float64() < math.Exp(delta/temp)
}

func scalarize(s Score) float64 {
	return -float64(s.Hard)*10000 + s.Soft
}

// neighbor produces one mutated copy. Pinned slots are never touched.
func (s *annealingSolver) neighbor(slots []models.ScheduleSlot, problem *Problem) []models.ScheduleSlot {
	out := models.CloneSlots(slots)
	movable := make([]int, 0, len(out))
	for i := range out {
		if !out[i].Pinned {
			movable = append(movable, i)
		}
	}
	if len(movable) == 0 {
		return out
	}

	i := movable[s.rng.Intn(len(movable))]
	switch s.rng.Intn(4) {
	case 0:
		out[i].TimeSlotID = problem.TimeSlots[s.rng.Intn(len(problem.TimeSlots))].ID
	case 1:
		out[i].RoomID = problem.Rooms[s.rng.Intn(len(problem.Rooms))].ID
	case 2:
		if len(problem.Teachers) > 0 {
			out[i].TeacherID = problem.Teachers[s.rng.Intn(len(problem.Teachers))].ID
		}
	default:
		j := movable[s.rng.Intn(len(movable))]
		out[i].TeacherID, out[j].TeacherID = out[j].TeacherID, out[i].TeacherID
		out[i].TimeSlotID, out[j].TimeSlotID = out[j].TimeSlotID, out[i].TimeSlotID
		out[i].RoomID, out[j].RoomID = out[j].RoomID, out[i].RoomID
	}
	return out
}
