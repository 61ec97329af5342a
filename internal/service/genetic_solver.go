package service

import (
	"context"
	"math/rand"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-engine/internal/models"
)

// initRandomizationRate is the per-slot probability that a population seed
// deviates from the incumbent schedule.
const initRandomizationRate = 0.3

// geneticSolver evolves a population of candidate schedules. The incumbent
// schedule always seeds the population so the result can never regress below
// the starting point.
type geneticSolver struct {
	evaluator *ConstraintEvaluator
	logger    *zap.Logger
	rng       *rand.Rand
}

func newGeneticSolver(evaluator *ConstraintEvaluator, logger *zap.Logger) *geneticSolver {
	return &geneticSolver{
		evaluator: evaluator,
		logger:    logger,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (g *geneticSolver) Name() string { return "genetic-algorithm" }

type individual struct {
	slots []models.ScheduleSlot
	score Score
}

func (g *geneticSolver) Solve(ctx context.Context, problem *Problem, progress ProgressFunc) (*Solution, error) {
	if err := problem.Validate(); err != nil {
		return nil, err
	}
	facts := problem.Facts()
	cfg := withGADefaults(problem.Config)
	started := time.Now()
	deadline := time.Duration(cfg.MaxRuntimeSeconds) * time.Second

	population := g.initialPopulation(problem, facts, cfg.PopulationSize)
	best := population[0]
	stagnant := 0
	generation := 0

	for generation < cfg.MaxGenerations {
		select {
		case <-ctx.Done():
			return g.finish(best, generation, started), nil
		default:
		}
		if time.Since(started) >= deadline {
			break
		}

		population = g.evolve(population, problem, facts, cfg)

		if population[0].score.Better(best.score) {
			best = individual{slots: models.CloneSlots(population[0].slots), score: population[0].score}
			stagnant = 0
		} else {
			stagnant++
		}
		generation++

		if stagnant >= cfg.StagnationLimit {
			break
		}
		if cfg.TargetFitness != nil && QualityScore(best.score) >= *cfg.TargetFitness {
			break
		}

		if progress != nil && cfg.LogFrequency > 0 && generation%cfg.LogFrequency == 0 {
			progress(Progress{
				Generation: generation,
				BestScore:  best.score,
				Quality:    QualityScore(best.score),
				Elapsed:    time.Since(started),
			})
		}
	}

	g.logger.Debug("evolution finished",
		zap.Int("generations", generation),
		zap.Int("hard", best.score.Hard),
		zap.Float64("soft", best.score.Soft))

	return g.finish(best, generation, started), nil
}

func (g *geneticSolver) finish(best individual, generations int, started time.Time) *Solution {
	return &Solution{
		Slots:      best.slots,
		Score:      best.score,
		Quality:    QualityScore(best.score),
		Iterations: generations,
		Duration:   time.Since(started),
	}
}

// initialPopulation seeds with the incumbent schedule first, then variants
// with a share of slots re-randomized.
func (g *geneticSolver) initialPopulation(problem *Problem, facts *EvaluationFacts, size int) []individual {
	seeded := SeedUnassigned(problem.Slots, problem.Teachers, problem.Rooms, problem.TimeSlots)
	population := make([]individual, 0, size)
	population = append(population, individual{
		slots: seeded,
		score: g.evaluator.Evaluate(seeded, facts),
	})
	for len(population) < size {
		variant := models.CloneSlots(seeded)
		for i := range variant {
			if variant[i].Pinned || g.rng.Float64() >= initRandomizationRate {
				continue
			}
			variant[i].TimeSlotID = problem.TimeSlots[g.rng.Intn(len(problem.TimeSlots))].ID
			variant[i].RoomID = problem.Rooms[g.rng.Intn(len(problem.Rooms))].ID
			if len(problem.Teachers) > 0 {
				variant[i].TeacherID = problem.Teachers[g.rng.Intn(len(problem.Teachers))].ID
			}
		}
		population = append(population, individual{
			slots: variant,
			score: g.evaluator.Evaluate(variant, facts),
		})
	}
	g.sortByFitness(population)
	return population
}

// evolve produces the next generation: elites carry over unchanged, the rest
// come from tournament-selected parents via crossover and mutation.
func (g *geneticSolver) evolve(population []individual, problem *Problem, facts *EvaluationFacts, cfg models.OptimizationConfig) []individual {
	next := make([]individual, 0, len(population))

	elite := cfg.EliteSize
	if elite > len(population) {
		elite = len(population)
	}
	for i := 0; i < elite; i++ {
		next = append(next, population[i])
	}

	for len(next) < len(population) {
		p1 := g.tournament(population, cfg.TournamentSize)
		p2 := g.tournament(population, cfg.TournamentSize)

		var child []models.ScheduleSlot
		if g.rng.Float64() < cfg.CrossoverRate {
			child = g.crossover(p1.slots, p2.slots)
		} else {
			child = models.CloneSlots(p1.slots)
		}
		g.mutate(child, problem, cfg.MutationRate)

		next = append(next, individual{
			slots: child,
			score: g.evaluator.Evaluate(child, facts),
		})
	}

	g.sortByFitness(next)
	return next
}

func (g *geneticSolver) sortByFitness(population []individual) {
	sort.SliceStable(population, func(i, j int) bool {
		return population[i].score.Better(population[j].score)
	})
}

// tournament picks the fittest of n random individuals.
func (g *geneticSolver) tournament(population []individual, size int) individual {
	if size <= 0 {
		size = 1
	}
	best := population[g.rng.Intn(len(population))]
	for i := 1; i < size; i++ {
		pick := population[g.rng.Intn(len(population))]
		if pick.score.Better(best.score) {
			best = pick
		}
	}
	return best
}

// crossover copies the placement (teacher, time slot and room) from parent2
// past a random cut point. Slot lists share ordering, so positions align.
func (g *geneticSolver) crossover(parent1, parent2 []models.ScheduleSlot) []models.ScheduleSlot {
	child := models.CloneSlots(parent1)
	if len(parent1) != len(parent2) || len(child) < 2 {
		return child
	}
	cut := g.rng.Intn(len(child))
	for i := cut; i < len(child); i++ {
		if child[i].Pinned {
			continue
		}
		child[i].TeacherID = parent2[i].TeacherID
		child[i].TimeSlotID = parent2[i].TimeSlotID
		child[i].RoomID = parent2[i].RoomID
	}
	return child
}

// mutate perturbs each unpinned slot with the configured probability using
// one of three moves: shift to another day at the same period, fully
// re-randomize the placement, or swap placement with another slot.
func (g *geneticSolver) mutate(slots []models.ScheduleSlot, problem *Problem, rate float64) {
	byID := make(map[string]models.TimeSlot, len(problem.TimeSlots))
	byDayPeriod := make(map[int]map[int]models.TimeSlot)
	for _, ts := range problem.TimeSlots {
		byID[ts.ID] = ts
		if byDayPeriod[ts.Day] == nil {
			byDayPeriod[ts.Day] = make(map[int]models.TimeSlot)
		}
		byDayPeriod[ts.Day][ts.Period] = ts
	}

	for i := range slots {
		if slots[i].Pinned || g.rng.Float64() >= rate {
			continue
		}
		switch g.rng.Intn(3) {
		case 0:
			// Same period on a random weekday.
			cur, ok := byID[slots[i].TimeSlotID]
			if !ok {
				slots[i].TimeSlotID = problem.TimeSlots[g.rng.Intn(len(problem.TimeSlots))].ID
				continue
			}
			day := models.Monday + g.rng.Intn(5)
			if ts, ok := byDayPeriod[day][cur.Period]; ok {
				slots[i].TimeSlotID = ts.ID
			}
		case 1:
			slots[i].TimeSlotID = problem.TimeSlots[g.rng.Intn(len(problem.TimeSlots))].ID
			slots[i].RoomID = problem.Rooms[g.rng.Intn(len(problem.Rooms))].ID
			if len(problem.Teachers) > 0 {
				slots[i].TeacherID = problem.Teachers[g.rng.Intn(len(problem.Teachers))].ID
			}
		default:
			j := g.rng.Intn(len(slots))
			if slots[j].Pinned {
				continue
			}
			slots[i].TeacherID, slots[j].TeacherID = slots[j].TeacherID, slots[i].TeacherID
			slots[i].TimeSlotID, slots[j].TimeSlotID = slots[j].TimeSlotID, slots[i].TimeSlotID
		}
	}
}

// withGADefaults backfills zero-valued tunables from the stock config.
func withGADefaults(cfg models.OptimizationConfig) models.OptimizationConfig {
	def := models.DefaultOptimizationConfig()
	if cfg.PopulationSize <= 1 {
		cfg.PopulationSize = def.PopulationSize
	}
	if cfg.MaxGenerations <= 0 {
		cfg.MaxGenerations = def.MaxGenerations
	}
	if cfg.MutationRate <= 0 {
		cfg.MutationRate = def.MutationRate
	}
	if cfg.CrossoverRate <= 0 {
		cfg.CrossoverRate = def.CrossoverRate
	}
	if cfg.EliteSize <= 0 {
		cfg.EliteSize = def.EliteSize
	}
	if cfg.TournamentSize <= 0 {
		cfg.TournamentSize = def.TournamentSize
	}
	if cfg.MaxRuntimeSeconds <= 0 {
		cfg.MaxRuntimeSeconds = def.MaxRuntimeSeconds
	}
	if cfg.StagnationLimit <= 0 {
		cfg.StagnationLimit = def.StagnationLimit
	}
	if cfg.LogFrequency <= 0 {
		cfg.LogFrequency = def.LogFrequency
	}
	return cfg
}
