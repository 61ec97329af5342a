package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-engine/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-engine/pkg/errors"
)

func solverTestProblem() *Problem {
	cfg := models.DefaultOptimizationConfig()
	cfg.MaxRuntimeSeconds = 2
	cfg.MaxGenerations = 10
	cfg.PopulationSize = 8
	cfg.StagnationLimit = 5

	return &Problem{
		ScheduleID: "sched-1",
		Slots: []models.ScheduleSlot{
			{ID: "slot-1", ScheduleID: "sched-1", CourseID: "c-alg", TeacherID: "t-math"},
			{ID: "slot-2", ScheduleID: "sched-1", CourseID: "c-hist", TeacherID: "t-math"},
			{ID: "slot-3", ScheduleID: "sched-1", CourseID: "c-chem", TeacherID: "t-sci"},
		},
		Teachers: []models.Teacher{
			{ID: "t-math", FullName: "Ada Byron", Department: "Mathematics", Certifications: []string{"Algebra"}},
			{ID: "t-sci", FullName: "Rosalind Franklin", Department: "Science", Certifications: []string{"Chemistry"}},
		},
		Rooms: []models.Room{
			{ID: "r-101", Type: models.RoomTypeClassroom, Capacity: 30},
			{ID: "r-lab", Type: models.RoomTypeScienceLab, Capacity: 24},
		},
		Courses: []models.Course{
			{ID: "c-alg", CourseName: "Algebra I", Subject: "Algebra"},
			{ID: "c-hist", CourseName: "World History", Subject: "History"},
			{ID: "c-chem", CourseName: "Chemistry", Subject: "Chemistry", RequiresLab: true},
		},
		TimeSlots: models.StandardTimeGrid(),
		Config:    cfg,
	}
}

func TestProblemValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Problem)
	}{
		{"missing schedule id", func(p *Problem) { p.ScheduleID = "" }},
		{"no slots", func(p *Problem) { p.Slots = nil }},
		{"no teachers", func(p *Problem) { p.Teachers = nil }},
		{"no rooms", func(p *Problem) { p.Rooms = nil }},
		{"no courses", func(p *Problem) { p.Courses = nil }},
		{"no time slots", func(p *Problem) { p.TimeSlots = nil }},
		{"unknown course reference", func(p *Problem) { p.Slots[0].CourseID = "c-ghost" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := solverTestProblem()
			tt.mutate(p)

			err := p.Validate()
			require.Error(t, err)
			assert.Equal(t, appErrors.ErrInvalidProblem.Code, appErrors.FromError(err).Code)
		})
	}

	assert.NoError(t, solverTestProblem().Validate())
}

func TestSeedUnassigned(t *testing.T) {
	p := solverTestProblem()
	p.Slots[0].Pinned = true
	p.Slots[1].RoomID = "r-101"
	p.Slots[1].TimeSlotID = "mon-p1"

	seeded := SeedUnassigned(p.Slots, p.Teachers, p.Rooms, p.TimeSlots)

	// Pinned and already-assigned slots are untouched.
	assert.Empty(t, seeded[0].RoomID)
	assert.Equal(t, "r-101", seeded[1].RoomID)
	assert.Equal(t, "mon-p1", seeded[1].TimeSlotID)

	// The remaining slot gets a placement.
	assert.True(t, seeded[2].Assigned())

	// Input is not mutated.
	assert.Empty(t, p.Slots[2].RoomID)
}

func TestSeedUnassignedFillsMissingTeacher(t *testing.T) {
	p := solverTestProblem()
	p.Slots[1].TeacherID = ""

	seeded := SeedUnassigned(p.Slots, p.Teachers, p.Rooms, p.TimeSlots)

	assert.NotEmpty(t, seeded[1].TeacherID)
	assert.True(t, seeded[1].Assigned())
	// Existing assignments keep their teacher.
	assert.Equal(t, "t-sci", seeded[2].TeacherID)
}

func TestAnnealingSolverProducesAssignedSolution(t *testing.T) {
	p := solverTestProblem()
	solver := newAnnealingSolver(NewConstraintEvaluator(nil), zap.NewNop(), true)

	sol, err := solver.Solve(context.Background(), p, nil)
	require.NoError(t, err)
	require.NotNil(t, sol)

	for _, s := range sol.Slots {
		assert.True(t, s.Assigned(), "slot %s should be placed", s.ID)
	}
	assert.Greater(t, sol.Iterations, 0)
}

func TestAnnealingSolverAssignsMissingTeachers(t *testing.T) {
	p := solverTestProblem()
	for i := range p.Slots {
		p.Slots[i].TeacherID = ""
	}

	solver := newAnnealingSolver(NewConstraintEvaluator(nil), zap.NewNop(), true)
	sol, err := solver.Solve(context.Background(), p, nil)
	require.NoError(t, err)

	for _, s := range sol.Slots {
		assert.NotEmpty(t, s.TeacherID, "slot %s should have a teacher", s.ID)
		assert.True(t, s.Assigned())
	}
}

func TestGeneticSolverAssignsMissingTeachers(t *testing.T) {
	p := solverTestProblem()
	for i := range p.Slots {
		p.Slots[i].TeacherID = ""
	}

	solver := NewSolver(models.AlgorithmGenetic, nil, nil)
	sol, err := solver.Solve(context.Background(), p, nil)
	require.NoError(t, err)

	for _, s := range sol.Slots {
		assert.NotEmpty(t, s.TeacherID, "slot %s should have a teacher", s.ID)
	}
}

func TestAnnealingSolverRespectsPins(t *testing.T) {
	p := solverTestProblem()
	p.Slots[0].Pinned = true
	p.Slots[0].RoomID = "r-101"
	p.Slots[0].TimeSlotID = "tue-p3"

	solver := NewSolver(models.AlgorithmSimulatedAnnealing, NewConstraintEvaluator(nil), nil)
	sol, err := solver.Solve(context.Background(), p, nil)
	require.NoError(t, err)

	require.Equal(t, "slot-1", sol.Slots[0].ID)
	assert.Equal(t, "r-101", sol.Slots[0].RoomID)
	assert.Equal(t, "tue-p3", sol.Slots[0].TimeSlotID)
	assert.True(t, sol.Slots[0].Pinned)
}

func TestAnnealingSolverHonoursCancellation(t *testing.T) {
	p := solverTestProblem()
	p.Config.MaxRuntimeSeconds = 300

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	solver := NewSolver(models.AlgorithmHillClimbing, NewConstraintEvaluator(nil), nil)
	start := time.Now()
	sol, err := solver.Solve(ctx, p, nil)

	require.NoError(t, err)
	require.NotNil(t, sol)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestGeneticSolverImprovesOrMatchesSeed(t *testing.T) {
	p := solverTestProblem()
	evaluator := NewConstraintEvaluator(nil)

	seeded := SeedUnassigned(p.Slots, p.Teachers, p.Rooms, p.TimeSlots)
	seedScore := evaluator.Evaluate(seeded, p.Facts())

	solver := NewSolver(models.AlgorithmGenetic, evaluator, nil)
	sol, err := solver.Solve(context.Background(), p, nil)
	require.NoError(t, err)

	// The incumbent always seeds the population, so the best individual can
	// never be worse than the seed.
	assert.False(t, seedScore.Better(sol.Score))
	assert.Len(t, sol.Slots, len(p.Slots))
}

func TestGeneticSolverReportsProgress(t *testing.T) {
	p := solverTestProblem()
	p.Config.LogFrequency = 1
	p.Config.MaxGenerations = 5
	p.Config.StagnationLimit = 50

	var reports []Progress
	solver := NewSolver(models.AlgorithmGenetic, nil, nil)
	_, err := solver.Solve(context.Background(), p, func(pr Progress) {
		reports = append(reports, pr)
	})
	require.NoError(t, err)

	require.NotEmpty(t, reports)
	assert.Greater(t, reports[0].Generation, 0)
}

func TestGeneticSolverRespectsPins(t *testing.T) {
	p := solverTestProblem()
	p.Slots[2].Pinned = true
	p.Slots[2].RoomID = "r-lab"
	p.Slots[2].TimeSlotID = "fri-p2"

	solver := NewSolver(models.AlgorithmGenetic, nil, nil)
	sol, err := solver.Solve(context.Background(), p, nil)
	require.NoError(t, err)

	var pinned *models.ScheduleSlot
	for i := range sol.Slots {
		if sol.Slots[i].ID == "slot-3" {
			pinned = &sol.Slots[i]
		}
	}
	require.NotNil(t, pinned)
	assert.Equal(t, "r-lab", pinned.RoomID)
	assert.Equal(t, "fri-p2", pinned.TimeSlotID)
}

func TestNewSolverSelection(t *testing.T) {
	assert.Equal(t, "genetic-algorithm", NewSolver(models.AlgorithmGenetic, nil, nil).Name())
	assert.Equal(t, "genetic-algorithm", NewSolver(models.AlgorithmHybrid, nil, nil).Name())
	assert.Equal(t, "simulated-annealing", NewSolver(models.AlgorithmSimulatedAnnealing, nil, nil).Name())
	assert.Equal(t, "simulated-annealing", NewSolver(models.AlgorithmTabuSearch, nil, nil).Name())
	assert.Equal(t, "hill-climbing", NewSolver(models.AlgorithmHillClimbing, nil, nil).Name())
}
