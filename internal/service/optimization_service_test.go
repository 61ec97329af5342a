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

type stubOptResultRepo struct {
	results map[string]models.OptimizationResult
	err     error
}

func newStubOptResultRepo() *stubOptResultRepo {
	return &stubOptResultRepo{results: make(map[string]models.OptimizationResult)}
}

func (r *stubOptResultRepo) CreateResult(_ context.Context, res *models.OptimizationResult) error {
	if r.err != nil {
		return r.err
	}
	r.results[res.ID] = *res
	return nil
}

func (r *stubOptResultRepo) UpdateResult(_ context.Context, res *models.OptimizationResult) error {
	if r.err != nil {
		return r.err
	}
	r.results[res.ID] = *res
	return nil
}

func (r *stubOptResultRepo) GetResult(_ context.Context, id string) (*models.OptimizationResult, error) {
	if r.err != nil {
		return nil, r.err
	}
	res, ok := r.results[id]
	if !ok {
		return nil, nil
	}
	return &res, nil
}

func (r *stubOptResultRepo) ListResults(_ context.Context, scheduleID string, limit int) ([]models.OptimizationResult, error) {
	if r.err != nil {
		return nil, r.err
	}
	var out []models.OptimizationResult
	for _, res := range r.results {
		if res.ScheduleID == scheduleID && len(out) < limit {
			out = append(out, res)
		}
	}
	return out, nil
}

func (r *stubOptResultRepo) DeleteResultsBefore(_ context.Context, cutoff time.Time) (int64, error) {
	if r.err != nil {
		return 0, r.err
	}
	var n int64
	for id, res := range r.results {
		if res.CreatedAt.Before(cutoff) {
			delete(r.results, id)
			n++
		}
	}
	return n, nil
}

type stubOptConfigRepo struct {
	configs map[string]models.OptimizationConfig
	err     error
}

func newStubOptConfigRepo() *stubOptConfigRepo {
	return &stubOptConfigRepo{configs: make(map[string]models.OptimizationConfig)}
}

func (r *stubOptConfigRepo) CreateConfig(_ context.Context, c *models.OptimizationConfig) error {
	if r.err != nil {
		return r.err
	}
	r.configs[c.ID] = *c
	return nil
}

func (r *stubOptConfigRepo) UpdateConfig(_ context.Context, c *models.OptimizationConfig) error {
	if r.err != nil {
		return r.err
	}
	r.configs[c.ID] = *c
	return nil
}

func (r *stubOptConfigRepo) GetConfig(_ context.Context, id string) (*models.OptimizationConfig, error) {
	if r.err != nil {
		return nil, r.err
	}
	c, ok := r.configs[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r *stubOptConfigRepo) ListConfigs(_ context.Context) ([]models.OptimizationConfig, error) {
	if r.err != nil {
		return nil, r.err
	}
	out := make([]models.OptimizationConfig, 0, len(r.configs))
	for _, c := range r.configs {
		out = append(out, c)
	}
	return out, nil
}

func (r *stubOptConfigRepo) DeleteConfig(_ context.Context, id string) error {
	if r.err != nil {
		return r.err
	}
	delete(r.configs, id)
	return nil
}

func (r *stubOptConfigRepo) GetDefaultConfig(_ context.Context) (*models.OptimizationConfig, error) {
	if r.err != nil {
		return nil, r.err
	}
	for _, c := range r.configs {
		if c.IsDefault {
			cc := c
			return &cc, nil
		}
	}
	return nil, nil
}

func (r *stubOptConfigRepo) ClearDefaultFlag(_ context.Context) error {
	if r.err != nil {
		return r.err
	}
	for id, c := range r.configs {
		c.IsDefault = false
		r.configs[id] = c
	}
	return nil
}

type stubScheduleStore struct {
	schedule *models.Schedule
	slots    []models.ScheduleSlot
	saved    []models.ScheduleSlot
	err      error
	saveErr  error
}

func (s *stubScheduleStore) GetSchedule(_ context.Context, id string) (*models.Schedule, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.schedule == nil || s.schedule.ID != id {
		return nil, appErrors.Clone(appErrors.ErrScheduleNotFound, "")
	}
	return s.schedule, nil
}

func (s *stubScheduleStore) ListSlots(_ context.Context, _ string) ([]models.ScheduleSlot, error) {
	if s.err != nil {
		return nil, s.err
	}
	return models.CloneSlots(s.slots), nil
}

func (s *stubScheduleStore) ReplaceSlots(_ context.Context, _ string, slots []models.ScheduleSlot) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saved = models.CloneSlots(slots)
	return nil
}

type stubRosterReader struct {
	teachers []models.Teacher
	rooms    []models.Room
	courses  []models.Course
	students []models.Student
	err      error
}

func (s *stubRosterReader) ListActiveTeachers(context.Context) ([]models.Teacher, error) {
	return s.teachers, s.err
}

func (s *stubRosterReader) ListActiveRooms(context.Context) ([]models.Room, error) {
	return s.rooms, s.err
}

func (s *stubRosterReader) ListActiveCourses(context.Context) ([]models.Course, error) {
	return s.courses, s.err
}

func (s *stubRosterReader) ListActiveStudents(context.Context) ([]models.Student, error) {
	return s.students, s.err
}

func optimizationTestService() (*OptimizationService, *stubOptResultRepo, *stubOptConfigRepo, *stubScheduleStore) {
	p := solverTestProblem()
	results := newStubOptResultRepo()
	configs := newStubOptConfigRepo()
	schedules := &stubScheduleStore{
		schedule: &models.Schedule{ID: p.ScheduleID, Name: "Fall Draft", Status: models.ScheduleStatusDraft},
		slots:    p.Slots,
	}
	roster := &stubRosterReader{teachers: p.Teachers, rooms: p.Rooms, courses: p.Courses}

	fast := p.Config
	fast.ID = "cfg-fast"
	fast.Name = "Fast Annealing"
	fast.Algorithm = models.AlgorithmSimulatedAnnealing
	fast.IsDefault = true
	configs.configs[fast.ID] = fast

	svc := NewOptimizationService(results, configs, schedules, roster, nil, nil, zap.NewNop(), false)
	return svc, results, configs, schedules
}

func TestStartOptimizationCompletes(t *testing.T) {
	svc, results, _, schedules := optimizationTestService()

	result, err := svc.StartOptimization(context.Background(), "sched-1", "")
	require.NoError(t, err)

	assert.Equal(t, models.OptimizationCompleted, result.Status)
	assert.Equal(t, models.AlgorithmSimulatedAnnealing, result.Algorithm)
	assert.NotNil(t, result.StartedAt)
	assert.NotNil(t, result.CompletedAt)
	assert.Greater(t, result.FinalFitness, 0.0)
	assert.Positive(t, result.RuntimeSeconds)
	assert.Len(t, schedules.saved, 3)
	for _, slot := range schedules.saved {
		assert.NotEmpty(t, slot.TimeSlotID)
		assert.NotEmpty(t, slot.RoomID)
	}
	assert.Len(t, results.results, 1)
}

func TestStartOptimizationExplicitConfig(t *testing.T) {
	svc, _, configs, _ := optimizationTestService()

	hill := configs.configs["cfg-fast"]
	hill.ID = "cfg-hill"
	hill.Algorithm = models.AlgorithmHillClimbing
	hill.IsDefault = false
	configs.configs[hill.ID] = hill

	result, err := svc.StartOptimization(context.Background(), "sched-1", "cfg-hill")
	require.NoError(t, err)
	assert.Equal(t, models.AlgorithmHillClimbing, result.Algorithm)
	assert.Equal(t, "cfg-hill", result.ConfigID)
}

func TestStartOptimizationUnknownSchedule(t *testing.T) {
	svc, _, _, _ := optimizationTestService()

	_, err := svc.StartOptimization(context.Background(), "sched-missing", "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrScheduleNotFound.Code, appErrors.FromError(err).Code)
}

func TestStartOptimizationUnknownConfig(t *testing.T) {
	svc, _, _, _ := optimizationTestService()

	_, err := svc.StartOptimization(context.Background(), "sched-1", "cfg-missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestQuickOptimize(t *testing.T) {
	svc, _, _, _ := optimizationTestService()

	result, err := svc.QuickOptimize(context.Background(), "sched-1")
	require.NoError(t, err)
	assert.Equal(t, models.QuickOptimizationConfig().Algorithm, result.Algorithm)
	assert.True(t, result.Status.Terminal())
}

func TestCancelUnknownRun(t *testing.T) {
	svc, _, _, _ := optimizationTestService()

	err := svc.Cancel(context.Background(), "run-missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestCancelFinishedRun(t *testing.T) {
	svc, results, _, _ := optimizationTestService()
	results.results["run-1"] = models.OptimizationResult{
		ID:         "run-1",
		ScheduleID: "sched-1",
		Status:     models.OptimizationCompleted,
	}

	err := svc.Cancel(context.Background(), "run-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrOptimizationCancelled.Code, appErrors.FromError(err).Code)
}

func TestCreateConfigClearsPriorDefault(t *testing.T) {
	svc, _, configs, _ := optimizationTestService()

	cfg := models.DefaultOptimizationConfig()
	cfg.Name = "Night Batch"
	cfg.IsDefault = true
	require.NoError(t, svc.CreateConfig(context.Background(), &cfg))
	require.NotEmpty(t, cfg.ID)

	defaults := 0
	for _, c := range configs.configs {
		if c.IsDefault {
			defaults++
			assert.Equal(t, cfg.ID, c.ID)
		}
	}
	assert.Equal(t, 1, defaults)
}

func TestUpdateConfigCannotUnsetOnlyDefault(t *testing.T) {
	svc, _, configs, _ := optimizationTestService()

	cfg := configs.configs["cfg-fast"]
	cfg.IsDefault = false

	err := svc.UpdateConfig(context.Background(), &cfg)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestUpdateConfigPromotesNewDefault(t *testing.T) {
	svc, _, configs, _ := optimizationTestService()

	other := configs.configs["cfg-fast"]
	other.ID = "cfg-other"
	other.IsDefault = false
	configs.configs[other.ID] = other

	other.IsDefault = true
	require.NoError(t, svc.UpdateConfig(context.Background(), &other))

	assert.False(t, configs.configs["cfg-fast"].IsDefault)
	assert.True(t, configs.configs["cfg-other"].IsDefault)
}

func TestDeleteDefaultConfigRejected(t *testing.T) {
	svc, _, configs, _ := optimizationTestService()

	err := svc.DeleteConfig(context.Background(), "cfg-fast")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	other := configs.configs["cfg-fast"]
	other.ID = "cfg-other"
	other.IsDefault = false
	configs.configs[other.ID] = other

	require.NoError(t, svc.DeleteConfig(context.Background(), "cfg-other"))
	_, ok := configs.configs["cfg-other"]
	assert.False(t, ok)
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*models.OptimizationConfig)
	}{
		{"missing name", func(c *models.OptimizationConfig) { c.Name = "" }},
		{"missing algorithm", func(c *models.OptimizationConfig) { c.Algorithm = "" }},
		{"mutation rate above one", func(c *models.OptimizationConfig) { c.MutationRate = 1.5 }},
		{"negative crossover rate", func(c *models.OptimizationConfig) { c.CrossoverRate = -0.1 }},
		{"negative population", func(c *models.OptimizationConfig) { c.PopulationSize = -1 }},
		{"elite exceeds population", func(c *models.OptimizationConfig) { c.EliteSize = c.PopulationSize + 1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := models.DefaultOptimizationConfig()
			tt.mutate(&cfg)

			err := validateConfig(&cfg)
			require.Error(t, err)
			assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
		})
	}

	cfg := models.DefaultOptimizationConfig()
	assert.NoError(t, validateConfig(&cfg))
}

func TestDeleteOldResults(t *testing.T) {
	svc, results, _, _ := optimizationTestService()
	results.results["run-old"] = models.OptimizationResult{
		ID: "run-old", ScheduleID: "sched-1", CreatedAt: time.Now().Add(-48 * time.Hour),
	}
	results.results["run-new"] = models.OptimizationResult{
		ID: "run-new", ScheduleID: "sched-1", CreatedAt: time.Now(),
	}

	n, err := svc.DeleteOldResults(context.Background(), 24*time.Hour)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	_, old := results.results["run-old"]
	assert.False(t, old)
	_, fresh := results.results["run-new"]
	assert.True(t, fresh)
}

func TestSolveNowPersistsSlots(t *testing.T) {
	svc, _, _, schedules := optimizationTestService()

	solution, err := svc.SolveNow(context.Background(), "sched-1", "")
	require.NoError(t, err)
	assert.Len(t, schedules.saved, len(solution.Slots))
	for _, slot := range schedules.saved {
		assert.True(t, slot.Assigned(), "slot %s should be fully placed", slot.ID)
	}
}

func TestSolveNowUnknownSchedule(t *testing.T) {
	svc, _, _, _ := optimizationTestService()

	_, err := svc.SolveNow(context.Background(), "sched-missing", "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrScheduleNotFound.Code, appErrors.FromError(err).Code)
}

func TestSolvePartialNowKeepsUntouchedSlots(t *testing.T) {
	svc, _, _, schedules := optimizationTestService()

	first, err := svc.SolveNow(context.Background(), "sched-1", "")
	require.NoError(t, err)
	schedules.slots = models.CloneSlots(first.Slots)

	target := schedules.slots[0].ID
	before := map[string]models.ScheduleSlot{}
	for _, s := range schedules.slots {
		before[s.ID] = s
	}

	_, err = svc.SolvePartialNow(context.Background(), "sched-1", []string{target}, "")
	require.NoError(t, err)
	for _, slot := range schedules.saved {
		if slot.ID == target {
			continue
		}
		prev := before[slot.ID]
		assert.Equal(t, prev.TeacherID, slot.TeacherID)
		assert.Equal(t, prev.RoomID, slot.RoomID)
		assert.Equal(t, prev.TimeSlotID, slot.TimeSlotID)
	}
}

func TestImproveNowPersistsSlots(t *testing.T) {
	svc, _, _, schedules := optimizationTestService()

	_, err := svc.ImproveNow(context.Background(), "sched-1", models.ConstraintTeacherQualification, "")
	require.NoError(t, err)
	assert.NotEmpty(t, schedules.saved)
}

func TestEvaluateNowLeavesScheduleUntouched(t *testing.T) {
	svc, _, _, schedules := optimizationTestService()

	score, quality, err := svc.EvaluateNow(context.Background(), "sched-1", "")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, quality, 0.0)
	assert.GreaterOrEqual(t, score.Hard, 0)
	assert.Nil(t, schedules.saved)
}
