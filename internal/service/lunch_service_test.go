package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-engine/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-engine/pkg/errors"
)

type stubLunchRepo struct {
	waves       []models.LunchWave
	assignments map[string]models.StudentLunchAssignment
	supervisors map[string]models.TeacherLunchAssignment
	counts      map[string]int
	err         error
}

func newStubLunchRepo(waves ...models.LunchWave) *stubLunchRepo {
	return &stubLunchRepo{
		waves:       waves,
		assignments: make(map[string]models.StudentLunchAssignment),
		supervisors: make(map[string]models.TeacherLunchAssignment),
		counts:      make(map[string]int),
	}
}

func (r *stubLunchRepo) ListWaves(_ context.Context, _ string) ([]models.LunchWave, error) {
	return r.waves, r.err
}

func (r *stubLunchRepo) GetWave(_ context.Context, waveID string) (*models.LunchWave, error) {
	if r.err != nil {
		return nil, r.err
	}
	for i := range r.waves {
		if r.waves[i].ID == waveID {
			return &r.waves[i], nil
		}
	}
	return nil, nil
}

func (r *stubLunchRepo) CreateWave(_ context.Context, wave *models.LunchWave) error {
	if r.err != nil {
		return r.err
	}
	r.waves = append(r.waves, *wave)
	return nil
}

func (r *stubLunchRepo) UpdateWave(_ context.Context, wave *models.LunchWave) error {
	for i := range r.waves {
		if r.waves[i].ID == wave.ID {
			r.waves[i] = *wave
			return nil
		}
	}
	return r.err
}

func (r *stubLunchRepo) DeleteWave(_ context.Context, waveID string) error {
	for i := range r.waves {
		if r.waves[i].ID == waveID {
			r.waves = append(r.waves[:i], r.waves[i+1:]...)
			return nil
		}
	}
	return r.err
}

func (r *stubLunchRepo) UpdateWaveCount(_ context.Context, waveID string, count int) error {
	r.counts[waveID] = count
	return nil
}

func (r *stubLunchRepo) ListStudentAssignments(_ context.Context, _ string) ([]models.StudentLunchAssignment, error) {
	if r.err != nil {
		return nil, r.err
	}
	out := make([]models.StudentLunchAssignment, 0, len(r.assignments))
	for _, a := range r.assignments {
		out = append(out, a)
	}
	return out, nil
}

func (r *stubLunchRepo) GetStudentAssignment(_ context.Context, _ string, studentID string) (*models.StudentLunchAssignment, error) {
	if a, ok := r.assignments[studentID]; ok {
		found := a
		return &found, nil
	}
	return nil, appErrors.ErrNotFound
}

func (r *stubLunchRepo) UpsertStudentAssignment(_ context.Context, a *models.StudentLunchAssignment) error {
	if r.err != nil {
		return r.err
	}
	r.assignments[a.StudentID] = *a
	return nil
}

func (r *stubLunchRepo) DeleteStudentAssignments(_ context.Context, _ string) error {
	r.assignments = make(map[string]models.StudentLunchAssignment)
	return r.err
}

func (r *stubLunchRepo) ListTeacherAssignments(_ context.Context, _ string) ([]models.TeacherLunchAssignment, error) {
	if r.err != nil {
		return nil, r.err
	}
	out := make([]models.TeacherLunchAssignment, 0, len(r.supervisors))
	for _, a := range r.supervisors {
		out = append(out, a)
	}
	return out, nil
}

func (r *stubLunchRepo) GetTeacherAssignment(_ context.Context, _ string, teacherID string) (*models.TeacherLunchAssignment, error) {
	if a, ok := r.supervisors[teacherID]; ok {
		found := a
		return &found, nil
	}
	return nil, nil
}

func (r *stubLunchRepo) UpsertTeacherAssignment(_ context.Context, a *models.TeacherLunchAssignment) error {
	if r.err != nil {
		return r.err
	}
	r.supervisors[a.TeacherID] = *a
	return nil
}

func (r *stubLunchRepo) DeleteTeacherAssignments(_ context.Context, _ string) error {
	r.supervisors = make(map[string]models.TeacherLunchAssignment)
	return r.err
}

type stubStudentReader struct {
	students []models.Student
	teachers []models.Teacher
	err      error
}

func (r *stubStudentReader) ListActiveStudents(_ context.Context) ([]models.Student, error) {
	return r.students, r.err
}

func (r *stubStudentReader) ListActiveTeachers(_ context.Context) ([]models.Teacher, error) {
	return r.teachers, r.err
}

func lunchTestWaves(n, capacity int) []models.LunchWave {
	out := make([]models.LunchWave, n)
	for i := range out {
		out[i] = models.LunchWave{
			ID:          fmt.Sprintf("wave-%d", i+1),
			WaveNumber:  i + 1,
			Name:        fmt.Sprintf("Wave %d", i+1),
			MaxCapacity: capacity,
			ScheduleID:  "sched-1",
			StartMinute: 11*60 + i*30,
			EndMinute:   11*60 + (i+1)*30,
		}
	}
	return out
}

func lunchTestStudents(n int) []models.Student {
	out := make([]models.Student, n)
	for i := range out {
		out[i] = models.Student{
			ID:         fmt.Sprintf("stu-%03d", i+1),
			FirstName:  fmt.Sprintf("First%d", i+1),
			LastName:   fmt.Sprintf("Last%d", i+1),
			GradeLevel: fmt.Sprintf("Grade %d", 9+i%4),
			Active:     true,
		}
	}
	return out
}

func TestAssignAllBalancedSpreadsEvenly(t *testing.T) {
	repo := newStubLunchRepo(lunchTestWaves(4, 30)...)
	students := &stubStudentReader{students: lunchTestStudents(100)}
	svc := NewLunchService(repo, students, nil)

	stats, err := svc.AssignAllStudents(context.Background(), "sched-1", models.LunchBalanced)
	require.NoError(t, err)

	assert.Equal(t, 100, stats.AssignedStudents)
	assert.Zero(t, stats.UnassignedStudents)
	for waveID, n := range stats.WaveOccupancy {
		assert.Equal(t, 25, n, "wave %s occupancy", waveID)
	}
}

func TestAssignAllRejectsManualMethod(t *testing.T) {
	svc := NewLunchService(newStubLunchRepo(lunchTestWaves(2, 30)...), &stubStudentReader{}, nil)

	_, err := svc.AssignAllStudents(context.Background(), "sched-1", models.LunchManual)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAssignAllNoWaves(t *testing.T) {
	svc := NewLunchService(newStubLunchRepo(), &stubStudentReader{}, nil)

	_, err := svc.AssignAllStudents(context.Background(), "sched-1", models.LunchBalanced)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrWaveNotFound.Code, appErrors.FromError(err).Code)
}

func TestAssignAllSkipsWhenEveryWaveFull(t *testing.T) {
	repo := newStubLunchRepo(lunchTestWaves(1, 2)...)
	students := &stubStudentReader{students: lunchTestStudents(5)}
	svc := NewLunchService(repo, students, nil)

	stats, err := svc.AssignAllStudents(context.Background(), "sched-1", models.LunchAlphabetical)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.AssignedStudents)
	assert.Equal(t, 3, stats.UnassignedStudents)
}

func TestAssignAllHonoursGradeGate(t *testing.T) {
	grade9 := 9
	waves := lunchTestWaves(2, 30)
	waves[0].GradeLevel = &grade9

	repo := newStubLunchRepo(waves...)
	students := &stubStudentReader{students: []models.Student{
		{ID: "stu-9", GradeLevel: "Grade 9", Active: true},
		{ID: "stu-12", GradeLevel: "Grade 12", Active: true},
		{ID: "stu-x", GradeLevel: "ungraded", Active: true},
	}}
	svc := NewLunchService(repo, students, nil)

	_, err := svc.AssignAllStudents(context.Background(), "sched-1", models.LunchByGradeLevel)
	require.NoError(t, err)

	assert.Equal(t, "wave-1", repo.assignments["stu-9"].WaveID)
	assert.Equal(t, "wave-2", repo.assignments["stu-12"].WaveID)
	// No digits in the grade string: only the unrestricted wave is eligible.
	assert.Equal(t, "wave-2", repo.assignments["stu-x"].WaveID)
}

func TestAssignAllSkipsRatherThanBreakGradeGate(t *testing.T) {
	grade9 := 9
	waves := lunchTestWaves(2, 30)
	waves[0].GradeLevel = &grade9
	waves[1].MaxCapacity = 1

	repo := newStubLunchRepo(waves...)
	students := &stubStudentReader{students: []models.Student{
		{ID: "stu-12a", GradeLevel: "Grade 12", Active: true},
		{ID: "stu-12b", GradeLevel: "Grade 12", Active: true},
	}}
	svc := NewLunchService(repo, students, nil)

	stats, err := svc.AssignAllStudents(context.Background(), "sched-1", models.LunchBalanced)
	require.NoError(t, err)

	// One seat in the unrestricted wave; the other student stays
	// unassigned instead of landing in the grade 9 wave.
	assert.Equal(t, 1, stats.AssignedStudents)
	assert.Equal(t, 1, stats.UnassignedStudents)
	for _, a := range repo.assignments {
		assert.Equal(t, "wave-2", a.WaveID)
	}
}

func TestAssignAlphabeticalSplitsIntoContiguousChunks(t *testing.T) {
	repo := newStubLunchRepo(lunchTestWaves(3, 30)...)
	students := &stubStudentReader{students: lunchTestStudents(9)}
	svc := NewLunchService(repo, students, nil)

	stats, err := svc.AssignAllStudents(context.Background(), "sched-1", models.LunchAlphabetical)
	require.NoError(t, err)

	// Nine names over three waves: three per wave in sorted order, not
	// thirty into the first wave.
	assert.Equal(t, 3, stats.WaveOccupancy["wave-1"])
	assert.Equal(t, 3, stats.WaveOccupancy["wave-2"])
	assert.Equal(t, 3, stats.WaveOccupancy["wave-3"])
	assert.Equal(t, "wave-1", repo.assignments["stu-001"].WaveID)
	assert.Equal(t, "wave-1", repo.assignments["stu-003"].WaveID)
	assert.Equal(t, "wave-2", repo.assignments["stu-004"].WaveID)
	assert.Equal(t, "wave-3", repo.assignments["stu-007"].WaveID)
	assert.Equal(t, "wave-3", repo.assignments["stu-009"].WaveID)
}

func TestAssignAllKeepsLockedAndManual(t *testing.T) {
	repo := newStubLunchRepo(lunchTestWaves(2, 30)...)
	repo.assignments["stu-001"] = models.StudentLunchAssignment{
		ID: "a1", StudentID: "stu-001", WaveID: "wave-2", ScheduleID: "sched-1", Locked: true,
	}
	students := &stubStudentReader{students: lunchTestStudents(4)}
	svc := NewLunchService(repo, students, nil)

	_, err := svc.AssignAllStudents(context.Background(), "sched-1", models.LunchByStudentID)
	require.NoError(t, err)

	kept := repo.assignments["stu-001"]
	assert.Equal(t, "wave-2", kept.WaveID)
	assert.True(t, kept.Locked)
}

func TestReassignStudent(t *testing.T) {
	repo := newStubLunchRepo(lunchTestWaves(2, 30)...)
	repo.assignments["stu-001"] = models.StudentLunchAssignment{
		ID: "a1", StudentID: "stu-001", WaveID: "wave-1", ScheduleID: "sched-1", Priority: 7,
	}
	svc := NewLunchService(repo, &stubStudentReader{}, nil)

	err := svc.ReassignStudent(context.Background(), "sched-1", "stu-001", "wave-2")
	require.NoError(t, err)

	moved := repo.assignments["stu-001"]
	assert.Equal(t, "wave-2", moved.WaveID)
	assert.True(t, moved.ManualOverride)
	assert.Equal(t, models.LunchManual, moved.Method)
	assert.Equal(t, 7, moved.Priority)
	assert.Equal(t, "a1", moved.ID)
}

func TestReassignStudentWaveNotFound(t *testing.T) {
	svc := NewLunchService(newStubLunchRepo(lunchTestWaves(1, 30)...), &stubStudentReader{}, nil)

	err := svc.ReassignStudent(context.Background(), "sched-1", "stu-001", "wave-missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrWaveNotFound.Code, appErrors.FromError(err).Code)
}

func TestReassignStudentWaveFull(t *testing.T) {
	repo := newStubLunchRepo(lunchTestWaves(2, 1)...)
	repo.assignments["stu-taken"] = models.StudentLunchAssignment{
		ID: "a0", StudentID: "stu-taken", WaveID: "wave-2", ScheduleID: "sched-1",
	}
	svc := NewLunchService(repo, &stubStudentReader{}, nil)

	err := svc.ReassignStudent(context.Background(), "sched-1", "stu-new", "wave-2")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrWaveFull.Code, appErrors.FromError(err).Code)
}

func TestRebalancePreservesLockedAndManual(t *testing.T) {
	repo := newStubLunchRepo(lunchTestWaves(2, 30)...)
	// Wave 1 is overloaded; one assignment is locked, one manual.
	for i := 1; i <= 6; i++ {
		id := fmt.Sprintf("stu-%03d", i)
		repo.assignments[id] = models.StudentLunchAssignment{
			ID: fmt.Sprintf("a%d", i), StudentID: id, WaveID: "wave-1", ScheduleID: "sched-1",
			Priority: models.LunchPriorityDefault,
		}
	}
	locked := repo.assignments["stu-001"]
	locked.Locked = true
	repo.assignments["stu-001"] = locked
	manual := repo.assignments["stu-002"]
	manual.ManualOverride = true
	repo.assignments["stu-002"] = manual

	students := &stubStudentReader{students: lunchTestStudents(6)}
	svc := NewLunchService(repo, students, nil)

	stats, err := svc.Rebalance(context.Background(), "sched-1")
	require.NoError(t, err)

	assert.Equal(t, "wave-1", repo.assignments["stu-001"].WaveID)
	assert.Equal(t, "wave-1", repo.assignments["stu-002"].WaveID)
	assert.Equal(t, 3, stats.WaveOccupancy["wave-1"])
	assert.Equal(t, 3, stats.WaveOccupancy["wave-2"])
}

func TestSetPriorityBounds(t *testing.T) {
	repo := newStubLunchRepo(lunchTestWaves(1, 30)...)
	repo.assignments["stu-001"] = models.StudentLunchAssignment{
		ID: "a1", StudentID: "stu-001", WaveID: "wave-1", ScheduleID: "sched-1",
	}
	svc := NewLunchService(repo, &stubStudentReader{}, nil)

	require.NoError(t, svc.SetPriority(context.Background(), "sched-1", "stu-001", 10))
	assert.Equal(t, 10, repo.assignments["stu-001"].Priority)

	err := svc.SetPriority(context.Background(), "sched-1", "stu-001", 11)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	err = svc.SetPriority(context.Background(), "sched-1", "stu-001", 0)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestSetLocked(t *testing.T) {
	repo := newStubLunchRepo(lunchTestWaves(1, 30)...)
	repo.assignments["stu-001"] = models.StudentLunchAssignment{
		ID: "a1", StudentID: "stu-001", WaveID: "wave-1", ScheduleID: "sched-1",
	}
	svc := NewLunchService(repo, &stubStudentReader{}, nil)

	require.NoError(t, svc.SetLocked(context.Background(), "sched-1", "stu-001", true))
	assert.True(t, repo.assignments["stu-001"].Locked)

	err := svc.SetLocked(context.Background(), "sched-1", "stu-missing", true)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestRemoveAllAssignments(t *testing.T) {
	repo := newStubLunchRepo(lunchTestWaves(2, 30)...)
	repo.assignments["stu-001"] = models.StudentLunchAssignment{
		ID: "a1", StudentID: "stu-001", WaveID: "wave-1", ScheduleID: "sched-1",
	}
	svc := NewLunchService(repo, &stubStudentReader{}, nil)

	require.NoError(t, svc.RemoveAllAssignments(context.Background(), "sched-1"))
	assert.Empty(t, repo.assignments)
	assert.Empty(t, repo.supervisors)
	assert.Zero(t, repo.counts["wave-1"])
	assert.Zero(t, repo.counts["wave-2"])
}

func TestStatisticsRecomputesOccupancy(t *testing.T) {
	repo := newStubLunchRepo(lunchTestWaves(2, 30)...)
	// The cached counter disagrees with the records on purpose.
	repo.waves[0].CurrentCount = 99
	repo.assignments["stu-001"] = models.StudentLunchAssignment{
		ID: "a1", StudentID: "stu-001", WaveID: "wave-1", ScheduleID: "sched-1", Locked: true,
	}
	students := &stubStudentReader{students: lunchTestStudents(3)}
	svc := NewLunchService(repo, students, nil)

	stats, err := svc.Statistics(context.Background(), "sched-1")
	require.NoError(t, err)

	assert.Equal(t, 3, stats.TotalStudents)
	assert.Equal(t, 1, stats.AssignedStudents)
	assert.Equal(t, 2, stats.UnassignedStudents)
	assert.Equal(t, 1, stats.WaveOccupancy["wave-1"])
	assert.Equal(t, 0, stats.WaveOccupancy["wave-2"])
	assert.Equal(t, 1, stats.LockedAssignments)
	// The cached counter is corrected from the records.
	assert.Equal(t, 1, repo.counts["wave-1"])
	assert.Equal(t, 0, repo.counts["wave-2"])
}

func lunchTestTeachers(n int) []models.Teacher {
	out := make([]models.Teacher, n)
	for i := range out {
		out[i] = models.Teacher{
			ID:       fmt.Sprintf("t-%03d", i+1),
			FullName: fmt.Sprintf("Teacher%d", i+1),
			Active:   true,
		}
	}
	return out
}

func TestAssignTeachersCoversEveryWave(t *testing.T) {
	repo := newStubLunchRepo(lunchTestWaves(3, 30)...)
	roster := &stubStudentReader{teachers: lunchTestTeachers(6)}
	svc := NewLunchService(repo, roster, nil)

	assignments, err := svc.AssignTeachers(context.Background(), "sched-1")
	require.NoError(t, err)
	require.Len(t, assignments, 6)

	perWave := make(map[string]int)
	for _, a := range assignments {
		perWave[a.WaveID]++
	}
	assert.Equal(t, 2, perWave["wave-1"])
	assert.Equal(t, 2, perWave["wave-2"])
	assert.Equal(t, 2, perWave["wave-3"])
}

func TestAssignTeachersKeepsLockedDuty(t *testing.T) {
	repo := newStubLunchRepo(lunchTestWaves(2, 30)...)
	repo.supervisors["t-001"] = models.TeacherLunchAssignment{
		ID: "ta1", TeacherID: "t-001", WaveID: "wave-2", ScheduleID: "sched-1", Locked: true,
	}
	roster := &stubStudentReader{teachers: lunchTestTeachers(4)}
	svc := NewLunchService(repo, roster, nil)

	_, err := svc.AssignTeachers(context.Background(), "sched-1")
	require.NoError(t, err)

	kept := repo.supervisors["t-001"]
	assert.Equal(t, "wave-2", kept.WaveID)
	assert.True(t, kept.Locked)
}

func TestAssignTeachersNoWaves(t *testing.T) {
	svc := NewLunchService(newStubLunchRepo(), &stubStudentReader{}, nil)

	_, err := svc.AssignTeachers(context.Background(), "sched-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrWaveNotFound.Code, appErrors.FromError(err).Code)
}

func TestReassignTeacher(t *testing.T) {
	repo := newStubLunchRepo(lunchTestWaves(2, 30)...)
	repo.supervisors["t-001"] = models.TeacherLunchAssignment{
		ID: "ta1", TeacherID: "t-001", WaveID: "wave-1", ScheduleID: "sched-1", Priority: 8,
	}
	svc := NewLunchService(repo, &stubStudentReader{}, nil)

	err := svc.ReassignTeacher(context.Background(), "sched-1", "t-001", "wave-2")
	require.NoError(t, err)

	moved := repo.supervisors["t-001"]
	assert.Equal(t, "wave-2", moved.WaveID)
	assert.True(t, moved.ManualOverride)
	assert.Equal(t, models.LunchManual, moved.Method)
	assert.Equal(t, 8, moved.Priority)
	assert.Equal(t, "ta1", moved.ID)
}

func TestReassignTeacherWaveNotFound(t *testing.T) {
	svc := NewLunchService(newStubLunchRepo(lunchTestWaves(1, 30)...), &stubStudentReader{}, nil)

	err := svc.ReassignTeacher(context.Background(), "sched-1", "t-001", "wave-missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrWaveNotFound.Code, appErrors.FromError(err).Code)
}

func TestCreateWave(t *testing.T) {
	repo := newStubLunchRepo()
	svc := NewLunchService(repo, &stubStudentReader{}, nil)

	wave, err := svc.CreateWave(context.Background(), "sched-1", models.LunchWave{
		WaveNumber:  1,
		Name:        "First Lunch",
		MaxCapacity: 120,
		StartMinute: 11 * 60,
		EndMinute:   11*60 + 30,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, wave.ID)
	assert.Equal(t, "sched-1", wave.ScheduleID)
	require.Len(t, repo.waves, 1)

	_, err = svc.CreateWave(context.Background(), "sched-1", models.LunchWave{
		StartMinute: 12 * 60,
		EndMinute:   12 * 60,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestUpdateWaveKeepsOccupancy(t *testing.T) {
	repo := newStubLunchRepo(lunchTestWaves(1, 30)...)
	repo.waves[0].CurrentCount = 7
	svc := NewLunchService(repo, &stubStudentReader{}, nil)

	updated, err := svc.UpdateWave(context.Background(), "wave-1", models.LunchWave{
		WaveNumber:  1,
		Name:        "Renamed",
		MaxCapacity: 50,
		StartMinute: 11 * 60,
		EndMinute:   11*60 + 45,
	})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	assert.Equal(t, 7, updated.CurrentCount)

	_, err = svc.UpdateWave(context.Background(), "wave-missing", models.LunchWave{
		StartMinute: 11 * 60,
		EndMinute:   12 * 60,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrWaveNotFound.Code, appErrors.FromError(err).Code)
}

func TestDeleteWaveRefusesNonEmpty(t *testing.T) {
	repo := newStubLunchRepo(lunchTestWaves(2, 30)...)
	repo.assignments["stu-001"] = models.StudentLunchAssignment{
		ID: "a1", StudentID: "stu-001", WaveID: "wave-1", ScheduleID: "sched-1",
	}
	svc := NewLunchService(repo, &stubStudentReader{}, nil)

	err := svc.DeleteWave(context.Background(), "wave-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)

	require.NoError(t, svc.DeleteWave(context.Background(), "wave-2"))
	require.Len(t, repo.waves, 1)
}
