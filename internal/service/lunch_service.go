package service

import (
	"context"
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-engine/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-engine/pkg/errors"
)

type lunchRepository interface {
	ListWaves(ctx context.Context, scheduleID string) ([]models.LunchWave, error)
	GetWave(ctx context.Context, waveID string) (*models.LunchWave, error)
	CreateWave(ctx context.Context, wave *models.LunchWave) error
	UpdateWave(ctx context.Context, wave *models.LunchWave) error
	DeleteWave(ctx context.Context, waveID string) error
	UpdateWaveCount(ctx context.Context, waveID string, count int) error
	ListStudentAssignments(ctx context.Context, scheduleID string) ([]models.StudentLunchAssignment, error)
	GetStudentAssignment(ctx context.Context, scheduleID, studentID string) (*models.StudentLunchAssignment, error)
	UpsertStudentAssignment(ctx context.Context, a *models.StudentLunchAssignment) error
	DeleteStudentAssignments(ctx context.Context, scheduleID string) error
	ListTeacherAssignments(ctx context.Context, scheduleID string) ([]models.TeacherLunchAssignment, error)
	GetTeacherAssignment(ctx context.Context, scheduleID, teacherID string) (*models.TeacherLunchAssignment, error)
	UpsertTeacherAssignment(ctx context.Context, a *models.TeacherLunchAssignment) error
	DeleteTeacherAssignments(ctx context.Context, scheduleID string) error
}

type lunchRosterReader interface {
	ListActiveStudents(ctx context.Context) ([]models.Student, error)
	ListActiveTeachers(ctx context.Context) ([]models.Teacher, error)
}

// LunchService distributes students across lunch waves and maintains the
// resulting assignments. Occupancy is always recomputed from assignment
// records; the CurrentCount column is a cache refreshed on write.
type LunchService struct {
	repo   lunchRepository
	roster lunchRosterReader
	logger *zap.Logger
	rng    *rand.Rand
}

func NewLunchService(repo lunchRepository, roster lunchRosterReader, logger *zap.Logger) *LunchService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LunchService{
		repo:   repo,
		roster: roster,
		logger: logger,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// ListWaves returns the schedule's wave definitions.
func (s *LunchService) ListWaves(ctx context.Context, scheduleID string) ([]models.LunchWave, error) {
	waves, err := s.repo.ListWaves(ctx, scheduleID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lunch waves")
	}
	return waves, nil
}

// CreateWave adds a wave definition to the schedule.
func (s *LunchService) CreateWave(ctx context.Context, scheduleID string, wave models.LunchWave) (*models.LunchWave, error) {
	if wave.EndMinute <= wave.StartMinute {
		return nil, appErrors.Clone(appErrors.ErrValidation, "wave must end after it starts")
	}
	wave.ID = uuid.NewString()
	wave.ScheduleID = scheduleID
	wave.CurrentCount = 0
	if err := s.repo.CreateWave(ctx, &wave); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create lunch wave")
	}
	return &wave, nil
}

// UpdateWave replaces a wave's definition, keeping its occupancy count.
func (s *LunchService) UpdateWave(ctx context.Context, waveID string, wave models.LunchWave) (*models.LunchWave, error) {
	if wave.EndMinute <= wave.StartMinute {
		return nil, appErrors.Clone(appErrors.ErrValidation, "wave must end after it starts")
	}
	existing, err := s.repo.GetWave(ctx, waveID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lunch wave")
	}
	if existing == nil {
		return nil, appErrors.Clone(appErrors.ErrWaveNotFound, "")
	}
	wave.ID = existing.ID
	wave.ScheduleID = existing.ScheduleID
	wave.CurrentCount = existing.CurrentCount
	if err := s.repo.UpdateWave(ctx, &wave); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update lunch wave")
	}
	return &wave, nil
}

// DeleteWave removes an empty wave. Waves holding assignments must be
// drained first.
func (s *LunchService) DeleteWave(ctx context.Context, waveID string) error {
	existing, err := s.repo.GetWave(ctx, waveID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lunch wave")
	}
	if existing == nil {
		return appErrors.Clone(appErrors.ErrWaveNotFound, "")
	}
	occupancy, err := s.recomputeOccupancy(ctx, existing.ScheduleID)
	if err != nil {
		return err
	}
	if occupancy[waveID] > 0 {
		return appErrors.Clone(appErrors.ErrConflict, "wave still holds assignments")
	}
	if err := s.repo.DeleteWave(ctx, waveID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete lunch wave")
	}
	return nil
}

// AssignAllStudents distributes every active student without a locked or
// manual assignment across the schedule's waves using the given strategy.
// Students no wave can take are skipped and logged, never failed.
func (s *LunchService) AssignAllStudents(ctx context.Context, scheduleID string, method models.LunchAssignmentMethod) (*models.LunchStatistics, error) {
	if method == models.LunchManual {
		return nil, appErrors.Clone(appErrors.ErrValidation, "manual assignments cannot be batch-applied")
	}

	waves, err := s.repo.ListWaves(ctx, scheduleID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lunch waves")
	}
	if len(waves) == 0 {
		return nil, appErrors.Clone(appErrors.ErrWaveNotFound, "schedule has no lunch waves")
	}
	roster, err := s.roster.ListActiveStudents(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load students")
	}
	existing, err := s.repo.ListStudentAssignments(ctx, scheduleID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lunch assignments")
	}

	occupancy := make(map[string]int, len(waves))
	kept := make(map[string]models.StudentLunchAssignment)
	for _, a := range existing {
		if a.Locked || a.ManualOverride {
			kept[a.StudentID] = a
			occupancy[a.WaveID]++
		}
	}

	ordered := orderStudents(roster, kept, method, s.rng)
	assigned, skipped := 0, 0
	now := time.Now()

	// Ordered strategies split the sorted roster into equal contiguous
	// chunks, one per wave, so consecutive students eat together.
	chunkSize := 0
	if method == models.LunchAlphabetical || method == models.LunchByStudentID {
		chunkSize = ceilDiv(len(ordered), len(waves))
	}

	for idx, student := range ordered {
		var wave *models.LunchWave
		if chunkSize > 0 {
			wave = chunkWave(waves, occupancy, student, idx/chunkSize)
		} else {
			wave = pickWave(waves, occupancy, student, method)
		}
		if wave == nil {
			skipped++
			s.logger.Warn("no lunch wave can take student",
				zap.String("schedule_id", scheduleID),
				zap.String("student_id", student.ID))
			continue
		}
		assignment := &models.StudentLunchAssignment{
			ID:         uuid.NewString(),
			StudentID:  student.ID,
			WaveID:     wave.ID,
			ScheduleID: scheduleID,
			Method:     method,
			Priority:   models.LunchPriorityDefault,
			AssignedAt: now,
		}
		if prev, ok := prevAssignment(existing, student.ID); ok {
			assignment.ID = prev.ID
			assignment.Priority = prev.Priority
		}
		if err := s.repo.UpsertStudentAssignment(ctx, assignment); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store lunch assignment")
		}
		occupancy[wave.ID]++
		assigned++
	}

	s.refreshWaveCounts(ctx, waves, occupancy)
	s.logger.Info("lunch assignment finished",
		zap.String("schedule_id", scheduleID),
		zap.String("method", string(method)),
		zap.Int("assigned", assigned),
		zap.Int("kept", len(kept)),
		zap.Int("skipped", skipped))

	return s.statisticsFrom(ctx, scheduleID, roster, waves)
}

// ReassignStudent moves one student to a specific wave, marking the
// assignment as a manual override. The target's occupancy gate uses counts
// recomputed from assignment records.
func (s *LunchService) ReassignStudent(ctx context.Context, scheduleID, studentID, waveID string) error {
	wave, err := s.repo.GetWave(ctx, waveID)
	if err != nil || wave == nil {
		return appErrors.Clone(appErrors.ErrWaveNotFound, "")
	}

	occupancy, err := s.recomputeOccupancy(ctx, scheduleID)
	if err != nil {
		return err
	}
	if !wave.CanAccept(occupancy[waveID]) {
		return appErrors.Clone(appErrors.ErrWaveFull, "")
	}

	now := time.Now()
	assignment := &models.StudentLunchAssignment{
		ID:             uuid.NewString(),
		StudentID:      studentID,
		WaveID:         waveID,
		ScheduleID:     scheduleID,
		Method:         models.LunchManual,
		ManualOverride: true,
		Priority:       models.LunchPriorityDefault,
		AssignedAt:     now,
	}
	if prev, err := s.repo.GetStudentAssignment(ctx, scheduleID, studentID); err == nil && prev != nil {
		assignment.ID = prev.ID
		assignment.Locked = prev.Locked
		assignment.Priority = prev.Priority
		occupancy[prev.WaveID]--
	}
	if err := s.repo.UpsertStudentAssignment(ctx, assignment); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store lunch assignment")
	}
	occupancy[waveID]++

	waves, err := s.repo.ListWaves(ctx, scheduleID)
	if err == nil {
		s.refreshWaveCounts(ctx, waves, occupancy)
	}
	return nil
}

// Rebalance evens out wave occupancy. Locked and manually overridden
// assignments keep their wave; everything else is redistributed to the
// least-occupied eligible wave.
func (s *LunchService) Rebalance(ctx context.Context, scheduleID string) (*models.LunchStatistics, error) {
	waves, err := s.repo.ListWaves(ctx, scheduleID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lunch waves")
	}
	if len(waves) == 0 {
		return nil, appErrors.Clone(appErrors.ErrWaveNotFound, "schedule has no lunch waves")
	}
	assignments, err := s.repo.ListStudentAssignments(ctx, scheduleID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lunch assignments")
	}
	roster, err := s.roster.ListActiveStudents(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load students")
	}
	grades := make(map[string]*int, len(roster))
	for _, st := range roster {
		grades[st.ID] = models.ParseGradeLevel(st.GradeLevel)
	}

	occupancy := make(map[string]int, len(waves))
	var movable []models.StudentLunchAssignment
	for _, a := range assignments {
		if a.Locked || a.ManualOverride {
			occupancy[a.WaveID]++
			continue
		}
		movable = append(movable, a)
	}

	// Highest priority students are placed first so they land in the
	// emptiest waves.
	sort.SliceStable(movable, func(i, j int) bool { return movable[i].Priority > movable[j].Priority })

	moved := 0
	for _, a := range movable {
		target := leastOccupiedEligible(waves, occupancy, grades[a.StudentID])
		if target == nil {
			occupancy[a.WaveID]++
			continue
		}
		if target.ID != a.WaveID {
			a.WaveID = target.ID
			a.Method = models.LunchBalanced
			if err := s.repo.UpsertStudentAssignment(ctx, &a); err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store lunch assignment")
			}
			moved++
		}
		occupancy[target.ID]++
	}

	s.refreshWaveCounts(ctx, waves, occupancy)
	s.logger.Info("lunch rebalance finished",
		zap.String("schedule_id", scheduleID),
		zap.Int("moved", moved))

	return s.statisticsFrom(ctx, scheduleID, roster, waves)
}

// SetLocked flags or unflags an assignment as immune to batch operations.
func (s *LunchService) SetLocked(ctx context.Context, scheduleID, studentID string, locked bool) error {
	assignment, err := s.repo.GetStudentAssignment(ctx, scheduleID, studentID)
	if err != nil || assignment == nil {
		return appErrors.Clone(appErrors.ErrNotFound, "lunch assignment not found")
	}
	assignment.Locked = locked
	if err := s.repo.UpsertStudentAssignment(ctx, assignment); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store lunch assignment")
	}
	return nil
}

// SetPriority updates the 1-10 placement priority.
func (s *LunchService) SetPriority(ctx context.Context, scheduleID, studentID string, priority int) error {
	if priority < models.LunchPriorityMin || priority > models.LunchPriorityMax {
		return appErrors.Clone(appErrors.ErrValidation, "priority must be between 1 and 10")
	}
	assignment, err := s.repo.GetStudentAssignment(ctx, scheduleID, studentID)
	if err != nil || assignment == nil {
		return appErrors.Clone(appErrors.ErrNotFound, "lunch assignment not found")
	}
	assignment.Priority = priority
	if err := s.repo.UpsertStudentAssignment(ctx, assignment); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store lunch assignment")
	}
	return nil
}

// RemoveAllAssignments clears every student assignment and supervision duty
// for the schedule and zeroes the wave counters.
func (s *LunchService) RemoveAllAssignments(ctx context.Context, scheduleID string) error {
	if err := s.repo.DeleteStudentAssignments(ctx, scheduleID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete lunch assignments")
	}
	if err := s.repo.DeleteTeacherAssignments(ctx, scheduleID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete teacher lunch assignments")
	}
	waves, err := s.repo.ListWaves(ctx, scheduleID)
	if err != nil {
		return nil
	}
	s.refreshWaveCounts(ctx, waves, nil)
	return nil
}

// Statistics reports current occupancy, recomputed from assignment records.
func (s *LunchService) Statistics(ctx context.Context, scheduleID string) (*models.LunchStatistics, error) {
	waves, err := s.repo.ListWaves(ctx, scheduleID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lunch waves")
	}
	roster, err := s.roster.ListActiveStudents(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load students")
	}
	occupancy, err := s.recomputeOccupancy(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	s.refreshWaveCounts(ctx, waves, occupancy)
	return s.statisticsFrom(ctx, scheduleID, roster, waves)
}

// ListTeacherAssignments returns the schedule's wave supervision duties.
func (s *LunchService) ListTeacherAssignments(ctx context.Context, scheduleID string) ([]models.TeacherLunchAssignment, error) {
	assignments, err := s.repo.ListTeacherAssignments(ctx, scheduleID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher lunch assignments")
	}
	return assignments, nil
}

// AssignTeachers distributes active teachers across the schedule's waves so
// every wave has supervision. Locked and manually overridden duties keep
// their wave; the rest go to the least supervised wave in turn.
func (s *LunchService) AssignTeachers(ctx context.Context, scheduleID string) ([]models.TeacherLunchAssignment, error) {
	waves, err := s.repo.ListWaves(ctx, scheduleID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lunch waves")
	}
	if len(waves) == 0 {
		return nil, appErrors.Clone(appErrors.ErrWaveNotFound, "schedule has no lunch waves")
	}
	teachers, err := s.roster.ListActiveTeachers(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teachers")
	}
	existing, err := s.repo.ListTeacherAssignments(ctx, scheduleID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher lunch assignments")
	}

	supervisors := make(map[string]int, len(waves))
	kept := make(map[string]models.TeacherLunchAssignment)
	for _, a := range existing {
		if a.Locked || a.ManualOverride {
			kept[a.TeacherID] = a
			supervisors[a.WaveID]++
		}
	}

	now := time.Now()
	for _, t := range teachers {
		if _, ok := kept[t.ID]; ok {
			continue
		}
		target := leastSupervisedWave(waves, supervisors)
		assignment := &models.TeacherLunchAssignment{
			ID:         uuid.NewString(),
			TeacherID:  t.ID,
			WaveID:     target.ID,
			ScheduleID: scheduleID,
			Method:     models.LunchBalanced,
			Priority:   models.LunchPriorityDefault,
			AssignedAt: now,
		}
		for _, prev := range existing {
			if prev.TeacherID == t.ID {
				assignment.ID = prev.ID
				break
			}
		}
		if err := s.repo.UpsertTeacherAssignment(ctx, assignment); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store teacher lunch assignment")
		}
		supervisors[target.ID]++
	}

	for _, w := range waves {
		if supervisors[w.ID] == 0 {
			s.logger.Warn("lunch wave has no supervising teacher",
				zap.String("schedule_id", scheduleID),
				zap.String("wave_id", w.ID))
		}
	}

	return s.ListTeacherAssignments(ctx, scheduleID)
}

// ReassignTeacher moves one teacher's supervision duty to a specific wave,
// marking it as a manual override.
func (s *LunchService) ReassignTeacher(ctx context.Context, scheduleID, teacherID, waveID string) error {
	wave, err := s.repo.GetWave(ctx, waveID)
	if err != nil || wave == nil {
		return appErrors.Clone(appErrors.ErrWaveNotFound, "")
	}

	assignment := &models.TeacherLunchAssignment{
		ID:             uuid.NewString(),
		TeacherID:      teacherID,
		WaveID:         waveID,
		ScheduleID:     scheduleID,
		Method:         models.LunchManual,
		ManualOverride: true,
		Priority:       models.LunchPriorityDefault,
		AssignedAt:     time.Now(),
	}
	if prev, err := s.repo.GetTeacherAssignment(ctx, scheduleID, teacherID); err == nil && prev != nil {
		assignment.ID = prev.ID
		assignment.Locked = prev.Locked
		assignment.Priority = prev.Priority
	}
	if err := s.repo.UpsertTeacherAssignment(ctx, assignment); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store teacher lunch assignment")
	}
	return nil
}

// ---------------------------------------------------------------------------
// internals

func (s *LunchService) recomputeOccupancy(ctx context.Context, scheduleID string) (map[string]int, error) {
	assignments, err := s.repo.ListStudentAssignments(ctx, scheduleID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lunch assignments")
	}
	occupancy := make(map[string]int)
	for _, a := range assignments {
		occupancy[a.WaveID]++
	}
	return occupancy, nil
}

// refreshWaveCounts writes the recomputed occupancy back to the cached
// counter column. Failures are logged, not propagated, since the cache is
// advisory.
func (s *LunchService) refreshWaveCounts(ctx context.Context, waves []models.LunchWave, occupancy map[string]int) {
	for _, w := range waves {
		if err := s.repo.UpdateWaveCount(ctx, w.ID, occupancy[w.ID]); err != nil {
			s.logger.Warn("failed to refresh wave counter",
				zap.String("wave_id", w.ID), zap.Error(err))
		}
	}
}

func (s *LunchService) statisticsFrom(ctx context.Context, scheduleID string, roster []models.Student, waves []models.LunchWave) (*models.LunchStatistics, error) {
	assignments, err := s.repo.ListStudentAssignments(ctx, scheduleID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lunch assignments")
	}
	stats := &models.LunchStatistics{
		TotalStudents: len(roster),
		WaveOccupancy: make(map[string]int, len(waves)),
	}
	assignedStudents := make(map[string]bool, len(assignments))
	for _, a := range assignments {
		assignedStudents[a.StudentID] = true
		stats.WaveOccupancy[a.WaveID]++
		if a.Locked {
			stats.LockedAssignments++
		}
		if a.ManualOverride {
			stats.ManualOverrides++
		}
	}
	for _, st := range roster {
		if assignedStudents[st.ID] {
			stats.AssignedStudents++
		}
	}
	stats.UnassignedStudents = stats.TotalStudents - stats.AssignedStudents
	for _, w := range waves {
		if _, ok := stats.WaveOccupancy[w.ID]; !ok {
			stats.WaveOccupancy[w.ID] = 0
		}
	}
	return stats, nil
}

func prevAssignment(assignments []models.StudentLunchAssignment, studentID string) (models.StudentLunchAssignment, bool) {
	for _, a := range assignments {
		if a.StudentID == studentID {
			return a, true
		}
	}
	return models.StudentLunchAssignment{}, false
}

// orderStudents sorts the assignable roster per strategy; students with a
// kept (locked or manual) assignment are excluded.
func orderStudents(roster []models.Student, kept map[string]models.StudentLunchAssignment, method models.LunchAssignmentMethod, rng *rand.Rand) []models.Student {
	out := make([]models.Student, 0, len(roster))
	for _, st := range roster {
		if _, ok := kept[st.ID]; !ok {
			out = append(out, st)
		}
	}
	switch method {
	case models.LunchAlphabetical:
		sort.SliceStable(out, func(i, j int) bool { return out[i].FullName() < out[j].FullName() })
	case models.LunchByStudentID:
		sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	case models.LunchByGradeLevel:
		sort.SliceStable(out, func(i, j int) bool {
			gi := models.ParseGradeLevel(out[i].GradeLevel)
			gj := models.ParseGradeLevel(out[j].GradeLevel)
			switch {
			case gi == nil:
				return false
			case gj == nil:
				return true
			default:
				return *gi < *gj
			}
		})
	case models.LunchRandom:
		rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	}
	return out
}

// pickWave chooses the target wave for one student. The grade gate is
// absolute: a student no eligible wave can take is skipped (nil), never
// placed into a restricted wave for another grade.
func pickWave(waves []models.LunchWave, occupancy map[string]int, student models.Student, method models.LunchAssignmentMethod) *models.LunchWave {
	grade := models.ParseGradeLevel(student.GradeLevel)

	if method != models.LunchBalanced {
		// Non-balanced strategies fill waves in declared order.
		for i := range waves {
			w := &waves[i]
			if w.GradeEligible(grade) && w.CanAccept(occupancy[w.ID]) {
				return w
			}
		}
		return nil
	}
	return leastOccupiedEligible(waves, occupancy, grade)
}

// chunkWave targets the wave owning the student's contiguous chunk. If that
// wave is full or grade-ineligible the scan continues through the following
// waves, wrapping once; nil means skip.
func chunkWave(waves []models.LunchWave, occupancy map[string]int, student models.Student, target int) *models.LunchWave {
	grade := models.ParseGradeLevel(student.GradeLevel)
	if target >= len(waves) {
		target = len(waves) - 1
	}
	for off := 0; off < len(waves); off++ {
		w := &waves[(target+off)%len(waves)]
		if w.GradeEligible(grade) && w.CanAccept(occupancy[w.ID]) {
			return w
		}
	}
	return nil
}

func leastSupervisedWave(waves []models.LunchWave, supervisors map[string]int) *models.LunchWave {
	best := &waves[0]
	for i := range waves {
		if supervisors[waves[i].ID] < supervisors[best.ID] {
			best = &waves[i]
		}
	}
	return best
}

func leastOccupiedEligible(waves []models.LunchWave, occupancy map[string]int, grade *int) *models.LunchWave {
	var best *models.LunchWave
	for i := range waves {
		w := &waves[i]
		if !w.GradeEligible(grade) || !w.CanAccept(occupancy[w.ID]) {
			continue
		}
		if best == nil || occupancy[w.ID] < occupancy[best.ID] {
			best = w
		}
	}
	return best
}
