package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-engine/internal/dto"
	"github.com/noah-isme/sma-timetable-engine/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-engine/pkg/errors"
)

type stubScheduleRepo struct {
	schedules map[string]*models.Schedule
	slots     map[string]*models.ScheduleSlot
}

func newStubScheduleRepo() *stubScheduleRepo {
	return &stubScheduleRepo{
		schedules: make(map[string]*models.Schedule),
		slots:     make(map[string]*models.ScheduleSlot),
	}
}

func (m *stubScheduleRepo) List(ctx context.Context, filter models.ScheduleFilter) ([]models.Schedule, int, error) {
	var out []models.Schedule
	for _, s := range m.schedules {
		out = append(out, *s)
	}
	return out, len(out), nil
}

func (m *stubScheduleRepo) GetSchedule(ctx context.Context, id string) (*models.Schedule, error) {
	if s, ok := m.schedules[id]; ok {
		copy := *s
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *stubScheduleRepo) Create(ctx context.Context, schedule *models.Schedule) error {
	copy := *schedule
	m.schedules[schedule.ID] = &copy
	return nil
}

func (m *stubScheduleRepo) Update(ctx context.Context, schedule *models.Schedule) error {
	copy := *schedule
	m.schedules[schedule.ID] = &copy
	return nil
}

func (m *stubScheduleRepo) Delete(ctx context.Context, id string) error {
	delete(m.schedules, id)
	return nil
}

func (m *stubScheduleRepo) ListSlots(ctx context.Context, scheduleID string) ([]models.ScheduleSlot, error) {
	var out []models.ScheduleSlot
	for _, s := range m.slots {
		if s.ScheduleID == scheduleID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (m *stubScheduleRepo) GetSlot(ctx context.Context, id string) (*models.ScheduleSlot, error) {
	if s, ok := m.slots[id]; ok {
		copy := *s
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *stubScheduleRepo) CreateSlot(ctx context.Context, slot *models.ScheduleSlot) error {
	copy := *slot
	m.slots[slot.ID] = &copy
	return nil
}

func (m *stubScheduleRepo) UpdateSlot(ctx context.Context, slot *models.ScheduleSlot) error {
	copy := *slot
	m.slots[slot.ID] = &copy
	return nil
}

func (m *stubScheduleRepo) SetSlotPinned(ctx context.Context, id string, pinned bool) error {
	if s, ok := m.slots[id]; ok {
		s.Pinned = pinned
	}
	return nil
}

func (m *stubScheduleRepo) DeleteSlot(ctx context.Context, id string) error {
	delete(m.slots, id)
	return nil
}

type stubConflictStore struct {
	stored map[string][]models.Conflict
}

func newStubConflictStore() *stubConflictStore {
	return &stubConflictStore{stored: make(map[string][]models.Conflict)}
}

func (m *stubConflictStore) ReplaceForSchedule(ctx context.Context, scheduleID string, conflicts []models.Conflict) error {
	m.stored[scheduleID] = conflicts
	return nil
}

func (m *stubConflictStore) List(ctx context.Context, scheduleID string, openOnly bool) ([]models.Conflict, error) {
	var out []models.Conflict
	for _, c := range m.stored[scheduleID] {
		if openOnly && !c.Open() {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (m *stubConflictStore) FindByID(ctx context.Context, id string) (*models.Conflict, error) {
	for _, conflicts := range m.stored {
		for _, c := range conflicts {
			if c.ID == id {
				copy := c
				return &copy, nil
			}
		}
	}
	return nil, sql.ErrNoRows
}

func (m *stubConflictStore) SetResolved(ctx context.Context, id string, resolved bool) error {
	for scheduleID, conflicts := range m.stored {
		for i := range conflicts {
			if conflicts[i].ID == id {
				conflicts[i].Resolved = resolved
				m.stored[scheduleID] = conflicts
			}
		}
	}
	return nil
}

func (m *stubConflictStore) SetIgnored(ctx context.Context, id string, ignored bool) error {
	for scheduleID, conflicts := range m.stored {
		for i := range conflicts {
			if conflicts[i].ID == id {
				conflicts[i].Ignored = ignored
				m.stored[scheduleID] = conflicts
			}
		}
	}
	return nil
}

func scheduleTestService() (*ScheduleService, *stubScheduleRepo, *stubConflictStore) {
	p := solverTestProblem()
	repo := newStubScheduleRepo()
	repo.schedules[p.ScheduleID] = &models.Schedule{
		ID:     p.ScheduleID,
		Name:   "Fall Draft",
		Status: models.ScheduleStatusDraft,
	}
	for _, slot := range p.Slots {
		copy := slot
		repo.slots[slot.ID] = &copy
	}
	conflicts := newStubConflictStore()
	roster := &stubRosterReader{teachers: p.Teachers, rooms: p.Rooms, courses: p.Courses}
	svc := NewScheduleService(repo, conflicts, roster, nil, nil, zap.NewNop())
	return svc, repo, conflicts
}

func TestCreateScheduleDefaultsToDraft(t *testing.T) {
	svc, repo, _ := scheduleTestService()

	schedule, err := svc.Create(context.Background(), dto.CreateScheduleRequest{Name: "Spring 2027"})
	require.NoError(t, err)

	assert.NotEmpty(t, schedule.ID)
	assert.Equal(t, models.ScheduleStatusDraft, schedule.Status)
	assert.Contains(t, repo.schedules, schedule.ID)
}

func TestGetScheduleMissing(t *testing.T) {
	svc, _, _ := scheduleTestService()

	_, err := svc.Get(context.Background(), "no-such")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrScheduleNotFound.Code, appErrors.FromError(err).Code)
}

func TestCreateSlotOnSchedule(t *testing.T) {
	svc, repo, _ := scheduleTestService()

	slot, err := svc.CreateSlot(context.Background(), "sched-1", dto.CreateSlotRequest{
		CourseID:   "c-alg",
		StudentIDs: []string{"s-1", "s-2"},
	})
	require.NoError(t, err)

	assert.NotEmpty(t, slot.ID)
	assert.Equal(t, "sched-1", slot.ScheduleID)
	assert.Contains(t, repo.slots, slot.ID)
}

func TestPinSlot(t *testing.T) {
	svc, repo, _ := scheduleTestService()

	slot, err := svc.PinSlot(context.Background(), "slot-1", true)
	require.NoError(t, err)
	assert.True(t, slot.Pinned)
	assert.True(t, repo.slots["slot-1"].Pinned)

	slot, err = svc.PinSlot(context.Background(), "slot-1", false)
	require.NoError(t, err)
	assert.False(t, slot.Pinned)
}

func TestDetectConflictsStoresFindings(t *testing.T) {
	svc, repo, store := scheduleTestService()

	// Same teacher in the same period on the same day.
	repo.slots["slot-1"].TimeSlotID = "mon-p1"
	repo.slots["slot-1"].RoomID = "r-101"
	repo.slots["slot-2"].TimeSlotID = "mon-p1"
	repo.slots["slot-2"].RoomID = "r-lab"

	conflicts, err := svc.DetectConflicts(context.Background(), "sched-1")
	require.NoError(t, err)
	require.NotEmpty(t, conflicts)

	var foundDoubleBooking bool
	for _, c := range conflicts {
		if c.Type == models.ConflictTeacherOverload {
			foundDoubleBooking = true
			assert.Equal(t, models.SeverityCritical, c.Severity)
			assert.ElementsMatch(t, []string{"t-math"}, c.AffectedTeacherIDs)
		}
	}
	assert.True(t, foundDoubleBooking)
	assert.Equal(t, conflicts, store.stored["sched-1"])
}

func TestPublishBlockedByCriticalConflicts(t *testing.T) {
	svc, repo, _ := scheduleTestService()

	repo.slots["slot-1"].TimeSlotID = "mon-p1"
	repo.slots["slot-1"].RoomID = "r-101"
	repo.slots["slot-2"].TimeSlotID = "mon-p1"
	repo.slots["slot-2"].RoomID = "r-lab"

	_, err := svc.Update(context.Background(), "sched-1", dto.UpdateScheduleRequest{Status: string(models.ScheduleStatusPublished)})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)

	schedule, err := svc.Get(context.Background(), "sched-1")
	require.NoError(t, err)
	assert.Equal(t, models.ScheduleStatusDraft, schedule.Status)
}

func TestResolveAndIgnoreConflict(t *testing.T) {
	svc, repo, _ := scheduleTestService()

	repo.slots["slot-1"].TimeSlotID = "mon-p1"
	repo.slots["slot-1"].RoomID = "r-101"
	repo.slots["slot-2"].TimeSlotID = "mon-p1"
	repo.slots["slot-2"].RoomID = "r-lab"

	conflicts, err := svc.DetectConflicts(context.Background(), "sched-1")
	require.NoError(t, err)
	require.NotEmpty(t, conflicts)

	require.NoError(t, svc.ResolveConflict(context.Background(), conflicts[0].ID))
	open, err := svc.ListConflicts(context.Background(), "sched-1", true)
	require.NoError(t, err)
	assert.Len(t, open, len(conflicts)-1)

	err = svc.ResolveConflict(context.Background(), "no-such")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestScoreBreakdown(t *testing.T) {
	svc, repo, _ := scheduleTestService()

	repo.slots["slot-1"].TimeSlotID = "mon-p1"
	repo.slots["slot-1"].RoomID = "r-101"
	repo.slots["slot-2"].TimeSlotID = "mon-p1"
	repo.slots["slot-2"].RoomID = "r-lab"

	perConstraint, hard, _, err := svc.ScoreBreakdown(context.Background(), "sched-1", models.DefaultOptimizationConfig())
	require.NoError(t, err)
	assert.Positive(t, hard)
	assert.Positive(t, perConstraint[models.ConstraintNoTeacherOverlap])
}
