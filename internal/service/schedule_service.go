package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-engine/internal/dto"
	"github.com/noah-isme/sma-timetable-engine/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-engine/pkg/errors"
)

type scheduleRepository interface {
	List(ctx context.Context, filter models.ScheduleFilter) ([]models.Schedule, int, error)
	GetSchedule(ctx context.Context, id string) (*models.Schedule, error)
	Create(ctx context.Context, schedule *models.Schedule) error
	Update(ctx context.Context, schedule *models.Schedule) error
	Delete(ctx context.Context, id string) error
	ListSlots(ctx context.Context, scheduleID string) ([]models.ScheduleSlot, error)
	GetSlot(ctx context.Context, id string) (*models.ScheduleSlot, error)
	CreateSlot(ctx context.Context, slot *models.ScheduleSlot) error
	UpdateSlot(ctx context.Context, slot *models.ScheduleSlot) error
	SetSlotPinned(ctx context.Context, id string, pinned bool) error
	DeleteSlot(ctx context.Context, id string) error
}

type conflictStore interface {
	ReplaceForSchedule(ctx context.Context, scheduleID string, conflicts []models.Conflict) error
	List(ctx context.Context, scheduleID string, openOnly bool) ([]models.Conflict, error)
	FindByID(ctx context.Context, id string) (*models.Conflict, error)
	SetResolved(ctx context.Context, id string, resolved bool) error
	SetIgnored(ctx context.Context, id string, ignored bool) error
}

// ScheduleService manages timetable lifecycle, slot editing, and the stored
// conflict workflow.
type ScheduleService struct {
	repo      scheduleRepository
	conflicts conflictStore
	roster    rosterReader
	detector  *ConflictService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewScheduleService instantiates ScheduleService.
func NewScheduleService(repo scheduleRepository, conflicts conflictStore, roster rosterReader, detector *ConflictService, validate *validator.Validate, logger *zap.Logger) *ScheduleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if detector == nil {
		detector = NewConflictService(logger)
	}
	return &ScheduleService{repo: repo, conflicts: conflicts, roster: roster, detector: detector, validator: validate, logger: logger}
}

// List returns schedules with pagination metadata.
func (s *ScheduleService) List(ctx context.Context, filter models.ScheduleFilter) ([]models.Schedule, *models.Pagination, error) {
	schedules, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schedules")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return schedules, pagination, nil
}

// Get returns a schedule by ID.
func (s *ScheduleService) Get(ctx context.Context, id string) (*models.Schedule, error) {
	schedule, err := s.repo.GetSchedule(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrScheduleNotFound, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}
	return schedule, nil
}

// Create inserts a new draft schedule.
func (s *ScheduleService) Create(ctx context.Context, req dto.CreateScheduleRequest) (*models.Schedule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}

	schedule := &models.Schedule{
		ID:     uuid.NewString(),
		Name:   req.Name,
		TermID: req.TermID,
		Status: models.ScheduleStatusDraft,
	}
	if err := s.repo.Create(ctx, schedule); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create schedule")
	}
	return schedule, nil
}

// Update renames a schedule or moves it through its lifecycle. Publishing
// re-detects conflicts first and is refused while critical ones stay open.
func (s *ScheduleService) Update(ctx context.Context, id string, req dto.UpdateScheduleRequest) (*models.Schedule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}

	schedule, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != "" {
		schedule.Name = req.Name
	}
	if req.Status != "" {
		next := models.ScheduleStatus(req.Status)
		if next == models.ScheduleStatusPublished && schedule.Status != models.ScheduleStatusPublished {
			conflicts, err := s.DetectConflicts(ctx, id)
			if err != nil {
				return nil, err
			}
			if hasOpenCritical(conflicts) {
				return nil, appErrors.Clone(appErrors.ErrConflict, "cannot publish while critical conflicts remain open")
			}
		}
		schedule.Status = next
	}

	if err := s.repo.Update(ctx, schedule); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update schedule")
	}
	return schedule, nil
}

// Delete removes a schedule and its slots.
func (s *ScheduleService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete schedule")
	}
	return nil
}

// ListSlots returns every slot of a schedule.
func (s *ScheduleService) ListSlots(ctx context.Context, scheduleID string) ([]models.ScheduleSlot, error) {
	if _, err := s.Get(ctx, scheduleID); err != nil {
		return nil, err
	}
	slots, err := s.repo.ListSlots(ctx, scheduleID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list slots")
	}
	return slots, nil
}

// CreateSlot adds a course session to a schedule.
func (s *ScheduleService) CreateSlot(ctx context.Context, scheduleID string, req dto.CreateSlotRequest) (*models.ScheduleSlot, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid slot payload")
	}
	if _, err := s.Get(ctx, scheduleID); err != nil {
		return nil, err
	}

	slot := &models.ScheduleSlot{
		ID:         uuid.NewString(),
		ScheduleID: scheduleID,
		CourseID:   req.CourseID,
		TeacherID:  req.TeacherID,
		RoomID:     req.RoomID,
		TimeSlotID: req.TimeSlotID,
		StudentIDs: req.StudentIDs,
		Pinned:     req.Pinned,
	}
	if err := s.repo.CreateSlot(ctx, slot); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create slot")
	}
	return slot, nil
}

// UpdateSlot replaces a slot's assignment.
func (s *ScheduleService) UpdateSlot(ctx context.Context, slotID string, req dto.UpdateSlotRequest) (*models.ScheduleSlot, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid slot payload")
	}

	slot, err := s.getSlot(ctx, slotID)
	if err != nil {
		return nil, err
	}

	slot.TeacherID = req.TeacherID
	slot.RoomID = req.RoomID
	slot.TimeSlotID = req.TimeSlotID
	slot.Pinned = req.Pinned

	if err := s.repo.UpdateSlot(ctx, slot); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update slot")
	}
	return slot, nil
}

// PinSlot locks or unlocks a slot's assignment against solver moves.
func (s *ScheduleService) PinSlot(ctx context.Context, slotID string, pinned bool) (*models.ScheduleSlot, error) {
	slot, err := s.getSlot(ctx, slotID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetSlotPinned(ctx, slotID, pinned); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to pin slot")
	}
	slot.Pinned = pinned
	return slot, nil
}

// DeleteSlot removes a slot from its schedule.
func (s *ScheduleService) DeleteSlot(ctx context.Context, slotID string) error {
	if _, err := s.getSlot(ctx, slotID); err != nil {
		return err
	}
	if err := s.repo.DeleteSlot(ctx, slotID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete slot")
	}
	return nil
}

// DetectConflicts runs the detectors against the schedule's current slots
// and replaces the stored open conflicts with the fresh set.
func (s *ScheduleService) DetectConflicts(ctx context.Context, scheduleID string) ([]models.Conflict, error) {
	slots, facts, err := s.loadFacts(ctx, scheduleID)
	if err != nil {
		return nil, err
	}

	conflicts := s.detector.DetectAll(scheduleID, slots, facts)
	if err := s.conflicts.ReplaceForSchedule(ctx, scheduleID, conflicts); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store conflicts")
	}

	s.logger.Info("conflict detection finished",
		zap.String("schedule_id", scheduleID),
		zap.Int("conflicts", len(conflicts)))
	return conflicts, nil
}

// ListConflicts returns stored conflicts for a schedule.
func (s *ScheduleService) ListConflicts(ctx context.Context, scheduleID string, openOnly bool) ([]models.Conflict, error) {
	conflicts, err := s.conflicts.List(ctx, scheduleID, openOnly)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list conflicts")
	}
	return conflicts, nil
}

// ResolveConflict marks a conflict handled by an operator.
func (s *ScheduleService) ResolveConflict(ctx context.Context, conflictID string) error {
	if err := s.requireConflict(ctx, conflictID); err != nil {
		return err
	}
	if err := s.conflicts.SetResolved(ctx, conflictID, true); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve conflict")
	}
	return nil
}

// IgnoreConflict suppresses or restores a conflict.
func (s *ScheduleService) IgnoreConflict(ctx context.Context, conflictID string, ignored bool) error {
	if err := s.requireConflict(ctx, conflictID); err != nil {
		return err
	}
	if err := s.conflicts.SetIgnored(ctx, conflictID, ignored); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update conflict")
	}
	return nil
}

// ScoreBreakdown evaluates the schedule and returns the per-constraint
// penalty contributions alongside hard and soft totals.
func (s *ScheduleService) ScoreBreakdown(ctx context.Context, scheduleID string, cfg models.OptimizationConfig) (map[models.ConstraintType]float64, float64, float64, error) {
	slots, facts, err := s.loadFacts(ctx, scheduleID)
	if err != nil {
		return nil, 0, 0, err
	}
	conflicts := s.detector.DetectAll(scheduleID, slots, facts)
	perConstraint, hard, soft := s.detector.FitnessBreakdown(conflicts, cfg)
	return perConstraint, hard, soft, nil
}

func (s *ScheduleService) loadFacts(ctx context.Context, scheduleID string) ([]models.ScheduleSlot, *EvaluationFacts, error) {
	slots, err := s.ListSlots(ctx, scheduleID)
	if err != nil {
		return nil, nil, err
	}

	teachers, err := s.roster.ListActiveTeachers(ctx)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teachers")
	}
	rooms, err := s.roster.ListActiveRooms(ctx)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rooms")
	}
	courses, err := s.roster.ListActiveCourses(ctx)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load courses")
	}
	students, err := s.roster.ListActiveStudents(ctx)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load students")
	}

	facts := BuildEvaluationFacts(teachers, rooms, courses, students, models.StandardTimeGrid())
	return slots, facts, nil
}

func (s *ScheduleService) getSlot(ctx context.Context, id string) (*models.ScheduleSlot, error) {
	slot, err := s.repo.GetSlot(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "slot not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load slot")
	}
	return slot, nil
}

func (s *ScheduleService) requireConflict(ctx context.Context, id string) error {
	conflict, err := s.conflicts.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "conflict not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load conflict")
	}
	if conflict == nil {
		return appErrors.Clone(appErrors.ErrNotFound, "conflict not found")
	}
	return nil
}

func hasOpenCritical(conflicts []models.Conflict) bool {
	for _, c := range conflicts {
		if c.Open() && c.Severity == models.SeverityCritical {
			return true
		}
	}
	return false
}
