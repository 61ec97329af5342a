package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-timetable-engine/internal/models"
)

const slotColumns = "id, schedule_id, course_id, teacher_id, room_id, time_slot_id, pinned, is_lunch_period, lunch_wave, has_conflict, created_at, updated_at"

// ScheduleRepository provides persistence for schedules and their slots.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository creates a new schedule repository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// List returns schedules with optional filtering and pagination.
func (r *ScheduleRepository) List(ctx context.Context, filter models.ScheduleFilter) ([]models.Schedule, int, error) {
	base := "FROM schedules WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.TermID != "" {
		conditions = append(conditions, fmt.Sprintf("term_id = $%d", len(args)+1))
		args = append(args, filter.TermID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, string(filter.Status))
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"name":       true,
		"status":     true,
		"created_at": true,
		"updated_at": true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "created_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT id, name, term_id, status, version, created_at, updated_at %s ORDER BY %s %s LIMIT %d OFFSET %d", base, sortBy, order, size, offset)
	var schedules []models.Schedule
	if err := r.db.SelectContext(ctx, &schedules, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list schedules: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count schedules: %w", err)
	}
	return schedules, total, nil
}

// GetSchedule loads a schedule by id.
func (r *ScheduleRepository) GetSchedule(ctx context.Context, id string) (*models.Schedule, error) {
	const query = `SELECT id, name, term_id, status, version, created_at, updated_at FROM schedules WHERE id = $1`
	var sched models.Schedule
	if err := r.db.GetContext(ctx, &sched, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find schedule by id: %w", err)
	}
	return &sched, nil
}

// Create stores a new schedule record.
func (r *ScheduleRepository) Create(ctx context.Context, schedule *models.Schedule) error {
	if schedule.ID == "" {
		schedule.ID = uuid.NewString()
	}
	if schedule.Status == "" {
		schedule.Status = models.ScheduleStatusDraft
	}
	if schedule.Version == 0 {
		schedule.Version = 1
	}
	now := time.Now().UTC()
	if schedule.CreatedAt.IsZero() {
		schedule.CreatedAt = now
	}
	schedule.UpdatedAt = now

	const query = `INSERT INTO schedules (id, name, term_id, status, version, created_at, updated_at) VALUES (:id, :name, :term_id, :status, :version, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, schedule); err != nil {
		return fmt.Errorf("create schedule: %w", err)
	}
	return nil
}

// Update replaces mutable schedule fields and bumps the version.
func (r *ScheduleRepository) Update(ctx context.Context, schedule *models.Schedule) error {
	schedule.UpdatedAt = time.Now().UTC()
	schedule.Version++
	const query = `UPDATE schedules SET name = :name, term_id = :term_id, status = :status, version = :version, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, schedule); err != nil {
		return fmt.Errorf("update schedule: %w", err)
	}
	return nil
}

// Delete removes a schedule and its slots.
func (r *ScheduleRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete schedule: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM schedule_slots WHERE schedule_id = $1`, id); err != nil {
		return fmt.Errorf("delete schedule slots: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM schedules WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit delete schedule: %w", err)
	}
	return nil
}

// ListSlots returns every slot of a schedule with its enrolled students.
func (r *ScheduleRepository) ListSlots(ctx context.Context, scheduleID string) ([]models.ScheduleSlot, error) {
	query := fmt.Sprintf("SELECT %s FROM schedule_slots WHERE schedule_id = $1 ORDER BY created_at ASC, id ASC", slotColumns)
	var slots []models.ScheduleSlot
	if err := r.db.SelectContext(ctx, &slots, query, scheduleID); err != nil {
		return nil, fmt.Errorf("list schedule slots: %w", err)
	}
	if err := r.attachStudents(ctx, scheduleID, slots); err != nil {
		return nil, err
	}
	return slots, nil
}

// GetSlot loads one slot.
func (r *ScheduleRepository) GetSlot(ctx context.Context, id string) (*models.ScheduleSlot, error) {
	query := fmt.Sprintf("SELECT %s FROM schedule_slots WHERE id = $1", slotColumns)
	var slot models.ScheduleSlot
	if err := r.db.GetContext(ctx, &slot, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find slot by id: %w", err)
	}
	const membersQuery = `SELECT student_id FROM slot_students WHERE slot_id = $1 ORDER BY student_id ASC`
	if err := r.db.SelectContext(ctx, &slot.StudentIDs, membersQuery, id); err != nil {
		return nil, fmt.Errorf("load slot students: %w", err)
	}
	return &slot, nil
}

// CreateSlot inserts a slot and its student memberships.
func (r *ScheduleRepository) CreateSlot(ctx context.Context, slot *models.ScheduleSlot) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create slot: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = r.insertSlot(ctx, tx, slot); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create slot: %w", err)
	}
	return nil
}

// UpdateSlot replaces the assignment fields of a slot.
func (r *ScheduleRepository) UpdateSlot(ctx context.Context, slot *models.ScheduleSlot) error {
	slot.UpdatedAt = time.Now().UTC()
	const query = `UPDATE schedule_slots SET teacher_id = :teacher_id, room_id = :room_id, time_slot_id = :time_slot_id, pinned = :pinned, is_lunch_period = :is_lunch_period, lunch_wave = :lunch_wave, has_conflict = :has_conflict, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, slot); err != nil {
		return fmt.Errorf("update slot: %w", err)
	}
	return nil
}

// SetSlotPinned flips only the pinned flag.
func (r *ScheduleRepository) SetSlotPinned(ctx context.Context, id string, pinned bool) error {
	const query = `UPDATE schedule_slots SET pinned = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, pinned, time.Now().UTC()); err != nil {
		return fmt.Errorf("set slot pinned: %w", err)
	}
	return nil
}

// DeleteSlot removes a slot and its memberships.
func (r *ScheduleRepository) DeleteSlot(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete slot: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM slot_students WHERE slot_id = $1`, id); err != nil {
		return fmt.Errorf("delete slot students: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM schedule_slots WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete slot: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit delete slot: %w", err)
	}
	return nil
}

// ReplaceSlots swaps the full slot set of a schedule inside one transaction.
// Optimization runs use it to persist an improved assignment atomically.
func (r *ScheduleRepository) ReplaceSlots(ctx context.Context, scheduleID string, slots []models.ScheduleSlot) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace slots: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM slot_students WHERE slot_id IN (SELECT id FROM schedule_slots WHERE schedule_id = $1)`, scheduleID); err != nil {
		return fmt.Errorf("clear slot students: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM schedule_slots WHERE schedule_id = $1`, scheduleID); err != nil {
		return fmt.Errorf("clear schedule slots: %w", err)
	}
	for i := range slots {
		slot := slots[i]
		slot.ScheduleID = scheduleID
		if err = r.insertSlot(ctx, tx, &slot); err != nil {
			return err
		}
	}
	if _, err = tx.ExecContext(ctx, `UPDATE schedules SET version = version + 1, updated_at = $2 WHERE id = $1`, scheduleID, time.Now().UTC()); err != nil {
		return fmt.Errorf("bump schedule version: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit replace slots: %w", err)
	}
	return nil
}

func (r *ScheduleRepository) insertSlot(ctx context.Context, tx *sqlx.Tx, slot *models.ScheduleSlot) error {
	if slot.ID == "" {
		slot.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if slot.CreatedAt.IsZero() {
		slot.CreatedAt = now
	}
	slot.UpdatedAt = now

	const query = `INSERT INTO schedule_slots (id, schedule_id, course_id, teacher_id, room_id, time_slot_id, pinned, is_lunch_period, lunch_wave, has_conflict, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	if _, err := tx.ExecContext(ctx, query,
		slot.ID, slot.ScheduleID, slot.CourseID,
		slot.TeacherID, slot.RoomID, slot.TimeSlotID,
		slot.Pinned, slot.IsLunchPeriod, slot.LunchWave, slot.HasConflict,
		slot.CreatedAt, slot.UpdatedAt); err != nil {
		return fmt.Errorf("insert slot: %w", err)
	}
	for _, studentID := range slot.StudentIDs {
		if _, err := tx.ExecContext(ctx, `INSERT INTO slot_students (slot_id, student_id) VALUES ($1, $2)`, slot.ID, studentID); err != nil {
			return fmt.Errorf("insert slot student: %w", err)
		}
	}
	return nil
}

// attachStudents fills StudentIDs for every slot in one query.
func (r *ScheduleRepository) attachStudents(ctx context.Context, scheduleID string, slots []models.ScheduleSlot) error {
	if len(slots) == 0 {
		return nil
	}
	type membership struct {
		SlotID    string `db:"slot_id"`
		StudentID string `db:"student_id"`
	}
	const query = `SELECT ss.slot_id, ss.student_id FROM slot_students ss JOIN schedule_slots s ON s.id = ss.slot_id WHERE s.schedule_id = $1 ORDER BY ss.slot_id ASC, ss.student_id ASC`
	var memberships []membership
	if err := r.db.SelectContext(ctx, &memberships, query, scheduleID); err != nil {
		return fmt.Errorf("load slot students: %w", err)
	}
	bySlot := make(map[string][]string, len(slots))
	for _, m := range memberships {
		bySlot[m.SlotID] = append(bySlot[m.SlotID], m.StudentID)
	}
	for i := range slots {
		slots[i].StudentIDs = bySlot[slots[i].ID]
	}
	return nil
}
