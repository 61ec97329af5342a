package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-timetable-engine/internal/models"
)

const lunchWaveColumns = "id, wave_number, name, grade_level, max_capacity, current_count, start_minute, end_minute, schedule_id, created_at, updated_at"

const lunchAssignmentColumns = "id, student_id, wave_id, schedule_id, method, locked, manual_override, priority, assigned_at, updated_at"

const teacherLunchColumns = "id, teacher_id, wave_id, schedule_id, method, locked, manual_override, priority, assigned_at, updated_at"

// LunchRepository persists lunch waves and student wave assignments.
type LunchRepository struct {
	db *sqlx.DB
}

// NewLunchRepository constructs a LunchRepository.
func NewLunchRepository(db *sqlx.DB) *LunchRepository {
	return &LunchRepository{db: db}
}

// ListWaves returns a schedule's waves ordered by wave number.
func (r *LunchRepository) ListWaves(ctx context.Context, scheduleID string) ([]models.LunchWave, error) {
	query := fmt.Sprintf("SELECT %s FROM lunch_waves WHERE schedule_id = $1 ORDER BY wave_number ASC", lunchWaveColumns)
	var waves []models.LunchWave
	if err := r.db.SelectContext(ctx, &waves, query, scheduleID); err != nil {
		return nil, fmt.Errorf("list lunch waves: %w", err)
	}
	return waves, nil
}

// GetWave loads one wave.
func (r *LunchRepository) GetWave(ctx context.Context, waveID string) (*models.LunchWave, error) {
	query := fmt.Sprintf("SELECT %s FROM lunch_waves WHERE id = $1", lunchWaveColumns)
	var wave models.LunchWave
	if err := r.db.GetContext(ctx, &wave, query, waveID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find lunch wave: %w", err)
	}
	return &wave, nil
}

// CreateWave stores a new wave.
func (r *LunchRepository) CreateWave(ctx context.Context, wave *models.LunchWave) error {
	if wave.ID == "" {
		wave.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if wave.CreatedAt.IsZero() {
		wave.CreatedAt = now
	}
	wave.UpdatedAt = now

	const query = `INSERT INTO lunch_waves (id, wave_number, name, grade_level, max_capacity, current_count, start_minute, end_minute, schedule_id, created_at, updated_at) VALUES (:id, :wave_number, :name, :grade_level, :max_capacity, :current_count, :start_minute, :end_minute, :schedule_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, wave); err != nil {
		return fmt.Errorf("create lunch wave: %w", err)
	}
	return nil
}

// UpdateWave replaces mutable wave fields.
func (r *LunchRepository) UpdateWave(ctx context.Context, wave *models.LunchWave) error {
	wave.UpdatedAt = time.Now().UTC()
	const query = `UPDATE lunch_waves SET wave_number = :wave_number, name = :name, grade_level = :grade_level, max_capacity = :max_capacity, current_count = :current_count, start_minute = :start_minute, end_minute = :end_minute, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, wave); err != nil {
		return fmt.Errorf("update lunch wave: %w", err)
	}
	return nil
}

// UpdateWaveCount refreshes the cached occupancy counter.
func (r *LunchRepository) UpdateWaveCount(ctx context.Context, waveID string, count int) error {
	const query = `UPDATE lunch_waves SET current_count = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, waveID, count, time.Now().UTC()); err != nil {
		return fmt.Errorf("update lunch wave count: %w", err)
	}
	return nil
}

// DeleteWave removes a wave and its assignments.
func (r *LunchRepository) DeleteWave(ctx context.Context, waveID string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete lunch wave: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM student_lunch_assignments WHERE wave_id = $1`, waveID); err != nil {
		return fmt.Errorf("delete wave assignments: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM teacher_lunch_assignments WHERE wave_id = $1`, waveID); err != nil {
		return fmt.Errorf("delete wave supervisors: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM lunch_waves WHERE id = $1`, waveID); err != nil {
		return fmt.Errorf("delete lunch wave: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit delete lunch wave: %w", err)
	}
	return nil
}

// ListStudentAssignments returns every assignment for a schedule.
func (r *LunchRepository) ListStudentAssignments(ctx context.Context, scheduleID string) ([]models.StudentLunchAssignment, error) {
	query := fmt.Sprintf("SELECT %s FROM student_lunch_assignments WHERE schedule_id = $1 ORDER BY assigned_at ASC", lunchAssignmentColumns)
	var assignments []models.StudentLunchAssignment
	if err := r.db.SelectContext(ctx, &assignments, query, scheduleID); err != nil {
		return nil, fmt.Errorf("list lunch assignments: %w", err)
	}
	return assignments, nil
}

// GetStudentAssignment loads one student's assignment, nil when absent.
func (r *LunchRepository) GetStudentAssignment(ctx context.Context, scheduleID, studentID string) (*models.StudentLunchAssignment, error) {
	query := fmt.Sprintf("SELECT %s FROM student_lunch_assignments WHERE schedule_id = $1 AND student_id = $2 LIMIT 1", lunchAssignmentColumns)
	var assignment models.StudentLunchAssignment
	if err := r.db.GetContext(ctx, &assignment, query, scheduleID, studentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find lunch assignment: %w", err)
	}
	return &assignment, nil
}

// UpsertStudentAssignment inserts or replaces a student's wave assignment.
// A student holds at most one assignment per schedule.
func (r *LunchRepository) UpsertStudentAssignment(ctx context.Context, a *models.StudentLunchAssignment) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if a.AssignedAt.IsZero() {
		a.AssignedAt = now
	}
	a.UpdatedAt = now

	const query = `INSERT INTO student_lunch_assignments (id, student_id, wave_id, schedule_id, method, locked, manual_override, priority, assigned_at, updated_at) VALUES (:id, :student_id, :wave_id, :schedule_id, :method, :locked, :manual_override, :priority, :assigned_at, :updated_at) ON CONFLICT (schedule_id, student_id) DO UPDATE SET wave_id = EXCLUDED.wave_id, method = EXCLUDED.method, locked = EXCLUDED.locked, manual_override = EXCLUDED.manual_override, priority = EXCLUDED.priority, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, a); err != nil {
		return fmt.Errorf("upsert lunch assignment: %w", err)
	}
	return nil
}

// DeleteStudentAssignments clears every assignment for a schedule.
func (r *LunchRepository) DeleteStudentAssignments(ctx context.Context, scheduleID string) error {
	const query = `DELETE FROM student_lunch_assignments WHERE schedule_id = $1`
	if _, err := r.db.ExecContext(ctx, query, scheduleID); err != nil {
		return fmt.Errorf("delete lunch assignments: %w", err)
	}
	return nil
}

// ListTeacherAssignments returns every supervision assignment for a schedule.
func (r *LunchRepository) ListTeacherAssignments(ctx context.Context, scheduleID string) ([]models.TeacherLunchAssignment, error) {
	query := fmt.Sprintf("SELECT %s FROM teacher_lunch_assignments WHERE schedule_id = $1 ORDER BY assigned_at ASC", teacherLunchColumns)
	var assignments []models.TeacherLunchAssignment
	if err := r.db.SelectContext(ctx, &assignments, query, scheduleID); err != nil {
		return nil, fmt.Errorf("list teacher lunch assignments: %w", err)
	}
	return assignments, nil
}

// GetTeacherAssignment loads one teacher's supervision assignment, nil when
// absent.
func (r *LunchRepository) GetTeacherAssignment(ctx context.Context, scheduleID, teacherID string) (*models.TeacherLunchAssignment, error) {
	query := fmt.Sprintf("SELECT %s FROM teacher_lunch_assignments WHERE schedule_id = $1 AND teacher_id = $2 LIMIT 1", teacherLunchColumns)
	var assignment models.TeacherLunchAssignment
	if err := r.db.GetContext(ctx, &assignment, query, scheduleID, teacherID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find teacher lunch assignment: %w", err)
	}
	return &assignment, nil
}

// UpsertTeacherAssignment inserts or replaces a teacher's supervision duty.
// A teacher supervises at most one wave per schedule.
func (r *LunchRepository) UpsertTeacherAssignment(ctx context.Context, a *models.TeacherLunchAssignment) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if a.AssignedAt.IsZero() {
		a.AssignedAt = now
	}
	a.UpdatedAt = now

	const query = `INSERT INTO teacher_lunch_assignments (id, teacher_id, wave_id, schedule_id, method, locked, manual_override, priority, assigned_at, updated_at) VALUES (:id, :teacher_id, :wave_id, :schedule_id, :method, :locked, :manual_override, :priority, :assigned_at, :updated_at) ON CONFLICT (schedule_id, teacher_id) DO UPDATE SET wave_id = EXCLUDED.wave_id, method = EXCLUDED.method, locked = EXCLUDED.locked, manual_override = EXCLUDED.manual_override, priority = EXCLUDED.priority, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, a); err != nil {
		return fmt.Errorf("upsert teacher lunch assignment: %w", err)
	}
	return nil
}

// DeleteTeacherAssignments clears every supervision duty for a schedule.
func (r *LunchRepository) DeleteTeacherAssignments(ctx context.Context, scheduleID string) error {
	const query = `DELETE FROM teacher_lunch_assignments WHERE schedule_id = $1`
	if _, err := r.db.ExecContext(ctx, query, scheduleID); err != nil {
		return fmt.Errorf("delete teacher lunch assignments: %w", err)
	}
	return nil
}
