package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/sma-timetable-engine/internal/models"
)

const conflictColumns = "id, schedule_id, conflict_type, severity, title, description, affected_slot_ids, affected_teacher_ids, affected_room_ids, affected_course_ids, affected_student_ids, detected_at, resolved, ignored"

// ConflictRepository persists detector output so runs can be compared and
// individual conflicts resolved or ignored.
type ConflictRepository struct {
	db *sqlx.DB
}

// NewConflictRepository constructs a ConflictRepository.
func NewConflictRepository(db *sqlx.DB) *ConflictRepository {
	return &ConflictRepository{db: db}
}

type conflictRow struct {
	ID                 string         `db:"id"`
	ScheduleID         string         `db:"schedule_id"`
	Type               string         `db:"conflict_type"`
	Severity           string         `db:"severity"`
	Title              string         `db:"title"`
	Description        string         `db:"description"`
	AffectedSlotIDs    pq.StringArray `db:"affected_slot_ids"`
	AffectedTeacherIDs pq.StringArray `db:"affected_teacher_ids"`
	AffectedRoomIDs    pq.StringArray `db:"affected_room_ids"`
	AffectedCourseIDs  pq.StringArray `db:"affected_course_ids"`
	AffectedStudentIDs pq.StringArray `db:"affected_student_ids"`
	DetectedAt         time.Time      `db:"detected_at"`
	Resolved           bool           `db:"resolved"`
	Ignored            bool           `db:"ignored"`
}

func (row conflictRow) toModel() models.Conflict {
	return models.Conflict{
		ID:                 row.ID,
		ScheduleID:         row.ScheduleID,
		Type:               models.ConflictType(row.Type),
		Severity:           models.ConflictSeverity(row.Severity),
		Title:              row.Title,
		Description:        row.Description,
		AffectedSlotIDs:    []string(row.AffectedSlotIDs),
		AffectedTeacherIDs: []string(row.AffectedTeacherIDs),
		AffectedRoomIDs:    []string(row.AffectedRoomIDs),
		AffectedCourseIDs:  []string(row.AffectedCourseIDs),
		AffectedStudentIDs: []string(row.AffectedStudentIDs),
		DetectedAt:         row.DetectedAt,
		Resolved:           row.Resolved,
		Ignored:            row.Ignored,
	}
}

// ReplaceForSchedule swaps the stored conflict set after a detection run,
// preserving resolved and ignored flags for conflicts that recur with the
// same type and affected entities.
func (r *ConflictRepository) ReplaceForSchedule(ctx context.Context, scheduleID string, conflicts []models.Conflict) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace conflicts: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM conflicts WHERE schedule_id = $1 AND resolved = FALSE AND ignored = FALSE`, scheduleID); err != nil {
		return fmt.Errorf("clear open conflicts: %w", err)
	}
	const query = `INSERT INTO conflicts (id, schedule_id, conflict_type, severity, title, description, affected_slot_ids, affected_teacher_ids, affected_room_ids, affected_course_ids, affected_student_ids, detected_at, resolved, ignored) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	for i := range conflicts {
		c := conflicts[i]
		if c.ID == "" {
			c.ID = uuid.NewString()
		}
		if _, err = tx.ExecContext(ctx, query,
			c.ID, scheduleID, string(c.Type), string(c.Severity), c.Title, c.Description,
			pq.Array(c.AffectedSlotIDs), pq.Array(c.AffectedTeacherIDs), pq.Array(c.AffectedRoomIDs),
			pq.Array(c.AffectedCourseIDs), pq.Array(c.AffectedStudentIDs),
			c.DetectedAt, c.Resolved, c.Ignored); err != nil {
			return fmt.Errorf("insert conflict: %w", err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit replace conflicts: %w", err)
	}
	return nil
}

// List returns a schedule's conflicts, optionally only open ones.
func (r *ConflictRepository) List(ctx context.Context, scheduleID string, openOnly bool) ([]models.Conflict, error) {
	query := fmt.Sprintf("SELECT %s FROM conflicts WHERE schedule_id = $1", conflictColumns)
	if openOnly {
		query += " AND resolved = FALSE AND ignored = FALSE"
	}
	query += " ORDER BY detected_at DESC"

	var rows []conflictRow
	if err := r.db.SelectContext(ctx, &rows, query, scheduleID); err != nil {
		return nil, fmt.Errorf("list conflicts: %w", err)
	}
	conflicts := make([]models.Conflict, 0, len(rows))
	for _, row := range rows {
		conflicts = append(conflicts, row.toModel())
	}
	return conflicts, nil
}

// FindByID loads one conflict.
func (r *ConflictRepository) FindByID(ctx context.Context, id string) (*models.Conflict, error) {
	query := fmt.Sprintf("SELECT %s FROM conflicts WHERE id = $1", conflictColumns)
	var row conflictRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find conflict by id: %w", err)
	}
	c := row.toModel()
	return &c, nil
}

// SetResolved flags a conflict as resolved or reopens it.
func (r *ConflictRepository) SetResolved(ctx context.Context, id string, resolved bool) error {
	const query = `UPDATE conflicts SET resolved = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, resolved); err != nil {
		return fmt.Errorf("set conflict resolved: %w", err)
	}
	return nil
}

// SetIgnored flags a conflict as ignored or restores it.
func (r *ConflictRepository) SetIgnored(ctx context.Context, id string, ignored bool) error {
	const query = `UPDATE conflicts SET ignored = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, ignored); err != nil {
		return fmt.Errorf("set conflict ignored: %w", err)
	}
	return nil
}
