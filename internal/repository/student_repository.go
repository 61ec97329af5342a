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

const studentColumns = "id, first_name, last_name, grade_level, has_iep, active, created_at, updated_at"

// StudentRepository manages persistence for student facts.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// List returns students matching filters along with total count.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	base := "FROM students WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	if filter.GradeLevel != "" {
		conditions = append(conditions, fmt.Sprintf("grade_level = $%d", len(args)+1))
		args = append(args, filter.GradeLevel)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(first_name) LIKE $%d OR LOWER(last_name) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY last_name ASC, first_name ASC LIMIT %d OFFSET %d", studentColumns, base, size, offset)
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

// ListActive returns every active student.
func (r *StudentRepository) ListActive(ctx context.Context) ([]models.Student, error) {
	query := fmt.Sprintf("SELECT %s FROM students WHERE active = TRUE ORDER BY last_name ASC, first_name ASC", studentColumns)
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query); err != nil {
		return nil, fmt.Errorf("list active students: %w", err)
	}
	return students, nil
}

// FindByID loads one student.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	query := fmt.Sprintf("SELECT %s FROM students WHERE id = $1", studentColumns)
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find student by id: %w", err)
	}
	return &student, nil
}

// Create inserts a student record.
func (r *StudentRepository) Create(ctx context.Context, s *models.Student) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now

	const query = `INSERT INTO students (id, first_name, last_name, grade_level, has_iep, active, created_at, updated_at) VALUES (:id, :first_name, :last_name, :grade_level, :has_iep, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, s); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// Update replaces mutable student fields.
func (r *StudentRepository) Update(ctx context.Context, s *models.Student) error {
	s.UpdatedAt = time.Now().UTC()
	const query = `UPDATE students SET first_name = :first_name, last_name = :last_name, grade_level = :grade_level, has_iep = :has_iep, active = :active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, s); err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	return nil
}

// Delete soft-deletes a student by marking it inactive.
func (r *StudentRepository) Delete(ctx context.Context, id string) error {
	const query = `UPDATE students SET active = FALSE, updated_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	return nil
}
