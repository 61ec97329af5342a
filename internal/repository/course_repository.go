package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/sma-timetable-engine/internal/models"
)

const courseColumns = "id, course_name, subject, grade_level, requires_lab, required_room_type, activity_type, requires_projector, requires_smartboard, requires_computers, required_equipment, multi_room, assigned_room_ids, max_room_distance_minutes, sessions_per_week, min_students, max_students, complexity_score, explicit_teacher_id, active, created_at, updated_at"

// CourseRepository manages persistence for course facts.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs a CourseRepository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

type courseRow struct {
	ID                     string         `db:"id"`
	CourseName             string         `db:"course_name"`
	Subject                string         `db:"subject"`
	GradeLevel             sql.NullString `db:"grade_level"`
	RequiresLab            bool           `db:"requires_lab"`
	RequiredRoomType       sql.NullString `db:"required_room_type"`
	ActivityType           sql.NullString `db:"activity_type"`
	RequiresProjector      bool           `db:"requires_projector"`
	RequiresSmartboard     bool           `db:"requires_smartboard"`
	RequiresComputers      bool           `db:"requires_computers"`
	RequiredEquipment      pq.StringArray `db:"required_equipment"`
	MultiRoom              bool           `db:"multi_room"`
	AssignedRoomIDs        pq.StringArray `db:"assigned_room_ids"`
	MaxRoomDistanceMinutes int            `db:"max_room_distance_minutes"`
	SessionsPerWeek        int            `db:"sessions_per_week"`
	MinStudents            int            `db:"min_students"`
	MaxStudents            int            `db:"max_students"`
	ComplexityScore        int            `db:"complexity_score"`
	ExplicitTeacherID      sql.NullString `db:"explicit_teacher_id"`
	Active                 bool           `db:"active"`
	CreatedAt              time.Time      `db:"created_at"`
	UpdatedAt              time.Time      `db:"updated_at"`
}

func (row courseRow) toModel() models.Course {
	return models.Course{
		ID:                     row.ID,
		CourseName:             row.CourseName,
		Subject:                row.Subject,
		GradeLevel:             row.GradeLevel.String,
		RequiresLab:            row.RequiresLab,
		RequiredRoomType:       models.RoomType(row.RequiredRoomType.String),
		ActivityType:           row.ActivityType.String,
		RequiresProjector:      row.RequiresProjector,
		RequiresSmartboard:     row.RequiresSmartboard,
		RequiresComputers:      row.RequiresComputers,
		RequiredEquipment:      []string(row.RequiredEquipment),
		MultiRoom:              row.MultiRoom,
		AssignedRoomIDs:        []string(row.AssignedRoomIDs),
		MaxRoomDistanceMinutes: row.MaxRoomDistanceMinutes,
		SessionsPerWeek:        row.SessionsPerWeek,
		MinStudents:            row.MinStudents,
		MaxStudents:            row.MaxStudents,
		ComplexityScore:        row.ComplexityScore,
		ExplicitTeacherID:      row.ExplicitTeacherID.String,
		Active:                 row.Active,
		CreatedAt:              row.CreatedAt,
		UpdatedAt:              row.UpdatedAt,
	}
}

// List returns courses matching filters along with total count.
func (r *CourseRepository) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error) {
	base := "FROM courses WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	if filter.Subject != "" {
		conditions = append(conditions, fmt.Sprintf("subject = $%d", len(args)+1))
		args = append(args, filter.Subject)
	}
	if filter.GradeLevel != "" {
		conditions = append(conditions, fmt.Sprintf("grade_level = $%d", len(args)+1))
		args = append(args, filter.GradeLevel)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(course_name) LIKE $%d", len(args)+1))
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
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY course_name ASC LIMIT %d OFFSET %d", courseColumns, base, size, offset)
	var rows []courseRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list courses: %w", err)
	}
	courses := make([]models.Course, 0, len(rows))
	for _, row := range rows {
		courses = append(courses, row.toModel())
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count courses: %w", err)
	}
	return courses, total, nil
}

// ListActive returns every active course for solver fact loading.
func (r *CourseRepository) ListActive(ctx context.Context) ([]models.Course, error) {
	query := fmt.Sprintf("SELECT %s FROM courses WHERE active = TRUE ORDER BY course_name ASC", courseColumns)
	var rows []courseRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list active courses: %w", err)
	}
	courses := make([]models.Course, 0, len(rows))
	for _, row := range rows {
		courses = append(courses, row.toModel())
	}
	return courses, nil
}

// FindByID loads one course.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	query := fmt.Sprintf("SELECT %s FROM courses WHERE id = $1", courseColumns)
	var row courseRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find course by id: %w", err)
	}
	course := row.toModel()
	return &course, nil
}

// Create inserts a course record.
func (r *CourseRepository) Create(ctx context.Context, c *models.Course) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now

	const query = `INSERT INTO courses (id, course_name, subject, grade_level, requires_lab, required_room_type, activity_type, requires_projector, requires_smartboard, requires_computers, required_equipment, multi_room, assigned_room_ids, max_room_distance_minutes, sessions_per_week, min_students, max_students, complexity_score, explicit_teacher_id, active, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)`
	_, err := r.db.ExecContext(ctx, query,
		c.ID, c.CourseName, c.Subject, nullString(c.GradeLevel),
		c.RequiresLab, nullString(string(c.RequiredRoomType)), nullString(c.ActivityType),
		c.RequiresProjector, c.RequiresSmartboard, c.RequiresComputers, pq.Array(c.RequiredEquipment),
		c.MultiRoom, pq.Array(c.AssignedRoomIDs), c.MaxRoomDistanceMinutes,
		c.SessionsPerWeek, c.MinStudents, c.MaxStudents, c.ComplexityScore,
		nullString(c.ExplicitTeacherID), c.Active, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create course: %w", err)
	}
	return nil
}

// Update replaces mutable course fields.
func (r *CourseRepository) Update(ctx context.Context, c *models.Course) error {
	c.UpdatedAt = time.Now().UTC()
	const query = `UPDATE courses SET course_name = $2, subject = $3, grade_level = $4, requires_lab = $5, required_room_type = $6, activity_type = $7, requires_projector = $8, requires_smartboard = $9, requires_computers = $10, required_equipment = $11, multi_room = $12, assigned_room_ids = $13, max_room_distance_minutes = $14, sessions_per_week = $15, min_students = $16, max_students = $17, complexity_score = $18, explicit_teacher_id = $19, active = $20, updated_at = $21 WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query,
		c.ID, c.CourseName, c.Subject, nullString(c.GradeLevel),
		c.RequiresLab, nullString(string(c.RequiredRoomType)), nullString(c.ActivityType),
		c.RequiresProjector, c.RequiresSmartboard, c.RequiresComputers, pq.Array(c.RequiredEquipment),
		c.MultiRoom, pq.Array(c.AssignedRoomIDs), c.MaxRoomDistanceMinutes,
		c.SessionsPerWeek, c.MinStudents, c.MaxStudents, c.ComplexityScore,
		nullString(c.ExplicitTeacherID), c.Active, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update course: %w", err)
	}
	return nil
}

// Delete soft-deletes a course by marking it inactive.
func (r *CourseRepository) Delete(ctx context.Context, id string) error {
	const query = `UPDATE courses SET active = FALSE, updated_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("delete course: %w", err)
	}
	return nil
}
