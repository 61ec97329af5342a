package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/sma-timetable-engine/internal/models"
)

const teacherColumns = "id, full_name, department, certifications, legacy_certification, home_room_id, room_restrictions, room_preferences, unavailable, max_periods_per_day, max_hours_per_week, planning_period, historical_course_ids, active, created_at, updated_at"

// TeacherRepository manages persistence for teacher roster facts.
type TeacherRepository struct {
	db *sqlx.DB
}

// NewTeacherRepository constructs a TeacherRepository.
func NewTeacherRepository(db *sqlx.DB) *TeacherRepository {
	return &TeacherRepository{db: db}
}

type teacherRow struct {
	ID                  string         `db:"id"`
	FullName            string         `db:"full_name"`
	Department          string         `db:"department"`
	Certifications      pq.StringArray `db:"certifications"`
	LegacyCertification sql.NullString `db:"legacy_certification"`
	HomeRoomID          sql.NullString `db:"home_room_id"`
	RoomRestrictions    pq.StringArray `db:"room_restrictions"`
	RoomPreferences     sql.NullString `db:"room_preferences"`
	Unavailable         sql.NullString `db:"unavailable"`
	MaxPeriodsPerDay    int            `db:"max_periods_per_day"`
	MaxHoursPerWeek     int            `db:"max_hours_per_week"`
	PlanningPeriod      int            `db:"planning_period"`
	HistoricalCourseIDs pq.StringArray `db:"historical_course_ids"`
	Active              bool           `db:"active"`
	CreatedAt           time.Time      `db:"created_at"`
	UpdatedAt           time.Time      `db:"updated_at"`
}

func (row teacherRow) toModel() (models.Teacher, error) {
	t := models.Teacher{
		ID:                  row.ID,
		FullName:            row.FullName,
		Department:          row.Department,
		Certifications:      []string(row.Certifications),
		LegacyCertification: row.LegacyCertification.String,
		HomeRoomID:          row.HomeRoomID.String,
		RoomRestrictions:    []string(row.RoomRestrictions),
		MaxPeriodsPerDay:    row.MaxPeriodsPerDay,
		MaxHoursPerWeek:     row.MaxHoursPerWeek,
		PlanningPeriod:      row.PlanningPeriod,
		HistoricalCourseIDs: []string(row.HistoricalCourseIDs),
		Active:              row.Active,
		CreatedAt:           row.CreatedAt,
		UpdatedAt:           row.UpdatedAt,
	}
	if row.RoomPreferences.Valid && row.RoomPreferences.String != "" {
		if err := json.Unmarshal([]byte(row.RoomPreferences.String), &t.RoomPreferences); err != nil {
			return t, fmt.Errorf("decode room preferences for teacher %s: %w", row.ID, err)
		}
	}
	if row.Unavailable.Valid && row.Unavailable.String != "" {
		if err := json.Unmarshal([]byte(row.Unavailable.String), &t.Unavailable); err != nil {
			return t, fmt.Errorf("decode availability for teacher %s: %w", row.ID, err)
		}
	}
	return t, nil
}

// List returns teachers matching filters along with total count.
func (r *TeacherRepository) List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, int, error) {
	base := "FROM teachers WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	if filter.Department != "" {
		conditions = append(conditions, fmt.Sprintf("department = $%d", len(args)+1))
		args = append(args, filter.Department)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(full_name) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"full_name":  true,
		"department": true,
		"created_at": true,
		"updated_at": true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "full_name"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", teacherColumns, base, sortBy, order, size, offset)
	var rows []teacherRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list teachers: %w", err)
	}

	teachers := make([]models.Teacher, 0, len(rows))
	for _, row := range rows {
		t, err := row.toModel()
		if err != nil {
			return nil, 0, err
		}
		teachers = append(teachers, t)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count teachers: %w", err)
	}
	return teachers, total, nil
}

// ListActive returns every active teacher for solver fact loading.
func (r *TeacherRepository) ListActive(ctx context.Context) ([]models.Teacher, error) {
	query := fmt.Sprintf("SELECT %s FROM teachers WHERE active = TRUE ORDER BY full_name ASC", teacherColumns)
	var rows []teacherRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list active teachers: %w", err)
	}
	teachers := make([]models.Teacher, 0, len(rows))
	for _, row := range rows {
		t, err := row.toModel()
		if err != nil {
			return nil, err
		}
		teachers = append(teachers, t)
	}
	return teachers, nil
}

// FindByID loads one teacher.
func (r *TeacherRepository) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	query := fmt.Sprintf("SELECT %s FROM teachers WHERE id = $1", teacherColumns)
	var row teacherRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find teacher by id: %w", err)
	}
	t, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Create inserts a teacher record.
func (r *TeacherRepository) Create(ctx context.Context, t *models.Teacher) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now

	prefs, unavailable, err := teacherJSONColumns(t)
	if err != nil {
		return err
	}
	const query = `INSERT INTO teachers (id, full_name, department, certifications, legacy_certification, home_room_id, room_restrictions, room_preferences, unavailable, max_periods_per_day, max_hours_per_week, planning_period, historical_course_ids, active, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`
	_, err = r.db.ExecContext(ctx, query,
		t.ID, t.FullName, t.Department, pq.Array(t.Certifications), t.LegacyCertification,
		nullString(t.HomeRoomID), pq.Array(t.RoomRestrictions), prefs, unavailable,
		t.MaxPeriodsPerDay, t.MaxHoursPerWeek, t.PlanningPeriod,
		pq.Array(t.HistoricalCourseIDs), t.Active, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create teacher: %w", err)
	}
	return nil
}

// Update replaces mutable teacher fields.
func (r *TeacherRepository) Update(ctx context.Context, t *models.Teacher) error {
	t.UpdatedAt = time.Now().UTC()
	prefs, unavailable, err := teacherJSONColumns(t)
	if err != nil {
		return err
	}
	const query = `UPDATE teachers SET full_name = $2, department = $3, certifications = $4, legacy_certification = $5, home_room_id = $6, room_restrictions = $7, room_preferences = $8, unavailable = $9, max_periods_per_day = $10, max_hours_per_week = $11, planning_period = $12, historical_course_ids = $13, active = $14, updated_at = $15 WHERE id = $1`
	_, err = r.db.ExecContext(ctx, query,
		t.ID, t.FullName, t.Department, pq.Array(t.Certifications), t.LegacyCertification,
		nullString(t.HomeRoomID), pq.Array(t.RoomRestrictions), prefs, unavailable,
		t.MaxPeriodsPerDay, t.MaxHoursPerWeek, t.PlanningPeriod,
		pq.Array(t.HistoricalCourseIDs), t.Active, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update teacher: %w", err)
	}
	return nil
}

// Delete soft-deletes a teacher by marking it inactive.
func (r *TeacherRepository) Delete(ctx context.Context, id string) error {
	const query = `UPDATE teachers SET active = FALSE, updated_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("delete teacher: %w", err)
	}
	return nil
}

func teacherJSONColumns(t *models.Teacher) (prefs, unavailable interface{}, err error) {
	prefs, err = jsonColumn(t.RoomPreferences)
	if err != nil {
		return nil, nil, fmt.Errorf("encode room preferences: %w", err)
	}
	unavailable, err = jsonColumn(t.Unavailable)
	if err != nil {
		return nil, nil, fmt.Errorf("encode availability: %w", err)
	}
	return prefs, unavailable, nil
}

// jsonColumn marshals a slice for a jsonb column, storing NULL for empty.
func jsonColumn(v interface{}) (interface{}, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	s := string(data)
	if s == "null" || s == "[]" {
		return nil, nil
	}
	return s, nil
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
