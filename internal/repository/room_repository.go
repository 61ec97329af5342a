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

const roomColumns = "id, room_number, capacity, room_type, max_concurrent_classes, building, floor, zone, has_projector, has_smartboard, has_computers, equipment, activity_tags, active, created_at, updated_at"

// RoomRepository manages persistence for room facts.
type RoomRepository struct {
	db *sqlx.DB
}

// NewRoomRepository constructs a RoomRepository.
func NewRoomRepository(db *sqlx.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

type roomRow struct {
	ID                   string         `db:"id"`
	RoomNumber           string         `db:"room_number"`
	Capacity             int            `db:"capacity"`
	Type                 string         `db:"room_type"`
	MaxConcurrentClasses int            `db:"max_concurrent_classes"`
	Building             sql.NullString `db:"building"`
	Floor                int            `db:"floor"`
	Zone                 sql.NullString `db:"zone"`
	HasProjector         bool           `db:"has_projector"`
	HasSmartboard        bool           `db:"has_smartboard"`
	HasComputers         bool           `db:"has_computers"`
	Equipment            pq.StringArray `db:"equipment"`
	ActivityTags         pq.StringArray `db:"activity_tags"`
	Active               bool           `db:"active"`
	CreatedAt            time.Time      `db:"created_at"`
	UpdatedAt            time.Time      `db:"updated_at"`
}

func (row roomRow) toModel() models.Room {
	return models.Room{
		ID:                   row.ID,
		RoomNumber:           row.RoomNumber,
		Capacity:             row.Capacity,
		Type:                 models.RoomType(row.Type),
		MaxConcurrentClasses: row.MaxConcurrentClasses,
		Building:             row.Building.String,
		Floor:                row.Floor,
		Zone:                 row.Zone.String,
		HasProjector:         row.HasProjector,
		HasSmartboard:        row.HasSmartboard,
		HasComputers:         row.HasComputers,
		Equipment:            []string(row.Equipment),
		ActivityTags:         []string(row.ActivityTags),
		Active:               row.Active,
		CreatedAt:            row.CreatedAt,
		UpdatedAt:            row.UpdatedAt,
	}
}

// List returns rooms matching filters along with total count.
func (r *RoomRepository) List(ctx context.Context, filter models.RoomFilter) ([]models.Room, int, error) {
	base := "FROM rooms WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	if filter.Type != "" {
		conditions = append(conditions, fmt.Sprintf("room_type = $%d", len(args)+1))
		args = append(args, string(filter.Type))
	}
	if filter.Building != "" {
		conditions = append(conditions, fmt.Sprintf("building = $%d", len(args)+1))
		args = append(args, filter.Building)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(room_number) LIKE $%d", len(args)+1))
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY building ASC, room_number ASC LIMIT %d OFFSET %d", roomColumns, base, size, offset)
	var rows []roomRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list rooms: %w", err)
	}
	rooms := make([]models.Room, 0, len(rows))
	for _, row := range rows {
		rooms = append(rooms, row.toModel())
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count rooms: %w", err)
	}
	return rooms, total, nil
}

// ListActive returns every active room for solver fact loading.
func (r *RoomRepository) ListActive(ctx context.Context) ([]models.Room, error) {
	query := fmt.Sprintf("SELECT %s FROM rooms WHERE active = TRUE ORDER BY building ASC, room_number ASC", roomColumns)
	var rows []roomRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list active rooms: %w", err)
	}
	rooms := make([]models.Room, 0, len(rows))
	for _, row := range rows {
		rooms = append(rooms, row.toModel())
	}
	return rooms, nil
}

// FindByID loads one room.
func (r *RoomRepository) FindByID(ctx context.Context, id string) (*models.Room, error) {
	query := fmt.Sprintf("SELECT %s FROM rooms WHERE id = $1", roomColumns)
	var row roomRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find room by id: %w", err)
	}
	room := row.toModel()
	return &room, nil
}

// Create inserts a room record.
func (r *RoomRepository) Create(ctx context.Context, room *models.Room) error {
	if room.ID == "" {
		room.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if room.CreatedAt.IsZero() {
		room.CreatedAt = now
	}
	room.UpdatedAt = now

	const query = `INSERT INTO rooms (id, room_number, capacity, room_type, max_concurrent_classes, building, floor, zone, has_projector, has_smartboard, has_computers, equipment, activity_tags, active, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`
	_, err := r.db.ExecContext(ctx, query,
		room.ID, room.RoomNumber, room.Capacity, string(room.Type), room.MaxConcurrentClasses,
		nullString(room.Building), room.Floor, nullString(room.Zone),
		room.HasProjector, room.HasSmartboard, room.HasComputers,
		pq.Array(room.Equipment), pq.Array(room.ActivityTags),
		room.Active, room.CreatedAt, room.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create room: %w", err)
	}
	return nil
}

// Update replaces mutable room fields.
func (r *RoomRepository) Update(ctx context.Context, room *models.Room) error {
	room.UpdatedAt = time.Now().UTC()
	const query = `UPDATE rooms SET room_number = $2, capacity = $3, room_type = $4, max_concurrent_classes = $5, building = $6, floor = $7, zone = $8, has_projector = $9, has_smartboard = $10, has_computers = $11, equipment = $12, activity_tags = $13, active = $14, updated_at = $15 WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query,
		room.ID, room.RoomNumber, room.Capacity, string(room.Type), room.MaxConcurrentClasses,
		nullString(room.Building), room.Floor, nullString(room.Zone),
		room.HasProjector, room.HasSmartboard, room.HasComputers,
		pq.Array(room.Equipment), pq.Array(room.ActivityTags),
		room.Active, room.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update room: %w", err)
	}
	return nil
}

// Delete soft-deletes a room by marking it inactive.
func (r *RoomRepository) Delete(ctx context.Context, id string) error {
	const query = `UPDATE rooms SET active = FALSE, updated_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("delete room: %w", err)
	}
	return nil
}
