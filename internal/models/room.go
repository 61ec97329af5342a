package models

import "time"

// RoomType categorizes rooms for type-matching rules.
type RoomType string

const (
	RoomTypeClassroom   RoomType = "CLASSROOM"
	RoomTypeLab         RoomType = "LAB"
	RoomTypeScienceLab  RoomType = "SCIENCE_LAB"
	RoomTypeComputerLab RoomType = "COMPUTER_LAB"
	RoomTypeGym         RoomType = "GYM"
	RoomTypeAuditorium  RoomType = "AUDITORIUM"
	RoomTypeCafeteria   RoomType = "CAFETERIA"
	RoomTypeMusicRoom   RoomType = "MUSIC_ROOM"
	RoomTypeLibrary     RoomType = "LIBRARY"
)

// IsLab reports whether the room type satisfies a requires-lab course.
func (t RoomType) IsLab() bool {
	return t == RoomTypeLab || t == RoomTypeScienceLab || t == RoomTypeComputerLab
}

// DefaultRoomCapacity is assumed when a room record carries no capacity.
const DefaultRoomCapacity = 30

// Room is a roster fact consumed read-only by the solver.
type Room struct {
	ID         string   `db:"id" json:"id"`
	RoomNumber string   `db:"room_number" json:"room_number"`
	Capacity   int      `db:"capacity" json:"capacity"`
	Type       RoomType `db:"room_type" json:"room_type"`

	// MaxConcurrentClasses is greater than one only for shared spaces such
	// as gyms split into stations.
	MaxConcurrentClasses int `db:"max_concurrent_classes" json:"max_concurrent_classes"`

	Building string `db:"building" json:"building"`
	Floor    int    `db:"floor" json:"floor"`
	Zone     string `db:"zone" json:"zone,omitempty"`

	HasProjector  bool     `db:"has_projector" json:"has_projector"`
	HasSmartboard bool     `db:"has_smartboard" json:"has_smartboard"`
	HasComputers  bool     `db:"has_computers" json:"has_computers"`
	Equipment     []string `db:"-" json:"equipment,omitempty"`

	// ActivityTags describe what the space supports, e.g. "weights",
	// "court", "stage".
	ActivityTags []string `db:"-" json:"activity_tags,omitempty"`

	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// EffectiveCapacity returns the stored capacity or the default when unset.
func (r Room) EffectiveCapacity() int {
	if r.Capacity <= 0 {
		return DefaultRoomCapacity
	}
	return r.Capacity
}

// ConcurrentLimit returns the shared-space limit, defaulting to one class.
func (r Room) ConcurrentLimit() int {
	if r.MaxConcurrentClasses <= 0 {
		return 1
	}
	return r.MaxConcurrentClasses
}

// HasTag reports whether the room advertises the given activity tag.
func (r Room) HasTag(tag string) bool {
	for _, t := range r.ActivityTags {
		if t == tag {
			return true
		}
	}
	return false
}

// HasEquipment reports whether the named extra equipment is present.
func (r Room) HasEquipment(name string) bool {
	for _, e := range r.Equipment {
		if e == name {
			return true
		}
	}
	return false
}
