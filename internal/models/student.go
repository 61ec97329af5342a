package models

import "time"

// Student is a roster fact used by the evaluator (IEP caps) and the lunch
// wave engine.
type Student struct {
	ID         string    `db:"id" json:"id"`
	FirstName  string    `db:"first_name" json:"first_name"`
	LastName   string    `db:"last_name" json:"last_name"`
	GradeLevel string    `db:"grade_level" json:"grade_level"`
	HasIEP     bool      `db:"has_iep" json:"has_iep"`
	Active     bool      `db:"active" json:"active"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// FullName renders "Last, First" for alphabetical wave ordering.
func (s Student) FullName() string {
	return s.LastName + ", " + s.FirstName
}
