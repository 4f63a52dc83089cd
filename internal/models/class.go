package models

import "time"

// ClassOffering is a scheduled instance of a course within a term.
type ClassOffering struct {
	ID          string    `db:"id" json:"id"`
	CourseID    string    `db:"course_id" json:"course_id"`
	TermID      string    `db:"term_id" json:"term_id"`
	Name        string    `db:"name" json:"name"`
	CreditHours float64   `db:"credit_hours" json:"credit_hours"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// GradeComponent is one graded element of a class (bobot_nilai percentage
// points; components of a class are expected to sum to 100, not enforced).
type GradeComponent struct {
	ID        string    `db:"id" json:"id"`
	ClassID   string    `db:"class_id" json:"class_id"`
	Name      string    `db:"name" json:"name"`
	Weight    float64   `db:"weight" json:"weight"`
	CPMKID    *string   `db:"cpmk_id" json:"cpmk_id,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Enrollment links one student to one class offering within one term.
type Enrollment struct {
	ID        string    `db:"id" json:"id"`
	StudentID string    `db:"student_id" json:"student_id"`
	ClassID   string    `db:"class_id" json:"class_id"`
	TermID    string    `db:"term_id" json:"term_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ComponentScore stores one numeric score per enrollment and grade component.
type ComponentScore struct {
	EnrollmentID string  `db:"enrollment_id" json:"enrollment_id"`
	ComponentID  string  `db:"component_id" json:"component_id"`
	Score        float64 `db:"score" json:"score"`
}
