package models

import "time"

// Course is a catalog entry; it owns zero or more CPL links.
type Course struct {
	ID        string    `db:"id" json:"id"`
	Code      string    `db:"code" json:"code"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// CPL is a program learning outcome (capaian pembelajaran lulusan).
type CPL struct {
	ID          string    `db:"id" json:"id"`
	Code        string    `db:"code" json:"code"`
	Description string    `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// CPLDetail enriches a CPL with its performance-indicator count.
type CPLDetail struct {
	CPL
	IKCount int `db:"ik_count" json:"ik_count"`
}

// IK is a performance indicator (indikator kinerja); it links to exactly one CPL.
type IK struct {
	ID          string    `db:"id" json:"id"`
	Code        string    `db:"code" json:"code"`
	Description string    `db:"description" json:"description"`
	CPLID       string    `db:"cpl_id" json:"cpl_id"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// CPMK is a course learning outcome scoped to a class offering. Its
// contribution to a CPL is weighted by WeightToCPL (bobot_to_cpl); an
// unset weight persists as 0 and contributes nothing.
type CPMK struct {
	ID          string    `db:"id" json:"id"`
	ClassID     string    `db:"class_id" json:"class_id"`
	Code        string    `db:"code" json:"code"`
	Description string    `db:"description" json:"description"`
	WeightToCPL float64   `db:"weight_to_cpl" json:"weight_to_cpl"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}
