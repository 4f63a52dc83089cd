package dto

import "github.com/akademika/obe-api/internal/models"

// StudentAttainmentRow is one CPL line of the per-student report. Every
// catalog CPL appears exactly once; unassessed outcomes carry a 0 score.
type StudentAttainmentRow struct {
	Code        string  `json:"code"`
	Description string  `json:"description"`
	Score       float64 `json:"score"`
}

// StudentAttainmentReport wraps the per-student rows with request scope.
type StudentAttainmentReport struct {
	StudentID string                 `json:"studentId"`
	TermIDs   []string               `json:"termIds"`
	Rows      []StudentAttainmentRow `json:"rows"`
}

// ProgramCPLSummary is one radar-chart row of the program-wide report.
type ProgramCPLSummary struct {
	Subject string  `json:"subject"`
	Target  float64 `json:"target"`
	Prodi   float64 `json:"prodi"`
}

// ClassAttainmentRow is one class line of the per-class breakdown. Scores
// only lists CPLs the class actually contributed to.
type ClassAttainmentRow struct {
	ClassID    string             `json:"classId"`
	CourseCode string             `json:"courseCode"`
	CourseName string             `json:"courseName"`
	ClassName  string             `json:"className"`
	TermID     string             `json:"termId"`
	Scores     map[string]float64 `json:"scores"`
}

// ProgramAttainmentReport bundles the program summary and breakdown.
type ProgramAttainmentReport struct {
	TermIDs  []string             `json:"termIds"`
	Summary  []ProgramCPLSummary  `json:"summary"`
	PerClass []ClassAttainmentRow `json:"perClass"`
}

// ExportRequest captures POST /reports/attainment/export payloads.
type ExportRequest struct {
	Type      models.ReportType   `json:"type"`
	TermIDs   []string            `json:"termIds"`
	StudentID *string             `json:"studentId,omitempty"`
	Format    models.ReportFormat `json:"format"`
}

// ExportJobResponse is returned after enqueueing an export.
type ExportJobResponse struct {
	ID       string              `json:"id"`
	Status   models.ReportStatus `json:"status"`
	Progress int                 `json:"progress"`
}

// ExportStatusResponse exposes job progress metadata.
type ExportStatusResponse struct {
	ID        string              `json:"id"`
	Status    models.ReportStatus `json:"status"`
	Progress  int                 `json:"progress"`
	ResultURL *string             `json:"resultUrl,omitempty"`
	Error     *string             `json:"error,omitempty"`
}
