package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/akademika/obe-api/internal/models"
)

// AttainmentRepository hydrates the read-only object graphs consumed by the
// attainment report builders. Each call returns one consistent snapshot;
// nothing here mutates state.
type AttainmentRepository struct {
	db *sqlx.DB
}

// NewAttainmentRepository creates a new attainment snapshot repository.
func NewAttainmentRepository(db *sqlx.DB) *AttainmentRepository {
	return &AttainmentRepository{db: db}
}

type classRow struct {
	ClassID     string  `db:"class_id"`
	ClassName   string  `db:"class_name"`
	TermID      string  `db:"term_id"`
	CreditHours float64 `db:"credit_hours"`
	CourseID    *string `db:"course_id"`
	CourseCode  *string `db:"course_code"`
	CourseName  *string `db:"course_name"`
}

type enrolledClassRow struct {
	classRow
	EnrollmentID string `db:"enrollment_id"`
}

type componentRow struct {
	ID      string  `db:"id"`
	ClassID string  `db:"class_id"`
	Name    string  `db:"name"`
	Weight  float64 `db:"weight"`
	CPMKID  *string `db:"cpmk_id"`
}

type cpmkLinkRow struct {
	ID          string  `db:"id"`
	ClassID     string  `db:"class_id"`
	Code        string  `db:"code"`
	WeightToCPL float64 `db:"weight_to_cpl"`
	IKID        *string `db:"ik_id"`
}

type cplLinkRow struct {
	CourseID    string  `db:"course_id"`
	ID          string  `db:"id"`
	Code        string  `db:"code"`
	Description string  `db:"description"`
	IKID        *string `db:"ik_id"`
}

type cohortScoreRow struct {
	ClassID     string  `db:"class_id"`
	ComponentID string  `db:"component_id"`
	Score       float64 `db:"score"`
}

// StudentClassScores returns one snapshot per class the student is enrolled
// in within the given terms, each carrying that student's component scores.
func (r *AttainmentRepository) StudentClassScores(ctx context.Context, studentID string, termIDs []string) ([]models.StudentClassScores, error) {
	if len(termIDs) == 0 {
		return []models.StudentClassScores{}, nil
	}

	placeholders, args := inArgs(termIDs, 1)
	args = append(args, studentID)
	query := fmt.Sprintf(`SELECT e.id AS enrollment_id, co.id AS class_id, co.name AS class_name, co.term_id, co.credit_hours,
        c.id AS course_id, c.code AS course_code, c.name AS course_name
        FROM enrollments e
        JOIN class_offerings co ON co.id = e.class_id
        LEFT JOIN courses c ON c.id = co.course_id
        WHERE e.term_id IN (%s) AND e.student_id = $%d
        ORDER BY co.id`, placeholders, len(args))

	var rows []enrolledClassRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list student classes: %w", err)
	}
	if len(rows) == 0 {
		return []models.StudentClassScores{}, nil
	}

	classIDs := make([]string, 0, len(rows))
	enrollmentIDs := make([]string, 0, len(rows))
	courseIDs := make([]string, 0, len(rows))
	for _, row := range rows {
		classIDs = append(classIDs, row.ClassID)
		enrollmentIDs = append(enrollmentIDs, row.EnrollmentID)
		if row.CourseID != nil {
			courseIDs = append(courseIDs, *row.CourseID)
		}
	}

	components, err := r.fetchComponents(ctx, classIDs)
	if err != nil {
		return nil, err
	}
	cpmks, err := r.fetchCPMKs(ctx, classIDs)
	if err != nil {
		return nil, err
	}
	cpls, err := r.fetchCourseCPLs(ctx, courseIDs)
	if err != nil {
		return nil, err
	}
	scores, err := r.fetchStudentScores(ctx, enrollmentIDs)
	if err != nil {
		return nil, err
	}

	snapshots := make([]models.StudentClassScores, 0, len(rows))
	for _, row := range rows {
		snap := models.StudentClassScores{
			ClassSnapshot: buildSnapshot(row.classRow, components, cpmks, cpls),
			Scores:        scores[row.EnrollmentID],
		}
		if snap.Scores == nil {
			snap.Scores = map[string]float64{}
		}
		snapshots = append(snapshots, snap)
	}
	return snapshots, nil
}

// ClassCohortScores returns one snapshot per class offering in the given
// terms, each carrying every enrolled student's scores per component.
func (r *AttainmentRepository) ClassCohortScores(ctx context.Context, termIDs []string) ([]models.ClassCohortScores, error) {
	if len(termIDs) == 0 {
		return []models.ClassCohortScores{}, nil
	}

	placeholders, args := inArgs(termIDs, 1)
	query := fmt.Sprintf(`SELECT co.id AS class_id, co.name AS class_name, co.term_id, co.credit_hours,
        c.id AS course_id, c.code AS course_code, c.name AS course_name
        FROM class_offerings co
        LEFT JOIN courses c ON c.id = co.course_id
        WHERE co.term_id IN (%s)
        ORDER BY co.id`, placeholders)

	var rows []classRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list term classes: %w", err)
	}
	if len(rows) == 0 {
		return []models.ClassCohortScores{}, nil
	}

	classIDs := make([]string, 0, len(rows))
	courseIDs := make([]string, 0, len(rows))
	for _, row := range rows {
		classIDs = append(classIDs, row.ClassID)
		if row.CourseID != nil {
			courseIDs = append(courseIDs, *row.CourseID)
		}
	}

	components, err := r.fetchComponents(ctx, classIDs)
	if err != nil {
		return nil, err
	}
	cpmks, err := r.fetchCPMKs(ctx, classIDs)
	if err != nil {
		return nil, err
	}
	cpls, err := r.fetchCourseCPLs(ctx, courseIDs)
	if err != nil {
		return nil, err
	}
	scores, err := r.fetchCohortScores(ctx, classIDs)
	if err != nil {
		return nil, err
	}

	snapshots := make([]models.ClassCohortScores, 0, len(rows))
	for _, row := range rows {
		snap := models.ClassCohortScores{
			ClassSnapshot: buildSnapshot(row, components, cpmks, cpls),
			Scores:        scores[row.ClassID],
		}
		if snap.Scores == nil {
			snap.Scores = map[string][]float64{}
		}
		snapshots = append(snapshots, snap)
	}
	return snapshots, nil
}

func (r *AttainmentRepository) fetchComponents(ctx context.Context, classIDs []string) (map[string][]models.ComponentRef, error) {
	placeholders, args := inArgs(classIDs, 1)
	query := fmt.Sprintf(`SELECT id, class_id, name, weight, cpmk_id
        FROM grade_components WHERE class_id IN (%s) ORDER BY id`, placeholders)

	var rows []componentRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("fetch grade components: %w", err)
	}
	result := make(map[string][]models.ComponentRef, len(classIDs))
	for _, row := range rows {
		result[row.ClassID] = append(result[row.ClassID], models.ComponentRef{
			ID:     row.ID,
			Name:   row.Name,
			Weight: row.Weight,
			CPMKID: row.CPMKID,
		})
	}
	return result, nil
}

func (r *AttainmentRepository) fetchCPMKs(ctx context.Context, classIDs []string) (map[string][]models.CPMKRef, error) {
	placeholders, args := inArgs(classIDs, 1)
	query := fmt.Sprintf(`SELECT cm.id, cm.class_id, cm.code, cm.weight_to_cpl, ci.ik_id
        FROM cpmk cm
        LEFT JOIN cpmk_ik ci ON ci.cpmk_id = cm.id
        WHERE cm.class_id IN (%s) ORDER BY cm.id`, placeholders)

	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("fetch cpmk links: %w", err)
	}
	defer rows.Close()

	byClass := make(map[string][]models.CPMKRef, len(classIDs))
	index := make(map[string]int)
	for rows.Next() {
		var row cpmkLinkRow
		if err := rows.StructScan(&row); err != nil {
			return nil, fmt.Errorf("scan cpmk link: %w", err)
		}
		pos, seen := index[row.ID]
		if !seen {
			byClass[row.ClassID] = append(byClass[row.ClassID], models.CPMKRef{
				ID:          row.ID,
				Code:        row.Code,
				WeightToCPL: row.WeightToCPL,
			})
			pos = len(byClass[row.ClassID]) - 1
			index[row.ID] = pos
		}
		if row.IKID != nil {
			refs := byClass[row.ClassID]
			refs[pos].IKIDs = append(refs[pos].IKIDs, *row.IKID)
		}
	}
	return byClass, nil
}

func (r *AttainmentRepository) fetchCourseCPLs(ctx context.Context, courseIDs []string) (map[string][]models.CPLRef, error) {
	courseIDs = dedupeIDs(courseIDs)
	if len(courseIDs) == 0 {
		return map[string][]models.CPLRef{}, nil
	}
	placeholders, args := inArgs(courseIDs, 1)
	query := fmt.Sprintf(`SELECT cc.course_id, p.id, p.code, p.description, i.id AS ik_id
        FROM course_cpl cc
        JOIN cpl p ON p.id = cc.cpl_id
        LEFT JOIN ik i ON i.cpl_id = p.id
        WHERE cc.course_id IN (%s) ORDER BY cc.course_id, p.code`, placeholders)

	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("fetch course cpl links: %w", err)
	}
	defer rows.Close()

	byCourse := make(map[string][]models.CPLRef, len(courseIDs))
	index := make(map[string]int)
	for rows.Next() {
		var row cplLinkRow
		if err := rows.StructScan(&row); err != nil {
			return nil, fmt.Errorf("scan course cpl link: %w", err)
		}
		key := row.CourseID + ":" + row.ID
		pos, seen := index[key]
		if !seen {
			byCourse[row.CourseID] = append(byCourse[row.CourseID], models.CPLRef{
				ID:          row.ID,
				Code:        row.Code,
				Description: row.Description,
			})
			pos = len(byCourse[row.CourseID]) - 1
			index[key] = pos
		}
		if row.IKID != nil {
			refs := byCourse[row.CourseID]
			refs[pos].IKIDs = append(refs[pos].IKIDs, *row.IKID)
		}
	}
	return byCourse, nil
}

func (r *AttainmentRepository) fetchStudentScores(ctx context.Context, enrollmentIDs []string) (map[string]map[string]float64, error) {
	placeholders, args := inArgs(enrollmentIDs, 1)
	query := fmt.Sprintf(`SELECT enrollment_id, component_id, score
        FROM component_scores WHERE enrollment_id IN (%s)`, placeholders)

	var rows []models.ComponentScore
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("fetch student scores: %w", err)
	}
	result := make(map[string]map[string]float64, len(enrollmentIDs))
	for _, row := range rows {
		scores, ok := result[row.EnrollmentID]
		if !ok {
			scores = make(map[string]float64)
			result[row.EnrollmentID] = scores
		}
		scores[row.ComponentID] = row.Score
	}
	return result, nil
}

func (r *AttainmentRepository) fetchCohortScores(ctx context.Context, classIDs []string) (map[string]map[string][]float64, error) {
	placeholders, args := inArgs(classIDs, 1)
	query := fmt.Sprintf(`SELECT e.class_id, cs.component_id, cs.score
        FROM component_scores cs
        JOIN enrollments e ON e.id = cs.enrollment_id
        WHERE e.class_id IN (%s)`, placeholders)

	var rows []cohortScoreRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("fetch cohort scores: %w", err)
	}
	result := make(map[string]map[string][]float64, len(classIDs))
	for _, row := range rows {
		scores, ok := result[row.ClassID]
		if !ok {
			scores = make(map[string][]float64)
			result[row.ClassID] = scores
		}
		scores[row.ComponentID] = append(scores[row.ComponentID], row.Score)
	}
	return result, nil
}

func buildSnapshot(row classRow, components map[string][]models.ComponentRef, cpmks map[string][]models.CPMKRef, cpls map[string][]models.CPLRef) models.ClassSnapshot {
	snap := models.ClassSnapshot{
		ClassID:     row.ClassID,
		ClassName:   row.ClassName,
		TermID:      row.TermID,
		CreditHours: row.CreditHours,
		Components:  components[row.ClassID],
		CPMKs:       cpmks[row.ClassID],
	}
	if row.CourseID != nil {
		snap.CourseID = *row.CourseID
		snap.CPLs = cpls[*row.CourseID]
		if row.CourseCode != nil {
			snap.CourseCode = *row.CourseCode
		}
		if row.CourseName != nil {
			snap.CourseName = *row.CourseName
		}
	}
	return snap
}

func dedupeIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	unique := make([]string, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			unique = append(unique, id)
			seen[id] = true
		}
	}
	return unique
}

func inArgs(ids []string, start int) (string, []interface{}) {
	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", start+i)
		args[i] = id
	}
	return strings.Join(placeholders, ","), args
}
