package models

// Snapshot types hydrated by the persistence layer for one report request.
// Each report call owns an immutable subgraph of the data it needs; the
// aggregation services never reach back into the store mid-reduction.

// CPLRef is a course-linked CPL with the IDs of all IKs recorded under it.
type CPLRef struct {
	ID          string
	Code        string
	Description string
	IKIDs       []string
}

// CPMKRef is a class-scoped CPMK with its IK links.
type CPMKRef struct {
	ID          string
	Code        string
	WeightToCPL float64
	IKIDs       []string
}

// ComponentRef is a class grade component with its weight and CPMK link.
type ComponentRef struct {
	ID     string
	Name   string
	Weight float64
	CPMKID *string
}

// ClassSnapshot bundles everything the aggregator needs about one class:
// its grade components, its CPMKs (with IK links) and the owning course's
// CPLs (with IK sets). CourseID is empty when the class has no course
// linked; such classes cannot be attributed to any CPL.
type ClassSnapshot struct {
	ClassID     string
	ClassName   string
	CourseID    string
	CourseCode  string
	CourseName  string
	TermID      string
	CreditHours float64
	Components  []ComponentRef
	CPMKs       []CPMKRef
	CPLs        []CPLRef
}

// StudentClassScores pairs a class snapshot with one student's component
// scores. A component absent from Scores is treated as scored 0.
type StudentClassScores struct {
	ClassSnapshot
	Scores map[string]float64
}

// ClassCohortScores pairs a class snapshot with every enrolled student's
// scores per component.
type ClassCohortScores struct {
	ClassSnapshot
	Scores map[string][]float64
}
