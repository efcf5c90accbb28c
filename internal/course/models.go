package course

type User struct {
	ID        string  `json:"id"`
	Username  string  `json:"username"`
	Name      string  `json:"name"`
	Email     string  `json:"email"`
	Role      string  `json:"role"` // student|ta|professor|admin
	StudentID *string `json:"student_id"`
	CreatedAt int64   `json:"created_at"`
}

type Assignment struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	Description  string  `json:"description,omitempty"`
	ReportNumber int     `json:"report_number"`
	DueDate      *int64  `json:"due_date,omitempty"`
	TotalPoints  float64 `json:"total_points"`
	Rubric       string  `json:"rubric,omitempty"`
	PDFURL       string  `json:"pdf_url,omitempty"`
	Published    bool    `json:"published"`
	CreatedBy    string  `json:"created_by"`
	CreatedAt    int64   `json:"created_at"`
}

// AssignmentSummary is the role-aware list view: staff get ungraded counts,
// students get their own submission state.
type AssignmentSummary struct {
	Assignment
	CreatedByName   string           `json:"created_by_name,omitempty"`
	SubmissionCount int              `json:"submission_count"`
	UngradedCount   int              `json:"ungraded_count,omitempty"`
	MySubmission    *SubmissionBrief `json:"my_submission,omitempty"`
}

type SubmissionBrief struct {
	ID         string   `json:"id"`
	TotalScore *float64 `json:"total_score"`
	GradedAt   *int64   `json:"graded_at"`
}

type Submission struct {
	ID           string   `json:"id"`
	AssignmentID string   `json:"assignment_id"`
	UserID       string   `json:"user_id"`
	FileURL      string   `json:"file_url"`
	FileName     string   `json:"file_name"`
	SubmittedAt  int64    `json:"submitted_at"`
	TotalScore   *float64 `json:"total_score"`
	Feedback     *string  `json:"feedback"`
	GradedAt     *int64   `json:"graded_at"`
	GradedBy     *string  `json:"graded_by"`
	AIScore      *float64 `json:"ai_score"`
	AIFeedback   *string  `json:"ai_feedback"`
	ReturnedAt   *int64   `json:"returned_at"`

	// Joined display fields, populated by list queries.
	UserName     string `json:"user_name,omitempty"`
	UserEmail    string `json:"user_email,omitempty"`
	GradedByName string `json:"graded_by_name,omitempty"`
}

// GradeRow is a student's submission joined with its assignment, for the
// grades page.
type GradeRow struct {
	Submission
	AssignmentTitle string  `json:"assignment_title"`
	ReportNumber    int     `json:"report_number"`
	TotalPoints     float64 `json:"total_points"`
}

type StudentDashboard struct {
	Rows        []GradeRow `json:"rows"`
	TotalEarned float64    `json:"total_earned"`
	TotalGraded int        `json:"total_graded"`
}

type StaffDashboardRow struct {
	AssignmentID    string  `json:"assignment_id"`
	Title           string  `json:"title"`
	ReportNumber    int     `json:"report_number"`
	SubmissionCount int     `json:"submission_count"`
	GradedCount     int     `json:"graded_count"`
	AverageScore    float64 `json:"average_score"` // over graded submissions only
}
