package course

import (
	"context"
	"errors"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrAlreadyGraded   = errors.New("submission already graded")
	ErrScoreOutOfRange = errors.New("score out of range")
	ErrNotGraded       = errors.New("submission not graded")
)

type ListOpts struct {
	ViewerID   string
	ViewerRole string // student|ta|professor|admin
}

// AssignmentPatch carries partial updates; nil fields are left unchanged.
type AssignmentPatch struct {
	Title       *string
	Description *string
	DueDate     *int64 // 0 clears the due date
	TotalPoints *float64
	Rubric      *string
	PDFURL      *string
	Published   *bool
}

type Store interface {
	CreateAssignment(ctx context.Context, a Assignment) (Assignment, error)
	GetAssignment(ctx context.Context, id string) (Assignment, error)
	UpdateAssignment(ctx context.Context, id string, p AssignmentPatch) (Assignment, error)
	DeleteAssignment(ctx context.Context, id string) error
	ListAssignments(ctx context.Context, opts ListOpts) ([]AssignmentSummary, error)

	// UpsertSubmission creates or replaces the one submission per
	// (assignment, user). Replacing clears AI fields and returned_at.
	// Fails with ErrAlreadyGraded once a grade is recorded.
	UpsertSubmission(ctx context.Context, assignmentID, userID, fileURL, fileName string) (Submission, error)
	GetSubmission(ctx context.Context, id string) (Submission, error)
	GetSubmissionForUser(ctx context.Context, assignmentID, userID string) (Submission, error)
	ListSubmissionsForAssignment(ctx context.Context, assignmentID string) ([]Submission, error)
	ListGradesForUser(ctx context.Context, userID string) ([]GradeRow, error)

	// ApplyGrade validates the score against the assignment's total points.
	ApplyGrade(ctx context.Context, submissionID string, score float64, feedback, gradedBy string) (Submission, error)
	// ReturnSubmission clears the grade and AI fields so the student can
	// resubmit, stamping returned_at. Fails with ErrNotGraded when there
	// is nothing to clear.
	ReturnSubmission(ctx context.Context, submissionID string) (Submission, error)
	// SaveAIResult stores the normalized AI grade without touching the
	// human grade fields.
	SaveAIResult(ctx context.Context, submissionID string, score float64, feedbackJSON string) error

	StudentDashboard(ctx context.Context, userID string) (StudentDashboard, error)
	StaffDashboard(ctx context.Context) ([]StaffDashboardRow, error)
}
